package customer

import (
	"github.com/cyclebill/cyclebill/internal/types"
)

// Customer is a tenant-scoped end-user identity. The lifecycle core only
// references customers by id; profile ownership lives with the customer
// collaborator.
type Customer struct {
	// ID is the unique identifier for the customer
	ID string `db:"id" json:"id"`

	// LookupKey is the tenant-supplied key for the customer, unique per tenant and mode
	LookupKey string `db:"lookup_key" json:"lookup_key"`

	// Name is the name of the customer
	Name string `db:"name" json:"name"`

	// Email is the email of the customer
	Email string `db:"email" json:"email"`

	// Metadata is a jsonb field for additional information
	Metadata types.Metadata `db:"metadata" json:"metadata"`

	types.BaseModel
}

// IsActive reports whether the customer can be attached to new subscriptions
func (c *Customer) IsActive() bool {
	return c.Status == types.StatusPublished
}
