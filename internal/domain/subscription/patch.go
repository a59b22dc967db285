package subscription

import (
	"time"

	"github.com/cyclebill/cyclebill/internal/types"
)

// Patch is the explicit set of mutable subscription fields. A nil field means
// "leave unchanged". Applying a patch is a pure merge, independent of the
// storage adapter, so validation and persistence stay separate concerns.
type Patch struct {
	LookupKey *string         `json:"lookup_key,omitempty"`
	Quantity  *int64          `json:"quantity,omitempty"`
	Metadata  *types.Metadata `json:"metadata,omitempty"`
}

// IsEmpty reports whether the patch changes nothing
func (p Patch) IsEmpty() bool {
	return p.LookupKey == nil && p.Quantity == nil && p.Metadata == nil
}

// Apply merges the patch into a copy of the subscription and returns it.
// The receiver is not modified.
func (p Patch) Apply(sub *Subscription) *Subscription {
	updated := *sub
	updated.Items = make(JSONBItems, len(sub.Items))
	copy(updated.Items, sub.Items)

	if p.LookupKey != nil {
		updated.LookupKey = *p.LookupKey
	}
	if p.Quantity != nil && len(updated.Items) > 0 {
		updated.Items[0].Quantity = *p.Quantity
	}
	if p.Metadata != nil {
		updated.Metadata = *p.Metadata
	}
	updated.UpdatedAt = time.Now().UTC()
	return &updated
}
