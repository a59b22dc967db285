package postgres

import (
	"database/sql"
	"errors"

	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/lib/pq"
)

// pq error code for unique_violation
const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolationCode
	}
	return false
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// wrapDBError maps driver-level failures into the error taxonomy. Callers
// handle not-found and conflict outcomes explicitly before reaching for this.
func wrapDBError(err error, op string) error {
	return ierr.WithError(err).
		WithHintf("Database operation failed: %s", op).
		Mark(ierr.ErrDatabase)
}

func notFound(entity, field, value string) error {
	return ierr.NewErrorf("%s not found", entity).
		WithHintf("No %s exists for the given %s", entity, field).
		WithReportableDetails(map[string]any{
			field: value,
		}).
		Mark(ierr.ErrNotFound)
}

func subscriptionNotFound(field, value string) error {
	return notFound("subscription", field, value)
}

func planNotFound(field, value string) error {
	return notFound("plan", field, value)
}

func priceNotFound(field, value string) error {
	return notFound("price", field, value)
}

func customerNotFound(field, value string) error {
	return notFound("customer", field, value)
}

func lookupKeyConflict(entity, lookupKey string) error {
	return ierr.NewErrorf("%s lookup key already exists", entity).
		WithHint("Lookup keys are unique per tenant and mode").
		WithReportableDetails(map[string]any{
			"lookup_key": lookupKey,
		}).
		Mark(ierr.ErrAlreadyExists)
}
