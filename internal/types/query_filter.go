package types

import (
	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/samber/lo"
)

const (
	// FILTER_DEFAULT_LIMIT is the page size when the caller does not ask for one
	FILTER_DEFAULT_LIMIT = 10
	// FILTER_MAX_LIMIT is the hard cap on page size
	FILTER_MAX_LIMIT = 100
)

// QueryFilter represents a generic cursor-paginated query filter.
// StartingAfter is the id of the row the previous page ended on; the next
// page contains rows created strictly before it.
type QueryFilter struct {
	Limit         *int    `json:"limit,omitempty" form:"limit"`
	StartingAfter *string `json:"starting_after,omitempty" form:"starting_after"`
	Status        *Status `json:"status,omitempty" form:"status"`
}

// NewDefaultQueryFilter returns a filter with default values
func NewDefaultQueryFilter() *QueryFilter {
	return &QueryFilter{
		Limit:  lo.ToPtr(FILTER_DEFAULT_LIMIT),
		Status: lo.ToPtr(StatusPublished),
	}
}

// GetLimit returns the limit clamped to [1, FILTER_MAX_LIMIT],
// defaulting to FILTER_DEFAULT_LIMIT
func (f QueryFilter) GetLimit() int {
	if f.Limit == nil {
		return FILTER_DEFAULT_LIMIT
	}
	limit := *f.Limit
	if limit < 1 {
		return 1
	}
	if limit > FILTER_MAX_LIMIT {
		return FILTER_MAX_LIMIT
	}
	return limit
}

// GetStartingAfter returns the cursor row id or empty if unset
func (f QueryFilter) GetStartingAfter() string {
	if f.StartingAfter == nil {
		return ""
	}
	return *f.StartingAfter
}

// GetStatus returns the status value or default if not set
func (f QueryFilter) GetStatus() Status {
	if f.Status == nil {
		return StatusPublished
	}
	return *f.Status
}

func (f QueryFilter) Validate() error {
	if f.Limit != nil && *f.Limit < 0 {
		return ierr.NewError("limit must not be negative").
			WithHint("Limit must be a positive integer").
			WithReportableDetails(map[string]any{
				"provided_value": *f.Limit,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
