package types

import (
	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/samber/lo"
)

// PlanStatus is the sellability status of a plan. Archived plans reject new
// subscriptions but existing subscriptions keep running on them.
type PlanStatus string

const (
	PlanStatusActive   PlanStatus = "active"
	PlanStatusDraft    PlanStatus = "draft"
	PlanStatusArchived PlanStatus = "archived"
)

func (s PlanStatus) String() string {
	return string(s)
}

func (s PlanStatus) Validate() error {
	allowed := []PlanStatus{
		PlanStatusActive,
		PlanStatusDraft,
		PlanStatusArchived,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid plan status").
			WithHint("Plan status must be one of active, draft, archived").
			WithReportableDetails(map[string]any{
				"allowed_values": allowed,
				"provided_value": s,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PlanFilter represents filters for plan queries
type PlanFilter struct {
	*QueryFilter

	// PlanStatus filters by plan status
	PlanStatus []PlanStatus `json:"plan_status,omitempty" form:"plan_status"`
}

// NewPlanFilter creates a new PlanFilter with default pagination
func NewPlanFilter() *PlanFilter {
	return &PlanFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

func (f PlanFilter) Validate() error {
	if f.QueryFilter != nil {
		if err := f.QueryFilter.Validate(); err != nil {
			return err
		}
	}
	for _, status := range f.PlanStatus {
		if err := status.Validate(); err != nil {
			return err
		}
	}
	return nil
}
