package types

import (
	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/samber/lo"
)

// BillingPeriod is the billing interval for a plan ex month, year
type BillingPeriod string

const (
	BILLING_PERIOD_DAY   BillingPeriod = "day"
	BILLING_PERIOD_WEEK  BillingPeriod = "week"
	BILLING_PERIOD_MONTH BillingPeriod = "month"
	BILLING_PERIOD_YEAR  BillingPeriod = "year"
)

func (p BillingPeriod) String() string {
	return string(p)
}

func (p BillingPeriod) Validate() error {
	allowed := []BillingPeriod{
		BILLING_PERIOD_DAY,
		BILLING_PERIOD_WEEK,
		BILLING_PERIOD_MONTH,
		BILLING_PERIOD_YEAR,
	}
	if !lo.Contains(allowed, p) {
		return ierr.NewError("invalid billing period").
			WithHint("Billing period must be one of day, week, month, year").
			WithReportableDetails(map[string]any{
				"allowed_values": allowed,
				"provided_value": p,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
