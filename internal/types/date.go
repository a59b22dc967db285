package types

import (
	"time"

	ierr "github.com/cyclebill/cyclebill/internal/errors"
)

// NextBillingDate calculates the end of a billing period given its start,
// the billing period, and the billing period count (the frequency multiplier).
// For example:
// - If billing period is month and count is 2, we add two months.
// - If billing period is year and count is 1, we add one year.
// - If billing period is week and count is 3, we add 21 days (3 weeks).
// - If billing period is day and count is 10, we add 10 days.
// Month and year addition follows calendar rules: one month from Jan 31 lands
// on the last valid day of February rather than spilling into March.
func NextBillingDate(start time.Time, count int, period BillingPeriod) (time.Time, error) {
	if count <= 0 {
		return start, ierr.NewError("billing period count must be a positive integer").
			WithHint("Billing period count must be at least 1").
			WithReportableDetails(map[string]any{
				"provided_value": count,
			}).
			Mark(ierr.ErrValidation)
	}

	switch period {
	case BILLING_PERIOD_DAY:
		return AddClampedDate(start, 0, 0, count), nil
	case BILLING_PERIOD_WEEK:
		// 1 week = 7 days
		return AddClampedDate(start, 0, 0, 7*count), nil
	case BILLING_PERIOD_MONTH:
		return AddClampedDate(start, 0, count, 0), nil
	case BILLING_PERIOD_YEAR:
		return AddClampedDate(start, count, 0, 0), nil
	default:
		return start, ierr.NewError("invalid billing period").
			WithHint("Billing period must be one of day, week, month, year").
			WithReportableDetails(map[string]any{
				"provided_value": period,
			}).
			Mark(ierr.ErrValidation)
	}
}

// AddClampedDate adds years, months and days to t, clamping the day of month
// to the last valid day of the target month instead of overflowing the way
// time.AddDate does (Jan 31 + 1 month = Feb 29/28, not Mar 2/3).
func AddClampedDate(t time.Time, years, months, days int) time.Time {
	y, m, d := t.Date()
	h, min, sec := t.Clock()

	newY := y + years
	newM := time.Month(int(m) + months)

	// Normalize month overflow in either direction, ex adding 2 months to
	// November lands on January of the next year.
	for newM > 12 {
		newM -= 12
		newY++
	}
	for newM < 1 {
		newM += 12
		newY--
	}

	// Find the last valid day of the new month
	firstOfNextMonth := time.Date(newY, newM+1, 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfNextMonth.AddDate(0, 0, -1).Day()

	newD := d
	if newD > lastDay {
		newD = lastDay
	}

	result := time.Date(newY, newM, newD, h, min, sec, t.Nanosecond(), t.Location())
	if days != 0 {
		// Day arithmetic has no clamping concerns, normal addition applies
		result = result.AddDate(0, 0, days)
	}
	return result
}
