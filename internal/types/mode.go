package types

import (
	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/samber/lo"
)

// Mode is the test/live data partition, orthogonal to the tenant.
// Every persisted row carries a mode and every query is scoped by it.
type Mode string

const (
	ModeTest Mode = "test"
	ModeLive Mode = "live"
)

func (m Mode) String() string {
	return string(m)
}

func (m Mode) Validate() error {
	allowed := []Mode{ModeTest, ModeLive}
	if !lo.Contains(allowed, m) {
		return ierr.NewError("invalid mode").
			WithHint("Mode must be either test or live").
			WithReportableDetails(map[string]any{
				"allowed_values": allowed,
				"provided_value": m,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
