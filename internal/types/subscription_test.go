package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionStatusTransitions(t *testing.T) {
	tests := []struct {
		from    SubscriptionStatus
		to      SubscriptionStatus
		allowed bool
	}{
		{SubscriptionStatusTrialing, SubscriptionStatusActive, true},
		{SubscriptionStatusTrialing, SubscriptionStatusCancelled, true},
		{SubscriptionStatusTrialing, SubscriptionStatusPaused, false},
		{SubscriptionStatusActive, SubscriptionStatusPaused, true},
		{SubscriptionStatusActive, SubscriptionStatusCancelled, true},
		{SubscriptionStatusActive, SubscriptionStatusTrialing, false},
		{SubscriptionStatusPaused, SubscriptionStatusActive, true},
		{SubscriptionStatusPaused, SubscriptionStatusCancelled, true},
		{SubscriptionStatusPaused, SubscriptionStatusPaused, false},
		{SubscriptionStatusPastDue, SubscriptionStatusCancelled, true},
		{SubscriptionStatusPastDue, SubscriptionStatusPaused, false},
		{SubscriptionStatusUnpaid, SubscriptionStatusCancelled, true},
		{SubscriptionStatusIncomplete, SubscriptionStatusCancelled, true},
		{SubscriptionStatusCancelled, SubscriptionStatusActive, false},
		{SubscriptionStatusCancelled, SubscriptionStatusTrialing, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestSubscriptionStatusTerminal(t *testing.T) {
	assert.True(t, SubscriptionStatusCancelled.IsTerminal())
	assert.False(t, SubscriptionStatusActive.IsTerminal())
	assert.False(t, SubscriptionStatusTrialing.IsTerminal())
	assert.False(t, SubscriptionStatusPaused.IsTerminal())
}

func TestSubscriptionStatusValidate(t *testing.T) {
	assert.NoError(t, SubscriptionStatusActive.Validate())
	assert.NoError(t, SubscriptionStatusPastDue.Validate())
	assert.Error(t, SubscriptionStatus("suspended").Validate())
	assert.Error(t, SubscriptionStatus("").Validate())
}
