package price

import (
	"testing"

	"github.com/cyclebill/cyclebill/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestPriceValidate(t *testing.T) {
	tests := []struct {
		name    string
		price   Price
		wantErr bool
	}{
		{
			name: "valid flat price",
			price: Price{
				Currency:     "USD",
				UnitAmount:   1000,
				PricingModel: types.PRICING_MODEL_FLAT,
			},
		},
		{
			name: "valid per unit price",
			price: Price{
				Currency:     "EUR",
				UnitAmount:   50,
				PricingModel: types.PRICING_MODEL_PER_UNIT,
			},
		},
		{
			name: "valid tiered price",
			price: Price{
				Currency:     "USD",
				PricingModel: types.PRICING_MODEL_TIERED,
				Tiers: JSONBTiers{
					{UpTo: lo.ToPtr(uint64(100)), UnitAmount: 0},
					{UpTo: nil, UnitAmount: 30},
				},
			},
		},
		{
			name: "negative unit amount",
			price: Price{
				Currency:     "USD",
				UnitAmount:   -1,
				PricingModel: types.PRICING_MODEL_FLAT,
			},
			wantErr: true,
		},
		{
			name: "invalid currency",
			price: Price{
				Currency:     "DOLLARS",
				UnitAmount:   100,
				PricingModel: types.PRICING_MODEL_FLAT,
			},
			wantErr: true,
		},
		{
			name: "tiers on a flat price",
			price: Price{
				Currency:     "USD",
				UnitAmount:   100,
				PricingModel: types.PRICING_MODEL_FLAT,
				Tiers: JSONBTiers{
					{UpTo: nil, UnitAmount: 10},
				},
			},
			wantErr: true,
		},
		{
			name: "tiered price without tiers",
			price: Price{
				Currency:     "USD",
				PricingModel: types.PRICING_MODEL_VOLUME,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.price.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateTiers(t *testing.T) {
	tests := []struct {
		name    string
		tiers   []PriceTier
		wantErr bool
	}{
		{
			name: "ascending bounds with terminal infinite tier",
			tiers: []PriceTier{
				{UpTo: lo.ToPtr(uint64(10)), UnitAmount: 100},
				{UpTo: lo.ToPtr(uint64(100)), UnitAmount: 70},
				{UpTo: nil, UnitAmount: 40},
			},
		},
		{
			name: "single bounded tier",
			tiers: []PriceTier{
				{UpTo: lo.ToPtr(uint64(50)), UnitAmount: 10},
			},
		},
		{
			name:    "empty tier list",
			tiers:   []PriceTier{},
			wantErr: true,
		},
		{
			name: "null bound before the last tier",
			tiers: []PriceTier{
				{UpTo: nil, UnitAmount: 40},
				{UpTo: lo.ToPtr(uint64(10)), UnitAmount: 100},
			},
			wantErr: true,
		},
		{
			name: "bounds not strictly increasing",
			tiers: []PriceTier{
				{UpTo: lo.ToPtr(uint64(100)), UnitAmount: 100},
				{UpTo: lo.ToPtr(uint64(100)), UnitAmount: 70},
			},
			wantErr: true,
		},
		{
			name: "zero bound",
			tiers: []PriceTier{
				{UpTo: lo.ToPtr(uint64(0)), UnitAmount: 100},
			},
			wantErr: true,
		},
		{
			name: "negative tier unit amount",
			tiers: []PriceTier{
				{UpTo: lo.ToPtr(uint64(10)), UnitAmount: -5},
			},
			wantErr: true,
		},
		{
			name: "negative flat surcharge",
			tiers: []PriceTier{
				{UpTo: lo.ToPtr(uint64(10)), UnitAmount: 5, FlatAmount: lo.ToPtr(int64(-1))},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTiers(tt.tiers)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDisplayAmounts(t *testing.T) {
	usd := &Price{Currency: "USD", UnitAmount: 1250}
	assert.Equal(t, "$12.50", usd.GetDisplayAmount())

	// Zero-exponent currencies carry no decimal places
	jpy := &Price{Currency: "JPY", UnitAmount: 1250}
	assert.Equal(t, "¥1250", jpy.GetDisplayAmount())

	assert.Equal(t, "€0.99", GetDisplayAmountWithPrecision(99, "EUR"))
	assert.Equal(t, "$0.00", GetDisplayAmountWithPrecision(0, "USD"))
}

func TestMajorAmount(t *testing.T) {
	assert.Equal(t, "12.5", MajorAmount(1250, "USD").String())
	assert.Equal(t, "1250", MajorAmount(1250, "JPY").String())
}
