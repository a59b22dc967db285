package types

import (
	"strings"

	ierr "github.com/cyclebill/cyclebill/internal/errors"
)

// CurrencyConfig holds the display symbol and the minor-unit exponent for a
// currency. Precision is the number of minor-unit digits, ex 2 for USD
// (cents), 0 for JPY.
type CurrencyConfig struct {
	Symbol    string
	Precision int32
}

// currencyConfigs is a map of 3 digit ISO currency codes to their config
var currencyConfigs = map[string]CurrencyConfig{
	"USD": {Symbol: "$", Precision: 2},
	"EUR": {Symbol: "€", Precision: 2},
	"GBP": {Symbol: "£", Precision: 2},
	"AUD": {Symbol: "AU$", Precision: 2},
	"CAD": {Symbol: "CA$", Precision: 2},
	"CHF": {Symbol: "CHF", Precision: 2},
	"SEK": {Symbol: "kr", Precision: 2},
	"NZD": {Symbol: "NZ$", Precision: 2},
	"HKD": {Symbol: "HK$", Precision: 2},
	"SGD": {Symbol: "S$", Precision: 2},
	"JPY": {Symbol: "¥", Precision: 0},
	"CNY": {Symbol: "¥", Precision: 2},
	"INR": {Symbol: "₹", Precision: 2},
	"BRL": {Symbol: "R$", Precision: 2},
	"MXN": {Symbol: "MX$", Precision: 2},
	"KRW": {Symbol: "₩", Precision: 0},
	"TRY": {Symbol: "₺", Precision: 2},
	"ZAR": {Symbol: "R", Precision: 2},
	"MYR": {Symbol: "RM", Precision: 2},
}

// NormalizeCurrency normalizes a currency code to uppercase ISO 4217 form
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// GetCurrencyConfig returns the config for a given currency code.
// Unknown codes get a 2 digit precision and the code itself as symbol.
func GetCurrencyConfig(code string) CurrencyConfig {
	if config, ok := currencyConfigs[NormalizeCurrency(code)]; ok {
		return config
	}
	return CurrencyConfig{Symbol: NormalizeCurrency(code), Precision: 2}
}

// GetCurrencySymbol returns the symbol for a given currency code
// if the code is not found, it returns the code itself
func GetCurrencySymbol(code string) string {
	return GetCurrencyConfig(code).Symbol
}

// GetCurrencyPrecision returns the minor-unit exponent for a currency code
func GetCurrencyPrecision(code string) int32 {
	return GetCurrencyConfig(code).Precision
}

// ValidateCurrencyCode validates that a code looks like ISO 4217
func ValidateCurrencyCode(code string) error {
	normalized := NormalizeCurrency(code)
	if len(normalized) != 3 {
		return ierr.NewError("invalid currency code").
			WithHint("Currency must be a 3 letter ISO 4217 code").
			WithReportableDetails(map[string]any{
				"provided_value": code,
			}).
			Mark(ierr.ErrValidation)
	}
	for _, r := range normalized {
		if r < 'A' || r > 'Z' {
			return ierr.NewError("invalid currency code").
				WithHint("Currency must be a 3 letter ISO 4217 code").
				WithReportableDetails(map[string]any{
					"provided_value": code,
				}).
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}
