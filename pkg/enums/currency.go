package enums

import "fmt"

// Currency represents the monetary denominations the platform settles in.
// Donations are single-currency today; the enum exists so the ledger stays
// explicit about what it stored.
type Currency string

const (
	CurrencyBRL Currency = "brl"
)

// DefaultCurrency is the fixed settlement currency for donations.
const DefaultCurrency = CurrencyBRL

var validCurrencies = []Currency{
	CurrencyBRL,
}

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}

// IsValid reports whether the currency is recognized.
func (c Currency) IsValid() bool {
	for _, candidate := range validCurrencies {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCurrency converts a raw string into a Currency.
func ParseCurrency(value string) (Currency, error) {
	for _, candidate := range validCurrencies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid currency %q", value)
}
