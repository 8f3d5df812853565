package domain

import "github.com/shopspring/decimal"

// Dollars converts an amount in cents to a decimal dollar value.
func Dollars(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// FormatAmount renders cents as a dollar string, e.g. 1250 -> "$12.50".
func FormatAmount(cents int64) string {
	return "$" + Dollars(cents).StringFixed(2)
}

// FormatDollars renders cents without the currency sign.
func FormatDollars(cents int64) string {
	return Dollars(cents).StringFixed(2)
}
