// Package utils provides small formatting helpers shared across the
// analytics backend.
package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoney formats a decimal amount with its currency symbol.
func FormatMoney(d decimal.Decimal, currency string) string {
	switch strings.ToUpper(currency) {
	case "USD":
		return "$" + d.StringFixed(2)
	case "INR":
		return "₹" + d.StringFixed(2)
	case "GBP":
		return "£" + d.StringFixed(2)
	case "EUR":
		return "€" + d.StringFixed(2)
	default:
		return d.StringFixed(2) + " " + currency
	}
}

// FormatPercent renders a percentage with two decimal places.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// FormatScaling renders a compounding scaling factor as "1.50x".
func FormatScaling(d decimal.Decimal) string {
	return d.StringFixed(2) + "x"
}
