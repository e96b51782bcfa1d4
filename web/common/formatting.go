package common

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatMoney formats an amount with two decimals and thin-space thousand separators
func FormatMoney(amount decimal.Decimal) string {
	str := amount.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(str, ".")

	n := len(intPart)
	var result strings.Builder
	if amount.IsNegative() {
		result.WriteByte('-')
	}
	for i, digit := range intPart {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteRune(' ')
		}
		result.WriteRune(digit)
	}
	result.WriteByte('.')
	result.WriteString(frac)

	return result.String()
}

// FormatSignedMoney prefixes positive amounts with "+"
func FormatSignedMoney(amount decimal.Decimal) string {
	if amount.IsPositive() {
		return "+" + FormatMoney(amount)
	}
	return FormatMoney(amount)
}

// FormatTime renders a backend timestamp as shown in the app, or "" when unset
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02.01.2006 15:04")
}
