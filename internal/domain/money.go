package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a user-entered amount. It only accepts strictly positive values.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, &ErrValidation{Field: "amount", Message: "must be a number"}
	}
	if !d.IsPositive() {
		return decimal.Zero, &ErrValidation{Field: "amount", Message: "must be greater than zero"}
	}
	return d, nil
}

// FormatINR renders an amount the way the dashboards show it: rupee sign,
// Indian digit grouping and two decimals (₹1,23,456.50).
func FormatINR(amount float64) string {
	s := decimal.NewFromFloat(amount).StringFixed(2)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	if len(intPart) > 3 {
		head, tail := intPart[:len(intPart)-3], intPart[len(intPart)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		intPart = strings.Join(append(groups, tail), ",")
	}
	return sign + "₹" + intPart + "." + frac
}
