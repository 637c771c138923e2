// Package money keeps float64 amounts (the Firestore representation) exact to the
// cent by doing all arithmetic in decimal.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

const places = 2

func d(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func out(v decimal.Decimal) float64 {
	return v.Round(places).InexactFloat64()
}

func Add(a, b float64) float64 { return out(d(a).Add(d(b))) }

func Sub(a, b float64) float64 { return out(d(a).Sub(d(b))) }

// Min returns the smaller amount.
func Min(a, b float64) float64 {
	if d(a).LessThan(d(b)) {
		return a
	}
	return b
}

// Less reports a < b at cent precision.
func Less(a, b float64) bool {
	return d(a).Round(places).LessThan(d(b).Round(places))
}

func IsPositive(v float64) bool {
	return d(v).Round(places).IsPositive()
}

// Percent returns part/whole*100 rounded to two places; whole must be non-zero.
func Percent(part, whole float64) float64 {
	return out(d(part).Div(d(whole)).Mul(decimal.NewFromInt(100)))
}

// ParseCurrency validates an ISO 4217 code and returns it upper-cased.
func ParseCurrency(code string) (string, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return "", err
	}
	return unit.String(), nil
}

// Format renders an amount as "USD 12.50". Unknown codes fall back to USD.
func Format(amount float64, code string) string {
	unit, err := ParseCurrency(code)
	if err != nil {
		unit = currency.USD.String()
	}
	return fmt.Sprintf("%s %s", unit, d(amount).StringFixed(places))
}
