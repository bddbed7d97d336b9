package report

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Money formats v as US dollars with two decimals and thousands separators,
// e.g. "$27,160.00" or "-$12.50".
func Money(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	if d.IsNegative() {
		return "-$" + printer.Sprintf("%.2f", d.Abs().InexactFloat64())
	}
	return "$" + printer.Sprintf("%.2f", d.InexactFloat64())
}

// Number formats v with thousands separators. Whole numbers print without
// decimals; anything else is rounded to two places.
func Number(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	if d.IsInteger() {
		return printer.Sprintf("%d", d.IntPart())
	}
	return printer.Sprintf("%.2f", d.InexactFloat64())
}

// Percent formats a percentage with one decimal, e.g. "12.5%".
func Percent(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(1) + "%"
}

// SignedPercent is Percent with an explicit sign for positive values.
func SignedPercent(v float64) string {
	s := Percent(v)
	if decimal.NewFromFloat(v).Round(1).IsPositive() {
		return "+" + s
	}
	return s
}
