package view

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Prices and mileage are always shown in en-US notation.
var enUS = message.NewPrinter(language.AmericanEnglish)

// USD formats v as dollars with cents, e.g. $28,045.00.
func USD(v float64) string { return enUS.Sprintf("$%.2f", v) }

// Price formats v as whole dollars with grouping, keeping cents only when
// present, e.g. $28,045 or $22,500.5.
func Price(v float64) string {
	return "$" + enUS.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
}

// Number groups an integer count, e.g. 41,205.
func Number(n int) string { return enUS.Sprintf("%d", n) }
