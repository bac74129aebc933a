package format

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Price renders amount with exactly two fraction digits and the digit grouping of lang, for
// example 1234.5 in ru becomes "1 234,50". Unknown languages fall back to ru.
func Price(lang string, amount decimal.Decimal) string {
	tag, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		tag = language.Russian
	}
	f, _ := amount.Round(2).Float64()
	return message.NewPrinter(tag).Sprintf("%v", number.Decimal(f, number.Scale(2)))
}

// PriceWithCurrency appends the currency symbol to Price, separated by a non-breaking space.
func PriceWithCurrency(lang string, amount decimal.Decimal, symbol string) string {
	formatted := Price(lang, amount)
	if symbol = strings.TrimSpace(symbol); symbol == "" {
		return formatted
	}
	return formatted + "\u00a0" + symbol
}
