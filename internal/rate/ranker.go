package rate

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Rank applies book's discounts to options and orders them by final price.
// Options with equal prices keep their relative order.
func Rank(options []QuoteOption, book *DiscountBook) []QuoteOption {
	ranked := make([]QuoteOption, len(options))
	for i, opt := range options {
		fraction, ok := book.For(opt.Carrier, opt.Zone)
		opt.Discount = fraction
		opt.Discounted = ok
		opt.Price = FinalPrice(opt.BasePrice, fraction)
		ranked[i] = opt
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Price.LessThan(ranked[j].Price)
	})
	return ranked
}

// FinalPrice returns price × (1 − fraction) rounded to cents.
func FinalPrice(price decimal.Decimal, fraction float64) decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(fraction))
	return price.Mul(factor).Round(2)
}
