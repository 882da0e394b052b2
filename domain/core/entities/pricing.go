package entities

import "github.com/shopspring/decimal"

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.NewFromFloat(0.5)
)

// DiscountPercent is the whole-percent discount shown for interactively
// created or edited products: round((price-minPrice)/price*100), or 0 when
// price is not positive.
func DiscountPercent(price, minPrice float64) float64 {
	return discount(price, minPrice, 0)
}

// DiscountPercentPrecise keeps two decimals and is what the bulk importer
// stores: round((price-minPrice)/price*10000)/100.
func DiscountPercentPrecise(price, minPrice float64) float64 {
	return discount(price, minPrice, 2)
}

// discount rounds halves toward positive infinity, so -2.5 becomes -2
func discount(price, minPrice float64, places int32) float64 {
	if price <= 0 {
		return 0
	}
	p := decimal.NewFromFloat(price)
	m := decimal.NewFromFloat(minPrice)
	v, _ := p.Sub(m).Div(p).Mul(hundred).Shift(places).Add(half).Floor().Shift(-places).Float64()
	return v
}
