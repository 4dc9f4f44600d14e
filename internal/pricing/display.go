package pricing

import "github.com/shopspring/decimal"

// DisplayTotals is Totals rounded to cents for presentation.
type DisplayTotals struct {
	Subtotal    string `json:"subtotal"`
	ShippingFee string `json:"shippingFee"`
	Tax         string `json:"tax"`
	Discount    string `json:"discount"`
	Total       string `json:"total"`
}

// Money formats v with two decimals. Rounding is half-up on the shortest
// decimal form of v, so 1.005 shows as "1.01".
func Money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func (t Totals) Display() DisplayTotals {
	return DisplayTotals{
		Subtotal:    Money(t.Subtotal),
		ShippingFee: Money(t.ShippingFee),
		Tax:         Money(t.Tax),
		Discount:    Money(t.Discount),
		Total:       Money(t.Total),
	}
}
