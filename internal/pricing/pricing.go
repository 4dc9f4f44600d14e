// Package pricing derives order totals from a bag snapshot and the active
// promotion. Values keep full float precision; rounding to cents happens
// only in Display.
package pricing

import (
	"github.com/ariefcatur/go-rental-checkout/internal/bag"
	"github.com/ariefcatur/go-rental-checkout/internal/promo"
)

const (
	BaseShippingFee = 9.99
	TaxRate         = 0.0725
)

type Totals struct {
	Subtotal    float64 `json:"subtotal"`
	ShippingFee float64 `json:"shippingFee"`
	Tax         float64 `json:"tax"`
	Discount    float64 `json:"discount"`
	Total       float64 `json:"total"`
}

// Compute never fails. An empty bag still carries the base shipping fee;
// checkout refuses empty bags before totals matter.
func Compute(items []bag.LineItem, p *promo.Promotion) Totals {
	var t Totals
	for _, it := range items {
		t.Subtotal += it.UnitPrice * float64(it.Quantity)
	}

	t.ShippingFee = BaseShippingFee
	if p != nil && p.Kind == promo.KindFreeShipping {
		t.ShippingFee = 0
	}
	t.Tax = t.Subtotal * TaxRate
	if p != nil && p.Kind == promo.KindPercentageOff {
		t.Discount = t.Subtotal * p.Value
	}
	t.Total = t.Subtotal + t.ShippingFee + t.Tax - t.Discount
	return t
}
