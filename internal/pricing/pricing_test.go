package pricing

import (
	"testing"

	"github.com/ariefcatur/go-rental-checkout/internal/bag"
	"github.com/ariefcatur/go-rental-checkout/internal/promo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func resolve(t *testing.T, code string) *promo.Promotion {
	t.Helper()
	p, err := promo.Resolve(code)
	require.NoError(t, err)
	return &p
}

func TestCompute_SubtotalIsSumOfLines(t *testing.T) {
	items := []bag.LineItem{
		{ProductID: "A", Size: "M", UnitPrice: 125, Quantity: 1},
		{ProductID: "B", Size: "S", UnitPrice: 160, Quantity: 2},
		{ProductID: "C", Size: "L", UnitPrice: 19.95, Quantity: 3},
	}

	got := Compute(items, nil)

	var want float64
	for _, it := range items {
		want += it.UnitPrice * float64(it.Quantity)
	}
	assert.Equal(t, want, got.Subtotal)
	assert.Equal(t, BaseShippingFee, got.ShippingFee)
	assert.InDelta(t, want*TaxRate, got.Tax, eps)
	assert.Zero(t, got.Discount)
}

func TestCompute_Welcome10(t *testing.T) {
	items := []bag.LineItem{{ProductID: "A", Size: "M", UnitPrice: 240, Quantity: 2}}

	got := Compute(items, resolve(t, "WELCOME10"))

	assert.Equal(t, 0.10*got.Subtotal, got.Discount)
	assert.Equal(t, BaseShippingFee, got.ShippingFee)
	assert.InDelta(t, got.Subtotal+got.ShippingFee+got.Tax-got.Discount, got.Total, eps)
}

func TestCompute_FreeShip(t *testing.T) {
	items := []bag.LineItem{{ProductID: "A", Size: "M", UnitPrice: 80, Quantity: 1}}

	got := Compute(items, resolve(t, "FREESHIP"))

	assert.Zero(t, got.ShippingFee)
	assert.Zero(t, got.Discount)
}

func TestCompute_EmptyBag(t *testing.T) {
	got := Compute(nil, nil)

	assert.Zero(t, got.Subtotal)
	assert.Zero(t, got.Tax)
	assert.Equal(t, BaseShippingFee, got.ShippingFee)
	assert.Equal(t, BaseShippingFee, got.Total)
}

func TestCompute_ExampleScenario(t *testing.T) {
	items := []bag.LineItem{{ProductID: "A", Size: "M", UnitPrice: 100, Quantity: 1}}

	plain := Compute(items, nil)
	assert.InDelta(t, 100, plain.Subtotal, eps)
	assert.InDelta(t, 9.99, plain.ShippingFee, eps)
	assert.InDelta(t, 7.25, plain.Tax, eps)
	assert.InDelta(t, 117.24, plain.Total, eps)

	welcome := Compute(items, resolve(t, "WELCOME10"))
	assert.InDelta(t, 10.00, welcome.Discount, eps)
	assert.InDelta(t, 107.24, welcome.Total, eps)

	freeShip := Compute(items, resolve(t, "FREESHIP"))
	assert.Zero(t, freeShip.ShippingFee)
	assert.InDelta(t, 107.25, freeShip.Total, eps)
}

func TestDisplay_RoundsAtPresentation(t *testing.T) {
	items := []bag.LineItem{{ProductID: "A", Size: "M", UnitPrice: 33.33, Quantity: 3}}

	d := Compute(items, resolve(t, "WELCOME10")).Display()

	assert.Equal(t, "99.99", d.Subtotal)
	assert.Equal(t, "9.99", d.ShippingFee)
	assert.Equal(t, "7.25", d.Tax)
	assert.Equal(t, "10.00", d.Discount)
	assert.Equal(t, "107.23", d.Total)
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "0.00", Money(0))
	assert.Equal(t, "117.24", Money(100+9.99+100*TaxRate))
	assert.Equal(t, "1.01", Money(1.005+0.004))
	assert.Equal(t, "1.01", Money(1.005))
	assert.Equal(t, "2.68", Money(2.675))
}
