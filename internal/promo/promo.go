package promo

import (
	"fmt"
	"strings"

	"github.com/ariefcatur/go-rental-checkout/internal/apperr"
)

type Kind string

const (
	KindPercentageOff Kind = "percentage-off"
	KindFreeShipping  Kind = "free-shipping"
)

// Promotion is a discount rule resolved from a code. Value is the discount
// fraction for percentage-off promotions and unused otherwise.
type Promotion struct {
	Code  string  `json:"code"`
	Kind  Kind    `json:"kind"`
	Value float64 `json:"value"`
}

// Description is the confirmation text shown when the code is applied.
func (p Promotion) Description() string {
	switch p.Kind {
	case KindPercentageOff:
		return fmt.Sprintf("Promo code applied: %.0f%% off your order!", p.Value*100)
	case KindFreeShipping:
		return "Promo code applied: Free shipping!"
	default:
		return "Promo code applied"
	}
}

var catalog = map[string]Promotion{
	"WELCOME10": {Code: "WELCOME10", Kind: KindPercentageOff, Value: 0.10},
	"FREESHIP":  {Code: "FREESHIP", Kind: KindFreeShipping},
}

// UnknownPromotionError is returned for a code that is not in the catalog.
type UnknownPromotionError struct {
	Code string
}

func (e *UnknownPromotionError) Error() string {
	return fmt.Sprintf("unknown promotion code %q", e.Code)
}

// Resolve trims and upper-cases code and looks it up in the fixed catalog.
func Resolve(code string) (Promotion, error) {
	norm := strings.ToUpper(strings.TrimSpace(code))
	if norm == "" {
		return Promotion{}, apperr.Invalid("code", "Please enter a promo code")
	}
	p, ok := catalog[norm]
	if !ok {
		return Promotion{}, &UnknownPromotionError{Code: norm}
	}
	return p, nil
}
