package bag

import (
	"context"
	"errors"
	"time"

	"github.com/ariefcatur/go-rental-checkout/internal/apperr"
	"github.com/ariefcatur/go-rental-checkout/internal/validation"
)

// DefaultRentalDays is used when a selection does not name a rental period.
const DefaultRentalDays = 4

// LineItem is one rental selection in the bag. Title, Designer, Image and
// Color are copies taken when the item was added; they are never re-synced
// from the catalog.
type LineItem struct {
	ProductID   string     `json:"id"`
	Size        string     `json:"size"`
	Title       string     `json:"title"`
	Designer    string     `json:"designer"`
	Image       string     `json:"image"`
	Color       string     `json:"color"`
	UnitPrice   float64    `json:"price"`
	RentalDays  int        `json:"rentalDays"`
	Quantity    int        `json:"quantity"`
	RentalStart *time.Time `json:"rentalStart,omitempty"`
	RentalEnd   *time.Time `json:"rentalEnd,omitempty"`
	AddedAt     time.Time  `json:"addedAt"`
}

// Selection is what the shopper picked on the item page.
type Selection struct {
	ProductID   string     `json:"productId" validate:"notblank"`
	Size        string     `json:"size" validate:"notblank"`
	Title       string     `json:"title"`
	Designer    string     `json:"designer"`
	Image       string     `json:"image"`
	Color       string     `json:"color"`
	UnitPrice   float64    `json:"price" validate:"gte=0"`
	RentalDays  int        `json:"rentalDays" validate:"gte=0"`
	Quantity    int        `json:"quantity" validate:"gte=0"`
	RentalStart *time.Time `json:"rentalStart,omitempty"`
	RentalEnd   *time.Time `json:"rentalEnd,omitempty"`
}

// Slot is the identity of a bag entry.
type Slot struct {
	ProductID string
	Size      string
}

func (it LineItem) Slot() Slot { return Slot{ProductID: it.ProductID, Size: it.Size} }

// Subtotal is UnitPrice × Quantity.
func (it LineItem) Subtotal() float64 { return it.UnitPrice * float64(it.Quantity) }

var selectionMessages = apperr.Messages{
	"productId.notblank": "Product is required",
	"size.notblank":      "Please select a size first",
	"quantity.gte":       "Quantity must be at least 1",
	"rentalDays.gte":     "Rental days must be positive",
	"price.gte":          "Price cannot be negative",
}

// NewLineItem validates a selection and turns it into a LineItem.
// A zero Quantity means 1 and a zero RentalDays means DefaultRentalDays.
func NewLineItem(sel Selection, now time.Time) (LineItem, error) {
	fields := map[string]string{}
	err := validation.Struct(context.Background(), sel, selectionMessages)
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		fields = ve.Fields
	} else if err != nil {
		return LineItem{}, err
	}
	if sel.RentalStart != nil && sel.RentalEnd != nil && sel.RentalEnd.Before(*sel.RentalStart) {
		fields["rentalEnd"] = "Rental end must not be before rental start"
	}
	if err := apperr.Collect(fields); err != nil {
		return LineItem{}, err
	}

	qty := sel.Quantity
	if qty == 0 {
		qty = 1
	}
	days := sel.RentalDays
	if days == 0 {
		days = DefaultRentalDays
	}

	return LineItem{
		ProductID:   sel.ProductID,
		Size:        sel.Size,
		Title:       sel.Title,
		Designer:    sel.Designer,
		Image:       sel.Image,
		Color:       sel.Color,
		UnitPrice:   sel.UnitPrice,
		RentalDays:  days,
		Quantity:    qty,
		RentalStart: sel.RentalStart,
		RentalEnd:   sel.RentalEnd,
		AddedAt:     now.UTC(),
	}, nil
}

// SameSlot reports whether a and b occupy the same bag position.
func SameSlot(a, b LineItem) bool {
	return a.ProductID == b.ProductID && a.Size == b.Size
}
