package orders

import "time"

// Draft is the header of an order about to be created: where it ships and
// what the shopper saw as totals at placement time.
type Draft struct {
	FirstName     string
	LastName      string
	StreetAddress string
	AptSuite      string
	City          string
	State         string
	ZipCode       string
	Country       string
	Phone         string
	Email         string
	Subtotal      float64
	ShippingFee   float64
	Tax           float64
	Discount      float64
	Total         float64
	PromoCode     string
}

// CreateResult mirrors the record store's reply: Success is false when the
// store refused the write without raising an error.
type CreateResult struct {
	Success bool
	ID      string
}

type Order struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	StreetAddress string    `json:"streetAddress"`
	AptSuite      string    `json:"aptSuite"`
	City          string    `json:"city"`
	State         string    `json:"state"`
	ZipCode       string    `json:"zipCode"`
	Country       string    `json:"country"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email"`
	Subtotal      float64   `json:"subtotal"`
	ShippingFee   float64   `json:"shippingFee"`
	Tax           float64   `json:"tax"`
	Discount      float64   `json:"discount"`
	Total         float64   `json:"total"`
	PromoCode     string    `json:"promoCode"`
	Status        Status    `json:"status"` // lihat status.go
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type OrderItem struct {
	ID          string     `json:"id"`
	OrderID     string     `json:"orderId"`
	Name        string     `json:"name"`
	ItemID      string     `json:"itemId"`
	Title       string     `json:"title"`
	Designer    string     `json:"designer"`
	Price       float64    `json:"price"`
	Image       string     `json:"image"`
	Color       string     `json:"color"`
	Size        string     `json:"size"`
	Quantity    int        `json:"quantity"`
	RentalDays  int        `json:"rentalDays"`
	RentalStart *time.Time `json:"rentalStart,omitempty"`
	RentalEnd   *time.Time `json:"rentalEnd,omitempty"`
}
