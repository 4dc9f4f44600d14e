package checkout

import (
	"context"
	"time"

	"github.com/ariefcatur/go-rental-checkout/internal/apperr"
	"github.com/ariefcatur/go-rental-checkout/internal/validation"
)

const DefaultCountry = "United States"

type ShippingAddress struct {
	FirstName     string `json:"firstName" validate:"notblank"`
	LastName      string `json:"lastName" validate:"notblank"`
	StreetAddress string `json:"streetAddress" validate:"notblank"`
	AptSuite      string `json:"aptSuite"`
	City          string `json:"city" validate:"notblank"`
	State         string `json:"state" validate:"notblank"`
	ZipCode       string `json:"zipCode" validate:"notblank,zip"`
	Country       string `json:"country"`
	Phone         string `json:"phone" validate:"notblank,phone10"`
	Email         string `json:"email" validate:"notblank,looseemail"`
	SaveAddress   bool   `json:"saveAddress"`
}

// Expiry is MM/YY and may not be before the current month.
type PaymentInfo struct {
	CardNumber        string `json:"cardNumber" validate:"notblank,card16"`
	NameOnCard        string `json:"nameOnCard" validate:"notblank"`
	ExpiryDate        string `json:"expiryDate" validate:"notblank,mmyy,notexpired"`
	CVV               string `json:"cvv" validate:"notblank,cvv"`
	BillingZipCode    string `json:"billingZipCode" validate:"notblank,zip"`
	SavePaymentMethod bool   `json:"savePaymentMethod"`
}

var shippingMessages = apperr.Messages{
	"firstName.notblank":     "First name is required",
	"lastName.notblank":      "Last name is required",
	"streetAddress.notblank": "Street address is required",
	"city.notblank":          "City is required",
	"state.notblank":         "State is required",
	"zipCode.notblank":       "ZIP code is required",
	"zipCode.zip":            "Invalid ZIP code",
	"phone.notblank":         "Phone number is required",
	"phone.phone10":          "Invalid phone number",
	"email.notblank":         "Email is required",
	"email.looseemail":       "Invalid email address",
}

var paymentMessages = apperr.Messages{
	"cardNumber.notblank":     "Card number is required",
	"cardNumber.card16":       "Invalid card number",
	"nameOnCard.notblank":     "Name on card is required",
	"expiryDate.notblank":     "Expiry date is required",
	"expiryDate.mmyy":         "Invalid expiry date",
	"expiryDate.notexpired":   "Card has expired",
	"cvv.notblank":            "CVV is required",
	"cvv.cvv":                 "Invalid CVV",
	"billingZipCode.notblank": "Billing ZIP code is required",
	"billingZipCode.zip":      "Invalid ZIP code",
}

// ValidateShipping returns a ValidationError listing every bad field.
func ValidateShipping(a ShippingAddress) error {
	return validation.Struct(context.Background(), a, shippingMessages)
}

func ValidatePayment(p PaymentInfo, now time.Time) error {
	return validation.Struct(validation.WithNow(context.Background(), now), p, paymentMessages)
}
