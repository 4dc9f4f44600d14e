package httpx

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-rental-checkout/internal/checkout"
	"github.com/ariefcatur/go-rental-checkout/internal/pricing"
)

type CheckoutHandler struct {
	Sessions *Sessions
	Log      *zap.Logger
}

type checkoutView struct {
	SessionID  string                   `json:"sessionId"`
	Stage      checkout.Stage           `json:"stage"`
	Processing bool                     `json:"processing"`
	Shipping   checkout.ShippingAddress `json:"shipping"`
	Totals     pricing.DisplayTotals    `json:"totals"`
}

type placedResp struct {
	OrderID   string                `json:"orderId"`
	PromoCode string                `json:"promoCode,omitempty"`
	Totals    pricing.DisplayTotals `json:"totals"`
	Route     string                `json:"route"`
	Message   string                `json:"message"`
}

func (h *CheckoutHandler) Register(r chi.Router) {
	r.Get("/checkout", h.getCheckout)
	r.Post("/checkout/shipping", h.submitShipping)
	r.Post("/checkout/back", h.back)
	r.Post("/checkout/payment", h.placeOrder)
}

func checkoutOf(sess *Session) checkoutView {
	return checkoutView{
		SessionID:  sess.ID,
		Stage:      sess.Checkout.Stage(),
		Processing: sess.Checkout.Processing(),
		Shipping:   sess.Checkout.Shipping(),
		Totals:     pricing.Compute(sess.Bag.Items(), sess.Promo.Active()).Display(),
	}
}

func (h *CheckoutHandler) getCheckout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.with(w, r, func(sess *Session) {
		writeJSON(w, http.StatusOK, checkoutOf(sess))
	})
}

func (h *CheckoutHandler) submitShipping(w http.ResponseWriter, r *http.Request) {
	var addr checkout.ShippingAddress
	if !decode(w, r, &addr) {
		return
	}
	h.Sessions.with(w, r, func(sess *Session) {
		if err := sess.Checkout.SubmitShipping(addr); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, checkoutOf(sess))
	})
}

func (h *CheckoutHandler) back(w http.ResponseWriter, r *http.Request) {
	h.Sessions.with(w, r, func(sess *Session) {
		if err := sess.Checkout.BackToShipping(); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, checkoutOf(sess))
	})
}

func (h *CheckoutHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var pay checkout.PaymentInfo
	if !decode(w, r, &pay) {
		return
	}

	sess := h.Sessions.Open(r.Context(), r.Header.Get(SessionHeader))
	w.Header().Set(SessionHeader, sess.ID)
	// re-submit saat masih processing langsung ditolak, tidak antre di lock
	if sess.Checkout.Processing() {
		writeError(w, checkout.ErrProcessing)
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	// placement yang sudah jalan tidak ikut batal kalau client putus
	ctx := context.WithoutCancel(r.Context())
	rc, err := sess.Checkout.PlaceOrder(ctx, pay, sess.Promo.Active())
	if err != nil {
		if h.Log != nil {
			h.Log.Info("order placement rejected", zap.String("session", sess.ID), zap.Error(err))
		}
		writeError(w, err)
		return
	}
	sess.Promo.Clear(ctx)

	w.Header().Set("Location", rc.Route)
	writeJSON(w, http.StatusCreated, placedResp{
		OrderID:   rc.OrderID,
		PromoCode: rc.PromoCode,
		Totals:    rc.Totals.Display(),
		Route:     rc.Route,
		Message:   "Order placed successfully!",
	})
}
