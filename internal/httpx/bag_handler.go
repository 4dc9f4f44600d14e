package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-rental-checkout/internal/bag"
	"github.com/ariefcatur/go-rental-checkout/internal/pricing"
	"github.com/ariefcatur/go-rental-checkout/internal/promo"
)

type BagHandler struct {
	Sessions *Sessions
	Now      func() time.Time
}

type bagView struct {
	SessionID string                `json:"sessionId"`
	Items     []bag.LineItem        `json:"items"`
	Count     int                   `json:"count"`
	Units     int                   `json:"units"`
	Promo     *promoView            `json:"promo"`
	Totals    pricing.DisplayTotals `json:"totals"`
	Message   string                `json:"message,omitempty"`
}

type promoView struct {
	Code        string     `json:"code"`
	Kind        promo.Kind `json:"kind"`
	Description string     `json:"description"`
}

type quantityReq struct {
	Quantity int `json:"quantity"`
}

type promoReq struct {
	Code string `json:"code"`
}

func (h *BagHandler) Register(r chi.Router) {
	r.Get("/bag", h.getBag)
	r.Delete("/bag", h.clearBag)
	r.Post("/bag/items", h.addItem)
	r.Patch("/bag/items/{productID}/{size}", h.setQuantity)
	r.Delete("/bag/items/{productID}/{size}", h.removeItem)
	r.Post("/bag/items/{productID}/{size}/save-for-later", h.saveForLater)
	r.Post("/bag/promo", h.applyPromo)
	r.Delete("/bag/promo", h.clearPromo)
}

func viewOf(sess *Session) bagView {
	active := sess.Promo.Active()
	v := bagView{
		SessionID: sess.ID,
		Items:     sess.Bag.Items(),
		Count:     sess.Bag.Count(),
		Units:     sess.Bag.Units(),
		Totals:    pricing.Compute(sess.Bag.Items(), active).Display(),
	}
	if active != nil {
		v.Promo = &promoView{Code: active.Code, Kind: active.Kind, Description: active.Description()}
	}
	return v
}

func (h *BagHandler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

func (h *BagHandler) getBag(w http.ResponseWriter, r *http.Request) {
	h.Sessions.with(w, r, func(sess *Session) {
		writeJSON(w, http.StatusOK, viewOf(sess))
	})
}

func (h *BagHandler) clearBag(w http.ResponseWriter, r *http.Request) {
	h.Sessions.with(w, r, func(sess *Session) {
		sess.Bag.Clear(r.Context())
		writeJSON(w, http.StatusOK, viewOf(sess))
	})
}

func (h *BagHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var sel bag.Selection
	if !decode(w, r, &sel) {
		return
	}
	h.Sessions.with(w, r, func(sess *Session) {
		item, err := bag.NewLineItem(sel, h.now())
		if err != nil {
			writeError(w, err)
			return
		}
		sess.Bag.Add(r.Context(), item)
		v := viewOf(sess)
		v.Message = "Added to bag"
		writeJSON(w, http.StatusCreated, v)
	})
}

// setQuantity: quantity < 1 atau slot tidak ada -> no-op, tetap 200.
func (h *BagHandler) setQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityReq
	if !decode(w, r, &req) {
		return
	}
	pid, size := chi.URLParam(r, "productID"), chi.URLParam(r, "size")
	h.Sessions.with(w, r, func(sess *Session) {
		sess.Bag.SetQuantity(r.Context(), pid, size, req.Quantity)
		writeJSON(w, http.StatusOK, viewOf(sess))
	})
}

func (h *BagHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	pid, size := chi.URLParam(r, "productID"), chi.URLParam(r, "size")
	h.Sessions.with(w, r, func(sess *Session) {
		sess.Bag.Remove(r.Context(), pid, size)
		v := viewOf(sess)
		v.Message = "Item removed from your bag"
		writeJSON(w, http.StatusOK, v)
	})
}

func (h *BagHandler) saveForLater(w http.ResponseWriter, r *http.Request) {
	pid, size := chi.URLParam(r, "productID"), chi.URLParam(r, "size")
	h.Sessions.with(w, r, func(sess *Session) {
		it, found := sess.Bag.Find(pid, size)
		sess.Bag.SaveForLater(r.Context(), pid, size)
		v := viewOf(sess)
		if found {
			v.Message = it.Title + " saved for later"
		}
		writeJSON(w, http.StatusOK, v)
	})
}

func (h *BagHandler) applyPromo(w http.ResponseWriter, r *http.Request) {
	var req promoReq
	if !decode(w, r, &req) {
		return
	}
	h.Sessions.with(w, r, func(sess *Session) {
		p, err := sess.Promo.Apply(r.Context(), req.Code)
		if err != nil {
			writeError(w, err)
			return
		}
		v := viewOf(sess)
		v.Message = p.Description()
		writeJSON(w, http.StatusOK, v)
	})
}

func (h *BagHandler) clearPromo(w http.ResponseWriter, r *http.Request) {
	h.Sessions.with(w, r, func(sess *Session) {
		sess.Promo.Clear(r.Context())
		writeJSON(w, http.StatusOK, viewOf(sess))
	})
}
