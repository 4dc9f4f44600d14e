package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-rental-checkout/internal/orders"
	"github.com/ariefcatur/go-rental-checkout/internal/redisx"
)

type OrderReader interface {
	GetOrder(ctx context.Context, orderID string) (orders.Order, error)
	ListItems(ctx context.Context, orderID string) ([]orders.OrderItem, error)
	GetOrderStatus(ctx context.Context, orderID string) (orders.Status, error)
}

type OrdersHandler struct {
	Repo  OrderReader
	Redis *redis.Client
	Log   *zap.Logger
}

type orderResp struct {
	Order orders.Order       `json:"order"`
	Items []orders.OrderItem `json:"items"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/status", h.getStatus)
}

func orderID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
		return "", false
	}
	return id, true
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Repo.GetOrder(ctx, id)
	if err != nil {
		h.fail(w, err)
		return
	}
	items, err := h.Repo.ListItems(ctx, id)
	if err != nil {
		h.fail(w, err)
		return
	}
	if items == nil {
		items = []orders.OrderItem{}
	}
	writeJSON(w, http.StatusOK, orderResp{Order: o, Items: items})
}

func (h *OrdersHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) coba cache
	if st, hit, err := redisx.CachedOrderStatus(ctx, h.Redis, id); err == nil && hit {
		writeJSON(w, http.StatusOK, st)
		return
	}

	// 2) fallback DB
	status, err := h.Repo.GetOrderStatus(ctx, id)
	if err != nil {
		h.fail(w, err)
		return
	}
	now := time.Now().UTC()
	_ = redisx.CacheOrderStatus(ctx, h.Redis, id, string(status), now)
	writeJSON(w, http.StatusOK, redisx.OrderStatus{Status: string(status), UpdatedAt: now})
}

func (h *OrdersHandler) fail(w http.ResponseWriter, err error) {
	if !errors.Is(err, orders.ErrOrderNotFound) && h.Log != nil {
		h.Log.Error("order lookup failed", zap.Error(err))
	}
	writeError(w, err)
}
