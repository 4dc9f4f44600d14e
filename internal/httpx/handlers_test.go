package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-rental-checkout/internal/bag"
	"github.com/ariefcatur/go-rental-checkout/internal/orders"
	"github.com/ariefcatur/go-rental-checkout/internal/redisx"
)

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

type fakeOrders struct {
	orderErr error
	itemsErr error
	created  []orders.Draft
	items    map[string][]bag.LineItem
}

func (f *fakeOrders) CreateOrder(_ context.Context, d orders.Draft) (orders.CreateResult, error) {
	if f.orderErr != nil {
		return orders.CreateResult{}, f.orderErr
	}
	f.created = append(f.created, d)
	return orders.CreateResult{Success: true, ID: "3f1c2a9e-0d7b-4a43-9a53-5d3e2f7b8c11"}, nil
}

func (f *fakeOrders) CreateOrderItems(_ context.Context, items []bag.LineItem, id string) (orders.CreateResult, error) {
	if f.itemsErr != nil {
		return orders.CreateResult{}, f.itemsErr
	}
	if f.items == nil {
		f.items = map[string][]bag.LineItem{}
	}
	f.items[id] = items
	return orders.CreateResult{Success: true, ID: id}, nil
}

type fakeReader struct {
	order     orders.Order
	items     []orders.OrderItem
	err       error
	statusHit int
}

func (f *fakeReader) GetOrder(_ context.Context, id string) (orders.Order, error) {
	if f.err != nil {
		return orders.Order{}, f.err
	}
	if id != f.order.ID {
		return orders.Order{}, orders.ErrOrderNotFound
	}
	return f.order, nil
}

func (f *fakeReader) ListItems(context.Context, string) ([]orders.OrderItem, error) {
	return f.items, f.err
}

func (f *fakeReader) GetOrderStatus(_ context.Context, id string) (orders.Status, error) {
	f.statusHit++
	if id != f.order.ID {
		return "", orders.ErrOrderNotFound
	}
	return f.order.Status, nil
}

type recNav struct{ routes []string }

func (n *recNav) Navigate(_ context.Context, _ string, route string) { n.routes = append(n.routes, route) }

type testServer struct {
	router   *chi.Mux
	rdb      *redis.Client
	mr       *miniredis.Miniredis
	orders   *fakeOrders
	reader   *fakeReader
	nav      *recNav
	sessions *Sessions
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redisx.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = rdb.Close() })

	fo := &fakeOrders{}
	fr := &fakeReader{}
	nav := &recNav{}
	now := func() time.Time { return testNow }

	sessions := NewSessions(redisx.NewStorage(rdb, time.Hour), fo, SessionOptions{Navigator: nav, Now: now})
	router := NewRouter()
	(&BagHandler{Sessions: sessions, Now: now}).Register(router)
	(&CheckoutHandler{Sessions: sessions}).Register(router)
	(&OrdersHandler{Repo: fr, Redis: rdb}).Register(router)

	return &testServer{router: router, rdb: rdb, mr: mr, orders: fo, reader: fr, nav: nav, sessions: sessions}
}

func (s *testServer) do(t *testing.T, method, path, session string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set(SessionHeader, session)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

const sid = "6a8f7c1e-2b3d-4e5f-8a9b-0c1d2e3f4a5b"

func addDress(t *testing.T, s *testServer, pid, size string, price float64, qty int) bagView {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/bag/items", sid, map[string]any{
		"productId": pid, "size": size, "title": "Dress " + pid, "price": price, "quantity": qty,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[bagView](t, rec)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBag_NewSessionIssued(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/bag", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	issued := rec.Header().Get(SessionHeader)
	assert.NotEmpty(t, issued)
	v := decodeBody[bagView](t, rec)
	assert.Equal(t, issued, v.SessionID)
	assert.Empty(t, v.Items)
	assert.Equal(t, "9.99", v.Totals.ShippingFee)
}

func TestBag_AddReplaceAndPersist(t *testing.T) {
	s := newTestServer(t)

	addDress(t, s, "A", "M", 100, 1)
	v := addDress(t, s, "A", "M", 100, 3)
	assert.Equal(t, 1, v.Count)
	assert.Equal(t, 3, v.Units)
	assert.Equal(t, "300.00", v.Totals.Subtotal)

	raw, err := s.mr.Get("bag:" + sid)
	require.NoError(t, err)
	var stored []bag.LineItem
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	require.Len(t, stored, 1)
	assert.Equal(t, 3, stored[0].Quantity)
	assert.Equal(t, bag.DefaultRentalDays, stored[0].RentalDays)
}

func TestBag_AddWithoutSize(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/bag/items", sid, map[string]any{"productId": "A", "price": 10})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	body := decodeBody[errorBody](t, rec)
	assert.Equal(t, "Please select a size first", body.Fields["size"])
}

func TestBag_InvalidJSON(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/bag/items", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBag_QuantityRemoveSaveForLater(t *testing.T) {
	s := newTestServer(t)
	addDress(t, s, "A", "M", 100, 2)
	addDress(t, s, "B", "S", 40, 1)

	rec := s.do(t, http.MethodPatch, "/bag/items/A/M", sid, quantityReq{Quantity: 0})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decodeBody[bagView](t, rec).Units)

	rec = s.do(t, http.MethodPatch, "/bag/items/A/M", sid, quantityReq{Quantity: 4})
	assert.Equal(t, 5, decodeBody[bagView](t, rec).Units)

	rec = s.do(t, http.MethodPost, "/bag/items/B/S/save-for-later", sid, nil)
	v := decodeBody[bagView](t, rec)
	assert.Equal(t, "Dress B saved for later", v.Message)
	assert.Equal(t, 1, v.Count)

	for i := 0; i < 2; i++ {
		rec = s.do(t, http.MethodDelete, "/bag/items/A/M", sid, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Zero(t, decodeBody[bagView](t, rec).Count)
	}
}

func TestBag_Promo(t *testing.T) {
	s := newTestServer(t)
	addDress(t, s, "A", "M", 100, 1)

	rec := s.do(t, http.MethodPost, "/bag/promo", sid, promoReq{Code: " welcome10 "})
	require.Equal(t, http.StatusOK, rec.Code)
	v := decodeBody[bagView](t, rec)
	require.NotNil(t, v.Promo)
	assert.Equal(t, "WELCOME10", v.Promo.Code)
	assert.Equal(t, "Promo code applied: 10% off your order!", v.Message)
	assert.Equal(t, "10.00", v.Totals.Discount)
	assert.Equal(t, "107.24", v.Totals.Total)

	rec = s.do(t, http.MethodPost, "/bag/promo", sid, promoReq{Code: "BOGUS"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, msgInvalidPromo, decodeBody[errorBody](t, rec).Error)

	rec = s.do(t, http.MethodPost, "/bag/promo", sid, promoReq{Code: "  "})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Please enter a promo code", decodeBody[errorBody](t, rec).Fields["code"])

	// kode lama tetap aktif setelah gagal
	rec = s.do(t, http.MethodGet, "/bag", sid, nil)
	assert.Equal(t, "WELCOME10", decodeBody[bagView](t, rec).Promo.Code)

	rec = s.do(t, http.MethodPost, "/bag/promo", sid, promoReq{Code: "FREESHIP"})
	v = decodeBody[bagView](t, rec)
	assert.Equal(t, "0.00", v.Totals.ShippingFee)
	assert.Equal(t, "0.00", v.Totals.Discount)
	assert.Equal(t, "107.25", v.Totals.Total)

	rec = s.do(t, http.MethodDelete, "/bag/promo", sid, nil)
	assert.Nil(t, decodeBody[bagView](t, rec).Promo)
}

func shippingBody() map[string]any {
	return map[string]any{
		"firstName": "Ada", "lastName": "Lovelace", "streetAddress": "12 Analytical Way",
		"city": "Portland", "state": "OR", "zipCode": "97201",
		"phone": "503-555-0134", "email": "ada@example.com",
	}
}

func paymentBody() map[string]any {
	return map[string]any{
		"cardNumber": "4242 4242 4242 4242", "nameOnCard": "Ada Lovelace",
		"expiryDate": "04/27", "cvv": "123", "billingZipCode": "97201",
	}
}

func TestCheckout_FullFlow(t *testing.T) {
	s := newTestServer(t)
	addDress(t, s, "A", "M", 100, 1)
	s.do(t, http.MethodPost, "/bag/promo", sid, promoReq{Code: "WELCOME10"})

	rec := s.do(t, http.MethodGet, "/checkout", sid, nil)
	assert.Equal(t, "SHIPPING", string(decodeBody[checkoutView](t, rec).Stage))

	rec = s.do(t, http.MethodPost, "/checkout/payment", sid, paymentBody())
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/checkout/shipping", sid, shippingBody())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cv := decodeBody[checkoutView](t, rec)
	assert.Equal(t, "PAYMENT", string(cv.Stage))
	assert.Equal(t, "United States", cv.Shipping.Country)

	rec = s.do(t, http.MethodPost, "/checkout/payment", sid, paymentBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	placed := decodeBody[placedResp](t, rec)
	assert.Equal(t, "WELCOME10", placed.PromoCode)
	assert.Equal(t, "107.24", placed.Totals.Total)
	assert.Equal(t, "/order-confirmation?id="+placed.OrderID, rec.Header().Get("Location"))
	assert.Equal(t, []string{placed.Route}, s.nav.routes)

	require.Len(t, s.orders.created, 1)
	assert.Equal(t, "WELCOME10", s.orders.created[0].PromoCode)
	assert.Len(t, s.orders.items[placed.OrderID], 1)

	rec = s.do(t, http.MethodGet, "/bag", sid, nil)
	v := decodeBody[bagView](t, rec)
	assert.Zero(t, v.Count)
	assert.Nil(t, v.Promo)
}

func TestCheckout_ShippingValidation(t *testing.T) {
	s := newTestServer(t)
	body := shippingBody()
	body["zipCode"] = "abc"

	rec := s.do(t, http.MethodPost, "/checkout/shipping", sid, body)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Invalid ZIP code", decodeBody[errorBody](t, rec).Fields["zipCode"])

	rec = s.do(t, http.MethodPost, "/checkout/back", sid, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCheckout_EmptyBag(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/checkout/shipping", sid, shippingBody())

	rec := s.do(t, http.MethodPost, "/checkout/payment", sid, paymentBody())
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, s.orders.created)
}

func TestCheckout_PersistenceFailureKeepsBag(t *testing.T) {
	s := newTestServer(t)
	addDress(t, s, "A", "M", 100, 1)
	s.do(t, http.MethodPost, "/checkout/shipping", sid, shippingBody())
	s.orders.itemsErr = errors.New("insert failed")

	rec := s.do(t, http.MethodPost, "/checkout/payment", sid, paymentBody())
	require.Equal(t, http.StatusBadGateway, rec.Code)
	body := decodeBody[errorBody](t, rec)
	assert.True(t, body.Retryable)
	assert.Equal(t, msgOrderFailed, body.Error)

	rec = s.do(t, http.MethodGet, "/bag", sid, nil)
	assert.Equal(t, 1, decodeBody[bagView](t, rec).Count)

	rec = s.do(t, http.MethodGet, "/checkout", sid, nil)
	assert.Equal(t, "PAYMENT", string(decodeBody[checkoutView](t, rec).Stage))
}

func TestSessions_BagSurvivesRestart(t *testing.T) {
	s := newTestServer(t)
	addDress(t, s, "A", "M", 100, 2)
	s.do(t, http.MethodPost, "/bag/promo", sid, promoReq{Code: "FREESHIP"})

	fresh := NewSessions(redisx.NewStorage(s.rdb, time.Hour), s.orders, SessionOptions{})
	sess := fresh.Open(context.Background(), sid)
	assert.Equal(t, 1, sess.Bag.Count())
	require.NotNil(t, sess.Promo.Active())
	assert.Equal(t, "FREESHIP", sess.Promo.Active().Code)
}

func TestSessions_AnonymousRequestsAreCapped(t *testing.T) {
	s := newTestServer(t)
	capped := NewSessions(redisx.NewStorage(s.rdb, time.Hour), s.orders, SessionOptions{MaxSessions: 50})
	router := NewRouter()
	(&BagHandler{Sessions: capped}).Register(router)

	for i := 0; i < 500; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bag", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.LessOrEqual(t, capped.Len(), 50)
}

func TestSessions_IdleSessionEvictedAndRehydrated(t *testing.T) {
	s := newTestServer(t)
	addDress(t, s, "A", "M", 100, 1)

	sessions := NewSessions(redisx.NewStorage(s.rdb, time.Hour), s.orders, SessionOptions{IdleTTL: 50 * time.Millisecond})
	first := sessions.Open(context.Background(), sid)
	assert.Same(t, first, sessions.Open(context.Background(), sid))

	time.Sleep(150 * time.Millisecond)
	again := sessions.Open(context.Background(), sid)
	assert.NotSame(t, first, again)
	assert.Equal(t, 1, again.Bag.Count())
}

func TestSessions_ConcurrentOpenSharesOneSession(t *testing.T) {
	s := newTestServer(t)
	sessions := NewSessions(redisx.NewStorage(s.rdb, time.Hour), s.orders, SessionOptions{})

	const n = 16
	got := make([]*Session, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = sessions.Open(context.Background(), sid)
		}(i)
	}
	wg.Wait()
	for _, sess := range got {
		assert.Same(t, got[0], sess)
	}
	assert.Equal(t, 1, sessions.Len())
}

func TestOrders_GetOrder(t *testing.T) {
	s := newTestServer(t)
	id := "3f1c2a9e-0d7b-4a43-9a53-5d3e2f7b8c11"
	s.reader.order = orders.Order{ID: id, Name: "Order 2026-03-15T12:00:00Z", Status: orders.StatusItemsRecorded, Total: 117.24}
	s.reader.items = []orders.OrderItem{{ID: "i1", OrderID: id, Name: "Order Item - Silk Gown", Quantity: 1}}

	rec := s.do(t, http.MethodGet, "/orders/"+id, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[orderResp](t, rec)
	assert.Equal(t, orders.StatusItemsRecorded, body.Order.Status)
	require.Len(t, body.Items, 1)
	assert.Equal(t, "Order Item - Silk Gown", body.Items[0].Name)

	rec = s.do(t, http.MethodGet, "/orders/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/orders/00000000-0000-0000-0000-000000000000", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrders_StatusCacheFirst(t *testing.T) {
	s := newTestServer(t)
	id := "3f1c2a9e-0d7b-4a43-9a53-5d3e2f7b8c11"
	s.reader.order = orders.Order{ID: id, Status: orders.StatusItemsRecorded}

	rec := s.do(t, http.MethodGet, "/orders/"+id+"/status", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ITEMS_RECORDED", decodeBody[redisx.OrderStatus](t, rec).Status)
	assert.Equal(t, 1, s.reader.statusHit)

	require.NoError(t, redisx.CacheOrderStatus(context.Background(), s.rdb, id, "CONFIRMED", testNow))
	rec = s.do(t, http.MethodGet, "/orders/"+id+"/status", "", nil)
	assert.Equal(t, "CONFIRMED", decodeBody[redisx.OrderStatus](t, rec).Status)
	assert.Equal(t, 1, s.reader.statusHit)
}
