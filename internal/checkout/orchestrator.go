package checkout

import (
	"context"
	"net/url"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ariefcatur/go-rental-checkout/internal/bag"
	"github.com/ariefcatur/go-rental-checkout/internal/orders"
	"github.com/ariefcatur/go-rental-checkout/internal/pricing"
	"github.com/ariefcatur/go-rental-checkout/internal/promo"
)

const ConfirmationPath = "/order-confirmation"

// OrderStore is the order persistence collaborator. A call fails either by
// returning an error or by returning a result with Success false.
type OrderStore interface {
	CreateOrder(ctx context.Context, d orders.Draft) (orders.CreateResult, error)
	CreateOrderItems(ctx context.Context, items []bag.LineItem, orderID string) (orders.CreateResult, error)
}

// Navigator receives the post-checkout destination.
type Navigator interface {
	Navigate(ctx context.Context, orderID, route string)
}

type Options struct {
	Navigator   Navigator
	Logger      *zap.Logger
	Now         func() time.Time
	CallTimeout time.Duration // 0 = no deadline beyond ctx
}

type Receipt struct {
	OrderID   string         `json:"orderId"`
	Totals    pricing.Totals `json:"totals"`
	PromoCode string         `json:"promoCode,omitempty"`
	Route     string         `json:"route"`
}

// Orchestrator walks one shopper through Shipping -> Payment -> Placed and
// owns the only code path that clears the bag after an order.
type Orchestrator struct {
	bag         *bag.Store
	store       OrderStore
	nav         Navigator
	log         *zap.Logger
	now         func() time.Time
	callTimeout time.Duration

	stage      Stage
	shipping   ShippingAddress
	processing atomic.Bool
}

func New(b *bag.Store, store OrderStore, opts Options) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{
		bag:         b,
		store:       store,
		nav:         opts.Navigator,
		log:         opts.Logger,
		now:         opts.Now,
		callTimeout: opts.CallTimeout,
		stage:       StageShipping,
	}
}

func (o *Orchestrator) Stage() Stage { return o.stage }

func (o *Orchestrator) Shipping() ShippingAddress { return o.shipping }

func (o *Orchestrator) Processing() bool { return o.processing.Load() }

// SubmitShipping validates the address and moves to Payment. On a
// validation failure the stage is left unchanged.
func (o *Orchestrator) SubmitShipping(a ShippingAddress) error {
	if !CanTransition(o.stage, StagePayment) {
		return ErrWrongStage
	}
	if a.Country == "" {
		a.Country = DefaultCountry
	}
	if err := ValidateShipping(a); err != nil {
		return err
	}
	o.shipping = a
	o.stage = StagePayment
	return nil
}

func (o *Orchestrator) BackToShipping() error {
	if o.stage != StagePayment {
		return ErrWrongStage
	}
	o.stage = StageShipping
	return nil
}

// PlaceOrder validates the payment form and runs the two writes in order:
// the order header, then its items. The bag is cleared only when both
// succeed. A failure in either phase is returned as *PersistenceError and
// is never retried here.
func (o *Orchestrator) PlaceOrder(ctx context.Context, pay PaymentInfo, active *promo.Promotion) (Receipt, error) {
	if o.processing.Load() {
		return Receipt{}, ErrProcessing
	}
	if !CanTransition(o.stage, StagePlaced) {
		return Receipt{}, ErrWrongStage
	}
	if err := ValidatePayment(pay, o.now()); err != nil {
		return Receipt{}, err
	}
	if o.bag.IsEmpty() {
		return Receipt{}, ErrEmptyBag
	}

	if !o.processing.CompareAndSwap(false, true) {
		return Receipt{}, ErrProcessing
	}
	defer o.processing.Store(false)

	items := o.bag.Items()
	totals := pricing.Compute(items, active)
	code := ""
	if active != nil {
		code = active.Code
	}

	// fase 1: header
	res, err := o.call(ctx, func(ctx context.Context) (orders.CreateResult, error) {
		return o.store.CreateOrder(ctx, o.draft(totals, code))
	})
	if err == nil && (!res.Success || res.ID == "") {
		err = errUnsuccessful
	}
	if err != nil {
		o.log.Warn("create order failed", zap.String("phase", PhaseOrder), zap.Error(err))
		return Receipt{}, &PersistenceError{Phase: PhaseOrder, Err: err}
	}
	orderID := res.ID

	// fase 2: items. Header tanpa items dibiarkan (tidak ada rollback).
	res, err = o.call(ctx, func(ctx context.Context) (orders.CreateResult, error) {
		return o.store.CreateOrderItems(ctx, items, orderID)
	})
	if err == nil && !res.Success {
		err = errUnsuccessful
	}
	if err != nil {
		o.log.Warn("create order items failed",
			zap.String("phase", PhaseOrderItems),
			zap.String("order_id", orderID),
			zap.Error(err))
		return Receipt{}, &PersistenceError{Phase: PhaseOrderItems, OrderID: orderID, Err: err}
	}

	o.bag.Clear(ctx)
	o.stage = StagePlaced

	route := ConfirmationRoute(orderID)
	if o.nav != nil {
		o.nav.Navigate(ctx, orderID, route)
	}
	o.log.Info("order placed",
		zap.String("order_id", orderID),
		zap.Int("items", len(items)),
		zap.Float64("total", totals.Total))

	return Receipt{OrderID: orderID, Totals: totals, PromoCode: code, Route: route}, nil
}

func (o *Orchestrator) call(ctx context.Context, fn func(context.Context) (orders.CreateResult, error)) (orders.CreateResult, error) {
	if o.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.callTimeout)
		defer cancel()
	}
	return fn(ctx)
}

func (o *Orchestrator) draft(t pricing.Totals, code string) orders.Draft {
	a := o.shipping
	return orders.Draft{
		FirstName:     a.FirstName,
		LastName:      a.LastName,
		StreetAddress: a.StreetAddress,
		AptSuite:      a.AptSuite,
		City:          a.City,
		State:         a.State,
		ZipCode:       a.ZipCode,
		Country:       a.Country,
		Phone:         a.Phone,
		Email:         a.Email,
		Subtotal:      t.Subtotal,
		ShippingFee:   t.ShippingFee,
		Tax:           t.Tax,
		Discount:      t.Discount,
		Total:         t.Total,
		PromoCode:     code,
	}
}

func ConfirmationRoute(orderID string) string {
	return ConfirmationPath + "?id=" + url.QueryEscape(orderID)
}
