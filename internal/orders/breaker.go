package orders

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-rental-checkout/internal/bag"
)

// Store is the write side used at checkout.
type Store interface {
	CreateOrder(ctx context.Context, d Draft) (CreateResult, error)
	CreateOrderItems(ctx context.Context, items []bag.LineItem, orderID string) (CreateResult, error)
}

type BreakerSettings struct {
	Name        string
	MaxFailures uint32        // consecutive failures before opening
	OpenTimeout time.Duration // how long to stay open before a trial call
}

// Breaker fails fast with gobreaker.ErrOpenState while the underlying store
// keeps failing. It never retries.
type Breaker struct {
	next Store
	cb   *gobreaker.CircuitBreaker[CreateResult]
}

func NewBreaker(next Store, st BreakerSettings, log *zap.Logger) *Breaker {
	if log == nil {
		log = zap.NewNop()
	}
	if st.Name == "" {
		st.Name = "order-store"
	}
	if st.MaxFailures == 0 {
		st.MaxFailures = 5
	}
	if st.OpenTimeout <= 0 {
		st.OpenTimeout = 30 * time.Second
	}
	cb := gobreaker.NewCircuitBreaker[CreateResult](gobreaker.Settings{
		Name:        st.Name,
		MaxRequests: 1,
		Timeout:     st.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= st.MaxFailures
		},
		// request yang dibatalkan client bukan kegagalan store
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &Breaker{next: next, cb: cb}
}

func (b *Breaker) CreateOrder(ctx context.Context, d Draft) (CreateResult, error) {
	return b.cb.Execute(func() (CreateResult, error) {
		return b.next.CreateOrder(ctx, d)
	})
}

func (b *Breaker) CreateOrderItems(ctx context.Context, items []bag.LineItem, orderID string) (CreateResult, error) {
	return b.cb.Execute(func() (CreateResult, error) {
		return b.next.CreateOrderItems(ctx, items, orderID)
	})
}

func (b *Breaker) State() gobreaker.State { return b.cb.State() }
