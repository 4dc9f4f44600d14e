package confirm

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/ariefcatur/go-rental-checkout/internal/kafka"
	"github.com/ariefcatur/go-rental-checkout/internal/orders"
	"github.com/ariefcatur/go-rental-checkout/internal/redisx"
)

type OrderRepo interface {
	GetOrderStatus(ctx context.Context, orderID string) (orders.Status, error)
	UpdateStatus(ctx context.Context, orderID string, from, to orders.Status) error
}

type Service struct {
	Repo        OrderRepo
	Redis       *redis.Client
	ServiceName string
	Log         *zap.Logger
	Now         func() time.Time
}

// HandleOrderPlaced: dipasang sebagai handler consumer. Pesan yang rusak
// di-skip (return nil) supaya tidak memblokir partisi.
func (s *Service) HandleOrderPlaced(ctx context.Context, m kafkago.Message) error {
	log := s.logger()

	// 1) decode envelope
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		log.Warn("skipping undecodable message", zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}
	if env.EventType != orders.EventOrderPlaced {
		return nil
	}

	// 2) dedup via Redis (pakai event_id)
	first, err := redisx.MarkOnce(ctx, s.Redis, s.ServiceName, env.EventID)
	if err != nil {
		return err
	}
	if !first {
		return nil
	}

	// 3) decode payload
	p, err := kafkax.UnwrapPayload[orders.OrderPlacedPayload](env.Payload)
	if err != nil || p.OrderID == "" {
		log.Warn("skipping malformed payload", zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}
	log = log.With(zap.String("order_id", p.OrderID), zap.String("event_id", env.EventID))

	// 4) CONFIRMED hanya dari ITEMS_RECORDED
	status, err := s.Repo.GetOrderStatus(ctx, p.OrderID)
	if errors.Is(err, orders.ErrOrderNotFound) {
		log.Warn("order placed event for unknown order")
		return nil
	}
	if err != nil {
		return s.retryLater(ctx, env.EventID, err)
	}

	switch {
	case status == orders.StatusConfirmed:
	case orders.CanTransition(status, orders.StatusConfirmed):
		err := s.Repo.UpdateStatus(ctx, p.OrderID, status, orders.StatusConfirmed)
		switch {
		case err == nil:
			status = orders.StatusConfirmed
			log.Info("order confirmed")
		case errors.Is(err, orders.ErrStatusConflict):
			if status, err = s.Repo.GetOrderStatus(ctx, p.OrderID); err != nil {
				return s.retryLater(ctx, env.EventID, err)
			}
		default:
			return s.retryLater(ctx, env.EventID, err)
		}
	default:
		log.Warn("order not confirmable", zap.String("status", string(status)))
	}

	// 5) refresh cache status
	if err := redisx.CacheOrderStatus(ctx, s.Redis, p.OrderID, string(status), s.now()); err != nil {
		log.Warn("status cache refresh failed", zap.Error(err))
	}
	return nil
}

// retryLater releases the dedup key so a redelivery is processed again. The
// release runs even when ctx was cancelled mid-handler (shutdown).
func (s *Service) retryLater(ctx context.Context, eventID string, err error) error {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if ferr := redisx.Forget(rctx, s.Redis, s.ServiceName, eventID); ferr != nil {
		s.logger().Warn("dedup release failed", zap.String("event_id", eventID), zap.Error(ferr))
	}
	return err
}

func (s *Service) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
