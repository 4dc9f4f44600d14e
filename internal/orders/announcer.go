package orders

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/ariefcatur/go-rental-checkout/internal/kafka"
)

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header) error
}

// Announcer is the post-checkout navigator of the API: it publishes an
// OrderPlaced event carrying the confirmation route.
type Announcer struct {
	Producer Publisher
	Service  string
	Log      *zap.Logger
}

func (a *Announcer) Navigate(ctx context.Context, orderID, route string) {
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventOrderPlaced,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      a.Service,
		TraceID:       middleware.GetReqID(ctx),
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(OrderPlacedPayload{OrderID: orderID, Route: route}),
	}
	err := a.Producer.Publish(PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventOrderPlaced)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	if err != nil {
		// order sudah tersimpan; event hilang hanya menunda CONFIRMED
		if a.Log != nil {
			a.Log.Warn("order placed event dropped", zap.String("order_id", orderID), zap.Error(err))
		}
		return
	}
	if a.Log != nil {
		a.Log.Debug("order placed event queued", zap.String("order_id", orderID), zap.String("event_id", ev.EventID))
	}
}
