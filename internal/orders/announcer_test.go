package orders

import (
	"context"
	"encoding/json"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	kafkax "github.com/ariefcatur/go-rental-checkout/internal/kafka"
)

type capturePublisher struct {
	key     []byte
	value   []byte
	headers []kafkago.Header
	err     error
}

func (c *capturePublisher) Publish(key, value []byte, headers ...kafkago.Header) error {
	if c.err != nil {
		return c.err
	}
	c.key, c.value, c.headers = key, value, headers
	return nil
}

func TestAnnouncer_PublishesOrderPlaced(t *testing.T) {
	pub := &capturePublisher{}
	a := &Announcer{Producer: pub, Service: "rental-api"}

	a.Navigate(context.Background(), "ord-7", "/order-confirmation?id=ord-7")

	assert.Equal(t, []byte("ord-7"), pub.key)
	require.Len(t, pub.headers, 2)
	assert.Equal(t, "x-event-type", pub.headers[0].Key)
	assert.Equal(t, EventOrderPlaced, string(pub.headers[0].Value))

	var env Envelope
	require.NoError(t, json.Unmarshal(pub.value, &env))
	assert.Equal(t, EventOrderPlaced, env.EventType)
	assert.Equal(t, "rental-api", env.Producer)
	assert.Equal(t, "ord-7", env.CorrelationID)
	assert.NotEmpty(t, env.EventID)

	p, err := kafkax.UnwrapPayload[OrderPlacedPayload](env.Payload)
	require.NoError(t, err)
	assert.Equal(t, "ord-7", p.OrderID)
	assert.Equal(t, "/order-confirmation?id=ord-7", p.Route)
}

func TestAnnouncer_ClosedProducerDoesNotPanic(t *testing.T) {
	pub := &capturePublisher{err: kafkax.ErrProducerClosed}
	a := &Announcer{Producer: pub, Service: "rental-api", Log: zap.NewNop()}

	assert.NotPanics(t, func() {
		a.Navigate(context.Background(), "ord-8", "/order-confirmation?id=ord-8")
	})
	assert.Nil(t, pub.value)
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, CanTransition(StatusCreated, StatusItemsRecorded))
	assert.True(t, CanTransition(StatusItemsRecorded, StatusConfirmed))
	assert.False(t, CanTransition(StatusCreated, StatusConfirmed))
	assert.False(t, CanTransition(StatusConfirmed, StatusCreated))
}
