package broker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/BEASTY2K3/marathon-registration/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func message(t *testing.T, event interface{}) kafka.Message {
	t.Helper()
	b, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Value: b}
}

func TestEventHandler_RoutesParticipantRegistered(t *testing.T) {
	h := NewEventHandler()
	var got *models.ParticipantRegisteredEvent
	h.OnParticipantRegistered(func(ctx context.Context, e *models.ParticipantRegisteredEvent) error {
		got = e
		return nil
	})

	event := NewParticipantRegisteredEvent(models.Participant{Name: "Asha", ChestNumber: 1004})
	require.NoError(t, h.HandleMessage(context.Background(), message(t, event)))

	require.NotNil(t, got)
	assert.Equal(t, event.EventID, got.EventID)
	assert.Equal(t, int64(1004), got.Participant.ChestNumber)
}

func TestEventHandler_RoutesPaymentVerified(t *testing.T) {
	h := NewEventHandler()
	var got *models.PaymentVerifiedEvent
	h.OnPaymentVerified(func(ctx context.Context, e *models.PaymentVerifiedEvent) error {
		got = e
		return nil
	})

	require.NoError(t, h.HandleMessage(context.Background(), message(t, NewPaymentVerifiedEvent("order_1", "pay_1"))))

	require.NotNil(t, got)
	assert.Equal(t, "order_1", got.OrderID)
	assert.Equal(t, models.EventTypePaymentVerified, got.EventType)
}

func TestEventHandler_IgnoresUnknownAndUnhandled(t *testing.T) {
	h := NewEventHandler()

	assert.NoError(t, h.HandleMessage(context.Background(), kafka.Message{Value: []byte(`{"event_type":"SOMETHING_ELSE"}`)}))
	assert.NoError(t, h.HandleMessage(context.Background(), message(t, NewPaymentVerifiedEvent("o", "p"))))
}

func TestEventHandler_BadPayload(t *testing.T) {
	h := NewEventHandler()
	assert.Error(t, h.HandleMessage(context.Background(), kafka.Message{Value: []byte("not json")}))
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.PublishPaymentVerified(context.Background(), NewPaymentVerifiedEvent("o", "p")))
	assert.NoError(t, p.PublishParticipantRegistered(context.Background(), NewParticipantRegisteredEvent(models.Participant{})))
}
