package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/BEASTY2K3/marathon-registration/internal/models"
	"github.com/BEASTY2K3/marathon-registration/internal/util"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher is what services need to emit domain events
type Publisher interface {
	PublishPaymentVerified(ctx context.Context, event *models.PaymentVerifiedEvent) error
	PublishParticipantRegistered(ctx context.Context, event *models.ParticipantRegisteredEvent) error
}

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishPaymentVerified publishes PaymentVerified event keyed by order
func (ep *EventPublisher) PublishPaymentVerified(ctx context.Context, event *models.PaymentVerifiedEvent) error {
	return ep.producer.PublishEvent(ctx, "order-"+event.OrderID, event)
}

// PublishParticipantRegistered publishes ParticipantRegistered event keyed by chest number
func (ep *EventPublisher) PublishParticipantRegistered(ctx context.Context, event *models.ParticipantRegisteredEvent) error {
	key := fmt.Sprintf("participant-%d", event.Participant.ChestNumber)
	return ep.producer.PublishEvent(ctx, key, event)
}

// NopPublisher drops every event. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishPaymentVerified(context.Context, *models.PaymentVerifiedEvent) error {
	return nil
}

func (NopPublisher) PublishParticipantRegistered(context.Context, *models.ParticipantRegisteredEvent) error {
	return nil
}

// NewPaymentVerifiedEvent stamps a PaymentVerified event
func NewPaymentVerifiedEvent(orderID, paymentID string) *models.PaymentVerifiedEvent {
	return &models.PaymentVerifiedEvent{
		BaseEvent: newBase(models.EventTypePaymentVerified),
		OrderID:   orderID,
		PaymentID: paymentID,
	}
}

// NewParticipantRegisteredEvent stamps a ParticipantRegistered event
func NewParticipantRegisteredEvent(p models.Participant) *models.ParticipantRegisteredEvent {
	return &models.ParticipantRegisteredEvent{
		BaseEvent:   newBase(models.EventTypeParticipantRegistered),
		Participant: p,
	}
}

func newBase(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}

// EventHandler handles incoming events
type EventHandler struct {
	onPaymentVerified       func(context.Context, *models.PaymentVerifiedEvent) error
	onParticipantRegistered func(context.Context, *models.ParticipantRegisteredEvent) error
	logger                  *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnPaymentVerified registers a handler for PaymentVerified events
func (eh *EventHandler) OnPaymentVerified(handler func(context.Context, *models.PaymentVerifiedEvent) error) {
	eh.onPaymentVerified = handler
}

// OnParticipantRegistered registers a handler for ParticipantRegistered events
func (eh *EventHandler) OnParticipantRegistered(handler func(context.Context, *models.ParticipantRegisteredEvent) error) {
	eh.onParticipantRegistered = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("event_type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypePaymentVerified:
		if eh.onPaymentVerified != nil {
			var event models.PaymentVerifiedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal PaymentVerified event: %w", err)
			}
			return eh.onPaymentVerified(ctx, &event)
		}

	case models.EventTypeParticipantRegistered:
		if eh.onParticipantRegistered != nil {
			var event models.ParticipantRegisteredEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ParticipantRegistered event: %w", err)
			}
			return eh.onParticipantRegistered(ctx, &event)
		}

	default:
		eh.logger.Warn("Unhandled event type", zap.String("event_type", baseEvent.EventType))
	}

	return nil
}
