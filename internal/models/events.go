package models

import "time"

// Event types
const (
	EventTypePaymentVerified       = "PAYMENT_VERIFIED"
	EventTypeParticipantRegistered = "PARTICIPANT_REGISTERED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// PaymentVerifiedEvent published once a payment signature is accepted
type PaymentVerifiedEvent struct {
	BaseEvent
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
}

// ParticipantRegisteredEvent published after the participant is persisted.
// It carries the full record so consumers can notify without a store lookup.
type ParticipantRegisteredEvent struct {
	BaseEvent
	Participant Participant `json:"participant"`
}
