package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/tradein-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTradeInCreated       EventType = "trade_in_created"
	EventTradeInStatusChanged EventType = "trade_in_status_changed"
	EventTradeInInspected     EventType = "trade_in_inspected"
)

// AllEventTypes lists every event the service emits.
var AllEventTypes = []EventType{EventTradeInCreated, EventTradeInStatusChanged, EventTradeInInspected}

// Actor identifies who caused an event.
type Actor struct {
	UserID string      `json:"userId"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	RequestID string    `json:"requestId"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// NewEvent stamps a fresh event id.
func NewEvent(eventType EventType, requestID string, actor Actor, at time.Time, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		RequestID: requestID,
		Actor:     actor,
		Timestamp: at,
		Payload:   payload,
	}
}

// Recipient carries the owner contact data shared by all payloads.
type Recipient struct {
	UserID     string `json:"userId"`
	OwnerEmail string `json:"ownerEmail"`
}

// TradeInCreatedPayload payload.
type TradeInCreatedPayload struct {
	Recipient
	DeviceType     domain.DeviceType `json:"deviceType"`
	Brand          string            `json:"brand"`
	Model          string            `json:"model"`
	EstimatedPrice float64           `json:"estimatedPrice"`
}

// TradeInStatusChangedPayload payload.
type TradeInStatusChangedPayload struct {
	Recipient
	OldStatus      domain.TradeInStatus `json:"oldStatus"`
	NewStatus      domain.TradeInStatus `json:"newStatus"`
	EstimatedPrice float64              `json:"estimatedPrice"`
	FinalPrice     *float64             `json:"finalPrice,omitempty"`
	TrackingNumber *string              `json:"trackingNumber,omitempty"`
	Note           *string              `json:"note,omitempty"`
}

// TradeInInspectedPayload payload.
type TradeInInspectedPayload struct {
	Recipient
	OldStatus      domain.TradeInStatus `json:"oldStatus"`
	Condition      domain.Condition     `json:"condition"`
	EstimatedPrice float64              `json:"estimatedPrice"`
	FinalPrice     float64              `json:"finalPrice"`
}
