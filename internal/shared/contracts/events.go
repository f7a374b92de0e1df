package contracts

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Exchange is the durable direct exchange every service publishes to.
const Exchange = "events"

// EventType is both the event discriminator and the routing key it is published on.
type EventType string

const (
	UserRegistered EventType = "user_registered"
	ProductCreated EventType = "product_created"
	ProductUpdated EventType = "product_updated"
	OrderPlaced    EventType = "order_placed"
)

// AllEventTypes lists every event type the hub consumes.
var AllEventTypes = []EventType{
	UserRegistered,
	ProductCreated,
	ProductUpdated,
	OrderPlaced,
}

var (
	ErrUnknownEventType = errors.New("unknown event type")
	ErrTopicMismatch    = errors.New("topic does not match event type")
)

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	for _, known := range AllEventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// QueueName returns the durable hub queue bound to this event type.
func (t EventType) QueueName() string {
	return "main_" + string(t)
}

// Payload holds event fields by name; its shape depends on the event type.
type Payload map[string]any

// String returns the trimmed string value at key. Non-string values are
// formatted so that numeric IDs still resolve.
func (p Payload) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", false
	}

	var s string
	switch val := v.(type) {
	case string:
		s = val
	case json.Number:
		s = val.String()
	case float64, int, int64:
		s = fmt.Sprint(val)
	default:
		return "", false
	}

	s = strings.TrimSpace(s)
	return s, s != ""
}

// Event is the envelope exchanged between services. Events are never mutated
// after publishing.
type Event struct {
	Type      EventType `json:"event_type"`
	Payload   Payload   `json:"payload"`
	Timestamp int64     `json:"timestamp"` // ms since epoch, stamped by the publisher
}

// CheckTopic returns ErrTopicMismatch unless topic equals the event type.
func CheckTopic(topic string, evt Event) error {
	if topic != string(evt.Type) {
		return fmt.Errorf("%w: topic %q, event_type %q", ErrTopicMismatch, topic, evt.Type)
	}
	return nil
}

// Encode serializes the envelope as UTF-8 JSON.
func Encode(evt Event) ([]byte, error) {
	b, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", evt.Type, err)
	}
	return b, nil
}

// Decode parses an envelope and rejects event types outside the known set.
func Decode(body []byte) (Event, error) {
	var evt Event
	if err := json.Unmarshal(body, &evt); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if !evt.Type.Valid() {
		return evt, fmt.Errorf("%w: %q", ErrUnknownEventType, evt.Type)
	}
	if evt.Payload == nil {
		evt.Payload = Payload{}
	}
	return evt, nil
}

// Pretty renders the event as indented JSON for human readers (mail bodies).
func Pretty(evt Event) string {
	b, err := json.MarshalIndent(evt, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", evt)
	}
	return string(b)
}

// -- Constructors --

// NewUserRegistered builds a user_registered event.
func NewUserRegistered(id, name, email string) Event {
	return Event{
		Type:    UserRegistered,
		Payload: Payload{"id": id, "name": name, "email": email},
	}
}

// NewProductCreated builds a product_created event.
func NewProductCreated(id, name string) Event {
	return Event{
		Type:    ProductCreated,
		Payload: Payload{"id": id, "name": name},
	}
}

// NewProductUpdated builds a product_updated event.
func NewProductUpdated(id, name string) Event {
	return Event{
		Type:    ProductUpdated,
		Payload: Payload{"id": id, "name": name},
	}
}

// OrderPlacedPayload is the typed form of an order_placed payload.
type OrderPlacedPayload struct {
	ID         string
	ProductID  string
	UserID     string
	UserEmail  string // optional
	Quantity   int
	TotalPrice float64
}

// NewOrderPlaced builds an order_placed event. userEmail is only included when
// set. quantity is stored as float64, the type JSON numbers decode to, so the
// payload reads the same before and after a round trip.
func NewOrderPlaced(p OrderPlacedPayload) Event {
	payload := Payload{
		"id":         p.ID,
		"productId":  p.ProductID,
		"userId":     p.UserID,
		"quantity":   float64(p.Quantity),
		"totalPrice": p.TotalPrice,
	}
	if p.UserEmail != "" {
		payload["userEmail"] = p.UserEmail
	}
	return Event{Type: OrderPlaced, Payload: payload}
}
