package rabbitmq

import (
	"fmt"

	"git.platform.alem.school/amibragim/shop-events/internal/shared/contracts"
)

// Binding is one durable hub queue and the routing key it is bound with.
type Binding struct {
	Queue string
	Topic contracts.EventType
}

// HubBindings returns one binding per consumed event type.
func HubBindings() []Binding {
	bindings := make([]Binding, 0, len(contracts.AllEventTypes))
	for _, t := range contracts.AllEventTypes {
		bindings = append(bindings, Binding{Queue: t.QueueName(), Topic: t})
	}
	return bindings
}

// DeclareTopology declares the durable queue main_<event_type> for every event
// type and binds it to the shared exchange on the exact event type. Declaring
// what already exists is a no-op on the broker, so it is safe to run again.
func DeclareTopology(ch Channel) ([]Binding, error) {
	bindings := HubBindings()
	for _, b := range bindings {
		if _, err := ch.QueueDeclare(b.Queue, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("declare queue %s: %w", b.Queue, err)
		}
		if err := ch.QueueBind(b.Queue, string(b.Topic), contracts.Exchange, false, nil); err != nil {
			return nil, fmt.Errorf("bind queue %s to %s: %w", b.Queue, b.Topic, err)
		}
	}
	return bindings, nil
}
