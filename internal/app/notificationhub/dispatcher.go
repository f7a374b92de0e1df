package notificationhub

import (
	"context"
	"fmt"

	"git.platform.alem.school/amibragim/shop-events/internal/shared/contracts"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/logger"
)

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, evt contracts.Event) error

func (f HandlerFunc) Handle(ctx context.Context, evt contracts.Event) error { return f(ctx, evt) }

// Dispatcher routes events to a handler by type.
type Dispatcher struct {
	routes map[contracts.EventType]Handler
	logger *logger.Logger
}

// NewDispatcher sends order_placed to orders and logs the other event types.
func NewDispatcher(orders Handler, log *logger.Logger) *Dispatcher {
	d := &Dispatcher{routes: map[contracts.EventType]Handler{}, logger: log}
	d.routes[contracts.UserRegistered] = HandlerFunc(d.logEvent)
	d.routes[contracts.ProductCreated] = HandlerFunc(d.logEvent)
	d.routes[contracts.ProductUpdated] = HandlerFunc(d.logEvent)
	d.routes[contracts.OrderPlaced] = orders
	return d
}

// Handle dispatches evt to its route.
func (d *Dispatcher) Handle(ctx context.Context, evt contracts.Event) error {
	h, ok := d.routes[evt.Type]
	if !ok {
		return fmt.Errorf("%w: %w %q", ErrMalformedEvent, contracts.ErrUnknownEventType, evt.Type)
	}
	return h.Handle(ctx, evt)
}

func (d *Dispatcher) logEvent(ctx context.Context, evt contracts.Event) error {
	d.logger.Info(ctx, string(evt.Type), "Event "+string(evt.Type)+" received", map[string]any{
		"payload":   evt.Payload,
		"timestamp": evt.Timestamp,
	})
	return nil
}
