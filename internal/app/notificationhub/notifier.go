package notificationhub

import (
	"context"
	"fmt"

	"git.platform.alem.school/amibragim/shop-events/internal/shared/contracts"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/logger"
)

// Sender delivers one email. *mailer.Mailer implements it.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Notifier emails a summary of every placed order.
type Notifier struct {
	resolver *Resolver
	sender   Sender
	logger   *logger.Logger
}

// NewNotifier creates the order_placed handler.
func NewNotifier(resolver *Resolver, sender Sender, log *logger.Logger) *Notifier {
	return &Notifier{resolver: resolver, sender: sender, logger: log}
}

// Handle resolves the recipient and sends the notification. A send failure is
// returned so the consumer can log it and apply its failure policy.
func (n *Notifier) Handle(ctx context.Context, evt contracts.Event) error {
	orderID, ok := evt.Payload.String("id")
	if !ok || orderID == "" {
		return fmt.Errorf("%w: order_placed without id", ErrMalformedEvent)
	}

	to, source := n.resolver.Resolve(ctx, evt)
	subject := "New order placed: " + orderID
	body := "A new order has been placed.\n\n" + contracts.Pretty(evt) + "\n"

	if err := n.sender.Send(ctx, to, subject, body); err != nil {
		return fmt.Errorf("notify order %s: %w", orderID, err)
	}

	n.logger.Info(ctx, "notification_sent", "Order notification sent", map[string]any{
		"order_id": orderID,
		"to":       to,
		"source":   source,
	})
	return nil
}
