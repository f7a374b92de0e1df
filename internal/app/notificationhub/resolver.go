package notificationhub

import (
	"context"
	"errors"

	"git.platform.alem.school/amibragim/shop-events/internal/domain/orders"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/contracts"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/logger"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/metrics"
)

// Recipient sources, also used as the metrics label.
const (
	SourcePayload = "payload"
	SourceLookup  = "lookup"
	SourceAdmin   = "admin"
	SourceSender  = "sender"
)

var errNoUserID = errors.New("order has no user id")

// UserLookup returns the email registered for a user. *userclient.Client
// implements it.
type UserLookup interface {
	Email(ctx context.Context, userID string) (string, error)
}

// Resolver finds the address an order notification goes to. Resolve never
// fails: it degrades from the payload to a user lookup, then to the admin
// address, then to the sender address.
type Resolver struct {
	users   UserLookup
	admin   string
	sender  string
	logger  *logger.Logger
	metrics *metrics.Registry
}

// NewResolver creates a resolver. admin may be empty; sender may not.
func NewResolver(users UserLookup, admin, sender string, log *logger.Logger, reg *metrics.Registry) *Resolver {
	return &Resolver{users: users, admin: admin, sender: sender, logger: log, metrics: reg}
}

// Resolve returns the recipient for evt and where it came from.
func (r *Resolver) Resolve(ctx context.Context, evt contracts.Event) (string, string) {
	if email, ok := evt.Payload.String("userEmail"); ok && email != "" {
		return r.pick(email, SourcePayload)
	}

	userID, ok := evt.Payload.String("userId")
	if !ok || userID == "" || userID == orders.AnonymousUser {
		r.logger.Debug(ctx, "recipient_lookup_skipped", "Order has no user to look up", map[string]any{"user_id": userID})
		return r.fallback(ctx, errNoUserID)
	}

	email, err := r.users.Email(ctx, userID)
	if err != nil {
		r.logger.Error(ctx, "recipient_lookup_failed", "Failed to look up user "+userID, err)
		return r.fallback(ctx, err)
	}
	return r.pick(email, SourceLookup)
}

func (r *Resolver) fallback(ctx context.Context, cause error) (string, string) {
	if r.admin != "" {
		return r.pick(r.admin, SourceAdmin)
	}
	r.logger.Warn(ctx, "recipient_fallback_sender", "No admin address configured; notifying the sender address", map[string]any{"cause": cause.Error()})
	return r.pick(r.sender, SourceSender)
}

func (r *Resolver) pick(email, source string) (string, string) {
	r.metrics.RecordResolution(source)
	return email, source
}
