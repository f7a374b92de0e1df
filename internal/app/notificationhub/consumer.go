package notificationhub

import (
	"context"
	"errors"
	"fmt"
	"time"

	"git.platform.alem.school/amibragim/shop-events/internal/shared/config"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/contracts"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/logger"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/metrics"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/rabbitmq"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/tracing"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Consume outcomes, also used as the metrics label.
const (
	outcomeOK           = "ok"
	outcomeDecodeError  = "decode_error"
	outcomeHandlerError = "handler_error"
	outcomeRequeued     = "requeued"
)

// prefetch limits each consumer to one unacknowledged message, so a queue is
// handled strictly in delivery order.
const prefetch = 1

// ErrMalformedEvent marks handler failures that redelivery cannot fix.
var ErrMalformedEvent = errors.New("malformed event")

// Handler processes one decoded event.
type Handler interface {
	Handle(ctx context.Context, evt contracts.Event) error
}

// Consumer reads hub queues from the shared channel and acknowledges each
// message only after its handler has returned.
type Consumer struct {
	ch      rabbitmq.Channel
	handler Handler
	policy  string
	logger  *logger.Logger
	metrics *metrics.Registry
}

// NewConsumer sets the per-consumer prefetch on ch and returns a consumer.
// policy is config.FailurePolicyAck or config.FailurePolicyRequeue.
func NewConsumer(ch rabbitmq.Channel, handler Handler, policy string, log *logger.Logger, reg *metrics.Registry) (*Consumer, error) {
	if err := ch.Qos(prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}
	return &Consumer{
		ch:      ch,
		handler: handler,
		policy:  policy,
		logger:  log,
		metrics: reg,
	}, nil
}

// Run consumes queue until ctx is cancelled. It returns an error when the
// broker stops delivering, which the caller treats as a lost connection.
func (c *Consumer) Run(ctx context.Context, queue string) error {
	const (
		consumerName = "" // let the server generate a unique consumer tag
		autoAck      = false
		exclusive    = false
		noLocal      = false
		noWait       = false
	)

	deliveries, err := c.ch.Consume(queue, consumerName, autoAck, exclusive, noLocal, noWait, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", queue, err)
	}

	c.logger.Info(ctx, "consumer_started", "Consuming "+queue, map[string]any{"queue": queue, "prefetch": prefetch})

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("deliveries for %s closed", queue)
			}
			c.handleDelivery(ctx, queue, d)
		}
	}
}

// handleDelivery decodes, dispatches and acknowledges a single message.
func (c *Consumer) handleDelivery(ctx context.Context, queue string, d amqp.Delivery) {
	start := time.Now()

	ctx = tracing.Extract(ctx, d.Headers)
	ctx, span := tracing.Tracer().Start(ctx, "rabbitmq.consume "+queue,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "rabbitmq"),
			attribute.String("messaging.destination.name", queue),
			attribute.String("messaging.message.id", d.MessageId),
		))
	defer span.End()

	if d.MessageId != "" {
		ctx = c.logger.WithRequestID(ctx, d.MessageId)
	}

	evt, err := contracts.Decode(d.Body)
	if err != nil {
		// malformed JSON cannot be recovered by redelivery - ack to drop it
		c.logger.Error(ctx, "event_decode_failed", "Failed to decode event from "+queue, err)
		span.SetStatus(codes.Error, err.Error())
		c.ack(ctx, d)
		c.metrics.RecordConsume(queue, outcomeDecodeError, time.Since(start))
		return
	}

	c.logger.Debug(ctx, "event_received", "Received "+string(evt.Type), map[string]any{
		"queue":       queue,
		"event_type":  evt.Type,
		"timestamp":   evt.Timestamp,
		"redelivered": d.Redelivered,
	})

	if err := c.handler.Handle(ctx, evt); err != nil {
		c.logger.Error(ctx, "event_handler_failed", "Failed to handle "+string(evt.Type), err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		if c.shouldRequeue(d, err) {
			if nackErr := d.Nack(false, true); nackErr != nil {
				c.logger.Error(ctx, "rabbitmq_nack_failed", "Failed to nack message", nackErr)
			}
			c.metrics.RecordConsume(queue, outcomeRequeued, time.Since(start))
			return
		}

		c.ack(ctx, d)
		c.metrics.RecordConsume(queue, outcomeHandlerError, time.Since(start))
		return
	}

	c.ack(ctx, d)
	c.metrics.RecordConsume(queue, outcomeOK, time.Since(start))
}

// shouldRequeue allows one broker-level redelivery for recoverable failures.
func (c *Consumer) shouldRequeue(d amqp.Delivery, err error) bool {
	return c.policy == config.FailurePolicyRequeue &&
		!d.Redelivered &&
		!errors.Is(err, ErrMalformedEvent)
}

func (c *Consumer) ack(ctx context.Context, d amqp.Delivery) {
	if err := d.Ack(false); err != nil {
		c.logger.Error(ctx, "rabbitmq_ack_failed", "Failed to ack message", err)
	}
}
