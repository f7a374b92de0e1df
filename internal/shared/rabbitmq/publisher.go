package rabbitmq

import (
	"context"
	"time"

	"git.platform.alem.school/amibragim/shop-events/internal/shared/contracts"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/logger"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/metrics"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/tracing"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const publishTimeout = 5 * time.Second

// ChannelSource hands out the process channel. *Client implements it.
type ChannelSource interface {
	Channel() (Channel, error)
}

// Publisher sends events to the shared exchange. It does not wait for broker
// confirms; the caller decides what a failure means.
type Publisher struct {
	source  ChannelSource
	metrics *metrics.Registry
	now     func() time.Time
}

// NewPublisher creates a publisher over the given channel source.
func NewPublisher(source ChannelSource, reg *metrics.Registry) *Publisher {
	return &Publisher{
		source:  source,
		metrics: reg,
		now:     time.Now,
	}
}

// Publish stamps the event, serializes it and publishes it persistently on
// topic. topic must equal the event type.
func (p *Publisher) Publish(ctx context.Context, topic string, evt contracts.Event) (err error) {
	ctx, span := tracing.Tracer().Start(ctx, "rabbitmq.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "rabbitmq"),
			attribute.String("messaging.destination.name", contracts.Exchange),
			attribute.String("messaging.rabbitmq.destination.routing_key", topic),
		))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		p.metrics.RecordPublish(topic, err)
	}()

	if err := contracts.CheckTopic(topic, evt); err != nil {
		return err
	}

	if evt.Timestamp == 0 {
		evt.Timestamp = p.now().UnixMilli()
	}

	body, err := contracts.Encode(evt)
	if err != nil {
		return err
	}

	ch, err := p.source.Channel()
	if err != nil {
		return err
	}

	headers := amqp.Table{}
	tracing.Inject(ctx, headers)

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return ch.PublishWithContext(pubCtx,
		contracts.Exchange, topic, false, false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    uuid.NewString(),
			Type:         string(evt.Type),
			Timestamp:    time.UnixMilli(evt.Timestamp).UTC(),
			Headers:      headers,
			Body:         body,
		})
}

// EventPublisher is satisfied by *Publisher and by test doubles.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, evt contracts.Event) error
}

// PublishBestEffort publishes evt on its own topic and logs a failure instead
// of returning it. Producers call it after their transaction has committed.
func PublishBestEffort(ctx context.Context, pub EventPublisher, log *logger.Logger, evt contracts.Event) {
	topic := string(evt.Type)
	if err := pub.Publish(ctx, topic, evt); err != nil {
		log.Error(ctx, "event_publish_failed", "Failed to publish "+topic+" event", err)
		return
	}
	log.Debug(ctx, "event_published", "Published "+topic+" event", map[string]any{"topic": topic})
}
