package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry encapsulates all metrics of one process without global state.
// All Record methods are no-ops on a nil *Registry.
type Registry struct {
	registry *prometheus.Registry

	connectAttempts *prometheus.CounterVec

	publishTotal *prometheus.CounterVec

	consumeTotal    *prometheus.CounterVec
	consumeDuration *prometheus.HistogramVec

	lookupTotal *prometheus.CounterVec
	mailTotal   *prometheus.CounterVec
}

// NewRegistry creates a registry for the named service.
func NewRegistry(service string) *Registry {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": service}

	r := &Registry{
		registry: registry,

		connectAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "shop_rabbitmq_connect_attempts_total",
				Help:        "Broker connect attempts by result",
				ConstLabels: constLabels,
			},
			[]string{"status"}, // success, error
		),

		publishTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "shop_events_published_total",
				Help:        "Events published by topic and result",
				ConstLabels: constLabels,
			},
			[]string{"topic", "status"},
		),

		consumeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "shop_events_consumed_total",
				Help:        "Deliveries handled by queue and outcome",
				ConstLabels: constLabels,
			},
			[]string{"queue", "outcome"}, // ok, handler_error, decode_error
		),

		consumeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "shop_events_handle_duration_seconds",
				Help:        "Time from delivery to acknowledgment",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: constLabels,
			},
			[]string{"queue"},
		),

		lookupTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "shop_recipient_resolutions_total",
				Help:        "Order recipient resolutions by source",
				ConstLabels: constLabels,
			},
			[]string{"source"}, // payload, lookup, admin, sender
		),

		mailTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "shop_notifications_sent_total",
				Help:        "Outbound notification emails by result",
				ConstLabels: constLabels,
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.connectAttempts,
		r.publishTotal,
		r.consumeTotal,
		r.consumeDuration,
		r.lookupTotal,
		r.mailTotal,
	)

	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (r *Registry) RecordConnectAttempt(ok bool) {
	if r == nil {
		return
	}
	s := "error"
	if ok {
		s = "success"
	}
	r.connectAttempts.WithLabelValues(s).Inc()
}

func (r *Registry) RecordPublish(topic string, err error) {
	if r == nil {
		return
	}
	r.publishTotal.WithLabelValues(topic, status(err)).Inc()
}

func (r *Registry) RecordConsume(queue, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.consumeTotal.WithLabelValues(queue, outcome).Inc()
	r.consumeDuration.WithLabelValues(queue).Observe(d.Seconds())
}

func (r *Registry) RecordResolution(source string) {
	if r == nil {
		return
	}
	r.lookupTotal.WithLabelValues(source).Inc()
}

func (r *Registry) RecordMailSend(err error) {
	if r == nil {
		return
	}
	r.mailTotal.WithLabelValues(status(err)).Inc()
}
