// Package metrics exposes the bot's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "escape_bot"

// Metrics holds the bot collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Commands          *prometheus.CounterVec
	UpstreamFailures  *prometheus.CounterVec
	EventsCreated     prometheus.Counter
	EventsDeleted     prometheus.Counter
	RemindersSent     prometheus.Counter
	ReminderFailures  prometheus.Counter
	WebhookEvents     *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	LastReminderCheck prometheus.Gauge
}

// New creates a Metrics with its own registry, including Go and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "commands_total",
			Help:      "Chat commands handled, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		UpstreamFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "upstream_failures_total",
			Help:      "Failed calls to external services.",
		}, []string{"service"}),
		EventsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "events_created_total",
			Help:      "Events added.",
		}),
		EventsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "events_deleted_total",
			Help:      "Events deleted.",
		}),
		RemindersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "reminders_sent_total",
			Help:      "Reminder messages pushed.",
		}),
		ReminderFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "reminder_failures_total",
			Help:      "Reminder pushes that failed and will be retried on the next scan.",
		}),
		WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "webhook_events_total",
			Help:      "Inbound webhook events, by type.",
		}, []string{"type"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		LastReminderCheck: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_reminder_check_timestamp_seconds",
			Help:      "Unix time of the last reminder scan.",
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Commands,
		m.UpstreamFailures,
		m.EventsCreated,
		m.EventsDeleted,
		m.RemindersSent,
		m.ReminderFailures,
		m.WebhookEvents,
		m.HTTPDuration,
		m.LastReminderCheck,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveCommand counts one handled command.
func (m *Metrics) ObserveCommand(kind, outcome string) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(kind, outcome).Inc()
}

// ObserveUpstreamFailure counts one failed external call.
func (m *Metrics) ObserveUpstreamFailure(service string) {
	if m == nil {
		return
	}
	m.UpstreamFailures.WithLabelValues(service).Inc()
}

// ObserveReminderScan records a finished reminder scan.
func (m *Metrics) ObserveReminderScan(at time.Time, sent, failed int) {
	if m == nil {
		return
	}
	m.LastReminderCheck.Set(float64(at.Unix()))
	m.RemindersSent.Add(float64(sent))
	m.ReminderFailures.Add(float64(failed))
}

// ObserveEventCreated counts one stored event.
func (m *Metrics) ObserveEventCreated() {
	if m == nil {
		return
	}
	m.EventsCreated.Inc()
}

// ObserveEventDeleted counts one deleted event.
func (m *Metrics) ObserveEventDeleted() {
	if m == nil {
		return
	}
	m.EventsDeleted.Inc()
}
