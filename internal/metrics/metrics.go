// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics surface consumed by handlers and the lifecycle
// processor. Kept as an interface so tests can pass a no-op.
type Recorder interface {
	RecordSignUp()
	RecordSignIn()
	RecordSessionCheck(state string)
	RecordWebhookEvent(eventType, outcome string)
	StreamOpened()
	StreamClosed()
}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	signUps       prometheus.Counter
	signIns       prometheus.Counter
	sessionChecks *prometheus.CounterVec
	webhookEvents *prometheus.CounterVec
	liveStreams   prometheus.Gauge
}

// NewCollector creates a Collector and registers its metrics with the
// given registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signUps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foyer_sign_ups_total",
			Help: "Total successful sign-up requests.",
		}),
		signIns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foyer_sign_ins_total",
			Help: "Total successful sign-in requests.",
		}),
		sessionChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foyer_session_checks_total",
			Help: "Session checks by resulting state.",
		}, []string{"state"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foyer_webhook_events_total",
			Help: "Lifecycle webhook deliveries by type and outcome.",
		}, []string{"type", "outcome"}),
		liveStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "foyer_live_event_streams",
			Help: "Currently open session-state event streams.",
		}),
	}

	reg.MustRegister(
		c.signUps,
		c.signIns,
		c.sessionChecks,
		c.webhookEvents,
		c.liveStreams,
	)

	return c
}

// RecordSignUp counts one successful sign-up.
func (c *Collector) RecordSignUp() {
	c.signUps.Inc()
}

// RecordSignIn counts one successful sign-in.
func (c *Collector) RecordSignIn() {
	c.signIns.Inc()
}

// RecordSessionCheck counts one session check by its resulting state.
func (c *Collector) RecordSessionCheck(state string) {
	c.sessionChecks.WithLabelValues(state).Inc()
}

// RecordWebhookEvent counts one lifecycle delivery.
func (c *Collector) RecordWebhookEvent(eventType, outcome string) {
	c.webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

// StreamOpened bumps the live stream gauge.
func (c *Collector) StreamOpened() {
	c.liveStreams.Inc()
}

// StreamClosed lowers the live stream gauge.
func (c *Collector) StreamClosed() {
	c.liveStreams.Dec()
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Noop is a Recorder that records nothing, for tests.
type Noop struct{}

func (Noop) RecordSignUp()                  {}
func (Noop) RecordSignIn()                  {}
func (Noop) RecordSessionCheck(string)      {}
func (Noop) RecordWebhookEvent(_, _ string) {}
func (Noop) StreamOpened()                  {}
func (Noop) StreamClosed()                  {}
