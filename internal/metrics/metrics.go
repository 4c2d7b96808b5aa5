// Package metrics exposes Prometheus counters for the booking workflows.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors and the registry they are registered on.
// All methods are safe on a nil receiver so callers can omit metrics.
type Metrics struct {
	registry *prometheus.Registry

	Registrations   *prometheus.CounterVec
	AdminWrites     *prometheus.CounterVec
	SignIns         *prometheus.CounterVec
	ProfileUpdates  prometheus.Counter
	EventsPublished *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates a registry with Go and process collectors plus the
// application metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_registration_outcomes_total",
			Help: "Registration and cancellation requests by outcome",
		}, []string{"outcome"}),
		AdminWrites: f.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_admin_writes_total",
			Help: "Administrative writes by entity, operation and result",
		}, []string{"entity", "op", "result"}),
		SignIns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_sign_ins_total",
			Help: "Sign-in attempts by outcome",
		}, []string{"outcome"}),
		ProfileUpdates: f.NewCounter(prometheus.CounterOpts{
			Name: "booking_profile_updates_total",
			Help: "Successful profile updates",
		}),
		EventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_events_published_total",
			Help: "Domain events handed to the broker by result",
		}, []string{"result"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "booking_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "status"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer exposes the registry, mostly for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.registry }

// RegistrationOutcome counts one registration or cancellation outcome.
func (m *Metrics) RegistrationOutcome(outcome string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(outcome).Inc()
}

// AdminWrite counts one administrative create, update or delete.
func (m *Metrics) AdminWrite(entity, op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	m.AdminWrites.WithLabelValues(entity, op, result).Inc()
}

// SignIn counts one sign-in attempt.
func (m *Metrics) SignIn(outcome string) {
	if m == nil {
		return
	}
	m.SignIns.WithLabelValues(outcome).Inc()
}

// ProfileUpdated counts a successful profile update.
func (m *Metrics) ProfileUpdated() {
	if m == nil {
		return
	}
	m.ProfileUpdates.Inc()
}

// EventPublished counts a publish attempt.
func (m *Metrics) EventPublished(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.EventsPublished.WithLabelValues("failed").Inc()
		return
	}
	m.EventsPublished.WithLabelValues("ok").Inc()
}

// ObserveRequest records the latency of one HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, start time.Time) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
}
