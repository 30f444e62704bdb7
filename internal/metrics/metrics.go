package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// BookingMetrics exposes counters for the appointment lifecycle.
type BookingMetrics struct {
	createdTotal    *prometheus.CounterVec
	transitionTotal *prometheus.CounterVec
	rejectedTotal   *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		createdTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medischedule",
			Subsystem: "booking",
			Name:      "appointments_created_total",
			Help:      "Appointments stored, by origin role and initial status",
		}, []string{"origin", "status"}),
		transitionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medischedule",
			Subsystem: "booking",
			Name:      "status_transitions_total",
			Help:      "Appointment status changes, by outcome",
		}, []string{"from", "to", "result"}),
		rejectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medischedule",
			Subsystem: "booking",
			Name:      "submissions_rejected_total",
			Help:      "Booking submissions rejected by validation, by field",
		}, []string{"field"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.createdTotal, m.transitionTotal, m.rejectedTotal)
	return m
}

func (m *BookingMetrics) ObserveCreated(origin, status string) {
	if m == nil {
		return
	}
	m.createdTotal.WithLabelValues(origin, status).Inc()
}

func (m *BookingMetrics) ObserveTransition(from, to, result string) {
	if m == nil {
		return
	}
	m.transitionTotal.WithLabelValues(from, to, result).Inc()
}

func (m *BookingMetrics) ObserveRejected(field string) {
	if m == nil {
		return
	}
	m.rejectedTotal.WithLabelValues(field).Inc()
}

// ReminderMetrics tracks calls to the reminder text generator.
type ReminderMetrics struct {
	requestsTotal *prometheus.CounterVec
	latency       prometheus.Histogram
}

func NewReminderMetrics(reg prometheus.Registerer) *ReminderMetrics {
	m := &ReminderMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medischedule",
			Subsystem: "reminder",
			Name:      "requests_total",
			Help:      "Reminder generation requests, by result (generated, cached, invalid, failed)",
		}, []string{"result"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "medischedule",
			Subsystem: "reminder",
			Name:      "generation_seconds",
			Help:      "Latency of calls to the text generation service",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.latency)
	return m
}

func (m *ReminderMetrics) ObserveRequest(result string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(result).Inc()
}

func (m *ReminderMetrics) ObserveLatency(seconds float64) {
	if m == nil {
		return
	}
	m.latency.Observe(seconds)
}

// HTTPMetrics records request counts and latency per route pattern.
type HTTPMetrics struct {
	requestsTotal *prometheus.CounterVec
	duration      *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medischedule",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "medischedule",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.duration)
	return m
}

func (m *HTTPMetrics) ObserveRequest(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(seconds)
}
