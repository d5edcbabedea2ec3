package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/felixgeelhaar/adminctl/internal/api"
	"github.com/felixgeelhaar/adminctl/internal/errors"
)

// Metrics holds all Prometheus metrics for adminctl
type Metrics struct {
	// API call metrics, fed by api lifecycle events
	APICalls       *prometheus.CounterVec
	APIDuration    *prometheus.HistogramVec
	APIFailures    *prometheus.CounterVec
	APIInFlight    *prometheus.GaugeVec
	StaleResponses *prometheus.CounterVec

	// Command execution metrics
	CommandExecutions *prometheus.CounterVec
	CommandDuration   *prometheus.HistogramVec

	// Error metrics (by error code from structured errors)
	Errors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		APICalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adminctl_api_calls_total",
				Help: "Total number of backend API calls",
			},
			[]string{"operation", "success"},
		),
		APIDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "adminctl_api_call_duration_seconds",
				Help:    "Backend API call duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"operation"},
		),
		APIFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adminctl_api_failures_total",
				Help: "Total number of failed backend API calls by failure kind",
			},
			[]string{"operation", "kind", "status"},
		),
		APIInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "adminctl_api_calls_in_flight",
				Help: "Number of backend API calls currently in flight",
			},
			[]string{"operation"},
		),
		StaleResponses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adminctl_api_stale_responses_total",
				Help: "Total number of responses superseded by a newer call",
			},
			[]string{"operation"},
		),

		CommandExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adminctl_command_executions_total",
				Help: "Total number of command executions",
			},
			[]string{"command", "success"},
		),
		CommandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "adminctl_command_duration_seconds",
				Help:    "Command execution duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command"},
		),

		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adminctl_errors_total",
				Help: "Total number of errors by error code",
			},
			[]string{"error_code", "component"},
		),
	}
}

// OnEvent implements api.Listener.
func (m *Metrics) OnEvent(e api.Event) {
	switch e.Type {
	case api.EventStarted:
		m.APIInFlight.WithLabelValues(e.Operation).Inc()
	case api.EventFinished:
		m.APIInFlight.WithLabelValues(e.Operation).Dec()
		m.APICalls.WithLabelValues(e.Operation, strconv.FormatBool(e.OK())).Inc()
		m.APIDuration.WithLabelValues(e.Operation).Observe(e.Duration.Seconds())
		if !e.OK() {
			kind := e.Kind
			if kind == api.KindNone {
				kind = api.KindBackend
			}
			m.APIFailures.WithLabelValues(e.Operation, kind.String(), strconv.Itoa(e.Status)).Inc()
		}
		if e.Stale {
			m.StaleResponses.WithLabelValues(e.Operation).Inc()
		}
	}
}

// RecordCommand records one CLI command execution.
func (m *Metrics) RecordCommand(command string, duration time.Duration, err error) {
	m.CommandExecutions.WithLabelValues(command, strconv.FormatBool(err == nil)).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(duration.Seconds())
	if err != nil {
		code := string(errors.CodeOf(err))
		if code == "" {
			code = "unknown"
		}
		m.Errors.WithLabelValues(code, "cmd").Inc()
	}
}
