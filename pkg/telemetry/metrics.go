package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for the bridge core and tool server.
type Metrics struct {
	config MetricsConfig

	// Tool surface metrics
	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec

	// Automation engine metrics
	engineStarts    prometheus.Counter
	engineResets    *prometheus.CounterVec
	exclusiveOpens  prometheus.Counter
	recoveryRetries *prometheus.CounterVec

	// Arbitration metrics
	arbitrationReleases prometheus.Counter
	tabularReopens      *prometheus.CounterVec

	// Error metrics
	errorsByClass *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
// When cfg.Enabled is false the returned instance is a no-op.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_calls_total",
				Help:      "Total number of tool calls",
			},
			[]string{"tool", "status"},
		),
		toolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tool_call_duration_seconds",
				Help:      "Duration of tool calls in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"tool"},
		),

		engineStarts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "engine_starts_total",
				Help:      "Total number of automation engine instances created",
			},
		),
		engineResets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "engine_resets_total",
				Help:      "Total number of automation engine resets",
			},
			[]string{"reason"},
		),
		exclusiveOpens: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exclusive_opens_total",
				Help:      "Total number of exclusive-mode database opens",
			},
		),
		recoveryRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recovery_retries_total",
				Help:      "Total number of reset-and-retry cycles",
			},
			[]string{"outcome"},
		),

		arbitrationReleases: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "arbitration_releases_total",
				Help:      "Total number of tabular handle releases for exclusive automation",
			},
		),
		tabularReopens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tabular_reopens_total",
				Help:      "Total number of tabular connection reopens",
			},
			[]string{"trigger"},
		),

		errorsByClass: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_class_total",
				Help:      "Total number of errors by error class",
			},
			[]string{"class"},
		),
	}

	registry.MustRegister(
		m.toolCalls,
		m.toolDuration,
		m.engineStarts,
		m.engineResets,
		m.exclusiveOpens,
		m.recoveryRetries,
		m.arbitrationReleases,
		m.tabularReopens,
		m.errorsByClass,
	)

	return m, nil
}

// RecordToolCall records a completed tool call with its status and duration.
func (m *Metrics) RecordToolCall(tool, status string, duration time.Duration) {
	if m.toolCalls == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, status).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordEngineStart increments the engine instance counter.
func (m *Metrics) RecordEngineStart() {
	if m.engineStarts == nil {
		return
	}
	m.engineStarts.Inc()
}

// RecordEngineReset records an engine reset with its reason
// ("recovery", "disconnect", "teardown").
func (m *Metrics) RecordEngineReset(reason string) {
	if m.engineResets == nil {
		return
	}
	m.engineResets.WithLabelValues(reason).Inc()
}

// RecordExclusiveOpen increments the exclusive-open counter.
func (m *Metrics) RecordExclusiveOpen() {
	if m.exclusiveOpens == nil {
		return
	}
	m.exclusiveOpens.Inc()
}

// RecordRecoveryRetry records a reset-and-retry cycle with its outcome
// ("succeeded" or "failed").
func (m *Metrics) RecordRecoveryRetry(outcome string) {
	if m.recoveryRetries == nil {
		return
	}
	m.recoveryRetries.WithLabelValues(outcome).Inc()
}

// RecordArbitrationRelease increments the arbitration release counter.
func (m *Metrics) RecordArbitrationRelease() {
	if m.arbitrationReleases == nil {
		return
	}
	m.arbitrationReleases.Inc()
}

// RecordTabularReopen records a tabular connection reopen with its trigger
// ("restore" after arbitration, "lazy" on the next schema/query call).
func (m *Metrics) RecordTabularReopen(trigger string) {
	if m.tabularReopens == nil {
		return
	}
	m.tabularReopens.WithLabelValues(trigger).Inc()
}

// RecordError records an error by class.
func (m *Metrics) RecordError(class string) {
	if m.errorsByClass == nil {
		return
	}
	m.errorsByClass.WithLabelValues(class).Inc()
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server exposing the metrics endpoint.
// It returns immediately; server errors are reported through the logger.
func (m *Metrics) StartMetricsServer(log *Logger) error {
	if !m.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("metrics server stopped")
		}
	}()

	return nil
}
