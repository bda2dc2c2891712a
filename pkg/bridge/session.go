package bridge

import (
	"context"
	"database/sql"

	"github.com/accessbridge/accessbridge/pkg/telemetry"
)

// Session is the top-level mutable state of the bridge: the currently
// targeted backing file, the tabular connection, the automation engine
// instance, and the arbitration bookkeeping. Exactly one Session exists per
// running process; it is created by the composition root and passed
// explicitly to every operation handler.
//
// The Session performs no internal locking. All calls against it must be
// serialized by the transport layer.
type Session struct {
	log     *telemetry.Logger
	metrics *telemetry.Metrics
	tracer  *telemetry.Tracer

	factory    EngineFactory
	classifier *Classifier

	// path is the currently targeted backing file; empty when disconnected.
	path string

	// db is the tabular connection; nil when closed.
	db *sql.DB

	// dialTabular opens a tabular handle for the target; nil means
	// openTabularHandle. Tests swap in scripted openers.
	dialTabular func(ctx context.Context) (*sql.DB, error)

	// engine is the automation engine instance; nil when none exists.
	engine Engine

	// enginePath is the file currently open in the engine; empty when the
	// engine has no file open. engineExclusive reflects the actual mode the
	// file is open in.
	enginePath      string
	engineExclusive bool

	// releaseDepth counts nested RunWithTabularReleased invocations;
	// restorePending remembers that the outermost exit must reopen the
	// tabular connection.
	releaseDepth   int
	restorePending bool
}

// Options configures a Session.
type Options struct {
	// Logger, Metrics, and Tracer are optional; defaults are no-op or
	// stderr-backed instances.
	Logger  *telemetry.Logger
	Metrics *telemetry.Metrics
	Tracer  *telemetry.Tracer

	// Factory creates automation engine instances. Required for any
	// automation operation.
	Factory EngineFactory

	// Classifier decides which errors are recoverable. Required for any
	// automation operation.
	Classifier *Classifier
}

// New creates a Session.
func New(opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = telemetry.FromContext(context.Background())
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics, _ = telemetry.NewMetrics(telemetry.MetricsConfig{})
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer, _ = telemetry.NewTracer(telemetry.TracingConfig{}, "accessbridge", "dev")
	}

	return &Session{
		log:        log.NewComponentLogger("bridge"),
		metrics:    metrics,
		tracer:     tracer,
		factory:    opts.Factory,
		classifier: opts.Classifier,
	}
}

// Status is a snapshot of the Session state, for the session_status tool and
// for tests.
type Status struct {
	Path            string `json:"path,omitempty"`
	TabularOpen     bool   `json:"tabular_open"`
	EngineActive    bool   `json:"engine_active"`
	EngineTarget    string `json:"engine_target,omitempty"`
	EngineExclusive bool   `json:"engine_exclusive"`
}

// Status returns a snapshot of the Session state.
func (s *Session) Status() Status {
	return Status{
		Path:            s.path,
		TabularOpen:     s.db != nil,
		EngineActive:    s.engine != nil,
		EngineTarget:    s.enginePath,
		EngineExclusive: s.engineExclusive,
	}
}

// Path returns the currently targeted backing file, or empty when
// disconnected.
func (s *Session) Path() string {
	return s.path
}

// Classifier returns the session's recoverable-error classifier.
func (s *Session) Classifier() *Classifier {
	return s.classifier
}

// Teardown releases everything the Session holds: the tabular connection is
// closed and the automation engine is shut down with save prompts suppressed.
// Used on process shutdown.
func (s *Session) Teardown(ctx context.Context) error {
	var firstErr error

	if err := s.closeTabular(); err != nil {
		firstErr = err
	}
	if s.engine != nil {
		s.resetEngine(ctx, "teardown")
	}
	s.path = ""
	s.restorePending = false
	s.releaseDepth = 0

	return firstErr
}
