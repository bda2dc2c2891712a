package bridge

import (
	"context"

	"github.com/accessbridge/accessbridge/pkg/hostproto"
)

// Engine is one live automation host instance. The production implementation
// is hostproc.Client; tests substitute fakes.
type Engine interface {
	// OpenDatabase opens the backing file in the requested access mode.
	OpenDatabase(ctx context.Context, path string, exclusive bool) error

	// CloseDatabase closes the currently open backing file.
	CloseDatabase(ctx context.Context) error

	// Quit shuts the host down, suppressing save prompts when
	// discardChanges is true, and releases the instance's resources.
	Quit(ctx context.Context, discardChanges bool) error

	// Call issues a raw host command. result may be nil.
	Call(ctx context.Context, op hostproto.CommandType, params, result interface{}) error
}

// EngineFactory creates a started automation engine instance. A factory
// failure is an environment problem (the host application cannot be
// instantiated on this machine) and is treated as fatal, never retried.
type EngineFactory func(ctx context.Context) (Engine, error)

// ensureEngine returns a ready automation engine. At most one instance ever
// exists per Session; an existing instance is reused across calls.
//
// When openTarget is true the engine's currently open file is compared
// against the Session target: matching file and sufficient access mode is a
// no-op; a mode upgrade or a different file closes whatever is open
// (best-effort) and reopens the target in the requested mode. The recorded
// mode always reflects the actual open mode.
func (s *Session) ensureEngine(ctx context.Context, openTarget, requireExclusive bool) (Engine, error) {
	if s.engine == nil {
		if s.factory == nil {
			return nil, NewFatalError("no automation engine factory configured", nil)
		}
		eng, err := s.factory(ctx)
		if err != nil {
			return nil, NewFatalError("automation host could not be started", err)
		}
		s.engine = eng
		s.enginePath = ""
		s.engineExclusive = false
		s.metrics.RecordEngineStart()
		s.log.Info("automation engine created")
	}

	if !openTarget {
		return s.engine, nil
	}

	if s.path == "" {
		return nil, NewPreconditionError("no database connected")
	}

	if s.enginePath == s.path && (s.engineExclusive || !requireExclusive) {
		return s.engine, nil
	}

	if s.enginePath != "" {
		// Best-effort: a failing close must not block the reopen.
		if err := s.engine.CloseDatabase(ctx); err != nil {
			s.log.WithError(err).Warn("failed to close previously open file")
		}
		s.enginePath = ""
		s.engineExclusive = false
	}

	if err := s.engine.OpenDatabase(ctx, s.path, requireExclusive); err != nil {
		return nil, err
	}

	s.enginePath = s.path
	s.engineExclusive = requireExclusive
	if requireExclusive {
		s.metrics.RecordExclusiveOpen()
	}
	s.log.WithTarget(s.path).WithField("exclusive", requireExclusive).Debug("engine opened target")

	return s.engine, nil
}

// resetEngine attempts a graceful shutdown of the engine with save prompts
// suppressed and discards the handle regardless of the outcome. Used for
// explicit disconnect and for transient-error recovery.
func (s *Session) resetEngine(ctx context.Context, reason string) {
	if s.engine == nil {
		return
	}

	if err := s.engine.Quit(ctx, true); err != nil {
		s.log.WithError(err).Warn("engine shutdown reported an error")
	}

	s.engine = nil
	s.enginePath = ""
	s.engineExclusive = false
	s.metrics.RecordEngineReset(reason)
	s.log.WithField("reason", reason).Info("automation engine reset")
}
