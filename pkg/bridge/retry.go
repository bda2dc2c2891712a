package bridge

import (
	"context"

	"github.com/accessbridge/accessbridge/pkg/telemetry"
)

// RunOptions controls how an automation operation is executed.
type RunOptions struct {
	// RequireExclusive opens the backing file exclusively before the body
	// runs. Schema mutations and design-time edits need this.
	RequireExclusive bool

	// ReleaseTabular yields the tabular connection for the duration of the
	// operation. Required whenever RequireExclusive is set against backing
	// stores that refuse an exclusive open while a shared handle exists.
	ReleaseTabular bool
}

// RunAutomation executes body against a ready automation engine.
//
// On a recognized transient lock/state error during the first attempt the
// engine is torn down and the entire operation retried exactly once; a
// second failure of any kind propagates. Non-recoverable errors propagate
// immediately. The single bounded retry is deliberate: a host left in a bad
// state by one failed call is usually healthy after a clean restart, while
// repeated blind retries mask real faults.
func (s *Session) RunAutomation(ctx context.Context, opts RunOptions, body func(ctx context.Context, eng Engine) error) error {
	if s.path == "" {
		return NewPreconditionError("no database connected")
	}

	ctx, span := s.tracer.StartAutomationSpan(ctx, s.path, opts.RequireExclusive)
	defer span.End()

	attempt := func(ctx context.Context) error {
		eng, err := s.ensureEngine(ctx, true, opts.RequireExclusive)
		if err != nil {
			return err
		}
		return body(ctx, eng)
	}

	run := attempt
	if opts.ReleaseTabular {
		run = func(ctx context.Context) error {
			return s.RunWithTabularReleased(ctx, attempt)
		}
	}

	err := run(ctx)
	if err == nil {
		telemetry.RecordSuccess(span)
		return nil
	}

	if s.classifier == nil || !s.classifier.Recoverable(err) {
		s.metrics.RecordError(string(ClassOf(err)))
		telemetry.RecordError(span, err)
		return err
	}

	s.log.WithError(err).Warn("recoverable automation error, resetting engine and retrying")
	s.resetEngine(ctx, "recovery")

	if err := run(ctx); err != nil {
		s.metrics.RecordRecoveryRetry("failed")
		s.metrics.RecordError(string(ClassOf(err)))
		telemetry.RecordError(span, err)
		return err
	}

	s.metrics.RecordRecoveryRetry("succeeded")
	telemetry.RecordSuccess(span)
	return nil
}
