package bridge

import "context"

// RunWithTabularReleased executes body with the tabular connection released,
// so the automation engine can open the backing file exclusively. The call
// is reentrant: only the outermost invocation releases the handle on entry
// and restores it after body returns, regardless of nesting depth.
//
// A failure to restore is logged and deferred, not raised: the next
// schema/query call reopens the connection lazily (EnsureTabular).
func (s *Session) RunWithTabularReleased(ctx context.Context, body func(ctx context.Context) error) error {
	outermost := s.releaseDepth == 0

	if outermost && s.db != nil {
		if err := s.closeTabular(); err != nil {
			s.log.WithError(err).Warn("failed to release tabular connection")
		}
		s.restorePending = true
		s.metrics.RecordArbitrationRelease()
		s.log.Debug("tabular connection released for exclusive automation")
	}

	s.releaseDepth++
	defer func() {
		s.releaseDepth--
		if !outermost || !s.restorePending {
			return
		}
		s.restorePending = false
		if s.path == "" {
			return
		}
		if err := s.openTabular(ctx); err != nil {
			s.log.WithError(err).Warn("deferred tabular restore failed, will reopen lazily")
			return
		}
		s.metrics.RecordTabularReopen("restore")
		s.log.Debug("tabular connection restored")
	}()

	return body(ctx)
}
