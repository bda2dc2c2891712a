package bridge

import (
	"context"

	"github.com/accessbridge/accessbridge/pkg/hostproto"
)

// WithLoadedObject runs body with the named design-surface object loaded in
// the host, opening it first when necessary. An object opened by this call
// is closed again on the way out with changes discarded, so read-only
// inspection never perturbs persisted state; an object that was already
// loaded before the call is left untouched.
//
// Design-view work implies exclusive access, so designView also routes the
// operation through the arbitration coordinator.
func (s *Session) WithLoadedObject(ctx context.Context, kind hostproto.ObjectKind, name string, designView bool, body func(ctx context.Context, eng Engine) error) error {
	if name == "" {
		return NewPreconditionError("object name is required")
	}
	if err := kind.Validate(); err != nil {
		return NewPreconditionError(err.Error())
	}

	return s.RunAutomation(ctx, RunOptions{
		RequireExclusive: designView,
		ReleaseTabular:   designView,
	}, func(ctx context.Context, eng Engine) error {
		openedHere, err := s.ensureObjectOpen(ctx, eng, kind, name, designView)
		if err != nil {
			return err
		}
		defer func() {
			if openedHere {
				s.closeIfOpenedHere(ctx, eng, kind, name)
			}
		}()

		return body(ctx, eng)
	})
}

// ensureObjectOpen opens the object unless it is already loaded, returning
// true when this call performed the open.
func (s *Session) ensureObjectOpen(ctx context.Context, eng Engine, kind hostproto.ObjectKind, name string, designView bool) (bool, error) {
	var loaded hostproto.ObjectLoadedResult
	if err := eng.Call(ctx, hostproto.CommandObjectLoaded, &hostproto.ObjectLoadedParams{
		Kind: kind,
		Name: name,
	}, &loaded); err != nil {
		return false, err
	}
	if loaded.Loaded {
		return false, nil
	}

	if err := eng.Call(ctx, hostproto.CommandObjectOpen, &hostproto.ObjectOpenParams{
		Kind:       kind,
		Name:       name,
		DesignView: designView,
	}, nil); err != nil {
		return false, err
	}

	s.log.WithObject(string(kind), name).Debug("object opened")
	return true, nil
}

// closeIfOpenedHere closes an object this call opened, discarding changes.
// Best-effort: cleanup failure must not mask the operation result.
func (s *Session) closeIfOpenedHere(ctx context.Context, eng Engine, kind hostproto.ObjectKind, name string) {
	if err := eng.Call(ctx, hostproto.CommandObjectClose, &hostproto.ObjectCloseParams{
		Kind:           kind,
		Name:           name,
		DiscardChanges: true,
	}, nil); err != nil {
		s.log.WithObject(string(kind), name).WithError(err).Warn("failed to close object")
		return
	}
	s.log.WithObject(string(kind), name).Debug("object closed")
}

// ListObjects enumerates design-surface objects of the given kind.
func (s *Session) ListObjects(ctx context.Context, kind hostproto.ObjectKind) ([]string, error) {
	if err := kind.Validate(); err != nil {
		return nil, NewPreconditionError(err.Error())
	}

	var result hostproto.ObjectListResult
	err := s.RunAutomation(ctx, RunOptions{}, func(ctx context.Context, eng Engine) error {
		return eng.Call(ctx, hostproto.CommandObjectList, &hostproto.ObjectListParams{
			Kind: kind,
		}, &result)
	})
	if err != nil {
		return nil, err
	}
	return result.Names, nil
}

// RunMacro runs a named macro in the host.
func (s *Session) RunMacro(ctx context.Context, name string) error {
	if name == "" {
		return NewPreconditionError("macro name is required")
	}
	return s.RunAutomation(ctx, RunOptions{}, func(ctx context.Context, eng Engine) error {
		return eng.Call(ctx, hostproto.CommandMacroRun, &hostproto.MacroRunParams{
			Name: name,
		}, nil)
	})
}

// CompactDatabase compacts the backing file. The host needs the file to
// itself, so the operation runs exclusively with the tabular handle
// released.
func (s *Session) CompactDatabase(ctx context.Context, destPath string) (*hostproto.DBCompactResult, error) {
	var result hostproto.DBCompactResult
	err := s.RunAutomation(ctx, RunOptions{
		RequireExclusive: true,
		ReleaseTabular:   true,
	}, func(ctx context.Context, eng Engine) error {
		return eng.Call(ctx, hostproto.CommandDBCompact, &hostproto.DBCompactParams{
			DestPath: destPath,
		}, &result)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
