package hostsim

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/accessbridge/accessbridge/pkg/hostproto"
)

func (s *Sim) handleQuit(params json.RawMessage) *hostError {
	// DiscardChanges is implicit here: the simulator never persists design
	// edits, so quitting always drops them.
	if len(params) > 0 {
		var p hostproto.AppQuitParams
		if err := hostproto.ParseParams(params, &p); err != nil {
			return errBadParams(err)
		}
	}
	s.releaseLock()
	s.openPath = ""
	s.model = nil
	return nil
}

func (s *Sim) handleDBOpen(params json.RawMessage) (json.RawMessage, *hostError) {
	var p hostproto.DBOpenParams
	if err := hostproto.ParseParams(params, &p); err != nil {
		return nil, errBadParams(err)
	}

	if _, err := os.Stat(p.Path); err != nil {
		return nil, &hostError{
			code:    hostproto.ErrCodeObjectNotFound,
			message: fmt.Sprintf("database file not found: %s", p.Path),
		}
	}

	// Reopening is close-then-open, like the real host.
	if s.openPath != "" {
		if herr := s.handleDBClose(); herr != nil {
			return nil, herr
		}
	}

	lock := lockArtifact(p.Path)
	if p.Exclusive {
		f, err := os.OpenFile(lock, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err != nil {
			if os.IsExist(err) {
				return nil, &hostError{
					code:      hostproto.ErrCodeDBLocked,
					message:   "the database has been opened or locked by another user",
					retryable: true,
				}
			}
			return nil, &hostError{code: hostproto.ErrCodeInternal, message: err.Error()}
		}
		fmt.Fprintf(f, "%d\n", os.Getpid())
		_ = f.Close()
		s.ownLock = true
	} else {
		if f, err := os.OpenFile(lock, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644); err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			_ = f.Close()
			s.ownLock = true
		}
	}

	m, err := loadModel(p.Path)
	if err != nil {
		if s.ownLock {
			_ = os.Remove(lock)
			s.ownLock = false
		}
		return nil, &hostError{code: hostproto.ErrCodeDBBadState, message: err.Error()}
	}

	s.openPath = p.Path
	s.exclusive = p.Exclusive
	s.model = m

	return marshalResult(&hostproto.DBOpenResult{
		Path:      p.Path,
		Exclusive: p.Exclusive,
	})
}

func (s *Sim) handleDBClose() *hostError {
	if s.openPath == "" {
		return &hostError{code: hostproto.ErrCodeDBNotOpen, message: "no database is open"}
	}
	s.releaseLock()
	s.openPath = ""
	s.exclusive = false
	s.model = nil
	return nil
}

func (s *Sim) handleDBCompact(params json.RawMessage) (json.RawMessage, *hostError) {
	if s.openPath == "" {
		return nil, &hostError{code: hostproto.ErrCodeDBNotOpen, message: "no database is open"}
	}

	var p hostproto.DBCompactParams
	if len(params) > 0 {
		if err := hostproto.ParseParams(params, &p); err != nil {
			return nil, errBadParams(err)
		}
	}

	info, err := os.Stat(s.openPath)
	if err != nil {
		return nil, &hostError{code: hostproto.ErrCodeInternal, message: err.Error()}
	}

	if p.DestPath != "" {
		data, err := os.ReadFile(s.openPath)
		if err != nil {
			return nil, &hostError{code: hostproto.ErrCodeInternal, message: err.Error()}
		}
		if err := os.WriteFile(p.DestPath, data, 0644); err != nil {
			return nil, &hostError{code: hostproto.ErrCodeInternal, message: err.Error()}
		}
	}

	// The simulator has nothing to reclaim.
	return marshalResult(&hostproto.DBCompactResult{
		BytesBefore: info.Size(),
		BytesAfter:  info.Size(),
	})
}

func (s *Sim) requireObject(kind hostproto.ObjectKind, name string) (*object, *hostError) {
	if s.model == nil {
		return nil, &hostError{code: hostproto.ErrCodeDBNotOpen, message: "no database is open"}
	}
	o, ok := s.model.lookup(kind, name)
	if !ok {
		return nil, &hostError{
			code:    hostproto.ErrCodeObjectNotFound,
			message: fmt.Sprintf("%s not found: %s", kind, name),
		}
	}
	return o, nil
}

func (s *Sim) handleObjectOpen(params json.RawMessage) (json.RawMessage, *hostError) {
	var p hostproto.ObjectOpenParams
	if err := hostproto.ParseParams(params, &p); err != nil {
		return nil, errBadParams(err)
	}

	o, herr := s.requireObject(p.Kind, p.Name)
	if herr != nil {
		return nil, herr
	}

	wasLoaded := o.Loaded
	if !wasLoaded {
		o.Loaded = true
		o.DesignView = p.DesignView
		o.snapshot = make(map[string]interface{}, len(o.Props))
		for k, v := range o.Props {
			o.snapshot[k] = v
		}
	}

	return marshalResult(&hostproto.ObjectOpenResult{WasLoaded: wasLoaded})
}

func (s *Sim) handleObjectClose(params json.RawMessage) *hostError {
	var p hostproto.ObjectCloseParams
	if err := hostproto.ParseParams(params, &p); err != nil {
		return errBadParams(err)
	}

	o, herr := s.requireObject(p.Kind, p.Name)
	if herr != nil {
		return herr
	}
	if !o.Loaded {
		return nil
	}

	if p.DiscardChanges && o.snapshot != nil {
		o.Props = o.snapshot
	}
	o.Loaded = false
	o.DesignView = false
	o.snapshot = nil
	return nil
}

func (s *Sim) handleObjectLoaded(params json.RawMessage) (json.RawMessage, *hostError) {
	var p hostproto.ObjectLoadedParams
	if err := hostproto.ParseParams(params, &p); err != nil {
		return nil, errBadParams(err)
	}

	o, herr := s.requireObject(p.Kind, p.Name)
	if herr != nil {
		return nil, herr
	}

	return marshalResult(&hostproto.ObjectLoadedResult{Loaded: o.Loaded})
}

func (s *Sim) handleObjectList(params json.RawMessage) (json.RawMessage, *hostError) {
	var p hostproto.ObjectListParams
	if err := hostproto.ParseParams(params, &p); err != nil {
		return nil, errBadParams(err)
	}
	if s.model == nil {
		return nil, &hostError{code: hostproto.ErrCodeDBNotOpen, message: "no database is open"}
	}

	return marshalResult(&hostproto.ObjectListResult{Names: s.model.names(p.Kind)})
}

func (s *Sim) handleObjectExport(params json.RawMessage) (json.RawMessage, *hostError) {
	var p hostproto.ObjectExportParams
	if err := hostproto.ParseParams(params, &p); err != nil {
		return nil, errBadParams(err)
	}

	o, herr := s.requireObject(p.Kind, p.Name)
	if herr != nil {
		return nil, herr
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Begin %s %s\n", p.Kind, p.Name)
	keys := make([]string, 0, len(o.Props))
	for k := range o.Props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "    %s = %v\n", k, o.Props[k])
	}
	for _, name := range sortedControlNames(o) {
		fmt.Fprintf(&b, "    Control %s\n", name)
	}
	b.WriteString("End\n")

	return marshalResult(&hostproto.ObjectExportResult{Definition: b.String()})
}

func sortedControlNames(o *object) []string {
	names := make([]string, 0, len(o.Controls))
	for name := range o.Controls {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Sim) handleMacroRun(params json.RawMessage) *hostError {
	var p hostproto.MacroRunParams
	if err := hostproto.ParseParams(params, &p); err != nil {
		return errBadParams(err)
	}

	_, herr := s.requireObject(hostproto.ObjectKindMacro, p.Name)
	return herr
}

func (s *Sim) resolveObject(path string) (*object, *hostError) {
	if s.model == nil {
		return nil, &hostError{code: hostproto.ErrCodeDBNotOpen, message: "no database is open"}
	}
	o, err := s.model.resolve(path)
	if err != nil {
		return nil, &hostError{code: hostproto.ErrCodeObjectNotFound, message: err.Error()}
	}
	return o, nil
}

func (s *Sim) handleMemberGet(params json.RawMessage) (json.RawMessage, *hostError) {
	var p hostproto.MemberGetParams
	if err := hostproto.ParseParams(params, &p); err != nil {
		return nil, errBadParams(err)
	}

	o, herr := s.resolveObject(p.Object)
	if herr != nil {
		return nil, herr
	}

	var value interface{}
	if o == nil {
		// Application-level members.
		switch p.Name {
		case "Name":
			value = "hostsim"
		case "Version":
			value = Version
		case "CurrentObjectName":
			value = s.openPath
		default:
			return nil, memberNotFound(p.Object, p.Name)
		}
	} else {
		v, ok := o.Props[p.Name]
		if !ok {
			return nil, memberNotFound(p.Object, p.Name)
		}
		value = v
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return nil, &hostError{code: hostproto.ErrCodeInternal, message: err.Error()}
	}
	return marshalResult(&hostproto.MemberGetResult{Value: raw})
}

func (s *Sim) handleMemberSet(params json.RawMessage) *hostError {
	var p hostproto.MemberSetParams
	if err := hostproto.ParseParams(params, &p); err != nil {
		return errBadParams(err)
	}

	o, herr := s.resolveObject(p.Object)
	if herr != nil {
		return herr
	}
	if o == nil {
		return memberNotFound(p.Object, p.Name)
	}

	var value interface{}
	if err := json.Unmarshal(p.Value, &value); err != nil {
		return errBadParams(err)
	}
	o.Props[p.Name] = value
	return nil
}

func (s *Sim) handleMemberInvoke(params json.RawMessage) (json.RawMessage, *hostError) {
	var p hostproto.MemberInvokeParams
	if err := hostproto.ParseParams(params, &p); err != nil {
		return nil, errBadParams(err)
	}

	o, herr := s.resolveObject(p.Object)
	if herr != nil {
		return nil, herr
	}

	if o == nil {
		switch p.Name {
		case "Echo":
			var value json.RawMessage
			if len(p.Args) > 0 {
				value = p.Args[0]
			}
			return marshalResult(&hostproto.MemberInvokeResult{Value: value})
		default:
			return nil, memberNotFound(p.Object, p.Name)
		}
	}

	switch p.Name {
	case "Requery", "SetFocus", "Repaint":
		return marshalResult(&hostproto.MemberInvokeResult{})
	default:
		return nil, memberNotFound(p.Object, p.Name)
	}
}

func memberNotFound(object, name string) *hostError {
	target := object
	if target == "" {
		target = "Application"
	}
	return &hostError{
		code:    hostproto.ErrCodeMemberNotFound,
		message: fmt.Sprintf("member not found: %s.%s", target, name),
	}
}

func marshalResult(v interface{}) (json.RawMessage, *hostError) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, &hostError{code: hostproto.ErrCodeInternal, message: err.Error()}
	}
	return raw, nil
}
