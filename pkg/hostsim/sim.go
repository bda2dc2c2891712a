// Package hostsim implements a simulated automation host speaking the
// AccessBridge host protocol over stdio.
//
// The simulator stands in for the desktop application during development and
// testing: it honors shared/exclusive opens with a lock artifact file next
// to the database, carries an in-memory design-object model seeded from an
// optional "<path>.design.json" sidecar, and answers the generic member
// commands against that model. The real desktop host bridge is
// platform-specific and lives outside this repository.
package hostsim

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/accessbridge/accessbridge/pkg/hostproto"
)

// Version is the simulator protocol version reported in READY.
const Version = "1.0.0"

// Sim is one simulator instance bound to a stdio pair.
type Sim struct {
	encoder *hostproto.Encoder
	decoder *hostproto.Decoder

	openPath    string
	exclusive   bool
	ownLock     bool
	model       *model
	commandsRun int
}

// New creates a simulator reading commands from r and writing replies to w.
func New(r io.Reader, w io.Writer) *Sim {
	return &Sim{
		encoder: hostproto.NewEncoder(w),
		decoder: hostproto.NewDecoder(r),
	}
}

// Run sends READY and serves commands until app.quit or EOF.
func (s *Sim) Run() error {
	ready := &hostproto.ReadyMessage{
		Version:  Version,
		Platform: runtime.GOOS,
		PID:      os.Getpid(),
		Caps: map[string]bool{
			string(hostproto.CommandDBOpen):       true,
			string(hostproto.CommandDBClose):      true,
			string(hostproto.CommandDBCompact):    true,
			string(hostproto.CommandObjectOpen):   true,
			string(hostproto.CommandObjectClose):  true,
			string(hostproto.CommandObjectLoaded): true,
			string(hostproto.CommandObjectList):   true,
			string(hostproto.CommandObjectExport): true,
			string(hostproto.CommandMacroRun):     true,
			string(hostproto.CommandMemberGet):    true,
			string(hostproto.CommandMemberSet):    true,
			string(hostproto.CommandMemberInvoke): true,
		},
	}
	if err := s.encoder.EncodeReady(ready); err != nil {
		return fmt.Errorf("failed to send ready: %w", err)
	}

	for {
		cmd, err := s.decoder.DecodeCommand()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.releaseLock()
				return s.sendExit("stdin_closed", 0)
			}
			return err
		}

		s.commandsRun++

		quit := cmd.Type == hostproto.CommandAppQuit

		start := time.Now()
		result, herr := s.handle(cmd)
		if herr != nil {
			if err := s.encoder.EncodeError(&hostproto.ErrorMessage{
				CommandID: cmd.ID,
				Code:      herr.code,
				Message:   herr.message,
				Retryable: herr.retryable,
			}); err != nil {
				return err
			}
			continue
		}

		if err := s.encoder.EncodeDone(&hostproto.DoneMessage{
			CommandID: cmd.ID,
			Result:    result,
			Duration:  time.Since(start).Seconds(),
		}); err != nil {
			return err
		}

		if quit {
			s.releaseLock()
			return s.sendExit("quit", 0)
		}
	}
}

// hostError is a command failure with a protocol error code.
type hostError struct {
	code      string
	message   string
	retryable bool
}

func errBadParams(err error) *hostError {
	return &hostError{code: hostproto.ErrCodeBadParams, message: err.Error()}
}

func (s *Sim) handle(cmd *hostproto.CommandMessage) (json.RawMessage, *hostError) {
	switch cmd.Type {
	case hostproto.CommandAppQuit:
		return nil, s.handleQuit(cmd.Params)
	case hostproto.CommandDBOpen:
		return s.handleDBOpen(cmd.Params)
	case hostproto.CommandDBClose:
		return nil, s.handleDBClose()
	case hostproto.CommandDBCompact:
		return s.handleDBCompact(cmd.Params)
	case hostproto.CommandObjectOpen:
		return s.handleObjectOpen(cmd.Params)
	case hostproto.CommandObjectClose:
		return nil, s.handleObjectClose(cmd.Params)
	case hostproto.CommandObjectLoaded:
		return s.handleObjectLoaded(cmd.Params)
	case hostproto.CommandObjectList:
		return s.handleObjectList(cmd.Params)
	case hostproto.CommandObjectExport:
		return s.handleObjectExport(cmd.Params)
	case hostproto.CommandMacroRun:
		return nil, s.handleMacroRun(cmd.Params)
	case hostproto.CommandMemberGet:
		return s.handleMemberGet(cmd.Params)
	case hostproto.CommandMemberSet:
		return nil, s.handleMemberSet(cmd.Params)
	case hostproto.CommandMemberInvoke:
		return s.handleMemberInvoke(cmd.Params)
	default:
		return nil, &hostError{
			code:    hostproto.ErrCodeUnsupported,
			message: fmt.Sprintf("unsupported command: %s", cmd.Type),
		}
	}
}

func (s *Sim) sendExit(reason string, code int) error {
	return s.encoder.EncodeExit(&hostproto.ExitMessage{
		Reason:        reason,
		ExitCode:      code,
		CommandsTotal: s.commandsRun,
	})
}

// lockArtifact is the lock file the host leaves next to an open database.
func lockArtifact(path string) string {
	return path + ".ldb"
}

// releaseLock removes the lock artifact if this instance created it.
func (s *Sim) releaseLock() {
	if s.ownLock && s.openPath != "" {
		_ = os.Remove(lockArtifact(s.openPath))
	}
	s.ownLock = false
}
