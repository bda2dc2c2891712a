// Package hostproto defines the JSON-over-stdio protocol spoken between
// AccessBridge and the automation host process.
//
// The host owns the full object model of the backing database file (forms,
// reports, macros, modules). AccessBridge drives it with synchronous commands;
// member access is late-bound, so the generic member.* commands carry member
// names and JSON values rather than typed bindings.
package hostproto

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType represents the type of message in the protocol.
type MessageType string

const (
	// MessageTypeReady indicates the host is ready to receive commands
	MessageTypeReady MessageType = "READY"
	// MessageTypeCommand indicates a command from the bridge
	MessageTypeCommand MessageType = "CMD"
	// MessageTypeDone indicates successful completion
	MessageTypeDone MessageType = "DONE"
	// MessageTypeError indicates an error occurred
	MessageTypeError MessageType = "ERROR"
	// MessageTypeExit indicates the host is exiting
	MessageTypeExit MessageType = "EXIT"
)

// CommandType represents the type of command sent to the host.
type CommandType string

const (
	// CommandAppQuit shuts the host application down
	CommandAppQuit CommandType = "app.quit"
	// CommandDBOpen opens the backing database file
	CommandDBOpen CommandType = "db.open"
	// CommandDBClose closes the currently open database file
	CommandDBClose CommandType = "db.close"
	// CommandDBCompact compacts the backing database file
	CommandDBCompact CommandType = "db.compact"
	// CommandObjectOpen opens a design-surface object (form, report)
	CommandObjectOpen CommandType = "object.open"
	// CommandObjectClose closes a design-surface object
	CommandObjectClose CommandType = "object.close"
	// CommandObjectLoaded reports whether an object is currently loaded
	CommandObjectLoaded CommandType = "object.loaded"
	// CommandObjectList lists objects of a given kind
	CommandObjectList CommandType = "object.list"
	// CommandObjectExport exports an object definition as text
	CommandObjectExport CommandType = "object.export"
	// CommandMacroRun runs a named macro
	CommandMacroRun CommandType = "macro.run"
	// CommandMemberGet reads a named member of an automation object
	CommandMemberGet CommandType = "member.get"
	// CommandMemberSet writes a named member of an automation object
	CommandMemberSet CommandType = "member.set"
	// CommandMemberInvoke invokes a named method of an automation object
	CommandMemberInvoke CommandType = "member.invoke"
)

// ObjectKind identifies a design-surface object collection in the host.
type ObjectKind string

const (
	ObjectKindForm   ObjectKind = "form"
	ObjectKindReport ObjectKind = "report"
	ObjectKindMacro  ObjectKind = "macro"
	ObjectKindModule ObjectKind = "module"
	ObjectKindQuery  ObjectKind = "query"
	ObjectKindTable  ObjectKind = "table"
)

// Message is the base message structure for all protocol messages.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// ReadyMessage is sent when the host is ready to receive commands.
type ReadyMessage struct {
	Version  string            `json:"version"`
	Platform string            `json:"platform"`
	PID      int               `json:"pid"`
	Caps     map[string]bool   `json:"capabilities"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// CommandMessage contains a command for the host.
type CommandMessage struct {
	ID      string          `json:"id"`
	Type    CommandType     `json:"type"`
	Timeout int             `json:"timeout"` // seconds
	Params  json.RawMessage `json:"params"`
}

// DoneMessage indicates successful command completion.
type DoneMessage struct {
	CommandID string          `json:"command_id"`
	Result    json.RawMessage `json:"result"`
	Duration  float64         `json:"duration"` // seconds
}

// ErrorMessage indicates a command failed in the host.
//
// Code and Message feed the bridge's transient-error classification, so the
// host must keep them stable across versions: lock contention is reported
// with code DB_LOCKED and the host application's own wording.
type ErrorMessage struct {
	CommandID string `json:"command_id,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// ExitMessage is sent before the host terminates.
type ExitMessage struct {
	Reason        string `json:"reason"`
	ExitCode      int    `json:"exit_code"`
	CommandsTotal int    `json:"commands_total"`
}

// Well-known host error codes.
const (
	ErrCodeDBLocked       = "DB_LOCKED"
	ErrCodeDBBadState     = "DB_BAD_STATE"
	ErrCodeDBNotOpen      = "DB_NOT_OPEN"
	ErrCodeObjectNotFound = "OBJECT_NOT_FOUND"
	ErrCodeMemberNotFound = "MEMBER_NOT_FOUND"
	ErrCodeBadParams      = "BAD_PARAMS"
	ErrCodeUnsupported    = "UNSUPPORTED"
	ErrCodeInternal       = "INTERNAL"
)

// Command parameter and result structures.

// DBOpenParams opens the backing database file.
type DBOpenParams struct {
	Path      string `json:"path"`
	Exclusive bool   `json:"exclusive"`
}

// DBOpenResult reports the open outcome.
type DBOpenResult struct {
	Path      string `json:"path"`
	Exclusive bool   `json:"exclusive"`
}

// DBCompactParams compacts the database into a destination file.
type DBCompactParams struct {
	DestPath string `json:"dest_path,omitempty"` // empty: compact in place
}

// DBCompactResult reports the compact outcome.
type DBCompactResult struct {
	BytesBefore int64 `json:"bytes_before"`
	BytesAfter  int64 `json:"bytes_after"`
}

// AppQuitParams shuts the host down.
type AppQuitParams struct {
	DiscardChanges bool `json:"discard_changes"`
}

// ObjectOpenParams opens a design-surface object.
type ObjectOpenParams struct {
	Kind       ObjectKind `json:"kind"`
	Name       string     `json:"name"`
	DesignView bool       `json:"design_view"`
}

// ObjectOpenResult reports whether the open created a new load.
type ObjectOpenResult struct {
	WasLoaded bool `json:"was_loaded"`
}

// ObjectCloseParams closes a design-surface object.
type ObjectCloseParams struct {
	Kind           ObjectKind `json:"kind"`
	Name           string     `json:"name"`
	DiscardChanges bool       `json:"discard_changes"`
}

// ObjectLoadedParams asks whether an object is loaded.
type ObjectLoadedParams struct {
	Kind ObjectKind `json:"kind"`
	Name string     `json:"name"`
}

// ObjectLoadedResult reports load state.
type ObjectLoadedResult struct {
	Loaded bool `json:"loaded"`
}

// ObjectListParams lists objects of a kind.
type ObjectListParams struct {
	Kind ObjectKind `json:"kind"`
}

// ObjectListResult carries the object names.
type ObjectListResult struct {
	Names []string `json:"names"`
}

// ObjectExportParams exports an object definition as text.
type ObjectExportParams struct {
	Kind ObjectKind `json:"kind"`
	Name string     `json:"name"`
}

// ObjectExportResult carries the exported definition.
type ObjectExportResult struct {
	Definition string `json:"definition"`
}

// MacroRunParams runs a named macro.
type MacroRunParams struct {
	Name string `json:"name"`
}

// MemberGetParams reads a named member. Object is a member path rooted at
// the application object, e.g. "Forms!Orders.Controls!txtID".
type MemberGetParams struct {
	Object string `json:"object"`
	Name   string `json:"name"`
}

// MemberGetResult carries the member value.
type MemberGetResult struct {
	Value json.RawMessage `json:"value"`
}

// MemberSetParams writes a named member.
type MemberSetParams struct {
	Object string          `json:"object"`
	Name   string          `json:"name"`
	Value  json.RawMessage `json:"value"`
}

// MemberInvokeParams invokes a named method with positional arguments.
type MemberInvokeParams struct {
	Object string            `json:"object"`
	Name   string            `json:"name"`
	Args   []json.RawMessage `json:"args,omitempty"`
}

// MemberInvokeResult carries the method return value, if any.
type MemberInvokeResult struct {
	Value json.RawMessage `json:"value,omitempty"`
}

// Validate checks if the message type is valid.
func (mt MessageType) Validate() error {
	switch mt {
	case MessageTypeReady, MessageTypeCommand,
		MessageTypeDone, MessageTypeError, MessageTypeExit:
		return nil
	default:
		return fmt.Errorf("invalid message type: %s", mt)
	}
}

// Validate checks if the command type is valid.
func (ct CommandType) Validate() error {
	switch ct {
	case CommandAppQuit, CommandDBOpen, CommandDBClose, CommandDBCompact,
		CommandObjectOpen, CommandObjectClose, CommandObjectLoaded,
		CommandObjectList, CommandObjectExport, CommandMacroRun,
		CommandMemberGet, CommandMemberSet, CommandMemberInvoke:
		return nil
	default:
		return fmt.Errorf("invalid command type: %s", ct)
	}
}

// Validate checks if the object kind is valid.
func (k ObjectKind) Validate() error {
	switch k {
	case ObjectKindForm, ObjectKindReport, ObjectKindMacro,
		ObjectKindModule, ObjectKindQuery, ObjectKindTable:
		return nil
	default:
		return fmt.Errorf("invalid object kind: %s", k)
	}
}

// Validate checks if the command message is valid.
func (cmd *CommandMessage) Validate() error {
	if cmd.ID == "" {
		return fmt.Errorf("command ID is required")
	}
	if err := cmd.Type.Validate(); err != nil {
		return err
	}
	if cmd.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}
