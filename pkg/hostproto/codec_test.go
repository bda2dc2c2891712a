package hostproto

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	dec := NewDecoder(&buf)

	ready := &ReadyMessage{
		Version:  "1.0.0",
		Platform: "linux",
		PID:      123,
		Caps:     map[string]bool{"db.open": true},
	}
	if err := enc.EncodeReady(ready); err != nil {
		t.Fatalf("EncodeReady failed: %v", err)
	}

	msg, err := dec.Decode()
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if msg.Type != MessageTypeReady {
		t.Errorf("expected READY, got %s", msg.Type)
	}

	var decoded ReadyMessage
	if err := ParseParams(msg.Data, &decoded); err != nil {
		t.Fatalf("ParseParams failed: %v", err)
	}
	if decoded.Version != "1.0.0" || decoded.PID != 123 || !decoded.Caps["db.open"] {
		t.Errorf("unexpected decoded message: %+v", decoded)
	}
}

func TestEncodeCommandValidates(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	if err := enc.EncodeCommand(&CommandMessage{Type: CommandDBOpen}); err == nil {
		t.Error("expected error for missing command ID")
	}
	if err := enc.EncodeCommand(&CommandMessage{ID: "c1", Type: CommandType("db.destroy")}); err == nil {
		t.Error("expected error for unknown command type")
	}
	if err := enc.EncodeCommand(&CommandMessage{ID: "c1", Type: CommandDBOpen, Timeout: -1}); err == nil {
		t.Error("expected error for negative timeout")
	}
}

func TestDecodeCommandRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	dec := NewDecoder(&buf)

	params, _ := json.Marshal(&DBOpenParams{Path: "orders.db", Exclusive: true})
	cmd := &CommandMessage{
		ID:      "cmd-1",
		Type:    CommandDBOpen,
		Timeout: 30,
		Params:  params,
	}
	if err := enc.EncodeCommand(cmd); err != nil {
		t.Fatalf("EncodeCommand failed: %v", err)
	}

	decoded, err := dec.DecodeCommand()
	if err != nil {
		t.Fatalf("DecodeCommand failed: %v", err)
	}
	if decoded.ID != "cmd-1" || decoded.Type != CommandDBOpen {
		t.Errorf("unexpected command: %+v", decoded)
	}

	var p DBOpenParams
	if err := ParseParams(decoded.Params, &p); err != nil {
		t.Fatalf("ParseParams failed: %v", err)
	}
	if p.Path != "orders.db" || !p.Exclusive {
		t.Errorf("unexpected params: %+v", p)
	}
}

func TestDecodeCommandRejectsOtherMessages(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	dec := NewDecoder(&buf)

	if err := enc.EncodeDone(&DoneMessage{CommandID: "c1"}); err != nil {
		t.Fatalf("EncodeDone failed: %v", err)
	}
	if _, err := dec.DecodeCommand(); err == nil {
		t.Error("expected error for non-CMD message")
	}
}

func TestDecodeInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "garbage", input: "not json\n"},
		{name: "unknown type", input: `{"type":"NOPE","timestamp":"2026-01-01T00:00:00Z"}` + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := NewDecoder(strings.NewReader(tt.input))
			if _, err := dec.Decode(); err == nil {
				t.Error("expected decode error")
			}
		})
	}
}

func TestDecodeEOF(t *testing.T) {
	dec := NewDecoder(strings.NewReader(""))
	if _, err := dec.Decode(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestErrorMessageRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	dec := NewDecoder(&buf)

	if err := enc.EncodeError(&ErrorMessage{
		CommandID: "c1",
		Code:      ErrCodeDBLocked,
		Message:   "the database has been opened or locked by another user",
		Retryable: true,
	}); err != nil {
		t.Fatalf("EncodeError failed: %v", err)
	}

	msg, err := dec.Decode()
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if msg.Type != MessageTypeError {
		t.Fatalf("expected ERROR, got %s", msg.Type)
	}

	var errMsg ErrorMessage
	if err := ParseParams(msg.Data, &errMsg); err != nil {
		t.Fatalf("ParseParams failed: %v", err)
	}
	if errMsg.Code != ErrCodeDBLocked || !errMsg.Retryable {
		t.Errorf("unexpected error message: %+v", errMsg)
	}
}

func TestObjectKindValidate(t *testing.T) {
	for _, kind := range []ObjectKind{
		ObjectKindForm, ObjectKindReport, ObjectKindMacro,
		ObjectKindModule, ObjectKindQuery, ObjectKindTable,
	} {
		if err := kind.Validate(); err != nil {
			t.Errorf("kind %s should validate: %v", kind, err)
		}
	}
	if err := ObjectKind("window").Validate(); err == nil {
		t.Error("expected error for unknown kind")
	}
}
