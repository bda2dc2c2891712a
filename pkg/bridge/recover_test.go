package bridge

import (
	"fmt"
	"testing"

	"github.com/accessbridge/accessbridge/pkg/hostproc"
	"github.com/accessbridge/accessbridge/pkg/hostproto"
)

func TestRecoverable(t *testing.T) {
	c := NewClassifier(testSignatures())

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "precondition never matches",
			err:  NewPreconditionError("no database connected"),
			want: false,
		},
		{
			name: "fatal never matches",
			err:  NewFatalError("host not installed", nil),
			want: false,
		},
		{
			name: "explicit transient always matches",
			err:  NewTransientError("engine in bad state", nil),
			want: true,
		},
		{
			name: "host error with retryable flag",
			err:  &hostproc.CallError{Code: "SOMETHING_ELSE", Retryable: true},
			want: true,
		},
		{
			name: "host error with listed code",
			err:  &hostproc.CallError{Code: hostproto.ErrCodeDBLocked, Message: "locked"},
			want: true,
		},
		{
			name: "host error with unlisted code",
			err:  &hostproc.CallError{Code: hostproto.ErrCodeObjectNotFound, Message: "no such form"},
			want: false,
		},
		{
			name: "listed code through a wrapped chain",
			err:  NewFailureError("open failed", &hostproc.CallError{Code: hostproto.ErrCodeDBBadState}),
			want: true,
		},
		{
			name: "message fragment match is case-insensitive",
			err:  fmt.Errorf("automation failed: The database has been Opened or Locked by another user"),
			want: true,
		},
		{
			name: "plain failure with no signature",
			err:  fmt.Errorf("macro raised a runtime error"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Recoverable(tt.err); got != tt.want {
				t.Errorf("Recoverable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassifierReplace(t *testing.T) {
	c := NewClassifier(testSignatures())
	if c.Version() != 1 {
		t.Fatalf("expected version 1, got %d", c.Version())
	}

	lockErr := &hostproc.CallError{Code: hostproto.ErrCodeDBLocked}
	if !c.Recoverable(lockErr) {
		t.Fatal("expected lock code to match before replace")
	}

	c.Replace(Signatures{
		Version:    2,
		Substrings: []string{"file already in use"},
	})

	if c.Version() != 2 {
		t.Errorf("expected version 2 after replace, got %d", c.Version())
	}
	if c.Recoverable(lockErr) {
		t.Error("old code list must not survive a replace")
	}
	if !c.Recoverable(fmt.Errorf("open failed: file already in use")) {
		t.Error("new substring list must be active after replace")
	}
}
