package bridge

import (
	"context"
	"fmt"
	"testing"

	"github.com/accessbridge/accessbridge/pkg/hostproc"
	"github.com/accessbridge/accessbridge/pkg/hostproto"
)

func lockedError() error {
	return &hostproc.CallError{
		Code:      hostproto.ErrCodeDBLocked,
		Message:   "the database has been opened or locked by another user",
		Retryable: true,
	}
}

func TestRunAutomationRequiresTarget(t *testing.T) {
	s := newTestSession(&fakeFactory{})

	err := s.RunAutomation(context.Background(), RunOptions{}, noopBody)
	if !IsPrecondition(err) {
		t.Fatalf("expected precondition error, got %v", err)
	}
}

func TestTransientOpenErrorRetriesWithFreshEngine(t *testing.T) {
	factory := &fakeFactory{}
	s := newTestSession(factory)
	s.path = "orders.db"

	// Create the engine, then script the next open to fail with a lock.
	if err := s.RunAutomation(context.Background(), RunOptions{}, noopBody); err != nil {
		t.Fatalf("setup run failed: %v", err)
	}
	s.enginePath = ""
	factory.engines[0].failNextOpen(lockedError())

	bodyRuns := 0
	err := s.RunAutomation(context.Background(), RunOptions{}, func(ctx context.Context, eng Engine) error {
		bodyRuns++
		return nil
	})
	if err != nil {
		t.Fatalf("expected recovery to succeed, got %v", err)
	}
	if bodyRuns != 1 {
		t.Errorf("expected body to run once, ran %d times", bodyRuns)
	}
	if len(factory.engines) != 2 {
		t.Fatalf("expected a fresh engine for the retry, got %d instances", len(factory.engines))
	}
	if factory.engines[0].quitCalls != 1 {
		t.Errorf("expected the failed engine to be shut down")
	}
}

func TestTransientBodyErrorRetriesOnce(t *testing.T) {
	factory := &fakeFactory{}
	s := newTestSession(factory)
	s.path = "orders.db"

	bodyRuns := 0
	err := s.RunAutomation(context.Background(), RunOptions{}, func(ctx context.Context, eng Engine) error {
		bodyRuns++
		if bodyRuns == 1 {
			return lockedError()
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if bodyRuns != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", bodyRuns)
	}
}

func TestSecondFailurePropagates(t *testing.T) {
	factory := &fakeFactory{}
	s := newTestSession(factory)
	s.path = "orders.db"

	bodyRuns := 0
	err := s.RunAutomation(context.Background(), RunOptions{}, func(ctx context.Context, eng Engine) error {
		bodyRuns++
		return lockedError()
	})
	if err == nil {
		t.Fatal("expected the second failure to propagate")
	}
	if bodyRuns != 2 {
		t.Errorf("expected exactly 2 attempts, never more, got %d", bodyRuns)
	}
}

func TestPreconditionErrorIsNeverRetried(t *testing.T) {
	factory := &fakeFactory{}
	s := newTestSession(factory)
	s.path = "orders.db"

	bodyRuns := 0
	err := s.RunAutomation(context.Background(), RunOptions{}, func(ctx context.Context, eng Engine) error {
		bodyRuns++
		return NewPreconditionError("object name is required")
	})
	if !IsPrecondition(err) {
		t.Fatalf("expected precondition error, got %v", err)
	}
	if bodyRuns != 1 {
		t.Errorf("expected a single attempt, got %d", bodyRuns)
	}
	if factory.last(t).quitCalls != 0 {
		t.Error("a precondition error must not reset the engine")
	}
}

func TestUnrecognizedFailureIsNeverRetried(t *testing.T) {
	factory := &fakeFactory{}
	s := newTestSession(factory)
	s.path = "orders.db"

	bodyRuns := 0
	err := s.RunAutomation(context.Background(), RunOptions{}, func(ctx context.Context, eng Engine) error {
		bodyRuns++
		return fmt.Errorf("macro raised a runtime error")
	})
	if err == nil {
		t.Fatal("expected the failure to propagate")
	}
	if bodyRuns != 1 {
		t.Errorf("expected a single attempt, got %d", bodyRuns)
	}
}

func TestRetryWithoutClassifierPropagatesImmediately(t *testing.T) {
	factory := &fakeFactory{}
	s := New(Options{Factory: factory.create})
	s.path = "orders.db"

	bodyRuns := 0
	err := s.RunAutomation(context.Background(), RunOptions{}, func(ctx context.Context, eng Engine) error {
		bodyRuns++
		return lockedError()
	})
	if err == nil {
		t.Fatal("expected error to propagate without a classifier")
	}
	if bodyRuns != 1 {
		t.Errorf("expected a single attempt, got %d", bodyRuns)
	}
}
