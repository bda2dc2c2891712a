package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/accessbridge/accessbridge/pkg/bridge"
	"github.com/accessbridge/accessbridge/pkg/telemetry"
)

func TestDefaultSignatures(t *testing.T) {
	sig, err := DefaultSignatures()
	if err != nil {
		t.Fatalf("DefaultSignatures failed: %v", err)
	}
	if sig.Version == 0 {
		t.Error("embedded signatures must carry a version")
	}
	if len(sig.Codes) == 0 || len(sig.Substrings) == 0 {
		t.Errorf("embedded signatures look empty: %+v", sig)
	}
}

func TestLoadSignaturesOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signatures.yaml")
	content := `
version: 7
codes:
  - DB_LOCKED
substrings:
  - "custom lock wording"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write signatures: %v", err)
	}

	sig, err := LoadSignatures(path)
	if err != nil {
		t.Fatalf("LoadSignatures failed: %v", err)
	}
	if sig.Version != 7 || len(sig.Codes) != 1 || len(sig.Substrings) != 1 {
		t.Errorf("unexpected signatures: %+v", sig)
	}
}

func TestLoadSignaturesRejectsUnversioned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signatures.yaml")
	if err := os.WriteFile(path, []byte("codes: [DB_LOCKED]\n"), 0644); err != nil {
		t.Fatalf("failed to write signatures: %v", err)
	}

	if _, err := LoadSignatures(path); err == nil {
		t.Error("expected error for a signature list without a version")
	}
}

func TestWatchSignaturesReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signatures.yaml")
	if err := os.WriteFile(path, []byte("version: 1\ncodes: [DB_LOCKED]\n"), 0644); err != nil {
		t.Fatalf("failed to write signatures: %v", err)
	}

	sig, err := LoadSignatures(path)
	if err != nil {
		t.Fatalf("LoadSignatures failed: %v", err)
	}
	classifier := bridge.NewClassifier(sig)

	log, err := telemetry.NewLogger(telemetry.DefaultLoggingConfig())
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := WatchSignatures(ctx, log, path, classifier); err != nil {
		t.Fatalf("WatchSignatures failed: %v", err)
	}

	if err := os.WriteFile(path, []byte("version: 2\ncodes: [DB_BAD_STATE]\n"), 0644); err != nil {
		t.Fatalf("failed to update signatures: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for classifier.Version() != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("classifier was not updated, version is %d", classifier.Version())
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestWatchSignaturesKeepsPreviousOnBadUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signatures.yaml")
	if err := os.WriteFile(path, []byte("version: 1\ncodes: [DB_LOCKED]\n"), 0644); err != nil {
		t.Fatalf("failed to write signatures: %v", err)
	}

	sig, err := LoadSignatures(path)
	if err != nil {
		t.Fatalf("LoadSignatures failed: %v", err)
	}
	classifier := bridge.NewClassifier(sig)

	log, err := telemetry.NewLogger(telemetry.DefaultLoggingConfig())
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := WatchSignatures(ctx, log, path, classifier); err != nil {
		t.Fatalf("WatchSignatures failed: %v", err)
	}

	if err := os.WriteFile(path, []byte("{{not yaml"), 0644); err != nil {
		t.Fatalf("failed to update signatures: %v", err)
	}

	// Give the debounce and reload time to run, then confirm nothing changed.
	time.Sleep(time.Second)
	if classifier.Version() != 1 {
		t.Errorf("a malformed update must keep the previous list, version is %d", classifier.Version())
	}
}

func TestWatchSignaturesRequiresPath(t *testing.T) {
	log, err := telemetry.NewLogger(telemetry.DefaultLoggingConfig())
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	if err := WatchSignatures(context.Background(), log, "", bridge.NewClassifier(bridge.Signatures{Version: 1})); err == nil {
		t.Error("expected error for empty override path")
	}
}
