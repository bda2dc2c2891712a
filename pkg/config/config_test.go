package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if len(cfg.Host.Command) == 0 {
		t.Error("default config must carry a host command")
	}
	if cfg.Host.StartupTimeout.Std() != 15*time.Second {
		t.Errorf("unexpected startup timeout: %v", cfg.Host.StartupTimeout)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Host.Command[0] != "hostsim" {
		t.Errorf("unexpected default host command: %v", cfg.Host.Command)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
logging:
  level: debug
host:
  command: ["accesshost", "--stdio"]
  command_timeout: 60s
recovery:
  signatures_path: /etc/accessbridge/signatures.yaml
  watch_signatures: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("unexpected log level: %s", cfg.Logging.Level)
	}
	if len(cfg.Host.Command) != 2 || cfg.Host.Command[0] != "accesshost" {
		t.Errorf("unexpected host command: %v", cfg.Host.Command)
	}
	if cfg.Host.CommandTimeout.Std() != 60*time.Second {
		t.Errorf("unexpected command timeout: %v", cfg.Host.CommandTimeout)
	}
	// Omitted fields keep their defaults.
	if cfg.Host.StartupTimeout.Std() != 15*time.Second {
		t.Errorf("omitted startup timeout must keep its default, got %v", cfg.Host.StartupTimeout)
	}
	if !cfg.Recovery.WatchSignatures {
		t.Error("expected signature watching enabled")
	}
}

func TestLoadRejectsEmptyHostCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("host:\n  command: []\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected validation error for empty host command")
	}
}

func TestLoadRejectsNegativeTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "host:\n  command: [\"hostsim\"]\n  startup_timeout: -1s\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected validation error for negative timeout")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
