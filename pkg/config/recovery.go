package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/accessbridge/accessbridge/pkg/bridge"
	"github.com/accessbridge/accessbridge/pkg/telemetry"
)

//go:embed signatures.yaml
var defaultSignatures []byte

// DefaultSignatures returns the embedded transient-error signature list.
func DefaultSignatures() (bridge.Signatures, error) {
	return parseSignatures(defaultSignatures)
}

// LoadSignatures loads the signature list from path, or the embedded
// defaults when path is empty.
func LoadSignatures(path string) (bridge.Signatures, error) {
	if path == "" {
		return DefaultSignatures()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return bridge.Signatures{}, fmt.Errorf("failed to read signatures: %w", err)
	}
	return parseSignatures(data)
}

func parseSignatures(data []byte) (bridge.Signatures, error) {
	var sig bridge.Signatures
	if err := yaml.Unmarshal(data, &sig); err != nil {
		return bridge.Signatures{}, fmt.Errorf("failed to parse signatures: %w", err)
	}
	if sig.Version == 0 {
		return bridge.Signatures{}, fmt.Errorf("signature list has no version")
	}
	return sig, nil
}

// WatchSignatures watches the override signature file and swaps the
// classifier's list on change, debounced. A malformed update is logged and
// skipped; the previous list stays active. Returns after the watcher is
// installed; watching stops when ctx is cancelled.
func WatchSignatures(ctx context.Context, log *telemetry.Logger, path string, classifier *bridge.Classifier) error {
	if path == "" {
		return fmt.Errorf("no signature override file to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	go func() {
		defer watcher.Close()

		var reloadTimer *time.Timer
		const reloadDelay = 500 * time.Millisecond

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if reloadTimer != nil {
					reloadTimer.Stop()
				}
				reloadTimer = time.AfterFunc(reloadDelay, func() {
					sig, err := LoadSignatures(path)
					if err != nil {
						log.WithError(err).Error("failed to reload signatures, keeping previous list")
						return
					}
					classifier.Replace(sig)
					log.WithField("version", sig.Version).Info("signature list reloaded")
				})

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.WithError(err).Error("signature watcher error")
			}
		}
	}()

	log.WithField("path", path).Info("watching signature overrides")
	return nil
}
