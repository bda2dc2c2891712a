package bridge

import (
	"errors"
	"strings"
	"sync"

	"github.com/accessbridge/accessbridge/pkg/hostproc"
)

// Signatures is the versioned list of transient-error signatures. The exact
// codes and message fragments are host-version-dependent, so the list ships
// as configuration (see pkg/config) rather than hard-coded literals.
type Signatures struct {
	Version    int      `yaml:"version"`
	Codes      []string `yaml:"codes"`
	Substrings []string `yaml:"substrings"`
}

// Classifier decides whether an error matches a known transient lock/state
// signature. The predicate is pure; the signature list is hot-swappable
// (config reload runs on a watcher goroutine, hence the lock here even
// though the Session itself is single-threaded).
type Classifier struct {
	mu         sync.RWMutex
	codes      map[string]struct{}
	substrings []string
	version    int
}

// NewClassifier creates a classifier from a signature list.
func NewClassifier(sig Signatures) *Classifier {
	c := &Classifier{}
	c.Replace(sig)
	return c
}

// Replace swaps the signature list.
func (c *Classifier) Replace(sig Signatures) {
	codes := make(map[string]struct{}, len(sig.Codes))
	for _, code := range sig.Codes {
		codes[code] = struct{}{}
	}
	substrings := make([]string, 0, len(sig.Substrings))
	for _, s := range sig.Substrings {
		substrings = append(substrings, strings.ToLower(s))
	}

	c.mu.Lock()
	c.codes = codes
	c.substrings = substrings
	c.version = sig.Version
	c.mu.Unlock()
}

// Version returns the version of the active signature list.
func (c *Classifier) Version() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Recoverable reports whether err matches a known transient signature,
// checking recursively through wrapped errors. Errors already classified as
// transient, host errors whose code is listed (or self-reported retryable),
// and errors whose message contains a listed fragment all match.
// Precondition and fatal classifications never match.
func (c *Classifier) Recoverable(err error) bool {
	if err == nil {
		return false
	}

	switch ClassOf(err) {
	case ClassPrecondition, ClassFatal:
		return false
	case ClassTransient:
		return true
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var callErr *hostproc.CallError
	if errors.As(err, &callErr) {
		if callErr.Retryable {
			return true
		}
		if _, ok := c.codes[callErr.Code]; ok {
			return true
		}
	}

	// err.Error() includes the messages of the wrapped chain.
	msg := strings.ToLower(err.Error())
	for _, fragment := range c.substrings {
		if strings.Contains(msg, fragment) {
			return true
		}
	}

	return false
}
