// Package hostproc manages the automation host subprocess and provides a
// synchronous command client over its stdio protocol.
package hostproc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/accessbridge/accessbridge/pkg/hostproto"
)

// Launcher starts the automation host process and returns its stdio pipes.
type Launcher interface {
	// Launch starts the host and returns stdin/stdout. The returned stop
	// function terminates the process if it is still running.
	Launch(ctx context.Context) (stdin io.WriteCloser, stdout io.ReadCloser, stop func(), err error)
}

// ExecLauncher launches the host as a local subprocess.
type ExecLauncher struct {
	// Command is the host executable and its arguments.
	Command []string
}

// Launch starts the host subprocess.
func (l *ExecLauncher) Launch(ctx context.Context) (io.WriteCloser, io.ReadCloser, func(), error) {
	if len(l.Command) == 0 {
		return nil, nil, nil, fmt.Errorf("host command is empty")
	}

	cmd := exec.Command(l.Command[0], l.Command[1:]...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open host stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open host stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to start host process: %w", err)
	}

	stop := func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}

	return stdin, stdout, stop, nil
}

// CallError is a command failure reported by the host. It carries the host's
// error code so the bridge can classify lock/state errors for recovery.
type CallError struct {
	Code      string
	Message   string
	Retryable bool
}

// Error implements the error interface.
func (e *CallError) Error() string {
	return fmt.Sprintf("host error %s: %s", e.Code, e.Message)
}

// Config contains client configuration options.
type Config struct {
	Launcher       Launcher
	StartupTimeout time.Duration
	CommandTimeout time.Duration
}

// Client drives one automation host instance. Commands are synchronous: a
// command is sent and the client blocks until the matching DONE or ERROR
// reply arrives.
type Client struct {
	launcher Launcher
	cfg      Config

	mu      sync.Mutex
	encoder *hostproto.Encoder
	decoder *hostproto.Decoder
	stdin   io.WriteCloser
	stdout  io.ReadCloser
	stop    func()
	ready   *hostproto.ReadyMessage
	closed  bool
}

// NewClient creates a new host client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Launcher == nil {
		return nil, fmt.Errorf("launcher is required")
	}
	if cfg.StartupTimeout == 0 {
		cfg.StartupTimeout = 15 * time.Second
	}
	if cfg.CommandTimeout == 0 {
		cfg.CommandTimeout = 120 * time.Second
	}

	return &Client{
		launcher: cfg.Launcher,
		cfg:      cfg,
	}, nil
}

// Start launches the host process and waits for its READY message.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("client is closed")
	}

	stdin, stdout, stop, err := c.launcher.Launch(ctx)
	if err != nil {
		return fmt.Errorf("failed to launch host: %w", err)
	}

	c.stdin = stdin
	c.stdout = stdout
	c.stop = stop
	c.encoder = hostproto.NewEncoder(stdin)
	c.decoder = hostproto.NewDecoder(stdout)

	readyCtx, cancel := context.WithTimeout(ctx, c.cfg.StartupTimeout)
	defer cancel()

	readyCh := make(chan *hostproto.ReadyMessage, 1)
	errCh := make(chan error, 1)

	go func() {
		msg, err := c.decoder.Decode()
		if err != nil {
			errCh <- err
			return
		}
		if msg.Type != hostproto.MessageTypeReady {
			errCh <- fmt.Errorf("expected READY, got %s", msg.Type)
			return
		}
		var ready hostproto.ReadyMessage
		if err := hostproto.ParseParams(msg.Data, &ready); err != nil {
			errCh <- err
			return
		}
		readyCh <- &ready
	}()

	select {
	case <-readyCtx.Done():
		stop()
		return fmt.Errorf("timeout waiting for READY message")
	case err := <-errCh:
		stop()
		return fmt.Errorf("failed to receive READY: %w", err)
	case ready := <-readyCh:
		c.ready = ready
		return nil
	}
}

// Call sends a command and waits for its completion. On a DONE reply the
// result payload is unmarshalled into result when result is non-nil. On an
// ERROR reply a *CallError is returned.
func (c *Client) Call(ctx context.Context, op hostproto.CommandType, params, result interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("client is closed")
	}
	if c.encoder == nil {
		return fmt.Errorf("client is not started")
	}

	var paramBytes json.RawMessage
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("failed to marshal params: %w", err)
		}
		paramBytes = b
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	timeout := c.cfg.CommandTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout < 0 {
		timeout = 0
	}

	cmd := &hostproto.CommandMessage{
		ID:      uuid.New().String(),
		Type:    op,
		Timeout: int(timeout.Seconds()),
		Params:  paramBytes,
	}

	if err := c.encoder.EncodeCommand(cmd); err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}

	for {
		msg, err := c.decoder.Decode()
		if err != nil {
			return fmt.Errorf("failed to read host reply: %w", err)
		}

		switch msg.Type {
		case hostproto.MessageTypeDone:
			var done hostproto.DoneMessage
			if err := hostproto.ParseParams(msg.Data, &done); err != nil {
				return fmt.Errorf("failed to parse done: %w", err)
			}
			if done.CommandID != cmd.ID {
				return fmt.Errorf("command ID mismatch: expected %s, got %s", cmd.ID, done.CommandID)
			}
			if result != nil && len(done.Result) > 0 {
				if err := json.Unmarshal(done.Result, result); err != nil {
					return fmt.Errorf("failed to parse result: %w", err)
				}
			}
			return nil

		case hostproto.MessageTypeError:
			var errMsg hostproto.ErrorMessage
			if err := hostproto.ParseParams(msg.Data, &errMsg); err != nil {
				return fmt.Errorf("failed to parse error: %w", err)
			}
			if errMsg.CommandID != "" && errMsg.CommandID != cmd.ID {
				return fmt.Errorf("command ID mismatch: expected %s, got %s", cmd.ID, errMsg.CommandID)
			}
			return &CallError{
				Code:      errMsg.Code,
				Message:   errMsg.Message,
				Retryable: errMsg.Retryable,
			}

		case hostproto.MessageTypeExit:
			return fmt.Errorf("host exited unexpectedly")

		default:
			return fmt.Errorf("unexpected message type: %s", msg.Type)
		}
	}
}

// OpenDatabase opens the backing file in the requested mode.
func (c *Client) OpenDatabase(ctx context.Context, path string, exclusive bool) error {
	return c.Call(ctx, hostproto.CommandDBOpen, &hostproto.DBOpenParams{
		Path:      path,
		Exclusive: exclusive,
	}, nil)
}

// CloseDatabase closes the currently open backing file.
func (c *Client) CloseDatabase(ctx context.Context) error {
	return c.Call(ctx, hostproto.CommandDBClose, nil, nil)
}

// Quit asks the host to shut down, optionally discarding unsaved changes,
// then tears the process down regardless of the reply.
func (c *Client) Quit(ctx context.Context, discardChanges bool) error {
	callErr := c.Call(ctx, hostproto.CommandAppQuit, &hostproto.AppQuitParams{
		DiscardChanges: discardChanges,
	}, nil)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return callErr
	}
	c.closed = true

	if c.stdin != nil {
		_ = c.stdin.Close()
	}
	if c.stdout != nil {
		_ = c.stdout.Close()
	}
	if c.stop != nil {
		c.stop()
	}

	return callErr
}

// Ready returns the READY message received during startup.
func (c *Client) Ready() *hostproto.ReadyMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}
