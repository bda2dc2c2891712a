// Package mcp wires the AccessBridge tool surface: it creates the MCP server
// instance and registers the tool handlers over one shared bridge Session.
//
// The bridge core is single-threaded by contract, so every handler runs
// under the server's call mutex; the transport layer, not the core, does the
// serializing.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/accessbridge/accessbridge/pkg/bridge"
	"github.com/accessbridge/accessbridge/pkg/telemetry"
)

// Server holds the tool handlers' shared dependencies.
type Server struct {
	session *bridge.Session
	log     *telemetry.Logger
	metrics *telemetry.Metrics
	tracer  *telemetry.Tracer

	// mu serializes tool calls against the single-threaded Session.
	mu sync.Mutex
}

// Options configures the tool server.
type Options struct {
	Session *bridge.Session
	Logger  *telemetry.Logger
	Metrics *telemetry.Metrics
	Tracer  *telemetry.Tracer
	Version string
}

// New creates the MCP server with all tools registered.
func New(opts Options) (*server.MCPServer, error) {
	if opts.Session == nil {
		return nil, fmt.Errorf("session is required")
	}

	log := opts.Logger
	if log == nil {
		log = telemetry.FromContext(context.Background())
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics, _ = telemetry.NewMetrics(telemetry.MetricsConfig{})
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer, _ = telemetry.NewTracer(telemetry.TracingConfig{}, "accessbridge", opts.Version)
	}

	s := &Server{
		session: opts.Session,
		log:     log.NewComponentLogger("mcp"),
		metrics: metrics,
		tracer:  tracer,
	}

	srv := server.NewMCPServer(
		"accessbridge",
		opts.Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(
			"AccessBridge exposes a desktop database file for querying and "+
				"design-time automation. Call connect_database before any "+
				"other tool."),
	)

	s.registerConnectionTools(srv)
	s.registerDataTools(srv)
	s.registerObjectTools(srv)

	return srv, nil
}

// handle wraps a tool handler with call serialization, tracing, and metrics.
func (s *Server) handle(name string, fn func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		ctx, span := s.tracer.StartToolSpan(ctx, name)
		defer span.End()

		start := time.Now()
		result, err := fn(ctx, req)

		status := "ok"
		if err != nil || (result != nil && result.IsError) {
			status = "error"
		}
		s.metrics.RecordToolCall(name, status, time.Since(start))

		if err != nil {
			telemetry.RecordError(span, err)
			// Tool failures are structured results, never transport errors.
			return s.failure(name, err), nil
		}
		telemetry.RecordSuccess(span)
		return result, nil
	}
}

// failure converts a bridge error into a structured tool failure.
func (s *Server) failure(tool string, err error) *mcp.CallToolResult {
	class := bridge.ClassOf(err)
	s.log.WithTool(tool).WithError(err).WithField("class", class).Warn("tool call failed")
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", class, err))
}

// jsonResult renders a payload as a JSON text result.
func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
