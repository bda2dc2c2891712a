package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func (s *Server) registerConnectionTools(srv *server.MCPServer) {
	srv.AddTool(
		mcp.NewTool("connect_database",
			mcp.WithDescription("Connect to a database file. Subsequent tools operate on this file."),
			mcp.WithString("path",
				mcp.Required(),
				mcp.Description("Path to the database file"),
			),
		),
		s.handle("connect_database", s.connectDatabase),
	)

	srv.AddTool(
		mcp.NewTool("disconnect_database",
			mcp.WithDescription("Disconnect from the current database, shutting down the automation engine if one is running."),
		),
		s.handle("disconnect_database", s.disconnectDatabase),
	)

	srv.AddTool(
		mcp.NewTool("session_status",
			mcp.WithDescription("Report the current session state: target file, tabular connection, automation engine, access mode."),
		),
		s.handle("session_status", s.sessionStatus),
	)

	srv.AddTool(
		mcp.NewTool("compact_database",
			mcp.WithDescription("Compact the connected database file. Requires exclusive access for the duration."),
			mcp.WithString("dest_path",
				mcp.Description("Optional destination file; empty compacts in place"),
			),
		),
		s.handle("compact_database", s.compactDatabase),
	)
}

func (s *Server) connectDatabase(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.session.Connect(ctx, path); err != nil {
		return nil, err
	}
	return jsonResult(s.session.Status())
}

func (s *Server) disconnectDatabase(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.session.Disconnect(ctx); err != nil {
		return nil, err
	}
	return mcp.NewToolResultText("disconnected"), nil
}

func (s *Server) sessionStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.session.Status())
}

func (s *Server) compactDatabase(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dest := req.GetString("dest_path", "")

	result, err := s.session.CompactDatabase(ctx, dest)
	if err != nil {
		return nil, err
	}
	return jsonResult(result)
}
