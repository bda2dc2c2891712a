package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// defaultMaxRows caps execute_query results unless the caller asks otherwise.
const defaultMaxRows = 200

func (s *Server) registerDataTools(srv *server.MCPServer) {
	srv.AddTool(
		mcp.NewTool("execute_query",
			mcp.WithDescription("Execute a SQL statement over the tabular connection. Row-returning statements render as a markdown table; others report affected rows."),
			mcp.WithString("sql",
				mcp.Required(),
				mcp.Description("The SQL statement to execute"),
			),
			mcp.WithNumber("max_rows",
				mcp.Description(fmt.Sprintf("Row cap for results (default %d, 0 for no cap)", defaultMaxRows)),
			),
			mcp.WithBoolean("returns_rows",
				mcp.Description("Set false for INSERT/UPDATE/DELETE/DDL statements (default true)"),
			),
		),
		s.handle("execute_query", s.executeQuery),
	)

	srv.AddTool(
		mcp.NewTool("list_tables",
			mcp.WithDescription("List the user tables of the connected database."),
		),
		s.handle("list_tables", s.listTables),
	)

	srv.AddTool(
		mcp.NewTool("describe_table",
			mcp.WithDescription("Describe the columns of a table."),
			mcp.WithString("table",
				mcp.Required(),
				mcp.Description("The table name"),
			),
		),
		s.handle("describe_table", s.describeTable),
	)
}

func (s *Server) executeQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sqlText, err := req.RequireString("sql")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	maxRows := req.GetInt("max_rows", defaultMaxRows)

	if !req.GetBool("returns_rows", true) {
		affected, err := s.session.Exec(ctx, sqlText)
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(fmt.Sprintf("%d row(s) affected", affected)), nil
	}

	rs, err := s.session.Query(ctx, sqlText, maxRows)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(rs.Markdown()), nil
}

func (s *Server) listTables(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, err := s.session.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResult(names)
}

func (s *Server) describeTable(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	table, err := req.RequireString("table")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rs, err := s.session.DescribeTable(ctx, table)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(rs.Markdown()), nil
}
