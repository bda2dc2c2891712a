package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/accessbridge/accessbridge/pkg/bridge"
	"github.com/accessbridge/accessbridge/pkg/hostproto"
)

func (s *Server) registerObjectTools(srv *server.MCPServer) {
	kindDesc := "Object kind: form, report, macro, module, query"

	srv.AddTool(
		mcp.NewTool("list_objects",
			mcp.WithDescription("List design-surface objects of a kind."),
			mcp.WithString("kind", mcp.Required(), mcp.Description(kindDesc)),
		),
		s.handle("list_objects", s.listObjects),
	)

	srv.AddTool(
		mcp.NewTool("object_exists",
			mcp.WithDescription("Report whether an object of a kind exists."),
			mcp.WithString("kind", mcp.Required(), mcp.Description(kindDesc)),
			mcp.WithString("name", mcp.Required(), mcp.Description("Object name")),
		),
		s.handle("object_exists", s.objectExists),
	)

	srv.AddTool(
		mcp.NewTool("get_object_property",
			mcp.WithDescription("Read a property of a form, report, or other object, loading it temporarily if needed."),
			mcp.WithString("kind", mcp.Required(), mcp.Description(kindDesc)),
			mcp.WithString("name", mcp.Required(), mcp.Description("Object name")),
			mcp.WithString("property", mcp.Required(), mcp.Description("Property name")),
			mcp.WithString("control", mcp.Description("Optional control name for form/report controls")),
		),
		s.handle("get_object_property", s.getObjectProperty),
	)

	srv.AddTool(
		mcp.NewTool("set_object_property",
			mcp.WithDescription("Write a property of an object in design view. Requires exclusive access for the duration."),
			mcp.WithString("kind", mcp.Required(), mcp.Description(kindDesc)),
			mcp.WithString("name", mcp.Required(), mcp.Description("Object name")),
			mcp.WithString("property", mcp.Required(), mcp.Description("Property name")),
			mcp.WithString("control", mcp.Description("Optional control name for form/report controls")),
			mcp.WithString("value", mcp.Required(), mcp.Description("New value, as JSON or plain text")),
		),
		s.handle("set_object_property", s.setObjectProperty),
	)

	srv.AddTool(
		mcp.NewTool("invoke_method",
			mcp.WithDescription("Invoke a named method on an automation object by path (empty path is the application object)."),
			mcp.WithString("object", mcp.Description("Object path, e.g. Forms!Orders.Controls!txtID")),
			mcp.WithString("method", mcp.Required(), mcp.Description("Method name")),
			mcp.WithArray("args", mcp.Description("Positional arguments")),
		),
		s.handle("invoke_method", s.invokeMethod),
	)

	srv.AddTool(
		mcp.NewTool("run_macro",
			mcp.WithDescription("Run a named macro."),
			mcp.WithString("name", mcp.Required(), mcp.Description("Macro name")),
		),
		s.handle("run_macro", s.runMacro),
	)

	srv.AddTool(
		mcp.NewTool("export_object",
			mcp.WithDescription("Export an object definition as text."),
			mcp.WithString("kind", mcp.Required(), mcp.Description(kindDesc)),
			mcp.WithString("name", mcp.Required(), mcp.Description("Object name")),
		),
		s.handle("export_object", s.exportObject),
	)
}

// parseKind validates a tool-supplied object kind.
func parseKind(raw string) (hostproto.ObjectKind, error) {
	kind := hostproto.ObjectKind(raw)
	if err := kind.Validate(); err != nil {
		return "", bridge.NewPreconditionError(err.Error())
	}
	return kind, nil
}

// memberPath builds the host member path for an object, optionally one of
// its controls.
func memberPath(kind hostproto.ObjectKind, name, control string) (string, error) {
	collections := map[hostproto.ObjectKind]string{
		hostproto.ObjectKindForm:   "Forms",
		hostproto.ObjectKindReport: "Reports",
		hostproto.ObjectKindMacro:  "Macros",
		hostproto.ObjectKindModule: "Modules",
		hostproto.ObjectKindQuery:  "Queries",
	}
	collection, ok := collections[kind]
	if !ok {
		return "", bridge.NewPreconditionError(fmt.Sprintf("objects of kind %s have no member path", kind))
	}
	path := fmt.Sprintf("%s!%s", collection, name)
	if control != "" {
		path = fmt.Sprintf("%s.Controls!%s", path, control)
	}
	return path, nil
}

func (s *Server) listObjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := parseKind(req.GetString("kind", ""))
	if err != nil {
		return nil, err
	}

	names, err := s.session.ListObjects(ctx, kind)
	if err != nil {
		return nil, err
	}
	return jsonResult(names)
}

func (s *Server) objectExists(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := parseKind(req.GetString("kind", ""))
	if err != nil {
		return nil, err
	}
	name := req.GetString("name", "")
	if name == "" {
		return nil, bridge.NewPreconditionError("object name is required")
	}

	names, err := s.session.ListObjects(ctx, kind)
	if err != nil {
		return nil, err
	}
	for _, n := range names {
		if n == name {
			return mcp.NewToolResultText("true"), nil
		}
	}
	return mcp.NewToolResultText("false"), nil
}

func (s *Server) getObjectProperty(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := parseKind(req.GetString("kind", ""))
	if err != nil {
		return nil, err
	}
	name := req.GetString("name", "")
	property := req.GetString("property", "")
	control := req.GetString("control", "")

	path, err := memberPath(kind, name, control)
	if err != nil {
		return nil, err
	}

	var value json.RawMessage
	err = s.session.WithLoadedObject(ctx, kind, name, false, func(ctx context.Context, eng bridge.Engine) error {
		v, err := bridge.GetMember(ctx, eng, path, property)
		if err != nil {
			return err
		}
		value = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(value)), nil
}

func (s *Server) setObjectProperty(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := parseKind(req.GetString("kind", ""))
	if err != nil {
		return nil, err
	}
	name := req.GetString("name", "")
	property := req.GetString("property", "")
	control := req.GetString("control", "")
	raw := req.GetString("value", "")

	path, err := memberPath(kind, name, control)
	if err != nil {
		return nil, err
	}

	// Accept JSON when it parses, plain text otherwise.
	var value interface{}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		value = raw
	}

	err = s.session.WithLoadedObject(ctx, kind, name, true, func(ctx context.Context, eng bridge.Engine) error {
		return bridge.SetMember(ctx, eng, path, property, value)
	})
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s.%s set", path, property)), nil
}

func (s *Server) invokeMethod(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	object := req.GetString("object", "")
	method, err := req.RequireString("method")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var args []interface{}
	if rawArgs, ok := req.GetArguments()["args"].([]interface{}); ok {
		args = rawArgs
	}

	var value json.RawMessage
	err = s.session.RunAutomation(ctx, bridge.RunOptions{}, func(ctx context.Context, eng bridge.Engine) error {
		v, err := bridge.InvokeMember(ctx, eng, object, method, args...)
		if err != nil {
			return err
		}
		value = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(value) == 0 {
		return mcp.NewToolResultText("ok"), nil
	}
	return mcp.NewToolResultText(string(value)), nil
}

func (s *Server) runMacro(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.session.RunMacro(ctx, name); err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(fmt.Sprintf("macro %s completed", name)), nil
}

func (s *Server) exportObject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := parseKind(req.GetString("kind", ""))
	if err != nil {
		return nil, err
	}
	name := req.GetString("name", "")
	if name == "" {
		return nil, bridge.NewPreconditionError("object name is required")
	}

	var result hostproto.ObjectExportResult
	err = s.session.RunAutomation(ctx, bridge.RunOptions{}, func(ctx context.Context, eng bridge.Engine) error {
		return eng.Call(ctx, hostproto.CommandObjectExport, &hostproto.ObjectExportParams{
			Kind: kind,
			Name: name,
		}, &result)
	})
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(result.Definition), nil
}
