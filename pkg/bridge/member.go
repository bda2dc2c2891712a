package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/accessbridge/accessbridge/pkg/hostproc"
	"github.com/accessbridge/accessbridge/pkg/hostproto"
)

// Dynamic member access. The host's object model is only known at runtime,
// so members are addressed by path and name rather than typed bindings.
// Object paths are rooted at the application object, using the host's own
// collection syntax, e.g. "Forms!Orders.Controls!txtID".

// GetMember reads a named property of an automation object.
func GetMember(ctx context.Context, eng Engine, object, name string) (json.RawMessage, error) {
	if name == "" {
		return nil, NewPreconditionError("member name is required")
	}

	var result hostproto.MemberGetResult
	if err := eng.Call(ctx, hostproto.CommandMemberGet, &hostproto.MemberGetParams{
		Object: object,
		Name:   name,
	}, &result); err != nil {
		return nil, wrapMemberError(err, object, name)
	}
	return result.Value, nil
}

// SetMember writes a named property of an automation object. value is
// marshalled to JSON for the wire.
func SetMember(ctx context.Context, eng Engine, object, name string, value interface{}) error {
	if name == "" {
		return NewPreconditionError("member name is required")
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return NewPreconditionError(fmt.Sprintf("value is not representable: %v", err))
	}

	if err := eng.Call(ctx, hostproto.CommandMemberSet, &hostproto.MemberSetParams{
		Object: object,
		Name:   name,
		Value:  raw,
	}, nil); err != nil {
		return wrapMemberError(err, object, name)
	}
	return nil
}

// InvokeMember invokes a named method of an automation object with
// positional arguments and returns its result, if any.
func InvokeMember(ctx context.Context, eng Engine, object, name string, args ...interface{}) (json.RawMessage, error) {
	if name == "" {
		return nil, NewPreconditionError("member name is required")
	}

	rawArgs := make([]json.RawMessage, 0, len(args))
	for i, arg := range args {
		raw, err := json.Marshal(arg)
		if err != nil {
			return nil, NewPreconditionError(fmt.Sprintf("argument %d is not representable: %v", i, err))
		}
		rawArgs = append(rawArgs, raw)
	}

	var result hostproto.MemberInvokeResult
	if err := eng.Call(ctx, hostproto.CommandMemberInvoke, &hostproto.MemberInvokeParams{
		Object: object,
		Name:   name,
		Args:   rawArgs,
	}, &result); err != nil {
		return nil, wrapMemberError(err, object, name)
	}
	return result.Value, nil
}

// wrapMemberError maps an unknown-member reply to an ordinary failure: an
// absent or inapplicable member is a property of the target object, not a
// host malfunction, and must never feed the recovery machinery.
func wrapMemberError(err error, object, name string) error {
	var callErr *hostproc.CallError
	if errors.As(err, &callErr) {
		switch callErr.Code {
		case hostproto.ErrCodeMemberNotFound, hostproto.ErrCodeObjectNotFound:
			return NewFailureError(fmt.Sprintf("member %s.%s is absent or inapplicable", object, name), err)
		}
	}
	return err
}
