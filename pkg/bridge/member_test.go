package bridge

import (
	"context"
	"testing"

	"github.com/accessbridge/accessbridge/pkg/hostproc"
	"github.com/accessbridge/accessbridge/pkg/hostproto"
)

func TestGetMember(t *testing.T) {
	eng := newFakeEngine()
	eng.memberValue = []byte(`"Order Entry"`)

	value, err := GetMember(context.Background(), eng, "Forms!Orders", "Caption")
	if err != nil {
		t.Fatalf("GetMember failed: %v", err)
	}
	if string(value) != `"Order Entry"` {
		t.Errorf("unexpected value: %s", value)
	}

	params := eng.lastParams[hostproto.CommandMemberGet].(*hostproto.MemberGetParams)
	if params.Object != "Forms!Orders" || params.Name != "Caption" {
		t.Errorf("unexpected params: %+v", params)
	}
}

func TestGetMemberRequiresName(t *testing.T) {
	if _, err := GetMember(context.Background(), newFakeEngine(), "Forms!Orders", ""); !IsPrecondition(err) {
		t.Errorf("expected precondition error, got %v", err)
	}
}

func TestSetMemberMarshalsValue(t *testing.T) {
	eng := newFakeEngine()

	if err := SetMember(context.Background(), eng, "Forms!Orders.Controls!txtID", "Visible", true); err != nil {
		t.Fatalf("SetMember failed: %v", err)
	}

	params := eng.lastParams[hostproto.CommandMemberSet].(*hostproto.MemberSetParams)
	if string(params.Value) != "true" {
		t.Errorf("expected JSON true, got %s", params.Value)
	}
}

func TestInvokeMemberPassesArgs(t *testing.T) {
	eng := newFakeEngine()
	eng.memberValue = []byte(`42`)

	value, err := InvokeMember(context.Background(), eng, "", "Echo", 42)
	if err != nil {
		t.Fatalf("InvokeMember failed: %v", err)
	}
	if string(value) != "42" {
		t.Errorf("unexpected value: %s", value)
	}

	params := eng.lastParams[hostproto.CommandMemberInvoke].(*hostproto.MemberInvokeParams)
	if len(params.Args) != 1 || string(params.Args[0]) != "42" {
		t.Errorf("unexpected args: %v", params.Args)
	}
}

func TestMissingMemberIsPlainFailure(t *testing.T) {
	eng := newFakeEngine()
	eng.failNextCall(hostproto.CommandMemberGet, &hostproc.CallError{
		Code:    hostproto.ErrCodeMemberNotFound,
		Message: "member not found: Forms!Orders.Caption",
	})

	_, err := GetMember(context.Background(), eng, "Forms!Orders", "Caption")
	if err == nil {
		t.Fatal("expected an error")
	}
	if ClassOf(err) != ClassFailure {
		t.Errorf("expected failure class, got %s", ClassOf(err))
	}

	// An absent member is a property of the object, never a host fault.
	c := NewClassifier(testSignatures())
	if c.Recoverable(err) {
		t.Error("a missing member must never trigger engine recovery")
	}
}
