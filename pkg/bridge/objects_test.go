package bridge

import (
	"context"
	"testing"

	"github.com/accessbridge/accessbridge/pkg/hostproto"
)

func TestWithLoadedObjectOpensAndClosesOnExit(t *testing.T) {
	factory := &fakeFactory{}
	s := newTestSession(factory)
	s.path = "orders.db"

	sawLoaded := false
	err := s.WithLoadedObject(context.Background(), hostproto.ObjectKindForm, "Orders", false,
		func(ctx context.Context, eng Engine) error {
			sawLoaded = factory.last(t).loaded["form/Orders"]
			return nil
		})
	if err != nil {
		t.Fatalf("WithLoadedObject failed: %v", err)
	}
	if !sawLoaded {
		t.Error("expected the object to be loaded while the body runs")
	}

	eng := factory.last(t)
	if len(eng.opened) != 1 || eng.opened[0] != "form/Orders" {
		t.Errorf("expected one open of form/Orders, got %v", eng.opened)
	}
	if len(eng.closed) != 1 || eng.closed[0] != "form/Orders" {
		t.Errorf("expected the object closed on exit, got %v", eng.closed)
	}

	closeParams := eng.lastParams[hostproto.CommandObjectClose].(*hostproto.ObjectCloseParams)
	if !closeParams.DiscardChanges {
		t.Error("cleanup close must discard changes")
	}
}

func TestWithLoadedObjectLeavesPreloadedObjectAlone(t *testing.T) {
	factory := &fakeFactory{}
	s := newTestSession(factory)
	s.path = "orders.db"

	// Create the engine and mark the object as already loaded in the host.
	if err := s.RunAutomation(context.Background(), RunOptions{}, noopBody); err != nil {
		t.Fatalf("setup run failed: %v", err)
	}
	eng := factory.last(t)
	eng.loaded["form/Orders"] = true

	err := s.WithLoadedObject(context.Background(), hostproto.ObjectKindForm, "Orders", false,
		func(ctx context.Context, eng Engine) error { return nil })
	if err != nil {
		t.Fatalf("WithLoadedObject failed: %v", err)
	}

	if len(eng.opened) != 0 {
		t.Errorf("expected no open for a preloaded object, got %v", eng.opened)
	}
	if len(eng.closed) != 0 {
		t.Errorf("a preloaded object must stay loaded, got closes %v", eng.closed)
	}
	if !eng.loaded["form/Orders"] {
		t.Error("preloaded object must remain loaded after the call")
	}
}

func TestWithLoadedObjectDesignViewIsExclusive(t *testing.T) {
	factory := &fakeFactory{}
	s := newTestSession(factory)
	s.path = "orders.db"

	err := s.WithLoadedObject(context.Background(), hostproto.ObjectKindForm, "Orders", true,
		func(ctx context.Context, eng Engine) error { return nil })
	if err != nil {
		t.Fatalf("WithLoadedObject failed: %v", err)
	}

	eng := factory.last(t)
	if len(eng.openCalls) == 0 || !eng.openCalls[0].exclusive {
		t.Errorf("design view must open the file exclusively, got %v", eng.openCalls)
	}

	openParams := eng.lastParams[hostproto.CommandObjectOpen].(*hostproto.ObjectOpenParams)
	if !openParams.DesignView {
		t.Error("expected the object opened in design view")
	}
}

func TestWithLoadedObjectValidation(t *testing.T) {
	s := newTestSession(&fakeFactory{})
	s.path = "orders.db"

	err := s.WithLoadedObject(context.Background(), hostproto.ObjectKindForm, "", false,
		func(ctx context.Context, eng Engine) error { return nil })
	if !IsPrecondition(err) {
		t.Errorf("expected precondition error for empty name, got %v", err)
	}

	err = s.WithLoadedObject(context.Background(), hostproto.ObjectKind("window"), "Orders", false,
		func(ctx context.Context, eng Engine) error { return nil })
	if !IsPrecondition(err) {
		t.Errorf("expected precondition error for bad kind, got %v", err)
	}
}

func TestListObjects(t *testing.T) {
	factory := &fakeFactory{}
	s := newTestSession(factory)
	s.path = "orders.db"

	if err := s.RunAutomation(context.Background(), RunOptions{}, noopBody); err != nil {
		t.Fatalf("setup run failed: %v", err)
	}
	factory.last(t).listNames = []string{"Customers", "Orders"}

	names, err := s.ListObjects(context.Background(), hostproto.ObjectKindForm)
	if err != nil {
		t.Fatalf("ListObjects failed: %v", err)
	}
	if len(names) != 2 || names[0] != "Customers" || names[1] != "Orders" {
		t.Errorf("unexpected names: %v", names)
	}
}

func TestRunMacroValidation(t *testing.T) {
	s := newTestSession(&fakeFactory{})
	s.path = "orders.db"

	if err := s.RunMacro(context.Background(), ""); !IsPrecondition(err) {
		t.Errorf("expected precondition error for empty macro name, got %v", err)
	}
}
