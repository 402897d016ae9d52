package registry

import (
	"errors"
	"strings"
	"testing"

	"github.com/denizumutdereli/nukebridge/pkg/core"
	"github.com/denizumutdereli/nukebridge/pkg/protocol"
)

func TestRegisterAndDispatch(t *testing.T) {
	r := New()
	err := r.Register("ping", func(args map[string]any) protocol.Response {
		return protocol.Success(map[string]any{"pong": true})
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	resp := r.Dispatch("ping", nil)
	if resp.Failed() {
		t.Fatalf("dispatch failed: %s", resp.ErrorMessage())
	}
	if resp["pong"] != true {
		t.Errorf("unexpected response: %v", resp)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r := New()
	h := func(args map[string]any) protocol.Response { return protocol.Success(nil) }

	if err := r.Register("x", h); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	err := r.Register("x", h)
	if err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	if !errors.Is(err, core.ErrDuplicateCommand) {
		t.Errorf("expected ErrDuplicateCommand, got %v", err)
	}
}

func TestRegisterRejectsEmptyNameAndNilHandler(t *testing.T) {
	r := New()
	if err := r.Register("", func(map[string]any) protocol.Response { return nil }); err == nil {
		t.Error("expected error for empty name")
	}
	if err := r.Register("x", nil); err == nil {
		t.Error("expected error for nil handler")
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	r := New()
	resp := r.Dispatch("bogus", nil)
	if !resp.Failed() {
		t.Fatal("expected failure for unknown command")
	}
	if resp.ErrorMessage() != "Unknown command type: bogus" {
		t.Errorf("unexpected error message: %q", resp.ErrorMessage())
	}
}

func TestDispatchRecoversPanics(t *testing.T) {
	r := New()
	r.Register("crash", func(args map[string]any) protocol.Response {
		panic("handler exploded")
	})

	resp := r.Dispatch("crash", nil)
	if !resp.Failed() {
		t.Fatal("expected panicking handler to produce a failure")
	}
	if resp.ErrorMessage() != "handler exploded" {
		t.Errorf("panic value not surfaced: %q", resp.ErrorMessage())
	}
	tb, _ := resp["traceback"].(string)
	if !strings.Contains(tb, "goroutine") {
		t.Error("expected a stack trace in the traceback field")
	}
}

func TestDispatchNilArgs(t *testing.T) {
	r := New()
	r.Register("echo", func(args map[string]any) protocol.Response {
		if args == nil {
			t.Error("handler must never see nil args")
		}
		return protocol.Success(nil)
	})
	r.Dispatch("echo", nil)
}

func TestCommandsSorted(t *testing.T) {
	r := New()
	h := func(map[string]any) protocol.Response { return protocol.Success(nil) }
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := r.Register(name, h); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	names := r.Commands()
	if len(names) != 3 || r.Len() != 3 {
		t.Fatalf("expected 3 commands, got %v", names)
	}
	if names[0] != "alpha" || names[1] != "mid" || names[2] != "zeta" {
		t.Errorf("commands not sorted: %v", names)
	}
}
