package eventadmin

import (
	"context"
	"errors"
	"testing"
)

func TestHandlerTaskRunSkipsBlacklisted(t *testing.T) {
	reg := NewInMemoryRegistry()
	called := false
	id := reg.Register([]string{"a"}, "", "", func(context.Context, Event) error {
		called = true
		return nil
	})
	bl := NewBlacklist(reg)
	bl.Add(id)

	NewHandlerTask(id, NewEvent("a", nil), reg, bl, nil).Run(context.Background())
	if called {
		t.Fatal("expected blacklisted handler to never run")
	}
}

func TestHandlerTaskRunSkipsUnregistered(t *testing.T) {
	reg := NewInMemoryRegistry()
	called := false
	id := reg.Register([]string{"a"}, "", "", func(context.Context, Event) error {
		called = true
		return nil
	})
	reg.Unregister(id)

	NewHandlerTask(id, NewEvent("a", nil), reg, NewBlacklist(reg), nil).Run(context.Background())
	if called {
		t.Fatal("expected unregistered handler to never run")
	}
}

func TestHandlerTaskBlacklistsOnError(t *testing.T) {
	reg := NewInMemoryRegistry()
	id := reg.Register([]string{"a"}, "", "", func(context.Context, Event) error {
		return errors.New("boom")
	})
	bl := NewBlacklist(reg)

	NewHandlerTask(id, NewEvent("a", nil), reg, bl, nil).Run(context.Background())
	if !bl.Contains(id) {
		t.Fatal("expected handler returning an error to be blacklisted")
	}
}

func TestHandlerTaskRecoversFromPanic(t *testing.T) {
	reg := NewInMemoryRegistry()
	id := reg.Register([]string{"a"}, "", "", func(context.Context, Event) error {
		panic("boom")
	})
	bl := NewBlacklist(reg)

	NewHandlerTask(id, NewEvent("a", nil), reg, bl, nil).Run(context.Background())
	if !bl.Contains(id) {
		t.Fatal("expected panicking handler to be blacklisted, not crash the caller")
	}
}
