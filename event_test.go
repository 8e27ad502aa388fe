package eventadmin

import (
	"testing"
	"time"
)

func TestNewEventCopiesProperties(t *testing.T) {
	props := map[string]any{"a": 1}
	e := NewEvent("topic", props)
	props["a"] = 2 // mutate original after construction

	if v := e.GetInt64("a"); v != 1 {
		t.Fatalf("expected defensive copy to preserve 1, got %d", v)
	}
}

func TestEventAccessors(t *testing.T) {
	now := time.Now()
	e := NewEvent("topic", map[string]any{
		"str":  "hello",
		"num":  int64(42),
		"flag": true,
		"when": now,
	})

	if got := e.GetString("str"); got != "hello" {
		t.Fatalf("GetString = %q, want %q", got, "hello")
	}
	if got := e.GetInt64("num"); got != 42 {
		t.Fatalf("GetInt64 = %d, want 42", got)
	}
	if got := e.GetBool("flag"); !got {
		t.Fatal("GetBool = false, want true")
	}
	if got := e.GetTime("when"); !got.Equal(now) {
		t.Fatalf("GetTime = %v, want %v", got, now)
	}
	if _, ok := e.Get("missing"); ok {
		t.Fatal("expected missing key to report ok=false")
	}
}
