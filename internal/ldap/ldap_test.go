package ldap

import "testing"

func mustParse(t *testing.T, src string) Filter {
	t.Helper()
	f, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", src, err)
	}
	return f
}

func TestParseEmptyAlwaysMatches(t *testing.T) {
	f := mustParse(t, "")
	if !f.Match(map[string]any{"anything": "at all"}) {
		t.Error("empty filter should match everything")
	}
}

func TestEquality(t *testing.T) {
	f := mustParse(t, "(color=red)")
	if !f.Match(map[string]any{"color": "red"}) {
		t.Error("expected match")
	}
	if f.Match(map[string]any{"color": "blue"}) {
		t.Error("expected no match")
	}
}

func TestPresence(t *testing.T) {
	f := mustParse(t, "(color=*)")
	if !f.Match(map[string]any{"color": "red"}) {
		t.Error("expected presence match")
	}
	if f.Match(map[string]any{"size": "10"}) {
		t.Error("expected no match when attribute absent")
	}
}

func TestSubstring(t *testing.T) {
	f := mustParse(t, "(name=Al*ce)")
	if !f.Match(map[string]any{"name": "Alice"}) {
		t.Error("expected substring match")
	}
	if f.Match(map[string]any{"name": "Bob"}) {
		t.Error("expected no match")
	}
}

func TestAndOrNot(t *testing.T) {
	f := mustParse(t, "(&(color=red)(|(size=10)(size=20)))")
	if !f.Match(map[string]any{"color": "red", "size": "20"}) {
		t.Error("expected and/or match")
	}
	if f.Match(map[string]any{"color": "red", "size": "30"}) {
		t.Error("expected no match")
	}

	not := mustParse(t, "(!(color=red))")
	if not.Match(map[string]any{"color": "red"}) {
		t.Error("expected negation to exclude red")
	}
	if !not.Match(map[string]any{"color": "blue"}) {
		t.Error("expected negation to allow blue")
	}
}

func TestOrdering(t *testing.T) {
	f := mustParse(t, "(count>=5)")
	if !f.Match(map[string]any{"count": int64(10)}) {
		t.Error("expected numeric >= match")
	}
	if f.Match(map[string]any{"count": int64(1)}) {
		t.Error("expected numeric >= to fail for smaller value")
	}
}

func TestInvalidFilterErrors(t *testing.T) {
	if _, err := Parse("(color=red"); err == nil {
		t.Error("expected error for unbalanced parens")
	}
	if _, err := Parse("not-a-filter"); err == nil {
		t.Error("expected error for missing parens")
	}
}
