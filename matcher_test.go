package eventadmin

import "testing"

func TestMatcherMatchesByTopicAndFilter(t *testing.T) {
	reg := NewInMemoryRegistry()
	wantID := reg.Register([]string{"sensor/temperature"}, "(unit=celsius)", "", noopCallback)
	reg.Register([]string{"sensor/temperature"}, "(unit=fahrenheit)", "", noopCallback)
	reg.Register([]string{"sensor/humidity"}, "", "", noopCallback)

	m, err := NewMatcher(reg, 30, true)
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}

	event := NewEvent("sensor/temperature", map[string]any{"unit": "celsius", "value": 21})
	ids := m.Match(event)
	if len(ids) != 1 || ids[0] != wantID {
		t.Fatalf("expected only %d to match, got %v", wantID, ids)
	}
}

func TestMatcherWildcardMask(t *testing.T) {
	reg := NewInMemoryRegistry()
	id := reg.Register([]string{"sensor/*"}, "", "", noopCallback)

	m, err := NewMatcher(reg, 30, true)
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}

	ids := m.Match(NewEvent("sensor/pressure", nil))
	if len(ids) != 1 || ids[0] != id {
		t.Fatalf("expected wildcard match, got %v", ids)
	}
	if ids := m.Match(NewEvent("other/pressure", nil)); len(ids) != 0 {
		t.Fatalf("expected no match outside mask, got %v", ids)
	}
}

func TestMatcherWildcardMaskMatchesItsOwnExactPrefix(t *testing.T) {
	reg := NewInMemoryRegistry()
	id := reg.Register([]string{"a/b/*"}, "", "", noopCallback)

	m, err := NewMatcher(reg, 30, true)
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}

	ids := m.Match(NewEvent("a/b", nil))
	if len(ids) != 1 || ids[0] != id {
		t.Fatalf("expected mask %q to match its own exact prefix %q, got %v", "a/b/*", "a/b", ids)
	}
}

func TestMatcherUpdateChangesRequireTopic(t *testing.T) {
	reg := NewInMemoryRegistry()
	id := reg.Register(nil, "", "", noopCallback)

	m, err := NewMatcher(reg, 30, true)
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}
	if ids := m.Match(NewEvent("anything", nil)); len(ids) != 0 {
		t.Fatalf("expected no-topic handler excluded, got %v", ids)
	}

	if err := m.Update(30, false); err != nil {
		t.Fatalf("Update: %v", err)
	}
	ids := m.Match(NewEvent("anything", nil))
	if len(ids) != 1 || ids[0] != id {
		t.Fatalf("expected no-topic handler included after Update, got %v", ids)
	}
}

func TestMatcherMalformedFilterExcludesHandler(t *testing.T) {
	reg := NewInMemoryRegistry()
	reg.Register([]string{"a"}, "not-a-filter", "", noopCallback)

	m, err := NewMatcher(reg, 30, true)
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}
	if ids := m.Match(NewEvent("a", nil)); len(ids) != 0 {
		t.Fatalf("expected malformed filter to exclude handler, got %v", ids)
	}
}
