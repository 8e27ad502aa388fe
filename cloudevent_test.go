package eventadmin

import "testing"

func TestCloudEventRoundTrip(t *testing.T) {
	event := NewEvent("orders/created", map[string]any{"id": "abc123"})

	ce, err := ToCloudEvent(event, "")
	if err != nil {
		t.Fatalf("ToCloudEvent: %v", err)
	}
	if ce.Source() != cloudEventSource {
		t.Fatalf("expected default source %q, got %q", cloudEventSource, ce.Source())
	}

	decoded, err := FromCloudEvent(ce)
	if err != nil {
		t.Fatalf("FromCloudEvent: %v", err)
	}
	if decoded.Topic != event.Topic {
		t.Fatalf("expected topic %q, got %q", event.Topic, decoded.Topic)
	}
	if decoded.GetString("id") != "abc123" {
		t.Fatalf("expected id %q, got %q", "abc123", decoded.GetString("id"))
	}
}

func TestFromCloudEventRejectsMissingTopic(t *testing.T) {
	event := NewEvent("orders/created", nil)
	ce, err := ToCloudEvent(event, "")
	if err != nil {
		t.Fatalf("ToCloudEvent: %v", err)
	}
	ce.SetExtension("eatopic", "")

	if _, err := FromCloudEvent(ce); err == nil {
		t.Fatal("expected missing topic extension to error")
	}
}
