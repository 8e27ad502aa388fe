package eventadmin

import "time"

// Reserved property keys. These are recognised by the matcher and bridges
// but carry no special parsing rules of their own beyond what's documented
// at each use site.
const (
	PropertyTopics           = "event.topics"
	PropertyFilter           = "event.filter"
	PropertyTimestamp        = "timestamp"
	PropertyMessage          = "message"
	PropertyExceptionMessage = "exception.message"
)

// Event is an immutable publish unit classified by a hierarchical Topic
// (slash-separated, e.g. "org/example/Thing/CREATED") carrying a property
// map of dynamically-typed values. Once constructed an Event is never
// mutated in place; handlers that need to derive a new event construct a
// new value.
type Event struct {
	Topic      string
	Properties map[string]any
	CreatedAt  time.Time
}

// NewEvent builds an Event, defensively copying props so the caller's map
// can't be mutated out from under in-flight deliveries.
func NewEvent(topic string, props map[string]any) Event {
	copied := make(map[string]any, len(props))
	for k, v := range props {
		copied[k] = v
	}
	return Event{Topic: topic, Properties: copied, CreatedAt: time.Now()}
}

// Get returns a property value and whether it was present.
func (e Event) Get(key string) (any, bool) {
	v, ok := e.Properties[key]
	return v, ok
}

// GetString returns a string property, or "" if absent or of another type.
func (e Event) GetString(key string) string {
	if v, ok := e.Properties[key].(string); ok {
		return v
	}
	return ""
}

// GetInt64 returns an integer property coerced to int64, or 0 if absent or
// of a non-numeric type.
func (e Event) GetInt64(key string) int64 {
	switch v := e.Properties[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// GetBool returns a boolean property, or false if absent or of another type.
func (e Event) GetBool(key string) bool {
	v, _ := e.Properties[key].(bool)
	return v
}

// GetTime returns a timestamp property, or the zero time if absent or of
// another type.
func (e Event) GetTime(key string) time.Time {
	if v, ok := e.Properties[key].(time.Time); ok {
		return v
	}
	return time.Time{}
}
