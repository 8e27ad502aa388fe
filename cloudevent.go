package eventadmin

import (
	"fmt"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// cloudEventSource is the default CloudEvents source attribute bridges
// stamp onto outgoing events; callers that care about provenance should
// override it via ToCloudEvent's source parameter.
const cloudEventSource = "eventadmin"

// cloudEventType is the CloudEvents type attribute used for every event
// the bus encodes — the actual topic travels in an extension attribute
// instead, since CloudEvents type is conventionally reverse-DNS-shaped
// and topics are hierarchical paths (§4.4's mask grammar would not
// survive round-tripping through the type attribute unescaped).
const cloudEventType = "org.commontk.eventadmin.event"

// ToCloudEvent encodes event as a CloudEvent, suitable for handing to any
// bridge/* package's publish call. source identifies the producing
// component (e.g. a bridge's own name).
func ToCloudEvent(event Event, source string) (cloudevents.Event, error) {
	if source == "" {
		source = cloudEventSource
	}
	ce := cloudevents.NewEvent()
	ce.SetID(NewCorrelationID())
	ce.SetSource(source)
	ce.SetType(cloudEventType)
	ce.SetTime(event.CreatedAt)
	ce.SetExtension("eatopic", event.Topic)

	if err := ce.SetData(cloudevents.ApplicationJSON, event.Properties); err != nil {
		return cloudevents.Event{}, fmt.Errorf("eventadmin: encoding event properties: %w", err)
	}
	return ce, nil
}

// FromCloudEvent decodes a CloudEvent produced by ToCloudEvent (or any
// producer following the same eatopic-extension convention) back into an
// Event.
func FromCloudEvent(ce cloudevents.Event) (Event, error) {
	topic, ok := ce.Extensions()["eatopic"].(string)
	if !ok || topic == "" {
		return Event{}, fmt.Errorf("eventadmin: cloud event missing eatopic extension: %w", ErrInvalidArgument)
	}

	var props map[string]any
	if len(ce.Data()) > 0 {
		if err := ce.DataAs(&props); err != nil {
			return Event{}, fmt.Errorf("eventadmin: decoding event properties: %w", err)
		}
	}

	event := NewEvent(topic, props)
	if t := ce.Time(); !t.IsZero() {
		event.CreatedAt = t
	}
	return event, nil
}
