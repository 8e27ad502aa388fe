// Package nats bridges the bus to NATS core pub/sub. Like the other
// bridge packages, it is an external collaborator (§1): it decodes
// CloudEvents off a NATS subject and hands them to a Bus, and/or encodes
// outgoing Events to publish onto a subject.
package nats

import (
	"context"
	"fmt"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/nats-io/nats.go"

	"github.com/commontk/go-eventadmin"
)

// Bridge publishes Events to, and forwards Events from, NATS subjects.
type Bridge struct {
	conn  *nats.Conn
	bus   *eventadmin.Bus
	async bool
}

// New connects to url. If async is true, forwarded events are delivered
// via bus.PostEvent; otherwise via bus.SendEvent.
func New(url string, bus *eventadmin.Bus, async bool) (*Bridge, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("eventadmin/bridge/nats: connecting: %w", err)
	}
	return &Bridge{conn: conn, bus: bus, async: async}, nil
}

// Publish encodes event as a CloudEvent and publishes it on subject.
func (b *Bridge) Publish(subject string, event eventadmin.Event) error {
	ce, err := eventadmin.ToCloudEvent(event, "eventadmin/bridge/nats")
	if err != nil {
		return err
	}
	payload, err := ce.MarshalJSON()
	if err != nil {
		return fmt.Errorf("eventadmin/bridge/nats: marshalling cloud event: %w", err)
	}
	if err := b.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("eventadmin/bridge/nats: publishing: %w", err)
	}
	return nil
}

// Subscribe runs until ctx is cancelled, forwarding every CloudEvent
// received on subject to the bridge's Bus.
func (b *Bridge) Subscribe(ctx context.Context, subject string) error {
	msgCh := make(chan *nats.Msg, 64)
	sub, err := b.conn.ChanSubscribe(subject, msgCh)
	if err != nil {
		return fmt.Errorf("eventadmin/bridge/nats: subscribing: %w", err)
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-msgCh:
			var ce cloudevents.Event
			if err := ce.UnmarshalJSON(msg.Data); err != nil {
				continue
			}
			event, err := eventadmin.FromCloudEvent(ce)
			if err != nil {
				continue
			}
			if b.async {
				_ = b.bus.PostEvent(ctx, event)
			} else {
				_ = b.bus.SendEvent(ctx, event)
			}
		}
	}
}

// Close drains and closes the underlying NATS connection.
func (b *Bridge) Close() error {
	return b.conn.Drain()
}
