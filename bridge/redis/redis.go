// Package redis bridges the bus to Redis pub/sub. Like the other bridge
// packages, it is an external collaborator (§1): it decodes CloudEvents
// off a Redis channel and hands them to a Bus, and/or encodes outgoing
// Events to publish onto Redis.
package redis

import (
	"context"
	"fmt"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/commontk/go-eventadmin"
)

// Config holds the go-redis client settings the bridge needs.
type Config struct {
	Addr     string
	Username string
	Password string
	DB       int
}

// Bridge publishes Events to, and forwards Events from, Redis pub/sub
// channels.
type Bridge struct {
	client *goredis.Client
	bus    *eventadmin.Bus
	async  bool
}

// New dials Redis per config. If async is true, forwarded events are
// delivered via bus.PostEvent; otherwise via bus.SendEvent.
func New(config Config, bus *eventadmin.Bus, async bool) *Bridge {
	client := goredis.NewClient(&goredis.Options{
		Addr:     config.Addr,
		Username: config.Username,
		Password: config.Password,
		DB:       config.DB,
	})
	return &Bridge{client: client, bus: bus, async: async}
}

// Publish encodes event as a CloudEvent and publishes it to channel.
func (b *Bridge) Publish(ctx context.Context, channel string, event eventadmin.Event) error {
	ce, err := eventadmin.ToCloudEvent(event, "eventadmin/bridge/redis")
	if err != nil {
		return err
	}
	payload, err := ce.MarshalJSON()
	if err != nil {
		return fmt.Errorf("eventadmin/bridge/redis: marshalling cloud event: %w", err)
	}
	if err := b.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("eventadmin/bridge/redis: publishing: %w", err)
	}
	return nil
}

// Subscribe runs until ctx is cancelled, forwarding every CloudEvent
// received on channel to the bridge's Bus.
func (b *Bridge) Subscribe(ctx context.Context, channel string) error {
	sub := b.client.Subscribe(ctx, channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ce cloudevents.Event
			if err := ce.UnmarshalJSON([]byte(msg.Payload)); err != nil {
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

// Close releases the underlying Redis client.
func (b *Bridge) Close() error {
	return b.client.Close()
}
