// Package kafka bridges the bus to Apache Kafka. A bridge is an external
// collaborator, not part of the bus's own contract (§1): it decodes
// CloudEvents off a Kafka topic and hands them to a Bus's PostEvent or
// SendEvent, and/or encodes outgoing Events to publish onto Kafka.
package kafka

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/IBM/sarama"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/commontk/go-eventadmin"
)

// Config holds the sarama client settings the bridge needs.
type Config struct {
	Brokers []string
	GroupID string
	Topics  []string
}

// messageSender is the one sarama.SyncProducer method Publish needs. Kept
// as a narrow interface (rather than storing sarama.SyncProducer directly)
// so tests can substitute a mock without depending on sarama's full
// producer surface.
type messageSender interface {
	SendMessage(msg *sarama.ProducerMessage) (partition int32, offset int64, err error)
}

// Producer publishes Events onto Kafka, CloudEvents-encoded.
type Producer struct {
	config Config
	sender messageSender
	closer io.Closer
}

// NewProducer dials brokers and returns a ready-to-use Producer.
func NewProducer(config Config) (*Producer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	producer, err := sarama.NewSyncProducer(config.Brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("eventadmin/bridge/kafka: creating producer: %w", err)
	}
	return &Producer{config: config, sender: producer, closer: producer}, nil
}

// newProducerWithSender builds a Producer around an already-connected
// sender, for tests that substitute a mock in place of sarama's client.
func newProducerWithSender(config Config, sender messageSender, closer io.Closer) *Producer {
	return &Producer{config: config, sender: sender, closer: closer}
}

// Publish encodes event as a CloudEvent and sends it to topic.
func (p *Producer) Publish(topic string, event eventadmin.Event) error {
	ce, err := eventadmin.ToCloudEvent(event, "eventadmin/bridge/kafka")
	if err != nil {
		return err
	}
	payload, err := ce.MarshalJSON()
	if err != nil {
		return fmt.Errorf("eventadmin/bridge/kafka: marshalling cloud event: %w", err)
	}

	msg := &sarama.ProducerMessage{Topic: topic, Value: sarama.ByteEncoder(payload)}
	_, _, err = p.sender.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("eventadmin/bridge/kafka: sending message: %w", err)
	}
	return nil
}

// Close releases the underlying sarama producer.
func (p *Producer) Close() error {
	return p.closer.Close()
}

// Consumer reads CloudEvents off Kafka and forwards them to a Bus.
type Consumer struct {
	config Config
	group  sarama.ConsumerGroup
	bus    *eventadmin.Bus
	async  bool

	wg sync.WaitGroup
}

// NewConsumer joins config.GroupID and will forward decoded events to bus.
// If async is true, events are posted via bus.PostEvent; otherwise they
// are delivered via bus.SendEvent.
func NewConsumer(config Config, bus *eventadmin.Bus, async bool) (*Consumer, error) {
	cfg := sarama.NewConfig()
	cfg.Consumer.Return.Errors = true
	group, err := sarama.NewConsumerGroup(config.Brokers, config.GroupID, cfg)
	if err != nil {
		return nil, fmt.Errorf("eventadmin/bridge/kafka: joining consumer group: %w", err)
	}
	return &Consumer{config: config, group: group, bus: bus, async: async}, nil
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	handler := &consumerGroupHandler{consumer: c}
	for {
		if err := c.group.Consume(ctx, c.config.Topics, handler); err != nil {
			return fmt.Errorf("eventadmin/bridge/kafka: consume loop: %w", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Close releases the underlying consumer group.
func (c *Consumer) Close() error {
	return c.group.Close()
}

type consumerGroupHandler struct {
	consumer *Consumer
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case <-session.Context().Done():
			return nil
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			var ce cloudevents.Event
			if err := ce.UnmarshalJSON(msg.Value); err != nil {
				session.MarkMessage(msg, "")
				continue
			}
			event, err := eventadmin.FromCloudEvent(ce)
			if err == nil {
				if h.consumer.async {
					_ = h.consumer.bus.PostEvent(session.Context(), event)
				} else {
					_ = h.consumer.bus.SendEvent(session.Context(), event)
				}
			}
			session.MarkMessage(msg, "")
		}
	}
}
