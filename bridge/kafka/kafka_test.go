package kafka

import (
	"errors"
	"io"
	"testing"

	"github.com/IBM/sarama"
	"go.uber.org/mock/gomock"

	"github.com/commontk/go-eventadmin"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func TestProducerPublishEncodesTopicAndPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	sender := newMockMessageSender(ctrl)

	var gotTopic string
	sender.EXPECT().SendMessage(gomock.Any()).DoAndReturn(func(msg *sarama.ProducerMessage) (int32, int64, error) {
		gotTopic = msg.Topic
		return 0, 0, nil
	})

	p := newProducerWithSender(Config{}, sender, nopCloser{})
	event := eventadmin.NewEvent("orders/created", map[string]any{"id": "abc"})

	if err := p.Publish("orders.created", event); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if gotTopic != "orders.created" {
		t.Fatalf("expected topic %q, got %q", "orders.created", gotTopic)
	}
}

func TestProducerPublishWrapsSendError(t *testing.T) {
	ctrl := gomock.NewController(t)
	sender := newMockMessageSender(ctrl)

	sendErr := errors.New("broker unreachable")
	sender.EXPECT().SendMessage(gomock.Any()).Return(int32(0), int64(0), sendErr)

	p := newProducerWithSender(Config{}, sender, nopCloser{})
	err := p.Publish("orders.created", eventadmin.NewEvent("orders/created", nil))
	if err == nil {
		t.Fatal("expected Publish to surface the send error")
	}
}

func TestProducerCloseDelegatesToCloser(t *testing.T) {
	closed := false
	p := newProducerWithSender(Config{}, newMockMessageSender(gomock.NewController(t)), closerFunc(func() error {
		closed = true
		return nil
	}))
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !closed {
		t.Fatal("expected Close to delegate to the underlying closer")
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

var _ io.Closer = closerFunc(nil)
