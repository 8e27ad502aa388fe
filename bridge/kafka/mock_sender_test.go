package kafka

import (
	"reflect"

	"github.com/IBM/sarama"
	"go.uber.org/mock/gomock"
)

// mockMessageSender is a hand-written gomock mock for the messageSender
// interface, in the shape mockgen would generate for a single-method
// interface (the pack's CrisisTextLine-modular/modules/eventbus kafka
// tests mock sarama.SyncProducer the same way).
type mockMessageSender struct {
	ctrl     *gomock.Controller
	recorder *mockMessageSenderRecorder
}

type mockMessageSenderRecorder struct {
	mock *mockMessageSender
}

func newMockMessageSender(ctrl *gomock.Controller) *mockMessageSender {
	m := &mockMessageSender{ctrl: ctrl}
	m.recorder = &mockMessageSenderRecorder{mock: m}
	return m
}

func (m *mockMessageSender) EXPECT() *mockMessageSenderRecorder {
	return m.recorder
}

func (m *mockMessageSender) SendMessage(msg *sarama.ProducerMessage) (int32, int64, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SendMessage", msg)
	partition, _ := ret[0].(int32)
	offset, _ := ret[1].(int64)
	err, _ := ret[2].(error)
	return partition, offset, err
}

func (mr *mockMessageSenderRecorder) SendMessage(msg any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SendMessage", reflect.TypeOf((*mockMessageSender)(nil).SendMessage), msg)
}
