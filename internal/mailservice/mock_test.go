package mailservice

import (
	"bytes"
	"errors"
	"sync"

	"github.com/go-mail/mail/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/mock"

	"github.com/sushihentaime/inkpost/internal/common"
)

type MockTemplate struct {
	mock.Mock
}

func (m *MockTemplate) ParseTemplate(name string, data any) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer, error) {
	args := m.Called(name, data)
	if args.Get(0) == nil {
		return nil, nil, nil, args.Error(3)
	}
	return args.Get(0).(*bytes.Buffer), args.Get(1).(*bytes.Buffer), args.Get(2).(*bytes.Buffer), args.Error(3)
}

type MockDialer struct {
	mock.Mock
}

func (d *MockDialer) DialAndSend(m ...*mail.Message) error {
	args := d.Called(m)
	return args.Error(0)
}

type sentMail struct {
	recipient string
	data      any
	template  string
}

// MockMailer records every send on a channel and fails the first failures calls.
type MockMailer struct {
	mu       sync.Mutex
	failures int
	sent     chan sentMail
}

func newMockMailer(failures int) *MockMailer {
	return &MockMailer{failures: failures, sent: make(chan sentMail, 16)}
}

func (m *MockMailer) send(recipient string, data any, templateFile string) error {
	m.mu.Lock()
	fail := m.failures > 0
	if fail {
		m.failures--
	}
	m.mu.Unlock()

	m.sent <- sentMail{recipient: recipient, data: data, template: templateFile}

	if fail {
		return errors.New("smtp unavailable")
	}
	return nil
}

type MockMessageConsumer struct {
	mock.Mock
	msgs chan amqp.Delivery
}

func newMockMessageConsumer() *MockMessageConsumer {
	return &MockMessageConsumer{msgs: make(chan amqp.Delivery)}
}

func (m *MockMessageConsumer) Consume(key common.BindingKey, exchange common.Exchange, queue common.Queue) (<-chan amqp.Delivery, error) {
	args := m.Called(key, exchange, queue)
	if err := args.Error(0); err != nil {
		return nil, err
	}
	return m.msgs, nil
}

// recordingLogger keeps every message it is given.
type recordingLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (l *recordingLogger) Info(msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
}

func (l *recordingLogger) Error(msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *recordingLogger) hasInfo(msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.infos {
		if m == msg {
			return true
		}
	}
	return false
}

func (l *recordingLogger) hasError(msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.errors {
		if m == msg {
			return true
		}
	}
	return false
}
