package mailservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/exp/rand"

	"github.com/sushihentaime/inkpost/internal/common"
)

func NewMailService(mb common.MessageConsumer, host, username, password, sender string, port int, logger MailLogger) *MailService {
	return newMailService(mb, NewMailer(host, port, username, password, sender, NewTemplate()), logger)
}

func newMailService(mb common.MessageConsumer, m Mailer, logger MailLogger) *MailService {
	ctx, cancel := context.WithCancel(context.Background())
	return &MailService{
		mb:         mb,
		m:          m,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		maxRetries: defaultMaxRetries,
		backoff:    defaultBackoff,
	}
}

// SendWelcomeEmails consumes user.created events in the background until Close is called.
func (s *MailService) SendWelcomeEmails() error {
	msgs, err := s.mb.Consume(common.UserCreatedKey, common.UserExchange, common.UserCreatedQueue)
	if err != nil {
		s.logger.Error("could not consume message", slog.String("error", err.Error()))
		return err
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				s.handleUserCreated(msg)

			case <-s.ctx.Done():
				s.logger.Info("stopping SendWelcomeEmails due to context cancellation")
				return
			}
		}
	}()

	return nil
}

func (s *MailService) handleUserCreated(msg amqp.Delivery) {
	// acknowledged whatever the outcome; failures are only logged
	defer msg.Ack(false)

	var event common.UserCreatedEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		s.logger.Error("could not unmarshal message", slog.String("error", err.Error()))
		return
	}

	if event.Email == "" {
		s.logger.Error("user created event without email")
		return
	}

	payload := welcomeData{FirstName: event.FirstName}

	// exponential backoff with jitter
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err := s.m.send(event.Email, payload, welcomeTemplate)
		if err == nil {
			s.logger.Info("welcome email sent", slog.String("email", event.Email))
			return
		}

		delay := time.Duration(rand.Int63n(int64(s.backoff) << uint(attempt)))
		s.logger.Info("delaying welcome email", slog.String("email", event.Email), slog.Int("attempt", attempt), slog.Duration("delay", delay), slog.String("error", err.Error()))

		select {
		case <-time.After(delay):
		case <-s.ctx.Done():
			return
		}
	}

	s.logger.Error("could not send welcome email", slog.String("email", event.Email))
}

func (s *MailService) Close() {
	s.cancel()
}
