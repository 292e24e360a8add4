package mailservice

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/go-mail/mail/v2"

	"github.com/sushihentaime/inkpost/internal/common"
)

const (
	defaultMaxRetries = 5
	defaultBackoff    = 500 * time.Millisecond

	welcomeTemplate = "welcome_email.html"
)

type MailService struct {
	mb     common.MessageConsumer
	m      Mailer
	logger MailLogger
	ctx    context.Context
	cancel context.CancelFunc

	maxRetries int
	// backoff is the base delay of the jittered exponential retry.
	backoff time.Duration
}

type MailLogger interface {
	Error(msg string, args ...any)
	Info(msg string, args ...any)
}

type Mail struct {
	mu     sync.Mutex
	dialer Dialer
	parser TemplateParser
	sender string
}

type Mailer interface {
	send(recipient string, data any, templateFile string) error
}

type Template struct{}

type Dialer interface {
	DialAndSend(m ...*mail.Message) error
}

type TemplateParser interface {
	ParseTemplate(name string, data any) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer, error)
}

// welcomeData is the data passed to the welcome email template.
type welcomeData struct {
	FirstName string
}
