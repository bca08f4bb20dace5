package utils

import (
	"academy/config"
	"academy/logger"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Mailer delivers a single HTML email
type Mailer interface {
	Send(to []string, subject, htmlBody string) error
}

// Mail is the process-wide mailer. InitMailer swaps in SendGrid when a key is configured.
var Mail Mailer = ConsoleMailer{}

// AsyncMail sends notification emails on their own goroutine. Tests switch it off.
var AsyncMail = true

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// InitMailer picks SendGrid when SENDGRID_API_KEY is set, the console mailer otherwise
func InitMailer(cfg *config.Config) Mailer {
	if cfg.SendgridAPIKey == "" {
		logger.Log.Warn("SENDGRID_API_KEY not set, emails are written to the log")
		Mail = ConsoleMailer{}
		return Mail
	}
	Mail = NewSendgridMailer(cfg.SendgridAPIKey, cfg.EmailSenderName, cfg.EmailSender)
	return Mail
}

// SendgridMailer sends through the SendGrid v3 API
type SendgridMailer struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
}

func NewSendgridMailer(key, appName, fromEmail string) *SendgridMailer {
	return &SendgridMailer{
		key:        key,
		from:       sgmail.NewEmail(appName, fromEmail),
		subjPrefix: "[" + appName + "] ",
	}
}

func (m *SendgridMailer) prepare(to []string, subject, htmlBody string) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = m.subjPrefix + subject
	for _, addr := range to {
		p.AddTos(sgmail.NewEmail("", addr))
	}

	msg := sgmail.NewV3Mail()
	msg.SetFrom(m.from)
	msg.AddPersonalizations(p)
	msg.AddContent(sgmail.NewContent("text/html", htmlBody))
	return msg
}

func (m *SendgridMailer) Send(to []string, subject, htmlBody string) error {
	if len(to) == 0 {
		return nil
	}
	req := sendgrid.GetRequest(m.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m.prepare(to, subject, htmlBody))

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid returned %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// ConsoleMailer writes emails to the log instead of sending them
type ConsoleMailer struct{}

func (ConsoleMailer) Send(to []string, subject, htmlBody string) error {
	logger.Log.Info("email",
		zap.String("to", strings.Join(to, ",")),
		zap.String("subject", subject),
		zap.Int("bytes", len(htmlBody)),
	)
	return nil
}

// SentEmail is one message captured by MemoryMailer
type SentEmail struct {
	To      []string
	Subject string
	Body    string
}

// MemoryMailer records messages, used by tests
type MemoryMailer struct {
	mu   sync.Mutex
	Sent []SentEmail
}

func (m *MemoryMailer) Send(to []string, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentEmail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

// Subjects returns the subjects sent to addr in order
func (m *MemoryMailer) Subjects(addr string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.Sent {
		for _, to := range e.To {
			if to == addr {
				out = append(out, e.Subject)
			}
		}
	}
	return out
}

// SendEmail delivers through Mail and logs failures. It never returns an error to the caller
// since notifications must not fail the request that triggered them.
func SendEmail(to []string, subject string, htmlBody string) {
	deliver := func() {
		if err := Mail.Send(to, subject, htmlBody); err != nil {
			logger.Log.Error("Error sending email",
				zap.Strings("to", to), zap.String("subject", subject), zap.Error(err))
		}
	}
	if AsyncMail {
		go deliver()
		return
	}
	deliver()
}
