package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"gopkg.in/gomail.v2"
)

// EmailConfig holds SMTP delivery settings
type EmailConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	FromName   string
	Recipients []string
	SSL        bool // true = 465 SSL, false = 587 STARTTLS
}

// Dialer sends composed messages. *gomail.Dialer satisfies it.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailSink mails inquiries to the operators
type EmailSink struct {
	cfg    EmailConfig
	dialer Dialer
}

// NewEmailSink creates an email sink dialing the configured SMTP server.
// Recipients default to the sender address.
func NewEmailSink(cfg EmailConfig) *EmailSink {
	if len(cfg.Recipients) == 0 && cfg.From != "" {
		cfg.Recipients = []string{cfg.From}
	}
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.SSL
	return &EmailSink{cfg: cfg, dialer: d}
}

// WithDialer replaces the SMTP dialer
func (s *EmailSink) WithDialer(d Dialer) *EmailSink {
	s.dialer = d
	return s
}

// Name returns the sink name
func (s *EmailSink) Name() string {
	return "email"
}

// HealthCheck verifies the sink has what it needs to send
func (s *EmailSink) HealthCheck(ctx context.Context) error {
	switch {
	case s.cfg.Host == "":
		return errors.New("smtp host not configured")
	case s.cfg.From == "":
		return errors.New("sender address not configured")
	case s.cfg.Password == "":
		return errors.New("smtp password not configured")
	}
	return nil
}

// Send renders and mails the inquiry
func (s *EmailSink) Send(ctx context.Context, inquiry Inquiry) error {
	if err := s.HealthCheck(ctx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m, err := s.compose(inquiry)
	if err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	slog.Info("inquiry email sent", "recipients", len(s.cfg.Recipients))
	return nil
}

func (s *EmailSink) compose(inquiry Inquiry) (*gomail.Message, error) {
	body, err := renderEmail(inquiry, s.cfg.Recipients)
	if err != nil {
		return nil, err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.From, s.cfg.FromName)
	m.SetHeader("To", s.cfg.Recipients...)
	m.SetHeader("Reply-To", inquiry.Email)
	m.SetHeader("Subject", Subject(inquiry))
	m.SetBody("text/html", body)
	return m, nil
}

// Subject formats the email subject line for an inquiry
func Subject(inquiry Inquiry) string {
	return fmt.Sprintf("[문의접수] %s님 - %s", inquiry.Name, inquiry.TypeLabel())
}

var emailTemplate = template.Must(template.New("inquiry").Parse(`<div style="border: 1px solid #ccc; padding: 20px; border-radius: 8px;">
  <h2 style="color: #2c3e50;">새로운 문의가 도착했습니다.</h2>
  <p><strong>받는 사람들:</strong> {{.Recipients}}</p>
  <ul style="list-style: none; padding: 0;">
    <li><strong>보낸 사람:</strong> {{.Name}}</li>
    <li><strong>이메일:</strong> {{.Email}}</li>
    <li><strong>유형:</strong> {{.Type}}</li>
  </ul>
  <hr>
  <div style="background: #f8f9fa; padding: 15px; border-radius: 4px;">
    {{range $i, $line := .Lines}}{{if $i}}<br>{{end}}{{$line}}{{end}}
  </div>
</div>
`))

// renderEmail builds the HTML body. User input is escaped by html/template.
func renderEmail(inquiry Inquiry, recipients []string) (string, error) {
	data := struct {
		Recipients string
		Name       string
		Email      string
		Type       string
		Lines      []string
	}{
		Recipients: strings.Join(recipients, ", "),
		Name:       inquiry.Name,
		Email:      inquiry.Email,
		Type:       inquiry.TypeLabel(),
		Lines:      strings.Split(inquiry.Message, "\n"),
	}

	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render email: %w", err)
	}
	return buf.String(), nil
}
