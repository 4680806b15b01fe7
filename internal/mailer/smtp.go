package mailer

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/mail.v2"
)

type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
}

type dialer interface {
	DialAndSend(m ...*mail.Message) error
}

// SMTPMailer renders an embedded template and delivers it over SMTP.
type SMTPMailer struct {
	fromEmail string
	dialer    dialer
	backoff   time.Duration
}

func NewSMTPClient(cfg SMTPConfig) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if cfg.FromEmail == "" {
		return nil, errors.New("from email is required")
	}

	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.Timeout = 10 * time.Second

	return &SMTPMailer{fromEmail: cfg.FromEmail, dialer: d, backoff: time.Second}, nil
}

// Send returns 200 once the message is accepted by the SMTP server.
func (m *SMTPMailer) Send(templateFile, username, email string, data any) (int, error) {
	msg, err := m.build(templateFile, username, email, data)
	if err != nil {
		return -1, err
	}

	var lastErr error
	for i := 0; i < maxRetires; i++ {
		if lastErr = m.dialer.DialAndSend(msg); lastErr == nil {
			return 200, nil
		}
		// linear backoff
		time.Sleep(m.backoff * time.Duration(i+1))
	}
	return -1, fmt.Errorf("failed to send email after %d attempts, error: %w", maxRetires, lastErr)
}

func (m *SMTPMailer) build(templateFile, username, email string, data any) (*mail.Message, error) {
	tmpl, err := template.ParseFS(FS, "templates/"+templateFile)
	if err != nil {
		return nil, err
	}

	subject := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(subject, "subject", data); err != nil {
		return nil, err
	}
	body := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(body, "body", data); err != nil {
		return nil, err
	}

	msg := mail.NewMessage()
	msg.SetAddressHeader("From", m.fromEmail, FromName)
	msg.SetAddressHeader("To", email, username)
	msg.SetHeader("Subject", subject.String())
	msg.SetBody("text/html", body.String())
	return msg, nil
}
