// Package mailer はテンプレートIDと変数からメールを送る。
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"github.com/Svamsi2006/balaveerulu/internal/domain/model"
)

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// 実際に送る部分（テストで差し替える）
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTP struct {
	dialer sender
	from   string
}

func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" || cfg.User == "" || cfg.Password == "" {
		return nil, fmt.Errorf("SMTP configuration missing")
	}
	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	return &SMTP{dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password), from: from}, nil
}

func (s *SMTP) Send(ctx context.Context, msg model.EmailMessage) error {
	m, err := s.build(msg)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// gomail は context を受け取らないので、期限が来たら待つのをやめる
	// （送信中の接続は gomail の中で閉じるまで残る）
	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(m) }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to send email: %w", ctx.Err())
	}
}

func (s *SMTP) build(msg model.EmailMessage) (*gomail.Message, error) {
	tpl, ok := templates[msg.TemplateID]
	if !ok {
		return nil, fmt.Errorf("unknown email template %q", msg.TemplateID)
	}
	if msg.To == "" {
		return nil, fmt.Errorf("email recipient is empty")
	}

	var body bytes.Buffer
	if err := tpl.Execute(&body, msg.Vars); err != nil {
		return nil, fmt.Errorf("render %s: %w", msg.TemplateID, err)
	}

	subject := msg.Vars["subject"]
	if subject == "" {
		subject = defaultSubjects[msg.TemplateID]
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	if email := msg.Vars["email"]; email != "" {
		m.SetHeader("Reply-To", email)
	}
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body.String())
	return m, nil
}

var defaultSubjects = map[string]string{
	model.EmailTemplateOrderNotification: "New order",
	model.EmailTemplateContactMessage:    "New contact message",
}

var templates = map[string]*template.Template{
	model.EmailTemplateOrderNotification: template.Must(template.New("order").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px;">
  <div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 30px; border-radius: 10px;">
    <h2 style="color: #333;">{{.subject}}</h2>
    <p><strong>Customer:</strong> {{.name}} ({{.email}})</p>
    <pre style="white-space: pre-wrap; font-family: inherit;">{{.message}}</pre>
  </div>
</body>
</html>`)),
	model.EmailTemplateContactMessage: template.Must(template.New("contact").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px;">
  <div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 30px; border-radius: 10px;">
    <h2 style="color: #333;">{{.subject}}</h2>
    <p><strong>From:</strong> {{.name}} ({{.email}})</p>
    <pre style="white-space: pre-wrap; font-family: inherit;">{{.message}}</pre>
  </div>
</body>
</html>`)),
}
