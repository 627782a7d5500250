package smtp

import (
	"gopkg.in/gomail.v2"

	"github.com/blockprotocol/hub-api/internal/config"
)

// Mailer sends emails.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

type mailer struct {
	from   string
	dialer *gomail.Dialer
}

func NewMailer(cfg *config.Config) Mailer {
	return &mailer{
		from:   cfg.SMTPFrom,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
	}
}

func (m *mailer) SendEmail(to, subject, body string) error {
	return m.dialer.DialAndSend(m.message(to, subject, body))
}

func (m *mailer) message(to, subject, body string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return msg
}
