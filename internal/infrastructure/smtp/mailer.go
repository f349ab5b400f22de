package smtp

import (
	"fmt"
	"net/smtp"

	"github.com/hivedesk/api/internal/config"
)

// Mailer delivers magic links. Errors reflect delivery failure only; callers
// decide whether delivery failure is fatal (the sign-in flow treats it as
// non-fatal).
type Mailer interface {
	SendMagicLink(to, linkURL, code string, isSignup bool) error
}

type mailer struct {
	host     string
	port     string
	from     string
	username string
	password string
}

func NewMailer(cfg *config.Config) Mailer {
	return &mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
	}
}

func (m *mailer) SendMagicLink(to, linkURL, code string, isSignup bool) error {
	subject := "Your sign-in link"
	if isSignup {
		subject = "Welcome! Confirm your new account"
	}
	body := fmt.Sprintf(
		"Click to sign in: %s\r\n\r\nOr enter this code: %s\r\n\r\nThe link and code expire in 15 minutes. If you didn't request this, ignore this email.",
		linkURL, code,
	)
	return m.sendEmail(to, subject, body)
}

func (m *mailer) sendEmail(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg))
}
