package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/noah-isme/school-admin-api/pkg/config"
)

// Mailer delivers transactional email over SMTP.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// New builds a Mailer from SMTP configuration.
func New(cfg config.SMTPConfig) *Mailer {
	return &Mailer{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
	}
}

// SendWelcomeEmail greets a newly registered user with their username.
func (m *Mailer) SendWelcomeEmail(to, fullName, role, username string) error {
	subject := "Welcome to the school administration system"
	body := fmt.Sprintf(
		"Hello %s,\r\n\r\nAn account with the %s role has been created for you.\r\nYour username is %s.\r\n",
		fullName, role, username,
	)
	return m.send(to, subject, body)
}

// SendPasswordChangeEmail notifies a user of their initial credentials.
func (m *Mailer) SendPasswordChangeEmail(to, name, password string) error {
	subject := "Your account credentials"
	body := fmt.Sprintf(
		"Hello %s,\r\n\r\nYour temporary password is: %s\r\nPlease change it after your first login.\r\n",
		name, password,
	)
	return m.send(to, subject, body)
}

func (m *Mailer) send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	msg.WriteString(body)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
