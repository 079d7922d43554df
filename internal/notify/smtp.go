package notify

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"
)

// SMTPSender delivers mail through an SMTP relay. It satisfies
// common.EmailSender.
type SMTPSender struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Send builds and delivers one HTML message.
func (s SMTPSender) Send(to, subject, html string) error {
	if s.Host == "" || s.From == "" {
		return fmt.Errorf("smtp sender not configured")
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)
	d := gomail.NewDialer(s.Host, s.Port, s.Username, s.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
