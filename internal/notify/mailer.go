package notify

import (
	"fmt"
	"net/smtp"

	"github.com/eugene953/TheraAid-Server/internal/config"
)

// Mailer sends a plain-text email
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer sends mail through a configured SMTP relay
type SMTPMailer struct {
	cfg config.MailerConfig
}

func NewSMTPMailer(cfg config.MailerConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	if m.cfg.Host == "" {
		return fmt.Errorf("smtp not configured")
	}

	addr := m.cfg.Host + ":" + m.cfg.Port
	msg := []byte("From: " + m.cfg.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"\r\n" +
		body + "\r\n")

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	return smtp.SendMail(addr, auth, m.cfg.From, []string{to}, msg)
}

// EmailSink emails winners when their auction is announced. Bid updates
// are websocket-only, matching the original notification behaviour.
type EmailSink struct {
	mailer Mailer
}

func NewEmailSink(mailer Mailer) *EmailSink {
	return &EmailSink{mailer: mailer}
}

func (s *EmailSink) Name() string { return "email" }

func (s *EmailSink) Deliver(event Event) error {
	if event.Type != EventAuctionWon {
		return nil
	}
	if event.Email == "" {
		return fmt.Errorf("winner %d has no email address", event.UserID)
	}

	subject := fmt.Sprintf("You won the auction for %q", event.AuctionTitle)
	return s.mailer.Send(event.Email, subject, event.Message)
}
