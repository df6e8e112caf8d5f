package services

import (
	"log"
	"os"
	"strconv"

	gomail "gopkg.in/gomail.v2"
)

// EmailService sends OTP mails over SMTP. When SMTP credentials are not
// configured it logs the message instead of sending. Absence of a real
// transport is a valid operating mode for local development, never an
// error.
type EmailService struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewEmailService creates an email service from SMTP_* environment
// variables
func NewEmailService() *EmailService {
	port := 587
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			port = parsed
		}
	}

	username := os.Getenv("SMTP_USER")
	from := os.Getenv("EMAIL_FROM")
	if from == "" {
		from = username
	}
	if from == "" {
		from = "no-reply@example.com"
	}

	return &EmailService{
		host:     os.Getenv("SMTP_HOST"),
		port:     port,
		username: username,
		password: os.Getenv("SMTP_PASS"),
		from:     from,
	}
}

// Configured reports whether a real SMTP transport is available
func (e *EmailService) Configured() bool {
	return e.host != "" && e.username != "" && e.password != ""
}

// Send delivers one message. Returns whether delivery succeeded;
// transport failures are logged, not propagated.
func (e *EmailService) Send(to, subject, body string) bool {
	if to == "" {
		return false
	}

	if !e.Configured() {
		log.Printf("[DEV EMAIL] to=%s subject=%s body=%s", to, subject, body)
		return true
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", e.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	dialer := gomail.NewDialer(e.host, e.port, e.username, e.password)
	if err := dialer.DialAndSend(msg); err != nil {
		log.Printf("❌ Email send failed: %v", err)
		return false
	}

	log.Printf("✅ Email sent to %s", to)
	return true
}
