package util

import (
	"fmt"
	"net/smtp"

	"github.com/interviewmate/server/internal/config"
)

// SendEmail delivers a plain-text email through the configured SMTP
// relay. Verification and password-reset mails go through here.
func SendEmail(to, subject, body string) error {
	cfg := config.LoadSMTPConfig()
	if cfg.Host == "" || cfg.User == "" || cfg.Pass == "" {
		return fmt.Errorf("SMTP not configured")
	}

	addr := cfg.Host + ":" + cfg.Port
	auth := smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	msg := []byte("From: \"InterviewMate\" <" + cfg.From + ">\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"\r\n" + body + "\r\n")
	return smtp.SendMail(addr, auth, cfg.From, []string{to}, msg)
}
