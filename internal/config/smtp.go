package config

import (
	"os"
	"sync"
)

type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

var (
	smtpConfig *SMTPConfig
	smtpOnce   sync.Once
)

func LoadSMTPConfig() *SMTPConfig {
	smtpOnce.Do(func() {
		smtpConfig = &SMTPConfig{
			Host: os.Getenv("SMTP_HOST"),
			Port: os.Getenv("SMTP_PORT"),
			User: os.Getenv("SMTP_USER"),
			Pass: os.Getenv("SMTP_PASS"),
			From: os.Getenv("SMTP_FROM"),
		}
		if smtpConfig.Port == "" {
			smtpConfig.Port = "587"
		}
		if smtpConfig.From == "" {
			smtpConfig.From = smtpConfig.User
		}
	})
	return smtpConfig
}
