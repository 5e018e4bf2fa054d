/*
Package notify delivers operator notifications for scheduled runs.

The accrual scheduler mails its run summary to the HR operations inbox
so a silently failing nightly job is noticed. Delivery is best-effort:
a failed send is logged and never fails the run that produced it.
*/
package notify

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

// Mailer sends a run summary. Implementations must be safe for
// concurrent use.
type Mailer interface {
	SendRunSummary(subject, body string) error
}

// =============================================================================
// SMTP MAILER
// =============================================================================

// SMTPConfig carries mail delivery settings. Enabled is false when no
// SMTP host is configured; the server then wires a Nop mailer.
type SMTPConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       string
}

// SMTPConfigFromEnv reads SMTP_* environment variables. Absent
// variables keep their defaults; an empty SMTP_HOST disables mail.
func SMTPConfigFromEnv() SMTPConfig {
	host := getEnv("SMTP_HOST", "")
	return SMTPConfig{
		Enabled:  host != "",
		Host:     host,
		Port:     getEnvInt("SMTP_PORT", 587),
		User:     getEnv("SMTP_USER", ""),
		Password: getEnv("SMTP_PASSWORD", ""),
		From:     getEnv("EMAIL_FROM", "no-reply@example.com"),
		To:       getEnv("EMAIL_TO", ""),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// SMTPMailer delivers summaries over SMTP using gomail.
type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) SendRunSummary(subject, body string) error {
	if m.cfg.To == "" {
		return fmt.Errorf("no recipient configured (EMAIL_TO)")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", m.cfg.To)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.User, m.cfg.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send run summary: %w", err)
	}
	return nil
}

// =============================================================================
// NOP MAILER
// =============================================================================

// Nop discards every summary. Used when mail is not configured and in
// tests.
type Nop struct{}

func (Nop) SendRunSummary(string, string) error { return nil }
