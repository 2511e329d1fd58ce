// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

// Package mail sends password-reset email over SMTP.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"

	"github.com/samber/oops"
)

// Config holds SMTP settings. An empty Host disables sending; the reset
// link is only logged, which is enough for development setups.
type Config struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
}

// Mailer implements the password-reset notifier over SMTP.
type Mailer struct {
	cfg    Config
	logger *slog.Logger
}

// NewMailer creates a Mailer. A nil logger discards output.
func NewMailer(cfg Config, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Mailer{cfg: cfg, logger: logger}
}

// Send delivers the reset link to toEmail. When no SMTP host is configured
// the link is logged instead so local setups still work end to end.
func (m *Mailer) Send(ctx context.Context, toEmail, resetLink string) error {
	if m.cfg.Host == "" {
		m.logger.InfoContext(ctx, "smtp disabled, logging reset link",
			"to", toEmail,
			"reset_link", resetLink)
		return nil
	}

	msg := buildResetMessage(m.cfg.From, toEmail, resetLink)
	addr := net.JoinHostPort(m.cfg.Host, fmt.Sprintf("%d", m.cfg.Port))

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{toEmail}, msg); err != nil {
		return oops.Code("NOTIFY_FAILED").
			With("operation", "send reset mail").
			Wrap(err)
	}

	m.logger.InfoContext(ctx, "reset mail sent", "to", toEmail)
	return nil
}

func buildResetMessage(from, to, resetLink string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	b.WriteString("Subject: Reset your DocVault password\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString("A password reset was requested for your DocVault account.\r\n\r\n")
	fmt.Fprintf(&b, "Reset link (valid for one hour): %s\r\n\r\n", resetLink)
	b.WriteString("If you did not request this, you can ignore this message.\r\n")
	return []byte(b.String())
}
