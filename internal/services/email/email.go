// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package email delivers one-time passcodes.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"codeberg.org/oliverandrich/ui2code/internal/config"
	"codeberg.org/oliverandrich/ui2code/internal/i18n"
	"github.com/google/uuid"
	"github.com/wneessen/go-mail"
)

// Purpose selects the subject line of an OTP email.
type Purpose string

const (
	PurposeSignup Purpose = "signup"
	PurposeLogin  Purpose = "login"
	PurposeTest   Purpose = "test"
)

// CodeValidity is the lifetime mentioned in the message body.
const CodeValidity = 10 * time.Minute

// Receipt describes the outcome of a send.
type Receipt struct {
	MessageID  string
	PreviewURL string
	// Delivered is false when the code was only logged.
	Delivered bool
}

// Mailer sends OTP emails.
type Mailer interface {
	SendOTP(ctx context.Context, to, code string, purpose Purpose) (Receipt, error)
}

// New returns an SMTP mailer when a host is configured and a LogMailer
// otherwise.
func New(cfg *config.SMTPConfig) (Mailer, error) {
	if !cfg.Enabled() {
		slog.Warn("smtp_not_configured", "hint", "codes are logged and echoed in responses")
		return LogMailer{}, nil
	}
	return NewSMTPMailer(cfg)
}

// SMTPMailer sends mail through an SMTP server using go-mail.
type SMTPMailer struct {
	cfg *config.SMTPConfig
}

// NewSMTPMailer creates a new SMTP mailer.
func NewSMTPMailer(cfg *config.SMTPConfig) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}
	return &SMTPMailer{cfg: cfg}, nil
}

// SendOTP composes and sends the code to a single recipient.
func (s *SMTPMailer) SendOTP(ctx context.Context, to, code string, purpose Purpose) (Receipt, error) {
	msg, err := s.Compose(ctx, to, code, purpose)
	if err != nil {
		return Receipt{}, err
	}

	client, err := mail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return Receipt{}, fmt.Errorf("creating mail client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return Receipt{}, fmt.Errorf("sending email: %w", err)
	}

	id := strings.Trim(msg.GetMessageID(), "<>")
	return Receipt{
		MessageID:  id,
		PreviewURL: s.previewURL(id),
		Delivered:  true,
	}, nil
}

// Compose builds the localized message without sending it.
func (s *SMTPMailer) Compose(ctx context.Context, to, code string, purpose Purpose) (*mail.Msg, error) {
	msg := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(s.cfg.From); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("setting to address: %w", err)
	}

	data := map[string]any{
		"Code":    code,
		"Minutes": int(CodeValidity / time.Minute),
	}
	msg.SetMessageID()
	msg.Subject(Subject(ctx, purpose))
	msg.SetBodyString(mail.TypeTextPlain, i18n.TData(ctx, "email_otp_text", data))
	msg.AddAlternativeString(mail.TypeTextHTML, fmt.Sprintf(
		`<div style="font-family:Inter,Arial,sans-serif"><h2>%s</h2><p>%s</p></div>`,
		i18n.T(ctx, "email_otp_heading"),
		i18n.TData(ctx, "email_otp_html", data),
	))

	return msg, nil
}

func (s *SMTPMailer) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTimeout(15 * time.Second),
	}

	// Use implicit TLS (SSL) for port 465, STARTTLS for others
	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	return opts
}

func (s *SMTPMailer) previewURL(id string) string {
	if s.cfg.PreviewURL == "" || id == "" {
		return ""
	}
	return strings.ReplaceAll(s.cfg.PreviewURL, "{id}", id)
}

// Subject returns the localized subject line for purpose.
func Subject(ctx context.Context, purpose Purpose) string {
	switch purpose {
	case PurposeSignup:
		return i18n.T(ctx, "email_otp_subject_signup")
	case PurposeLogin:
		return i18n.T(ctx, "email_otp_subject_login")
	default:
		return i18n.T(ctx, "email_otp_subject_test")
	}
}

// LogMailer writes codes to the log instead of sending them. It is used
// when no SMTP host is configured.
type LogMailer struct{}

func (LogMailer) SendOTP(ctx context.Context, to, code string, purpose Purpose) (Receipt, error) {
	id := uuid.NewString()
	slog.InfoContext(ctx, "otp_email_logged",
		"to", to,
		"purpose", purpose,
		"code", code,
		"message_id", id,
	)
	return Receipt{MessageID: id}, nil
}
