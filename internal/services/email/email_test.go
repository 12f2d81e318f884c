// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email_test

import (
	"bytes"
	"context"
	"net"
	"testing"

	"codeberg.org/oliverandrich/ui2code/internal/config"
	"codeberg.org/oliverandrich/ui2code/internal/i18n"
	"codeberg.org/oliverandrich/ui2code/internal/services/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func validSMTPConfig() *config.SMTPConfig {
	return &config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "testuser",
		Password: "testpass",
		From:     "noreply@example.com",
		FromName: "Test App",
		TLS:      true,
	}
}

func TestNewSMTPMailer(t *testing.T) {
	cfg := validSMTPConfig()

	svc, err := email.NewSMTPMailer(cfg)

	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestNewSMTPMailer_MissingHost(t *testing.T) {
	cfg := validSMTPConfig()
	cfg.Host = ""

	_, err := email.NewSMTPMailer(cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP host is required")
}

func TestNewSMTPMailer_MissingFrom(t *testing.T) {
	cfg := validSMTPConfig()
	cfg.From = ""

	_, err := email.NewSMTPMailer(cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP from address is required")
}

func TestNew_SelectsImplementation(t *testing.T) {
	m, err := email.New(&config.SMTPConfig{})
	require.NoError(t, err)
	assert.IsType(t, email.LogMailer{}, m)

	m, err = email.New(validSMTPConfig())
	require.NoError(t, err)
	assert.IsType(t, &email.SMTPMailer{}, m)
}

func TestLogMailer_SendOTP(t *testing.T) {
	receipt, err := email.LogMailer{}.SendOTP(context.Background(), "a@x.com", "123456", email.PurposeSignup)

	require.NoError(t, err)
	assert.False(t, receipt.Delivered)
	assert.NotEmpty(t, receipt.MessageID)
	assert.Empty(t, receipt.PreviewURL)
}

func TestCompose(t *testing.T) {
	require.NoError(t, i18n.Init())
	svc, err := email.NewSMTPMailer(validSMTPConfig())
	require.NoError(t, err)
	ctx := i18n.WithLocale(context.Background(), language.English)

	msg, err := svc.Compose(ctx, "a@x.com", "123456", email.PurposeLogin)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "Subject: Verify your login")
	assert.Contains(t, raw, "Your verification code is 123456")
	assert.Contains(t, raw, "text/html")
	assert.NotEmpty(t, msg.GetMessageID())
}

func TestCompose_InvalidRecipient(t *testing.T) {
	svc, err := email.NewSMTPMailer(validSMTPConfig())
	require.NoError(t, err)

	_, err = svc.Compose(context.Background(), "not an address", "123456", email.PurposeSignup)

	require.Error(t, err)
}

func TestSubject_German(t *testing.T) {
	require.NoError(t, i18n.Init())
	ctx := i18n.WithLocale(context.Background(), language.German)

	assert.Equal(t, "Bestätige deine Registrierung", email.Subject(ctx, email.PurposeSignup))
	assert.Equal(t, "Dein UI2Code-Testcode", email.Subject(ctx, email.PurposeTest))
}

func TestSendOTP_ServerUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	cfg := validSMTPConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = port
	cfg.TLS = false
	svc, err := email.NewSMTPMailer(cfg)
	require.NoError(t, err)

	_, err = svc.SendOTP(context.Background(), "a@x.com", "123456", email.PurposeSignup)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sending email")
}
