// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth implements the email OTP signup and login flows on top of a
// durable store with a volatile fallback.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"codeberg.org/oliverandrich/ui2code/internal/metrics"
	"codeberg.org/oliverandrich/ui2code/internal/models"
	"codeberg.org/oliverandrich/ui2code/internal/services/email"
	"codeberg.org/oliverandrich/ui2code/internal/services/session"
	"codeberg.org/oliverandrich/ui2code/internal/store"
	"github.com/gorilla/securecookie"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUserExists         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPendingNotFound    = errors.New("no pending request")
	ErrCodeExpired        = errors.New("code expired")
	ErrInvalidCode        = errors.New("incorrect code")
	ErrSessionNotFound    = errors.New("session not found")
	ErrDelivery           = errors.New("email delivery failed")
)

// Options configures a Service.
type Options struct {
	// Durable is tried first. Nil runs every operation on Volatile.
	Durable  store.Store
	Volatile store.Store
	Mailer   email.Mailer
	Tokens   *TokenCodec
	// ExposeOTP echoes codes in responses.
	ExposeOTP bool
	Metrics   *metrics.Collector
	Now       func() time.Time
}

type Service struct {
	durable   store.Store
	volatile  store.Store
	mailer    email.Mailer
	tokens    *TokenCodec
	exposeOTP bool
	metrics   *metrics.Collector
	now       func() time.Time
}

func NewService(opts Options) *Service {
	s := &Service{
		durable:   opts.Durable,
		volatile:  opts.Volatile,
		mailer:    opts.Mailer,
		tokens:    opts.Tokens,
		exposeOTP: opts.ExposeOTP,
		metrics:   opts.Metrics,
		now:       opts.Now,
	}
	if s.volatile == nil {
		s.volatile = store.NewMemory()
	}
	if s.mailer == nil {
		s.mailer = email.LogMailer{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.tokens == nil {
		s.tokens = NewTokenCodec(securecookie.GenerateRandomKey(32))
	}
	return s
}

// Result is the caller-visible outcome of a successful step.
type Result struct {
	PendingToken string
	Token        string
	PreviewURL   string
	DevOTP       string
	// Fallback is set when the volatile store served the request.
	Fallback bool
}

// Signup starts a registration: it stores a pending signup, mails the code
// and returns a pending token carrying the same state.
func (s *Service) Signup(ctx context.Context, emailAddr, password string) (res *Result, err error) {
	defer func() { s.observe("signup", err) }()

	if err := validateCredentials(emailAddr, password); err != nil {
		return nil, err
	}

	hash, salt, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	otp, err := GenerateOTP()
	if err != nil {
		return nil, err
	}
	pending := &models.PendingSignup{
		Email:        emailAddr,
		PasswordHash: hash,
		Salt:         salt,
		OTP:          otp,
		ExpiresAt:    s.now().Add(OTPTTL).UTC(),
	}

	fallback, err := s.withStore(ctx, "signup", func(st store.Store, _ bool) error {
		_, err := st.GetUser(ctx, emailAddr)
		switch {
		case err == nil:
			return ErrUserExists
		case !errors.Is(err, store.ErrNotFound):
			return err
		}
		return st.UpsertPendingSignup(ctx, pending)
	})
	if err != nil {
		return nil, err
	}

	res = &Result{
		PendingToken: s.tokens.Make(NewPendingPayload(pending)),
		Fallback:     fallback,
	}
	if err := s.deliver(ctx, res, emailAddr, otp, email.PurposeSignup); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "signup_pending_created", "email", emailAddr, "fallback", fallback)
	return res, nil
}

// VerifySignup completes a registration. When the durable store is down the
// pending token stands in for the stored record.
func (s *Service) VerifySignup(ctx context.Context, emailAddr, otp, pendingToken string) (res *Result, err error) {
	defer func() { s.observe("verify_signup", err) }()

	if err := validateCode(emailAddr, otp); err != nil {
		return nil, err
	}

	fallback, err := s.withStore(ctx, "verify_signup", func(st store.Store, volatile bool) error {
		var pending *models.PendingSignup
		if p, ok := s.tokens.Parse(pendingToken); volatile && ok && p.Email == emailAddr {
			pending = p.PendingSignup()
		} else {
			p, err := st.GetPendingSignup(ctx, emailAddr)
			if err != nil {
				return notFound(err, ErrPendingNotFound)
			}
			pending = p
		}

		if err := checkCode(pending.OTP, pending.Expired(s.now()), otp); err != nil {
			return err
		}

		err := st.CreateUser(ctx, &models.User{
			Email:        emailAddr,
			PasswordHash: pending.PasswordHash,
			Salt:         pending.Salt,
			CreatedAt:    s.now().UTC(),
		})
		if errors.Is(err, store.ErrConflict) {
			return ErrUserExists
		}
		if err != nil {
			return err
		}
		return st.DeletePendingSignup(ctx, emailAddr)
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "signup_verified", "email", emailAddr, "fallback", fallback)
	return &Result{Fallback: fallback}, nil
}

// Login checks the password and mails a login code.
func (s *Service) Login(ctx context.Context, emailAddr, password string) (res *Result, err error) {
	defer func() { s.observe("login", err) }()

	if err := validateCredentials(emailAddr, password); err != nil {
		return nil, err
	}

	otp, err := GenerateOTP()
	if err != nil {
		return nil, err
	}

	fallback, err := s.withStore(ctx, "login", func(st store.Store, _ bool) error {
		user, err := st.GetUser(ctx, emailAddr)
		if err != nil {
			return notFound(err, ErrUserNotFound)
		}
		if !VerifyPassword(password, user.PasswordHash, user.Salt) {
			slog.WarnContext(ctx, "login_failed", "email", emailAddr, "reason", "invalid_password")
			return ErrInvalidCredentials
		}
		return st.UpsertPendingLogin(ctx, &models.PendingLogin{
			Email:     emailAddr,
			OTP:       otp,
			ExpiresAt: s.now().Add(OTPTTL).UTC(),
		})
	})
	if err != nil {
		return nil, err
	}

	res = &Result{Fallback: fallback}
	if err := s.deliver(ctx, res, emailAddr, otp, email.PurposeLogin); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "login_pending_created", "email", emailAddr, "fallback", fallback)
	return res, nil
}

// VerifyLogin redeems a login code for a new session token.
func (s *Service) VerifyLogin(ctx context.Context, emailAddr, otp string) (res *Result, err error) {
	defer func() { s.observe("verify_login", err) }()

	if err := validateCode(emailAddr, otp); err != nil {
		return nil, err
	}

	var token string
	fallback, err := s.withStore(ctx, "verify_login", func(st store.Store, _ bool) error {
		pending, err := st.GetPendingLogin(ctx, emailAddr)
		if err != nil {
			return notFound(err, ErrPendingNotFound)
		}
		if err := checkCode(pending.OTP, pending.Expired(s.now()), otp); err != nil {
			return err
		}
		if err := st.DeletePendingLogin(ctx, emailAddr); err != nil {
			return err
		}

		sess, err := session.New(emailAddr, s.now())
		if err != nil {
			return err
		}
		if err := st.CreateSession(ctx, sess); err != nil {
			return err
		}
		token = sess.Token
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "login_success", "email", emailAddr, "fallback", fallback)
	return &Result{Token: token, Fallback: fallback}, nil
}

// Authenticate resolves a bearer token to its session.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.Session, bool, error) {
	if token == "" {
		return nil, false, ErrSessionNotFound
	}
	var sess *models.Session
	fallback, err := s.withStore(ctx, "authenticate", func(st store.Store, _ bool) error {
		var err error
		sess, err = st.GetSession(ctx, token)
		return notFound(err, ErrSessionNotFound)
	})
	if err != nil {
		return nil, fallback, err
	}
	return sess, fallback, nil
}

// SendTestCode mails a code without creating any pending state.
func (s *Service) SendTestCode(ctx context.Context, to, otp string) (*Result, error) {
	if !validEmail(to) {
		return nil, fmt.Errorf("%w: recipient", ErrInvalidInput)
	}
	if otp == "" {
		var err error
		if otp, err = GenerateOTP(); err != nil {
			return nil, err
		}
	}
	res := &Result{}
	if err := s.deliver(ctx, res, to, otp, email.PurposeTest); err != nil {
		return nil, err
	}
	return res, nil
}

// withStore runs fn on the durable store. If that fails with
// store.ErrUnavailable the whole step runs again on the volatile store.
func (s *Service) withStore(ctx context.Context, op string, fn func(st store.Store, volatile bool) error) (bool, error) {
	if s.durable != nil {
		err := fn(s.durable, false)
		if !errors.Is(err, store.ErrUnavailable) {
			return false, err
		}
		slog.WarnContext(ctx, "durable_store_unavailable", "op", op, "error", err)
	}
	s.metrics.RecordFallback(op)
	return true, fn(s.volatile, true)
}

// notFound replaces store.ErrNotFound with the flow's own error.
func notFound(err, replacement error) error {
	if errors.Is(err, store.ErrNotFound) {
		return replacement
	}
	return err
}

func checkCode(want string, expired bool, got string) error {
	if expired {
		return ErrCodeExpired
	}
	if subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
		return ErrInvalidCode
	}
	return nil
}

func (s *Service) deliver(ctx context.Context, res *Result, to, otp string, purpose email.Purpose) error {
	receipt, err := s.mailer.SendOTP(ctx, to, otp, purpose)
	if err != nil {
		slog.ErrorContext(ctx, "otp_delivery_failed", "email", to, "purpose", purpose, "error", err)
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	res.PreviewURL = receipt.PreviewURL
	if s.exposeOTP || !receipt.Delivered || receipt.PreviewURL != "" {
		res.DevOTP = otp
	}
	return nil
}

func (s *Service) observe(flow string, err error) {
	s.metrics.RecordAuth(flow, Outcome(err))
}

// Outcome names the class of err for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrUserExists):
		return "conflict"
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrPendingNotFound),
		errors.Is(err, ErrSessionNotFound):
		return "not_found"
	case errors.Is(err, ErrCodeExpired):
		return "expired"
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInvalidCode):
		return "unauthorized"
	case errors.Is(err, ErrDelivery):
		return "delivery_failed"
	}
	return "error"
}

func validateCredentials(emailAddr, password string) error {
	if !validEmail(emailAddr) {
		return fmt.Errorf("%w: email", ErrInvalidInput)
	}
	if len([]rune(password)) < MinPasswordLength {
		return fmt.Errorf("%w: password", ErrInvalidInput)
	}
	return nil
}

func validateCode(emailAddr, otp string) error {
	if !validEmail(emailAddr) {
		return fmt.Errorf("%w: email", ErrInvalidInput)
	}
	if len([]rune(otp)) != OTPLength {
		return fmt.Errorf("%w: otp", ErrInvalidInput)
	}
	return nil
}

// validEmail accepts a bare address only, no display name.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
