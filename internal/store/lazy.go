// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package store

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"codeberg.org/oliverandrich/ui2code/internal/models"
)

// Opener connects to a durable backend.
type Opener func(ctx context.Context) (Store, error)

// Lazy connects to its backend on first use and reuses the connection for
// all later calls. While the backend cannot be reached every call fails with
// ErrUnavailable and the next call tries to connect again.
type Lazy struct {
	open Opener

	mu      sync.Mutex
	backend Store
}

var (
	_ Store  = (*Lazy)(nil)
	_ Purger = (*Lazy)(nil)
)

// NewLazy wraps open. No connection is made until the first call.
func NewLazy(open Opener) *Lazy {
	return &Lazy{open: open}
}

func (l *Lazy) get(ctx context.Context) (Store, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.backend != nil {
		return l.backend, nil
	}

	backend, err := l.open(ctx)
	if err != nil {
		return nil, Unavailable(err)
	}
	slog.Info("durable_store_connected")
	l.backend = backend
	return backend, nil
}

// Close releases the underlying backend if it was opened and implements io.Closer.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if c, ok := l.backend.(io.Closer); ok {
		l.backend = nil
		return c.Close()
	}
	return nil
}

func (l *Lazy) GetUser(ctx context.Context, email string) (*models.User, error) {
	s, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, email)
}

func (l *Lazy) CreateUser(ctx context.Context, user *models.User) error {
	s, err := l.get(ctx)
	if err != nil {
		return err
	}
	return s.CreateUser(ctx, user)
}

func (l *Lazy) UpsertPendingSignup(ctx context.Context, pending *models.PendingSignup) error {
	s, err := l.get(ctx)
	if err != nil {
		return err
	}
	return s.UpsertPendingSignup(ctx, pending)
}

func (l *Lazy) GetPendingSignup(ctx context.Context, email string) (*models.PendingSignup, error) {
	s, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return s.GetPendingSignup(ctx, email)
}

func (l *Lazy) DeletePendingSignup(ctx context.Context, email string) error {
	s, err := l.get(ctx)
	if err != nil {
		return err
	}
	return s.DeletePendingSignup(ctx, email)
}

func (l *Lazy) UpsertPendingLogin(ctx context.Context, pending *models.PendingLogin) error {
	s, err := l.get(ctx)
	if err != nil {
		return err
	}
	return s.UpsertPendingLogin(ctx, pending)
}

func (l *Lazy) GetPendingLogin(ctx context.Context, email string) (*models.PendingLogin, error) {
	s, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return s.GetPendingLogin(ctx, email)
}

func (l *Lazy) DeletePendingLogin(ctx context.Context, email string) error {
	s, err := l.get(ctx)
	if err != nil {
		return err
	}
	return s.DeletePendingLogin(ctx, email)
}

func (l *Lazy) CreateSession(ctx context.Context, session *models.Session) error {
	s, err := l.get(ctx)
	if err != nil {
		return err
	}
	return s.CreateSession(ctx, session)
}

func (l *Lazy) GetSession(ctx context.Context, token string) (*models.Session, error) {
	s, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return s.GetSession(ctx, token)
}

// PurgeExpired forwards to the backend when it needs explicit purging.
func (l *Lazy) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	s, err := l.get(ctx)
	if err != nil {
		return 0, err
	}
	if p, ok := s.(Purger); ok {
		return p.PurgeExpired(ctx, now)
	}
	return 0, nil
}

// RunPurger calls p.PurgeExpired every interval until ctx is done.
func RunPurger(ctx context.Context, p Purger, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := p.PurgeExpired(ctx, now)
			if err != nil {
				slog.Warn("purge_expired_failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Debug("purge_expired", "removed", n)
			}
		}
	}
}
