// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package store defines the persistence contract shared by the durable and
// volatile backends.
package store

import (
	"context"
	"errors"
	"time"

	"codeberg.org/oliverandrich/ui2code/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a uniqueness constraint would be violated.
	ErrConflict = errors.New("record already exists")
	// ErrUnavailable wraps any infrastructure failure of a backend.
	// It is the only error that makes callers switch to another backend.
	ErrUnavailable = errors.New("store unavailable")
)

// Store is implemented by every backend. Pending records are upserted,
// users and sessions are insert-only.
type Store interface {
	GetUser(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error

	UpsertPendingSignup(ctx context.Context, pending *models.PendingSignup) error
	GetPendingSignup(ctx context.Context, email string) (*models.PendingSignup, error)
	DeletePendingSignup(ctx context.Context, email string) error

	UpsertPendingLogin(ctx context.Context, pending *models.PendingLogin) error
	GetPendingLogin(ctx context.Context, email string) (*models.PendingLogin, error)
	DeletePendingLogin(ctx context.Context, email string) error

	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, token string) (*models.Session, error)
}

// Purger is implemented by backends without native record expiry.
type Purger interface {
	// PurgeExpired deletes pending records that expired before now and
	// returns how many were removed.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Unavailable wraps err so that errors.Is(result, ErrUnavailable) holds.
func Unavailable(err error) error {
	if err == nil || errors.Is(err, ErrUnavailable) {
		return err
	}
	return errors.Join(ErrUnavailable, err)
}
