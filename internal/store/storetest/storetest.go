// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package storetest holds the behavior every store.Store backend must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"codeberg.org/oliverandrich/ui2code/internal/models"
	"codeberg.org/oliverandrich/ui2code/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises s against the store.Store contract. newStore must return an
// empty store for every call.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Helper()

	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("pending signups", func(t *testing.T) { testPendingSignups(t, newStore(t)) })
	t.Run("pending logins", func(t *testing.T) { testPendingLogins(t, newStore(t)) })
	t.Run("sessions", func(t *testing.T) { testSessions(t, newStore(t)) })
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.GetUser(ctx, "a@x.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	user := &models.User{
		Email:        "a@x.com",
		PasswordHash: "hash",
		Salt:         "salt",
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, s.CreateUser(ctx, user))

	got, err := s.GetUser(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got.Email)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.Equal(t, "salt", got.Salt)
	assert.WithinDuration(t, user.CreatedAt, got.CreatedAt, time.Millisecond)

	dup := *user
	dup.PasswordHash = "other"
	require.ErrorIs(t, s.CreateUser(ctx, &dup), store.ErrConflict)

	got, err = s.GetUser(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "hash", got.PasswordHash, "existing user must not be overwritten")
}

func testPendingSignups(t *testing.T, s store.Store) {
	ctx := context.Background()
	expiresAt := time.Now().Add(10 * time.Minute).UTC().Truncate(time.Millisecond)

	_, err := s.GetPendingSignup(ctx, "a@x.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	first := &models.PendingSignup{Email: "a@x.com", PasswordHash: "h1", Salt: "s1", OTP: "111111", ExpiresAt: expiresAt}
	require.NoError(t, s.UpsertPendingSignup(ctx, first))

	second := &models.PendingSignup{Email: "a@x.com", PasswordHash: "h2", Salt: "s2", OTP: "222222", ExpiresAt: expiresAt}
	require.NoError(t, s.UpsertPendingSignup(ctx, second))

	got, err := s.GetPendingSignup(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "222222", got.OTP, "upsert replaces the earlier record")
	assert.Equal(t, "h2", got.PasswordHash)
	assert.Equal(t, "s2", got.Salt)
	assert.WithinDuration(t, expiresAt, got.ExpiresAt, time.Millisecond)

	require.NoError(t, s.DeletePendingSignup(ctx, "a@x.com"))
	_, err = s.GetPendingSignup(ctx, "a@x.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.DeletePendingSignup(ctx, "missing@x.com"), "delete is idempotent")
}

func testPendingLogins(t *testing.T, s store.Store) {
	ctx := context.Background()
	expiresAt := time.Now().Add(10 * time.Minute).UTC().Truncate(time.Millisecond)

	_, err := s.GetPendingLogin(ctx, "b@x.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.UpsertPendingLogin(ctx, &models.PendingLogin{Email: "b@x.com", OTP: "111111", ExpiresAt: expiresAt}))
	require.NoError(t, s.UpsertPendingLogin(ctx, &models.PendingLogin{Email: "b@x.com", OTP: "333333", ExpiresAt: expiresAt}))

	got, err := s.GetPendingLogin(ctx, "b@x.com")
	require.NoError(t, err)
	assert.Equal(t, "333333", got.OTP)
	assert.WithinDuration(t, expiresAt, got.ExpiresAt, time.Millisecond)

	require.NoError(t, s.DeletePendingLogin(ctx, "b@x.com"))
	_, err = s.GetPendingLogin(ctx, "b@x.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testSessions(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.GetSession(ctx, "token-1")
	require.ErrorIs(t, err, store.ErrNotFound)

	sess := &models.Session{Token: "token-1", Email: "c@x.com", CreatedAt: time.Now().UTC().Truncate(time.Millisecond)}
	require.NoError(t, s.CreateSession(ctx, sess))

	got, err := s.GetSession(ctx, "token-1")
	require.NoError(t, err)
	assert.Equal(t, "token-1", got.Token)
	assert.Equal(t, "c@x.com", got.Email)

	require.ErrorIs(t, s.CreateSession(ctx, &models.Session{Token: "token-1", Email: "d@x.com"}), store.ErrConflict)
}
