// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"
	"time"

	"codeberg.org/oliverandrich/ui2code/internal/models"
	"codeberg.org/oliverandrich/ui2code/internal/store"
	"codeberg.org/oliverandrich/ui2code/internal/store/storetest"
	"codeberg.org/oliverandrich/ui2code/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	assert.NotNil(t, repo)
}

func TestRepository_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		_, repo := testutil.NewTestDB(t)
		return repo
	})
}

func TestCreateUser_DuplicateKeepsOriginal(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	testutil.NewTestUser(t, repo, "a@x.com")

	err := repo.CreateUser(ctx, &models.User{Email: "a@x.com", PasswordHash: "ff", Salt: "ff", CreatedAt: time.Now()})

	require.ErrorIs(t, err, store.ErrConflict)
	got, err := repo.GetUser(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "00", got.PasswordHash)
}

func TestUpsertPendingLogin_StoresUTC(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	loc := time.FixedZone("CEST", 2*60*60)
	expires := time.Date(2030, 1, 2, 15, 4, 5, 0, loc)

	require.NoError(t, repo.UpsertPendingLogin(ctx, &models.PendingLogin{
		Email: "a@x.com", OTP: "123456", ExpiresAt: expires,
	}))

	got, err := repo.GetPendingLogin(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, expires.Equal(got.ExpiresAt))
}

func TestPurgeExpired(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.UpsertPendingSignup(ctx, &models.PendingSignup{
		Email: "old@x.com", PasswordHash: "h", Salt: "s", OTP: "111111", ExpiresAt: now.Add(-time.Minute),
	}))
	require.NoError(t, repo.UpsertPendingSignup(ctx, &models.PendingSignup{
		Email: "new@x.com", PasswordHash: "h", Salt: "s", OTP: "222222", ExpiresAt: now.Add(time.Minute),
	}))
	require.NoError(t, repo.UpsertPendingLogin(ctx, &models.PendingLogin{
		Email: "old@x.com", OTP: "333333", ExpiresAt: now.Add(-time.Hour),
	}))

	n, err := repo.PurgeExpired(ctx, now)

	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = repo.GetPendingSignup(ctx, "old@x.com")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = repo.GetPendingLogin(ctx, "old@x.com")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = repo.GetPendingSignup(ctx, "new@x.com")
	require.NoError(t, err)
}

func TestPurgeExpired_Empty(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	n, err := repo.PurgeExpired(context.Background(), time.Now())

	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestClosedDatabase_IsUnavailable(t *testing.T) {
	db, repo := testutil.NewTestDB(t)
	require.NoError(t, db.Close())

	_, err := repo.GetUser(context.Background(), "a@x.com")

	require.ErrorIs(t, err, store.ErrUnavailable)
}
