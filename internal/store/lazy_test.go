// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package store_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"codeberg.org/oliverandrich/ui2code/internal/models"
	"codeberg.org/oliverandrich/ui2code/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLazy_DefersConnect(t *testing.T) {
	var calls atomic.Int32
	lazy := store.NewLazy(func(context.Context) (store.Store, error) {
		calls.Add(1)
		return store.NewMemory(), nil
	})

	assert.Equal(t, int32(0), calls.Load())

	_, err := lazy.GetUser(context.Background(), "a@x.com")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = lazy.GetUser(context.Background(), "a@x.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	assert.Equal(t, int32(1), calls.Load(), "connection is reused")
}

func TestLazy_UnavailableUntilConnected(t *testing.T) {
	var up atomic.Bool
	lazy := store.NewLazy(func(context.Context) (store.Store, error) {
		if !up.Load() {
			return nil, errors.New("connection refused")
		}
		return store.NewMemory(), nil
	})
	ctx := context.Background()

	err := lazy.CreateUser(ctx, &models.User{Email: "a@x.com"})
	require.ErrorIs(t, err, store.ErrUnavailable)
	assert.Contains(t, err.Error(), "connection refused")

	up.Store(true)

	require.NoError(t, lazy.CreateUser(ctx, &models.User{Email: "a@x.com"}))
	_, err = lazy.GetUser(ctx, "a@x.com")
	require.NoError(t, err)
}

type countingPurger struct {
	store.Store
	calls atomic.Int32
}

func (p *countingPurger) PurgeExpired(context.Context, time.Time) (int64, error) {
	p.calls.Add(1)
	return 1, nil
}

func TestLazy_PurgeExpired(t *testing.T) {
	t.Run("forwards to purging backends", func(t *testing.T) {
		backend := &countingPurger{Store: store.NewMemory()}
		lazy := store.NewLazy(func(context.Context) (store.Store, error) { return backend, nil })

		n, err := lazy.PurgeExpired(context.Background(), time.Now())

		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		assert.Equal(t, int32(1), backend.calls.Load())
	})

	t.Run("no-op for backends with native expiry", func(t *testing.T) {
		lazy := store.NewLazy(func(context.Context) (store.Store, error) { return store.NewMemory(), nil })

		n, err := lazy.PurgeExpired(context.Background(), time.Now())

		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestRunPurger_StopsWithContext(t *testing.T) {
	backend := &countingPurger{Store: store.NewMemory()}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		store.RunPurger(ctx, backend, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return backend.calls.Load() > 0 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("purger did not stop")
	}
}

func TestUnavailable(t *testing.T) {
	assert.NoError(t, store.Unavailable(nil))

	err := store.Unavailable(errors.New("boom"))
	assert.ErrorIs(t, err, store.ErrUnavailable)

	assert.Equal(t, store.ErrUnavailable, store.Unavailable(store.ErrUnavailable))
}
