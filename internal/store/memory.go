// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package store

import (
	"context"

	"codeberg.org/oliverandrich/ui2code/internal/models"
	gocache "github.com/patrickmn/go-cache"
)

// Memory is the volatile backend. Records live until the process exits and
// never expire on their own; callers check ExpiresAt when reading.
type Memory struct {
	users          *gocache.Cache
	pendingSignups *gocache.Cache
	pendingLogins  *gocache.Cache
	sessions       *gocache.Cache
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty volatile store.
func NewMemory() *Memory {
	return &Memory{
		users:          newCollection(),
		pendingSignups: newCollection(),
		pendingLogins:  newCollection(),
		sessions:       newCollection(),
	}
}

func newCollection() *gocache.Cache {
	// No default expiration and no janitor goroutine.
	return gocache.New(gocache.NoExpiration, 0)
}

func (m *Memory) GetUser(_ context.Context, email string) (*models.User, error) {
	return get[models.User](m.users, email)
}

func (m *Memory) CreateUser(_ context.Context, user *models.User) error {
	u := *user
	if err := m.users.Add(user.Email, &u, gocache.NoExpiration); err != nil {
		return ErrConflict
	}
	return nil
}

func (m *Memory) UpsertPendingSignup(_ context.Context, pending *models.PendingSignup) error {
	p := *pending
	m.pendingSignups.Set(pending.Email, &p, gocache.NoExpiration)
	return nil
}

func (m *Memory) GetPendingSignup(_ context.Context, email string) (*models.PendingSignup, error) {
	return get[models.PendingSignup](m.pendingSignups, email)
}

func (m *Memory) DeletePendingSignup(_ context.Context, email string) error {
	m.pendingSignups.Delete(email)
	return nil
}

func (m *Memory) UpsertPendingLogin(_ context.Context, pending *models.PendingLogin) error {
	p := *pending
	m.pendingLogins.Set(pending.Email, &p, gocache.NoExpiration)
	return nil
}

func (m *Memory) GetPendingLogin(_ context.Context, email string) (*models.PendingLogin, error) {
	return get[models.PendingLogin](m.pendingLogins, email)
}

func (m *Memory) DeletePendingLogin(_ context.Context, email string) error {
	m.pendingLogins.Delete(email)
	return nil
}

func (m *Memory) CreateSession(_ context.Context, session *models.Session) error {
	s := *session
	if err := m.sessions.Add(session.Token, &s, gocache.NoExpiration); err != nil {
		return ErrConflict
	}
	return nil
}

func (m *Memory) GetSession(_ context.Context, token string) (*models.Session, error) {
	return get[models.Session](m.sessions, token)
}

// get returns a copy so callers cannot mutate stored records.
func get[T any](c *gocache.Cache, key string) (*T, error) {
	v, ok := c.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	record, ok := v.(*T)
	if !ok {
		return nil, ErrNotFound
	}
	out := *record
	return &out, nil
}
