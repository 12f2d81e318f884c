// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package redisstore is a durable store.Store backed by Redis. Pending
// records expire natively through PEXPIREAT.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"codeberg.org/oliverandrich/ui2code/internal/models"
	"codeberg.org/oliverandrich/ui2code/internal/store"
	"github.com/redis/go-redis/v9"
)

const (
	usersKey          = "users"
	pendingSignupsKey = "pending_signups"
	pendingLoginsKey  = "pending_logins"
	sessionsKey       = "sessions"
)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Store implements store.Store on top of a redis.UniversalClient.
type Store struct {
	rdb    redis.UniversalClient
	prefix string
}

var _ store.Store = (*Store)(nil)

// Open connects to Redis and verifies the connection with PING.
func Open(ctx context.Context, opts Options) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return New(rdb, opts.Prefix), nil
}

// New wraps an existing client. An empty prefix defaults to "ui2code".
func New(rdb redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "ui2code"
	}
	return &Store{rdb: rdb, prefix: prefix}
}

// Close closes the client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) key(collection, id string) string {
	return s.prefix + ":" + collection + ":" + id
}

// Records carry every field. The models hide secrets from JSON responses.
type userRecord struct {
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	Salt         string    `json:"salt"`
	CreatedAt    time.Time `json:"createdAt"`
}

type sessionRecord struct {
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Store) GetUser(ctx context.Context, email string) (*models.User, error) {
	var rec userRecord
	if err := s.load(ctx, s.key(usersKey, email), &rec); err != nil {
		return nil, err
	}
	return &models.User{
		Email:        rec.Email,
		PasswordHash: rec.PasswordHash,
		Salt:         rec.Salt,
		CreatedAt:    rec.CreatedAt,
	}, nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.insert(ctx, s.key(usersKey, user.Email), userRecord{
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Salt:         user.Salt,
		CreatedAt:    user.CreatedAt.UTC(),
	})
}

func (s *Store) UpsertPendingSignup(ctx context.Context, pending *models.PendingSignup) error {
	return s.upsertExpiring(ctx, s.key(pendingSignupsKey, pending.Email), pending, pending.ExpiresAt)
}

func (s *Store) GetPendingSignup(ctx context.Context, email string) (*models.PendingSignup, error) {
	var p models.PendingSignup
	if err := s.load(ctx, s.key(pendingSignupsKey, email), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) DeletePendingSignup(ctx context.Context, email string) error {
	return s.del(ctx, s.key(pendingSignupsKey, email))
}

func (s *Store) UpsertPendingLogin(ctx context.Context, pending *models.PendingLogin) error {
	return s.upsertExpiring(ctx, s.key(pendingLoginsKey, pending.Email), pending, pending.ExpiresAt)
}

func (s *Store) GetPendingLogin(ctx context.Context, email string) (*models.PendingLogin, error) {
	var p models.PendingLogin
	if err := s.load(ctx, s.key(pendingLoginsKey, email), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) DeletePendingLogin(ctx context.Context, email string) error {
	return s.del(ctx, s.key(pendingLoginsKey, email))
}

func (s *Store) CreateSession(ctx context.Context, session *models.Session) error {
	return s.insert(ctx, s.key(sessionsKey, session.Token), sessionRecord{
		Email:     session.Email,
		CreatedAt: session.CreatedAt.UTC(),
	})
}

func (s *Store) GetSession(ctx context.Context, token string) (*models.Session, error) {
	var rec sessionRecord
	if err := s.load(ctx, s.key(sessionsKey, token), &rec); err != nil {
		return nil, err
	}
	return &models.Session{Token: token, Email: rec.Email, CreatedAt: rec.CreatedAt}, nil
}

func (s *Store) load(ctx context.Context, key string, dst any) error {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return store.ErrNotFound
	}
	if err != nil {
		return store.Unavailable(err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// insert writes v only if key is absent.
func (s *Store) insert(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	ok, err := s.rdb.SetNX(ctx, key, raw, 0).Result()
	if err != nil {
		return store.Unavailable(err)
	}
	if !ok {
		return store.ErrConflict
	}
	return nil
}

func (s *Store) upsertExpiring(ctx context.Context, key string, v any, expiresAt time.Time) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, raw, 0)
		pipe.PExpireAt(ctx, key, expiresAt)
		return nil
	})
	return store.Unavailable(err)
}

func (s *Store) del(ctx context.Context, key string) error {
	return store.Unavailable(s.rdb.Del(ctx, key).Err())
}
