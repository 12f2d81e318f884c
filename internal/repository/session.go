// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"codeberg.org/oliverandrich/ui2code/internal/models"
)

// CreateSession inserts a session keyed by its token.
func (r *Repository) CreateSession(ctx context.Context, s *models.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (token, email, created_at) VALUES (?, ?, ?)`,
		s.Token, s.Email, s.CreatedAt.UTC())
	return wrapError(err)
}

// GetSession retrieves a session by token.
func (r *Repository) GetSession(ctx context.Context, token string) (*models.Session, error) {
	var s models.Session
	err := r.db.GetContext(ctx, &s,
		`SELECT token, email, created_at FROM sessions WHERE token = ?`, token)
	if err != nil {
		return nil, wrapError(err)
	}
	return &s, nil
}
