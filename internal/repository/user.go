// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"codeberg.org/oliverandrich/ui2code/internal/models"
)

// GetUser retrieves a user by email.
func (r *Repository) GetUser(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user,
		`SELECT email, password_hash, salt, created_at FROM users WHERE email = ?`, email)
	if err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// CreateUser inserts a user. A second user with the same email is a conflict.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, salt, created_at) VALUES (?, ?, ?, ?)`,
		user.Email, user.PasswordHash, user.Salt, user.CreatedAt.UTC())
	return wrapError(err)
}
