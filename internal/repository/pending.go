// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/oliverandrich/ui2code/internal/models"
)

// UpsertPendingSignup creates or replaces the pending signup for an email.
func (r *Repository) UpsertPendingSignup(ctx context.Context, p *models.PendingSignup) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pending_signups (email, password_hash, salt, otp, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (email) DO UPDATE SET
			password_hash = excluded.password_hash,
			salt = excluded.salt,
			otp = excluded.otp,
			expires_at = excluded.expires_at`,
		p.Email, p.PasswordHash, p.Salt, p.OTP, p.ExpiresAt.UTC())
	return wrapError(err)
}

// GetPendingSignup retrieves the pending signup for an email.
func (r *Repository) GetPendingSignup(ctx context.Context, email string) (*models.PendingSignup, error) {
	var p models.PendingSignup
	err := r.db.GetContext(ctx, &p,
		`SELECT email, password_hash, salt, otp, expires_at FROM pending_signups WHERE email = ?`, email)
	if err != nil {
		return nil, wrapError(err)
	}
	return &p, nil
}

// DeletePendingSignup removes the pending signup for an email.
func (r *Repository) DeletePendingSignup(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM pending_signups WHERE email = ?`, email)
	return wrapError(err)
}

// UpsertPendingLogin creates or replaces the pending login for an email.
func (r *Repository) UpsertPendingLogin(ctx context.Context, p *models.PendingLogin) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pending_logins (email, otp, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT (email) DO UPDATE SET
			otp = excluded.otp,
			expires_at = excluded.expires_at`,
		p.Email, p.OTP, p.ExpiresAt.UTC())
	return wrapError(err)
}

// GetPendingLogin retrieves the pending login for an email.
func (r *Repository) GetPendingLogin(ctx context.Context, email string) (*models.PendingLogin, error) {
	var p models.PendingLogin
	err := r.db.GetContext(ctx, &p,
		`SELECT email, otp, expires_at FROM pending_logins WHERE email = ?`, email)
	if err != nil {
		return nil, wrapError(err)
	}
	return &p, nil
}

// DeletePendingLogin removes the pending login for an email.
func (r *Repository) DeletePendingLogin(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM pending_logins WHERE email = ?`, email)
	return wrapError(err)
}

// PurgeExpired deletes pending signups and logins that expired before now.
func (r *Repository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	for _, table := range []string{"pending_signups", "pending_logins"} {
		res, err := r.db.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE expires_at < ?`, table), now.UTC())
		if err != nil {
			return total, wrapError(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, wrapError(err)
		}
		total += n
	}
	return total, nil
}
