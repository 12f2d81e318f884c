// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// PendingSignup holds a signup awaiting OTP confirmation. One per email.
type PendingSignup struct { //nolint:govet // fieldalignment: readability over optimization
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"passwordHash"`
	Salt         string    `db:"salt" json:"salt"`
	OTP          string    `db:"otp" json:"otp"`
	ExpiresAt    time.Time `db:"expires_at" json:"expiresAt"`
}

// Expired reports whether the record is past its validity window.
func (p *PendingSignup) Expired(now time.Time) bool {
	return p.ExpiresAt.Before(now)
}

// PendingLogin holds a login awaiting OTP confirmation. One per email.
type PendingLogin struct { //nolint:govet // fieldalignment: readability over optimization
	Email     string    `db:"email" json:"email"`
	OTP       string    `db:"otp" json:"otp"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
}

// Expired reports whether the record is past its validity window.
func (p *PendingLogin) Expired(now time.Time) bool {
	return p.ExpiresAt.Before(now)
}
