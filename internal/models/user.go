// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// User is a registered account. Users are created once and never mutated.
type User struct { //nolint:govet // fieldalignment: readability over optimization
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"` // hex scrypt output
	Salt         string    `db:"salt" json:"-"`          // hex
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
