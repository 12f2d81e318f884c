// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// Session binds an opaque bearer token to an email. Sessions do not expire.
type Session struct { //nolint:govet // fieldalignment: readability over optimization
	Token     string    `db:"token" json:"-"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
