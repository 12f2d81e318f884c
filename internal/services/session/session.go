// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package session mints opaque bearer tokens.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"codeberg.org/oliverandrich/ui2code/internal/models"
)

// TokenBytes is the entropy of a session token. Tokens are hex encoded.
const TokenBytes = 24

// NewToken returns a random hex token of TokenBytes bytes.
func NewToken() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// New returns a session for email with a fresh token. Sessions carry no
// expiry.
func New(email string, now time.Time) (*models.Session, error) {
	token, err := NewToken()
	if err != nil {
		return nil, err
	}
	return &models.Session{Token: token, Email: email, CreatedAt: now.UTC()}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
