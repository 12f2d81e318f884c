// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package repository is the SQLite-backed durable store.
package repository

import (
	"database/sql"
	"errors"

	"codeberg.org/oliverandrich/ui2code/internal/store"
	"github.com/vinovest/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Repository wraps sqlx for database operations.
type Repository struct {
	db *sqlx.DB
}

var (
	_ store.Store  = (*Repository)(nil)
	_ store.Purger = (*Repository)(nil)
)

// New creates a new Repository instance.
func New(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Close closes the underlying database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// wrapError maps database errors onto the store error classes.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return store.ErrConflict
		}
	}
	return store.Unavailable(err)
}
