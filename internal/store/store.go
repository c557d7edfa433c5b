// Package store persists the advisory artifact cache and run history in
// SQLite. Nothing here is correctness-critical: a cold cache just means the
// reference grid is downloaded again.
package store

import (
	"database/sql"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}
