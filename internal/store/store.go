// Package store persists cycle outcomes and published reports to SQLite.
//
// The pipeline never reads this data back to make decisions; it is an audit
// trail consumed by the /cycles and /report/history endpoints and by the
// readable artifact writer. Losing it does not affect the running pipeline.
package store

import "database/sql"

// Store wraps the vigil database.
type Store struct {
	DB *sql.DB
}

// New creates a Store from an already-opened database connection.
func New(db *sql.DB) *Store {
	return &Store{DB: db}
}
