// CLAUDE:SUMMARY Applies the vigil SQL schema: cycle audit log and report history.
package store

import "database/sql"

// Schema is the complete vigil schema.
const Schema = `
-- Capture cycle audit log
CREATE TABLE IF NOT EXISTS cycle_log (
    id          TEXT PRIMARY KEY,
    seq         INTEGER NOT NULL,
    status      TEXT NOT NULL,
    chars       INTEGER NOT NULL DEFAULT 0,
    error       TEXT NOT NULL DEFAULT '',
    duration_ms INTEGER NOT NULL DEFAULT 0,
    started_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cycle_log_time ON cycle_log(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_cycle_log_status ON cycle_log(status);

-- Published report history
CREATE TABLE IF NOT EXISTS report_history (
    id           TEXT PRIMARY KEY,
    sequence     INTEGER NOT NULL,
    summary      TEXT NOT NULL,
    cycle_count  INTEGER NOT NULL,
    window_start INTEGER NOT NULL,
    window_end   INTEGER NOT NULL,
    generated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_report_history_time ON report_history(generated_at DESC);
`

// ApplySchema creates all tables and indexes on the given database.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
