package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "memories: significance-weighted decaying memory records",
		SQL: `
CREATE TABLE memories (
    id              TEXT PRIMARY KEY,
    title           TEXT NOT NULL,
    content         TEXT NOT NULL,
    category        TEXT NOT NULL CHECK (category IN ('knowledge', 'current_state', 'decision', 'session')),
    significance    INTEGER NOT NULL CHECK (significance BETWEEN 1 AND 10),
    tags            TEXT NOT NULL DEFAULT '[]',
    source          TEXT NOT NULL DEFAULT '',
    created_at      INTEGER NOT NULL,
    last_accessed   INTEGER NOT NULL,
    recall_strength REAL NOT NULL DEFAULT 1.0 CHECK (recall_strength >= 0.0 AND recall_strength <= 1.0)
);

CREATE INDEX idx_memories_category ON memories(category);
CREATE INDEX idx_memories_strength ON memories(recall_strength);
CREATE INDEX idx_memories_created  ON memories(created_at DESC);
`,
	},
	{
		Version:     2,
		Description: "sessions: size-capped session summaries",
		SQL: `
CREATE TABLE sessions (
    id             TEXT PRIMARY KEY,
    created_at     INTEGER NOT NULL,
    summary        TEXT NOT NULL,
    project        TEXT NOT NULL DEFAULT '',
    files_changed  TEXT NOT NULL DEFAULT '[]',
    size_bytes     INTEGER NOT NULL CHECK (size_bytes > 0)
);

CREATE INDEX idx_sessions_created_at ON sessions(created_at);
`,
	},
	{
		Version:     3,
		Description: "meta: store-wide key/value state (last_decay)",
		SQL: `
CREATE TABLE meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
