package store

import (
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/lazypower/recollect/internal/config"
	"github.com/lazypower/recollect/internal/errutil"
)

// DB wraps a sql.DB connection to the recollect SQLite database.
// Every operation takes its store handle explicitly; there is no package-level store.
type DB struct {
	*sql.DB
	Path string

	// Now is the clock used for created_at and last_accessed stamps.
	Now func() time.Time
	// SessionCap bounds the cumulative size of stored sessions.
	SessionCap int64

	idMu    sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Open opens (or creates) the SQLite database at the given path,
// configures pragmas, and runs migrations.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errutil.Storage(err, "create db dir", goerr.V("dir", dir))
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errutil.Storage(err, "open sqlite", goerr.V("path", path))
	}
	return initDB(sqlDB, path)
}

// OpenMemory opens an in-memory SQLite database for testing.
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, errutil.Storage(err, "open sqlite memory")
	}
	// Each pooled connection would get its own empty :memory: database.
	sqlDB.SetMaxOpenConns(1)
	return initDB(sqlDB, ":memory:")
}

func initDB(sqlDB *sql.DB, path string) (*DB, error) {
	db := &DB{
		DB:         sqlDB,
		Path:       path,
		Now:        func() time.Time { return time.Now().UTC() },
		SessionCap: config.DefaultSessionCap,
		entropy:    ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
	if err := db.configurePragmas(); err != nil {
		sqlDB.Close()
		return nil, corrupt(err, path)
	}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, corrupt(err, path)
	}
	return db, nil
}

// corrupt turns an open-time failure into a storage error telling the user what to do.
func corrupt(err error, path string) error {
	return errutil.Storage(err,
		fmt.Sprintf("database %s is unreadable; move it aside or restore a backup", path),
		goerr.V("path", path))
}

func (db *DB) configurePragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	return nil
}

func (db *DB) now() time.Time {
	return db.Now().UTC()
}

// newID returns a ULID stamped with t. IDs minted in one process sort in creation order.
func (db *DB) newID(t time.Time) string {
	db.idMu.Lock()
	defer db.idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), db.entropy).String()
}

// getMeta reads a value from the meta table. Missing keys return "".
func (db *DB) getMeta(key string) (string, error) {
	var v string
	err := db.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errutil.Storage(err, "read meta", goerr.V("key", key))
	}
	return v, nil
}

func setMeta(tx *sql.Tx, key, value string) error {
	_, err := tx.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return errutil.Storage(err, "write meta", goerr.V("key", key))
	}
	return nil
}

func msOf(t time.Time) int64 {
	return t.UnixMilli()
}

func timeOf(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
