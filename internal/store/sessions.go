package store

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"

	"github.com/lazypower/recollect/internal/config"
	"github.com/lazypower/recollect/internal/errutil"
)

// Session is a truncated summary of one working session.
type Session struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Summary      string    `json:"summary"`
	Project      string    `json:"project"`
	FilesChanged []string  `json:"files_changed"`
	SizeBytes    int64     `json:"size_bytes"`
}

// SaveSessionParams holds the input to SaveSession before truncation.
type SaveSessionParams struct {
	Summary      string
	Project      string
	FilesChanged []string
}

// SaveResult reports what SaveSession stored and what it evicted to stay under the cap.
type SaveResult struct {
	Session *Session `json:"session"`
	Evicted int      `json:"evicted"`
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// truncateBytes cuts s to at most n bytes without splitting a rune.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// normalize applies the storage limits. The dropped text is not recoverable.
func (p SaveSessionParams) normalize() (summary, project string, files []string) {
	summary = truncateRunes(strings.TrimSpace(p.Summary), config.MaxSummaryChars)
	project = truncateRunes(strings.TrimSpace(p.Project), config.MaxProjectChars)
	files = make([]string, 0, len(p.FilesChanged))
	for _, f := range p.FilesChanged {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		files = append(files, truncateBytes(f, config.MaxFilePathBytes))
		if len(files) == config.MaxFilesChanged {
			break
		}
	}
	return summary, project, files
}

// SessionSize is the accounted storage size of a session row.
func SessionSize(summary, project string, files []string) int64 {
	n := int64(config.SessionRowBytes + len(summary) + len(project))
	for _, f := range files {
		n += int64(len(f))
	}
	return n
}

// SaveSession truncates and stores a session, then evicts the oldest sessions
// until the total stored size is back under db.SessionCap. Insert and
// eviction commit together.
func (db *DB) SaveSession(p SaveSessionParams) (*SaveResult, error) {
	summary, project, files := p.normalize()
	if summary == "" {
		return nil, errutil.Validation("session summary is required")
	}

	size := SessionSize(summary, project, files)
	if size > db.SessionCap {
		return nil, errutil.Validation("session is larger than the session store cap",
			goerr.V("size_bytes", size), goerr.V("cap_bytes", db.SessionCap))
	}

	now := db.now()
	s := &Session{
		ID:           db.newID(now),
		CreatedAt:    now,
		Summary:      summary,
		Project:      project,
		FilesChanged: files,
		SizeBytes:    size,
	}
	filesJSON, err := json.Marshal(files)
	if err != nil {
		return nil, goerr.Wrap(err, "marshal files_changed")
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, errutil.Storage(err, "begin save session")
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO sessions (id, created_at, summary, project, files_changed, size_bytes)
		VALUES (?, ?, ?, ?, ?, ?)
	`, s.ID, msOf(s.CreatedAt), s.Summary, s.Project, string(filesJSON), s.SizeBytes); err != nil {
		return nil, errutil.Storage(err, "insert session")
	}

	evicted, err := evictSessions(tx, db.SessionCap)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errutil.Storage(err, "commit save session")
	}
	return &SaveResult{Session: s, Evicted: evicted}, nil
}

// evictSessions deletes sessions strictly oldest-first until the total size is <= capBytes.
func evictSessions(tx *sql.Tx, capBytes int64) (int, error) {
	var total int64
	if err := tx.QueryRow(`SELECT COALESCE(SUM(size_bytes), 0) FROM sessions`).Scan(&total); err != nil {
		return 0, errutil.Storage(err, "sum session sizes")
	}
	if total <= capBytes {
		return 0, nil
	}

	rows, err := tx.Query(`SELECT id, size_bytes FROM sessions ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return 0, errutil.Storage(err, "list sessions for eviction")
	}
	var victims []string
	for rows.Next() && total > capBytes {
		var (
			id   string
			size int64
		)
		if err := rows.Scan(&id, &size); err != nil {
			rows.Close()
			return 0, errutil.Storage(err, "scan session for eviction")
		}
		victims = append(victims, id)
		total -= size
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, errutil.Storage(err, "iterate sessions for eviction")
	}
	rows.Close()

	for _, id := range victims {
		if _, err := tx.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
			return 0, errutil.Storage(err, "evict session", goerr.V("id", id))
		}
	}
	return len(victims), nil
}

// GetSessions returns up to limit sessions, most recent first.
func (db *DB) GetSessions(limit int) ([]Session, error) {
	if limit <= 0 {
		return nil, errutil.Validation("limit must be positive", goerr.V("limit", limit))
	}

	rows, err := db.Query(`
		SELECT id, created_at, summary, project, files_changed, size_bytes
		FROM sessions
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, errutil.Storage(err, "list sessions")
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			s       Session
			created int64
			files   string
		)
		if err := rows.Scan(&s.ID, &created, &s.Summary, &s.Project, &files, &s.SizeBytes); err != nil {
			return nil, errutil.Storage(err, "scan session")
		}
		s.CreatedAt = timeOf(created)
		if err := json.Unmarshal([]byte(files), &s.FilesChanged); err != nil {
			return nil, errutil.Storage(err, "decode files_changed", goerr.V("id", s.ID))
		}
		if s.FilesChanged == nil {
			s.FilesChanged = []string{}
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errutil.Storage(err, "iterate sessions")
	}
	return out, nil
}

// SessionTotals returns the number of stored sessions and their summed size.
func (db *DB) SessionTotals() (int, int64, error) {
	var (
		count int
		total int64
	)
	err := db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(size_bytes), 0) FROM sessions`).Scan(&count, &total)
	if err != nil {
		return 0, 0, errutil.Storage(err, "session totals")
	}
	return count, total, nil
}
