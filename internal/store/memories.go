package store

import (
	"database/sql"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/lazypower/recollect/internal/errutil"
)

// AddParams holds the fields of a new memory.
type AddParams struct {
	Title        string
	Content      string
	Category     string
	Significance int
	Tags         []string
	Source       string
}

// validate checks p and returns the parsed category. Nothing is written on failure.
func (p *AddParams) validate() (Category, error) {
	cat, err := ParseCategory(p.Category)
	if err != nil {
		return "", err
	}
	if p.Significance < MinSignificance || p.Significance > MaxSignificance {
		return "", errutil.Validation("significance must be between 1 and 10",
			goerr.V("significance", p.Significance))
	}
	if strings.TrimSpace(p.Title) == "" {
		return "", errutil.Validation("title is required")
	}
	if strings.TrimSpace(p.Content) == "" {
		return "", errutil.Validation("content is required")
	}
	return cat, nil
}

// normalizeTags trims, deduplicates and sorts tags so they behave as a set.
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Add validates and inserts a new memory at full strength.
func (db *DB) Add(p AddParams) (*Memory, error) {
	cat, err := p.validate()
	if err != nil {
		return nil, err
	}

	source := strings.TrimSpace(p.Source)
	if source == "" {
		source = "manual"
	}

	now := db.now()
	m := &Memory{
		ID:             db.newID(now),
		Title:          strings.TrimSpace(p.Title),
		Content:        strings.TrimSpace(p.Content),
		Category:       cat,
		Significance:   p.Significance,
		Tags:           normalizeTags(p.Tags),
		Source:         source,
		CreatedAt:      now,
		LastAccessed:   now,
		RecallStrength: 1.0,
		State:          StateClear,
	}

	tags, err := json.Marshal(m.Tags)
	if err != nil {
		return nil, goerr.Wrap(err, "marshal tags")
	}

	_, err = db.Exec(`
		INSERT INTO memories (id, title, content, category, significance, tags, source,
			created_at, last_accessed, recall_strength)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.Title, m.Content, string(m.Category), m.Significance, string(tags), m.Source,
		msOf(m.CreatedAt), msOf(m.LastAccessed), m.RecallStrength)
	if err != nil {
		return nil, errutil.Storage(err, "insert memory", goerr.V("title", m.Title))
	}
	return m, nil
}

const memoryColumns = `id, title, content, category, significance, tags, source,
	created_at, last_accessed, recall_strength`

// Get returns a memory by id. It does not count as an access.
func (db *DB) Get(id string) (*Memory, error) {
	row := db.QueryRow(`SELECT `+memoryColumns+` FROM memories WHERE id = ?`, id)
	m, err := scanMemory(row)
	if err == sql.ErrNoRows {
		return nil, errutil.NotFound("memory not found", goerr.V("id", id))
	}
	if err != nil {
		return nil, errutil.Storage(err, "get memory", goerr.V("id", id))
	}
	return m, nil
}

// ListMemories returns every memory ordered by category, significance DESC,
// created_at DESC, id DESC. The order is total, so equal stores list identically.
func (db *DB) ListMemories() ([]Memory, error) {
	rows, err := db.Query(`SELECT ` + memoryColumns + ` FROM memories`)
	if err != nil {
		return nil, errutil.Storage(err, "list memories")
	}
	defer rows.Close()

	var out []Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, errutil.Storage(err, "scan memory")
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, errutil.Storage(err, "iterate memories")
	}

	SortCanonical(out)
	return out, nil
}

// SortCanonical sorts memories into export order.
func SortCanonical(ms []Memory) {
	rank := make(map[Category]int, len(Categories))
	for i, c := range Categories {
		rank[c] = i
	}
	sort.SliceStable(ms, func(i, j int) bool {
		a, b := ms[i], ms[j]
		if rank[a.Category] != rank[b.Category] {
			return rank[a.Category] < rank[b.Category]
		}
		if a.Significance != b.Significance {
			return a.Significance > b.Significance
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

// TouchMemories sets last_accessed on the given ids in one transaction.
// Recall strength is left alone; access does not reinforce a memory.
func (db *DB) TouchMemories(ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return errutil.Storage(err, "begin touch")
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`UPDATE memories SET last_accessed = ? WHERE id = ?`)
	if err != nil {
		return errutil.Storage(err, "prepare touch")
	}
	defer stmt.Close()

	ms := msOf(at.UTC())
	for _, id := range ids {
		if _, err := stmt.Exec(ms, id); err != nil {
			return errutil.Storage(err, "touch memory", goerr.V("id", id))
		}
	}
	if err := tx.Commit(); err != nil {
		return errutil.Storage(err, "commit touch")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemory(row rowScanner) (*Memory, error) {
	var (
		m            Memory
		category     string
		tags         string
		created      int64
		lastAccessed int64
	)
	if err := row.Scan(&m.ID, &m.Title, &m.Content, &category, &m.Significance, &tags, &m.Source,
		&created, &lastAccessed, &m.RecallStrength); err != nil {
		return nil, err
	}
	m.Category = Category(category)
	m.CreatedAt = timeOf(created)
	m.LastAccessed = timeOf(lastAccessed)
	m.State = StateFor(m.RecallStrength)
	if err := json.Unmarshal([]byte(tags), &m.Tags); err != nil {
		return nil, goerr.Wrap(err, "decode tags", goerr.V("id", m.ID))
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	return &m, nil
}
