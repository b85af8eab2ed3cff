package engine

import (
	"log/slog"
	"sync"
	"time"

	"github.com/lazypower/recollect/internal/llm"
	"github.com/lazypower/recollect/internal/logging"
	"github.com/lazypower/recollect/internal/store"
)

// Engine serializes access to one store. Writers (add, decay, prune,
// save_session and the recall touch) hold the write lock; readers hold the
// read lock, so a reader never observes a decay pass half-applied.
type Engine struct {
	DB  *store.DB
	LLM llm.Client
	Log *slog.Logger

	// TranscriptDir is where audit looks for session transcripts.
	TranscriptDir string

	mu       sync.RWMutex
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a new Engine. client may be nil when no LLM is configured.
func New(db *store.DB, client llm.Client, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		DB:     db,
		LLM:    client,
		Log:    logger,
		stopCh: make(chan struct{}),
	}
}

func (e *Engine) now() time.Time {
	return e.DB.Now().UTC()
}

// Add stores a new memory.
func (e *Engine) Add(p store.AddParams) (*store.Memory, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, err := e.DB.Add(p)
	if err != nil {
		return nil, err
	}
	e.Log.Debug("memory added", "id", m.ID, "category", m.Category, "significance", m.Significance)
	return m, nil
}

// Get returns one memory without touching it.
func (e *Engine) Get(id string) (*store.Memory, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.DB.Get(id)
}

// ExportText returns the deterministic text dump of every memory.
func (e *Engine) ExportText() (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.DB.ExportText()
}

// Stats returns aggregate counts for the store.
func (e *Engine) Stats() (*store.Stats, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.DB.Stats()
}

// SaveSession stores a session summary and evicts old sessions past the cap.
func (e *Engine) SaveSession(p store.SaveSessionParams) (*store.SaveResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	res, err := e.DB.SaveSession(p)
	if err != nil {
		return nil, err
	}
	e.Log.Debug("session saved", "id", res.Session.ID, "size_bytes", res.Session.SizeBytes, "evicted", res.Evicted)
	return res, nil
}

// Sessions returns the most recent sessions first.
func (e *Engine) Sessions(limit int) ([]store.Session, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.DB.GetSessions(limit)
}

// Memories returns every memory in export order.
func (e *Engine) Memories() ([]store.Memory, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.DB.ListMemories()
}
