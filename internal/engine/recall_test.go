package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazypower/recollect/internal/errutil"
)

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"sqlite", "wal", "mode", "go", "1", "24"}, tokenize("SQLite-WAL mode; Go 1.24"))
	assert.Equal(t, []string{"sqlite", "wal"}, queryTokens("the SQLite and WAL of sqlite"))
	assert.Equal(t, []string{"the", "and"}, queryTokens("the and"))
	assert.Empty(t, queryTokens("a ? !"))
}

func TestRecallRanking(t *testing.T) {
	e, c := testEngine(t)

	body := add(t, e, "knowledge", 9, "Database notes", "we run sqlite in wal mode")
	title := add(t, e, "decision", 3, "SQLite chosen", "embedded, no server")
	tagged := add(t, e, "decision", 3, "Storage choice", "no server", "sqlite")
	c.Advance(time.Minute)
	newer := add(t, e, "decision", 3, "SQLite again", "same score, newer")
	add(t, e, "decision", 9, "Unrelated", "postgres elsewhere")

	hits, err := e.Recall(RecallQuery{Query: "sqlite"})
	require.NoError(t, err)
	require.Len(t, hits, 4)

	// Title and tag matches score 1.0; the content-only match scores 0.5.
	assert.Equal(t, newer.ID, hits[0].Memory.ID)
	assert.ElementsMatch(t, []string{title.ID, tagged.ID}, []string{hits[1].Memory.ID, hits[2].Memory.ID})
	assert.Equal(t, body.ID, hits[3].Memory.ID)
	assert.Equal(t, 1.0, hits[0].Score)
	assert.Equal(t, 0.5, hits[3].Score)

	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}
}

func TestRecallSignificanceBreaksTies(t *testing.T) {
	e, _ := testEngine(t)

	low := add(t, e, "decision", 2, "cache layer", "x")
	high := add(t, e, "decision", 8, "cache layer", "x")

	hits, err := e.Recall(RecallQuery{Query: "cache"})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, high.ID, hits[0].Memory.ID)
	assert.Equal(t, low.ID, hits[1].Memory.ID)
}

func TestRecallNewerBreaksTies(t *testing.T) {
	e, c := testEngine(t)

	older := add(t, e, "decision", 4, "queue retries", "x")
	c.Advance(time.Hour)
	newer := add(t, e, "decision", 4, "queue retries", "x")
	// Same created_at: the larger id wins.
	sameTime := add(t, e, "decision", 4, "queue retries", "x")

	hits, err := e.Recall(RecallQuery{Query: "queue"})
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, []string{sameTime.ID, newer.ID, older.ID},
		[]string{hits[0].Memory.ID, hits[1].Memory.ID, hits[2].Memory.ID})
}

func TestRecallKeepsDecayedStrength(t *testing.T) {
	e, c := testEngine(t)

	m := add(t, e, "decision", 3, "retry budget", "three attempts then give up")
	c.Advance(20 * 24 * time.Hour)
	_, err := e.Decay(c.Now())
	require.NoError(t, err)

	before, err := e.Get(m.ID)
	require.NoError(t, err)
	require.Less(t, before.RecallStrength, 1.0)

	c.Advance(time.Hour)
	hits, err := e.Recall(RecallQuery{Query: "retry"})
	require.NoError(t, err)
	require.Len(t, hits, 1)

	after, err := e.Get(m.ID)
	require.NoError(t, err)
	assert.Equal(t, before.RecallStrength, after.RecallStrength)
	assert.Equal(t, before.State, after.State)
	assert.True(t, after.LastAccessed.Equal(c.Now()))
}

func TestRecallMinStrength(t *testing.T) {
	e, c := testEngine(t)

	for sig := 1; sig <= 10; sig++ {
		add(t, e, "session", sig, "deploy notes", "shipped the build")
	}
	c.Advance(20 * 24 * time.Hour)
	_, err := e.Decay(c.Now())
	require.NoError(t, err)

	hits, err := e.Recall(RecallQuery{Query: "deploy", MinStrength: 0.5})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Less(t, len(hits), 10)
	for _, h := range hits {
		assert.GreaterOrEqual(t, h.Memory.RecallStrength, 0.5)
	}
}

func TestRecallLimitAndTouch(t *testing.T) {
	e, c := testEngine(t)

	for i := 0; i < 5; i++ {
		add(t, e, "knowledge", 5, "logging setup", "use slog")
		c.Advance(time.Second)
	}
	c.Advance(time.Hour)

	hits, err := e.Recall(RecallQuery{Query: "logging", Limit: 2})
	require.NoError(t, err)
	require.Len(t, hits, 2)

	touched := map[string]bool{}
	for _, h := range hits {
		touched[h.Memory.ID] = true
		got, err := e.Get(h.Memory.ID)
		require.NoError(t, err)
		assert.True(t, got.LastAccessed.Equal(c.Now()), "hit %s not touched", h.Memory.ID)
		assert.Equal(t, 1.0, got.RecallStrength)
	}

	all, err := e.DB.ListMemories()
	require.NoError(t, err)
	for _, m := range all {
		if !touched[m.ID] {
			assert.True(t, m.LastAccessed.Before(c.Now()), "non-hit %s was touched", m.ID)
		}
	}
}

func TestRecallDefaultLimit(t *testing.T) {
	e, _ := testEngine(t)
	for i := 0; i < DefaultRecallLimit+5; i++ {
		add(t, e, "knowledge", 5, "metrics", "prometheus")
	}
	hits, err := e.Recall(RecallQuery{Query: "metrics"})
	require.NoError(t, err)
	assert.Len(t, hits, DefaultRecallLimit)
}

func TestRecallNoMatch(t *testing.T) {
	e, _ := testEngine(t)
	add(t, e, "knowledge", 5, "metrics", "prometheus")

	hits, err := e.Recall(RecallQuery{Query: "kubernetes"})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestRecallValidation(t *testing.T) {
	e, _ := testEngine(t)

	for _, q := range []RecallQuery{
		{Query: "  "},
		{Query: "x", MinStrength: -0.1},
		{Query: "x", MinStrength: 1.5},
		{Query: "x", Limit: -1},
	} {
		_, err := e.Recall(q)
		assert.True(t, errors.Is(err, errutil.ErrValidation), "query %+v: err = %v", q, err)
	}
}
