package engine

import (
	"sort"
	"strings"
	"unicode"

	"github.com/m-mizutani/goerr/v2"

	"github.com/lazypower/recollect/internal/errutil"
	"github.com/lazypower/recollect/internal/store"
)

// DefaultRecallLimit applies when RecallQuery.Limit is zero.
const DefaultRecallLimit = 20

// RecallQuery selects memories by keyword overlap.
type RecallQuery struct {
	Query       string
	MinStrength float64
	Limit       int
}

// Hit is one ranked recall result.
type Hit struct {
	Memory store.Memory `json:"memory"`
	Score  float64      `json:"score"`
}

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true, "be": true,
	"by": true, "do": true, "for": true, "from": true, "has": true, "have": true, "how": true,
	"in": true, "is": true, "it": true, "of": true, "on": true, "or": true, "that": true,
	"the": true, "this": true, "to": true, "was": true, "we": true, "what": true, "when": true,
	"where": true, "which": true, "who": true, "why": true, "with": true,
}

// tokenize splits text into lowercase letter/digit runs of at least two runes.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func tokenSet(texts ...string) map[string]bool {
	set := make(map[string]bool)
	for _, text := range texts {
		for _, tok := range tokenize(text) {
			if len([]rune(tok)) >= 2 {
				set[tok] = true
			}
		}
	}
	return set
}

// queryTokens returns the distinct, non-stopword query tokens in order.
// A query made only of stopwords keeps them rather than matching nothing.
func queryTokens(query string) []string {
	var all, kept []string
	seen := make(map[string]bool)
	for _, tok := range tokenize(query) {
		if len([]rune(tok)) < 2 || seen[tok] {
			continue
		}
		seen[tok] = true
		all = append(all, tok)
		if !stopWords[tok] {
			kept = append(kept, tok)
		}
	}
	if len(kept) == 0 {
		return all
	}
	return kept
}

// score returns the token overlap in [0,1]: each query token scores 2 when
// it appears in the title or tags and 1 when it appears only in the content.
func score(q []string, m *store.Memory) float64 {
	if len(q) == 0 {
		return 0
	}
	head := tokenSet(append([]string{m.Title}, m.Tags...)...)
	body := tokenSet(m.Content)

	var sum int
	for _, tok := range q {
		switch {
		case head[tok]:
			sum += 2
		case body[tok]:
			sum++
		}
	}
	return float64(sum) / float64(2*len(q))
}

// Recall ranks memories against q. Memories below q.MinStrength and
// memories with no overlap are left out. Results are ordered by score, then
// significance, then created_at, newest first, and only the returned hits
// have last_accessed updated.
func (e *Engine) Recall(q RecallQuery) ([]Hit, error) {
	if strings.TrimSpace(q.Query) == "" {
		return nil, errutil.Validation("query is required")
	}
	if q.MinStrength < 0 || q.MinStrength > 1 {
		return nil, errutil.Validation("min_strength must be between 0 and 1", goerr.V("min_strength", q.MinStrength))
	}
	if q.Limit < 0 {
		return nil, errutil.Validation("limit must not be negative", goerr.V("limit", q.Limit))
	}
	limit := q.Limit
	if limit == 0 {
		limit = DefaultRecallLimit
	}

	tokens := queryTokens(q.Query)
	if len(tokens) == 0 {
		return []Hit{}, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	memories, err := e.DB.ListMemories()
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0)
	for i := range memories {
		m := &memories[i]
		if m.RecallStrength < q.MinStrength {
			continue
		}
		if s := score(tokens, m); s > 0 {
			hits = append(hits, Hit{Memory: *m, Score: s})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Memory.Significance != b.Memory.Significance {
			return a.Memory.Significance > b.Memory.Significance
		}
		if !a.Memory.CreatedAt.Equal(b.Memory.CreatedAt) {
			return a.Memory.CreatedAt.After(b.Memory.CreatedAt)
		}
		return a.Memory.ID > b.Memory.ID
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	if len(hits) == 0 {
		return hits, nil
	}

	now := e.now()
	ids := make([]string, len(hits))
	for i := range hits {
		ids[i] = hits[i].Memory.ID
		hits[i].Memory.LastAccessed = now
	}
	if err := e.DB.TouchMemories(ids, now); err != nil {
		return nil, err
	}
	return hits, nil
}
