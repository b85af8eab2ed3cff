package store

import (
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/lazypower/recollect/internal/errutil"
)

// Category classifies a memory. knowledge and current_state never decay.
type Category string

const (
	CategoryKnowledge    Category = "knowledge"
	CategoryCurrentState Category = "current_state"
	CategoryDecision     Category = "decision"
	CategorySession      Category = "session"
)

// Categories lists every category in export order.
var Categories = []Category{
	CategoryKnowledge,
	CategoryCurrentState,
	CategoryDecision,
	CategorySession,
}

// ParseCategory validates a category name from the boundary.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryKnowledge, CategoryCurrentState, CategoryDecision, CategorySession:
		return c, nil
	default:
		return "", errutil.Validation("unknown category",
			goerr.V("category", s),
			goerr.V("valid", "knowledge, current_state, decision, session"))
	}
}

// Decays reports whether memories in this category lose recall strength over time.
func (c Category) Decays() bool {
	switch c {
	case CategoryKnowledge, CategoryCurrentState:
		return false
	case CategoryDecision, CategorySession:
		return true
	default:
		panic("store: unhandled category " + string(c))
	}
}

// decayingCategories returns the categories Decays() is true for, as query arguments.
func decayingCategories() []any {
	var out []any
	for _, c := range Categories {
		if c.Decays() {
			out = append(out, string(c))
		}
	}
	return out
}

// State is the recall label derived from recall strength.
type State string

const (
	StateClear  State = "clear"
	StateFuzzy  State = "fuzzy"
	StateFading State = "fading"
)

// States lists every state from strongest to weakest.
var States = []State{StateClear, StateFuzzy, StateFading}

// Thresholds for State. clear > 0.7, fuzzy 0.4..0.7, fading < 0.4.
const (
	ClearThreshold = 0.7
	FuzzyThreshold = 0.4
	// ForgetFloor is the strength below which a decaying, non-permanent memory is pruned.
	ForgetFloor = 0.05
)

// Significance bounds. PermanentSignificance memories are never pruned.
const (
	MinSignificance       = 1
	MaxSignificance       = 10
	PermanentSignificance = 10
)

// StateFor classifies a recall strength.
func StateFor(strength float64) State {
	switch {
	case strength > ClearThreshold:
		return StateClear
	case strength >= FuzzyThreshold:
		return StateFuzzy
	default:
		return StateFading
	}
}

// Memory is a single stored memory.
type Memory struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Category       Category  `json:"category"`
	Significance   int       `json:"significance"`
	Tags           []string  `json:"tags"`
	Source         string    `json:"source"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessed   time.Time `json:"last_accessed"`
	RecallStrength float64   `json:"recall_strength"`
	State          State     `json:"state"`
}

// Forgettable reports whether prune would remove this memory.
func (m *Memory) Forgettable() bool {
	return m.Category.Decays() &&
		m.Significance < PermanentSignificance &&
		m.RecallStrength < ForgetFloor
}
