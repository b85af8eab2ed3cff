package store

import (
	"time"

	"github.com/lazypower/recollect/internal/errutil"
)

// Stats summarizes the memory store.
type Stats struct {
	Total             int              `json:"total"`
	Clear             int              `json:"clear"`
	Fuzzy             int              `json:"fuzzy"`
	Fading            int              `json:"fading"`
	ByCategory        map[Category]int `json:"by_category"`
	AvgRecallStrength float64          `json:"avg_recall_strength"`
	LastDecay         *time.Time       `json:"last_decay,omitempty"`
	Sessions          int              `json:"sessions"`
	SessionBytes      int64            `json:"session_bytes"`
}

// Stats counts memories by state and category. State comes from the stored
// strength, so it reflects the last decay pass rather than the current clock.
func (db *DB) Stats() (*Stats, error) {
	st := &Stats{ByCategory: make(map[Category]int, len(Categories))}
	for _, c := range Categories {
		st.ByCategory[c] = 0
	}

	rows, err := db.Query(`SELECT category, recall_strength FROM memories`)
	if err != nil {
		return nil, errutil.Storage(err, "query stats")
	}
	defer rows.Close()

	var sum float64
	for rows.Next() {
		var (
			cat      string
			strength float64
		)
		if err := rows.Scan(&cat, &strength); err != nil {
			return nil, errutil.Storage(err, "scan stats")
		}
		st.Total++
		st.ByCategory[Category(cat)]++
		sum += strength
		switch StateFor(strength) {
		case StateClear:
			st.Clear++
		case StateFuzzy:
			st.Fuzzy++
		case StateFading:
			st.Fading++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errutil.Storage(err, "iterate stats")
	}
	if st.Total > 0 {
		st.AvgRecallStrength = sum / float64(st.Total)
	}

	if st.LastDecay, err = db.LastDecay(); err != nil {
		return nil, err
	}
	if st.Sessions, st.SessionBytes, err = db.SessionTotals(); err != nil {
		return nil, err
	}
	return st, nil
}
