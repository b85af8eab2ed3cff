package store

import (
	"math"
	"strings"
	"time"

	"github.com/lazypower/recollect/internal/errutil"
)

// Half-life curve: BaseHalfLife at significance 1, multiplied by
// HalfLifeGrowth for each step up. Significance 1 crosses 0.4 after about
// 9 days; significance 9 stays above 0.7 for roughly ten months.
const (
	BaseHalfLife   = 10 * 24 * time.Hour
	HalfLifeGrowth = 1.75
)

const metaLastDecay = "last_decay"

// HalfLife returns the e-folding time for a decaying memory of the given
// significance. It strictly increases with significance.
func HalfLife(significance int) time.Duration {
	return time.Duration(float64(BaseHalfLife) * math.Pow(HalfLifeGrowth, float64(significance-1)))
}

// Strength returns the recall strength of a decaying memory after age.
// Non-positive ages give full strength.
func Strength(significance int, age time.Duration) float64 {
	if age <= 0 {
		return 1.0
	}
	s := math.Exp(-float64(age) / float64(HalfLife(significance)))
	return math.Max(0, math.Min(1, s))
}

// StrengthAt returns the strength m should have at now. Exempt categories are pinned at 1.0.
func StrengthAt(m *Memory, now time.Time) float64 {
	if !m.Category.Decays() {
		return 1.0
	}
	return Strength(m.Significance, now.Sub(m.CreatedAt))
}

// DecayResult counts memories per state after a decay pass.
type DecayResult struct {
	Clear   int `json:"clear"`
	Fuzzy   int `json:"fuzzy"`
	Fading  int `json:"fading"`
	Updated int `json:"updated"`
}

// Decay recomputes every memory's recall strength as of now and records now
// as the last decay time. Applying it twice with the same now changes nothing
// the second time. The whole pass commits in one transaction.
func (db *DB) Decay(now time.Time) (*DecayResult, error) {
	now = now.UTC()

	tx, err := db.Begin()
	if err != nil {
		return nil, errutil.Storage(err, "begin decay")
	}
	defer tx.Rollback()

	rows, err := tx.Query(`SELECT ` + memoryColumns + ` FROM memories`)
	if err != nil {
		return nil, errutil.Storage(err, "query memories for decay")
	}
	var memories []Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			rows.Close()
			return nil, errutil.Storage(err, "scan memory for decay")
		}
		memories = append(memories, *m)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, errutil.Storage(err, "iterate memories for decay")
	}
	rows.Close()

	stmt, err := tx.Prepare(`UPDATE memories SET recall_strength = ? WHERE id = ?`)
	if err != nil {
		return nil, errutil.Storage(err, "prepare decay update")
	}
	defer stmt.Close()

	res := &DecayResult{}
	for i := range memories {
		m := &memories[i]
		s := StrengthAt(m, now)
		if s != m.RecallStrength {
			if _, err := stmt.Exec(s, m.ID); err != nil {
				return nil, errutil.Storage(err, "update recall strength")
			}
			res.Updated++
		}
		switch StateFor(s) {
		case StateClear:
			res.Clear++
		case StateFuzzy:
			res.Fuzzy++
		case StateFading:
			res.Fading++
		}
	}

	if err := setMeta(tx, metaLastDecay, now.Format(time.RFC3339Nano)); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, errutil.Storage(err, "commit decay")
	}
	return res, nil
}

// Prune deletes decaying memories below ForgetFloor. Significance 10 memories
// are never removed.
func (db *DB) Prune() (int, error) {
	cats := decayingCategories()
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(cats)), ",")

	args := append([]any{}, cats...)
	args = append(args, PermanentSignificance, ForgetFloor)

	res, err := db.Exec(`
		DELETE FROM memories
		WHERE category IN (`+placeholders+`)
		  AND significance < ?
		  AND recall_strength < ?
	`, args...)
	if err != nil {
		return 0, errutil.Storage(err, "prune memories")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errutil.Storage(err, "prune rows affected")
	}
	return int(n), nil
}

// LastDecay returns when Decay last ran, or nil if it never has.
func (db *DB) LastDecay() (*time.Time, error) {
	v, err := db.getMeta(metaLastDecay)
	if err != nil || v == "" {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return nil, errutil.Storage(err, "parse last decay time")
	}
	return &t, nil
}
