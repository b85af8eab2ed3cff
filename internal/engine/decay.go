package engine

import (
	"time"

	"github.com/lazypower/recollect/internal/store"
)

// DecayReport is the outcome of a decay pass followed by pruning.
type DecayReport struct {
	store.DecayResult
	Pruned int       `json:"pruned"`
	At     time.Time `json:"at"`
}

// Decay recomputes recall strength as of now.
func (e *Engine) Decay(now time.Time) (*store.DecayResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.DB.Decay(now)
}

// Prune removes forgettable memories.
func (e *Engine) Prune() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.DB.Prune()
}

// RunDecay decays as of now and then prunes, under one hold of the write lock.
// Counts are taken before pruning.
func (e *Engine) RunDecay(now time.Time) (*DecayReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	res, err := e.DB.Decay(now)
	if err != nil {
		return nil, err
	}
	pruned, err := e.DB.Prune()
	if err != nil {
		return nil, err
	}
	return &DecayReport{DecayResult: *res, Pruned: pruned, At: now.UTC()}, nil
}

// StartDecayTimer runs a decay pass immediately and then every interval until Stop.
func (e *Engine) StartDecayTimer(interval time.Duration) {
	e.runScheduledDecay()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				e.runScheduledDecay()
			case <-e.stopCh:
				return
			}
		}
	}()
}

func (e *Engine) runScheduledDecay() {
	rep, err := e.RunDecay(e.now())
	if err != nil {
		e.Log.Error("scheduled decay failed", "error", err)
		return
	}
	e.Log.Info("scheduled decay",
		"clear", rep.Clear, "fuzzy", rep.Fuzzy, "fading", rep.Fading,
		"updated", rep.Updated, "pruned", rep.Pruned)
}

// Stop shuts down the engine's background goroutines. It is safe to call more than once.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stopCh) })
	e.wg.Wait()
}
