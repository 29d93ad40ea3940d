package application

import (
	"sync"
	"time"

	"github.com/example/exam-assignment/internal/planner"
)

// deficiencyBoard tracks the outstanding deficiencies per plan key so a
// failed replacement can re-emit the slot's shortfall and a successful one
// can retire it. Entries live until resolved or until the plan is recomputed.
type deficiencyBoard struct {
	mu      sync.RWMutex
	entries map[string][]Deficiency
}

func newDeficiencyBoard() *deficiencyBoard {
	return &deficiencyBoard{entries: make(map[string][]Deficiency)}
}

func boardKey(date time.Time, period planner.Period) string {
	return planner.DateKey(date) + "|" + string(period)
}

// Replace overwrites the outstanding set for the plan key.
func (b *deficiencyBoard) Replace(date time.Time, period planner.Period, deficiencies []Deficiency) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	key := boardKey(date, period)
	if len(deficiencies) == 0 {
		delete(b.entries, key)
		return
	}
	b.entries[key] = cloneDeficiencies(deficiencies)
}

// Add records one more outstanding deficiency, merging counts for an
// existing (room, role) entry.
func (b *deficiencyBoard) Add(deficiency Deficiency) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	key := boardKey(deficiency.Date, deficiency.Period)
	entries := b.entries[key]
	for i, existing := range entries {
		if existing.RoomID == deficiency.RoomID && existing.Role == deficiency.Role {
			entries[i].Count += deficiency.Count
			return
		}
	}
	b.entries[key] = append(entries, deficiency)
}

// Resolve retires up to count deficiencies for the (room, role) slot.
func (b *deficiencyBoard) Resolve(date time.Time, period planner.Period, roomID string, role planner.Role, count int) {
	if b == nil || count <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	key := boardKey(date, period)
	entries := b.entries[key]
	for i, existing := range entries {
		if existing.RoomID != roomID || existing.Role != role {
			continue
		}
		existing.Count -= count
		if existing.Count > 0 {
			entries[i] = existing
			return
		}
		b.entries[key] = append(entries[:i], entries[i+1:]...)
		if len(b.entries[key]) == 0 {
			delete(b.entries, key)
		}
		return
	}
}

// Outstanding returns the current shortfall list for a plan key.
func (b *deficiencyBoard) Outstanding(date time.Time, period planner.Period) []Deficiency {
	if b == nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return cloneDeficiencies(b.entries[boardKey(date, period)])
}

func cloneDeficiencies(deficiencies []Deficiency) []Deficiency {
	if len(deficiencies) == 0 {
		return nil
	}
	out := make([]Deficiency, len(deficiencies))
	copy(out, deficiencies)
	return out
}
