package application

import (
	"sync"
	"time"

	"github.com/example/exam-assignment/internal/planner"
)

// planLocks serializes mutations per (date, period) plan key. Planning,
// absence recording, and replacement all read staff-usage state and then
// write it back; interleaving two of them on the same key could double-book
// staff. Distinct keys proceed independently.
type planLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPlanLocks() *planLocks {
	return &planLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the mutex for the plan key and returns its release function.
func (l *planLocks) acquire(date time.Time, period planner.Period) func() {
	key := planner.DateKey(date) + "|" + string(period)

	l.mu.Lock()
	lock, ok := l.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[key] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
