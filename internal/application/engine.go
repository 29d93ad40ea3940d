package application

import (
	"log/slog"
	"time"

	"github.com/example/exam-assignment/internal/persistence"
)

// Engine bundles the planning and replacement services over one store. Both
// services share the per-(date, period) lock table, so planning and absence
// handling for the same plan key serialize against each other, and they share
// the deficiency board, so replacements retire shortfalls planning reported.
type Engine struct {
	Planning    *PlanningService
	Replacement *ReplacementService
}

// Store is the full persistence surface the engine consumes. Both bundled
// storage implementations satisfy it.
type Store interface {
	persistence.StaffRepository
	persistence.RoomRepository
	persistence.PlanRepository
	persistence.HistoryStore
	persistence.AbsenceLog
}

// NewEngine wires both services over the store with shared coordination state.
func NewEngine(store Store, notifier Notifier, cfg EngineConfig, idGenerator func() string, now func() time.Time, logger *slog.Logger) *Engine {
	planning := NewPlanningServiceWithLogger(store, store, store, store, notifier, cfg, idGenerator, now, logger)
	replacement := NewReplacementServiceWithLogger(store, store, store, store, store, notifier, cfg, idGenerator, now, logger)

	replacement.locks = planning.locks
	replacement.deficiencies = planning.deficiencies

	return &Engine{Planning: planning, Replacement: replacement}
}
