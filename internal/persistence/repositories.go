package persistence

import (
	"context"
	"time"

	"github.com/example/exam-assignment/internal/planner"
)

// StaffRepository exposes the roster reads and the narrow mutations the
// engine performs (status transitions and absence counters). Roster CRUD is
// owned by an external collaborator.
type StaffRepository interface {
	GetStaff(ctx context.Context, id string) (Staff, error)
	ListStaff(ctx context.Context, role planner.Role) ([]Staff, error)
	UpdateStaffStatus(ctx context.Context, id string, status planner.StaffStatus) error
	// IncrementAbsences bumps the consecutive-absence counter for the given
	// calendar day and returns the current value. The counter moves at most
	// once per day: further absences on a day already counted are no-ops.
	IncrementAbsences(ctx context.Context, id string, date time.Time) (int, error)
	// ResetAbsences zeroes the counter for every listed staff member.
	ResetAbsences(ctx context.Context, ids []string) error
}

// RoomRepository exposes the room catalog, read-only to the engine.
type RoomRepository interface {
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
}

// PlanRepository stores assignment plans. SavePlan and UpdateAssignment take
// the history appends and interaction increments caused by the mutation so
// implementations commit them in the same transaction; the participation log
// and the plan never diverge.
type PlanRepository interface {
	SavePlan(ctx context.Context, plan AssignmentPlan, history []HistoryRecord, interactions []InteractionRecord) error
	GetPlan(ctx context.Context, date time.Time, period planner.Period) (AssignmentPlan, error)
	GetAssignment(ctx context.Context, assignmentID string) (RoomAssignment, error)
	UpdateAssignment(ctx context.Context, assignment RoomAssignment, history []HistoryRecord, interactions []InteractionRecord) error
}

// HistoryStore reads the participation log over bounded windows.
type HistoryStore interface {
	// RoomVisitsSince returns history rows with a date on or after since.
	RoomVisitsSince(ctx context.Context, since time.Time) ([]HistoryRecord, error)
	// PairingsSince returns interaction rows with a date on or after since.
	PairingsSince(ctx context.Context, since time.Time) ([]InteractionRecord, error)
	// AssignmentCounts returns per-staff history row counts for dates in
	// [from, to].
	AssignmentCounts(ctx context.Context, from, to time.Time) (map[string]int, error)
}

// AbsenceLog stores the append-only absence audit trail.
type AbsenceLog interface {
	AppendAbsence(ctx context.Context, event AbsenceEvent) error
	// FindAbsence returns the most recent event for the slot, or ErrNotFound.
	FindAbsence(ctx context.Context, assignmentID, staffID string, role planner.Role) (AbsenceEvent, error)
	ListAbsences(ctx context.Context, assignmentID string) ([]AbsenceEvent, error)
}
