package persistence

import (
	"time"

	"github.com/example/exam-assignment/internal/planner"
)

// RoomStatus tracks whether a room can host an exam session.
type RoomStatus string

const (
	// RoomAvailable rooms may appear in plans.
	RoomAvailable RoomStatus = "available"
	// RoomUnavailable rooms are rejected by the planner.
	RoomUnavailable RoomStatus = "unavailable"
)

// AssignmentType records how a room assignment came to be.
type AssignmentType string

const (
	// AssignmentAutomatic assignments were produced by the planner.
	AssignmentAutomatic AssignmentType = "automatic"
	// AssignmentManual assignments were chosen by an administrator.
	AssignmentManual AssignmentType = "manual"
	// AssignmentTemporary assignments hold one-off substitutes.
	AssignmentTemporary AssignmentType = "temporary"
)

// AbsenceAction records how a reported absence was resolved.
type AbsenceAction string

const (
	// AbsenceOnly means the absence was recorded with no replacement yet.
	AbsenceOnly AbsenceAction = "absence_only"
	// AutoReplacement means the engine selected a substitute.
	AutoReplacement AbsenceAction = "auto_replacement"
	// ManualReplacement means an administrator selected the substitute.
	ManualReplacement AbsenceAction = "manual_replacement"
)

// Staff represents one invigilator in the roster. LastAbsenceDate is the most
// recent calendar day counted against ConsecutiveAbsences; the zero value
// means no absence has been counted yet.
type Staff struct {
	ID                  string
	Name                string
	Role                planner.Role
	Rank                planner.Rank
	Status              planner.StaffStatus
	ConsecutiveAbsences int
	LastAbsenceDate     time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Room represents one exam room in the catalog.
type Room struct {
	ID                  string
	Name                string
	Capacity            int
	RequiredSupervisors int
	RequiredObservers   int
	CanAddObserver      bool
	Status              RoomStatus
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// AssignmentPlan is the persisted staffing plan for one (date, period).
type AssignmentPlan struct {
	Date        time.Time
	Period      planner.Period
	Status      planner.AssignmentStatus
	Assignments []RoomAssignment
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RoomAssignment is the persisted staffing of one room within a plan.
type RoomAssignment struct {
	ID           string
	Date         time.Time
	Period       planner.Period
	RoomID       string
	SupervisorID *string
	ObserverIDs  []string
	Type         AssignmentType
	Status       planner.AssignmentStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HistoryRecord is one row of the append-only participation log. At most one
// row exists per (staff, room, date, period, role).
type HistoryRecord struct {
	ID      string
	StaffID string
	RoomID  string
	Date    time.Time
	Period  planner.Period
	Role    planner.Role
}

// InteractionRecord counts supervisor/observer co-occurrences. The
// (supervisor, observer, date, room) key is unique; repeated writes increment
// Count rather than inserting.
type InteractionRecord struct {
	SupervisorID string
	ObserverID   string
	Date         time.Time
	RoomID       string
	Count        int
}

// AbsenceEvent is one row of the append-only absence audit trail.
type AbsenceEvent struct {
	ID            string
	AssignmentID  string
	StaffID       string
	Role          planner.Role
	Reason        string
	Action        AbsenceAction
	ReplacementID *string
	RecordedAt    time.Time
}
