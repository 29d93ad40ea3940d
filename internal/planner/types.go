package planner

import "time"

// Role identifies the duty a staff member performs in an exam room.
type Role string

const (
	// RoleSupervisor leads an exam room.
	RoleSupervisor Role = "supervisor"
	// RoleObserver assists the supervisor of an exam room.
	RoleObserver Role = "observer"
)

// Rank distinguishes internal staff from externally hired staff.
type Rank string

const (
	// RankCollege marks staff employed by the college.
	RankCollege Rank = "college_employee"
	// RankExternal marks staff hired from outside the college.
	RankExternal Rank = "external_employee"
)

// StaffStatus tracks whether a staff member may receive assignments.
type StaffStatus string

const (
	// StaffActive staff participate in planning and replacement.
	StaffActive StaffStatus = "active"
	// StaffSuspended staff are excluded until reactivated by an administrator.
	StaffSuspended StaffStatus = "suspended"
	// StaffDeleted staff are removed from all candidate pools.
	StaffDeleted StaffStatus = "deleted"
)

// Period identifies the exam session within a day.
type Period string

const (
	// PeriodMorning is the morning exam session.
	PeriodMorning Period = "morning"
	// PeriodEvening is the evening exam session.
	PeriodEvening Period = "evening"
)

// AssignmentStatus describes how fully a room (or a whole plan) is staffed.
type AssignmentStatus string

const (
	// StatusComplete means every required role slot is filled.
	StatusComplete AssignmentStatus = "complete"
	// StatusPartial means some but not all required role slots are filled.
	StatusPartial AssignmentStatus = "partial"
	// StatusIncomplete means the supervisor slot is empty or no observer was
	// assigned where the room requires at least one.
	StatusIncomplete AssignmentStatus = "incomplete"
)

// Staff is the planner's view of one invigilator.
type Staff struct {
	ID                  string
	Name                string
	Role                Role
	Rank                Rank
	Status              StaffStatus
	ConsecutiveAbsences int
}

// Eligible reports whether the staff member may be considered at all. Status
// gating happens before scoring; suspended and deleted staff never score.
func (s Staff) Eligible() bool {
	return s.Status == StaffActive
}

// Room is the planner's view of one exam room.
type Room struct {
	ID                  string
	Name                string
	Capacity            int
	RequiredSupervisors int
	RequiredObservers   int
	CanAddObserver      bool
	Available           bool
}

// demand orders rooms so the hardest-to-staff rooms are handled first.
func (r Room) demand() int {
	return r.RequiredSupervisors + r.RequiredObservers
}

// NormalizeDate truncates a timestamp to its UTC calendar day. All engine
// bookkeeping is keyed by calendar day, never by instant.
func NormalizeDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DateKey renders a normalized date as the canonical storage key.
func DateKey(t time.Time) string {
	return NormalizeDate(t).Format("2006-01-02")
}
