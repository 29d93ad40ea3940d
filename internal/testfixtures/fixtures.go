package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/exam-assignment/internal/persistence"
	"github.com/example/exam-assignment/internal/persistence/memory"
	"github.com/example/exam-assignment/internal/planner"
)

var (
	staffCounter   uint64
	roomCounter    uint64
	absenceCounter uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDate returns ReferenceTime truncated to its UTC calendar day, the
// form plan keys and history rows use.
func ReferenceDate() time.Time {
	return planner.NormalizeDate(referenceTime)
}

// ----------------------------- Staff fixtures -----------------------------

// StaffFixture represents a deterministic staff record that can be
// materialised for application or persistence tests.
type StaffFixture struct {
	ID                  string
	Name                string
	Role                planner.Role
	Rank                planner.Rank
	Status              planner.StaffStatus
	ConsecutiveAbsences int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// StaffOption configures the generated staff fixture.
type StaffOption func(*StaffFixture)

// NewStaffFixture returns a deterministic staff fixture with optional
// overrides. The default is an active college-employed supervisor.
func NewStaffFixture(opts ...StaffOption) StaffFixture {
	idx := atomic.AddUint64(&staffCounter, 1)
	id := fmt.Sprintf("staff-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := StaffFixture{
		ID:        id,
		Name:      fmt.Sprintf("Staff %03d", idx),
		Role:      planner.RoleSupervisor,
		Rank:      planner.RankCollege,
		Status:    planner.StaffActive,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithStaffID overrides the generated staff ID.
func WithStaffID(id string) StaffOption {
	return func(f *StaffFixture) {
		f.ID = id
	}
}

// WithStaffName overrides the generated display name.
func WithStaffName(name string) StaffOption {
	return func(f *StaffFixture) {
		f.Name = name
	}
}

// AsSupervisor sets the supervisor role on the fixture.
func AsSupervisor() StaffOption {
	return func(f *StaffFixture) {
		f.Role = planner.RoleSupervisor
	}
}

// AsObserver sets the observer role on the fixture.
func AsObserver() StaffOption {
	return func(f *StaffFixture) {
		f.Role = planner.RoleObserver
	}
}

// WithStaffRank overrides the generated rank.
func WithStaffRank(rank planner.Rank) StaffOption {
	return func(f *StaffFixture) {
		f.Rank = rank
	}
}

// WithStaffStatus overrides the generated status.
func WithStaffStatus(status planner.StaffStatus) StaffOption {
	return func(f *StaffFixture) {
		f.Status = status
	}
}

// WithConsecutiveAbsences sets the running absence counter on the fixture.
func WithConsecutiveAbsences(count int) StaffOption {
	return func(f *StaffFixture) {
		f.ConsecutiveAbsences = count
	}
}

// WithStaffTimestamps sets both created and updated timestamps.
func WithStaffTimestamps(created, updated time.Time) StaffOption {
	return func(f *StaffFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Persistence returns the fixture as a persistence.Staff value.
func (f StaffFixture) Persistence() persistence.Staff {
	return persistence.Staff{
		ID:                  f.ID,
		Name:                f.Name,
		Role:                f.Role,
		Rank:                f.Rank,
		Status:              f.Status,
		ConsecutiveAbsences: f.ConsecutiveAbsences,
		CreatedAt:           f.CreatedAt,
		UpdatedAt:           f.UpdatedAt,
	}
}

// Planner returns the fixture as a planner.Staff value.
func (f StaffFixture) Planner() planner.Staff {
	return planner.Staff{
		ID:                  f.ID,
		Name:                f.Name,
		Role:                f.Role,
		Rank:                f.Rank,
		Status:              f.Status,
		ConsecutiveAbsences: f.ConsecutiveAbsences,
	}
}

// ----------------------------- Room fixtures -----------------------------

// RoomFixture represents a deterministic exam room record.
type RoomFixture struct {
	ID                  string
	Name                string
	Capacity            int
	RequiredSupervisors int
	RequiredObservers   int
	CanAddObserver      bool
	Status              persistence.RoomStatus
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// RoomOption configures the generated room fixture.
type RoomOption func(*RoomFixture)

// NewRoomFixture returns a deterministic room fixture with optional
// overrides. The default is an available room needing one supervisor and one
// observer.
func NewRoomFixture(opts ...RoomOption) RoomFixture {
	idx := atomic.AddUint64(&roomCounter, 1)
	id := fmt.Sprintf("room-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Hour)
	fixture := RoomFixture{
		ID:                  id,
		Name:                fmt.Sprintf("Room %03d", idx),
		Capacity:            int(20 + idx%20),
		RequiredSupervisors: 1,
		RequiredObservers:   1,
		Status:              persistence.RoomAvailable,
		CreatedAt:           created,
		UpdatedAt:           created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRoomID overrides the generated room ID.
func WithRoomID(id string) RoomOption {
	return func(f *RoomFixture) {
		f.ID = id
	}
}

// WithRoomName overrides the generated room name.
func WithRoomName(name string) RoomOption {
	return func(f *RoomFixture) {
		f.Name = name
	}
}

// WithRoomCapacity overrides the generated capacity.
func WithRoomCapacity(capacity int) RoomOption {
	return func(f *RoomFixture) {
		f.Capacity = capacity
	}
}

// WithRoomRequirements sets the required supervisor and observer counts.
func WithRoomRequirements(supervisors, observers int) RoomOption {
	return func(f *RoomFixture) {
		f.RequiredSupervisors = supervisors
		f.RequiredObservers = observers
	}
}

// WithFlexibleObservers marks the room as accepting extra observers.
func WithFlexibleObservers() RoomOption {
	return func(f *RoomFixture) {
		f.CanAddObserver = true
	}
}

// WithRoomStatus overrides the generated status.
func WithRoomStatus(status persistence.RoomStatus) RoomOption {
	return func(f *RoomFixture) {
		f.Status = status
	}
}

// WithRoomTimestamps sets both created and updated timestamps.
func WithRoomTimestamps(created, updated time.Time) RoomOption {
	return func(f *RoomFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Persistence returns the fixture as a persistence.Room value.
func (f RoomFixture) Persistence() persistence.Room {
	return persistence.Room{
		ID:                  f.ID,
		Name:                f.Name,
		Capacity:            f.Capacity,
		RequiredSupervisors: f.RequiredSupervisors,
		RequiredObservers:   f.RequiredObservers,
		CanAddObserver:      f.CanAddObserver,
		Status:              f.Status,
		CreatedAt:           f.CreatedAt,
		UpdatedAt:           f.UpdatedAt,
	}
}

// Planner returns the fixture as a planner.Room value.
func (f RoomFixture) Planner() planner.Room {
	return planner.Room{
		ID:                  f.ID,
		Name:                f.Name,
		Capacity:            f.Capacity,
		RequiredSupervisors: f.RequiredSupervisors,
		RequiredObservers:   f.RequiredObservers,
		CanAddObserver:      f.CanAddObserver,
		Available:           f.Status == persistence.RoomAvailable,
	}
}

// --------------------------- Absence fixtures ----------------------------

// AbsenceFixture represents a deterministic absence event.
type AbsenceFixture struct {
	ID            string
	AssignmentID  string
	StaffID       string
	Role          planner.Role
	Reason        string
	Action        persistence.AbsenceAction
	ReplacementID *string
	RecordedAt    time.Time
}

// AbsenceOption configures the generated absence fixture.
type AbsenceOption func(*AbsenceFixture)

// NewAbsenceFixture returns a deterministic absence fixture with optional
// overrides.
func NewAbsenceFixture(opts ...AbsenceOption) AbsenceFixture {
	idx := atomic.AddUint64(&absenceCounter, 1)
	fixture := AbsenceFixture{
		ID:           fmt.Sprintf("absence-%03d", idx),
		AssignmentID: fmt.Sprintf("assignment-%03d", idx),
		StaffID:      fmt.Sprintf("staff-%03d", idx),
		Role:         planner.RoleSupervisor,
		Reason:       "illness",
		Action:       persistence.AbsenceOnly,
		RecordedAt:   referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithAbsenceAssignment sets the assignment the absence belongs to.
func WithAbsenceAssignment(assignmentID string) AbsenceOption {
	return func(f *AbsenceFixture) {
		f.AssignmentID = assignmentID
	}
}

// WithAbsenceStaff sets the absent staff member and role.
func WithAbsenceStaff(staffID string, role planner.Role) AbsenceOption {
	return func(f *AbsenceFixture) {
		f.StaffID = staffID
		f.Role = role
	}
}

// WithAbsenceReason overrides the generated reason.
func WithAbsenceReason(reason string) AbsenceOption {
	return func(f *AbsenceFixture) {
		f.Reason = reason
	}
}

// WithAbsenceAction sets the resolution recorded on the event.
func WithAbsenceAction(action persistence.AbsenceAction) AbsenceOption {
	return func(f *AbsenceFixture) {
		f.Action = action
	}
}

// WithAbsenceReplacement sets the substitute recorded on the event.
func WithAbsenceReplacement(staffID string) AbsenceOption {
	return func(f *AbsenceFixture) {
		id := staffID
		f.ReplacementID = &id
	}
}

// WithAbsenceRecordedAt sets the event timestamp.
func WithAbsenceRecordedAt(t time.Time) AbsenceOption {
	return func(f *AbsenceFixture) {
		f.RecordedAt = t
	}
}

// Persistence returns the fixture as a persistence.AbsenceEvent value.
func (f AbsenceFixture) Persistence() persistence.AbsenceEvent {
	var replacement *string
	if f.ReplacementID != nil {
		id := *f.ReplacementID
		replacement = &id
	}
	return persistence.AbsenceEvent{
		ID:            f.ID,
		AssignmentID:  f.AssignmentID,
		StaffID:       f.StaffID,
		Role:          f.Role,
		Reason:        f.Reason,
		Action:        f.Action,
		ReplacementID: replacement,
		RecordedAt:    f.RecordedAt,
	}
}

// ---------------------------- Storage seeding ----------------------------

// SeededStorage returns an in-memory storage populated with the supplied
// staff and room fixtures.
func SeededStorage(staff []StaffFixture, rooms []RoomFixture) *memory.Storage {
	storage := memory.NewStorage()
	for _, f := range staff {
		storage.PutStaff(f.Persistence())
	}
	for _, f := range rooms {
		storage.PutRoom(f.Persistence())
	}
	return storage
}

// StandardRoster seeds a storage with a typical exam-day roster: the given
// number of supervisors and observers, all active college employees. Staff
// IDs follow the global fixture sequence; callers who need exact IDs should
// seed explicitly.
func StandardRoster(supervisors, observers int) (*memory.Storage, []StaffFixture, []StaffFixture) {
	sups := make([]StaffFixture, 0, supervisors)
	for i := 0; i < supervisors; i++ {
		sups = append(sups, NewStaffFixture(AsSupervisor()))
	}
	obs := make([]StaffFixture, 0, observers)
	for i := 0; i < observers; i++ {
		obs = append(obs, NewStaffFixture(AsObserver()))
	}
	storage := SeededStorage(append(append([]StaffFixture(nil), sups...), obs...), nil)
	return storage, sups, obs
}
