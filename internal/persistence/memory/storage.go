package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/exam-assignment/internal/persistence"
	"github.com/example/exam-assignment/internal/planner"
)

// Storage is an in-memory implementation of every engine repository. It backs
// tests and small deployments; the SQLite store is the durable counterpart.
type Storage struct {
	mu           sync.RWMutex
	staff        map[string]persistence.Staff
	rooms        map[string]persistence.Room
	plans        map[string]persistence.AssignmentPlan
	history      map[string]persistence.HistoryRecord
	interactions map[string]persistence.InteractionRecord
	absences     []persistence.AbsenceEvent
}

// NewStorage returns an empty in-memory store.
func NewStorage() *Storage {
	return &Storage{
		staff:        make(map[string]persistence.Staff),
		rooms:        make(map[string]persistence.Room),
		plans:        make(map[string]persistence.AssignmentPlan),
		history:      make(map[string]persistence.HistoryRecord),
		interactions: make(map[string]persistence.InteractionRecord),
	}
}

// --- StaffRepository ---

// PutStaff inserts or replaces a roster entry. Seeding hook for collaborators
// and tests; the engine itself never creates staff.
func (s *Storage) PutStaff(staff persistence.Staff) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staff[staff.ID] = staff
}

// GetStaff retrieves a staff member by id.
func (s *Storage) GetStaff(ctx context.Context, id string) (persistence.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	staff, ok := s.staff[id]
	if !ok {
		return persistence.Staff{}, persistence.ErrNotFound
	}
	return staff, nil
}

// ListStaff returns all staff of the given role ordered by id.
func (s *Storage) ListStaff(ctx context.Context, role planner.Role) ([]persistence.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]persistence.Staff, 0, len(s.staff))
	for _, staff := range s.staff {
		if staff.Role == role {
			out = append(out, staff)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateStaffStatus transitions a staff member's status.
func (s *Storage) UpdateStaffStatus(ctx context.Context, id string, status planner.StaffStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staff, ok := s.staff[id]
	if !ok {
		return persistence.ErrNotFound
	}
	staff.Status = status
	staff.UpdatedAt = time.Now().UTC()
	s.staff[id] = staff
	return nil
}

// IncrementAbsences bumps the consecutive-absence counter for the calendar
// day, at most once per day.
func (s *Storage) IncrementAbsences(ctx context.Context, id string, date time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	staff, ok := s.staff[id]
	if !ok {
		return 0, persistence.ErrNotFound
	}
	day := planner.NormalizeDate(date)
	if staff.LastAbsenceDate.Equal(day) {
		return staff.ConsecutiveAbsences, nil
	}
	staff.ConsecutiveAbsences++
	staff.LastAbsenceDate = day
	staff.UpdatedAt = time.Now().UTC()
	s.staff[id] = staff
	return staff.ConsecutiveAbsences, nil
}

// ResetAbsences zeroes the counter for the listed staff.
func (s *Storage) ResetAbsences(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		staff, ok := s.staff[id]
		if !ok {
			continue
		}
		if staff.ConsecutiveAbsences != 0 || !staff.LastAbsenceDate.IsZero() {
			staff.ConsecutiveAbsences = 0
			staff.LastAbsenceDate = time.Time{}
			staff.UpdatedAt = time.Now().UTC()
			s.staff[id] = staff
		}
	}
	return nil
}

// --- RoomRepository ---

// PutRoom inserts or replaces a room catalog entry.
func (s *Storage) PutRoom(room persistence.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = room
}

// GetRoom retrieves a room by id.
func (s *Storage) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[id]
	if !ok {
		return persistence.Room{}, persistence.ErrNotFound
	}
	return room, nil
}

// ListRooms returns every room ordered by id.
func (s *Storage) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]persistence.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		out = append(out, room)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- PlanRepository ---

// SavePlan upserts the plan for its (date, period) and applies the history
// appends and interaction increments atomically with it.
func (s *Storage) SavePlan(ctx context.Context, plan persistence.AssignmentPlan, history []persistence.HistoryRecord, interactions []persistence.InteractionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := planKey(plan.Date, plan.Period)
	if existing, ok := s.plans[key]; ok {
		plan.CreatedAt = existing.CreatedAt
	}
	s.plans[key] = clonePlan(plan)
	s.applyBookkeepingLocked(history, interactions)
	return nil
}

// GetPlan retrieves the plan for a (date, period).
func (s *Storage) GetPlan(ctx context.Context, date time.Time, period planner.Period) (persistence.AssignmentPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plan, ok := s.plans[planKey(date, period)]
	if !ok {
		return persistence.AssignmentPlan{}, persistence.ErrNotFound
	}
	return clonePlan(plan), nil
}

// GetAssignment retrieves a single room assignment by id.
func (s *Storage) GetAssignment(ctx context.Context, assignmentID string) (persistence.RoomAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, plan := range s.plans {
		for _, assignment := range plan.Assignments {
			if assignment.ID == assignmentID {
				return cloneAssignment(assignment), nil
			}
		}
	}
	return persistence.RoomAssignment{}, persistence.ErrNotFound
}

// UpdateAssignment replaces one room assignment in place, rederives the plan
// status, and applies the bookkeeping atomically with the mutation.
func (s *Storage) UpdateAssignment(ctx context.Context, assignment persistence.RoomAssignment, history []persistence.HistoryRecord, interactions []persistence.InteractionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := planKey(assignment.Date, assignment.Period)
	plan, ok := s.plans[key]
	if !ok {
		return persistence.ErrNotFound
	}

	found := false
	for i, existing := range plan.Assignments {
		if existing.ID == assignment.ID {
			plan.Assignments[i] = cloneAssignment(assignment)
			found = true
			break
		}
	}
	if !found {
		return persistence.ErrNotFound
	}

	plan.Status = persistence.DerivePlanStatus(plan.Assignments)
	plan.UpdatedAt = assignment.UpdatedAt
	s.plans[key] = plan
	s.applyBookkeepingLocked(history, interactions)
	return nil
}

// --- HistoryStore ---

// RoomVisitsSince returns history rows dated on or after since.
func (s *Storage) RoomVisitsSince(ctx context.Context, since time.Time) ([]persistence.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	since = planner.NormalizeDate(since)
	out := make([]persistence.HistoryRecord, 0)
	for _, record := range s.history {
		if !record.Date.Before(since) {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// PairingsSince returns interaction rows dated on or after since.
func (s *Storage) PairingsSince(ctx context.Context, since time.Time) ([]persistence.InteractionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	since = planner.NormalizeDate(since)
	out := make([]persistence.InteractionRecord, 0)
	for _, record := range s.interactions {
		if !record.Date.Before(since) {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return interactionKey(out[i]) < interactionKey(out[j])
	})
	return out, nil
}

// AssignmentCounts returns per-staff history row counts for dates in [from, to].
func (s *Storage) AssignmentCounts(ctx context.Context, from, to time.Time) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from = planner.NormalizeDate(from)
	to = planner.NormalizeDate(to)
	counts := make(map[string]int)
	for _, record := range s.history {
		if record.Date.Before(from) || record.Date.After(to) {
			continue
		}
		counts[record.StaffID]++
	}
	return counts, nil
}

// --- AbsenceLog ---

// AppendAbsence appends an event to the audit trail.
func (s *Storage) AppendAbsence(ctx context.Context, event persistence.AbsenceEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.absences = append(s.absences, cloneAbsence(event))
	return nil
}

// FindAbsence returns the most recent event for the slot.
func (s *Storage) FindAbsence(ctx context.Context, assignmentID, staffID string, role planner.Role) (persistence.AbsenceEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.absences) - 1; i >= 0; i-- {
		event := s.absences[i]
		if event.AssignmentID == assignmentID && event.StaffID == staffID && event.Role == role {
			return cloneAbsence(event), nil
		}
	}
	return persistence.AbsenceEvent{}, persistence.ErrNotFound
}

// ListAbsences returns every event recorded against the assignment in order.
func (s *Storage) ListAbsences(ctx context.Context, assignmentID string) ([]persistence.AbsenceEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]persistence.AbsenceEvent, 0)
	for _, event := range s.absences {
		if event.AssignmentID == assignmentID {
			out = append(out, cloneAbsence(event))
		}
	}
	return out, nil
}

// applyBookkeepingLocked upserts history rows (idempotent on the natural key)
// and increments interaction counters.
func (s *Storage) applyBookkeepingLocked(history []persistence.HistoryRecord, interactions []persistence.InteractionRecord) {
	for _, record := range history {
		record.Date = planner.NormalizeDate(record.Date)
		key := historyKey(record)
		if _, ok := s.history[key]; ok {
			continue
		}
		s.history[key] = record
	}
	for _, record := range interactions {
		record.Date = planner.NormalizeDate(record.Date)
		delta := record.Count
		if delta <= 0 {
			delta = 1
		}
		key := interactionKey(record)
		existing, ok := s.interactions[key]
		if !ok {
			record.Count = delta
			s.interactions[key] = record
			continue
		}
		existing.Count += delta
		s.interactions[key] = existing
	}
}

func planKey(date time.Time, period planner.Period) string {
	return planner.DateKey(date) + "|" + string(period)
}

func historyKey(record persistence.HistoryRecord) string {
	return record.StaffID + "|" + record.RoomID + "|" + planner.DateKey(record.Date) + "|" + string(record.Period) + "|" + string(record.Role)
}

func interactionKey(record persistence.InteractionRecord) string {
	return record.SupervisorID + "|" + record.ObserverID + "|" + planner.DateKey(record.Date) + "|" + record.RoomID
}

func clonePlan(plan persistence.AssignmentPlan) persistence.AssignmentPlan {
	out := plan
	out.Assignments = make([]persistence.RoomAssignment, len(plan.Assignments))
	for i, assignment := range plan.Assignments {
		out.Assignments[i] = cloneAssignment(assignment)
	}
	return out
}

func cloneAssignment(assignment persistence.RoomAssignment) persistence.RoomAssignment {
	out := assignment
	if assignment.SupervisorID != nil {
		id := *assignment.SupervisorID
		out.SupervisorID = &id
	}
	out.ObserverIDs = make([]string, len(assignment.ObserverIDs))
	copy(out.ObserverIDs, assignment.ObserverIDs)
	return out
}

func cloneAbsence(event persistence.AbsenceEvent) persistence.AbsenceEvent {
	out := event
	if event.ReplacementID != nil {
		id := *event.ReplacementID
		out.ReplacementID = &id
	}
	return out
}
