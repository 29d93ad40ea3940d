package application

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/example/exam-assignment/internal/persistence"
	"github.com/example/exam-assignment/internal/persistence/memory"
	"github.com/example/exam-assignment/internal/planner"
)

// planOneRoom seeds one room with the given pools, plans it, and returns the
// engine plus the room's single assignment.
func planOneRoom(t *testing.T, storage *memory.Storage, notifier Notifier, cfg EngineConfig, observers int) (*Engine, persistence.RoomAssignment) {
	t.Helper()
	seedRoom(storage, "room-a", 1, observers)

	engine := newTestEngine(storage, notifier, cfg)
	plan, err := engine.Planning.Plan(context.Background(), PlanParams{
		Date:    testDate,
		Period:  planner.PeriodMorning,
		RoomIDs: []string{"room-a"},
	})
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	if len(plan.Assignments) != 1 {
		t.Fatalf("expected 1 assignment, got %d", len(plan.Assignments))
	}
	return engine, plan.Assignments[0]
}

func TestReplacementService_RecordAbsence(t *testing.T) {
	storage := memory.NewStorage()
	seedStaff(storage, "sup-1", planner.RoleSupervisor, planner.RankCollege, planner.StaffActive)
	seedStaff(storage, "obs-1", planner.RoleObserver, planner.RankCollege, planner.StaffActive)
	engine, assignment := planOneRoom(t, storage, &notifierStub{}, EngineConfig{}, 1)

	event, err := engine.Replacement.RecordAbsence(context.Background(), RecordAbsenceParams{
		AssignmentID: assignment.ID,
		StaffID:      "sup-1",
		Role:         planner.RoleSupervisor,
		Reason:       "illness",
	})
	if err != nil {
		t.Fatalf("RecordAbsence returned error: %v", err)
	}
	if event.Action != persistence.AbsenceOnly {
		t.Fatalf("expected absence_only event, got %s", event.Action)
	}
	if event.Reason != "illness" {
		t.Fatalf("unexpected reason %q", event.Reason)
	}

	staff, err := storage.GetStaff(context.Background(), "sup-1")
	if err != nil {
		t.Fatalf("GetStaff returned error: %v", err)
	}
	if staff.ConsecutiveAbsences != 1 {
		t.Fatalf("expected 1 consecutive absence, got %d", staff.ConsecutiveAbsences)
	}
	if staff.Status != planner.StaffActive {
		t.Fatalf("expected staff still active below threshold, got %s", staff.Status)
	}
}

func TestReplacementService_RecordAbsenceIsIdempotent(t *testing.T) {
	storage := memory.NewStorage()
	seedStaff(storage, "sup-1", planner.RoleSupervisor, planner.RankCollege, planner.StaffActive)
	engine, assignment := planOneRoom(t, storage, &notifierStub{}, EngineConfig{}, 0)

	params := RecordAbsenceParams{
		AssignmentID: assignment.ID,
		StaffID:      "sup-1",
		Role:         planner.RoleSupervisor,
	}
	first, err := engine.Replacement.RecordAbsence(context.Background(), params)
	if err != nil {
		t.Fatalf("first RecordAbsence returned error: %v", err)
	}
	second, err := engine.Replacement.RecordAbsence(context.Background(), params)
	if err != nil {
		t.Fatalf("second RecordAbsence returned error: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected the existing event back, got %s and %s", first.ID, second.ID)
	}

	staff, err := storage.GetStaff(context.Background(), "sup-1")
	if err != nil {
		t.Fatalf("GetStaff returned error: %v", err)
	}
	if staff.ConsecutiveAbsences != 1 {
		t.Fatalf("expected counter to stay at 1, got %d", staff.ConsecutiveAbsences)
	}
}

func TestReplacementService_RecordAbsenceRejectsNonHolder(t *testing.T) {
	storage := memory.NewStorage()
	seedStaff(storage, "sup-1", planner.RoleSupervisor, planner.RankCollege, planner.StaffActive)
	seedStaff(storage, "sup-2", planner.RoleSupervisor, planner.RankCollege, planner.StaffActive)
	engine, assignment := planOneRoom(t, storage, &notifierStub{}, EngineConfig{}, 0)

	// sup-1 wins the slot on the id tiebreak, so sup-2 does not hold it.
	_, err := engine.Replacement.RecordAbsence(context.Background(), RecordAbsenceParams{
		AssignmentID: assignment.ID,
		StaffID:      "sup-2",
		Role:         planner.RoleSupervisor,
	})
	if !errors.Is(err, ErrNotAssigned) {
		t.Fatalf("expected ErrNotAssigned, got %v", err)
	}

	// Holding the slot in one role does not cover the other role.
	_, err = engine.Replacement.RecordAbsence(context.Background(), RecordAbsenceParams{
		AssignmentID: assignment.ID,
		StaffID:      "sup-1",
		Role:         planner.RoleObserver,
	})
	if !errors.Is(err, ErrNotAssigned) {
		t.Fatalf("expected ErrNotAssigned for role mismatch, got %v", err)
	}
}

func TestReplacementService_RecordAbsenceUnknownAssignment(t *testing.T) {
	storage := memory.NewStorage()
	seedStaff(storage, "sup-1", planner.RoleSupervisor, planner.RankCollege, planner.StaffActive)
	engine := newTestEngine(storage, &notifierStub{}, EngineConfig{})

	_, err := engine.Replacement.RecordAbsence(context.Background(), RecordAbsenceParams{
		AssignmentID: "assignment-missing",
		StaffID:      "sup-1",
		Role:         planner.RoleSupervisor,
	})
	if !errors.Is(err, ErrNotAssigned) {
		t.Fatalf("expected ErrNotAssigned, got %v", err)
	}
}

func TestReplacementService_RecordAbsenceSuspendsAtThreshold(t *testing.T) {
	storage := memory.NewStorage()
	storage.PutStaff(persistence.Staff{
		ID:                  "sup-1",
		Role:                planner.RoleSupervisor,
		Rank:                planner.RankCollege,
		Status:              planner.StaffActive,
		ConsecutiveAbsences: 0,
	})
	engine, assignment := planOneRoom(t, storage, &notifierStub{}, EngineConfig{AbsenceSuspendThreshold: 1}, 0)

	if _, err := engine.Replacement.RecordAbsence(context.Background(), RecordAbsenceParams{
		AssignmentID: assignment.ID,
		StaffID:      "sup-1",
		Role:         planner.RoleSupervisor,
	}); err != nil {
		t.Fatalf("RecordAbsence returned error: %v", err)
	}

	staff, err := storage.GetStaff(context.Background(), "sup-1")
	if err != nil {
		t.Fatalf("GetStaff returned error: %v", err)
	}
	if staff.Status != planner.StaffSuspended {
		t.Fatalf("expected staff suspended at threshold, got %s", staff.Status)
	}
}

func TestReplacementService_AutoReplaceRequiresRecordedAbsence(t *testing.T) {
	storage := memory.NewStorage()
	seedStaff(storage, "sup-1", planner.RoleSupervisor, planner.RankCollege, planner.StaffActive)
	seedStaff(storage, "sup-2", planner.RoleSupervisor, planner.RankCollege, planner.StaffActive)
	engine, assignment := planOneRoom(t, storage, &notifierStub{}, EngineConfig{}, 0)

	_, err := engine.Replacement.AutoReplace(context.Background(), AutoReplaceParams{
		AssignmentID: assignment.ID,
		StaffID:      "sup-1",
		Role:         planner.RoleSupervisor,
	})
	if !errors.Is(err, ErrNotAbsent) {
		t.Fatalf("expected ErrNotAbsent, got %v", err)
	}
}

func TestReplacementService_AutoReplaceInstallsSubstitute(t *testing.T) {
	storage := memory.NewStorage()
	seedStaff(storage, "sup-1", planner.RoleSupervisor, planner.RankCollege, planner.StaffActive)
	seedStaff(storage, "sup-2", planner.RoleSupervisor, planner.RankCollege, planner.StaffActive)
	seedStaff(storage, "obs-1", planner.RoleObserver, planner.RankCollege, planner.StaffActive)
	engine, assignment := planOneRoom(t, storage, &notifierStub{}, EngineConfig{}, 1)

	ctx := context.Background()
	if _, err := engine.Replacement.RecordAbsence(ctx, RecordAbsenceParams{
		AssignmentID: assignment.ID,
		StaffID:      "sup-1",
		Role:         planner.RoleSupervisor,
		Reason:       "illness",
	}); err != nil {
		t.Fatalf("RecordAbsence returned error: %v", err)
	}

	result, err := engine.Replacement.AutoReplace(ctx, AutoReplaceParams{
		AssignmentID: assignment.ID,
		StaffID:      "sup-1",
		Role:         planner.RoleSupervisor,
	})
	if err != nil {
		t.Fatalf("AutoReplace returned error: %v", err)
	}
	if result.Outcome != OutcomeReplaced {
		t.Fatalf("expected replaced outcome, got %s", result.Outcome)
	}
	if result.ReplacementID != "sup-2" {
		t.Fatalf("expected sup-2 as substitute, got %s", result.ReplacementID)
	}
	if result.Assignment.Type != persistence.AssignmentTemporary {
		t.Fatalf("expected temporary assignment, got %s", result.Assignment.Type)
	}

	stored, err := storage.GetAssignment(ctx, assignment.ID)
	if err != nil {
		t.Fatalf("GetAssignment returned error: %v", err)
	}
	if stored.SupervisorID == nil || *stored.SupervisorID != "sup-2" {
		t.Fatalf("expected persisted supervisor sup-2, got %v", stored.SupervisorID)
	}

	events, err := storage.ListAbsences(ctx, assignment.ID)
	if err != nil {
		t.Fatalf("ListAbsences returned error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected absence plus replacement events, got %d", len(events))
	}
	last := events[len(events)-1]
	if last.Action != persistence.AutoReplacement {
		t.Fatalf("expected auto_replacement event, got %s", last.Action)
	}
	if last.ReplacementID == nil || *last.ReplacementID != "sup-2" {
		t.Fatalf("expected replacement id sup-2 on event, got %v", last.ReplacementID)
	}
}

func TestReplacementService_AutoReplaceVacatesWhenNoCandidate(t *testing.T) {
	storage := memory.NewStorage()
	seedStaff(storage, "sup-1", planner.RoleSupervisor, planner.RankCollege, planner.StaffActive)
	seedStaff(storage, "obs-1", planner.RoleObserver, planner.RankCollege, planner.StaffActive)
	notifier := &notifierStub{}
	engine, assignment := planOneRoom(t, storage, notifier, EngineConfig{}, 1)

	ctx := context.Background()
	if _, err := engine.Replacement.RecordAbsence(ctx, RecordAbsenceParams{
		AssignmentID: assignment.ID,
		StaffID:      "sup-1",
		Role:         planner.RoleSupervisor,
	}); err != nil {
		t.Fatalf("RecordAbsence returned error: %v", err)
	}

	result, err := engine.Replacement.AutoReplace(ctx, AutoReplaceParams{
		AssignmentID: assignment.ID,
		StaffID:      "sup-1",
		Role:         planner.RoleSupervisor,
	})
	if err != nil {
		t.Fatalf("AutoReplace returned error: %v", err)
	}
	if result.Outcome != OutcomeVacant {
		t.Fatalf("expected vacant outcome, got %s", result.Outcome)
	}
	if result.Assignment.SupervisorID != nil {
		t.Fatalf("expected vacated supervisor slot, got %v", result.Assignment.SupervisorID)
	}
	if result.Assignment.Status != planner.StatusIncomplete {
		t.Fatalf("expected incomplete room status, got %s", result.Assignment.Status)
	}

	// The vacancy is reported as a fresh deficiency.
	notices := notifier.all()
	if len(notices) != 1 {
		t.Fatalf("expected 1 deficiency notice, got %d", len(notices))
	}
	if notices[0].Role != planner.RoleSupervisor || notices[0].RoomID != "room-a" {
		t.Fatalf("unexpected deficiency notice: %+v", notices[0])
	}

	outstanding := engine.Planning.OutstandingDeficiencies(testDate, planner.PeriodMorning)
	if len(outstanding) != 1 {
		t.Fatalf("expected shared deficiency board to hold the vacancy, got %+v", outstanding)
	}

	// The whole plan degrades with its only room.
	plan, err := storage.GetPlan(ctx, testDate, planner.PeriodMorning)
	if err != nil {
		t.Fatalf("GetPlan returned error: %v", err)
	}
	if plan.Status != planner.StatusIncomplete {
		t.Fatalf("expected incomplete plan status, got %s", plan.Status)
	}
}

func TestReplacementService_ManualReplaceChecksEligibility(t *testing.T) {
	storage := memory.NewStorage()
	seedStaff(storage, "sup-1", planner.RoleSupervisor, planner.RankCollege, planner.StaffActive)
	seedStaff(storage, "obs-1", planner.RoleObserver, planner.RankCollege, planner.StaffActive)
	seedStaff(storage, "sup-suspended", planner.RoleSupervisor, planner.RankCollege, planner.StaffSuspended)
	engine, assignment := planOneRoom(t, storage, &notifierStub{}, EngineConfig{}, 1)

	ctx := context.Background()
	cases := []struct {
		name        string
		replacement string
	}{
		{"wrong role", "obs-1"},
		{"suspended staff", "sup-suspended"},
		{"already assigned", "sup-1"},
		{"unknown staff", "sup-missing"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.Replacement.ManualReplace(ctx, ManualReplaceParams{
				AssignmentID:       assignment.ID,
				OriginalStaffID:    "sup-1",
				ReplacementStaffID: tc.replacement,
				Role:               planner.RoleSupervisor,
			})
			if !errors.Is(err, ErrIneligibleReplacement) {
				t.Fatalf("expected ErrIneligibleReplacement, got %v", err)
			}
		})
	}
}

func TestReplacementService_ManualReplaceOverrideBypassesEligibility(t *testing.T) {
	storage := memory.NewStorage()
	seedStaff(storage, "sup-1", planner.RoleSupervisor, planner.RankCollege, planner.StaffActive)
	seedStaff(storage, "sup-suspended", planner.RoleSupervisor, planner.RankCollege, planner.StaffSuspended)
	engine, assignment := planOneRoom(t, storage, &notifierStub{}, EngineConfig{}, 0)

	ctx := context.Background()
	result, err := engine.Replacement.ManualReplace(ctx, ManualReplaceParams{
		AssignmentID:       assignment.ID,
		OriginalStaffID:    "sup-1",
		ReplacementStaffID: "sup-suspended",
		Role:               planner.RoleSupervisor,
		Reason:             "exam office decision",
		Override:           true,
	})
	if err != nil {
		t.Fatalf("ManualReplace with override returned error: %v", err)
	}
	if result.Outcome != OutcomeReplaced || result.ReplacementID != "sup-suspended" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Assignment.Type != persistence.AssignmentManual {
		t.Fatalf("expected manual assignment type, got %s", result.Assignment.Type)
	}

	// Override never invents staff: the substitute must exist in the roster.
	_, err = engine.Replacement.ManualReplace(ctx, ManualReplaceParams{
		AssignmentID:       assignment.ID,
		OriginalStaffID:    "sup-suspended",
		ReplacementStaffID: "sup-ghost",
		Role:               planner.RoleSupervisor,
		Override:           true,
	})
	if !errors.Is(err, ErrIneligibleReplacement) {
		t.Fatalf("expected ErrIneligibleReplacement for unknown staff, got %v", err)
	}
}

func TestReplacementService_ManualReplaceAppendsAuditEvent(t *testing.T) {
	storage := memory.NewStorage()
	seedStaff(storage, "sup-1", planner.RoleSupervisor, planner.RankCollege, planner.StaffActive)
	seedStaff(storage, "sup-2", planner.RoleSupervisor, planner.RankCollege, planner.StaffActive)
	engine, assignment := planOneRoom(t, storage, &notifierStub{}, EngineConfig{}, 0)

	ctx := context.Background()
	if _, err := engine.Replacement.ManualReplace(ctx, ManualReplaceParams{
		AssignmentID:       assignment.ID,
		OriginalStaffID:    "sup-1",
		ReplacementStaffID: "sup-2",
		Role:               planner.RoleSupervisor,
		Reason:             "schedule clash",
	}); err != nil {
		t.Fatalf("ManualReplace returned error: %v", err)
	}

	events, err := storage.ListAbsences(ctx, assignment.ID)
	if err != nil {
		t.Fatalf("ListAbsences returned error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	event := events[0]
	if event.Action != persistence.ManualReplacement {
		t.Fatalf("expected manual_replacement event, got %s", event.Action)
	}
	if event.StaffID != "sup-1" || event.ReplacementID == nil || *event.ReplacementID != "sup-2" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.Reason != "schedule clash" {
		t.Fatalf("unexpected reason %q", event.Reason)
	}
}

// rendezvousStore holds the first two GetAssignment calls until both have
// arrived, forcing two concurrent mutations to read the same plan state
// before either takes the plan lock. Later calls pass straight through.
type rendezvousStore struct {
	*memory.Storage
	mu      sync.Mutex
	arrived int
	ready   chan struct{}
}

func (s *rendezvousStore) GetAssignment(ctx context.Context, id string) (persistence.RoomAssignment, error) {
	s.mu.Lock()
	hold := s.arrived < 2
	if hold {
		s.arrived++
		if s.arrived == 2 {
			close(s.ready)
		}
	}
	s.mu.Unlock()
	if hold {
		<-s.ready
	}
	return s.Storage.GetAssignment(ctx, id)
}

func TestReplacementService_ConcurrentManualReplaceKeepsBothSubstitutes(t *testing.T) {
	storage := memory.NewStorage()
	seedStaff(storage, "sup-1", planner.RoleSupervisor, planner.RankCollege, planner.StaffActive)
	for _, id := range []string{"obs-1", "obs-2", "obs-3", "obs-4"} {
		seedStaff(storage, id, planner.RoleObserver, planner.RankCollege, planner.StaffActive)
	}
	seedRoom(storage, "room-a", 1, 2)

	store := &rendezvousStore{Storage: storage, ready: make(chan struct{})}
	engine := NewEngine(store, &notifierStub{}, EngineConfig{}, sequentialIDs("id"), fixedNow, nil)

	ctx := context.Background()
	plan, err := engine.Planning.Plan(ctx, PlanParams{
		Date:    testDate,
		Period:  planner.PeriodMorning,
		RoomIDs: []string{"room-a"},
	})
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	assignment := plan.Assignments[0]

	swap := func(original, substitute string) error {
		_, err := engine.Replacement.ManualReplace(ctx, ManualReplaceParams{
			AssignmentID:       assignment.ID,
			OriginalStaffID:    original,
			ReplacementStaffID: substitute,
			Role:               planner.RoleObserver,
		})
		return err
	}

	errs := make(chan error, 2)
	go func() { errs <- swap("obs-1", "obs-3") }()
	go func() { errs <- swap("obs-2", "obs-4") }()
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("ManualReplace returned error: %v", err)
		}
	}

	// Neither swap may overwrite the other: both substitutes must survive.
	stored, err := store.GetAssignment(ctx, assignment.ID)
	if err != nil {
		t.Fatalf("GetAssignment returned error: %v", err)
	}
	if len(stored.ObserverIDs) != 2 {
		t.Fatalf("expected 2 observers, got %v", stored.ObserverIDs)
	}
	for _, id := range []string{"obs-3", "obs-4"} {
		if !slices.Contains(stored.ObserverIDs, id) {
			t.Fatalf("expected substitute %s installed, got %v", id, stored.ObserverIDs)
		}
	}
}

func TestReplacementService_AbsenceCounterMovesOncePerDay(t *testing.T) {
	storage := memory.NewStorage()
	seedStaff(storage, "sup-1", planner.RoleSupervisor, planner.RankCollege, planner.StaffActive)
	seedRoom(storage, "room-a", 1, 0)
	engine := newTestEngine(storage, &notifierStub{}, EngineConfig{AbsenceSuspendThreshold: 2})

	ctx := context.Background()
	planFor := func(date time.Time, period planner.Period) persistence.RoomAssignment {
		t.Helper()
		plan, err := engine.Planning.Plan(ctx, PlanParams{Date: date, Period: period, RoomIDs: []string{"room-a"}})
		if err != nil {
			t.Fatalf("Plan returned error: %v", err)
		}
		return plan.Assignments[0]
	}
	// Plan every session up front: planning marks placed staff present and
	// would reset a counter accumulated in between.
	day1Morning := planFor(testDate, planner.PeriodMorning)
	day1Evening := planFor(testDate, planner.PeriodEvening)
	day2Morning := planFor(testDate.AddDate(0, 0, 1), planner.PeriodMorning)

	record := func(assignment persistence.RoomAssignment) {
		t.Helper()
		if _, err := engine.Replacement.RecordAbsence(ctx, RecordAbsenceParams{
			AssignmentID: assignment.ID,
			StaffID:      "sup-1",
			Role:         planner.RoleSupervisor,
		}); err != nil {
			t.Fatalf("RecordAbsence returned error: %v", err)
		}
	}
	counterAndStatus := func() (int, planner.StaffStatus) {
		t.Helper()
		staff, err := storage.GetStaff(ctx, "sup-1")
		if err != nil {
			t.Fatalf("GetStaff returned error: %v", err)
		}
		return staff.ConsecutiveAbsences, staff.Status
	}

	record(day1Morning)
	if count, status := counterAndStatus(); count != 1 || status != planner.StaffActive {
		t.Fatalf("expected counter 1 and active staff, got %d %s", count, status)
	}

	// Missing both sessions of one day is a single consecutive absence, so
	// the threshold of 2 must not trip.
	record(day1Evening)
	if count, status := counterAndStatus(); count != 1 || status != planner.StaffActive {
		t.Fatalf("expected same-day counter 1 and active staff, got %d %s", count, status)
	}

	record(day2Morning)
	if count, status := counterAndStatus(); count != 2 || status != planner.StaffSuspended {
		t.Fatalf("expected counter 2 and suspended staff, got %d %s", count, status)
	}
}

func TestReplacementService_ManualReplaceRefillsVacatedSlot(t *testing.T) {
	storage := memory.NewStorage()
	seedStaff(storage, "sup-1", planner.RoleSupervisor, planner.RankCollege, planner.StaffActive)
	engine, assignment := planOneRoom(t, storage, &notifierStub{}, EngineConfig{}, 0)

	ctx := context.Background()
	if _, err := engine.Replacement.RecordAbsence(ctx, RecordAbsenceParams{
		AssignmentID: assignment.ID,
		StaffID:      "sup-1",
		Role:         planner.RoleSupervisor,
	}); err != nil {
		t.Fatalf("RecordAbsence returned error: %v", err)
	}

	// With sup-1 as the only supervisor the slot vacates.
	result, err := engine.Replacement.AutoReplace(ctx, AutoReplaceParams{
		AssignmentID: assignment.ID,
		StaffID:      "sup-1",
		Role:         planner.RoleSupervisor,
	})
	if err != nil {
		t.Fatalf("AutoReplace returned error: %v", err)
	}
	if result.Outcome != OutcomeVacant {
		t.Fatalf("expected vacant outcome, got %s", result.Outcome)
	}
	if got := engine.Planning.OutstandingDeficiencies(testDate, planner.PeriodMorning); len(got) != 1 {
		t.Fatalf("expected the vacancy on the deficiency board, got %+v", got)
	}

	// A supervisor hired onto the roster afterwards can take the empty slot.
	seedStaff(storage, "sup-2", planner.RoleSupervisor, planner.RankCollege, planner.StaffActive)
	result, err = engine.Replacement.ManualReplace(ctx, ManualReplaceParams{
		AssignmentID:       assignment.ID,
		OriginalStaffID:    "sup-1",
		ReplacementStaffID: "sup-2",
		Role:               planner.RoleSupervisor,
		Reason:             "late hire",
	})
	if err != nil {
		t.Fatalf("ManualReplace refill returned error: %v", err)
	}
	if result.Outcome != OutcomeReplaced || result.ReplacementID != "sup-2" {
		t.Fatalf("unexpected refill result: %+v", result)
	}
	if result.Assignment.Status != planner.StatusComplete {
		t.Fatalf("expected complete room status after refill, got %s", result.Assignment.Status)
	}

	stored, err := storage.GetAssignment(ctx, assignment.ID)
	if err != nil {
		t.Fatalf("GetAssignment returned error: %v", err)
	}
	if stored.SupervisorID == nil || *stored.SupervisorID != "sup-2" {
		t.Fatalf("expected persisted supervisor sup-2, got %v", stored.SupervisorID)
	}

	// The refill retires the deficiency the vacancy raised.
	if got := engine.Planning.OutstandingDeficiencies(testDate, planner.PeriodMorning); len(got) != 0 {
		t.Fatalf("expected a cleared deficiency board, got %+v", got)
	}

	plan, err := storage.GetPlan(ctx, testDate, planner.PeriodMorning)
	if err != nil {
		t.Fatalf("GetPlan returned error: %v", err)
	}
	if plan.Status != planner.StatusComplete {
		t.Fatalf("expected complete plan status after refill, got %s", plan.Status)
	}
}

func TestReplacementService_ListAvailableReplacements(t *testing.T) {
	storage := memory.NewStorage()
	seedStaff(storage, "sup-1", planner.RoleSupervisor, planner.RankCollege, planner.StaffActive)
	seedStaff(storage, "sup-2", planner.RoleSupervisor, planner.RankCollege, planner.StaffActive)
	seedStaff(storage, "sup-3", planner.RoleSupervisor, planner.RankCollege, planner.StaffSuspended)
	engine, _ := planOneRoom(t, storage, &notifierStub{}, EngineConfig{}, 0)

	available, err := engine.Replacement.ListAvailableReplacements(context.Background(), ListReplacementsParams{
		Date:   testDate,
		Period: planner.PeriodMorning,
		RoomID: "room-a",
		Role:   planner.RoleSupervisor,
	})
	if err != nil {
		t.Fatalf("ListAvailableReplacements returned error: %v", err)
	}

	// sup-1 holds the slot and sup-3 is suspended; only sup-2 is available.
	if len(available) != 1 {
		t.Fatalf("expected 1 available substitute, got %d", len(available))
	}
	if available[0].ID != "sup-2" {
		t.Fatalf("expected sup-2, got %s", available[0].ID)
	}
}

func TestReplacementService_ListAvailableReplacementsValidates(t *testing.T) {
	engine := newTestEngine(memory.NewStorage(), &notifierStub{}, EngineConfig{})

	_, err := engine.Replacement.ListAvailableReplacements(context.Background(), ListReplacementsParams{})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"date", "period", "room_id", "role"} {
		if _, ok := vErr.FieldErrors[field]; !ok {
			t.Fatalf("expected field error for %s, got %v", field, vErr.FieldErrors)
		}
	}
}
