package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/exam-assignment/internal/persistence"
	"github.com/example/exam-assignment/internal/planner"
)

// PlanningService computes and persists room-by-room assignment plans.
type PlanningService struct {
	staff        persistence.StaffRepository
	rooms        persistence.RoomRepository
	plans        persistence.PlanRepository
	history      persistence.HistoryStore
	notifier     Notifier
	cfg          EngineConfig
	idGenerator  func() string
	now          func() time.Time
	locks        *planLocks
	deficiencies *deficiencyBoard
	logger       *slog.Logger
}

// NewPlanningService wires dependencies for plan computation.
func NewPlanningService(staff persistence.StaffRepository, rooms persistence.RoomRepository, plans persistence.PlanRepository, history persistence.HistoryStore, notifier Notifier, cfg EngineConfig, idGenerator func() string, now func() time.Time) *PlanningService {
	return NewPlanningServiceWithLogger(staff, rooms, plans, history, notifier, cfg, idGenerator, now, nil)
}

// NewPlanningServiceWithLogger wires dependencies including a base logger.
func NewPlanningServiceWithLogger(staff persistence.StaffRepository, rooms persistence.RoomRepository, plans persistence.PlanRepository, history persistence.HistoryStore, notifier Notifier, cfg EngineConfig, idGenerator func() string, now func() time.Time, logger *slog.Logger) *PlanningService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &PlanningService{
		staff:        staff,
		rooms:        rooms,
		plans:        plans,
		history:      history,
		notifier:     notifier,
		cfg:          cfg.withDefaults(),
		idGenerator:  idGenerator,
		now:          now,
		locks:        newPlanLocks(),
		deficiencies: newDeficiencyBoard(),
		logger:       logger,
	}
}

// Plan computes, persists, and returns the staffing plan for one
// (date, period). Re-planning an existing key replaces the stored plan;
// participation bookkeeping stays idempotent (history rows are unique per
// slot, interaction counters only increment). An understaffed plan is a
// normal outcome, reported through statuses and deficiency notices, never as
// an error.
func (s *PlanningService) Plan(ctx context.Context, params PlanParams) (persistence.AssignmentPlan, error) {
	if s == nil {
		return persistence.AssignmentPlan{}, fmt.Errorf("PlanningService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "planning", "plan",
		"date", planner.DateKey(params.Date), "period", string(params.Period))

	if err := validatePlanParams(params); err != nil {
		logger.Warn("rejected plan request", "error_kind", ErrorKind(err))
		return persistence.AssignmentPlan{}, err
	}

	release := s.locks.acquire(params.Date, params.Period)
	defer release()

	rooms, err := s.resolveRooms(ctx, params.RoomIDs)
	if err != nil {
		logger.Warn("rejected plan request", "error_kind", ErrorKind(err), "error", err)
		return persistence.AssignmentPlan{}, err
	}

	supervisors, err := s.staff.ListStaff(ctx, planner.RoleSupervisor)
	if err != nil {
		return persistence.AssignmentPlan{}, fmt.Errorf("load supervisors: %w", err)
	}
	observers, err := s.staff.ListStaff(ctx, planner.RoleObserver)
	if err != nil {
		return persistence.AssignmentPlan{}, fmt.Errorf("load observers: %w", err)
	}

	history, err := loadHistory(ctx, s.history, params.Date, s.cfg.LookbackDays)
	if err != nil {
		return persistence.AssignmentPlan{}, err
	}

	result := planner.BuildPlan(planner.Request{
		Date:        params.Date,
		Period:      params.Period,
		Rooms:       rooms,
		Supervisors: toPlannerStaffList(supervisors),
		Observers:   toPlannerStaffList(observers),
		History:     history,
		Rules:       s.cfg.Rules,
		Used:        make(map[string]struct{}),
	})

	plan, records, increments := s.materialize(result)
	if err := s.plans.SavePlan(ctx, plan, records, increments); err != nil {
		return persistence.AssignmentPlan{}, fmt.Errorf("persist plan: %w", err)
	}

	if err := s.markPresence(ctx, plan); err != nil {
		logger.Error("failed to reset absence counters", "error", err)
	}

	deficiencies := s.collectDeficiencies(result)
	s.deficiencies.Replace(plan.Date, plan.Period, deficiencies)
	if s.notifier != nil {
		for _, deficiency := range deficiencies {
			s.notifier.NotifyDeficiency(ctx, deficiency)
		}
	}

	logger.Info("plan computed",
		"status", string(plan.Status),
		"rooms", len(plan.Assignments),
		"deficiencies", len(deficiencies),
	)
	return plan, nil
}

// OutstandingDeficiencies returns the current shortfall list for a plan key.
func (s *PlanningService) OutstandingDeficiencies(date time.Time, period planner.Period) []Deficiency {
	if s == nil {
		return nil
	}
	return s.deficiencies.Outstanding(date, period)
}

func validatePlanParams(params PlanParams) error {
	vErr := &ValidationError{}
	if params.Date.IsZero() {
		vErr.add("date", "date is required")
	}
	if !validPeriod(params.Period) {
		vErr.add("period", "period must be morning or evening")
	}
	if len(params.RoomIDs) == 0 {
		vErr.add("rooms", "at least one room is required")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

// resolveRooms loads and validates every requested room. Unknown or
// unavailable rooms abort the request.
func (s *PlanningService) resolveRooms(ctx context.Context, roomIDs []string) ([]planner.Room, error) {
	rooms := make([]planner.Room, 0, len(roomIDs))
	seen := make(map[string]struct{}, len(roomIDs))
	for _, roomID := range roomIDs {
		if _, dup := seen[roomID]; dup {
			continue
		}
		seen[roomID] = struct{}{}

		room, err := s.rooms.GetRoom(ctx, roomID)
		if err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown room %s", ErrInvalidRoom, roomID)
			}
			return nil, fmt.Errorf("load room %s: %w", roomID, err)
		}
		if room.Status != persistence.RoomAvailable {
			return nil, fmt.Errorf("%w: room %s is unavailable", ErrInvalidRoom, roomID)
		}
		rooms = append(rooms, toPlannerRoom(room))
	}
	return rooms, nil
}

// materialize converts the planner result into the persisted plan plus the
// bookkeeping rows the store commits with it.
func (s *PlanningService) materialize(result planner.Result) (persistence.AssignmentPlan, []persistence.HistoryRecord, []persistence.InteractionRecord) {
	now := s.now().UTC()
	plan := persistence.AssignmentPlan{
		Date:      result.Date,
		Period:    result.Period,
		Status:    result.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	records := make([]persistence.HistoryRecord, 0)
	increments := make([]persistence.InteractionRecord, 0)

	for _, placement := range result.Placements {
		assignment := persistence.RoomAssignment{
			ID:          s.idGenerator(),
			Date:        result.Date,
			Period:      result.Period,
			RoomID:      placement.Room.ID,
			ObserverIDs: placement.ObserverIDs,
			Type:        persistence.AssignmentAutomatic,
			Status:      placement.Status,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if placement.SupervisorID != "" {
			supervisorID := placement.SupervisorID
			assignment.SupervisorID = &supervisorID
			records = append(records, s.historyRecord(supervisorID, placement.Room.ID, result, planner.RoleSupervisor))
		}
		for _, observerID := range placement.ObserverIDs {
			records = append(records, s.historyRecord(observerID, placement.Room.ID, result, planner.RoleObserver))
			if placement.SupervisorID != "" {
				increments = append(increments, persistence.InteractionRecord{
					SupervisorID: placement.SupervisorID,
					ObserverID:   observerID,
					Date:         result.Date,
					RoomID:       placement.Room.ID,
					Count:        1,
				})
			}
		}
		plan.Assignments = append(plan.Assignments, assignment)
	}

	return plan, records, increments
}

func (s *PlanningService) historyRecord(staffID, roomID string, result planner.Result, role planner.Role) persistence.HistoryRecord {
	return persistence.HistoryRecord{
		ID:      s.idGenerator(),
		StaffID: staffID,
		RoomID:  roomID,
		Date:    result.Date,
		Period:  result.Period,
		Role:    role,
	}
}

// markPresence resets the consecutive-absence counter for everyone the plan
// placed: presence on any day zeroes the streak.
func (s *PlanningService) markPresence(ctx context.Context, plan persistence.AssignmentPlan) error {
	used := assignedStaff(plan)
	if len(used) == 0 {
		return nil
	}
	ids := make([]string, 0, len(used))
	for id := range used {
		ids = append(ids, id)
	}
	return s.staff.ResetAbsences(ctx, ids)
}

func (s *PlanningService) collectDeficiencies(result planner.Result) []Deficiency {
	deficiencies := make([]Deficiency, 0)
	for _, placement := range result.Placements {
		for _, missing := range placement.Missing {
			deficiencies = append(deficiencies, Deficiency{
				Date:   result.Date,
				Period: result.Period,
				RoomID: placement.Room.ID,
				Role:   missing.Role,
				Count:  missing.Count,
			})
		}
	}
	return deficiencies
}
