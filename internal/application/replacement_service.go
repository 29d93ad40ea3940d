package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/example/exam-assignment/internal/persistence"
	"github.com/example/exam-assignment/internal/planner"
)

// ReplacementService reacts to same-day absences on an existing plan: it
// records them, finds compliant substitutes automatically, validates
// administrator-chosen substitutes, and suspends chronically absent staff.
//
// Each role slot moves through Assigned -> Absent -> Replaced or Vacant.
type ReplacementService struct {
	staff        persistence.StaffRepository
	rooms        persistence.RoomRepository
	plans        persistence.PlanRepository
	history      persistence.HistoryStore
	absences     persistence.AbsenceLog
	notifier     Notifier
	cfg          EngineConfig
	idGenerator  func() string
	now          func() time.Time
	locks        *planLocks
	deficiencies *deficiencyBoard
	logger       *slog.Logger
}

// NewReplacementService wires dependencies for absence handling.
func NewReplacementService(staff persistence.StaffRepository, rooms persistence.RoomRepository, plans persistence.PlanRepository, history persistence.HistoryStore, absences persistence.AbsenceLog, notifier Notifier, cfg EngineConfig, idGenerator func() string, now func() time.Time) *ReplacementService {
	return NewReplacementServiceWithLogger(staff, rooms, plans, history, absences, notifier, cfg, idGenerator, now, nil)
}

// NewReplacementServiceWithLogger wires dependencies including a base logger.
func NewReplacementServiceWithLogger(staff persistence.StaffRepository, rooms persistence.RoomRepository, plans persistence.PlanRepository, history persistence.HistoryStore, absences persistence.AbsenceLog, notifier Notifier, cfg EngineConfig, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ReplacementService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ReplacementService{
		staff:        staff,
		rooms:        rooms,
		plans:        plans,
		history:      history,
		absences:     absences,
		notifier:     notifier,
		cfg:          cfg.withDefaults(),
		idGenerator:  idGenerator,
		now:          now,
		locks:        newPlanLocks(),
		deficiencies: newDeficiencyBoard(),
		logger:       logger,
	}
}

// RecordAbsence marks an assigned staff member absent for their slot and
// appends the audit event. Reporting the same slot twice is a no-op that
// returns the existing event. Crossing the consecutive-absence threshold
// suspends the staff member until an administrator reactivates them.
func (s *ReplacementService) RecordAbsence(ctx context.Context, params RecordAbsenceParams) (persistence.AbsenceEvent, error) {
	if s == nil {
		return persistence.AbsenceEvent{}, fmt.Errorf("ReplacementService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "replacement", "record_absence",
		"assignment_id", params.AssignmentID, "staff_id", params.StaffID)

	if err := validateSlotParams(params.AssignmentID, params.StaffID, params.Role); err != nil {
		logger.Warn("rejected absence report", "error_kind", ErrorKind(err))
		return persistence.AbsenceEvent{}, err
	}

	assignment, release, err := s.lockAssignment(ctx, params.AssignmentID)
	if err != nil {
		logger.Warn("rejected absence report", "error_kind", ErrorKind(err), "error", err)
		return persistence.AbsenceEvent{}, err
	}
	defer release()

	if !holdsSlot(assignment, params.StaffID, params.Role) {
		return persistence.AbsenceEvent{}, fmt.Errorf("%w: staff %s does not hold the %s slot", ErrNotAssigned, params.StaffID, params.Role)
	}

	if existing, err := s.absences.FindAbsence(ctx, params.AssignmentID, params.StaffID, params.Role); err == nil {
		if existing.Action == persistence.AbsenceOnly {
			logger.Info("absence already recorded")
			return existing, nil
		}
	} else if !errors.Is(err, persistence.ErrNotFound) {
		return persistence.AbsenceEvent{}, fmt.Errorf("look up absence: %w", err)
	}

	event := persistence.AbsenceEvent{
		ID:           s.idGenerator(),
		AssignmentID: params.AssignmentID,
		StaffID:      params.StaffID,
		Role:         params.Role,
		Reason:       params.Reason,
		Action:       persistence.AbsenceOnly,
		RecordedAt:   s.now().UTC(),
	}
	if err := s.absences.AppendAbsence(ctx, event); err != nil {
		return persistence.AbsenceEvent{}, fmt.Errorf("append absence event: %w", err)
	}

	count, err := s.staff.IncrementAbsences(ctx, params.StaffID, assignment.Date)
	if err != nil {
		return persistence.AbsenceEvent{}, fmt.Errorf("increment absence counter: %w", err)
	}
	if count >= s.cfg.AbsenceSuspendThreshold {
		if err := s.staff.UpdateStaffStatus(ctx, params.StaffID, planner.StaffSuspended); err != nil {
			return persistence.AbsenceEvent{}, fmt.Errorf("suspend staff: %w", err)
		}
		logger.Warn("staff auto-suspended", "consecutive_absences", count)
	}

	logger.Info("absence recorded", "role", string(params.Role))
	return event, nil
}

// AutoReplace finds a rule-compliant substitute for a slot whose absence was
// already recorded. When no eligible candidate exists the slot is vacated,
// the room's deficiency is re-emitted, and the vacant outcome is returned
// without error.
func (s *ReplacementService) AutoReplace(ctx context.Context, params AutoReplaceParams) (ReplacementResult, error) {
	if s == nil {
		return ReplacementResult{}, fmt.Errorf("ReplacementService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "replacement", "auto_replace",
		"assignment_id", params.AssignmentID, "staff_id", params.StaffID)

	if err := validateSlotParams(params.AssignmentID, params.StaffID, params.Role); err != nil {
		logger.Warn("rejected replacement request", "error_kind", ErrorKind(err))
		return ReplacementResult{}, err
	}

	assignment, release, err := s.lockAssignment(ctx, params.AssignmentID)
	if err != nil {
		logger.Warn("rejected replacement request", "error_kind", ErrorKind(err), "error", err)
		return ReplacementResult{}, err
	}
	defer release()

	if !holdsSlot(assignment, params.StaffID, params.Role) {
		return ReplacementResult{}, fmt.Errorf("%w: staff %s does not hold the %s slot", ErrNotAssigned, params.StaffID, params.Role)
	}

	priorEvent, err := s.absences.FindAbsence(ctx, params.AssignmentID, params.StaffID, params.Role)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ReplacementResult{}, fmt.Errorf("%w: record the absence first", ErrNotAbsent)
		}
		return ReplacementResult{}, fmt.Errorf("look up absence: %w", err)
	}
	if priorEvent.Action != persistence.AbsenceOnly {
		return ReplacementResult{}, fmt.Errorf("%w: slot already resolved", ErrNotAbsent)
	}

	candidates, err := s.rankReplacements(ctx, assignment, params.Role)
	if err != nil {
		return ReplacementResult{}, err
	}

	if len(candidates) == 0 {
		vacated, err := s.vacateSlot(ctx, assignment, params.StaffID, params.Role)
		if err != nil {
			return ReplacementResult{}, err
		}
		logger.Warn("no eligible substitute; slot vacated", "role", string(params.Role))
		return ReplacementResult{Assignment: vacated, Outcome: OutcomeVacant}, nil
	}

	replacementID := candidates[0].Staff.ID
	updated, err := s.installReplacement(ctx, assignment, params.StaffID, replacementID, params.Role, persistence.AssignmentTemporary)
	if err != nil {
		return ReplacementResult{}, err
	}
	s.deficiencies.Resolve(assignment.Date, assignment.Period, assignment.RoomID, params.Role, 1)

	event := persistence.AbsenceEvent{
		ID:            s.idGenerator(),
		AssignmentID:  params.AssignmentID,
		StaffID:       params.StaffID,
		Role:          params.Role,
		Reason:        priorEvent.Reason,
		Action:        persistence.AutoReplacement,
		ReplacementID: &replacementID,
		RecordedAt:    s.now().UTC(),
	}
	if err := s.absences.AppendAbsence(ctx, event); err != nil {
		return ReplacementResult{}, fmt.Errorf("append replacement event: %w", err)
	}

	logger.Info("slot auto-replaced", "replacement_id", replacementID, "role", string(params.Role))
	return ReplacementResult{Assignment: updated, Outcome: OutcomeReplaced, ReplacementID: replacementID}, nil
}

// ManualReplace installs an administrator-chosen substitute. Eligibility is
// checked the same way ListAvailableReplacements filters candidates; Override
// skips those checks for authorized callers, though the substitute must still
// exist in the roster.
func (s *ReplacementService) ManualReplace(ctx context.Context, params ManualReplaceParams) (ReplacementResult, error) {
	if s == nil {
		return ReplacementResult{}, fmt.Errorf("ReplacementService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "replacement", "manual_replace",
		"assignment_id", params.AssignmentID, "staff_id", params.OriginalStaffID,
		"replacement_id", params.ReplacementStaffID)

	if err := validateSlotParams(params.AssignmentID, params.OriginalStaffID, params.Role); err != nil {
		logger.Warn("rejected replacement request", "error_kind", ErrorKind(err))
		return ReplacementResult{}, err
	}
	if params.ReplacementStaffID == "" {
		vErr := &ValidationError{}
		vErr.add("replacement_staff_id", "replacement staff id is required")
		return ReplacementResult{}, vErr
	}

	assignment, release, err := s.lockAssignment(ctx, params.AssignmentID)
	if err != nil {
		logger.Warn("rejected replacement request", "error_kind", ErrorKind(err), "error", err)
		return ReplacementResult{}, err
	}
	defer release()

	if !holdsSlot(assignment, params.OriginalStaffID, params.Role) {
		// A slot vacated after a failed auto-replacement may still be refilled
		// manually: the original's absence is on record but nobody holds the
		// slot anymore.
		vacated, err := s.slotWasVacated(ctx, assignment, params.OriginalStaffID, params.Role)
		if err != nil {
			return ReplacementResult{}, err
		}
		if !vacated {
			return ReplacementResult{}, fmt.Errorf("%w: staff %s does not hold the %s slot", ErrNotAssigned, params.OriginalStaffID, params.Role)
		}
	}

	replacement, err := s.staff.GetStaff(ctx, params.ReplacementStaffID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ReplacementResult{}, fmt.Errorf("%w: unknown staff %s", ErrIneligibleReplacement, params.ReplacementStaffID)
		}
		return ReplacementResult{}, fmt.Errorf("load replacement staff: %w", err)
	}

	if !params.Override {
		if err := s.checkEligibility(ctx, assignment, replacement, params.Role); err != nil {
			logger.Warn("replacement rejected as ineligible", "error", err)
			return ReplacementResult{}, err
		}
	}

	updated, err := s.installReplacement(ctx, assignment, params.OriginalStaffID, replacement.ID, params.Role, persistence.AssignmentManual)
	if err != nil {
		return ReplacementResult{}, err
	}
	s.deficiencies.Resolve(assignment.Date, assignment.Period, assignment.RoomID, params.Role, 1)

	replacementID := replacement.ID
	event := persistence.AbsenceEvent{
		ID:            s.idGenerator(),
		AssignmentID:  params.AssignmentID,
		StaffID:       params.OriginalStaffID,
		Role:          params.Role,
		Reason:        params.Reason,
		Action:        persistence.ManualReplacement,
		ReplacementID: &replacementID,
		RecordedAt:    s.now().UTC(),
	}
	if err := s.absences.AppendAbsence(ctx, event); err != nil {
		return ReplacementResult{}, fmt.Errorf("append replacement event: %w", err)
	}

	logger.Info("slot manually replaced", "role", string(params.Role), "override", params.Override)
	return ReplacementResult{Assignment: updated, Outcome: OutcomeReplaced, ReplacementID: replacementID}, nil
}

// ListAvailableReplacements returns active staff of the requested role who
// are free for the (date, period), ordered by rule score. It is a pure query;
// administrators use it to pick manual substitutes.
func (s *ReplacementService) ListAvailableReplacements(ctx context.Context, params ListReplacementsParams) ([]persistence.Staff, error) {
	if s == nil {
		return nil, fmt.Errorf("ReplacementService is nil")
	}

	vErr := &ValidationError{}
	if params.Date.IsZero() {
		vErr.add("date", "date is required")
	}
	if !validPeriod(params.Period) {
		vErr.add("period", "period must be morning or evening")
	}
	if params.RoomID == "" {
		vErr.add("room_id", "room id is required")
	}
	if !validRole(params.Role) {
		vErr.add("role", "role must be supervisor or observer")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	room, err := s.rooms.GetRoom(ctx, params.RoomID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown room %s", ErrInvalidRoom, params.RoomID)
		}
		return nil, fmt.Errorf("load room: %w", err)
	}

	used, err := s.usedStaff(ctx, params.Date, params.Period)
	if err != nil {
		return nil, err
	}

	pool, err := s.staff.ListStaff(ctx, params.Role)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	history, err := loadHistory(ctx, s.history, params.Date, s.cfg.LookbackDays)
	if err != nil {
		return nil, err
	}

	ranked := planner.RankCandidates(toPlannerStaffList(pool), toPlannerRoom(room), params.SupervisorID, history, s.cfg.Rules, used)

	byID := make(map[string]persistence.Staff, len(pool))
	for _, staff := range pool {
		byID[staff.ID] = staff
	}
	out := make([]persistence.Staff, 0, len(ranked))
	for _, candidate := range ranked {
		out = append(out, byID[candidate.Staff.ID])
	}
	return out, nil
}

func validateSlotParams(assignmentID, staffID string, role planner.Role) error {
	vErr := &ValidationError{}
	if assignmentID == "" {
		vErr.add("assignment_id", "assignment id is required")
	}
	if staffID == "" {
		vErr.add("staff_id", "staff id is required")
	}
	if !validRole(role) {
		vErr.add("role", "role must be supervisor or observer")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

func (s *ReplacementService) loadAssignment(ctx context.Context, assignmentID string) (persistence.RoomAssignment, error) {
	assignment, err := s.plans.GetAssignment(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.RoomAssignment{}, fmt.Errorf("%w: unknown assignment %s", ErrNotAssigned, assignmentID)
		}
		return persistence.RoomAssignment{}, fmt.Errorf("load assignment: %w", err)
	}
	return assignment, nil
}

// lockAssignment serializes a slot mutation with every other mutation of its
// plan key. The first load only discovers the key; the assignment returned to
// the caller is re-read under the lock, so a mutation never starts from a
// snapshot another mutation is about to overwrite.
func (s *ReplacementService) lockAssignment(ctx context.Context, assignmentID string) (persistence.RoomAssignment, func(), error) {
	assignment, err := s.loadAssignment(ctx, assignmentID)
	if err != nil {
		return persistence.RoomAssignment{}, nil, err
	}

	release := s.locks.acquire(assignment.Date, assignment.Period)

	assignment, err = s.loadAssignment(ctx, assignmentID)
	if err != nil {
		release()
		return persistence.RoomAssignment{}, nil, err
	}
	return assignment, release, nil
}

// slotWasVacated reports whether the staff member's recorded absence ended in
// an empty slot rather than a substitute. Only such slots accept a refill.
func (s *ReplacementService) slotWasVacated(ctx context.Context, assignment persistence.RoomAssignment, staffID string, role planner.Role) (bool, error) {
	event, err := s.absences.FindAbsence(ctx, assignment.ID, staffID, role)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("look up absence: %w", err)
	}
	// An installed substitute appends a replacement event; a pending
	// absence_only event with the staff gone from the slot means vacated.
	return event.Action == persistence.AbsenceOnly, nil
}

func holdsSlot(assignment persistence.RoomAssignment, staffID string, role planner.Role) bool {
	switch role {
	case planner.RoleSupervisor:
		return assignment.SupervisorID != nil && *assignment.SupervisorID == staffID
	case planner.RoleObserver:
		return slices.Contains(assignment.ObserverIDs, staffID)
	default:
		return false
	}
}

// usedStaff returns every staff id already holding a slot for the plan key.
// A missing plan simply means nobody is used yet.
func (s *ReplacementService) usedStaff(ctx context.Context, date time.Time, period planner.Period) (map[string]struct{}, error) {
	plan, err := s.plans.GetPlan(ctx, date, period)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return make(map[string]struct{}), nil
		}
		return nil, fmt.Errorf("load plan: %w", err)
	}
	return assignedStaff(plan), nil
}

// rankReplacements scores the candidate pool for the slot, excluding everyone
// already used for the plan key (the absent staff member included).
func (s *ReplacementService) rankReplacements(ctx context.Context, assignment persistence.RoomAssignment, role planner.Role) ([]planner.ScoredCandidate, error) {
	room, err := s.rooms.GetRoom(ctx, assignment.RoomID)
	if err != nil {
		return nil, fmt.Errorf("load room: %w", err)
	}
	used, err := s.usedStaff(ctx, assignment.Date, assignment.Period)
	if err != nil {
		return nil, err
	}
	pool, err := s.staff.ListStaff(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	history, err := loadHistory(ctx, s.history, assignment.Date, s.cfg.LookbackDays)
	if err != nil {
		return nil, err
	}

	supervisorID := ""
	if role == planner.RoleObserver && assignment.SupervisorID != nil {
		supervisorID = *assignment.SupervisorID
	}
	return planner.RankCandidates(toPlannerStaffList(pool), toPlannerRoom(room), supervisorID, history, s.cfg.Rules, used), nil
}

// vacateSlot removes the absent staff member, rederives the room status, and
// re-emits the deficiency for the now-empty slot.
func (s *ReplacementService) vacateSlot(ctx context.Context, assignment persistence.RoomAssignment, staffID string, role planner.Role) (persistence.RoomAssignment, error) {
	room, err := s.rooms.GetRoom(ctx, assignment.RoomID)
	if err != nil {
		return persistence.RoomAssignment{}, fmt.Errorf("load room: %w", err)
	}

	switch role {
	case planner.RoleSupervisor:
		assignment.SupervisorID = nil
	case planner.RoleObserver:
		assignment.ObserverIDs = slices.DeleteFunc(assignment.ObserverIDs, func(id string) bool { return id == staffID })
	}
	assignment.Status = planner.StatusFor(toPlannerRoom(room), assignment.SupervisorID != nil, len(assignment.ObserverIDs))
	assignment.UpdatedAt = s.now().UTC()

	if err := s.plans.UpdateAssignment(ctx, assignment, nil, nil); err != nil {
		return persistence.RoomAssignment{}, fmt.Errorf("vacate slot: %w", err)
	}

	deficiency := Deficiency{
		Date:   assignment.Date,
		Period: assignment.Period,
		RoomID: assignment.RoomID,
		Role:   role,
		Count:  1,
	}
	s.deficiencies.Add(deficiency)
	if s.notifier != nil {
		s.notifier.NotifyDeficiency(ctx, deficiency)
	}
	return assignment, nil
}

// installReplacement swaps the slot holder and commits the new staff member's
// history row and interaction increments with the assignment mutation. When
// the original already left the slot (a vacated refill) the substitute fills
// the empty position instead of swapping.
func (s *ReplacementService) installReplacement(ctx context.Context, assignment persistence.RoomAssignment, originalID, replacementID string, role planner.Role, assignmentType persistence.AssignmentType) (persistence.RoomAssignment, error) {
	room, err := s.rooms.GetRoom(ctx, assignment.RoomID)
	if err != nil {
		return persistence.RoomAssignment{}, fmt.Errorf("load room: %w", err)
	}

	switch role {
	case planner.RoleSupervisor:
		assignment.SupervisorID = &replacementID
	case planner.RoleObserver:
		if i := slices.Index(assignment.ObserverIDs, originalID); i >= 0 {
			assignment.ObserverIDs[i] = replacementID
		} else {
			assignment.ObserverIDs = append(assignment.ObserverIDs, replacementID)
		}
	}
	assignment.Type = assignmentType
	assignment.Status = planner.StatusFor(toPlannerRoom(room), assignment.SupervisorID != nil, len(assignment.ObserverIDs))
	assignment.UpdatedAt = s.now().UTC()

	records := []persistence.HistoryRecord{{
		ID:      s.idGenerator(),
		StaffID: replacementID,
		RoomID:  assignment.RoomID,
		Date:    assignment.Date,
		Period:  assignment.Period,
		Role:    role,
	}}

	increments := make([]persistence.InteractionRecord, 0)
	switch role {
	case planner.RoleSupervisor:
		for _, observerID := range assignment.ObserverIDs {
			increments = append(increments, persistence.InteractionRecord{
				SupervisorID: replacementID,
				ObserverID:   observerID,
				Date:         assignment.Date,
				RoomID:       assignment.RoomID,
				Count:        1,
			})
		}
	case planner.RoleObserver:
		if assignment.SupervisorID != nil {
			increments = append(increments, persistence.InteractionRecord{
				SupervisorID: *assignment.SupervisorID,
				ObserverID:   replacementID,
				Date:         assignment.Date,
				RoomID:       assignment.RoomID,
				Count:        1,
			})
		}
	}

	if err := s.plans.UpdateAssignment(ctx, assignment, records, increments); err != nil {
		return persistence.RoomAssignment{}, fmt.Errorf("install replacement: %w", err)
	}
	return assignment, nil
}

// checkEligibility mirrors the ListAvailableReplacements filter for a single
// candidate.
func (s *ReplacementService) checkEligibility(ctx context.Context, assignment persistence.RoomAssignment, replacement persistence.Staff, role planner.Role) error {
	if replacement.Role != role {
		return fmt.Errorf("%w: staff %s is not a %s", ErrIneligibleReplacement, replacement.ID, role)
	}
	if replacement.Status != planner.StaffActive {
		return fmt.Errorf("%w: staff %s is %s", ErrIneligibleReplacement, replacement.ID, replacement.Status)
	}
	used, err := s.usedStaff(ctx, assignment.Date, assignment.Period)
	if err != nil {
		return err
	}
	if _, taken := used[replacement.ID]; taken {
		return fmt.Errorf("%w: staff %s is already assigned for %s %s", ErrIneligibleReplacement, replacement.ID, planner.DateKey(assignment.Date), assignment.Period)
	}
	return nil
}
