package application

import (
	"time"

	"github.com/example/exam-assignment/internal/persistence"
	"github.com/example/exam-assignment/internal/planner"
)

// EngineConfig carries the tunable distribution policy shared by the
// planning and replacement services.
type EngineConfig struct {
	Rules                   planner.RuleSet
	LookbackDays            int
	AbsenceSuspendThreshold int
}

// withDefaults fills unset fields with the stock policy.
func (c EngineConfig) withDefaults() EngineConfig {
	if len(c.Rules.Rules) == 0 {
		c.Rules = planner.NewRuleSet(planner.DefaultWeights())
	}
	if c.LookbackDays <= 0 {
		c.LookbackDays = 30
	}
	if c.AbsenceSuspendThreshold <= 0 {
		c.AbsenceSuspendThreshold = 2
	}
	return c
}

// PlanParams wraps the data required to compute a plan.
type PlanParams struct {
	Date    time.Time
	Period  planner.Period
	RoomIDs []string
}

// RecordAbsenceParams wraps the data required to report an absence.
type RecordAbsenceParams struct {
	AssignmentID string
	StaffID      string
	Role         planner.Role
	Reason       string
}

// AutoReplaceParams wraps the data required to request an automatic substitute.
type AutoReplaceParams struct {
	AssignmentID string
	StaffID      string
	Role         planner.Role
}

// ManualReplaceParams wraps the data required to install a chosen substitute.
// Override bypasses the eligibility check; it exists for authorized callers
// who accept the double-booking risk.
type ManualReplaceParams struct {
	AssignmentID       string
	OriginalStaffID    string
	ReplacementStaffID string
	Role               planner.Role
	Reason             string
	Override           bool
}

// ListReplacementsParams wraps the data required to query eligible substitutes.
// SupervisorID, when set, lets pairing penalties rank observer candidates
// against the room's supervisor.
type ListReplacementsParams struct {
	Date         time.Time
	Period       planner.Period
	RoomID       string
	Role         planner.Role
	SupervisorID string
}

// ReplacementOutcome states how a replacement request ended.
type ReplacementOutcome string

const (
	// OutcomeReplaced means a substitute now holds the slot.
	OutcomeReplaced ReplacementOutcome = "replaced"
	// OutcomeVacant means no eligible substitute existed; the slot is empty.
	OutcomeVacant ReplacementOutcome = "vacant"
)

// ReplacementResult reports the post-replacement assignment. A vacant outcome
// is a valid, displayable result, not an error.
type ReplacementResult struct {
	Assignment    persistence.RoomAssignment
	Outcome       ReplacementOutcome
	ReplacementID string
}

func validRole(role planner.Role) bool {
	return role == planner.RoleSupervisor || role == planner.RoleObserver
}

func validPeriod(period planner.Period) bool {
	return period == planner.PeriodMorning || period == planner.PeriodEvening
}
