package persistence

import "github.com/example/exam-assignment/internal/planner"

// DerivePlanStatus folds room assignment statuses into the plan-level status:
// complete only when every room is complete, incomplete when none is,
// partial otherwise. Stores call this after any assignment mutation so the
// stored plan status never drifts from its rooms.
func DerivePlanStatus(assignments []RoomAssignment) planner.AssignmentStatus {
	if len(assignments) == 0 {
		return planner.StatusIncomplete
	}
	complete := 0
	for _, a := range assignments {
		if a.Status == planner.StatusComplete {
			complete++
		}
	}
	switch {
	case complete == len(assignments):
		return planner.StatusComplete
	case complete > 0:
		return planner.StatusPartial
	default:
		return planner.StatusIncomplete
	}
}
