package persistence

import (
	"testing"

	"github.com/example/exam-assignment/internal/planner"
)

func TestDerivePlanStatus(t *testing.T) {
	cases := []struct {
		name     string
		statuses []planner.AssignmentStatus
		want     planner.AssignmentStatus
	}{
		{"no rooms", nil, planner.StatusIncomplete},
		{"all complete", []planner.AssignmentStatus{planner.StatusComplete, planner.StatusComplete}, planner.StatusComplete},
		{"mixed", []planner.AssignmentStatus{planner.StatusComplete, planner.StatusIncomplete}, planner.StatusPartial},
		{"partial room counts as staffed", []planner.AssignmentStatus{planner.StatusComplete, planner.StatusPartial}, planner.StatusPartial},
		{"none complete", []planner.AssignmentStatus{planner.StatusIncomplete, planner.StatusPartial}, planner.StatusIncomplete},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assignments := make([]RoomAssignment, len(tc.statuses))
			for i, status := range tc.statuses {
				assignments[i] = RoomAssignment{Status: status}
			}
			if got := DerivePlanStatus(assignments); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}
