package application

import (
	"context"
	"fmt"
	"time"

	"github.com/example/exam-assignment/internal/persistence"
	"github.com/example/exam-assignment/internal/planner"
)

// loadHistory builds the planner's participation index from storage: room
// visits and pairings inside the lookback window ending at date, and weekly
// load for the Monday-start week containing date.
func loadHistory(ctx context.Context, store persistence.HistoryStore, date time.Time, lookbackDays int) (*planner.History, error) {
	if store == nil {
		return planner.NewHistory(), nil
	}

	day := planner.NormalizeDate(date)
	since := day.AddDate(0, 0, -lookbackDays)

	visits, err := store.RoomVisitsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("load room visits: %w", err)
	}
	pairings, err := store.PairingsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("load pairings: %w", err)
	}
	counts, err := store.AssignmentCounts(ctx, startOfWeek(day), day)
	if err != nil {
		return nil, fmt.Errorf("load weekly load: %w", err)
	}

	history := planner.NewHistory()
	for _, visit := range visits {
		history.AddRoomVisit(visit.StaffID, visit.RoomID)
	}
	for _, pairing := range pairings {
		history.AddPairing(pairing.SupervisorID, pairing.ObserverID, pairing.Count)
	}
	for staffID, count := range counts {
		history.AddWeeklyLoad(staffID, count)
	}
	return history, nil
}

// assignedStaff collects every staff id already holding a slot in the plan.
func assignedStaff(plan persistence.AssignmentPlan) map[string]struct{} {
	used := make(map[string]struct{})
	for _, assignment := range plan.Assignments {
		if assignment.SupervisorID != nil {
			used[*assignment.SupervisorID] = struct{}{}
		}
		for _, observerID := range assignment.ObserverIDs {
			used[observerID] = struct{}{}
		}
	}
	return used
}

func toPlannerStaff(staff persistence.Staff) planner.Staff {
	return planner.Staff{
		ID:                  staff.ID,
		Name:                staff.Name,
		Role:                staff.Role,
		Rank:                staff.Rank,
		Status:              staff.Status,
		ConsecutiveAbsences: staff.ConsecutiveAbsences,
	}
}

func toPlannerRoom(room persistence.Room) planner.Room {
	return planner.Room{
		ID:                  room.ID,
		Name:                room.Name,
		Capacity:            room.Capacity,
		RequiredSupervisors: room.RequiredSupervisors,
		RequiredObservers:   room.RequiredObservers,
		CanAddObserver:      room.CanAddObserver,
		Available:           room.Status == persistence.RoomAvailable,
	}
}

func toPlannerStaffList(staff []persistence.Staff) []planner.Staff {
	out := make([]planner.Staff, len(staff))
	for i, s := range staff {
		out[i] = toPlannerStaff(s)
	}
	return out
}

// startOfWeek returns the Monday beginning the week containing t.
func startOfWeek(t time.Time) time.Time {
	day := planner.NormalizeDate(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
