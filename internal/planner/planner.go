package planner

import (
	"sort"
	"time"
)

// Request carries everything BuildPlan needs. Rooms must already be filtered
// to available rooms; Supervisors and Observers are the candidate pools for
// their respective roles. Used is the mutable used-today set shared across a
// (date, period): staff placed by BuildPlan are added to it, and staff already
// present are never selected again.
type Request struct {
	Date        time.Time
	Period      Period
	Rooms       []Room
	Supervisors []Staff
	Observers   []Staff
	History     *History
	Rules       RuleSet
	Used        map[string]struct{}
}

// Placement is the computed staffing for one room.
type Placement struct {
	Room         Room
	SupervisorID string
	ObserverIDs  []string
	Missing      []Missing
	Status       AssignmentStatus
}

// Missing describes one unfilled role slot in a placement.
type Missing struct {
	Role  Role
	Count int
}

// Result is a full plan computation for one (date, period).
type Result struct {
	Date       time.Time
	Period     Period
	Placements []Placement
	Status     AssignmentStatus
}

// BuildPlan computes a room-by-room staffing plan.
//
// Rooms are processed in a deterministic order: descending total demand
// (required supervisors plus required observers) so the hardest rooms are
// staffed while the candidate pool is largest, ties broken by ascending room
// id. Per room, the supervisor slot is filled first from the lowest-scoring
// eligible supervisor, then observer slots one at a time, re-ranking after
// each pick so pairing penalties see the chosen supervisor. Running out of
// candidates never aborts the plan; it degrades the room's status.
//
// After every quota is settled, rooms flagged CanAddObserver each absorb one
// leftover observer, so surplus staff never competes with a required slot.
func BuildPlan(req Request) Result {
	if req.Used == nil {
		req.Used = make(map[string]struct{})
	}

	rooms := make([]Room, len(req.Rooms))
	copy(rooms, req.Rooms)
	sort.SliceStable(rooms, func(i, j int) bool {
		if rooms[i].demand() == rooms[j].demand() {
			return rooms[i].ID < rooms[j].ID
		}
		return rooms[i].demand() > rooms[j].demand()
	})

	result := Result{
		Date:       NormalizeDate(req.Date),
		Period:     req.Period,
		Placements: make([]Placement, 0, len(rooms)),
	}

	for _, room := range rooms {
		placement := placeRoom(room, req)
		result.Placements = append(result.Placements, placement)
	}

	addSurplusObservers(result.Placements, req)

	result.Status = overallStatus(result.Placements)
	return result
}

// addSurplusObservers hands one leftover observer to each fully staffed room
// flagged CanAddObserver, in the same demand order used for placement. Rooms
// still short of their quota never receive surplus staff.
func addSurplusObservers(placements []Placement, req Request) {
	for i := range placements {
		placement := &placements[i]
		if !placement.Room.CanAddObserver || placement.Status != StatusComplete {
			continue
		}
		ranked := RankCandidates(req.Observers, placement.Room, placement.SupervisorID, req.History, req.Rules, req.Used)
		if len(ranked) == 0 {
			return
		}
		pick := ranked[0].Staff.ID
		placement.ObserverIDs = append(placement.ObserverIDs, pick)
		req.Used[pick] = struct{}{}
	}
}

func placeRoom(room Room, req Request) Placement {
	placement := Placement{Room: room, ObserverIDs: make([]string, 0, room.RequiredObservers)}

	if room.RequiredSupervisors > 0 {
		ranked := RankCandidates(req.Supervisors, room, "", req.History, req.Rules, req.Used)
		if len(ranked) > 0 {
			placement.SupervisorID = ranked[0].Staff.ID
			req.Used[placement.SupervisorID] = struct{}{}
		}
	}

	for len(placement.ObserverIDs) < room.RequiredObservers {
		ranked := RankCandidates(req.Observers, room, placement.SupervisorID, req.History, req.Rules, req.Used)
		if len(ranked) == 0 {
			break
		}
		pick := ranked[0].Staff.ID
		placement.ObserverIDs = append(placement.ObserverIDs, pick)
		req.Used[pick] = struct{}{}
	}

	placement.Missing = missingRoles(room, placement)
	placement.Status = placementStatus(room, placement)
	return placement
}

func missingRoles(room Room, placement Placement) []Missing {
	missing := make([]Missing, 0, 2)
	if room.RequiredSupervisors > 0 && placement.SupervisorID == "" {
		missing = append(missing, Missing{Role: RoleSupervisor, Count: room.RequiredSupervisors})
	}
	if shortfall := room.RequiredObservers - len(placement.ObserverIDs); shortfall > 0 {
		missing = append(missing, Missing{Role: RoleObserver, Count: shortfall})
	}
	if len(missing) == 0 {
		return nil
	}
	return missing
}

func placementStatus(room Room, placement Placement) AssignmentStatus {
	return StatusFor(room, placement.SupervisorID != "", len(placement.ObserverIDs))
}

// StatusFor derives a room status from what is filled. A missing supervisor,
// or zero observers where the room requires some, forces incomplete; a
// partially filled observer quota under a present supervisor is partial.
func StatusFor(room Room, hasSupervisor bool, observerCount int) AssignmentStatus {
	supervisorOK := room.RequiredSupervisors == 0 || hasSupervisor
	observersFull := observerCount >= room.RequiredObservers

	switch {
	case supervisorOK && observersFull:
		return StatusComplete
	case !supervisorOK:
		return StatusIncomplete
	case room.RequiredObservers > 0 && observerCount == 0:
		return StatusIncomplete
	default:
		return StatusPartial
	}
}

func overallStatus(placements []Placement) AssignmentStatus {
	if len(placements) == 0 {
		return StatusIncomplete
	}
	complete := 0
	for _, p := range placements {
		if p.Status == StatusComplete {
			complete++
		}
	}
	switch {
	case complete == len(placements):
		return StatusComplete
	case complete > 0:
		return StatusPartial
	default:
		return StatusIncomplete
	}
}
