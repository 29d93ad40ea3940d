package planner

// History is an in-memory index of past participation, built by the caller
// from records inside the configured lookback window. The planner never reads
// storage directly; it consumes this snapshot.
type History struct {
	roomVisits map[string]map[string]struct{}
	pairCounts map[string]int
	weekLoad   map[string]int
}

// NewHistory returns an empty participation index.
func NewHistory() *History {
	return &History{
		roomVisits: make(map[string]map[string]struct{}),
		pairCounts: make(map[string]int),
		weekLoad:   make(map[string]int),
	}
}

// AddRoomVisit records that the staff member worked the room within the window.
func (h *History) AddRoomVisit(staffID, roomID string) {
	if h == nil || staffID == "" || roomID == "" {
		return
	}
	rooms, ok := h.roomVisits[staffID]
	if !ok {
		rooms = make(map[string]struct{})
		h.roomVisits[staffID] = rooms
	}
	rooms[roomID] = struct{}{}
}

// AddPairing accumulates supervisor/observer co-occurrence counts.
func (h *History) AddPairing(supervisorID, observerID string, count int) {
	if h == nil || supervisorID == "" || observerID == "" || count <= 0 {
		return
	}
	h.pairCounts[pairKey(supervisorID, observerID)] += count
}

// AddWeeklyLoad accumulates the staff member's assignment count for the
// current week.
func (h *History) AddWeeklyLoad(staffID string, count int) {
	if h == nil || staffID == "" || count <= 0 {
		return
	}
	h.weekLoad[staffID] += count
}

// WorkedRoom reports whether the staff member worked the room in the window.
func (h *History) WorkedRoom(staffID, roomID string) bool {
	if h == nil {
		return false
	}
	_, ok := h.roomVisits[staffID][roomID]
	return ok
}

// PairCount returns how often the observer worked under the supervisor in the
// window.
func (h *History) PairCount(supervisorID, observerID string) int {
	if h == nil {
		return 0
	}
	return h.pairCounts[pairKey(supervisorID, observerID)]
}

// WeeklyLoad returns the staff member's assignment count for the current week.
func (h *History) WeeklyLoad(staffID string) int {
	if h == nil {
		return 0
	}
	return h.weekLoad[staffID]
}

func pairKey(supervisorID, observerID string) string {
	return supervisorID + "|" + observerID
}
