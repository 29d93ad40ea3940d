package planner

import (
	"math"
	"sort"
)

// Candidate is a (staff, room) tuple being scored for one role slot. When an
// observer slot is scored, SupervisorID carries the room's already-chosen
// supervisor so pairing penalties can be evaluated.
type Candidate struct {
	Staff        Staff
	Room         Room
	SupervisorID string
}

// Rule scores one distribution constraint for a candidate. A zero penalty
// means no violation; negative penalties act as bonuses. Disabled rules are
// skipped entirely.
type Rule interface {
	Name() string
	Enabled() bool
	Penalty(history *History, candidate Candidate) float64
}

// NoRoomRepeat penalizes staff who already worked the candidate room inside
// the lookback window.
type NoRoomRepeat struct {
	Weight   float64
	Disabled bool
}

// Name identifies the rule in configuration and logs.
func (r NoRoomRepeat) Name() string { return "no_room_repeat" }

// Enabled reports whether the rule participates in scoring.
func (r NoRoomRepeat) Enabled() bool { return !r.Disabled }

// Penalty returns the configured weight when the room was recently worked.
func (r NoRoomRepeat) Penalty(history *History, candidate Candidate) float64 {
	if history.WorkedRoom(candidate.Staff.ID, candidate.Room.ID) {
		return r.Weight
	}
	return 0
}

// NoPairRepeat penalizes observers who recently worked under the room's
// chosen supervisor. It is inert for supervisor slots.
type NoPairRepeat struct {
	Weight   float64
	Disabled bool
}

// Name identifies the rule in configuration and logs.
func (r NoPairRepeat) Name() string { return "no_pair_repeat" }

// Enabled reports whether the rule participates in scoring.
func (r NoPairRepeat) Enabled() bool { return !r.Disabled }

// Penalty scales with how often the pair has already co-occurred.
func (r NoPairRepeat) Penalty(history *History, candidate Candidate) float64 {
	if candidate.Staff.Role != RoleObserver || candidate.SupervisorID == "" {
		return 0
	}
	count := history.PairCount(candidate.SupervisorID, candidate.Staff.ID)
	return r.Weight * float64(count)
}

// RankPriority biases selection toward college employees when scores are
// otherwise tied.
type RankPriority struct {
	Bonus    float64
	Disabled bool
}

// Name identifies the rule in configuration and logs.
func (r RankPriority) Name() string { return "rank_priority" }

// Enabled reports whether the rule participates in scoring.
func (r RankPriority) Enabled() bool { return !r.Disabled }

// Penalty returns a negative value (bonus) for internal staff.
func (r RankPriority) Penalty(_ *History, candidate Candidate) float64 {
	if candidate.Staff.Rank == RankCollege {
		return -r.Bonus
	}
	return 0
}

// FairLoad penalizes staff proportionally to their assignment count in the
// current week, spreading work evenly.
type FairLoad struct {
	Weight   float64
	Disabled bool
}

// Name identifies the rule in configuration and logs.
func (r FairLoad) Name() string { return "fair_load" }

// Enabled reports whether the rule participates in scoring.
func (r FairLoad) Enabled() bool { return !r.Disabled }

// Penalty scales with the candidate's weekly assignment count.
func (r FairLoad) Penalty(history *History, candidate Candidate) float64 {
	return r.Weight * float64(history.WeeklyLoad(candidate.Staff.ID))
}

// RuleSet is the ordered collection of distribution rules. A candidate's
// total score is the sum of every enabled rule's penalty; lower wins.
type RuleSet struct {
	Rules []Rule
}

// Weights carries the tunable parameters for the default rule set.
type Weights struct {
	RoomRepeatPenalty float64
	PairRepeatPenalty float64
	CollegeRankBonus  float64
	WeeklyLoadPenalty float64
	DisableRoomRepeat bool
	DisablePairRepeat bool
	DisableRankBonus  bool
	DisableFairLoad   bool
}

// DefaultWeights returns the stock distribution parameters.
func DefaultWeights() Weights {
	return Weights{
		RoomRepeatPenalty: 100,
		PairRepeatPenalty: 40,
		CollegeRankBonus:  10,
		WeeklyLoadPenalty: 5,
	}
}

// NewRuleSet assembles the standard rules in priority order from the supplied
// weights.
func NewRuleSet(w Weights) RuleSet {
	return RuleSet{Rules: []Rule{
		NoRoomRepeat{Weight: w.RoomRepeatPenalty, Disabled: w.DisableRoomRepeat},
		NoPairRepeat{Weight: w.PairRepeatPenalty, Disabled: w.DisablePairRepeat},
		RankPriority{Bonus: w.CollegeRankBonus, Disabled: w.DisableRankBonus},
		FairLoad{Weight: w.WeeklyLoadPenalty, Disabled: w.DisableFairLoad},
	}}
}

// Score sums the enabled rule penalties for the candidate.
func (s RuleSet) Score(history *History, candidate Candidate) float64 {
	total := 0.0
	for _, rule := range s.Rules {
		if rule == nil || !rule.Enabled() {
			continue
		}
		total += rule.Penalty(history, candidate)
	}
	return total
}

// ScoredCandidate pairs a staff member with their total rule score.
type ScoredCandidate struct {
	Staff Staff
	Score float64
}

// RankCandidates scores every eligible staff member for the given room slot
// and returns them ordered best-first. Staff present in used are skipped, as
// are suspended or deleted staff. Ties break by ascending staff id so the
// ordering is deterministic.
func RankCandidates(staff []Staff, room Room, supervisorID string, history *History, rules RuleSet, used map[string]struct{}) []ScoredCandidate {
	ranked := make([]ScoredCandidate, 0, len(staff))
	for _, s := range staff {
		if !s.Eligible() {
			continue
		}
		if _, taken := used[s.ID]; taken {
			continue
		}
		score := rules.Score(history, Candidate{Staff: s, Room: room, SupervisorID: supervisorID})
		ranked = append(ranked, ScoredCandidate{Staff: s, Score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if almostEqual(ranked[i].Score, ranked[j].Score) {
			return ranked[i].Staff.ID < ranked[j].Staff.ID
		}
		return ranked[i].Score < ranked[j].Score
	})
	return ranked
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
