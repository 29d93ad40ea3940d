package sessions

import (
	"errors"
	"time"

	"github.com/example/exam-assignment/internal/planner"
)

// Window describes a span of exam days to staff: an inclusive date range, an
// optional weekday filter, and the periods held on each day.
type Window struct {
	StartsOn time.Time
	EndsOn   time.Time
	Weekdays []time.Weekday
	Periods  []planner.Period
}

// Session is one plannable (date, period) slot expanded from a window.
type Session struct {
	Date   time.Time
	Period planner.Period
}

// ErrInvalidWindow indicates the window's end precedes its start.
var ErrInvalidWindow = errors.New("sessions: window end precedes start")

// ErrNoPeriods indicates the window selects no periods.
var ErrNoPeriods = errors.New("sessions: at least one period is required")

// Expand generates the ordered sessions covered by the window: days ascending,
// morning before evening within a day. An empty weekday filter selects every
// day in the range.
func Expand(window Window) ([]Session, error) {
	start := planner.NormalizeDate(window.StartsOn)
	end := planner.NormalizeDate(window.EndsOn)
	if end.Before(start) {
		return nil, ErrInvalidWindow
	}
	if len(window.Periods) == 0 {
		return nil, ErrNoPeriods
	}

	weekdaySet := make(map[time.Weekday]struct{}, len(window.Weekdays))
	for _, day := range window.Weekdays {
		weekdaySet[day] = struct{}{}
	}

	periods := orderPeriods(window.Periods)

	sessions := make([]Session, 0)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if len(weekdaySet) > 0 {
			if _, ok := weekdaySet[day.Weekday()]; !ok {
				continue
			}
		}
		for _, period := range periods {
			sessions = append(sessions, Session{Date: day, Period: period})
		}
	}
	return sessions, nil
}

// orderPeriods normalizes the period selection: deduplicated, morning first.
func orderPeriods(periods []planner.Period) []planner.Period {
	morning := false
	evening := false
	for _, period := range periods {
		switch period {
		case planner.PeriodMorning:
			morning = true
		case planner.PeriodEvening:
			evening = true
		}
	}
	out := make([]planner.Period, 0, 2)
	if morning {
		out = append(out, planner.PeriodMorning)
	}
	if evening {
		out = append(out, planner.PeriodEvening)
	}
	return out
}
