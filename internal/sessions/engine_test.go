package sessions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/exam-assignment/internal/planner"
)

func TestExpandSingleDay(t *testing.T) {
	day := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)

	expanded, err := Expand(Window{
		StartsOn: day,
		EndsOn:   day,
		Periods:  []planner.Period{planner.PeriodMorning, planner.PeriodEvening},
	})
	require.NoError(t, err)
	require.Len(t, expanded, 2)
	require.Equal(t, Session{Date: day, Period: planner.PeriodMorning}, expanded[0])
	require.Equal(t, Session{Date: day, Period: planner.PeriodEvening}, expanded[1])
}

func TestExpandOrdersDaysAscendingMorningFirst(t *testing.T) {
	start := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.June, 11, 0, 0, 0, 0, time.UTC)

	// Periods arrive out of order and duplicated; expansion normalizes them.
	expanded, err := Expand(Window{
		StartsOn: start,
		EndsOn:   end,
		Periods:  []planner.Period{planner.PeriodEvening, planner.PeriodMorning, planner.PeriodEvening},
	})
	require.NoError(t, err)
	require.Len(t, expanded, 4)
	require.Equal(t, Session{Date: start, Period: planner.PeriodMorning}, expanded[0])
	require.Equal(t, Session{Date: start, Period: planner.PeriodEvening}, expanded[1])
	require.Equal(t, Session{Date: end, Period: planner.PeriodMorning}, expanded[2])
	require.Equal(t, Session{Date: end, Period: planner.PeriodEvening}, expanded[3])
}

func TestExpandFiltersWeekdays(t *testing.T) {
	// 2024-06-10 is a Monday.
	start := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.June, 16, 0, 0, 0, 0, time.UTC)

	expanded, err := Expand(Window{
		StartsOn: start,
		EndsOn:   end,
		Weekdays: []time.Weekday{time.Monday, time.Wednesday},
		Periods:  []planner.Period{planner.PeriodMorning},
	})
	require.NoError(t, err)
	require.Len(t, expanded, 2)
	require.Equal(t, time.Monday, expanded[0].Date.Weekday())
	require.Equal(t, time.Wednesday, expanded[1].Date.Weekday())
}

func TestExpandNormalizesInstantsToDays(t *testing.T) {
	loc := time.FixedZone("JST", 9*60*60)
	start := time.Date(2024, time.June, 10, 23, 45, 0, 0, loc)

	expanded, err := Expand(Window{
		StartsOn: start,
		EndsOn:   start,
		Periods:  []planner.Period{planner.PeriodMorning},
	})
	require.NoError(t, err)
	require.Len(t, expanded, 1)
	require.Equal(t, time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC), expanded[0].Date)
}

func TestExpandRejectsInvertedRange(t *testing.T) {
	start := time.Date(2024, time.June, 11, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)

	_, err := Expand(Window{
		StartsOn: start,
		EndsOn:   end,
		Periods:  []planner.Period{planner.PeriodMorning},
	})
	require.ErrorIs(t, err, ErrInvalidWindow)
}

func TestExpandRequiresPeriods(t *testing.T) {
	day := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)

	_, err := Expand(Window{StartsOn: day, EndsOn: day})
	require.ErrorIs(t, err, ErrNoPeriods)
}

func TestExpandEmptyWhenWeekdayNeverOccurs(t *testing.T) {
	// Monday through Friday window filtered to Sunday only.
	start := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.June, 14, 0, 0, 0, 0, time.UTC)

	expanded, err := Expand(Window{
		StartsOn: start,
		EndsOn:   end,
		Weekdays: []time.Weekday{time.Sunday},
		Periods:  []planner.Period{planner.PeriodMorning},
	})
	require.NoError(t, err)
	require.Empty(t, expanded)
}
