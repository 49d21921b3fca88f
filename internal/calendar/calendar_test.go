package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeasonOfCoversWholeYear(t *testing.T) {
	cases := map[int]Season{
		1:   Winter,
		79:  Winter,
		80:  Spring,
		172: Spring,
		173: Summer,
		264: Summer,
		265: Autumn,
		356: Autumn,
		357: Winter,
		365: Winter,
	}
	for day, want := range cases {
		assert.Equal(t, want, SeasonOf(day), "day %d", day)
	}
}

func TestAdvanceRollsDayAndYear(t *testing.T) {
	c := NewClock(Time{Hour: 23, Day: 365, Year: 2024})

	events := c.Advance(1)
	assert.Equal(t, Time{Hour: 0, Day: 1, Year: 2025}, c.Now())

	var kinds []EventKind
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	assert.Contains(t, kinds, EventNewYear)
	assert.Contains(t, kinds, EventNewDay)
	assert.Contains(t, kinds, EventMilestone) // winter-start on day 1
}

func TestAdvanceNegativeIsNoop(t *testing.T) {
	c := NewClock(DefaultStart)
	assert.Empty(t, c.Advance(-5))
	assert.Equal(t, DefaultStart, c.Now())
}

func TestScheduleFiresAtSlotHour(t *testing.T) {
	c := NewClock(Time{Hour: 5, Day: 100, Year: 2024})
	events := c.Advance(1)
	require.Len(t, events, 1)
	assert.Equal(t, EventSchedule, events[0].Kind)
	assert.Equal(t, "morning-milking", events[0].Name)
}

func TestSeasonChangeEvent(t *testing.T) {
	c := NewClock(Time{Hour: 23, Day: 172, Year: 2024})
	events := c.Advance(1)

	var found bool
	for _, e := range events {
		if e.Kind == EventSeasonChange {
			found = true
			assert.Equal(t, Summer, e.Season)
		}
	}
	assert.True(t, found)
}

func TestMilestonesFireOncePerYear(t *testing.T) {
	c := NewClock(Time{Hour: 0, Day: 79, Year: 2024})

	count := func(events []Event, id string) int {
		n := 0
		for _, e := range events {
			if e.Kind == EventMilestone && e.Name == id {
				n++
			}
		}
		return n
	}

	// Two full years.
	events := c.Advance(2 * DaysPerYear * 24)
	assert.Equal(t, 2, count(events, "spring-start"))
	assert.Equal(t, 2, count(events, YearEnd))
	assert.Equal(t, 2, count(events, "winter-start"))
}

func TestDateString(t *testing.T) {
	assert.Equal(t, "21 March 2024", Time{Day: 80, Year: 2024}.DateString())
	assert.Equal(t, "31 December 2024", Time{Day: 365, Year: 2024}.DateString())
	assert.Equal(t, 0, MonthOf(1))
	assert.Equal(t, 11, MonthOf(365))
}

func TestSaveRestorePreservesMilestoneState(t *testing.T) {
	c := NewClock(Time{Hour: 23, Day: 79, Year: 2024})
	c.Advance(1) // fires spring-start

	restored := Restore(c.Save())
	assert.Equal(t, c.Now(), restored.Now())
	assert.Equal(t, c.Milestones(), restored.Milestones())
	assert.Equal(t, c.Schedule(), restored.Schedule())
}
