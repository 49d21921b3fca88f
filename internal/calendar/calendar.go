// Package calendar advances simulated hours into days, seasons and years and
// fires the daily schedule and yearly milestones.
package calendar

import (
	"fmt"
	"sort"
)

// DaysPerYear is the length of a simulated year.
const DaysPerYear = 365

// HoursPerDay is the length of a simulated day.
const HoursPerDay = 24

// Season is derived purely from the day of year.
type Season uint8

const (
	Winter Season = iota
	Spring
	Summer
	Autumn
)

// Season day ranges (inclusive). Days 357–365 wrap back into winter so the
// mapping covers every day of the year.
const (
	SpringStart = 80
	SummerStart = 173
	AutumnStart = 265
	AutumnEnd   = 356
)

// SeasonOf maps a day of year (1..365) to its season.
func SeasonOf(day int) Season {
	switch {
	case day >= SpringStart && day < SummerStart:
		return Spring
	case day >= SummerStart && day < AutumnStart:
		return Summer
	case day >= AutumnStart && day <= AutumnEnd:
		return Autumn
	default:
		return Winter
	}
}

// String returns the lower-case season name.
func (s Season) String() string {
	switch s {
	case Winter:
		return "winter"
	case Spring:
		return "spring"
	case Summer:
		return "summer"
	case Autumn:
		return "autumn"
	default:
		return "unknown"
	}
}

// Time is a point on the simulated calendar.
type Time struct {
	Hour int `json:"hour"` // 0..23
	Day  int `json:"day"`  // 1..365
	Year int `json:"year"`
}

// Season returns the season of t's day.
func (t Time) Season() Season { return SeasonOf(t.Day) }

// Hours returns the number of whole hours since hour 0 of day 1, year 0.
func (t Time) Hours() int64 {
	return (int64(t.Year)*DaysPerYear+int64(t.Day-1))*HoursPerDay + int64(t.Hour)
}

func (t Time) String() string {
	return fmt.Sprintf("%s %02d:00 (%s)", t.DateString(), t.Hour, t.Season())
}

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var daysInMonth = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// MonthOf returns the zero-based month containing the day of year.
func MonthOf(day int) int {
	total := 0
	for m, n := range daysInMonth {
		total += n
		if day <= total {
			return m
		}
	}
	return 11
}

// DateString formats t as "21 March 2024".
func (t Time) DateString() string {
	m := MonthOf(t.Day)
	dom := t.Day
	for i := 0; i < m; i++ {
		dom -= daysInMonth[i]
	}
	return fmt.Sprintf("%d %s %d", dom, monthNames[m], t.Year)
}

// IsDaylight reports whether t's hour falls inside the season's daylight
// window (southern hemisphere day lengths).
func (t Time) IsDaylight() bool {
	start, end := 6, 18
	switch t.Season() {
	case Summer:
		start, end = 5, 20
	case Winter:
		start, end = 7, 17
	case Spring:
		start, end = 6, 19
	}
	return t.Hour >= start && t.Hour <= end
}

// EventKind classifies calendar events.
type EventKind uint8

const (
	EventSchedule EventKind = iota
	EventNewDay
	EventSeasonChange
	EventMilestone
	EventNewYear
)

// Event is emitted by Advance as the clock crosses hours and days.
type Event struct {
	Kind   EventKind `json:"kind"`
	Name   string    `json:"name"` // schedule slot or milestone id
	At     Time      `json:"at"`
	Season Season    `json:"season"`
}

// Slot is a named daily schedule time.
type Slot struct {
	Name string `json:"name"`
	Hour int    `json:"hour"`
}

// Milestone is a one-shot yearly marker on a given day.
type Milestone struct {
	ID    string `json:"id"`
	Day   int    `json:"day"`
	Fired bool   `json:"fired"`
}

// YearEnd is the milestone that re-arms the whole milestone set.
const YearEnd = "year-end"

// Clock owns the current calendar time, the daily schedule and milestones.
type Clock struct {
	now        Time
	schedule   []Slot
	milestones []*Milestone
}

// Default start: first day of spring, 06:00.
var DefaultStart = Time{Hour: 6, Day: SpringStart, Year: 2024}

// NewClock creates a clock at start with the standard farm schedule and
// seasonal milestones registered.
func NewClock(start Time) *Clock {
	c := &Clock{now: normalize(start)}
	for _, s := range []Slot{
		{"dawn", 5},
		{"morning-milking", 6},
		{"morning-work", 8},
		{"midday", 12},
		{"afternoon-work", 14},
		{"evening-milking", 16},
		{"evening", 18},
		{"night", 20},
	} {
		c.RegisterSchedule(s.Name, s.Hour)
	}
	c.RegisterMilestone("winter-start", 1)
	c.RegisterMilestone("spring-start", SpringStart)
	c.RegisterMilestone("summer-start", SummerStart)
	c.RegisterMilestone("autumn-start", AutumnStart)
	c.RegisterMilestone(YearEnd, DaysPerYear)
	return c
}

func normalize(t Time) Time {
	if t.Hour < 0 || t.Hour > 23 {
		t.Hour = 0
	}
	if t.Day < 1 || t.Day > DaysPerYear {
		t.Day = 1
	}
	return t
}

// Now returns the current time.
func (c *Clock) Now() Time { return c.now }

// RegisterSchedule adds a named daily slot. Slots are kept ordered by hour.
func (c *Clock) RegisterSchedule(name string, hour int) {
	c.schedule = append(c.schedule, Slot{Name: name, Hour: hour % 24})
	sort.SliceStable(c.schedule, func(i, j int) bool { return c.schedule[i].Hour < c.schedule[j].Hour })
}

// RegisterMilestone adds an armed milestone for day.
func (c *Clock) RegisterMilestone(id string, day int) {
	c.milestones = append(c.milestones, &Milestone{ID: id, Day: day})
}

// Schedule returns a copy of the daily schedule.
func (c *Clock) Schedule() []Slot {
	out := make([]Slot, len(c.schedule))
	copy(out, c.schedule)
	return out
}

// Milestones returns a copy of the milestone set.
func (c *Clock) Milestones() []Milestone {
	out := make([]Milestone, len(c.milestones))
	for i, m := range c.milestones {
		out[i] = *m
	}
	return out
}

// Advance moves the clock forward by hours and returns the events crossed,
// in order. Negative values are treated as zero.
func (c *Clock) Advance(hours int) []Event {
	var events []Event
	for i := 0; i < hours; i++ {
		events = append(events, c.step()...)
	}
	return events
}

func (c *Clock) step() []Event {
	var events []Event
	prevSeason := c.now.Season()

	c.now.Hour++
	if c.now.Hour >= 24 {
		c.now.Hour = 0
		c.now.Day++
		if c.now.Day > DaysPerYear {
			c.now.Day = 1
			c.now.Year++
			events = append(events, Event{Kind: EventNewYear, At: c.now, Season: c.now.Season()})
		}
		events = append(events, Event{Kind: EventNewDay, At: c.now, Season: c.now.Season()})

		if s := c.now.Season(); s != prevSeason {
			events = append(events, Event{Kind: EventSeasonChange, Name: s.String(), At: c.now, Season: s})
		}
		events = append(events, c.checkMilestones()...)
	}

	for _, s := range c.schedule {
		if s.Hour == c.now.Hour {
			events = append(events, Event{Kind: EventSchedule, Name: s.Name, At: c.now, Season: c.now.Season()})
		}
	}
	return events
}

func (c *Clock) checkMilestones() []Event {
	var events []Event
	rearm := false
	for _, m := range c.milestones {
		if m.Day != c.now.Day || m.Fired {
			continue
		}
		m.Fired = true
		events = append(events, Event{Kind: EventMilestone, Name: m.ID, At: c.now, Season: c.now.Season()})
		if m.ID == YearEnd {
			rearm = true
		}
	}
	if rearm {
		for _, m := range c.milestones {
			m.Fired = false
		}
	}
	return events
}

// State is the serialisable form of a Clock.
type State struct {
	Now        Time        `json:"now"`
	Schedule   []Slot      `json:"schedule"`
	Milestones []Milestone `json:"milestones"`
}

// Save captures the clock state.
func (c *Clock) Save() State {
	return State{Now: c.now, Schedule: c.Schedule(), Milestones: c.Milestones()}
}

// Restore rebuilds a clock from saved state.
func Restore(st State) *Clock {
	c := &Clock{now: normalize(st.Now)}
	c.schedule = append([]Slot(nil), st.Schedule...)
	for _, m := range st.Milestones {
		m := m
		c.milestones = append(c.milestones, &m)
	}
	return c
}
