// Package weather generates regional, seasonal weather as a bounded random
// walk with occasional extreme events, and maps it to the multipliers the
// rest of the farm consumes.
package weather

import (
	"github.com/talgya/dairy-sim/internal/calendar"
	"github.com/talgya/dairy-sim/internal/entropy"
)

// Walk cadence in game hours.
const WalkInterval = 3

// Conditions is the numeric and categorical weather state.
type Conditions struct {
	Temperature float64 `json:"temperature"` // °C
	Rainfall    float64 `json:"rainfall"`    // mm
	WindSpeed   float64 `json:"wind_speed"`  // km/h
	Humidity    float64 `json:"humidity"`    // %
	Pressure    float64 `json:"pressure"`    // hPa
	Condition   string  `json:"condition"`
	UV          int     `json:"uv"`
}

// Generator owns the current weather for one region.
type Generator struct {
	region  Region
	current Conditions
	events  []ExtremeEvent
	src     entropy.Source
}

// New creates a generator for regionID with an initial state drawn around
// the season's baseline.
func New(regionID string, t calendar.Time, src entropy.Source) *Generator {
	r := LookupRegion(regionID)
	s := t.Season()
	g := &Generator{region: r, src: src}
	g.current = Conditions{
		Temperature: r.BaseTemp.At(s) + entropy.Centered(src, 10),
		Rainfall:    r.Rainfall.At(s) * entropy.Between(src, 0.5, 1.5),
		WindSpeed:   max(0, r.WindSpeed.At(s)+entropy.Centered(src, 8)),
		Humidity:    entropy.Between(src, 60, 90),
		Pressure:    1010 + entropy.Centered(src, 40),
	}
	g.current.Condition = deriveCondition(g.current)
	g.current.UV = uvIndex(s, t.Hour, g.current.Condition)
	return g
}

// Region returns the generator's climate profile.
func (g *Generator) Region() Region { return g.region }

// Current returns a copy of the current conditions.
func (g *Generator) Current() Conditions { return g.current }

// Update advances weather for the hour t. The walk runs every WalkInterval
// hours; at hour 0 active events decay and then the extreme-event check runs.
func (g *Generator) Update(t calendar.Time) {
	if t.Hour%WalkInterval == 0 {
		g.walk(t)
	}
	if t.Hour == 0 {
		g.decayEvents()
		g.checkExtremeEvents(t)
	}
}

func (g *Generator) walk(t calendar.Time) {
	s := t.Season()
	r := g.region
	c := &g.current

	baseTemp := r.BaseTemp.At(s)
	baseRain := r.Rainfall.At(s)
	baseWind := r.WindSpeed.At(s)

	c.Temperature += entropy.Centered(g.src, 3)
	c.Rainfall += entropy.Centered(g.src, baseRain*0.3)
	c.WindSpeed += entropy.Centered(g.src, 5)

	c.Temperature = entropy.Clamp(c.Temperature, baseTemp-8, baseTemp+8)
	c.Rainfall = entropy.Clamp(c.Rainfall, 0, 2*baseRain)
	c.WindSpeed = entropy.Clamp(c.WindSpeed, 0, baseWind+20)

	c.Humidity = entropy.Between(g.src, 40, 90)
	c.Pressure = entropy.Clamp(c.Pressure+entropy.Centered(g.src, 10), 960, 1050)

	c.Condition = deriveCondition(*c)
	c.UV = uvIndex(s, t.Hour, c.Condition)
}

// deriveCondition maps numeric state to a category. Rainfall thresholds take
// precedence over the humidity fallback.
func deriveCondition(c Conditions) string {
	switch {
	case c.Rainfall > 40 && c.WindSpeed > 40:
		return "storm"
	case c.Rainfall > 80:
		return "heavy-rain"
	case c.Rainfall > 40:
		return "rain"
	case c.Rainfall > 10:
		return "light-rain"
	case c.Humidity > 85:
		return "fog"
	case c.Humidity > 70:
		return "cloudy"
	case c.Humidity > 55:
		return "partly-cloudy"
	default:
		return "sunny"
	}
}

func uvIndex(s calendar.Season, hour int, condition string) int {
	base := 3.0
	switch s {
	case calendar.Summer:
		base = 9
	case calendar.Spring, calendar.Autumn:
		base = 6
	}
	switch {
	case hour < 8 || hour > 18:
		return 0
	case hour < 10 || hour > 14:
		base *= 0.6
	}
	switch condition {
	case "cloudy", "fog":
		base *= 0.3
	case "partly-cloudy":
		base *= 0.7
	}
	return int(base + 0.5)
}

// State is the serialisable form of a Generator.
type State struct {
	RegionID string         `json:"region_id"`
	Current  Conditions     `json:"current"`
	Events   []ExtremeEvent `json:"events"`
}

// Save captures the generator state.
func (g *Generator) Save() State {
	return State{RegionID: g.region.ID, Current: g.current, Events: g.Events()}
}

// Restore rebuilds a generator from saved state, drawing from src.
func Restore(st State, src entropy.Source) *Generator {
	g := &Generator{region: LookupRegion(st.RegionID), current: st.Current, src: src}
	g.events = append([]ExtremeEvent(nil), st.Events...)
	return g
}
