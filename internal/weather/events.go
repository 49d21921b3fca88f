package weather

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/dairy-sim/internal/calendar"
	"github.com/talgya/dairy-sim/internal/entropy"
)

// EventKind identifies an extreme weather anomaly.
type EventKind uint8

const (
	Drought EventKind = iota
	Flood
	Windstorm
	Frost
	numEventKinds
)

// ErrUnknownEvent is returned for an unrecognised event name.
var ErrUnknownEvent = errors.New("unknown weather event")

// ErrEventActive is returned when triggering a kind that is already running.
var ErrEventActive = errors.New("weather event already active")

// String returns the event name used in logs and the API.
func (k EventKind) String() string {
	switch k {
	case Drought:
		return "drought"
	case Flood:
		return "flood"
	case Windstorm:
		return "windstorm"
	case Frost:
		return "frost"
	default:
		return "unknown"
	}
}

// ParseEventKind maps a name back to an EventKind.
func ParseEventKind(name string) (EventKind, error) {
	for k := Drought; k < numEventKinds; k++ {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
}

func (k EventKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *EventKind) UnmarshalText(b []byte) error {
	v, err := ParseEventKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// EventSet is a bitmask of active event kinds.
type EventSet uint8

// Has reports whether k is in the set.
func (s EventSet) Has(k EventKind) bool { return s&(1<<k) != 0 }

func (s EventSet) with(k EventKind) EventSet { return s | (1 << k) }

// Names returns the active kinds in kind order.
func (s EventSet) Names() []string {
	var out []string
	for k := Drought; k < numEventKinds; k++ {
		if s.Has(k) {
			out = append(out, k.String())
		}
	}
	return out
}

// ExtremeEvent is an active anomaly with a remaining duration in days.
type ExtremeEvent struct {
	Kind          EventKind `json:"kind"`
	Severity      float64   `json:"severity"` // 0.5..1.0
	RemainingDays int       `json:"remaining_days"`
	StartDay      int       `json:"start_day"`
}

// Daily base probabilities, multiplied by region risk and season factor.
var baseEventChance = [numEventKinds]float64{
	Drought:   0.01,
	Flood:     0.02,
	Windstorm: 0.02,
	Frost:     0.03,
}

// seasonFactor skews event likelihood toward the seasons they belong to.
func seasonFactor(k EventKind, s calendar.Season) float64 {
	switch k {
	case Drought:
		switch s {
		case calendar.Summer:
			return 2.0
		case calendar.Winter:
			return 0.3
		case calendar.Spring:
			return 0.8
		}
	case Flood:
		if s == calendar.Winter {
			return 1.5
		}
		if s == calendar.Autumn {
			return 1.2
		}
	case Windstorm:
		if s == calendar.Winter {
			return 1.3
		}
		if s == calendar.Spring {
			return 1.2
		}
	}
	return 1.0
}

func eventDuration(src entropy.Source, k EventKind) int {
	switch k {
	case Drought:
		return 14 + src.IntN(21)
	case Flood:
		return 2 + src.IntN(5)
	case Windstorm:
		return 1 + src.IntN(2)
	default:
		return 1
	}
}

// Active returns the set of currently active event kinds.
func (g *Generator) Active() EventSet {
	var set EventSet
	for _, e := range g.events {
		set = set.with(e.Kind)
	}
	return set
}

// Events returns a copy of the active events.
func (g *Generator) Events() []ExtremeEvent {
	out := make([]ExtremeEvent, len(g.events))
	copy(out, g.events)
	return out
}

// decayEvents ages every active event by one day and drops the finished ones.
func (g *Generator) decayEvents() {
	kept := g.events[:0]
	for _, e := range g.events {
		e.RemainingDays--
		if e.RemainingDays <= 0 {
			slog.Info("weather event ended", "kind", e.Kind.String(), "region", g.region.ID)
			continue
		}
		kept = append(kept, e)
	}
	g.events = kept
}

// checkExtremeEvents rolls each event kind once. Preconditions gate flood,
// windstorm and frost on the current numeric state.
func (g *Generator) checkExtremeEvents(t calendar.Time) {
	season := t.Season()
	active := g.Active()
	for k := Drought; k < numEventKinds; k++ {
		p := g.region.Risk(k) * baseEventChance[k] * seasonFactor(k, season)
		// Always draw so the stream position does not depend on preconditions.
		roll := g.src.Float64()
		if active.Has(k) {
			continue
		}
		switch k {
		case Flood:
			if g.current.Rainfall <= 100 {
				continue
			}
		case Windstorm:
			if g.current.WindSpeed <= 40 {
				continue
			}
		case Frost:
			if season != calendar.Winter || g.current.Temperature >= 2 {
				continue
			}
		}
		if roll < p {
			g.start(k, t)
		}
	}
}

// Trigger starts an event of kind k immediately. Used by the daily check and
// by admin interventions.
func (g *Generator) Trigger(k EventKind, t calendar.Time) error {
	if k >= numEventKinds {
		return fmt.Errorf("%w: %d", ErrUnknownEvent, k)
	}
	if g.Active().Has(k) {
		return fmt.Errorf("%w: %s", ErrEventActive, k)
	}
	g.start(k, t)
	return nil
}

func (g *Generator) start(k EventKind, t calendar.Time) {
	e := ExtremeEvent{
		Kind:          k,
		Severity:      entropy.Between(g.src, 0.5, 1.0),
		RemainingDays: eventDuration(g.src, k),
		StartDay:      t.Day,
	}
	g.events = append(g.events, e)

	c := &g.current
	switch k {
	case Drought:
		c.Rainfall *= 0.1
		c.Temperature += 5
	case Flood:
		c.Rainfall *= 3
	case Windstorm:
		c.WindSpeed += 20
	case Frost:
		c.Temperature = math.Min(0, c.Temperature-3)
	}
	c.Condition = deriveCondition(*c)

	slog.Info("weather event triggered",
		"kind", k.String(),
		"region", g.region.ID,
		"severity", fmt.Sprintf("%.2f", e.Severity),
		"days", e.RemainingDays,
	)
}
