package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/dairy-sim/internal/calendar"
	"github.com/talgya/dairy-sim/internal/economy"
	"github.com/talgya/dairy-sim/internal/entropy"
	"github.com/talgya/dairy-sim/internal/weather"
)

// ErrUnknownIncident is returned for an incident name that does not exist.
var ErrUnknownIncident = errors.New("unknown incident")

// Incident is a random farm event outside the regular weather model.
type Incident string

const (
	IncidentStorm      Incident = "storm"
	IncidentPriceDrop  Incident = "price-drop"
	IncidentMastitis   Incident = "mastitis"
	IncidentRegulation Incident = "regulation"
)

var incidents = []Incident{IncidentStorm, IncidentPriceDrop, IncidentMastitis, IncidentRegulation}

// IncidentChance is the daily probability of a random incident.
const IncidentChance = 0.02

// MilkPriceShock is the milk price multiplier of a price-drop incident.
const MilkPriceShock = 0.7

func (s *Simulation) rollIncident(now calendar.Time) {
	if !s.opts.Incidents || !entropy.Chance(s.rng, IncidentChance) {
		return
	}
	inc := incidents[s.rng.IntN(len(incidents))]
	if err := s.applyIncident(inc, now); err != nil {
		slog.Debug("incident skipped", "incident", string(inc), "reason", err)
	}
}

func (s *Simulation) applyIncident(inc Incident, now calendar.Time) error {
	var desc string
	switch inc {
	case IncidentStorm:
		if err := s.weather.Trigger(weather.Windstorm, now); err != nil {
			return err
		}
		desc = "A sudden storm hits the farm"
	case IncidentPriceDrop:
		s.market.Shock(economy.Milk, MilkPriceShock, now.Hours())
		desc = fmt.Sprintf("Global milk prices drop to $%.2f/L", s.market.Price(economy.Milk))
	case IncidentMastitis:
		n := s.herd.MastitisOutbreak()
		desc = fmt.Sprintf("Mastitis outbreak: %d cows lose health", n)
	case IncidentRegulation:
		f := s.ledger.ApplyRegulation()
		desc = fmt.Sprintf("New nitrogen cap regulations raise running costs (x%.2f)", f)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownIncident, inc)
	}
	s.status.LastIncident = string(inc)
	s.emit(CategoryIncident, desc)
	slog.Info("incident", "incident", string(inc), "description", desc)
	return nil
}

// TriggerIncident applies a named incident immediately. It is an admin
// intervention.
func (s *Simulation) TriggerIncident(name string) error {
	return s.do("trigger_incident", func() error {
		return s.applyIncident(Incident(name), s.clock.Now())
	})
}
