package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/dairy-sim/internal/calendar"
	"github.com/talgya/dairy-sim/internal/economy"
	"github.com/talgya/dairy-sim/internal/entropy"
	"github.com/talgya/dairy-sim/internal/herd"
	"github.com/talgya/dairy-sim/internal/ledger"
	"github.com/talgya/dairy-sim/internal/pasture"
	"github.com/talgya/dairy-sim/internal/tech"
	"github.com/talgya/dairy-sim/internal/weather"
)

// SaveVersion is the current save record format.
const SaveVersion = 1

// SaveRecord is a complete, resumable farm: the public snapshot plus the
// internal state of every subsystem.
type SaveRecord struct {
	Version  int       `json:"version"`
	ID       uuid.UUID `json:"id"`
	SavedAt  time.Time `json:"saved_at"`
	State    Snapshot  `json:"state"`
	Internal Internal  `json:"internal"`
}

// Internal is the subsystem state a snapshot does not expose.
type Internal struct {
	Seed        int64               `json:"seed"`
	RNG         []byte              `json:"rng"`
	Accumulator float64             `json:"accumulator"`
	Clock       calendar.State      `json:"clock"`
	Weather     weather.State       `json:"weather"`
	Pastures    []pasture.Pasture   `json:"pastures"`
	Herd        herd.State          `json:"herd"`
	Market      economy.MarketState `json:"market"`
	Ledger      ledger.State        `json:"ledger"`
	Tech        tech.State          `json:"tech"`
	Stats       statsBook           `json:"stats"`
	Events      []Event             `json:"events"`
	EventSeq    uint64              `json:"event_seq"`
}

// Save captures the running farm.
func (s *Simulation) Save() (SaveRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseRunning {
		return SaveRecord{}, ErrNotRunning
	}
	rng, err := s.rng.MarshalBinary()
	if err != nil {
		return SaveRecord{}, fmt.Errorf("save random state: %w", err)
	}
	rec := SaveRecord{
		Version: SaveVersion,
		ID:      uuid.New(),
		SavedAt: time.Now().UTC(),
		State:   s.snapshot(),
		Internal: Internal{
			Seed:        s.seed,
			RNG:         rng,
			Accumulator: s.accumulator,
			Clock:       s.clock.Save(),
			Weather:     s.weather.Save(),
			Pastures:    s.field.Pastures(),
			Herd:        s.herd.Save(),
			Market:      s.market.Save(),
			Ledger:      s.ledger.Save(),
			Tech:        s.tree.Save(),
			Stats:       statsBook{Today: s.stats.Today, History: append([]DailyStats(nil), s.stats.History...)},
			Events:      s.events.recent(0, ""),
			EventSeq:    s.events.seq,
		},
	}
	return rec, nil
}

// Load replaces the simulation with rec. The farm continues exactly as the
// saved one would have.
func (s *Simulation) Load(rec SaveRecord) error {
	if rec.Version != SaveVersion {
		return fmt.Errorf("%w: %d", ErrSaveVersion, rec.Version)
	}
	in := rec.Internal
	rng := &entropy.Rand{}
	if err := rng.UnmarshalBinary(in.RNG); err != nil {
		return err
	}

	ps := make([]*pasture.Pasture, len(in.Pastures))
	for i := range in.Pastures {
		p := in.Pastures[i]
		ps[i] = &p
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.rng = rng
	s.clock = calendar.Restore(in.Clock)
	s.weather = weather.Restore(in.Weather, rng)
	s.field = pasture.NewField(ps)
	s.herd = herd.Restore(in.Herd, rng)
	s.market = economy.RestoreMarket(in.Market, rng)
	s.ledger = ledger.Restore(in.Ledger)
	s.tree = tech.Restore(in.Tech)
	s.wallet = rec.State.Resources
	s.status = rec.State.Status
	s.stats = statsBook{Today: in.Stats.Today, History: append([]DailyStats(nil), in.Stats.History...)}
	s.events.items = append([]Event(nil), in.Events...)
	s.events.seq = in.EventSeq

	s.scenarioID = rec.State.Scenario
	s.seed = in.Seed
	s.accumulator = in.Accumulator
	s.timeScale = rec.State.TimeScale
	if s.timeScale <= 0 {
		s.timeScale = 1
	}
	s.paused = rec.State.Paused
	s.phase = PhaseRunning

	slog.Info("simulation loaded", "save", rec.ID, "scenario", s.scenarioID, "time", s.clock.Now().String())
	return nil
}
