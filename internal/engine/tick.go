// Package engine is the farm orchestrator: it owns every subsystem, advances
// them hour by hour in a fixed order and serialises player commands with the
// tick.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/dairy-sim/internal/calendar"
	"github.com/talgya/dairy-sim/internal/herd"
	"github.com/talgya/dairy-sim/internal/weather"
)

// MsPerGameHour is the wall time of one game hour at time scale 1.
const MsPerGameHour = 1000.0

// MaxCatchUpHours bounds the game hours one Tick runs; a host that stalled
// longer loses the excess.
const MaxCatchUpHours = 24

// TickResult reports what one Tick advanced.
type TickResult struct {
	Hours int          `json:"hours"`
	Days  []DailyStats `json:"days,omitempty"` // records closed during the tick
}

// Tick converts elapsed wall milliseconds into whole game hours and runs each
// one. It does nothing while idle or paused.
func (s *Simulation) Tick(elapsedMs float64) TickResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res TickResult
	if s.phase != PhaseRunning || s.paused || elapsedMs <= 0 || math.IsNaN(elapsedMs) {
		return res
	}
	s.accumulator += elapsedMs * s.timeScale
	hours := math.Floor(s.accumulator / MsPerGameHour)
	s.accumulator -= hours * MsPerGameHour
	if hours > MaxCatchUpHours {
		slog.Warn("tick fell behind, dropping game hours", "behind", hours, "kept", MaxCatchUpHours)
		hours = MaxCatchUpHours
	}
	res.Hours = int(hours)

	for i := 0; i < res.Hours; i++ {
		if d, closed := s.advanceHour(); closed {
			res.Days = append(res.Days, d)
		}
	}
	return res
}

// AdvanceHours runs n game hours directly, ignoring pause and time scale.
// It is used by headless runs and tests.
func (s *Simulation) AdvanceHours(n int) TickResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res TickResult
	if s.phase != PhaseRunning {
		return res
	}
	for i := 0; i < n; i++ {
		if d, closed := s.advanceHour(); closed {
			res.Days = append(res.Days, d)
		}
		res.Hours++
	}
	return res
}

// advanceHour moves the clock one hour and updates each subsystem in order:
// calendar, weather, pasture, herd, market, ledger, tech. Every step reads
// the inputs captured before the hour began.
func (s *Simulation) advanceHour() (DailyStats, bool) {
	fx := s.weather.Effects()
	load := s.herd.GrazingLoad()
	grass := s.field.GrassLevels()
	bonus := s.tree.Bonus()
	mods := modifiers(bonus)
	upkeep := s.pastureUpkeep(bonus)

	calEvents := s.clock.Advance(1)
	now := s.clock.Now()
	newDay := now.Hour == 0

	var closed DailyStats
	if newDay {
		closed = s.closeDay(now)
	}
	s.handleCalendar(calEvents)

	active := s.weather.Active()
	s.weather.Update(now)
	s.reportWeather(active)

	if newDay {
		s.field.SetGrowthBonus(bonus.SoilFertility)
		if err := s.field.Update(now.Season(), fx, load); err != nil {
			s.status.InvariantErr = err.Error()
			slog.Error("pasture update aborted", "error", err, "time", now.String())
		}

		rep := s.herd.Update(herd.UpdateInput{Effects: fx, GrassLevels: grass, Modifiers: mods}, s.field)
		s.status.LastReport = rep
		s.stats.Today.Births += rep.Births
		if rep.Births > 0 {
			s.emit(CategoryHerd, fmt.Sprintf("%d cows calved (%d calves kept)", rep.Births, len(rep.Calves)))
		}
		if rep.Illnesses > 0 {
			s.emit(CategoryHerd, fmt.Sprintf("%d cows fell ill", rep.Illnesses))
		}
	}

	s.market.Update(now, fx)

	if bill := s.ledger.Accrue(now, &s.wallet, fx, upkeep); bill > 0 {
		s.status.LastBill = bill
		s.stats.Today.Maintenance += bill
		if s.wallet.CashWarning() {
			s.emit(CategoryLedger, fmt.Sprintf("Maintenance of $%s overdrew the account", humanize.CommafWithDigits(bill, 2)))
		}
	}

	if newDay {
		day := s.tree.Update()
		if day.Completed != "" {
			s.status.LastResearch = day.Completed
			s.emit(CategoryTech, "Research completed: "+day.Completed)
		}
		if day.Started != "" {
			s.emit(CategoryTech, "Queued research started: "+day.Started)
		}
		for _, id := range day.Dropped {
			s.emit(CategoryTech, "Queued research dropped, it can no longer start: "+id)
		}
		s.rollIncident(now)
	}

	s.runChores(calEvents)
	s.refreshFlags()

	if newDay {
		slog.Info("daily report",
			"date", closed.Date,
			"herd", closed.HerdSize,
			"milk_l", humanize.CommafWithDigits(closed.MilkLitres, 1),
			"revenue", humanize.CommafWithDigits(closed.Revenue, 2),
			"cash", humanize.CommafWithDigits(closed.Cash, 2),
			"avg_health", fmt.Sprintf("%.1f", closed.AverageHealth),
			"grass", fmt.Sprintf("%.1f", closed.MeanGrass),
		)
	}
	return closed, newDay
}

func (s *Simulation) reportWeather(before weather.EventSet) {
	after := s.weather.Active()
	for k := weather.Drought; k <= weather.Frost; k++ {
		switch {
		case after.Has(k) && !before.Has(k):
			s.emit(CategoryWeather, fmt.Sprintf("Extreme weather: %s", k))
			slog.Info("extreme weather started", "event", k.String())
		case before.Has(k) && !after.Has(k):
			s.emit(CategoryWeather, fmt.Sprintf("The %s has ended", k))
			slog.Info("extreme weather ended", "event", k.String())
		}
	}
}

// ── Host loop ──────────────────────────────────────────────────────────

// Engine drives a Simulation from wall time.
type Engine struct {
	Sim      *Simulation
	Interval time.Duration // wall time between ticks

	// OnDay is called outside the simulation lock for every closed day.
	OnDay func(DailyStats)
}

// NewEngine creates a host loop ticking every 100ms.
func NewEngine(sim *Simulation) *Engine {
	return &Engine{Sim: sim, Interval: 100 * time.Millisecond}
}

// Run ticks the simulation until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.Interval)
	defer ticker.Stop()

	slog.Info("simulation engine started", "interval", e.Interval)
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			slog.Info("simulation engine stopped", "time", e.Sim.Now().String())
			return nil
		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now
			res := e.Sim.Tick(float64(elapsed.Microseconds()) / 1000)
			if e.OnDay != nil {
				for _, d := range res.Days {
					e.OnDay(d)
				}
			}
		}
	}
}

// GameTime formats t for display.
func GameTime(t calendar.Time) string {
	return fmt.Sprintf("%s, %02d:00 (%s)", t.DateString(), t.Hour, t.Season())
}
