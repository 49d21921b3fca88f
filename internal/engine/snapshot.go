package engine

import (
	"github.com/talgya/dairy-sim/internal/calendar"
	"github.com/talgya/dairy-sim/internal/economy"
	"github.com/talgya/dairy-sim/internal/herd"
	"github.com/talgya/dairy-sim/internal/ledger"
	"github.com/talgya/dairy-sim/internal/pasture"
	"github.com/talgya/dairy-sim/internal/tech"
	"github.com/talgya/dairy-sim/internal/weather"
)

// CalendarView is the clock as callers see it.
type CalendarView struct {
	Time     calendar.Time `json:"time"`
	Season   string        `json:"season"`
	Date     string        `json:"date"`
	Daylight bool          `json:"daylight"`
}

// WeatherView is the weather as callers see it.
type WeatherView struct {
	Region     string                  `json:"region"`
	Conditions weather.Conditions      `json:"conditions"`
	Effects    weather.Effects         `json:"effects"`
	Events     []weather.ExtremeEvent  `json:"events"`
	Forecast   []weather.ForecastEntry `json:"forecast"`
}

// FarmView is the infrastructure record with derived figures.
type FarmView struct {
	ledger.Farm
	MilkingCapacity int     `json:"milking_capacity"`
	DailyCost       float64 `json:"daily_cost"`
}

// ResearchView is the technology progress.
type ResearchView struct {
	Points  float64        `json:"points"`
	Rate    float64        `json:"rate"`
	Current *tech.Research `json:"current,omitempty"`
	Queue   []string       `json:"queue,omitempty"`
	Bonus   tech.Bonus     `json:"bonus"`
}

// Snapshot is a deep, independent copy of the farm. Mutating it never
// affects the simulation.
type Snapshot struct {
	Phase     Phase   `json:"phase"`
	Paused    bool    `json:"paused"`
	TimeScale float64 `json:"time_scale"`
	Scenario  string  `json:"scenario,omitempty"`

	Calendar      CalendarView       `json:"calendar"`
	Resources     economy.Wallet     `json:"resources"`
	Farm          FarmView           `json:"farm"`
	Pastures      []pasture.Pasture  `json:"pastures"`
	Animals       []herd.Animal      `json:"animals"`
	Herd          herd.Counts        `json:"herd"`
	AverageHealth float64            `json:"average_health"`
	Weather       WeatherView        `json:"weather"`
	Prices        economy.Prices     `json:"prices"`
	Contracts     []economy.Contract `json:"contracts"`
	Research      ResearchView       `json:"research"`
	Status        Status             `json:"status"`
	Today         DailyStats         `json:"today"`
}

// State returns a snapshot of the whole farm. An idle simulation yields only
// the control fields.
func (s *Simulation) State() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Simulation) snapshot() Snapshot {
	snap := Snapshot{Phase: s.phase, Paused: s.paused, TimeScale: s.timeScale, Scenario: s.scenarioID}
	if s.phase != PhaseRunning {
		return snap
	}

	now := s.clock.Now()
	bonus := s.tree.Bonus()
	snap.Calendar = CalendarView{
		Time:     now,
		Season:   now.Season().String(),
		Date:     now.DateString(),
		Daylight: now.IsDaylight(),
	}
	snap.Resources = s.wallet
	snap.Farm = FarmView{
		Farm:            s.ledger.Farm(),
		MilkingCapacity: s.ledger.MilkingCapacity(),
		DailyCost:       s.ledger.DailyCost(s.pastureUpkeep(bonus)),
	}
	snap.Pastures = s.field.Pastures()
	snap.Animals = s.herd.Animals()
	snap.Herd = s.herd.Counts()
	snap.AverageHealth = s.herd.AverageHealth()
	snap.Weather = WeatherView{
		Region:     s.weather.Region().ID,
		Conditions: s.weather.Current(),
		Effects:    s.weather.Effects(),
		Events:     s.weather.Events(),
		Forecast:   s.weather.Forecast(now),
	}
	snap.Prices = s.market.Prices()
	snap.Contracts = s.market.Contracts()
	snap.Research = ResearchView{Points: s.tree.Points(), Rate: s.tree.ResearchRate(), Queue: s.tree.Queue(), Bonus: bonus}
	if cur, ok := s.tree.Current(); ok {
		snap.Research.Current = &cur
	}
	snap.Status = s.status
	snap.Status.LastReport.Calves = append([]int(nil), s.status.LastReport.Calves...)
	snap.Today = s.stats.Today
	return snap
}

// Pastures returns a copy of every paddock.
func (s *Simulation) Pastures() []pasture.Pasture {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.field == nil {
		return nil
	}
	return s.field.Pastures()
}

// Animals returns a copy of every animal.
func (s *Simulation) Animals() []herd.Animal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.herd == nil {
		return nil
	}
	return s.herd.Animals()
}

// MarketReport summarises prices, trends and contracts.
func (s *Simulation) MarketReport() (economy.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.market == nil {
		return economy.Report{}, ErrNotRunning
	}
	return s.market.Report(), nil
}

// Technologies lists the catalogue with research progress.
func (s *Simulation) Technologies() []tech.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree == nil {
		return nil
	}
	return s.tree.Statuses()
}
