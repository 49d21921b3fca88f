// Simulation ties together all farm systems and runs them each game hour.
package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/talgya/dairy-sim/internal/calendar"
	"github.com/talgya/dairy-sim/internal/economy"
	"github.com/talgya/dairy-sim/internal/entropy"
	"github.com/talgya/dairy-sim/internal/herd"
	"github.com/talgya/dairy-sim/internal/ledger"
	"github.com/talgya/dairy-sim/internal/pasture"
	"github.com/talgya/dairy-sim/internal/scenario"
	"github.com/talgya/dairy-sim/internal/tech"
	"github.com/talgya/dairy-sim/internal/weather"
)

// Phase is the orchestrator state.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseRunning
)

// Name returns the phase label.
func (p Phase) Name() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	default:
		return "unknown"
	}
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.Name()), nil }

func (p *Phase) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*p = PhaseIdle
	case "running":
		*p = PhaseRunning
	default:
		return fmt.Errorf("%w: phase %q", ErrInvalidArgument, b)
	}
	return nil
}

// Time scale bounds.
const (
	MinTimeScale = 0.1
	MaxTimeScale = 10.0
)

// MinFeedStorage is the storage a farm is given when its scenario has none.
const MinFeedStorage = 1000.0

// Options tune orchestrator behaviour that is not part of a scenario.
type Options struct {
	AutoChores bool             // feed, milk and sell on the daily schedule
	Incidents  bool             // random farm incidents
	OnReject   func(*Rejection) // called for every rejected command
}

// Simulation owns every subsystem and the shared random source. One mutex
// serialises Tick, commands and snapshot queries.
type Simulation struct {
	mu   sync.Mutex
	opts Options

	phase       Phase
	paused      bool
	timeScale   float64
	accumulator float64 // wall milliseconds not yet converted to hours
	scenarioID  string
	seed        int64

	rng     *entropy.Rand
	clock   *calendar.Clock
	weather *weather.Generator
	field   *pasture.Field
	herd    *herd.Herd
	market  *economy.Market
	ledger  *ledger.Ledger
	tree    *tech.Tree
	wallet  economy.Wallet

	status Status
	stats  statsBook
	events *eventLog
}

// Status carries derived flags and the results of the latest actions.
type Status struct {
	FeedShortfall bool            `json:"feed_shortfall"`
	CashWarning   bool            `json:"cash_warning"`
	LastFeeding   herd.FeedResult `json:"last_feeding"`
	LastMilking   herd.MilkResult `json:"last_milking"`
	LastSale      economy.Sale    `json:"last_sale"`
	LastBill      float64         `json:"last_bill"`
	LastReport    herd.DayReport  `json:"last_report"`
	LastResearch  string          `json:"last_research,omitempty"`
	LastIncident  string          `json:"last_incident,omitempty"`
	InvariantErr  string          `json:"invariant_error,omitempty"`
}

// NewSimulation creates an idle simulation.
func NewSimulation(opts Options) *Simulation {
	return &Simulation{opts: opts, timeScale: 1, events: newEventLog()}
}

// Phase returns the current orchestrator state.
func (s *Simulation) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Initialize seeds every subsystem from p and moves idle → running.
func (s *Simulation) Initialize(p scenario.Params, seed int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseRunning {
		return newRejection("initialize", ErrAlreadyRunning)
	}

	infra := p.StartingInfrastructure
	shedName := infra.Shed
	if shedName == "" {
		shedName = ledger.ShedNone.Name()
	}
	shed, err := ledger.ParseShedTier(shedName)
	if err != nil {
		return newRejection("initialize", err)
	}
	roadName := infra.Road
	if roadName == "" {
		roadName = ledger.RoadNone.Name()
	}
	road, err := ledger.ParseRoadTier(roadName)
	if err != nil {
		return newRejection("initialize", err)
	}
	if p.FarmSizeHa <= 0 || p.StartingCattleCount < 0 || p.StartingFeedKg < 0 {
		return newRejection("initialize", fmt.Errorf("%w: scenario %q", ErrInvalidArgument, p.ID))
	}
	storage := infra.StorageL
	if storage <= 0 {
		storage = MinFeedStorage
	}

	rng := entropy.New(seed)
	clock := calendar.NewClock(calendar.DefaultStart)
	field := pasture.NewField(pasture.Layout(seed, p.FarmSizeHa, infra.Irrigation, rng))
	h := herd.New(rng)
	if err := h.Seed(herd.DefaultBreed, p.StartingCattleCount, field); err != nil {
		return newRejection("initialize", err)
	}
	tree := tech.New()
	tree.Grant(tech.ShedTechnologies(shed.Name())...)

	s.rng = rng
	s.clock = clock
	s.weather = weather.New(p.RegionID, clock.Now(), rng)
	s.field = field
	s.herd = h
	s.market = economy.NewMarket(rng)
	s.ledger = ledger.New(ledger.Farm{
		Name:            p.FarmName,
		Region:          p.RegionID,
		SizeHa:          p.FarmSizeHa,
		Shed:            shed,
		StorageCapacity: storage,
		Road:            road,
		Irrigation:      infra.Irrigation,
	})
	s.tree = tree
	s.wallet = economy.Wallet{Cash: p.StartingCash, Feed: p.StartingFeedKg, Energy: 100, Reputation: 50}
	s.status = Status{}
	s.stats = newStatsBook(clock.Now())
	s.scenarioID = p.ID
	s.seed = seed
	s.accumulator = 0
	s.timeScale = 1
	s.paused = false
	s.phase = PhaseRunning

	s.emit(CategoryCalendar, fmt.Sprintf("%s established in %s with %d cows and $%s",
		p.FarmName, s.weather.Region().Name, h.Len(), humanize.Commaf(p.StartingCash)))
	slog.Info("simulation initialized",
		"scenario", p.ID,
		"seed", seed,
		"pastures", field.Len(),
		"herd", h.Len(),
		"time", clock.Now().String(),
	)
	return nil
}

// Stop returns the simulation to idle and releases every subsystem.
func (s *Simulation) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseIdle {
		return
	}
	slog.Info("simulation stopped", "scenario", s.scenarioID, "time", s.clock.Now().String())
	s.phase = PhaseIdle
	s.paused = false
	s.accumulator = 0
	s.rng, s.clock, s.weather, s.field, s.herd = nil, nil, nil, nil, nil
	s.market, s.ledger, s.tree = nil, nil, nil
	s.wallet = economy.Wallet{}
	s.status = Status{}
}

// Now returns the game time, or the zero Time when idle.
func (s *Simulation) Now() calendar.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clock == nil {
		return calendar.Time{}
	}
	return s.clock.Now()
}

func (s *Simulation) emit(cat Category, desc string) {
	var t calendar.Time
	if s.clock != nil {
		t = s.clock.Now()
	}
	s.events.emit(t, cat, desc)
}

// modifiers maps purchased technology onto the herd's multipliers.
func modifiers(b tech.Bonus) herd.Modifiers {
	return herd.Modifiers{
		MilkYield:        b.MilkYield,
		FeedEfficiency:   b.FeedEfficiency,
		Reproduction:     b.Reproduction,
		HealthBonus:      b.HealthBonus,
		PrecisionFeeding: b.PrecisionFeeding,
	}
}

func (s *Simulation) saleTerms(b tech.Bonus) economy.SaleTerms {
	f := s.ledger.Farm()
	return economy.SaleTerms{
		ShedCondition: f.ShedCondition,
		RoboticShed:   f.Shed == ledger.ShedRobotic,
		PremiumBonus:  b.MilkPremium,
	}
}

func (s *Simulation) pastureUpkeep(b tech.Bonus) float64 {
	factor := b.UpkeepFactor
	if factor <= 0 {
		factor = 1
	}
	return s.field.DailyUpkeep() * factor
}

func (s *Simulation) refreshFlags() {
	s.status.CashWarning = s.wallet.CashWarning()
}
