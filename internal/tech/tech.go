// Package tech is the research and upgrade progression: research points
// accrue daily, research unlocks technologies and purchase activates their
// effects.
package tech

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/talgya/dairy-sim/internal/economy"
)

var (
	ErrUnknownTechnology  = errors.New("unknown technology")
	ErrAlreadyUnlocked    = errors.New("technology already unlocked")
	ErrPrerequisites      = errors.New("prerequisites not met")
	ErrInsufficientPoints = errors.New("insufficient research points")
	ErrNotResearched      = errors.New("technology not researched")
	ErrAlreadyPurchased   = errors.New("technology already purchased")
	ErrResearchBusy       = errors.New("research already in progress")
)

// BaseResearchRate is research points earned per day.
const BaseResearchRate = 1.0

// Research is the project in progress.
type Research struct {
	TechnologyID string  `json:"technology_id"`
	Progress     float64 `json:"progress"`
	Required     float64 `json:"required"`
}

// Tree tracks research points, unlocked and purchased technologies.
type Tree struct {
	points    float64
	unlocked  map[string]bool
	purchased map[string]bool
	current   *Research
	queue     []string
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{unlocked: make(map[string]bool), purchased: make(map[string]bool)}
}

// Grant unlocks and purchases ids without cost, for starting infrastructure.
func (t *Tree) Grant(ids ...string) {
	for _, id := range ids {
		if _, ok := lookup(id); ok {
			t.unlocked[id] = true
			t.purchased[id] = true
		}
	}
}

// Points returns the unspent research points.
func (t *Tree) Points() float64 { return t.points }

// Current returns the research in progress.
func (t *Tree) Current() (Research, bool) {
	if t.current == nil {
		return Research{}, false
	}
	return *t.current, true
}

// Queue returns the ids waiting to start, in order.
func (t *Tree) Queue() []string { return slices.Clone(t.queue) }

// Unlocked reports whether id has been researched.
func (t *Tree) Unlocked(id string) bool { return t.unlocked[id] }

// Purchased reports whether id is active.
func (t *Tree) Purchased(id string) bool { return t.purchased[id] }

// ResearchRate is the daily point rate including digital technology bonuses.
func (t *Tree) ResearchRate() float64 {
	rate := BaseResearchRate
	for _, tech := range catalog {
		if t.unlocked[tech.ID] && tech.Effect.ResearchRate > 0 {
			rate *= tech.Effect.ResearchRate
		}
	}
	return rate
}

// Day is what one day of research did.
type Day struct {
	Completed string   `json:"completed,omitempty"`
	Started   string   `json:"started,omitempty"`
	Dropped   []string `json:"dropped,omitempty"` // queued ids that can never start
}

// Update runs one day: points accrue, the active project advances and, on
// completion or when idle, the queue is offered the free slot.
func (t *Tree) Update() Day {
	var d Day
	t.points += t.ResearchRate()

	if t.current != nil {
		t.current.Progress++
		if t.current.Progress < t.current.Required {
			return d
		}
		d.Completed = t.current.TechnologyID
		t.unlocked[d.Completed] = true
		t.current = nil
		slog.Info("research completed", "technology", d.Completed)
	}
	d.Started, d.Dropped = t.startQueued()
	return d
}

// startQueued starts the first queued project that can start. A project
// short of points holds the queue until enough accrue; one waiting on a
// prerequisite that is itself in progress or queued is skipped over. Anything
// else can never start and is removed.
func (t *Tree) startQueued() (started string, dropped []string) {
	for i := 0; i < len(t.queue) && t.current == nil; {
		id := t.queue[i]
		err := t.StartResearch(id)
		switch {
		case err == nil:
			t.queue = slices.Delete(t.queue, i, i+1)
			return id, dropped
		case errors.Is(err, ErrInsufficientPoints):
			return "", dropped
		case errors.Is(err, ErrPrerequisites) && t.reachable(id):
			i++
		default:
			slog.Warn("dropping queued research", "technology", id, "err", err)
			t.queue = slices.Delete(t.queue, i, i+1)
			dropped = append(dropped, id)
		}
	}
	return "", dropped
}

// reachable reports whether every prerequisite of id is unlocked, in
// progress or queued.
func (t *Tree) reachable(id string) bool {
	tech, _ := lookup(id)
	for _, p := range tech.Prerequisites {
		switch {
		case t.unlocked[p]:
		case t.current != nil && t.current.TechnologyID == p:
		case slices.Contains(t.queue, p):
		default:
			return false
		}
	}
	return true
}

func (t *Tree) canResearch(id string) (Technology, error) {
	tech, ok := lookup(id)
	if !ok {
		return Technology{}, fmt.Errorf("%w: %q", ErrUnknownTechnology, id)
	}
	if t.unlocked[id] {
		return Technology{}, fmt.Errorf("%w: %s", ErrAlreadyUnlocked, id)
	}
	for _, p := range tech.Prerequisites {
		if !t.unlocked[p] {
			return Technology{}, fmt.Errorf("%w: %s needs %s", ErrPrerequisites, id, p)
		}
	}
	return tech, nil
}

// StartResearch spends research points to begin id.
func (t *Tree) StartResearch(id string) error {
	if t.current != nil {
		return fmt.Errorf("%w: %s", ErrResearchBusy, t.current.TechnologyID)
	}
	tech, err := t.canResearch(id)
	if err != nil {
		return err
	}
	if t.points < tech.ResearchCost {
		return fmt.Errorf("%w: %s needs %.0f, have %.1f", ErrInsufficientPoints, id, tech.ResearchCost, t.points)
	}
	t.points -= tech.ResearchCost
	t.current = &Research{TechnologyID: id, Required: tech.ResearchCost}
	slog.Info("research started", "technology", id)
	return nil
}

// Enqueue adds id to the research queue.
func (t *Tree) Enqueue(id string) error {
	if _, ok := lookup(id); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTechnology, id)
	}
	t.queue = append(t.queue, id)
	return nil
}

// Purchase pays for a researched technology and activates it.
func (t *Tree) Purchase(id string, w *economy.Wallet) (float64, error) {
	tech, ok := lookup(id)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTechnology, id)
	}
	if !t.unlocked[id] {
		return 0, fmt.Errorf("%w: %s", ErrNotResearched, id)
	}
	if t.purchased[id] {
		return 0, fmt.Errorf("%w: %s", ErrAlreadyPurchased, id)
	}
	if err := w.Spend(tech.Cost); err != nil {
		return 0, err
	}
	t.purchased[id] = true
	return tech.Cost, nil
}

// Bonus is the combined effect of every purchased technology.
type Bonus struct {
	MilkYield        float64 `json:"milk_yield"`
	FeedEfficiency   float64 `json:"feed_efficiency"`
	Reproduction     float64 `json:"reproduction"`
	HealthBonus      float64 `json:"health_bonus"`
	MilkPremium      float64 `json:"milk_premium"`
	SoilFertility    float64 `json:"soil_fertility"`
	UpkeepFactor     float64 `json:"upkeep_factor"`
	PrecisionFeeding bool    `json:"precision_feeding"`
}

// Bonus folds purchased effects: multipliers multiply, additive terms sum.
func (t *Tree) Bonus() Bonus {
	b := Bonus{MilkYield: 1, FeedEfficiency: 1, Reproduction: 1, SoilFertility: 1, UpkeepFactor: 1}
	for _, id := range t.sortedPurchased() {
		tech, _ := lookup(id)
		e := tech.Effect
		if e.MilkYield > 0 {
			b.MilkYield *= e.MilkYield
		}
		if e.FeedEfficiency > 0 {
			b.FeedEfficiency *= e.FeedEfficiency
		}
		if e.Reproduction > 0 {
			b.Reproduction *= e.Reproduction
		}
		if e.SoilFertility > 0 {
			b.SoilFertility *= e.SoilFertility
		}
		if e.UpkeepFactor > 0 {
			b.UpkeepFactor *= e.UpkeepFactor
		}
		b.HealthBonus += e.HealthBonus
		b.MilkPremium += e.MilkPremium
	}
	b.PrecisionFeeding = t.purchased[PrecisionFeeding]
	return b
}

func (t *Tree) sortedPurchased() []string {
	ids := make([]string, 0, len(t.purchased))
	for id, ok := range t.purchased {
		if ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Status is one technology's standing for display.
type Status struct {
	Technology
	Unlocked    bool `json:"unlocked"`
	Purchased   bool `json:"purchased"`
	Researching bool `json:"researching"`
	Available   bool `json:"available"` // prerequisites met and not yet unlocked
}

// Statuses lists the catalogue with this tree's progress.
func (t *Tree) Statuses() []Status {
	out := make([]Status, 0, len(catalog))
	for _, tech := range catalog {
		_, err := t.canResearch(tech.ID)
		out = append(out, Status{
			Technology:  tech,
			Unlocked:    t.unlocked[tech.ID],
			Purchased:   t.purchased[tech.ID],
			Researching: t.current != nil && t.current.TechnologyID == tech.ID,
			Available:   err == nil,
		})
	}
	return out
}

// State is the serialisable form of a Tree.
type State struct {
	Points    float64   `json:"points"`
	Unlocked  []string  `json:"unlocked"`
	Purchased []string  `json:"purchased"`
	Current   *Research `json:"current,omitempty"`
	Queue     []string  `json:"queue,omitempty"`
}

// Save captures the tree.
func (t *Tree) Save() State {
	st := State{Points: t.points, Purchased: t.sortedPurchased(), Queue: append([]string(nil), t.queue...)}
	for id, ok := range t.unlocked {
		if ok {
			st.Unlocked = append(st.Unlocked, id)
		}
	}
	sort.Strings(st.Unlocked)
	if t.current != nil {
		c := *t.current
		st.Current = &c
	}
	return st
}

// Restore rebuilds a tree from saved state.
func Restore(st State) *Tree {
	t := New()
	t.points = st.Points
	for _, id := range st.Unlocked {
		t.unlocked[id] = true
	}
	for _, id := range st.Purchased {
		t.purchased[id] = true
	}
	if st.Current != nil {
		c := *st.Current
		t.current = &c
	}
	t.queue = append([]string(nil), st.Queue...)
	return t
}
