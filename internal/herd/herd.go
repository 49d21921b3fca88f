// Package herd owns the cattle: feeding, milking, health, the
// dry/lactating/pregnant cycle, breeding and trade.
package herd

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/talgya/dairy-sim/internal/entropy"
	"github.com/talgya/dairy-sim/internal/weather"
)

var (
	ErrUnknownAnimal   = errors.New("unknown animal")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// Placer assigns animals to pastures. pasture.Field implements it.
type Placer interface {
	Assign(n int) []int
	Release(pastureID int)
}

// Modifiers are the technology multipliers the herd applies. The zero value
// is neutral.
type Modifiers struct {
	MilkYield        float64 // multiplier, 0 means 1
	FeedEfficiency   float64 // multiplier, 0 means 1
	Reproduction     float64 // multiplier, 0 means 1
	HealthBonus      float64 // points per day
	PrecisionFeeding bool
}

func or1(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return v
}

// Herd owns every Animal, kept ordered by id.
type Herd struct {
	animals []*Animal
	byID    map[int]*Animal
	nextID  int
	day     int
	src     entropy.Source
}

// New creates an empty herd drawing from src.
func New(src entropy.Source) *Herd {
	return &Herd{byID: make(map[int]*Animal), nextID: 1, src: src}
}

// Seed populates the herd with n animals of breedID and places them.
func (h *Herd) Seed(breedID string, n int, placer Placer) error {
	b, err := LookupBreed(breedID)
	if err != nil {
		return err
	}
	h.addPlaced(h.spawn(b, n), placer)
	return nil
}

// spawn creates n adult animals: 2–5 years, 80% in milk, 30% of the dry
// ones in calf.
func (h *Herd) spawn(b Breed, n int) []*Animal {
	out := make([]*Animal, 0, n)
	for i := 0; i < n; i++ {
		a := &Animal{
			BreedID:    b.ID,
			Age:        entropy.Between(h.src, 2, 5),
			Health:     entropy.Between(h.src, 85, 100),
			Weight:     entropy.Between(h.src, 450, 600),
			MilkYield:  b.MilkYield * entropy.Between(h.src, 0.8, 1.2),
			Genetics:   h.genetics(),
			FeedStatus: FeedGood,
			Fed:        true,
		}
		if entropy.Chance(h.src, 0.8) {
			a.Lactating = true
			a.DaysInMilk = h.src.IntN(300)
		} else if entropy.Chance(h.src, 0.3) {
			a.Pregnant = true
			a.GestationDays = h.src.IntN(GestationDays)
		}
		out = append(out, a)
	}
	return out
}

func (h *Herd) genetics() Genetics {
	return Genetics{
		Production: entropy.Between(h.src, 0.8, 1.2),
		Fertility:  entropy.Between(h.src, 0.8, 1.2),
		Health:     entropy.Between(h.src, 0.8, 1.2),
		Longevity:  entropy.Between(h.src, 0.8, 1.2),
	}
}

func (h *Herd) addPlaced(as []*Animal, placer Placer) {
	var ids []int
	if placer != nil {
		ids = placer.Assign(len(as))
	}
	for i, a := range as {
		a.ID = h.nextID
		h.nextID++
		if i < len(ids) {
			a.PastureID = ids[i]
		}
		h.animals = append(h.animals, a)
		h.byID[a.ID] = a
	}
}

// Len returns the herd size.
func (h *Herd) Len() int { return len(h.animals) }

// Animals returns copies of every animal in id order.
func (h *Herd) Animals() []Animal {
	out := make([]Animal, len(h.animals))
	for i, a := range h.animals {
		out[i] = *a
	}
	return out
}

// Get returns a copy of animal id.
func (h *Herd) Get(id int) (Animal, error) {
	a, ok := h.byID[id]
	if !ok {
		return Animal{}, fmt.Errorf("%w: %d", ErrUnknownAnimal, id)
	}
	return *a, nil
}

// GrazingLoad counts assigned animals per pasture id.
func (h *Herd) GrazingLoad() map[int]int {
	load := make(map[int]int)
	for _, a := range h.animals {
		if a.PastureID != 0 {
			load[a.PastureID]++
		}
	}
	return load
}

// ── Feeding ────────────────────────────────────────────────────────────

// FeedResult reports one feeding.
type FeedResult struct {
	Required  float64 `json:"required"`
	Consumed  float64 `json:"consumed"`
	Shortfall float64 `json:"shortfall"`
}

// Requirement is the feed the whole herd needs for one feeding.
func (h *Herd) Requirement(mod Modifiers) float64 {
	return float64(len(h.animals)) * FeedPerAnimalKg / or1(mod.FeedEfficiency)
}

// Feed draws from inventory. A shortfall empties the inventory and marks
// every animal underfed; it is reported in the result, not as an error.
func (h *Herd) Feed(inventory *float64, mod Modifiers) FeedResult {
	res := FeedResult{Required: h.Requirement(mod)}
	if len(h.animals) == 0 {
		return res
	}

	if *inventory >= res.Required {
		*inventory -= res.Required
		res.Consumed = res.Required
		status := FeedGood
		if mod.PrecisionFeeding {
			status = FeedExcellent
		}
		for _, a := range h.animals {
			a.addHealth(2)
			a.FeedStatus = status
			a.Fed = true
		}
		return res
	}

	res.Consumed = *inventory
	res.Shortfall = res.Required - *inventory
	*inventory = 0
	for _, a := range h.animals {
		a.addHealth(-2)
		a.FeedStatus = FeedPoor
	}
	slog.Debug("feed shortfall", "required", res.Required, "short", res.Shortfall)
	return res
}

// ── Milking ────────────────────────────────────────────────────────────

// MilkResult reports one milking.
type MilkResult struct {
	Litres   float64 `json:"litres"`
	Milked   int     `json:"milked"`
	Skipped  int     `json:"skipped"` // eligible but over shed capacity
	DriedOff int     `json:"dried_off"`
}

// Milk milks eligible animals in id order, at most capacity of them. Each
// animal gives 1/MilkingsPerDay of its daily yield and is milked at most
// MilkingsPerDay times between daily updates. An animal milked on the last
// day of its lactation is dried off.
func (h *Herd) Milk(capacity int, fx weather.Effects, mod Modifiers) MilkResult {
	var res MilkResult
	for _, a := range h.animals {
		if !a.CanMilk() {
			continue
		}
		if res.Milked >= capacity {
			res.Skipped++
			continue
		}
		y := a.MilkYield *
			(a.Health / 100) *
			LactationCurve(a.DaysInMilk) *
			a.Genetics.Production *
			a.FeedStatus.Multiplier() *
			fx.MilkProduction *
			or1(mod.MilkYield) /
			MilkingsPerDay
		res.Litres += math.Max(0, y)
		res.Milked++
		a.MilkedToday++

		if a.DaysInMilk >= LactationDays-1 {
			a.dryOff()
			res.DriedOff++
		}
	}
	return res
}

// ── Daily update ───────────────────────────────────────────────────────

// UpdateInput is the read-only context for a daily update.
type UpdateInput struct {
	Effects     weather.Effects
	GrassLevels map[int]float64
	Modifiers   Modifiers
}

// DayReport summarises a daily update.
type DayReport struct {
	Births      int   `json:"births"`
	Calves      []int `json:"calves,omitempty"`
	Conceptions int   `json:"conceptions"`
	Illnesses   int   `json:"illnesses"`
}

// Update advances every animal by one day: ageing, health, days in milk,
// gestation and, every BreedingCycle days, a breeding check. Calves are
// placed via placer.
func (h *Herd) Update(in UpdateInput, placer Placer) DayReport {
	var rep DayReport
	h.day++
	breedingDay := h.day%BreedingCycle == 0
	agingDecay := math.Pow(0.98, 1.0/365)
	yieldDecay := math.Pow(0.95, 1.0/365)

	var calves []*Animal
	for _, a := range h.animals {
		a.Age += 1.0 / 365
		if a.Age > AgingThreshold {
			a.Health *= agingDecay
			a.MilkYield *= yieldDecay
		}

		if !a.Fed {
			a.FeedStatus = FeedPoor
		}
		if a.FeedStatus == FeedPoor {
			a.addHealth(-2)
		} else {
			a.addHealth(1)
		}
		a.Fed = false

		if a.PastureID != 0 {
			if grass, ok := in.GrassLevels[a.PastureID]; ok {
				switch {
				case grass > 80:
					a.addHealth(0.5)
				case grass < 20:
					a.addHealth(-1)
				}
			}
		}
		if in.Effects.ThermalStress {
			a.addHealth(-0.5)
		}
		if c := in.Effects.CattleComfort; c > 0 && c < 1 {
			a.addHealth(-(1 - c) * 2)
		}
		if entropy.Chance(h.src, IllnessChance) {
			a.addHealth(-IllnessPenalty)
			rep.Illnesses++
		}
		a.addHealth(in.Modifiers.HealthBonus)

		a.MilkedToday = 0
		if a.Lactating {
			a.DaysInMilk++
			if a.DaysInMilk >= LactationDays {
				a.dryOff()
			}
		}

		if a.Pregnant {
			a.GestationDays++
			if a.GestationDays >= GestationDays {
				a.Pregnant = false
				a.Lactating = true
				a.DaysInMilk = 0
				a.GestationDays = 0
				rep.Births++
				if entropy.Chance(h.src, CalfChance) {
					calves = append(calves, h.calf(a))
				}
			}
		} else if breedingDay && a.CanBreed() {
			p := a.Genetics.Fertility * (a.Health / 100) * or1(in.Modifiers.Reproduction)
			if entropy.Chance(h.src, p) {
				a.Pregnant = true
				a.GestationDays = 0
				rep.Conceptions++
			}
		}
	}

	if len(calves) > 0 {
		h.addPlaced(calves, placer)
		for _, c := range calves {
			rep.Calves = append(rep.Calves, c.ID)
		}
	}
	if rep.Births > 0 {
		slog.Info("calving", "births", rep.Births, "calves", len(rep.Calves), "herd", len(h.animals))
	}
	return rep
}

func (h *Herd) calf(mother *Animal) *Animal {
	b := breeds[mother.BreedID]
	return &Animal{
		BreedID:    mother.BreedID,
		Health:     entropy.Between(h.src, 90, 100),
		Weight:     entropy.Between(h.src, 35, 45),
		MilkYield:  b.MilkYield * entropy.Between(h.src, 0.8, 1.2),
		Genetics:   h.genetics(),
		FeedStatus: FeedGood,
		Fed:        true,
	}
}

// ── Trade ──────────────────────────────────────────────────────────────

// PurchaseCost quotes qty animals of breedID.
func PurchaseCost(breedID string, qty int) (float64, error) {
	b, err := LookupBreed(breedID)
	if err != nil {
		return 0, err
	}
	if qty <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}
	return b.Cost * float64(qty), nil
}

// Buy adds qty new animals and places them. The caller has already
// validated and debited the cost.
func (h *Herd) Buy(breedID string, qty int, placer Placer) ([]int, error) {
	if _, err := PurchaseCost(breedID, qty); err != nil {
		return nil, err
	}
	b := breeds[breedID]
	as := h.spawn(b, qty)
	h.addPlaced(as, placer)
	ids := make([]int, len(as))
	for i, a := range as {
		ids[i] = a.ID
	}
	return ids, nil
}

// SaleValue quotes the proceeds of selling animal id.
func (h *Herd) SaleValue(id int) (float64, error) {
	a, ok := h.byID[id]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownAnimal, id)
	}
	return a.Value(breeds[a.BreedID]) * SaleFraction, nil
}

// Sell removes animal id, frees its pasture slot and returns the proceeds.
func (h *Herd) Sell(id int, placer Placer) (float64, error) {
	proceeds, err := h.SaleValue(id)
	if err != nil {
		return 0, err
	}
	a := h.byID[id]
	if placer != nil {
		placer.Release(a.PastureID)
	}
	delete(h.byID, id)
	idx := sort.Search(len(h.animals), func(i int) bool { return h.animals[i].ID >= id })
	h.animals = append(h.animals[:idx], h.animals[idx+1:]...)
	return proceeds, nil
}

// Reassign records that animal id now grazes pastureID and returns the
// previous pasture.
func (h *Herd) Reassign(id, pastureID int) (int, error) {
	a, ok := h.byID[id]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownAnimal, id)
	}
	prev := a.PastureID
	a.PastureID = pastureID
	return prev, nil
}

// MastitisOutbreak knocks 20 health off roughly a fifth of the milkers.
func (h *Herd) MastitisOutbreak() int {
	n := 0
	for _, a := range h.animals {
		if a.Lactating && entropy.Chance(h.src, 0.2) {
			a.addHealth(-20)
			n++
		}
	}
	return n
}

// ── Statistics ─────────────────────────────────────────────────────────

// Counts is a herd composition summary.
type Counts struct {
	Total      int `json:"total"`
	Lactating  int `json:"lactating"`
	Pregnant   int `json:"pregnant"`
	Dry        int `json:"dry"`
	Unassigned int `json:"unassigned"`
	Underfed   int `json:"underfed"`
}

// Counts summarises the herd.
func (h *Herd) Counts() Counts {
	c := Counts{Total: len(h.animals)}
	for _, a := range h.animals {
		switch {
		case a.Lactating:
			c.Lactating++
		case a.Pregnant:
			c.Pregnant++
		default:
			c.Dry++
		}
		if a.PastureID == 0 {
			c.Unassigned++
		}
		if a.FeedStatus == FeedPoor {
			c.Underfed++
		}
	}
	return c
}

// AverageHealth is the mean health, 0 for an empty herd.
func (h *Herd) AverageHealth() float64 {
	if len(h.animals) == 0 {
		return 0
	}
	var sum float64
	for _, a := range h.animals {
		sum += a.Health
	}
	return sum / float64(len(h.animals))
}

// DailyFeedDemand is the breed-weighted feed demand in kg/day.
func (h *Herd) DailyFeedDemand() float64 {
	var sum float64
	for _, a := range h.animals {
		sum += breeds[a.BreedID].FeedKg
	}
	return sum
}

// ── Persistence ────────────────────────────────────────────────────────

// State is the serialisable form of a Herd.
type State struct {
	Animals []Animal `json:"animals"`
	NextID  int      `json:"next_id"`
	Day     int      `json:"day"`
}

// Save captures the herd.
func (h *Herd) Save() State {
	return State{Animals: h.Animals(), NextID: h.nextID, Day: h.day}
}

// Restore rebuilds a herd from saved state, drawing from src.
func Restore(st State, src entropy.Source) *Herd {
	h := New(src)
	h.nextID = max(1, st.NextID)
	h.day = st.Day
	for _, a := range st.Animals {
		a := a
		h.animals = append(h.animals, &a)
		h.byID[a.ID] = &a
	}
	sort.Slice(h.animals, func(i, j int) bool { return h.animals[i].ID < h.animals[j].ID })
	return h
}
