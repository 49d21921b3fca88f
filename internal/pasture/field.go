package pasture

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/dairy-sim/internal/calendar"
	"github.com/talgya/dairy-sim/internal/weather"
)

var (
	ErrUnknownPasture     = errors.New("unknown pasture")
	ErrPastureUnavailable = errors.New("pasture full or bare")
	ErrInvariant          = errors.New("pasture invariant violated")
)

// GrazingLoad maps pasture id to the number of animals assigned to it.
type GrazingLoad map[int]int

// Field owns every paddock on the farm.
type Field struct {
	pastures    []*Pasture
	byID        map[int]*Pasture
	growthBonus float64
}

// NewField takes ownership of ps.
func NewField(ps []*Pasture) *Field {
	f := &Field{byID: make(map[int]*Pasture, len(ps)), growthBonus: 1}
	for _, p := range ps {
		f.pastures = append(f.pastures, p)
		f.byID[p.ID] = p
	}
	return f
}

// SetGrowthBonus sets the multiplier applied to every paddock's growth.
func (f *Field) SetGrowthBonus(b float64) {
	if b <= 0 {
		b = 1
	}
	f.growthBonus = b
}

func (f *Field) get(id int) (*Pasture, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPasture, id)
	}
	return p, nil
}

// Get returns a copy of pasture id.
func (f *Field) Get(id int) (Pasture, error) {
	p, err := f.get(id)
	if err != nil {
		return Pasture{}, err
	}
	return *p, nil
}

// Pastures returns copies of all paddocks in id order.
func (f *Field) Pastures() []Pasture {
	out := make([]Pasture, len(f.pastures))
	for i, p := range f.pastures {
		out[i] = *p
	}
	return out
}

// Len returns the number of paddocks.
func (f *Field) Len() int { return len(f.pastures) }

// GrassLevels maps pasture id to current grass level.
func (f *Field) GrassLevels() map[int]float64 {
	out := make(map[int]float64, len(f.pastures))
	for _, p := range f.pastures {
		out[p.ID] = p.GrassLevel
	}
	return out
}

// Capacity returns total stock and total capacity across the field.
func (f *Field) Capacity() (stock, capacity int) {
	for _, p := range f.pastures {
		stock += p.CurrentStock
		capacity += p.MaxStock
	}
	return stock, capacity
}

// MeanGrass returns the average grass level.
func (f *Field) MeanGrass() float64 {
	if len(f.pastures) == 0 {
		return 0
	}
	var sum float64
	for _, p := range f.pastures {
		sum += p.GrassLevel
	}
	return sum / float64(len(f.pastures))
}

// DailyUpkeep is the field's maintenance spread over a 30-day month.
func (f *Field) DailyUpkeep() float64 {
	var sum float64
	for _, p := range f.pastures {
		sum += p.MaintenanceCost()
	}
	return sum / 30
}

// Update advances every paddock by one day. The grazing load must match each
// paddock's recorded stock; a mismatch aborts the pass before any paddock
// changes.
func (f *Field) Update(season calendar.Season, fx weather.Effects, load GrazingLoad) error {
	for id, n := range load {
		if _, ok := f.byID[id]; !ok && n > 0 {
			return fmt.Errorf("%w: load on unknown pasture %d", ErrInvariant, id)
		}
	}
	for _, p := range f.pastures {
		if load[p.ID] != p.CurrentStock {
			return fmt.Errorf("%w: pasture %d stock %d, load %d", ErrInvariant, p.ID, p.CurrentStock, load[p.ID])
		}
		if p.CurrentStock > p.MaxStock || p.CurrentStock < 0 {
			return fmt.Errorf("%w: pasture %d stock %d exceeds %d", ErrInvariant, p.ID, p.CurrentStock, p.MaxStock)
		}
	}

	for _, p := range f.pastures {
		p.advanceDay(season, fx, f.growthBonus)
	}
	return nil
}

// AddCattle places n animals on pasture id.
func (f *Field) AddCattle(id, n int) error {
	p, err := f.get(id)
	if err != nil {
		return err
	}
	if !p.CanAdd(n) {
		return fmt.Errorf("%w: pasture %d (stock %d/%d, grass %.0f)",
			ErrPastureUnavailable, id, p.CurrentStock, p.MaxStock, p.GrassLevel)
	}
	p.CurrentStock += n
	p.RestDays = 0
	return nil
}

// RemoveCattle takes up to n animals off pasture id.
func (f *Field) RemoveCattle(id, n int) error {
	p, err := f.get(id)
	if err != nil {
		return err
	}
	p.CurrentStock = max(0, p.CurrentStock-n)
	if p.CurrentStock == 0 {
		p.RestDays = 0
	}
	return nil
}

// Assign places n animals round-robin across paddocks that can take one
// more. It returns one pasture id per animal; 0 means unassigned.
func (f *Field) Assign(n int) []int {
	ids := make([]int, n)
	if len(f.pastures) == 0 {
		return ids
	}
	cursor := 0
	for i := 0; i < n; i++ {
		for tries := 0; tries < len(f.pastures); tries++ {
			p := f.pastures[cursor]
			cursor = (cursor + 1) % len(f.pastures)
			if p.CanAdd(1) {
				p.CurrentStock++
				p.RestDays = 0
				ids[i] = p.ID
				break
			}
		}
	}
	return ids
}

// Release takes one animal off pasture id. Unassigned and unknown ids are
// ignored.
func (f *Field) Release(id int) {
	if id == 0 {
		return
	}
	if err := f.RemoveCattle(id, 1); err != nil {
		slog.Debug("release on missing pasture", "pasture", id)
	}
}
