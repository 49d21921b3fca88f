package pasture

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrUnknownTreatment = errors.New("unknown treatment")
	ErrInvalidFencing   = errors.New("fencing is not an upgrade")
	ErrNothingToDrain   = errors.New("pasture does not need draining")
)

// Fencing is a paddock's fence tier.
type Fencing uint8

const (
	FenceBasic Fencing = iota
	FenceElectric
	FencePostAndWire
	FencePermanent
)

// Name returns the fence tier id.
func (f Fencing) Name() string {
	switch f {
	case FenceBasic:
		return "basic"
	case FenceElectric:
		return "electric"
	case FencePostAndWire:
		return "post-and-wire"
	case FencePermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// ParseFencing maps a tier id to a Fencing.
func ParseFencing(name string) (Fencing, error) {
	for f := FenceBasic; f <= FencePermanent; f++ {
		if f.Name() == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: fencing %q", ErrUnknownTreatment, name)
}

// MarshalText encodes the tier by name.
func (f Fencing) MarshalText() ([]byte, error) { return []byte(f.Name()), nil }

// UnmarshalText decodes a tier name.
func (f *Fencing) UnmarshalText(b []byte) error {
	v, err := ParseFencing(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Cost is the installation price of the tier.
func (f Fencing) Cost() float64 {
	switch f {
	case FenceElectric:
		return 5000
	case FencePostAndWire:
		return 7500
	case FencePermanent:
		return 12000
	default:
		return 0
	}
}

// Upkeep is the monthly fence maintenance.
func (f Fencing) Upkeep() float64 {
	switch f {
	case FenceElectric:
		return 50
	case FencePostAndWire:
		return 75
	case FencePermanent:
		return 100
	default:
		return 0
	}
}

func (f Fencing) stockPerHa() float64 {
	if f == FencePermanent {
		return PermanentStockHa
	}
	return StockPerHa
}

type fertilizer struct {
	cost      float64
	fertility float64
}

var fertilizers = map[string]fertilizer{
	"standard": {cost: 150, fertility: 15},
	"organic":  {cost: 200, fertility: 10},
	"premium":  {cost: 300, fertility: 25},
}

var seedCosts = map[string]float64{
	"ryegrass": 400,
	"clover":   350,
	"mixed":    450,
}

// DrainCost is charged when a compacted paddock is drained.
const DrainCost = 2000.0

// FertilizeCost quotes a fertiliser application.
func (f *Field) FertilizeCost(id int, kind string) (float64, error) {
	if _, err := f.get(id); err != nil {
		return 0, err
	}
	fz, ok := fertilizers[kind]
	if !ok {
		return 0, fmt.Errorf("%w: fertilizer %q", ErrUnknownTreatment, kind)
	}
	return fz.cost, nil
}

// Fertilize raises soil fertility and arms the next day's growth boost.
func (f *Field) Fertilize(id int, kind string) (float64, error) {
	cost, err := f.FertilizeCost(id, kind)
	if err != nil {
		return 0, err
	}
	p := f.byID[id]
	p.SoilFertility = min(100, p.SoilFertility+fertilizers[kind].fertility)
	p.Fertilized = true
	return cost, nil
}

// ReseedCost quotes resowing a paddock.
func (f *Field) ReseedCost(id int, kind string) (float64, error) {
	if _, err := f.get(id); err != nil {
		return 0, err
	}
	cost, ok := seedCosts[kind]
	if !ok {
		return 0, fmt.Errorf("%w: seed %q", ErrUnknownTreatment, kind)
	}
	return cost, nil
}

// Reseed restores grass and quality and knocks back weeds.
func (f *Field) Reseed(id int, kind string) (float64, error) {
	cost, err := f.ReseedCost(id, kind)
	if err != nil {
		return 0, err
	}
	p := f.byID[id]
	p.GrassLevel = 95
	p.Quality = min(100, p.Quality+15)
	p.Weeds = max(0, p.Weeds-30)
	return cost, nil
}

// FencingCost quotes a fence upgrade. Only strictly higher tiers are allowed.
func (f *Field) FencingCost(id int, tier Fencing) (float64, error) {
	p, err := f.get(id)
	if err != nil {
		return 0, err
	}
	if tier <= p.Fencing || tier > FencePermanent {
		return 0, fmt.Errorf("%w: %s to %s", ErrInvalidFencing, p.Fencing.Name(), tier.Name())
	}
	return tier.Cost(), nil
}

// UpgradeFencing installs the new tier and recomputes capacity.
func (f *Field) UpgradeFencing(id int, tier Fencing) (float64, error) {
	cost, err := f.FencingCost(id, tier)
	if err != nil {
		return 0, err
	}
	p := f.byID[id]
	p.Fencing = tier
	p.MaxStock = max(p.CurrentStock, int(math.Floor(p.SizeHa*tier.stockPerHa())))
	return cost, nil
}

// DrainQuote quotes draining; only paddocks with pugging above 20 qualify.
func (f *Field) DrainQuote(id int) (float64, error) {
	p, err := f.get(id)
	if err != nil {
		return 0, err
	}
	if p.Pugging <= 20 {
		return 0, fmt.Errorf("%w: pasture %d pugging %.0f", ErrNothingToDrain, id, p.Pugging)
	}
	return DrainCost, nil
}

// Drain relieves compaction and lifts fertility.
func (f *Field) Drain(id int) (float64, error) {
	cost, err := f.DrainQuote(id)
	if err != nil {
		return 0, err
	}
	p := f.byID[id]
	p.Pugging = max(0, p.Pugging-50)
	p.SoilFertility = min(100, p.SoilFertility+10)
	return cost, nil
}
