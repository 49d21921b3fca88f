// Package economy provides commodity prices, supply contracts, the farm
// wallet and the trades that move money and stock between them.
package economy

import "fmt"

// Commodity is a traded good.
type Commodity uint8

const (
	Milk Commodity = iota
	Feed
	Cattle
	Land
	Tractor
	Feeder
	Fencing
	numCommodities
)

// Commodities lists every commodity in order.
func Commodities() []Commodity {
	out := make([]Commodity, 0, numCommodities)
	for c := Milk; c < numCommodities; c++ {
		out = append(out, c)
	}
	return out
}

// Name returns the commodity id.
func (c Commodity) Name() string {
	switch c {
	case Milk:
		return "milk"
	case Feed:
		return "feed"
	case Cattle:
		return "cattle"
	case Land:
		return "land"
	case Tractor:
		return "tractor"
	case Feeder:
		return "feeder"
	case Fencing:
		return "fencing"
	default:
		return "unknown"
	}
}

// ParseCommodity maps an id back to a Commodity.
func ParseCommodity(name string) (Commodity, error) {
	for c := Milk; c < numCommodities; c++ {
		if c.Name() == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown commodity %q", name)
}

// MarshalText encodes the commodity by name so price maps read naturally.
func (c Commodity) MarshalText() ([]byte, error) { return []byte(c.Name()), nil }

// UnmarshalText decodes a commodity name.
func (c *Commodity) UnmarshalText(b []byte) error {
	v, err := ParseCommodity(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Entry is the price state of one commodity.
type Entry struct {
	Commodity  Commodity `json:"commodity"`
	Price      float64   `json:"price"`
	BasePrice  float64   `json:"base_price"`
	Floor      float64   `json:"floor"`
	Ceiling    float64   `json:"ceiling"`
	Volatility float64   `json:"volatility"`
}

// CeilingMultiple caps every price at a multiple of its base.
const CeilingMultiple = 3.0

func newEntry(c Commodity, base, floor, vol float64) *Entry {
	return &Entry{
		Commodity:  c,
		Price:      base,
		BasePrice:  base,
		Floor:      floor,
		Ceiling:    base * CeilingMultiple,
		Volatility: vol,
	}
}

// defaultEntries are the opening prices. Equipment floors sit at half of base.
func defaultEntries() [numCommodities]*Entry {
	return [numCommodities]*Entry{
		Milk:    newEntry(Milk, 0.65, 0.30, 0.15),
		Feed:    newEntry(Feed, 0.25, 0.10, 0.25),
		Cattle:  newEntry(Cattle, 1500, 800, 0.10),
		Land:    newEntry(Land, 25000, 10000, 0.02),
		Tractor: newEntry(Tractor, 85000, 42500, 0.03),
		Feeder:  newEntry(Feeder, 15000, 7500, 0.03),
		Fencing: newEntry(Fencing, 2500, 1250, 0.03),
	}
}

// resolve applies a relative step and bounds the result by floor and ceiling.
func (e *Entry) resolve(step float64) {
	price := e.Price * (1 + step)
	if price < e.Floor {
		price = e.Floor
	}
	if price > e.Ceiling {
		price = e.Ceiling
	}
	e.Price = price
}
