// Package pasture models paddocks: grass growth, grazing pressure, soil and
// weed dynamics, and the paid maintenance actions a farmer can take.
package pasture

import (
	"github.com/talgya/dairy-sim/internal/calendar"
	"github.com/talgya/dairy-sim/internal/entropy"
	"github.com/talgya/dairy-sim/internal/weather"
)

// Tuning constants for daily paddock dynamics.
const (
	ConsumptionRate   = 15.0 // grass points per day at full utilisation
	PuggingIncrement  = 2.0
	PuggingThreshold  = 0.8 // utilisation above which hooves damage soil
	RestCap           = 21  // days
	RestBonus         = 1.5
	GrazableThreshold = 20.0 // grass level required to accept stock
	MinGrowth         = 0.1
	StockPerHa        = 2.5
	PermanentStockHa  = 3.0
)

// Pasture is one paddock. Grass, fertility and quality are 0..100; weeds
// and pugging may exceed 100 and are clamped only for display.
type Pasture struct {
	ID            int     `json:"id"`
	SizeHa        float64 `json:"size_ha"`
	Quality       float64 `json:"quality"`
	GrassLevel    float64 `json:"grass_level"`
	SoilFertility float64 `json:"soil_fertility"`
	Weeds         float64 `json:"weeds"`
	Pugging       float64 `json:"pugging"`
	CurrentStock  int     `json:"current_stock"`
	MaxStock      int     `json:"max_stock"`
	Fencing       Fencing `json:"fencing"`
	Water         bool    `json:"water"`
	Shade         bool    `json:"shade"`
	Irrigated     bool    `json:"irrigated"`
	Fertilized    bool    `json:"fertilized"`
	RestDays      int     `json:"rest_days"`
}

// Utilization is current stock over capacity.
func (p *Pasture) Utilization() float64 {
	if p.MaxStock <= 0 {
		return 0
	}
	return float64(p.CurrentStock) / float64(p.MaxStock)
}

// StockingRate is animals per hectare.
func (p *Pasture) StockingRate() float64 {
	if p.SizeHa <= 0 {
		return 0
	}
	return float64(p.CurrentStock) / p.SizeHa
}

// CanAdd reports whether n more animals fit and the grass can carry them.
func (p *Pasture) CanAdd(n int) bool {
	return n >= 0 && p.CurrentStock+n <= p.MaxStock && p.GrassLevel > GrazableThreshold
}

func baseGrowth(s calendar.Season) float64 {
	switch s {
	case calendar.Spring:
		return 2.5
	case calendar.Summer:
		return 2.0
	case calendar.Autumn:
		return 1.5
	default:
		return 0.8
	}
}

// growthRate consumes the one-shot fertiliser flag.
func (p *Pasture) growthRate(s calendar.Season, fx weather.Effects, bonus float64) float64 {
	rate := baseGrowth(s) * fx.GrassGrowth
	rate *= p.SoilFertility / 100
	rate *= p.Quality / 100
	if p.Fertilized {
		rate *= 1.4
		p.Fertilized = false
	}
	if p.Irrigated && fx.Dry {
		rate *= 1.2
	}
	if p.Pugging > 50 {
		rate *= 0.7
	}
	if bonus > 0 {
		rate *= bonus
	}
	return max(MinGrowth, rate)
}

// advanceDay applies one day of grazing, rest, growth, soil and weed change.
func (p *Pasture) advanceDay(s calendar.Season, fx weather.Effects, bonus float64) {
	util := p.Utilization()
	if p.CurrentStock > 0 {
		p.GrassLevel = entropy.Floor(p.GrassLevel-util*ConsumptionRate, 0)
		if util > PuggingThreshold {
			p.Pugging += PuggingIncrement
		}
	}

	growth := p.growthRate(s, fx, bonus)
	if p.CurrentStock == 0 {
		if p.RestDays < RestCap {
			p.RestDays++
		}
		if p.RestDays >= RestCap {
			growth *= RestBonus
		}
	}
	p.GrassLevel = entropy.Clamp(p.GrassLevel+growth, 0, 100)

	if p.CurrentStock > 0 {
		p.SoilFertility = min(100, p.SoilFertility+util*0.5)
	} else if p.Pugging > 0 {
		p.Pugging = entropy.Floor(p.Pugging-1, 0)
	}
	if p.Pugging > 70 {
		p.SoilFertility = entropy.Floor(p.SoilFertility-0.1, 20)
	}

	switch {
	case p.GrassLevel < 30:
		p.Weeds = min(80, p.Weeds+2)
	case p.GrassLevel > 70:
		p.Weeds = entropy.Floor(p.Weeds-1, 0)
	}
	if p.Weeds > 50 {
		p.Quality = entropy.Floor(p.Quality-1, 20)
	}
}

// GrassQuality grades the sward for display.
func (p *Pasture) GrassQuality() string {
	q := "poor"
	switch {
	case p.GrassLevel > 80:
		q = "excellent"
	case p.GrassLevel > 60:
		q = "good"
	case p.GrassLevel > 40:
		q = "fair"
	}
	if p.Weeds > 40 {
		if q == "excellent" {
			return "good"
		}
		return "poor"
	}
	return q
}

// Condition is an overall paddock grade.
func (p *Pasture) Condition() string {
	score := p.GrassLevel*0.3 +
		p.Quality*0.25 +
		p.SoilFertility*0.25 +
		max(0, 100-p.Weeds)*0.1 +
		max(0, 100-p.Pugging)*0.1
	switch {
	case score > 80:
		return "excellent"
	case score > 60:
		return "good"
	case score > 40:
		return "fair"
	default:
		return "poor"
	}
}

// MaintenanceCost is the monthly upkeep of the paddock.
func (p *Pasture) MaintenanceCost() float64 {
	cost := p.SizeHa * 5
	cost += p.Fencing.Upkeep()
	if p.Irrigated {
		cost += p.SizeHa * 2
	}
	if p.Weeds > 50 {
		cost += p.SizeHa * 3
	}
	if p.Pugging > 50 {
		cost += p.SizeHa * 4
	}
	return cost
}

// Issues lists the maintenance the paddock needs.
func (p *Pasture) Issues() []string {
	var issues []string
	if p.Weeds > 50 {
		issues = append(issues, "weed-control")
	}
	if p.Pugging > 50 {
		issues = append(issues, "drainage")
	}
	if p.SoilFertility < 40 {
		issues = append(issues, "fertilizer")
	}
	if p.GrassLevel < 20 {
		issues = append(issues, "reseeding")
	}
	if p.Quality < 50 {
		issues = append(issues, "renovation")
	}
	return issues
}
