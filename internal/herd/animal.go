package herd

import (
	"fmt"
	"math"
)

// Lactation and breeding constants.
const (
	LactationDays   = 305
	GestationDays   = 280
	BreedingAge     = 1.5
	BreedingHealth  = 60.0
	MilkingHealth   = 50.0
	AgingThreshold  = 8.0
	BreedingCycle   = 21 // days between breeding checks
	IllnessChance   = 0.001
	IllnessPenalty  = 25.0
	CalfChance      = 0.5
	SaleFraction    = 0.7
	FeedPerAnimalKg = 15.0
	MilkingsPerDay  = 2 // each milking yields an equal share of the daily figure
)

// FeedStatus is a closed nutrition grade.
type FeedStatus uint8

const (
	FeedPoor FeedStatus = iota
	FeedGood
	FeedExcellent
)

// Name returns the status id.
func (s FeedStatus) Name() string {
	switch s {
	case FeedPoor:
		return "poor"
	case FeedGood:
		return "good"
	case FeedExcellent:
		return "excellent"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name.
func (s FeedStatus) MarshalText() ([]byte, error) { return []byte(s.Name()), nil }

// UnmarshalText decodes a status name.
func (s *FeedStatus) UnmarshalText(b []byte) error {
	for v := FeedPoor; v <= FeedExcellent; v++ {
		if v.Name() == string(b) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown feed status %q", b)
}

// Multiplier scales milk yield by nutrition.
func (s FeedStatus) Multiplier() float64 {
	switch s {
	case FeedPoor:
		return 0.7
	case FeedExcellent:
		return 1.1
	default:
		return 1.0
	}
}

// Genetics are per-animal modifiers in [0.8, 1.2].
type Genetics struct {
	Production float64 `json:"production"`
	Fertility  float64 `json:"fertility"`
	Health     float64 `json:"health"`
	Longevity  float64 `json:"longevity"`
}

// Animal is a value record owned by the Herd. PastureID is a lookup key into
// the pasture field; 0 means unassigned.
type Animal struct {
	ID            int        `json:"id"`
	BreedID       string     `json:"breed_id"`
	Age           float64    `json:"age"` // years
	Health        float64    `json:"health"`
	Weight        float64    `json:"weight"`
	Pregnant      bool       `json:"pregnant"`
	Lactating     bool       `json:"lactating"`
	DaysInMilk    int        `json:"days_in_milk"`
	GestationDays int        `json:"gestation_days"`
	MilkYield     float64    `json:"milk_yield"` // baseline litres/day
	Genetics      Genetics   `json:"genetics"`
	PastureID     int        `json:"pasture_id"`
	FeedStatus    FeedStatus `json:"feed_status"`
	Fed           bool       `json:"fed"`          // fed since the last daily update
	MilkedToday   int        `json:"milked_today"` // milkings since the last daily update
}

// LactationCurve is the yield multiplier for days in milk d.
func LactationCurve(d int) float64 {
	x := float64(d)
	switch {
	case d < 0:
		return 0.6
	case d < 50:
		return 0.6 + x/50*0.4
	case d < 100:
		return 1.0
	case d < 200:
		return 1.0 - (x-100)/100*0.3
	case d < LactationDays:
		return 0.7 - (x-200)/105*0.5
	default:
		return 0.2
	}
}

// CanMilk reports whether the animal joins a milking.
func (a *Animal) CanMilk() bool {
	return a.Lactating && a.Health > MilkingHealth && a.DaysInMilk < LactationDays &&
		a.MilkedToday < MilkingsPerDay
}

// CanBreed reports whether the animal is eligible at a breeding check.
func (a *Animal) CanBreed() bool {
	return !a.Pregnant && !a.Lactating && a.Age >= BreedingAge && a.Health > BreedingHealth
}

// Value is the current market value before the sale discount.
func (a *Animal) Value(b Breed) float64 {
	v := b.Cost
	if a.Age >= 6 {
		v *= 0.8
	}
	v *= a.Health / 100
	v *= a.Genetics.Production
	if a.Pregnant {
		v *= 1.2
	}
	if a.Lactating && a.DaysInMilk < 100 {
		v *= 1.1
	}
	return v
}

// ConditionScore is the 1..9 body condition score.
func (a *Animal) ConditionScore() float64 {
	score := 5.0
	if a.Health > 80 {
		score++
	}
	if a.Health < 60 {
		score--
	}
	switch a.FeedStatus {
	case FeedExcellent:
		score += 0.5
	case FeedPoor:
		score--
	}
	if a.Lactating && a.DaysInMilk < 100 {
		score -= 0.5
	}
	return math.Max(1, math.Min(9, score))
}

// Status lists display tags for the animal.
func (a *Animal) Status() []string {
	var tags []string
	if a.Pregnant {
		tags = append(tags, "pregnant")
	}
	if a.Lactating {
		tags = append(tags, "lactating")
	}
	if a.Health < 70 {
		tags = append(tags, "poor-health")
	}
	if a.FeedStatus == FeedPoor {
		tags = append(tags, "underfed")
	}
	if a.Age > 7 {
		tags = append(tags, "aging")
	}
	if len(tags) == 0 {
		return []string{"healthy"}
	}
	return tags
}

func (a *Animal) addHealth(d float64) {
	a.Health = math.Max(0, math.Min(100, a.Health+d))
}

func (a *Animal) dryOff() {
	a.Lactating = false
	a.DaysInMilk = 0
}
