package weather

import (
	"math"

	"github.com/talgya/dairy-sim/internal/calendar"
	"github.com/talgya/dairy-sim/internal/entropy"
)

// ForecastDays is the length of the projection.
const ForecastDays = 7

// ForecastEntry is one projected day. It is advisory only.
type ForecastEntry struct {
	Day         int     `json:"day"`
	Temperature float64 `json:"temperature"`
	Rainfall    float64 `json:"rainfall"`
	WindSpeed   float64 `json:"wind_speed"`
	Condition   string  `json:"condition"`
	Confidence  float64 `json:"confidence"`
}

// Forecast projects the next ForecastDays from the current state. It draws
// from a local stream derived from the state and t, so repeated calls agree
// and the shared source is untouched.
func (g *Generator) Forecast(t calendar.Time) []ForecastEntry {
	c := g.current
	rng := entropy.Derive(
		uint64(t.Hours()),
		math.Float64bits(c.Temperature),
		math.Float64bits(c.Rainfall),
		math.Float64bits(c.WindSpeed),
	)

	out := make([]ForecastEntry, 0, ForecastDays)
	for i := 1; i <= ForecastDays; i++ {
		next := ForecastEntry{
			Day:         i,
			Temperature: c.Temperature + entropy.Centered(rng, 6),
			Rainfall:    max(0, c.Rainfall*entropy.Between(rng, 0.7, 1.3)),
			WindSpeed:   max(0, c.WindSpeed+entropy.Centered(rng, 10)),
			Condition:   predictCondition(c.Rainfall, rng),
			Confidence:  math.Max(0.4, 1-float64(i)*0.1),
		}
		out = append(out, next)
		c.Temperature = next.Temperature
		c.Rainfall = next.Rainfall
		c.WindSpeed = next.WindSpeed
	}
	return out
}

func predictCondition(rain float64, rng entropy.Source) string {
	switch {
	case rain > 60:
		return "rain"
	case rain > 20:
		return "light-rain"
	case rng.Float64() < 0.3:
		return "cloudy"
	default:
		return "sunny"
	}
}
