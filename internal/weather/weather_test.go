package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/dairy-sim/internal/calendar"
	"github.com/talgya/dairy-sim/internal/entropy"
)

// fixedSource always returns the same draw, which keeps every probability
// roll above the small extreme-event thresholds.
type fixedSource struct{ v float64 }

func (f fixedSource) Float64() float64 { return f.v }
func (f fixedSource) IntN(int) int     { return 0 }

func TestDroughtShiftsWeatherAndExpires(t *testing.T) {
	start := calendar.Time{Hour: 0, Day: 200, Year: 2024}
	g := New("canterbury", start, fixedSource{0.99})
	before := g.Current()

	require.NoError(t, g.Trigger(Drought, start))

	after := g.Current()
	assert.InDelta(t, before.Rainfall*0.1, after.Rainfall, 1e-9)
	assert.InDelta(t, before.Temperature+5, after.Temperature, 1e-9)
	require.Len(t, g.Events(), 1)
	assert.Equal(t, 14, g.Events()[0].RemainingDays)
	assert.True(t, g.Effects().Active.Has(Drought))

	day := start
	for i := 1; i < 14; i++ {
		day.Day++
		g.Update(day)
	}
	assert.True(t, g.Active().Has(Drought), "still active on its last day")

	day.Day++
	g.Update(day)
	assert.False(t, g.Active().Has(Drought))
	assert.Empty(t, g.Events())
}

func TestTriggerRejectsActiveKind(t *testing.T) {
	now := calendar.Time{Hour: 0, Day: 200, Year: 2024}
	g := New("waikato", now, fixedSource{0.99})
	require.NoError(t, g.Trigger(Frost, now))
	assert.ErrorIs(t, g.Trigger(Frost, now), ErrEventActive)
	assert.Len(t, g.Events(), 1)
}

func TestFrostClampsTemperatureBelowZero(t *testing.T) {
	now := calendar.Time{Hour: 0, Day: 10, Year: 2024}
	g := New("southland", now, fixedSource{0.99})
	require.NoError(t, g.Trigger(Frost, now))
	assert.LessOrEqual(t, g.Current().Temperature, 0.0)
}

func TestWalkStaysWithinSeasonalBounds(t *testing.T) {
	src := entropy.New(42)
	now := calendar.Time{Hour: 0, Day: 100, Year: 2024}
	g := New("taranaki", now, src)
	r := g.Region()

	for h := 0; h < 24*60; h++ {
		now.Hour = h % 24
		g.Update(now)
		if g.Active() != 0 {
			continue // event shifts are allowed to leave the band
		}
		c := g.Current()
		base := r.BaseTemp.At(now.Season())
		if now.Hour%WalkInterval == 0 {
			assert.GreaterOrEqual(t, c.Temperature, base-8)
			assert.LessOrEqual(t, c.Temperature, base+8)
			assert.GreaterOrEqual(t, c.Rainfall, 0.0)
			assert.LessOrEqual(t, c.Rainfall, 2*r.Rainfall.At(now.Season()))
			assert.GreaterOrEqual(t, c.Pressure, 960.0)
			assert.LessOrEqual(t, c.Pressure, 1050.0)
		}
	}
}

func TestDeriveConditionPrecedence(t *testing.T) {
	assert.Equal(t, "storm", deriveCondition(Conditions{Rainfall: 50, WindSpeed: 45}))
	assert.Equal(t, "heavy-rain", deriveCondition(Conditions{Rainfall: 90, WindSpeed: 10}))
	assert.Equal(t, "light-rain", deriveCondition(Conditions{Rainfall: 15, Humidity: 95}))
	assert.Equal(t, "fog", deriveCondition(Conditions{Rainfall: 5, Humidity: 90}))
	assert.Equal(t, "sunny", deriveCondition(Conditions{Rainfall: 0, Humidity: 40}))
}

func TestEffectsBands(t *testing.T) {
	e := computeEffects(Conditions{Temperature: 17, Rainfall: 30, WindSpeed: 10}, nil)
	assert.InDelta(t, 1.2*1.3, e.GrassGrowth, 1e-9)
	assert.InDelta(t, 1.1, e.CattleComfort, 1e-9)
	assert.False(t, e.Dry)
	assert.False(t, e.ThermalStress)

	hot := computeEffects(Conditions{Temperature: 32, Rainfall: 2, WindSpeed: 35}, nil)
	assert.InDelta(t, 0.9, hot.MilkProduction, 1e-9)
	assert.InDelta(t, 0.5, hot.GrassGrowth, 1e-9)
	assert.InDelta(t, 1.5, hot.BuildingWear, 1e-9)
	assert.True(t, hot.Dry)
	assert.True(t, hot.ThermalStress)
}

func TestEffectsScaleWithSeverity(t *testing.T) {
	c := Conditions{Temperature: 10, Rainfall: 10, WindSpeed: 10}
	full := computeEffects(c, []ExtremeEvent{{Kind: Drought, Severity: 1}})
	half := computeEffects(c, []ExtremeEvent{{Kind: Drought, Severity: 0.5}})
	assert.InDelta(t, 0.2, full.GrassGrowth, 1e-9)
	assert.InDelta(t, 0.6, half.GrassGrowth, 1e-9)
}

func TestForecastDoesNotConsumeSharedSource(t *testing.T) {
	now := calendar.Time{Hour: 0, Day: 150, Year: 2024}
	a := New("waikato", now, entropy.New(7))
	b := New("waikato", now, entropy.New(7))

	fa := a.Forecast(now)
	require.Len(t, fa, ForecastDays)
	assert.Equal(t, fa, a.Forecast(now))
	assert.InDelta(t, 0.9, fa[0].Confidence, 1e-9)
	assert.InDelta(t, 0.4, fa[6].Confidence, 1e-9)

	now.Hour = 3
	a.Update(now)
	b.Update(now)
	assert.Equal(t, a.Current(), b.Current())
}

func TestUnknownRegionFallsBack(t *testing.T) {
	assert.Equal(t, "canterbury", LookupRegion("atlantis").ID)
	_, err := ParseEventKind("tornado")
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestSaveRestore(t *testing.T) {
	now := calendar.Time{Hour: 0, Day: 150, Year: 2024}
	g := New("southland", now, fixedSource{0.99})
	require.NoError(t, g.Trigger(Flood, now))

	r := Restore(g.Save(), fixedSource{0.99})
	assert.Equal(t, g.Current(), r.Current())
	assert.Equal(t, g.Events(), r.Events())
	assert.Equal(t, g.Region().ID, r.Region().ID)
}
