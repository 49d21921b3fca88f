package pasture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/dairy-sim/internal/calendar"
	"github.com/talgya/dairy-sim/internal/entropy"
	"github.com/talgya/dairy-sim/internal/weather"
)

func newPaddock(id int) *Pasture {
	return &Pasture{
		ID:            id,
		SizeHa:        10,
		Quality:       80,
		GrassLevel:    90,
		SoilFertility: 70,
		MaxStock:      25,
	}
}

func TestAddCattleRejectedOnBarePasture(t *testing.T) {
	p := newPaddock(1)
	p.GrassLevel = 15
	f := NewField([]*Pasture{p})

	err := f.AddCattle(1, 1)
	assert.ErrorIs(t, err, ErrPastureUnavailable)
	got, _ := f.Get(1)
	assert.Equal(t, 0, got.CurrentStock)
}

func TestAddCattleRespectsCapacity(t *testing.T) {
	f := NewField([]*Pasture{newPaddock(1)})
	require.NoError(t, f.AddCattle(1, 25))
	assert.ErrorIs(t, f.AddCattle(1, 1), ErrPastureUnavailable)
	assert.ErrorIs(t, f.AddCattle(9, 1), ErrUnknownPasture)
}

func TestRemoveCattleFloorsAtZero(t *testing.T) {
	p := newPaddock(1)
	f := NewField([]*Pasture{p})
	require.NoError(t, f.AddCattle(1, 3))
	p.RestDays = 4
	require.NoError(t, f.RemoveCattle(1, 10))
	assert.Equal(t, 0, p.CurrentStock)
	assert.Equal(t, 0, p.RestDays)
}

func TestUpdateRejectsMismatchedLoad(t *testing.T) {
	p := newPaddock(1)
	f := NewField([]*Pasture{p})
	require.NoError(t, f.AddCattle(1, 5))
	before := *p

	err := f.Update(calendar.Spring, weather.Neutral(), GrazingLoad{1: 4})
	assert.ErrorIs(t, err, ErrInvariant)
	assert.Equal(t, before, *p)

	err = f.Update(calendar.Spring, weather.Neutral(), GrazingLoad{1: 5, 7: 2})
	assert.ErrorIs(t, err, ErrInvariant)
}

func TestGrazingConsumesAndPugs(t *testing.T) {
	p := newPaddock(1)
	p.Quality, p.SoilFertility = 100, 100
	f := NewField([]*Pasture{p})
	require.NoError(t, f.AddCattle(1, 25))

	require.NoError(t, f.Update(calendar.Spring, weather.Neutral(), GrazingLoad{1: 25}))
	// 90 - 15 + 2.5 growth
	assert.InDelta(t, 77.5, p.GrassLevel, 1e-9)
	assert.InDelta(t, PuggingIncrement, p.Pugging, 1e-9)
	assert.InDelta(t, 100, p.SoilFertility, 1e-9)
}

func TestFertilizerBoostIsOneShot(t *testing.T) {
	p := newPaddock(1)
	p.GrassLevel = 50
	p.Quality, p.SoilFertility = 100, 50
	f := NewField([]*Pasture{p})

	cost, err := f.Fertilize(1, "standard")
	require.NoError(t, err)
	assert.Equal(t, 150.0, cost)
	assert.InDelta(t, 65, p.SoilFertility, 1e-9)
	assert.True(t, p.Fertilized)

	require.NoError(t, f.Update(calendar.Spring, weather.Neutral(), GrazingLoad{}))
	assert.False(t, p.Fertilized)
	assert.InDelta(t, 50+2.5*0.65*1.4, p.GrassLevel, 1e-9)
}

func TestIrrigationOnlyWhenDry(t *testing.T) {
	wet := newPaddock(1)
	dry := newPaddock(2)
	for _, p := range []*Pasture{wet, dry} {
		p.Irrigated = true
		p.GrassLevel = 40
		p.Quality, p.SoilFertility = 100, 100
	}
	fWet := NewField([]*Pasture{wet})
	fDry := NewField([]*Pasture{dry})

	fx := weather.Neutral()
	require.NoError(t, fWet.Update(calendar.Spring, fx, nil))
	fx.Dry = true
	require.NoError(t, fDry.Update(calendar.Spring, fx, nil))

	assert.InDelta(t, 42.5, wet.GrassLevel, 1e-9)
	assert.InDelta(t, 43.0, dry.GrassLevel, 1e-9)
}

func TestRestBonusAtCap(t *testing.T) {
	p := newPaddock(1)
	p.GrassLevel = 10
	p.Quality, p.SoilFertility = 100, 100
	p.RestDays = RestCap - 1
	f := NewField([]*Pasture{p})

	require.NoError(t, f.Update(calendar.Winter, weather.Neutral(), nil))
	assert.Equal(t, RestCap, p.RestDays)
	assert.InDelta(t, 10+0.8*RestBonus, p.GrassLevel, 1e-9)
}

func TestMinimumGrowth(t *testing.T) {
	p := newPaddock(1)
	p.GrassLevel = 50
	p.SoilFertility = 1
	f := NewField([]*Pasture{p})
	require.NoError(t, f.Update(calendar.Winter, weather.Neutral(), nil))
	assert.InDelta(t, 50+MinGrowth, p.GrassLevel, 1e-9)
}

func TestWeedsDepressQuality(t *testing.T) {
	p := newPaddock(1)
	p.GrassLevel = 0
	p.SoilFertility = 1
	p.Weeds = 55
	f := NewField([]*Pasture{p})
	require.NoError(t, f.Update(calendar.Winter, weather.Neutral(), nil))
	assert.InDelta(t, 57, p.Weeds, 1e-9)
	assert.InDelta(t, 79, p.Quality, 1e-9)
	assert.Contains(t, p.Issues(), "weed-control")
}

func TestFieldInvariantsHoldOverTime(t *testing.T) {
	src := entropy.New(11)
	f := NewField(Layout(11, 120, false, src))
	ids := f.Assign(200)
	load := GrazingLoad{}
	for _, id := range ids {
		if id != 0 {
			load[id]++
		}
	}

	seasons := []calendar.Season{calendar.Spring, calendar.Summer, calendar.Autumn, calendar.Winter}
	for day := 0; day < 365; day++ {
		fx := weather.Neutral()
		fx.GrassGrowth = entropy.Between(src, 0.1, 1.6)
		require.NoError(t, f.Update(seasons[(day/91)%4], fx, load))
		for _, p := range f.Pastures() {
			assert.GreaterOrEqual(t, p.CurrentStock, 0)
			assert.LessOrEqual(t, p.CurrentStock, p.MaxStock)
			assert.GreaterOrEqual(t, p.GrassLevel, 0.0)
			assert.LessOrEqual(t, p.GrassLevel, 100.0)
			assert.GreaterOrEqual(t, p.SoilFertility, 0.0)
			assert.LessOrEqual(t, p.SoilFertility, 100.0)
		}
	}
}

func TestAssignRoundRobinAndRelease(t *testing.T) {
	a, b := newPaddock(1), newPaddock(2)
	a.MaxStock, b.MaxStock = 2, 1
	f := NewField([]*Pasture{a, b})

	ids := f.Assign(4)
	assert.Equal(t, []int{1, 2, 1, 0}, ids)
	assert.Equal(t, 2, a.CurrentStock)
	assert.Equal(t, 1, b.CurrentStock)

	f.Release(2)
	f.Release(0)
	assert.Equal(t, 0, b.CurrentStock)
}

func TestPaidActions(t *testing.T) {
	p := newPaddock(1)
	p.Pugging = 60
	p.Weeds = 40
	f := NewField([]*Pasture{p})

	_, err := f.Fertilize(1, "guano")
	assert.ErrorIs(t, err, ErrUnknownTreatment)

	cost, err := f.Reseed(1, "clover")
	require.NoError(t, err)
	assert.Equal(t, 350.0, cost)
	assert.Equal(t, 95.0, p.GrassLevel)
	assert.Equal(t, 95.0, p.Quality)
	assert.Equal(t, 10.0, p.Weeds)

	cost, err = f.Drain(1)
	require.NoError(t, err)
	assert.Equal(t, DrainCost, cost)
	assert.Equal(t, 10.0, p.Pugging)
	_, err = f.Drain(1)
	assert.ErrorIs(t, err, ErrNothingToDrain)

	cost, err = f.UpgradeFencing(1, FencePermanent)
	require.NoError(t, err)
	assert.Equal(t, 12000.0, cost)
	assert.Equal(t, 30, p.MaxStock)
	_, err = f.UpgradeFencing(1, FenceElectric)
	assert.ErrorIs(t, err, ErrInvalidFencing)
}

func TestLayout(t *testing.T) {
	ps := Layout(3, 150, true, entropy.New(3))
	require.Len(t, ps, 15)
	for i, p := range ps {
		assert.Equal(t, i+1, p.ID)
		assert.GreaterOrEqual(t, p.SizeHa, MinPaddockHa)
		assert.LessOrEqual(t, p.SizeHa, MaxPaddockHa)
		assert.GreaterOrEqual(t, p.Quality, 70.0)
		assert.LessOrEqual(t, p.Quality, 90.0)
		assert.GreaterOrEqual(t, p.SoilFertility, 60.0)
		assert.LessOrEqual(t, p.SoilFertility, 90.0)
		assert.True(t, p.Irrigated)
		assert.Positive(t, p.MaxStock)
	}
	assert.Len(t, Layout(3, 4, false, entropy.New(3)), 1)
}
