package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/dairy-sim/internal/calendar"
	"github.com/talgya/dairy-sim/internal/economy"
	"github.com/talgya/dairy-sim/internal/weather"
)

func testFarm() Farm {
	return Farm{Name: "test", Region: "waikato", SizeHa: 100, Shed: ShedHerringbone, StorageCapacity: 10000, Road: RoadMetal}
}

func TestDailyCost(t *testing.T) {
	l := New(testFarm())
	assert.InDelta(t, 100*2+100+10000*0.01+30, l.DailyCost(30), 1e-9)

	st := l.Save()
	st.Farm.ShedCondition = 40
	assert.InDelta(t, (200+100+100)*1.5, Restore(st).DailyCost(0), 1e-9)
}

func TestAccrueOnlyAtMaintenanceHour(t *testing.T) {
	l := New(testFarm())
	w := &economy.Wallet{Cash: 1000}

	assert.Zero(t, l.Accrue(calendar.Time{Hour: 5, Day: 1}, w, weather.Neutral(), 0))
	assert.Equal(t, 1000.0, w.Cash)

	bill := l.Accrue(calendar.Time{Hour: MaintenanceHour, Day: 1}, w, weather.Neutral(), 0)
	assert.InDelta(t, 400, bill, 1e-9)
	assert.InDelta(t, 600, w.Cash, 1e-9)
	assert.Equal(t, 100.0, l.Farm().ShedCondition)
}

func TestAccrueMayOverdraw(t *testing.T) {
	l := New(testFarm())
	w := &economy.Wallet{Cash: 100}
	fx := weather.Neutral()
	fx.BuildingWear = 2

	l.Accrue(calendar.Time{Hour: MaintenanceHour, Day: 1}, w, fx, 0)
	assert.True(t, w.CashWarning())
	assert.InDelta(t, -300, w.Cash, 1e-9)
	assert.InDelta(t, 100-0.05*2*1.0, l.Farm().ShedCondition, 1e-9)
}

func TestUpgrade(t *testing.T) {
	l := New(testFarm())
	w := &economy.Wallet{Cash: 100000}

	_, err := l.Upgrade(KindShed, "basic", w)
	assert.ErrorIs(t, err, ErrInvalidTier)

	_, err = l.Upgrade(KindShed, "robotic", w)
	assert.ErrorIs(t, err, economy.ErrInsufficientFunds)
	assert.Equal(t, 100000.0, w.Cash)

	cost, err := l.Upgrade(KindRoad, "sealed", w)
	require.NoError(t, err)
	assert.Equal(t, 30000.0, cost)
	assert.Equal(t, RoadSealed, l.Farm().Road)

	_, err = l.Upgrade(Kind("silo"), "big", w)
	assert.ErrorIs(t, err, ErrUnknownKind)
	_, err = l.Upgrade(KindRoad, "gravel", w)
	assert.ErrorIs(t, err, ErrUnknownTier)

	w.Cash = 200000
	_, err = l.Upgrade(KindShed, "rotary", w)
	require.NoError(t, err)
	assert.Equal(t, 500, l.MilkingCapacity())
}

func TestExpandStorage(t *testing.T) {
	l := New(testFarm())
	w := &economy.Wallet{Cash: 1000}

	cost, err := l.ExpandStorage(100, w)
	require.NoError(t, err)
	assert.Equal(t, 500.0, cost)
	assert.Equal(t, 10100.0, l.Farm().StorageCapacity)

	_, err = l.ExpandStorage(1000, w)
	assert.ErrorIs(t, err, economy.ErrInsufficientFunds)
	_, err = l.ExpandStorage(0, w)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestShedCapacityTable(t *testing.T) {
	assert.Equal(t, 0, ShedNone.Capacity())
	assert.Equal(t, 100, ShedBasic.Capacity())
	assert.Equal(t, 200, ShedHerringbone.Capacity())
	assert.Equal(t, 1000, ShedRobotic.Capacity())
	_, err := ParseShedTier("parlour")
	assert.ErrorIs(t, err, ErrUnknownTier)
}

func TestRegulationRaisesDailyCost(t *testing.T) {
	l := New(testFarm())
	base := l.DailyCost(0)
	assert.InDelta(t, 1.2, l.ApplyRegulation(), 1e-9)
	assert.InDelta(t, base*1.2, l.DailyCost(0), 1e-9)
	l.ApplyRegulation()
	assert.InDelta(t, base*1.44, l.DailyCost(0), 1e-9)
}
