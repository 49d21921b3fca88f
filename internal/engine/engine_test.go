package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/dairy-sim/internal/economy"
	"github.com/talgya/dairy-sim/internal/herd"
	"github.com/talgya/dairy-sim/internal/scenario"
	"github.com/talgya/dairy-sim/internal/tech"
	"github.com/talgya/dairy-sim/internal/weather"
)

func newRunning(t *testing.T, id string, opts Options) *Simulation {
	t.Helper()
	p, err := scenario.Get(id)
	require.NoError(t, err)
	s := NewSimulation(opts)
	require.NoError(t, s.Initialize(p, 42))
	return s
}

func TestFeedShortfallMarksHerdPoor(t *testing.T) {
	p := scenario.Params{
		ID: "test", RegionID: "canterbury", FarmName: "Test Farm", FarmSizeHa: 150,
		StartingCash: 75000, StartingFeedKg: 2000, StartingCattleCount: 150,
		StartingInfrastructure: scenario.Infrastructure{Shed: "herringbone", StorageL: 15000, Road: "sealed"},
	}
	s := NewSimulation(Options{})
	require.NoError(t, s.Initialize(p, 7))

	res, err := s.FeedHerd()
	require.NoError(t, err)
	assert.InDelta(t, 150*herd.FeedPerAnimalKg, res.Required, 1e-9)
	assert.InDelta(t, 250, res.Shortfall, 1e-9)

	st := s.State()
	assert.Zero(t, st.Resources.Feed)
	assert.True(t, st.Status.FeedShortfall)
	require.Len(t, st.Animals, 150)
	for _, a := range st.Animals {
		assert.Equal(t, herd.FeedPoor, a.FeedStatus)
	}
	assert.Equal(t, 75000.0, st.Resources.Cash)
}

func TestStateIsIdempotentAndIndependent(t *testing.T) {
	s := newRunning(t, "waikato", Options{AutoChores: true})
	s.AdvanceHours(30)

	a := s.State()
	b := s.State()
	assert.Equal(t, a, b)

	a.Animals[0].Health = -1
	a.Pastures[0].GrassLevel = -1
	a.Prices[economy.Milk] = 99
	c := s.State()
	assert.Equal(t, b, c)
}

func TestSaveLoadContinuesIdentically(t *testing.T) {
	opts := Options{AutoChores: true, Incidents: true}
	s1 := newRunning(t, "southland", opts)
	s1.AdvanceHours(24 * 5)
	s1.Tick(250)

	rec, err := s1.Save()
	require.NoError(t, err)
	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	var decoded SaveRecord
	require.NoError(t, json.Unmarshal(raw, &decoded))

	s2 := NewSimulation(opts)
	require.NoError(t, s2.Load(decoded))
	assert.Equal(t, s1.State(), s2.State())

	s1.AdvanceHours(24 * 20)
	s2.AdvanceHours(24 * 20)
	assert.Equal(t, s1.State(), s2.State())
	assert.Equal(t, s1.StatsHistory(0), s2.StatsHistory(0))

	s1.Tick(1750)
	s2.Tick(1750)
	assert.Equal(t, s1.Now(), s2.Now())
}

func TestLoadRejectsUnknownVersion(t *testing.T) {
	s := NewSimulation(Options{})
	assert.ErrorIs(t, s.Load(SaveRecord{Version: 99}), ErrSaveVersion)
}

func TestRejectedCommandsMutateNothing(t *testing.T) {
	var rejected []string
	s := newRunning(t, "canterbury", Options{OnReject: func(r *Rejection) { rejected = append(rejected, r.Command) }})
	before := s.State()

	_, err := s.SellMilk(100)
	var rej *Rejection
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, RejectInsufficient, rej.Kind())
	assert.ErrorIs(t, err, economy.ErrInsufficientInventory)

	_, err = s.BuyCattle("friesian", 1000)
	assert.ErrorIs(t, err, economy.ErrInsufficientFunds)

	_, err = s.BuyCattle("yak", 1)
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, RejectNotFound, rej.Kind())

	err = s.MoveCattle(1, 9999)
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, RejectNotFound, rej.Kind())

	_, err = s.FertilizePasture(9999, "standard")
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, RejectNotFound, rej.Kind())

	_, err = s.BuyFeed(1e9)
	assert.Error(t, err)
	_, err = s.Execute(Command{Type: "dance"})
	assert.ErrorIs(t, err, ErrUnknownCommand)

	assert.Equal(t, before, s.State())
	assert.Len(t, rejected, 7)
}

func TestCommandsRequireRunning(t *testing.T) {
	s := NewSimulation(Options{})
	_, err := s.FeedHerd()
	assert.ErrorIs(t, err, ErrNotRunning)
	assert.Zero(t, s.Tick(5000).Hours)
	assert.Equal(t, PhaseIdle, s.State().Phase)

	_, err = s.Save()
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestInitializeAndStop(t *testing.T) {
	s := newRunning(t, "canterbury", Options{})
	p, _ := scenario.Get("canterbury")
	assert.ErrorIs(t, s.Initialize(p, 1), ErrAlreadyRunning)

	st := s.State()
	assert.Equal(t, 200, st.Herd.Total)
	assert.Equal(t, 75000.0, st.Resources.Cash)
	assert.Equal(t, 200, st.Farm.MilkingCapacity)
	assert.Equal(t, "spring", st.Calendar.Season)
	assert.Len(t, st.Weather.Forecast, weather.ForecastDays)

	s.Stop()
	assert.Equal(t, PhaseIdle, s.Phase())
	require.NoError(t, s.Initialize(p, 1))
}

func TestTickAccumulator(t *testing.T) {
	s := newRunning(t, "canterbury", Options{})
	start := s.Now()

	assert.Zero(t, s.Tick(999).Hours)
	assert.Equal(t, 1, s.Tick(1).Hours)

	scale, err := s.SetTimeScale(2)
	require.NoError(t, err)
	assert.Equal(t, 2.0, scale)
	assert.Equal(t, 2, s.Tick(1000).Hours)

	scale, err = s.SetTimeScale(100)
	require.NoError(t, err)
	assert.Equal(t, MaxTimeScale, scale)
	scale, _ = s.SetTimeScale(0)
	assert.Equal(t, MinTimeScale, scale)
	_, _ = s.SetTimeScale(10)

	require.NoError(t, s.Pause())
	assert.Zero(t, s.Tick(5000).Hours)
	_, err = s.FeedHerd()
	assert.NoError(t, err, "commands still work while paused")
	require.NoError(t, s.Resume())
	assert.Equal(t, 1, s.Tick(100).Hours)

	assert.Equal(t, start.Hour+4, s.Now().Hour)
}

func TestTickCapsCatchUp(t *testing.T) {
	s := newRunning(t, "canterbury", Options{})
	start := s.Now()

	res := s.Tick(1e9)
	assert.Equal(t, MaxCatchUpHours, res.Hours)
	assert.Len(t, res.Days, 1)
	assert.Equal(t, start.Hours()+MaxCatchUpHours, s.Now().Hours())

	// The excess is gone, not queued for the next tick.
	assert.Zero(t, s.Tick(1).Hours)
}

func TestAutoChoresSellDailyMilk(t *testing.T) {
	s := newRunning(t, "canterbury", Options{AutoChores: true})
	res := s.AdvanceHours(24)
	require.Len(t, res.Days, 1)

	day := res.Days[0]
	assert.Equal(t, 80, day.Day)
	assert.Greater(t, day.MilkLitres, 0.0)
	assert.Greater(t, day.Revenue, 0.0)
	assert.InDelta(t, day.MilkLitres, day.MilkSold, 1e-6)
	assert.Equal(t, []DailyStats{day}, s.StatsHistory(0))
}

func TestTriggerWeatherEvent(t *testing.T) {
	s := newRunning(t, "canterbury", Options{})
	before := s.State().Weather.Conditions

	require.NoError(t, s.TriggerWeatherEvent("drought"))
	after := s.State().Weather
	assert.InDelta(t, before.Rainfall*0.1, after.Conditions.Rainfall, 1e-9)
	assert.InDelta(t, before.Temperature+5, after.Conditions.Temperature, 1e-9)
	assert.True(t, after.Effects.Active.Has(weather.Drought))

	err := s.TriggerWeatherEvent("drought")
	var rej *Rejection
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, RejectConflict, rej.Kind())
	assert.ErrorIs(t, s.TriggerWeatherEvent("meteor"), weather.ErrUnknownEvent)

	events := s.Events(0, CategoryWeather)
	require.NotEmpty(t, events)
	assert.Contains(t, events[len(events)-1].Description, "drought")
}

func TestIncidents(t *testing.T) {
	s := newRunning(t, "canterbury", Options{})
	require.NoError(t, s.TriggerIncident(string(IncidentPriceDrop)))
	assert.InDelta(t, 0.65*MilkPriceShock, s.State().Prices[economy.Milk], 1e-9)

	cost := s.State().Farm.DailyCost
	require.NoError(t, s.TriggerIncident(string(IncidentRegulation)))
	assert.InDelta(t, cost*1.2, s.State().Farm.DailyCost, 1e-6)

	err := s.TriggerIncident("volcano")
	var rej *Rejection
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, RejectNotFound, rej.Kind())
	assert.Equal(t, string(IncidentRegulation), s.State().Status.LastIncident)
}

func TestShedUpgradeOnEmptyFarm(t *testing.T) {
	s := newRunning(t, "bay-of-plenty", Options{})
	st := s.State()
	assert.Zero(t, st.Farm.MilkingCapacity)
	assert.Equal(t, MinFeedStorage, st.Farm.StorageCapacity)

	cost, err := s.UpgradeBuilding("shed", "basic")
	require.NoError(t, err)
	assert.Equal(t, 20000.0, cost)
	st = s.State()
	assert.Equal(t, 100, st.Farm.MilkingCapacity)
	assert.Equal(t, 20000.0, st.Resources.Cash)

	ids, err := s.BuyCattle("jersey", 10)
	require.NoError(t, err)
	assert.Len(t, ids, 10)
	assert.Equal(t, 10, s.State().Herd.Total)
}

func TestUpgradeBuildingRejectionKinds(t *testing.T) {
	s := newRunning(t, "canterbury", Options{})
	cash := s.State().Resources.Cash

	cases := map[string]struct {
		kind, tier string
		want       RejectionKind
	}{
		"same tier":    {"shed", "herringbone", RejectConflict},
		"lower tier":   {"shed", "basic", RejectConflict},
		"unknown tier": {"shed", "parlour", RejectInvalid},
		"unknown kind": {"silo", "large", RejectInvalid},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.UpgradeBuilding(tc.kind, tc.tier)
			var rej *Rejection
			require.True(t, errors.As(err, &rej))
			assert.Equal(t, tc.want, rej.Kind())
		})
	}
	st := s.State()
	assert.Equal(t, cash, st.Resources.Cash)
	assert.Equal(t, "herringbone", st.Farm.Shed.Name())
}

func TestDaysInMilkFollowCalendarDays(t *testing.T) {
	s := newRunning(t, "canterbury", Options{AutoChores: true})
	before := map[int]int{}
	for _, a := range s.Animals() {
		if a.Lactating && a.DaysInMilk < herd.LactationDays-3 {
			before[a.ID] = a.DaysInMilk
		}
	}
	require.NotEmpty(t, before)

	for day := 1; day <= 3; day++ {
		require.Len(t, s.AdvanceHours(24).Days, 1)
		checked := 0
		for _, a := range s.Animals() {
			dim, ok := before[a.ID]
			if !ok || !a.Lactating {
				continue
			}
			assert.Equal(t, dim+day, a.DaysInMilk, "animal %d on day %d", a.ID, day)
			assert.LessOrEqual(t, a.MilkedToday, herd.MilkingsPerDay)
			checked++
		}
		assert.NotZero(t, checked)
	}
}

func TestDroppedQueuedResearchIsReported(t *testing.T) {
	s := newRunning(t, "canterbury", Options{})
	require.NoError(t, s.QueueResearch(tech.HerringboneShed)) // the farm already runs one

	s.AdvanceHours(24)
	events := s.Events(0, CategoryTech)
	require.NotEmpty(t, events)
	assert.Contains(t, events[len(events)-1].Description, "dropped")
	assert.Contains(t, events[len(events)-1].Description, tech.HerringboneShed)
	assert.Empty(t, s.State().Research.Queue)
}

func TestMoveCattleKeepsLoadConsistent(t *testing.T) {
	s := newRunning(t, "canterbury", Options{})
	st := s.State()
	a := st.Animals[0]

	var target int
	for _, p := range st.Pastures {
		if p.ID != a.PastureID && p.CurrentStock < p.MaxStock && p.GrassLevel > 20 {
			target = p.ID
			break
		}
	}
	require.NotZero(t, target)
	require.NoError(t, s.MoveCattle(a.ID, target))

	st = s.State()
	load := map[int]int{}
	for _, an := range st.Animals {
		load[an.PastureID]++
	}
	for _, p := range st.Pastures {
		assert.Equal(t, load[p.ID], p.CurrentStock, "pasture %d", p.ID)
	}
	require.Len(t, s.AdvanceHours(48).Days, 2)
	assert.Empty(t, s.State().Status.InvariantErr)
}

func TestEngineRunStopsOnCancel(t *testing.T) {
	s := newRunning(t, "canterbury", Options{})
	_, _ = s.SetTimeScale(MaxTimeScale)
	start := s.Now()
	e := NewEngine(s)
	e.Interval = 5 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	require.NoError(t, e.Run(ctx))
	assert.Greater(t, s.Now().Hours(), start.Hours())
}

func TestSubscribeReceivesEvents(t *testing.T) {
	s := newRunning(t, "canterbury", Options{})
	id, ch := s.Subscribe()
	require.NoError(t, s.ActivateContract("fonterra"))

	select {
	case e := <-ch:
		assert.Equal(t, CategoryMarket, e.Category)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
	s.Unsubscribe(id)
	_, open := <-ch
	assert.False(t, open)
}
