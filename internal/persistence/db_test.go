package persistence

import (
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/dairy-sim/internal/engine"
	"github.com/talgya/dairy-sim/internal/scenario"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "farm.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func running(t *testing.T) *engine.Simulation {
	t.Helper()
	p, err := scenario.Get(scenario.Default)
	require.NoError(t, err)
	sim := engine.NewSimulation(engine.Options{AutoChores: true})
	require.NoError(t, sim.Initialize(p, 11))
	return sim
}

func TestSaveAndLoadLatest(t *testing.T) {
	db := openTemp(t)
	sim := running(t)

	_, err := db.LoadLatest(DefaultSlot)
	assert.ErrorIs(t, err, ErrNoSave)

	first, err := sim.Save()
	require.NoError(t, err)
	require.NoError(t, db.SaveRecord(DefaultSlot, first))

	sim.AdvanceHours(24 * 3)
	second, err := sim.Save()
	require.NoError(t, err)
	second.SavedAt = first.SavedAt.Add(time.Second)
	require.NoError(t, db.SaveRecord(DefaultSlot, second))

	got, err := db.LoadLatest(DefaultSlot)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
	assert.Equal(t, second.State.Calendar, got.State.Calendar)

	restored := engine.NewSimulation(engine.Options{AutoChores: true})
	require.NoError(t, restored.Load(got))
	assert.Equal(t, sim.State(), restored.State())

	saves, err := db.ListSaves()
	require.NoError(t, err)
	require.Len(t, saves, 2)
	assert.Equal(t, second.ID.String(), saves[0].ID)
	assert.Equal(t, scenario.Default, saves[0].Scenario)

	n, err := db.PruneSaves(DefaultSlot, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	saves, err = db.ListSaves()
	require.NoError(t, err)
	assert.Len(t, saves, 1)
}

func TestEventsAndStats(t *testing.T) {
	db := openTemp(t)
	sim := running(t)
	res := sim.AdvanceHours(24 * 4)
	require.Len(t, res.Days, 4)

	require.NoError(t, db.SaveDailyStats(res.Days))
	require.NoError(t, db.SaveDailyStats(res.Days[3:]))
	days, err := db.DailyStats(10)
	require.NoError(t, err)
	assert.Equal(t, res.Days, days)

	days, err = db.DailyStats(2)
	require.NoError(t, err)
	assert.Equal(t, res.Days[2:], days)

	events := sim.Events(0, "")
	require.NotEmpty(t, events)
	require.NoError(t, db.SaveEvents(events))
	got, err := db.RecentEvents(1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, events[len(events)-1], got[0])
}

func TestMetaAndCheckpoint(t *testing.T) {
	db := openTemp(t)
	sim := running(t)

	require.NoError(t, db.SaveMeta("scenario", "canterbury"))
	require.NoError(t, db.SaveMeta("scenario", "waikato"))
	v, err := db.GetMeta("scenario")
	require.NoError(t, err)
	assert.Equal(t, "waikato", v)

	_, err = db.Checkpoint(engine.NewSimulation(engine.Options{}), DefaultSlot)
	assert.ErrorIs(t, err, engine.ErrNotRunning)

	rec, err := db.Checkpoint(sim, DefaultSlot)
	require.NoError(t, err)
	hour, err := db.GetMeta("last_hour")
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(rec.State.Calendar.Time.Hours(), 10), hour)
}
