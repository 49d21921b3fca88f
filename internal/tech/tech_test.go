package tech

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/dairy-sim/internal/economy"
)

func TestResearchLifecycle(t *testing.T) {
	tr := New()
	assert.ErrorIs(t, tr.StartResearch(FarmManagementSoftware), ErrInsufficientPoints)

	for i := 0; i < 80; i++ {
		tr.Update()
	}
	require.NoError(t, tr.StartResearch(FarmManagementSoftware))
	assert.InDelta(t, 0, tr.Points(), 1e-9)
	assert.ErrorIs(t, tr.StartResearch(PrecisionFeeding), ErrResearchBusy)

	var done string
	for i := 0; i < 80 && done == ""; i++ {
		done = tr.Update().Completed
	}
	assert.Equal(t, FarmManagementSoftware, done)
	assert.True(t, tr.Unlocked(FarmManagementSoftware))
	assert.InDelta(t, 1.3, tr.ResearchRate(), 1e-9)
}

func TestPrerequisitesEnforced(t *testing.T) {
	tr := New()
	tr.points = 1000
	assert.ErrorIs(t, tr.StartResearch(RotaryShed), ErrPrerequisites)
	assert.ErrorIs(t, tr.StartResearch("cold_fusion"), ErrUnknownTechnology)

	tr.Grant(HerringboneShed)
	require.NoError(t, tr.StartResearch(RotaryShed))
	assert.ErrorIs(t, New().Enqueue("nope"), ErrUnknownTechnology)
}

func TestQueueAutoStarts(t *testing.T) {
	tr := New()
	tr.points = 500
	require.NoError(t, tr.StartResearch("activity_monitors"))
	require.NoError(t, tr.Enqueue("milk_analysis"))

	for i := 0; i < 120; i++ {
		tr.Update()
	}
	cur, ok := tr.Current()
	require.True(t, ok)
	assert.Equal(t, "milk_analysis", cur.TechnologyID)
}

func TestQueuedResearchWaitsForPoints(t *testing.T) {
	tr := New()
	require.NoError(t, tr.Enqueue(FarmManagementSoftware))

	day := tr.Update()
	assert.Empty(t, day.Started)
	assert.Empty(t, day.Dropped)
	assert.Equal(t, []string{FarmManagementSoftware}, tr.Queue())

	for i := 0; i < 200 && day.Started == ""; i++ {
		day = tr.Update()
	}
	assert.Equal(t, FarmManagementSoftware, day.Started)
	assert.Empty(t, tr.Queue())
}

func TestQueueSkipsToQueuedPrerequisite(t *testing.T) {
	tr := New()
	tr.points = 1000
	require.NoError(t, tr.Enqueue(RotaryShed))
	require.NoError(t, tr.Enqueue(HerringboneShed))

	day := tr.Update()
	assert.Equal(t, HerringboneShed, day.Started)
	assert.Empty(t, day.Dropped)
	assert.Equal(t, []string{RotaryShed}, tr.Queue())
}

func TestQueueDropsUnstartable(t *testing.T) {
	tr := New()
	tr.points = 1000
	tr.Grant(HerringboneShed)
	require.NoError(t, tr.Enqueue(HerringboneShed)) // already unlocked
	require.NoError(t, tr.Enqueue(PrecisionFeeding))

	day := tr.Update()
	assert.Equal(t, []string{HerringboneShed}, day.Dropped)
	assert.Equal(t, PrecisionFeeding, day.Started)

	orphan := New()
	orphan.points = 1000
	require.NoError(t, orphan.Enqueue(RotaryShed)) // nothing will unlock the herringbone shed
	day = orphan.Update()
	assert.Equal(t, []string{RotaryShed}, day.Dropped)
	assert.Empty(t, orphan.Queue())
}

func TestPurchaseActivatesBonus(t *testing.T) {
	tr := New()
	w := &economy.Wallet{Cash: 100000}

	_, err := tr.Purchase(PrecisionFeeding, w)
	assert.ErrorIs(t, err, ErrNotResearched)

	tr.unlocked[PrecisionFeeding] = true
	cost, err := tr.Purchase(PrecisionFeeding, w)
	require.NoError(t, err)
	assert.Equal(t, 80000.0, cost)
	assert.Equal(t, 20000.0, w.Cash)

	_, err = tr.Purchase(PrecisionFeeding, w)
	assert.ErrorIs(t, err, ErrAlreadyPurchased)

	b := tr.Bonus()
	assert.True(t, b.PrecisionFeeding)
	assert.InDelta(t, 1.4, b.FeedEfficiency, 1e-9)
	assert.InDelta(t, 0.1, b.HealthBonus, 1e-9)
	assert.InDelta(t, 1, b.MilkYield, 1e-9)

	tr.unlocked["genomic_selection"] = true
	_, err = tr.Purchase("genomic_selection", &economy.Wallet{Cash: 10})
	assert.ErrorIs(t, err, economy.ErrInsufficientFunds)
}

func TestGrantFromShed(t *testing.T) {
	tr := New()
	tr.Grant(ShedTechnologies("rotary")...)
	assert.True(t, tr.Purchased(HerringboneShed))
	assert.True(t, tr.Purchased(RotaryShed))
	assert.False(t, tr.Unlocked(RoboticShed))
	assert.Empty(t, ShedTechnologies("none"))
}

func TestSaveRestore(t *testing.T) {
	tr := New()
	tr.points = 300
	tr.Grant(HerringboneShed)
	require.NoError(t, tr.StartResearch(PrecisionFeeding))
	require.NoError(t, tr.Enqueue("effluent_system"))

	r := Restore(tr.Save())
	assert.Equal(t, tr.Save(), r.Save())
	assert.Equal(t, tr.Bonus(), r.Bonus())
}
