package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/dairy-sim/internal/ledger"
	"github.com/talgya/dairy-sim/internal/weather"
)

func TestGet(t *testing.T) {
	p, err := Get("waikato")
	require.NoError(t, err)
	assert.Equal(t, 300, p.StartingCattleCount)
	assert.Equal(t, "rotary", p.StartingInfrastructure.Shed)

	_, err = Get("atlantis")
	assert.ErrorIs(t, err, ErrUnknownScenario)
}

func TestScenariosReferenceKnownTables(t *testing.T) {
	ids := weather.RegionIDs()
	for _, p := range List() {
		assert.Contains(t, ids, p.RegionID, p.ID)
		_, err := ledger.ParseShedTier(p.StartingInfrastructure.Shed)
		assert.NoError(t, err, p.ID)
		_, err = ledger.ParseRoadTier(p.StartingInfrastructure.Road)
		assert.NoError(t, err, p.ID)
	}
}

func TestBayOfPlentyStartsEmpty(t *testing.T) {
	p, err := Get("bay-of-plenty")
	require.NoError(t, err)
	assert.Zero(t, p.StartingCattleCount)
	assert.Equal(t, "none", p.StartingInfrastructure.Shed)
	assert.True(t, p.StartingInfrastructure.Irrigation)
}
