// Package scenario holds the starting parameters for each playable region.
package scenario

import (
	"errors"
	"fmt"
)

// ErrUnknownScenario is returned by Get for an unregistered id.
var ErrUnknownScenario = errors.New("unknown scenario")

// Default is the scenario used when none is configured.
const Default = "canterbury"

// Infrastructure is what the farm owns on day one.
type Infrastructure struct {
	Shed       string  `json:"shed"` // ledger shed tier name, "none" when absent
	StorageL   float64 `json:"storage_l"`
	Road       string  `json:"road"`
	Irrigation bool    `json:"irrigation"`
}

// Params describes a scenario.
type Params struct {
	ID                     string         `json:"id"`
	Name                   string         `json:"name"`
	FarmName               string         `json:"farm_name"`
	Difficulty             string         `json:"difficulty"`
	RegionID               string         `json:"region_id"`
	FarmSizeHa             float64        `json:"farm_size_ha"`
	StartingCash           float64        `json:"starting_cash"`
	StartingFeedKg         float64        `json:"starting_feed_kg"`
	StartingCattleCount    int            `json:"starting_cattle_count"`
	StartingInfrastructure Infrastructure `json:"starting_infrastructure"`
	Description            string         `json:"description"`
}

var scenarios = []Params{
	{
		ID: "canterbury", Name: "Canterbury Plains", FarmName: "Plains View Farm", Difficulty: "easy",
		RegionID: "canterbury", FarmSizeHa: 150, StartingCash: 75000, StartingFeedKg: 2000, StartingCattleCount: 200,
		StartingInfrastructure: Infrastructure{Shed: "herringbone", StorageL: 15000, Road: "sealed", Irrigation: true},
		Description: "Flat, fertile plains with established irrigation.",
	},
	{
		ID: "waikato", Name: "Waikato Heartland", FarmName: "Rolling Green Farm", Difficulty: "medium",
		RegionID: "waikato", FarmSizeHa: 120, StartingCash: 60000, StartingFeedKg: 1500, StartingCattleCount: 300,
		StartingInfrastructure: Infrastructure{Shed: "rotary", StorageL: 12000, Road: "metal"},
		Description: "Traditional dairy country with reliable rainfall.",
	},
	{
		ID: "taranaki", Name: "Taranaki Volcanic", FarmName: "Volcanic Vista Farm", Difficulty: "medium",
		RegionID: "taranaki", FarmSizeHa: 90, StartingCash: 55000, StartingFeedKg: 1200, StartingCattleCount: 220,
		StartingInfrastructure: Infrastructure{Shed: "herringbone", StorageL: 10000, Road: "basic"},
		Description: "Rich volcanic soils, steep terrain and strong winds.",
	},
	{
		ID: "southland", Name: "Southland", FarmName: "Southern Star Farm", Difficulty: "hard",
		RegionID: "southland", FarmSizeHa: 200, StartingCash: 80000, StartingFeedKg: 3000, StartingCattleCount: 400,
		StartingInfrastructure: Infrastructure{Shed: "rotary", StorageL: 20000, Road: "sealed"},
		Description: "Large paddocks and cheap land with harsh winters.",
	},
	{
		ID: "bay-of-plenty", Name: "Bay of Plenty", FarmName: "Golden Bay Farm", Difficulty: "hard",
		RegionID: "bay-of-plenty", FarmSizeHa: 80, StartingCash: 40000, StartingFeedKg: 800, StartingCattleCount: 0,
		StartingInfrastructure: Infrastructure{Shed: "none", StorageL: 0, Road: "excellent", Irrigation: true},
		Description: "Converted horticultural land; the shed must be built.",
	},
}

// Get returns the scenario with the given id.
func Get(id string) (Params, error) {
	for _, p := range scenarios {
		if p.ID == id {
			return p, nil
		}
	}
	return Params{}, fmt.Errorf("%w: %q", ErrUnknownScenario, id)
}

// List returns every scenario in display order.
func List() []Params {
	out := make([]Params, len(scenarios))
	copy(out, scenarios)
	return out
}
