package weather

import "github.com/talgya/dairy-sim/internal/calendar"

// Seasonal holds one value per season, indexed by calendar.Season.
type Seasonal [4]float64

// At returns the value for season s.
func (v Seasonal) At(s calendar.Season) float64 { return v[s] }

// Region is a climate profile for one farming district.
type Region struct {
	ID          string
	Name        string
	BaseTemp    Seasonal // °C
	Rainfall    Seasonal // mm
	WindSpeed   Seasonal // km/h
	ExtremeRisk [4]float64
}

// Risk returns the regional risk weight for an extreme event kind.
func (r Region) Risk(k EventKind) float64 {
	if int(k) >= len(r.ExtremeRisk) {
		return 0
	}
	return r.ExtremeRisk[k]
}

// Ordering inside Seasonal literals: winter, spring, summer, autumn.
var regions = map[string]Region{
	"canterbury": {
		ID: "canterbury", Name: "Canterbury",
		BaseTemp:    Seasonal{7, 15, 22, 12},
		Rainfall:    Seasonal{65, 45, 35, 50},
		WindSpeed:   Seasonal{22, 18, 15, 20},
		ExtremeRisk: [4]float64{0.3, 0.1, 0.4, 0.2},
	},
	"waikato": {
		ID: "waikato", Name: "Waikato",
		BaseTemp:    Seasonal{9, 16, 24, 14},
		Rainfall:    Seasonal{95, 85, 75, 90},
		WindSpeed:   Seasonal{16, 12, 10, 14},
		ExtremeRisk: [4]float64{0.1, 0.2, 0.1, 0.15},
	},
	"taranaki": {
		ID: "taranaki", Name: "Taranaki",
		BaseTemp:    Seasonal{8, 15, 21, 13},
		Rainfall:    Seasonal{140, 120, 100, 130},
		WindSpeed:   Seasonal{30, 25, 20, 28},
		ExtremeRisk: [4]float64{0.05, 0.15, 0.6, 0.1},
	},
	"southland": {
		ID: "southland", Name: "Southland",
		BaseTemp:    Seasonal{4, 12, 18, 9},
		Rainfall:    Seasonal{75, 55, 40, 65},
		WindSpeed:   Seasonal{25, 20, 16, 22},
		ExtremeRisk: [4]float64{0.15, 0.1, 0.3, 0.5},
	},
	"bay-of-plenty": {
		ID: "bay-of-plenty", Name: "Bay of Plenty",
		BaseTemp:    Seasonal{10, 17, 25, 15},
		Rainfall:    Seasonal{85, 75, 65, 80},
		WindSpeed:   Seasonal{18, 14, 12, 16},
		ExtremeRisk: [4]float64{0.2, 0.1, 0.15, 0.1},
	},
}

// DefaultRegion is used when a scenario names an unknown region.
const DefaultRegion = "canterbury"

// LookupRegion returns the climate profile for id, falling back to
// Canterbury for unknown ids.
func LookupRegion(id string) Region {
	if r, ok := regions[id]; ok {
		return r
	}
	return regions[DefaultRegion]
}

// RegionIDs lists the known region ids.
func RegionIDs() []string {
	return []string{"canterbury", "waikato", "taranaki", "southland", "bay-of-plenty"}
}
