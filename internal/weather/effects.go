package weather

// Effects is the only weather input other subsystems receive. Multipliers
// are 1.0 in neutral weather.
type Effects struct {
	GrassGrowth    float64  `json:"grass_growth"`
	CattleComfort  float64  `json:"cattle_comfort"`
	MilkProduction float64  `json:"milk_production"`
	WorkEfficiency float64  `json:"work_efficiency"`
	BuildingWear   float64  `json:"building_wear"`
	Dry            bool     `json:"dry"`            // rainfall below irrigation threshold
	ThermalStress  bool     `json:"thermal_stress"` // below 0°C or above 30°C
	Active         EventSet `json:"active"`
}

// Neutral returns effects with every multiplier at 1.0.
func Neutral() Effects {
	return Effects{GrassGrowth: 1, CattleComfort: 1, MilkProduction: 1, WorkEfficiency: 1, BuildingWear: 1}
}

// DryThreshold is the rainfall below which irrigation pays off.
const DryThreshold = 20

// Effects computes multipliers from the current temperature, rainfall and
// wind bands plus active events scaled by severity.
func (g *Generator) Effects() Effects {
	return computeEffects(g.current, g.events)
}

func computeEffects(c Conditions, events []ExtremeEvent) Effects {
	e := Neutral()

	switch {
	case c.Temperature < 5:
		e.GrassGrowth *= 0.3
		e.CattleComfort *= 0.7
	case c.Temperature > 25:
		e.CattleComfort *= 0.8
		e.MilkProduction *= 0.9
	case c.Temperature >= 15 && c.Temperature <= 20:
		e.GrassGrowth *= 1.2
		e.CattleComfort *= 1.1
	}

	switch {
	case c.Rainfall > 80:
		e.WorkEfficiency *= 0.6
		e.GrassGrowth *= 0.8
	case c.Rainfall > 20:
		e.GrassGrowth *= 1.3
	case c.Rainfall < 5:
		e.GrassGrowth *= 0.5
	}

	if c.WindSpeed > 30 {
		e.WorkEfficiency *= 0.7
		e.BuildingWear *= 1.5
	}

	for _, ev := range events {
		sev := ev.Severity
		switch ev.Kind {
		case Drought:
			e.GrassGrowth *= scaled(0.2, sev)
			e.CattleComfort *= scaled(0.6, sev)
		case Flood:
			e.WorkEfficiency *= scaled(0.3, sev)
			e.GrassGrowth *= scaled(0.4, sev)
		case Windstorm:
			e.WorkEfficiency *= scaled(0.4, sev)
			e.BuildingWear *= scaled(2.0, sev)
		case Frost:
			e.GrassGrowth *= scaled(0.1, sev)
			e.CattleComfort *= scaled(0.5, sev)
		}
		e.Active = e.Active.with(ev.Kind)
	}

	e.Dry = c.Rainfall < DryThreshold
	e.ThermalStress = c.Temperature < 0 || c.Temperature > 30
	return e
}

// scaled moves multiplier m toward 1.0 as severity drops below 1.
func scaled(m, severity float64) float64 {
	return 1 + (m-1)*severity
}
