package tech

// Effect is the numeric contribution of a purchased technology. Multipliers
// left at zero are neutral.
type Effect struct {
	MilkYield      float64 `json:"milk_yield,omitempty"`
	FeedEfficiency float64 `json:"feed_efficiency,omitempty"`
	Reproduction   float64 `json:"reproduction,omitempty"`
	HealthBonus    float64 `json:"health_bonus,omitempty"` // points per day
	MilkPremium    float64 `json:"milk_premium,omitempty"` // fractional uplift
	SoilFertility  float64 `json:"soil_fertility,omitempty"`
	UpkeepFactor   float64 `json:"upkeep_factor,omitempty"`
	ResearchRate   float64 `json:"research_rate,omitempty"`
}

// Technology is a catalogue entry.
type Technology struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	Description   string   `json:"description"`
	Cost          float64  `json:"cost"`
	ResearchCost  float64  `json:"research_cost"`
	Prerequisites []string `json:"prerequisites,omitempty"`
	Effect        Effect   `json:"effect"`
}

// Technology ids referenced by code.
const (
	HerringboneShed        = "herringbone_shed"
	RotaryShed             = "rotary_shed"
	RoboticShed            = "robotic_shed"
	PrecisionFeeding       = "precision_feeding"
	FarmManagementSoftware = "farm_management_software"
	PredictiveAnalytics    = "predictive_analytics"
)

var catalog = []Technology{
	{ID: HerringboneShed, Name: "Herringbone Milking Shed", Category: "infrastructure",
		Description: "Efficient milking shed design for medium-scale operations.",
		Cost: 50000, ResearchCost: 100},
	{ID: RotaryShed, Name: "Rotary Milking Shed", Category: "infrastructure",
		Description: "High-capacity rotary platform for large operations.",
		Cost: 120000, ResearchCost: 200, Prerequisites: []string{HerringboneShed}},
	{ID: RoboticShed, Name: "Robotic Milking System", Category: "automation",
		Description: "Fully automated milking with individual cow monitoring.",
		Cost: 300000, ResearchCost: 500, Prerequisites: []string{RotaryShed, "activity_monitors"},
		Effect: Effect{MilkYield: 1.05, HealthBonus: 0.05}},
	{ID: PrecisionFeeding, Name: "Precision Feeding System", Category: "feeding",
		Description: "Automated feeding system with individual cow nutrition.",
		Cost: 80000, ResearchCost: 150,
		Effect: Effect{FeedEfficiency: 1.4, HealthBonus: 0.1}},
	{ID: "supplement_optimization", Name: "Supplement Optimization", Category: "feeding",
		Description: "Advanced mineral and vitamin supplementation.",
		Cost: 25000, ResearchCost: 100, Prerequisites: []string{PrecisionFeeding},
		Effect: Effect{Reproduction: 1.15, HealthBonus: 0.15}},
	{ID: "activity_monitors", Name: "Activity Monitoring Collars", Category: "monitoring",
		Description: "Real-time monitoring of cow activity and health.",
		Cost: 15000, ResearchCost: 120,
		Effect: Effect{Reproduction: 1.2, HealthBonus: 0.05}},
	{ID: "milk_analysis", Name: "Real-time Milk Analysis", Category: "monitoring",
		Description: "Instant milk quality and health analysis during milking.",
		Cost: 35000, ResearchCost: 180, Prerequisites: []string{"activity_monitors"},
		Effect: Effect{MilkPremium: 0.15}},
	{ID: "genomic_selection", Name: "Genomic Selection Program", Category: "genetics",
		Description: "DNA-based breeding decisions for superior genetics.",
		Cost: 60000, ResearchCost: 300,
		Effect: Effect{MilkYield: 1.08}},
	{ID: "embryo_transfer", Name: "Embryo Transfer Technology", Category: "genetics",
		Description: "Rapid multiplication of superior genetics.",
		Cost: 40000, ResearchCost: 250, Prerequisites: []string{"genomic_selection"},
		Effect: Effect{Reproduction: 1.6}},
	{ID: "effluent_system", Name: "Advanced Effluent Management", Category: "environment",
		Description: "Closed-loop effluent system with nutrient recovery.",
		Cost: 45000, ResearchCost: 140,
		Effect: Effect{SoilFertility: 1.2}},
	{ID: "renewable_energy", Name: "On-farm Renewable Energy", Category: "environment",
		Description: "Solar and biogas systems for energy independence.",
		Cost: 70000, ResearchCost: 200, Prerequisites: []string{"effluent_system"},
		Effect: Effect{UpkeepFactor: 0.85}},
	{ID: FarmManagementSoftware, Name: "Integrated Farm Management Software", Category: "digital",
		Description: "Comprehensive digital platform for farm operations.",
		Cost: 20000, ResearchCost: 80,
		Effect: Effect{ResearchRate: 1.3}},
	{ID: PredictiveAnalytics, Name: "Predictive Analytics Platform", Category: "digital",
		Description: "AI-powered predictions for optimal farm management.",
		Cost: 35000, ResearchCost: 180, Prerequisites: []string{FarmManagementSoftware, "activity_monitors"},
		Effect: Effect{ResearchRate: 1.5}},
}

// Catalog returns every technology in catalogue order.
func Catalog() []Technology {
	out := make([]Technology, len(catalog))
	copy(out, catalog)
	return out
}

func lookup(id string) (Technology, bool) {
	for _, t := range catalog {
		if t.ID == id {
			return t, true
		}
	}
	return Technology{}, false
}

// ShedTechnologies lists the shed technologies implied by a shed tier name.
func ShedTechnologies(shed string) []string {
	switch shed {
	case "herringbone":
		return []string{HerringboneShed}
	case "rotary":
		return []string{HerringboneShed, RotaryShed}
	case "robotic":
		return []string{HerringboneShed, RotaryShed, RoboticShed}
	default:
		return nil
	}
}
