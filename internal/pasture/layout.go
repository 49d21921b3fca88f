package pasture

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/dairy-sim/internal/entropy"
)

// Paddock size bounds in hectares.
const (
	HaPerPaddock = 10.0
	MinPaddockHa = 8.0
	MaxPaddockHa = 12.0
)

// Layout subdivides farmHa into paddocks. Quality and fertility come from
// two simplex fields sampled on the paddock grid so neighbouring paddocks
// resemble each other; per-paddock draws come from src.
func Layout(seed int64, farmHa float64, irrigated bool, src entropy.Source) []*Pasture {
	count := max(1, int(math.Floor(farmHa/HaPerPaddock)))
	cols := int(math.Ceil(math.Sqrt(float64(count))))

	qualityNoise := opensimplex.NewNormalized(seed)
	fertilityNoise := opensimplex.NewNormalized(seed + 1)

	out := make([]*Pasture, 0, count)
	for i := 0; i < count; i++ {
		x := float64(i % cols)
		y := float64(i / cols)

		q := octaveNoise(qualityNoise, x, y, 3, 0.35, 0.5)
		fert := octaveNoise(fertilityNoise, x, y, 3, 0.35, 0.5)

		size := entropy.Between(src, MinPaddockHa, MaxPaddockHa)
		p := &Pasture{
			ID:            i + 1,
			SizeHa:        math.Round(size*10) / 10,
			Quality:       70 + q*20,
			SoilFertility: 60 + fert*30,
			GrassLevel:    entropy.Between(src, 80, 100),
			Weeds:         entropy.Between(src, 0, 20),
			Fencing:       FenceBasic,
			Water:         true,
			Shade:         entropy.Chance(src, 0.7),
			Irrigated:     irrigated,
		}
		p.MaxStock = int(math.Floor(p.SizeHa * StockPerHa))
		out = append(out, p)
	}
	return out
}

// octaveNoise layers frequencies of a normalised noise field into [0, 1].
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	return total / maxVal
}
