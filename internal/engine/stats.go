package engine

import (
	"github.com/talgya/dairy-sim/internal/calendar"
	"github.com/talgya/dairy-sim/internal/economy"
)

// StatsHistoryDays bounds the retained daily records.
const StatsHistoryDays = 365

// DailyStats is the farm's record for one game day.
type DailyStats struct {
	Day           int     `json:"day"`
	Year          int     `json:"year"`
	Date          string  `json:"date"`
	MilkLitres    float64 `json:"milk_litres"`
	MilkSold      float64 `json:"milk_sold"`
	Revenue       float64 `json:"revenue"`
	FeedCost      float64 `json:"feed_cost"`
	Maintenance   float64 `json:"maintenance"`
	CapitalSpend  float64 `json:"capital_spend"`
	Cash          float64 `json:"cash"`
	FeedKg        float64 `json:"feed_kg"`
	HerdSize      int     `json:"herd_size"`
	Lactating     int     `json:"lactating"`
	AverageHealth float64 `json:"average_health"`
	MeanGrass     float64 `json:"mean_grass"`
	MilkPrice     float64 `json:"milk_price"`
	Births        int     `json:"births"`
}

// Profit is revenue less running and capital costs.
func (d DailyStats) Profit() float64 {
	return d.Revenue - d.FeedCost - d.Maintenance - d.CapitalSpend
}

type statsBook struct {
	Today   DailyStats   `json:"today"`
	History []DailyStats `json:"history"`
}

func newStatsBook(t calendar.Time) statsBook {
	return statsBook{Today: DailyStats{Day: t.Day, Year: t.Year, Date: t.DateString()}}
}

// closeDay completes today's record from the farm's current state, files it
// and opens a record for next.
func (s *Simulation) closeDay(next calendar.Time) DailyStats {
	d := s.stats.Today
	counts := s.herd.Counts()
	d.Cash = s.wallet.Cash
	d.FeedKg = s.wallet.Feed
	d.HerdSize = counts.Total
	d.Lactating = counts.Lactating
	d.AverageHealth = s.herd.AverageHealth()
	d.MeanGrass = s.field.MeanGrass()
	d.MilkPrice = s.market.Price(economy.Milk)

	s.stats.History = append(s.stats.History, d)
	if over := len(s.stats.History) - StatsHistoryDays; over > 0 {
		s.stats.History = append([]DailyStats(nil), s.stats.History[over:]...)
	}
	s.stats.Today = DailyStats{Day: next.Day, Year: next.Year, Date: next.DateString()}
	return d
}

// StatsHistory returns up to the last n daily records, oldest first.
func (s *Simulation) StatsHistory(n int) []DailyStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.stats.History
	if n <= 0 || n > len(h) {
		n = len(h)
	}
	out := make([]DailyStats, n)
	copy(out, h[len(h)-n:])
	return out
}

// yearTotals sums the filed records of year.
func (s *Simulation) yearTotals(year int) DailyStats {
	total := DailyStats{Year: year}
	for _, d := range s.stats.History {
		if d.Year != year {
			continue
		}
		total.MilkLitres += d.MilkLitres
		total.MilkSold += d.MilkSold
		total.Revenue += d.Revenue
		total.FeedCost += d.FeedCost
		total.Maintenance += d.Maintenance
		total.CapitalSpend += d.CapitalSpend
		total.Births += d.Births
	}
	return total
}
