// Season changes, milestones and the annual report.
package engine

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/talgya/dairy-sim/internal/calendar"
)

// seasonBriefing is the farm note logged when a season begins.
func seasonBriefing(s calendar.Season) string {
	switch s {
	case calendar.Spring:
		return "calving and peak grass growth; watch pasture cover"
	case calendar.Summer:
		return "growth slows and drought risk rises; keep feed in storage"
	case calendar.Autumn:
		return "milk tails off; plan drying off and winter feed"
	case calendar.Winter:
		return "little grass growth and dear feed; protect paddocks from pugging"
	default:
		return ""
	}
}

func (s *Simulation) handleCalendar(evs []calendar.Event) {
	for _, e := range evs {
		switch e.Kind {
		case calendar.EventSeasonChange:
			name := e.Season.String()
			s.emit(CategoryCalendar, fmt.Sprintf("%s has begun", strings.ToUpper(name[:1])+name[1:]))
			slog.Info("season change",
				"season", name,
				"date", e.At.DateString(),
				"grass", fmt.Sprintf("%.1f", s.field.MeanGrass()),
				"herd", s.herd.Len(),
				"note", seasonBriefing(e.Season),
			)
		case calendar.EventMilestone:
			s.emit(CategoryCalendar, "Milestone: "+e.Name)
			if e.Name == calendar.YearEnd {
				s.annualReport(e.At.Year)
			}
		case calendar.EventNewYear:
			s.emit(CategoryCalendar, fmt.Sprintf("Year %d begins", e.At.Year))
		}
	}
}

func (s *Simulation) annualReport(year int) {
	t := s.yearTotals(year)
	s.emit(CategoryLedger, fmt.Sprintf("Year %d: %s L milk, revenue $%s, profit $%s",
		year,
		humanize.Commaf(float64(int64(t.MilkLitres))),
		humanize.CommafWithDigits(t.Revenue, 2),
		humanize.CommafWithDigits(t.Profit(), 2),
	))
	slog.Info("annual report",
		"year", year,
		"milk_l", humanize.CommafWithDigits(t.MilkLitres, 0),
		"revenue", humanize.CommafWithDigits(t.Revenue, 2),
		"feed_cost", humanize.CommafWithDigits(t.FeedCost, 2),
		"maintenance", humanize.CommafWithDigits(t.Maintenance, 2),
		"births", t.Births,
	)
}
