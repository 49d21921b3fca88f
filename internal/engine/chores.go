package engine

import (
	"log/slog"

	"github.com/talgya/dairy-sim/internal/calendar"
)

// Schedule slots the chores hang off.
const (
	slotMorningMilking = "morning-milking"
	slotEveningMilking = "evening-milking"
	slotEvening        = "evening"
)

// FeedReserveDays is how many feedings the evening top-up buys ahead.
const FeedReserveDays = 2

// runChores performs the routine farm work when AutoChores is on: feed and
// milk in the morning, milk again in the evening, then sell the day's milk
// and top up feed.
func (s *Simulation) runChores(evs []calendar.Event) {
	if !s.opts.AutoChores {
		return
	}
	for _, e := range evs {
		if e.Kind != calendar.EventSchedule {
			continue
		}
		switch e.Name {
		case slotMorningMilking:
			s.feed()
			s.milk()
		case slotEveningMilking:
			s.milk()
		case slotEvening:
			if s.wallet.Milk > 0 {
				if _, err := s.sellMilk(0); err != nil {
					slog.Debug("chore: sell milk", "error", err)
				}
			}
			s.topUpFeed()
		}
	}
}

// topUpFeed buys enough feed for FeedReserveDays feedings, limited by
// storage and cash.
func (s *Simulation) topUpFeed() {
	need := s.herd.Requirement(modifiers(s.tree.Bonus()))*FeedReserveDays - s.wallet.Feed
	room := s.ledger.Farm().StorageCapacity - s.wallet.Feed
	qty := min(need, room)
	if qty <= 0 {
		return
	}
	if quote := s.market.FeedQuote(qty); !s.wallet.CanAfford(quote.Total) {
		slog.Debug("chore: cannot afford feed", "kg", qty, "cost", quote.Total)
		return
	}
	if _, err := s.buyFeed(qty); err != nil {
		slog.Debug("chore: buy feed", "error", err)
	}
}
