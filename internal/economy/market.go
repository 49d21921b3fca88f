package economy

import (
	"log/slog"
	"maps"

	"github.com/talgya/dairy-sim/internal/calendar"
	"github.com/talgya/dairy-sim/internal/entropy"
	"github.com/talgya/dairy-sim/internal/weather"
)

// Market cadence and history window.
const (
	UpdateInterval = 6   // game hours
	HistoryWindow  = 365 // snapshots
	ReportWindow   = 30
)

// Prices maps each commodity to its unit price.
type Prices map[Commodity]float64

// Snapshot is one history entry.
type Snapshot struct {
	Hour   int64  `json:"hour"`
	Prices Prices `json:"prices"`
}

// Market holds current prices, a bounded history and supply contracts.
type Market struct {
	entries   [numCommodities]*Entry
	history   []Snapshot
	contracts []*Contract
	src       entropy.Source
}

// NewMarket opens a market at default prices with the standard contracts.
func NewMarket(src entropy.Source) *Market {
	m := &Market{entries: defaultEntries(), contracts: defaultContracts(), src: src}
	m.record(0)
	return m
}

// Price returns the current unit price of c.
func (m *Market) Price(c Commodity) float64 {
	if c >= numCommodities {
		return 0
	}
	return m.entries[c].Price
}

// Entry returns a copy of c's price state.
func (m *Market) Entry(c Commodity) Entry { return *m.entries[c] }

// Prices returns the current price map.
func (m *Market) Prices() Prices {
	p := make(Prices, numCommodities)
	for _, e := range m.entries {
		p[e.Commodity] = e.Price
	}
	return p
}

// Update moves every price one step on the UpdateInterval cadence.
func (m *Market) Update(t calendar.Time, fx weather.Effects) {
	if t.Hour%UpdateInterval != 0 {
		return
	}
	season := t.Season()
	for _, e := range m.entries {
		step := entropy.Centered(m.src, 1) * e.Volatility * 0.1
		step += seasonalDrift(season, e.Commodity)
		step += weatherDrift(fx.Active, e.Commodity)
		step += reversion(e)
		e.resolve(step)
	}
	m.record(t.Hours())
	slog.Debug("market update",
		"milk", m.entries[Milk].Price,
		"feed", m.entries[Feed].Price,
		"cattle", m.entries[Cattle].Price,
	)
}

// Shock multiplies c's price by factor, within floor and ceiling. It is used
// for one-off market incidents and is recorded as its own history entry.
func (m *Market) Shock(c Commodity, factor float64, hour int64) {
	if c >= numCommodities || factor <= 0 {
		return
	}
	m.entries[c].resolve(factor - 1)
	m.record(hour)
}

// seasonalDrift is the per-update relative drift for a commodity. Milk firms
// in spring and softens in winter; feed is cheap after summer harvest and
// dear in winter storage.
func seasonalDrift(season calendar.Season, c Commodity) float64 {
	switch season {
	case calendar.Spring:
		if c == Milk {
			return 0.002
		}
	case calendar.Summer:
		if c == Feed {
			return -0.003
		}
	case calendar.Winter:
		switch c {
		case Milk:
			return -0.001
		case Feed:
			return 0.004
		}
	}
	return 0
}

func weatherDrift(active weather.EventSet, c Commodity) float64 {
	var d float64
	if active.Has(weather.Drought) {
		switch c {
		case Milk:
			d += 0.003
		case Feed:
			d += 0.008
		}
	}
	if active.Has(weather.Flood) {
		switch c {
		case Milk:
			d -= 0.002
		case Feed:
			d += 0.005
		}
	}
	return d
}

// reversion pulls a price gently back toward its base.
func reversion(e *Entry) float64 {
	return (e.BasePrice - e.Price) / e.BasePrice * 0.01
}

func (m *Market) record(hour int64) {
	m.history = append(m.history, Snapshot{Hour: hour, Prices: m.Prices()})
	if over := len(m.history) - HistoryWindow; over > 0 {
		m.history = append([]Snapshot(nil), m.history[over:]...)
	}
}

// History returns up to the last n snapshots, oldest first.
func (m *Market) History(n int) []Snapshot {
	if n <= 0 || n > len(m.history) {
		n = len(m.history)
	}
	out := make([]Snapshot, n)
	for i, snap := range m.history[len(m.history)-n:] {
		out[i] = Snapshot{Hour: snap.Hour, Prices: maps.Clone(snap.Prices)}
	}
	return out
}

// Trend is the change in c's price over the last update.
func (m *Market) Trend(c Commodity) float64 {
	if len(m.history) < 2 {
		return 0
	}
	cur := m.history[len(m.history)-1].Prices[c]
	prev := m.history[len(m.history)-2].Prices[c]
	return cur - prev
}

// Report is the market summary exposed to callers.
type Report struct {
	Prices    Prices     `json:"prices"`
	Trends    Prices     `json:"trends"`
	Contracts []Contract `json:"contracts"`
	History   []Snapshot `json:"history"`
}

// Report builds a summary with the most recent history.
func (m *Market) Report() Report {
	trends := make(Prices, 3)
	for _, c := range []Commodity{Milk, Feed, Cattle} {
		trends[c] = m.Trend(c)
	}
	return Report{
		Prices:    m.Prices(),
		Trends:    trends,
		Contracts: m.Contracts(),
		History:   m.History(ReportWindow),
	}
}

// MarketState is the serialisable form of a Market.
type MarketState struct {
	Entries   []Entry    `json:"entries"`
	History   []Snapshot `json:"history"`
	Contracts []Contract `json:"contracts"`
}

// Save captures prices, history and contract flags.
func (m *Market) Save() MarketState {
	st := MarketState{History: m.History(0), Contracts: m.Contracts()}
	for _, e := range m.entries {
		st.Entries = append(st.Entries, *e)
	}
	return st
}

// RestoreMarket rebuilds a market from saved state, drawing from src.
func RestoreMarket(st MarketState, src entropy.Source) *Market {
	m := &Market{entries: defaultEntries(), src: src}
	for _, e := range st.Entries {
		if e.Commodity < numCommodities {
			e := e
			m.entries[e.Commodity] = &e
		}
	}
	m.history = append([]Snapshot(nil), st.History...)
	m.contracts = defaultContracts()
	for _, saved := range st.Contracts {
		for _, c := range m.contracts {
			if c.ID == saved.ID {
				c.Active = saved.Active
			}
		}
	}
	return m
}
