package engine

import (
	"sync"

	"github.com/talgya/dairy-sim/internal/calendar"
)

// EventLogSize is the number of events kept in memory.
const EventLogSize = 1000

// Category groups events by the subsystem that produced them.
type Category string

const (
	CategoryCalendar Category = "calendar"
	CategoryWeather  Category = "weather"
	CategoryPasture  Category = "pasture"
	CategoryHerd     Category = "herd"
	CategoryMarket   Category = "market"
	CategoryLedger   Category = "ledger"
	CategoryTech     Category = "tech"
	CategoryCommand  Category = "command"
	CategoryIncident Category = "incident"
)

// Event is a notable occurrence on the farm.
type Event struct {
	Seq         uint64   `json:"seq"`
	Hour        int64    `json:"hour"` // absolute game hour
	Time        string   `json:"time"`
	Category    Category `json:"category"`
	Description string   `json:"description"`
}

// eventLog keeps the most recent events and fans new ones out to
// subscribers. Subscribers have their own lock so streaming clients never
// contend with the simulation mutex.
type eventLog struct {
	items []Event
	seq   uint64

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

func newEventLog() *eventLog {
	return &eventLog{subs: make(map[int]chan Event)}
}

func (l *eventLog) emit(t calendar.Time, cat Category, desc string) Event {
	l.seq++
	e := Event{Seq: l.seq, Hour: t.Hours(), Time: t.String(), Category: cat, Description: desc}
	l.items = append(l.items, e)
	if len(l.items) > EventLogSize {
		l.items = append([]Event(nil), l.items[len(l.items)-EventLogSize:]...)
	}

	l.subMu.Lock()
	for _, ch := range l.subs {
		select {
		case ch <- e:
		default: // slow subscriber; drop
		}
	}
	l.subMu.Unlock()
	return e
}

// recent returns up to limit events, newest last, optionally filtered.
func (l *eventLog) recent(limit int, cat Category) []Event {
	var src []Event
	if cat == "" {
		src = l.items
	} else {
		for _, e := range l.items {
			if e.Category == cat {
				src = append(src, e)
			}
		}
	}
	if limit <= 0 || limit > len(src) {
		limit = len(src)
	}
	out := make([]Event, limit)
	copy(out, src[len(src)-limit:])
	return out
}

func (l *eventLog) since(seq uint64) []Event {
	var out []Event
	for _, e := range l.items {
		if e.Seq > seq {
			out = append(out, e)
		}
	}
	return out
}

func (l *eventLog) subscribe() (int, <-chan Event) {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	l.nextSub++
	ch := make(chan Event, 64)
	l.subs[l.nextSub] = ch
	return l.nextSub, ch
}

func (l *eventLog) unsubscribe(id int) {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	if ch, ok := l.subs[id]; ok {
		delete(l.subs, id)
		close(ch)
	}
}

// Subscribe registers a listener for new events. The channel is closed by
// Unsubscribe.
func (s *Simulation) Subscribe() (int, <-chan Event) { return s.events.subscribe() }

// Unsubscribe removes a listener.
func (s *Simulation) Unsubscribe(id int) { s.events.unsubscribe(id) }

// Events returns up to limit recent events, optionally of one category.
func (s *Simulation) Events(limit int, cat Category) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events.recent(limit, cat)
}

// EventsSince returns every retained event with a sequence above seq.
func (s *Simulation) EventsSince(seq uint64) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events.since(seq)
}
