package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/talgya/dairy-sim/internal/economy"
	"github.com/talgya/dairy-sim/internal/herd"
	"github.com/talgya/dairy-sim/internal/ledger"
	"github.com/talgya/dairy-sim/internal/pasture"
	"github.com/talgya/dairy-sim/internal/tech"
	"github.com/talgya/dairy-sim/internal/weather"
)

// do runs fn under the simulation lock once the simulation is running. Any
// error becomes a Rejection; fn must not mutate state before it can fail.
func (s *Simulation) do(cmd string, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseRunning {
		return s.reject(cmd, ErrNotRunning)
	}
	if err := fn(); err != nil {
		return s.reject(cmd, err)
	}
	s.refreshFlags()
	return nil
}

func (s *Simulation) reject(cmd string, err error) *Rejection {
	r := newRejection(cmd, err)
	slog.Debug("command rejected", "command", cmd, "reason", r.Reason)
	if s.opts.OnReject != nil {
		s.opts.OnReject(r)
	}
	return r
}

// ── Herd ───────────────────────────────────────────────────────────────

// FeedHerd feeds every animal from the feed store. A shortfall is not a
// rejection: it empties the store and marks the herd underfed.
func (s *Simulation) FeedHerd() (herd.FeedResult, error) {
	var res herd.FeedResult
	err := s.do("feed_herd", func() error {
		res = s.feed()
		return nil
	})
	return res, err
}

func (s *Simulation) feed() herd.FeedResult {
	before := s.wallet.Feed
	res := s.herd.Feed(&s.wallet.Feed, modifiers(s.tree.Bonus()))
	s.status.LastFeeding = res
	s.status.FeedShortfall = res.Shortfall > 0
	if res.Shortfall > 0 {
		s.emit(CategoryHerd, fmt.Sprintf("Feed ran out: %s kg short of %s kg",
			humanize.CommafWithDigits(res.Shortfall, 0), humanize.CommafWithDigits(res.Required, 0)))
	}
	slog.Debug("herd fed", "required", res.Required, "store_before", before, "store_after", s.wallet.Feed)
	return res
}

// MilkHerd milks every eligible cow the shed can handle.
func (s *Simulation) MilkHerd() (herd.MilkResult, error) {
	var res herd.MilkResult
	err := s.do("milk_herd", func() error {
		res = s.milk()
		return nil
	})
	return res, err
}

func (s *Simulation) milk() herd.MilkResult {
	res := s.herd.Milk(s.ledger.MilkingCapacity(), s.weather.Effects(), modifiers(s.tree.Bonus()))
	s.wallet.Milk += res.Litres
	s.stats.Today.MilkLitres += res.Litres
	s.status.LastMilking = res
	if res.Skipped > 0 {
		slog.Debug("shed capacity reached", "milked", res.Milked, "skipped", res.Skipped)
	}
	return res
}

// BuyCattle buys qty animals of breedID and places them on pasture.
func (s *Simulation) BuyCattle(breedID string, qty int) ([]int, error) {
	var ids []int
	err := s.do("buy_cattle", func() error {
		cost, err := herd.PurchaseCost(breedID, qty)
		if err != nil {
			return err
		}
		if err := s.wallet.Spend(cost); err != nil {
			return err
		}
		ids, err = s.herd.Buy(breedID, qty, s.field)
		if err != nil {
			s.wallet.Credit(cost)
			return err
		}
		s.stats.Today.CapitalSpend += cost
		s.emit(CategoryCommand, fmt.Sprintf("Bought %d %s cows for $%s", qty, breedID, humanize.Commaf(cost)))
		return nil
	})
	return ids, err
}

// SellCattle sells animal id and returns the proceeds.
func (s *Simulation) SellCattle(id int) (float64, error) {
	var proceeds float64
	err := s.do("sell_cattle", func() error {
		p, err := s.herd.Sell(id, s.field)
		if err != nil {
			return err
		}
		proceeds = p
		s.wallet.Credit(p)
		s.stats.Today.Revenue += p
		s.emit(CategoryCommand, fmt.Sprintf("Sold cow #%d for $%s", id, humanize.CommafWithDigits(p, 2)))
		return nil
	})
	return proceeds, err
}

// MoveCattle moves animal id onto pasture pastureID.
func (s *Simulation) MoveCattle(id, pastureID int) error {
	return s.do("move_cattle", func() error {
		a, err := s.herd.Get(id)
		if err != nil {
			return err
		}
		if a.PastureID == pastureID {
			return nil
		}
		if err := s.field.AddCattle(pastureID, 1); err != nil {
			return err
		}
		prev, _ := s.herd.Reassign(id, pastureID)
		s.field.Release(prev)
		return nil
	})
}

// ── Market ─────────────────────────────────────────────────────────────

// SellMilk sells qty litres, or the whole inventory when qty is zero.
func (s *Simulation) SellMilk(qty float64) (economy.Sale, error) {
	var sale economy.Sale
	err := s.do("sell_milk", func() error {
		var err error
		sale, err = s.sellMilk(qty)
		return err
	})
	return sale, err
}

func (s *Simulation) sellMilk(qty float64) (economy.Sale, error) {
	if math.IsNaN(qty) {
		return economy.Sale{}, fmt.Errorf("%w: quantity", ErrInvalidArgument)
	}
	sale, err := s.market.SellMilk(&s.wallet, qty, s.saleTerms(s.tree.Bonus()))
	if err != nil {
		return sale, err
	}
	s.status.LastSale = sale
	s.stats.Today.MilkSold += sale.Quantity
	s.stats.Today.Revenue += sale.Total
	if sale.Quantity > 0 {
		s.emit(CategoryMarket, fmt.Sprintf("Sold %s L of milk for $%s",
			humanize.CommafWithDigits(sale.Quantity, 1), humanize.CommafWithDigits(sale.Total, 2)))
	}
	return sale, nil
}

// BuyFeed buys qty kg of feed into storage.
func (s *Simulation) BuyFeed(qty float64) (economy.Sale, error) {
	var sale economy.Sale
	err := s.do("buy_feed", func() error {
		var err error
		sale, err = s.buyFeed(qty)
		return err
	})
	return sale, err
}

func (s *Simulation) buyFeed(qty float64) (economy.Sale, error) {
	if math.IsNaN(qty) {
		return economy.Sale{}, fmt.Errorf("%w: quantity", ErrInvalidArgument)
	}
	sale, err := s.market.BuyFeed(&s.wallet, qty, s.ledger.Farm().StorageCapacity)
	if err != nil {
		return sale, err
	}
	s.stats.Today.FeedCost += sale.Total
	s.status.FeedShortfall = false
	s.emit(CategoryMarket, fmt.Sprintf("Bought %s kg of feed for $%s",
		humanize.CommafWithDigits(qty, 0), humanize.CommafWithDigits(sale.Total, 2)))
	return sale, nil
}

// ActivateContract signs supply contract id.
func (s *Simulation) ActivateContract(id string) error {
	return s.do("activate_contract", func() error {
		if err := s.market.ActivateContract(id); err != nil {
			return err
		}
		s.emit(CategoryMarket, "Signed contract "+id)
		return nil
	})
}

// DeactivateContract ends supply contract id.
func (s *Simulation) DeactivateContract(id string) error {
	return s.do("deactivate_contract", func() error {
		return s.market.DeactivateContract(id)
	})
}

// ── Infrastructure ─────────────────────────────────────────────────────

// UpgradeBuilding moves a shed or road to a higher tier. A new shed also
// brings its shed technologies.
func (s *Simulation) UpgradeBuilding(kind, tier string) (float64, error) {
	var cost float64
	err := s.do("upgrade_building", func() error {
		c, err := s.ledger.Upgrade(ledger.Kind(kind), tier, &s.wallet)
		if err != nil {
			return err
		}
		cost = c
		if ledger.Kind(kind) == ledger.KindShed {
			s.tree.Grant(tech.ShedTechnologies(tier)...)
		}
		s.stats.Today.CapitalSpend += c
		s.emit(CategoryLedger, fmt.Sprintf("Upgraded %s to %s for $%s", kind, tier, humanize.Commaf(c)))
		return nil
	})
	return cost, err
}

// ExpandStorage adds feed storage.
func (s *Simulation) ExpandStorage(amount float64) (float64, error) {
	var cost float64
	err := s.do("expand_storage", func() error {
		if math.IsNaN(amount) {
			return fmt.Errorf("%w: amount", ErrInvalidArgument)
		}
		c, err := s.ledger.ExpandStorage(amount, &s.wallet)
		if err != nil {
			return err
		}
		cost = c
		s.stats.Today.CapitalSpend += c
		s.emit(CategoryLedger, fmt.Sprintf("Added %s units of storage", humanize.Commaf(amount)))
		return nil
	})
	return cost, err
}

// ── Pasture ────────────────────────────────────────────────────────────

// pastureAction quotes an action, checks the wallet, applies it and pays.
func (s *Simulation) pastureAction(name string, id int, quote, apply func() (float64, error)) (float64, error) {
	var cost float64
	err := s.do(name, func() error {
		c, err := quote()
		if err != nil {
			return err
		}
		if !s.wallet.CanAfford(c) {
			return fmt.Errorf("%w: need %.2f, have %.2f", economy.ErrInsufficientFunds, c, s.wallet.Cash)
		}
		if c, err = apply(); err != nil {
			return err
		}
		s.wallet.Charge(c)
		cost = c
		s.stats.Today.CapitalSpend += c
		s.emit(CategoryPasture, fmt.Sprintf("Paddock %d: %s ($%s)", id, name, humanize.Commaf(c)))
		return nil
	})
	return cost, err
}

// FertilizePasture applies fertiliser kind to pasture id.
func (s *Simulation) FertilizePasture(id int, kind string) (float64, error) {
	return s.pastureAction("fertilize_pasture", id,
		func() (float64, error) { return s.field.FertilizeCost(id, kind) },
		func() (float64, error) { return s.field.Fertilize(id, kind) })
}

// ReseedPasture reseeds pasture id with seed mix kind.
func (s *Simulation) ReseedPasture(id int, kind string) (float64, error) {
	return s.pastureAction("reseed_pasture", id,
		func() (float64, error) { return s.field.ReseedCost(id, kind) },
		func() (float64, error) { return s.field.Reseed(id, kind) })
}

// UpgradeFencing raises pasture id's fencing to tier.
func (s *Simulation) UpgradeFencing(id int, tier string) (float64, error) {
	f, err := pasture.ParseFencing(tier)
	if err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		return 0, s.reject("upgrade_fencing", err)
	}
	return s.pastureAction("upgrade_fencing", id,
		func() (float64, error) { return s.field.FencingCost(id, f) },
		func() (float64, error) { return s.field.UpgradeFencing(id, f) })
}

// DrainPasture drains pugged pasture id.
func (s *Simulation) DrainPasture(id int) (float64, error) {
	return s.pastureAction("drain_pasture", id,
		func() (float64, error) { return s.field.DrainQuote(id) },
		func() (float64, error) { return s.field.Drain(id) })
}

// ── Research ───────────────────────────────────────────────────────────

// StartResearch begins researching technology id.
func (s *Simulation) StartResearch(id string) error {
	return s.do("start_research", func() error {
		if err := s.tree.StartResearch(id); err != nil {
			return err
		}
		s.emit(CategoryTech, "Research started: "+id)
		return nil
	})
}

// QueueResearch queues technology id to start after the current project.
func (s *Simulation) QueueResearch(id string) error {
	return s.do("queue_research", func() error { return s.tree.Enqueue(id) })
}

// PurchaseTechnology pays for a researched technology and activates it.
func (s *Simulation) PurchaseTechnology(id string) (float64, error) {
	var cost float64
	err := s.do("purchase_technology", func() error {
		c, err := s.tree.Purchase(id, &s.wallet)
		if err != nil {
			return err
		}
		cost = c
		s.stats.Today.CapitalSpend += c
		s.emit(CategoryTech, fmt.Sprintf("Installed %s for $%s", id, humanize.Commaf(c)))
		return nil
	})
	return cost, err
}

// ── Control ────────────────────────────────────────────────────────────

// SetTimeScale sets the wall-to-game speed multiplier, clamped to
// [MinTimeScale, MaxTimeScale]. It returns the applied scale.
func (s *Simulation) SetTimeScale(scale float64) (float64, error) {
	var applied float64
	err := s.do("set_time_scale", func() error {
		if math.IsNaN(scale) {
			return fmt.Errorf("%w: time scale", ErrInvalidArgument)
		}
		s.timeScale = math.Max(MinTimeScale, math.Min(MaxTimeScale, scale))
		applied = s.timeScale
		slog.Info("time scale changed", "scale", applied)
		return nil
	})
	return applied, err
}

// Pause freezes Tick. Queries and commands still work.
func (s *Simulation) Pause() error {
	return s.do("pause", func() error {
		s.paused = true
		return nil
	})
}

// Resume undoes Pause.
func (s *Simulation) Resume() error {
	return s.do("resume", func() error {
		s.paused = false
		return nil
	})
}

// TriggerWeatherEvent starts extreme event kind now.
func (s *Simulation) TriggerWeatherEvent(kind string) error {
	return s.do("trigger_weather_event", func() error {
		k, err := weather.ParseEventKind(kind)
		if err != nil {
			return err
		}
		if err := s.weather.Trigger(k, s.clock.Now()); err != nil {
			return err
		}
		s.emit(CategoryWeather, fmt.Sprintf("Extreme weather: %s", k))
		return nil
	})
}

// ── Envelope ───────────────────────────────────────────────────────────

// Command is the wire form of a player command.
type Command struct {
	Type      string  `json:"type"`
	Breed     string  `json:"breed,omitempty"`
	Quantity  float64 `json:"quantity,omitempty"`
	AnimalID  int     `json:"animal_id,omitempty"`
	PastureID int     `json:"pasture_id,omitempty"`
	Kind      string  `json:"kind,omitempty"`
	Tier      string  `json:"tier,omitempty"`
	ID        string  `json:"id,omitempty"`
	Scale     float64 `json:"scale,omitempty"`
}

// Execute dispatches c to its command method and returns the method's result.
func (s *Simulation) Execute(c Command) (any, error) {
	switch c.Type {
	case "feed_herd":
		return s.FeedHerd()
	case "milk_herd":
		return s.MilkHerd()
	case "buy_cattle":
		if c.Quantity != math.Trunc(c.Quantity) {
			return nil, s.lockedReject(c.Type, fmt.Errorf("%w: quantity must be whole", ErrInvalidArgument))
		}
		breed := c.Breed
		if breed == "" {
			breed = herd.DefaultBreed
		}
		return s.BuyCattle(breed, int(c.Quantity))
	case "sell_cattle":
		return s.SellCattle(c.AnimalID)
	case "move_cattle":
		return nil, s.MoveCattle(c.AnimalID, c.PastureID)
	case "sell_milk":
		return s.SellMilk(c.Quantity)
	case "buy_feed":
		return s.BuyFeed(c.Quantity)
	case "upgrade_building":
		return s.UpgradeBuilding(c.Kind, c.Tier)
	case "expand_storage":
		return s.ExpandStorage(c.Quantity)
	case "fertilize_pasture":
		return s.FertilizePasture(c.PastureID, c.Kind)
	case "reseed_pasture":
		return s.ReseedPasture(c.PastureID, c.Kind)
	case "upgrade_fencing":
		return s.UpgradeFencing(c.PastureID, c.Tier)
	case "drain_pasture":
		return s.DrainPasture(c.PastureID)
	case "activate_contract":
		return nil, s.ActivateContract(c.ID)
	case "deactivate_contract":
		return nil, s.DeactivateContract(c.ID)
	case "start_research":
		return nil, s.StartResearch(c.ID)
	case "queue_research":
		return nil, s.QueueResearch(c.ID)
	case "purchase_technology":
		return s.PurchaseTechnology(c.ID)
	case "set_time_scale":
		return s.SetTimeScale(c.Scale)
	case "pause":
		return nil, s.Pause()
	case "resume":
		return nil, s.Resume()
	default:
		return nil, s.lockedReject(c.Type, fmt.Errorf("%w: %q", ErrUnknownCommand, c.Type))
	}
}

func (s *Simulation) lockedReject(cmd string, err error) *Rejection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reject(cmd, err)
}
