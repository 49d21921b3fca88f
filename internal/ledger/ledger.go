// Package ledger tracks farm infrastructure: the milking shed, roads and
// feed storage, and the daily maintenance bill they run up.
package ledger

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/talgya/dairy-sim/internal/calendar"
	"github.com/talgya/dairy-sim/internal/economy"
	"github.com/talgya/dairy-sim/internal/weather"
)

var (
	ErrUnknownTier   = errors.New("unknown infrastructure tier")
	ErrInvalidTier   = errors.New("tier is not an upgrade")
	ErrUnknownKind   = errors.New("unknown building kind")
	ErrInvalidAmount = errors.New("amount must be positive")
)

// MaintenanceHour is when the daily bill is charged.
const MaintenanceHour = 6

// StorageUnitCost is the price per unit of added storage.
const StorageUnitCost = 5.0

// Farm is the infrastructure record.
type Farm struct {
	Name            string   `json:"name"`
	Region          string   `json:"region"`
	SizeHa          float64  `json:"size_ha"`
	Shed            ShedTier `json:"shed"`
	ShedCondition   float64  `json:"shed_condition"` // 0..100
	StorageCapacity float64  `json:"storage_capacity"`
	Road            RoadTier `json:"road"`
	Irrigation      bool     `json:"irrigation"`
	Compliance      float64  `json:"compliance"` // regulatory cost multiplier, 0 means 1
}

// Ledger owns the Farm and its maintenance accounting.
type Ledger struct {
	farm     Farm
	lastBill float64
}

// New creates a ledger with the shed in perfect condition.
func New(f Farm) *Ledger {
	if f.ShedCondition <= 0 {
		f.ShedCondition = 100
	}
	return &Ledger{farm: f}
}

// Farm returns a copy of the infrastructure record.
func (l *Ledger) Farm() Farm { return l.farm }

// MilkingCapacity is the number of cows the shed handles per milking.
func (l *Ledger) MilkingCapacity() int { return l.farm.Shed.Capacity() }

// LastBill is the most recent daily maintenance charge.
func (l *Ledger) LastBill() float64 { return l.lastBill }

// DailyCost is the maintenance bill for one day.
func (l *Ledger) DailyCost(pastureUpkeep float64) float64 {
	cost := l.farm.SizeHa*2 +
		l.farm.Shed.Upkeep() +
		l.farm.StorageCapacity*0.01 +
		pastureUpkeep
	if l.farm.ShedCondition < 50 {
		cost *= 1.5
	}
	if l.farm.Compliance > 0 {
		cost *= l.farm.Compliance
	}
	return cost
}

// Accrue charges the daily bill at MaintenanceHour and wears the shed. It
// returns the amount charged, zero on other hours.
func (l *Ledger) Accrue(t calendar.Time, w *economy.Wallet, fx weather.Effects, pastureUpkeep float64) float64 {
	if t.Hour != MaintenanceHour {
		return 0
	}
	bill := l.DailyCost(pastureUpkeep)
	w.Charge(bill)
	l.lastBill = bill

	wear := fx.BuildingWear
	if wear <= 0 {
		wear = 1
	}
	cond := l.farm.ShedCondition - 0.05*wear*l.farm.Road.WearMultiplier()
	if !w.CashWarning() {
		cond += 0.1
	}
	l.farm.ShedCondition = max(0, min(100, cond))

	if w.CashWarning() {
		slog.Warn("maintenance overdrew the account",
			"bill", humanize.CommafWithDigits(bill, 2),
			"cash", humanize.CommafWithDigits(w.Cash, 2),
		)
	}
	return bill
}

// RegulationStep is the cost increase of each new regulation.
const RegulationStep = 1.2

// ApplyRegulation raises the running cost of the farm permanently.
func (l *Ledger) ApplyRegulation() float64 {
	if l.farm.Compliance <= 0 {
		l.farm.Compliance = 1
	}
	l.farm.Compliance *= RegulationStep
	return l.farm.Compliance
}

// Kind names an upgradable building.
type Kind string

const (
	KindShed Kind = "shed"
	KindRoad Kind = "road"
)

// UpgradeCost quotes moving kind to tier. Only strictly higher tiers are
// accepted.
func (l *Ledger) UpgradeCost(kind Kind, tier string) (float64, error) {
	switch kind {
	case KindShed:
		t, err := ParseShedTier(tier)
		if err != nil {
			return 0, err
		}
		if t <= l.farm.Shed {
			return 0, fmt.Errorf("%w: shed %s to %s", ErrInvalidTier, l.farm.Shed.Name(), t.Name())
		}
		return t.Cost(), nil
	case KindRoad:
		t, err := ParseRoadTier(tier)
		if err != nil {
			return 0, err
		}
		if t <= l.farm.Road {
			return 0, fmt.Errorf("%w: road %s to %s", ErrInvalidTier, l.farm.Road.Name(), t.Name())
		}
		return t.Cost(), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Upgrade pays for and installs a higher tier, restoring condition.
func (l *Ledger) Upgrade(kind Kind, tier string, w *economy.Wallet) (float64, error) {
	cost, err := l.UpgradeCost(kind, tier)
	if err != nil {
		return 0, err
	}
	if err := w.Spend(cost); err != nil {
		return 0, err
	}
	switch kind {
	case KindShed:
		l.farm.Shed, _ = ParseShedTier(tier)
		l.farm.ShedCondition = 100
	case KindRoad:
		l.farm.Road, _ = ParseRoadTier(tier)
	}
	slog.Info("infrastructure upgraded", "kind", string(kind), "tier", tier, "cost", humanize.Commaf(cost))
	return cost, nil
}

// ExpandStorage adds amount units of storage at StorageUnitCost each.
func (l *Ledger) ExpandStorage(amount float64, w *economy.Wallet) (float64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: %.0f", ErrInvalidAmount, amount)
	}
	cost := amount * StorageUnitCost
	if err := w.Spend(cost); err != nil {
		return 0, err
	}
	l.farm.StorageCapacity += amount
	return cost, nil
}

// State is the serialisable form of a Ledger.
type State struct {
	Farm     Farm    `json:"farm"`
	LastBill float64 `json:"last_bill"`
}

// Save captures the ledger.
func (l *Ledger) Save() State { return State{Farm: l.farm, LastBill: l.lastBill} }

// Restore rebuilds a ledger from saved state.
func Restore(st State) *Ledger { return &Ledger{farm: st.Farm, lastBill: st.LastBill} }
