package economy

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrStorageFull           = errors.New("storage capacity exceeded")
	ErrInvalidQuantity       = errors.New("invalid quantity")
)

// Wallet is the farm-wide resource pool. Only Cash may go negative, and
// only through Charge.
type Wallet struct {
	Cash       float64 `json:"cash"`
	Milk       float64 `json:"milk"` // litres
	Feed       float64 `json:"feed"` // kg
	Energy     float64 `json:"energy"`
	Reputation float64 `json:"reputation"`
}

// CashWarning reports an overdrawn wallet.
func (w *Wallet) CashWarning() bool { return w.Cash < 0 }

// CanAfford reports whether cash covers amount.
func (w *Wallet) CanAfford(amount float64) bool { return w.Cash >= amount }

// Spend debits amount, refusing when cash does not cover it.
func (w *Wallet) Spend(amount float64) error {
	if amount < 0 {
		return fmt.Errorf("%w: %.2f", ErrInvalidQuantity, amount)
	}
	if !w.CanAfford(amount) {
		return fmt.Errorf("%w: need %.2f, have %.2f", ErrInsufficientFunds, amount, w.Cash)
	}
	w.Cash -= amount
	return nil
}

// Charge debits an unavoidable cost. Cash may go negative.
func (w *Wallet) Charge(amount float64) {
	w.Cash -= amount
}

// Credit adds income.
func (w *Wallet) Credit(amount float64) {
	w.Cash += amount
}
