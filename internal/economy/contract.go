package economy

import (
	"errors"
	"fmt"
)

// ErrUnknownContract is returned for a contract id that does not exist.
var ErrUnknownContract = errors.New("unknown contract")

// Contract is a supply agreement that overrides the spot price.
type Contract struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Commodity    Commodity `json:"commodity"`
	BasePrice    float64   `json:"base_price"`
	Premium      float64   `json:"premium"`
	QualityBonus bool      `json:"quality_bonus"` // +0.05/L from a robotic shed
	VolumeBonus  bool      `json:"volume_bonus"`  // +0.02/L above VolumeThreshold
	BulkDiscount float64   `json:"bulk_discount"`
	MinimumOrder float64   `json:"minimum_order"`
	PaymentTerms string    `json:"payment_terms"`
	Active       bool      `json:"active"`
}

// Contract bonus thresholds.
const (
	QualityBonus    = 0.05
	VolumeBonus     = 0.02
	VolumeThreshold = 10000.0 // litres
	BulkThreshold   = 5000.0  // kg
)

func defaultContracts() []*Contract {
	return []*Contract{
		{ID: "fonterra", Name: "Fonterra Co-operative", Commodity: Milk, BasePrice: 0.68, Premium: 0.03,
			QualityBonus: true, VolumeBonus: true, PaymentTerms: "monthly"},
		{ID: "open-country", Name: "Open Country Dairy", Commodity: Milk, BasePrice: 0.66, Premium: 0.02,
			PaymentTerms: "weekly"},
		{ID: "rural-feed", Name: "Rural Feed Supplies", Commodity: Feed, BasePrice: 0.23,
			BulkDiscount: 0.15, MinimumOrder: 1000, PaymentTerms: "on-delivery"},
	}
}

// Contracts returns copies of every contract.
func (m *Market) Contracts() []Contract {
	out := make([]Contract, len(m.contracts))
	for i, c := range m.contracts {
		out[i] = *c
	}
	return out
}

func (m *Market) contract(id string) (*Contract, error) {
	for _, c := range m.contracts {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownContract, id)
}

// ActivateContract makes id the active contract for its commodity.
func (m *Market) ActivateContract(id string) error {
	target, err := m.contract(id)
	if err != nil {
		return err
	}
	for _, c := range m.contracts {
		if c.Commodity == target.Commodity {
			c.Active = false
		}
	}
	target.Active = true
	return nil
}

// DeactivateContract returns the commodity to spot pricing.
func (m *Market) DeactivateContract(id string) error {
	c, err := m.contract(id)
	if err != nil {
		return err
	}
	c.Active = false
	return nil
}

// ActiveContract returns the active contract for commodity c, if any.
func (m *Market) ActiveContract(c Commodity) (Contract, bool) {
	for _, k := range m.contracts {
		if k.Commodity == c && k.Active {
			return *k, true
		}
	}
	return Contract{}, false
}
