package economy

import "fmt"

// SaleTerms carries farm conditions that adjust the milk price.
type SaleTerms struct {
	ShedCondition float64 // 0..100
	RoboticShed   bool
	PremiumBonus  float64 // fractional uplift from technology
}

// PoorShedCondition is the shed condition below which milk is discounted.
const PoorShedCondition = 70.0

// Sale is the outcome of a trade.
type Sale struct {
	Commodity Commodity `json:"commodity"`
	Quantity  float64   `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
	Total     float64   `json:"total"`
	Contract  string    `json:"contract,omitempty"`
}

// MilkQuote prices qty litres under the active contract or the spot price.
func (m *Market) MilkQuote(qty float64, terms SaleTerms) Sale {
	s := Sale{Commodity: Milk, Quantity: qty, UnitPrice: m.Price(Milk)}
	if c, ok := m.ActiveContract(Milk); ok {
		s.Contract = c.ID
		s.UnitPrice = c.BasePrice + c.Premium
		if c.QualityBonus && terms.RoboticShed {
			s.UnitPrice += QualityBonus
		}
		if c.VolumeBonus && qty > VolumeThreshold {
			s.UnitPrice += VolumeBonus
		}
	}
	if terms.PremiumBonus > 0 {
		s.UnitPrice *= 1 + terms.PremiumBonus
	}
	s.Total = qty * s.UnitPrice
	if terms.ShedCondition < PoorShedCondition {
		s.Total *= 0.9
	}
	return s
}

// SellMilk sells qty litres from the wallet. A zero quantity sells the whole
// inventory. Nothing changes when the sale is rejected.
func (m *Market) SellMilk(w *Wallet, qty float64, terms SaleTerms) (Sale, error) {
	if qty < 0 {
		return Sale{}, fmt.Errorf("%w: %.1f L", ErrInvalidQuantity, qty)
	}
	if qty == 0 {
		qty = w.Milk
	}
	if qty > w.Milk {
		return Sale{}, fmt.Errorf("%w: %.1f L requested, %.1f L held", ErrInsufficientInventory, qty, w.Milk)
	}
	s := m.MilkQuote(qty, terms)
	w.Milk -= qty
	w.Credit(s.Total)
	return s, nil
}

// FeedQuote prices qty kg under the active contract or the spot price.
func (m *Market) FeedQuote(qty float64) Sale {
	s := Sale{Commodity: Feed, Quantity: qty, UnitPrice: m.Price(Feed)}
	if c, ok := m.ActiveContract(Feed); ok && qty >= c.MinimumOrder {
		s.Contract = c.ID
		s.UnitPrice = c.BasePrice
		if qty > BulkThreshold {
			s.UnitPrice *= 1 - c.BulkDiscount
		}
	}
	s.Total = qty * s.UnitPrice
	return s
}

// BuyFeed buys qty kg into the wallet, bounded by cash and storage.
func (m *Market) BuyFeed(w *Wallet, qty, storage float64) (Sale, error) {
	if qty <= 0 {
		return Sale{}, fmt.Errorf("%w: %.1f kg", ErrInvalidQuantity, qty)
	}
	s := m.FeedQuote(qty)
	if !w.CanAfford(s.Total) {
		return Sale{}, fmt.Errorf("%w: feed costs %.2f, have %.2f", ErrInsufficientFunds, s.Total, w.Cash)
	}
	if w.Feed+qty > storage {
		return Sale{}, fmt.Errorf("%w: %.0f + %.0f kg over %.0f", ErrStorageFull, w.Feed, qty, storage)
	}
	w.Cash -= s.Total
	w.Feed += qty
	return s, nil
}
