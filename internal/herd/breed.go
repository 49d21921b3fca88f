package herd

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownBreed is returned for a breed id not in the catalogue.
var ErrUnknownBreed = errors.New("unknown breed")

// Breed is an immutable template shared by every animal of that breed.
type Breed struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	MilkYield   float64 `json:"milk_yield"`   // litres/day
	FeedKg      float64 `json:"feed_kg"`      // kg/day
	Cost        float64 `json:"cost"`         // purchase price
	Temperament string  `json:"temperament"`
	Longevity   int     `json:"longevity"` // productive years
}

var breeds = map[string]Breed{
	"friesian":  {ID: "friesian", Name: "Holstein-Friesian", MilkYield: 25, FeedKg: 18, Cost: 1500, Temperament: "docile", Longevity: 6},
	"jersey":    {ID: "jersey", Name: "Jersey", MilkYield: 18, FeedKg: 14, Cost: 1300, Temperament: "gentle", Longevity: 7},
	"crossbred": {ID: "crossbred", Name: "Crossbred", MilkYield: 22, FeedKg: 16, Cost: 1400, Temperament: "mixed", Longevity: 6},
}

// DefaultBreed stocks scenario herds.
const DefaultBreed = "friesian"

// LookupBreed returns the breed template for id.
func LookupBreed(id string) (Breed, error) {
	b, ok := breeds[id]
	if !ok {
		return Breed{}, fmt.Errorf("%w: %q", ErrUnknownBreed, id)
	}
	return b, nil
}

// Breeds lists the catalogue sorted by id.
func Breeds() []Breed {
	out := make([]Breed, 0, len(breeds))
	for _, b := range breeds {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
