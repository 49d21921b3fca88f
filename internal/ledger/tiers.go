package ledger

import "fmt"

// ShedTier is the milking shed type.
type ShedTier uint8

const (
	ShedNone ShedTier = iota
	ShedBasic
	ShedHerringbone
	ShedRotary
	ShedRobotic
)

// Name returns the tier id.
func (t ShedTier) Name() string {
	switch t {
	case ShedNone:
		return "none"
	case ShedBasic:
		return "basic"
	case ShedHerringbone:
		return "herringbone"
	case ShedRotary:
		return "rotary"
	case ShedRobotic:
		return "robotic"
	default:
		return "unknown"
	}
}

// Capacity is cows per milking.
func (t ShedTier) Capacity() int {
	switch t {
	case ShedBasic:
		return 100
	case ShedHerringbone:
		return 200
	case ShedRotary:
		return 500
	case ShedRobotic:
		return 1000
	default:
		return 0
	}
}

// Cost is the build price.
func (t ShedTier) Cost() float64 {
	switch t {
	case ShedBasic:
		return 20000
	case ShedHerringbone:
		return 75000
	case ShedRotary:
		return 200000
	case ShedRobotic:
		return 500000
	default:
		return 0
	}
}

// Upkeep is the daily running cost.
func (t ShedTier) Upkeep() float64 {
	switch t {
	case ShedBasic:
		return 50
	case ShedHerringbone:
		return 100
	case ShedRotary:
		return 150
	case ShedRobotic:
		return 300
	default:
		return 0
	}
}

// ParseShedTier maps an id to a ShedTier.
func ParseShedTier(name string) (ShedTier, error) {
	for t := ShedNone; t <= ShedRobotic; t++ {
		if t.Name() == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: shed %q", ErrUnknownTier, name)
}

func (t ShedTier) MarshalText() ([]byte, error) { return []byte(t.Name()), nil }

func (t *ShedTier) UnmarshalText(b []byte) error {
	v, err := ParseShedTier(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// RoadTier is the farm road surface.
type RoadTier uint8

const (
	RoadNone RoadTier = iota
	RoadBasic
	RoadMetal
	RoadSealed
	RoadExcellent
)

// Name returns the tier id.
func (t RoadTier) Name() string {
	switch t {
	case RoadNone:
		return "none"
	case RoadBasic:
		return "basic"
	case RoadMetal:
		return "metal"
	case RoadSealed:
		return "sealed"
	case RoadExcellent:
		return "excellent"
	default:
		return "unknown"
	}
}

// Cost is the build price.
func (t RoadTier) Cost() float64 {
	switch t {
	case RoadBasic:
		return 5000
	case RoadMetal:
		return 15000
	case RoadSealed:
		return 30000
	case RoadExcellent:
		return 50000
	default:
		return 0
	}
}

// WearMultiplier scales daily shed wear; better roads mean less.
func (t RoadTier) WearMultiplier() float64 {
	switch t {
	case RoadNone:
		return 1.2
	case RoadBasic:
		return 1.1
	case RoadMetal:
		return 1.0
	case RoadSealed:
		return 0.9
	case RoadExcellent:
		return 0.8
	default:
		return 1.0
	}
}

// ParseRoadTier maps an id to a RoadTier.
func ParseRoadTier(name string) (RoadTier, error) {
	for t := RoadNone; t <= RoadExcellent; t++ {
		if t.Name() == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: road %q", ErrUnknownTier, name)
}

func (t RoadTier) MarshalText() ([]byte, error) { return []byte(t.Name()), nil }

func (t *RoadTier) UnmarshalText(b []byte) error {
	v, err := ParseRoadTier(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
