package types

import "fmt"

// Tier is one of the five ordered rows of a range block.
// The numeric value is the row offset from the block's top row.
type Tier int

const (
	TierMax Tier = iota
	TierUpperMid
	TierMedian
	TierLowerMid
	TierMin
)

// TierCount is the number of contiguous tier rows in every range block.
const TierCount = 5

// Tiers lists every tier in row order.
var Tiers = [TierCount]Tier{TierMax, TierUpperMid, TierMedian, TierLowerMid, TierMin}

func (t Tier) String() string {
	switch t {
	case TierMax:
		return "max"
	case TierUpperMid:
		return "upper_mid"
	case TierMedian:
		return "median"
	case TierLowerMid:
		return "lower_mid"
	case TierMin:
		return "min"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Valid reports whether t addresses one of the five tier rows.
func (t Tier) Valid() bool {
	return t >= TierMax && t <= TierMin
}

// Direction is the side of the acceptance range an out-of-range value fell on.
type Direction int

const (
	Above Direction = iota + 1
	Below
)

func (d Direction) String() string {
	switch d {
	case Above:
		return "above"
	case Below:
		return "below"
	default:
		return "none"
	}
}

// Comparison is the tri-state result of comparing a value against a boundary.
type Comparison int

const (
	CompareBelow Comparison = iota - 1
	CompareWithin
	CompareAbove
)

func (c Comparison) String() string {
	switch c {
	case CompareBelow:
		return "below"
	case CompareWithin:
		return "within"
	case CompareAbove:
		return "above"
	default:
		return fmt.Sprintf("comparison(%d)", int(c))
	}
}
