package classify

import (
	"fmt"

	"github.com/qaanalytics/qaanalytics/loader/internal/precision"
	"github.com/qaanalytics/qaanalytics/pkg/types"
)

// Boundary is one boundary cell of a range block: its value and the
// precision declared by its number format.
type Boundary struct {
	Value float64
	Spec  precision.Spec
}

// Range holds the five boundary cells of a block, indexed by tier.
type Range [types.TierCount]Boundary

// At returns the boundary of tier t.
func (r Range) At(t types.Tier) Boundary {
	return r[t]
}

// Outcome is the result of classifying one reading.
type Outcome struct {
	// Tier is the destination row when Pending is false.
	Tier types.Tier
	// Value is the reading rounded to the destination boundary's precision.
	// For pending outcomes it is rounded to the escaped limit's precision.
	Value float64
	// Pending is true when the reading is out of range and must be resolved
	// across retries.
	Pending bool
	// Direction is set for pending outcomes.
	Direction types.Direction
}

// Classify evaluates raw against r.
//
// Every comparison rounds the raw reading to the precision of the boundary it
// is compared with, so each boundary's format governs its own tolerance.
func Classify(r Range, raw string) (Outcome, error) {
	median := r.At(types.TierMedian)
	v, err := precision.Round(median.Spec, raw)
	if err != nil {
		return Outcome{}, fmt.Errorf("classify: %w", err)
	}

	switch precision.Compare(median.Spec, v, median.Value) {
	case types.CompareWithin:
		return Outcome{Tier: types.TierMedian, Value: v}, nil

	case types.CompareAbove:
		return split(r, raw, types.TierMax, types.TierUpperMid, types.Above)

	default:
		return split(r, raw, types.TierMin, types.TierLowerMid, types.Below)
	}
}

// split classifies a reading already known to lie on the dir side of the
// median. limit is Max or Min, mid is UpperMid or LowerMid.
func split(r Range, raw string, limit, mid types.Tier, dir types.Direction) (Outcome, error) {
	away := types.CompareAbove
	if dir == types.Below {
		away = types.CompareBelow
	}

	lb := r.At(limit)
	lv, err := precision.Round(lb.Spec, raw)
	if err != nil {
		return Outcome{}, fmt.Errorf("classify: %w", err)
	}
	if precision.Compare(lb.Spec, lv, lb.Value) == away {
		return Outcome{Tier: limit, Value: lv, Pending: true, Direction: dir}, nil
	}

	mb := r.At(mid)
	mv, err := precision.Round(mb.Spec, raw)
	if err != nil {
		return Outcome{}, fmt.Errorf("classify: %w", err)
	}
	if precision.Compare(mb.Spec, mv, mb.Value) == away {
		return Outcome{Tier: limit, Value: lv}, nil
	}
	return Outcome{Tier: mid, Value: mv}, nil
}
