package tracker

import "github.com/qaanalytics/qaanalytics/pkg/types"

// Excursion describes how far a value escaped its acceptance range.
// It is implemented only by AboveMax and BelowMin.
type Excursion interface {
	Direction() types.Direction
	Magnitude() float64
	excursion()
}

// AboveMax is a value that exceeded the Max boundary by Excess.
type AboveMax struct {
	Excess float64
}

func (AboveMax) Direction() types.Direction { return types.Above }
func (a AboveMax) Magnitude() float64       { return a.Excess }
func (AboveMax) excursion()                 {}

// BelowMin is a value that fell short of the Min boundary by Deficit.
type BelowMin struct {
	Deficit float64
}

func (BelowMin) Direction() types.Direction { return types.Below }
func (b BelowMin) Magnitude() float64       { return b.Deficit }
func (BelowMin) excursion()                 {}

// Deviation is the closest-to-boundary out-of-range value observed so far for
// one element of one check.
type Deviation struct {
	Value     float64
	Excursion Excursion
}

// excursionOf returns the excursion of value against [min, max], or nil if
// value lies inside the range.
func excursionOf(value, max, min float64) Excursion {
	switch {
	case value > max:
		return AboveMax{Excess: value - max}
	case value < min:
		return BelowMin{Deficit: min - value}
	default:
		return nil
	}
}

// merge applies the retry merge rule and returns the deviation to keep.
//
// A candidate on the same side replaces the prior one only when strictly
// closer to its limit. A candidate on the opposite side replaces it only when
// its own distance is strictly smaller than the prior magnitude. Ties keep the
// earlier observation.
func merge(prior Deviation, value, max, min float64) Deviation {
	switch p := prior.Excursion.(type) {
	case AboveMax:
		if excess := value - max; excess > 0 {
			if excess < p.Excess {
				return Deviation{Value: value, Excursion: AboveMax{Excess: excess}}
			}
			return prior
		}
		if deficit := min - value; deficit >= 0 && deficit < p.Excess {
			return Deviation{Value: value, Excursion: BelowMin{Deficit: deficit}}
		}
		return prior

	case BelowMin:
		if deficit := min - value; deficit > 0 {
			if deficit < p.Deficit {
				return Deviation{Value: value, Excursion: BelowMin{Deficit: deficit}}
			}
			return prior
		}
		if excess := value - max; excess >= 0 && excess < p.Deficit {
			return Deviation{Value: value, Excursion: AboveMax{Excess: excess}}
		}
		return prior

	default:
		return prior
	}
}
