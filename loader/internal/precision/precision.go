package precision

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/qaanalytics/qaanalytics/pkg/types"
)

// Spec is the rounding precision and comparison epsilon of one boundary cell.
// It is derived from the cell's number format at evaluation time, never stored.
type Spec struct {
	// Format is the number format string the Spec was derived from.
	Format string
	// Decimals is the number of fractional digits the format displays.
	Decimals int
	// Epsilon is the comparison tolerance: 0 for integer formats, otherwise
	// the smallest increment at Decimals (10^-Decimals).
	Epsilon float64
	// Parsed is false when Format is not a numeric pattern.
	Parsed bool
}

// Exact returns a Spec that compares by exact equality and never rounds.
func Exact(format string) Spec {
	return Spec{Format: format}
}

// Fixed returns a Spec for n fractional digits.
func Fixed(n int) Spec {
	s := Spec{Format: "0", Decimals: n, Parsed: true}
	if n > 0 {
		s.Format = "0." + strings.Repeat("0", n)
		s.Epsilon = math.Pow10(-n)
	}
	return s
}

// Parse derives a Spec from a spreadsheet number format such as "0.00",
// "#,##0.0" or "0.0_);[Red](0.0)". Only the first (positive) section is
// considered. A percent sign shifts the precision by two digits since the
// stored value is a fraction.
func Parse(format string) Spec {
	body := firstSection(format)

	var (
		seenPoint   bool
		placeholder bool
		decimals    int
		percent     bool
	)
	for _, c := range body {
		switch c {
		case '0', '#', '?':
			placeholder = true
			if seenPoint {
				decimals++
			}
		case '.':
			seenPoint = true
		case '%':
			percent = true
		case 'E', 'e':
			// Exponent digits are not fractional digits.
			seenPoint = false
		}
	}
	if !placeholder {
		return Exact(format)
	}
	if percent {
		decimals += 2
	}
	s := Fixed(decimals)
	s.Format = format
	return s
}

// firstSection returns the positive-number section of format with quoted
// literals, bracketed codes, escapes and padding characters removed.
func firstSection(format string) string {
	var b strings.Builder
	rs := []rune(format)
	for i := 0; i < len(rs); i++ {
		c := rs[i]
		switch c {
		case ';':
			return b.String()
		case '"':
			for i++; i < len(rs) && rs[i] != '"'; i++ {
			}
		case '[':
			for i++; i < len(rs) && rs[i] != ']'; i++ {
			}
		case '\\', '_', '*':
			i++ // skip the escaped, padded or repeated character
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// Round parses raw as a decimal and rounds it half-up to the Spec's precision.
// Negative results clamp to zero: readings are physical magnitudes.
// Unparsed specs keep the full value.
func Round(spec Spec, raw string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("precision: parse reading %q: %w", raw, err)
	}
	if spec.Parsed {
		d = d.Round(int32(spec.Decimals))
	}
	if d.IsNegative() {
		return 0, nil
	}
	v, _ := d.Float64()
	return v, nil
}

// Compare reports whether value is above, within or below boundary.
//
// Within means |value-boundary| < Epsilon. A zero Epsilon (integer formats or
// unparsed specs) compares by exact equality. Outside the tolerance band the
// sign of value-boundary decides. Operands are taken at their shortest
// decimal form, so a reading one display increment away from a boundary is
// never folded into the band by float representation error.
func Compare(spec Spec, value, boundary float64) types.Comparison {
	diff := decimal.NewFromFloat(value).Sub(decimal.NewFromFloat(boundary))
	if spec.Parsed && spec.Epsilon > 0 {
		if diff.Abs().LessThan(decimal.NewFromFloat(spec.Epsilon)) {
			return types.CompareWithin
		}
	} else if diff.IsZero() {
		return types.CompareWithin
	}
	if diff.IsPositive() {
		return types.CompareAbove
	}
	return types.CompareBelow
}
