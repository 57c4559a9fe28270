package precision

import (
	"testing"

	"github.com/qaanalytics/qaanalytics/pkg/types"
)

func TestParse(t *testing.T) {
	tests := []struct {
		format   string
		decimals int
		epsilon  float64
		parsed   bool
	}{
		{"0", 0, 0, true},
		{"0.0", 1, 0.1, true},
		{"0.00", 2, 0.01, true},
		{"#,##0.000", 3, 0.001, true},
		{"0.0_);[Red](0.0)", 1, 0.1, true},
		{`"mg/dL "0.00`, 2, 0.01, true},
		{"[Blue]0.0", 1, 0.1, true},
		{"0%", 2, 0.01, true},
		{"0.00E+00", 2, 0.01, true},
		{"General", 0, 0, false},
		{"@", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.format, func(t *testing.T) {
			s := Parse(tc.format)
			if s.Parsed != tc.parsed {
				t.Fatalf("Parsed = %v, want %v", s.Parsed, tc.parsed)
			}
			if s.Decimals != tc.decimals {
				t.Errorf("Decimals = %d, want %d", s.Decimals, tc.decimals)
			}
			if !almostEqual(s.Epsilon, tc.epsilon, 1e-12) {
				t.Errorf("Epsilon = %g, want %g", s.Epsilon, tc.epsilon)
			}
			if s.Format != tc.format {
				t.Errorf("Format = %q, want %q", s.Format, tc.format)
			}
		})
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		raw  string
		want float64
	}{
		{"half up", Fixed(1), "5.45", 5.5},
		{"half up at integer", Fixed(0), "2.5", 3},
		{"round down", Fixed(2), "1.234", 1.23},
		{"trim spaces", Fixed(1), "  7.06 ", 7.1},
		{"negative clamps", Fixed(1), "-0.4", 0},
		{"negative rounding to zero", Fixed(0), "-0.4", 0},
		{"unparsed keeps value", Exact("General"), "3.14159", 3.14159},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Round(tc.spec, tc.raw)
			if err != nil {
				t.Fatalf("Round() error = %v", err)
			}
			if !almostEqual(got, tc.want, 1e-9) {
				t.Errorf("Round(%q) = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestRound_InvalidReading(t *testing.T) {
	if _, err := Round(Fixed(1), "n/a"); err == nil {
		t.Fatal("expected error for non-numeric reading")
	}
}

func TestCompare(t *testing.T) {
	half := Spec{Format: "0.0", Decimals: 1, Epsilon: 0.5, Parsed: true}
	tests := []struct {
		name     string
		spec     Spec
		value    float64
		boundary float64
		want     types.Comparison
	}{
		{"within epsilon above", half, 60.3, 60, types.CompareWithin},
		{"within epsilon below", half, 59.6, 60, types.CompareWithin},
		{"above band", half, 65, 60, types.CompareAbove},
		{"below band", half, 45, 50, types.CompareBelow},
		{"one increment above", Fixed(1), 50.1, 50, types.CompareAbove},
		{"one increment below", Fixed(1), 49.9, 50, types.CompareBelow},
		{"one increment above max", Fixed(1), 70.1, 70, types.CompareAbove},
		{"one increment below min", Fixed(1), 29.9, 30, types.CompareBelow},
		{"one increment above small", Fixed(1), 0.3, 0.2, types.CompareAbove},
		{"one increment above 0.6", Fixed(1), 0.7, 0.6, types.CompareAbove},
		{"one increment at two decimals", Fixed(2), 1.01, 1, types.CompareAbove},
		{"equal at one decimal", Fixed(1), 50.0, 50, types.CompareWithin},
		{"integer equal", Fixed(0), 7, 7, types.CompareWithin},
		{"integer above", Fixed(0), 8, 7, types.CompareAbove},
		{"exact fallback equal", Exact("General"), 1.25, 1.25, types.CompareWithin},
		{"exact fallback below", Exact("General"), 1.2499, 1.25, types.CompareBelow},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Compare(tc.spec, tc.value, tc.boundary); got != tc.want {
				t.Errorf("Compare(%v, %v) = %v, want %v", tc.value, tc.boundary, got, tc.want)
			}
		})
	}
}

func almostEqual(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}
