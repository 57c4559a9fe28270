package tracker

import (
	"testing"

	"github.com/qaanalytics/qaanalytics/pkg/types"
)

const (
	maxB = 70.0
	minB = 30.0
)

func TestCheck_RecordFirstCandidate(t *testing.T) {
	c := newCheck("QC Level 1")

	if dir := c.Record("GLU", maxB, minB, 75); dir != types.Above {
		t.Fatalf("Record(75) direction = %v, want above", dir)
	}
	d, ok := c.Best("GLU")
	if !ok {
		t.Fatal("Best() found nothing after Record")
	}
	if d.Value != 75 || d.Excursion.Magnitude() != 5 {
		t.Errorf("Best() = %+v, want value 75 magnitude 5", d)
	}
	if !c.IsAbove("GLU") || !c.IsOutOfRange("GLU") {
		t.Error("GLU should be out of range above")
	}

	if dir := c.Record("CHOL", maxB, minB, 26); dir != types.Below {
		t.Fatalf("Record(26) direction = %v, want below", dir)
	}
	if d, _ := c.Best("CHOL"); d.Excursion != (BelowMin{Deficit: 4}) {
		t.Errorf("CHOL excursion = %#v, want BelowMin{4}", d.Excursion)
	}
}

func TestCheck_MergeKeepsClosest(t *testing.T) {
	c := newCheck("QC Level 1")
	c.Record("GLU", maxB, minB, 75) // magnitude 5
	c.Record("GLU", maxB, minB, 72) // magnitude 2, replaces
	c.Record("GLU", maxB, minB, 76) // magnitude 6, rejected

	if got := c.BestValue("GLU"); got != 72 {
		t.Errorf("BestValue() = %v, want 72", got)
	}
}

func TestCheck_MergeDirectionFlip(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
		above  bool
	}{
		{"above then closer below", []float64{75, 28}, 28, false},
		{"above then farther below", []float64{72, 20}, 72, true},
		{"below then closer above", []float64{20, 71}, 71, true},
		{"below then farther above", []float64{29, 80}, 29, false},
		{"tie keeps first", []float64{73, 27}, 73, true},
		{"flip then flip back", []float64{80, 25, 71}, 71, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newCheck("s")
			for _, v := range tc.values {
				c.Record("el", maxB, minB, v)
			}
			if got := c.BestValue("el"); got != tc.want {
				t.Errorf("BestValue() = %v, want %v", got, tc.want)
			}
			if got := c.IsAbove("el"); got != tc.above {
				t.Errorf("IsAbove() = %v, want %v", got, tc.above)
			}
		})
	}
}

func TestCheck_ClosestValueLaw(t *testing.T) {
	// The kept value is the minimal-magnitude one regardless of order.
	seqs := [][]float64{
		{90, 74, 71.5, 85, 22},
		{71.5, 90, 22, 74, 85},
		{22, 85, 74, 90, 71.5},
	}
	for _, seq := range seqs {
		c := newCheck("s")
		for _, v := range seq {
			c.Record("el", maxB, minB, v)
		}
		if got := c.BestValue("el"); got != 71.5 {
			t.Errorf("sequence %v kept %v, want 71.5", seq, got)
		}
	}
}

func TestCheck_RecordInsideRangeIgnored(t *testing.T) {
	c := newCheck("s")
	if dir := c.Record("el", maxB, minB, 50); dir != 0 {
		t.Errorf("Record(50) direction = %v, want none", dir)
	}
	if c.HasOutstanding() {
		t.Error("in-range value must not be recorded")
	}
}

func TestCheck_Clear(t *testing.T) {
	c := newCheck("s")
	c.Record("el", maxB, minB, 75)
	c.Clear("el")
	if c.IsOutOfRange("el") || c.HasOutstanding() {
		t.Error("Clear() should drop the record")
	}
}

func TestCheck_BeginSettle(t *testing.T) {
	const maxTries = 3
	c := newCheck("s")

	if !c.Begin(maxTries) || !c.First() {
		t.Fatal("first Begin should start attempt 1")
	}
	c.Record("el", maxB, minB, 75)
	c.Settle(maxTries)
	if c.Done() {
		t.Fatal("check with outstanding element and retries left must stay open")
	}

	for i := 2; i <= maxTries; i++ {
		if !c.Begin(maxTries) {
			t.Fatalf("Begin attempt %d refused", i)
		}
		if c.First() {
			t.Fatalf("attempt %d reported as first", i)
		}
		c.Settle(maxTries)
	}
	if !c.Done() {
		t.Fatal("check must be done after the retry limit")
	}
	if c.Begin(maxTries) {
		t.Error("Begin after done must refuse")
	}
	if c.Attempts() != maxTries {
		t.Errorf("Attempts() = %d, want %d", c.Attempts(), maxTries)
	}
}

func TestCheck_SettleWithoutOutstanding(t *testing.T) {
	c := newCheck("s")
	c.Begin(5)
	c.Settle(5)
	if !c.Done() {
		t.Error("check without outstanding elements must be done")
	}
}

func TestCheck_FrozenAfterDone(t *testing.T) {
	c := newCheck("s")
	c.Begin(1)
	c.Record("el", maxB, minB, 75)
	c.Settle(1)
	if !c.Done() {
		t.Fatal("expected done after single try")
	}

	c.Record("el", maxB, minB, 71)
	c.Clear("el")
	if got := c.BestValue("el"); got != 75 {
		t.Errorf("done check mutated: BestValue() = %v, want 75", got)
	}
}

func TestCheck_Outstanding(t *testing.T) {
	c := newCheck("s")
	c.Record("TRIG", maxB, minB, 90)
	c.Record("ALB", maxB, minB, 10)
	got := c.Outstanding()
	if len(got) != 2 || got[0] != "ALB" || got[1] != "TRIG" {
		t.Errorf("Outstanding() = %v, want [ALB TRIG]", got)
	}
}
