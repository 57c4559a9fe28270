package driver

import "github.com/qaanalytics/qaanalytics/pkg/types"

// Summary counts what a run did.
type Summary struct {
	Period   Period
	Machines int

	DaysRead    int
	DaysMissing int
	EarlyExits  int

	Groups    int // sample groups read from feeds
	Ignored   int // groups of unmapped samples
	Checks    int
	Attempts  int
	Exhausted int // groups skipped because their check was already settled

	// Written counts in-range values per tier.
	Written [types.TierCount]int
	// Alarms counts best-effort out-of-range values flushed.
	Alarms int
	// Unreadable counts element readings that were not numeric.
	Unreadable int
}

// add folds a day's counters into s.
func (s *Summary) add(d Summary) {
	s.DaysRead += d.DaysRead
	s.DaysMissing += d.DaysMissing
	s.EarlyExits += d.EarlyExits
	s.Groups += d.Groups
	s.Ignored += d.Ignored
	s.Checks += d.Checks
	s.Attempts += d.Attempts
	s.Exhausted += d.Exhausted
	for i := range s.Written {
		s.Written[i] += d.Written[i]
	}
	s.Alarms += d.Alarms
	s.Unreadable += d.Unreadable
}

// Values returns the total number of in-range values written.
func (s Summary) Values() int {
	var n int
	for _, w := range s.Written {
		n += w
	}
	return n
}
