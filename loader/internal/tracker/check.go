package tracker

import (
	"sort"

	"github.com/qaanalytics/qaanalytics/pkg/types"
)

// Check is the bounded-retry state of one (sample, day, machine).
// It is not safe for concurrent use; a Check lives inside a single Day.
type Check struct {
	Sample string

	attempts int
	done     bool
	best     map[string]Deviation
}

func newCheck(sample string) *Check {
	return &Check{Sample: sample, best: make(map[string]Deviation)}
}

// Attempts returns how many occurrences of the sample have been processed.
func (c *Check) Attempts() int { return c.attempts }

// Done reports whether the check is frozen.
func (c *Check) Done() bool { return c.done }

// First reports whether the current attempt is the check's first one.
// Only meaningful after a successful Begin.
func (c *Check) First() bool { return c.attempts == 1 }

// Begin starts a new attempt. It returns false, and leaves the check
// untouched, once the check is done. Settle marks the check done when the
// retry limit is reached, so attempts never exceed maxTries.
func (c *Check) Begin(maxTries int) bool {
	if c.done || c.attempts >= maxTries {
		return false
	}
	c.attempts++
	return true
}

// Settle closes the current attempt: the check is done when nothing is
// outstanding or when the retry limit has been reached.
func (c *Check) Settle(maxTries int) {
	if c.done {
		return
	}
	if !c.HasOutstanding() || c.attempts >= maxTries {
		c.done = true
	}
}

// Record merges an out-of-range candidate for element and returns the
// direction of the deviation kept afterwards. Values inside [min, max] and
// calls on a done check change nothing.
func (c *Check) Record(element string, max, min, value float64) types.Direction {
	prior, ok := c.best[element]
	if c.done {
		if ok {
			return prior.Excursion.Direction()
		}
		return 0
	}
	if !ok {
		exc := excursionOf(value, max, min)
		if exc == nil {
			return 0
		}
		c.best[element] = Deviation{Value: value, Excursion: exc}
		return exc.Direction()
	}
	kept := merge(prior, value, max, min)
	c.best[element] = kept
	return kept.Excursion.Direction()
}

// Clear drops the out-of-range record of element.
func (c *Check) Clear(element string) {
	if c.done {
		return
	}
	delete(c.best, element)
}

// IsOutOfRange reports whether element has an unresolved deviation.
func (c *Check) IsOutOfRange(element string) bool {
	_, ok := c.best[element]
	return ok
}

// HasOutstanding reports whether any element is still out of range.
func (c *Check) HasOutstanding() bool {
	return len(c.best) > 0
}

// Best returns the deviation kept for element.
func (c *Check) Best(element string) (Deviation, bool) {
	d, ok := c.best[element]
	return d, ok
}

// BestValue returns the value of the deviation kept for element, or 0.
func (c *Check) BestValue(element string) float64 {
	return c.best[element].Value
}

// IsAbove reports whether element's kept deviation lies above Max.
func (c *Check) IsAbove(element string) bool {
	d, ok := c.best[element]
	return ok && d.Excursion.Direction() == types.Above
}

// Outstanding returns the out-of-range element names, sorted.
func (c *Check) Outstanding() []string {
	out := make([]string, 0, len(c.best))
	for el := range c.best {
		out = append(out, el)
	}
	sort.Strings(out)
	return out
}
