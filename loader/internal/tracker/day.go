package tracker

// Day holds the checks of one (machine, day) iteration.
type Day struct {
	checks map[string]*Check
	order  []string
}

// NewDay returns an empty Day.
func NewDay() *Day {
	return &Day{checks: make(map[string]*Check)}
}

// Check returns the check for sample, creating it on first use.
func (d *Day) Check(sample string) *Check {
	if c, ok := d.checks[sample]; ok {
		return c
	}
	c := newCheck(sample)
	d.checks[sample] = c
	d.order = append(d.order, sample)
	return c
}

// Lookup returns the check for sample without creating it.
func (d *Day) Lookup(sample string) (*Check, bool) {
	c, ok := d.checks[sample]
	return c, ok
}

// Len returns the number of checks seen so far.
func (d *Day) Len() int { return len(d.checks) }

// AllDone reports whether every sample in expected has a done check.
// An empty expected set is never complete.
func (d *Day) AllDone(expected []string) bool {
	if len(expected) == 0 {
		return false
	}
	for _, s := range expected {
		c, ok := d.checks[s]
		if !ok || !c.done {
			return false
		}
	}
	return true
}

// Unresolved returns, in first-seen order, the checks that still hold
// out-of-range elements, whether they gave up or ran out of feed.
func (d *Day) Unresolved() []*Check {
	var out []*Check
	for _, s := range d.order {
		if c := d.checks[s]; c.HasOutstanding() {
			out = append(out, c)
		}
	}
	return out
}
