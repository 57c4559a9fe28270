package driver

import (
	"fmt"
	"time"
)

// FirstYear is the earliest reporting year the loader accepts.
const FirstYear = 2018

// Period is one reporting month.
type Period struct {
	Month int
	Year  int
}

// Days returns the number of days in the month.
func (p Period) Days() int {
	return time.Date(p.Year, time.Month(p.Month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Date returns the calendar date of day in the period.
func (p Period) Date(day int) time.Time {
	return time.Date(p.Year, time.Month(p.Month), day, 0, 0, 0, 0, time.UTC)
}

// Validate checks that the period lies between FirstYear and now's year.
// now is passed explicitly so tests control the clock.
func (p Period) Validate(now time.Time) error {
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("driver: month %d out of range 1-12", p.Month)
	}
	if p.Year < FirstYear || p.Year > now.Year() {
		return fmt.Errorf("driver: year %d out of range %d-%d", p.Year, FirstYear, now.Year())
	}
	return nil
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}
