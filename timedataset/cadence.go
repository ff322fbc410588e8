package timedataset

import (
	"fmt"
	"time"
)

// Cadence is the spacing between consecutive observations. Exactly one of Months or Freq
// is set for an inferred cadence.
type Cadence struct {
	Months   int           `json:"months,omitempty"`
	MonthEnd bool          `json:"month_end,omitempty"`
	Freq     time.Duration `json:"freq,omitempty"`

	// Day pins monthly steps to a day of month when the observed days were not uniform
	Day int `json:"day,omitempty"`
}

// Step returns the time n cadence units after start. Monthly steps clamp to the last day of
// the target month instead of overflowing into the next one.
func (c Cadence) Step(start time.Time, n int) time.Time {
	if c.Months > 0 {
		return addMonths(start, c.Months*n, c.MonthEnd, c.Day)
	}
	return start.Add(time.Duration(n) * c.Freq)
}

// Valid reports whether the cadence moves time forward
func (c Cadence) Valid() bool {
	return c.Months > 0 || c.Freq > 0
}

func (c Cadence) String() string {
	switch {
	case c.Months == 12:
		return "yearly"
	case c.Months == 1 && c.MonthEnd:
		return "monthly (month end)"
	case c.Months == 1:
		return "monthly"
	case c.Months > 0:
		return fmt.Sprintf("every %d months", c.Months)
	default:
		return c.Freq.String()
	}
}

func addMonths(t time.Time, months int, monthEnd bool, pin int) time.Time {
	year, month, day := t.Date()
	if pin > 0 {
		day = pin
	}
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	last := daysIn(first)
	if monthEnd || day > last {
		day = last
	}
	hour, minute, sec := t.Clock()
	return time.Date(first.Year(), first.Month(), day, hour, minute, sec, t.Nanosecond(), t.Location())
}

func daysIn(firstOfMonth time.Time) int {
	return firstOfMonth.AddDate(0, 1, -1).Day()
}
