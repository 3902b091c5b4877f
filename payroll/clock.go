package payroll

import (
	"fmt"
	"time"
)

// =============================================================================
// CLOCK - Time authority in a fixed business timezone
// =============================================================================

// Clock resolves "what month is it" in a single fixed business timezone,
// independent of where the process happens to run. A host in UTC and a user
// in UTC+5:30 must agree on which calendar month may still receive edits,
// so the host clock is never consulted directly.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock creates a clock for the given IANA timezone identifier.
// An invalid identifier is a configuration error; callers should treat it
// as fatal at startup.
func NewClock(timezone string) (*Clock, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid business timezone %q: %w", timezone, err)
	}
	return &Clock{loc: loc, now: time.Now}, nil
}

// NewClockAt creates a clock pinned to a fixed instant, for tests.
func NewClockAt(timezone string, at time.Time) (*Clock, error) {
	c, err := NewClock(timezone)
	if err != nil {
		return nil, err
	}
	c.now = func() time.Time { return at }
	return c, nil
}

// Now returns the current wall-clock time in the business timezone.
func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// CurrentPeriod returns the month/year it currently is in the business timezone.
func (c *Clock) CurrentPeriod() MonthKey {
	t := c.Now()
	return MonthKey{Month: int(t.Month()), Year: t.Year()}
}

func (c *Clock) IsCurrent(k MonthKey) bool { return k.Equal(c.CurrentPeriod()) }
func (c *Clock) IsPast(k MonthKey) bool    { return k.Before(c.CurrentPeriod()) }
func (c *Clock) IsFuture(k MonthKey) bool  { return k.After(c.CurrentPeriod()) }
