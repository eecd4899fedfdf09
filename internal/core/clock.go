package core

import "time"

// Clock abstracts wall-clock time so "current month" is testable.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the local wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// FixedClock always returns t.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

// CurrentMonth returns the YYYY-MM prefix for c.Now().
func CurrentMonth(c Clock) string {
	return c.Now().Format(MonthLayout)
}

// Today returns the YYYY-MM-DD date for c.Now().
func Today(c Clock) string {
	return c.Now().Format(DateLayout)
}
