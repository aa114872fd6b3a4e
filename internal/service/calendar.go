package service

import (
	"time"

	"daily-tracker/internal/model"
)

// Clock reports the current instant.
type Clock func() time.Time

// Calendar turns the clock into calendar days in an explicit reference zone.
type Calendar struct {
	now Clock
	loc *time.Location
}

func NewCalendar(loc *time.Location, now Clock) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return Calendar{now: now, loc: loc}
}

func (c Calendar) Now() time.Time {
	return c.now().In(c.loc)
}

func (c Calendar) Today() model.Date {
	return model.DateOf(c.now(), c.loc)
}

func (c Calendar) Location() *time.Location {
	return c.loc
}

// Rate is the rounded completion percentage; an empty day rates 0.
func Rate(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(float64(completed)/float64(total)*100 + 0.5)
}
