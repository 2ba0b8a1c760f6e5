package services

import (
	"time"

	"github.com/flashpair/backend/internal/scheduler"
)

// Clock supplies the current moment and the calendar used to compute due dates
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

// NewClock creates a wall clock whose "today" is taken in loc
func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{Now: time.Now, Location: loc}
}

// Today returns the current calendar date
func (c Clock) Today() time.Time {
	return scheduler.Today(c.Now(), c.Location)
}
