package cluster

import "time"

// Clock schedules the wait between two polls.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

// RealClock uses the runtime timer.
type RealClock struct{}

func (RealClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
