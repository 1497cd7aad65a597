package clock

import "time"

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// Watcher is notified whenever a watchable clock jumps.
type Watcher interface {
	TimeChanged()
}

// Watchable is a clock that announces manual adjustments to its watchers.
type Watchable interface {
	Clock
	Watch(w Watcher)
	Unwatch(w Watcher)
}

// SystemClock is the plain wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
