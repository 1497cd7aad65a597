package clock

import (
	"sync"
	"time"
)

// AdjustableClock is wall-clock time plus an accumulated manual offset.
//
// Advance notifies every watcher before returning. Notification runs outside
// the state lock so a watcher may call Now, but a watcher must not call
// Advance on the same clock.
type AdjustableClock struct {
	source func() time.Time

	mu       sync.Mutex
	offset   time.Duration
	watchers []Watcher

	notifyMu sync.Mutex
}

// NewAdjustableClock returns a clock that follows the wall clock until advanced.
func NewAdjustableClock() *AdjustableClock {
	return &AdjustableClock{source: time.Now}
}

func (c *AdjustableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source().Add(c.offset)
}

// Offset reports the total amount the clock has been advanced.
func (c *AdjustableClock) Offset() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offset
}

// Advance moves the clock forward by d and notifies watchers.
func (c *AdjustableClock) Advance(d time.Duration) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	c.offset += d
	watchers := make([]Watcher, len(c.watchers))
	copy(watchers, c.watchers)
	c.mu.Unlock()

	for _, w := range watchers {
		w.TimeChanged()
	}
}

func (c *AdjustableClock) Watch(w Watcher) {
	if w == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.watchers {
		if existing == w {
			return
		}
	}
	c.watchers = append(c.watchers, w)
}

func (c *AdjustableClock) Unwatch(w Watcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.watchers {
		if existing == w {
			c.watchers = append(c.watchers[:i], c.watchers[i+1:]...)
			return
		}
	}
}

var _ Watchable = (*AdjustableClock)(nil)
