package clock

import "time"

// NewFakeClock returns an adjustable clock frozen at t. Time only moves
// through Advance, which keeps tests independent of real elapsed time.
func NewFakeClock(t time.Time) *AdjustableClock {
	base := t.UTC()
	return &AdjustableClock{source: func() time.Time { return base }}
}
