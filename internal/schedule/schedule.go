// Package schedule maps a point in time to the next trigger boundary.
package schedule

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/reugn/go-quartz/quartz"
)

var (
	ErrInvalidPeriod     = errors.New("invalid_schedule_period")
	ErrInvalidExpression = errors.New("invalid_schedule_expression")
	ErrInvalidDay        = errors.New("invalid_schedule_day")
	ErrInvalidTimeOfDay  = errors.New("invalid_schedule_time_of_day")
)

// Schedule is a stateless description of recurring trigger boundaries.
// Next always returns a time strictly after its argument, or the zero time
// when no boundary remains.
type Schedule interface {
	Next(after time.Time) time.Time
}

// Interval fires on every Anchor + k*Period.
type Interval struct {
	Period time.Duration
	Anchor time.Time
}

// Every returns an interval schedule aligned to the Unix epoch.
func Every(period time.Duration) (Interval, error) {
	if period <= 0 {
		return Interval{}, ErrInvalidPeriod
	}
	return Interval{Period: period, Anchor: time.Unix(0, 0).UTC()}, nil
}

func (s Interval) Next(after time.Time) time.Time {
	if s.Period <= 0 {
		return time.Time{}
	}
	// Sub saturates roughly 292 years from the anchor; walk the anchor
	// in whole periods until the distance is exact.
	anchor := s.Anchor
	step := (time.Duration(math.MaxInt64) / s.Period) * s.Period
	elapsed := after.Sub(anchor)
	for elapsed == math.MaxInt64 || elapsed == math.MinInt64 {
		if elapsed > 0 {
			anchor = anchor.Add(step)
		} else {
			anchor = anchor.Add(-step)
		}
		elapsed = after.Sub(anchor)
	}
	next := anchor.Add((elapsed / s.Period) * s.Period)
	if !next.After(after) {
		next = next.Add(s.Period)
	}
	return next
}

func (s Interval) String() string {
	return "@every " + s.Period.String()
}

// Calendar fires on the instants matched by a quartz cron expression.
type Calendar struct {
	expression string
	location   *time.Location
	trigger    *quartz.CronTrigger
}

// NewCalendar parses a quartz cron expression
// ("sec min hour day-of-month month day-of-week [year]").
func NewCalendar(expression string, loc *time.Location) (*Calendar, error) {
	if loc == nil {
		loc = time.UTC
	}
	expression = strings.TrimSpace(expression)
	trigger, err := quartz.NewCronTriggerWithLoc(expression, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidExpression, expression, err)
	}
	return &Calendar{expression: expression, location: loc, trigger: trigger}, nil
}

// MonthlyAt fires on the given day of every month at hour:minute.
func MonthlyAt(day, hour, minute int, loc *time.Location) (*Calendar, error) {
	if day < 1 || day > 31 {
		return nil, ErrInvalidDay
	}
	if err := validateTimeOfDay(hour, minute); err != nil {
		return nil, err
	}
	return NewCalendar(fmt.Sprintf("0 %d %d %d * ?", minute, hour, day), loc)
}

// WeeklyAt fires on the given weekday of every week at hour:minute.
func WeeklyAt(weekday time.Weekday, hour, minute int, loc *time.Location) (*Calendar, error) {
	if weekday < time.Sunday || weekday > time.Saturday {
		return nil, ErrInvalidDay
	}
	if err := validateTimeOfDay(hour, minute); err != nil {
		return nil, err
	}
	return NewCalendar(fmt.Sprintf("0 %d %d ? * %s", minute, hour, weekdayNames[weekday]), loc)
}

func (c *Calendar) Next(after time.Time) time.Time {
	next := c.fireAfter(after)
	if !next.IsZero() && !next.After(after) {
		next = c.fireAfter(after.Add(time.Second))
	}
	return next
}

func (c *Calendar) fireAfter(after time.Time) time.Time {
	nanos, err := c.trigger.NextFireTime(after.UnixNano())
	if err != nil {
		return time.Time{}
	}
	return time.Unix(0, nanos).In(c.location)
}

func (c *Calendar) String() string {
	return c.expression
}

// Parse accepts "@every <duration>", the shorthands @hourly, @daily,
// @weekly and @monthly, or a quartz cron expression.
func Parse(expression string, loc *time.Location) (Schedule, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, ErrInvalidExpression
	}
	if rest, ok := strings.CutPrefix(expression, "@every"); ok {
		period, err := time.ParseDuration(strings.TrimSpace(rest))
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidExpression, expression, err)
		}
		return Every(period)
	}
	if cron, ok := shorthands[strings.ToLower(expression)]; ok {
		expression = cron
	}
	return NewCalendar(expression, loc)
}

var shorthands = map[string]string{
	"@hourly":  "0 0 * * * ?",
	"@daily":   "0 0 0 * * ?",
	"@weekly":  "0 0 0 ? * SUN",
	"@monthly": "0 0 0 1 * ?",
}

var weekdayNames = [...]string{"SUN", "MON", "TUE", "WED", "THU", "FRI", "SAT"}

func validateTimeOfDay(hour, minute int) error {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return ErrInvalidTimeOfDay
	}
	return nil
}
