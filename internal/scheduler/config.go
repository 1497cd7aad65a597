package scheduler

import (
	"strings"
	"time"
)

// Config controls when billing passes fire.
type Config struct {
	// Schedule is "@every <duration>", a shorthand such as @monthly, or a
	// quartz cron expression.
	Schedule    string
	Timezone    string
	PassTimeout time.Duration
	Disabled    bool
}

func DefaultConfig() Config {
	return Config{
		Schedule: "0 0 10 1 * ?",
		Timezone: "UTC",
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if strings.TrimSpace(c.Schedule) == "" {
		c.Schedule = defaults.Schedule
	}
	if strings.TrimSpace(c.Timezone) == "" {
		c.Timezone = defaults.Timezone
	}
	if c.PassTimeout < 0 {
		c.PassTimeout = 0
	}
	return c
}

func (c Config) location() (*time.Location, error) {
	return time.LoadLocation(strings.TrimSpace(c.Timezone))
}
