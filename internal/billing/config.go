package billing

import (
	"time"

	"github.com/smallbiznis/autocharge/internal/config"
)

const (
	defaultLockKey = "billing:pass"
	defaultLockTTL = 30 * time.Minute
)

// Config controls the cross-process pass lock.
type Config struct {
	LockKey string
	LockTTL time.Duration
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		LockKey: defaultLockKey,
		LockTTL: cfg.Redis.LockTTL,
	}
}

func (c Config) withDefaults() Config {
	if c.LockKey == "" {
		c.LockKey = defaultLockKey
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaultLockTTL
	}
	return c
}
