package config

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/smallbiznis/autocharge/internal/schedule"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// BillingConfig is the hot-reloadable part of the configuration.
type BillingConfig struct {
	Schedule    string        `mapstructure:"schedule"`
	Timezone    string        `mapstructure:"timezone"`
	PassTimeout time.Duration `mapstructure:"pass_timeout"`
	Disabled    bool          `mapstructure:"disabled"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		Schedule: "0 0 10 1 * ?",
		Timezone: "UTC",
	}
}

// BillingHolder keeps the latest valid billing config and notifies
// listeners when the file changes.
type BillingHolder struct {
	current atomic.Value // holds BillingConfig
	log     *zap.Logger

	mu        sync.Mutex
	listeners []func(prev, next BillingConfig)
}

// NewBillingHolder loads billing config for the app and watches the file.
func NewBillingHolder(cfg Config, log *zap.Logger) (*BillingHolder, error) {
	return LoadBilling(cfg.BillingConfigFile, true, log)
}

// LoadBilling reads billing.yaml from file, or from the default search
// paths when file is empty. A missing file falls back to defaults.
func LoadBilling(file string, watch bool, log *zap.Logger) (*BillingHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	v := viper.New()

	if strings.TrimSpace(file) != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("billing")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/autocharge")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("AUTOCHARGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBillingConfig()
	v.SetDefault("billing.schedule", defaults.Schedule)
	v.SetDefault("billing.timezone", defaults.Timezone)
	v.SetDefault("billing.pass_timeout", defaults.PassTimeout)
	v.SetDefault("billing.disabled", defaults.Disabled)

	found := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		found = false
	}

	cfg, err := decodeBilling(v)
	if err != nil {
		return nil, err
	}

	holder := &BillingHolder{log: log.Named("config.billing")}
	holder.current.Store(cfg)

	if found && watch {
		v.OnConfigChange(func(e fsnotify.Event) {
			updated, err := decodeBilling(v)
			if err != nil {
				holder.log.Warn("billing config reload ignored",
					zap.String("file", e.Name),
					zap.Error(err),
				)
				return
			}
			holder.update(updated)
			holder.log.Info("billing config reloaded", zap.String("file", e.Name))
		})
		v.WatchConfig()
	}

	return holder, nil
}

func (h *BillingHolder) Get() BillingConfig {
	return h.current.Load().(BillingConfig)
}

// OnChange registers fn to run after every accepted reload.
func (h *BillingHolder) OnChange(fn func(prev, next BillingConfig)) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}

func (h *BillingHolder) update(next BillingConfig) {
	h.mu.Lock()
	defer h.mu.Unlock()
	prev := h.Get()
	h.current.Store(next)
	for _, fn := range h.listeners {
		fn(prev, next)
	}
}

func decodeBilling(v *viper.Viper) (BillingConfig, error) {
	// UnmarshalKey skips AutomaticEnv for nested keys, so read each one.
	cfg := BillingConfig{
		Schedule:    v.GetString("billing.schedule"),
		Timezone:    v.GetString("billing.timezone"),
		PassTimeout: v.GetDuration("billing.pass_timeout"),
		Disabled:    v.GetBool("billing.disabled"),
	}
	if err := validateBillingConfig(cfg); err != nil {
		return BillingConfig{}, err
	}
	return cfg, nil
}

func validateBillingConfig(cfg BillingConfig) error {
	loc, err := time.LoadLocation(strings.TrimSpace(cfg.Timezone))
	if err != nil {
		return errors.New("billing.timezone is not a known location")
	}
	if _, err := schedule.Parse(cfg.Schedule, loc); err != nil {
		return err
	}
	if cfg.PassTimeout < 0 {
		return errors.New("billing.pass_timeout cannot be negative")
	}
	return nil
}
