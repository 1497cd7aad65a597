package scheduler

import (
	"context"

	"github.com/smallbiznis/autocharge/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("scheduler",
	fx.Provide(ProvideConfig),
	fx.Provide(New),
	fx.Invoke(NewScheduler),
)

// ProvideConfig maps the billing file config onto scheduler settings.
func ProvideConfig(holder *config.BillingHolder) Config {
	cfg := holder.Get()
	return Config{
		Schedule:    cfg.Schedule,
		Timezone:    cfg.Timezone,
		PassTimeout: cfg.PassTimeout,
		Disabled:    cfg.Disabled,
	}
}

// NewScheduler starts the billing cron job with the app and follows
// schedule changes in the billing config file.
func NewScheduler(lc fx.Lifecycle, holder *config.BillingHolder, sched *Scheduler, log *zap.Logger) {
	if sched.cfg.Disabled {
		log.Info("scheduler.disabled")
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if err := sched.Start(); err != nil {
				return err
			}
			holder.OnChange(func(prev, next config.BillingConfig) {
				if prev.Schedule == next.Schedule {
					return
				}
				if err := sched.Restart(next.Schedule); err != nil {
					log.Warn("scheduler.restart.failed",
						zap.String("schedule", next.Schedule),
						zap.Error(err),
					)
				}
			})
			return nil
		},
		OnStop: func(context.Context) error {
			sched.Stop()
			return nil
		},
	})
}
