package billing

import (
	"github.com/smallbiznis/autocharge/internal/lock"
	"github.com/smallbiznis/autocharge/internal/scheduler"
	"go.uber.org/fx"
)

var Module = fx.Module("billing",
	fx.Provide(ProvideConfig),
	fx.Provide(providePassLocker),
	fx.Provide(NewService),
	fx.Provide(func(s *Service) scheduler.Runner { return s }),
)

// providePassLocker yields a nil locker when redis is not configured.
func providePassLocker(l *lock.Locker) PassLocker {
	if l == nil {
		return nil
	}
	return l
}
