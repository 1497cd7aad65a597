package clock

import "go.uber.org/fx"

var Module = fx.Module("clock",
	fx.Provide(NewAdjustableClock),
	fx.Provide(
		func(c *AdjustableClock) Clock { return c },
		func(c *AdjustableClock) Watchable { return c },
	),
)
