package payment

import (
	"github.com/smallbiznis/autocharge/internal/config"
	customerdomain "github.com/smallbiznis/autocharge/internal/customer/domain"
	"github.com/smallbiznis/autocharge/internal/observability/metrics"
	"github.com/smallbiznis/autocharge/internal/payment/adapters"
	"github.com/smallbiznis/autocharge/internal/payment/adapters/sandbox"
	"github.com/smallbiznis/autocharge/internal/payment/adapters/stripe"
	"github.com/smallbiznis/autocharge/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("payment.service",
	fx.Provide(func() *adapters.Registry {
		return adapters.NewRegistry(
			sandbox.NewFactory(),
			stripe.NewFactory(),
		)
	}),
	fx.Provide(NewProvider),
)

type Params struct {
	fx.In

	Cfg       config.Config
	Log       *zap.Logger
	Registry  *adapters.Registry
	Customers customerdomain.Service
	Metrics   *metrics.Metrics `optional:"true"`
}

// NewProvider builds the adapter named by the payment config.
func NewProvider(p Params) (domain.Provider, error) {
	name := p.Cfg.Payment.Provider
	provider, err := p.Registry.Build(name, domain.AdapterConfig{
		Customers: p.Customers,
		Config: map[string]any{
			"secret_key": p.Cfg.Payment.StripeSecretKey,
			"auto_fund":  p.Cfg.Payment.SandboxAutoFund,
		},
		Log: p.Log,
	})
	if err != nil {
		return nil, err
	}

	p.Log.Info("payment provider ready", zap.String("provider", name))
	return adapters.Instrument(provider, name, p.Metrics), nil
}
