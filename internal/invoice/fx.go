package invoice

import (
	"github.com/smallbiznis/autocharge/internal/invoice/repository"
	"github.com/smallbiznis/autocharge/internal/invoice/service"
	"go.uber.org/fx"
)

// Module provides invoicedomain.Service over the gorm repository.
var Module = fx.Module("invoice",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
