package customer

import (
	"github.com/smallbiznis/autocharge/internal/customer/repository"
	"github.com/smallbiznis/autocharge/internal/customer/service"
	"go.uber.org/fx"
)

// Module provides customerdomain.Service over the gorm repository.
var Module = fx.Module("customer",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
