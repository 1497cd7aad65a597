package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/autocharge/internal/billing"
	"github.com/smallbiznis/autocharge/internal/clock"
	"github.com/smallbiznis/autocharge/internal/config"
	"github.com/smallbiznis/autocharge/internal/customer"
	"github.com/smallbiznis/autocharge/internal/invoice"
	"github.com/smallbiznis/autocharge/internal/lock"
	"github.com/smallbiznis/autocharge/internal/migration"
	"github.com/smallbiznis/autocharge/internal/observability"
	"github.com/smallbiznis/autocharge/internal/payment"
	"github.com/smallbiznis/autocharge/internal/scheduler"
	"github.com/smallbiznis/autocharge/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Domain services required by the billing pass
		customer.Module,
		invoice.Module,
		payment.Module,
		lock.Module,
		billing.Module,

		// No server module!
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(2)
}
