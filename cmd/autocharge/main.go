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
	"github.com/smallbiznis/autocharge/internal/server"
	"github.com/smallbiznis/autocharge/pkg/db"
	"go.uber.org/fx"
)

func main() {
	fx.New(options()).Run()
}

func options() fx.Option {
	return fx.Options(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Functional Domains
		customer.Module,
		invoice.Module,
		payment.Module,
		lock.Module,
		billing.Module,
		scheduler.Module,

		server.Module,
	)
}

func RegisterSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
