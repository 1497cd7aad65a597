package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/autocharge/internal/clock"
	"github.com/smallbiznis/autocharge/internal/config"
	"github.com/smallbiznis/autocharge/internal/customer"
	"github.com/smallbiznis/autocharge/internal/invoice"
	"github.com/smallbiznis/autocharge/internal/observability"
	"github.com/smallbiznis/autocharge/internal/server"
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

		// Read-only listing surface; the schema is owned by the scheduler app.
		customer.Module,
		invoice.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(3)
}
