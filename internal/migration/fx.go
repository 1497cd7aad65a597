package migration

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/autocharge/internal/config"
	"github.com/smallbiznis/autocharge/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, node *snowflake.Node, log *zap.Logger) error {
		if err := Migrate(conn); err != nil {
			return err
		}
		if !cfg.SeedData {
			return nil
		}
		return seed.Run(context.Background(), conn, node, seed.DefaultOptions(), log)
	}),
)
