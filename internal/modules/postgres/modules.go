package postgres

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"openclaw/internal/modules/config"
	"openclaw/pkg/db"
)

func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			func(ctx context.Context, cfg *config.Config) (*db.PgTxManager, error) {
				poolMaster, err := db.NewPool(ctx, db.PoolConfig{
					DSN: cfg.DB,
				})
				if err != nil {
					return nil, fmt.Errorf("failed to create poolMaster: %w", err)
				}

				if err = poolMaster.Ping(ctx); err != nil {
					return nil, err
				}

				return db.NewPgTxManager(poolMaster), nil
			},
		),
	)
}
