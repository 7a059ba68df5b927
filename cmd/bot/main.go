package main

import (
	"context"
	"log"

	"go.uber.org/fx"

	"openclaw/internal/modules/bot"
	"openclaw/internal/modules/config"
	"openclaw/internal/modules/postgres"
	"openclaw/internal/modules/server"
	"openclaw/pkg/logger"
	"openclaw/pkg/tracing"
)

func main() {
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}
	logger.SetServiceName("openclaw")

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		postgres.Module(),
		bot.Module(),
		server.Module(),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) error {
			if !cfg.Tracing.Enabled {
				return nil
			}
			_, closer, err := tracing.InitTracer(tracing.Config{
				ServiceName: "openclaw",
				Host:        cfg.Tracing.Host,
				Port:        cfg.Tracing.Port,
			})
			if err != nil {
				return err
			}
			lc.Append(fx.Hook{OnStop: func(context.Context) error {
				closer()
				return nil
			}})
			return nil
		}),
	)

	app.Run()
}
