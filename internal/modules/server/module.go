package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"

	"openclaw/internal/engine"
	"openclaw/internal/modules/config"
	"openclaw/internal/modules/server/service"
	"openclaw/internal/storage"
)

func RunHTTP(lc fx.Lifecycle, cfg *config.Config, mux *http.ServeMux) {
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.Server.Addr)
			if err != nil {
				return err
			}
			go func() { _ = srv.Serve(ln) }()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("server",
		fx.Provide(
			service.NewState,
			func(cfg *config.Config, st *service.State, store *storage.Store, coord *engine.Coordinator) *service.Handlers {
				return service.NewHandlers(st, store, coord, cfg.Server.AuthToken)
			},
			service.NewMux,
		),
		fx.Invoke(RunHTTP),
	)
}
