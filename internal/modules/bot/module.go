package bot

import (
	"context"
	"time"

	"go.uber.org/fx"

	"openclaw/internal/engine"
	"openclaw/internal/exchange"
	"openclaw/internal/indicator"
	"openclaw/internal/market"
	"openclaw/internal/modules/config"
	"openclaw/internal/modules/server/service"
	"openclaw/internal/notify"
	"openclaw/internal/storage"
	"openclaw/pkg/db"
	"openclaw/pkg/logger"
)

func newNotifier(cfg *config.Config) notify.Notifier {
	sinks := []notify.Notifier{notify.NewStdout()}

	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != 0 {
		tg, err := notify.NewTelegram(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID)
		if err != nil {
			logger.Error("[NOTIFY] telegram init: %v", err)
		} else {
			sinks = append(sinks, tg)
		}
	}
	if cfg.Notify.WebhookURL != "" {
		sinks = append(sinks, notify.NewWebhook(cfg.Notify.WebhookURL, cfg.RequestTimeout))
	}
	if len(sinks) == 1 {
		return sinks[0]
	}
	return notify.NewMulti(sinks...)
}

func newExchange(cfg *config.Config) *exchange.Client {
	cl := exchange.NewClient(cfg.Exchange.BaseURL, cfg.Exchange.QuoteAsset, cfg.RequestTimeout)
	cl.SetCreds(cfg.Exchange.APIKey, cfg.Exchange.APISecret)
	return cl
}

func newStore(tm *db.PgTxManager, cfg *config.Config) *storage.Store {
	return storage.New(tm, cfg.Risk)
}

func newCoordinator(cfg *config.Config, store *storage.Store, exec *exchange.Client, n notify.Notifier) (*engine.Coordinator, *market.Stream) {
	deps := engine.CoordinatorDeps{
		Candles: market.NewClient(cfg.MarketDataURL, cfg.RequestTimeout),
		Snap:    indicator.New(cfg.ActiveProfile(), cfg.MinCandles),
		Exec:    exec,
		Store:   store,
		Gate:    engine.NewRiskGate(store, cfg.Risk),
		Notify:  n,
	}

	// Интерфейсы заполняем только при наличии источника, иначе
	// типизированный nil пройдёт проверку signals == nil.
	if cfg.ExternalSignalURL != "" {
		deps.Signals = market.NewPoller(cfg.ExternalSignalURL, cfg.RequestTimeout)
	}

	var stream *market.Stream
	if cfg.Stream.Enabled {
		stream = market.NewStream(cfg.Stream.URL, cfg.Watchlist)
		deps.Prices = stream
	}

	return engine.NewCoordinator(cfg, deps), stream
}

// runLoop запускает миграции и цикл тиков. Первый тик сразу после старта,
// дальше по cfg.TickInterval. Тики сериализованы: один горутиной.
func runLoop(lc fx.Lifecycle, cfg *config.Config, coord *engine.Coordinator, stream *market.Stream, store *storage.Store, st *service.State) {
	loopCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := store.Migrate(ctx); err != nil {
				cancel()
				return err
			}

			if stream != nil {
				go stream.Run(loopCtx)
			}

			go func() {
				ticker := time.NewTicker(cfg.TickInterval)
				defer ticker.Stop()

				for {
					coord.RunTick(loopCtx)
					st.MarkTick(time.Now())

					select {
					case <-loopCtx.Done():
						return
					case <-ticker.C:
					}
				}
			}()

			st.SetReady(true)
			logger.Info("[BOT] started, watchlist=%d tick=%s", len(cfg.Watchlist), cfg.TickInterval)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			st.SetReady(false)
			cancel()
			return nil
		},
	})
}

func Module() fx.Option {
	return fx.Module("bot",
		fx.Provide(
			newNotifier,
			newExchange,
			newStore,
			newCoordinator,
		),
		fx.Invoke(runLoop),
	)
}
