package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"openclaw/internal/helper"
	"openclaw/internal/models"
	"openclaw/internal/modules/config"
	"openclaw/pkg/logger"

	"github.com/opentracing/opentracing-go"
)

// ErrRiskLimit возвращает сторадж, когда повторная проверка лимитов
// внутри транзакции вставки не прошла.
var ErrRiskLimit = errors.New("risk limit reached")

type CandleSource interface {
	Candles(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error)
}

type SignalSource interface {
	Poll(ctx context.Context) ([]models.ExternalSignal, error)
}

// PriceCache — последняя цена из WS-стрима, если он включён.
type PriceCache interface {
	LastPrice(symbol string) (float64, bool)
}

type SnapshotSource interface {
	Snapshot(candles []models.Candle) (models.IndicatorSnapshot, bool)
}

type Executor interface {
	Execute(ctx context.Context, req models.OrderRequest) (models.ExecutionResult, error)
	Equity(ctx context.Context) (float64, error)
}

type TradeStore interface {
	// RegisterTrade заново проверяет лимиты и вставляет сделку в одной
	// транзакции (check-and-reserve).
	RegisterTrade(ctx context.Context, t *models.Trade) error
}

type Notifier interface {
	Send(msg string)
	Sendf(format string, args ...any)
}

// Coordinator гоняет один полный проход за тик: сначала внешние сигналы,
// потом внутренний скан вотчлиста. Тики сериализованы снаружи (один цикл),
// dispatchMu дополнительно гарантирует максимум один диспатч в полёте.
type Coordinator struct {
	cfg     *config.Config
	profile config.ScoringProfile

	scorer   *Scorer
	sizer    *Sizer
	gate     *RiskGate
	cooldown *Cooldown
	dedup    *Dedup

	candles CandleSource
	signals SignalSource // nil если URL не задан
	prices  PriceCache   // nil если стрим выключен
	snap    SnapshotSource
	exec    Executor
	store   TradeStore
	n       Notifier

	injected chan models.ExternalSignal

	dispatchMu sync.Mutex
	now        func() time.Time
}

type CoordinatorDeps struct {
	Candles CandleSource
	Signals SignalSource
	Prices  PriceCache
	Snap    SnapshotSource
	Exec    Executor
	Store   TradeStore
	Gate    *RiskGate
	Notify  Notifier
}

func NewCoordinator(cfg *config.Config, d CoordinatorDeps) *Coordinator {
	p := cfg.ActiveProfile()
	return &Coordinator{
		cfg:      cfg,
		profile:  p,
		scorer:   NewScorer(p),
		sizer:    NewSizer(cfg.Risk),
		gate:     d.Gate,
		cooldown: NewCooldown(cfg.CooldownPerSymbol),
		dedup:    NewDedup(cfg.DedupCapacity),
		candles:  d.Candles,
		signals:  d.Signals,
		prices:   d.Prices,
		snap:     d.Snap,
		exec:     d.Exec,
		store:    d.Store,
		n:        d.Notify,
		injected: make(chan models.ExternalSignal, 64),
		now:      time.Now,
	}
}

// RunTick — один полный проход. Ошибки отдельных инструментов и сигналов
// не фатальны для тика.
func (c *Coordinator) RunTick(ctx context.Context) {
	span := opentracing.StartSpan("bot_tick")
	defer span.Finish()
	ctx = opentracing.ContextWithSpan(ctx, span)

	c.pollExternalSignals(ctx)
	c.scanWatchlist(ctx)
}

// InjectSignal — операторский инжект; попадает во внешнюю фазу ближайшего
// тика, чтобы сохранить порядок "внешние раньше внутренних".
func (c *Coordinator) InjectSignal(sig models.ExternalSignal) error {
	select {
	case c.injected <- sig:
		return nil
	default:
		return errors.New("signal queue is full")
	}
}

func (c *Coordinator) pollExternalSignals(ctx context.Context) {
	batch := make([]models.ExternalSignal, 0, 8)

	for {
		select {
		case sig := <-c.injected:
			batch = append(batch, sig)
			continue
		default:
		}
		break
	}

	if c.signals != nil {
		polled, err := c.signals.Poll(ctx)
		if err != nil {
			// сеть упала — значит сигналов в этом тике нет
			logger.Warn("[EXT] signal poll failed: %v", err)
		} else {
			batch = append(batch, polled...)
		}
	}

	for _, sig := range batch {
		if sig.Symbol == "" || sig.Action == "" {
			continue
		}
		if sig.ID != "" && c.dedup.Seen(sig.ID) {
			continue
		}
		if sig.ID != "" {
			c.dedup.MarkSeen(sig.ID)
		}
		c.handleExternal(ctx, sig)
	}
}

func (c *Coordinator) handleExternal(ctx context.Context, sig models.ExternalSignal) {
	logger.Info("[EXT] signal received: %s %s", sig.Action, sig.Symbol)

	dir := models.Side(helper.NormSide(sig.Action))
	if dir != models.SideBuy && dir != models.SideSell {
		logger.Warn("[EXT] %s: unknown action %q, skip", sig.Symbol, sig.Action)
		return
	}

	if dec := c.gate.Evaluate(ctx); !dec.Allowed {
		logger.Warn("[EXT] ⛔ trade blocked: %s", dec.Reason)
		return
	}

	price := sig.Price
	if price <= 0 && c.prices != nil {
		if last, ok := c.prices.LastPrice(sig.Symbol); ok {
			price = last
		}
	}
	if price <= 0 {
		cds, err := c.candles.Candles(ctx, sig.Symbol, "1m", 1)
		if err != nil || len(cds) == 0 {
			logger.Warn("[EXT] %s: price fetch failed, skip", sig.Symbol)
			return
		}
		price = cds[len(cds)-1].Close
	}

	tp, sl := sig.TP, sig.SL
	if tp <= 0 || sl <= 0 {
		tp, sl = ExitLevels(dir, price, c.profile.TPPercent, c.profile.SLPercent)
	}

	scored := &models.ScoredSignal{
		Symbol:     sig.Symbol,
		Direction:  dir,
		Score:      100, // внешний источник сам отвечает за уверенность
		EntryPrice: price,
		TakeProfit: tp,
		StopLoss:   sl,
		Leverage:   1,
	}
	if err := c.dispatch(ctx, scored, false); err != nil {
		logger.Error("[EXT] %s: dispatch failed: %v", sig.Symbol, err)
	}
}

func (c *Coordinator) scanWatchlist(ctx context.Context) {
	for _, symbol := range c.cfg.Watchlist {
		if c.cooldown.OnCooldown(symbol, c.now()) {
			continue // скипаем целиком, даже без расчёта индикаторов
		}
		if err := c.evaluateSymbol(ctx, symbol); err != nil {
			// изоляция: падение одного инструмента не валит остальные
			logger.Error("[SCAN] %s: %v", symbol, err)
		}
	}
}

func (c *Coordinator) evaluateSymbol(ctx context.Context, symbol string) error {
	candles, err := c.candles.Candles(ctx, symbol, c.cfg.Timeframe, c.cfg.CandleLimit)
	if err != nil {
		logger.Warn("[SCAN] %s: candle fetch failed: %v", symbol, err)
		return nil
	}
	if len(candles) < c.cfg.MinCandles {
		return nil // данных нет — не ошибка
	}

	snap, ok := c.snap.Snapshot(candles)
	if !ok {
		return nil
	}

	sig := c.scorer.Score(symbol, snap, snap.Price)
	if sig == nil {
		return nil
	}

	logger.Info("[SCAN] 🔥 signal %s %s @ %.4f | score=%d tp=%.4f sl=%.4f",
		sig.Direction, symbol, sig.EntryPrice, sig.Score, sig.TakeProfit, sig.StopLoss)

	if dec := c.gate.Evaluate(ctx); !dec.Allowed {
		logger.Warn("[SCAN] ⛔ %s blocked by risk manager: %s", symbol, dec.Reason)
		return nil
	}

	return c.dispatch(ctx, sig, true)
}

// dispatch: size → execute → cooldown → persist. Под мьютексом, чтобы
// проверка гейта и вставка сделки не гонялись между сигналами.
func (c *Coordinator) dispatch(ctx context.Context, sig *models.ScoredSignal, internal bool) error {
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()

	equity, err := c.exec.Equity(ctx)
	if err != nil {
		logger.Warn("[DISPATCH] %s: equity fetch failed: %v", sig.Symbol, err)
		return nil
	}

	qty, fallback := c.sizer.Size(equity, sig.EntryPrice, sig.StopLoss, sig.Leverage)
	if fallback {
		logger.Warn("[SIZER] %s: fallback notional %.2f (equity=%.2f) — эффективный риск не равен RiskPerTrade",
			sig.Symbol, c.cfg.Risk.FallbackNotional, equity)
	}
	if qty <= 0 {
		logger.Warn("[DISPATCH] %s: qty <= 0, skip", sig.Symbol)
		return nil
	}

	res, err := c.exec.Execute(ctx, models.OrderRequest{
		Symbol:   sig.Symbol,
		Side:     sig.Direction,
		Price:    sig.EntryPrice,
		TP:       sig.TakeProfit,
		SL:       sig.StopLoss,
		Quantity: qty,
		Leverage: sig.Leverage,
		Score:    sig.Score,
		Snapshot: sig.Snapshot,
	})
	if err != nil || res.Status != models.ExecFilled {
		logger.Error("[DISPATCH] ❌ %s order failed: status=%s err=%v", sig.Symbol, res.Status, err)
		c.notifyf("❌ Order Failed: %s %s — %v", sig.Direction, sig.Symbol, err)
		return nil // сделка не персистится
	}

	if internal {
		c.cooldown.MarkDispatched(sig.Symbol, c.now())
	}

	entry := res.FillPrice
	if entry <= 0 {
		entry = sig.EntryPrice
	}
	trade := &models.Trade{
		Symbol:     sig.Symbol,
		Direction:  sig.Direction,
		EntryPrice: entry,
		Quantity:   res.Quantity,
		StopLoss:   sig.StopLoss,
		TakeProfit: sig.TakeProfit,
		Score:      sig.Score,
		RSI:        sig.Snapshot.RSI,
		MACDHist:   sig.Snapshot.MACDHist,
		StochK:     sig.Snapshot.StochK,
		StochD:     sig.Snapshot.StochD,
		Status:     models.StatusOpen,
	}
	if err := c.store.RegisterTrade(ctx, trade); err != nil {
		// ордер уже стоит на бирже: откатывать нечем, фиксируем расхождение
		logger.Error("[DISPATCH] %s: persist failed (order %s stands): %v", sig.Symbol, res.OrderID, err)
		return nil
	}

	logger.Info("[DISPATCH] ✅ %s %s @ %.4f qty=%.6f score=%d orderId=%s",
		sig.Direction, sig.Symbol, entry, res.Quantity, sig.Score, res.OrderID)
	c.notifyf("✅ Trade Executed: %s %s @ %.4f | qty=%.6f | TP=%.4f SL=%.4f | score=%d",
		sig.Direction, sig.Symbol, entry, res.Quantity, sig.TakeProfit, sig.StopLoss, sig.Score)
	return nil
}

// notifyf — best effort, нотификация не должна валить диспатч.
func (c *Coordinator) notifyf(format string, args ...any) {
	if c.n == nil {
		return
	}
	go c.n.Sendf(format, args...)
}
