package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openclaw/internal/models"
	"openclaw/internal/modules/config"
	"openclaw/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.InitNop()
	m.Run()
}

func testConfig(watchlist ...string) *config.Config {
	cfg := &config.Config{
		Watchlist:         watchlist,
		Timeframe:         "1h",
		CandleLimit:       200,
		MinCandles:        1,
		Profile:           "trend_following",
		Profiles:          config.DefaultProfiles(),
		Risk:              testRisk(),
		CooldownPerSymbol: time.Hour,
		DedupCapacity:     16,
	}
	return cfg
}

type fakeCandles struct {
	err map[string]error
}

func (f *fakeCandles) Candles(_ context.Context, symbol, _ string, _ int) ([]models.Candle, error) {
	if err := f.err[symbol]; err != nil {
		return nil, err
	}
	return []models.Candle{{Close: 100}}, nil
}

type fakeSignals struct {
	batch []models.ExternalSignal
	err   error
}

func (f *fakeSignals) Poll(context.Context) ([]models.ExternalSignal, error) {
	return f.batch, f.err
}

type fakeSnap struct {
	snap models.IndicatorSnapshot
	ok   bool
}

func (f *fakeSnap) Snapshot([]models.Candle) (models.IndicatorSnapshot, bool) {
	return f.snap, f.ok
}

type fakeExec struct {
	mu     sync.Mutex
	equity float64
	orders []models.OrderRequest
	err    error
}

func (f *fakeExec) Execute(_ context.Context, req models.OrderRequest) (models.ExecutionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.ExecutionResult{Status: models.ExecError}, f.err
	}
	f.orders = append(f.orders, req)
	return models.ExecutionResult{
		Status:    models.ExecFilled,
		OrderID:   "1",
		Quantity:  req.Quantity,
		FillPrice: req.Price,
	}, nil
}

func (f *fakeExec) Equity(context.Context) (float64, error) { return f.equity, nil }

type fakeTradeStore struct {
	mu     sync.Mutex
	trades []models.Trade
	err    error
}

func (f *fakeTradeStore) RegisterTrade(_ context.Context, t *models.Trade) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.trades = append(f.trades, *t)
	return nil
}

type fixture struct {
	coord   *Coordinator
	candles *fakeCandles
	signals *fakeSignals
	exec    *fakeExec
	store   *fakeTradeStore
	risk    *fakeRiskStore
}

func newFixture(cfg *config.Config, signals *fakeSignals) *fixture {
	f := &fixture{
		candles: &fakeCandles{err: map[string]error{}},
		signals: signals,
		exec:    &fakeExec{equity: 1000},
		store:   &fakeTradeStore{},
		risk:    &fakeRiskStore{},
	}

	deps := CoordinatorDeps{
		Candles: f.candles,
		Snap:    &fakeSnap{snap: fullBuySnapshot(), ok: true},
		Exec:    f.exec,
		Store:   f.store,
		Gate:    NewRiskGate(f.risk, cfg.Risk),
	}
	if signals != nil {
		deps.Signals = signals
	}

	f.coord = NewCoordinator(cfg, deps)
	return f
}

func TestCoordinator_ScanDispatchesTrade(t *testing.T) {
	f := newFixture(testConfig("BTCUSDT"), nil)

	f.coord.RunTick(context.Background())

	require.Len(t, f.store.trades, 1)
	tr := f.store.trades[0]
	assert.Equal(t, "BTCUSDT", tr.Symbol)
	assert.Equal(t, models.SideBuy, tr.Direction)
	assert.Equal(t, models.StatusOpen, tr.Status)
	assert.InDelta(t, 100.0, tr.EntryPrice, 1e-9)
	assert.InDelta(t, 106.0, tr.TakeProfit, 1e-9)
	assert.InDelta(t, 98.0, tr.StopLoss, 1e-9)
	assert.InDelta(t, 10.0, tr.Quantity, 1e-9) // 1000×0.02 / 2
	assert.Equal(t, 120, tr.Score)
}

func TestCoordinator_CooldownBlocksSecondTick(t *testing.T) {
	f := newFixture(testConfig("BTCUSDT"), nil)

	f.coord.RunTick(context.Background())
	f.coord.RunTick(context.Background())

	assert.Len(t, f.store.trades, 1)
}

func TestCoordinator_RiskGateBlocksDispatch(t *testing.T) {
	f := newFixture(testConfig("BTCUSDT"), nil)
	f.risk.open = 5

	f.coord.RunTick(context.Background())

	assert.Empty(t, f.store.trades)
	assert.Empty(t, f.exec.orders)
}

func TestCoordinator_InstrumentFailureIsolated(t *testing.T) {
	f := newFixture(testConfig("BTCUSDT", "ETHUSDT"), nil)
	f.candles.err["BTCUSDT"] = errors.New("exchange 500")

	f.coord.RunTick(context.Background())

	require.Len(t, f.store.trades, 1)
	assert.Equal(t, "ETHUSDT", f.store.trades[0].Symbol)
}

func TestCoordinator_ExternalSignalDedup(t *testing.T) {
	signals := &fakeSignals{batch: []models.ExternalSignal{
		{ID: "ext-1", Symbol: "SOLUSDT", Action: "BUY", Price: 150},
	}}
	f := newFixture(testConfig(), signals)

	f.coord.RunTick(context.Background())
	f.coord.RunTick(context.Background()) // тот же батч из поллера

	require.Len(t, f.store.trades, 1)
	assert.Equal(t, "SOLUSDT", f.store.trades[0].Symbol)
	assert.Equal(t, 100, f.store.trades[0].Score)
}

func TestCoordinator_ExternalBeforeWatchlist(t *testing.T) {
	signals := &fakeSignals{batch: []models.ExternalSignal{
		{ID: "ext-1", Symbol: "SOLUSDT", Action: "SELL", Price: 150},
	}}
	f := newFixture(testConfig("BTCUSDT"), signals)

	f.coord.RunTick(context.Background())

	require.Len(t, f.store.trades, 2)
	assert.Equal(t, "SOLUSDT", f.store.trades[0].Symbol)
	assert.Equal(t, models.SideSell, f.store.trades[0].Direction)
	assert.Equal(t, "BTCUSDT", f.store.trades[1].Symbol)
}

func TestCoordinator_ExternalBypassesCooldown(t *testing.T) {
	signals := &fakeSignals{}
	f := newFixture(testConfig("BTCUSDT"), signals)

	f.coord.RunTick(context.Background()) // внутренний диспатч, кулдаун взведён
	require.Len(t, f.store.trades, 1)

	signals.batch = []models.ExternalSignal{
		{ID: "ext-1", Symbol: "BTCUSDT", Action: "BUY", Price: 101},
	}
	f.coord.RunTick(context.Background())

	assert.Len(t, f.store.trades, 2)
}

func TestCoordinator_ExternalUnknownActionSkipped(t *testing.T) {
	signals := &fakeSignals{batch: []models.ExternalSignal{
		{ID: "ext-1", Symbol: "SOLUSDT", Action: "HOLD", Price: 150},
	}}
	f := newFixture(testConfig(), signals)

	f.coord.RunTick(context.Background())

	assert.Empty(t, f.store.trades)
}

func TestCoordinator_ExternalTPSLBackfill(t *testing.T) {
	signals := &fakeSignals{batch: []models.ExternalSignal{
		{ID: "ext-1", Symbol: "SOLUSDT", Action: "BUY", Price: 200},
	}}
	f := newFixture(testConfig(), signals)

	f.coord.RunTick(context.Background())

	require.Len(t, f.store.trades, 1)
	tr := f.store.trades[0]
	assert.InDelta(t, 212.0, tr.TakeProfit, 1e-9)
	assert.InDelta(t, 196.0, tr.StopLoss, 1e-9)
}

func TestCoordinator_ExternalPriceBackfillFromCandles(t *testing.T) {
	signals := &fakeSignals{batch: []models.ExternalSignal{
		{ID: "ext-1", Symbol: "SOLUSDT", Action: "BUY"}, // без цены
	}}
	f := newFixture(testConfig(), signals)

	f.coord.RunTick(context.Background())

	require.Len(t, f.store.trades, 1)
	assert.InDelta(t, 100.0, f.store.trades[0].EntryPrice, 1e-9)
}

func TestCoordinator_PollErrorDoesNotStopScan(t *testing.T) {
	signals := &fakeSignals{err: errors.New("signal feed down")}
	f := newFixture(testConfig("BTCUSDT"), signals)

	f.coord.RunTick(context.Background())

	assert.Len(t, f.store.trades, 1)
}

func TestCoordinator_ExecutionFailureNotPersisted(t *testing.T) {
	f := newFixture(testConfig("BTCUSDT"), nil)
	f.exec.err = errors.New("insufficient balance")

	f.coord.RunTick(context.Background())

	assert.Empty(t, f.store.trades)
}

func TestCoordinator_PersistFailureDoesNotPanic(t *testing.T) {
	f := newFixture(testConfig("BTCUSDT"), nil)
	f.store.err = errors.New("db down")

	f.coord.RunTick(context.Background())

	// ордер ушёл на биржу, рассинхрон только логируется
	assert.Len(t, f.exec.orders, 1)
	assert.Empty(t, f.store.trades)
}

func TestCoordinator_InjectSignalDispatchedNextTick(t *testing.T) {
	f := newFixture(testConfig(), nil)

	require.NoError(t, f.coord.InjectSignal(models.ExternalSignal{
		ID: "op-1", Symbol: "BTCUSDT", Action: "BUY", Price: 100,
	}))
	f.coord.RunTick(context.Background())

	require.Len(t, f.store.trades, 1)
	assert.Equal(t, "BTCUSDT", f.store.trades[0].Symbol)
}
