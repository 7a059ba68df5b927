package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openclaw/internal/models"
	"openclaw/internal/modules/config"
)

func trendProfile() config.ScoringProfile {
	return config.DefaultProfiles()["trend_following"]
}

// Снапшот, набирающий все баллы для BUY при цене 100.
func fullBuySnapshot() models.IndicatorSnapshot {
	return models.IndicatorSnapshot{
		Price:      100,
		RSI:        28,
		StochK:     15,
		StochD:     10,
		MACDHist:   1,
		MACDSignal: 0.5,
		TrendEMA:   90,
		BBUpper:    120,
		BBMiddle:   110,
		BBLower:    100,
		ADX:        30,
	}
}

func TestScorer_FullBuySignal(t *testing.T) {
	s := NewScorer(trendProfile())

	sig := s.Score("BTCUSDT", fullBuySnapshot(), 100)
	require.NotNil(t, sig)

	assert.Equal(t, models.SideBuy, sig.Direction)
	// 25 тренд + 10+5 RSI + 15 stoch + 25 MACD + 20 BB + 20 ADX
	assert.Equal(t, 120, sig.Score)
	assert.InDelta(t, 106.0, sig.TakeProfit, 1e-9)
	assert.InDelta(t, 98.0, sig.StopLoss, 1e-9)
}

func TestScorer_BelowThresholdReturnsNil(t *testing.T) {
	s := NewScorer(trendProfile())

	snap := fullBuySnapshot()
	snap.RSI = 50
	snap.StochK, snap.StochD = 50, 50
	snap.MACDHist, snap.MACDSignal = -1, 0
	snap.BBLower = 90
	snap.ADX = 10

	// остаётся только трендовая база (25 < 75)
	assert.Nil(t, s.Score("BTCUSDT", snap, 100))
}

func TestScorer_DirectionTieBreak(t *testing.T) {
	s := NewScorer(trendProfile())
	snap := fullBuySnapshot()

	cases := []struct {
		name  string
		price float64
		ema   float64
		want  models.Side
	}{
		{"price above ema", 100, 90, models.SideBuy},
		{"price equals ema", 100, 100, models.SideBuy},
		{"price below ema", 100, 100.0001, models.SideSell},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap.TrendEMA = tc.ema
			got := direction(s, snap, tc.price)
			assert.Equal(t, tc.want, got)
		})
	}
}

// Направление видно только через прошедший порог сигнал, поэтому
// накручиваем снапшот до гарантированного срабатывания в обе стороны.
func direction(s *Scorer, snap models.IndicatorSnapshot, price float64) models.Side {
	snap.RSI = 28
	snap.StochK, snap.StochD = 15, 10
	snap.MACDHist = 1
	snap.ADX = 30
	snap.BBLower = price

	sigBuy := s.Score("X", snap, price)
	if sigBuy != nil && sigBuy.Direction == models.SideBuy {
		return models.SideBuy
	}

	snap.RSI = 72
	snap.StochK, snap.StochD = 85, 90
	snap.MACDHist = -1
	snap.BBUpper = price

	sigSell := s.Score("X", snap, price)
	if sigSell != nil {
		return sigSell.Direction
	}
	return ""
}

func TestScorer_FullSellSignal(t *testing.T) {
	s := NewScorer(trendProfile())

	snap := models.IndicatorSnapshot{
		Price:      100,
		RSI:        72,
		StochK:     85,
		StochD:     90,
		MACDHist:   -1,
		MACDSignal: -0.5,
		TrendEMA:   110,
		BBUpper:    100,
		BBMiddle:   90,
		BBLower:    80,
		ADX:        30,
	}

	sig := s.Score("ETHUSDT", snap, 100)
	require.NotNil(t, sig)

	assert.Equal(t, models.SideSell, sig.Direction)
	assert.Equal(t, 120, sig.Score)
	assert.InDelta(t, 94.0, sig.TakeProfit, 1e-9)
	assert.InDelta(t, 102.0, sig.StopLoss, 1e-9)
}

func TestScorer_ClampScore(t *testing.T) {
	p := trendProfile()
	p.ClampScore = true
	s := NewScorer(p)

	sig := s.Score("BTCUSDT", fullBuySnapshot(), 100)
	require.NotNil(t, sig)
	assert.Equal(t, 100, sig.Score)
}

func TestScorer_MACDRuleHistOnly(t *testing.T) {
	// hist отрицательный, но выше сигнальной: мягкое правило даёт баллы,
	// строгое — нет.
	snap := fullBuySnapshot()
	snap.MACDHist, snap.MACDSignal = -0.5, -1

	soft := NewScorer(trendProfile()).Score("BTCUSDT", snap, 100)
	require.NotNil(t, soft)
	assert.Equal(t, 120, soft.Score)

	p := trendProfile()
	p.MACDRule = config.MACDRuleHistOnly
	strict := NewScorer(p).Score("BTCUSDT", snap, 100)
	require.NotNil(t, strict)
	assert.Equal(t, 95, strict.Score)
}

func TestExitLevels(t *testing.T) {
	tp, sl := ExitLevels(models.SideBuy, 200, 0.06, 0.02)
	assert.InDelta(t, 212.0, tp, 1e-9)
	assert.InDelta(t, 196.0, sl, 1e-9)

	tp, sl = ExitLevels(models.SideSell, 200, 0.06, 0.02)
	assert.InDelta(t, 188.0, tp, 1e-9)
	assert.InDelta(t, 204.0, sl, 1e-9)
}
