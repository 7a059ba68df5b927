package indicator

import (
	"openclaw/internal/models"
	"openclaw/internal/modules/config"

	talib "github.com/markcheno/go-talib"
)

// Calculator считает серии индикаторов по ценовой истории и собирает из
// последних значений IndicatorSnapshot. Сама математика — go-talib,
// здесь только привязка периодов из профиля и проверка готовности.
type Calculator struct {
	p          config.ScoringProfile
	minCandles int
}

func New(p config.ScoringProfile, minCandles int) *Calculator {
	return &Calculator{p: p, minCandles: minCandles}
}

// Series — полные серии, oldest first, длина равна входу
// (go-talib заполняет прогрев нулями).
type Series struct {
	RSI        []float64
	StochK     []float64
	StochD     []float64
	MACD       []float64
	MACDSignal []float64
	MACDHist   []float64
	EMA        []float64
	BBUpper    []float64
	BBMiddle   []float64
	BBLower    []float64
	ADX        []float64
}

func (c *Calculator) Compute(closes, highs, lows []float64) Series {
	var s Series
	s.RSI = talib.Rsi(closes, c.p.RSIPeriod)
	s.StochK, s.StochD = talib.StochRsi(closes, c.p.StochPeriod, c.p.StochK, c.p.StochD, talib.SMA)
	s.MACD, s.MACDSignal, s.MACDHist = talib.Macd(closes, c.p.MACDFast, c.p.MACDSlow, c.p.MACDSignal)
	s.EMA = talib.Ema(closes, c.p.EMAPeriod)
	s.BBUpper, s.BBMiddle, s.BBLower = talib.BBands(closes, c.p.BBPeriod, c.p.BBStdDev, c.p.BBStdDev, talib.SMA)
	s.ADX = talib.Adx(highs, lows, closes, c.p.ADXPeriod)
	return s
}

// Snapshot строит снапшот из последних значений серий.
// ok=false когда истории не хватает хотя бы одному индикатору —
// это "не готово", а не ошибка.
func (c *Calculator) Snapshot(candles []models.Candle) (models.IndicatorSnapshot, bool) {
	if len(candles) < c.required() {
		return models.IndicatorSnapshot{}, false
	}

	closes := make([]float64, len(candles))
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	for i, cd := range candles {
		closes[i] = cd.Close
		highs[i] = cd.High
		lows[i] = cd.Low
	}

	s := c.Compute(closes, highs, lows)
	n := len(closes) - 1

	snap := models.IndicatorSnapshot{
		Price:      closes[n],
		RSI:        s.RSI[n],
		MACDHist:   s.MACDHist[n],
		MACDSignal: s.MACDSignal[n],
		TrendEMA:   s.EMA[n],
		BBUpper:    s.BBUpper[n],
		BBMiddle:   s.BBMiddle[n],
		BBLower:    s.BBLower[n],
		ADX:        s.ADX[n],
		// StochRSI прогревается дольше остальных — дефолт 50/50,
		// нейтральная зона, баллов не даёт.
		StochK: 50,
		StochD: 50,
	}
	if s.StochK[n] != 0 || s.StochD[n] != 0 {
		snap.StochK = s.StochK[n]
		snap.StochD = s.StochD[n]
	}

	if snap.TrendEMA == 0 || snap.BBMiddle == 0 {
		return models.IndicatorSnapshot{}, false
	}
	return snap, true
}

// required — минимум свечей, при котором все серии дают последнее значение.
func (c *Calculator) required() int {
	need := c.minCandles
	for _, v := range []int{
		c.p.EMAPeriod,
		c.p.MACDSlow + c.p.MACDSignal,
		c.p.BBPeriod + 1,
		2*c.p.ADXPeriod + 1,
		c.p.RSIPeriod + 1,
	} {
		if v > need {
			need = v
		}
	}
	return need
}
