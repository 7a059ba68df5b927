package engine

import (
	"openclaw/internal/models"
	"openclaw/internal/modules/config"
)

// Scorer — балльный классификатор: снапшот индикаторов + текущая цена →
// направление и скор уверенности. Чистая функция от профиля.
type Scorer struct {
	p config.ScoringProfile
}

func NewScorer(p config.ScoringProfile) *Scorer {
	return &Scorer{p: p}
}

// Score возвращает nil, если скор ниже порога профиля.
// Направление выставляется всегда: SELL только при строгом price < EMA,
// на точном равенстве — BUY. Менять строгость сравнения нельзя,
// это граница поведения.
func (s *Scorer) Score(symbol string, snap models.IndicatorSnapshot, price float64) *models.ScoredSignal {
	p := s.p

	// 1. Трендовый байес — обязательная база
	dir := models.SideBuy
	if price < snap.TrendEMA {
		dir = models.SideSell
	}
	score := p.TrendPoints

	// 2. Моментум: RSI двумя ступенями + StochRSI-кросс в крайней зоне
	if dir == models.SideBuy {
		if snap.RSI < p.RSIEntryBuy {
			score += p.RSIEntryPoints
		}
		if snap.RSI < p.RSIDeepBuy {
			score += p.RSIDeepPoints
		}
		if snap.StochK < p.StochLowBand && snap.StochK > snap.StochD {
			score += p.StochPoints
		}
	} else {
		if snap.RSI > p.RSIEntrySell {
			score += p.RSIEntryPoints
		}
		if snap.RSI > p.RSIDeepSell {
			score += p.RSIDeepPoints
		}
		if snap.StochK > p.StochHighBand && snap.StochK < snap.StochD {
			score += p.StochPoints
		}
	}

	// 3. Подтверждение MACD
	if macdAgrees(p.MACDRule, dir, snap) {
		score += p.MACDPoints
	}

	// 4. Волатильность и сила тренда
	if dir == models.SideBuy && price < snap.BBLower*(1+p.BBProximity) {
		score += p.BBPoints
	}
	if dir == models.SideSell && price > snap.BBUpper*(1-p.BBProximity) {
		score += p.BBPoints
	}
	if snap.ADX > p.ADXThreshold {
		score += p.ADXPoints
	}

	// Скор может быть >100 — это вес, не вероятность
	if p.ClampScore && score > 100 {
		score = 100
	}
	if score < p.MinConfidenceScore {
		return nil
	}

	tp, sl := ExitLevels(dir, price, p.TPPercent, p.SLPercent)
	lev := p.Leverage
	if lev < 1 {
		lev = 1
	}

	return &models.ScoredSignal{
		Symbol:     symbol,
		Direction:  dir,
		Score:      score,
		EntryPrice: price,
		TakeProfit: tp,
		StopLoss:   sl,
		Leverage:   lev,
		Snapshot:   snap,
	}
}

func macdAgrees(rule string, dir models.Side, snap models.IndicatorSnapshot) bool {
	if dir == models.SideBuy {
		if rule == config.MACDRuleHistOnly {
			return snap.MACDHist > 0
		}
		return snap.MACDHist > snap.MACDSignal || snap.MACDHist > 0
	}
	if rule == config.MACDRuleHistOnly {
		return snap.MACDHist < 0
	}
	return snap.MACDHist < snap.MACDSignal || snap.MACDHist < 0
}

// ExitLevels — TP/SL от цены входа, знак по направлению.
func ExitLevels(dir models.Side, price, tpPct, slPct float64) (tp, sl float64) {
	if dir == models.SideBuy {
		return price * (1 + tpPct), price * (1 - slPct)
	}
	return price * (1 - tpPct), price * (1 + slPct)
}
