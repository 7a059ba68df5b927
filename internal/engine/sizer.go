package engine

import (
	"math"

	"openclaw/internal/modules/config"
)

// Sizer переводит equity и дистанцию до стопа в размер позиции.
// Основной путь — риск-базед: потеря по стопу равна RiskPerTrade от equity.
// Запасной — фиксированный notional; он молча меняет эффективный риск,
// поэтому вызывающий обязан логировать его отдельно (fallback=true).
type Sizer struct {
	risk config.RiskConfig
}

func NewSizer(risk config.RiskConfig) *Sizer {
	return &Sizer{risk: risk}
}

func (s *Sizer) Size(equity, entryPrice, slPrice float64, leverage int) (qty float64, fallback bool) {
	if entryPrice <= 0 {
		return 0, false
	}

	stopDist := math.Abs(entryPrice - slPrice)
	if equity < s.risk.MinEquity || stopDist == 0 {
		return s.risk.FallbackNotional / entryPrice, true
	}

	qty = (equity * s.risk.RiskPerTrade) / stopDist

	// notional не выше equity×плечо
	lev := float64(leverage)
	if lev < 1 {
		lev = 1
	}
	if maxQty := equity * lev / entryPrice; qty > maxQty {
		qty = maxQty
	}
	return qty, false
}
