package engine

import (
	"context"
	"fmt"
	"time"

	"openclaw/internal/helper"
	"openclaw/internal/modules/config"
)

// RiskStore — агрегатное состояние портфеля из стораджа.
type RiskStore interface {
	CountOpenTrades(ctx context.Context) (int, error)
	DailyLoss(ctx context.Context, date string) (float64, error)
}

type Decision struct {
	Allowed bool
	Reason  string
}

// RiskGate — два независимых жёстких лимита, оба обязаны пройти.
// Никогда не кэшируется: каждая попытка диспатча идёт в сторадж заново.
type RiskGate struct {
	store RiskStore
	risk  config.RiskConfig

	now func() time.Time
}

func NewRiskGate(store RiskStore, risk config.RiskConfig) *RiskGate {
	return &RiskGate{store: store, risk: risk, now: time.Now}
}

func (g *RiskGate) Evaluate(ctx context.Context) Decision {
	open, err := g.store.CountOpenTrades(ctx)
	if err != nil {
		// fail-safe: не знаем состояние — не торгуем
		return Decision{Reason: fmt.Sprintf("risk state unavailable: %v", err)}
	}
	if open >= g.risk.MaxOpenTrades {
		return Decision{Reason: fmt.Sprintf("max open trades reached (%d/%d)", open, g.risk.MaxOpenTrades)}
	}

	today := helper.DateUTC(g.now())
	loss, err := g.store.DailyLoss(ctx, today)
	if err != nil {
		return Decision{Reason: fmt.Sprintf("risk state unavailable: %v", err)}
	}
	if loss >= g.risk.MaxDailyLoss {
		return Decision{Reason: fmt.Sprintf("daily loss limit reached (%.2f/%.2f)", loss, g.risk.MaxDailyLoss)}
	}

	return Decision{Allowed: true}
}
