package storage

import (
	"context"
	"fmt"
)

// CountOpenTrades и DailyLoss — чтения для RiskGate, вне транзакции.

func (s *Store) CountOpenTrades(ctx context.Context) (n int, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Store.CountOpenTrades: %w", err)
		}
	}()
	err = s.tm.Conn().QueryRow(ctx,
		`SELECT count(*) FROM trades WHERE status = 'OPEN'`,
	).Scan(&n)
	return
}

func (s *Store) DailyLoss(ctx context.Context, date string) (loss float64, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Store.DailyLoss: %w", err)
		}
	}()
	err = s.tm.Conn().QueryRow(ctx,
		`SELECT COALESCE((SELECT daily_loss FROM risk_stats WHERE date = $1), 0)`, date,
	).Scan(&loss)
	return
}
