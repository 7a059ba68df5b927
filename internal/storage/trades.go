package storage

import (
	"context"
	"fmt"
	"math"
	"time"

	"openclaw/internal/engine"
	"openclaw/internal/helper"
	"openclaw/internal/models"
	"openclaw/pkg/logger"

	"github.com/jackc/pgx/v5"
)

// RegisterTrade — check-and-reserve: лимиты риска перепроверяются в той же
// транзакции, что и вставка, иначе два конкурентных диспатча пролезают
// оба. Заполняет t.ID и t.OpenedAt.
func (s *Store) RegisterTrade(ctx context.Context, t *models.Trade) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Store.RegisterTrade: %w", err)
		}
	}()

	today := helper.DateUTC(time.Now())

	return s.tm.RunSerializable(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var open int
		if err := tx.QueryRow(ctx,
			`SELECT count(*) FROM trades WHERE status = 'OPEN'`,
		).Scan(&open); err != nil {
			return err
		}
		if open >= s.risk.MaxOpenTrades {
			return fmt.Errorf("%w: open trades %d/%d", engine.ErrRiskLimit, open, s.risk.MaxOpenTrades)
		}

		var loss float64
		if err := tx.QueryRow(ctx,
			`SELECT COALESCE((SELECT daily_loss FROM risk_stats WHERE date = $1), 0)`, today,
		).Scan(&loss); err != nil {
			return err
		}
		if loss >= s.risk.MaxDailyLoss {
			return fmt.Errorf("%w: daily loss %.2f/%.2f", engine.ErrRiskLimit, loss, s.risk.MaxDailyLoss)
		}

		if err := tx.QueryRow(ctx,
			`INSERT INTO trades (
				symbol, direction, entry_price, quantity, stop_loss, take_profit,
				score, rsi_value, macd_histogram, stoch_k, stoch_d, status
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,'OPEN')
			RETURNING id, opened_at`,
			t.Symbol, t.Direction, t.EntryPrice, t.Quantity, t.StopLoss, t.TakeProfit,
			t.Score, t.RSI, t.MACDHist, t.StochK, t.StochD,
		).Scan(&t.ID, &t.OpenedAt); err != nil {
			return err
		}

		_, err := tx.Exec(ctx,
			`INSERT INTO risk_stats (date, daily_loss, trade_count) VALUES ($1, 0, 1)
			 ON CONFLICT (date) DO UPDATE SET trade_count = risk_stats.trade_count + 1`,
			today,
		)
		return err
	})
}

// CloseTrade закрывает сделку и доливает дневной убыток.
// В статистику идёт только модуль убытка: прибыль дневной лимит не
// разгружает, это сознательно.
func (s *Store) CloseTrade(ctx context.Context, id int64, profitLoss float64) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Store.CloseTrade: %w", err)
		}
	}()

	today := helper.DateUTC(time.Now())

	return s.tm.RunMaster(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE trades SET status = 'CLOSED', profit_loss = $1 WHERE id = $2 AND status = 'OPEN'`,
			profitLoss, id,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("trade %d not found or not open", id)
		}

		if profitLoss >= 0 {
			return nil
		}
		loss := math.Abs(profitLoss)
		_, err = tx.Exec(ctx,
			`INSERT INTO risk_stats (date, daily_loss, trade_count) VALUES ($1, $2, 0)
			 ON CONFLICT (date) DO UPDATE SET daily_loss = risk_stats.daily_loss + $2`,
			today, loss,
		)
		return err
	})
}

// RecentTrades — последние сделки для операторской выдачи, новые первыми.
func (s *Store) RecentTrades(ctx context.Context, limit int) (trades []models.Trade, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Store.RecentTrades: %w", err)
		}
	}()

	rows, err := s.tm.Conn().Query(ctx,
		`SELECT id, symbol, direction, entry_price, quantity, stop_loss, take_profit,
		        score, rsi_value, macd_histogram, stoch_k, stoch_d,
		        status, profit_loss, opened_at
		 FROM trades ORDER BY opened_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var t models.Trade
		if err := rows.Scan(
			&t.ID, &t.Symbol, &t.Direction, &t.EntryPrice, &t.Quantity,
			&t.StopLoss, &t.TakeProfit, &t.Score, &t.RSI, &t.MACDHist,
			&t.StochK, &t.StochD, &t.Status, &t.ProfitLoss, &t.OpenedAt,
		); err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	if rows.Err() != nil {
		logger.Error("rows iteration: %v", rows.Err())
		return nil, rows.Err()
	}
	return trades, nil
}
