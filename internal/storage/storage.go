package storage

import (
	"context"
	"fmt"

	"openclaw/internal/modules/config"
	"openclaw/pkg/db"
)

// Store — репозиторий сделок и дневной статистики риска.
type Store struct {
	tm   db.TxManager
	risk config.RiskConfig
}

func New(tm db.TxManager, risk config.RiskConfig) *Store {
	return &Store{tm: tm, risk: risk}
}

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	id              BIGSERIAL PRIMARY KEY,
	symbol          TEXT NOT NULL,
	direction       TEXT NOT NULL,
	entry_price     DOUBLE PRECISION NOT NULL,
	quantity        DOUBLE PRECISION,
	stop_loss       DOUBLE PRECISION,
	take_profit     DOUBLE PRECISION,
	score           INT,
	rsi_value       DOUBLE PRECISION,
	macd_histogram  DOUBLE PRECISION,
	stoch_k         DOUBLE PRECISION,
	stoch_d         DOUBLE PRECISION,
	status          TEXT NOT NULL DEFAULT 'OPEN',
	profit_loss     DOUBLE PRECISION NOT NULL DEFAULT 0,
	opened_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS trades_status_idx ON trades (status);

CREATE TABLE IF NOT EXISTS risk_stats (
	date        TEXT PRIMARY KEY,
	daily_loss  DOUBLE PRECISION NOT NULL DEFAULT 0,
	trade_count INT NOT NULL DEFAULT 0
);
`

func (s *Store) Migrate(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Store.Migrate: %w", err)
		}
	}()
	_, err = s.tm.Conn().Exec(ctx, schema)
	return
}
