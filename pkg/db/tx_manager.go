package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type TxManager interface {
	// RunMaster — ReadCommitted транзакция на мастере.
	RunMaster(ctx context.Context, fn func(ctxTx context.Context, tx pgx.Tx) error) error
	// RunSerializable — для check-and-reserve: проверка лимитов и вставка
	// сделки должны видеть согласованное состояние.
	RunSerializable(ctx context.Context, fn func(ctxTx context.Context, tx pgx.Tx) error) error
	Conn() Querier
}

// Querier — минимальный контракт для запросов вне явной транзакции.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}
