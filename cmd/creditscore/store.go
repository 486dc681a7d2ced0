package main

import (
	"context"
	"fmt"

	"wallet-credit-score/internal/config"
	"wallet-credit-score/internal/storage"
	chstore "wallet-credit-score/internal/storage/clickhouse"
	"wallet-credit-score/internal/storage/memory"
	pgstore "wallet-credit-score/internal/storage/postgres"
)

// openStore returns the transaction store for source plus a close func.
// The file source scores from memory.
func openStore(ctx context.Context, source string, in config.InputConfig) (storage.TransactionStore, func(), error) {
	switch source {
	case config.SourceFile:
		return memory.NewTransactionStore(), func() {}, nil

	case config.SourcePostgres:
		pool, err := pgstore.NewPool(ctx, in.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		return pgstore.NewTransactionStore(pool), pool.Close, nil

	case config.SourceClickhouse:
		conn, err := chstore.NewConn(ctx, in.ClickhouseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect clickhouse: %w", err)
		}
		return chstore.NewTransactionStore(conn), func() { conn.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown source %q", source)
	}
}
