// Package ingestion loads wallet transaction records into a TransactionStore.
package ingestion

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"wallet-credit-score/internal/storage"
)

const defaultBatchSize = 5000

// Loader parses transaction files and appends them to a store.
type Loader struct {
	store     storage.TransactionStore
	batchSize int
	logger    zerolog.Logger
}

// LoaderOptions contains configuration for creating a Loader.
type LoaderOptions struct {
	Store     storage.TransactionStore
	BatchSize int
	Logger    zerolog.Logger
}

// LoadResult contains statistics from a load operation.
type LoadResult struct {
	Quality  Quality
	Batches  int
	Duration time.Duration
}

// NewLoader creates a new transaction loader.
func NewLoader(opts LoaderOptions) *Loader {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	return &Loader{
		store:     opts.Store,
		batchSize: batchSize,
		logger:    opts.Logger.With().Str("component", "loader").Logger(),
	}
}

// LoadFile loads a JSON array of records from path.
func (l *Loader) LoadFile(ctx context.Context, path string) (*LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transactions file: %w", err)
	}
	defer f.Close()

	l.logger.Info().Str("path", path).Msg("loading transactions")
	return l.Load(ctx, f)
}

// Load parses records from r and appends them to the store in batches.
func (l *Loader) Load(ctx context.Context, r io.Reader) (*LoadResult, error) {
	start := time.Now()

	txs, stats, err := ParseTransactions(r)
	if err != nil {
		return nil, fmt.Errorf("parse transactions: %w", err)
	}

	result := &LoadResult{Quality: Summarize(txs)}
	result.Quality.SkippedRecords = stats.SkippedRecords
	result.Quality.MissingAmounts = stats.MissingAmounts
	result.Quality.MalformedAmounts = stats.MalformedAmounts

	for lo := 0; lo < len(txs); lo += l.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hi := min(lo+l.batchSize, len(txs))
		if err := l.store.InsertBulk(ctx, txs[lo:hi]); err != nil {
			return nil, fmt.Errorf("insert batch %d-%d: %w", lo, hi, err)
		}
		result.Batches++
	}

	result.Duration = time.Since(start)

	l.logger.Info().
		Int("transactions", result.Quality.Transactions).
		Int("wallets", result.Quality.Wallets).
		Int("batches", result.Batches).
		Dur("duration", result.Duration).
		Msg("transactions loaded")

	if n := result.Quality.MalformedAmounts; n > 0 {
		l.logger.Warn().Int("records", n).Msg("malformed amounts treated as zero")
	}
	if n := result.Quality.SkippedRecords; n > 0 {
		l.logger.Warn().Int("records", n).Msg("records without a wallet id skipped")
	}
	if n := result.Quality.MissingTimestamps; n > 0 {
		l.logger.Warn().Int("records", n).Msg("records without a usable timestamp kept undated")
	}
	if n := result.Quality.NonHexWallets; n > 0 {
		l.logger.Warn().Int("wallets", n).Msg("wallet ids are not hex addresses")
	}

	return result, nil
}
