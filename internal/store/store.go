// Package store defines storage interfaces for the backtesting platform
// and provides Parquet-backed bar storage and SQLite-backed result
// storage. The engine only sees the interfaces; process-wide singletons
// are deliberately absent.
package store

import (
	"context"
	"time"

	"github.com/Eddieaero/Quickfix/internal/domain"
)

// BarStore persists and retrieves daily OHLCV bar data.
type BarStore interface {
	// WriteBars persists a batch of bars to storage.
	WriteBars(ctx context.Context, bars []domain.Bar) error

	// ReadBars returns bars for the given symbol within [start, end],
	// ordered ascending by timestamp. An empty result is not an error.
	ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols with stored bars.
	ListSymbols(ctx context.Context) ([]string, error)
}

// ResultStore persists and retrieves completed backtests and their trade
// logs. Saves are append-only, keyed by freshly generated ids.
type ResultStore interface {
	// SaveResult persists a backtest result together with its trade log
	// and returns the generated result id.
	SaveResult(ctx context.Context, res *domain.BacktestResult, trades []domain.TradeRecord) (string, error)

	// GetResult retrieves a single result by id. Unknown ids fail with
	// domain.ErrNotFound.
	GetResult(ctx context.Context, id string) (*domain.BacktestResult, error)

	// ListResultsByStrategy returns all results for the named strategy,
	// newest first.
	ListResultsByStrategy(ctx context.Context, strategyName string) ([]domain.BacktestResult, error)

	// ListTrades returns the trade log of a backtest in entry order.
	ListTrades(ctx context.Context, backtestID string) ([]domain.TradeRecord, error)
}
