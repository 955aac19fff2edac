package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Eddieaero/Quickfix/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ ResultStore = (*SQLiteStore)(nil)

// SQLiteStore implements ResultStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, runs
// migrations, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for concurrent readers while a backtest writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS backtest_results (
			id              TEXT PRIMARY KEY,
			strategy_name   TEXT NOT NULL,
			symbol          TEXT NOT NULL,
			start_date      TEXT NOT NULL,
			end_date        TEXT NOT NULL,
			initial_capital TEXT NOT NULL,
			final_value     TEXT NOT NULL,
			avg_win         TEXT,
			avg_loss        TEXT,
			total_return    REAL,
			annual_return   REAL,
			sharpe_ratio    REAL,
			sortino_ratio   REAL,
			max_drawdown    REAL,
			win_rate        REAL,
			profit_factor   REAL,
			total_trades    INTEGER NOT NULL,
			winning_trades  INTEGER NOT NULL,
			losing_trades   INTEGER NOT NULL,
			created_at      TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_backtest_strategy ON backtest_results(strategy_name)`,
		`CREATE INDEX IF NOT EXISTS idx_backtest_symbol ON backtest_results(symbol)`,

		`CREATE TABLE IF NOT EXISTS trade_log (
			id              TEXT PRIMARY KEY,
			backtest_id     TEXT NOT NULL,
			symbol          TEXT NOT NULL,
			side            TEXT NOT NULL,
			status          TEXT NOT NULL,
			entry_date      TEXT NOT NULL,
			exit_date       TEXT NOT NULL,
			entry_price     TEXT NOT NULL,
			exit_price      TEXT NOT NULL,
			quantity        TEXT NOT NULL,
			profit_loss     TEXT NOT NULL,
			profit_loss_pct TEXT NOT NULL,
			entry_reason    TEXT,
			exit_reason     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trade_log_backtest ON trade_log(backtest_id)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveResult inserts the result and its trade log in one transaction and
// returns the generated result id.
func (s *SQLiteStore) SaveResult(ctx context.Context, res *domain.BacktestResult, trades []domain.TradeRecord) (string, error) {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO backtest_results (
			id, strategy_name, symbol, start_date, end_date,
			initial_capital, final_value, avg_win, avg_loss,
			total_return, annual_return, sharpe_ratio, sortino_ratio,
			max_drawdown, win_rate, profit_factor,
			total_trades, winning_trades, losing_trades, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID, res.StrategyName, res.Symbol,
		res.StartDate.Format(time.RFC3339), res.EndDate.Format(time.RFC3339),
		res.InitialCapital.String(), res.FinalValue.String(),
		res.AvgWin.String(), res.AvgLoss.String(),
		res.TotalReturn, res.AnnualReturn, res.SharpeRatio, res.SortinoRatio,
		res.MaxDrawdown, res.WinRate, res.ProfitFactor,
		res.TotalTrades, res.WinningTrades, res.LosingTrades,
		res.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("insert result: %w", err)
	}

	for i := range trades {
		t := &trades[i]
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		t.BacktestID = res.ID

		_, err = tx.ExecContext(ctx, `INSERT INTO trade_log (
				id, backtest_id, symbol, side, status,
				entry_date, exit_date, entry_price, exit_price, quantity,
				profit_loss, profit_loss_pct, entry_reason, exit_reason
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.BacktestID, t.Symbol, string(t.Side), string(t.Status),
			t.EntryDate.Format(time.RFC3339), t.ExitDate.Format(time.RFC3339),
			t.EntryPrice.String(), t.ExitPrice.String(), t.Quantity.String(),
			t.ProfitLoss.String(), t.ProfitLossPct.String(),
			t.EntryReason, t.ExitReason,
		)
		if err != nil {
			return "", fmt.Errorf("insert trade: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return res.ID, nil
}

const resultColumns = `id, strategy_name, symbol, start_date, end_date,
	initial_capital, final_value, avg_win, avg_loss,
	total_return, annual_return, sharpe_ratio, sortino_ratio,
	max_drawdown, win_rate, profit_factor,
	total_trades, winning_trades, losing_trades, created_at`

// GetResult retrieves a single result by id.
func (s *SQLiteStore) GetResult(ctx context.Context, id string) (*domain.BacktestResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+resultColumns+` FROM backtest_results WHERE id = ?`, id)

	res, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: backtest %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get result %s: %w", id, err)
	}
	return res, nil
}

// ListResultsByStrategy returns all results for the strategy, newest first.
func (s *SQLiteStore) ListResultsByStrategy(ctx context.Context, strategyName string) ([]domain.BacktestResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+resultColumns+` FROM backtest_results
		 WHERE strategy_name = ? ORDER BY created_at DESC`, strategyName)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var results []domain.BacktestResult
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, *res)
	}
	return results, rows.Err()
}

// ListTrades returns the trade log of a backtest in entry order.
func (s *SQLiteStore) ListTrades(ctx context.Context, backtestID string) ([]domain.TradeRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, backtest_id, symbol, side, status,
			entry_date, exit_date, entry_price, exit_price, quantity,
			profit_loss, profit_loss_pct, entry_reason, exit_reason
		 FROM trade_log WHERE backtest_id = ? ORDER BY entry_date`, backtestID)
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	defer rows.Close()

	var trades []domain.TradeRecord
	for rows.Next() {
		var t domain.TradeRecord
		var side, status, entryDate, exitDate string
		var entryPrice, exitPrice, quantity, pl, plPct string

		err := rows.Scan(&t.ID, &t.BacktestID, &t.Symbol, &side, &status,
			&entryDate, &exitDate, &entryPrice, &exitPrice, &quantity,
			&pl, &plPct, &t.EntryReason, &t.ExitReason)
		if err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}

		t.Side = domain.TradeSide(side)
		t.Status = domain.TradeStatus(status)
		if t.EntryDate, err = time.Parse(time.RFC3339, entryDate); err != nil {
			return nil, fmt.Errorf("parse entry date: %w", err)
		}
		if t.ExitDate, err = time.Parse(time.RFC3339, exitDate); err != nil {
			return nil, fmt.Errorf("parse exit date: %w", err)
		}
		if t.EntryPrice, err = decimal.NewFromString(entryPrice); err != nil {
			return nil, fmt.Errorf("parse entry price: %w", err)
		}
		if t.ExitPrice, err = decimal.NewFromString(exitPrice); err != nil {
			return nil, fmt.Errorf("parse exit price: %w", err)
		}
		if t.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return nil, fmt.Errorf("parse quantity: %w", err)
		}
		if t.ProfitLoss, err = decimal.NewFromString(pl); err != nil {
			return nil, fmt.Errorf("parse profit/loss: %w", err)
		}
		if t.ProfitLossPct, err = decimal.NewFromString(plPct); err != nil {
			return nil, fmt.Errorf("parse profit/loss pct: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// scanner abstracts *sql.Row and *sql.Rows for scanResult.
type scanner interface {
	Scan(dest ...any) error
}

func scanResult(sc scanner) (*domain.BacktestResult, error) {
	var res domain.BacktestResult
	var startDate, endDate, initialCapital, finalValue, avgWin, avgLoss, createdAt string

	err := sc.Scan(&res.ID, &res.StrategyName, &res.Symbol, &startDate, &endDate,
		&initialCapital, &finalValue, &avgWin, &avgLoss,
		&res.TotalReturn, &res.AnnualReturn, &res.SharpeRatio, &res.SortinoRatio,
		&res.MaxDrawdown, &res.WinRate, &res.ProfitFactor,
		&res.TotalTrades, &res.WinningTrades, &res.LosingTrades, &createdAt)
	if err != nil {
		return nil, err
	}

	if res.StartDate, err = time.Parse(time.RFC3339, startDate); err != nil {
		return nil, fmt.Errorf("parse start date: %w", err)
	}
	if res.EndDate, err = time.Parse(time.RFC3339, endDate); err != nil {
		return nil, fmt.Errorf("parse end date: %w", err)
	}
	if res.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parse created at: %w", err)
	}
	if res.InitialCapital, err = decimal.NewFromString(initialCapital); err != nil {
		return nil, fmt.Errorf("parse initial capital: %w", err)
	}
	if res.FinalValue, err = decimal.NewFromString(finalValue); err != nil {
		return nil, fmt.Errorf("parse final value: %w", err)
	}
	if res.AvgWin, err = decimal.NewFromString(avgWin); err != nil {
		return nil, fmt.Errorf("parse avg win: %w", err)
	}
	if res.AvgLoss, err = decimal.NewFromString(avgLoss); err != nil {
		return nil, fmt.Errorf("parse avg loss: %w", err)
	}
	return &res, nil
}
