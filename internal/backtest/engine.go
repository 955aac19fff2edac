// Package backtest drives bar-by-bar strategy simulations over historical
// price data and computes performance metrics for the finished run.
package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Eddieaero/Quickfix/internal/domain"
	"github.com/Eddieaero/Quickfix/internal/indicator"
	"github.com/Eddieaero/Quickfix/internal/store"
	"github.com/Eddieaero/Quickfix/internal/strategy"
)

// sharePrecision is the decimal scale for position sizing, rounded half-up.
const sharePrecision = 4

var hundred = decimal.NewFromInt(100)

// position is the engine-local state of the single open long position.
// At most one position is open at any time.
type position struct {
	entryPrice decimal.Decimal
	entryDate  time.Time
	reason     string
}

// Engine replays historical bars through a strategy, tracks cash and the
// open position, and persists the finished result with its trade log.
//
// A single run is strictly sequential: every bar's signal depends on the
// cash/position state left by the previous bar, so the loop never looks
// ahead. Independent runs share no mutable state and may execute
// concurrently.
type Engine struct {
	bars    store.BarStore
	results store.ResultStore
	log     *slog.Logger
}

// NewEngine creates an Engine reading bars from the given store and
// persisting results to the result store.
func NewEngine(bars store.BarStore, results store.ResultStore, log *slog.Logger) *Engine {
	return &Engine{
		bars:    bars,
		results: results,
		log:     log.With("component", "backtest"),
	}
}

// Run executes a complete backtest for the strategy on one symbol.
//
// It fails with domain.ErrInvalidRequest for non-positive capital or an
// inverted date range, and with domain.ErrConfiguration when the strategy
// fails its own validity check. An empty historical series is not an
// error: the run yields a well-formed zero-trade result so callers can
// display an empty run.
func (e *Engine) Run(ctx context.Context, strat strategy.Strategy, symbol string, start, end time.Time, initialCapital decimal.Decimal) (*domain.BacktestResult, error) {
	if initialCapital.Sign() <= 0 {
		return nil, fmt.Errorf("%w: initial capital must be greater than 0", domain.ErrInvalidRequest)
	}
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", domain.ErrInvalidRequest)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end date %s before start date %s",
			domain.ErrInvalidRequest, end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	if err := strat.Validate(); err != nil {
		return nil, err
	}

	e.log.Info("starting backtest",
		"strategy", strat.Name(), "symbol", symbol,
		"start", start.Format("2006-01-02"), "end", end.Format("2006-01-02"))

	bars, err := e.bars.ReadBars(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetching bars for %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		e.log.Warn("no price data found", "symbol", symbol)
		return emptyResult(strat.Name(), symbol, start, end, initialCapital), nil
	}

	cash := initialCapital
	shares := decimal.Zero
	var pos *position
	equityCurve := []decimal.Decimal{initialCapital}
	var trades []domain.TradeRecord

	for i := strat.MinimumBars(); i < len(bars); i++ {
		// Cooperative cancellation, checked once per bar.
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("backtest cancelled at bar %d: %w", i, err)
		}

		// Causal window: bars[0..i], never future data.
		window := bars[:i+1]
		closePrice := bars[i].Close

		indicators, err := e.computeIndicators(strat, window)
		if err != nil {
			return nil, fmt.Errorf("computing indicators at bar %d: %w", i, err)
		}

		signal := strat.GenerateSignal(window, indicators)

		switch {
		case signal.IsBuy() && pos == nil:
			// Enter fully: all cash into shares at the close.
			shares = cash.DivRound(closePrice, sharePrecision)
			cash = decimal.Zero
			pos = &position{
				entryPrice: closePrice,
				entryDate:  bars[i].Timestamp,
				reason:     signal.Reason,
			}
			e.log.Debug("entering position",
				"date", bars[i].Timestamp.Format("2006-01-02"),
				"price", closePrice, "shares", shares)

		case signal.IsSell() && pos != nil:
			trade, proceeds := closePosition(symbol, pos, shares, closePrice, bars[i].Timestamp, signal.Reason)
			trades = append(trades, trade)
			cash = proceeds
			shares = decimal.Zero
			pos = nil
			e.log.Debug("exiting position",
				"date", bars[i].Timestamp.Format("2006-01-02"),
				"price", closePrice, "pnl", trade.ProfitLoss)
		}

		equityCurve = append(equityCurve, cash.Add(shares.Mul(closePrice)))
	}

	// Force-close any open position at the last bar.
	if pos != nil {
		last := bars[len(bars)-1]
		trade, proceeds := closePosition(symbol, pos, shares, last.Close, last.Timestamp, "End of backtest period")
		trades = append(trades, trade)
		cash = proceeds
		shares = decimal.Zero
		pos = nil
	}

	res := e.assembleResult(strat.Name(), symbol, start, end, initialCapital, cash, equityCurve, trades)

	id, err := e.results.SaveResult(ctx, res, trades)
	if err != nil {
		return nil, fmt.Errorf("persisting backtest result: %w", err)
	}

	e.log.Info("backtest completed",
		"id", id, "strategy", strat.Name(), "trades", len(trades),
		"finalValue", cash, "totalReturn", res.TotalReturn)
	return res, nil
}

// Result retrieves a persisted result by id. Unknown ids fail with
// domain.ErrNotFound.
func (e *Engine) Result(ctx context.Context, id string) (*domain.BacktestResult, error) {
	return e.results.GetResult(ctx, id)
}

// ResultsByStrategy retrieves all persisted results for the named strategy.
func (e *Engine) ResultsByStrategy(ctx context.Context, name string) ([]domain.BacktestResult, error) {
	return e.results.ListResultsByStrategy(ctx, name)
}

// Trades retrieves the trade log of a persisted backtest.
func (e *Engine) Trades(ctx context.Context, backtestID string) ([]domain.TradeRecord, error) {
	return e.results.ListTrades(ctx, backtestID)
}

// closePosition builds the CLOSED trade record for a full exit at the
// given price and returns it with the sale proceeds.
func closePosition(symbol string, pos *position, shares, exitPrice decimal.Decimal, exitDate time.Time, exitReason string) (domain.TradeRecord, decimal.Decimal) {
	proceeds := shares.Mul(exitPrice)
	costBasis := shares.Mul(pos.entryPrice)
	profitLoss := proceeds.Sub(costBasis)
	profitLossPct := profitLoss.DivRound(costBasis, 4).Mul(hundred)

	return domain.TradeRecord{
		Symbol:        symbol,
		Side:          domain.SideLong,
		Status:        domain.TradeClosed,
		EntryDate:     pos.entryDate,
		ExitDate:      exitDate,
		EntryPrice:    pos.entryPrice,
		ExitPrice:     exitPrice,
		Quantity:      shares,
		ProfitLoss:    profitLoss,
		ProfitLossPct: profitLossPct,
		EntryReason:   pos.reason,
		ExitReason:    exitReason,
	}, proceeds
}

// computeIndicators evaluates every indicator the strategy requires over
// the causal window. Keys follow the NAME_PERIOD convention (SMA_50,
// EMA_12, RSI_14, ROC_10, ATR_14); MACD and BOLLINGER_BANDS carry fixed
// standard parameters.
func (e *Engine) computeIndicators(strat strategy.Strategy, window []domain.Bar) (map[string]indicator.Series, error) {
	closes := make([]float64, len(window))
	for i, b := range window {
		closes[i] = b.Close.InexactFloat64()
	}

	out := make(map[string]indicator.Series, len(strat.RequiredIndicators()))
	for _, key := range strat.RequiredIndicators() {
		var (
			series indicator.Series
			err    error
		)

		name, period, ok := splitIndicatorKey(key)
		switch {
		case ok && name == "SMA":
			series, err = indicator.SMA(closes, period)
		case ok && name == "EMA":
			series, err = indicator.EMA(closes, period)
		case ok && name == "RSI":
			series, err = indicator.RSI(closes, period)
		case ok && name == "ROC":
			series, err = indicator.ROC(closes, period)
		case ok && name == "ATR":
			highs := make([]float64, len(window))
			lows := make([]float64, len(window))
			for i, b := range window {
				highs[i] = b.High.InexactFloat64()
				lows[i] = b.Low.InexactFloat64()
			}
			series, err = indicator.ATR(highs, lows, closes, period)
		case key == "MACD":
			var macd indicator.MACDResult
			macd, err = indicator.MACD(closes, 12, 26, 9)
			series = macd.Line
		case key == "BOLLINGER_BANDS":
			var bands indicator.BollingerResult
			bands, err = indicator.Bollinger(closes, 20, 2)
			series = bands.Middle
		default:
			e.log.Warn("unknown indicator", "key", key)
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("indicator %s: %w", key, err)
		}
		out[key] = series
	}
	return out, nil
}

// splitIndicatorKey parses keys like "SMA_50" into ("SMA", 50, true).
func splitIndicatorKey(key string) (string, int, bool) {
	name, suffix, found := strings.Cut(key, "_")
	if !found {
		return "", 0, false
	}
	period, err := strconv.Atoi(suffix)
	if err != nil || period <= 0 {
		return "", 0, false
	}
	return name, period, true
}

// assembleResult fills a BacktestResult from the finished equity curve and
// trade ledger.
func (e *Engine) assembleResult(strategyName, symbol string, start, end time.Time, initialCapital, finalValue decimal.Decimal, equityCurve []decimal.Decimal, trades []domain.TradeRecord) *domain.BacktestResult {
	returns := DailyReturns(equityCurve)

	winning := 0
	for _, t := range trades {
		if t.ProfitLoss.Sign() > 0 {
			winning++
		}
	}

	years := end.Year() - start.Year()
	if years == 0 {
		years = 1
	}

	return &domain.BacktestResult{
		StrategyName:   strategyName,
		Symbol:         symbol,
		StartDate:      start,
		EndDate:        end,
		InitialCapital: initialCapital,
		FinalValue:     finalValue,
		AvgWin:         AverageWin(trades),
		AvgLoss:        AverageLoss(trades),
		TotalReturn:    TotalReturn(initialCapital, finalValue),
		AnnualReturn:   CAGR(initialCapital, finalValue, years),
		SharpeRatio:    SharpeRatio(returns),
		SortinoRatio:   SortinoRatio(returns, 0),
		MaxDrawdown:    MaxDrawdown(equityCurve),
		WinRate:        WinRate(trades),
		ProfitFactor:   ProfitFactor(trades),
		TotalTrades:    len(trades),
		WinningTrades:  winning,
		LosingTrades:   len(trades) - winning,
	}
}

// emptyResult is the well-formed zero-trade result returned when the
// historical store has no bars for the requested range.
func emptyResult(strategyName, symbol string, start, end time.Time, initialCapital decimal.Decimal) *domain.BacktestResult {
	return &domain.BacktestResult{
		StrategyName:   strategyName,
		Symbol:         symbol,
		StartDate:      start,
		EndDate:        end,
		InitialCapital: initialCapital,
		FinalValue:     initialCapital,
		AvgWin:         decimal.Zero,
		AvgLoss:        decimal.Zero,
	}
}
