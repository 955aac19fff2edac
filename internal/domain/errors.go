package domain

import "errors"

// Error taxonomy for the backtesting core. Callers classify failures with
// errors.Is; producers wrap these sentinels with context via fmt.Errorf.
var (
	// ErrInsufficientData means an indicator was invoked on a series
	// shorter than its required window. The engine's warm-up gating makes
	// this avoidable; hitting it indicates a caller bug.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvalidRequest covers malformed backtest requests: non-positive
	// capital, an empty or inverted date range, or a blank strategy name.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrConfiguration means a strategy failed its own validity check and
	// must not run.
	ErrConfiguration = errors.New("strategy misconfigured")

	// ErrNoData means the historical store returned zero bars. Not fatal:
	// the engine recovers it into a well-formed zero-trade result.
	ErrNoData = errors.New("no historical data")

	// ErrNotFound means a persisted result id is unknown.
	ErrNotFound = errors.New("not found")
)
