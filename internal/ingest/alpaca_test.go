package ingest

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rawBar(ts time.Time, open, high, low, close float64, volume uint64) marketdata.Bar {
	return marketdata.Bar{
		Timestamp: ts,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     close,
		Volume:    volume,
	}
}

func TestCleanBars(t *testing.T) {
	day1 := time.Date(2024, 1, 2, 5, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 1, 3, 5, 0, 0, 0, time.UTC)

	raw := []marketdata.Bar{
		rawBar(day2, 101, 103, 100, 102, 2000), // out of order on purpose
		rawBar(day1, 100, 102, 99, 101, 1000),
		rawBar(day1, 100, 102, 99, 101.5, 1500), // duplicate timestamp, dropped
		rawBar(day2.AddDate(0, 0, 1), 0, 0, 0, 0, 500), // malformed, dropped
	}

	got := CleanBars("aapl", raw, discardLogger())

	if len(got) != 2 {
		t.Fatalf("CleanBars returned %d bars, want 2", len(got))
	}
	for _, b := range got {
		if b.Symbol != "AAPL" {
			t.Errorf("Symbol = %q, want AAPL", b.Symbol)
		}
	}
	if !got[0].Timestamp.Before(got[1].Timestamp) {
		t.Error("bars not sorted ascending")
	}
	// First occurrence of a duplicate timestamp wins.
	if got[0].Close.InexactFloat64() != 101 {
		t.Errorf("first bar Close = %v, want 101", got[0].Close)
	}
}

func TestCleanBarsEmpty(t *testing.T) {
	if got := CleanBars("SPY", nil, discardLogger()); len(got) != 0 {
		t.Errorf("CleanBars(nil) = %v, want empty", got)
	}
}

func TestNewDailyBarIngestorDefaults(t *testing.T) {
	g := NewDailyBarIngestor("key", "secret", "", nil, 0, 0, "2016-01-01", discardLogger())
	if g.maxRetries != 3 {
		t.Errorf("maxRetries = %d, want default 3", g.maxRetries)
	}
	if g.limiter == nil {
		t.Error("rate limiter not initialized")
	}
}

func TestRunRejectsBadStartDate(t *testing.T) {
	g := NewDailyBarIngestor("key", "secret", "", nil, 10, 1, "not-a-date", discardLogger())
	if err := g.Run(context.Background(), []string{"SPY"}); err == nil {
		t.Error("Run with malformed start date should fail")
	}
}
