// Package ingest pulls historical daily bars from the Alpaca market-data
// API, cleans them, and writes them into the bar store.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"github.com/Eddieaero/Quickfix/internal/domain"
	"github.com/Eddieaero/Quickfix/internal/store"
	"github.com/Eddieaero/Quickfix/internal/util"
)

// DailyBarIngestor fetches daily OHLCV bars for a configured symbol list
// via the Alpaca market-data API and persists them to the bar store.
type DailyBarIngestor struct {
	client     *marketdata.Client
	store      store.BarStore
	limiter    *util.RateLimiter
	maxRetries int
	startDate  string
	log        *slog.Logger
}

// NewDailyBarIngestor creates an ingestor configured with the given Alpaca
// credentials, target store, and rate-limit parameters.
func NewDailyBarIngestor(apiKey, apiSecret, dataURL string, s store.BarStore, rateLimitPerMin, maxRetries int, startDate string, log *slog.Logger) *DailyBarIngestor {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	if rateLimitPerMin <= 0 {
		rateLimitPerMin = 200
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}

	return &DailyBarIngestor{
		client:     marketdata.NewClient(opts),
		store:      s,
		limiter:    util.NewRateLimiter(rateLimitPerMin),
		maxRetries: maxRetries,
		startDate:  startDate,
		log:        log.With("component", "ingest"),
	}
}

// Run fetches daily bars for every symbol from the configured start date
// through yesterday and writes them to the store. Symbols that fail after
// all retries are reported at the end; a partial run still persists the
// symbols that succeeded.
func (g *DailyBarIngestor) Run(ctx context.Context, symbols []string) error {
	start, err := time.Parse("2006-01-02", g.startDate)
	if err != nil {
		return fmt.Errorf("parsing start date %q: %w", g.startDate, err)
	}
	end := time.Now().UTC().Truncate(24 * time.Hour).Add(-24 * time.Hour)

	var failed []string
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return err
		}

		bars, err := g.fetchSymbol(ctx, symbol, start, end)
		if err != nil {
			g.log.Error("fetch failed", "symbol", symbol, "err", err)
			failed = append(failed, symbol)
			continue
		}
		if len(bars) == 0 {
			g.log.Warn("no bars returned", "symbol", symbol)
			continue
		}

		if err := g.store.WriteBars(ctx, bars); err != nil {
			return fmt.Errorf("writing bars for %s: %w", symbol, err)
		}
		g.log.Info("ingested", "symbol", symbol, "bars", len(bars),
			"first", bars[0].Timestamp.Format("2006-01-02"),
			"last", bars[len(bars)-1].Timestamp.Format("2006-01-02"))
	}

	if len(failed) > 0 {
		return fmt.Errorf("ingestion failed for %d symbols: %s", len(failed), strings.Join(failed, ", "))
	}
	return nil
}

// fetchSymbol fetches and cleans the daily bars of one symbol, retrying
// transient API failures with exponential backoff.
func (g *DailyBarIngestor) fetchSymbol(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var raw []marketdata.Bar
	err := util.Retry(ctx, g.maxRetries, time.Second, func() error {
		var err error
		raw, err = g.client.GetBars(symbol, marketdata.GetBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     start,
			End:       end,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("GetBars %s: %w", symbol, err)
	}

	return CleanBars(symbol, raw, g.log), nil
}

// CleanBars converts raw API bars to domain bars, dropping malformed
// records and duplicate timestamps. The result is sorted ascending.
func CleanBars(symbol string, raw []marketdata.Bar, log *slog.Logger) []domain.Bar {
	symbol = strings.ToUpper(symbol)
	seen := make(map[int64]struct{}, len(raw))
	bars := make([]domain.Bar, 0, len(raw))
	dropped := 0

	for _, ab := range raw {
		b := domain.Bar{
			Symbol:    symbol,
			Timestamp: ab.Timestamp.UTC(),
			Open:      decimal.NewFromFloat(ab.Open),
			High:      decimal.NewFromFloat(ab.High),
			Low:       decimal.NewFromFloat(ab.Low),
			Close:     decimal.NewFromFloat(ab.Close),
			Volume:    int64(ab.Volume),
		}
		if !b.Validate() {
			dropped++
			continue
		}
		ts := b.Timestamp.UnixMilli()
		if _, dup := seen[ts]; dup {
			dropped++
			continue
		}
		seen[ts] = struct{}{}
		bars = append(bars, b)
	}

	if dropped > 0 {
		log.Warn("dropped malformed or duplicate bars", "symbol", symbol, "count", dropped)
	}
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})
	return bars
}
