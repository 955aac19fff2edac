package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Eddieaero/Quickfix/internal/backtest"
	"github.com/Eddieaero/Quickfix/internal/store"
	"github.com/Eddieaero/Quickfix/internal/strategy"
	"github.com/Eddieaero/Quickfix/internal/strategy/builtins"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	barStore := store.NewParquetStore(t.TempDir())
	resultStore, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { resultStore.Close() })

	registry := strategy.NewRegistry()
	if err := registry.Register(builtins.NewSMACrossover()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	engine := backtest.NewEngine(barStore, resultStore, logger)
	srv := httptest.NewServer(NewServer(engine, registry, logger).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url, body string, out any) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	var health HealthResponse
	if code := getJSON(t, srv.URL+"/api/quant/health", &health); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if health.Status != "UP" {
		t.Errorf("Status = %q, want UP", health.Status)
	}
}

func TestStrategiesEndpoint(t *testing.T) {
	srv := newTestServer(t)

	var got StrategiesResponse
	if code := getJSON(t, srv.URL+"/api/quant/strategies", &got); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if len(got.Strategies) != 1 || got.Strategies[0] != "SMA Crossover" {
		t.Errorf("Strategies = %v, want [SMA Crossover]", got.Strategies)
	}
}

func TestRunBacktestValidation(t *testing.T) {
	srv := newTestServer(t)
	url := srv.URL + "/api/quant/backtest"

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed body", "{not json", http.StatusBadRequest},
		{"unknown strategy", `{"strategyName":"nope","symbol":"AAPL","startDate":"2020-01-01","endDate":"2023-01-01","initialCapital":"100000"}`, http.StatusBadRequest},
		{"bad start date", `{"strategyName":"SMA Crossover","symbol":"AAPL","startDate":"01/01/2020","endDate":"2023-01-01","initialCapital":"100000"}`, http.StatusBadRequest},
		{"zero capital", `{"strategyName":"SMA Crossover","symbol":"AAPL","startDate":"2020-01-01","endDate":"2023-01-01","initialCapital":"0"}`, http.StatusBadRequest},
		{"inverted range", `{"strategyName":"SMA Crossover","symbol":"AAPL","startDate":"2023-01-01","endDate":"2020-01-01","initialCapital":"100000"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := postJSON(t, url, tt.body, nil); code != tt.want {
				t.Errorf("status = %d, want %d", code, tt.want)
			}
		})
	}
}

func TestRunBacktestNoData(t *testing.T) {
	srv := newTestServer(t)

	// No bars ingested: the run succeeds with a well-formed empty result.
	body := `{"strategyName":"sma_crossover","symbol":"AAPL","startDate":"2020-01-01","endDate":"2023-01-01","initialCapital":"100000"}`
	var res BacktestResultJSON
	if code := postJSON(t, srv.URL+"/api/quant/backtest", body, &res); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if res.TotalTrades != 0 {
		t.Errorf("TotalTrades = %d, want 0", res.TotalTrades)
	}
	if !res.FinalValue.Equal(res.InitialCapital) {
		t.Errorf("FinalValue = %v, want initial capital %v", res.FinalValue, res.InitialCapital)
	}
}

func TestGetResultNotFound(t *testing.T) {
	srv := newTestServer(t)

	if code := getJSON(t, srv.URL+"/api/quant/backtest/unknown-id", nil); code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", code)
	}
	if code := getJSON(t, srv.URL+"/api/quant/backtest/unknown-id/trades", nil); code != http.StatusNotFound {
		t.Errorf("trades status = %d, want 404", code)
	}
}

func TestResultsByStrategyEmpty(t *testing.T) {
	srv := newTestServer(t)

	var got ResultsResponse
	if code := getJSON(t, srv.URL+"/api/quant/strategies/SMA%20Crossover/backtests", &got); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if len(got.Results) != 0 {
		t.Errorf("Results = %v, want empty", got.Results)
	}
}

func TestRouteResolution(t *testing.T) {
	srv := newTestServer(t)

	// The by-strategy and by-id routes live under distinct prefixes, so a
	// strategy named after a path segment of the trades route still resolves
	// to the results listing.
	var results ResultsResponse
	if code := getJSON(t, srv.URL+"/api/quant/strategies/trades/backtests", &results); code != http.StatusOK {
		t.Fatalf("by-strategy status = %d, want 200", code)
	}
	if results.StrategyName != "trades" {
		t.Errorf("StrategyName = %q, want %q", results.StrategyName, "trades")
	}

	// The trades route keeps its own shape: unknown backtest ids are a 404.
	if code := getJSON(t, srv.URL+"/api/quant/backtest/strategy/trades", nil); code != http.StatusNotFound {
		t.Errorf("trades status = %d, want 404 for unknown backtest id", code)
	}
}
