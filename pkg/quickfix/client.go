// Package quickfix provides a Go SDK for the quant-server REST API.
package quickfix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Client provides a Go SDK for interacting with the quant-server API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client for the given base URL, e.g.
// "http://localhost:8080".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

// BacktestRequest is the body of RunBacktest. Dates use YYYY-MM-DD.
type BacktestRequest struct {
	StrategyName   string          `json:"strategyName"`
	Symbol         string          `json:"symbol"`
	StartDate      string          `json:"startDate"`
	EndDate        string          `json:"endDate"`
	InitialCapital decimal.Decimal `json:"initialCapital"`
}

// BacktestResult is a finished backtest as returned by the server.
type BacktestResult struct {
	ID             string          `json:"id"`
	StrategyName   string          `json:"strategyName"`
	Symbol         string          `json:"symbol"`
	StartDate      string          `json:"startDate"`
	EndDate        string          `json:"endDate"`
	InitialCapital decimal.Decimal `json:"initialCapital"`
	FinalValue     decimal.Decimal `json:"finalValue"`
	TotalReturn    float64         `json:"totalReturn"`
	AnnualReturn   float64         `json:"annualReturn"`
	SharpeRatio    float64         `json:"sharpeRatio"`
	SortinoRatio   float64         `json:"sortinoRatio"`
	MaxDrawdown    float64         `json:"maxDrawdown"`
	WinRate        float64         `json:"winRate"`
	ProfitFactor   float64         `json:"profitFactor"`
	AvgWin         decimal.Decimal `json:"avgWin"`
	AvgLoss        decimal.Decimal `json:"avgLoss"`
	TotalTrades    int             `json:"totalTrades"`
	WinningTrades  int             `json:"winningTrades"`
	LosingTrades   int             `json:"losingTrades"`
	CreatedAt      string          `json:"createdAt,omitempty"`
}

// Trade is one closed trade from a backtest's trade log.
type Trade struct {
	ID            string          `json:"id"`
	Symbol        string          `json:"symbol"`
	Side          string          `json:"side"`
	Status        string          `json:"status"`
	EntryDate     string          `json:"entryDate"`
	ExitDate      string          `json:"exitDate"`
	EntryPrice    decimal.Decimal `json:"entryPrice"`
	ExitPrice     decimal.Decimal `json:"exitPrice"`
	Quantity      decimal.Decimal `json:"quantity"`
	ProfitLoss    decimal.Decimal `json:"profitLoss"`
	ProfitLossPct decimal.Decimal `json:"profitLossPct"`
	EntryReason   string          `json:"entryReason"`
	ExitReason    string          `json:"exitReason"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// RunBacktest runs a backtest and returns the finished result.
func (c *Client) RunBacktest(ctx context.Context, req BacktestRequest) (*BacktestResult, error) {
	var res BacktestResult
	if err := c.do(ctx, http.MethodPost, "/api/quant/backtest", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetResult retrieves a persisted backtest result by id.
func (c *Client) GetResult(ctx context.Context, id string) (*BacktestResult, error) {
	var res BacktestResult
	if err := c.do(ctx, http.MethodGet, "/api/quant/backtest/"+id, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetTrades retrieves the trade log of a backtest.
func (c *Client) GetTrades(ctx context.Context, id string) ([]Trade, error) {
	var res struct {
		Trades []Trade `json:"trades"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/quant/backtest/"+id+"/trades", nil, &res); err != nil {
		return nil, err
	}
	return res.Trades, nil
}

// ListStrategies retrieves the names of the registered strategies.
func (c *Client) ListStrategies(ctx context.Context) ([]string, error) {
	var res struct {
		Strategies []string `json:"strategies"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/quant/strategies", nil, &res); err != nil {
		return nil, err
	}
	return res.Strategies, nil
}

// ListResultsByStrategy retrieves all persisted results for a strategy.
func (c *Client) ListResultsByStrategy(ctx context.Context, name string) ([]BacktestResult, error) {
	var res struct {
		Results []BacktestResult `json:"results"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/quant/strategies/"+name+"/backtests", nil, &res); err != nil {
		return nil, err
	}
	return res.Results, nil
}

// Health checks server liveness.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/quant/health", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := resp.Status
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
