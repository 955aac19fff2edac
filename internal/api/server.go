package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Eddieaero/Quickfix/internal/backtest"
	"github.com/Eddieaero/Quickfix/internal/domain"
	"github.com/Eddieaero/Quickfix/internal/strategy"
)

// Server serves the quant REST API.
type Server struct {
	engine   *backtest.Engine
	registry *strategy.Registry
	log      *slog.Logger
}

// NewServer creates a Server backed by the given engine and strategy
// registry.
func NewServer(engine *backtest.Engine, registry *strategy.Registry, log *slog.Logger) *Server {
	return &Server{
		engine:   engine,
		registry: registry,
		log:      log.With("component", "api"),
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/quant/health", s.handleHealth)
	mux.HandleFunc("GET /api/quant/strategies", s.handleStrategies)
	mux.HandleFunc("POST /api/quant/backtest", s.handleRunBacktest)
	mux.HandleFunc("GET /api/quant/backtest/{id}", s.handleGetResult)
	mux.HandleFunc("GET /api/quant/backtest/{id}/trades", s.handleGetTrades)
	mux.HandleFunc("GET /api/quant/strategies/{name}/backtests", s.handleResultsByStrategy)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// writeDomainError maps domain sentinel errors onto HTTP status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrConfiguration),
		errors.Is(err, domain.ErrInsufficientData):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.log.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "UP", Service: "quant-backtest"})
}

func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StrategiesResponse{Strategies: s.registry.List()})
}

func (s *Server) handleRunBacktest(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	strat, ok := s.registry.Lookup(req.StrategyName)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown strategy %q", req.StrategyName))
		return
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid startDate, expected YYYY-MM-DD")
		return
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid endDate, expected YYYY-MM-DD")
		return
	}

	res, err := s.engine.Run(r.Context(), strat, req.Symbol, start, end, req.InitialCapital)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, convertResult(res))
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	res, err := s.engine.Result(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, convertResult(res))
}

func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	// Confirm the backtest exists so unknown ids are a 404, not an empty list.
	if _, err := s.engine.Result(r.Context(), id); err != nil {
		s.writeDomainError(w, err)
		return
	}

	trades, err := s.engine.Trades(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	out := make([]TradeJSON, 0, len(trades))
	for i := range trades {
		out = append(out, convertTrade(&trades[i]))
	}
	writeJSON(w, http.StatusOK, TradesResponse{BacktestID: id, Trades: out})
}

func (s *Server) handleResultsByStrategy(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	results, err := s.engine.ResultsByStrategy(r.Context(), name)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	out := make([]BacktestResultJSON, 0, len(results))
	for i := range results {
		out = append(out, convertResult(&results[i]))
	}
	writeJSON(w, http.StatusOK, ResultsResponse{StrategyName: name, Results: out})
}
