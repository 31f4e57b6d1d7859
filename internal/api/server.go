// Package api provides the HTTP and WebSocket server.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quantdesk/analytics-backend/internal/analytics"
	"github.com/quantdesk/analytics-backend/internal/config"
	"github.com/quantdesk/analytics-backend/internal/store"
	"github.com/quantdesk/analytics-backend/pkg/types"
)

// Server is the HTTP/WebSocket API server
type Server struct {
	mu         sync.RWMutex
	logger     *zap.Logger
	config     *config.Config
	router     *mux.Router
	httpServer *http.Server
	upgrader   websocket.Upgrader
	clients    map[string]*Client
	store      *store.Store
	metrics    *serverMetrics

	ratios      *analytics.RatioCalculator
	drawdown    *analytics.DrawdownAnalyzer
	monthly     *analytics.MonthlyMatrixBuilder
	losses      *analytics.LossCategorizer
	seasonality *analytics.SeasonalityAnalyzer
	compounding *analytics.CompoundingSimulator
	montecarlo  *analytics.MonteCarloSimulator
	aggregator  *analytics.LeaderboardAggregator

	jobs     map[string]*LeaderboardJob
	jobByKey map[string]string
}

// NewServer creates a new API server
func NewServer(logger *zap.Logger, cfg *config.Config, dataStore *store.Store) *Server {
	server := &Server{
		logger:  logger,
		config:  cfg,
		router:  mux.NewRouter(),
		clients: make(map[string]*Client),
		store:   dataStore,
		metrics: newServerMetrics(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for development
			},
		},
		ratios:      analytics.NewRatioCalculator(logger),
		drawdown:    analytics.NewDrawdownAnalyzer(),
		monthly:     analytics.NewMonthlyMatrixBuilder(),
		losses:      analytics.NewLossCategorizer(),
		seasonality: analytics.NewSeasonalityAnalyzer(),
		compounding: analytics.NewCompoundingSimulator(),
		montecarlo:  analytics.NewMonteCarloSimulator(logger),
		aggregator:  analytics.NewLeaderboardAggregator(logger),
		jobs:        make(map[string]*LeaderboardJob),
		jobByKey:    make(map[string]string),
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures HTTP routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.HandleFunc("/api/v1/health", s.handleHealth).Methods("GET")

	// Strategy catalogue
	s.router.HandleFunc("/api/v1/strategies", s.handleListStrategies).Methods("GET")

	// Per-strategy analysis
	s.router.HandleFunc("/api/v1/strategies/{name}/metrics", s.instrument("metrics", s.handleMetrics)).Methods("GET")
	s.router.HandleFunc("/api/v1/strategies/{name}/drawdown", s.instrument("drawdown", s.handleDrawdown)).Methods("GET")
	s.router.HandleFunc("/api/v1/strategies/{name}/rolling-sortino", s.instrument("rolling_sortino", s.handleRollingSortino)).Methods("GET")
	s.router.HandleFunc("/api/v1/strategies/{name}/monthly-matrix", s.instrument("monthly_matrix", s.handleMonthlyMatrix)).Methods("GET")
	s.router.HandleFunc("/api/v1/strategies/{name}/losses", s.instrument("losses", s.handleLosses)).Methods("GET")
	s.router.HandleFunc("/api/v1/strategies/{name}/seasonality", s.instrument("seasonality", s.handleSeasonality)).Methods("GET")
	s.router.HandleFunc("/api/v1/strategies/{name}/compounding", s.instrument("compounding", s.handleCompounding)).Methods("GET")
	s.router.HandleFunc("/api/v1/strategies/{name}/montecarlo", s.instrument("montecarlo", s.handleMonteCarlo)).Methods("GET")

	// Cross-strategy leaderboard (async)
	s.router.HandleFunc("/api/v1/leaderboard", s.handleRunLeaderboard).Methods("POST")
	s.router.HandleFunc("/api/v1/leaderboard/{id}", s.handleGetLeaderboard).Methods("GET")

	// Exports
	s.router.HandleFunc("/api/v1/export/leaderboard.csv", s.instrument("export_csv", s.handleExportCSV)).Methods("GET")
	s.router.HandleFunc("/api/v1/export/report.xlsx", s.instrument("export_xlsx", s.handleExportExcel)).Methods("GET")

	// Prometheus
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// WebSocket
	s.router.HandleFunc(s.config.Server.WebSocketPath, s.handleWebSocket)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	handler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(s.router)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}

	s.logger.Info("Starting API server", zap.String("addr", addr))

	return s.httpServer.ListenAndServe()
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	// Close all WebSocket connections
	s.mu.Lock()
	for _, client := range s.clients {
		client.Conn.Close()
	}
	s.mu.Unlock()

	return s.httpServer.Shutdown(ctx)
}

// Router exposes the route table, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"status":     "healthy",
		"strategies": len(s.store.List()),
		"time":       time.Now().Unix(),
	})
}

// handleListStrategies returns the loaded datasets
func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	infos := s.store.List()

	strategies := make([]map[string]interface{}, 0, len(infos))
	for _, info := range infos {
		strategies = append(strategies, map[string]interface{}{
			"name":        info.Name,
			"displayName": analytics.StrategyDisplayName(info.Name),
			"records":     info.Records,
			"firstDate":   info.FirstDate.Format("2006-01-02"),
			"lastDate":    info.LastDate.Format("2006-01-02"),
		})
	}

	s.writeJSON(w, map[string]interface{}{
		"strategies": strategies,
		"count":      len(strategies),
	})
}

// analysisParams are the knobs shared by the per-strategy endpoints. Missing
// query values fall back to the configured defaults.
type analysisParams struct {
	investment decimal.Decimal
	rfRate     float64
	slippage   decimal.Decimal
	start, end time.Time
	windowed   bool
}

func (s *Server) parseParams(r *http.Request) (analysisParams, error) {
	q := r.URL.Query()
	d := s.config.Defaults

	p := analysisParams{
		investment: decimal.NewFromFloat(d.Investment),
		rfRate:     d.RiskFreeRate,
		slippage:   decimal.NewFromFloat(d.Slippage),
	}

	if v := q.Get("investment"); v != "" {
		inv, err := decimal.NewFromString(v)
		if err != nil || !inv.IsPositive() {
			return p, fmt.Errorf("invalid investment %q", v)
		}
		p.investment = inv
	}
	if v := q.Get("rfRate"); v != "" {
		rf, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return p, fmt.Errorf("invalid rfRate %q", v)
		}
		p.rfRate = rf
	}
	if v := q.Get("slippage"); v != "" {
		sl, err := decimal.NewFromString(v)
		if err != nil || sl.IsNegative() {
			return p, fmt.Errorf("invalid slippage %q", v)
		}
		p.slippage = sl
	}

	const layout = "2006-01-02"
	if v := q.Get("start"); v != "" {
		t, err := time.Parse(layout, v)
		if err != nil {
			return p, fmt.Errorf("invalid start date %q", v)
		}
		p.start = t
		p.windowed = true
	}
	if v := q.Get("end"); v != "" {
		t, err := time.Parse(layout, v)
		if err != nil {
			return p, fmt.Errorf("invalid end date %q", v)
		}
		p.end = t
		p.windowed = true
	}
	return p, nil
}

// dataset resolves the {name} route variable and applies the window and
// slippage from the request.
func (s *Server) dataset(r *http.Request, p analysisParams) (types.TradeDataset, bool) {
	name := mux.Vars(r)["name"]

	ds, ok := s.store.Get(name)
	if !ok {
		return types.TradeDataset{}, false
	}

	if p.windowed {
		start, end := p.start, p.end
		if start.IsZero() {
			start = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
		}
		if end.IsZero() {
			end = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
		}
		ds = ds.Filter(start, end)
	}
	return ds.WithCost(p.slippage), true
}

func (s *Server) writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Writing response failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
