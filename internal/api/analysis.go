package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/quantdesk/analytics-backend/internal/analytics"
	"github.com/quantdesk/analytics-backend/pkg/types"
)

// handleMetrics returns the full performance metrics bundle for one strategy
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	p, err := s.parseParams(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ds, ok := s.dataset(r, p)
	if !ok {
		s.writeError(w, http.StatusNotFound, "strategy not found")
		return
	}

	metrics, err := s.ratios.Calculate(ds, p.investment, p.rfRate)
	if err != nil {
		if errors.Is(err, analytics.ErrInsufficientData) {
			s.writeError(w, http.StatusUnprocessableEntity, "no trades in the selected window")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, map[string]interface{}{
		"strategy": analytics.StrategyDisplayName(ds.Strategy),
		"metrics":  metrics,
	})
}

// handleDrawdown returns the equity drawdown series
func (s *Server) handleDrawdown(w http.ResponseWriter, r *http.Request) {
	p, err := s.parseParams(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ds, ok := s.dataset(r, p)
	if !ok {
		s.writeError(w, http.StatusNotFound, "strategy not found")
		return
	}

	s.writeJSON(w, s.drawdown.Analyze(ds, p.investment))
}

// handleRollingSortino returns the windowed Sortino series
func (s *Server) handleRollingSortino(w http.ResponseWriter, r *http.Request) {
	p, err := s.parseParams(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	window := s.config.Defaults.RollingWindow
	if v := r.URL.Query().Get("window"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, http.StatusBadRequest, "invalid window")
			return
		}
		window = n
	}

	ds, ok := s.dataset(r, p)
	if !ok {
		s.writeError(w, http.StatusNotFound, "strategy not found")
		return
	}

	points := analytics.NewRollingSortinoEngine(window).Compute(ds)

	s.writeJSON(w, map[string]interface{}{
		"window": window,
		"points": points,
		"count":  len(points),
	})
}

// handleMonthlyMatrix returns the year-by-month P&L pivot
func (s *Server) handleMonthlyMatrix(w http.ResponseWriter, r *http.Request) {
	p, err := s.parseParams(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ds, ok := s.dataset(r, p)
	if !ok {
		s.writeError(w, http.StatusNotFound, "strategy not found")
		return
	}

	s.writeJSON(w, s.monthly.Build(ds, p.investment))
}

// handleLosses returns the losing-trade breakdown
func (s *Server) handleLosses(w http.ResponseWriter, r *http.Request) {
	p, err := s.parseParams(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ds, ok := s.dataset(r, p)
	if !ok {
		s.writeError(w, http.StatusNotFound, "strategy not found")
		return
	}

	s.writeJSON(w, s.losses.Breakdown(ds))
}

// handleSeasonality returns weekday and month performance averages
func (s *Server) handleSeasonality(w http.ResponseWriter, r *http.Request) {
	p, err := s.parseParams(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ds, ok := s.dataset(r, p)
	if !ok {
		s.writeError(w, http.StatusNotFound, "strategy not found")
		return
	}

	s.writeJSON(w, s.seasonality.Analyze(ds))
}

// handleCompounding runs the year-over-year reinvestment simulation
func (s *Server) handleCompounding(w http.ResponseWriter, r *http.Request) {
	p, err := s.parseParams(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	mode := types.CompoundingLinear
	switch r.URL.Query().Get("mode") {
	case "", string(types.CompoundingLinear):
	case string(types.CompoundingProportional):
		mode = types.CompoundingProportional
	default:
		s.writeError(w, http.StatusBadRequest, "mode must be linear or proportional")
		return
	}

	taxRate := s.config.Defaults.TaxRate
	if v := r.URL.Query().Get("taxRate"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil || t < 0 || t > 100 {
			s.writeError(w, http.StatusBadRequest, "taxRate must be between 0 and 100")
			return
		}
		taxRate = t
	}

	ds, ok := s.dataset(r, p)
	if !ok {
		s.writeError(w, http.StatusNotFound, "strategy not found")
		return
	}

	years := s.compounding.Simulate(ds, p.investment, mode, taxRate)

	s.writeJSON(w, map[string]interface{}{
		"mode":    mode,
		"taxRate": taxRate,
		"years":   years,
	})
}

// handleMonteCarlo returns shuffled equity paths for the strategy
func (s *Server) handleMonteCarlo(w http.ResponseWriter, r *http.Request) {
	p, err := s.parseParams(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	runs := s.config.Defaults.MonteCarloRuns
	if v := r.URL.Query().Get("runs"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			s.writeError(w, http.StatusBadRequest, "runs must be between 1 and 1000")
			return
		}
		runs = n
	}

	ds, ok := s.dataset(r, p)
	if !ok {
		s.writeError(w, http.StatusNotFound, "strategy not found")
		return
	}

	s.writeJSON(w, s.montecarlo.Run(ds, runs))
}
