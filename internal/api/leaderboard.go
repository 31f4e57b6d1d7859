package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quantdesk/analytics-backend/internal/export"
	"github.com/quantdesk/analytics-backend/pkg/types"
)

// LeaderboardRequest parameterizes a cross-strategy comparison run.
type LeaderboardRequest struct {
	Start        string   `json:"start"`
	End          string   `json:"end"`
	Investment   float64  `json:"investment"`
	RiskFreeRate float64  `json:"riskFreeRate"`
	Slippage     float64  `json:"slippage"`
	Strategies   []string `json:"strategies,omitempty"`
}

// LeaderboardJob tracks one leaderboard run.
type LeaderboardJob struct {
	ID       string
	Status   string // running, completed, failed
	Request  LeaderboardRequest
	Started  time.Time
	Finished time.Time
	Rows     []types.LeaderboardRow
	Err      string
}

const earliestWindowStart = "1970-01-01"

// normalize fills defaults and canonicalizes the strategy list so two
// equivalent requests produce the same fingerprint.
func (s *Server) normalize(req LeaderboardRequest) LeaderboardRequest {
	d := s.config.Defaults

	if req.Investment <= 0 {
		req.Investment = d.Investment
	}
	if req.Slippage < 0 {
		req.Slippage = 0
	}
	if req.Start == "" {
		req.Start = earliestWindowStart
	}
	if req.End == "" {
		req.End = time.Now().UTC().Format("2006-01-02")
	}
	sort.Strings(req.Strategies)
	return req
}

func fingerprint(req LeaderboardRequest) string {
	buf, _ := json.Marshal(req)
	return string(buf)
}

// handleRunLeaderboard starts (or reuses) a leaderboard job
func (s *Server) handleRunLeaderboard(w http.ResponseWriter, r *http.Request) {
	var req LeaderboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req = s.normalize(req)

	start, err := time.Parse("2006-01-02", req.Start)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid start date %q", req.Start))
		return
	}
	end, err := time.Parse("2006-01-02", req.End)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid end date %q", req.End))
		return
	}
	if end.Before(start) {
		s.writeError(w, http.StatusBadRequest, "end date precedes start date")
		return
	}

	key := fingerprint(req)

	// A completed or in-flight job with identical parameters is reused
	// instead of recomputed.
	s.mu.Lock()
	if id, ok := s.jobByKey[key]; ok {
		job := s.jobs[id]
		s.mu.Unlock()
		s.writeJSON(w, map[string]interface{}{
			"id":     job.ID,
			"status": job.Status,
			"cached": true,
		})
		return
	}

	job := &LeaderboardJob{
		ID:      uuid.New().String(),
		Status:  "running",
		Request: req,
		Started: time.Now(),
	}
	s.jobs[job.ID] = job
	s.jobByKey[key] = job.ID
	s.mu.Unlock()

	go s.runLeaderboard(job, start, end)

	s.writeJSON(w, map[string]interface{}{
		"id":     job.ID,
		"status": job.Status,
	})
}

func (s *Server) runLeaderboard(job *LeaderboardJob, start, end time.Time) {
	timer := s.metrics.leaderboardDuration
	started := time.Now()

	s.broadcastToSubscribers("leaderboard", &Message{
		ID:        uuid.New().String(),
		Type:      "event",
		Method:    "leaderboard:started",
		Payload:   map[string]interface{}{"id": job.ID},
		Timestamp: time.Now().UnixMilli(),
	})

	datasets := s.selectDatasets(job.Request.Strategies)

	rows := s.aggregator.Build(
		datasets,
		start, end,
		decimal.NewFromFloat(job.Request.Investment),
		job.Request.RiskFreeRate,
		decimal.NewFromFloat(job.Request.Slippage),
	)

	s.mu.Lock()
	job.Status = "completed"
	job.Rows = rows
	job.Finished = time.Now()
	s.mu.Unlock()

	timer.Observe(time.Since(started).Seconds())
	s.logger.Info("Leaderboard job completed",
		zap.String("id", job.ID),
		zap.Int("strategies", len(rows)),
		zap.Duration("elapsed", time.Since(started)))

	s.broadcast(&Message{
		ID:        uuid.New().String(),
		Type:      "event",
		Method:    "leaderboard:complete",
		Payload:   map[string]interface{}{"id": job.ID, "status": job.Status, "strategies": len(rows)},
		Timestamp: time.Now().UnixMilli(),
	})
}

// selectDatasets returns either every loaded dataset or the requested subset.
func (s *Server) selectDatasets(names []string) []types.TradeDataset {
	if len(names) == 0 {
		return s.store.All()
	}

	datasets := make([]types.TradeDataset, 0, len(names))
	for _, name := range names {
		if ds, ok := s.store.Get(name); ok {
			datasets = append(datasets, ds)
		} else {
			s.logger.Warn("Requested strategy not loaded", zap.String("strategy", name))
		}
	}
	return datasets
}

// handleGetLeaderboard polls a leaderboard job
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.RLock()
	job, ok := s.jobs[id]
	s.mu.RUnlock()

	if !ok {
		s.writeError(w, http.StatusNotFound, "leaderboard job not found")
		return
	}

	response := map[string]interface{}{
		"id":      job.ID,
		"status":  job.Status,
		"started": job.Started.Unix(),
	}
	if job.Status == "completed" {
		response["rows"] = job.Rows
		response["finished"] = job.Finished.Unix()
	}
	if job.Err != "" {
		response["error"] = job.Err
	}

	s.writeJSON(w, response)
}

// handleExportCSV streams the leaderboard for all strategies as CSV
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	p, err := s.parseParams(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows := s.buildFullLeaderboard(p)

	var buf bytes.Buffer
	if err := export.WriteLeaderboardCSV(&buf, rows); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.ReportFilename("leaderboard", "csv")))
	w.Write(buf.Bytes())
}

// handleExportExcel streams the full styled workbook
func (s *Server) handleExportExcel(w http.ResponseWriter, r *http.Request) {
	p, err := s.parseParams(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows := s.buildFullLeaderboard(p)

	// The matrix and compounding sheets are built over the combined trade
	// history of every strategy.
	combined := types.TradeDataset{Strategy: "Combined"}
	for _, ds := range s.store.All() {
		combined.Records = append(combined.Records, ds.Records...)
	}
	combined = combined.Sorted()

	matrix := s.monthly.Build(combined, p.investment)
	compounding := s.compounding.Simulate(combined, p.investment, types.CompoundingLinear, s.config.Defaults.TaxRate)

	var buf bytes.Buffer
	reporter := export.NewExcelReporter("")
	if err := reporter.Write(&buf, rows, matrix, compounding); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.ReportFilename("report", "xlsx")))
	w.Write(buf.Bytes())
}

func (s *Server) buildFullLeaderboard(p analysisParams) []types.LeaderboardRow {
	start := p.start
	end := p.end
	if start.IsZero() {
		start, _ = time.Parse("2006-01-02", earliestWindowStart)
	}
	if end.IsZero() {
		end = time.Now().UTC()
	}
	return s.aggregator.Build(s.store.All(), start, end, p.investment, p.rfRate, p.slippage)
}
