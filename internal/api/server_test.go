// Package api_test provides tests for the API server.
package api_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quantdesk/analytics-backend/internal/api"
	"github.com/quantdesk/analytics-backend/internal/config"
	"github.com/quantdesk/analytics-backend/internal/ingest"
	"github.com/quantdesk/analytics-backend/internal/store"
	"github.com/quantdesk/analytics-backend/pkg/types"
)

func record(date string, pnl float64) types.TradeRecord {
	d, _ := time.Parse("2006-01-02", date)
	return types.TradeRecord{
		Date:    d,
		NetPnL:  decimal.NewFromFloat(pnl),
		Year:    d.Year(),
		Month:   d.Month(),
		Weekday: d.Weekday(),
	}
}

func setupTestServer(t *testing.T) (*api.Server, *httptest.Server) {
	t.Helper()
	logger := zap.NewNop()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:          "localhost",
			WebSocketPath: "/ws",
		},
		Defaults: config.DefaultsConfig{
			Investment:     10000,
			MonteCarloRuns: 5,
			RollingWindow:  90,
		},
	}

	dataStore := store.NewStore(logger, ingest.NewLoader(logger), t.TempDir())
	dataStore.Put(types.TradeDataset{
		Strategy: "alpha.xlsx",
		Records: []types.TradeRecord{
			record("2024-01-02", 1000),
			record("2024-01-03", -400),
			record("2024-02-05", 600),
		},
	})
	dataStore.Put(types.TradeDataset{
		Strategy: "beta.xlsx",
		Records: []types.TradeRecord{
			record("2024-03-04", 250),
			record("2024-03-06", -100),
		},
	})

	server := api.NewServer(logger, cfg, dataStore)
	ts := httptest.NewServer(server.Router())

	return server, ts
}

func getJSON(t *testing.T, url string, into interface{}) int {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return resp.StatusCode
}

func TestHealthEndpoint(t *testing.T) {
	_, ts := setupTestServer(t)
	defer ts.Close()

	var result map[string]interface{}
	status := getJSON(t, ts.URL+"/api/v1/health", &result)

	if status != http.StatusOK {
		t.Errorf("Expected status 200, got %d", status)
	}
	if result["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got '%v'", result["status"])
	}
	if result["strategies"].(float64) != 2 {
		t.Errorf("Expected 2 strategies, got %v", result["strategies"])
	}
}

func TestListStrategies(t *testing.T) {
	_, ts := setupTestServer(t)
	defer ts.Close()

	var result struct {
		Strategies []map[string]interface{} `json:"strategies"`
		Count      int                      `json:"count"`
	}
	status := getJSON(t, ts.URL+"/api/v1/strategies", &result)

	if status != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", status)
	}
	if result.Count != 2 {
		t.Fatalf("Expected 2 strategies, got %d", result.Count)
	}
	// Sorted by name, spreadsheet extension stripped in the display name
	if result.Strategies[0]["name"] != "alpha.xlsx" || result.Strategies[0]["displayName"] != "alpha" {
		t.Errorf("Unexpected first strategy: %v", result.Strategies[0])
	}
	if result.Strategies[0]["firstDate"] != "2024-01-02" {
		t.Errorf("Unexpected firstDate: %v", result.Strategies[0]["firstDate"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := setupTestServer(t)
	defer ts.Close()

	var result struct {
		Strategy string `json:"strategy"`
		Metrics  struct {
			NetProfit string  `json:"netProfit"`
			ROIPct    float64 `json:"roiPct"`
			Trades    int     `json:"trades"`
		} `json:"metrics"`
	}
	status := getJSON(t, ts.URL+"/api/v1/strategies/alpha.xlsx/metrics", &result)

	if status != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", status)
	}
	if result.Strategy != "alpha" {
		t.Errorf("Expected strategy 'alpha', got '%s'", result.Strategy)
	}
	if result.Metrics.NetProfit != "1200" {
		t.Errorf("Expected net profit 1200, got %s", result.Metrics.NetProfit)
	}
	if result.Metrics.ROIPct != 12 {
		t.Errorf("Expected ROI 12%%, got %v", result.Metrics.ROIPct)
	}
	if result.Metrics.Trades != 3 {
		t.Errorf("Expected 3 trades, got %d", result.Metrics.Trades)
	}
}

func TestMetricsUnknownStrategy(t *testing.T) {
	_, ts := setupTestServer(t)
	defer ts.Close()

	var result map[string]interface{}
	status := getJSON(t, ts.URL+"/api/v1/strategies/missing/metrics", &result)

	if status != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", status)
	}
}

func TestMetricsWindowExcludesAllTrades(t *testing.T) {
	_, ts := setupTestServer(t)
	defer ts.Close()

	var result map[string]interface{}
	status := getJSON(t, ts.URL+"/api/v1/strategies/alpha.xlsx/metrics?start=2030-01-01", &result)

	if status != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422, got %d", status)
	}
}

func TestMetricsInvalidInvestment(t *testing.T) {
	_, ts := setupTestServer(t)
	defer ts.Close()

	var result map[string]interface{}
	status := getJSON(t, ts.URL+"/api/v1/strategies/alpha.xlsx/metrics?investment=-5", &result)

	if status != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", status)
	}
}

func TestRollingSortinoWindowValidation(t *testing.T) {
	_, ts := setupTestServer(t)
	defer ts.Close()

	var result map[string]interface{}
	status := getJSON(t, ts.URL+"/api/v1/strategies/alpha.xlsx/rolling-sortino?window=0", &result)

	if status != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", status)
	}
}

func TestRollingSortinoEndpoint(t *testing.T) {
	_, ts := setupTestServer(t)
	defer ts.Close()

	var result struct {
		Window int                      `json:"window"`
		Points []map[string]interface{} `json:"points"`
		Count  int                      `json:"count"`
	}
	status := getJSON(t, ts.URL+"/api/v1/strategies/beta.xlsx/rolling-sortino?window=2", &result)

	if status != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", status)
	}
	if result.Window != 2 {
		t.Errorf("Expected window 2, got %d", result.Window)
	}
	// Daily resampling fills the gap day, so 3 calendar days appear
	if result.Count != 3 {
		t.Errorf("Expected 3 daily points, got %d", result.Count)
	}
}

func TestCompoundingModeValidation(t *testing.T) {
	_, ts := setupTestServer(t)
	defer ts.Close()

	var result map[string]interface{}
	status := getJSON(t, ts.URL+"/api/v1/strategies/alpha.xlsx/compounding?mode=exponential", &result)

	if status != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", status)
	}
}

func TestCompoundingEndpoint(t *testing.T) {
	_, ts := setupTestServer(t)
	defer ts.Close()

	var result struct {
		Mode  string                   `json:"mode"`
		Years []map[string]interface{} `json:"years"`
	}
	status := getJSON(t, ts.URL+"/api/v1/strategies/alpha.xlsx/compounding", &result)

	if status != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", status)
	}
	if result.Mode != "linear" {
		t.Errorf("Expected linear mode, got %s", result.Mode)
	}
	if len(result.Years) != 1 {
		t.Fatalf("Expected 1 simulated year, got %d", len(result.Years))
	}
	if result.Years[0]["endBalance"] != "11200" {
		t.Errorf("Expected end balance 11200, got %v", result.Years[0]["endBalance"])
	}
}

func TestMonteCarloEndpoint(t *testing.T) {
	_, ts := setupTestServer(t)
	defer ts.Close()

	var result struct {
		Runs     int         `json:"runs"`
		Original []float64   `json:"original"`
		Paths    [][]float64 `json:"paths"`
	}
	status := getJSON(t, ts.URL+"/api/v1/strategies/beta.xlsx/montecarlo?runs=3", &result)

	if status != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", status)
	}
	if result.Runs != 3 || len(result.Paths) != 3 {
		t.Errorf("Expected 3 paths, got runs=%d paths=%d", result.Runs, len(result.Paths))
	}
	if len(result.Original) != 2 {
		t.Errorf("Expected 2 points on the original path, got %d", len(result.Original))
	}
	for _, path := range result.Paths {
		if path[len(path)-1] != 150 {
			t.Errorf("Every permutation must end at the total P&L, got %v", path[len(path)-1])
		}
	}
}

func postLeaderboard(t *testing.T, url string, body interface{}) map[string]interface{} {
	t.Helper()

	payload, _ := json.Marshal(body)
	resp, err := http.Post(url+"/api/v1/leaderboard", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("Leaderboard request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return result
}

func waitForJob(t *testing.T, url, id string) map[string]interface{} {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var result map[string]interface{}
		status := getJSON(t, url+"/api/v1/leaderboard/"+id, &result)
		if status != http.StatusOK {
			t.Fatalf("Expected status 200 while polling, got %d", status)
		}
		if result["status"] == "completed" {
			return result
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Leaderboard job did not complete in time")
	return nil
}

func TestLeaderboardJobLifecycle(t *testing.T) {
	_, ts := setupTestServer(t)
	defer ts.Close()

	started := postLeaderboard(t, ts.URL, map[string]interface{}{
		"start": "2024-01-01",
		"end":   "2024-12-31",
	})

	id, _ := started["id"].(string)
	if id == "" {
		t.Fatalf("Expected a job id, got %v", started)
	}

	result := waitForJob(t, ts.URL, id)

	rows, _ := result["rows"].([]interface{})
	if len(rows) != 2 {
		t.Fatalf("Expected 2 leaderboard rows, got %d", len(rows))
	}
	first := rows[0].(map[string]interface{})
	if first["strategy"] != "alpha" {
		t.Errorf("Expected first row 'alpha', got %v", first["strategy"])
	}
}

func TestLeaderboardMemoization(t *testing.T) {
	_, ts := setupTestServer(t)
	defer ts.Close()

	req := map[string]interface{}{"start": "2024-01-01", "end": "2024-12-31"}

	first := postLeaderboard(t, ts.URL, req)
	second := postLeaderboard(t, ts.URL, req)

	if first["id"] != second["id"] {
		t.Errorf("Expected identical requests to share a job, got %v and %v", first["id"], second["id"])
	}
	if second["cached"] != true {
		t.Errorf("Expected the second response to be marked cached, got %v", second)
	}
}

func TestLeaderboardStrategySubset(t *testing.T) {
	_, ts := setupTestServer(t)
	defer ts.Close()

	started := postLeaderboard(t, ts.URL, map[string]interface{}{
		"start":      "2024-01-01",
		"end":        "2024-12-31",
		"strategies": []string{"beta.xlsx"},
	})

	result := waitForJob(t, ts.URL, started["id"].(string))

	rows, _ := result["rows"].([]interface{})
	if len(rows) != 1 {
		t.Fatalf("Expected 1 leaderboard row, got %d", len(rows))
	}
	if rows[0].(map[string]interface{})["strategy"] != "beta" {
		t.Errorf("Expected row 'beta', got %v", rows[0])
	}
}

func TestLeaderboardRejectsInvertedWindow(t *testing.T) {
	_, ts := setupTestServer(t)
	defer ts.Close()

	payload, _ := json.Marshal(map[string]interface{}{
		"start": "2024-12-31",
		"end":   "2024-01-01",
	})
	resp, err := http.Post(ts.URL+"/api/v1/leaderboard", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("Leaderboard request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.StatusCode)
	}
}

func TestExportLeaderboardCSV(t *testing.T) {
	_, ts := setupTestServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/export/leaderboard.csv")
	if err != nil {
		t.Fatalf("Export request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Expected text/csv, got %s", ct)
	}

	records, err := csv.NewReader(resp.Body).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d", len(records))
	}
	if records[0][0] != "Strategy" {
		t.Errorf("Unexpected header: %v", records[0])
	}
}

func TestExportExcelReport(t *testing.T) {
	_, ts := setupTestServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/export/report.xlsx")
	if err != nil {
		t.Fatalf("Export request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if disp := resp.Header.Get("Content-Disposition"); !strings.Contains(disp, "MASTER_report_") {
		t.Errorf("Unexpected Content-Disposition: %s", disp)
	}
}

func TestPrometheusEndpoint(t *testing.T) {
	_, ts := setupTestServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("Metrics request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
}
