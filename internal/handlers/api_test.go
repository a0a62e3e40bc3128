package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"plp-dashboard/internal/models"
	"plp-dashboard/internal/services"
)

func createTestProfitability() *services.Profitability {
	p := services.NewProfitability(services.Options{
		MarginThreshold:      10,
		TopFraction:          0.2,
		ConcentrationWarnPct: 70,
	}, slog.Default())

	p.SetData([]models.Record{
		{ProductName: "Laptop Stand", Division: "Hardware", Date: time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC), Sales: 100, Cost: 60, Units: 10},
		{ProductName: "USB Hub", Division: "Hardware", Date: time.Date(2023, 2, 10, 0, 0, 0, 0, time.UTC), Sales: 200, Cost: 50, Units: 20},
		{ProductName: "License Pack", Division: "Software", Date: time.Date(2023, 3, 5, 0, 0, 0, 0, time.UTC), Sales: 50, Cost: 50, Units: 5},
	})
	return p
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var response map[string]any
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	return response
}

func TestAPIHandlers_HandleReport(t *testing.T) {
	h := NewAPIHandlers(createTestProfitability(), slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/report", nil)
	w := httptest.NewRecorder()

	h.HandleReport(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	response := decodeEnvelope(t, w)
	if success, ok := response["success"].(bool); !ok || !success {
		t.Error("expected success=true in response")
	}

	data, ok := response["data"].(map[string]any)
	if !ok {
		t.Fatal("expected data object in response")
	}
	kpis, ok := data["kpis"].(map[string]any)
	if !ok {
		t.Fatal("expected kpis in report")
	}
	if kpis["total_sales"].(float64) != 350 {
		t.Errorf("total_sales = %v, want 350", kpis["total_sales"])
	}
	if kpis["total_profit"].(float64) != 190 {
		t.Errorf("total_profit = %v, want 190", kpis["total_profit"])
	}
}

func TestAPIHandlers_FilterParameters(t *testing.T) {
	h := NewAPIHandlers(createTestProfitability(), slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/records?start=2023-01-01&end=2023-02-28&division=Hardware&q=usb", nil)
	w := httptest.NewRecorder()

	h.HandleRecords(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	response := decodeEnvelope(t, w)
	records, ok := response["data"].([]any)
	if !ok || len(records) != 1 {
		t.Fatalf("expected 1 matching record, got %v", response["data"])
	}
	record := records[0].(map[string]any)
	if record["product_name"] != "USB Hub" {
		t.Errorf("product_name = %v, want USB Hub", record["product_name"])
	}
}

func TestAPIHandlers_BadParameters(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantCode string
	}{
		{name: "malformed start date", query: "start=yesterday", wantCode: "BAD_REQUEST"},
		{name: "malformed end date", query: "end=2023-13-45", wantCode: "BAD_REQUEST"},
		{name: "threshold out of bounds", query: "threshold=150", wantCode: "BAD_REQUEST"},
		{name: "threshold not numeric", query: "threshold=high", wantCode: "BAD_REQUEST"},
		{name: "start after end", query: "start=2023-06-01&end=2023-01-01", wantCode: "INVALID_RANGE"},
	}

	h := NewAPIHandlers(createTestProfitability(), slog.Default())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/report?"+tt.query, nil)
			w := httptest.NewRecorder()

			h.HandleReport(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
			}

			response := decodeEnvelope(t, w)
			errObj, ok := response["error"].(map[string]any)
			if !ok {
				t.Fatal("expected error object in response")
			}
			if errObj["code"] != tt.wantCode {
				t.Errorf("error code = %v, want %v", errObj["code"], tt.wantCode)
			}
		})
	}
}

func TestAPIHandlers_HandleInsightsNoData(t *testing.T) {
	h := NewAPIHandlers(createTestProfitability(), slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/insights?q=no+such+product", nil)
	w := httptest.NewRecorder()

	h.HandleInsights(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	response := decodeEnvelope(t, w)
	data, ok := response["data"].(map[string]any)
	if !ok {
		t.Fatal("expected data object in response")
	}
	if noData, ok := data["no_data"].(bool); !ok || !noData {
		t.Error("expected no_data=true for an empty filtered set")
	}
}

func TestAPIHandlers_HandleInsights(t *testing.T) {
	h := NewAPIHandlers(createTestProfitability(), slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/insights", nil)
	w := httptest.NewRecorder()

	h.HandleInsights(w, req)

	response := decodeEnvelope(t, w)
	data, ok := response["data"].(map[string]any)
	if !ok {
		t.Fatal("expected data object in response")
	}
	if data["best_division"] != "Hardware" {
		t.Errorf("best_division = %v, want Hardware", data["best_division"])
	}
	if data["worst_margin_product"] != "License Pack" {
		t.Errorf("worst_margin_product = %v, want License Pack", data["worst_margin_product"])
	}
	if data["high_risk_products"].(float64) != 1 {
		t.Errorf("high_risk_products = %v, want 1", data["high_risk_products"])
	}
}

func TestAPIHandlers_HandleExport(t *testing.T) {
	h := NewAPIHandlers(createTestProfitability(), slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/export", nil)
	w := httptest.NewRecorder()

	h.HandleExport(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("expected text/csv content type, got %q", ct)
	}

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Product Name,Division,Date") {
		t.Errorf("unexpected header: %q", lines[0])
	}
}

func TestAPIHandlers_HandleExportEmptySet(t *testing.T) {
	h := NewAPIHandlers(createTestProfitability(), slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/export?q=no+such+product", nil)
	w := httptest.NewRecorder()

	h.HandleExport(w, req)

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 1 {
		t.Errorf("expected header row only, got %d lines", len(lines))
	}
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	h := NewAPIHandlers(createTestProfitability(), slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	h.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	response := decodeEnvelope(t, w)
	data, ok := response["data"].(map[string]any)
	if !ok || data["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", response["data"])
	}
}
