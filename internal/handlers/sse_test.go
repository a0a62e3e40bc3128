package handlers

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"plp-dashboard/internal/models"
	"plp-dashboard/internal/services"
)

func TestSSEHandlers_RenderInsights(t *testing.T) {
	h := NewSSEHandlers(createTestProfitability(), slog.Default())

	report, err := h.profitability.Report(services.FilterSpec{}, 10)
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	html, err := h.renderInsights(report)
	if err != nil {
		t.Fatalf("renderInsights() error = %v", err)
	}

	expected := []string{
		`id="insights-content"`,
		"Hardware",
		"License Pack",
	}
	for _, content := range expected {
		if !strings.Contains(html, content) {
			t.Errorf("expected insights HTML to contain %q", content)
		}
	}
}

func TestSSEHandlers_RenderInsightsNoData(t *testing.T) {
	h := NewSSEHandlers(createTestProfitability(), slog.Default())

	report, err := h.profitability.Report(services.FilterSpec{Search: "no such product"}, 10)
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	html, err := h.renderInsights(report)
	if err != nil {
		t.Fatalf("renderInsights() error = %v", err)
	}

	if !strings.Contains(html, "No data available") {
		t.Errorf("expected no-data message, got %q", html)
	}
	if strings.Contains(html, "Highest profit division") {
		t.Error("no-data fragment should not list insights")
	}
}

func TestSSEHandlers_HandleOverview(t *testing.T) {
	h := NewSSEHandlers(createTestProfitability(), slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/sse/overview", nil)
	w := httptest.NewRecorder()

	h.HandleOverview(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("expected text/event-stream content type, got %q", ct)
	}

	body := w.Body.String()
	if !strings.Contains(body, "<table") {
		t.Error("response should carry the product table fragment")
	}
	if !strings.Contains(body, "USB Hub") {
		t.Error("response should list products")
	}
}

func TestSSEHandlers_HandleOverviewRowLimit(t *testing.T) {
	p := services.NewProfitability(services.Options{MarginThreshold: 10, TopFraction: 0.2, ConcentrationWarnPct: 70}, slog.Default())

	records := make([]models.Record, 0, maxTableRows+25)
	for i := 0; i < maxTableRows+25; i++ {
		records = append(records, models.Record{
			ProductName: "Product-" + string(rune('A'+i%26)) + string(rune('a'+i/26)),
			Division:    "Hardware",
			Sales:       float64(100 + i),
			Cost:        50,
			Units:       1,
		})
	}
	p.SetData(records)

	h := NewSSEHandlers(p, slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/sse/overview", nil)
	w := httptest.NewRecorder()

	h.HandleOverview(w, req)

	rowCount := strings.Count(w.Body.String(), "<td>")
	if rowCount > maxTableRows*6 {
		t.Errorf("table should be capped at %d rows, found %d cells", maxTableRows, rowCount)
	}
}

func TestSSEHandlers_HandlePareto(t *testing.T) {
	h := NewSSEHandlers(createTestProfitability(), slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/sse/pareto", nil)
	w := httptest.NewRecorder()

	h.HandlePareto(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "paretoData") {
		t.Error("response should contain paretoData signal")
	}
	if !strings.Contains(body, "kpisData") {
		t.Error("response should contain kpisData signal")
	}
}

func TestSSEHandlers_HandleRefreshAll(t *testing.T) {
	h := NewSSEHandlers(createTestProfitability(), slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/sse/refresh-all", nil)
	w := httptest.NewRecorder()

	h.HandleRefreshAll(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	body := w.Body.String()
	expected := []string{
		"products-content",
		"divisions-content",
		"insights-content",
		"paretoData",
		"kpisData",
	}
	for _, fragment := range expected {
		if !strings.Contains(body, fragment) {
			t.Errorf("response should contain %q", fragment)
		}
	}
}
