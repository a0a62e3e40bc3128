package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"plp-dashboard/internal/errors"
	"plp-dashboard/internal/observability"
	"plp-dashboard/internal/services"
)

type APIHandlers struct {
	profitability *services.Profitability
	logger        *slog.Logger
}

func NewAPIHandlers(profitability *services.Profitability, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		profitability: profitability,
		logger:        logger,
	}
}

// report runs the full pipeline for the request's filter parameters, writing
// the error envelope itself when the parameters or range are invalid.
func (h *APIHandlers) report(w http.ResponseWriter, r *http.Request) (*services.Report, bool) {
	spec, threshold, err := parseFilter(r, h.profitability.Options())
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return nil, false
	}

	report, err := h.profitability.Report(spec, threshold)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return nil, false
	}

	return report, true
}

func (h *APIHandlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}

	errors.WriteSuccess(w, report)
}

func (h *APIHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}

	errors.WriteSuccess(w, map[string]any{
		"no_data": report.NoData,
		"kpis":    report.KPIs,
	})
}

func (h *APIHandlers) HandleRecords(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}

	errors.WriteSuccess(w, report.Records)
}

func (h *APIHandlers) HandleProductSummary(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}

	errors.WriteSuccess(w, report.Products)
}

func (h *APIHandlers) HandleDivisionSummary(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}

	errors.WriteSuccess(w, report.Divisions)
}

func (h *APIHandlers) HandlePareto(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}

	errors.WriteSuccess(w, report.Pareto)
}

func (h *APIHandlers) HandleInsights(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}

	if report.NoData {
		errors.WriteSuccess(w, map[string]any{"no_data": true})
		return
	}

	errors.WriteSuccess(w, report.Insights)
}

// HandleExport streams the filtered and derived record set as a CSV
// attachment. An empty filtered set exports the header row only.
func (h *APIHandlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="filtered_profitability_data.csv"`)

	if err := services.WriteCSV(w, report.Records); err != nil {
		h.logger.Error("write csv export", "error", err,
			"request_id", observability.GetRequestID(r.Context()))
	}
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.profitability.Stats())
}
