package server

import (
	"log/slog"
	"net/http"

	"plp-dashboard/internal/handlers"
	"plp-dashboard/internal/services"
)

type Server struct {
	mux       *http.ServeMux
	logger    *slog.Logger
	api       *handlers.APIHandlers
	sse       *handlers.SSEHandlers
	dashboard *handlers.DashboardHandler
}

func NewServer(profitability *services.Profitability, logger *slog.Logger) *Server {
	s := &Server{
		mux:       http.NewServeMux(),
		logger:    logger,
		api:       handlers.NewAPIHandlers(profitability, logger),
		sse:       handlers.NewSSEHandlers(profitability, logger),
		dashboard: handlers.NewDashboardHandler(profitability, logger),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Dashboard routes
	s.mux.HandleFunc("GET /", s.dashboard.HandleDashboard)
	s.mux.HandleFunc("GET /health", s.api.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.api.HandleStats)

	// REST API endpoints; all accept the filter query parameters
	s.mux.HandleFunc("GET /api/report", s.api.HandleReport)
	s.mux.HandleFunc("GET /api/kpis", s.api.HandleKPIs)
	s.mux.HandleFunc("GET /api/records", s.api.HandleRecords)
	s.mux.HandleFunc("GET /api/summary/products", s.api.HandleProductSummary)
	s.mux.HandleFunc("GET /api/summary/divisions", s.api.HandleDivisionSummary)
	s.mux.HandleFunc("GET /api/pareto", s.api.HandlePareto)
	s.mux.HandleFunc("GET /api/insights", s.api.HandleInsights)
	s.mux.HandleFunc("GET /api/export", s.api.HandleExport)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/overview", s.sse.HandleOverview)
	s.mux.HandleFunc("GET /sse/divisions", s.sse.HandleDivisions)
	s.mux.HandleFunc("GET /sse/pareto", s.sse.HandlePareto)
	s.mux.HandleFunc("GET /sse/insights", s.sse.HandleInsights)
	s.mux.HandleFunc("GET /sse/refresh-all", s.sse.HandleRefreshAll)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
