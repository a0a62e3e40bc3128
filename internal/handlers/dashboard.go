package handlers

import (
	"html/template"
	"log/slog"
	"net/http"

	"plp-dashboard/internal/services"
)

var dashboardTemplate = template.Must(template.New("dashboard").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Product Line Profitability</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@main/bundles/datastar.js"></script>
<style>
body{font-family:system-ui,Segoe UI,Roboto,Arial;background:#0e1117;color:#e8ecff;margin:0;padding:20px}
.card{background:#1e1e1e;border:1px solid #2a2f45;border-radius:10px;padding:15px;margin:12px 0}
h1{margin:0 0 12px 0}
.filters label{display:block;margin:6px 0 2px;color:#9aa7cf}
.filters input{background:#12151f;color:#e8ecff;border:1px solid #2a2f45;border-radius:6px;padding:6px}
button{background:#7aa2ff;color:#04102a;border:none;padding:8px 12px;border-radius:8px;cursor:pointer}
table.modern-table{width:100%;border-collapse:collapse}
table.modern-table th,table.modern-table td{border-bottom:1px solid #2a2f45;padding:8px;text-align:left}
.risk-badge{background:#1b2a59;padding:3px 8px;border-radius:8px}
.warning{color:#ffb86b}
.no-data{color:#9aa7cf}
</style>
</head>
<body data-signals="{start:'',end:'',q:'',threshold:{{.Threshold}},paretoData:[],kpisData:{}}">
<h1>📊 Product Line Profitability Dashboard</h1>

<div class="card filters">
	<label>Start date</label><input type="date" data-bind-start>
	<label>End date</label><input type="date" data-bind-end>
	<label>Search product</label><input type="text" data-bind-q>
	<label>Margin threshold (%)</label><input type="number" min="0" max="100" step="0.5" data-bind-threshold>
	<p>Divisions: {{range .Divisions}}<span class="risk-badge">{{.}}</span> {{end}}</p>
	<button data-on-click="@get('/sse/refresh-all?start='+$start+'&end='+$end+'&q='+$q+'&threshold='+$threshold)">Apply Filters</button>
	<a href="/api/export"><button type="button">Download CSV</button></a>
</div>

<div class="card" id="insights-content" data-on-load="@get('/sse/insights')">Loading insights…</div>
<div class="card" id="products-content" data-on-load="@get('/sse/overview')">Loading product overview…</div>
<div class="card" id="divisions-content" data-on-load="@get('/sse/divisions')">Loading division performance…</div>
<div class="card" id="pareto-content" data-on-load="@get('/sse/pareto')">Loading profit concentration…</div>

</body>
</html>`))

type DashboardHandler struct {
	profitability *services.Profitability
	logger        *slog.Logger
}

func NewDashboardHandler(profitability *services.Profitability, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		profitability: profitability,
		logger:        logger,
	}
}

type dashboardView struct {
	Threshold float64
	Divisions []string
}

func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")

	view := dashboardView{
		Threshold: h.profitability.Options().MarginThreshold,
		Divisions: h.profitability.Divisions(),
	}

	if err := dashboardTemplate.Execute(w, view); err != nil {
		h.logger.Error("render dashboard", "error", err)
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}
