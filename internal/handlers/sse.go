package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"plp-dashboard/internal/services"
)

const maxTableRows = 50

var productTableTemplate = template.Must(template.New("productTable").Parse(`
<div id="products-content">
<table class="modern-table">
<thead><tr><th>Product</th><th>Sales</th><th>Gross Profit</th><th>Mean Margin</th><th>Volatility</th><th>Risk</th></tr></thead>
<tbody>
{{range .}}<tr>
<td>{{.Key}}</td>
<td>${{printf "%.2f" .Sales}}</td>
<td><strong>${{printf "%.2f" .GrossProfit}}</strong></td>
<td>{{if .MeanMargin.Defined}}{{printf "%.2f" .MeanMargin}}%{{else}}N/A{{end}}</td>
<td>{{if .MarginVolatility.Defined}}{{printf "%.2f" .MarginVolatility}}{{else}}N/A{{end}}</td>
<td><span class="risk-badge">{{.VolatilityRisk}}</span></td>
</tr>{{end}}
</tbody>
</table>
</div>`))

var divisionTableTemplate = template.Must(template.New("divisionTable").Parse(`
<div id="divisions-content">
<table class="modern-table">
<thead><tr><th>Division</th><th>Sales</th><th>Gross Profit</th><th>Mean Margin</th><th>Profit Share</th></tr></thead>
<tbody>
{{range .}}<tr>
<td>{{.Key}}</td>
<td>${{printf "%.2f" .Sales}}</td>
<td><strong>${{printf "%.2f" .GrossProfit}}</strong></td>
<td>{{if .MeanMargin.Defined}}{{printf "%.2f" .MeanMargin}}%{{else}}N/A{{end}}</td>
<td>{{if .ProfitContribution.Defined}}{{printf "%.2f" .ProfitContribution}}%{{else}}N/A{{end}}</td>
</tr>{{end}}
</tbody>
</table>
</div>`))

var insightsTemplate = template.Must(template.New("insights").Parse(`
<div id="insights-content">
{{if .NoData}}<p class="no-data">No data available for the selected filters.</p>{{else}}
<ul class="insights">
<li>Highest profit division: <strong>{{.Insights.BestDivision}}</strong></li>
<li>Lowest margin product: <strong>{{.Insights.WorstMarginProduct}}</strong></li>
<li>High risk products (&lt; {{printf "%.0f" .Threshold}}% margin): <strong>{{.Insights.HighRiskProducts}}</strong></li>
<li>Top {{printf "%.0f" .TopPct}}% products contribute <strong>{{if .Insights.TopSharePct.Defined}}{{printf "%.2f" .Insights.TopSharePct}}%{{else}}N/A{{end}}</strong> of total profit</li>
<li>Average margin volatility: <strong>{{if .Insights.AvgVolatility.Defined}}{{printf "%.2f" .Insights.AvgVolatility}}{{else}}N/A{{end}}</strong></li>
</ul>
{{range .Insights.Warnings}}<p class="warning">⚠ {{.}} detected</p>{{end}}
{{end}}
</div>`))

type SSEHandlers struct {
	profitability *services.Profitability
	logger        *slog.Logger
}

func NewSSEHandlers(profitability *services.Profitability, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		profitability: profitability,
		logger:        logger,
	}
}

func (h *SSEHandlers) report(r *http.Request) (*services.Report, error) {
	spec, threshold, err := parseFilter(r, h.profitability.Options())
	if err != nil {
		return nil, err
	}
	return h.profitability.Report(spec, threshold)
}

type insightsView struct {
	NoData    bool
	Insights  any
	Threshold float64
	TopPct    float64
}

func (h *SSEHandlers) renderInsights(report *services.Report) (string, error) {
	var buf strings.Builder
	view := insightsView{
		NoData:    report.NoData,
		Insights:  report.Insights,
		Threshold: report.Threshold,
		TopPct:    h.profitability.Options().TopFraction * 100,
	}
	err := insightsTemplate.Execute(&buf, view)
	return buf.String(), err
}

func (h *SSEHandlers) HandleOverview(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	report, err := h.report(r)
	if err != nil {
		h.logger.Error("compute overview report", "error", err)
		return
	}

	products := report.Products
	if len(products) > maxTableRows {
		products = products[:maxTableRows]
	}

	var buf strings.Builder
	if err := productTableTemplate.Execute(&buf, products); err != nil {
		h.logger.Error("render product table", "error", err)
		return
	}
	sse.PatchElements(buf.String())

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleDivisions(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	report, err := h.report(r)
	if err != nil {
		h.logger.Error("compute division report", "error", err)
		return
	}

	var buf strings.Builder
	if err := divisionTableTemplate.Execute(&buf, report.Divisions); err != nil {
		h.logger.Error("render division table", "error", err)
		return
	}
	sse.PatchElements(buf.String())

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandlePareto(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	report, err := h.report(r)
	if err != nil {
		h.logger.Error("compute pareto report", "error", err)
		return
	}

	jsonData, err := json.Marshal(map[string]any{
		"paretoData": report.Pareto,
		"kpisData":   report.KPIs,
	})
	if err != nil {
		h.logger.Error("marshal pareto data", "error", err)
		return
	}
	sse.PatchSignals(jsonData)

	sse.PatchElements(`<div id="pareto-content">✅ Concentration chart data loaded</div>`)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleInsights(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	report, err := h.report(r)
	if err != nil {
		h.logger.Error("compute insights report", "error", err)
		return
	}

	html, err := h.renderInsights(report)
	if err != nil {
		h.logger.Error("render insights", "error", err)
		return
	}
	sse.PatchElements(html)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// HandleRefreshAll recomputes once and patches every dashboard fragment in a
// single SSE response.
func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	report, err := h.report(r)
	if err != nil {
		h.logger.Error("compute report", "error", err)
		return
	}

	products := report.Products
	if len(products) > maxTableRows {
		products = products[:maxTableRows]
	}

	var buf strings.Builder
	if err := productTableTemplate.Execute(&buf, products); err != nil {
		h.logger.Error("render product table", "error", err)
		return
	}
	sse.PatchElements(buf.String())

	buf.Reset()
	if err := divisionTableTemplate.Execute(&buf, report.Divisions); err != nil {
		h.logger.Error("render division table", "error", err)
		return
	}
	sse.PatchElements(buf.String())

	html, err := h.renderInsights(report)
	if err != nil {
		h.logger.Error("render insights", "error", err)
		return
	}
	sse.PatchElements(html)

	allSignals, err := json.Marshal(map[string]any{
		"paretoData": report.Pareto,
		"kpisData":   report.KPIs,
	})
	if err != nil {
		h.logger.Error("marshal signals data", "error", err)
		return
	}
	sse.PatchSignals(allSignals)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
