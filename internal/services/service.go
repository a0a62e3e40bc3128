package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"plp-dashboard/internal/dataset"
	apperrors "plp-dashboard/internal/errors"
	"plp-dashboard/internal/models"
)

// Options are the analyst-tunable defaults for a profitability service.
type Options struct {
	MarginThreshold      float64
	TopFraction          float64
	ConcentrationWarnPct float64
}

// Profitability holds the raw dataset and runs the filter, derive, aggregate,
// concentration, and insight steps as one synchronous pass per request. The
// only state shared across requests is the raw record set; every derived
// value is filter-relative and recomputed on each call.
type Profitability struct {
	mu       sync.RWMutex
	records  []models.Record
	source   string
	loadedAt time.Time
	skipped  int

	opts   Options
	logger *slog.Logger
}

func NewProfitability(opts Options, logger *slog.Logger) *Profitability {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TopFraction <= 0 || opts.TopFraction > 1 {
		opts.TopFraction = 0.2
	}
	if opts.ConcentrationWarnPct == 0 {
		opts.ConcentrationWarnPct = 70
	}
	return &Profitability{opts: opts, logger: logger}
}

// SetData replaces the raw dataset directly.
func (p *Profitability) SetData(records []models.Record) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = records
	p.source = "inline"
	p.loadedAt = time.Now()
	p.skipped = 0
}

// LoadDataset reads the dataset through the loader and installs it as the
// raw record set.
func (p *Profitability) LoadDataset(ctx context.Context, loader *dataset.Loader, path, sheet string) error {
	snapshot, err := loader.Load(ctx, path, sheet)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = snapshot.Records
	p.source = snapshot.Source
	p.loadedAt = snapshot.LoadedAt
	p.skipped = snapshot.SkippedRows
	return nil
}

// Report is one full computation over a filter specification.
type Report struct {
	NoData    bool                   `json:"no_data"`
	KPIs      models.KPIs            `json:"kpis"`
	Records   []models.DerivedRecord `json:"records,omitempty"`
	Products  []models.GroupSummary  `json:"products,omitempty"`
	Divisions []models.GroupSummary  `json:"divisions,omitempty"`
	Pareto    []models.ParetoEntry   `json:"pareto,omitempty"`
	Insights  *models.InsightSet     `json:"insights,omitempty"`
	Threshold float64                `json:"margin_threshold"`
}

// Report recomputes the whole pipeline for spec. InvalidRange propagates
// before any aggregation runs; an empty filtered set comes back as a NoData
// report rather than an error.
func (p *Profitability) Report(spec FilterSpec, marginThreshold float64) (*Report, error) {
	p.mu.RLock()
	records := p.records
	p.mu.RUnlock()

	filtered, err := Filter(records, spec)
	if err != nil {
		return nil, err
	}

	derived, totals := Derive(filtered, marginThreshold)

	report := &Report{
		KPIs:      kpis(derived, totals),
		Threshold: marginThreshold,
	}

	products := Aggregate(derived, models.GroupByProduct)
	divisions := Aggregate(derived, models.GroupByDivision)
	pareto := Pareto(derived)
	topShare := TopShare(pareto, p.opts.TopFraction)

	insights, err := Synthesize(derived, divisions, products, topShare, p.opts.TopFraction, p.opts.ConcentrationWarnPct)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeNoData) {
			report.NoData = true
			return report, nil
		}
		return nil, err
	}

	report.Records = derived
	report.Products = products
	report.Divisions = divisions
	report.Pareto = pareto
	report.Insights = insights
	return report, nil
}

func kpis(derived []models.DerivedRecord, totals models.Totals) models.KPIs {
	margins := make([]float64, 0, len(derived))
	for _, d := range derived {
		if d.GrossMargin.Defined() {
			margins = append(margins, float64(d.GrossMargin))
		}
	}

	avg := models.Undefined()
	if len(margins) > 0 {
		avg = models.Metric(stat.Mean(margins, nil))
	}

	return models.KPIs{
		TotalSales:    totals.Sales,
		TotalProfit:   totals.Profit,
		AverageMargin: avg,
		Records:       len(derived),
	}
}

// Options returns the configured analytics defaults.
func (p *Profitability) Options() Options {
	return p.opts
}

// Divisions lists the distinct division values of the raw dataset in
// first-seen order, for populating the filter controls.
func (p *Profitability) Divisions() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	seen := make(map[string]struct{})
	divisions := make([]string, 0)
	for _, r := range p.records {
		if _, ok := seen[r.Division]; !ok {
			seen[r.Division] = struct{}{}
			divisions = append(divisions, r.Division)
		}
	}
	return divisions
}

// Stats exposes raw-dataset metadata for the admin endpoint.
func (p *Profitability) Stats() map[string]any {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return map[string]any{
		"record_count": len(p.records),
		"source":       p.source,
		"loaded_at":    p.loadedAt,
		"skipped_rows": p.skipped,
	}
}
