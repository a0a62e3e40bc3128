package services

import (
	"strings"
	"testing"

	apperrors "plp-dashboard/internal/errors"
	"plp-dashboard/internal/models"
)

func newTestProfitability() *Profitability {
	p := NewProfitability(Options{MarginThreshold: 10, TopFraction: 0.2, ConcentrationWarnPct: 70}, nil)
	p.SetData(testRecords())
	return p
}

func TestProfitability_Report(t *testing.T) {
	p := newTestProfitability()

	report, err := p.Report(FilterSpec{}, 10)
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	if report.NoData {
		t.Fatal("report should carry data")
	}
	if !approxEqual(report.KPIs.TotalSales, 350) {
		t.Errorf("TotalSales = %v, want 350", report.KPIs.TotalSales)
	}
	if !approxEqual(report.KPIs.TotalProfit, 190) {
		t.Errorf("TotalProfit = %v, want 190", report.KPIs.TotalProfit)
	}
	if report.KPIs.Records != 3 {
		t.Errorf("Records = %d, want 3", report.KPIs.Records)
	}
	// Mean of margins {40, 75, 0}.
	wantAvg := (40.0 + 75.0 + 0.0) / 3
	if !report.KPIs.AverageMargin.Defined() || !approxEqual(float64(report.KPIs.AverageMargin), wantAvg) {
		t.Errorf("AverageMargin = %v, want %v", report.KPIs.AverageMargin, wantAvg)
	}

	if len(report.Records) != 3 || len(report.Pareto) != 3 {
		t.Errorf("expected 3 derived records and pareto entries, got %d and %d",
			len(report.Records), len(report.Pareto))
	}
	if report.Insights == nil {
		t.Fatal("expected insights on a non-empty set")
	}
	if report.Insights.BestDivision != "Hardware" {
		t.Errorf("BestDivision = %q, want Hardware", report.Insights.BestDivision)
	}
}

func TestProfitability_ReportNoData(t *testing.T) {
	p := newTestProfitability()

	report, err := p.Report(FilterSpec{Search: "no such product"}, 10)
	if err != nil {
		t.Fatalf("an empty filtered set must not error, got %v", err)
	}

	if !report.NoData {
		t.Error("expected NoData report")
	}
	if report.Insights != nil {
		t.Error("no-data report should carry no insights")
	}
	if report.KPIs.TotalSales != 0 || report.KPIs.TotalProfit != 0 {
		t.Errorf("no-data KPIs should be zero, got %+v", report.KPIs)
	}
	if report.KPIs.AverageMargin.Defined() {
		t.Error("no-data average margin should be undefined")
	}
}

func TestProfitability_ReportInvalidRange(t *testing.T) {
	p := newTestProfitability()

	_, err := p.Report(FilterSpec{Start: date(2023, 6, 1), End: date(2023, 1, 1)}, 10)
	if !apperrors.IsCode(err, apperrors.CodeInvalidRange) {
		t.Errorf("expected INVALID_RANGE, got %v", err)
	}
}

func TestProfitability_DerivedValuesFollowFilter(t *testing.T) {
	p := newTestProfitability()

	full, err := p.Report(FilterSpec{}, 10)
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	narrowed, err := p.Report(FilterSpec{Divisions: []string{"Hardware"}}, 10)
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	// Contribution percentages are relative to the filtered set, so they
	// must change when the filter does.
	fullFirst := float64(full.Records[0].RevenueContribution)
	narrowedFirst := float64(narrowed.Records[0].RevenueContribution)
	if approxEqual(fullFirst, narrowedFirst) {
		t.Errorf("contribution unchanged across filters: %v == %v", fullFirst, narrowedFirst)
	}
}

func TestProfitability_Divisions(t *testing.T) {
	p := newTestProfitability()

	divisions := p.Divisions()
	if len(divisions) != 2 || divisions[0] != "Hardware" || divisions[1] != "Software" {
		t.Errorf("Divisions() = %v, want [Hardware Software]", divisions)
	}
}

func TestWriteCSV(t *testing.T) {
	records := []models.Record{
		{ProductName: "Laptop Stand", Division: "Hardware", Date: date(2023, 1, 15), Sales: 100, Cost: 60, Units: 10},
		{ProductName: "Sample", Division: "Hardware", Date: date(2023, 1, 16), Sales: 0, Cost: 5, Units: 0},
	}
	derived, _ := Derive(records, 10)

	var buf strings.Builder
	if err := WriteCSV(&buf, derived); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}

	if !strings.HasPrefix(lines[0], "Product Name,Division,Date,") {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "Laptop Stand,Hardware,2023-01-15,100,60,10,40,40,4") {
		t.Errorf("unexpected data row: %q", lines[1])
	}
	// Undefined metrics export as N/A, never as zero.
	if !strings.Contains(lines[2], "N/A") {
		t.Errorf("expected N/A sentinels in row with zero sales and units: %q", lines[2])
	}
}

func TestWriteCSV_EmptySet(t *testing.T) {
	var buf strings.Builder
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Errorf("expected header row only, got %d lines", len(lines))
	}
}

func BenchmarkProfitability_Report(b *testing.B) {
	records := make([]models.Record, 0, 5000)
	for i := 0; i < 5000; i++ {
		records = append(records, models.Record{
			ProductName: "Product" + string(rune('A'+i%50)),
			Division:    "Division" + string(rune('A'+i%5)),
			Date:        date(2023, 1, 1+i%28),
			Sales:       float64(100 + i%900),
			Cost:        float64(50 + i%400),
			Units:       1 + i%20,
		})
	}

	p := NewProfitability(Options{MarginThreshold: 10, TopFraction: 0.2, ConcentrationWarnPct: 70}, nil)
	p.SetData(records)

	b.ResetTimer()
	for b.Loop() {
		if _, err := p.Report(FilterSpec{}, 10); err != nil {
			b.Fatal(err)
		}
	}
}
