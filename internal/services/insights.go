package services

import (
	"gonum.org/v1/gonum/stat"

	apperrors "plp-dashboard/internal/errors"
	"plp-dashboard/internal/models"
)

// Synthesize combines the aggregated summaries and the concentration share
// into the narrative insight set. It signals no-data on an empty filtered
// set: every finding below is undefined over zero records.
func Synthesize(
	derived []models.DerivedRecord,
	divisions, products []models.GroupSummary,
	topShare models.Metric,
	topFraction, concentrationWarnPct float64,
) (*models.InsightSet, error) {
	if len(derived) == 0 {
		return nil, apperrors.NoData("no data for current filters")
	}

	insights := &models.InsightSet{
		BestDivision:       bestDivision(divisions),
		WorstMarginProduct: worstMarginProduct(products),
		HighRiskProducts:   highRiskProducts(derived),
		TopShareFraction:   topFraction,
		TopSharePct:        topShare,
		AvgVolatility:      averageVolatility(products),
	}

	if topShare.Defined() && float64(topShare) > concentrationWarnPct {
		insights.Warnings = append(insights.Warnings, models.WarnConcentration)
	}

	// Deliberately compares a mean of per-product sample deviations with the
	// single ungrouped deviation over the filtered set.
	overall := overallMarginStdDev(derived)
	if insights.AvgVolatility.Defined() && overall.Defined() &&
		float64(insights.AvgVolatility) > float64(overall) {
		insights.Warnings = append(insights.Warnings, models.WarnInstability)
	}

	return insights, nil
}

// bestDivision picks the division with the maximum summed gross profit; ties
// keep the aggregator's first-seen order.
func bestDivision(divisions []models.GroupSummary) string {
	best := ""
	bestProfit := 0.0
	for i, d := range divisions {
		if i == 0 || d.GrossProfit > bestProfit {
			best = d.Key
			bestProfit = d.GrossProfit
		}
	}
	return best
}

// worstMarginProduct picks the product with the minimum mean margin, skipping
// products whose mean is undefined.
func worstMarginProduct(products []models.GroupSummary) string {
	worst := ""
	worstMargin := 0.0
	found := false
	for _, p := range products {
		if !p.MeanMargin.Defined() {
			continue
		}
		if !found || float64(p.MeanMargin) < worstMargin {
			worst = p.Key
			worstMargin = float64(p.MeanMargin)
			found = true
		}
	}
	return worst
}

// highRiskProducts counts distinct products with at least one record below
// the active margin threshold.
func highRiskProducts(derived []models.DerivedRecord) int {
	seen := make(map[string]struct{})
	for _, d := range derived {
		if d.RiskLevel == models.RiskHigh {
			seen[d.ProductName] = struct{}{}
		}
	}
	return len(seen)
}

func averageVolatility(products []models.GroupSummary) models.Metric {
	defined := make([]float64, 0, len(products))
	for _, p := range products {
		if p.MarginVolatility.Defined() {
			defined = append(defined, float64(p.MarginVolatility))
		}
	}
	if len(defined) == 0 {
		return models.Undefined()
	}
	return models.Metric(stat.Mean(defined, nil))
}

func overallMarginStdDev(derived []models.DerivedRecord) models.Metric {
	margins := make([]float64, 0, len(derived))
	for _, d := range derived {
		if d.GrossMargin.Defined() {
			margins = append(margins, float64(d.GrossMargin))
		}
	}
	if len(margins) < 2 {
		return models.Undefined()
	}
	return models.Metric(stat.StdDev(margins, nil))
}
