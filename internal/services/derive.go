package services

import (
	"plp-dashboard/internal/models"
)

// Derive computes the per-row metrics over a filtered set plus the set-wide
// totals backing the contribution percentages. Margin and per-unit profit are
// undefined when Sales or Units is zero; contributions are undefined when the
// corresponding total is zero. An empty input yields an empty output with
// zero totals, which callers must treat as a no-data state rather than zero
// contributions.
func Derive(records []models.Record, marginThreshold float64) ([]models.DerivedRecord, models.Totals) {
	var totals models.Totals
	for _, r := range records {
		totals.Sales += r.Sales
		totals.Profit += r.Sales - r.Cost
	}

	derived := make([]models.DerivedRecord, 0, len(records))
	for _, r := range records {
		profit := r.Sales - r.Cost

		margin := models.Undefined()
		if r.Sales != 0 {
			margin = models.Metric(profit / r.Sales * 100)
		}

		perUnit := models.Undefined()
		if r.Units != 0 {
			perUnit = models.Metric(profit / float64(r.Units))
		}

		revContribution := models.Undefined()
		if totals.Sales != 0 {
			revContribution = models.Metric(r.Sales / totals.Sales * 100)
		}

		profitContribution := models.Undefined()
		if totals.Profit != 0 {
			profitContribution = models.Metric(profit / totals.Profit * 100)
		}

		// An undefined margin cannot fall below the threshold, so it
		// classifies as Safe.
		risk := models.RiskSafe
		if margin.Defined() && float64(margin) < marginThreshold {
			risk = models.RiskHigh
		}

		derived = append(derived, models.DerivedRecord{
			Record:              r,
			GrossProfit:         profit,
			GrossMargin:         margin,
			ProfitPerUnit:       perUnit,
			RevenueContribution: revContribution,
			ProfitContribution:  profitContribution,
			RiskLevel:           risk,
		})
	}

	return derived, totals
}
