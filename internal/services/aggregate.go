package services

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"plp-dashboard/internal/models"
)

type groupAccumulator struct {
	records int
	sales   float64
	profit  float64
	// Defined margins only; undefined sentinels are excluded from means and
	// deviations, never coerced to zero.
	margins []float64
}

// Aggregate groups derived records by key and reduces each group to summary
// statistics. Groups appear in first-seen input order, which keeps downstream
// tie-breaks deterministic. The product dimension additionally carries margin
// volatility and its classification against the median volatility.
func Aggregate(derived []models.DerivedRecord, key models.GroupKey) []models.GroupSummary {
	order := make([]string, 0)
	groups := make(map[string]*groupAccumulator)

	for _, d := range derived {
		k := d.Division
		if key == models.GroupByProduct {
			k = d.ProductName
		}

		acc, ok := groups[k]
		if !ok {
			acc = &groupAccumulator{}
			groups[k] = acc
			order = append(order, k)
		}

		acc.records++
		acc.sales += d.Sales
		acc.profit += d.GrossProfit
		if d.GrossMargin.Defined() {
			acc.margins = append(acc.margins, float64(d.GrossMargin))
		}
	}

	totalProfit := 0.0
	for _, acc := range groups {
		totalProfit += acc.profit
	}

	summaries := make([]models.GroupSummary, 0, len(order))
	for _, k := range order {
		acc := groups[k]

		meanMargin := models.Undefined()
		if len(acc.margins) > 0 {
			meanMargin = models.Metric(stat.Mean(acc.margins, nil))
		}

		profitContribution := models.Undefined()
		if totalProfit != 0 {
			profitContribution = models.Metric(acc.profit / totalProfit * 100)
		}

		summaries = append(summaries, models.GroupSummary{
			Key:                k,
			Records:            acc.records,
			Sales:              acc.sales,
			GrossProfit:        acc.profit,
			MeanMargin:         meanMargin,
			ProfitContribution: profitContribution,
		})
	}

	if key == models.GroupByProduct {
		classifyVolatility(summaries, groups)
	}

	return summaries
}

// classifyVolatility computes the sample deviation of each product's margins
// and splits the groups at the median of the defined volatilities. A product
// with fewer than two measurable margins has undefined volatility; it is
// excluded from the median and classified Stable.
func classifyVolatility(summaries []models.GroupSummary, groups map[string]*groupAccumulator) {
	defined := make([]float64, 0, len(summaries))

	for i := range summaries {
		acc := groups[summaries[i].Key]

		volatility := models.Undefined()
		if len(acc.margins) >= 2 {
			volatility = models.Metric(stat.StdDev(acc.margins, nil))
			defined = append(defined, float64(volatility))
		}
		summaries[i].MarginVolatility = volatility
		summaries[i].VolatilityRisk = models.VolatilityStable
	}

	if len(defined) == 0 {
		return
	}

	median := median(defined)

	for i := range summaries {
		v := summaries[i].MarginVolatility
		if v.Defined() && float64(v) > median {
			summaries[i].VolatilityRisk = models.VolatilityHigh
		}
	}
}

// median interpolates between the two middle values for even-length input.
func median(values []float64) float64 {
	sort.Float64s(values)
	n := len(values)
	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2
}
