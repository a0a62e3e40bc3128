package services

import (
	"math"
	"sort"

	"plp-dashboard/internal/models"
)

// Pareto ranks products by summed gross profit, descending, with a running
// cumulative total and cumulative percentage. Ties keep first-seen input
// order; the ordering is deterministic because the top-fraction cutoff is
// sensitive to it.
func Pareto(derived []models.DerivedRecord) []models.ParetoEntry {
	order := make([]string, 0)
	profits := make(map[string]float64)

	for _, d := range derived {
		if _, ok := profits[d.ProductName]; !ok {
			order = append(order, d.ProductName)
		}
		profits[d.ProductName] += d.GrossProfit
	}

	entries := make([]models.ParetoEntry, 0, len(order))
	total := 0.0
	for _, k := range order {
		entries = append(entries, models.ParetoEntry{Key: k, GrossProfit: profits[k]})
		total += profits[k]
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].GrossProfit > entries[j].GrossProfit
	})

	cumulative := 0.0
	for i := range entries {
		cumulative += entries[i].GrossProfit
		entries[i].CumulativeProfit = cumulative
		if total != 0 {
			entries[i].CumulativePct = models.Metric(cumulative / total * 100)
		} else {
			entries[i].CumulativePct = models.Undefined()
		}
	}

	return entries
}

// TopShare reports the combined profit of the first ceil(fraction*N) entries
// as a percentage of total profit. At least one entry counts when the ranking
// is non-empty.
func TopShare(entries []models.ParetoEntry, fraction float64) models.Metric {
	if len(entries) == 0 {
		return models.Undefined()
	}

	head := int(math.Ceil(fraction * float64(len(entries))))
	if head < 1 {
		head = 1
	}
	if head > len(entries) {
		head = len(entries)
	}

	total := entries[len(entries)-1].CumulativeProfit
	if total == 0 {
		return models.Undefined()
	}

	return models.Metric(entries[head-1].CumulativeProfit / total * 100)
}
