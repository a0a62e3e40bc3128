package models

import (
	"math"
	"strconv"
	"time"
)

// Metric is a float64 that may be undefined (division by zero upstream).
// Undefined values marshal to JSON null and export as "N/A"; they are never
// coerced to zero.
type Metric float64

func Undefined() Metric {
	return Metric(math.NaN())
}

func (m Metric) Defined() bool {
	return !math.IsNaN(float64(m))
}

func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Defined() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(float64(m), 'f', -1, 64)), nil
}

func (m *Metric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Undefined()
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*m = Metric(v)
	return nil
}

// String renders the metric for delimited export.
func (m Metric) String() string {
	if !m.Defined() {
		return "N/A"
	}
	return strconv.FormatFloat(float64(m), 'f', -1, 64)
}

type Record struct {
	ProductName string    `json:"product_name"`
	Division    string    `json:"division"`
	Date        time.Time `json:"date"`
	Sales       float64   `json:"sales"`
	Cost        float64   `json:"cost"`
	Units       int       `json:"units"`
}

// DerivedRecord extends a Record with metrics computed over the current
// filtered set. Contribution percentages are relative to that set, so derived
// records are recomputed on every filter change and never cached.
type DerivedRecord struct {
	Record
	GrossProfit         float64 `json:"gross_profit"`
	GrossMargin         Metric  `json:"gross_margin_pct"`
	ProfitPerUnit       Metric  `json:"profit_per_unit"`
	RevenueContribution Metric  `json:"revenue_contribution_pct"`
	ProfitContribution  Metric  `json:"profit_contribution_pct"`
	RiskLevel           string  `json:"risk_level"`
}

const (
	RiskHigh = "High Risk"
	RiskSafe = "Safe"

	VolatilityHigh   = "High Volatility"
	VolatilityStable = "Stable"
)

// GroupKey selects the categorical dimension for aggregation.
type GroupKey int

const (
	GroupByDivision GroupKey = iota
	GroupByProduct
)

func (k GroupKey) String() string {
	if k == GroupByProduct {
		return "product"
	}
	return "division"
}

type GroupSummary struct {
	Key                string  `json:"key"`
	Records            int     `json:"records"`
	Sales              float64 `json:"sales"`
	GrossProfit        float64 `json:"gross_profit"`
	MeanMargin         Metric  `json:"mean_margin_pct"`
	ProfitContribution Metric  `json:"profit_contribution_pct"`

	// Product dimension only.
	MarginVolatility Metric `json:"margin_volatility,omitempty"`
	VolatilityRisk   string `json:"volatility_risk,omitempty"`
}

type ParetoEntry struct {
	Key              string  `json:"key"`
	GrossProfit      float64 `json:"gross_profit"`
	CumulativeProfit float64 `json:"cumulative_profit"`
	CumulativePct    Metric  `json:"cumulative_pct"`
}

type Totals struct {
	Sales  float64 `json:"total_sales"`
	Profit float64 `json:"total_profit"`
}

type KPIs struct {
	TotalSales    float64 `json:"total_sales"`
	TotalProfit   float64 `json:"total_profit"`
	AverageMargin Metric  `json:"average_margin_pct"`
	Records       int     `json:"records"`
}

// InsightSet bundles the narrative findings for the current filtered set.
type InsightSet struct {
	BestDivision       string   `json:"best_division"`
	WorstMarginProduct string   `json:"worst_margin_product"`
	HighRiskProducts   int      `json:"high_risk_products"`
	TopShareFraction   float64  `json:"top_share_fraction"`
	TopSharePct        Metric   `json:"top_share_pct"`
	AvgVolatility      Metric   `json:"avg_margin_volatility"`
	Warnings           []string `json:"warnings"`
}

const (
	WarnConcentration = "High Profit Concentration"
	WarnInstability   = "Margin Instability"
)
