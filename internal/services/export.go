package services

import (
	"encoding/csv"
	"io"
	"strconv"

	"plp-dashboard/internal/models"
)

var exportHeader = []string{
	"Product Name",
	"Division",
	"Date",
	"Sales",
	"Cost",
	"Units",
	"Gross Profit",
	"Gross Margin (%)",
	"Profit per Unit",
	"Revenue Contribution (%)",
	"Profit Contribution (%)",
	"Risk Level",
}

// WriteCSV serializes the filtered and derived record set as UTF-8
// comma-separated text with a header row, preserving the derived columns
// exactly as computed. Undefined metrics export as N/A.
func WriteCSV(w io.Writer, derived []models.DerivedRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(exportHeader); err != nil {
		return err
	}

	for _, d := range derived {
		row := []string{
			d.ProductName,
			d.Division,
			d.Date.Format("2006-01-02"),
			formatFloat(d.Sales),
			formatFloat(d.Cost),
			strconv.Itoa(d.Units),
			formatFloat(d.GrossProfit),
			d.GrossMargin.String(),
			d.ProfitPerUnit.String(),
			d.RevenueContribution.String(),
			d.ProfitContribution.String(),
			d.RiskLevel,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
