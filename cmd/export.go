package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the analytics reports to an xlsx workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("analytics"); err != nil {
			return err
		}
		env, err := initEnv(false)
		if err != nil {
			return err
		}

		alternatives, err := env.Analytics.CheaperAlternatives(cfg.Analytics.MinSavingsPercent, "")
		if err != nil {
			return err
		}
		discovery, err := env.Analytics.InnovativeProducts(cfg.Analytics.MinSuppliers, "suppliers")
		if err != nil {
			return err
		}
		roi, err := env.Analytics.SupplierROI()
		if err != nil {
			return err
		}

		f := xlsx.NewFile()

		sheet, err := f.AddSheet("Cheaper Alternatives")
		if err != nil {
			return eris.Wrap(err, "export: add sheet")
		}
		addHeader(sheet, "Product", "Current Supplier", "Current Price", "Alternative Supplier",
			"Alternative Price", "Savings %", "Delivery Days")
		for _, alt := range alternatives.Alternatives {
			row := sheet.AddRow()
			row.AddCell().Value = alt.ProductName
			row.AddCell().Value = alt.CurrentName
			row.AddCell().SetFloat(alt.CurrentPrice)
			row.AddCell().Value = alt.AltSupplierName
			row.AddCell().SetFloat(alt.AltPrice)
			row.AddCell().SetFloat(alt.SavingsPercent)
			row.AddCell().SetInt(alt.DeliveryDays)
		}

		sheet, err = f.AddSheet("Innovative Products")
		if err != nil {
			return eris.Wrap(err, "export: add sheet")
		}
		addHeader(sheet, "Product", "Suppliers", "Avg Price", "Min Price", "Max Price", "Min Delivery Days")
		for _, p := range discovery.Products {
			row := sheet.AddRow()
			row.AddCell().Value = p.ProductName
			row.AddCell().SetInt(p.SupplierCount)
			row.AddCell().SetFloat(p.AvgPrice)
			row.AddCell().SetFloat(p.MinPrice)
			row.AddCell().SetFloat(p.MaxPrice)
			row.AddCell().SetInt(p.MinDeliveryDays)
		}

		sheet, err = f.AddSheet("Supplier ROI")
		if err != nil {
			return eris.Wrap(err, "export: add sheet")
		}
		addHeader(sheet, "Supplier", "Performance", "Monthly Spend", "Status", "Trend", "Issues")
		for _, s := range roi.Suppliers {
			row := sheet.AddRow()
			row.AddCell().Value = s.Name
			row.AddCell().SetFloat(s.Performance)
			row.AddCell().SetFloat(s.MonthlySpend)
			row.AddCell().Value = s.Status
			row.AddCell().Value = s.Trend
			row.AddCell().Value = joinIssues(s.Issues)
		}

		if err := f.Save(exportOut); err != nil {
			return eris.Wrap(err, "export: save workbook")
		}
		zap.L().Info("workbook written", zap.String("path", exportOut))
		return nil
	},
}

func addHeader(sheet *xlsx.Sheet, titles ...string) {
	row := sheet.AddRow()
	for _, title := range titles {
		row.AddCell().Value = title
	}
}

func joinIssues(issues []string) string {
	out := ""
	for i, issue := range issues {
		if i > 0 {
			out += ", "
		}
		out += issue
	}
	return out
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "report.xlsx", "output workbook path")
	rootCmd.AddCommand(exportCmd)
}
