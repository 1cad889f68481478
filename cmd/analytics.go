package main

import (
	"github.com/spf13/cobra"
)

var (
	analyticsMinSavings   float64
	analyticsProductID    string
	analyticsMinSuppliers int
	analyticsSortBy       string
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Run procurement analytics queries",
}

var alternativesCmd = &cobra.Command{
	Use:   "alternatives",
	Short: "Find cheaper supplier alternatives for stocked products",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("analytics"); err != nil {
			return err
		}
		env, err := initEnv(false)
		if err != nil {
			return err
		}
		minSavings := analyticsMinSavings
		if !cmd.Flags().Changed("min-savings") {
			minSavings = cfg.Analytics.MinSavingsPercent
		}
		report, err := env.Analytics.CheaperAlternatives(minSavings, analyticsProductID)
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

var innovativeCmd = &cobra.Command{
	Use:   "innovative",
	Short: "Find supplier products the store does not stock yet",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("analytics"); err != nil {
			return err
		}
		env, err := initEnv(false)
		if err != nil {
			return err
		}
		report, err := env.Analytics.InnovativeProducts(analyticsMinSuppliers, analyticsSortBy)
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

var roiCmd = &cobra.Command{
	Use:   "roi",
	Short: "Score supplier performance and spend",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("analytics"); err != nil {
			return err
		}
		env, err := initEnv(false)
		if err != nil {
			return err
		}
		report, err := env.Analytics.SupplierROI()
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

func init() {
	alternativesCmd.Flags().Float64Var(&analyticsMinSavings, "min-savings", 5.0, "minimum savings percent to flag")
	alternativesCmd.Flags().StringVar(&analyticsProductID, "product-id", "", "restrict to one stocked product")
	innovativeCmd.Flags().IntVar(&analyticsMinSuppliers, "min-suppliers", 1, "minimum offering suppliers")
	innovativeCmd.Flags().StringVar(&analyticsSortBy, "sort-by", "suppliers", "sort: suppliers, price, delivery_time")

	analyticsCmd.AddCommand(alternativesCmd, innovativeCmd, roiCmd)
	rootCmd.AddCommand(analyticsCmd)
}
