package main

import (
	"github.com/spf13/cobra"
)

var tasksLimit int

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Show the recent call activity recap",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("analytics"); err != nil {
			return err
		}
		env, err := initEnv(false)
		if err != nil {
			return err
		}
		items, err := env.Runner.Recap(tasksLimit)
		if err != nil {
			return err
		}
		summary, err := env.Runner.Summary(tasksLimit)
		if err != nil {
			return err
		}
		return printJSON(map[string]any{
			"activities": items,
			"summary":    summary,
		})
	},
}

func init() {
	tasksCmd.Flags().IntVar(&tasksLimit, "limit", 10, "maximum activities to show")
	rootCmd.AddCommand(tasksCmd)
}
