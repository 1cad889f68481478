package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pharmalink/procure-cli/internal/model"
)

var (
	callKind     string
	callSupplier string
)

var callCmd = &cobra.Command{
	Use:   "call",
	Short: "Place one supplier call and reconcile its transcript",
	Long: `Places a phone call to the given supplier, waits for it to finish, and
reconciles the extracted updates into the catalog.

Examples:
  procure-cli call --kind products --supplier "Pharma Depot"
  procure-cli call --kind delivery --supplier "MediSource East"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("call"); err != nil {
			return err
		}
		kind, ok := model.ParseAgentKind(callKind)
		if !ok {
			return eris.Errorf("unknown agent kind %q (products, delivery, availability)", callKind)
		}

		env, err := initEnv(true)
		if err != nil {
			return err
		}

		created, err := env.Runner.Start(cmd.Context(), kind, callSupplier)
		if err != nil {
			return err
		}
		zap.L().Info("call started", zap.String("task_id", created.ID))

		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			t, err := env.Tasks.Get(created.ID)
			if err != nil {
				return err
			}
			if t.Status.Terminal() {
				env.Runner.Wait()
				return printJSON(t)
			}
			select {
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			case <-ticker.C:
			}
		}
	},
}

func init() {
	callCmd.Flags().StringVar(&callKind, "kind", "products", "agent kind: products, delivery, availability")
	callCmd.Flags().StringVar(&callSupplier, "supplier", "", "supplier name to call")
	callCmd.MarkFlagRequired("supplier")
	rootCmd.AddCommand(callCmd)
}
