package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pharmalink/procure-cli/internal/agent"
	"github.com/pharmalink/procure-cli/internal/model"
	"github.com/pharmalink/procure-cli/internal/transcript"
)

var (
	reconcileFile        string
	reconcileSupplier    string
	reconcileKind        string
	reconcileDir         string
	reconcileConcurrency int
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile saved transcripts into the catalog",
	Long: `Runs extraction and reconciliation over transcripts without placing calls.

Two modes:
  - Single file (--transcript): a raw text transcript plus --supplier
  - Batch (--dir): a folder of transcript JSON files saved by the call agents

Examples:
  procure-cli reconcile --transcript call.txt --supplier "Pharma Depot"
  procure-cli reconcile --dir ./data/transcripts --concurrency 4`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("reconcile"); err != nil {
			return err
		}
		env, err := initEnv(false)
		if err != nil {
			return err
		}

		if reconcileDir != "" {
			return reconcileBatch(cmd, env)
		}

		if reconcileFile == "" || reconcileSupplier == "" {
			return eris.New("either --dir or both --transcript and --supplier are required")
		}
		kind, ok := model.ParseAgentKind(reconcileKind)
		if !ok {
			return eris.Errorf("unknown agent kind %q", reconcileKind)
		}

		raw, err := os.ReadFile(reconcileFile)
		if err != nil {
			return eris.Wrap(err, "read transcript")
		}

		summary, err := env.Runner.ReconcileText(cmd.Context(), kind, string(raw), reconcileSupplier)
		if err != nil {
			return err
		}
		return printJSON(summary)
	},
}

// reconcileBatch runs every transcript JSON in the folder, a bounded number
// at a time. Individual failures are logged, not fatal.
func reconcileBatch(cmd *cobra.Command, env *appEnv) error {
	entries, err := os.ReadDir(reconcileDir)
	if err != nil {
		return eris.Wrap(err, "read transcript dir")
	}

	g, gCtx := errgroup.WithContext(cmd.Context())
	g.SetLimit(reconcileConcurrency)

	var mu sync.Mutex
	total := agent.ReconcileSummary{}
	var succeeded, failed atomic.Int64

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		g.Go(func() error {
			raw, readErr := os.ReadFile(filepath.Join(reconcileDir, name))
			if readErr != nil {
				failed.Add(1)
				zap.L().Error("reading transcript", zap.String("file", name), zap.Error(readErr))
				return nil
			}
			var tr model.Transcript
			if decodeErr := json.Unmarshal(raw, &tr); decodeErr != nil {
				failed.Add(1)
				zap.L().Error("decoding transcript", zap.String("file", name), zap.Error(decodeErr))
				return nil
			}
			kind := tr.AgentKind
			if !kind.Valid() {
				kind = model.AgentKindProducts
			}

			summary, runErr := env.Runner.ReconcileText(gCtx, kind, transcript.FormatText(tr), tr.SupplierName)
			if runErr != nil {
				failed.Add(1)
				zap.L().Error("reconciling transcript", zap.String("file", name), zap.Error(runErr))
				return nil
			}

			succeeded.Add(1)
			mu.Lock()
			total.Applied += summary.Applied
			total.Failed += summary.Failed
			total.Inserted += summary.Inserted
			total.OrdersUpdated += summary.OrdersUpdated
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	zap.L().Info("batch complete",
		zap.Int64("transcripts_succeeded", succeeded.Load()),
		zap.Int64("transcripts_failed", failed.Load()),
	)
	return printJSON(total)
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileFile, "transcript", "", "raw transcript text file")
	reconcileCmd.Flags().StringVar(&reconcileSupplier, "supplier", "", "supplier name for --transcript mode")
	reconcileCmd.Flags().StringVar(&reconcileKind, "kind", "products", "agent kind for --transcript mode")
	reconcileCmd.Flags().StringVar(&reconcileDir, "dir", "", "folder of transcript JSON files")
	reconcileCmd.Flags().IntVar(&reconcileConcurrency, "concurrency", 3, "parallel transcripts in --dir mode")
	rootCmd.AddCommand(reconcileCmd)
}
