package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"catalogsync/internal/bootstrap"
	"catalogsync/internal/config"
)

var (
	configPath string
	verbose    bool
	jsonOutput bool

	cfg    *config.Config
	logger *zap.Logger
	app    *bootstrap.App
)

var rootCmd = &cobra.Command{
	Use:   "catalogsync-cli",
	Short: "Reconcile catalog records with their product images",
	Long: `catalogsync-cli audits a product catalog against the image asset pool
and corrects records whose image does not show the product.

It reports matched, mismatched, orphaned and unassigned records, proposes
corrections from manual rules, duplicate resolution and fuzzy name
matching, and applies them record by record.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		logger, err = config.NewLogger(cfg.Log)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app != nil {
			if err := app.Close(); err != nil {
				logger.Warn("failed to close catalog store", zap.Error(err))
			}
		}
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./catalogsync.yaml or ~/.config/catalogsync/catalogsync.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
}

// GetApp opens the configured stores on first use
func GetApp(ctx context.Context) (*bootstrap.App, error) {
	if app != nil {
		return app, nil
	}
	var err error
	app, err = bootstrap.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return app, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
