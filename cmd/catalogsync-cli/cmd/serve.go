package cmd

import (
	"github.com/spf13/cobra"

	"catalogsync/internal/adapters/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve audit, apply and batch update over HTTP",
	Long: `Serve exposes the engine as a JSON API:

  GET  /healthz
  GET  /audit?category=engine
  GET  /assets?category=engine&unused=true
  POST /apply          {"plan": [...], "category": "...", "dryRun": true}
  POST /batch-update   {"updates": [{"id": "...", "assetRef": "..."}]}

The server stops on interrupt after draining in-flight requests.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := GetApp(ctx)
		if err != nil {
			return err
		}

		addr := serveAddr
		if addr == "" {
			addr = cfg.Server.Addr
		}
		return httpapi.NewServer(a.Engine, logger).ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, 127.0.0.1:8080)")
	rootCmd.AddCommand(serveCmd)
}
