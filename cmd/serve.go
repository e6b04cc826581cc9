package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/toyinlola/pkgrisk/pkg/cli"
	"github.com/toyinlola/pkgrisk/pkg/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the risk assessment HTTP API",
	Long: `Serve exposes assessment and recommendation over HTTP:

  GET  /health
  GET  /metrics
  POST /api/v1/assess            {"snapshot": {...}, "context": {...}}
  POST /api/v1/recommend         {"snapshot": {...}}
  GET  /api/v1/packages/:name/risk
  POST /api/v1/reports           {"names": [...], "recommend": true}`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
	serveCmd.Flags().StringVar(&snapshotsFile, "snapshots", "", "YAML or JSON snapshot file to serve instead of live lookups")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	applyProviderFlags(cfg)
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	stack, err := cli.NewStack(ctx, cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	defer stack.Close() // best-effort cleanup

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := server.New(stack.Assessor,
		server.WithProvider(stack.Provider),
		server.WithRecommender(stack.Recommender),
		server.WithLogger(slog.Default()),
	)
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}
