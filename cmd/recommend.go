package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/toyinlola/pkgrisk/pkg/cli"
	"github.com/toyinlola/pkgrisk/pkg/report"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend <package>",
	Short: "Recommend alternatives to a package",
	Long: `Recommend discovers candidate replacements for a package from the curated
alternatives table, its domains and a registry search, scores each one and
prints the ranked list grouped into buckets.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecommend,
}

func init() {
	recommendCmd.Flags().StringVar(&snapshotsFile, "snapshots", "", "YAML or JSON snapshot file to read instead of live lookups")
	recommendCmd.Flags().BoolVar(&liveLookups, "live", false, "ignore the configured snapshot file and query live sources")
	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	applyProviderFlags(cfg)

	stack, err := cli.NewStack(ctx, cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	defer stack.Close() // best-effort cleanup

	subject, err := stack.Provider.Fetch(ctx, args[0])
	if err != nil {
		return fmt.Errorf("recommend: fetching %s: %w", args[0], err)
	}
	if subject == nil {
		return fmt.Errorf("recommend: no metadata for %s", args[0])
	}

	rec, err := stack.Recommender.Recommend(ctx, subject, stack.Provider)
	if err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	slog.Debug("recommendation complete", "package", rec.Package, "alternatives", len(rec.Alternatives), "skipped", len(rec.Skipped))

	f, err := report.ForName(cfg.Output.Format)
	if err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	w, closeOut, err := openOutput()
	if err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	defer closeOut() // best-effort cleanup

	if err := f.FormatRecommendation(w, rec); err != nil {
		return fmt.Errorf("recommend: writing output: %w", err)
	}
	return nil
}
