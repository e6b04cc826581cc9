package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/toyinlola/pkgrisk/pkg/cli"
	"github.com/toyinlola/pkgrisk/pkg/interfaces"
	"github.com/toyinlola/pkgrisk/pkg/pipeline"
	"github.com/toyinlola/pkgrisk/pkg/registry"
	"github.com/toyinlola/pkgrisk/pkg/report"
)

var (
	snapshotsFile  string
	liveLookups    bool
	usage          string
	criticality    string
	fixedWeights   bool
	withRecommend  bool
	pause          time.Duration
	failOnOverride string
)

var assessCmd = &cobra.Command{
	Use:   "assess [package...]",
	Short: "Assess the risk of one or more packages",
	Long: `Assess fetches metadata for each package, scores it across the four risk
dimensions and prints a report.

Assess packages from the live registry:
  pkgrisk assess requests flask

Assess every package in a snapshot file:
  pkgrisk assess --snapshots ./snapshots.yaml

Exit code is 1 when any package reaches the fail_on level (default: high).`,
	RunE: runAssess,
}

func init() {
	assessCmd.Flags().StringVar(&snapshotsFile, "snapshots", "", "YAML or JSON snapshot file to read instead of live lookups")
	assessCmd.Flags().BoolVar(&liveLookups, "live", false, "ignore the configured snapshot file and query live sources")
	assessCmd.Flags().StringVar(&usage, "usage", "", "how the dependency is used (runtime|dev|test|ci-only)")
	assessCmd.Flags().StringVar(&criticality, "criticality", "", "how central the dependency is (core|support|cosmetic)")
	assessCmd.Flags().BoolVar(&fixedWeights, "fixed-weights", false, "use fixed instead of adaptive dimension weights")
	assessCmd.Flags().BoolVar(&withRecommend, "recommend", false, "recommend alternatives for every package")
	assessCmd.Flags().DurationVar(&pause, "pause", -1, "minimum gap between packages (default from config)")
	assessCmd.Flags().StringVar(&failOnOverride, "fail-on", "", "lowest risk level that fails the run (minimal|low|moderate|high|critical|none)")
	rootCmd.AddCommand(assessCmd)
}

func runAssess(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. Load configuration and apply flags.
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("assess: %w", err)
	}
	applyProviderFlags(cfg)
	if fixedWeights {
		cfg.Scoring.Weighting = "fixed"
	}
	if pause >= 0 {
		cfg.Batch.Pause = pause
	}
	if failOnOverride != "" {
		cfg.Scoring.FailOn = failOnOverride
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("assess: %w", err)
	}
	actx, err := analysisContext(usage, criticality)
	if err != nil {
		return fmt.Errorf("assess: %w", err)
	}

	// 2. Build the scoring stack and provider.
	stack, err := cli.NewStack(ctx, cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("assess: %w", err)
	}
	defer stack.Close() // best-effort cleanup

	names := args
	if len(names) == 0 {
		fp, ok := stack.Provider.(*registry.FileProvider)
		if !ok {
			return errors.New("assess: name at least one package or pass --snapshots")
		}
		names = fp.Names()
	}

	// 3. Run the batch.
	opts := []pipeline.Option{
		pipeline.WithPause(cfg.Batch.Pause),
		pipeline.WithAnalysisContext(actx),
	}
	if withRecommend {
		opts = append(opts, pipeline.WithRecommender(stack.Recommender))
	}
	batch, runErr := pipeline.New(stack.Provider, stack.Assessor, opts...).Run(ctx, names)
	if batch == nil {
		return fmt.Errorf("assess: %w", runErr)
	}
	if runErr != nil {
		slog.Warn("batch interrupted, reporting partial results", "error", runErr)
	}

	// 4. Generate and write the report.
	rpt := report.NewGenerator().Generate(batch)
	f, err := report.ForName(cfg.Output.Format)
	if err != nil {
		return fmt.Errorf("assess: %w", err)
	}
	w, closeOut, err := openOutput()
	if err != nil {
		return fmt.Errorf("assess: %w", err)
	}
	defer closeOut() // best-effort cleanup

	if err := f.Format(w, rpt); err != nil {
		return fmt.Errorf("assess: writing report: %w", err)
	}

	if runErr != nil {
		return fmt.Errorf("assess: %w", runErr)
	}

	// 5. Fail when any package reaches the threshold.
	if failing := failingPackages(rpt, cfg.Scoring.FailOn); len(failing) > 0 {
		slog.Info("risk threshold reached", "fail_on", cfg.Scoring.FailOn, "packages", failing)
		return ErrRiskThreshold
	}
	return nil
}

// applyProviderFlags applies --snapshots and --live to the provider config.
func applyProviderFlags(cfg *cli.Config) {
	if snapshotsFile != "" {
		cfg.Providers.Snapshots = snapshotsFile
	}
	if liveLookups {
		cfg.Providers.Snapshots = ""
	}
}

// analysisContext builds the optional usage context from flag values.
func analysisContext(u, c string) (*interfaces.AnalysisContext, error) {
	return interfaces.ParseAnalysisContext(u, c)
}

// failingPackages returns the packages at or above failOn. "none" never fails.
func failingPackages(rpt *interfaces.Report, failOn string) []string {
	if failOn == "none" {
		return nil
	}
	return report.AtOrAbove(rpt, interfaces.RiskLevel(failOn))
}
