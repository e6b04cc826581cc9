// Package cmd implements the pkgrisk CLI commands using Cobra.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/toyinlola/pkgrisk/pkg/cli"
)

// ErrRiskThreshold is returned when an assessed package reaches the
// configured fail_on level. The report has already been written.
var ErrRiskThreshold = errors.New("risk threshold reached")

var (
	cfgFile string
	verbose bool
	format  string
	output  string
)

var rootCmd = &cobra.Command{
	Use:   "pkgrisk",
	Short: "Dependency risk assessment and alternative recommendation",
	Long: `pkgrisk scores open-source packages across security, operational,
compliance and supply-chain risk, and recommends better-scoring alternatives.

Metadata comes from the package registry, the source host and the OSV
vulnerability database, or from a local snapshot file.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns any error.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default: .pkgrisk.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", "", "output format (terminal|json|markdown)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "", "write output to file instead of stdout")
}

func setupLogging() error {
	// .env is optional; real environment variables take precedence.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))

	return nil
}

// loadConfig reads the config file and applies the persistent flag overrides.
func loadConfig() (*cli.Config, error) {
	cfg, err := cli.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	if format != "" {
		cfg.Output.Format = format
	}
	if verbose {
		cfg.Output.Verbose = true
	}
	return cfg, nil
}

// openOutput returns stdout or the --output file. The returned close
// function is always non-nil.
func openOutput() (io.Writer, func() error, error) {
	if output == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	file, err := os.Create(output)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return file, file.Close, nil
}
