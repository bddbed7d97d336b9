// =============================================================================
// BoQ Price Leveling - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// (like 'analyze', 'classify') are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (leveler)
//   ├── analyzeCmd (leveler analyze)
//   ├── classifyCmd (leveler classify)
//   └── versionCmd (leveler version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading the project configuration for the commands that need it
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/boq-price-leveling/internal/config"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the project configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "leveler",
	Short: "BoQ Price Leveling - Compare bidder pricing on a Bill of Quantities",

	Long: `BoQ Price Leveling reads the priced Bill of Quantities returned by each
bidder, aligns them row by row and produces a leveled comparison.

Key Features:
  - Bidder workbooks (.xlsx) and CSV exports side by side
  - Section hierarchy from item codes, with subtotals rolled up
  - Baseline rates by average, average-minus-extremes or median
  - Deviation bands against configurable thresholds
  - Styled comparison workbook with analysis and summary sheets

Example Usage:
  leveler analyze                        # Level the bids in project.yaml
  leveler analyze --config ./clinic.yaml # Use another project file
  leveler analyze --method median        # Override the baseline method
  leveler classify 1.1 A1 "01 02"        # Show how item codes are classified`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"project.yaml",
		"Path to the project configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadProjectConfig loads the file named by --config.
func loadProjectConfig() (*config.ProjectConfig, error) {
	cfg, err := config.LoadProjectConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load project config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the stderr logger. --verbose wins over the configured
// level.
func newLogger(level string) *slog.Logger {
	lvl := parseLevel(level)
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
