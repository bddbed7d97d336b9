// =============================================================================
// BoQ Price Leveling - Analyze Command
// =============================================================================
//
// This file defines the 'analyze' command, the main command of the CLI. It
// runs the leveling pipeline for the project file and prints the result.
//
// COMMAND USAGE:
//   leveler analyze [flags]
//
// FLAGS:
//   --dry-run   : Run the analysis without writing any files
//   --method    : Override analysis.method (average, average-minus-extremes or median)
//   --bidders   : Override analysis.selected_bidders
//   --no-table  : Skip the comparison table, print insights and summary only
//
// OUTPUT:
//   1. The comparison table (one row per line item)
//   2. Insight lines
//   3. A run summary with the written file paths
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/boq-price-leveling/internal/leveling"
	"github.com/ginjaninja78/boq-price-leveling/internal/report"
	"github.com/ginjaninja78/boq-price-leveling/internal/validation"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var dryRun bool

var method string

var selectedBidders []string

var noTable bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Level the bidder pricing of a project",
	Long: `The analyze command loads every bidder file listed in the project
configuration, aligns the rows, rolls up the section subtotals and compares
each bidder against the baseline.

On success:
  - The comparison workbook is written to the output directory
  - A run summary is written next to it
  - The comparison table and insights are printed

On error:
  - Preflight findings are printed and written to an error log
  - No workbook is written`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Run the analysis without writing any files",
	)

	analyzeCmd.Flags().StringVar(
		&method,
		"method",
		"",
		"Baseline method: average, average-minus-extremes or median (default from config)",
	)

	analyzeCmd.Flags().StringSliceVar(
		&selectedBidders,
		"bidders",
		nil,
		"Comma-separated bidder names to include in the analysis (default all)",
	)

	analyzeCmd.Flags().BoolVar(
		&noTable,
		"no-table",
		false,
		"Do not print the comparison table",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runAnalyze(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadProjectConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)

	l, err := leveling.New(cfg, leveling.Options{
		DryRun:          dryRun,
		Method:          method,
		SelectedBidders: selectedBidders,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "=== BoQ Price Leveling: %s ===\n", cfg.Project)

	result := l.Run(ctx)
	if result.Error != nil {
		if result.Validation != nil && len(result.Validation.Errors) > 0 {
			fmt.Fprintln(out, "\nPreflight findings:")
			fmt.Fprintln(out, validation.FormatErrors(result.Validation.Errors))
		}
		if result.ErrorLog != "" {
			fmt.Fprintf(out, "Error log: %s\n", result.ErrorLog)
		}
		return result.Error
	}

	if !noTable {
		fmt.Fprintln(out)
		if err := report.RenderTable(out, result.Analyses, result.AnalysisConfig); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}
	}

	fmt.Fprintln(out, "\nInsights:")
	if err := report.RenderInsights(out, result.Insights); err != nil {
		return fmt.Errorf("failed to render insights: %w", err)
	}

	printSummary(out, result)
	return nil
}

// printSummary prints the run statistics and written files.
func printSummary(out io.Writer, result leveling.Result) {
	s := result.Stats
	fmt.Fprintln(out, "\n=== Leveling Complete ===")
	fmt.Fprintf(out, "Bidders:          %d\n", s.BiddersLoaded)
	fmt.Fprintf(out, "Rows read:        %d\n", s.RowsRead)
	fmt.Fprintf(out, "Line items:       %d\n", s.LineItems)
	fmt.Fprintf(out, "Subtotals:        %d\n", s.Subtotals)
	fmt.Fprintf(out, "Normalized cells: %d\n", s.NormalizedCells)
	fmt.Fprintf(out, "Warnings:         %d\n", s.Warnings)
	fmt.Fprintf(out, "Time elapsed:     %s\n", s.ProcessingTime)

	if result.OutputFile == "" {
		fmt.Fprintln(out, "\nDry run: no files written.")
		return
	}
	fmt.Fprintf(out, "\nWorkbook: %s\n", filepath.Clean(result.OutputFile))
	if result.SummaryLog != "" {
		fmt.Fprintf(out, "Summary:  %s\n", result.SummaryLog)
	}
	if result.ErrorLog != "" {
		fmt.Fprintf(out, "Warnings: %s\n", result.ErrorLog)
	}
}
