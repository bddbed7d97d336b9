// =============================================================================
// BoQ Price Leveling - Leveling Pipeline
// =============================================================================
//
// This module orchestrates a leveling run for one project, from the bidder
// files to the comparison workbook.
//
// PIPELINE:
//   1. Load every bidder file (concurrently) and select sheet and mapping
//   2. Normalize the mapped text columns
//   3. Preflight: stop on errors, log warnings
//   4. Consolidate the bidders into ordered line items
//   5. Classify the hierarchy and roll up subtotals
//   6. Analyze deviations and summarize insights
//   7. Write the workbook, the error log and the run summary
//
// Steps 4 to 6 are pure and never fail. Failures come from reading files,
// from preflight errors and from writing output.
//
// =============================================================================

package leveling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/ginjaninja78/boq-price-leveling/internal/aggregation"
	"github.com/ginjaninja78/boq-price-leveling/internal/config"
	"github.com/ginjaninja78/boq-price-leveling/internal/consolidation"
	"github.com/ginjaninja78/boq-price-leveling/internal/hierarchy"
	"github.com/ginjaninja78/boq-price-leveling/internal/normalize"
	"github.com/ginjaninja78/boq-price-leveling/internal/statistics"
	"github.com/ginjaninja78/boq-price-leveling/internal/types"
	"github.com/ginjaninja78/boq-price-leveling/internal/validation"
	"github.com/ginjaninja78/boq-price-leveling/internal/xlsxwriter"
	"github.com/ginjaninja78/boq-price-leveling/pkg/utils"
)

// ErrPreflight is returned when preflight finds error-severity problems.
var ErrPreflight = errors.New("preflight failed")

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of a leveling run.
type Result struct {
	// RunID identifies the run in the summary log.
	RunID string

	// OutputFile is the written workbook. Empty on failure or dry run.
	OutputFile string

	// ErrorLog and SummaryLog are the written log files, if any.
	ErrorLog   string
	SummaryLog string

	// Success indicates whether the run completed.
	Success bool

	// Error is the failure, nil on success.
	Error error

	// Bidders are the loaded and normalized bidders in configured order.
	Bidders []types.Bidder

	// Items are the classified and aggregated line items.
	Items []types.LineItem

	Analyses   []statistics.ItemAnalysis
	Insights   statistics.Insights
	Validation *validation.ValidationResult

	// AnalysisConfig is the configuration the statistics ran with.
	AnalysisConfig types.AnalysisConfig

	Stats Stats
}

// Stats contains statistics about the run.
type Stats struct {
	BiddersLoaded   int
	LoadFailures    int
	RowsRead        int
	NormalizedCells int
	LineItems       int
	Subtotals       int
	Sections        int
	Warnings        int
	Errors          int
	ProcessingTime  time.Duration
}

// =============================================================================
// LEVELER STRUCTURE
// =============================================================================

// Options adjust a run without editing the project file.
type Options struct {
	// DryRun runs the whole pipeline but writes no files.
	DryRun bool

	// Method overrides analysis.method when set.
	Method string

	// SelectedBidders overrides analysis.selected_bidders when non-empty.
	SelectedBidders []string

	// Logger receives progress. Nil discards.
	Logger *slog.Logger
}

// Leveler runs the pipeline for one project configuration.
type Leveler struct {
	cfg        *config.ProjectConfig
	analysis   types.AnalysisConfig
	classifier *hierarchy.Classifier
	normalizer *normalize.Normalizer
	dryRun     bool
	logger     *slog.Logger
}

// New prepares a Leveler.
//
// PARAMETERS:
//   - cfg: A loaded project configuration.
//   - opts: Run options.
//
// RETURNS:
//   - The Leveler.
//   - An error if the hierarchy patterns or normalization rules do not
//     compile.
func New(cfg *config.ProjectConfig, opts Options) (*Leveler, error) {
	classifier, err := cfg.Hierarchy.Classifier()
	if err != nil {
		return nil, fmt.Errorf("failed to build classifier: %w", err)
	}
	normalizer, err := normalize.New(cfg.Normalization)
	if err != nil {
		return nil, fmt.Errorf("failed to build normalizer: %w", err)
	}

	analysis := cfg.AnalysisConfig()
	if opts.Method != "" {
		analysis.Method = types.CalculationMethod(opts.Method)
	}
	if len(opts.SelectedBidders) > 0 {
		analysis.SelectedBidders = append([]string(nil), opts.SelectedBidders...)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Leveler{
		cfg:        cfg,
		analysis:   analysis,
		classifier: classifier,
		normalizer: normalizer,
		dryRun:     opts.DryRun,
		logger:     logger.With(slog.String("component", "leveling"), slog.String("project", cfg.Project)),
	}, nil
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline.
//
// RETURNS:
//   - A Result. On failure Result.Error is set and the fields reached so
//     far are filled in; an error log is still written unless dry-run.
func (l *Leveler) Run(ctx context.Context) Result {
	start := time.Now()
	result := Result{RunID: utils.NewRunID(), AnalysisConfig: l.analysis}
	var logEntries []utils.LogEntry

	fail := func(err error) Result {
		result.Error = err
		result.Stats.ProcessingTime = time.Since(start)
		l.logger.Error("leveling failed", slog.Any("error", err))
		result.ErrorLog = l.writeErrorLog(logEntries)
		return result
	}

	// =========================================================================
	// STEP 1: LOAD BIDDERS
	// =========================================================================

	l.logger.Info("loading bidders", slog.Int("count", len(l.cfg.Bidders)))

	bidders, failures := loadBidders(ctx, l.cfg.Bidders)
	result.Stats.LoadFailures = len(failures)
	if len(failures) > 0 {
		errs := make([]error, len(failures))
		for i, f := range failures {
			errs[i] = f
			logEntries = append(logEntries, utils.LogEntry{
				Time:    time.Now(),
				Bidder:  f.Bidder,
				File:    f.File,
				Kind:    "load",
				Message: f.Err.Error(),
			})
		}
		return fail(fmt.Errorf("failed to load %d bidder(s): %w", len(failures), errors.Join(errs...)))
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	result.Stats.BiddersLoaded = len(bidders)
	for _, b := range bidders {
		if sheet, ok := b.Sheet(); ok {
			result.Stats.RowsRead += len(sheet.Rows)
			l.logger.Debug("bidder loaded",
				slog.String("bidder", b.Name),
				slog.String("sheet", sheet.Name),
				slog.Int("rows", len(sheet.Rows)))
		}
	}

	// =========================================================================
	// STEP 2: NORMALIZE
	// =========================================================================

	for i := range bidders {
		var changed int
		bidders[i], changed = l.normalizer.Bidder(bidders[i])
		result.Stats.NormalizedCells += changed
	}
	if result.Stats.NormalizedCells > 0 {
		l.logger.Debug("normalized text cells", slog.Int("cells", result.Stats.NormalizedCells))
	}
	result.Bidders = bidders

	// =========================================================================
	// STEP 3: PREFLIGHT
	// =========================================================================

	pre := validation.Preflight(bidders, l.analysis)
	result.Validation = pre
	result.Stats.Warnings = pre.WarningCount
	result.Stats.Errors = pre.ErrorCount

	for _, finding := range pre.Errors {
		level := slog.LevelWarn
		if finding.Severity == validation.SeverityError {
			level = slog.LevelError
		}
		l.logger.Log(ctx, level, finding.Message,
			slog.String("rule", finding.Rule),
			slog.String("bidder", finding.Bidder),
			slog.String("field", finding.Field),
			slog.Int("row", finding.Row),
			slog.String("value", finding.Value))
		logEntries = append(logEntries, utils.LogEntry{
			Time:    time.Now(),
			Bidder:  finding.Bidder,
			Kind:    finding.Severity + ": " + finding.Rule,
			Message: finding.Message,
			Row:     finding.Row,
			Field:   finding.Field,
			Value:   finding.Value,
		})
	}
	if !pre.IsValid {
		return fail(fmt.Errorf("%w with %d error(s)", ErrPreflight, pre.ErrorCount))
	}

	// =========================================================================
	// STEP 4-6: CONSOLIDATE, AGGREGATE, ANALYZE
	// =========================================================================

	data := consolidation.Consolidate(bidders)
	items, _ := aggregation.New(l.classifier).Aggregate(data.Items, data.Bidders)

	result.Items = items
	result.Analyses = statistics.Analyze(items, data.Bidders, l.analysis)
	result.Insights = statistics.Summarize(items, data.Bidders, l.analysis)

	result.Stats.LineItems = len(items)
	result.Stats.Sections = result.Insights.SectionCount
	for _, item := range items {
		if item.IsSubtotal {
			result.Stats.Subtotals++
		}
	}

	l.logger.Info("analysis complete",
		slog.Int("items", result.Stats.LineItems),
		slog.Int("subtotals", result.Stats.Subtotals),
		slog.String("method", string(l.analysis.Method)))

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	// =========================================================================
	// STEP 7: WRITE OUTPUT
	// =========================================================================

	if l.dryRun {
		l.logger.Info("dry run: no files written")
	} else {
		path, err := l.writeWorkbook(result)
		if err != nil {
			return fail(err)
		}
		result.OutputFile = path
		l.logger.Info("wrote workbook", slog.String("path", path))

		result.ErrorLog = l.writeErrorLog(logEntries)
	}

	result.Success = true
	result.Stats.ProcessingTime = time.Since(start)

	if !l.dryRun {
		result.SummaryLog = l.writeSummaryLog(result, start)
	}

	return result
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

func (l *Leveler) writeWorkbook(result Result) (string, error) {
	if err := utils.EnsureDirectories(l.cfg.OutputDir); err != nil {
		return "", err
	}

	name := utils.GenerateOutputFileName(l.cfg.OutputFileFormat, map[string]string{"project": l.cfg.Project})
	path := filepath.Join(l.cfg.OutputDir, name)

	opts := xlsxwriter.DefaultOptions()
	opts.Project = l.cfg.Project
	opts.Config = l.analysis

	if err := xlsxwriter.Write(path, result.Analyses, result.Insights, opts); err != nil {
		return "", fmt.Errorf("failed to write output: %w", err)
	}
	return path, nil
}

// writeErrorLog writes entries to the output directory. Log failures are
// reported but never fail the run.
func (l *Leveler) writeErrorLog(entries []utils.LogEntry) string {
	if l.dryRun || len(entries) == 0 {
		return ""
	}
	if err := utils.EnsureDirectories(l.cfg.OutputDir); err != nil {
		l.logger.Warn("failed to create output directory", slog.Any("error", err))
		return ""
	}
	path, err := utils.WriteErrorLog(entries, l.cfg.OutputDir)
	if err != nil {
		l.logger.Warn("failed to write error log", slog.Any("error", err))
		return ""
	}
	return path
}

func (l *Leveler) writeSummaryLog(result Result, start time.Time) string {
	summary := utils.RunSummary{
		RunID:           result.RunID,
		Project:         l.cfg.Project,
		StartTime:       start,
		EndTime:         time.Now(),
		Method:          string(l.analysis.Method),
		OutputFile:      result.OutputFile,
		LineItems:       result.Stats.LineItems,
		Subtotals:       result.Stats.Subtotals,
		Sections:        result.Stats.Sections,
		NormalizedCells: result.Stats.NormalizedCells,
		Warnings:        result.Stats.Warnings,
		Errors:          result.Stats.Errors,
	}
	for _, b := range result.Bidders {
		bs := utils.BidderSummary{Name: b.Name, File: b.FileName, Sheet: b.SelectedSheet}
		if sheet, ok := b.Sheet(); ok {
			bs.Rows = len(sheet.Rows)
		}
		summary.Bidders = append(summary.Bidders, bs)
	}

	path, err := utils.WriteSummaryLog(summary, l.cfg.OutputDir)
	if err != nil {
		l.logger.Warn("failed to write summary log", slog.Any("error", err))
		return ""
	}
	return path
}
