// =============================================================================
// BoQ Price Leveling - Workbook Writer
// =============================================================================
//
// This module writes the price leveling workbook. It is the export side of
// the engine: it takes the analyzed line items and the insights and lays
// them out for a reviewer.
//
// WORKBOOK STRUCTURE:
//
//   Comparison   One row per line item. Shared code/description/unit and
//                quantity, then per-bidder quantities, rates and totals.
//                Rows are styled by hierarchy level and subtotal flag;
//                bidder rate and total cells are filled by deviation band.
//                Bidder totals that equal quantity x rate are written as
//                formulas so the sheet stays live when a rate is edited.
//
//   Analysis     The calculated rate/total per item, their deviations from
//                the baseline and the resulting bands.
//
//   Summary      Project facts, the bidder ranking and the insight lines.
//
// CUSTOMIZATION:
//   - Rename sheets or turn formulas off via Options
//   - Change colours and fonts per level in hierarchy.Formatting
//
// =============================================================================

package xlsxwriter

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/boq-price-leveling/internal/statistics"
	"github.com/ginjaninja78/boq-price-leveling/internal/types"
)

// Number formats.
const (
	RateFormat     = "$#,##0.00"
	TotalFormat    = "$#,##0"
	QuantityFormat = "#,##0.00"
	PercentFormat  = "0.0"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options controls the workbook layout.
type Options struct {
	// Project is shown on the Summary sheet.
	Project string

	// Sheet names.
	// Default: "Comparison", "Analysis", "Summary"
	ComparisonSheet string
	AnalysisSheet   string
	SummarySheet    string

	// Formulas writes bidder totals as quantity x rate formulas where the
	// stored total matches. When false every total is a literal value.
	// Default: true
	Formulas bool

	// Config supplies the display flags and thresholds.
	Config types.AnalysisConfig
}

// DefaultOptions returns the default workbook options.
func DefaultOptions() Options {
	return Options{
		Project:         "project",
		ComparisonSheet: "Comparison",
		AnalysisSheet:   "Analysis",
		SummarySheet:    "Summary",
		Formulas:        true,
		Config:          types.DefaultAnalysisConfig(),
	}
}

// =============================================================================
// WORKBOOK GENERATION
// =============================================================================

// Write builds the workbook and saves it to path.
//
// PARAMETERS:
//   - path: Destination .xlsx path. Parent directories must exist.
//   - analyses: Output of statistics.Analyze.
//   - insights: Output of statistics.Summarize.
//   - opts: Layout options.
//
// RETURNS:
//   - An error if building or saving fails.
func Write(path string, analyses []statistics.ItemAnalysis, insights statistics.Insights, opts Options) error {
	f, err := Build(analyses, insights, opts)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

// Build lays out the three sheets in a new in-memory workbook. The caller
// owns the returned file and must Close it.
func Build(analyses []statistics.ItemAnalysis, insights statistics.Insights, opts Options) (*excelize.File, error) {
	f := excelize.NewFile()
	w := &writer{f: f, opts: opts, styles: make(map[styleKey]int)}

	if err := f.SetSheetName(f.GetSheetName(0), opts.ComparisonSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet %q: %w", opts.ComparisonSheet, err)
	}
	for _, name := range []string{opts.AnalysisSheet, opts.SummarySheet} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to add sheet %q: %w", name, err)
		}
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{opts.ComparisonSheet, func() error { return w.comparison(analyses) }},
		{opts.AnalysisSheet, func() error { return w.analysis(analyses) }},
		{opts.SummarySheet, func() error { return w.summary(insights) }},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write sheet %q: %w", step.name, err)
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

// writer carries the file and the style cache through the sheet builders.
type writer struct {
	f      *excelize.File
	opts   Options
	styles map[styleKey]int
}

// round rounds v to places decimals for storage in a cell.
func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// matches reports whether total equals quantity x rate to the cent.
func matches(quantity, rate, total float64) bool {
	product := decimal.NewFromFloat(quantity).Mul(decimal.NewFromFloat(rate)).Round(2)
	return product.Equal(decimal.NewFromFloat(total).Round(2))
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func (w *writer) header(sheet string, row int, headers []string) error {
	values := make([]any, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := w.f.SetSheetRow(sheet, cellName(1, row), &values); err != nil {
		return err
	}
	style, err := w.style(styleKey{header: true})
	if err != nil {
		return err
	}
	return w.f.SetCellStyle(sheet, cellName(1, row), cellName(len(headers), row), style)
}
