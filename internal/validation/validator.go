// =============================================================================
// BoQ Price Leveling - Preflight Validation
// =============================================================================
//
// This module checks the loaded bids before the engine runs. The engine
// itself never fails on ragged input: unreadable cells become 0 or "".
// Preflight makes those silent defaults visible so a user can fix a mapping
// instead of reading a comparison full of zeros.
//
// CHECKS:
//   Errors (the run should stop):
//   - A bidder has no selected sheet, or the named sheet does not exist
//   - A bidder has no column mapping
//   - Two bidders share a name
//   - The calculation method is unknown
//   - Deviation thresholds are negative or not yellow < orange < red
//
//   Warnings (the run can continue):
//   - A mapped column lies past the sheet's last header
//   - A selected sheet has no data rows
//   - A numeric column holds text that will read as 0
//   - A bidder's sheet is longer than the first bidder's, so trailing rows
//     have no shared code, description or unit
//   - The analysis selects a bidder that was not loaded
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/boq-price-leveling/internal/consolidation"
	"github.com/ginjaninja78/boq-price-leveling/internal/statistics"
	"github.com/ginjaninja78/boq-price-leveling/internal/types"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// maxCellFindings caps per-column cell warnings so one bad column does not
// bury everything else.
const maxCellFindings = 5

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError is a single preflight finding.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// Bidder names the bidder, if the finding belongs to one.
	Bidder string

	// Field is the mapping field concerned, e.g. "rate".
	Field string

	// Row is the 1-based data row, or 0 when not row-specific.
	Row int

	// Value is the offending cell or setting, if any.
	Value string

	// Rule is a short machine-readable rule name.
	Rule string

	// Message is a human-readable explanation.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]", strings.ToUpper(e.Severity))
	if e.Bidder != "" {
		fmt.Fprintf(&b, " Bidder '%s',", e.Bidder)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " Field '%s',", e.Field)
	}
	if e.Row > 0 {
		fmt.Fprintf(&b, " Row %d,", e.Row)
	}
	msg := strings.TrimSuffix(b.String(), ",") + ": " + e.Message
	if e.Value != "" {
		msg += fmt.Sprintf(" (value: '%s')", e.Value)
	}
	return msg
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult collects the findings of a preflight run.
type ValidationResult struct {
	// IsValid is true if there are no error-severity findings.
	IsValid bool

	// Errors contains all findings, warnings included, in check order.
	Errors []*ValidationError

	ErrorCount   int
	WarningCount int

	// BiddersChecked is the number of bidders inspected.
	BiddersChecked int
}

func (r *ValidationResult) add(e *ValidationError) {
	r.Errors = append(r.Errors, e)
	if e.Severity == SeverityError {
		r.ErrorCount++
		r.IsValid = false
	} else {
		r.WarningCount++
	}
}

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// Preflight checks the bidders and the analysis configuration.
//
// PARAMETERS:
//   - bidders: The loaded bidders, in presentation order.
//   - cfg: The analysis configuration that will be applied.
//
// RETURNS:
//   - The findings. IsValid is false when any finding is an error.
func Preflight(bidders []types.Bidder, cfg types.AnalysisConfig) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	checkConfig(result, bidders, cfg)

	seen := make(map[string]bool, len(bidders))
	firstRows := -1
	for i, b := range bidders {
		result.BiddersChecked++

		if seen[b.Name] {
			result.add(&ValidationError{
				Severity: SeverityError,
				Bidder:   b.Name,
				Rule:     "unique_bidder",
				Message:  "bidder name is used more than once",
			})
		}
		seen[b.Name] = true

		sheet, ok := b.Sheet()
		if !ok {
			result.add(&ValidationError{
				Severity: SeverityError,
				Bidder:   b.Name,
				Value:    b.SelectedSheet,
				Rule:     "sheet_selected",
				Message:  "no sheet selected or the selected sheet does not exist",
			})
			continue
		}

		if i == 0 {
			firstRows = len(sheet.Rows)
		} else if firstRows >= 0 && len(sheet.Rows) > firstRows {
			result.add(&ValidationError{
				Severity: SeverityWarning,
				Bidder:   b.Name,
				Rule:     "reference_rows",
				Value:    fmt.Sprintf("%d > %d", len(sheet.Rows), firstRows),
				Message:  "sheet has more rows than the first bidder's; trailing rows will have no code, description or unit",
			})
		}

		if len(sheet.Rows) == 0 {
			result.add(&ValidationError{
				Severity: SeverityWarning,
				Bidder:   b.Name,
				Value:    sheet.Name,
				Rule:     "has_rows",
				Message:  "selected sheet has no data rows",
			})
		}

		if b.Mapping == nil {
			result.add(&ValidationError{
				Severity: SeverityError,
				Bidder:   b.Name,
				Rule:     "mapping",
				Message:  "no column mapping",
			})
			continue
		}

		checkMapping(result, b.Name, sheet, *b.Mapping)
		checkNumericColumns(result, b.Name, sheet, *b.Mapping)
	}

	return result
}

func checkConfig(result *ValidationResult, bidders []types.Bidder, cfg types.AnalysisConfig) {
	if !cfg.Method.Valid() {
		result.add(&ValidationError{
			Severity: SeverityError,
			Value:    string(cfg.Method),
			Rule:     "method",
			Message:  "unknown calculation method",
		})
	}

	if err := statistics.ValidateThresholds(cfg.Thresholds); err != nil {
		result.add(&ValidationError{
			Severity: SeverityError,
			Rule:     "thresholds",
			Message:  err.Error(),
		})
	}

	loaded := make(map[string]bool, len(bidders))
	for _, b := range bidders {
		loaded[b.Name] = true
	}
	for _, name := range cfg.SelectedBidders {
		if !loaded[name] {
			result.add(&ValidationError{
				Severity: SeverityWarning,
				Bidder:   name,
				Rule:     "selected_bidder",
				Message:  "selected bidder was not loaded and is ignored",
			})
		}
	}
}

func checkMapping(result *ValidationResult, bidder string, sheet *types.Sheet, m types.ColumnMapping) {
	if len(sheet.Headers) == 0 {
		return
	}
	for _, field := range types.Fields {
		col := m.Column(field)
		if col >= len(sheet.Headers) {
			result.add(&ValidationError{
				Severity: SeverityWarning,
				Bidder:   bidder,
				Field:    field,
				Value:    fmt.Sprintf("column %d", col),
				Rule:     "column_range",
				Message:  fmt.Sprintf("mapped column is past the last header (%d columns); values will read as empty", len(sheet.Headers)),
			})
		}
	}
}

func checkNumericColumns(result *ValidationResult, bidder string, sheet *types.Sheet, m types.ColumnMapping) {
	for _, field := range []string{types.FieldQuantity, types.FieldRate, types.FieldTotal} {
		col := m.Column(field)
		found := 0
		for r, row := range sheet.Rows {
			text := consolidation.CellText(row, col)
			if text == "" {
				continue
			}
			if _, isString := row[col].(string); !isString || consolidation.IsNumeric(text) {
				continue
			}
			found++
			if found > maxCellFindings {
				continue
			}
			result.add(&ValidationError{
				Severity: SeverityWarning,
				Bidder:   bidder,
				Field:    field,
				Row:      r + 1,
				Value:    text,
				Rule:     "numeric",
				Message:  "value is not numeric and will be treated as 0",
			})
		}
		if found > maxCellFindings {
			result.add(&ValidationError{
				Severity: SeverityWarning,
				Bidder:   bidder,
				Field:    field,
				Rule:     "numeric",
				Message:  fmt.Sprintf("%d more non-numeric values not listed", found-maxCellFindings),
			})
		}
	}
}

// =============================================================================
// REPORTING
// =============================================================================

// FormatErrors renders findings one per line, numbered.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d finding(s):\n\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}
