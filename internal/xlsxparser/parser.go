// =============================================================================
// BoQ Price Leveling - XLSX Workbook Parser
// =============================================================================
//
// This module reads a bidder's workbook into plain sheets: a header row and
// the data rows below it. Cells are read as raw values so number formats
// ("$1,250.00") do not leak into the data.
//
// WORKBOOK LAYOUT (typical bid):
//
//   | Item  | Description        | Unit | Qty  | Rate  | Amount  |
//   |-------|--------------------|------|------|-------|---------|
//   | 1     | Substructure       |      |      |       |         |
//   | 1.1   | Excavation         | m3   | 120  | 25.00 | 3000.00 |
//   |       | Section 1 Subtotal |      |      |       | 3000.00 |
//
// Title blocks above the header are skipped with the header row setting.
// Sheets whose name starts with "_" are treated as hidden helpers and are
// not returned.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/boq-price-leveling/internal/types"
)

// Workbook is a parsed bidder workbook.
type Workbook struct {
	// Path is the source file.
	Path string

	// Sheets are in workbook order.
	Sheets []types.Sheet
}

// SheetNames lists the sheets in workbook order.
func (w *Workbook) SheetNames() []string {
	names := make([]string, len(w.Sheets))
	for i, s := range w.Sheets {
		names[i] = s.Name
	}
	return names
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads every visible sheet of an XLSX workbook.
//
// PARAMETERS:
//   - path: The path to the workbook.
//   - headerRow: The 1-based header row, applied to every sheet. Values
//     below 1 mean row 1.
//
// RETURNS:
//   - The parsed workbook.
//   - An error if the file cannot be opened or a sheet cannot be read.
func Parse(path string, headerRow int) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	wb := &Workbook{Path: path}

	for _, name := range f.GetSheetList() {
		if strings.HasPrefix(name, "_") {
			continue
		}

		sheet, err := ReadSheet(f, name, headerRow)
		if err != nil {
			return nil, fmt.Errorf("error parsing sheet '%s': %w", name, err)
		}
		wb.Sheets = append(wb.Sheets, sheet)
	}

	if len(wb.Sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}

	return wb, nil
}

// ReadSheet reads one sheet of an open workbook.
//
// Rows above headerRow are dropped. A sheet shorter than the header row
// yields no headers and no rows rather than an error, so an empty tab does
// not fail the whole workbook.
func ReadSheet(f *excelize.File, name string, headerRow int) (types.Sheet, error) {
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return types.Sheet{}, fmt.Errorf("failed to read rows: %w", err)
	}

	if headerRow < 1 {
		headerRow = 1
	}

	sheet := types.Sheet{Name: name}
	if len(rows) < headerRow {
		return sheet, nil
	}

	sheet.Headers = make([]string, len(rows[headerRow-1]))
	for i, h := range rows[headerRow-1] {
		sheet.Headers[i] = strings.TrimSpace(h)
	}

	data := rows[headerRow:]
	sheet.Rows = make([][]any, len(data))
	for r, raw := range data {
		row := make([]any, len(raw))
		for c, cell := range raw {
			if cell == "" {
				row[c] = nil
				continue
			}
			row[c] = cell
		}
		sheet.Rows[r] = row
	}

	return sheet, nil
}
