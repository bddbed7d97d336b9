// =============================================================================
// BoQ Price Leveling - CSV Parser Module
// =============================================================================
//
// This module reads a bidder's CSV export into the same Sheet shape the
// workbook reader produces, so the consolidation step does not care where a
// bid came from.
//
// FEATURES:
//   - Configurable delimiter (comma, semicolon, pipe, tab, ...)
//   - Header row anywhere in the file; rows above it are ignored
//   - Ragged rows are kept as-is; missing cells read as empty downstream
//   - Rows of empty cells (",,,") are kept so row positions line up across
//     bidders; fully blank lines are dropped by encoding/csv
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/boq-price-leveling/internal/config"
	"github.com/ginjaninja78/boq-price-leveling/internal/types"
)

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV file into a Sheet named after the file.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: The bidder's CSV settings.
//   - headerRow: The 1-based header row. Values below 1 mean row 1.
//
// RETURNS:
//   - The sheet with trimmed headers and raw string cells.
//   - An error if the file cannot be read or has no header row.
func Parse(filePath string, settings config.CSVSettings, headerRow int) (*types.Sheet, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	name := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	return Read(bufio.NewReader(file), name, settings, headerRow)
}

// Read parses CSV from r. It is Parse without the file handling.
func Read(r io.Reader, sheetName string, settings config.CSVSettings, headerRow int) (*types.Sheet, error) {
	csvReader := csv.NewReader(r)
	configureReader(csvReader, settings)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	if len(allRows) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	if headerRow < 1 {
		headerRow = 1
	}
	if headerRow > len(allRows) {
		return nil, fmt.Errorf("header row %d is past the end of the file (%d rows)", headerRow, len(allRows))
	}

	sheet := &types.Sheet{
		Name:    sheetName,
		Headers: cleanHeaders(allRows[headerRow-1]),
		Rows:    make([][]any, 0, len(allRows)-headerRow),
	}

	for _, raw := range allRows[headerRow:] {
		row := make([]any, len(raw))
		for i, cell := range raw {
			row[i] = cell
		}
		sheet.Rows = append(sheet.Rows, row)
	}

	return sheet, nil
}

// configureReader applies the delimiter and the lenient parsing options.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	reader.Comma = Delimiter(settings.Delimiter)

	// Bid exports are rarely rectangular.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// Delimiter resolves a configured delimiter name to its rune.
func Delimiter(value string) rune {
	switch value {
	case "\\t", "\t", "tab", "TAB":
		return '\t'
	case "|", "pipe", "PIPE":
		return '|'
	case ";", "semicolon", "SEMICOLON":
		return ';'
	case "":
		return ','
	}
	return []rune(value)[0]
}

// cleanHeaders trims headers and names blank ones by position.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))

	for i, header := range headers {
		header = strings.TrimSpace(strings.TrimPrefix(header, "\uFEFF"))
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}

	return cleaned
}
