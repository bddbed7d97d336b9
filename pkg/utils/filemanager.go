// =============================================================================
// BoQ Price Leveling - Run Files
// =============================================================================
//
// Everything a leveling run writes besides the workbook itself:
//   - the output directory
//   - the workbook file name, expanded from the configured format
//   - the error log (preflight findings and load failures)
//   - the run summary
//
// Both logs are plain text and land in the output directory next to the
// workbook. The error log is only written when there is something in it.
//
// =============================================================================

package utils

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	stampLayout   = "20060102_150405"
	displayLayout = "2006-01-02 15:04:05"
	heavyRule     = "================================================================================"
	lightRule     = "--------------------------------------------------------------------------------"
)

// EnsureDirectories runs MkdirAll on every non-empty path.
func EnsureDirectories(dirs ...string) error {
	for _, d := range dirs {
		if d == "" {
			continue
		}
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", d, err)
		}
	}
	return nil
}

// FileExists reports whether anything exists at path.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}

// =============================================================================
// NAMING
// =============================================================================

// NewRunID returns a fresh identifier for a leveling run.
func NewRunID() string {
	return uuid.New().String()
}

// GenerateOutputFileName expands an output_file_format value.
//
// Built-in placeholders are {uuid}, {timestamp} (YYYYMMDD_HHMMSS), {date}
// and {time}; every key of params is available as {key}. Param values have
// path separators and other characters Windows rejects replaced by "_", so
// "{project}" can never escape the output directory. The result always ends
// in .xlsx.
//
//	GenerateOutputFileName("{project}_price_leveling_{timestamp}.xlsx", map[string]string{"project": "clinic"})
//	// clinic_price_leveling_20260301_143022.xlsx
func GenerateOutputFileName(format string, params map[string]string) string {
	now := time.Now()
	pairs := []string{
		"{uuid}", uuid.New().String(),
		"{timestamp}", now.Format(stampLayout),
		"{date}", now.Format("20060102"),
		"{time}", now.Format("150405"),
	}
	for k, v := range params {
		pairs = append(pairs, "{"+k+"}", sanitizeFileName(v))
	}

	name := strings.NewReplacer(pairs...).Replace(format)
	if !strings.EqualFold(filepath.Ext(name), ".xlsx") {
		name += ".xlsx"
	}
	return name
}

func sanitizeFileName(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(`/\:*?"<>|`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
}

// =============================================================================
// LOG FILES
// =============================================================================

// LogEntry is one line item of the error log: a preflight finding or a
// bidder file that failed to load.
type LogEntry struct {
	Time    time.Time
	Bidder  string
	File    string
	Kind    string
	Message string
	Row     int
	Field   string
	Value   string
}

// writeLog creates dir/name and hands body a buffered writer. The closing
// rule and footer are appended after body returns.
func writeLog(dir, name, footer string, body func(w *bufio.Writer)) (string, error) {
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	body(w)
	fmt.Fprintf(w, "%s\n%s\n", heavyRule, footer)

	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return path, nil
}

// field writes an indented "Label: value" line, padded so values align.
func field(w *bufio.Writer, width int, label string, value any) {
	fmt.Fprintf(w, "  %-*s %v\n", width, label+":", value)
}

// WriteErrorLog writes entries to error_log_<timestamp>.txt in dir and
// returns its path. Nothing is written, and "" returned, for no entries.
func WriteErrorLog(entries []LogEntry, dir string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	now := time.Now()
	return writeLog(dir, "error_log_"+now.Format(stampLayout)+".txt", "End of Error Log", func(w *bufio.Writer) {
		fmt.Fprintf(w, "BoQ Price Leveling - Error Log\nGenerated: %s\nTotal Entries: %d\n%s\n\n",
			now.Format(displayLayout), len(entries), heavyRule)

		const width = 11
		for i, e := range entries {
			fmt.Fprintf(w, "Entry #%d\n", i+1)
			if !e.Time.IsZero() {
				field(w, width, "Timestamp", e.Time.Format(displayLayout))
			}
			if e.Bidder != "" {
				field(w, width, "Bidder", e.Bidder)
			}
			if e.File != "" {
				field(w, width, "File", e.File)
			}
			field(w, width, "Type", e.Kind)
			field(w, width, "Message", e.Message)
			if e.Row > 0 {
				field(w, width, "Row Number", e.Row)
			}
			if e.Field != "" {
				field(w, width, "Field", e.Field)
			}
			if e.Value != "" {
				field(w, width, "Value", e.Value)
			}
			w.WriteString("\n")
		}
	})
}

// RunSummary is what the summary log records about one run.
type RunSummary struct {
	RunID      string
	Project    string
	StartTime  time.Time
	EndTime    time.Time
	Method     string
	OutputFile string

	Bidders []BidderSummary

	LineItems       int
	Subtotals       int
	Sections        int
	NormalizedCells int
	Warnings        int
	Errors          int
}

// BidderSummary describes one loaded bidder.
type BidderSummary struct {
	Name  string
	File  string
	Sheet string
	Rows  int
}

// WriteSummaryLog writes leveling_summary_<start>.txt in dir and returns
// its path. The file name uses StartTime so repeated runs do not collide.
func WriteSummaryLog(s RunSummary, dir string) (string, error) {
	name := "leveling_summary_" + s.StartTime.Format(stampLayout) + ".txt"
	return writeLog(dir, name, "End of Summary", func(w *bufio.Writer) {
		fmt.Fprintf(w, "BoQ Price Leveling - Run Summary\n%s\n\n", heavyRule)

		w.WriteString("Run:\n")
		for _, kv := range [][2]any{
			{"Run ID", s.RunID},
			{"Project", s.Project},
			{"Started", s.StartTime.Format(displayLayout)},
			{"Finished", s.EndTime.Format(displayLayout)},
			{"Duration", s.EndTime.Sub(s.StartTime)},
			{"Method", s.Method},
			{"Output", s.OutputFile},
		} {
			field(w, 15, kv[0].(string), kv[1])
		}

		w.WriteString("\nCounts:\n")
		for _, kv := range [][2]any{
			{"Bidders", len(s.Bidders)},
			{"Line Items", s.LineItems},
			{"Subtotals", s.Subtotals},
			{"Sections", s.Sections},
			{"Normalized Cells", s.NormalizedCells},
			{"Warnings", s.Warnings},
			{"Errors", s.Errors},
		} {
			field(w, 17, kv[0].(string), kv[1])
		}
		w.WriteString("\n")

		if len(s.Bidders) == 0 {
			return
		}
		fmt.Fprintf(w, "Bidders:\n%s\n", lightRule)
		for _, b := range s.Bidders {
			field(w, 6, "Name", b.Name)
			field(w, 6, "File", b.File)
			field(w, 6, "Sheet", b.Sheet)
			field(w, 6, "Rows", b.Rows)
			w.WriteString("\n")
		}
	})
}
