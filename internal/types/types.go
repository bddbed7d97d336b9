// =============================================================================
// BoQ Price Leveling - Shared Types
// =============================================================================
//
// This package contains the domain types shared by the engine packages and
// the I/O collaborators around them. Keeping them here avoids import cycles
// between:
//   - consolidation
//   - aggregation
//   - statistics
//   - xlsxparser / csvparser / xlsxwriter / report
//
// =============================================================================

package types

import "sort"

// =============================================================================
// LINE ITEMS
// =============================================================================

// LineItem is one canonical row of the consolidated Bill of Quantities.
//
// The position of a LineItem inside its slice is significant: a subtotal's
// children are the contiguous predecessors of strictly greater depth.
type LineItem struct {
	// ID identifies the row, e.g. "item-12" for the 12th data row.
	ID string

	// ItemCode is the free-text outline code ("1", "A.2", "II.3", "").
	ItemCode string

	// Description is the free-text item description.
	Description string

	// Unit is the unit of measure ("m3", "kg", "LS").
	Unit string

	// Quantity is the shared quantity read from the first bidder's sheet.
	Quantity float64

	// HierarchyLevel is the outline depth, always >= 1.
	HierarchyLevel int

	// IsSubtotal marks rollup rows.
	IsSubtotal bool

	// ParentID is the ID of the subtotal that rolls this row up, if any.
	ParentID string

	// BaselineRate and BaselineTotal are the reference values deviations
	// are measured against. Zero means no baseline.
	BaselineRate  float64
	BaselineTotal float64

	// Per-bidder values keyed by bidder name.
	BidderQuantities map[string]float64
	BidderRates      map[string]float64
	BidderTotals     map[string]float64
}

// Clone returns a deep copy of the item so callers can rewrite the bidder
// maps without touching the original.
func (li LineItem) Clone() LineItem {
	out := li
	out.BidderQuantities = cloneMap(li.BidderQuantities)
	out.BidderRates = cloneMap(li.BidderRates)
	out.BidderTotals = cloneMap(li.BidderTotals)
	return out
}

// HasBaseline reports whether a nonzero baseline rate or total is present.
func (li LineItem) HasBaseline() bool {
	return li.BaselineRate != 0 || li.BaselineTotal != 0
}

func cloneMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// SortedKeys returns the keys of a bidder map in lexical order.
// It is used wherever no explicit bidder order is available.
func SortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ConsolidatedData is the output of consolidation: the ordered items plus
// the ordered bidder names every bidder map is keyed by.
type ConsolidatedData struct {
	Items   []LineItem
	Bidders []string
}

// =============================================================================
// SPREADSHEET INPUT
// =============================================================================

// ColumnMapping maps each BoQ field to a zero-based source column index.
type ColumnMapping struct {
	ItemCode    int `yaml:"item_code" validate:"gte=0"`
	Description int `yaml:"description" validate:"gte=0"`
	Unit        int `yaml:"unit" validate:"gte=0"`
	Quantity    int `yaml:"quantity" validate:"gte=0"`
	Rate        int `yaml:"rate" validate:"gte=0"`
	Total       int `yaml:"total" validate:"gte=0"`
}

// Field names used by mappings, normalization rules and validation messages.
const (
	FieldItemCode    = "item_code"
	FieldDescription = "description"
	FieldUnit        = "unit"
	FieldQuantity    = "quantity"
	FieldRate        = "rate"
	FieldTotal       = "total"
)

// Fields lists the mapping fields in display order.
var Fields = []string{FieldItemCode, FieldDescription, FieldUnit, FieldQuantity, FieldRate, FieldTotal}

// Column returns the column index mapped to field, or -1 for an unknown field.
func (m ColumnMapping) Column(field string) int {
	switch field {
	case FieldItemCode:
		return m.ItemCode
	case FieldDescription:
		return m.Description
	case FieldUnit:
		return m.Unit
	case FieldQuantity:
		return m.Quantity
	case FieldRate:
		return m.Rate
	case FieldTotal:
		return m.Total
	}
	return -1
}

// Sheet is one worksheet as handed over by the import collaborators.
// Rows hold data rows only; the header row lives in Headers. Cells may be
// strings, numbers or nil.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// Bidder is a vendor submission: its workbook sheets, the selected sheet and
// the column mapping for that sheet.
type Bidder struct {
	Name          string
	FileName      string
	Sheets        []Sheet
	SelectedSheet string
	Mapping       *ColumnMapping
}

// Sheet returns the bidder's selected sheet.
func (b Bidder) Sheet() (*Sheet, bool) {
	if b.SelectedSheet == "" {
		return nil, false
	}
	for i := range b.Sheets {
		if b.Sheets[i].Name == b.SelectedSheet {
			return &b.Sheets[i], true
		}
	}
	return nil, false
}

// =============================================================================
// ANALYSIS CONFIGURATION
// =============================================================================

// CalculationMethod selects the central-tendency statistic.
type CalculationMethod string

const (
	MethodAverage              CalculationMethod = "average"
	MethodAverageMinusExtremes CalculationMethod = "average-minus-extremes"
	MethodMedian               CalculationMethod = "median"
)

// Valid reports whether m is one of the supported methods.
func (m CalculationMethod) Valid() bool {
	switch m {
	case MethodAverage, MethodAverageMinusExtremes, MethodMedian:
		return true
	}
	return false
}

// DeviationThresholds are percentage cutoffs for the deviation bands.
// Ordering is a caller precondition and is not enforced here.
type DeviationThresholds struct {
	Yellow float64 `yaml:"yellow"`
	Orange float64 `yaml:"orange"`
	Red    float64 `yaml:"red"`
}

// DefaultThresholds returns the 10/20/30 cutoffs.
func DefaultThresholds() DeviationThresholds {
	return DeviationThresholds{Yellow: 10, Orange: 20, Red: 30}
}

// AnalysisConfig drives statistics, rendering and export.
type AnalysisConfig struct {
	Method CalculationMethod

	// SelectedBidders restricts statistics to a subset. Empty means all.
	SelectedBidders []string

	ShowQuantities       bool
	ShowBidderQuantities bool
	ShowRates            bool
	ShowTotals           bool

	Thresholds DeviationThresholds
}

// DefaultAnalysisConfig mirrors the default analysis tab.
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		Method:         MethodAverage,
		ShowQuantities: true,
		ShowRates:      true,
		ShowTotals:     true,
		Thresholds:     DefaultThresholds(),
	}
}

// Bidders resolves the selected subset against all bidders, keeping the
// order of all. Unknown names in the selection are ignored.
func (c AnalysisConfig) Bidders(all []string) []string {
	if len(c.SelectedBidders) == 0 {
		return append([]string(nil), all...)
	}
	selected := make(map[string]bool, len(c.SelectedBidders))
	for _, name := range c.SelectedBidders {
		selected[name] = true
	}
	out := make([]string, 0, len(c.SelectedBidders))
	for _, name := range all {
		if selected[name] {
			out = append(out, name)
		}
	}
	return out
}

// Band is a deviation severity classification.
type Band string

const (
	BandNone   Band = "none"
	BandYellow Band = "yellow"
	BandOrange Band = "orange"
	BandRed    Band = "red"
)
