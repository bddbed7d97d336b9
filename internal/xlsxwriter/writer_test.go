package xlsxwriter

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/boq-price-leveling/internal/statistics"
	"github.com/ginjaninja78/boq-price-leveling/internal/types"
)

var bidders = []string{"Acme", "Bravo"}

func items() []types.LineItem {
	return []types.LineItem{
		{ID: "item-1", ItemCode: "1", Description: "Substructure", HierarchyLevel: 1},
		{
			ID: "item-2", ItemCode: "1.1", Description: "Excavation", Unit: "m3",
			Quantity: 1250, HierarchyLevel: 2,
			BaselineRate: 12, BaselineTotal: 15000,
			BidderQuantities: map[string]float64{"Acme": 1250, "Bravo": 1250},
			BidderRates:      map[string]float64{"Acme": 10, "Bravo": 14},
			BidderTotals:     map[string]float64{"Acme": 12500, "Bravo": 17500},
		},
		{
			ID: "item-3", ItemCode: "1.2", Description: "Blinding", Unit: "m2",
			Quantity: 100, HierarchyLevel: 2,
			BaselineRate: 5.1, BaselineTotal: 560,
			BidderQuantities: map[string]float64{"Acme": 100, "Bravo": 100},
			BidderRates:      map[string]float64{"Acme": 5, "Bravo": 5.2},
			BidderTotals:     map[string]float64{"Acme": 600, "Bravo": 520},
		},
		{
			ID: "item-4", Description: "Section 1 Subtotal", HierarchyLevel: 1, IsSubtotal: true,
			BidderQuantities: map[string]float64{"Acme": 0, "Bravo": 0},
			BidderRates:      map[string]float64{"Acme": 0, "Bravo": 0},
			BidderTotals:     map[string]float64{"Acme": 13100, "Bravo": 18020},
		},
	}
}

func build(t *testing.T, opts Options) *excelize.File {
	t.Helper()
	analyses := statistics.Analyze(items(), bidders, opts.Config)
	insights := statistics.Summarize(items(), bidders, opts.Config)

	f, err := Build(analyses, insights, opts)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func raw(t *testing.T, f *excelize.File, sheet, cell string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return v
}

func formula(t *testing.T, f *excelize.File, sheet, cell string) string {
	t.Helper()
	v, err := f.GetCellFormula(sheet, cell)
	require.NoError(t, err)
	return v
}

func TestBuildSheets(t *testing.T) {
	f := build(t, DefaultOptions())
	assert.Equal(t, []string{"Comparison", "Analysis", "Summary"}, f.GetSheetList())
}

func TestComparisonLayout(t *testing.T) {
	f := build(t, DefaultOptions())

	rows, err := f.GetRows("Comparison")
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, []string{
		"Item Code", "Description", "Unit", "Quantity",
		"Baseline Rate", "Acme Rate", "Bravo Rate",
		"Baseline Total", "Acme Total", "Bravo Total",
	}, rows[0])

	assert.Equal(t, "1.1", raw(t, f, "Comparison", "A3"))
	assert.Equal(t, "1250", raw(t, f, "Comparison", "D3"))
	assert.Equal(t, "Section 1 Subtotal", raw(t, f, "Comparison", "B5"))
}

func TestComparisonFormulas(t *testing.T) {
	f := build(t, DefaultOptions())

	// quantity x rate matches the stored totals
	assert.Equal(t, "D3*F3", formula(t, f, "Comparison", "I3"))
	assert.Equal(t, "D3*G3", formula(t, f, "Comparison", "J3"))

	// Acme's 1.2 total disagrees with 100 x 5 and stays literal
	assert.Empty(t, formula(t, f, "Comparison", "I4"))
	assert.Equal(t, "600", raw(t, f, "Comparison", "I4"))
	assert.Equal(t, "D4*G4", formula(t, f, "Comparison", "J4"))

	// subtotals keep their rolled-up values
	assert.Empty(t, formula(t, f, "Comparison", "I5"))
	assert.Equal(t, "13100", raw(t, f, "Comparison", "I5"))
}

func TestComparisonBidderQuantityFormulas(t *testing.T) {
	opts := DefaultOptions()
	opts.Config.ShowBidderQuantities = true
	f := build(t, opts)

	rows, err := f.GetRows("Comparison")
	require.NoError(t, err)
	assert.Equal(t, "Acme Qty", rows[0][4])
	assert.Equal(t, "Acme Total", rows[0][10])

	assert.Equal(t, "E3*H3", formula(t, f, "Comparison", "K3"))
}

func TestComparisonWithoutFormulas(t *testing.T) {
	opts := DefaultOptions()
	opts.Formulas = false
	f := build(t, opts)

	assert.Empty(t, formula(t, f, "Comparison", "I3"))
	assert.Equal(t, "12500", raw(t, f, "Comparison", "I3"))
}

func TestComparisonBandStyles(t *testing.T) {
	f := build(t, DefaultOptions())

	style := func(cell string) int {
		id, err := f.GetCellStyle("Comparison", cell)
		require.NoError(t, err)
		return id
	}

	// both 1.1 rates sit 16.7% off the baseline
	assert.Equal(t, style("F3"), style("G3"))
	// 1.2 rates are within the yellow threshold
	assert.NotEqual(t, style("F3"), style("F4"))
}

func TestAnalysisSheet(t *testing.T) {
	f := build(t, DefaultOptions())

	assert.Equal(t, "Calculated Rate", raw(t, f, "Analysis", "E1"))
	assert.Equal(t, "2", raw(t, f, "Analysis", "C3"))
	assert.Equal(t, "12", raw(t, f, "Analysis", "E3"))
	assert.Equal(t, "Yes", raw(t, f, "Analysis", "D5"))
	assert.Empty(t, raw(t, f, "Analysis", "G3"))
}

func TestSummarySheet(t *testing.T) {
	opts := DefaultOptions()
	opts.Project = "Riverside Clinic"
	f := build(t, opts)

	assert.Equal(t, "Riverside Clinic", raw(t, f, "Summary", "B1"))
	assert.Equal(t, "average", raw(t, f, "Summary", "B2"))
	assert.Equal(t, "10 / 20 / 30", raw(t, f, "Summary", "B6"))

	assert.Equal(t, "Rank", raw(t, f, "Summary", "A9"))
	assert.Equal(t, "Acme", raw(t, f, "Summary", "B10"))
	assert.Equal(t, "13100", raw(t, f, "Summary", "C10"))
	assert.Equal(t, "Bravo", raw(t, f, "Summary", "B11"))

	assert.Equal(t, "Insights", raw(t, f, "Summary", "A13"))
	assert.Contains(t, raw(t, f, "Summary", "A14"), "MODERATE DEVIATIONS")
	assert.Contains(t, raw(t, f, "Summary", "A15"), "COST OPTIMIZATION")
}

func TestWrite(t *testing.T) {
	opts := DefaultOptions()
	analyses := statistics.Analyze(items(), bidders, opts.Config)
	insights := statistics.Summarize(items(), bidders, opts.Config)

	path := filepath.Join(t.TempDir(), "leveling.xlsx")
	require.NoError(t, Write(path, analyses, insights, opts))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Comparison", "Analysis", "Summary"}, f.GetSheetList())
}

func TestWriteEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, Write(path, nil, statistics.Insights{}, DefaultOptions()))
}
