package xlsxwriter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/boq-price-leveling/internal/report"
	"github.com/ginjaninja78/boq-price-leveling/internal/statistics"
	"github.com/ginjaninja78/boq-price-leveling/internal/types"
)

// column is one output column of an item table. value returns the cell
// value (nil leaves the cell empty) and the band used to fill it.
type column struct {
	header string
	width  float64
	kind   columnKind
	value  func(a statistics.ItemAnalysis) (any, types.Band)
}

func shared(header string, width float64, kind columnKind, get func(li types.LineItem) any) column {
	return column{header: header, width: width, kind: kind, value: func(a statistics.ItemAnalysis) (any, types.Band) {
		return get(a.Item), types.BandNone
	}}
}

func bidderCell(header string, kind columnKind, bidder int, pick func(c statistics.BidderCells) statistics.Cell) column {
	return column{header: header, width: 15, kind: kind, value: func(a statistics.ItemAnalysis) (any, types.Band) {
		if bidder >= len(a.Cells) {
			return nil, types.BandNone
		}
		c := pick(a.Cells[bidder])
		if !c.Present {
			return nil, types.BandNone
		}
		return c.Value, c.Band
	}}
}

// writeTable writes headers, one styled row per analysis, column widths
// and the autofilter.
func (w *writer) writeTable(sheet string, cols []column, analyses []statistics.ItemAnalysis) error {
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = c.header
	}
	if err := w.header(sheet, 1, headers); err != nil {
		return err
	}

	for r, a := range analyses {
		row := r + 2
		for ci, col := range cols {
			cell := cellName(ci+1, row)
			v, band := col.value(a)
			if v != nil {
				if err := w.f.SetCellValue(sheet, cell, v); err != nil {
					return err
				}
			}
			style, err := w.style(styleKey{
				level:    a.Item.HierarchyLevel,
				subtotal: a.Item.IsSubtotal,
				kind:     col.kind,
				band:     band,
				stripe:   row%2 == 0,
			})
			if err != nil {
				return err
			}
			if err := w.f.SetCellStyle(sheet, cell, cell, style); err != nil {
				return err
			}
		}
	}

	for ci, col := range cols {
		name, err := excelize.ColumnNumberToName(ci + 1)
		if err != nil {
			return err
		}
		if err := w.f.SetColWidth(sheet, name, name, col.width); err != nil {
			return err
		}
	}

	lastRow := len(analyses) + 1
	return w.f.AutoFilter(sheet, "A1:"+cellName(len(cols), lastRow), nil)
}

// =============================================================================
// COMPARISON SHEET
// =============================================================================

func (w *writer) comparison(analyses []statistics.ItemAnalysis) error {
	cfg := w.opts.Config
	sheet := w.opts.ComparisonSheet

	var bidders []string
	if len(analyses) > 0 {
		for _, c := range analyses[0].Cells {
			bidders = append(bidders, c.Bidder)
		}
	}
	hasBaseline := false
	for _, a := range analyses {
		if a.Item.HasBaseline() {
			hasBaseline = true
			break
		}
	}

	cols := []column{
		shared("Item Code", 12, kindText, func(li types.LineItem) any { return li.ItemCode }),
		shared("Description", 40, kindDescription, func(li types.LineItem) any { return li.Description }),
		shared("Unit", 8, kindText, func(li types.LineItem) any { return li.Unit }),
	}

	sharedQty := -1
	qtyCol := indexes(len(bidders))
	rateCol := indexes(len(bidders))
	totalCol := indexes(len(bidders))

	if cfg.ShowQuantities {
		sharedQty = len(cols)
		cols = append(cols, shared("Quantity", 12, kindQuantity, func(li types.LineItem) any { return li.Quantity }))
		if cfg.ShowBidderQuantities {
			for bi, b := range bidders {
				qtyCol[bi] = len(cols)
				col := bidderCell(b+" Qty", kindQuantity, bi, func(c statistics.BidderCells) statistics.Cell { return c.Quantity })
				col.width = 12
				cols = append(cols, col)
			}
		}
	}
	if cfg.ShowRates {
		if hasBaseline {
			cols = append(cols, shared("Baseline Rate", 15, kindRate, baseline(func(li types.LineItem) float64 { return li.BaselineRate })))
		}
		for bi, b := range bidders {
			rateCol[bi] = len(cols)
			cols = append(cols, bidderCell(b+" Rate", kindRate, bi, func(c statistics.BidderCells) statistics.Cell { return c.Rate }))
		}
	}
	if cfg.ShowTotals {
		if hasBaseline {
			cols = append(cols, shared("Baseline Total", 15, kindTotal, baseline(func(li types.LineItem) float64 { return li.BaselineTotal })))
		}
		for bi, b := range bidders {
			totalCol[bi] = len(cols)
			cols = append(cols, bidderCell(b+" Total", kindTotal, bi, func(c statistics.BidderCells) statistics.Cell { return c.Total }))
		}
	}

	if err := w.writeTable(sheet, cols, analyses); err != nil {
		return err
	}

	if w.opts.Formulas {
		for r, a := range analyses {
			row := r + 2
			for bi := range bidders {
				f := totalFormula(a, bi, row, sharedQty, qtyCol[bi], rateCol[bi])
				if f == "" || totalCol[bi] < 0 {
					continue
				}
				if err := w.f.SetCellFormula(sheet, cellName(totalCol[bi]+1, row), f); err != nil {
					return err
				}
			}
		}
	}

	return w.f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      3,
		YSplit:      1,
		TopLeftCell: "D2",
		ActivePane:  "bottomRight",
	})
}

func indexes(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = -1
	}
	return out
}

func baseline(get func(li types.LineItem) float64) func(li types.LineItem) any {
	return func(li types.LineItem) any {
		if v := get(li); v != 0 {
			return v
		}
		return nil
	}
}

// totalFormula returns "<qty>*<rate>" for a bidder total that can be
// expressed as a formula over cells in the same row, or "" when the total
// must stay literal: subtotals, missing columns, and totals that do not
// equal quantity x rate.
//
// The bidder's own quantity column is preferred. Without it, the shared
// quantity column is used when the bidder's quantity equals it.
func totalFormula(a statistics.ItemAnalysis, bidder, row, sharedQty, qtyCol, rateCol int) string {
	if a.Item.IsSubtotal || rateCol < 0 || bidder >= len(a.Cells) {
		return ""
	}
	c := a.Cells[bidder]
	if !c.Rate.Present || !c.Total.Present {
		return ""
	}

	col := qtyCol
	if col < 0 || !c.Quantity.Present {
		if sharedQty < 0 || c.Quantity.Value != a.Item.Quantity {
			return ""
		}
		col = sharedQty
	}
	if !matches(c.Quantity.Value, c.Rate.Value, c.Total.Value) {
		return ""
	}

	return cellName(col+1, row) + "*" + cellName(rateCol+1, row)
}

// =============================================================================
// ANALYSIS SHEET
// =============================================================================

func (w *writer) analysis(analyses []statistics.ItemAnalysis) error {
	bandText := func(b types.Band) any {
		if b == types.BandNone || b == "" {
			return nil
		}
		return string(b)
	}

	cols := []column{
		shared("Item Code", 12, kindText, func(li types.LineItem) any { return li.ItemCode }),
		shared("Description", 40, kindDescription, func(li types.LineItem) any { return li.Description }),
		shared("Level", 8, kindText, func(li types.LineItem) any { return li.HierarchyLevel }),
		shared("Subtotal", 10, kindText, func(li types.LineItem) any {
			if li.IsSubtotal {
				return "Yes"
			}
			return nil
		}),
		{header: "Calculated Rate", width: 16, kind: kindRate, value: func(a statistics.ItemAnalysis) (any, types.Band) {
			return round(a.CalculatedRate, 2), types.BandNone
		}},
		{header: "Rate Deviation %", width: 16, kind: kindPercent, value: func(a statistics.ItemAnalysis) (any, types.Band) {
			return round(a.RateDeviation, 1), a.RateBand
		}},
		{header: "Rate Band", width: 10, kind: kindText, value: func(a statistics.ItemAnalysis) (any, types.Band) {
			return bandText(a.RateBand), types.BandNone
		}},
		{header: "Calculated Total", width: 16, kind: kindTotal, value: func(a statistics.ItemAnalysis) (any, types.Band) {
			return round(a.CalculatedTotal, 2), types.BandNone
		}},
		{header: "Total Deviation %", width: 16, kind: kindPercent, value: func(a statistics.ItemAnalysis) (any, types.Band) {
			return round(a.TotalDeviation, 1), a.TotalBand
		}},
		{header: "Total Band", width: 10, kind: kindText, value: func(a statistics.ItemAnalysis) (any, types.Band) {
			return bandText(a.TotalBand), types.BandNone
		}},
	}

	return w.writeTable(w.opts.AnalysisSheet, cols, analyses)
}

// =============================================================================
// SUMMARY SHEET
// =============================================================================

func (w *writer) summary(in statistics.Insights) error {
	sheet := w.opts.SummarySheet
	cfg := w.opts.Config
	th := cfg.Thresholds

	facts := [][]any{
		{"Project", w.opts.Project},
		{"Calculation Method", string(cfg.Method)},
		{"Bidders", in.BidderCount},
		{"Line Items", in.TotalItems},
		{"Sections", in.SectionCount},
		{"Thresholds (Y / O / R %)", fmt.Sprintf("%s / %s / %s", report.Number(th.Yellow), report.Number(th.Orange), report.Number(th.Red))},
		{"Stable Items %", round(in.Stability, 1)},
	}

	label, err := w.style(styleKey{level: 2, kind: kindText})
	if err != nil {
		return err
	}
	plain, err := w.style(styleKey{level: 4, kind: kindText})
	if err != nil {
		return err
	}
	money, err := w.style(styleKey{level: 4, kind: kindTotal})
	if err != nil {
		return err
	}

	row := 1
	for _, fact := range facts {
		values := fact
		if err := w.f.SetSheetRow(sheet, cellName(1, row), &values); err != nil {
			return err
		}
		if err := w.f.SetCellStyle(sheet, cellName(1, row), cellName(1, row), label); err != nil {
			return err
		}
		if err := w.f.SetCellStyle(sheet, cellName(2, row), cellName(2, row), plain); err != nil {
			return err
		}
		row++
	}

	row++
	if err := w.header(sheet, row, []string{"Rank", "Bidder", "Total"}); err != nil {
		return err
	}
	for i, bt := range in.Ranking {
		row++
		values := []any{i + 1, bt.Bidder, round(bt.Total, 2)}
		if err := w.f.SetSheetRow(sheet, cellName(1, row), &values); err != nil {
			return err
		}
		if err := w.f.SetCellStyle(sheet, cellName(1, row), cellName(2, row), plain); err != nil {
			return err
		}
		if err := w.f.SetCellStyle(sheet, cellName(3, row), cellName(3, row), money); err != nil {
			return err
		}
	}

	row += 2
	if err := w.header(sheet, row, []string{"Insights"}); err != nil {
		return err
	}
	lines := report.Messages(in)
	if len(lines) == 0 {
		lines = []string{"No insights: not enough priced items."}
	}
	for _, line := range lines {
		row++
		if err := w.f.SetCellValue(sheet, cellName(1, row), line); err != nil {
			return err
		}
	}

	for col, width := range map[string]float64{"A": 26, "B": 20, "C": 16} {
		if err := w.f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}
	return nil
}
