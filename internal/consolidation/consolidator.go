// =============================================================================
// BoQ Price Leveling - Consolidation Engine
// =============================================================================
//
// This module merges the per-bidder sheets into one ordered list of canonical
// line items.
//
// CONSOLIDATION RULES:
//   1. The longest selected sheet (most data rows) bounds the iteration.
//   2. Shared fields (code, description, unit, quantity) come from the FIRST
//      bidder's mapping applied to the same row index of its own sheet.
//   3. Each bidder's quantity / rate / total come from its own mapping, with
//      missing values derived from the other two.
//   4. A row is kept only if some bidder has a positive rate.
//   5. The baseline is the mean of the nonzero bidder rates / totals.
//
// Consolidation never fails: missing cells are "" or 0.
//
// =============================================================================

package consolidation

import (
	"fmt"

	"github.com/ginjaninja78/boq-price-leveling/internal/types"
)

// Consolidate merges the bidders' selected sheets into ordered line items.
//
// PARAMETERS:
//   - bidders: The bidders in presentation order. The first bidder supplies
//     the shared descriptive fields.
//
// RETURNS:
//   - The consolidated items plus the bidder names in the same order.
//     Hierarchy fields are left at level 1 / not subtotal for the
//     aggregation step to stamp.
func Consolidate(bidders []types.Bidder) types.ConsolidatedData {
	names := make([]string, len(bidders))
	for i, b := range bidders {
		names[i] = b.Name
	}
	data := types.ConsolidatedData{Bidders: names}

	reference, refRows := referenceSheet(bidders)
	if reference == nil || len(bidders) == 0 {
		return data
	}

	first := bidders[0]
	firstSheet, _ := first.Sheet()

	for r := 0; r < refRows; r++ {
		if r < len(reference.Rows) && isRowEmpty(reference.Rows[r]) {
			continue
		}

		item := types.LineItem{
			ID:               fmt.Sprintf("item-%d", r+1),
			HierarchyLevel:   1,
			BidderQuantities: make(map[string]float64, len(bidders)),
			BidderRates:      make(map[string]float64, len(bidders)),
			BidderTotals:     make(map[string]float64, len(bidders)),
		}

		if first.Mapping != nil && firstSheet != nil {
			row := rowAt(firstSheet, r)
			m := first.Mapping
			item.ItemCode = CellText(row, m.ItemCode)
			item.Description = CellText(row, m.Description)
			item.Unit = CellText(row, m.Unit)
			item.Quantity = CellNumber(row, m.Quantity)
		}

		anyRate := false
		for _, b := range bidders {
			v, ok := bidderValues(b, r, item.Quantity)
			if !ok {
				continue
			}
			item.BidderQuantities[b.Name] = v.quantity
			item.BidderRates[b.Name] = v.rate
			item.BidderTotals[b.Name] = v.total
			if v.rate > 0 {
				anyRate = true
			}
		}
		if !anyRate {
			continue
		}

		item.BaselineRate = nonzeroMean(names, item.BidderRates)
		item.BaselineTotal = nonzeroMean(names, item.BidderTotals)

		data.Items = append(data.Items, item)
	}

	return data
}

// referenceSheet returns the selected sheet with the most data rows.
// Ties keep the earliest bidder.
func referenceSheet(bidders []types.Bidder) (*types.Sheet, int) {
	var best *types.Sheet
	rows := 0
	for _, b := range bidders {
		sheet, ok := b.Sheet()
		if !ok {
			continue
		}
		if best == nil || len(sheet.Rows) > rows {
			best = sheet
			rows = len(sheet.Rows)
		}
	}
	return best, rows
}

func rowAt(sheet *types.Sheet, r int) []any {
	if sheet == nil || r >= len(sheet.Rows) {
		return nil
	}
	return sheet.Rows[r]
}

type derived struct {
	quantity, rate, total float64
}

// bidderValues reads one bidder's quantity, rate and total at row r and
// derives the missing ones. ok is false when the bidder has no mapping,
// no selected sheet or no such row.
func bidderValues(b types.Bidder, r int, sharedQuantity float64) (derived, bool) {
	sheet, ok := b.Sheet()
	if !ok || b.Mapping == nil || r >= len(sheet.Rows) {
		return derived{}, false
	}
	row := sheet.Rows[r]
	m := b.Mapping

	v := derived{
		quantity: CellNumber(row, m.Quantity),
		rate:     CellNumber(row, m.Rate),
		total:    CellNumber(row, m.Total),
	}
	if v.quantity == 0 {
		v.quantity = sharedQuantity
	}

	if v.rate == 0 && v.total != 0 && v.quantity != 0 {
		v.rate = v.total / v.quantity
	}
	if v.total == 0 && v.rate != 0 && v.quantity != 0 {
		v.total = v.rate * v.quantity
	}
	return v, true
}

// nonzeroMean averages the nonzero values of m in the order of names.
func nonzeroMean(names []string, m map[string]float64) float64 {
	sum, n := 0.0, 0
	for _, name := range names {
		if v := m[name]; v != 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
