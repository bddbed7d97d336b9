package statistics

import (
	"github.com/ginjaninja78/boq-price-leveling/internal/types"
)

// Cell is one bidder value with its deviation and band.
type Cell struct {
	Value     float64
	Present   bool
	Deviation float64
	Band      types.Band
}

// BidderCells holds one bidder's annotated quantity, rate and total.
type BidderCells struct {
	Bidder   string
	Quantity Cell
	Rate     Cell
	Total    Cell
}

// ItemAnalysis is a line item annotated for rendering and export.
type ItemAnalysis struct {
	Item types.LineItem

	CalculatedRate  float64
	CalculatedTotal float64
	RateDeviation   float64
	TotalDeviation  float64
	RateBand        types.Band
	TotalBand       types.Band

	// Cells follow the selected bidders in presentation order.
	Cells []BidderCells
}

// Analyze annotates every item with the configured statistic over the
// selected bidders and the deviation of each value from its reference.
//
// PARAMETERS:
//   - items: Aggregated items.
//   - bidders: All bidder names in presentation order.
//   - cfg: Method, bidder subset and thresholds.
//
// RETURNS:
//   - One ItemAnalysis per item, in input order.
//
// Rates and totals are compared with the item's baseline; a bidder's
// quantity is compared with the mean of the nonzero selected quantities.
func Analyze(items []types.LineItem, bidders []string, cfg types.AnalysisConfig) []ItemAnalysis {
	selected := cfg.Bidders(bidders)
	out := make([]ItemAnalysis, len(items))

	for i, item := range items {
		rates := values(item.BidderRates, selected)
		totals := values(item.BidderTotals, selected)

		a := ItemAnalysis{
			Item:            item,
			CalculatedRate:  Statistic(rates, cfg.Method),
			CalculatedTotal: Statistic(totals, cfg.Method),
			Cells:           make([]BidderCells, 0, len(selected)),
		}
		if item.BaselineRate != 0 {
			a.RateDeviation = Deviation(a.CalculatedRate, item.BaselineRate)
		}
		if item.BaselineTotal != 0 {
			a.TotalDeviation = Deviation(a.CalculatedTotal, item.BaselineTotal)
		}
		a.RateBand = Band(a.RateDeviation, cfg.Thresholds)
		a.TotalBand = Band(a.TotalDeviation, cfg.Thresholds)

		meanQty := nonzeroMean(values(item.BidderQuantities, selected))
		for _, b := range selected {
			a.Cells = append(a.Cells, BidderCells{
				Bidder:   b,
				Quantity: cell(item.BidderQuantities, b, meanQty, cfg.Thresholds),
				Rate:     cell(item.BidderRates, b, item.BaselineRate, cfg.Thresholds),
				Total:    cell(item.BidderTotals, b, item.BaselineTotal, cfg.Thresholds),
			})
		}

		out[i] = a
	}

	return out
}

// values collects m's entries for the given bidders, skipping absent keys.
func values(m map[string]float64, bidders []string) []float64 {
	out := make([]float64, 0, len(bidders))
	for _, b := range bidders {
		if v, ok := m[b]; ok {
			out = append(out, v)
		}
	}
	return out
}

func nonzeroMean(vs []float64) float64 {
	nonzero := vs[:0:0]
	for _, v := range vs {
		if v != 0 {
			nonzero = append(nonzero, v)
		}
	}
	return Mean(nonzero)
}

func cell(m map[string]float64, bidder string, reference float64, th types.DeviationThresholds) Cell {
	v, ok := m[bidder]
	if !ok {
		return Cell{Band: types.BandNone}
	}
	d := Deviation(v, reference)
	return Cell{Value: v, Present: true, Deviation: d, Band: Band(d, th)}
}
