package statistics

import (
	"math"
	"sort"

	"github.com/ginjaninja78/boq-price-leveling/internal/types"
)

// Insight cutoffs, all percentages except the quantity ones.
const (
	CriticalDeviation    = 50.0
	HighDeviation        = 30.0
	ModerateDeviation    = 15.0
	StableDeviation      = 10.0
	SectionRiskDeviation = 25.0
	StabilityHigh        = 60.0
	StabilityLow         = 30.0

	HighQuantity      = 1000.0
	QuantityImpactMin = 10000.0

	// TopCritical is how many critical items are named.
	TopCritical = 3
)

// Spread describes how the positive bidder rates of one item diverge from
// their plain average.
type Spread struct {
	Item         types.LineItem
	AvgRate      float64
	AvgTotal     float64
	MaxDeviation float64
	PriceSpread  float64
	MinBidder    string
	MaxBidder    string
}

// BidderTotal is a bidder's summed bid. Subtotals are skipped, and so are
// headings the bidder also priced row by row underneath.
type BidderTotal struct {
	Bidder string
	Total  float64
}

// QuantityImpact is the cost swing of the largest-quantity detail item.
type QuantityImpact struct {
	Item   types.LineItem
	Impact float64
}

// Insights is the structured summary the report and export layers render.
type Insights struct {
	TotalItems  int
	BidderCount int

	// Level-1 sections with at least one positive rate.
	Sections            []Spread
	SectionCount        int
	TotalProjectValue   float64
	HighestValueSection *Spread
	MostVolatileSection *Spread

	// Detail items (level > 1, not subtotal) sorted by MaxDeviation desc.
	Critical []Spread
	High     []Spread
	Moderate []Spread

	// Ranking is ascending by total.
	Ranking       []BidderTotal
	Savings       float64
	SavingsAmount float64
	MiddleAverage float64

	StableItems int
	DetailItems int
	Stability   float64

	QuantityImpact *QuantityImpact
}

// Lowest returns the cheapest bidder, if any.
func (in *Insights) Lowest() (BidderTotal, bool) {
	if len(in.Ranking) == 0 {
		return BidderTotal{}, false
	}
	return in.Ranking[0], true
}

// Highest returns the most expensive bidder, if any.
func (in *Insights) Highest() (BidderTotal, bool) {
	if len(in.Ranking) == 0 {
		return BidderTotal{}, false
	}
	return in.Ranking[len(in.Ranking)-1], true
}

// Summarize composes the statistics into project-level insights.
//
// PARAMETERS:
//   - items: Aggregated items in sheet order.
//   - bidders: All bidder names in presentation order.
//   - cfg: Supplies the bidder subset; insights always use plain averages.
//
// RETURNS:
//   - The populated Insights. Every ratio is guarded against zero
//     denominators.
//
// Bidder totals skip subtotal rows, and heading rows whose nested rows the
// bidder priced too, so no amount is counted twice.
func Summarize(items []types.LineItem, bidders []string, cfg types.AnalysisConfig) Insights {
	selected := cfg.Bidders(bidders)
	in := Insights{TotalItems: len(items), BidderCount: len(selected)}

	var details []types.LineItem
	for _, item := range items {
		if item.HierarchyLevel == 1 {
			in.SectionCount++
			if s, ok := spread(item, selected); ok {
				in.Sections = append(in.Sections, s)
			}
		}
		if item.HierarchyLevel > 1 && !item.IsSubtotal {
			details = append(details, item)
		}
	}

	summarizeSections(&in)

	var spreads []Spread
	for _, item := range details {
		if s, ok := spread(item, selected); ok {
			spreads = append(spreads, s)
		}
	}
	sort.SliceStable(spreads, func(i, j int) bool {
		return spreads[i].MaxDeviation > spreads[j].MaxDeviation
	})
	for _, s := range spreads {
		switch {
		case s.MaxDeviation > CriticalDeviation:
			in.Critical = append(in.Critical, s)
		case s.MaxDeviation > HighDeviation:
			in.High = append(in.High, s)
		case s.MaxDeviation > ModerateDeviation:
			in.Moderate = append(in.Moderate, s)
		}
		if s.MaxDeviation < StableDeviation {
			in.StableItems++
		}
	}

	in.DetailItems = len(details)
	if in.DetailItems > 0 {
		in.Stability = float64(in.StableItems) / float64(in.DetailItems) * 100
	}

	rankBidders(&in, items, selected)
	in.QuantityImpact = quantityImpact(details, selected)

	return in
}

func summarizeSections(in *Insights) {
	if len(in.Sections) == 0 {
		return
	}
	highest, volatile := 0, 0
	for i, s := range in.Sections {
		in.TotalProjectValue += s.AvgTotal
		if s.AvgTotal > in.Sections[highest].AvgTotal {
			highest = i
		}
		if s.MaxDeviation > in.Sections[volatile].MaxDeviation {
			volatile = i
		}
	}
	in.HighestValueSection = &in.Sections[highest]
	in.MostVolatileSection = &in.Sections[volatile]
}

// spread measures the positive rates of item across bidders. ok is false
// when no bidder has a positive rate.
func spread(item types.LineItem, bidders []string) (Spread, bool) {
	var rates, totals []float64
	minIdx, maxIdx := -1, -1
	var minBidder, maxBidder string

	for _, b := range bidders {
		r := item.BidderRates[b]
		if r <= 0 {
			continue
		}
		rates = append(rates, r)
		if minIdx < 0 || r < rates[minIdx] {
			minIdx, minBidder = len(rates)-1, b
		}
		if maxIdx < 0 || r > rates[maxIdx] {
			maxIdx, maxBidder = len(rates)-1, b
		}
	}
	if len(rates) == 0 {
		return Spread{}, false
	}
	for _, b := range bidders {
		if t := item.BidderTotals[b]; t > 0 {
			totals = append(totals, t)
		}
	}

	avg := Mean(rates)
	maxDev := 0.0
	for _, r := range rates {
		maxDev = math.Max(maxDev, math.Abs(Deviation(r, avg)))
	}
	low, high := rates[minIdx], rates[maxIdx]

	return Spread{
		Item:         item,
		AvgRate:      avg,
		AvgTotal:     Mean(totals),
		MaxDeviation: maxDev,
		PriceSpread:  (high - low) / low * 100,
		MinBidder:    minBidder,
		MaxBidder:    maxBidder,
	}, true
}

func rankBidders(in *Insights, items []types.LineItem, bidders []string) {
	in.Ranking = make([]BidderTotal, 0, len(bidders))
	for _, b := range bidders {
		total := 0.0
		for i, item := range items {
			if item.IsSubtotal || pricedBelow(items, i, b) {
				continue
			}
			total += item.BidderTotals[b]
		}
		in.Ranking = append(in.Ranking, BidderTotal{Bidder: b, Total: total})
	}
	sort.SliceStable(in.Ranking, func(i, j int) bool {
		return in.Ranking[i].Total < in.Ranking[j].Total
	})

	if len(in.Ranking) < 2 {
		return
	}
	low, high := in.Ranking[0], in.Ranking[len(in.Ranking)-1]
	in.SavingsAmount = high.Total - low.Total
	if high.Total != 0 {
		in.Savings = in.SavingsAmount / high.Total * 100
	}

	if len(in.Ranking) > 2 {
		middle := in.Ranking[1 : len(in.Ranking)-1]
		sum := 0.0
		for _, m := range middle {
			sum += m.Total
		}
		in.MiddleAverage = sum / float64(len(middle))
	}
}

// pricedBelow reports whether bidder priced any non-subtotal row nested
// under items[i], i.e. the run of deeper rows that follows it. A heading
// priced on top of its own detail rows is then left out of the bid total.
func pricedBelow(items []types.LineItem, i int, bidder string) bool {
	level := items[i].HierarchyLevel
	for j := i + 1; j < len(items) && items[j].HierarchyLevel > level; j++ {
		if !items[j].IsSubtotal && items[j].BidderTotals[bidder] != 0 {
			return true
		}
	}
	return false
}

func quantityImpact(details []types.LineItem, bidders []string) *QuantityImpact {
	var top *types.LineItem
	for i := range details {
		if details[i].Quantity <= HighQuantity {
			continue
		}
		if top == nil || details[i].Quantity > top.Quantity {
			top = &details[i]
		}
	}
	if top == nil {
		return nil
	}

	low, high := math.Inf(1), math.Inf(-1)
	for _, b := range bidders {
		if r := top.BidderRates[b]; r > 0 {
			low = math.Min(low, r)
			high = math.Max(high, r)
		}
	}
	if math.IsInf(low, 1) {
		return nil
	}

	impact := (high - low) * top.Quantity
	if impact <= QuantityImpactMin {
		return nil
	}
	return &QuantityImpact{Item: *top, Impact: impact}
}
