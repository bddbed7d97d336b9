package statistics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/boq-price-leveling/internal/types"
)

func insightFixture() []types.LineItem {
	subtotal := priced("2.9", "Sub-total", 2, true, 0)
	for _, b := range threeBidders {
		subtotal.BidderRates[b] = 0
		subtotal.BidderTotals[b] = 1e6
	}

	return []types.LineItem{
		priced("1", "Substructure", 1, false, 1, 1000, 1200, 1400),
		priced("2", "Superstructure", 1, false, 1, 5000, 5000, 10000),
		priced("2.1", "Rebar", 2, false, 2000, 10, 10, 30),
		priced("2.2", "Formwork", 2, false, 10, 100, 101, 102),
		priced("2.3", "Concrete", 2, false, 1, 100, 140, 120),
		priced("2.4", "Screed", 2, false, 1, 60, 100, 140),
		subtotal,
	}
}

func TestSummarizeSections(t *testing.T) {
	in := Summarize(insightFixture(), threeBidders, types.DefaultAnalysisConfig())

	assert.Equal(t, 7, in.TotalItems)
	assert.Equal(t, 3, in.BidderCount)
	assert.Equal(t, 2, in.SectionCount)
	require.Len(t, in.Sections, 2)

	sub := in.Sections[0]
	assert.InDelta(t, 1200.0, sub.AvgRate, 1e-9)
	assert.InDelta(t, 1200.0, sub.AvgTotal, 1e-9)
	assert.InDelta(t, 100.0/6.0, sub.MaxDeviation, 1e-9)
	assert.InDelta(t, 40.0, sub.PriceSpread, 1e-9)
	assert.Equal(t, "Acme", sub.MinBidder)
	assert.Equal(t, "Civil", sub.MaxBidder)

	assert.InDelta(t, 1200.0+20000.0/3.0, in.TotalProjectValue, 1e-6)
	require.NotNil(t, in.HighestValueSection)
	assert.Equal(t, "Superstructure", in.HighestValueSection.Item.Description)
	require.NotNil(t, in.MostVolatileSection)
	assert.InDelta(t, 50.0, in.MostVolatileSection.MaxDeviation, 1e-9)
	assert.Equal(t, "Acme", in.MostVolatileSection.MinBidder)
}

func TestSummarizeDeviationBuckets(t *testing.T) {
	in := Summarize(insightFixture(), threeBidders, types.DefaultAnalysisConfig())

	require.Len(t, in.Critical, 1)
	assert.Equal(t, "2.1", in.Critical[0].Item.ItemCode)
	assert.InDelta(t, 80.0, in.Critical[0].MaxDeviation, 1e-9)
	require.Len(t, in.High, 1)
	assert.Equal(t, "2.4", in.High[0].Item.ItemCode)
	require.Len(t, in.Moderate, 1)
	assert.Equal(t, "2.3", in.Moderate[0].Item.ItemCode)

	assert.Equal(t, 4, in.DetailItems)
	assert.Equal(t, 1, in.StableItems)
	assert.InDelta(t, 25.0, in.Stability, 1e-9)
}

func TestSummarizeBidderRankingSkipsRollups(t *testing.T) {
	in := Summarize(insightFixture(), threeBidders, types.DefaultAnalysisConfig())

	// "2 Superstructure" is priced by everyone on top of 2.1-2.4.
	require.Len(t, in.Ranking, 3)
	assert.Equal(t, BidderTotal{Bidder: "Acme", Total: 22160}, in.Ranking[0])
	assert.Equal(t, BidderTotal{Bidder: "Bravo", Total: 22450}, in.Ranking[1])
	assert.Equal(t, BidderTotal{Bidder: "Civil", Total: 62680}, in.Ranking[2])

	assert.InDelta(t, 40520.0, in.SavingsAmount, 1e-9)
	assert.InDelta(t, 40520.0/62680.0*100, in.Savings, 1e-9)
	assert.InDelta(t, 22450.0, in.MiddleAverage, 1e-9)

	low, ok := in.Lowest()
	require.True(t, ok)
	assert.Equal(t, "Acme", low.Bidder)
	high, ok := in.Highest()
	require.True(t, ok)
	assert.Equal(t, "Civil", high.Bidder)
}

func TestSummarizeRankingHeadingLumpSum(t *testing.T) {
	heading := priced("1", "Substructure", 1, false, 1, 5000, 5000)
	excavation := priced("1.1", "Excavation", 2, false, 100, 20)
	blinding := priced("1.2", "Blinding", 2, false, 10, 30)
	next := priced("2", "Superstructure", 1, false, 1, 700, 900)

	in := Summarize([]types.LineItem{heading, excavation, blinding, next}, threeBidders[:2], types.DefaultAnalysisConfig())

	// Acme priced the detail rows, so its heading amount is a repeat.
	// Bravo only priced the heading, which then stands as the section bid.
	require.Len(t, in.Ranking, 2)
	assert.Equal(t, BidderTotal{Bidder: "Acme", Total: 2000 + 300 + 700}, in.Ranking[0])
	assert.Equal(t, BidderTotal{Bidder: "Bravo", Total: 5000 + 900}, in.Ranking[1])
}

func TestSummarizeQuantityImpact(t *testing.T) {
	in := Summarize(insightFixture(), threeBidders, types.DefaultAnalysisConfig())

	require.NotNil(t, in.QuantityImpact)
	assert.Equal(t, "Rebar", in.QuantityImpact.Item.Description)
	assert.InDelta(t, 40000.0, in.QuantityImpact.Impact, 1e-9)

	small := []types.LineItem{priced("1.1", "Nails", 2, false, 5000, 1, 2)}
	assert.Nil(t, Summarize(small, threeBidders, types.DefaultAnalysisConfig()).QuantityImpact)
}

func TestSummarizeNamesActualMinAndMaxBidders(t *testing.T) {
	item := priced("1.1", "Excavation", 2, false, 1, 0, 50, 40)

	in := Summarize([]types.LineItem{item}, threeBidders, types.DefaultAnalysisConfig())
	require.Len(t, in.Moderate, 0)
	require.Len(t, in.Critical, 0)

	s, ok := spread(item, threeBidders)
	require.True(t, ok)
	assert.Equal(t, "Civil", s.MinBidder)
	assert.Equal(t, "Bravo", s.MaxBidder)
}

func TestSummarizeSelectedBidders(t *testing.T) {
	cfg := types.DefaultAnalysisConfig()
	cfg.SelectedBidders = []string{"Acme", "Bravo"}

	in := Summarize(insightFixture(), threeBidders, cfg)
	assert.Equal(t, 2, in.BidderCount)
	require.Len(t, in.Ranking, 2)
	assert.Equal(t, 0.0, in.MiddleAverage)
	assert.Empty(t, in.Critical)
}

func TestSummarizeEmpty(t *testing.T) {
	in := Summarize(nil, nil, types.DefaultAnalysisConfig())

	assert.Nil(t, in.HighestValueSection)
	assert.Nil(t, in.QuantityImpact)
	assert.Equal(t, 0.0, in.Stability)
	assert.Empty(t, in.Ranking)
	_, ok := in.Lowest()
	assert.False(t, ok)
}
