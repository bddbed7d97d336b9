package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/boq-price-leveling/internal/statistics"
	"github.com/ginjaninja78/boq-price-leveling/internal/types"
)

func TestFormatting(t *testing.T) {
	assert.Equal(t, "$1,234,567.89", Money(1234567.891))
	assert.Equal(t, "-$12.50", Money(-12.5))
	assert.Equal(t, "$0.00", Money(0))

	assert.Equal(t, "1,250", Number(1250))
	assert.Equal(t, "12.35", Number(12.345))

	assert.Equal(t, "62.6%", Percent(62.6307))
	assert.Equal(t, "+16.7%", SignedPercent(16.666))
	assert.Equal(t, "-16.7%", SignedPercent(-16.666))
	assert.Equal(t, "0.0%", SignedPercent(0))
}

func comparisonItems() []types.LineItem {
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
	}
}

func TestRenderTable(t *testing.T) {
	cfg := types.DefaultAnalysisConfig()
	analyses := statistics.Analyze(comparisonItems(), []string{"Acme", "Bravo"}, cfg)

	var buf bytes.Buffer
	require.NoError(t, RenderTable(&buf, analyses, cfg))

	out := buf.String()
	assert.Contains(t, out, "ACME RATE")
	assert.Contains(t, out, "BRAVO TOTAL")
	assert.Contains(t, out, "AVERAGE")
	assert.NotContains(t, out, "ACME QTY")
	assert.Contains(t, out, "  Excavation")
	assert.Contains(t, out, "1,250")
	assert.Contains(t, out, "10.00 (Y)")
	assert.Contains(t, out, "17,500 (Y)")
	assert.Contains(t, out, "(2 items, 2 bidders)")
}

func TestRenderTableBidderQuantities(t *testing.T) {
	cfg := types.DefaultAnalysisConfig()
	cfg.ShowBidderQuantities = true
	cfg.ShowTotals = false
	analyses := statistics.Analyze(comparisonItems(), []string{"Acme", "Bravo"}, cfg)

	var buf bytes.Buffer
	require.NoError(t, RenderTable(&buf, analyses, cfg))

	out := buf.String()
	assert.Contains(t, out, "ACME QTY")
	assert.NotContains(t, out, "ACME TOTAL")
}

func TestRenderTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderTable(&buf, nil, types.DefaultAnalysisConfig()))
	assert.Equal(t, "(0 items)\n", buf.String())
}

func TestMessages(t *testing.T) {
	critical := func(desc string, dev float64) statistics.Spread {
		return statistics.Spread{Item: types.LineItem{Description: desc}, MaxDeviation: dev, MinBidder: "Acme", MaxBidder: "Civil"}
	}

	in := statistics.Insights{
		Sections: []statistics.Spread{{
			Item:         types.LineItem{Description: "Substructure"},
			AvgTotal:     30000,
			MaxDeviation: 40,
			MinBidder:    "Acme",
			MaxBidder:    "Bravo",
		}},
		SectionCount:      2,
		TotalProjectValue: 40000,
		Critical:          []statistics.Spread{critical("Piling", 80), critical("Rebar", 70), critical("Formwork", 60), critical("Sealant", 55)},
		High:              []statistics.Spread{critical("Paint", 35)},
		Ranking: []statistics.BidderTotal{
			{Bidder: "Acme", Total: 27160},
			{Bidder: "Bravo", Total: 27450},
			{Bidder: "Civil", Total: 72680},
		},
		SavingsAmount:  45520,
		Savings:        45520.0 / 72680.0 * 100,
		MiddleAverage:  27450,
		DetailItems:    8,
		StableItems:    2,
		Stability:      25,
		QuantityImpact: &statistics.QuantityImpact{Item: types.LineItem{Description: "Rebar", Quantity: 4000, Unit: "kg"}, Impact: 40000},
	}
	in.HighestValueSection = &in.Sections[0]
	in.MostVolatileSection = &in.Sections[0]

	lines := Messages(in)
	require.Len(t, lines, 8)

	assert.Equal(t, `PROJECT OVERVIEW: Total estimated value of $40,000.00 across 2 major sections. Highest value section: "Substructure" (75.0% of total).`, lines[0])
	assert.Contains(t, lines[1], `SECTION RISK: "Substructure"`)
	assert.Contains(t, lines[1], "40.0% deviation between Acme and Bravo")
	assert.Contains(t, lines[2], "CRITICAL DEVIATIONS (4 items >50%)")
	assert.Contains(t, lines[2], `"Formwork" (60.0% between Acme & Civil)`)
	assert.NotContains(t, lines[2], "Sealant")
	assert.Contains(t, lines[3], "HIGH DEVIATIONS (1 items 30-50%)")
	assert.Equal(t, "COST OPTIMIZATION: Acme offers the most competitive total ($27,160.00), saving $45,520.00 (62.6%) vs highest bidder Civil.", lines[4])
	assert.Contains(t, lines[5], "Average of middle bidders: $27,450.00")
	assert.Contains(t, lines[6], "MARKET VOLATILITY: Only 25.0%")
	assert.Equal(t, `QUANTITY IMPACT: "Rebar" (4,000 kg) has a potential cost impact of $40,000.00 due to rate variations.`, lines[7])
}

func TestMessagesQuiet(t *testing.T) {
	in := statistics.Insights{
		Ranking:     []statistics.BidderTotal{{Bidder: "Acme", Total: 100}},
		DetailItems: 10,
		StableItems: 5,
		Stability:   50,
	}
	assert.Empty(t, Messages(in))

	var buf bytes.Buffer
	require.NoError(t, RenderInsights(&buf, in))
	assert.Equal(t, "No insights: not enough priced items.\n", buf.String())
}
