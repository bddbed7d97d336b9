// =============================================================================
// BoQ Price Leveling - Terminal Report
// =============================================================================
//
// This module renders an analysis for the terminal:
//   - A comparison table, one row per line item, with each bidder's values
//     marked by deviation band
//   - Insight lines summarizing sections, deviations, bidder ranking,
//     market stability and quantity impact
//
// The same insight lines are written to the Summary sheet of the exported
// workbook.
//
// BAND MARKERS:
//   (Y) yellow   (O) orange   (R) red
//
// =============================================================================

package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ginjaninja78/boq-price-leveling/internal/statistics"
	"github.com/ginjaninja78/boq-price-leveling/internal/types"
)

// =============================================================================
// COMPARISON TABLE
// =============================================================================

// RenderTable writes the comparison table for analyses to w.
//
// PARAMETERS:
//   - w: Destination writer.
//   - analyses: Output of statistics.Analyze, in item order.
//   - cfg: Display flags and the calculation method.
//
// RETURNS:
//   - An error only if writing the empty-result notice fails.
func RenderTable(w io.Writer, analyses []statistics.ItemAnalysis, cfg types.AnalysisConfig) error {
	if len(analyses) == 0 {
		_, err := fmt.Fprintln(w, "(0 items)")
		return err
	}

	bidders := make([]string, 0, len(analyses[0].Cells))
	for _, c := range analyses[0].Cells {
		bidders = append(bidders, c.Bidder)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := table.Row{"Code", "Description", "Unit"}
	if cfg.ShowQuantities {
		header = append(header, "Qty")
	}
	for _, b := range bidders {
		if cfg.ShowQuantities && cfg.ShowBidderQuantities {
			header = append(header, b+" Qty")
		}
		if cfg.ShowRates {
			header = append(header, b+" Rate")
		}
		if cfg.ShowTotals {
			header = append(header, b+" Total")
		}
	}
	header = append(header, title(strings.ReplaceAll(string(cfg.Method), "-", " ")), "Dev", "Band")
	t.AppendHeader(header)

	configs := make([]table.ColumnConfig, 0, len(header))
	for i := 4; i <= len(header); i++ {
		if i == 4 && !cfg.ShowQuantities {
			continue
		}
		configs = append(configs, table.ColumnConfig{Number: i, Align: text.AlignRight})
	}
	t.SetColumnConfigs(configs)

	for i, a := range analyses {
		item := a.Item
		if item.HierarchyLevel == 1 && !item.IsSubtotal && i > 0 {
			t.AppendSeparator()
		}

		desc := indent(item.HierarchyLevel) + item.Description
		if item.IsSubtotal {
			desc = indent(item.HierarchyLevel) + "= " + item.Description
		}

		row := table.Row{item.ItemCode, desc, item.Unit}
		if cfg.ShowQuantities {
			row = append(row, Number(item.Quantity))
		}
		for _, c := range a.Cells {
			if cfg.ShowQuantities && cfg.ShowBidderQuantities {
				row = append(row, cellText(c.Quantity, Number))
			}
			if cfg.ShowRates {
				row = append(row, cellText(c.Rate, rate))
			}
			if cfg.ShowTotals {
				row = append(row, cellText(c.Total, Number))
			}
		}
		row = append(row, rate(a.CalculatedRate), SignedPercent(a.RateDeviation), bandLabel(a.RateBand))
		t.AppendRow(row)
	}

	t.Render()
	_, err := fmt.Fprintf(w, "(%d items, %d bidders)\n", len(analyses), len(bidders))
	return err
}

func indent(level int) string {
	if level <= 1 {
		return ""
	}
	return strings.Repeat("  ", level-1)
}

// title upper-cases the first letter of each word. A Caser is not safe for
// concurrent use, so one is built per call.
func title(s string) string {
	return cases.Title(language.English).String(s)
}

func rate(v float64) string {
	return printer.Sprintf("%.2f", v)
}

func cellText(c statistics.Cell, format func(float64) string) string {
	if !c.Present {
		return "-"
	}
	return format(c.Value) + bandMarker(c.Band)
}

func bandMarker(b types.Band) string {
	switch b {
	case types.BandYellow:
		return " (Y)"
	case types.BandOrange:
		return " (O)"
	case types.BandRed:
		return " (R)"
	}
	return ""
}

func bandLabel(b types.Band) string {
	if b == types.BandNone || b == "" {
		return ""
	}
	return title(string(b))
}

// =============================================================================
// INSIGHTS
// =============================================================================

// Messages turns insights into plain-text lines, most important first.
// Lines whose condition does not hold are omitted.
func Messages(in statistics.Insights) []string {
	var lines []string

	if len(in.Sections) > 0 && in.HighestValueSection != nil {
		share := 0.0
		if in.TotalProjectValue != 0 {
			share = in.HighestValueSection.AvgTotal / in.TotalProjectValue * 100
		}
		lines = append(lines, fmt.Sprintf(
			"PROJECT OVERVIEW: Total estimated value of %s across %d major sections. Highest value section: %q (%s of total).",
			Money(in.TotalProjectValue), in.SectionCount, in.HighestValueSection.Item.Description, Percent(share)))
	}

	if v := in.MostVolatileSection; v != nil && v.MaxDeviation > statistics.SectionRiskDeviation {
		lines = append(lines, fmt.Sprintf(
			"SECTION RISK: %q shows the highest price volatility with %s deviation between %s and %s. This section requires detailed review.",
			v.Item.Description, Percent(v.MaxDeviation), v.MinBidder, v.MaxBidder))
	}

	if len(in.Critical) > 0 {
		top := in.Critical
		if len(top) > statistics.TopCritical {
			top = top[:statistics.TopCritical]
		}
		concerns := make([]string, len(top))
		for i, s := range top {
			concerns[i] = fmt.Sprintf("%q (%s between %s & %s)", s.Item.Description, Percent(s.MaxDeviation), s.MinBidder, s.MaxBidder)
		}
		lines = append(lines, fmt.Sprintf(
			"CRITICAL DEVIATIONS (%d items >50%%): Top concerns - %s. Immediate clarification required.",
			len(in.Critical), strings.Join(concerns, ", ")))
	}

	if len(in.High) > 0 {
		lines = append(lines, fmt.Sprintf(
			"HIGH DEVIATIONS (%d items 30-50%%): Significant price variations detected. Review specifications and scope clarity for these items.",
			len(in.High)))
	}

	if len(in.Moderate) > 0 {
		lines = append(lines, fmt.Sprintf(
			"MODERATE DEVIATIONS (%d items 15-30%%): Worth a check during bid clarification.",
			len(in.Moderate)))
	}

	if len(in.Ranking) > 1 {
		low, _ := in.Lowest()
		high, _ := in.Highest()
		lines = append(lines, fmt.Sprintf(
			"COST OPTIMIZATION: %s offers the most competitive total (%s), saving %s (%s) vs highest bidder %s.",
			low.Bidder, Money(low.Total), Money(in.SavingsAmount), Percent(in.Savings), high.Bidder))

		if len(in.Ranking) > 2 {
			lines = append(lines, fmt.Sprintf(
				"MARKET POSITIONING: Average of middle bidders: %s. Price spread across all bidders: %s.",
				Money(in.MiddleAverage), Percent(in.Savings)))
		}
	}

	if in.DetailItems > 0 {
		switch {
		case in.Stability > statistics.StabilityHigh:
			lines = append(lines, fmt.Sprintf(
				"MARKET STABILITY: %d items (%s) show consistent pricing (<10%% deviation).",
				in.StableItems, Percent(in.Stability)))
		case in.Stability < statistics.StabilityLow:
			lines = append(lines, fmt.Sprintf(
				"MARKET VOLATILITY: Only %s of items show stable pricing. Consider market conditions, specification clarity and bidder understanding.",
				Percent(in.Stability)))
		}
	}

	if qi := in.QuantityImpact; qi != nil {
		lines = append(lines, fmt.Sprintf(
			"QUANTITY IMPACT: %q (%s %s) has a potential cost impact of %s due to rate variations.",
			qi.Item.Description, Number(qi.Item.Quantity), qi.Item.Unit, Money(qi.Impact)))
	}

	return lines
}

// RenderInsights writes the insight lines to w, one per line.
func RenderInsights(w io.Writer, in statistics.Insights) error {
	lines := Messages(in)
	if len(lines) == 0 {
		_, err := fmt.Fprintln(w, "No insights: not enough priced items.")
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintf(w, "- %s\n", line); err != nil {
			return err
		}
	}
	return nil
}
