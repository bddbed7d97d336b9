// =============================================================================
// BoQ Price Leveling - Subtotal Aggregator
// =============================================================================
//
// This module rolls child totals up into subtotal rows.
//
// TWO PHASES:
//   1. Build: classify every row, then derive an explicit parent/child index
//      with a single forward pass over a stack of unclaimed rows.
//   2. Fold: sum children into each subtotal, bottom-up over that index.
//
// GROUPING RULE:
//   A subtotal at level L claims the unclaimed rows before it, back to the
//   nearest subtotal of level <= L (or the start), whose level is > L.
//   Unclaimed rows of level <= L stay open for an outer subtotal. A nested
//   subtotal that was claimed contributes its own rolled-up total.
//
// The input slice is never modified; Aggregate works on a copy.
//
// =============================================================================

package aggregation

import (
	"github.com/ginjaninja78/boq-price-leveling/internal/hierarchy"
	"github.com/ginjaninja78/boq-price-leveling/internal/types"
)

// Tree is the explicit parent/child index over a classified item slice.
// Indices refer to positions in that slice.
type Tree struct {
	children [][]int
	parent   []int
}

// Children returns the direct children of item i in input order.
func (t *Tree) Children(i int) []int {
	if i < 0 || i >= len(t.children) {
		return nil
	}
	return t.children[i]
}

// Parent returns the index of the subtotal that claimed item i, or -1.
func (t *Tree) Parent(i int) int {
	if i < 0 || i >= len(t.parent) {
		return -1
	}
	return t.parent[i]
}

// Len returns the number of items indexed.
func (t *Tree) Len() int {
	return len(t.parent)
}

// BuildTree groups already-classified items under their subtotals.
//
// PARAMETERS:
//   - items: Items with HierarchyLevel and IsSubtotal stamped.
//
// RETURNS:
//   - The parent/child index. Every child index is smaller than its
//     parent's, so walking subtotals in input order is bottom-up.
func BuildTree(items []types.LineItem) *Tree {
	t := &Tree{
		children: make([][]int, len(items)),
		parent:   make([]int, len(items)),
	}
	for i := range t.parent {
		t.parent[i] = -1
	}

	// open holds indices not yet claimed by any subtotal, in input order.
	open := make([]int, 0, len(items))

	for i, item := range items {
		if !item.IsSubtotal {
			open = append(open, i)
			continue
		}

		level := item.HierarchyLevel

		start := len(open)
		for start > 0 {
			prev := items[open[start-1]]
			if prev.IsSubtotal && prev.HierarchyLevel <= level {
				break
			}
			start--
		}

		var kept []int
		for _, k := range open[start:] {
			if items[k].HierarchyLevel > level {
				t.children[i] = append(t.children[i], k)
				t.parent[k] = i
			} else {
				kept = append(kept, k)
			}
		}

		open = append(open[:start], kept...)
		open = append(open, i)
	}

	return t
}

// =============================================================================
// AGGREGATOR
// =============================================================================

// Aggregator classifies items and rolls up subtotal rows.
type Aggregator struct {
	classifier *hierarchy.Classifier
}

// New returns an Aggregator. A nil classifier selects hierarchy.Default().
func New(classifier *hierarchy.Classifier) *Aggregator {
	if classifier == nil {
		classifier = hierarchy.Default()
	}
	return &Aggregator{classifier: classifier}
}

// Classify returns a copy of items with HierarchyLevel and IsSubtotal set.
func (a *Aggregator) Classify(items []types.LineItem) []types.LineItem {
	out := make([]types.LineItem, len(items))
	for i, item := range items {
		out[i] = item.Clone()
		c := a.classifier.Classify(item.ItemCode, item.Description)
		out[i].HierarchyLevel = c.Level
		out[i].IsSubtotal = c.IsSubtotal
	}
	return out
}

// Aggregate classifies items and rewrites the subtotal rows' totals.
//
// PARAMETERS:
//   - items: Consolidated items in sheet order.
//   - bidders: The ordered bidder names. Only bidders present in a
//     subtotal's rate map are rolled up for that subtotal. When empty, the
//     subtotal's own rate keys are used in lexical order.
//
// RETURNS:
//   - A new slice: classified items with ParentID set on claimed rows and
//     subtotal totals/rates recomputed. The tree used is returned alongside.
func (a *Aggregator) Aggregate(items []types.LineItem, bidders []string) ([]types.LineItem, *Tree) {
	out := a.Classify(items)
	tree := BuildTree(out)
	Fold(out, tree, bidders)
	return out, tree
}

// Fold rewrites subtotal rows in place from their children in tree.
// For each bidder key present in the subtotal's rate map, the total becomes
// the sum of the children's totals (missing entries count as 0) and the rate
// becomes total / quantity, or 0 when the quantity is not positive.
func Fold(items []types.LineItem, tree *Tree, bidders []string) {
	for i := range items {
		item := &items[i]
		if !item.IsSubtotal {
			continue
		}

		for _, k := range tree.Children(i) {
			items[k].ParentID = item.ID
		}

		keys := bidders
		if len(keys) == 0 {
			keys = types.SortedKeys(item.BidderRates)
		}
		if item.BidderTotals == nil {
			item.BidderTotals = make(map[string]float64, len(keys))
		}

		for _, bidder := range keys {
			if _, ok := item.BidderRates[bidder]; !ok {
				continue
			}
			sum := 0.0
			for _, k := range tree.Children(i) {
				sum += items[k].BidderTotals[bidder]
			}
			item.BidderTotals[bidder] = sum
			if item.Quantity > 0 {
				item.BidderRates[bidder] = sum / item.Quantity
			} else {
				item.BidderRates[bidder] = 0
			}
		}
	}
}
