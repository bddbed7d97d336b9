// =============================================================================
// BoQ Price Leveling - Text Normalization
// =============================================================================
//
// This module cleans the mapped text columns of a bidder's sheet before
// consolidation. Bids for the same tender rarely agree on presentation:
// one bidder writes "1.1.", another " 1.1", a third "m³" where the others
// write "m3". Normalization rules bring those into line so the shared fields
// and the hierarchy classifier see consistent text.
//
// RULES (project.yaml):
//
//   normalization:
//     - field: item_code
//       actions:
//         - type: trim
//         - type: strip_suffix
//           value: "."
//     - field: unit
//       actions:
//         - type: lookup
//           lookup_table: {"m³": "m3", "m²": "m2"}
//
// Only item_code, description and unit are touched. Numeric columns are
// never rewritten.
//
// =============================================================================

package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ginjaninja78/boq-price-leveling/internal/config"
	"github.com/ginjaninja78/boq-price-leveling/internal/consolidation"
	"github.com/ginjaninja78/boq-price-leveling/internal/types"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// =============================================================================
// NORMALIZER
// =============================================================================

// Normalizer applies the configured rules. It is safe for concurrent use.
type Normalizer struct {
	rules   []config.NormalizationRule
	fields  []string
	regexps map[string]*regexp.Regexp
}

// New compiles the rules.
//
// RETURNS:
//   - The Normalizer.
//   - An error if a regex_replace pattern does not compile.
func New(rules []config.NormalizationRule) (*Normalizer, error) {
	n := &Normalizer{
		rules:   rules,
		regexps: make(map[string]*regexp.Regexp),
	}

	seen := make(map[string]bool)
	for _, rule := range rules {
		if !seen[rule.Field] {
			seen[rule.Field] = true
			n.fields = append(n.fields, rule.Field)
		}
		for _, action := range rule.Actions {
			if action.Type != "regex_replace" || action.Find == "" {
				continue
			}
			if _, ok := n.regexps[action.Find]; ok {
				continue
			}
			re, err := regexp.Compile(action.Find)
			if err != nil {
				return nil, fmt.Errorf("normalization for %s: invalid regex pattern: %w", rule.Field, err)
			}
			n.regexps[action.Find] = re
		}
	}

	return n, nil
}

// Empty reports whether there is nothing to apply.
func (n *Normalizer) Empty() bool {
	return n == nil || len(n.rules) == 0
}

// Value runs every rule for field over value, in order.
func (n *Normalizer) Value(field, value string) string {
	if n == nil {
		return value
	}
	for _, rule := range n.rules {
		if rule.Field != field {
			continue
		}
		for _, action := range rule.Actions {
			value = n.apply(value, action)
		}
	}
	return value
}

// Bidder returns a copy of b whose selected sheet has its mapped text
// columns normalized, plus the number of cells that changed. The input
// sheet is left untouched. Bidders without a selected sheet or mapping are
// returned as-is.
func (n *Normalizer) Bidder(b types.Bidder) (types.Bidder, int) {
	if n.Empty() || b.Mapping == nil {
		return b, 0
	}
	src, ok := b.Sheet()
	if !ok {
		return b, 0
	}

	sheet := types.Sheet{
		Name:    src.Name,
		Headers: src.Headers,
		Rows:    make([][]any, len(src.Rows)),
	}

	changed := 0
	for r, row := range src.Rows {
		out, copied := row, false
		for _, field := range n.fields {
			col := b.Mapping.Column(field)
			if col < 0 || col >= len(row) || row[col] == nil {
				continue
			}
			before := consolidation.CellText(row, col)
			after := n.Value(field, before)
			if after == before {
				continue
			}
			if !copied {
				out, copied = append([]any(nil), row...), true
			}
			out[col] = after
			changed++
		}
		sheet.Rows[r] = out
	}

	b.Sheets = append([]types.Sheet(nil), b.Sheets...)
	for i := range b.Sheets {
		if b.Sheets[i].Name == sheet.Name {
			b.Sheets[i] = sheet
			break
		}
	}

	return b, changed
}

// =============================================================================
// ACTIONS
// =============================================================================

// apply runs a single action. Unusable parameters leave the value as-is.
func (n *Normalizer) apply(value string, action config.NormalizationAction) string {
	switch action.Type {
	case "trim":
		return strings.TrimSpace(value)

	case "uppercase":
		return strings.ToUpper(value)

	case "lowercase":
		return strings.ToLower(value)

	case "collapse_spaces":
		return strings.TrimSpace(whitespaceRun.ReplaceAllString(value, " "))

	case "prepend_string":
		return action.Value + value

	case "append_string":
		return value + action.Value

	case "replace":
		if action.Find == "" {
			return value
		}
		return strings.ReplaceAll(value, action.Find, action.Value)

	case "regex_replace":
		re, ok := n.regexps[action.Find]
		if !ok {
			return value
		}
		return re.ReplaceAllString(value, action.Value)

	case "strip_suffix":
		return strings.TrimSuffix(value, action.Value)

	case "lookup":
		if replacement, ok := action.LookupTable[value]; ok {
			return replacement
		}
		return value

	case "pad_zeros_to_length":
		target, err := strconv.Atoi(action.Value)
		if err != nil || target <= 0 || len(value) >= target {
			return value
		}
		return strings.Repeat("0", target-len(value)) + value
	}

	return value
}
