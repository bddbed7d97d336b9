// =============================================================================
// BoQ Price Leveling - Hierarchy Classifier
// =============================================================================
//
// This module infers where a BoQ row sits in the implicit outline from its
// free-text item code, and whether the row is a subtotal.
//
// CLASSIFICATION:
//   1. Subtotal flag: description keywords, or an empty / "-" / "...total..."
//      item code. Independent of the level.
//   2. Level: the normalized code is tested against an ordered pattern table;
//      the first match wins.
//   3. Fallback: separator counting when no pattern matches.
//
// The pattern table and the keyword list are immutable configuration passed
// to NewClassifier. Default() returns the built-in tables.
//
// =============================================================================

package hierarchy

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinLevel and MaxLevel bound every level the classifier returns.
const (
	MinLevel = 1
	MaxLevel = 5
)

// longCodeLength is the code length above which the fallback adds a level.
const longCodeLength = 10

// =============================================================================
// PATTERNS
// =============================================================================

// Pattern is one row of the pattern table.
type Pattern struct {
	// Expr is matched against the trimmed, upper-cased code, or against the
	// trimmed code as written when CaseSensitive is set.
	Expr *regexp.Regexp

	// Level is returned when Expr matches.
	Level int

	// Label describes the pattern class ("Sub-section").
	Label string

	// CaseSensitive patterns see the code before upper-casing. Patterns that
	// look for lowercase suffixes ("1a") need this.
	CaseSensitive bool
}

// ParsePattern compiles a pattern table row.
func ParsePattern(expr string, level int, label string, caseSensitive bool) (Pattern, error) {
	if level < MinLevel || level > MaxLevel {
		return Pattern{}, fmt.Errorf("pattern %q: level %d out of range [%d,%d]", expr, level, MinLevel, MaxLevel)
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("pattern %q: %w", expr, err)
	}
	return Pattern{Expr: re, Level: level, Label: label, CaseSensitive: caseSensitive}, nil
}

// DefaultPatterns returns the built-in pattern table in priority order.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{Expr: regexp.MustCompile(`^[A-Z1-9]\.?$`), Level: 1, Label: "Major section"},
		{Expr: regexp.MustCompile(`^[A-Z1-9]\.[1-9]\.?$`), Level: 2, Label: "Sub-section"},
		{Expr: regexp.MustCompile(`^[A-Z1-9]\.[1-9]\.[1-9]\.?$`), Level: 3, Label: "Sub-sub-section"},
		{Expr: regexp.MustCompile(`^[A-Z1-9]\.[1-9]\.[1-9]\.[1-9]$`), Level: 4, Label: "Detailed item"},
		{Expr: regexp.MustCompile(`^[1-9]\.[1-9]\.[1-9]\.[1-9]\.[1-9]$`), Level: 5, Label: "Very detailed item"},
		{Expr: regexp.MustCompile(`^[1-9][a-z]$`), Level: 2, Label: "Numbered with letter suffix", CaseSensitive: true},
		{Expr: regexp.MustCompile(`^[1-9]\.[1-9][a-z]$`), Level: 3, Label: "Sub-section with letter", CaseSensitive: true},
		{Expr: regexp.MustCompile(`^[IVX]+$`), Level: 1, Label: "Roman numeral section"},
		{Expr: regexp.MustCompile(`^[IVX]+\.[1-9]$`), Level: 2, Label: "Roman numeral sub-section"},
	}
}

// DefaultSubtotalKeywords returns the built-in lowercase subtotal keywords.
func DefaultSubtotalKeywords() []string {
	return []string{
		"subtotal", "sub-total", "sub total", "total", "sum", "carry forward",
		"brought forward", "section total", "chapter total", "group total",
	}
}

// =============================================================================
// CLASSIFIER
// =============================================================================

// Classification is the result of classifying one row.
type Classification struct {
	Level      int
	IsSubtotal bool

	// Label names the matching pattern, or "Structural fallback".
	Label string
}

// FallbackLabel is the label reported when no pattern matched.
const FallbackLabel = "Structural fallback"

// Classifier maps item codes and descriptions to a Classification.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	patterns []Pattern
	keywords []string
}

// NewClassifier builds a classifier from a pattern table and a keyword list.
// Both are copied; keywords are lower-cased.
func NewClassifier(patterns []Pattern, keywords []string) *Classifier {
	c := &Classifier{
		patterns: append([]Pattern(nil), patterns...),
		keywords: make([]string, 0, len(keywords)),
	}
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			c.keywords = append(c.keywords, kw)
		}
	}
	return c
}

// Default returns a classifier with the built-in tables.
func Default() *Classifier {
	return NewClassifier(DefaultPatterns(), DefaultSubtotalKeywords())
}

// Patterns returns a copy of the pattern table.
func (c *Classifier) Patterns() []Pattern {
	return append([]Pattern(nil), c.patterns...)
}

// Classify returns the level and subtotal flag for a row.
//
// PARAMETERS:
//   - itemCode: The raw item code cell.
//   - description: The raw description cell.
//
// RETURNS:
//   - The Classification. Level is always within [MinLevel, MaxLevel].
func (c *Classifier) Classify(itemCode, description string) Classification {
	level, label := c.level(itemCode)
	return Classification{
		Level:      level,
		IsSubtotal: c.IsSubtotal(itemCode, description),
		Label:      label,
	}
}

// IsSubtotal reports whether a row is a rollup row.
func (c *Classifier) IsSubtotal(itemCode, description string) bool {
	desc := strings.ToLower(description)
	for _, kw := range c.keywords {
		if strings.Contains(desc, kw) {
			return true
		}
	}

	code := strings.ToLower(strings.TrimSpace(itemCode))
	return code == "" || code == "-" || strings.Contains(code, "total")
}

// Level returns the outline depth for an item code.
func (c *Classifier) Level(itemCode string) int {
	level, _ := c.level(itemCode)
	return level
}

func (c *Classifier) level(itemCode string) (int, string) {
	raw := strings.TrimSpace(itemCode)
	normalized := strings.ToUpper(raw)

	for _, p := range c.patterns {
		subject := normalized
		if p.CaseSensitive {
			subject = raw
		}
		if p.Expr.MatchString(subject) {
			return max(p.Level, MinLevel), p.Label
		}
	}

	return fallbackLevel(normalized, raw), FallbackLabel
}

// fallbackLevel infers a depth from the separators in a code that matched no
// pattern. normalized is the upper-cased code, raw the trimmed original.
func fallbackLevel(normalized, raw string) int {
	dots := strings.Count(normalized, ".")
	dashes := strings.Count(normalized, "-")
	spaces := countSpaces(normalized)

	level := 1
	switch {
	case dots > 0:
		level = dots + 1
	case dashes > 0:
		level = dashes + 1
	case spaces > 0:
		level = min(spaces+1, MaxLevel)
	}

	if utf8.RuneCountInString(normalized) > longCodeLength {
		level = min(level+1, MaxLevel)
	}
	if hasLower(raw) {
		level = max(level, 2)
	}

	return min(max(level, MinLevel), MaxLevel)
}

func countSpaces(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

func hasLower(s string) bool {
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return true
		}
	}
	return false
}
