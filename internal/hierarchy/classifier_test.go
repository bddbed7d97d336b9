package hierarchy

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyPatternLevels(t *testing.T) {
	c := Default()

	tests := []struct {
		code  string
		level int
		label string
	}{
		{"1", 1, "Major section"},
		{"A", 1, "Major section"},
		{"b.", 1, "Major section"},
		{"9.", 1, "Major section"},
		{"1.1", 2, "Sub-section"},
		{"A.2", 2, "Sub-section"},
		{"a.2.", 2, "Sub-section"},
		{"1.2.3", 3, "Sub-sub-section"},
		{"C.1.1.", 3, "Sub-sub-section"},
		{"1.1.1.1", 4, "Detailed item"},
		{"D.4.2.1", 4, "Detailed item"},
		{"1.1.1.1.1", 5, "Very detailed item"},
		{"1a", 2, "Numbered with letter suffix"},
		{"1.1a", 3, "Sub-section with letter"},
		{"II", 1, "Roman numeral section"},
		{"XIV", 1, "Roman numeral section"},
		{"IV.2", 2, "Roman numeral sub-section"},
		{"  2.3  ", 2, "Sub-section"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			for _, desc := range []string{"", "Excavation", "Section total", "SUM OF ITEMS"} {
				got := c.Classify(tt.code, desc)
				assert.Equal(t, tt.level, got.Level, "description %q", desc)
				assert.Equal(t, tt.label, got.Label)
			}
		})
	}
}

func TestClassifyFallback(t *testing.T) {
	c := Default()

	tests := []struct {
		name  string
		code  string
		level int
	}{
		{"empty", "", 1},
		{"zero digit breaks patterns", "10", 1},
		{"dotted with zero", "1.10", 2},
		{"deep dotted", "1.0.0.0", 4},
		{"dots capped", "1.2.3.4.5.6.7", 5},
		{"dashes", "CONC-001", 2},
		{"two dashes", "A-1-2", 3},
		{"spaces", "SEC 1 A", 3},
		{"spaces capped", "A B C D E F G", 5},
		{"long code adds a level", "ABCDEFGHIJK", 2},
		{"long dashed code", "CONCRETE-0001", 3},
		{"lowercase raises to two", "abc", 2},
		{"uppercase letter suffix", "1A", 1},
		{"dash only", "-", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.code, "")
			assert.Equal(t, tt.level, got.Level)
			assert.Equal(t, FallbackLabel, got.Label)
		})
	}
}

func TestClassifySubtotal(t *testing.T) {
	c := Default()

	tests := []struct {
		code, desc string
		want       bool
	}{
		{"1", "Excavation", false},
		{"1.1", "Concrete Grade C25/30", false},
		{"", "Section 1 Subtotal", true},
		{"", "Anything", true},
		{" - ", "Anything", true},
		{"TOTAL-A", "Anything", true},
		{"1.9", "Carry Forward to summary", true},
		{"2", "BROUGHT FORWARD", true},
		{"3", "Sub Total", true},
		{"4", "Chapter Total", true},
		{"5", "Consumables sum", true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Classify(tt.code, tt.desc).IsSubtotal, "code %q desc %q", tt.code, tt.desc)
	}
}

func TestClassifyEndToEndScenario(t *testing.T) {
	c := Default()

	got := c.Classify("1", "Substructure")
	assert.Equal(t, Classification{Level: 1, IsSubtotal: false, Label: "Major section"}, got)

	assert.Equal(t, 2, c.Classify("1.1", "Excavation").Level)

	sub := c.Classify("", "Section 1 Subtotal")
	assert.True(t, sub.IsSubtotal)
	assert.Equal(t, 1, sub.Level)
}

func TestClassifyKeepsCodeLevelForSubtotals(t *testing.T) {
	// A subtotal keyword does not alter the level derived from the code.
	got := Default().Classify("1.2.3", "Group total")
	assert.True(t, got.IsSubtotal)
	assert.Equal(t, 3, got.Level)
}

func TestCustomTables(t *testing.T) {
	p, err := ParsePattern(`^SEC-\d+$`, 1, "Section", false)
	require.NoError(t, err)

	c := NewClassifier([]Pattern{p}, []string{"  Zwischensumme "})

	assert.Equal(t, 1, c.Level("sec-12"))
	assert.Equal(t, 4, c.Level("C.1.1."), "default patterns are not implied")
	assert.True(t, c.IsSubtotal("9", "ZWISCHENSUMME Los 1"))
	assert.False(t, c.IsSubtotal("9", "Subtotal"))
}

func TestParsePatternErrors(t *testing.T) {
	_, err := ParsePattern(`([`, 1, "bad", false)
	assert.Error(t, err)

	_, err = ParsePattern(`^A$`, 0, "bad level", false)
	assert.Error(t, err)

	_, err = ParsePattern(`^A$`, 6, "bad level", false)
	assert.Error(t, err)
}

func TestPatternsIsACopy(t *testing.T) {
	c := Default()
	ps := c.Patterns()
	ps[0] = Pattern{Expr: regexp.MustCompile(`.*`), Level: 5}

	assert.Equal(t, 1, c.Level("1"))
}

func TestFormatting(t *testing.T) {
	f := Formatting(1, false)
	assert.True(t, f.Bold)
	assert.Equal(t, "F0F9FF", f.Fill)

	f = Formatting(5, false)
	assert.True(t, f.Italic)
	assert.Equal(t, 4, f.Indent)

	assert.Equal(t, Formatting(5, false), Formatting(9, false))

	sub := Formatting(3, true)
	assert.Equal(t, "E0F2F1", sub.Fill)
	assert.True(t, sub.Bold)
	assert.Equal(t, 2, sub.Indent)
}
