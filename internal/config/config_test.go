package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/boq-price-leveling/internal/statistics"
	"github.com/ginjaninja78/boq-price-leveling/internal/types"
)

const sampleConfig = `
project: Riverside Clinic
bidders:
  - name: Acme
    file: bids/acme.xlsx
    sheet: BoQ
  - name: Bravo
    file: /abs/bravo.csv
    header_row: 3
    csv:
      delimiter: ";"
    mapping:
      item_code: 0
      description: 1
      unit: 2
      quantity: 3
      rate: 5
      total: 6
analysis:
  method: median
  selected_bidders: [Bravo]
  show_totals: false
  show_bidder_quantities: true
hierarchy:
  subtotal_keywords: [zwischensumme]
  patterns:
    - expr: '^SEC-\d+$'
      level: 1
      label: Section
normalization:
  - field: item_code
    actions:
      - type: trim
      - type: strip_suffix
        value: "."
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "project.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadProjectConfig(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	dir := filepath.Dir(path)

	cfg, err := LoadProjectConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "Riverside Clinic", cfg.Project)
	assert.Equal(t, filepath.Join(dir, "output"), cfg.OutputDir)
	assert.Equal(t, DefaultOutputFileFormat, cfg.OutputFileFormat)
	assert.Equal(t, "info", cfg.LogLevel)

	require.Len(t, cfg.Bidders, 2)
	assert.Equal(t, filepath.Join(dir, "bids", "acme.xlsx"), cfg.Bidders[0].File)
	assert.Equal(t, 1, cfg.Bidders[0].HeaderRow)
	assert.Equal(t, ",", cfg.Bidders[0].CSV.Delimiter)
	assert.Nil(t, cfg.Bidders[0].Mapping)
	assert.Equal(t, "/abs/bravo.csv", cfg.Bidders[1].File)
	assert.Equal(t, 3, cfg.Bidders[1].HeaderRow)
	require.NotNil(t, cfg.Bidders[1].Mapping)
	assert.Equal(t, 5, cfg.Bidders[1].Mapping.Rate)
	assert.Equal(t, []string{"Acme", "Bravo"}, cfg.BidderNames())

	require.Len(t, cfg.Normalization, 1)
	assert.Equal(t, "strip_suffix", cfg.Normalization[0].Actions[1].Type)
}

func TestAnalysisConfigFromFile(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	ac := cfg.AnalysisConfig()
	assert.Equal(t, types.MethodMedian, ac.Method)
	assert.Equal(t, []string{"Bravo"}, ac.SelectedBidders)
	assert.True(t, ac.ShowQuantities, "unset flags keep defaults")
	assert.True(t, ac.ShowBidderQuantities)
	assert.True(t, ac.ShowRates)
	assert.False(t, ac.ShowTotals)
	assert.Equal(t, types.DefaultThresholds(), ac.Thresholds)
}

func TestHierarchyClassifierFromFile(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	c, err := cfg.Hierarchy.Classifier()
	require.NoError(t, err)

	got := c.Classify("SEC-4", "Zwischensumme Rohbau")
	assert.Equal(t, 1, got.Level)
	assert.True(t, got.IsSubtotal)
	assert.False(t, c.IsSubtotal("SEC-4", "Sub total"), "keywords are replaced, not merged")

	defaults, err := HierarchySettings{}.Classifier()
	require.NoError(t, err)
	assert.Equal(t, 2, defaults.Level("1.1"))
}

func TestHierarchyClassifierRejectsBadPattern(t *testing.T) {
	h := HierarchySettings{Patterns: []PatternConfig{{Expr: "([", Level: 1}}}
	_, err := h.Classifier()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hierarchy.patterns[0]")
}

func TestValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "no bidders",
			body:    "project: x\n",
			wantErr: ErrNoBidders.Error(),
		},
		{
			name:    "missing file",
			body:    "bidders:\n  - name: Acme\n",
			wantErr: "Bidders[0].File is required",
		},
		{
			name:    "duplicate names",
			body:    "bidders:\n  - {name: Acme, file: a.xlsx}\n  - {name: Acme, file: b.xlsx}\n",
			wantErr: "Bidders must have unique Name values",
		},
		{
			name:    "unknown method",
			body:    "bidders:\n  - {name: Acme, file: a.xlsx}\nanalysis:\n  method: mode\n",
			wantErr: "Analysis.Method must be one of",
		},
		{
			name:    "bad log level",
			body:    "log_level: loud\nbidders:\n  - {name: Acme, file: a.xlsx}\n",
			wantErr: "LogLevel must be one of",
		},
		{
			name:    "negative mapping",
			body:    "bidders:\n  - {name: Acme, file: a.xlsx, mapping: {rate: -1}}\n",
			wantErr: "Bidders[0].Mapping.Rate must be at least 0",
		},
		{
			name:    "pattern level",
			body:    "bidders:\n  - {name: Acme, file: a.xlsx}\nhierarchy:\n  patterns:\n    - {expr: '^X$', level: 9}\n",
			wantErr: "Hierarchy.Patterns[0].Level must be at most 5",
		},
		{
			name:    "unknown action",
			body:    "bidders:\n  - {name: Acme, file: a.xlsx}\nnormalization:\n  - field: unit\n    actions: [{type: shout}]\n",
			wantErr: "Normalization[0].Actions[0].Type must be one of",
		},
		{
			name:    "unknown selected bidder",
			body:    "bidders:\n  - {name: Acme, file: a.xlsx}\nanalysis:\n  selected_bidders: [Ghost]\n",
			wantErr: `unknown bidder "Ghost"`,
		},
		{
			name:    "malformed yaml",
			body:    "bidders: [",
			wantErr: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestThresholdOrderIsFlagged(t *testing.T) {
	body := "bidders:\n  - {name: Acme, file: a.xlsx}\nanalysis:\n  thresholds: {yellow: 30, orange: 20, red: 10}\n"
	_, err := Parse([]byte(body))
	assert.ErrorIs(t, err, statistics.ErrThresholdOrder)

	body = "bidders:\n  - {name: Acme, file: a.xlsx}\nanalysis:\n  thresholds: {yellow: -5, orange: 20, red: 30}\n"
	_, err = Parse([]byte(body))
	assert.ErrorIs(t, err, statistics.ErrNegativeThreshold)
}

func TestLoadProjectConfigMissingFile(t *testing.T) {
	_, err := LoadProjectConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}
