// =============================================================================
// BoQ Price Leveling - Configuration Module
// =============================================================================
//
// This module loads the project configuration: which bidder workbooks to
// compare, how to read them, how to classify their item codes, and how the
// comparison is calculated.
//
// CONFIGURATION FILE (project.yaml):
//
//   project: Riverside Clinic
//   output_dir: ./output
//   bidders:
//     - name: Acme Construction
//       file: bids/acme.xlsx
//       sheet: BoQ
//     - name: Bravo Builders
//       file: bids/bravo.csv
//       csv:
//         delimiter: ";"
//   analysis:
//     method: median
//     thresholds: {yellow: 10, orange: 20, red: 30}
//
// Relative bidder paths are resolved against the configuration file's
// directory. Defaults are applied before validation.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/boq-price-leveling/internal/hierarchy"
	"github.com/ginjaninja78/boq-price-leveling/internal/statistics"
	"github.com/ginjaninja78/boq-price-leveling/internal/types"
)

// ErrNoBidders is returned when a configuration names no bidders.
var ErrNoBidders = errors.New("configuration must list at least one bidder")

// Defaults applied by applyProjectConfigDefaults.
const (
	DefaultOutputDir        = "./output"
	DefaultOutputFileFormat = "{project}_price_leveling_{timestamp}.xlsx"
	DefaultLogLevel         = "info"
	DefaultProjectName      = "project"
)

// =============================================================================
// PROJECT CONFIGURATION STRUCTURE
// =============================================================================

// ProjectConfig is the root of project.yaml.
type ProjectConfig struct {
	// Project names the tender. It feeds the {project} placeholder.
	Project string `yaml:"project" validate:"required"`

	// OutputDir receives the comparison workbook and the run logs.
	OutputDir string `yaml:"output_dir" validate:"required"`

	// OutputFileFormat names the workbook. Placeholders:
	//   {project}   - Project name, file-name safe
	//   {timestamp} - Run time (YYYYMMDD_HHMMSS)
	//   {date}      - Run date (YYYY-MM-DD)
	//   {uuid}      - A random UUID
	OutputFileFormat string `yaml:"output_file_format" validate:"required"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// Bidders are compared in the order listed. The first bidder supplies
	// item codes, descriptions, units and the shared quantity.
	Bidders []BidderConfig `yaml:"bidders" validate:"unique=Name,dive"`

	Analysis      AnalysisSettings    `yaml:"analysis"`
	Hierarchy     HierarchySettings   `yaml:"hierarchy"`
	Normalization []NormalizationRule `yaml:"normalization" validate:"dive"`
}

// BidderConfig describes one bidder submission.
type BidderConfig struct {
	// Name identifies the bidder in every column header and report line.
	Name string `yaml:"name" validate:"required"`

	// File is an .xlsx or .csv path.
	File string `yaml:"file" validate:"required"`

	// Sheet selects the worksheet. Empty selects the first sheet.
	Sheet string `yaml:"sheet"`

	// HeaderRow is the 1-based row holding the column headers. Rows above
	// it are ignored. Default: 1
	HeaderRow int `yaml:"header_row" validate:"gte=1"`

	// Mapping overrides the mapping detected from the headers.
	Mapping *types.ColumnMapping `yaml:"mapping" validate:"omitempty"`

	// CSV settings, used only for .csv files.
	CSV CSVSettings `yaml:"csv"`
}

// CSVSettings contains settings for parsing CSV bids.
type CSVSettings struct {
	// Delimiter separates fields. Accepts a character or one of
	// "tab", "pipe", "semicolon". Default: ","
	Delimiter string `yaml:"delimiter"`
}

// AnalysisSettings configures the comparison. Unset display flags keep the
// defaults of types.DefaultAnalysisConfig.
type AnalysisSettings struct {
	Method          string   `yaml:"method" validate:"oneof=average average-minus-extremes median"`
	SelectedBidders []string `yaml:"selected_bidders"`

	ShowQuantities       *bool `yaml:"show_quantities"`
	ShowBidderQuantities *bool `yaml:"show_bidder_quantities"`
	ShowRates            *bool `yaml:"show_rates"`
	ShowTotals           *bool `yaml:"show_totals"`

	Thresholds *types.DeviationThresholds `yaml:"thresholds"`
}

// HierarchySettings replaces the built-in classification tables.
type HierarchySettings struct {
	// SubtotalKeywords replaces the default keyword list when non-empty.
	SubtotalKeywords []string `yaml:"subtotal_keywords"`

	// Patterns replaces the default pattern table when non-empty.
	// Order matters: the first matching pattern wins.
	Patterns []PatternConfig `yaml:"patterns" validate:"dive"`
}

// PatternConfig is one entry of the item-code pattern table.
type PatternConfig struct {
	Expr          string `yaml:"expr" validate:"required"`
	Level         int    `yaml:"level" validate:"min=1,max=5"`
	Label         string `yaml:"label"`
	CaseSensitive bool   `yaml:"case_sensitive"`
}

// NormalizationRule cleans one mapped text column before consolidation.
type NormalizationRule struct {
	// Field is item_code, description or unit.
	Field string `yaml:"field" validate:"oneof=item_code description unit"`

	// Actions are applied in order.
	Actions []NormalizationAction `yaml:"actions" validate:"min=1,dive"`
}

// NormalizationAction is a single clean-up step.
type NormalizationAction struct {
	// Type is one of:
	//   - "trim"                : Remove surrounding whitespace
	//   - "uppercase"           : Convert to upper case
	//   - "lowercase"           : Convert to lower case
	//   - "collapse_spaces"     : Squeeze internal whitespace runs
	//   - "prepend_string"      : Add Value in front
	//   - "append_string"       : Add Value at the end
	//   - "replace"             : Replace Find with Value
	//   - "regex_replace"       : Replace regexp Find with Value
	//   - "strip_suffix"        : Remove a trailing Value (e.g. a trailing ".")
	//   - "lookup"              : Map the whole value through LookupTable
	//   - "pad_zeros_to_length" : Left-pad with zeros to the length in Value
	Type string `yaml:"type" validate:"oneof=trim uppercase lowercase collapse_spaces prepend_string append_string replace regex_replace strip_suffix lookup pad_zeros_to_length"`

	Value       string            `yaml:"value"`
	Find        string            `yaml:"find,omitempty"`
	LookupTable map[string]string `yaml:"lookup_table,omitempty"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadProjectConfig loads and validates a project configuration file.
//
// PARAMETERS:
//   - configPath: The path to project.yaml.
//
// RETURNS:
//   - The configuration with defaults applied and bidder paths resolved.
//   - An error if the file cannot be read, parsed or validated.
func LoadProjectConfig(configPath string) (*ProjectConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	cfg.resolvePaths(filepath.Dir(configPath))
	return cfg, nil
}

// Parse decodes, defaults and validates configuration bytes.
func Parse(data []byte) (*ProjectConfig, error) {
	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyProjectConfigDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// applyProjectConfigDefaults sets default values for any unset options.
func applyProjectConfigDefaults(cfg *ProjectConfig) {
	if cfg.Project == "" {
		cfg.Project = DefaultProjectName
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}
	if cfg.OutputFileFormat == "" {
		cfg.OutputFileFormat = DefaultOutputFileFormat
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	for i := range cfg.Bidders {
		b := &cfg.Bidders[i]
		if b.HeaderRow == 0 {
			b.HeaderRow = 1
		}
		if b.CSV.Delimiter == "" {
			b.CSV.Delimiter = ","
		}
	}

	if cfg.Analysis.Method == "" {
		cfg.Analysis.Method = string(types.MethodAverage)
	}
	if cfg.Analysis.Thresholds == nil {
		th := types.DefaultThresholds()
		cfg.Analysis.Thresholds = &th
	}
}

// resolvePaths makes relative bidder and output paths relative to dir.
func (c *ProjectConfig) resolvePaths(dir string) {
	for i := range c.Bidders {
		if !filepath.IsAbs(c.Bidders[i].File) {
			c.Bidders[i].File = filepath.Join(dir, c.Bidders[i].File)
		}
	}
	if !filepath.IsAbs(c.OutputDir) {
		c.OutputDir = filepath.Join(dir, c.OutputDir)
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

var validate = validator.New()

// Validate checks the struct tags, the bidder list and the thresholds.
// Threshold ordering problems are reported with the statistics sentinels.
func (c *ProjectConfig) Validate() error {
	if len(c.Bidders) == 0 {
		return ErrNoBidders
	}

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, formatValidationError(fe))
		}
		return errors.New(strings.Join(msgs, "; "))
	}

	if c.Analysis.Thresholds != nil {
		if err := statistics.ValidateThresholds(*c.Analysis.Thresholds); err != nil {
			return err
		}
	}

	names := make(map[string]bool, len(c.Bidders))
	for _, b := range c.Bidders {
		names[b.Name] = true
	}
	for _, s := range c.Analysis.SelectedBidders {
		if !names[s] {
			return fmt.Errorf("analysis.selected_bidders: unknown bidder %q", s)
		}
	}

	return nil
}

// formatValidationError turns a validator field error into a config message.
func formatValidationError(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "unique":
		return fmt.Sprintf("%s must have unique %s values", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// =============================================================================
// DERIVED SETTINGS
// =============================================================================

// AnalysisConfig returns the engine configuration described by the file.
func (c *ProjectConfig) AnalysisConfig() types.AnalysisConfig {
	out := types.DefaultAnalysisConfig()
	a := c.Analysis

	if a.Method != "" {
		out.Method = types.CalculationMethod(a.Method)
	}
	out.SelectedBidders = append([]string(nil), a.SelectedBidders...)
	if a.ShowQuantities != nil {
		out.ShowQuantities = *a.ShowQuantities
	}
	if a.ShowBidderQuantities != nil {
		out.ShowBidderQuantities = *a.ShowBidderQuantities
	}
	if a.ShowRates != nil {
		out.ShowRates = *a.ShowRates
	}
	if a.ShowTotals != nil {
		out.ShowTotals = *a.ShowTotals
	}
	if a.Thresholds != nil {
		out.Thresholds = *a.Thresholds
	}
	return out
}

// Classifier builds the hierarchy classifier. Empty tables select the
// built-in defaults.
func (h HierarchySettings) Classifier() (*hierarchy.Classifier, error) {
	patterns := hierarchy.DefaultPatterns()
	if len(h.Patterns) > 0 {
		patterns = make([]hierarchy.Pattern, 0, len(h.Patterns))
		for i, pc := range h.Patterns {
			p, err := hierarchy.ParsePattern(pc.Expr, pc.Level, pc.Label, pc.CaseSensitive)
			if err != nil {
				return nil, fmt.Errorf("hierarchy.patterns[%d]: %w", i, err)
			}
			patterns = append(patterns, p)
		}
	}

	keywords := hierarchy.DefaultSubtotalKeywords()
	if len(h.SubtotalKeywords) > 0 {
		keywords = h.SubtotalKeywords
	}

	return hierarchy.NewClassifier(patterns, keywords), nil
}

// BidderNames returns the configured bidder names in order.
func (c *ProjectConfig) BidderNames() []string {
	names := make([]string, len(c.Bidders))
	for i, b := range c.Bidders {
		names[i] = b.Name
	}
	return names
}
