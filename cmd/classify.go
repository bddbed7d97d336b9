// =============================================================================
// BoQ Price Leveling - Classify Command
// =============================================================================
//
// This file defines the 'classify' command. It prints how item codes are
// placed in the section hierarchy, which helps when tuning the patterns of a
// project file.
//
// COMMAND USAGE:
//   leveler classify [codes...] [flags]
//
// FLAGS:
//   --description : Description to classify with every code (subtotal check)
//
// The patterns and subtotal keywords of the --config file are used when the
// file exists; otherwise the built-in tables.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/boq-price-leveling/internal/hierarchy"
	"github.com/ginjaninja78/boq-price-leveling/pkg/utils"
)

var description string

var classifyCmd = &cobra.Command{
	Use:   "classify [codes...]",
	Short: "Show the hierarchy level of item codes",
	Long: `The classify command prints the hierarchy level, subtotal flag and
matching pattern for each item code given. Quote codes that contain spaces.

Example:
  leveler classify 1 1.1 1.1.a A1 "01 02"
  leveler classify "" --description "Section 1 Subtotal"`,
	Args: cobra.MinimumNArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		classifier, source, err := loadClassifier()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Patterns: %s\n", source)
		renderClassification(cmd.OutOrStdout(), classifier, args, description)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().StringVar(
		&description,
		"description",
		"",
		"Description to classify with every code",
	)
}

// loadClassifier returns the classifier of the project file, or the default
// one when the file does not exist.
func loadClassifier() (*hierarchy.Classifier, string, error) {
	if !utils.FileExists(cfgFile) {
		return hierarchy.Default(), "built-in", nil
	}
	cfg, err := loadProjectConfig()
	if err != nil {
		return nil, "", err
	}
	classifier, err := cfg.Hierarchy.Classifier()
	if err != nil {
		return nil, "", fmt.Errorf("failed to build classifier: %w", err)
	}
	return classifier, cfgFile, nil
}

func renderClassification(w io.Writer, c *hierarchy.Classifier, codes []string, desc string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Code", "Level", "Subtotal", "Pattern", "Indent"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})

	for _, code := range codes {
		cl := c.Classify(code, desc)
		subtotal := ""
		if cl.IsSubtotal {
			subtotal = "yes"
		}
		t.AppendRow(table.Row{code, cl.Level, subtotal, cl.Label, hierarchy.Formatting(cl.Level, cl.IsSubtotal).Indent})
	}
	t.Render()
}
