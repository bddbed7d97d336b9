// =============================================================================
// BoQ Price Leveling - Main Entry Point
// =============================================================================
//
// USAGE:
//   leveler analyze    - Level the bids of a project and write the workbook
//   leveler classify   - Show the hierarchy level of item codes
//   leveler version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Leveling engine, parsers and writers
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/boq-price-leveling/cmd"
)

func main() {
	cmd.Execute()
}
