package leveling

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ginjaninja78/boq-price-leveling/internal/config"
	"github.com/ginjaninja78/boq-price-leveling/internal/csvparser"
	"github.com/ginjaninja78/boq-price-leveling/internal/types"
	"github.com/ginjaninja78/boq-price-leveling/internal/xlsxparser"
)

// LoadError is a bidder file that could not be read.
type LoadError struct {
	Bidder string
	File   string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("bidder %s (%s): %v", e.Bidder, filepath.Base(e.File), e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// LoadBidder reads one bidder file and selects its sheet and mapping.
//
// PARAMETERS:
//   - bc: The bidder configuration. .csv files are read with the CSV
//     settings; anything else is opened as a workbook.
//
// RETURNS:
//   - The bidder. The sheet is the configured one, else the first sheet.
//     The mapping is the configured one, else detected from the headers.
//     A configured sheet that does not exist is kept as selected so that
//     preflight reports it.
//   - An error if the file cannot be read.
func LoadBidder(bc config.BidderConfig) (types.Bidder, error) {
	b := types.Bidder{Name: bc.Name, FileName: bc.File}

	switch strings.ToLower(filepath.Ext(bc.File)) {
	case ".csv", ".txt":
		sheet, err := csvparser.Parse(bc.File, bc.CSV, bc.HeaderRow)
		if err != nil {
			return b, err
		}
		b.Sheets = []types.Sheet{*sheet}
	default:
		wb, err := xlsxparser.Parse(bc.File, bc.HeaderRow)
		if err != nil {
			return b, err
		}
		b.Sheets = wb.Sheets
	}

	b.SelectedSheet = bc.Sheet
	if b.SelectedSheet == "" && len(b.Sheets) > 0 {
		b.SelectedSheet = b.Sheets[0].Name
	}

	if bc.Mapping != nil {
		m := *bc.Mapping
		b.Mapping = &m
	} else if sheet, ok := b.Sheet(); ok {
		m := xlsxparser.DefaultColumnMapping(sheet.Headers)
		b.Mapping = &m
	}

	return b, nil
}

// loadBidders reads all bidder files concurrently. The returned slice keeps
// the configured order; failed bidders are reported in the error slice and
// left out.
func loadBidders(ctx context.Context, configs []config.BidderConfig) ([]types.Bidder, []*LoadError) {
	type loaded struct {
		index  int
		bidder types.Bidder
		err    error
	}

	var wg sync.WaitGroup
	results := make(chan loaded, len(configs))

	for i, bc := range configs {
		wg.Add(1)
		go func(i int, bc config.BidderConfig) {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				results <- loaded{index: i, err: err}
				return
			}
			b, err := LoadBidder(bc)
			results <- loaded{index: i, bidder: b, err: err}
		}(i, bc)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	slots := make([]loaded, len(configs))
	for r := range results {
		slots[r.index] = r
	}

	var bidders []types.Bidder
	var failures []*LoadError
	for i, r := range slots {
		if r.err != nil {
			failures = append(failures, &LoadError{Bidder: configs[i].Name, File: configs[i].File, Err: r.err})
			continue
		}
		bidders = append(bidders, r.bidder)
	}
	return bidders, failures
}
