package xlsxwriter

import (
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/boq-price-leveling/internal/hierarchy"
	"github.com/ginjaninja78/boq-price-leveling/internal/types"
)

// columnKind selects alignment and number format.
type columnKind int

const (
	kindText columnKind = iota
	kindDescription
	kindQuantity
	kindRate
	kindTotal
	kindPercent
)

func (k columnKind) numFmt() string {
	switch k {
	case kindQuantity:
		return QuantityFormat
	case kindRate:
		return RateFormat
	case kindTotal:
		return TotalFormat
	case kindPercent:
		return PercentFormat
	}
	return ""
}

// Fills for banded cells and striped rows.
const (
	headerFill = "008080"
	stripeFill = "F8F9FA"
	gridColour = "CCCCCC"
)

var bandFills = map[types.Band]string{
	types.BandYellow: "FEF3C7",
	types.BandOrange: "FED7AA",
	types.BandRed:    "FECACA",
}

// styleKey identifies one distinct cell style. Styles are registered with
// the workbook once per key.
type styleKey struct {
	header   bool
	level    int
	subtotal bool
	kind     columnKind
	band     types.Band
	stripe   bool
}

func (w *writer) style(key styleKey) (int, error) {
	if id, ok := w.styles[key]; ok {
		return id, nil
	}
	id, err := w.f.NewStyle(buildStyle(key))
	if err != nil {
		return 0, err
	}
	w.styles[key] = id
	return id, nil
}

func buildStyle(key styleKey) *excelize.Style {
	if key.header {
		return &excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
			Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 12},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
			Border:    borders("000000", "000000", "000000"),
		}
	}

	level := key.level
	if level < 1 {
		level = 1
	}
	format := hierarchy.Formatting(level, key.subtotal)

	s := &excelize.Style{
		Font: &excelize.Font{
			Bold:   format.Bold,
			Italic: format.Italic,
			Size:   format.FontSize,
			Color:  format.FontColor,
		},
		Alignment: &excelize.Alignment{Horizontal: "right", Vertical: "center"},
		Border:    borders(gridColour, format.TopBorder, format.BottomBorder),
	}

	fill := format.Fill
	if band, ok := bandFills[key.band]; ok {
		fill = band
	} else if fill == "" && key.stripe {
		fill = stripeFill
	}
	if fill != "" {
		s.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{fill}}
	}

	switch key.kind {
	case kindText:
		s.Alignment.Horizontal = "left"
	case kindDescription:
		s.Alignment.Horizontal = "left"
		s.Alignment.Indent = format.Indent
	}
	if numFmt := key.kind.numFmt(); numFmt != "" {
		s.CustomNumFmt = &numFmt
	}

	return s
}

// borders returns thin borders on all sides; top and bottom colours fall
// back to grid when empty.
func borders(grid, top, bottom string) []excelize.Border {
	if top == "" {
		top = grid
	}
	if bottom == "" {
		bottom = grid
	}
	return []excelize.Border{
		{Type: "left", Color: grid, Style: 1},
		{Type: "right", Color: grid, Style: 1},
		{Type: "top", Color: top, Style: 1},
		{Type: "bottom", Color: bottom, Style: 1},
	}
}
