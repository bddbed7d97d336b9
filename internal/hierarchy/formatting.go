package hierarchy

// RowFormat describes how a row is presented for a given level.
type RowFormat struct {
	// Fill is an RGB hex background without '#'. Empty means no fill.
	Fill string

	// FontColor is an RGB hex font colour. Empty means default.
	FontColor string

	Bold   bool
	Italic bool

	// FontSize is in points.
	FontSize float64

	// Indent is the cell indent step count.
	Indent int

	// TopBorder / BottomBorder are RGB hex border colours, empty for none.
	TopBorder    string
	BottomBorder string
}

var levelFormats = map[int]RowFormat{
	1: {Fill: "F0F9FF", Bold: true, FontSize: 12, Indent: 0, TopBorder: "008080"},
	2: {Fill: "F8FAFC", Bold: true, FontSize: 11, Indent: 1, TopBorder: "CBD5E1"},
	3: {Fill: "FAFAFA", FontSize: 10, Indent: 2},
	4: {FontSize: 10, Indent: 3},
	5: {FontSize: 9, Italic: true, Indent: 4},
}

// Formatting returns the row format for a level, overlaid with the subtotal
// treatment when isSubtotal is set. Levels outside the table use level 5.
func Formatting(level int, isSubtotal bool) RowFormat {
	f, ok := levelFormats[level]
	if !ok {
		f = levelFormats[MaxLevel]
	}
	if isSubtotal {
		f.Fill = "E0F2F1"
		f.FontColor = "004D40"
		f.Bold = true
		f.TopBorder = "008080"
		f.BottomBorder = "008080"
	}
	return f
}
