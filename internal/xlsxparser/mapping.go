package xlsxparser

import (
	"strings"

	"github.com/ginjaninja78/boq-price-leveling/internal/types"
)

// headerKeywords lists, per field, the header fragments tried in order.
// The first keyword that any header contains wins; "item" is tried last
// for descriptions so an "Item" code column does not shadow "Description".
var headerKeywords = map[string][]string{
	types.FieldItemCode:    {"code", "item"},
	types.FieldDescription: {"description", "desc", "item"},
	types.FieldUnit:        {"unit", "uom"},
	types.FieldQuantity:    {"quantity", "qty"},
	types.FieldRate:        {"rate", "price"},
	types.FieldTotal:       {"total", "amount"},
}

// DefaultColumnMapping guesses a mapping from header text. Matching is
// case-insensitive on substrings. A field with no matching header maps to
// column 0.
func DefaultColumnMapping(headers []string) types.ColumnMapping {
	lower := make([]string, len(headers))
	for i, h := range headers {
		lower[i] = strings.ToLower(h)
	}

	find := func(field string) int {
		for _, kw := range headerKeywords[field] {
			for i, h := range lower {
				if strings.Contains(h, kw) {
					return i
				}
			}
		}
		return 0
	}

	return types.ColumnMapping{
		ItemCode:    find(types.FieldItemCode),
		Description: find(types.FieldDescription),
		Unit:        find(types.FieldUnit),
		Quantity:    find(types.FieldQuantity),
		Rate:        find(types.FieldRate),
		Total:       find(types.FieldTotal),
	}
}
