package market

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// MinColumns is the narrowest table the report accepts: four fixed columns
// plus at least one price column of the time series.
const MinColumns = 5

var (
	ErrEmptyTable          = errors.New("price table is empty")
	ErrInsufficientColumns = errors.New("insufficient columns")
	ErrMissingHeader       = errors.New("missing header")
)

// RawRow is a spreadsheet row as returned by the data source.
type RawRow = []interface{}

// Amount is a numeric cell. Valid is false when the cell was empty or not a number.
type Amount struct {
	Value float64
	Valid bool
}

// Present wraps a known value.
func Present(v float64) Amount {
	return Amount{Value: v, Valid: true}
}

// Missing is the zero Amount.
var Missing = Amount{}

// PriceRecord is the typed view of one data row.
type PriceRecord struct {
	Row           int // 1-based row in the sheet, header is row 1
	Name          string
	HistoricalLow Amount
	CurrentPrice  Amount
	PricePerUnit  Amount
	PreviousPrice Amount
}

// Headers names the columns holding the fixed fields.
type Headers struct {
	Name          string
	HistoricalLow string
	CurrentPrice  string
	PricePerUnit  string
}

// DefaultHeaders matches the "Live Prices" sheet maintained by the scraper.
func DefaultHeaders() Headers {
	return Headers{
		Name:          "Vegetable",
		HistoricalLow: "Historical Low",
		CurrentPrice:  "Current Price",
		PricePerUnit:  "Price per Kg",
	}
}

// Layout holds the column positions resolved from a header row.
type Layout struct {
	Columns       int
	Name          int
	HistoricalLow int
	CurrentPrice  int
	PricePerUnit  int
	Previous      int
}

// ResolveLayout looks up every expected header by name and derives the
// previous-price column as the last-but-one column of the table.
func ResolveLayout(header RawRow, headers Headers) (Layout, error) {
	if len(header) < MinColumns {
		return Layout{}, fmt.Errorf("%w: header has %d, need at least %d", ErrInsufficientColumns, len(header), MinColumns)
	}

	index := make(map[string]int, len(header))
	for i := range header {
		key := normalizeHeader(extractStringField(header, i))
		if key == "" {
			continue
		}
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}

	lookup := func(name string) (int, error) {
		i, ok := index[normalizeHeader(name)]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrMissingHeader, name)
		}
		return i, nil
	}

	var (
		layout = Layout{Columns: len(header), Previous: len(header) - 2}
		err    error
	)
	if layout.Name, err = lookup(headers.Name); err != nil {
		return Layout{}, err
	}
	if layout.HistoricalLow, err = lookup(headers.HistoricalLow); err != nil {
		return Layout{}, err
	}
	if layout.CurrentPrice, err = lookup(headers.CurrentPrice); err != nil {
		return Layout{}, err
	}
	if layout.PricePerUnit, err = lookup(headers.PricePerUnit); err != nil {
		return Layout{}, err
	}

	log.Debug().
		Int("columns", layout.Columns).
		Int("previous_column", layout.Previous).
		Msg("Resolved price table layout")

	return layout, nil
}

// ResolveRecord maps a data row onto a PriceRecord. Cells that are absent or
// not numeric become Missing; the row itself never fails.
func ResolveRecord(row RawRow, layout Layout, rowIndex int) PriceRecord {
	return PriceRecord{
		Row:           rowIndex,
		Name:          strings.TrimSpace(extractStringField(row, layout.Name)),
		HistoricalLow: ParseAmount(cellAt(row, layout.HistoricalLow)),
		CurrentPrice:  ParseAmount(cellAt(row, layout.CurrentPrice)),
		PricePerUnit:  ParseAmount(cellAt(row, layout.PricePerUnit)),
		PreviousPrice: ParseAmount(cellAt(row, layout.Previous)),
	}
}

// ParseAmount converts a cell value to an Amount.
func ParseAmount(cell interface{}) Amount {
	var v float64
	switch c := cell.(type) {
	case nil:
		return Missing
	case float64:
		v = c
	case float32:
		v = float64(c)
	case int:
		v = float64(c)
	case int64:
		v = float64(c)
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(c), ",", "")
		if s == "" {
			return Missing
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Missing
		}
		v = f
	default:
		return ParseAmount(fmt.Sprintf("%v", c))
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Missing
	}
	return Present(v)
}

// cellAt returns nil when the row is shorter than index; the Sheets API
// drops trailing empty cells.
func cellAt(row RawRow, index int) interface{} {
	if index < 0 || index >= len(row) {
		return nil
	}
	return row[index]
}

// extractStringField safely extracts a string field from a row at the given index
func extractStringField(row RawRow, index int) string {
	if c := cellAt(row, index); c != nil {
		return fmt.Sprintf("%v", c)
	}
	return ""
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
