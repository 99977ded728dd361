package sheets

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// WorkbookSource reads the price table from a local .xlsx export of the sheet.
type WorkbookSource struct {
	path      string
	sheetName string
}

// NewWorkbookSource reads sheetName from the workbook at path. An empty
// sheetName selects the first sheet.
func NewWorkbookSource(path, sheetName string) *WorkbookSource {
	return &WorkbookSource{path: path, sheetName: sheetName}
}

func (w *WorkbookSource) ReadTable(ctx context.Context) ([][]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := w.sheetName
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	table := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		table[i] = cells
	}

	log.Debug().
		Str("path", w.path).
		Str("sheet", sheet).
		Int("rows", len(table)).
		Msg("Read price table from workbook")

	return table, nil
}
