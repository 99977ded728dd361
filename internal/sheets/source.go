package sheets

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Source yields the price table, header row first.
type Source interface {
	ReadTable(ctx context.Context) ([][]interface{}, error)
}

type sheetReader interface {
	ReadSheet(ctx context.Context, spreadsheetID, range_ string) ([][]interface{}, error)
}

// SheetSource reads a whole tab of a Google spreadsheet.
type SheetSource struct {
	reader        sheetReader
	spreadsheetID string
	sheetName     string
}

func NewSheetSource(reader sheetReader, spreadsheetID, sheetName string) *SheetSource {
	return &SheetSource{
		reader:        reader,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}
}

func (s *SheetSource) ReadTable(ctx context.Context) ([][]interface{}, error) {
	log.Debug().
		Str("spreadsheet_id", s.spreadsheetID).
		Str("sheet", s.sheetName).
		Msg("Reading price table from sheet")

	rows, err := s.reader.ReadSheet(ctx, s.spreadsheetID, quoteSheetName(s.sheetName))
	if err != nil {
		return nil, fmt.Errorf("failed to read price table from %q: %w", s.sheetName, err)
	}

	log.Debug().Int("rows", len(rows)).Msg("Retrieved price table")
	return rows, nil
}

// SheetURL is the browser link to a spreadsheet.
func SheetURL(spreadsheetID string) string {
	if spreadsheetID == "" {
		return ""
	}
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit?usp=sharing", spreadsheetID)
}

// quoteSheetName turns a tab name into an A1 range covering the whole tab.
func quoteSheetName(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
