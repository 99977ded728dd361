package market

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// Summary holds the counters shown in the snapshot panel.
type Summary struct {
	TotalRows      int
	Movements      int
	Drops          int
	Increases      int
	Unchanged      int // flat moves and moves without a percent change
	CheapItems     int
	HistoricalLows int
}

// Analysis is the ordered output of the three classifiers for one table.
type Analysis struct {
	Records   []PriceRecord
	Alerts    []HistLowAlert
	Cheap     []CheapItem
	Movements []PriceMovement
	Summary   Summary
}

// ParseTable resolves the header row and turns every following row into a
// PriceRecord. Zero data rows is not an error.
func ParseTable(table [][]interface{}, headers Headers) ([]PriceRecord, error) {
	if len(table) == 0 {
		return nil, ErrEmptyTable
	}

	layout, err := ResolveLayout(table[0], headers)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve header row: %w", err)
	}

	records := make([]PriceRecord, 0, len(table)-1)
	for i, row := range table[1:] {
		record := ResolveRecord(row, layout, i+2)
		if !record.CurrentPrice.Valid {
			log.Debug().
				Int("row", record.Row).
				Str("name", record.Name).
				Msg("Row has no current price")
		}
		records = append(records, record)
	}

	log.Debug().
		Int("rows", len(records)).
		Msg("Parsed price table")

	return records, nil
}

// Analyze runs the classifiers over the table, orders their output and
// counts the results.
func Analyze(table [][]interface{}, headers Headers, thresholds Thresholds) (*Analysis, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}

	records, err := ParseTable(table, headers)
	if err != nil {
		return nil, err
	}

	alerts := DetectHistoricalLows(records, thresholds.HistLowTolerance)
	cheap := FilterCheap(records, thresholds.CheapThreshold)
	movements := ClassifyMovements(records)

	SortCheapItems(cheap)
	SortMovements(movements)

	a := &Analysis{
		Records:   records,
		Alerts:    alerts,
		Cheap:     cheap,
		Movements: movements,
		Summary:   summarize(len(records), alerts, cheap, movements),
	}

	log.Debug().
		Int("rows", a.Summary.TotalRows).
		Int("drops", a.Summary.Drops).
		Int("increases", a.Summary.Increases).
		Int("cheap", a.Summary.CheapItems).
		Int("historical_lows", a.Summary.HistoricalLows).
		Msg("Analyzed price table")

	return a, nil
}

func summarize(rows int, alerts []HistLowAlert, cheap []CheapItem, movements []PriceMovement) Summary {
	s := Summary{
		TotalRows:      rows,
		Movements:      len(movements),
		CheapItems:     len(cheap),
		HistoricalLows: len(alerts),
	}
	for _, m := range movements {
		switch {
		case m.PercentChange.Valid && m.PercentChange.Value < 0:
			s.Drops++
		case m.PercentChange.Valid && m.PercentChange.Value > 0:
			s.Increases++
		default:
			s.Unchanged++
		}
	}
	return s
}
