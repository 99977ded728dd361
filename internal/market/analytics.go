package market

import (
	"fmt"
)

// Thresholds are the tunable business rules of the report.
type Thresholds struct {
	// CheapThreshold is the per-unit price (LKR/kg) below which an item is listed as cheap.
	CheapThreshold float64
	// HistLowTolerance scales the historical low; prices at or under the result raise an alert.
	HistLowTolerance float64
	// DecorationRanks is how many leading cheap items get a medal.
	DecorationRanks int
}

// DefaultThresholds returns 200 LKR/kg, a 5% band above the historical low and three medals.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CheapThreshold:   200,
		HistLowTolerance: 1.05,
		DecorationRanks:  3,
	}
}

// Validate rejects thresholds that would make a classifier meaningless.
func (t Thresholds) Validate() error {
	if t.CheapThreshold <= 0 {
		return fmt.Errorf("cheap threshold must be positive, got %v", t.CheapThreshold)
	}
	if t.HistLowTolerance < 1 {
		return fmt.Errorf("historical low tolerance must be at least 1, got %v", t.HistLowTolerance)
	}
	if t.DecorationRanks < 0 {
		return fmt.Errorf("decoration ranks must not be negative, got %d", t.DecorationRanks)
	}
	return nil
}

// Direction is the sign of the move from the previous to the current price.
type Direction int

const (
	DirectionUnknown Direction = iota
	DirectionDown
	DirectionFlat
	DirectionUp
)

func (d Direction) String() string {
	switch d {
	case DirectionDown:
		return "down"
	case DirectionFlat:
		return "flat"
	case DirectionUp:
		return "up"
	default:
		return "unknown"
	}
}

// HistLowAlert flags an item trading near its lowest recorded price.
type HistLowAlert struct {
	Name          string
	CurrentPrice  float64
	HistoricalLow float64
}

// PriceMovement is the change of one item since the previous observation.
// PercentChange is Missing when the previous price is missing or zero.
type PriceMovement struct {
	Name          string
	CurrentPrice  float64
	PreviousPrice Amount
	Direction     Direction
	PercentChange Amount
}

// CheapItem is an item priced under the cheap threshold.
type CheapItem struct {
	Name         string
	PricePerUnit float64
}

// DetectHistoricalLows emits an alert for every record whose current price is
// within tolerance of its historical low. Records missing either price are skipped.
func DetectHistoricalLows(records []PriceRecord, tolerance float64) []HistLowAlert {
	var alerts []HistLowAlert
	for _, r := range records {
		if !r.CurrentPrice.Valid || !r.HistoricalLow.Valid {
			continue
		}
		if r.CurrentPrice.Value <= r.HistoricalLow.Value*tolerance {
			alerts = append(alerts, HistLowAlert{
				Name:          r.Name,
				CurrentPrice:  r.CurrentPrice.Value,
				HistoricalLow: r.HistoricalLow.Value,
			})
		}
	}
	return alerts
}

// ClassifyMovements builds a movement for every record with a current price.
func ClassifyMovements(records []PriceRecord) []PriceMovement {
	var movements []PriceMovement
	for _, r := range records {
		if !r.CurrentPrice.Valid {
			continue
		}
		movements = append(movements, PriceMovement{
			Name:          r.Name,
			CurrentPrice:  r.CurrentPrice.Value,
			PreviousPrice: r.PreviousPrice,
			Direction:     direction(r.CurrentPrice.Value, r.PreviousPrice),
			PercentChange: PercentChange(r.CurrentPrice.Value, r.PreviousPrice),
		})
	}
	return movements
}

// FilterCheap keeps the records whose per-unit price is below threshold.
func FilterCheap(records []PriceRecord, threshold float64) []CheapItem {
	var items []CheapItem
	for _, r := range records {
		if r.PricePerUnit.Valid && r.PricePerUnit.Value < threshold {
			items = append(items, CheapItem{Name: r.Name, PricePerUnit: r.PricePerUnit.Value})
		}
	}
	return items
}

// PercentChange is (current - previous) / previous * 100, or Missing when
// previous is missing or zero.
func PercentChange(current float64, previous Amount) Amount {
	if !previous.Valid || previous.Value == 0 {
		return Missing
	}
	return Present((current - previous.Value) / previous.Value * 100)
}

func direction(current float64, previous Amount) Direction {
	switch {
	case !previous.Valid:
		return DirectionUnknown
	case current < previous.Value:
		return DirectionDown
	case current > previous.Value:
		return DirectionUp
	default:
		return DirectionFlat
	}
}
