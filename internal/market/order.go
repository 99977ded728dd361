package market

import (
	"cmp"
	"slices"
)

// SortCheapItems orders items by ascending per-unit price. Ties keep row order.
func SortCheapItems(items []CheapItem) {
	slices.SortStableFunc(items, func(a, b CheapItem) int {
		return cmp.Compare(a.PricePerUnit, b.PricePerUnit)
	})
}

// SortMovements orders movements by ascending percent change, biggest drop
// first. Movements without a percent change go last in row order.
func SortMovements(movements []PriceMovement) {
	slices.SortStableFunc(movements, func(a, b PriceMovement) int {
		switch {
		case !a.PercentChange.Valid && !b.PercentChange.Valid:
			return 0
		case !a.PercentChange.Valid:
			return 1
		case !b.PercentChange.Valid:
			return -1
		}
		return cmp.Compare(a.PercentChange.Value, b.PercentChange.Value)
	})
}
