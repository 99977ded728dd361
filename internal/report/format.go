package report

import (
	"strconv"

	"github.com/shopspring/decimal"

	"veg_market_report/internal/market"
)

const notApplicable = "N/A"

var medals = []string{"🥇", "🥈", "🥉"}

// formatMoney renders v with two decimals, rounding half away from zero on
// the shortest decimal form of v, so 199.995 prints as 200.00.
func formatMoney(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func formatAmount(a market.Amount) string {
	if !a.Valid {
		return notApplicable
	}
	return formatMoney(a.Value)
}

func formatPercent(a market.Amount) string {
	if !a.Valid {
		return notApplicable
	}
	return decimal.NewFromFloat(a.Value).StringFixed(2) + "%"
}

// directionColor: drops are green, rises red, anything else black.
func directionColor(d market.Direction) string {
	switch d {
	case market.DirectionDown:
		return "green"
	case market.DirectionUp:
		return "red"
	default:
		return "black"
	}
}

// medal returns the decoration for the zero-based rank, or "" past the last
// decorated rank.
func medal(rank, decorated int) string {
	if rank >= decorated || rank >= len(medals) {
		return ""
	}
	return medals[rank]
}

func formatThreshold(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
