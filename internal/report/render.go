package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"time"

	"veg_market_report/internal/market"
)

// Title heads the HTML document.
const Title = "Daily Cargills Vegetable Market Summary"

//go:embed report.html.tmpl
var reportTemplate string

var tmpl = template.Must(template.New("report").Parse(reportTemplate))

// Data is everything the renderer needs. Lists must already be ordered.
type Data struct {
	Date            time.Time
	Summary         market.Summary
	Alerts          []market.HistLowAlert
	Cheap           []market.CheapItem
	Movements       []market.PriceMovement
	CheapThreshold  float64
	DecorationRanks int
	SheetURL        string
}

type view struct {
	Title     string
	Date      string
	Threshold string
	Summary   market.Summary
	Alerts    []alertRow
	Cheap     []cheapRow
	Movements []movementRow
	SheetURL  string
}

type alertRow struct {
	Name    string
	Current string
	Low     string
}

type cheapRow struct {
	Name  string
	Price string
	Medal string
}

type movementRow struct {
	Name     string
	Previous string
	Current  string
	Change   string
	Color    string
}

// Render produces the HTML email body. Output depends only on d.
func Render(d Data) (string, error) {
	v := view{
		Title:     Title,
		Date:      FormatDate(d.Date),
		Threshold: formatThreshold(d.CheapThreshold),
		Summary:   d.Summary,
		SheetURL:  d.SheetURL,
	}

	for _, a := range d.Alerts {
		v.Alerts = append(v.Alerts, alertRow{
			Name:    a.Name,
			Current: formatMoney(a.CurrentPrice),
			Low:     formatMoney(a.HistoricalLow),
		})
	}

	for i, c := range d.Cheap {
		v.Cheap = append(v.Cheap, cheapRow{
			Name:  c.Name,
			Price: formatMoney(c.PricePerUnit),
			Medal: medal(i, d.DecorationRanks),
		})
	}

	for _, m := range d.Movements {
		v.Movements = append(v.Movements, movementRow{
			Name:     m.Name,
			Previous: formatAmount(m.PreviousPrice),
			Current:  formatMoney(m.CurrentPrice),
			Change:   formatPercent(m.PercentChange),
			Color:    directionColor(m.Direction),
		})
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return buf.String(), nil
}

// FormatDate renders t as yyyy-MM-dd in t's own location.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
