package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"veg_market_report/internal/market"
)

// SubjectPrefix is the fixed part of the email subject.
const SubjectPrefix = "Today’s Vegetable Prices – Market Update"

// Options configures one report run.
type Options struct {
	// ReportDate is printed in the header and subject. Required.
	ReportDate time.Time
	// Weekly marks the Friday run. It is carried through to the Report and
	// does not change the rendered content.
	Weekly     bool
	Headers    market.Headers
	Thresholds market.Thresholds
	SheetURL   string
}

// Report is a finished document plus the counters behind it.
type Report struct {
	Date    time.Time
	Weekly  bool
	Subject string
	HTML    string
	Text    string
	Summary market.Summary
}

// Generate runs the whole pipeline over a table whose first row is the header.
// Zero-valued Headers and Thresholds fall back to the defaults.
func Generate(table [][]interface{}, opts Options) (*Report, error) {
	if opts.ReportDate.IsZero() {
		return nil, errors.New("report date is required")
	}
	if opts.Headers == (market.Headers{}) {
		opts.Headers = market.DefaultHeaders()
	}
	if opts.Thresholds == (market.Thresholds{}) {
		opts.Thresholds = market.DefaultThresholds()
	}

	analysis, err := market.Analyze(table, opts.Headers, opts.Thresholds)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze price table: %w", err)
	}

	html, err := Render(Data{
		Date:            opts.ReportDate,
		Summary:         analysis.Summary,
		Alerts:          analysis.Alerts,
		Cheap:           analysis.Cheap,
		Movements:       analysis.Movements,
		CheapThreshold:  opts.Thresholds.CheapThreshold,
		DecorationRanks: opts.Thresholds.DecorationRanks,
		SheetURL:        opts.SheetURL,
	})
	if err != nil {
		return nil, err
	}

	r := &Report{
		Date:    opts.ReportDate,
		Weekly:  opts.Weekly,
		Subject: Subject(opts.ReportDate),
		HTML:    html,
		Text:    renderText(opts.ReportDate, analysis, opts.Thresholds.CheapThreshold),
		Summary: analysis.Summary,
	}

	log.Debug().
		Str("date", FormatDate(r.Date)).
		Bool("weekly", r.Weekly).
		Int("html_bytes", len(r.HTML)).
		Msg("Generated market report")

	return r, nil
}

// Subject builds the email subject for date.
func Subject(date time.Time) string {
	return fmt.Sprintf("%s (%s)", SubjectPrefix, FormatDate(date))
}

// renderText is the plain-text alternative for mail clients without HTML.
func renderText(date time.Time, a *market.Analysis, threshold float64) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s (%s)\n\n", Title, FormatDate(date)))
	sb.WriteString(fmt.Sprintf("Total vegetables analyzed: %d\n", a.Summary.TotalRows))
	sb.WriteString(fmt.Sprintf("Price drops: %d\n", a.Summary.Drops))
	sb.WriteString(fmt.Sprintf("Price increases: %d\n", a.Summary.Increases))
	sb.WriteString(fmt.Sprintf("Under %s LKR/kg: %d\n", formatThreshold(threshold), a.Summary.CheapItems))
	sb.WriteString(fmt.Sprintf("Near historical lows: %d\n", a.Summary.HistoricalLows))

	if len(a.Alerts) > 0 {
		sb.WriteString("\nHistorically low prices:\n")
		for _, alert := range a.Alerts {
			sb.WriteString(fmt.Sprintf("• %s: %s (low %s)\n", alert.Name, formatMoney(alert.CurrentPrice), formatMoney(alert.HistoricalLow)))
		}
	}

	return strings.TrimSuffix(sb.String(), "\n")
}
