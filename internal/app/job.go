package app

import (
	"context"
	"fmt"
	"time"

	"veg_market_report/internal/mail"
	"veg_market_report/internal/notifications"
	"veg_market_report/internal/report"
	"veg_market_report/internal/schedule"
	"veg_market_report/internal/sheets"

	"github.com/rs/zerolog/log"
)

const readTimeout = 30 * time.Second

// Job reads the price table, renders the report and delivers it.
type Job struct {
	cfg      Config
	source   sheets.Source
	sender   mail.Sender
	notifier *notifications.Client
	now      func() time.Time
}

func NewJob(cfg Config, source sheets.Source, sender mail.Sender, notifier *notifications.Client) *Job {
	return &Job{
		cfg:      cfg,
		source:   source,
		sender:   sender,
		notifier: notifier,
		now:      time.Now,
	}
}

// Run performs one report run. The report date is the current time in the
// configured timezone.
func (j *Job) Run(ctx context.Context) (*report.Report, error) {
	date := j.now().In(j.cfg.Location)
	log.Info().Str("date", report.FormatDate(date)).Msg("Starting market report run")

	readCtx, cancel := context.WithTimeout(ctx, readTimeout)
	table, err := j.source.ReadTable(readCtx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to read price table: %w", err)
	}

	r, err := report.Generate(table, report.Options{
		ReportDate: date,
		Weekly:     schedule.IsWeeklyRun(date),
		Headers:    j.cfg.Headers,
		Thresholds: j.cfg.Thresholds,
		SheetURL:   j.cfg.SheetURL,
	})
	if err != nil {
		return nil, err
	}

	err = j.sender.SendReport(ctx, mail.Message{
		To:      j.cfg.Recipients,
		Subject: r.Subject,
		HTML:    r.HTML,
		Text:    r.Text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to deliver report: %w", err)
	}

	event := log.Info().
		Int("total_rows", r.Summary.TotalRows).
		Int("drops", r.Summary.Drops).
		Int("increases", r.Summary.Increases).
		Int("cheap_items", r.Summary.CheapItems).
		Int("historical_lows", r.Summary.HistoricalLows).
		Bool("weekly", r.Weekly)

	if j.notifier != nil {
		j.notifier.NotifyReportSent(ctx, r.Subject, r.Summary)
		sent, failed := j.notifier.GetMetrics()
		event = event.Int64("notifications_sent", sent).Int64("notifications_failed", failed)
	}

	event.Msg("Market report run complete")

	return r, nil
}
