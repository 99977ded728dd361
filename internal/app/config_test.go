package app

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veg_market_report/internal/market"
	"veg_market_report/internal/sheets"
)

var configKeys = []string{
	"SOURCE", "SPREADSHEET_ID", "SHEET_NAME", "GOOGLE_CREDENTIALS_FILE", "XLSX_PATH",
	"HEADER_NAME", "HEADER_HISTORICAL_LOW", "HEADER_CURRENT_PRICE", "HEADER_PRICE_PER_UNIT",
	"CHEAP_THRESHOLD", "HIST_LOW_TOLERANCE", "DECORATION_RANKS",
	"REPORT_TIMEZONE", "RUN_MODE", "REPORT_SCHEDULE", "REPORT_SHEET_URL",
	"EMAIL_PROVIDER", "MAILGUN_DOMAIN", "MAILGUN_PRIVATE_API_KEY",
	"SMTP_SERVER", "SMTP_PORT", "SMTP_USER", "SMTP_PASSWORD",
	"SENDER_EMAIL", "SENDER_NAME", "REPORT_RECIPIENTS",
	"NTFY_ENABLED", "NTFY_URL", "NTFY_TOPIC", "NTFY_PRIORITY",
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
	t.Setenv("REPORT_TIMEZONE", "UTC")
}

func TestLoadConfigDefaults(t *testing.T) {
	rq := require.New(t)
	clearConfigEnv(t)
	t.Setenv("SPREADSHEET_ID", "sheet-123")

	cfg, err := LoadConfig()
	rq.NoError(err)

	rq.Equal(SourceSheets, cfg.Source)
	rq.Equal("Live Prices", cfg.SheetName)
	rq.Equal("credentials.json", cfg.CredentialsFile)
	rq.Equal(market.DefaultHeaders(), cfg.Headers)
	rq.Equal(market.DefaultThresholds(), cfg.Thresholds)
	rq.Equal(RunModeOnce, cfg.RunMode)
	rq.Equal("0 7 * * *", cfg.Schedule)
	rq.Equal(sheets.SheetURL("sheet-123"), cfg.SheetURL)
	rq.Equal("mock", cfg.Mail.Provider)
	rq.Equal(587, cfg.Mail.SMTPPort)
	rq.Empty(cfg.Recipients)
	rq.False(cfg.NtfyEnabled)
	rq.Equal("UTC", cfg.Location.String())
}

func TestLoadConfigOverrides(t *testing.T) {
	rq := require.New(t)
	clearConfigEnv(t)
	t.Setenv("SOURCE", "XLSX")
	t.Setenv("XLSX_PATH", "/tmp/prices.xlsx")
	t.Setenv("CHEAP_THRESHOLD", "250")
	t.Setenv("HIST_LOW_TOLERANCE", "1.1")
	t.Setenv("DECORATION_RANKS", "2")
	t.Setenv("RUN_MODE", "schedule")
	t.Setenv("REPORT_SHEET_URL", "https://example.com/prices")
	t.Setenv("REPORT_RECIPIENTS", " a@example.com, ,b@example.com ")
	t.Setenv("HEADER_PRICE_PER_UNIT", "Per Kg")
	t.Setenv("NTFY_ENABLED", "true")

	cfg, err := LoadConfig()
	rq.NoError(err)

	rq.Equal(SourceXLSX, cfg.Source)
	rq.Equal("/tmp/prices.xlsx", cfg.XLSXPath)
	rq.Equal(market.Thresholds{CheapThreshold: 250, HistLowTolerance: 1.1, DecorationRanks: 2}, cfg.Thresholds)
	rq.Equal(RunModeSchedule, cfg.RunMode)
	rq.Equal("https://example.com/prices", cfg.SheetURL)
	rq.Equal([]string{"a@example.com", "b@example.com"}, cfg.Recipients)
	rq.Equal("Per Kg", cfg.Headers.PricePerUnit)
	rq.True(cfg.NtfyEnabled)
}

func TestLoadConfigInvalidNumbersFallBack(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("SPREADSHEET_ID", "sheet-123")
	t.Setenv("CHEAP_THRESHOLD", "cheap")
	t.Setenv("SMTP_PORT", "port")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 200.0, cfg.Thresholds.CheapThreshold)
	assert.Equal(t, 587, cfg.Mail.SMTPPort)
}

func TestLoadConfigErrors(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{"sheets without id", map[string]string{}},
		{"xlsx without path", map[string]string{"SOURCE": "xlsx"}},
		{"xlsx without sheet link", map[string]string{"SOURCE": "xlsx", "XLSX_PATH": "/tmp/prices.xlsx"}},
		{"unknown source", map[string]string{"SOURCE": "csv"}},
		{"unknown run mode", map[string]string{"SPREADSHEET_ID": "x", "RUN_MODE": "hourly"}},
		{"bad threshold", map[string]string{"SPREADSHEET_ID": "x", "CHEAP_THRESHOLD": "-5"}},
		{"bad timezone", map[string]string{"SPREADSHEET_ID": "x", "REPORT_TIMEZONE": "Mars/Olympus"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearConfigEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestInitializeSourceXLSX(t *testing.T) {
	source, err := InitializeSource(t.Context(), Config{Source: SourceXLSX, XLSXPath: "prices.xlsx"})
	require.NoError(t, err)
	assert.IsType(t, &sheets.WorkbookSource{}, source)
}

func TestParseLogLevel(t *testing.T) {
	testCases := []struct {
		value   string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{" WARNING ", zerolog.WarnLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"chatty", zerolog.InfoLevel, true},
	}

	for _, tc := range testCases {
		t.Run(tc.value, func(t *testing.T) {
			got, err := parseLogLevel(tc.value)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.wantErr, err != nil)
		})
	}
}

func TestSetupEnvironmentProductionLogsRunSummary(t *testing.T) {
	prevLevel, prevLogger, prevFormat := zerolog.GlobalLevel(), log.Logger, zerolog.TimeFieldFormat
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(prevLevel)
		log.Logger = prevLogger
		zerolog.TimeFieldFormat = prevFormat
	})

	t.Setenv("ENV", "production")
	t.Setenv("LOGLEVEL", "")
	SetupEnvironment()

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
