package app

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"veg_market_report/internal/mail"
	"veg_market_report/internal/market"
	"veg_market_report/internal/notifications"
	"veg_market_report/internal/sheets"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	SourceSheets = "sheets"
	SourceXLSX   = "xlsx"

	RunModeOnce     = "once"
	RunModeSchedule = "schedule"
)

// Config is everything the report job reads from the environment.
type Config struct {
	Source          string
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	XLSXPath        string

	Headers    market.Headers
	Thresholds market.Thresholds

	Location *time.Location
	RunMode  string
	Schedule string
	SheetURL string

	Recipients []string
	Mail       mail.Config

	NtfyEnabled  bool
	NtfyURL      string
	NtfyTopic    string
	NtfyPriority string
}

// SetupEnvironment loads an optional .env file and configures the global
// logger. ENV=production switches to JSON output; LOGLEVEL sets the level and
// defaults to info in every environment so each run leaves its summary line.
func SetupEnvironment() {
	envErr := godotenv.Load()

	if os.Getenv("ENV") == "production" {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = log.Output(os.Stderr)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	level, err := parseLogLevel(os.Getenv("LOGLEVEL"))
	zerolog.SetGlobalLevel(level)
	if err != nil {
		log.Warn().Err(err).Msg("Unknown LOGLEVEL, defaulting to info")
	}

	// logged last so the message honours the configured output
	if envErr == nil {
		log.Debug().Msg("Loaded environment variables from .env file")
	} else {
		log.Debug().Msg("No .env file loaded; using process environment")
	}
}

// parseLogLevel maps a LOGLEVEL value to a zerolog level. Empty means info.
func parseLogLevel(value string) (zerolog.Level, error) {
	switch value = strings.ToLower(strings.TrimSpace(value)); value {
	case "":
		return zerolog.InfoLevel, nil
	case "warning":
		return zerolog.WarnLevel, nil
	}
	level, err := zerolog.ParseLevel(value)
	if err != nil {
		return zerolog.InfoLevel, err
	}
	return level, nil
}

// LoadConfig reads and validates the job configuration from the environment.
func LoadConfig() (Config, error) {
	defaults := market.DefaultHeaders()
	thresholds := market.DefaultThresholds()

	cfg := Config{
		Source:          strings.ToLower(GetEnvWithDefault("SOURCE", SourceSheets)),
		SpreadsheetID:   os.Getenv("SPREADSHEET_ID"),
		SheetName:       GetEnvWithDefault("SHEET_NAME", "Live Prices"),
		CredentialsFile: GetEnvWithDefault("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
		XLSXPath:        os.Getenv("XLSX_PATH"),

		Headers: market.Headers{
			Name:          GetEnvWithDefault("HEADER_NAME", defaults.Name),
			HistoricalLow: GetEnvWithDefault("HEADER_HISTORICAL_LOW", defaults.HistoricalLow),
			CurrentPrice:  GetEnvWithDefault("HEADER_CURRENT_PRICE", defaults.CurrentPrice),
			PricePerUnit:  GetEnvWithDefault("HEADER_PRICE_PER_UNIT", defaults.PricePerUnit),
		},
		Thresholds: market.Thresholds{
			CheapThreshold:   getEnvAsFloat("CHEAP_THRESHOLD", thresholds.CheapThreshold),
			HistLowTolerance: getEnvAsFloat("HIST_LOW_TOLERANCE", thresholds.HistLowTolerance),
			DecorationRanks:  getEnvAsInt("DECORATION_RANKS", thresholds.DecorationRanks),
		},

		RunMode:  strings.ToLower(GetEnvWithDefault("RUN_MODE", RunModeOnce)),
		Schedule: GetEnvWithDefault("REPORT_SCHEDULE", "0 7 * * *"),

		Recipients: splitList(os.Getenv("REPORT_RECIPIENTS")),
		Mail: mail.Config{
			Provider:             GetEnvWithDefault("EMAIL_PROVIDER", "mock"),
			MailgunDomain:        os.Getenv("MAILGUN_DOMAIN"),
			MailgunPrivateAPIKey: os.Getenv("MAILGUN_PRIVATE_API_KEY"),
			SMTPServer:           os.Getenv("SMTP_SERVER"),
			SMTPPort:             getEnvAsInt("SMTP_PORT", 587),
			SMTPUser:             os.Getenv("SMTP_USER"),
			SMTPPassword:         os.Getenv("SMTP_PASSWORD"),
			SenderEmail:          os.Getenv("SENDER_EMAIL"),
			SenderName:           GetEnvWithDefault("SENDER_NAME", "Vegetable Market Report"),
		},

		NtfyEnabled:  GetEnvWithDefault("NTFY_ENABLED", "false") == "true",
		NtfyURL:      GetEnvWithDefault("NTFY_URL", "https://ntfy.sh"),
		NtfyTopic:    GetEnvWithDefault("NTFY_TOPIC", "veg-market-report"),
		NtfyPriority: os.Getenv("NTFY_PRIORITY"),
	}

	switch cfg.Source {
	case SourceSheets:
		if cfg.SpreadsheetID == "" {
			return Config{}, fmt.Errorf("SPREADSHEET_ID environment variable is required when SOURCE is %q", SourceSheets)
		}
	case SourceXLSX:
		if cfg.XLSXPath == "" {
			return Config{}, fmt.Errorf("XLSX_PATH environment variable is required when SOURCE is %q", SourceXLSX)
		}
	default:
		return Config{}, fmt.Errorf("unknown SOURCE %q (want %q or %q)", cfg.Source, SourceSheets, SourceXLSX)
	}

	if cfg.RunMode != RunModeOnce && cfg.RunMode != RunModeSchedule {
		return Config{}, fmt.Errorf("unknown RUN_MODE %q (want %q or %q)", cfg.RunMode, RunModeOnce, RunModeSchedule)
	}

	if err := cfg.Thresholds.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid thresholds: %w", err)
	}

	tz := GetEnvWithDefault("REPORT_TIMEZONE", "Asia/Colombo")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Config{}, fmt.Errorf("invalid REPORT_TIMEZONE %q: %w", tz, err)
	}
	cfg.Location = loc

	cfg.SheetURL = GetEnvWithDefault("REPORT_SHEET_URL", sheets.SheetURL(cfg.SpreadsheetID))
	if cfg.SheetURL == "" {
		return Config{}, fmt.Errorf("REPORT_SHEET_URL environment variable is required when SOURCE is %q", cfg.Source)
	}

	log.Debug().
		Str("source", cfg.Source).
		Str("run_mode", cfg.RunMode).
		Str("timezone", tz).
		Str("email_provider", cfg.Mail.Provider).
		Int("recipients", len(cfg.Recipients)).
		Msg("Configuration loaded")

	return cfg, nil
}

// GetEnvWithDefault fetches an environment variable with a default fallback.
func GetEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Float64("default", fallback).Msg("Invalid number, using default")
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Int("default", fallback).Msg("Invalid integer, using default")
		return fallback
	}
	return value
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// InitializeSource creates the table source selected by cfg.Source.
func InitializeSource(ctx context.Context, cfg Config) (sheets.Source, error) {
	log.Debug().Str("source", cfg.Source).Msg("Initializing table source")

	if cfg.Source == SourceXLSX {
		return sheets.NewWorkbookSource(cfg.XLSXPath, cfg.SheetName), nil
	}

	sheetsClient, err := sheets.NewClient(ctx, cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	log.Debug().Msg("Sheets client initialized successfully")
	return sheets.NewSheetSource(sheetsClient, cfg.SpreadsheetID, cfg.SheetName), nil
}

// InitializeNotificationClient creates and returns the notification client
func InitializeNotificationClient(cfg Config) *notifications.Client {
	log.Debug().
		Bool("enabled", cfg.NtfyEnabled).
		Str("base_url", cfg.NtfyURL).
		Str("topic", cfg.NtfyTopic).
		Msg("Initializing notification client")

	client := notifications.NewClient(cfg.NtfyURL, cfg.NtfyTopic, cfg.NtfyEnabled, cfg.NtfyPriority)

	if cfg.NtfyEnabled {
		log.Info().Str("topic", cfg.NtfyTopic).Msg("Notifications enabled")
	} else {
		log.Debug().Msg("Notifications disabled")
	}

	return client
}

// InitializeSender creates the email sender selected by EMAIL_PROVIDER.
func InitializeSender(cfg Config) mail.Sender {
	return mail.NewSender(cfg.Mail)
}
