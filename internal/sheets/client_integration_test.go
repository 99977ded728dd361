package sheets_test

import (
	"context"
	"os"
	"testing"

	"veg_market_report/internal/sheets"
)

// Runs against a real spreadsheet when SHEETS_TEST_CREDENTIALS and
// SHEETS_TEST_SPREADSHEET_ID are set.
func integrationClient(t *testing.T) (*sheets.Client, string) {
	t.Helper()
	creds := os.Getenv("SHEETS_TEST_CREDENTIALS")
	spreadsheetID := os.Getenv("SHEETS_TEST_SPREADSHEET_ID")
	if creds == "" || spreadsheetID == "" {
		t.Skip("SHEETS_TEST_CREDENTIALS / SHEETS_TEST_SPREADSHEET_ID not set")
	}

	client, err := sheets.NewClient(context.Background(), creds)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	if client == nil {
		t.Fatal("Client is nil")
	}
	return client, spreadsheetID
}

func TestReadSheet(t *testing.T) {
	client, spreadsheetID := integrationClient(t)

	values, err := client.ReadSheet(context.Background(), spreadsheetID, "'Live Prices'!A1:Z5")
	if err != nil {
		t.Fatalf("Failed to read sheet: %v", err)
	}
	if values == nil {
		t.Fatal("Values is nil")
	}
}

func TestSheetSourceReadTableLive(t *testing.T) {
	client, spreadsheetID := integrationClient(t)

	rows, err := sheets.NewSheetSource(client, spreadsheetID, "Live Prices").ReadTable(context.Background())
	if err != nil {
		t.Fatalf("Failed to read table: %v", err)
	}
	if len(rows) == 0 {
		t.Fatal("Expected at least a header row")
	}
}
