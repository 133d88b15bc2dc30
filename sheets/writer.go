package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"fbref-scraper/export"
	"fbref-scraper/models"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Writer handles writing season tables to Google Sheets
type Writer struct {
	service       *sheets.Service
	spreadsheetID string
}

// NewWriter creates a new Google Sheets writer
func NewWriter(spreadsheetID string, credentialsPath string) (*Writer, error) {
	// Read credentials from file or environment variable
	var credsJSON []byte
	var err error

	if credentialsPath != "" {
		credsJSON, err = os.ReadFile(credentialsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
	} else {
		credsEnv := strings.TrimSpace(os.Getenv("GOOGLE_SHEETS_CREDENTIALS"))
		if credsEnv == "" {
			return nil, fmt.Errorf("credentials not found: GOOGLE_SHEETS_CREDENTIALS environment variable is empty or not set")
		}
		slog.Debug("reading sheets credentials from environment", "bytes", len(credsEnv))
		credsJSON = []byte(credsEnv)
	}

	// Parse and validate JSON
	var creds map[string]interface{}
	if err := json.Unmarshal(credsJSON, &creds); err != nil {
		return nil, fmt.Errorf("invalid credentials JSON (check if JSON is properly formatted): %w", err)
	}
	if creds["type"] != "service_account" {
		return nil, fmt.Errorf("credentials must be a service account JSON file (type: service_account), got type: %v", creds["type"])
	}

	return newWriter(spreadsheetID, option.WithCredentialsJSON(credsJSON))
}

func newWriter(spreadsheetID string, opts ...option.ClientOption) (*Writer, error) {
	service, err := sheets.NewService(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Writer{
		service:       service,
		spreadsheetID: spreadsheetID,
	}, nil
}

// CreateSheetAndWriteTable creates a new sheet at the front of the
// spreadsheet and writes the season table to it. When sourceURL is set, a
// metadata row precedes the header. Returns the sheet name and sheet ID
// (gid) that was created.
func (w *Writer) CreateSheetAndWriteTable(sheetName string, season *models.SeasonTable, sourceURL string) (string, int64, error) {
	sheetName = sanitizeSheetName(sheetName)
	if runes := []rune(sheetName); len(runes) > 100 {
		sheetName = string(runes[:100])
	}

	batchUpdateRequest := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{
						Title: sheetName,
						Index: 0,
					},
				},
			},
		},
	}

	batchUpdateResp, err := w.service.Spreadsheets.BatchUpdate(w.spreadsheetID, batchUpdateRequest).Do()
	if err != nil {
		return "", 0, fmt.Errorf("failed to create sheet: %w", err)
	}

	var sheetID int64
	if len(batchUpdateResp.Replies) > 0 && batchUpdateResp.Replies[0].AddSheet != nil {
		sheetID = batchUpdateResp.Replies[0].AddSheet.Properties.SheetId
	}
	slog.Info("created sheet", "sheet", sheetName, "gid", sheetID)

	// quoted, names contain spaces
	range_ := fmt.Sprintf("'%s'!A1", strings.ReplaceAll(sheetName, "'", "''"))
	valueRange := &sheets.ValueRange{
		Values: tableValues(season, sourceURL),
	}

	_, err = w.service.Spreadsheets.Values.Update(w.spreadsheetID, range_, valueRange).
		ValueInputOption("RAW").
		Do()
	if err != nil {
		return "", 0, fmt.Errorf("failed to write to sheet: %w", err)
	}

	slog.Info("wrote season table to sheet", "sheet", sheetName, "rows", len(season.Rows))
	return sheetName, sheetID, nil
}

// tableValues lays out the optional metadata row, the header and the rows
func tableValues(season *models.SeasonTable, sourceURL string) [][]interface{} {
	var values [][]interface{}
	if sourceURL != "" {
		values = append(values, []interface{}{"URL", sourceURL, "Team", season.TeamName, "Season", season.Season})
	}
	for _, record := range export.Records(season) {
		row := make([]interface{}, len(record))
		for i, v := range record {
			row[i] = v
		}
		values = append(values, row)
	}
	return values
}

// sanitizeSheetName removes invalid characters from sheet name
func sanitizeSheetName(name string) string {
	// Google Sheets sheet names cannot contain: / \ ? * [ ]
	invalidChars := []string{"/", "\\", "?", "*", "[", "]"}
	result := name
	for _, char := range invalidChars {
		result = strings.ReplaceAll(result, char, "_")
	}
	result = strings.TrimSpace(result)
	if result == "" {
		result = "Sheet1"
	}
	return result
}

// ExtractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL
//
//	https://docs.google.com/spreadsheets/d/SPREADSHEET_ID/edit?usp=sharing
func ExtractSpreadsheetID(url string) string {
	parts := strings.Split(url, "/d/")
	if len(parts) < 2 {
		return ""
	}

	idPart := parts[1]
	if idx := strings.Index(idPart, "/"); idx != -1 {
		idPart = idPart[:idx]
	}
	if idx := strings.Index(idPart, "?"); idx != -1 {
		idPart = idPart[:idx]
	}

	return strings.TrimSpace(idPart)
}
