// Package export writes merged season tables to CSV and renders console
// previews.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"fbref-scraper/models"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Records converts a season table to CSV-ready records, header first.
// Missing values are empty strings.
func Records(season *models.SeasonTable) [][]string {
	records := make([][]string, 0, len(season.Rows)+1)
	records = append(records, append([]string(nil), season.Columns...))
	for _, row := range season.Rows {
		record := make([]string, len(season.Columns))
		for i, column := range season.Columns {
			record[i] = row.Get(column).String()
		}
		records = append(records, record)
	}
	return records
}

// WriteCSV writes season as UTF-8 CSV
func WriteCSV(w io.Writer, season *models.SeasonTable) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(Records(season)); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// SaveCSV writes season to dir/filename, creating dir when needed, and
// returns the written path
func SaveCSV(dir, filename string, season *models.SeasonTable) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, filename)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := WriteCSV(f, season); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}

// Preview renders the first n rows of season as a text table
func Preview(w io.Writer, season *models.SeasonTable, n int) {
	records := Records(season)

	t := table.NewWriter()
	t.SetOutputMirror(w)

	header := make(table.Row, len(records[0]))
	for i, column := range records[0] {
		header[i] = column
	}
	t.AppendHeader(header)

	for i, record := range records[1:] {
		if i >= n {
			break
		}
		row := make(table.Row, len(record))
		for j, value := range record {
			row[j] = value
		}
		t.AppendRow(row)
	}
	if rest := len(records) - 1 - n; rest > 0 {
		t.AppendFooter(table.Row{fmt.Sprintf("... %d more rows", rest)})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}
