package main

import (
	"fmt"
	"log/slog"
	"os"

	"fbref-scraper/config"
	"fbref-scraper/export"
	"fbref-scraper/scraper"
	"fbref-scraper/sheets"

	"github.com/spf13/cobra"
)

var (
	outputDir string
	noPreview bool
)

func init() {
	scrapeCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory to write the CSV to (overrides output.dir)")
	scrapeCmd.Flags().BoolVar(&noPreview, "no-preview", false, "Do not print the preview table")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape <match logs url>",
	Short: "Scrapes every category of a team season and writes one merged CSV.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadOrDefault(configPath)
		if err != nil {
			return err
		}
		if outputDir != "" {
			cfg.Output.Dir = outputDir
		}

		pipeline, closeCache, err := newPipeline(cfg)
		if err != nil {
			return err
		}
		defer closeCache()

		result, err := pipeline.Scrape(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		path, err := export.SaveCSV(cfg.Output.Dir, result.Descriptor.FileName(), result.Table)
		if err != nil {
			return err
		}

		if !noPreview && cfg.Output.PreviewRows > 0 {
			export.Preview(os.Stdout, result.Table, cfg.Output.PreviewRows)
		}
		fmt.Println(result.Summary())
		fmt.Printf("Saved %s\n", path)

		writeSheet(cfg.Sheets, result, args[0])
		return nil
	},
}

// writeSheet copies the result to Google Sheets when a spreadsheet is configured
func writeSheet(cfg config.SheetsConfig, result *scraper.Result, sourceURL string) {
	if cfg.SpreadsheetURL == "" {
		return
	}

	spreadsheetID := sheets.ExtractSpreadsheetID(cfg.SpreadsheetURL)
	if spreadsheetID == "" {
		slog.Warn("could not extract spreadsheet ID", "url", cfg.SpreadsheetURL)
		return
	}

	writer, err := sheets.NewWriter(spreadsheetID, cfg.Credentials)
	if err != nil {
		slog.Warn("failed to initialize google sheets writer", "err", err)
		return
	}

	if _, _, err := writer.CreateSheetAndWriteTable(result.Descriptor.String(), result.Table, sourceURL); err != nil {
		slog.Warn("failed to write to google sheets", "err", err)
		return
	}
	fmt.Printf("Wrote %d matches to Google Sheets\n", len(result.Table.Rows))
}
