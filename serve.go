package main

import (
	"errors"
	"log/slog"
	"os"

	"fbref-scraper/bot"
	"fbref-scraper/config"
	"fbref-scraper/db"
	"fbref-scraper/metrics"
	"fbref-scraper/scheduler"
	"fbref-scraper/sheets"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(botCmd)
}

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Runs the Telegram bot that queues scrape requests and sends back CSVs.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		token := os.Getenv("FBREF_TG_TOKEN")
		if token == "" {
			return errors.New("FBREF_TG_TOKEN environment variable is not set")
		}

		cfg, err := config.LoadOrDefault(configPath)
		if err != nil {
			return err
		}

		database, err := db.NewDB()
		if err != nil {
			return err
		}
		defer database.Close()

		pipeline, closeCache, err := newPipeline(cfg)
		if err != nil {
			return err
		}
		defer closeCache()

		b, err := bot.New(token, database, cfg.Bot.AllowedUsers)
		if err != nil {
			return err
		}

		sched := scheduler.NewScheduler(database, pipeline, b, cfg.Output.Dir, cfg.Bot.PollInterval)
		if id := sheets.ExtractSpreadsheetID(cfg.Sheets.SpreadsheetURL); id != "" {
			writer, err := sheets.NewWriter(id, cfg.Sheets.Credentials)
			if err != nil {
				slog.Warn("google sheets disabled", "err", err)
			} else {
				sched.SetSheets(writer, cfg.Sheets.SpreadsheetURL)
			}
		}
		sched.Start()
		defer sched.Stop()

		if cfg.Metrics.Listen != "" {
			go func() {
				if err := metrics.Serve(ctx, cfg.Metrics.Listen); err != nil {
					slog.Error("metrics server stopped", "err", err)
				}
			}()
		}

		b.Run(ctx)
		slog.Info("shutting down")
		return nil
	},
}
