package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	"fbref-scraper/db"
	"fbref-scraper/export"
	"fbref-scraper/matchlog"
	"fbref-scraper/models"
	"fbref-scraper/scraper"
	"fbref-scraper/sheets"
)

// Store is the run ledger the scheduler works from
type Store interface {
	ClaimNextRun() (*db.Run, error)
	SaveCategoryResult(runID int, outcome models.CategoryOutcome) error
	CompleteRun(runID, rowsCount, categoriesOK int, outputPath string) error
	FailRun(runID int, reason string) error
}

// Notifier reports progress and results back to whoever queued a run
type Notifier interface {
	Notify(chatID int64, replyTo int, text string) error
	SendDocument(chatID int64, replyTo int, path string) error
}

// SheetWriter receives a copy of every finished season table
type SheetWriter interface {
	CreateSheetAndWriteTable(sheetName string, season *models.SeasonTable, sourceURL string) (string, int64, error)
}

// Scheduler processes queued scrape runs from the database
type Scheduler struct {
	store          Store
	scraper        scraper.Scraper
	notifier       Notifier
	writer         SheetWriter
	spreadsheetURL string
	outputDir      string
	interval       time.Duration
	ctx            context.Context
	cancel         context.CancelFunc
}

// NewScheduler creates a new scheduler that polls store every interval and
// writes artifacts under outputDir
func NewScheduler(store Store, s scraper.Scraper, notifier Notifier, outputDir string, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	if interval <= 0 {
		interval = 5 * time.Second
	}

	return &Scheduler{
		store:     store,
		scraper:   s,
		notifier:  notifier,
		outputDir: outputDir,
		interval:  interval,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// SetSheets also writes every finished table to a new sheet of the spreadsheet
func (s *Scheduler) SetSheets(writer SheetWriter, spreadsheetURL string) {
	s.writer = writer
	s.spreadsheetURL = spreadsheetURL
}

// Start starts the scheduler in a goroutine
func (s *Scheduler) Start() {
	go s.run()
}

// Stop stops the scheduler and cancels the run in progress
func (s *Scheduler) Stop() {
	s.cancel()
}

// run is the main scheduler loop
func (s *Scheduler) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			slog.Info("scheduler stopped")
			return
		case <-ticker.C:
			// drain the queue before waiting again
			for s.ctx.Err() == nil && s.ProcessNext() {
			}
		}
	}
}

// ProcessNext claims and processes the next queued run. It reports whether
// a run was found.
func (s *Scheduler) ProcessNext() bool {
	run, err := s.store.ClaimNextRun()
	if err != nil {
		slog.Error("failed to claim next run", "err", err)
		return false
	}
	if run == nil {
		return false
	}

	log := slog.With("run", run.ID, "chat", run.ChatID)
	log.Info("processing run", "url", run.URL)
	s.notify(run, "🔄 Fetching match logs...")

	result, err := s.scraper.Scrape(s.ctx, run.URL)
	if err != nil {
		s.failRun(run, err)
		return true
	}

	for _, outcome := range result.Outcomes {
		if err := s.store.SaveCategoryResult(run.ID, outcome); err != nil {
			log.Warn("failed to save category result", "category", outcome.Category, "err", err)
		}
	}

	dir := filepath.Join(s.outputDir, strconv.Itoa(run.ID))
	path, err := export.SaveCSV(dir, result.Descriptor.FileName(), result.Table)
	if err != nil {
		s.failRun(run, err)
		return true
	}

	categoriesOK := len(result.Outcomes) - len(result.Failures())
	if err := s.store.CompleteRun(run.ID, len(result.Table.Rows), categoriesOK, path); err != nil {
		log.Error("failed to mark run done", "err", err)
	}

	msg := "✅ " + result.Summary()
	if link := s.writeSheet(run, result); link != "" {
		msg += "\n\nSpreadsheet: " + link
	}
	s.notify(run, msg)
	if err := s.notifier.SendDocument(run.ChatID, run.MessageID, path); err != nil {
		log.Warn("failed to send csv", "path", path, "err", err)
	}

	log.Info("run done", "rows", len(result.Table.Rows), "path", path)
	return true
}

// writeSheet copies the table to Google Sheets when configured and returns
// a link to the new sheet
func (s *Scheduler) writeSheet(run *db.Run, result *scraper.Result) string {
	if s.writer == nil {
		return ""
	}

	sheetName := fmt.Sprintf("%s_%d", result.Descriptor, run.ID)
	_, sheetID, err := s.writer.CreateSheetAndWriteTable(sheetName, result.Table, run.URL)
	if err != nil {
		slog.Warn("failed to write to google sheets", "run", run.ID, "err", err)
		return ""
	}
	return s.createSheetURL(sheetID)
}

// failRun marks a run failed and tells the requester why
func (s *Scheduler) failRun(run *db.Run, err error) {
	slog.Error("run failed", "run", run.ID, "err", err)
	if updateErr := s.store.FailRun(run.ID, err.Error()); updateErr != nil {
		slog.Error("failed to mark run failed", "run", run.ID, "err", updateErr)
	}
	s.notify(run, "❌ "+describeError(err))
}

// describeError turns pipeline errors into messages for the requester
func describeError(err error) string {
	switch {
	case errors.Is(err, matchlog.ErrInvalidURLFormat):
		return "That does not look like a team match logs URL."
	case errors.Is(err, scraper.ErrNoDataAvailable):
		return "No statistics could be fetched for this team season. Try again later."
	case errors.Is(err, context.Canceled):
		return "The run was cancelled."
	}
	return fmt.Sprintf("Error processing run: %v", err)
}

// createSheetURL creates a URL that opens a specific sheet in the spreadsheet
func (s *Scheduler) createSheetURL(sheetID int64) string {
	spreadsheetID := sheets.ExtractSpreadsheetID(s.spreadsheetURL)
	if spreadsheetID == "" {
		return s.spreadsheetURL
	}
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit#gid=%d", spreadsheetID, sheetID)
}

func (s *Scheduler) notify(run *db.Run, text string) {
	if err := s.notifier.Notify(run.ChatID, run.MessageID, text); err != nil {
		slog.Warn("failed to send status update", "run", run.ID, "err", err)
	}
}
