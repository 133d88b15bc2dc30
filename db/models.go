package db

import (
	"database/sql"
	"errors"
	"time"

	"fbref-scraper/models"
)

// Run statuses
const (
	StatusCreated    = "created"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
	StatusFailed     = "failed"
)

// Run represents one queued scrape of a match logs URL
type Run struct {
	ID           int
	ChatID       int64
	MessageID    int
	URL          string
	Status       string // "created", "in_progress", "done", "failed"
	RowsCount    int
	CategoriesOK int
	OutputPath   sql.NullString
	Error        sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CategoryResult is the stored outcome of one category of a run
type CategoryResult struct {
	RunID     int
	Category  string
	Status    string // "ok", "failed"
	Stage     sql.NullString
	Error     sql.NullString
	RowsCount int
}

const runColumns = `id, chat_id, message_id, url, status, rows_count, categories_ok, output_path, error, created_at, updated_at`

func scanRun(row interface{ Scan(...any) error }) (*Run, error) {
	var run Run
	err := row.Scan(
		&run.ID, &run.ChatID, &run.MessageID, &run.URL, &run.Status,
		&run.RowsCount, &run.CategoriesOK, &run.OutputPath, &run.Error,
		&run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// CreateRun queues a new run in status 'created'
func (db *DB) CreateRun(chatID int64, messageID int, url string) (*Run, error) {
	return scanRun(db.conn.QueryRow(`
		INSERT INTO fbref_scraper.scrape_runs (chat_id, message_id, url, status)
		VALUES ($1, $2, $3, 'created')
		RETURNING `+runColumns,
		chatID, messageID, url,
	))
}

// ClaimNextRun moves the oldest 'created' run to 'in_progress' and returns
// it, or nil when the queue is empty. Concurrent workers never claim the
// same run.
func (db *DB) ClaimNextRun() (*Run, error) {
	run, err := scanRun(db.conn.QueryRow(`
		UPDATE fbref_scraper.scrape_runs
		SET status = 'in_progress', updated_at = CURRENT_TIMESTAMP
		WHERE id = (
			SELECT id FROM fbref_scraper.scrape_runs
			WHERE status = 'created'
			ORDER BY created_at ASC, id ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + runColumns,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return run, err
}

// SaveCategoryResult stores the outcome of one category
func (db *DB) SaveCategoryResult(runID int, outcome models.CategoryOutcome) error {
	status := "ok"
	var stage, errText sql.NullString
	if !outcome.OK() {
		status = "failed"
		stage = sql.NullString{String: outcome.Stage, Valid: true}
		errText = sql.NullString{String: outcome.Err.Error(), Valid: true}
	}

	_, err := db.conn.Exec(`
		INSERT INTO fbref_scraper.category_results (run_id, category, status, stage, error, rows_count)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, runID, outcome.Category, status, stage, errText, outcome.Rows)
	return err
}

// GetCategoryResults returns the stored category outcomes of a run
func (db *DB) GetCategoryResults(runID int) ([]CategoryResult, error) {
	rows, err := db.conn.Query(`
		SELECT run_id, category, status, stage, error, rows_count
		FROM fbref_scraper.category_results
		WHERE run_id = $1
		ORDER BY id ASC
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []CategoryResult
	for rows.Next() {
		var r CategoryResult
		if err := rows.Scan(&r.RunID, &r.Category, &r.Status, &r.Stage, &r.Error, &r.RowsCount); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// CompleteRun marks a run done with its counts and artifact path
func (db *DB) CompleteRun(runID, rowsCount, categoriesOK int, outputPath string) error {
	_, err := db.conn.Exec(`
		UPDATE fbref_scraper.scrape_runs
		SET status = 'done', rows_count = $1, categories_ok = $2, output_path = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $4
	`, rowsCount, categoriesOK, outputPath, runID)
	return err
}

// FailRun marks a run failed with the reason
func (db *DB) FailRun(runID int, reason string) error {
	_, err := db.conn.Exec(`
		UPDATE fbref_scraper.scrape_runs
		SET status = 'failed', error = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
	`, reason, runID)
	return err
}

// GetRunByID gets a run by its ID
func (db *DB) GetRunByID(runID int) (*Run, error) {
	run, err := scanRun(db.conn.QueryRow(`SELECT `+runColumns+` FROM fbref_scraper.scrape_runs WHERE id = $1`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return run, err
}
