package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/lib/pq"
)

// schemaName holds every table of the run ledger
const schemaName = "fbref_scraper"

// DB wraps the database connection
type DB struct {
	conn *sql.DB
}

// NewDB creates a new database connection from the environment
func NewDB() (*DB, error) {
	return Open(connString())
}

// Open connects to connStr and makes sure the schema exists
func Open(connStr string) (*DB, error) {
	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// connString reads DATABASE_URL, or builds a DSN from the DB_* variables
func connString() string {
	if connStr := os.Getenv("DATABASE_URL"); connStr != "" {
		return connStr
	}

	host := getEnvOrDefault("DB_HOST", "localhost")
	port := getEnvOrDefault("DB_PORT", "5432")
	user := getEnvOrDefault("DB_USER", "fbref_scraper")
	password := getEnvOrDefault("DB_PASSWORD", "")
	dbname := getEnvOrDefault("DB_NAME", "fbref_scraper")
	sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s",
		host, port, user, password, dbname, sslmode, schemaName)
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the necessary tables if they don't exist
func (db *DB) initSchema() error {
	// the schema may be pre-provisioned without create rights
	_, err := db.conn.Exec(`CREATE SCHEMA IF NOT EXISTS ` + schemaName)
	if err != nil {
		slog.Info("could not create schema (may already exist)", "schema", schemaName, "err", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS fbref_scraper.scrape_runs (
			id SERIAL PRIMARY KEY,
			chat_id BIGINT NOT NULL DEFAULT 0,
			message_id INTEGER NOT NULL DEFAULT 0,
			url TEXT NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'created',
			rows_count INTEGER NOT NULL DEFAULT 0,
			categories_ok INTEGER NOT NULL DEFAULT 0,
			output_path TEXT,
			error TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT valid_status CHECK (status IN ('created', 'in_progress', 'done', 'failed'))
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create scrape_runs table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS fbref_scraper.category_results (
			id SERIAL PRIMARY KEY,
			run_id INTEGER NOT NULL REFERENCES fbref_scraper.scrape_runs(id) ON DELETE CASCADE,
			category VARCHAR(50) NOT NULL,
			status VARCHAR(20) NOT NULL,
			stage VARCHAR(20),
			error TEXT,
			rows_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT valid_category_status CHECK (status IN ('ok', 'failed'))
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create category_results table: %w", err)
	}

	_, err = db.conn.Exec(`CREATE INDEX IF NOT EXISTS idx_scrape_runs_status ON fbref_scraper.scrape_runs(status)`)
	if err != nil {
		slog.Warn("failed to create index on scrape_runs.status", "err", err)
	}

	_, err = db.conn.Exec(`CREATE INDEX IF NOT EXISTS idx_category_results_run_id ON fbref_scraper.category_results(run_id)`)
	if err != nil {
		slog.Warn("failed to create index on category_results.run_id", "err", err)
	}

	slog.Debug("database schema initialized")
	return nil
}
