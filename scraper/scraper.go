package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fbref-scraper/fetcher"
	"fbref-scraper/filter"
	"fbref-scraper/matchlog"
	"fbref-scraper/merge"
	"fbref-scraper/metrics"
	"fbref-scraper/models"
	"fbref-scraper/normalize"
	"fbref-scraper/parser"
)

// ErrNoDataAvailable is returned when no category produced a table
var ErrNoDataAvailable = errors.New("no data available")

// Failure stages of a category
const (
	StageFetch   = "fetch"
	StageExtract = "extract"
)

// Scraper interface defines the contract for scraping implementations
type Scraper interface {
	// Scrape builds the merged season table for a team match logs URL
	Scrape(ctx context.Context, url string) (*Result, error)
}

// Result is the outcome of one run
type Result struct {
	Descriptor *matchlog.Descriptor
	Table      *models.SeasonTable
	Outcomes   []models.CategoryOutcome // one per attempted category, in fetch order
}

// Failures returns the categories that were skipped
func (r *Result) Failures() []models.CategoryOutcome {
	var failures []models.CategoryOutcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			failures = append(failures, o)
		}
	}
	return failures
}

// Summary is a short human readable account of the run
func (r *Result) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d matches, %d columns, %d/%d categories",
		r.Descriptor, len(r.Table.Rows), len(r.Table.Columns), len(r.Outcomes)-len(r.Failures()), len(r.Outcomes))
	for _, f := range r.Failures() {
		fmt.Fprintf(&b, "\nskipped %s (%s): %v", f.Category, f.Stage, f.Err)
	}
	return b.String()
}

// Pipeline fetches, extracts and normalizes each category in order and
// merges the results into one season table
type Pipeline struct {
	fetcher    fetcher.Fetcher
	parser     *parser.Parser
	filter     *filter.Filter
	categories []string
}

// NewPipeline creates a pipeline over the given categories. A nil filter
// keeps every column.
func NewPipeline(f fetcher.Fetcher, columns *filter.Filter, categories []string) *Pipeline {
	if len(categories) == 0 {
		categories = matchlog.DefaultCategories
	}
	return &Pipeline{
		fetcher:    f,
		parser:     parser.NewParser(),
		filter:     columns,
		categories: categories,
	}
}

// Scrape implements the Scraper interface. Category failures are skipped and
// recorded in the result; only an invalid URL, cancellation or a run where
// every category failed is an error.
func (p *Pipeline) Scrape(ctx context.Context, rawURL string) (*Result, error) {
	start := time.Now()
	result, err := p.scrape(ctx, rawURL)
	metrics.ObserveRun(start, err)
	return result, err
}

func (p *Pipeline) scrape(ctx context.Context, rawURL string) (*Result, error) {
	desc, err := matchlog.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	slog.Info("scraping match logs", "team", desc.String(), "categories", len(p.categories))

	result := &Result{Descriptor: desc}
	var tables []*models.NormalizedTable

	for _, category := range p.categories {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		table, outcome := p.category(ctx, desc, category)
		result.Outcomes = append(result.Outcomes, outcome)
		if !outcome.OK() {
			slog.Warn("skipping category", "category", category, "stage", outcome.Stage, "err", outcome.Err)
			metrics.Categories.WithLabelValues(category, outcome.Stage).Inc()
			continue
		}
		metrics.Categories.WithLabelValues(category, "ok").Inc()
		tables = append(tables, table)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: all %d categories failed for %s", ErrNoDataAvailable, len(p.categories), desc)
	}

	season := merge.Merge(tables...)
	season.TeamID = desc.TeamID
	season.TeamName = desc.TeamName()
	season.Season = desc.Season
	result.Table = p.filter.Apply(season)

	slog.Info("merged season table",
		"team", desc.String(),
		"rows", len(season.Rows),
		"columns", len(season.Columns),
		"skipped", len(result.Failures()))
	return result, nil
}

// category runs fetch, extract and normalize for one category
func (p *Pipeline) category(ctx context.Context, desc *matchlog.Descriptor, category string) (*models.NormalizedTable, models.CategoryOutcome) {
	outcome := models.CategoryOutcome{Category: category}

	markup, err := p.fetcher.Fetch(ctx, desc.CategoryURL(category))
	if err != nil {
		outcome.Stage, outcome.Err = StageFetch, err
		return nil, outcome
	}

	raw, err := p.parser.ExtractTable(markup, category)
	if err != nil {
		outcome.Stage, outcome.Err = StageExtract, err
		return nil, outcome
	}

	table := normalize.Normalize(raw, category)
	outcome.Rows = len(table.Rows)
	slog.Debug("normalized category", "category", category, "rows", outcome.Rows, "columns", len(table.Columns))
	return table, outcome
}
