package filter

import (
	"fmt"

	"fbref-scraper/config"
	"fbref-scraper/models"

	"github.com/gobwas/glob"
)

// Filter selects which statistic columns of a merged table are exported
type Filter struct {
	include []glob.Glob
	exclude []glob.Glob
}

// NewFilter compiles the include and exclude patterns of the configuration
func NewFilter(cfg config.FilterConfig) (*Filter, error) {
	include, err := compile(cfg.Include)
	if err != nil {
		return nil, err
	}
	exclude, err := compile(cfg.Exclude)
	if err != nil {
		return nil, err
	}
	return &Filter{include: include, exclude: exclude}, nil
}

func compile(patterns []string) ([]glob.Glob, error) {
	var globs []glob.Glob
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid column pattern %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// Apply removes the statistic columns that do not pass the filter. Key
// columns are always kept. The table is modified in place and returned.
func (f *Filter) Apply(table *models.SeasonTable) *models.SeasonTable {
	if f == nil || (len(f.include) == 0 && len(f.exclude) == 0) {
		return table
	}

	var columns []string
	for _, column := range table.Columns {
		if models.IsKeyColumn(column) || f.keeps(column) {
			columns = append(columns, column)
			continue
		}
		for _, row := range table.Rows {
			delete(row.Values, column)
		}
	}
	table.Columns = columns
	return table
}

// keeps checks if a column matches the include list and none of the excludes
func (f *Filter) keeps(column string) bool {
	if len(f.include) > 0 && !matchAny(f.include, column) {
		return false
	}
	return !matchAny(f.exclude, column)
}

func matchAny(globs []glob.Glob, s string) bool {
	for _, g := range globs {
		if g.Match(s) {
			return true
		}
	}
	return false
}
