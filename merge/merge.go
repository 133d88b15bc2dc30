// Package merge outer-joins normalized category tables on the match key.
package merge

import (
	"log/slog"
	"sort"

	"fbref-scraper/models"
)

// Merge combines the tables into one row per distinct match key.
//
// Tables are joined in the order given. When two tables carry the same
// non-key column, the column of the earlier table is kept and the later one
// is dropped. Inside a single table, rows repeating a key collapse into one
// row where the first non-missing value of each column wins. Rows are sorted
// by date ascending with missing dates last; equal dates keep first-seen
// order.
func Merge(tables ...*models.NormalizedTable) *models.SeasonTable {
	season := &models.SeasonTable{
		Columns: append([]string(nil), models.KeyColumns...),
	}

	owner := make(map[string]string) // column -> category that contributed it
	index := make(map[models.MatchKey]int)

	for _, table := range tables {
		if table == nil {
			continue
		}

		var columns []string
		for _, column := range table.Columns {
			if models.IsKeyColumn(column) {
				continue
			}
			if first, ok := owner[column]; ok {
				slog.Warn("dropping duplicate column",
					"column", column, "category", table.Category, "kept_from", first)
				continue
			}
			owner[column] = table.Category
			columns = append(columns, column)
			season.Columns = append(season.Columns, column)
		}

		for _, row := range table.Rows {
			i, ok := index[row.Key]
			if !ok {
				i = len(season.Rows)
				index[row.Key] = i
				season.Rows = append(season.Rows, models.Row{
					Key:    row.Key,
					Values: make(map[string]models.Cell),
				})
			}
			target := season.Rows[i].Values
			for _, column := range columns {
				if existing, ok := target[column]; ok && existing.Valid {
					continue
				}
				target[column] = row.Values[column]
			}
		}
	}

	// every row holds every column, absent values are explicit
	for _, row := range season.Rows {
		for _, column := range season.Columns[len(models.KeyColumns):] {
			if _, ok := row.Values[column]; !ok {
				row.Values[column] = models.Missing()
			}
		}
	}

	sort.SliceStable(season.Rows, func(a, b int) bool {
		return season.Rows[a].Key.Date.Before(season.Rows[b].Key.Date)
	})

	return season
}
