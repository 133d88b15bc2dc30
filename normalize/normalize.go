// Package normalize turns extracted category tables into tables that can be
// joined on the match key without column collisions.
package normalize

import (
	"log/slog"
	"regexp"
	"strings"
	"time"

	"fbref-scraper/models"
)

// GroupPrefixes are grouping headers stripped from the front of flattened
// labels. Unknown groups pass through unstripped.
var GroupPrefixes = []string{
	"Performance_",
	"Expected_",
	"Standard_",
	"SCA_Types_",
	"GCA_Types_",
	"Corner_Kicks_",
	"Outcomes_",
	"Tackles_",
	"Challenges_",
	"Blocks_",
	"Touches_",
	"Take-Ons_",
	"Carries_",
	"Receiving_",
	"Aerial_Duels_",
	"Penalty_Kicks_",
	"Launched_",
	"Goal_Kicks_",
	"Crosses_",
	"Sweeper_",
	"Goals_",
	"Total_",
	"Short_",
	"Medium_",
	"Long_",
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	underscoreRe = regexp.MustCompile(`_+`)
)

// noiseMarkers identify placeholder and link columns that carry no statistic
var noiseMarkers = []string{"unnamed", "match_report", "match report"}

var sanitizer = strings.NewReplacer(
	" ", "_",
	"/", "_",
	"%", "Pct",
	"-", "_",
)

// dateLayouts are tried in order when parsing match dates
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"01/02/2006",
	"1/2/2006",
}

type column struct {
	name  string
	index int // position in the raw row, -1 for synthesized columns
}

// Normalize converts a raw category table into a NormalizedTable. It never
// fails: malformed cells and dates become missing values and every row is
// kept.
func Normalize(raw *models.RawTable, category string) *models.NormalizedTable {
	// label cleanup and noise removal
	var kept []column
	for i, label := range raw.Columns {
		label = CollapseWhitespace(label)
		if IsNoise(label) {
			slog.Debug("dropping noise column", "category", category, "column", label)
			continue
		}
		kept = append(kept, column{name: label, index: i})
	}

	// prefix stripping and sanitization
	kept = stripPrefixes(kept)
	named := kept[:0]
	for _, c := range kept {
		c.name = Sanitize(c.name)
		if c.name == "" {
			slog.Debug("dropping column with no name", "category", category, "index", c.index)
			continue
		}
		named = append(named, c)
	}
	kept = dedupe(named, category)

	// match key lookup; a missing key column stays at index -1
	keyIndex := make(map[string]int, len(models.KeyColumns))
	for _, key := range models.KeyColumns {
		keyIndex[key] = -1
	}
	var stats []column
	for _, c := range kept {
		if key, ok := keyColumn(c.name); ok && keyIndex[key] == -1 {
			keyIndex[key] = c.index
			continue
		}
		stats = append(stats, c)
	}
	for _, key := range models.KeyColumns {
		if keyIndex[key] == -1 {
			slog.Debug("synthesizing missing key column", "category", category, "column", key)
		}
	}

	dateIndex := findDateColumn(kept)

	table := &models.NormalizedTable{Category: category}
	for _, c := range stats {
		table.Columns = append(table.Columns, Suffix(c.name, category))
	}

	for _, cells := range raw.Rows {
		row := models.Row{
			Key: models.MatchKey{
				Date:     ParseDate(cellAt(cells, dateIndex)),
				Comp:     cellAt(cells, keyIndex[models.ColComp]),
				Opponent: cellAt(cells, keyIndex[models.ColOpponent]),
				Venue:    cellAt(cells, keyIndex[models.ColVenue]),
				Result:   cellAt(cells, keyIndex[models.ColResult]),
			},
			Values: make(map[string]models.Cell, len(stats)),
		}
		for i, c := range stats {
			row.Values[table.Columns[i]] = cellAt(cells, c.index)
		}
		table.Rows = append(table.Rows, row)
	}

	return table
}

// CollapseWhitespace replaces each run of whitespace with a single underscore
func CollapseWhitespace(label string) string {
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(label), "_")
}

// IsNoise reports placeholder and navigation columns
func IsNoise(label string) bool {
	if label == "" {
		return true
	}
	lower := strings.ToLower(label)
	for _, marker := range noiseMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// StripPrefix removes a known grouping prefix from label
func StripPrefix(label string) string {
	for _, prefix := range GroupPrefixes {
		if strings.HasPrefix(label, prefix) && len(label) > len(prefix) {
			return label[len(prefix):]
		}
	}
	return label
}

// Sanitize makes a label safe as a flat column name. It is idempotent.
func Sanitize(label string) string {
	label = sanitizer.Replace(label)
	label = underscoreRe.ReplaceAllString(label, "_")
	return strings.Trim(label, "_")
}

// Suffix tags a statistic column with its category
func Suffix(name, category string) string {
	if category == "" {
		return name
	}
	return name + "_" + category
}

// stripPrefixes strips grouping prefixes unless the result would collide
// with another column of the same table
func stripPrefixes(columns []column) []column {
	candidates := make([]string, len(columns))
	counts := make(map[string]int, len(columns))
	originals := make(map[string]bool, len(columns))
	for i, c := range columns {
		candidates[i] = Sanitize(StripPrefix(c.name))
		counts[candidates[i]]++
		originals[Sanitize(c.name)] = true
	}

	out := make([]column, len(columns))
	for i, c := range columns {
		stripped := StripPrefix(c.name)
		if stripped != c.name && (counts[candidates[i]] > 1 || originals[candidates[i]]) {
			stripped = c.name
		}
		out[i] = column{name: stripped, index: c.index}
	}
	return out
}

// dedupe keeps the first of several columns sharing a name
func dedupe(columns []column, category string) []column {
	seen := make(map[string]bool, len(columns))
	out := columns[:0]
	for _, c := range columns {
		if seen[c.name] {
			slog.Debug("dropping duplicate column", "category", category, "column", c.name)
			continue
		}
		seen[c.name] = true
		out = append(out, c)
	}
	return out
}

// keyColumn matches a label against the key columns case-insensitively
func keyColumn(name string) (string, bool) {
	for _, key := range models.KeyColumns {
		if strings.EqualFold(name, key) {
			return key, true
		}
	}
	return "", false
}

// findDateColumn prefers an exact "date" label, then any label containing it
func findDateColumn(columns []column) int {
	for _, c := range columns {
		if strings.EqualFold(c.name, "date") {
			return c.index
		}
	}
	for _, c := range columns {
		if strings.Contains(strings.ToLower(c.name), "date") {
			return c.index
		}
	}
	return -1
}

// ParseDate parses a match date; anything unparseable is a missing date
func ParseDate(cell models.Cell) models.Date {
	if !cell.Valid {
		return models.Date{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cell.Value); err == nil {
			return models.NewDate(t)
		}
	}
	return models.Date{}
}

func cellAt(cells []models.Cell, index int) models.Cell {
	if index < 0 || index >= len(cells) {
		return models.Missing()
	}
	return cells[index]
}
