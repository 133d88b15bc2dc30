package merge

import (
	"sort"
	"testing"
	"time"

	"fbref-scraper/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func key(date, opponent string) models.MatchKey {
	k := models.MatchKey{
		Comp:     models.Text("Premier League"),
		Opponent: models.Text(opponent),
		Venue:    models.Text("Home"),
		Result:   models.Text("W"),
	}
	if date != "" {
		t, err := time.Parse("2006-01-02", date)
		if err != nil {
			panic(err)
		}
		k.Date = models.NewDate(t)
	}
	return k
}

func row(k models.MatchKey, values map[string]string) models.Row {
	r := models.Row{Key: k, Values: make(map[string]models.Cell)}
	for column, v := range values {
		r.Values[column] = models.Text(v)
	}
	return r
}

func threeTables() []*models.NormalizedTable {
	shooting := &models.NormalizedTable{
		Category: "shooting",
		Columns:  []string{"Sh_shooting"},
		Rows: []models.Row{
			row(key("2024-01-20", "Palace"), map[string]string{"Sh_shooting": "15"}),
			row(key("2024-01-01", "Fulham"), map[string]string{"Sh_shooting": "9"}),
		},
	}
	passing := &models.NormalizedTable{
		Category: "passing",
		Columns:  []string{"Cmp_passing"},
		Rows: []models.Row{
			row(key("2024-01-01", "Fulham"), map[string]string{"Cmp_passing": "500"}),
			row(key("2024-01-10", "Luton"), map[string]string{"Cmp_passing": "610"}),
		},
	}
	defense := &models.NormalizedTable{
		Category: "defense",
		Columns:  []string{"Tkl_defense"},
		Rows: []models.Row{
			row(key("2024-01-20", "Palace"), map[string]string{"Tkl_defense": "17"}),
		},
	}
	return []*models.NormalizedTable{shooting, passing, defense}
}

func opponents(table *models.SeasonTable) []string {
	var out []string
	for _, r := range table.Rows {
		out = append(out, r.Key.Opponent.Value)
	}
	return out
}

func TestMergeOuterJoin(t *testing.T) {
	season := Merge(threeTables()...)

	expectedColumns := []string{
		"Date", "Comp", "Opponent", "Venue", "Result",
		"Sh_shooting", "Cmp_passing", "Tkl_defense",
	}
	if diff := cmp.Diff(expectedColumns, season.Columns); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}

	require.Equal(t, []string{"Fulham", "Luton", "Palace"}, opponents(season))

	fulham := season.Rows[0]
	require.Equal(t, "9", fulham.Get("Sh_shooting").Value)
	require.Equal(t, "500", fulham.Get("Cmp_passing").Value)
	require.False(t, fulham.Get("Tkl_defense").Valid)

	luton := season.Rows[1]
	require.False(t, luton.Get("Sh_shooting").Valid)
	require.Equal(t, "610", luton.Get("Cmp_passing").Value)

	palace := season.Rows[2]
	require.Equal(t, "15", palace.Get("Sh_shooting").Value)
	require.Equal(t, "17", palace.Get("Tkl_defense").Value)
	require.Equal(t, "2024-01-20", palace.Get("Date").Value)

	// every row carries every column explicitly
	for _, r := range season.Rows {
		require.Len(t, r.Values, len(season.Columns)-len(models.KeyColumns))
	}
}

func TestMergeKeysAreUnique(t *testing.T) {
	season := Merge(threeTables()...)

	seen := make(map[models.MatchKey]bool)
	for _, r := range season.Rows {
		require.False(t, seen[r.Key], "duplicate key %v", r.Key)
		seen[r.Key] = true
	}
}

func TestMergeMissingDatesSortLast(t *testing.T) {
	table := &models.NormalizedTable{
		Category: "misc",
		Columns:  []string{"Fls_misc"},
		Rows: []models.Row{
			row(key("", "Unknown"), map[string]string{"Fls_misc": "1"}),
			row(key("2024-02-01", "Brentford"), map[string]string{"Fls_misc": "2"}),
			row(key("2023-12-28", "West Ham"), map[string]string{"Fls_misc": "3"}),
		},
	}

	season := Merge(table)
	require.Equal(t, []string{"West Ham", "Brentford", "Unknown"}, opponents(season))
	require.False(t, season.Rows[2].Key.Date.Valid)
}

func TestMergeEqualDatesKeepFirstSeenOrder(t *testing.T) {
	table := &models.NormalizedTable{
		Category: "misc",
		Rows: []models.Row{
			row(key("2024-01-01", "B"), nil),
			row(key("2024-01-01", "A"), nil),
			row(key("2024-01-01", "C"), nil),
		},
	}

	require.Equal(t, []string{"B", "A", "C"}, opponents(Merge(table)))
}

func TestMergeDuplicateColumnKeepsFirst(t *testing.T) {
	first := &models.NormalizedTable{
		Category: "keeper",
		Columns:  []string{"Saves_keeper"},
		Rows:     []models.Row{row(key("2024-01-01", "Fulham"), map[string]string{"Saves_keeper": "3"})},
	}
	second := &models.NormalizedTable{
		Category: "keeper",
		Columns:  []string{"Saves_keeper"},
		Rows:     []models.Row{row(key("2024-01-01", "Fulham"), map[string]string{"Saves_keeper": "99"})},
	}

	season := Merge(first, second)
	require.Equal(t, []string{"Date", "Comp", "Opponent", "Venue", "Result", "Saves_keeper"}, season.Columns)
	require.Len(t, season.Rows, 1)
	require.Equal(t, "3", season.Rows[0].Get("Saves_keeper").Value)
}

func TestMergeDuplicateKeysWithinTable(t *testing.T) {
	table := &models.NormalizedTable{
		Category: "shooting",
		Columns:  []string{"Sh_shooting", "SoT_shooting"},
		Rows: []models.Row{
			row(key("2024-01-01", "Fulham"), map[string]string{"Sh_shooting": "9"}),
			row(key("2024-01-01", "Fulham"), map[string]string{"Sh_shooting": "12", "SoT_shooting": "4"}),
		},
	}

	season := Merge(table)
	require.Len(t, season.Rows, 1)
	require.Equal(t, "9", season.Rows[0].Get("Sh_shooting").Value)
	require.Equal(t, "4", season.Rows[0].Get("SoT_shooting").Value)
}

func TestMergeRowSetIsOrderIndependent(t *testing.T) {
	tables := threeTables()
	forward := Merge(tables...)
	backward := Merge(tables[2], tables[1], tables[0])

	keys := func(s *models.SeasonTable) []string {
		var out []string
		for _, r := range s.Rows {
			out = append(out, r.Key.Date.String()+"|"+r.Key.Opponent.Value)
		}
		sort.Strings(out)
		return out
	}
	require.Equal(t, keys(forward), keys(backward))

	columns := func(s *models.SeasonTable) []string {
		out := append([]string(nil), s.Columns...)
		sort.Strings(out)
		return out
	}
	require.Equal(t, columns(forward), columns(backward))
}

func TestMergeEmpty(t *testing.T) {
	season := Merge()
	require.Equal(t, models.KeyColumns, season.Columns)
	require.Empty(t, season.Rows)

	season = Merge(nil, &models.NormalizedTable{Category: "misc"})
	require.Empty(t, season.Rows)
}
