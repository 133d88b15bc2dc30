package filter

import (
	"testing"

	"fbref-scraper/config"
	"fbref-scraper/models"

	"github.com/stretchr/testify/require"
)

func seasonTable() *models.SeasonTable {
	columns := append(append([]string(nil), models.KeyColumns...),
		"Sh_shooting", "xG_shooting", "Cmp_passing", "Tkl_defense")
	values := map[string]models.Cell{
		"Sh_shooting": models.Text("12"),
		"xG_shooting": models.Text("1.4"),
		"Cmp_passing": models.Text("480"),
		"Tkl_defense": models.Text("16"),
	}
	return &models.SeasonTable{
		Columns: columns,
		Rows:    []models.Row{{Values: values}},
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.FilterConfig
		expected []string
	}{
		{
			name:     "no patterns keeps everything",
			expected: []string{"Sh_shooting", "xG_shooting", "Cmp_passing", "Tkl_defense"},
		},
		{
			name:     "include by category",
			cfg:      config.FilterConfig{Include: []string{"*_shooting"}},
			expected: []string{"Sh_shooting", "xG_shooting"},
		},
		{
			name:     "exclude after include",
			cfg:      config.FilterConfig{Include: []string{"*_shooting", "*_passing"}, Exclude: []string{"xG_*"}},
			expected: []string{"Sh_shooting", "Cmp_passing"},
		},
		{
			name:     "exclude only",
			cfg:      config.FilterConfig{Exclude: []string{"*_defense"}},
			expected: []string{"Sh_shooting", "xG_shooting", "Cmp_passing"},
		},
		{
			name:     "key columns survive",
			cfg:      config.FilterConfig{Include: []string{"nothing"}, Exclude: []string{"*"}},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFilter(tt.cfg)
			require.NoError(t, err)

			table := f.Apply(seasonTable())
			expected := append(append([]string(nil), models.KeyColumns...), tt.expected...)
			require.Equal(t, expected, table.Columns)
			require.Len(t, table.Rows[0].Values, len(tt.expected))
		})
	}
}

func TestNewFilterInvalidPattern(t *testing.T) {
	_, err := NewFilter(config.FilterConfig{Include: []string{"[unclosed"}})
	require.Error(t, err)
}

func TestNilFilter(t *testing.T) {
	var f *Filter
	table := seasonTable()
	require.Same(t, table, f.Apply(table))
}
