package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"fbref-scraper/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
)

var (
	// ErrNoTableFound is returned when markup holds no table, neither as an
	// element nor inside a comment block
	ErrNoTableFound = errors.New("no table found")
	// ErrTableParse is returned when a table was found but yields no columns
	ErrTableParse = errors.New("failed to parse table")
)

// headerSeparator joins the levels of a multi-row header
const headerSeparator = "_"

// hintWindow is how much of a table's leading markup is searched for the
// category hint
const hintWindow = 400

// Parser extracts statistic tables from match log pages
type Parser struct{}

// NewParser creates a new Parser instance
func NewParser() *Parser {
	return &Parser{}
}

// ExtractTable finds the primary data table of a category page and converts
// it into a RawTable. Real table elements are searched first; when the page
// has none, tables shipped inside HTML comments are used instead. A table
// whose id or leading markup mentions hint is preferred.
func (p *Parser) ExtractTable(htmlContent, hint string) (*models.RawTable, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTableParse, err)
	}

	table := pickTable(doc.Find("table"), hint)
	if table == nil {
		table, err = p.findCommentedTable(htmlContent, hint)
		if err != nil {
			return nil, err
		}
	}
	if table == nil {
		return nil, ErrNoTableFound
	}

	raw, err := parseTable(table)
	if err != nil {
		return nil, err
	}
	raw.Category = hint
	return raw, nil
}

// findCommentedTable searches comment nodes in document order for table markup
func (p *Parser) findCommentedTable(htmlContent, hint string) (*goquery.Selection, error) {
	root, err := htmlquery.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTableParse, err)
	}

	var first *goquery.Selection
	for _, comment := range htmlquery.Find(root, "//comment()") {
		if !strings.Contains(comment.Data, "<table") {
			continue
		}
		fragment, err := goquery.NewDocumentFromReader(strings.NewReader(comment.Data))
		if err != nil {
			slog.Debug("skipping unparseable comment block", "err", err)
			continue
		}
		tables := fragment.Find("table")
		if tables.Length() == 0 {
			continue
		}
		if hint == "" {
			return tables.First(), nil
		}
		if match := matchHint(tables, hint); match != nil {
			return match, nil
		}
		if first == nil {
			first = tables.First()
		}
	}
	return first, nil
}

// pickTable returns the table matching hint, else the first one, else nil
func pickTable(tables *goquery.Selection, hint string) *goquery.Selection {
	if tables.Length() == 0 {
		return nil
	}
	if hint != "" {
		if match := matchHint(tables, hint); match != nil {
			return match
		}
	}
	return tables.First()
}

// matchHint prefers an id ending in the hint, then any id or leading markup
// containing it
func matchHint(tables *goquery.Selection, hint string) *goquery.Selection {
	var loose *goquery.Selection
	tables.EachWithBreak(func(i int, t *goquery.Selection) bool {
		id := t.AttrOr("id", "")
		if id == hint || strings.HasSuffix(id, "_"+hint) {
			loose = t
			return false
		}
		if loose == nil {
			outer, err := goquery.OuterHtml(t)
			if err == nil && len(outer) > hintWindow {
				outer = outer[:hintWindow]
			}
			if strings.Contains(id, hint) || strings.Contains(outer, hint) {
				loose = t
			}
		}
		return true
	})
	return loose
}

// parseTable converts a table element into flattened columns and rows
func parseTable(table *goquery.Selection) (*models.RawTable, error) {
	headerRows := table.ChildrenFiltered("thead").ChildrenFiltered("tr")
	bodyRows := table.ChildrenFiltered("tbody").ChildrenFiltered("tr")
	if headerRows.Length() == 0 {
		// no thead: the first row holds the labels
		if bodyRows.Length() == 0 {
			return nil, fmt.Errorf("%w: table has no rows", ErrTableParse)
		}
		headerRows = bodyRows.First()
		bodyRows = bodyRows.Slice(1, bodyRows.Length())
	}

	var levels [][]string
	headerRows.Each(func(i int, row *goquery.Selection) {
		levels = append(levels, expandRow(row))
	})

	columns := flattenHeader(levels)
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: table has no header cells", ErrTableParse)
	}

	raw := &models.RawTable{Columns: columns}
	bodyRows.Each(func(i int, row *goquery.Selection) {
		if isSeparatorRow(row) {
			return
		}
		texts := expandRow(row)
		cells := make([]models.Cell, len(columns))
		blank := true
		for j := range cells {
			if j < len(texts) {
				cells[j] = models.Text(texts[j])
			}
			if cells[j].Valid {
				blank = false
			}
		}
		if blank {
			return
		}
		raw.Rows = append(raw.Rows, cells)
	})

	return raw, nil
}

// expandRow returns the text of each cell of a row with colspans repeated
func expandRow(row *goquery.Selection) []string {
	var texts []string
	row.ChildrenFiltered("th, td").Each(func(i int, cell *goquery.Selection) {
		span := 1
		if v, ok := cell.Attr("colspan"); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 1 {
				span = n
			}
		}
		text := normalizeWhitespace(cell.Text())
		for k := 0; k < span; k++ {
			texts = append(texts, text)
		}
	})
	return texts
}

// flattenHeader joins the non-empty parts of each header level per column.
// A single level is returned unchanged.
func flattenHeader(levels [][]string) []string {
	width := 0
	for _, level := range levels {
		if len(level) > width {
			width = len(level)
		}
	}

	columns := make([]string, width)
	for i := range columns {
		var parts []string
		for _, level := range levels {
			if i < len(level) && level[i] != "" {
				parts = append(parts, level[i])
			}
		}
		columns[i] = strings.Join(parts, headerSeparator)
	}
	return columns
}

// isSeparatorRow reports rows that repeat the header or only space sections
func isSeparatorRow(row *goquery.Selection) bool {
	for _, class := range strings.Fields(row.AttrOr("class", "")) {
		switch class {
		case "thead", "over_header", "spacer":
			return true
		}
	}
	return false
}

// normalizeWhitespace replaces unicode whitespace with spaces and collapses runs
func normalizeWhitespace(text string) string {
	normalized := strings.Builder{}
	for _, r := range text {
		if unicode.IsSpace(r) {
			normalized.WriteRune(' ')
		} else {
			normalized.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(normalized.String()), " ")
}
