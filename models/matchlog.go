package models

import (
	"fmt"
	"strings"
	"time"
)

// Match identity columns. Every category table carries all five before merge.
const (
	ColDate     = "Date"
	ColComp     = "Comp"
	ColOpponent = "Opponent"
	ColVenue    = "Venue"
	ColResult   = "Result"
)

// KeyColumns lists the match identity columns in output order
var KeyColumns = []string{ColDate, ColComp, ColOpponent, ColVenue, ColResult}

// IsKeyColumn reports whether name is one of the match identity columns
func IsKeyColumn(name string) bool {
	for _, key := range KeyColumns {
		if name == key {
			return true
		}
	}
	return false
}

// Cell is a single table value. Invalid cells are missing values.
type Cell struct {
	Value string
	Valid bool
}

// Text creates a cell from scraped text; blank text is a missing value
func Text(s string) Cell {
	s = strings.TrimSpace(s)
	if s == "" {
		return Missing()
	}
	return Cell{Value: s, Valid: true}
}

// Missing returns the explicit missing-value marker
func Missing() Cell {
	return Cell{}
}

// String renders the cell for export, missing values render empty
func (c Cell) String() string {
	if !c.Valid {
		return ""
	}
	return c.Value
}

// Date is a calendar date without time of day. Invalid dates are missing.
type Date struct {
	Year  int
	Month time.Month
	Day   int
	Valid bool
}

// NewDate truncates t to its calendar date
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d, Valid: true}
}

// Before orders dates ascending with missing dates last
func (d Date) Before(other Date) bool {
	if !d.Valid {
		return false
	}
	if !other.Valid {
		return true
	}
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// String formats the date as YYYY-MM-DD, or empty when missing
func (d Date) String() string {
	if !d.Valid {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// MatchKey identifies one match across all category tables
type MatchKey struct {
	Date     Date
	Comp     Cell
	Opponent Cell
	Venue    Cell
	Result   Cell
}

// Field returns the key field stored under a key column name
func (k MatchKey) Field(column string) (Cell, bool) {
	switch column {
	case ColDate:
		return Cell{Value: k.Date.String(), Valid: k.Date.Valid}, true
	case ColComp:
		return k.Comp, true
	case ColOpponent:
		return k.Opponent, true
	case ColVenue:
		return k.Venue, true
	case ColResult:
		return k.Result, true
	}
	return Cell{}, false
}

// RawTable is one category's table as extracted from markup, with
// flattened header labels and unnormalized cells.
type RawTable struct {
	Category string
	Columns  []string
	Rows     [][]Cell
}

// Row is one match with its statistic values keyed by column name
type Row struct {
	Key    MatchKey
	Values map[string]Cell
}

// Get returns the value of any column, key columns included
func (r Row) Get(column string) Cell {
	if cell, ok := r.Key.Field(column); ok {
		return cell
	}
	if cell, ok := r.Values[column]; ok {
		return cell
	}
	return Missing()
}

// NormalizedTable is one category's table after column normalization.
// Columns holds the non-key columns, each suffixed with the category.
type NormalizedTable struct {
	Category string
	Columns  []string
	Rows     []Row
}

// SeasonTable is the merged per-match table for a team and season
type SeasonTable struct {
	TeamID   string
	TeamName string
	Season   string
	Columns  []string // key columns first
	Rows     []Row
}

// CategoryOutcome records how one category fared during a run
type CategoryOutcome struct {
	Category string
	Rows     int
	Stage    string // stage that failed: "fetch" or "extract"
	Err      error
}

// OK reports whether the category produced a normalized table
func (o CategoryOutcome) OK() bool {
	return o.Err == nil
}
