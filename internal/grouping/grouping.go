// Package grouping partitions sheet rows by the value of a target column.
package grouping

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ryabkov82/xlsx-splitter/internal/header"
	"github.com/ryabkov82/xlsx-splitter/internal/workbook"
)

// ErrNoGroups indicates that no row carried a group value.
var ErrNoGroups = errors.New("no groups found")

// headerScanRows bounds the search for the header row; sheets often carry a
// title or blank rows above it.
const headerScanRows = 10

// Location is the 0-based position of the target header in a sheet.
type Location struct {
	Row    int
	Column int
}

// Locate finds the first cell within the scanned rows that names target.
func Locate(s *workbook.Sheet, target header.Target) (Location, bool) {
	for r := 0; r < len(s.Rows) && r < headerScanRows; r++ {
		for c, cell := range s.Rows[r].Cells {
			if cell.Empty() {
				continue
			}
			if target.Matches(cell.Text) {
				return Location{Row: r, Column: c}, true
			}
		}
	}
	return Location{}, false
}

// Source is a sheet that carries the target column.
type Source struct {
	Sheet  *workbook.Sheet
	Header workbook.Row
	// Column is the 0-based index of the target column.
	Column int
	// Data holds the non-blank rows below the header.
	Data []workbook.Row

	keys []string
}

// NewSource locates the target header in s and collects its data rows.
func NewSource(s *workbook.Sheet, target header.Target) (*Source, bool) {
	loc, ok := Locate(s, target)
	if !ok {
		return nil, false
	}
	src := &Source{
		Sheet:  s,
		Header: s.Rows[loc.Row],
		Column: loc.Column,
	}
	for _, row := range s.Rows[loc.Row+1:] {
		if !row.Blank() {
			src.Data = append(src.Data, row)
		}
	}
	width := len(src.Header.Cells)
	for _, row := range src.Data {
		if len(row.Cells) > width {
			width = len(row.Cells)
		}
	}
	src.keys = columnKeys(src.Header, width, loc.Column, target)
	return src, true
}

// Value returns the canonical group value of a data row.
func (s *Source) Value(row workbook.Row) string {
	return header.CanonicalValue(row.Cell(s.Column).Text)
}

// columnKeys derives a unique key per header cell. Unnamed columns are keyed
// by position and repeated names get a counter.
func columnKeys(hdr workbook.Row, width, targetCol int, target header.Target) []string {
	keys := make([]string, width)
	seen := make(map[string]int, width)
	for col := range keys {
		key := header.Normalize(hdr.Cell(col).Text)
		switch {
		case col == targetCol:
			key = target.Key()
		case key == "":
			key = fmt.Sprintf("#%d", col+1)
		}
		seen[key]++
		if n := seen[key]; n > 1 {
			key = fmt.Sprintf("%s#%d", key, n)
		}
		keys[col] = key
	}
	return keys
}

// Entry is a grouped row and the sheet it came from.
type Entry struct {
	Source *Source
	Row    workbook.Row
}

// Group holds the rows sharing one canonical value, in processing order.
type Group struct {
	Name    string
	Entries []Entry
}

// Skipped names a sheet that lacks the target column.
type Skipped struct {
	Workbook string
	Sheet    string
}

// Result is the outcome of grouping one or more workbooks.
type Result struct {
	Target  header.Target
	Sources []*Source
	// Groups are sorted by name.
	Groups  []*Group
	Skipped []Skipped
	// Excluded counts non-blank rows without a group value.
	Excluded int
	Columns  *ColumnSet

	byName map[string]*Group
}

// Build groups the rows of every sheet carrying target, walking workbooks,
// sheets and rows in order.
func Build(target header.Target, books ...*workbook.Workbook) *Result {
	res := &Result{
		Target: target,
		byName: make(map[string]*Group),
	}
	for _, wb := range books {
		for _, sheet := range wb.Sheets {
			src, ok := NewSource(sheet, target)
			if !ok {
				res.Skipped = append(res.Skipped, Skipped{Workbook: wb.Name, Sheet: sheet.Name})
				continue
			}
			res.Sources = append(res.Sources, src)
			res.add(src)
		}
	}
	sort.SliceStable(res.Groups, func(i, j int) bool {
		return res.Groups[i].Name < res.Groups[j].Name
	})
	res.Columns = NewColumnSet(res.Sources...)
	return res
}

func (r *Result) add(src *Source) {
	for _, row := range src.Data {
		name := src.Value(row)
		if name == "" {
			r.Excluded++
			continue
		}
		g, ok := r.byName[name]
		if !ok {
			g = &Group{Name: name}
			r.byName[name] = g
			r.Groups = append(r.Groups, g)
		}
		g.Entries = append(g.Entries, Entry{Source: src, Row: row})
	}
}

// Group returns the group with the given canonical name, or nil.
func (r *Result) Group(name string) *Group {
	return r.byName[name]
}

// Names lists the group names in order.
func (r *Result) Names() []string {
	names := make([]string, len(r.Groups))
	for i, g := range r.Groups {
		names[i] = g.Name
	}
	return names
}

// Rows counts the grouped rows.
func (r *Result) Rows() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Entries)
	}
	return n
}

// Err returns ErrNoGroups when nothing was grouped.
func (r *Result) Err() error {
	if len(r.Groups) == 0 {
		return fmt.Errorf("no %s found: %w", r.Target.Plural(), ErrNoGroups)
	}
	return nil
}
