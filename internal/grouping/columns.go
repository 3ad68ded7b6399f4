package grouping

import (
	"strings"

	"github.com/ryabkov82/xlsx-splitter/internal/workbook"
)

// Column is one column of a ColumnSet together with the sheet it was first
// seen in, which supplies its header style and width.
type Column struct {
	Key    string
	Header workbook.Cell
	Sheet  *workbook.Sheet
	Index  int
}

// Name is the header text shown for the column.
func (c Column) Name() string {
	return c.Header.Text
}

// Width is the source width of the column, 0 when unknown.
func (c Column) Width() float64 {
	if c.Sheet == nil {
		return 0
	}
	return c.Sheet.Width(c.Index)
}

// ColumnSet is the union of source headers in first-seen order. Columns are
// identified by their normalized header text.
type ColumnSet struct {
	Columns []Column
	index   map[string]int
}

// NewColumnSet returns a column set holding the columns of the given sources.
func NewColumnSet(sources ...*Source) *ColumnSet {
	cs := &ColumnSet{index: make(map[string]int)}
	for _, src := range sources {
		cs.Add(src)
	}
	return cs
}

// Add registers the columns of src that are not yet known.
func (cs *ColumnSet) Add(src *Source) {
	for col, key := range src.keys {
		if _, ok := cs.index[key]; ok {
			continue
		}
		cs.index[key] = len(cs.Columns)
		cs.Columns = append(cs.Columns, Column{
			Key:    key,
			Header: src.Header.Cell(col),
			Sheet:  src.Sheet,
			Index:  col,
		})
	}
}

// Len returns the number of columns.
func (cs *ColumnSet) Len() int {
	return len(cs.Columns)
}

// Positions maps each column of src to its position in the set, -1 for
// columns that were never added.
func (cs *ColumnSet) Positions(src *Source) []int {
	pos := make([]int, len(src.keys))
	for col, key := range src.keys {
		if i, ok := cs.index[key]; ok {
			pos[col] = i
		} else {
			pos[col] = -1
		}
	}
	return pos
}

// Align reorders the cells of a source row into set order.
func (cs *ColumnSet) Align(src *Source, row workbook.Row) []workbook.Cell {
	cells := make([]workbook.Cell, cs.Len())
	for col, i := range cs.Positions(src) {
		if i >= 0 {
			cells[i] = row.Cell(col)
		}
	}
	return cells
}

// SheetSet gathers the sources that share a sheet name, such as the same tab
// of several split workbooks.
type SheetSet struct {
	Name    string
	Sources []*Source
	Columns *ColumnSet
}

// Contains reports whether src belongs to the set.
func (s *SheetSet) Contains(src *Source) bool {
	for _, have := range s.Sources {
		if have == src {
			return true
		}
	}
	return false
}

// BySheetName groups sources by sheet name in first-seen order. Names are
// compared case-insensitively, as spreadsheet applications do; the set takes
// the first spelling seen.
func BySheetName(sources []*Source) []*SheetSet {
	var sets []*SheetSet
	byName := make(map[string]*SheetSet)
	for _, src := range sources {
		key := strings.ToLower(src.Sheet.Name)
		set, ok := byName[key]
		if !ok {
			set = &SheetSet{Name: src.Sheet.Name, Columns: NewColumnSet()}
			byName[key] = set
			sets = append(sets, set)
		}
		set.Sources = append(set.Sources, src)
		set.Columns.Add(src)
	}
	return sets
}
