// Package workbook loads xlsx uploads into ordered sheets of typed cells.
// The underlying excelize file stays open until Close so that cell styles can
// be copied into generated workbooks.
package workbook

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Cell is a single non-formula cell value.
type Cell struct {
	// Text is the value as Excel displays it.
	Text string
	// Value is float64, bool or string. It is nil for empty cells.
	Value any
	// Style is the style id inside the owning workbook.
	Style int
}

// Empty reports whether the cell has no visible content.
func (c Cell) Empty() bool {
	return strings.TrimSpace(c.Text) == ""
}

// Row is a sheet row with its 1-based number in the source sheet.
type Row struct {
	Number int
	Height float64
	Cells  []Cell
}

// Cell returns the cell at a 0-based column, or an empty cell.
func (r Row) Cell(col int) Cell {
	if col < 0 || col >= len(r.Cells) {
		return Cell{}
	}
	return r.Cells[col]
}

// Blank reports whether every cell of the row is empty.
func (r Row) Blank() bool {
	for _, c := range r.Cells {
		if !c.Empty() {
			return false
		}
	}
	return true
}

// Sheet holds every row of a worksheet in source order.
type Sheet struct {
	Name string
	Rows []Row

	widths map[int]float64
	book   *Workbook
}

// Workbook returns the workbook the sheet was read from.
func (s *Sheet) Workbook() *Workbook {
	return s.book
}

// Width returns the width of a 0-based column, or 0 when unknown.
func (s *Sheet) Width(col int) float64 {
	return s.widths[col]
}

// Workbook is a loaded upload.
type Workbook struct {
	Name   string
	Sheets []*Sheet

	file *excelize.File
}

// Open reads a workbook from disk.
func Open(path string) (*Workbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Load(filepath.Base(path), data)
}

// Load parses an uploaded workbook. The caller must Close it.
func Load(name string, data []byte) (*Workbook, error) {
	if len(data) == 0 {
		return nil, &LoadError{Name: name, Err: ErrEmptyWorkbook}
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &LoadError{Name: name, Err: err}
	}

	wb := &Workbook{Name: name, file: f}
	for _, sheetName := range f.GetSheetList() {
		sheet, err := wb.readSheet(sheetName)
		if err != nil {
			_ = f.Close()
			return nil, &LoadError{Name: name, Err: fmt.Errorf("sheet %q: %w", sheetName, err)}
		}
		wb.Sheets = append(wb.Sheets, sheet)
	}
	return wb, nil
}

// Close releases the underlying excelize file.
func (w *Workbook) Close() error {
	if w == nil || w.file == nil {
		return nil
	}
	return w.file.Close()
}

// Sheet returns the sheet with the given name, or nil.
func (w *Workbook) Sheet(name string) *Sheet {
	for _, s := range w.Sheets {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Style returns the definition of a style id of this workbook.
func (w *Workbook) Style(id int) (*excelize.Style, error) {
	return w.file.GetStyle(id)
}

func (w *Workbook) readSheet(name string) (*Sheet, error) {
	f := w.file
	text, err := f.GetRows(name)
	if err != nil {
		return nil, err
	}
	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	sheet := &Sheet{Name: name, widths: make(map[int]float64), book: w}
	maxCols := 0
	for r, values := range text {
		row := Row{Number: r + 1, Cells: make([]Cell, len(values))}
		if height, err := f.GetRowHeight(name, row.Number); err == nil {
			row.Height = height
		}

		for c, v := range values {
			if v == "" {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(c+1, row.Number)
			if err != nil {
				return nil, err
			}
			rawValue := v
			if r < len(raw) && c < len(raw[r]) {
				rawValue = raw[r][c]
			}
			cellType, _ := f.GetCellType(name, ref)
			styleID, _ := f.GetCellStyle(name, ref)
			row.Cells[c] = Cell{
				Text:  v,
				Value: typedValue(cellType, v, rawValue),
				Style: styleID,
			}
		}

		if len(values) > maxCols {
			maxCols = len(values)
		}
		sheet.Rows = append(sheet.Rows, row)
	}

	for col := 1; col <= maxCols; col++ {
		colName, _ := excelize.ColumnNumberToName(col)
		if width, err := f.GetColWidth(name, colName); err == nil {
			sheet.widths[col-1] = width
		}
	}
	return sheet, nil
}

// typedValue restores the cell type lost by GetRows. Numbers, dates and
// formula results are stored as raw numbers and rendered through the copied
// style; strings stay strings so that values such as "007" survive.
func typedValue(t excelize.CellType, text, raw string) any {
	switch t {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeError:
		return text
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	return text
}
