package export

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/ryabkov82/xlsx-splitter/internal/grouping"
	"github.com/ryabkov82/xlsx-splitter/internal/workbook"
)

const defaultSheet = "Sheet1"

// Row is one output row. Cells are already in column order and their style
// ids refer to Source.
type Row struct {
	Source *workbook.Workbook
	Height float64
	Cells  []workbook.Cell
}

// Sheet describes one output worksheet.
type Sheet struct {
	Name         string
	Columns      []grouping.Column
	HeaderHeight float64
	Rows         []Row
}

type styleKey struct {
	book *workbook.Workbook
	id   int
}

// Book writes an output workbook sheet by sheet through a StreamWriter.
// Styles of the source workbooks are copied on first use.
type Book struct {
	OutFile    *excelize.File
	StyleCache map[styleKey]int
	RowCounter int

	sheets int
}

// NewBook returns an empty output workbook.
func NewBook() *Book {
	return &Book{
		OutFile:    excelize.NewFile(),
		StyleCache: make(map[styleKey]int),
	}
}

// AddSheet streams a header row followed by s.Rows into a new sheet.
func (b *Book) AddSheet(s Sheet) error {
	name, err := b.freeSheetName(SheetName(s.Name))
	if err != nil {
		return err
	}
	if b.sheets == 0 {
		if err := b.OutFile.SetSheetName(defaultSheet, name); err != nil {
			return fmt.Errorf("rename sheet %q: %w", name, err)
		}
	} else if _, err := b.OutFile.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %q: %w", name, err)
	}
	b.sheets++

	sw, err := b.OutFile.NewStreamWriter(name)
	if err != nil {
		return fmt.Errorf("create stream writer: %w", err)
	}

	for i, col := range s.Columns {
		if width := col.Width(); width > 0 {
			if err := sw.SetColWidth(i+1, i+1, width); err != nil {
				return fmt.Errorf("set width of column %d: %w", i+1, err)
			}
		}
	}

	headerRow := make([]interface{}, len(s.Columns))
	for i, col := range s.Columns {
		var book *workbook.Workbook
		if col.Sheet != nil {
			book = col.Sheet.Workbook()
		}
		headerRow[i] = excelize.Cell{
			Value:   col.Header.Text,
			StyleID: b.style(book, col.Header.Style),
		}
	}
	if err := sw.SetRow("A1", headerRow, rowOpts(s.HeaderHeight)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range s.Rows {
		values := make([]interface{}, len(row.Cells))
		for c, cell := range row.Cells {
			if cell.Value == nil && cell.Style == 0 {
				continue
			}
			values[c] = excelize.Cell{
				Value:   cell.Value,
				StyleID: b.style(row.Source, cell.Style),
			}
		}
		ref, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(ref, values, rowOpts(row.Height)); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
		b.RowCounter++
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet %q: %w", name, err)
	}
	return nil
}

// freeSheetName returns name, or name with a " (n)" suffix when the workbook
// already has a sheet of that name. excelize compares names case-insensitively
// and NewSheet hands back an existing sheet instead of failing.
func (b *Book) freeSheetName(name string) (string, error) {
	if b.sheets == 0 {
		return name, nil
	}
	candidate := name
	for n := 2; ; n++ {
		idx, err := b.OutFile.GetSheetIndex(candidate)
		if err != nil {
			return "", fmt.Errorf("check sheet %q: %w", candidate, err)
		}
		if idx == -1 {
			return candidate, nil
		}
		suffix := fmt.Sprintf(" (%d)", n)
		candidate = truncateRunes(name, excelize.MaxSheetNameLength-utf8.RuneCountInString(suffix)) + suffix
	}
}

func truncateRunes(s string, max int) string {
	for utf8.RuneCountInString(s) > max {
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
	}
	return s
}

// Bytes serializes the workbook.
func (b *Book) Bytes() ([]byte, error) {
	buf, err := b.OutFile.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Close releases the output file.
func (b *Book) Close() error {
	return b.OutFile.Close()
}

// style maps a style id of src onto this workbook. Styles that cannot be
// copied fall back to the default style.
func (b *Book) style(src *workbook.Workbook, id int) int {
	if src == nil || id == 0 {
		return 0
	}
	key := styleKey{book: src, id: id}
	if cached, ok := b.StyleCache[key]; ok {
		return cached
	}
	styleID := 0
	if st, err := src.Style(id); err == nil && st != nil {
		if newID, err := b.OutFile.NewStyle(st); err == nil {
			styleID = newID
		}
	}
	b.StyleCache[key] = styleID
	return styleID
}

func rowOpts(height float64) excelize.RowOpts {
	if height <= 0 || height > excelize.MaxRowHeight {
		return excelize.RowOpts{}
	}
	return excelize.RowOpts{Height: height}
}

// SheetName makes s acceptable as a worksheet name: no []:*?/\ characters,
// no surrounding apostrophes and at most 31 characters.
func SheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return '_'
		}
		return r
	}, s)
	s = truncateRunes(strings.Trim(strings.TrimSpace(s), "'"), excelize.MaxSheetNameLength)
	if s == "" {
		return defaultSheet
	}
	return s
}
