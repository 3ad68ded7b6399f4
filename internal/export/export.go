// Package export writes one workbook per group and bundles them into a zip.
package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/ryabkov82/xlsx-splitter/internal/grouping"
)

// Layout selects how a group workbook is organised.
type Layout string

const (
	// LayoutSingle writes all rows of a group into one sheet.
	LayoutSingle Layout = "single"
	// LayoutSheets mirrors the source sheets that carry the grouping column.
	LayoutSheets Layout = "sheets"
)

// ParseLayout accepts "single", "sheets" or "" (single).
func ParseLayout(s string) (Layout, error) {
	switch Layout(strings.ToLower(strings.TrimSpace(s))) {
	case "", LayoutSingle:
		return LayoutSingle, nil
	case LayoutSheets:
		return LayoutSheets, nil
	}
	return "", fmt.Errorf("unknown layout %q (want %q or %q)", s, LayoutSingle, LayoutSheets)
}

// Options configures Write.
type Options struct {
	Prefix string
	Layout Layout
}

// File is one generated group workbook.
type File struct {
	Group string
	Name  string
	Rows  int
	Data  []byte
}

// Bundle holds the generated workbooks and their zip archive.
type Bundle struct {
	Files       []File
	Archive     []byte
	ArchiveName string
}

// Write renders every group of res and packs the results.
func Write(res *grouping.Result, opts Options) (*Bundle, error) {
	if err := res.Err(); err != nil {
		return nil, err
	}

	names := FileNames(res.Names(), opts.Prefix)
	bundle := &Bundle{ArchiveName: res.Target.Slug() + "-workbooks.zip"}
	for i, g := range res.Groups {
		var sheets []Sheet
		if opts.Layout == LayoutSheets {
			sheets = mirroredSheets(res, g)
		} else {
			sheets = []Sheet{singleSheet(res, g)}
		}

		data, err := render(sheets)
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", g.Name, err)
		}
		bundle.Files = append(bundle.Files, File{
			Group: g.Name,
			Name:  names[i],
			Rows:  len(g.Entries),
			Data:  data,
		})
	}

	archive, err := Archive(bundle.Files)
	if err != nil {
		return nil, err
	}
	bundle.Archive = archive
	return bundle, nil
}

func render(sheets []Sheet) ([]byte, error) {
	book := NewBook()
	defer book.Close()
	for _, s := range sheets {
		if err := book.AddSheet(s); err != nil {
			return nil, err
		}
	}
	return book.Bytes()
}

// singleSheet keeps the source sheet name when every source shares it.
func singleSheet(res *grouping.Result, g *grouping.Group) Sheet {
	name := res.Target.String()
	if sets := grouping.BySheetName(res.Sources); len(sets) == 1 {
		name = sets[0].Name
	}

	s := Sheet{
		Name:         name,
		Columns:      res.Columns.Columns,
		HeaderHeight: res.Sources[0].Header.Height,
	}
	for _, e := range g.Entries {
		s.Rows = append(s.Rows, Row{
			Source: e.Source.Sheet.Workbook(),
			Height: e.Row.Height,
			Cells:  res.Columns.Align(e.Source, e.Row),
		})
	}
	return s
}

// mirroredSheets emits every eligible source sheet, header only when the
// group has no rows in it.
func mirroredSheets(res *grouping.Result, g *grouping.Group) []Sheet {
	sets := grouping.BySheetName(res.Sources)
	sheets := make([]Sheet, 0, len(sets))
	for _, set := range sets {
		s := Sheet{
			Name:         set.Name,
			Columns:      set.Columns.Columns,
			HeaderHeight: set.Sources[0].Header.Height,
		}
		for _, e := range g.Entries {
			if !set.Contains(e.Source) {
				continue
			}
			s.Rows = append(s.Rows, Row{
				Source: e.Source.Sheet.Workbook(),
				Height: e.Row.Height,
				Cells:  set.Columns.Align(e.Source, e.Row),
			})
		}
		sheets = append(sheets, s)
	}
	return sheets
}

// Archive zips the files in order.
func Archive(files []File) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	now := time.Now()
	for _, f := range files {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: now,
		})
		if err != nil {
			return nil, fmt.Errorf("add %s to archive: %w", f.Name, err)
		}
		if _, err := w.Write(f.Data); err != nil {
			return nil, fmt.Errorf("write %s to archive: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf.Bytes(), nil
}
