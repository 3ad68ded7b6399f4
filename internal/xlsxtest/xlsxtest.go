// Package xlsxtest builds and inspects in-memory workbooks for tests.
package xlsxtest

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/xuri/excelize/v2"
)

// Sheet describes a worksheet fixture. Rows start at A1.
type Sheet struct {
	Name string
	Rows [][]any
}

// Build returns the bytes of a workbook holding the given sheets in order.
func Build(t testing.TB, sheets ...Sheet) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			t.Fatalf("new sheet %q: %v", s.Name, err)
		}
		for r, row := range s.Rows {
			cell, _ := excelize.CoordinatesToCellName(1, r+1)
			values := row
			if err := f.SetSheetRow(s.Name, cell, &values); err != nil {
				t.Fatalf("set row %d of %q: %v", r+1, s.Name, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

// SheetNames lists the sheets of a workbook.
func SheetNames(t testing.TB, data []byte) []string {
	t.Helper()
	f := open(t, data)
	defer f.Close()
	return f.GetSheetList()
}

// Rows returns the displayed values of a sheet.
func Rows(t testing.TB, data []byte, sheet string) [][]string {
	t.Helper()
	f := open(t, data)
	defer f.Close()
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("get rows of %q: %v", sheet, err)
	}
	return rows
}

// Unzip returns the entries of a zip archive keyed by name, and the names in
// archive order.
func Unzip(t testing.TB, data []byte) (map[string][]byte, []string) {
	t.Helper()
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	entries := make(map[string][]byte, len(r.File))
	var names []string
	for _, zf := range r.File {
		rc, err := zf.Open()
		if err != nil {
			t.Fatalf("open %s: %v", zf.Name, err)
		}
		b, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", zf.Name, err)
		}
		entries[zf.Name] = b
		names = append(names, zf.Name)
	}
	return entries, names
}

func open(t testing.TB, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	return f
}
