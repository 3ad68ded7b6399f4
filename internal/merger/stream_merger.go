package merger

import (
	"fmt"

	"github.com/ryabkov82/xlsx-splitter/internal/export"
	"github.com/ryabkov82/xlsx-splitter/internal/grouping"
	"github.com/ryabkov82/xlsx-splitter/internal/workbook"
)

// StreamMerger writes the combined workbook through export.Book, one sheet per
// distinct source sheet name.
type StreamMerger struct {
	Book       *export.Book
	RowCounter int
}

func NewStreamMerger() FileMerger {
	return &StreamMerger{}
}

func (sm *StreamMerger) MergeFiles(sources []Source, opts Options) (*Result, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	books := make([]*workbook.Workbook, 0, len(sources))
	defer func() {
		for _, wb := range books {
			_ = wb.Close()
		}
	}()
	for _, src := range sources {
		wb, err := workbook.Load(src.Name, src.Data)
		if err != nil {
			return nil, err
		}
		books = append(books, wb)
	}

	res := grouping.Build(opts.Target, books...)
	if len(res.Sources) == 0 {
		return nil, fmt.Errorf("no %s data found in the uploaded workbooks: %w", opts.Target.Plural(), ErrNoData)
	}

	data, err := sm.consolidate(res)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Workbook:   data,
		OutputName: export.WorkbookName(opts.OutputName, "consolidated-"+opts.Target.Slug()),
		RowCount:   sm.RowCounter,
		Missing:    missingByFile(res.Skipped),
		Grouping:   res,
	}

	if len(res.Groups) > 0 {
		bundle, err := export.Write(res, export.Options{Prefix: opts.Prefix, Layout: opts.Layout})
		if err != nil {
			return nil, fmt.Errorf("regenerate group files: %w", err)
		}
		result.Bundle = bundle
	}
	return result, nil
}

// consolidate appends every data row of same-named sheets in upload order,
// aligning columns by header.
func (sm *StreamMerger) consolidate(res *grouping.Result) ([]byte, error) {
	sm.Book = export.NewBook()
	defer sm.Book.Close()

	for _, set := range grouping.BySheetName(res.Sources) {
		sheet := export.Sheet{
			Name:         set.Name,
			Columns:      set.Columns.Columns,
			HeaderHeight: set.Sources[0].Header.Height,
		}
		for _, src := range set.Sources {
			for _, row := range src.Data {
				sheet.Rows = append(sheet.Rows, export.Row{
					Source: src.Sheet.Workbook(),
					Height: row.Height,
					Cells:  set.Columns.Align(src, row),
				})
			}
		}
		if err := sm.Book.AddSheet(sheet); err != nil {
			return nil, fmt.Errorf("consolidate sheet %q: %w", set.Name, err)
		}
	}

	sm.RowCounter = sm.Book.RowCounter
	return sm.Book.Bytes()
}
