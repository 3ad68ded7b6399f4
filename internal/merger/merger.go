// Package merger consolidates previously split workbooks: it rebuilds one
// combined workbook and regenerates the per-group exports from the union.
package merger

import (
	"errors"

	"github.com/ryabkov82/xlsx-splitter/internal/export"
	"github.com/ryabkov82/xlsx-splitter/internal/grouping"
	"github.com/ryabkov82/xlsx-splitter/internal/header"
)

var (
	// ErrNoSources indicates that nothing was uploaded.
	ErrNoSources = errors.New("no workbooks to consolidate")
	// ErrNoData indicates that no uploaded sheet carries the grouping column.
	ErrNoData = errors.New("no data found")
)

// Source is one uploaded workbook.
type Source struct {
	Name string
	Data []byte
}

// Options configures a consolidation.
type Options struct {
	Target header.Target
	// OutputName names the combined workbook; .xlsx is appended when missing.
	OutputName string
	// Prefix and Layout apply to the regenerated group files.
	Prefix string
	Layout export.Layout
}

// Missing lists the sheets of one upload that lack the grouping column.
type Missing struct {
	File   string
	Sheets []string
}

// Result is the outcome of a consolidation.
type Result struct {
	Workbook   []byte
	OutputName string
	// RowCount is the number of data rows merged into Workbook.
	RowCount int
	Missing  []Missing
	Grouping *grouping.Result
	// Bundle is nil when no row carries a group value.
	Bundle *export.Bundle
}

// FileMerger merges uploads into a Result.
type FileMerger interface {
	MergeFiles(sources []Source, opts Options) (*Result, error)
}

func missingByFile(skipped []grouping.Skipped) []Missing {
	var out []Missing
	index := make(map[string]int)
	for _, s := range skipped {
		i, ok := index[s.Workbook]
		if !ok {
			i = len(out)
			index[s.Workbook] = i
			out = append(out, Missing{File: s.Workbook})
		}
		out[i].Sheets = append(out[i].Sheets, s.Sheet)
	}
	return out
}
