// Package splitter runs the forward path: load one workbook, group its rows
// and export one workbook per group.
package splitter

import (
	"github.com/ryabkov82/xlsx-splitter/internal/export"
	"github.com/ryabkov82/xlsx-splitter/internal/grouping"
	"github.com/ryabkov82/xlsx-splitter/internal/header"
	"github.com/ryabkov82/xlsx-splitter/internal/workbook"
)

type Options struct {
	Target header.Target
	Prefix string
	Layout export.Layout
}

type Result struct {
	Grouping *grouping.Result
	Bundle   *export.Bundle
}

// Split processes one upload. When no group is found the returned error wraps
// grouping.ErrNoGroups and the result still carries the grouping report.
func Split(name string, data []byte, opts Options) (*Result, error) {
	wb, err := workbook.Load(name, data)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	res := &Result{Grouping: grouping.Build(opts.Target, wb)}
	bundle, err := export.Write(res.Grouping, export.Options{Prefix: opts.Prefix, Layout: opts.Layout})
	if err != nil {
		return res, err
	}
	res.Bundle = bundle
	return res, nil
}
