package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ryabkov82/xlsx-splitter/internal/export"
	"github.com/ryabkov82/xlsx-splitter/internal/grouping"
	"github.com/ryabkov82/xlsx-splitter/internal/header"
	"github.com/ryabkov82/xlsx-splitter/internal/splitter"
)

func newSplitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split <workbook.xlsx>",
		Short: "Write one workbook per Team Lead or Mentor",
		Example: `  xlsx-splitter split roster.xlsx --header mentor --out ./mentors
  xlsx-splitter split roster.xlsx --prefix "Spring - " --layout sheets`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			out, err := runSplit(cmd, args[0])
			out.Duration = time.Since(start).String()
			if err != nil {
				out.Success = false
				out.Error = fmt.Sprintf("split failed: %v", err)
			}
			if emitErr := emitJSON(cmd.OutOrStdout(), out); emitErr != nil {
				return fmt.Errorf("write JSON output: %w", emitErr)
			}
			if err != nil {
				return errReported
			}
			return nil
		},
	}
	cmd.Flags().String("header", "team-lead", "grouping column: team-lead or mentor")
	cmd.Flags().String("prefix", "", "file name prefix for every group workbook")
	cmd.Flags().String("layout", string(export.LayoutSingle), "single or sheets")
	cmd.Flags().String("out", ".", "directory for the group workbooks and the zip")
	cmd.Flags().Bool("overwrite", false, "replace files left in --out by an earlier run")
	return cmd
}

func runSplit(cmd *cobra.Command, path string) (Output, error) {
	target, layout, err := targetAndLayout(cmd)
	if err != nil {
		return Output{}, err
	}
	prefix, _ := cmd.Flags().GetString("prefix")
	dir, _ := cmd.Flags().GetString("out")
	overwrite, _ := cmd.Flags().GetBool("overwrite")

	data, err := os.ReadFile(path)
	if err != nil {
		return Output{}, err
	}
	res, err := splitter.Split(filepath.Base(path), data, splitter.Options{
		Target: target,
		Prefix: prefix,
		Layout: layout,
	})
	if err != nil {
		out := Output{}
		if res != nil {
			out.SkippedSheets = skippedSheets(res.Grouping.Skipped)
		}
		return out, err
	}

	files, err := writeBundle(dir, res.Bundle, true, overwrite)
	if err != nil {
		return Output{}, err
	}
	return Output{
		Success:       true,
		OutputFiles:   files,
		RowCount:      int64(res.Grouping.Rows()),
		Groups:        len(res.Grouping.Groups),
		ExcludedRows:  res.Grouping.Excluded,
		SkippedSheets: skippedSheets(res.Grouping.Skipped),
	}, nil
}

func targetAndLayout(cmd *cobra.Command) (header.Target, export.Layout, error) {
	rawHeader, _ := cmd.Flags().GetString("header")
	target, err := header.ParseTarget(rawHeader)
	if err != nil {
		return "", "", err
	}
	rawLayout, _ := cmd.Flags().GetString("layout")
	layout, err := export.ParseLayout(rawLayout)
	if err != nil {
		return "", "", err
	}
	return target, layout, nil
}

// writeBundle stores the group workbooks, and optionally the zip, in dir.
// Existing files are only replaced when overwrite is set, and nothing is
// written if any target already exists.
func writeBundle(dir string, bundle *export.Bundle, withArchive, overwrite bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	outputs := make(map[string][]byte, len(bundle.Files)+1)
	var paths []string
	for _, f := range bundle.Files {
		path := filepath.Join(dir, f.Name)
		outputs[path] = f.Data
		paths = append(paths, path)
	}
	if withArchive {
		path := filepath.Join(dir, bundle.ArchiveName)
		outputs[path] = bundle.Archive
		paths = append(paths, path)
	}

	if !overwrite {
		for _, path := range paths {
			if err := ensureAbsent(path); err != nil {
				return nil, err
			}
		}
	}
	for _, path := range paths {
		if err := writeOutput(path, outputs[path], overwrite); err != nil {
			return nil, err
		}
	}
	return paths, nil
}

func ensureAbsent(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%q already exists (use --overwrite to replace it)", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("check %q: %w", path, err)
	}
	return nil
}

// writeOutput creates path with data. Without overwrite it fails rather than
// replace an existing file.
func writeOutput(path string, data []byte, overwrite bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%q already exists (use --overwrite to replace it)", path)
	}
	if err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %q: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	return nil
}

func skippedSheets(skipped []grouping.Skipped) []string {
	out := make([]string, 0, len(skipped))
	for _, s := range skipped {
		out = append(out, s.Workbook+"/"+s.Sheet)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
