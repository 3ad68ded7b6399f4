package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ryabkov82/xlsx-splitter/internal/export"
	"github.com/ryabkov82/xlsx-splitter/internal/merger"
)

func newConsolidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consolidate <a.xlsx> <b.xlsx>...",
		Short: "Merge split workbooks back into one",
		Example: `  xlsx-splitter consolidate mentors/*.xlsx --header mentor --out roster.xlsx
  xlsx-splitter consolidate a.xlsx b.xlsx --split-dir ./regrouped`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			out, err := runConsolidate(cmd, args)
			out.Duration = time.Since(start).String()
			if err != nil {
				out.Success = false
				out.Error = fmt.Sprintf("consolidation failed: %v", err)
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
	cmd.Flags().String("out", "", "consolidated workbook path (default consolidated-<header>.xlsx)")
	cmd.Flags().String("split-dir", "", "also regenerate the group workbooks into this directory")
	cmd.Flags().String("prefix", "", "file name prefix for regenerated group workbooks")
	cmd.Flags().String("layout", string(export.LayoutSingle), "single or sheets, for regenerated group workbooks")
	cmd.Flags().Bool("overwrite", false, "replace existing output files")
	return cmd
}

func runConsolidate(cmd *cobra.Command, paths []string) (Output, error) {
	target, layout, err := targetAndLayout(cmd)
	if err != nil {
		return Output{}, err
	}
	prefix, _ := cmd.Flags().GetString("prefix")
	outPath, _ := cmd.Flags().GetString("out")
	splitDir, _ := cmd.Flags().GetString("split-dir")
	overwrite, _ := cmd.Flags().GetBool("overwrite")

	sources := make([]merger.Source, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return Output{}, err
		}
		sources = append(sources, merger.Source{Name: filepath.Base(p), Data: data})
	}

	var outputName string
	if outPath != "" {
		outputName = filepath.Base(outPath)
	}
	m := merger.NewStreamMerger()
	res, err := m.MergeFiles(sources, merger.Options{
		Target:     target,
		OutputName: outputName,
		Prefix:     prefix,
		Layout:     layout,
	})
	if err != nil {
		return Output{}, err
	}

	dir := "."
	if outPath != "" {
		dir = filepath.Dir(outPath)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Output{}, fmt.Errorf("create output directory: %w", err)
	}
	workbookPath := filepath.Join(dir, res.OutputName)
	if err := writeOutput(workbookPath, res.Workbook, overwrite); err != nil {
		return Output{}, err
	}

	out := Output{
		Success:       true,
		OutputFiles:   []string{workbookPath},
		RowCount:      int64(res.RowCount),
		Groups:        len(res.Grouping.Groups),
		ExcludedRows:  res.Grouping.Excluded,
		SkippedSheets: skippedSheets(res.Grouping.Skipped),
	}
	if splitDir != "" {
		if res.Bundle == nil {
			log.Warnf("no %s values found, skipping group workbooks", target.String())
			return out, nil
		}
		files, err := writeBundle(splitDir, res.Bundle, false, overwrite)
		if err != nil {
			return Output{}, err
		}
		out.OutputFiles = append(out.OutputFiles, files...)
	}
	return out, nil
}
