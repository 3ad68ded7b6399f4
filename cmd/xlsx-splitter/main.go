package main

import (
	"encoding/json"
	"errors"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ryabkov82/xlsx-splitter/internal/logging"
)

// errReported marks failures already printed as JSON output.
var errReported = errors.New("reported")

type Output struct {
	Success       bool     `json:"success"`
	OutputFiles   []string `json:"output_files,omitempty"`
	Error         string   `json:"error,omitempty"`
	Duration      string   `json:"duration"`
	RowCount      int64    `json:"row_count,omitempty"`
	Groups        int      `json:"groups,omitempty"`
	ExcludedRows  int      `json:"excluded_rows,omitempty"`
	SkippedSheets []string `json:"skipped_sheets,omitempty"`
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if !errors.Is(err, errReported) {
			log.WithError(err).Error("command failed")
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "xlsx-splitter",
		Short:         "Split a roster workbook by Team Lead or Mentor and merge the pieces back",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := "info"
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				level = "debug"
			}
			return logging.Setup(level, "text")
		},
	}
	cmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newServeCommand(), newSplitCommand(), newConsolidateCommand())
	return cmd
}

func emitJSON(w io.Writer, out Output) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
