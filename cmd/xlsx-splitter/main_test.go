package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryabkov82/xlsx-splitter/internal/xlsxtest"
)

func execute(t *testing.T, args ...string) (Output, error) {
	t.Helper()
	var stdout bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetArgs(args)
	err := cmd.Execute()

	var out Output
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out), stdout.String())
	return out, err
}

func writeRoster(t *testing.T, dir string) string {
	t.Helper()
	data := xlsxtest.Build(t,
		xlsxtest.Sheet{Name: "Roster", Rows: [][]any{
			{"Cohort 2025"},
			{},
			{"Student", "Team Leads"},
			{"A", "Ann"},
			{"B", "Ben"},
			{"C", "Ann"},
			{"D", ""},
		}},
		xlsxtest.Sheet{Name: "Summary", Rows: [][]any{{"Total", 4}}},
	)
	path := filepath.Join(dir, "roster.xlsx")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestSplitAndConsolidateCommands(t *testing.T) {
	dir := t.TempDir()
	roster := writeRoster(t, dir)
	splitDir := filepath.Join(dir, "leads")

	out, err := execute(t, "split", roster, "--out", splitDir)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, 2, out.Groups)
	assert.Equal(t, int64(3), out.RowCount)
	assert.Equal(t, 1, out.ExcludedRows)
	assert.Equal(t, []string{"roster.xlsx/Summary"}, out.SkippedSheets)
	assert.Equal(t, []string{
		filepath.Join(splitDir, "Ann.xlsx"),
		filepath.Join(splitDir, "Ben.xlsx"),
		filepath.Join(splitDir, "team-lead-workbooks.zip"),
	}, out.OutputFiles)
	for _, f := range out.OutputFiles {
		assert.FileExists(t, f)
	}

	merged := filepath.Join(dir, "merged", "all.xlsx")
	out, err = execute(t, "consolidate", out.OutputFiles[0], out.OutputFiles[1],
		"--out", merged, "--split-dir", filepath.Join(dir, "again"))
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, int64(3), out.RowCount)
	assert.Equal(t, []string{
		merged,
		filepath.Join(dir, "again", "Ann.xlsx"),
		filepath.Join(dir, "again", "Ben.xlsx"),
	}, out.OutputFiles)

	data, err := os.ReadFile(merged)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Student", "Team Leads"},
		{"A", "Ann"},
		{"C", "Ann"},
		{"B", "Ben"},
	}, xlsxtest.Rows(t, data, "Roster"))
}

func TestSplitCommandFailures(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "split", filepath.Join(dir, "missing.xlsx"))
	assert.ErrorIs(t, err, errReported)
	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "split failed")

	out, err = execute(t, "split", writeRoster(t, dir), "--header", "coach")
	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, out.Error, "unknown header")

	out, err = execute(t, "split", writeRoster(t, dir), "--header", "mentor")
	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, out.Error, "no mentors found")
	assert.Equal(t, []string{"roster.xlsx/Roster", "roster.xlsx/Summary"}, out.SkippedSheets)
}

func TestSplitCommandKeepsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	roster := writeRoster(t, dir)
	outDir := filepath.Join(dir, "leads")
	annPath := filepath.Join(outDir, "Ann.xlsx")

	_, err := execute(t, "split", roster, "--out", outDir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(annPath, []byte("edited by hand"), 0o644))
	require.NoError(t, os.Remove(filepath.Join(outDir, "Ben.xlsx")))

	out, err := execute(t, "split", roster, "--out", outDir)
	assert.ErrorIs(t, err, errReported)
	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "already exists")
	kept, err := os.ReadFile(annPath)
	require.NoError(t, err)
	assert.Equal(t, "edited by hand", string(kept))
	assert.NoFileExists(t, filepath.Join(outDir, "Ben.xlsx"))

	out, err = execute(t, "split", roster, "--out", outDir, "--overwrite")
	require.NoError(t, err)
	assert.True(t, out.Success)
	replaced, err := os.ReadFile(annPath)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Student", "Team Leads"},
		{"A", "Ann"},
		{"C", "Ann"},
	}, xlsxtest.Rows(t, replaced, "Roster"))
}
