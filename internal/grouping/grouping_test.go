package grouping

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryabkov82/xlsx-splitter/internal/header"
	"github.com/ryabkov82/xlsx-splitter/internal/workbook"
	"github.com/ryabkov82/xlsx-splitter/internal/xlsxtest"
)

func load(t *testing.T, name string, sheets ...xlsxtest.Sheet) *workbook.Workbook {
	t.Helper()
	wb, err := workbook.Load(name, xlsxtest.Build(t, sheets...))
	require.NoError(t, err)
	t.Cleanup(func() { _ = wb.Close() })
	return wb
}

func entryValues(g *Group) []string {
	var out []string
	for _, e := range g.Entries {
		out = append(out, e.Row.Cell(0).Text)
	}
	return out
}

func TestBuildSkipsSheetsWithoutHeader(t *testing.T) {
	wb := load(t, "master.xlsx",
		xlsxtest.Sheet{Name: "Sheet1", Rows: [][]any{
			{"Student", "TeamLead"},
			{"A", "Alice"},
			{"B", "Bob"},
			{"C", "Alice"},
		}},
		xlsxtest.Sheet{Name: "Sheet2", Rows: [][]any{
			{"Student", "Coach"},
			{"D", "Alice"},
		}},
	)

	res := Build(header.TeamLead, wb)
	require.NoError(t, res.Err())

	assert.Equal(t, []string{"Alice", "Bob"}, res.Names())
	assert.Equal(t, []string{"A", "C"}, entryValues(res.Group("Alice")))
	assert.Equal(t, []string{"B"}, entryValues(res.Group("Bob")))
	assert.Equal(t, []Skipped{{Workbook: "master.xlsx", Sheet: "Sheet2"}}, res.Skipped)
	assert.Equal(t, 3, res.Rows())
	assert.Zero(t, res.Excluded)
	require.Len(t, res.Sources, 1)
	assert.Equal(t, "Sheet1", res.Sources[0].Sheet.Name)
}

func TestBuildExcludesEmptyValues(t *testing.T) {
	wb := load(t, "master.xlsx",
		xlsxtest.Sheet{Name: "One", Rows: [][]any{
			{"Student", "Mentor"},
			{"A", "Zed"},
			{"B", ""},
			{},
			{"C", "   "},
		}},
		xlsxtest.Sheet{Name: "Two", Rows: [][]any{
			{"Student", "Mentors"},
			{"D", nil},
			{"E", "Zed"},
		}},
	)

	res := Build(header.Mentor, wb)

	assert.Equal(t, 3, res.Excluded)
	assert.Equal(t, []string{"A", "E"}, entryValues(res.Group("Zed")))
	assert.Empty(t, res.Skipped)
}

func TestBuildFindsHeaderBelowTitleRows(t *testing.T) {
	wb := load(t, "master.xlsx",
		xlsxtest.Sheet{Name: "Roster", Rows: [][]any{
			{"Spring roster"},
			{},
			{"Student", "Team Leads", "Room"},
			{"A", "Kim", 101},
		}},
	)

	src, ok := NewSource(wb.Sheets[0], header.TeamLead)
	require.True(t, ok)
	assert.Equal(t, 1, src.Column)
	assert.Equal(t, 3, src.Header.Number)
	require.Len(t, src.Data, 1)
	assert.Equal(t, "Kim", src.Value(src.Data[0]))
}

func TestLocateIgnoresRowsBeyondScanLimit(t *testing.T) {
	rows := make([][]any, 0, headerScanRows+2)
	for i := 0; i < headerScanRows; i++ {
		rows = append(rows, []any{"filler"})
	}
	rows = append(rows, []any{"Team Lead"}, []any{"Kim"})
	wb := load(t, "deep.xlsx", xlsxtest.Sheet{Name: "Deep", Rows: rows})

	_, ok := Locate(wb.Sheets[0], header.TeamLead)
	assert.False(t, ok)
}

func TestBuildPreservesOrderAcrossWorkbooks(t *testing.T) {
	first := load(t, "a.xlsx", xlsxtest.Sheet{Name: "S", Rows: [][]any{
		{"Name", "Lead"},
		{"1", "Ann"},
		{"2", "Ben"},
	}})
	second := load(t, "b.xlsx", xlsxtest.Sheet{Name: "S", Rows: [][]any{
		{"Name", "Team Lead"},
		{"3", "Ann"},
	}})

	res := Build(header.TeamLead, first, second)

	assert.Equal(t, []string{"1", "3"}, entryValues(res.Group("Ann")))
	assert.Equal(t, "a.xlsx", res.Group("Ann").Entries[0].Source.Sheet.Workbook().Name)
	assert.Equal(t, "b.xlsx", res.Group("Ann").Entries[1].Source.Sheet.Workbook().Name)
}

func TestBuildCanonicalizesValues(t *testing.T) {
	wb := load(t, "master.xlsx", xlsxtest.Sheet{Name: "S", Rows: [][]any{
		{"Name", "Team Lead"},
		{"1", "Fauzia Hasan"},
		{"2", " Fauzia Hasan Siddiqui "},
	}})

	res := Build(header.TeamLead, wb)

	assert.Equal(t, []string{"Fauzia Hasan"}, res.Names())
	assert.Len(t, res.Group("Fauzia Hasan").Entries, 2)
}

func TestBuildNoGroups(t *testing.T) {
	wb := load(t, "master.xlsx", xlsxtest.Sheet{Name: "S", Rows: [][]any{{"Name"}, {"x"}}})

	res := Build(header.Mentor, wb)

	err := res.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoGroups))
	assert.Contains(t, err.Error(), "mentors")
}

func TestColumnSetUnion(t *testing.T) {
	first := load(t, "a.xlsx", xlsxtest.Sheet{Name: "S", Rows: [][]any{
		{"Name", "TeamLead", "Score"},
		{"1", "Ann", 5},
	}})
	second := load(t, "b.xlsx", xlsxtest.Sheet{Name: "T", Rows: [][]any{
		{"team lead", "Room", "name", nil},
		{"Ann", "R1", "2", "extra"},
	}})

	res := Build(header.TeamLead, first, second)
	cols := res.Columns

	var names []string
	for _, c := range cols.Columns {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"Name", "TeamLead", "Score", "Room", ""}, names)

	src := res.Sources[1]
	assert.Equal(t, []int{1, 3, 0, 4}, cols.Positions(src))

	aligned := cols.Align(src, src.Data[0])
	require.Len(t, aligned, 5)
	assert.Equal(t, "2", aligned[0].Text)
	assert.Equal(t, "Ann", aligned[1].Text)
	assert.True(t, aligned[2].Empty())
	assert.Equal(t, "R1", aligned[3].Text)
	assert.Equal(t, "extra", aligned[4].Text)
}

func TestColumnKeysDeduplicates(t *testing.T) {
	hdr := workbook.Row{Cells: []workbook.Cell{{Text: "Name"}, {Text: "name"}, {}, {Text: "Lead"}}}
	keys := columnKeys(hdr, 5, 3, header.TeamLead)
	assert.Equal(t, []string{"name", "name#2", "#3", "teamlead", "#5"}, keys)
}

func TestBySheetName(t *testing.T) {
	first := load(t, "a.xlsx",
		xlsxtest.Sheet{Name: "Week 1", Rows: [][]any{{"Name", "Lead"}, {"1", "Ann"}}},
		xlsxtest.Sheet{Name: "Week 2", Rows: [][]any{{"Name", "Lead"}, {"2", "Ann"}}},
	)
	second := load(t, "b.xlsx",
		xlsxtest.Sheet{Name: "Week 2", Rows: [][]any{{"Lead", "Name", "Room"}, {"Ben", "3", "R2"}}},
	)

	res := Build(header.TeamLead, first, second)
	sets := BySheetName(res.Sources)

	require.Len(t, sets, 2)
	assert.Equal(t, "Week 1", sets[0].Name)
	assert.Len(t, sets[0].Sources, 1)
	assert.Equal(t, "Week 2", sets[1].Name)
	require.Len(t, sets[1].Sources, 2)
	assert.True(t, sets[1].Contains(res.Sources[2]))
	assert.False(t, sets[0].Contains(res.Sources[2]))
	assert.Equal(t, 3, sets[1].Columns.Len())
}

func TestBySheetNameIgnoresCase(t *testing.T) {
	first := load(t, "a.xlsx", xlsxtest.Sheet{Name: "Roster", Rows: [][]any{{"Name", "Lead"}, {"1", "Ann"}}})
	second := load(t, "b.xlsx", xlsxtest.Sheet{Name: "roster", Rows: [][]any{{"Name", "Lead"}, {"2", "Ben"}}})

	sets := BySheetName(Build(header.TeamLead, first, second).Sources)

	require.Len(t, sets, 1)
	assert.Equal(t, "Roster", sets[0].Name)
	assert.Len(t, sets[0].Sources, 2)
}
