package exporter

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"fearcli/internal/config"
	"fearcli/internal/dataprocessing"
	apperrors "fearcli/internal/errors"
	"fearcli/internal/shared/testutil"
	"fearcli/pkg/contracts/domain"
)

func setupWriter(t *testing.T) (*CSVWriter, string) {
	t.Helper()
	w, _, dir := setupWriterWithLogs(t)
	return w, dir
}

func setupWriterWithLogs(t *testing.T) (*CSVWriter, *testutil.BufferedSlogHandler, string) {
	t.Helper()
	dir := t.TempDir()
	paths := config.ResolvePaths(dir, config.Default().Paths)
	logger, handler := testutil.NewTestLogger(t)
	return NewCSVWriter(paths, logger), handler, dir
}

// readCSV strips the BOM and parses the file.
func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, utf8BOM), "missing BOM")

	rows, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	return rows
}

func sampleTable() *domain.Table {
	return &domain.Table{
		Session: "train",
		Stage:   domain.StageCleaned,
		Records: []domain.FreezeRecord{
			{Animal: "1", Sex: "M", Group: "ctrl", Phase: "baseline", Component: "BL-1", PctFreeze: 12.5, AvgMotion: 80},
			{Animal: "1", Sex: "M", Group: "ctrl", Phase: "tone", Component: "Tone-1", PctFreeze: 40, Missing: domain.MissingAvgMotion},
			{Animal: "2", Sex: "F", Group: "exp", Phase: "baseline", Component: "BL-1", PctFreeze: 20, AvgMotion: 70.25},
			{Animal: "2", Sex: "F", Group: "exp", Phase: "tone", Component: "Tone-1", PctFreeze: 60, AvgMotion: 30},
		},
	}
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	w, dir := setupWriter(t)

	err := w.WriteCSV("nested/out.csv", WriteOptions{
		Headers:   []string{"a", "b"},
		Records:   [][]string{{"1", "x,y"}},
		BOMPrefix: true,
	})
	require.NoError(t, err)

	path := filepath.Join(dir, config.DefaultOutputDir, "nested", "out.csv")
	assert.Equal(t, [][]string{{"a", "b"}, {"1", "x,y"}}, readCSV(t, path))

	require.NoError(t, w.WriteCSV(path, WriteOptions{Records: [][]string{{"2", "z"}}, Append: true}))
	assert.Equal(t, [][]string{{"a", "b"}, {"1", "x,y"}, {"2", "z"}}, readCSV(t, path))
}

func TestCSVWriter_WriteCSV_StorageError(t *testing.T) {
	w, dir := setupWriter(t)
	blocker := testutil.WriteFile(t, dir, "blocker", "")

	err := w.WriteCSV(filepath.Join(blocker, "out.csv"), WriteOptions{})
	assert.ErrorIs(t, err, apperrors.ErrStorage)
}

func TestWriteTable(t *testing.T) {
	w, logs, _ := setupWriterWithLogs(t)

	path, err := w.WriteTable("train_clean.csv", sampleTable())
	require.NoError(t, err)

	rows := readCSV(t, path)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Animal", "Sex", "Group", "Phase", "Component", "PctFreeze", "AvgMotion"}, rows[0])
	assert.Equal(t, []string{"1", "M", "ctrl", "baseline", "BL-1", "12.5", "80"}, rows[1])
	assert.Equal(t, "", rows[2][6], "missing motion is blank")
	assert.Equal(t, "70.25", rows[3][6])
	testutil.AssertLogAttr(t, logs, "rows", int64(4))

	_, err = w.WriteTable("none.csv", nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestTableColumns(t *testing.T) {
	table := &domain.Table{Stage: domain.StageLabeled}
	assert.Equal(t, append(append([]string(nil), baseColumns...), "Epoch", "Time"), TableColumns(table))

	table.Stage = domain.StageTrials
	cols := TableColumns(table)
	assert.Equal(t, []string{"Epoch", "Time", "Trial", "TrialTime"}, cols[len(baseColumns):])

	row := tableRow(domain.FreezeRecord{Animal: "3", Epoch: "tone-1", Time: 120.5, Trial: 2, TrialTime: -10}, cols)
	assert.Equal(t, []string{"tone-1", "120.5", "2", "-10"}, row[len(baseColumns):])
}

func TestWritePrism(t *testing.T) {
	w, _ := setupWriter(t)
	pivot, err := dataprocessing.PrismFormat(sampleTable(), domain.ColumnComponent)
	require.NoError(t, err)

	path, err := w.WritePrism("train_prism.csv", pivot)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Animal", "Group", "BL-1", "Tone-1"},
		{"1", "ctrl", "12.5", "40"},
		{"2", "exp", "20", "60"},
	}, readCSV(t, path))

	_, err = w.WritePrism("none.csv", nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestWriteWorkbook(t *testing.T) {
	table := sampleTable()
	table.Records[2].Missing = domain.MissingPctFreeze
	pivot, err := dataprocessing.PrismFormat(table, domain.ColumnPhase)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "train.xlsx")
	require.NoError(t, WriteWorkbook(path, table, pivot))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetData, SheetPrism, SheetSummary}, f.GetSheetList())

	data, err := f.GetRows(SheetData)
	require.NoError(t, err)
	require.Len(t, data, 5)
	assert.Equal(t, "PctFreeze", data[0][5])
	assert.Equal(t, "12.5", data[1][5])
	assert.Equal(t, "", data[3][5])

	prism, err := f.GetRows(SheetPrism)
	require.NoError(t, err)
	assert.Equal(t, []string{"Animal", "Group", "baseline", "tone"}, prism[0])
	assert.Equal(t, []string{"2", "exp", "", "60"}, prism[2])

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Component", "ctrl", "exp"},
		{"BL-1", "12.5"},
		{"Tone-1", "40", "60"},
	}, summary)

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	var charts int
	for _, file := range zr.File {
		if strings.HasPrefix(file.Name, "xl/charts/chart") {
			charts++
		}
	}
	assert.Equal(t, 1, charts)
}

func TestWriteWorkbook_Errors(t *testing.T) {
	dir := t.TempDir()

	err := WriteWorkbook(filepath.Join(dir, "empty.xlsx"), &domain.Table{}, nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	blocker := testutil.WriteFile(t, dir, "blocker", "")
	err = WriteWorkbook(filepath.Join(blocker, "train.xlsx"), sampleTable(), nil)
	assert.ErrorIs(t, err, apperrors.ErrStorage)
}

func TestComponentMeans_NoGroups(t *testing.T) {
	table := &domain.Table{Records: []domain.FreezeRecord{
		{Animal: "1", Component: "CS", PctFreeze: 10},
		{Animal: "2", Component: "CS", PctFreeze: 30},
	}}

	components, groups, means := componentMeans(table)
	assert.Equal(t, []string{"CS"}, components)
	assert.Equal(t, []string{"all"}, groups)
	assert.Equal(t, [][]interface{}{{20.0}}, means)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "13.4", formatFloat(13.4))
	assert.Equal(t, "0.333", formatFloat(0.333))
	assert.Equal(t, "", formatValue(1, false))
	assert.Equal(t, "7", formatInt(7))
}
