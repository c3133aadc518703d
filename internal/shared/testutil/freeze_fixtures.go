package testutil

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/xuri/excelize/v2"

	"fearcli/pkg/contracts/domain"
)

// ExportHeader is the column row VideoFreeze writes after its preamble.
var ExportHeader = []string{
	"Experiment", "Cohort", "Animal", "Group", "Component Name",
	"Pct Component Time Freezing", "Avg Motion Index",
}

// ExportRow is one data row of a component export. Numbers are kept as text
// so fixtures can hold blanks and garbage.
type ExportRow struct {
	Animal    string
	Group     string
	Component string
	PctFreeze string
	AvgMotion string
}

func (r ExportRow) cells() []string {
	return []string{"TFC", "c1", r.Animal, r.Group, r.Component, r.PctFreeze, r.AvgMotion}
}

// TFCComponents returns a short trace fear conditioning protocol: two
// baseline bins, then n tone/trace/iti triplets.
func TFCComponents(n int) []string {
	comps := []string{"BL-1", "BL-2"}
	for i := 1; i <= n; i++ {
		comps = append(comps,
			fmt.Sprintf("Tone-%d", i),
			fmt.Sprintf("Trace-%d", i),
			fmt.Sprintf("ITI-%d", i))
	}
	return comps
}

// ExportRows builds one row per animal and component, animal-major like the
// instrument writes them. freeze gives PctFreeze from the animal and
// component index.
func ExportRows(animals, components []string, freeze func(a, c int) float64) []ExportRow {
	rows := make([]ExportRow, 0, len(animals)*len(components))
	for a, animal := range animals {
		for c, comp := range components {
			v := freeze(a, c)
			rows = append(rows, ExportRow{
				Animal:    animal,
				Component: comp,
				PctFreeze: strconv.FormatFloat(v, 'f', -1, 64),
				AvgMotion: strconv.FormatFloat(100-v, 'f', -1, 64),
			})
		}
	}
	return rows
}

// WriteExportCSV writes rows as a VideoFreeze csv export and returns its path.
func WriteExportCSV(t *testing.T, dir, name string, rows []ExportRow) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create export: %v", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	preamble := [][]string{
		{"File", name},
		{"Reference Time", "0"},
		{},
	}
	for _, rec := range preamble {
		if err := w.Write(rec); err != nil {
			t.Fatalf("write preamble: %v", err)
		}
	}
	if err := w.Write(ExportHeader); err != nil {
		t.Fatalf("write header: %v", err)
	}
	for _, r := range rows {
		if err := w.Write(r.cells()); err != nil {
			t.Fatalf("write row: %v", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		t.Fatalf("flush export: %v", err)
	}
	return path
}

// WriteExportXLSX writes rows to a workbook whose data sits on sheet after an
// empty "Info" sheet, and returns its path.
func WriteExportXLSX(t *testing.T, dir, name, sheet string, rows []ExportRow) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Info"); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	if _, err := f.NewSheet(sheet); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	f.SetCellValue("Info", "A1", "Session summary")

	setRow := func(n int, cells []string) {
		cell, _ := excelize.CoordinatesToCellName(1, n)
		values := make([]interface{}, len(cells))
		for i, c := range cells {
			values[i] = c
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	setRow(1, []string{"File", name})
	setRow(2, ExportHeader)
	for i, r := range rows {
		setRow(i+3, r.cells())
	}

	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

// WriteComponentTimes writes a component times workbook with one sheet per
// protocol and returns its path.
func WriteComponentTimes(t *testing.T, path string, sheets map[string][]domain.ComponentTime) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, times := range sheets {
		if first {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
			first = false
		} else if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
		f.SetSheetRow(name, "A1", &[]interface{}{"phase", "start", "end"})
		for i, ct := range times {
			cell, _ := excelize.CoordinatesToCellName(1, i+2)
			f.SetSheetRow(name, cell, &[]interface{}{ct.Phase, ct.Start, ct.End})
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save component times: %v", err)
	}
	return path
}

// TrainTimes is a two trial training protocol: 120 s baseline, then 20 s
// tone, 20 s trace, 2 s shock and an ITI per trial.
func TrainTimes() []domain.ComponentTime {
	return []domain.ComponentTime{
		{Phase: "baseline", Start: 0, End: 119.99},
		{Phase: "tone-1", Start: 120, End: 139.99},
		{Phase: "trace-1", Start: 140, End: 159.99},
		{Phase: "shock-1", Start: 160, End: 161.99},
		{Phase: "iti-1", Start: 162, End: 239.99},
		{Phase: "tone-2", Start: 240, End: 259.99},
		{Phase: "trace-2", Start: 260, End: 279.99},
		{Phase: "shock-2", Start: 280, End: 281.99},
		{Phase: "iti-2", Start: 282, End: 360},
	}
}

// WriteFile writes content under dir and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
