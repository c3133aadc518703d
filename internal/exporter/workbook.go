package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/stat"

	"fearcli/internal/config"
	"fearcli/internal/dataprocessing"
	apperrors "fearcli/internal/errors"
	"fearcli/pkg/contracts/domain"
)

// Workbook sheet names.
const (
	SheetData    = "data"
	SheetPrism   = "prism"
	SheetSummary = "summary"
)

// WriteWorkbook writes table to an xlsx file with a data sheet, a prism
// sheet when pivot is not nil, and a summary sheet of mean freezing per
// component and group with a native line chart.
func WriteWorkbook(path string, table *domain.Table, pivot *dataprocessing.PrismTable) error {
	if table.Len() == 0 {
		return apperrors.NewValidationError("cannot export an empty table")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetData); err != nil {
		return workbookError(path, err)
	}
	if err := writeDataSheet(f, table); err != nil {
		return workbookError(path, err)
	}
	if pivot != nil {
		if err := writePrismSheet(f, pivot); err != nil {
			return workbookError(path, err)
		}
	}
	if err := writeSummarySheet(f, table); err != nil {
		return workbookError(path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("failed to create directory", err).WithContext("path", path)
	}
	if err := f.SaveAs(path); err != nil {
		return apperrors.NewStorageError("failed to save workbook", err).WithContext("path", path)
	}
	return nil
}

func workbookError(path string, err error) error {
	return apperrors.NewStorageError("failed to build workbook", err).WithContext("path", path)
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// cellValue keeps numbers numeric and leaves missing values blank.
func cellValue(v float64, ok bool) interface{} {
	if !ok {
		return nil
	}
	return v
}

func writeDataSheet(f *excelize.File, table *domain.Table) error {
	cols := TableColumns(table)
	header := make([]interface{}, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := setRow(f, SheetData, 1, header); err != nil {
		return err
	}

	for i, r := range table.Records {
		row := make([]interface{}, len(cols))
		for j, col := range cols {
			switch col {
			case domain.ColumnTrial:
				row[j] = r.Trial
			case domain.ColumnPctFreeze, domain.ColumnAvgMotion, domain.ColumnTime, domain.ColumnTrialTime:
				row[j] = cellValue(r.Value(col))
			default:
				row[j], _ = r.Label(col)
			}
		}
		if err := setRow(f, SheetData, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writePrismSheet(f *excelize.File, pivot *dataprocessing.PrismTable) error {
	if _, err := f.NewSheet(SheetPrism); err != nil {
		return err
	}

	headers := PrismHeaders(pivot)
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := setRow(f, SheetPrism, 1, header); err != nil {
		return err
	}

	for i, r := range pivot.Rows {
		row := []interface{}{r.Animal, r.Group}
		for j, v := range r.Values {
			row = append(row, cellValue(v, r.Present[j]))
		}
		if err := setRow(f, SheetPrism, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

// componentMeans returns mean PctFreeze per component (rows) and group
// (columns), both in first-seen order. Tables without groups get one
// column named "all".
func componentMeans(table *domain.Table) (components, groups []string, means [][]interface{}) {
	components, _ = table.Labels(domain.ColumnComponent)
	groups, _ = table.Labels(domain.ColumnGroup)
	if len(groups) == 1 && groups[0] == "" {
		groups = []string{"all"}
	}

	ci := make(map[string]int, len(components))
	for i, c := range components {
		ci[c] = i
	}
	gi := make(map[string]int, len(groups))
	for i, g := range groups {
		gi[g] = i
	}

	samples := make([][][]float64, len(components))
	for i := range samples {
		samples[i] = make([][]float64, len(groups))
	}
	for _, r := range table.Records {
		v, ok := r.Value(domain.ColumnPctFreeze)
		if !ok {
			continue
		}
		g := gi[r.Group]
		samples[ci[r.Component]][g] = append(samples[ci[r.Component]][g], v)
	}

	means = make([][]interface{}, len(components))
	for i := range components {
		means[i] = make([]interface{}, len(groups))
		for j := range groups {
			if xs := samples[i][j]; len(xs) > 0 {
				means[i][j] = stat.Mean(xs, nil)
			}
		}
	}
	return components, groups, means
}

func writeSummarySheet(f *excelize.File, table *domain.Table) error {
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return err
	}

	components, groups, means := componentMeans(table)
	header := []interface{}{domain.ColumnComponent}
	for _, g := range groups {
		header = append(header, g)
	}
	if err := setRow(f, SheetSummary, 1, header); err != nil {
		return err
	}
	for i, c := range components {
		row := append([]interface{}{c}, means[i]...)
		if err := setRow(f, SheetSummary, i+2, row); err != nil {
			return err
		}
	}

	last := len(components) + 1
	series := make([]excelize.ChartSeries, 0, len(groups))
	for j := range groups {
		col, err := excelize.ColumnNumberToName(j + 2)
		if err != nil {
			return err
		}
		series = append(series, excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!$%s$1", SheetSummary, col),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", SheetSummary, last),
			Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", SheetSummary, col, col, last),
			Marker:     excelize.ChartMarker{Symbol: "circle", Size: 5},
		})
	}

	anchor, err := excelize.CoordinatesToCellName(len(groups)+3, 2)
	if err != nil {
		return err
	}
	return f.AddChart(SheetSummary, anchor, &excelize.Chart{
		Type:   excelize.Line,
		Series: series,
		Title:  []excelize.RichTextRun{{Text: fmt.Sprintf("%s: mean freezing", table.Session)}},
		XAxis: excelize.ChartAxis{
			Title: []excelize.RichTextRun{{Text: domain.ColumnComponent}},
		},
		YAxis: excelize.ChartAxis{
			Title: []excelize.RichTextRun{{Text: config.FreezingAxisName}},
		},
		Legend:    excelize.ChartLegend{Position: "bottom"},
		Dimension: excelize.ChartDimension{Width: 720, Height: 400},
	})
}
