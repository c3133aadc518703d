package dataprocessing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"fearcli/internal/config"
	apperrors "fearcli/internal/errors"
	"fearcli/pkg/contracts/domain"
)

// headerPattern matches the first cell of the VideoFreeze column row.
var headerPattern = regexp.MustCompile("^" + config.HeaderMarker)

// exportColumns maps instrument column names to table columns.
var exportColumns = map[string]string{
	config.ExportAnimalColumn:    domain.ColumnAnimal,
	config.ExportGroupColumn:     domain.ColumnGroup,
	config.ExportComponentColumn: domain.ColumnComponent,
	config.ExportFreezeColumn:    domain.ColumnPctFreeze,
	config.ExportMotionColumn:    domain.ColumnAvgMotion,
}

// requiredColumns must be present in every export.
var requiredColumns = []string{
	config.ExportAnimalColumn,
	config.ExportComponentColumn,
	config.ExportFreezeColumn,
}

// ParseExport reads a VideoFreeze component export (.csv, .xlsx) into a raw
// table. Rows above the header row are skipped; so are rows with fewer than
// two non-empty cells. Group, Sex and Phase are not assigned here.
func ParseExport(path string) (*domain.Table, error) {
	return parseExport(path, slog.Default())
}

func parseExport(path string, logger *slog.Logger) (*domain.Table, error) {
	var (
		rows  [][]string
		sheet string
		err   error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSVRows(path)
	case ".xlsx", ".xls", ".xlsm":
		rows, sheet, err = readWorkbookRows(path)
	default:
		return nil, apperrors.NewFormatError(fmt.Sprintf("unsupported export type %q", filepath.Ext(path)), nil).
			WithContext("path", path)
	}
	if err != nil {
		return nil, err
	}

	headerRow := findHeaderRow(rows)
	if headerRow < 0 {
		return nil, apperrors.NewFormatError("no header row starting with "+config.HeaderMarker, nil).
			WithContext("path", path)
	}

	columnMap, err := mapColumns(rows[headerRow])
	if err != nil {
		if appErr, ok := err.(*apperrors.AppError); ok {
			appErr.WithContext("path", path)
		}
		return nil, err
	}

	logger.Debug("Found export header",
		slog.String("file", path),
		slog.String("sheet", sheet),
		slog.Int("header_row", headerRow),
		slog.Any("columns", columnMap))

	table := &domain.Table{
		Source: path,
		Stage:  domain.StageRaw,
	}

	skipped := 0
	for i := headerRow + 1; i < len(rows); i++ {
		row := rows[i]
		if nonEmptyCells(row) < 2 {
			skipped++
			continue
		}
		table.Records = append(table.Records, parseRecord(row, columnMap))
	}

	logger.Debug("Parsed export rows",
		slog.String("file", path),
		slog.Int("rows", len(table.Records)),
		slog.Int("skipped", skipped))

	return table, nil
}

// readCSVRows reads every record of a csv file. Records may have differing
// lengths; the preamble above the header usually does.
func readCSVRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewMissingFileError(path, err)
		}
		return nil, apperrors.NewStorageError("failed to open export", err).WithContext("path", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewFormatError("malformed csv", err).WithContext("path", path)
		}
		rows = append(rows, rec)
	}

	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

// readWorkbookRows returns the rows of the first sheet that holds a header row.
func readWorkbookRows(path string) ([][]string, string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", apperrors.NewMissingFileError(path, err)
		}
		return nil, "", apperrors.NewFormatError("failed to open workbook", err).WithContext("path", path)
	}
	defer f.Close()

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		if findHeaderRow(rows) >= 0 {
			return rows, name, nil
		}
	}

	return nil, "", apperrors.NewFormatError("no sheet with a header row starting with "+config.HeaderMarker, nil).
		WithContext("path", path)
}

// findHeaderRow returns the index of the first row with any cell starting
// with the header marker, or -1.
func findHeaderRow(rows [][]string) int {
	for i, row := range rows {
		for _, cell := range row {
			if headerPattern.MatchString(strings.TrimSpace(cell)) {
				return i
			}
		}
	}
	return -1
}

// mapColumns locates the export columns in the header row.
func mapColumns(header []string) (map[string]int, error) {
	columnMap := make(map[string]int)
	for j, cell := range header {
		name := strings.TrimSpace(cell)
		for export, column := range exportColumns {
			if strings.EqualFold(name, export) {
				if _, dup := columnMap[column]; !dup {
					columnMap[column] = j
				}
			}
		}
	}

	var missing []string
	for _, export := range requiredColumns {
		if _, ok := columnMap[exportColumns[export]]; !ok {
			missing = append(missing, export)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewFormatError(fmt.Sprintf("missing required columns %q", missing), nil).
			WithContext("missing_columns", missing)
	}
	return columnMap, nil
}

func parseRecord(row []string, columnMap map[string]int) domain.FreezeRecord {
	cell := func(column string) (string, bool) {
		j, ok := columnMap[column]
		if !ok || j >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[j]), true
	}

	var rec domain.FreezeRecord
	animal, _ := cell(domain.ColumnAnimal)
	rec.Animal = NormalizeAnimalID(animal)
	rec.Group, _ = cell(domain.ColumnGroup)
	rec.Component, _ = cell(domain.ColumnComponent)

	if v, ok := parseNumber(cell(domain.ColumnPctFreeze)); ok {
		rec.PctFreeze = v
	} else {
		rec.Missing |= domain.MissingPctFreeze
	}
	if v, ok := parseNumber(cell(domain.ColumnAvgMotion)); ok {
		rec.AvgMotion = v
	} else {
		rec.Missing |= domain.MissingAvgMotion
	}
	return rec
}

func parseNumber(s string, present bool) (float64, bool) {
	if !present || isBlank(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// NormalizeAnimalID turns numeric ids written as floats ("12.0") into their
// integer form. Other ids, including whole numbers outside the int64 range,
// are returned trimmed.
func NormalizeAnimalID(id string) string {
	id = strings.TrimSpace(id)
	v, err := strconv.ParseFloat(id, 64)
	if err != nil || v != math.Trunc(v) || math.Abs(v) >= math.MaxInt64 {
		return id
	}
	return strconv.FormatInt(int64(v), 10)
}

func nonEmptyCells(row []string) int {
	n := 0
	for _, c := range row {
		if !isBlank(c) {
			n++
		}
	}
	return n
}

// isBlank treats the strings pandas writes for missing values as empty.
func isBlank(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "na", "n/a", "null":
		return true
	}
	return false
}
