package exporter

import (
	"log/slog"

	"fearcli/internal/dataprocessing"
	apperrors "fearcli/internal/errors"
	"fearcli/pkg/contracts/domain"
)

var baseColumns = []string{
	domain.ColumnAnimal,
	domain.ColumnSex,
	domain.ColumnGroup,
	domain.ColumnPhase,
	domain.ColumnComponent,
	domain.ColumnPctFreeze,
	domain.ColumnAvgMotion,
}

// TableColumns returns the export columns of a table. Labelled tables add
// Epoch and Time, trial tables also Trial and TrialTime.
func TableColumns(table *domain.Table) []string {
	cols := append([]string(nil), baseColumns...)
	switch table.Stage {
	case domain.StageLabeled:
		cols = append(cols, domain.ColumnEpoch, domain.ColumnTime)
	case domain.StageTrials:
		cols = append(cols, domain.ColumnEpoch, domain.ColumnTime, domain.ColumnTrial, domain.ColumnTrialTime)
	}
	return cols
}

// tableRow renders r in the order of cols. Missing numbers are empty cells.
func tableRow(r domain.FreezeRecord, cols []string) []string {
	row := make([]string, len(cols))
	for i, col := range cols {
		switch col {
		case domain.ColumnTrial:
			row[i] = formatInt(r.Trial)
		case domain.ColumnPctFreeze, domain.ColumnAvgMotion, domain.ColumnTime, domain.ColumnTrialTime:
			row[i] = formatValue(r.Value(col))
		default:
			row[i], _ = r.Label(col)
		}
	}
	return row
}

// WriteTable writes one CSV row per record and returns the resolved path.
func (w *CSVWriter) WriteTable(filePath string, table *domain.Table) (string, error) {
	if table == nil {
		return "", apperrors.NewValidationError("no table to export")
	}

	cols := TableColumns(table)
	stream, err := w.CreateStreamWriter(filePath, cols)
	if err != nil {
		return "", err
	}
	for _, r := range table.Records {
		if err := stream.WriteRecord(tableRow(r, cols)); err != nil {
			stream.Close()
			return "", err
		}
	}
	if err := stream.Close(); err != nil {
		return "", err
	}

	w.logger.Info("Exported table",
		slog.String("session", table.Session),
		slog.String("stage", string(table.Stage)),
		slog.String("path", stream.Path()),
		slog.Int("rows", stream.Count()))
	return stream.Path(), nil
}

// PrismHeaders returns Animal, Group and the pivot labels.
func PrismHeaders(pivot *dataprocessing.PrismTable) []string {
	headers := []string{domain.ColumnAnimal, domain.ColumnGroup}
	return append(headers, pivot.Labels...)
}

func prismRow(row dataprocessing.PrismRow) []string {
	out := []string{row.Animal, row.Group}
	for j, v := range row.Values {
		out = append(out, formatValue(v, row.Present[j]))
	}
	return out
}

// WritePrism writes a Prism pivot and returns the resolved path.
func (w *CSVWriter) WritePrism(filePath string, pivot *dataprocessing.PrismTable) (string, error) {
	if pivot == nil {
		return "", apperrors.NewValidationError("no pivot to export")
	}

	records := make([][]string, 0, len(pivot.Rows))
	for _, row := range pivot.Rows {
		records = append(records, prismRow(row))
	}
	if err := w.WriteCSV(filePath, WriteOptions{
		Headers:   PrismHeaders(pivot),
		Records:   records,
		BOMPrefix: true,
	}); err != nil {
		return "", err
	}
	return w.resolvePath(filePath), nil
}
