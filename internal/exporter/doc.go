// Package exporter writes session tables to disk.
//
// CSVWriter is the low level writer: headers, streaming and a UTF-8 BOM so
// Excel opens exports with the right encoding. Relative paths land in the
// output directory.
//
// On top of it:
//
//	// Cleaned or labelled table, one row per record
//	err := w.WriteTable("train_clean.csv", table)
//
//	// GraphPad Prism pivot, one row per animal
//	err = w.WritePrism("train_prism.csv", pivot)
//
//	// Workbook with data, prism and summary sheets plus a line chart
//	err = WriteWorkbook(path, table, pivot)
package exporter
