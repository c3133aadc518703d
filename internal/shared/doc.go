// Package shared holds helpers used by more than one package.
//
// The testutil subpackage provides freeze fixtures (FreezeFrame CSVs,
// experiment YAML, component time workbooks) and a buffered slog handler
// for asserting on log output.
package shared
