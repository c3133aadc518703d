// Package dataprocessing loads and cleans VideoFreeze trace fear
// conditioning exports.
//
// # Pipeline
//
//	LoadData   -> raw table (renamed columns, groups and sexes assigned)
//	Clean      -> cleaned table (every row labelled with a declared phase)
//	PrismFormat, TotalByPhase, MeanByAnimal -> summaries for export and plots
//	LabelFCData, TrialsFrame -> session time, epochs and tone trials
//
// Every function works on in-memory tables and returns a new table; inputs
// are never modified. CleanData(exp, s, opts) yields the same table as
// Clean(LoadData(exp, s), session, opts).
//
// # Usage
//
//	exp, err := config.LoadExperiment("expt_config.yaml")
//	if err != nil {
//	    return err
//	}
//	table, err := dataprocessing.CleanData(exp, "train", dataprocessing.CleanOptions{})
//	if err != nil {
//	    return err
//	}
//	pivot, err := dataprocessing.PrismFormat(table, domain.ColumnComponent)
//
// # Errors
//
// Missing exports fail with MISSING_FILE, exports without the header row or
// the required columns with FORMAT, and phases outside the declared set with
// VALIDATION (see internal/errors).
package dataprocessing
