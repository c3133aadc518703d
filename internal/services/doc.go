// Package services runs the per-session analysis pipeline on top of the
// library packages.
//
// # Pipeline
//
// AnalysisService.Run takes one session through these steps:
//
//	load    resolve the session and read its export
//	clean   label phases, filter and check the declared set
//	export  cleaned CSV, optional Prism pivot and workbook
//	trials  optional time labels and tone trials from component times
//	plot    optional figure and terminal preview
//
// Each run gets a run id (a UUID) in its context, a trace span with one
// child span per step, and pipeline counters. RunAll runs sessions
// concurrently; every session owns its tables, so the library functions
// stay synchronous.
//
// # Usage
//
//	svc := services.NewAnalysisService(exp, files.NewManager(paths, logger), providers, logger)
//	results, err := svc.RunAll(ctx, exp.Sessions, services.RunOptions{Plot: services.PlotBins})
package services
