// Command fearproc loads, cleans, exports and plots the sessions of a trace
// fear conditioning experiment.
//
//	fearproc -config expt_config.yaml -sessions train,tone -plot bins -prism
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fearcli/internal/config"
	"fearcli/internal/dataprocessing"
	apperrors "fearcli/internal/errors"
	"fearcli/internal/files"
	"fearcli/internal/infrastructure"
	"fearcli/internal/services"
	"fearcli/internal/viz"
	"fearcli/pkg/contracts"
)

type cliOptions struct {
	experiment  string
	sessions    string
	out         string
	plot        string
	kind        string
	hue         string
	format      string
	xlsx        bool
	prism       bool
	prismColumn string
	trials      bool
	baseline    bool
	dropMissing bool
	preview     bool
	trace       bool
	metricsFile string
	version     bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (*cliOptions, error) {
	opts := &cliOptions{}
	fs := flag.NewFlagSet("fearproc", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.experiment, "config", "expt_config.yaml", "experiment configuration file")
	fs.StringVar(&opts.sessions, "sessions", "", "comma separated sessions to run (defaults to every session of the experiment)")
	fs.StringVar(&opts.out, "out", "", "output directory (defaults to output/ next to the experiment file)")
	fs.StringVar(&opts.plot, "plot", services.PlotNone, "figure to draw: bins, phase or none")
	fs.StringVar(&opts.kind, "kind", "", "phase plot kind: bar or point")
	fs.StringVar(&opts.hue, "hue", "", "column splitting the plot into series, e.g. Group or Sex")
	fs.StringVar(&opts.format, "format", "", "figure format: png, svg or pdf")
	fs.BoolVar(&opts.xlsx, "xlsx", false, "write an Excel workbook per session")
	fs.BoolVar(&opts.prism, "prism", false, "write a GraphPad Prism pivot per session")
	fs.StringVar(&opts.prismColumn, "prism-col", "Component", "pivot column of the Prism table")
	fs.BoolVar(&opts.trials, "trials", false, "label session time and cut tone trials from the component times workbook")
	fs.BoolVar(&opts.baseline, "baseline", false, "subtract each animal's mean baseline freezing")
	fs.BoolVar(&opts.dropMissing, "drop-missing", false, "drop rows with missing values instead of flagging them")
	fs.BoolVar(&opts.preview, "preview", false, "print a terminal preview of each figure")
	fs.BoolVar(&opts.trace, "trace", false, "print trace spans to stderr")
	fs.StringVar(&opts.metricsFile, "metrics-file", "", "write pipeline metrics in Prometheus text format")
	fs.BoolVar(&opts.version, "version", false, "print the version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return apperrors.ExitOK
		}
		fmt.Fprintln(stderr, err)
		return apperrors.ExitUsage
	}
	if opts.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return apperrors.ExitOK
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "fearproc: %v\n", err)
		return apperrors.ExitUsage
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "fearproc: failed to initialize logger: %v\n", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	if err := process(opts, cfg, logger, stdout, stderr); err != nil {
		infrastructure.WithError(logger, err).Error("fearproc failed",
			slog.String("error_type", string(apperrors.TypeOf(err))))
		fmt.Fprintf(stderr, "fearproc: %v\n", err)
		return apperrors.ExitCode(err)
	}
	return apperrors.ExitOK
}

func process(opts *cliOptions, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	exp, err := config.LoadExperiment(opts.experiment)
	if err != nil {
		return err
	}

	paths := config.ResolvePaths(filepath.Dir(opts.experiment), cfg.Paths)
	if opts.out != "" {
		out, err := filepath.Abs(opts.out)
		if err != nil {
			return apperrors.NewConfigError("invalid output directory", err)
		}
		paths.OutputDir = out
		paths.FigDir = filepath.Join(out, "figures")
	}
	if err := paths.EnsureDirectories(); err != nil {
		return apperrors.NewStorageError("failed to create output directories", err)
	}
	paths.LogPathResolution(logger)

	otelCfg := infrastructure.OTelConfigFrom(cfg.Telemetry)
	if opts.trace {
		otelCfg.TraceExporter = "stdout"
		otelCfg.TraceWriter = stderr
	}
	providers, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		return apperrors.NewConfigError("failed to initialize telemetry", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(ctx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	style, err := viz.StyleFrom(cfg.Plot)
	if err != nil {
		return err
	}
	runOpts := services.RunOptions{
		Clean: dataprocessing.CleanOptions{
			BaselineSubtract: opts.baseline,
			DropIncomplete:   opts.dropMissing,
		},
		Prism:       opts.prism,
		PrismColumn: opts.prismColumn,
		Workbook:    opts.xlsx,
		Trials:      opts.trials,
		Plot:        opts.plot,
		Kind:        viz.Kind(firstNonEmpty(opts.kind, cfg.Plot.Kind)),
		Hue:         opts.hue,
		Format:      strings.ToLower(firstNonEmpty(opts.format, cfg.Plot.Format)),
		Style:       style,
	}
	if opts.preview {
		runOpts.Preview = stdout
	}

	sessions := exp.Sessions
	if opts.sessions != "" {
		sessions = splitList(opts.sessions)
	}

	logger.Info("Starting fearproc",
		slog.String("experiment", opts.experiment),
		slog.Any("sessions", sessions),
		slog.String("output_dir", paths.OutputDir),
		slog.String("plot", runOpts.Plot))

	svc := services.NewAnalysisService(exp, files.NewManager(paths, logger), providers, logger)
	results, runErr := svc.RunAll(context.Background(), sessions, runOpts)
	for _, res := range results {
		if res == nil {
			continue
		}
		for _, path := range res.Files {
			fmt.Fprintf(stdout, "%s\t%s\n", res.Session, path)
		}
	}

	metricsFile := firstNonEmpty(opts.metricsFile, cfg.Telemetry.MetricsFile)
	if metricsFile != "" {
		if err := providers.WriteMetrics(metricsFile); err != nil {
			logger.Warn("Failed to write metrics", slog.String("error", err.Error()))
			if runErr == nil {
				return apperrors.NewStorageError("failed to write metrics", err)
			}
		}
	}
	return runErr
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
