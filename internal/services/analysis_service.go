package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fearcli/internal/config"
	"fearcli/internal/dataprocessing"
	apperrors "fearcli/internal/errors"
	"fearcli/internal/exporter"
	"fearcli/internal/files"
	"fearcli/internal/infrastructure"
	"fearcli/internal/viz"
	"fearcli/pkg/contracts/domain"
)

// Plot modes.
const (
	PlotNone  = "none"
	PlotBins  = "bins"
	PlotPhase = "phase"
)

// Pipeline step names, used for spans and metrics.
const (
	StepLoad   = "load"
	StepClean  = "clean"
	StepExport = "export"
	StepTrials = "trials"
	StepPlot   = "plot"
)

// Preview size of the terminal sparklines.
const (
	previewWidth  = 40
	previewHeight = 3
)

// RunOptions select what a session run writes.
type RunOptions struct {
	Clean dataprocessing.CleanOptions

	// Prism writes the pivot on PrismColumn (default Component).
	Prism       bool
	PrismColumn string
	Workbook    bool

	// Trials labels session time from the component times workbook and
	// cuts tone trials with the given window (default -20 s to 60 s).
	Trials      bool
	TrialWindow [2]float64

	// Plot is PlotNone (default), PlotBins or PlotPhase.
	Plot   string
	Kind   viz.Kind
	Hue    string
	Format string
	Style  viz.Style

	// Preview receives a terminal rendering of the chart when set.
	Preview io.Writer
}

func (o *RunOptions) normalize() error {
	if o.PrismColumn == "" {
		o.PrismColumn = domain.ColumnComponent
	}
	if o.TrialWindow == [2]float64{} {
		o.TrialWindow = [2]float64{config.DefaultTrialWindowStart, config.DefaultTrialWindowEnd}
	}
	o.Plot = strings.ToLower(o.Plot)
	switch o.Plot {
	case "":
		o.Plot = PlotNone
	case PlotNone, PlotBins, PlotPhase:
	default:
		return apperrors.NewConfigError(fmt.Sprintf("unknown plot %q", o.Plot), nil).WithContext("plot", o.Plot)
	}
	if o.Format == "" {
		o.Format = "png"
	}
	return nil
}

// SessionResult is what one run produced.
type SessionResult struct {
	Session  string
	RunID    string
	TraceID  string // OTel trace id of the session span
	Raw      *domain.Table
	Cleaned  *domain.Table
	Trials   *domain.Table
	Prism    *dataprocessing.PrismTable
	Chart    *viz.Chart
	Files    []string
	Duration time.Duration
}

// AnalysisService runs sessions of one experiment.
type AnalysisService struct {
	exp     *config.Experiment
	files   *files.Manager
	loader  *dataprocessing.Loader
	cleaner *dataprocessing.Cleaner
	writer  *exporter.CSVWriter
	tracer  *PipelineTracer
	logger  *slog.Logger

	previewMu sync.Mutex
}

// NewAnalysisService creates the service. providers may be nil.
func NewAnalysisService(exp *config.Experiment, manager *files.Manager, providers *infrastructure.OTelProviders, logger *slog.Logger) *AnalysisService {
	logger = infrastructure.WithComponent(logger, "analysis")
	return &AnalysisService{
		exp:     exp,
		files:   manager,
		loader:  dataprocessing.NewLoader(logger),
		cleaner: dataprocessing.NewCleaner(logger),
		writer:  exporter.NewCSVWriter(manager.Paths(), logger),
		tracer:  NewPipelineTracer(providers),
		logger:  logger,
	}
}

// RunAll runs sessions concurrently and returns their results in input
// order. The first failure cancels the sessions that have not finished.
func (s *AnalysisService) RunAll(ctx context.Context, sessions []string, opts RunOptions) ([]*SessionResult, error) {
	if len(sessions) == 0 {
		return nil, apperrors.NewConfigError("no sessions to run", nil)
	}

	results := make([]*SessionResult, len(sessions))
	g, ctx := errgroup.WithContext(ctx)
	for i, session := range sessions {
		g.Go(func() error {
			res, err := s.Run(ctx, session, opts)
			if err != nil {
				return fmt.Errorf("session %s: %w", session, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Run loads, cleans, exports and plots one session.
func (s *AnalysisService) Run(ctx context.Context, session string, opts RunOptions) (_ *SessionResult, err error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	runID := infrastructure.GenerateTraceID()
	ctx = infrastructure.WithTraceID(ctx, runID)
	ctx, span := s.tracer.TraceSession(ctx, runID, session)
	res := &SessionResult{
		Session: session,
		RunID:   runID,
		TraceID: infrastructure.TraceIDFromContext(ctx),
	}
	logger := infrastructure.WithSession(s.logger, session)
	if res.TraceID != "" {
		logger = logger.With("otel_trace_id", res.TraceID)
	}

	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		s.tracer.EndSession(ctx, span, session, res.Duration, err)
		if err != nil {
			infrastructure.WithError(logger, err).ErrorContext(ctx, "Session run failed",
				slog.String("error_type", string(apperrors.TypeOf(err))))
			return
		}
		logger.InfoContext(ctx, "Session run complete",
			slog.Int("files", len(res.Files)),
			slog.Duration("duration", res.Duration))
	}()

	var sess domain.SessionConfig
	err = s.step(ctx, session, StepLoad, func(ctx context.Context) error {
		var err error
		if sess, err = s.loader.ResolveSession(s.exp, session); err != nil {
			return err
		}
		res.Raw, err = s.loader.LoadSession(sess)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = s.step(ctx, session, StepClean, func(ctx context.Context) error {
		var err error
		if res.Cleaned, err = s.cleaner.Clean(res.Raw, sess, opts.Clean); err != nil {
			return err
		}
		s.tracer.RecordRows(ctx, session, res.Raw.Len(), res.Raw.Len()-res.Cleaned.Len())
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err = s.step(ctx, session, StepExport, func(ctx context.Context) error {
		return s.export(ctx, res, opts)
	}); err != nil {
		return nil, err
	}

	if opts.Trials {
		if err = s.step(ctx, session, StepTrials, func(ctx context.Context) error {
			return s.trials(ctx, res, sess, opts)
		}); err != nil {
			return nil, err
		}
	}

	if opts.Plot != PlotNone {
		if err = s.step(ctx, session, StepPlot, func(ctx context.Context) error {
			return s.plot(ctx, res, opts)
		}); err != nil {
			return nil, err
		}
	}

	return res, nil
}

// step runs fn in a child span unless ctx is already done.
func (s *AnalysisService) step(ctx context.Context, session, name string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, span := s.tracer.TraceStep(ctx, session, name)
	start := time.Now()
	err := fn(ctx)
	s.tracer.EndStep(ctx, span, session, name, time.Since(start), err)
	return err
}

func (s *AnalysisService) wrote(ctx context.Context, res *SessionResult, kind, path string) {
	res.Files = append(res.Files, path)
	s.tracer.RecordFile(ctx, res.Session, kind, path)
}

func (s *AnalysisService) export(ctx context.Context, res *SessionResult, opts RunOptions) error {
	path, err := s.writer.WriteTable(s.files.ArtifactPath(res.Session, files.KindClean, "clean", "csv"), res.Cleaned)
	if err != nil {
		return err
	}
	s.wrote(ctx, res, files.KindClean, path)

	if opts.Prism || opts.Workbook {
		if res.Prism, err = dataprocessing.PrismFormat(res.Cleaned, opts.PrismColumn); err != nil {
			return err
		}
	}
	if opts.Prism {
		path, err := s.writer.WritePrism(s.files.ArtifactPath(res.Session, files.KindPrism, "prism", "csv"), res.Prism)
		if err != nil {
			return err
		}
		s.wrote(ctx, res, files.KindPrism, path)
	}
	if opts.Workbook {
		path := s.files.ArtifactPath(res.Session, files.KindWorkbook, "", "xlsx")
		if err := exporter.WriteWorkbook(path, res.Cleaned, res.Prism); err != nil {
			return err
		}
		s.wrote(ctx, res, files.KindWorkbook, path)
	}
	return nil
}

func (s *AnalysisService) trials(ctx context.Context, res *SessionResult, sess domain.SessionConfig, opts RunOptions) error {
	timesFile := sess.ComponentsFile
	if timesFile == "" {
		timesFile = s.files.Paths().ComponentsFile
	}
	times, err := dataprocessing.LoadComponentTimes(timesFile, res.Session)
	if err != nil {
		return err
	}

	labeled, err := dataprocessing.LabelFCData(res.Cleaned, times)
	if err != nil {
		return err
	}
	path, err := s.writer.WriteTable(s.files.ArtifactPath(res.Session, files.KindClean, "labeled", "csv"), labeled)
	if err != nil {
		return err
	}
	s.wrote(ctx, res, files.KindClean, path)

	if res.Trials, err = dataprocessing.TrialsFrame(labeled, times, opts.TrialWindow[0], opts.TrialWindow[1]); err != nil {
		return err
	}
	path, err = s.writer.WriteTable(s.files.ArtifactPath(res.Session, files.KindClean, "trials", "csv"), res.Trials)
	if err != nil {
		return err
	}
	s.wrote(ctx, res, files.KindClean, path)
	return nil
}

func (s *AnalysisService) plot(ctx context.Context, res *SessionResult, opts RunOptions) error {
	style := opts.Style
	if style.Title == "" {
		style.Title = res.Session
	}

	var err error
	switch opts.Plot {
	case PlotBins:
		res.Chart, err = viz.PlotFCBins(res.Cleaned, res.Session, viz.BinsOptions{Hue: opts.Hue, Style: style})
	case PlotPhase:
		res.Chart, err = viz.PlotFCPhase(res.Cleaned, viz.PhaseOptions{Hue: opts.Hue, Kind: opts.Kind, Style: style})
	}
	if err != nil {
		return err
	}

	path := s.files.ArtifactPath(res.Session, files.KindFigure, opts.Plot, opts.Format)
	if dir := s.exp.FigDir(); dir != "" {
		path = filepath.Join(dir, filepath.Base(path))
	}
	if err := res.Chart.Save(path); err != nil {
		return err
	}
	s.wrote(ctx, res, files.KindFigure, path)

	if opts.Preview != nil {
		s.previewMu.Lock()
		defer s.previewMu.Unlock()
		fmt.Fprint(opts.Preview, viz.RenderTerminal(res.Chart, previewWidth, previewHeight))
	}
	return nil
}
