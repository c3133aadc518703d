package viz

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"fearcli/internal/dataprocessing"
	apperrors "fearcli/internal/errors"
	"fearcli/pkg/contracts/domain"
)

// Kind selects the summary mark of PlotFCPhase.
type Kind string

const (
	KindBar   Kind = "bar"
	KindPoint Kind = "point"
)

// groupWidth is the share of one x slot taken by a group of dodged bars.
const groupWidth = 0.8

// PhaseOptions configures PlotFCPhase.
type PhaseOptions struct {
	// Key is the x axis column, Phase or Component. Defaults to Phase.
	Key string
	Hue string
	// Kind defaults to KindBar.
	Kind Kind
	// HidePoints drops the per-animal markers drawn over bars.
	HidePoints bool
	Style      Style
}

// PlotFCPhase averages each animal per key (and hue) label, then draws mean
// ± SEM per label as bars or points with one series per hue level.
func PlotFCPhase(table *domain.Table, opts PhaseOptions) (*Chart, error) {
	if opts.Key == "" {
		opts.Key = domain.ColumnPhase
	}
	if opts.Kind == "" {
		opts.Kind = KindBar
	}
	switch {
	case opts.Key != domain.ColumnPhase && opts.Key != domain.ColumnComponent:
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("grouping key must be %s or %s, got %q", domain.ColumnPhase, domain.ColumnComponent, opts.Key))
	case opts.Kind != KindBar && opts.Kind != KindPoint:
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown plot kind %q", opts.Kind))
	case table.Len() == 0:
		return nil, apperrors.NewValidationError("cannot plot an empty table")
	}
	if err := checkHue(opts.Hue, opts.Key); err != nil {
		return nil, err
	}

	labels, err := keyLabels(table, opts.Key)
	if err != nil {
		return nil, err
	}
	means, err := dataprocessing.MeanByAnimal(table, opts.Key, opts.Hue)
	if err != nil {
		return nil, err
	}

	style := opts.Style.withDefaults()
	chart := &Chart{
		Key:    opts.Key,
		Labels: labels,
		Series: aggregate(means.Records, opts.Key, opts.Hue, labels),
		style:  style,
	}

	p := plot.New()
	style.apply(p)

	n := len(chart.Series)
	width := groupWidth / float64(n)
	for s, series := range chart.Series {
		c := style.Color(s)
		if opts.Kind == KindPoint {
			if err := addPointSeries(p, series, 0, c, vg.Points(12)); err != nil {
				return nil, err
			}
			continue
		}

		offset := (float64(s) - float64(n-1)/2) * width
		if err := addBarSeries(p, series, offset, width, c); err != nil {
			return nil, err
		}
		if !opts.HidePoints {
			if err := addAnimalPoints(p, series, offset); err != nil {
				return nil, err
			}
		}
	}

	if opts.Key == domain.ColumnComponent {
		p.X.Tick.Marker = minuteTicks(len(labels))
	} else {
		p.NominalX(labels...)
	}
	chart.Plot = p
	return chart, nil
}

// addBarSeries draws one bar per label from zero to the mean, with SEM bars.
// Bars are polygons so that dodging stays in data units.
func addBarSeries(p *plot.Plot, series Series, offset, width float64, c color.Color) error {
	var first *plotter.Polygon
	for _, pt := range series.Points {
		if pt.N == 0 {
			continue
		}
		x := pt.X + offset
		bar, err := span(x-width/2, x+width/2, 0, pt.Mean)
		if err != nil {
			return apperrors.NewRenderError("failed to draw bar", err).WithContext("label", pt.Label)
		}
		bar.Color = c
		bar.LineStyle.Width = 0
		p.Add(bar)
		if first == nil {
			first = bar
		}
	}
	if first == nil {
		return nil
	}

	bars, err := plotter.NewYErrorBars(summaryPoints(series.Points, offset))
	if err != nil {
		return apperrors.NewRenderError("failed to draw error bars", err).WithContext("series", series.Name)
	}
	bars.Width = vg.Points(4)
	p.Add(bars)

	if series.Name != "" {
		p.Legend.Add(series.Name, first)
	}
	return nil
}

// addAnimalPoints marks each animal's value over its bar.
func addAnimalPoints(p *plot.Plot, series Series, offset float64) error {
	var xys plotter.XYs
	for _, pt := range series.Points {
		for _, v := range pt.Values {
			xys = append(xys, plotter.XY{X: pt.X + offset, Y: v})
		}
	}
	if len(xys) == 0 {
		return nil
	}
	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return apperrors.NewRenderError("failed to draw animal points", err).WithContext("series", series.Name)
	}
	sc.Color = color.Black
	sc.Shape = draw.CircleGlyph{}
	sc.Radius = vg.Points(5)
	p.Add(sc)
	return nil
}
