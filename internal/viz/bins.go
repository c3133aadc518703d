package viz

import (
	"image/color"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"fearcli/internal/config"
	apperrors "fearcli/internal/errors"
	"fearcli/pkg/contracts/domain"
)

var (
	toneShade   = color.NRGBA{R: 128, G: 128, B: 128, A: 38}
	shockMarker = color.NRGBA{R: 0xff, G: 0xb2, A: 0xff}
)

// BinsOptions configures PlotFCBins.
type BinsOptions struct {
	// Hue splits the plot into one series per label of this column.
	Hue   string
	Style Style
}

// PlotFCBins draws mean ± SEM freezing per component bin in file order.
// Tone bins are shaded for every session but context, and train sessions
// get a shock marker after each trace bin.
func PlotFCBins(table *domain.Table, session string, opts BinsOptions) (*Chart, error) {
	if table.Len() == 0 {
		return nil, apperrors.NewValidationError("cannot plot an empty table")
	}
	key := domain.ColumnComponent
	if err := checkHue(opts.Hue, key); err != nil {
		return nil, err
	}
	labels, err := keyLabels(table, key)
	if err != nil {
		return nil, err
	}

	style := opts.Style.withDefaults()
	if style.XLabel == "" {
		style.XLabel = config.TimeAxisName
	}

	chart := &Chart{
		Key:    key,
		Labels: labels,
		Series: aggregate(table.Records, key, opts.Hue, labels),
		style:  style,
	}

	p := plot.New()
	style.apply(p)

	isContext := domain.SessionConfig{ID: session}.IsContext()
	isTrain := strings.EqualFold(session, "train")
	lo, hi := yRange(chart.Series)
	for i, label := range labels {
		l := strings.ToLower(label)
		x := float64(i)
		switch {
		case !isContext && strings.Contains(l, "tone-"):
			err = addSpan(p, x-0.5, x+0.5, lo, hi, toneShade)
		case isTrain && strings.Contains(l, "trace-"):
			err = addSpan(p, x+0.5, x+0.65, lo, hi, shockMarker)
		}
		if err != nil {
			return nil, err
		}
	}

	for s, series := range chart.Series {
		if err := addPointSeries(p, series, 0, style.Color(s), vg.Points(6)); err != nil {
			return nil, err
		}
	}

	if isContext {
		p.NominalX(labels...)
	} else {
		p.X.Tick.Marker = minuteTicks(len(labels))
	}
	chart.Plot = p
	return chart, nil
}

// addSpan shades x0..x1 behind the data.
func addSpan(p *plot.Plot, x0, x1, lo, hi float64, c color.Color) error {
	poly, err := span(x0, x1, lo, hi)
	if err != nil {
		return apperrors.NewRenderError("failed to draw bin marker", err)
	}
	poly.Color = c
	poly.LineStyle.Width = 0
	p.Add(poly)
	return nil
}

// addPointSeries draws a line through the means with SEM bars.
func addPointSeries(p *plot.Plot, series Series, offset float64, c color.Color, radius vg.Length) error {
	me := summaryPoints(series.Points, offset)
	if len(me.XYs) == 0 {
		return nil
	}

	line, points, err := plotter.NewLinePoints(me)
	if err != nil {
		return apperrors.NewRenderError("failed to draw series", err).WithContext("series", series.Name)
	}
	line.Color = c
	line.Width = vg.Points(3)
	points.Color = c
	points.Shape = draw.CircleGlyph{}
	points.Radius = radius

	bars, err := plotter.NewYErrorBars(me)
	if err != nil {
		return apperrors.NewRenderError("failed to draw error bars", err).WithContext("series", series.Name)
	}
	bars.Color = c
	bars.Width = vg.Points(3)

	p.Add(line, points, bars)
	if series.Name != "" {
		p.Legend.Add(series.Name, line, points)
	}
	return nil
}

// minuteTicks labels every third bin with its minute.
func minuteTicks(n int) plot.ConstantTicks {
	var ticks plot.ConstantTicks
	minute := 0
	for i := 0; i < n; i++ {
		if (i+1)%config.BinsPerMinute == 0 {
			minute++
			ticks = append(ticks, plot.Tick{Value: float64(i), Label: strconv.Itoa(minute)})
		}
	}
	return ticks
}
