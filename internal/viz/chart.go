package viz

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"

	apperrors "fearcli/internal/errors"
	"fearcli/pkg/contracts/domain"
)

// Formats Chart.Save can write.
var Formats = []string{"png", "svg", "pdf"}

// Point is the summary of one x label within a series.
type Point struct {
	Label  string
	X      float64
	Mean   float64
	SEM    float64
	N      int
	Values []float64
}

// Series is one hue level of a chart. Name is empty when the chart has no hue.
type Series struct {
	Name   string
	Points []Point
}

// Chart is a rendered figure and the numbers behind it.
type Chart struct {
	Key    string
	Labels []string
	Series []Series
	Plot   *plot.Plot

	style Style
}

// Style returns the style the chart was drawn with.
func (c *Chart) Style() Style {
	return c.style
}

// Save writes the chart to path. The format comes from the extension.
func (c *Chart) Save(path string) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if !isFormat(format) {
		return apperrors.NewRenderError(fmt.Sprintf("unsupported figure format %q", format), nil).
			WithContext("path", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("failed to create figure directory", err).WithContext("path", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewStorageError("failed to create figure", err).WithContext("path", path)
	}
	if err := c.Encode(f, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return apperrors.NewStorageError("failed to write figure", err).WithContext("path", path)
	}
	return nil
}

// Encode writes the chart to w in the given format.
func (c *Chart) Encode(w io.Writer, format string) error {
	if !isFormat(format) {
		return apperrors.NewRenderError(fmt.Sprintf("unsupported figure format %q", format), nil)
	}
	wt, err := c.Plot.WriterTo(c.style.Width, c.style.Height, format)
	if err != nil {
		return apperrors.NewRenderError("failed to draw chart", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return apperrors.NewRenderError("failed to encode chart", err).WithContext("format", format)
	}
	return nil
}

func isFormat(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// aggregate summarises PctFreeze per hue level and x label. Labels fix the
// x order; series keep first-seen hue order.
func aggregate(records []domain.FreezeRecord, key, hue string, labels []string) []Series {
	xs := make(map[string]int, len(labels))
	for i, l := range labels {
		xs[l] = i
	}

	var series []Series
	index := make(map[string]int)
	for _, r := range records {
		name := ""
		if hue != "" {
			name, _ = r.Label(hue)
		}
		s, ok := index[name]
		if !ok {
			s = len(series)
			index[name] = s
			points := make([]Point, len(labels))
			for i, l := range labels {
				points[i] = Point{Label: l, X: float64(i)}
			}
			series = append(series, Series{Name: name, Points: points})
		}

		label, _ := r.Label(key)
		i, ok := xs[label]
		if !ok {
			continue
		}
		if v, ok := r.Value(domain.ColumnPctFreeze); ok {
			p := &series[s].Points[i]
			p.Values = append(p.Values, v)
		}
	}

	for s := range series {
		for i := range series[s].Points {
			p := &series[s].Points[i]
			p.N = len(p.Values)
			if p.N == 0 {
				continue
			}
			p.Mean = stat.Mean(p.Values, nil)
			if p.N > 1 {
				p.SEM = stat.StdDev(p.Values, nil) / math.Sqrt(float64(p.N))
			}
		}
	}
	return series
}

// keyLabels returns the non-empty labels of column in first-seen order.
func keyLabels(table *domain.Table, column string) ([]string, error) {
	all, err := table.Labels(column)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	var labels []string
	for _, l := range all {
		if l != "" {
			labels = append(labels, l)
		}
	}
	if len(labels) == 0 {
		return nil, apperrors.NewValidationError(fmt.Sprintf("table has no %s labels", column)).
			WithContext("column", column)
	}
	return labels, nil
}

// checkHue rejects hue columns that cannot split a chart.
func checkHue(hue, key string) error {
	if hue == "" {
		return nil
	}
	if !domain.IsCategorical(hue) || hue == key {
		return apperrors.NewValidationError(fmt.Sprintf("cannot split by column %q", hue)).
			WithContext("hue", hue)
	}
	return nil
}

// meanErrors is the XYer and YErrorer behind error bars.
type meanErrors struct {
	plotter.XYs
	plotter.YErrors
}

// summaryPoints returns the means of the points holding data, shifted by
// offset on x.
func summaryPoints(points []Point, offset float64) meanErrors {
	var me meanErrors
	for _, p := range points {
		if p.N == 0 {
			continue
		}
		me.XYs = append(me.XYs, plotter.XY{X: p.X + offset, Y: p.Mean})
		me.YErrors = append(me.YErrors, struct{ Low, High float64 }{p.SEM, p.SEM})
	}
	return me
}

// yRange is the span covered by means, error bars and raw values.
func yRange(series []Series) (lo, hi float64) {
	lo, hi = 0, 0
	for _, s := range series {
		for _, p := range s.Points {
			if p.N == 0 {
				continue
			}
			lo = math.Min(lo, p.Mean-p.SEM)
			hi = math.Max(hi, p.Mean+p.SEM)
			for _, v := range p.Values {
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			}
		}
	}
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}

// span returns a filled rectangle from x0 to x1 across the y range.
func span(x0, x1, lo, hi float64) (*plotter.Polygon, error) {
	return plotter.NewPolygon(plotter.XYs{{X: x0, Y: lo}, {X: x1, Y: lo}, {X: x1, Y: hi}, {X: x0, Y: hi}})
}
