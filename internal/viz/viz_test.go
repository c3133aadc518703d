package viz

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"fearcli/internal/config"
	apperrors "fearcli/internal/errors"
	"fearcli/pkg/contracts/domain"
)

// binTable has one row per animal and component with freeze = 10*animal + bin.
func binTable(session string, components []string, animals ...string) *domain.Table {
	table := &domain.Table{Session: session, Stage: domain.StageCleaned}
	for a, animal := range animals {
		for c, comp := range components {
			table.Records = append(table.Records, domain.FreezeRecord{
				Animal:    animal,
				Group:     "g" + animal,
				Phase:     "p" + comp,
				Component: comp,
				PctFreeze: float64(10*(a+1) + c),
			})
		}
	}
	return table
}

var trainBins = []string{"BL-1", "BL-2", "BL-3", "Tone-1", "Trace-1", "ITI-1"}

func TestPlotFCPhase_OneSeriesPerComponent(t *testing.T) {
	table := binTable("test", []string{"CS", "Trace", "US"}, "1", "2", "3")
	for i := range table.Records {
		table.Records[i].Phase = "test"
	}

	chart, err := PlotFCPhase(table, PhaseOptions{Hue: domain.ColumnComponent})
	require.NoError(t, err)
	require.NotNil(t, chart.Plot)

	require.Len(t, chart.Series, 3)
	for i, name := range []string{"CS", "Trace", "US"} {
		assert.Equal(t, name, chart.Series[i].Name)
		require.Len(t, chart.Series[i].Points, 1)
		assert.Equal(t, 3, chart.Series[i].Points[0].N)
	}
	assert.Equal(t, []string{"test"}, chart.Labels)
}

func TestPlotFCPhase_AveragesAnimalsFirst(t *testing.T) {
	table := &domain.Table{Records: []domain.FreezeRecord{
		{Animal: "1", Phase: "tone", PctFreeze: 10},
		{Animal: "1", Phase: "tone", PctFreeze: 30},
		{Animal: "2", Phase: "tone", PctFreeze: 40},
		{Animal: "2", Phase: "baseline", Missing: domain.MissingPctFreeze},
	}}

	for _, kind := range []Kind{KindBar, KindPoint} {
		chart, err := PlotFCPhase(table, PhaseOptions{Kind: kind})
		require.NoError(t, err, kind)

		require.Len(t, chart.Series, 1)
		tone := chart.Series[0].Points[0]
		assert.Equal(t, "tone", tone.Label)
		assert.Equal(t, 2, tone.N)
		assert.InDelta(t, 30, tone.Mean, 1e-9)
		assert.InDelta(t, 10, tone.SEM, 1e-9)
		assert.Equal(t, 0, chart.Series[0].Points[1].N, "baseline has no values")
	}
}

func TestPlotFCPhase_Invalid(t *testing.T) {
	table := binTable("train", trainBins, "1", "2")

	tests := []struct {
		name  string
		table *domain.Table
		opts  PhaseOptions
	}{
		{"bad key", table, PhaseOptions{Key: domain.ColumnGroup}},
		{"bad kind", table, PhaseOptions{Kind: "violin"}},
		{"empty table", &domain.Table{}, PhaseOptions{}},
		{"hue equals key", table, PhaseOptions{Hue: domain.ColumnPhase}},
		{"numeric hue", table, PhaseOptions{Hue: domain.ColumnPctFreeze}},
		{"absent labels", &domain.Table{Records: []domain.FreezeRecord{{Animal: "1", Component: "CS"}}}, PhaseOptions{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PlotFCPhase(tt.table, tt.opts)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestPlotFCBins(t *testing.T) {
	table := binTable("train", trainBins, "1", "2")

	chart, err := PlotFCBins(table, "train", BinsOptions{})
	require.NoError(t, err)
	assert.Equal(t, trainBins, chart.Labels)
	assert.Equal(t, config.TimeAxisName, chart.Plot.X.Label.Text)
	assert.Equal(t, config.FreezingAxisName, chart.Plot.Y.Label.Text)

	require.Len(t, chart.Series, 1)
	first := chart.Series[0].Points[0]
	assert.Equal(t, "BL-1", first.Label)
	assert.InDelta(t, 15, first.Mean, 1e-9)
	assert.InDelta(t, 5, first.SEM, 1e-9)

	split, err := PlotFCBins(table, "train", BinsOptions{Hue: domain.ColumnGroup})
	require.NoError(t, err)
	require.Len(t, split.Series, 2)
	assert.Equal(t, "g1", split.Series[0].Name)
	assert.Zero(t, split.Series[0].Points[0].SEM)

	_, err = PlotFCBins(table, "train", BinsOptions{Hue: domain.ColumnComponent})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = PlotFCBins(&domain.Table{}, "train", BinsOptions{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestPlotFCBins_ContextTicks(t *testing.T) {
	table := binTable("context", []string{"1", "2", "3", "4"}, "1")

	for _, session := range []string{"Context", "ctx"} {
		chart, err := PlotFCBins(table, session, BinsOptions{})
		require.NoError(t, err, session)

		ticks := chart.Plot.X.Tick.Marker.Ticks(0, 3)
		require.Len(t, ticks, 4, session)
		assert.Equal(t, "1", ticks[0].Label, session)
	}
}

func TestMinuteTicks(t *testing.T) {
	ticks := minuteTicks(7)
	assert.Equal(t, plot.ConstantTicks{
		{Value: 2, Label: "1"},
		{Value: 5, Label: "2"},
	}, ticks)
	assert.Empty(t, minuteTicks(2))
}

func TestChart_Save(t *testing.T) {
	chart, err := PlotFCBins(binTable("train", trainBins, "1", "2"), "train", BinsOptions{
		Style: Style{Title: "Train", Width: 4 * vg.Inch, Height: 3 * vg.Inch},
	})
	require.NoError(t, err)

	dir := t.TempDir()

	pngPath := filepath.Join(dir, "figs", "train.png")
	require.NoError(t, chart.Save(pngPath))
	data, err := os.ReadFile(pngPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))

	svgPath := filepath.Join(dir, "train.svg")
	require.NoError(t, chart.Save(svgPath))
	data, err = os.ReadFile(svgPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")

	err = chart.Save(filepath.Join(dir, "train.bmp"))
	assert.ErrorIs(t, err, apperrors.ErrRender)

	var buf bytes.Buffer
	require.NoError(t, chart.Encode(&buf, "pdf"))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#2b88f0")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0x2b, G: 0x88, B: 0xf0, A: 0xff}, c)

	c, err = ParseColor("abc")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xaa, G: 0xbb, B: 0xcc, A: 0xff}, c)

	for _, bad := range []string{"", "#12345", "#gggggg"} {
		_, err := ParseColor(bad)
		assert.ErrorIs(t, err, apperrors.ErrConfig, bad)
	}
}

func TestStyleFrom(t *testing.T) {
	cfg := config.Default().Plot
	cfg.WidthIn = 8
	cfg.Palette = []string{"#000000", "#ffffff"}

	s, err := StyleFrom(cfg)
	require.NoError(t, err)
	assert.Equal(t, 8*vg.Inch, s.Width)
	assert.Equal(t, 10*vg.Inch, s.Height)
	assert.Equal(t, color.RGBA{A: 0xff}, s.Color(2))

	cfg.Palette = []string{"blue"}
	_, err = StyleFrom(cfg)
	assert.ErrorIs(t, err, apperrors.ErrConfig)
}

func TestRenderTerminal(t *testing.T) {
	chart, err := PlotFCBins(binTable("train", trainBins, "1", "2"), "train", BinsOptions{Hue: domain.ColumnGroup})
	require.NoError(t, err)

	out := RenderTerminal(chart, 20, 2)
	assert.Contains(t, out, "PctFreeze by Component")
	assert.Contains(t, out, "g1")
	assert.Contains(t, out, "g2")
	assert.Contains(t, out, "20.0..25.0")

	assert.Contains(t, RenderTerminal(nil, 20, 2), "no data")

	// A chart built by hand has no style; the default palette is used.
	bare := &Chart{
		Key:    domain.ColumnPhase,
		Labels: []string{"tone", "trace"},
		Series: []Series{{Points: []Point{
			{Label: "tone", Mean: 40, N: 2},
			{Label: "trace", Mean: 60, N: 2},
		}}},
	}
	var bareOut string
	require.NotPanics(t, func() { bareOut = RenderTerminal(bare, 10, 1) })
	assert.Contains(t, bareOut, "all")
	assert.Contains(t, bareOut, "40.0..60.0")
}
