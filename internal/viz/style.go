package viz

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"fearcli/internal/config"
	apperrors "fearcli/internal/errors"
)

// Style holds the look of a figure. Zero fields fall back to DefaultStyle.
type Style struct {
	Title      string
	XLabel     string
	YLabel     string
	TitleSize  vg.Length
	LabelSize  vg.Length
	TickSize   vg.Length
	LegendSize vg.Length
	LabelPad   vg.Length

	// Palette is a list of hex colours cycled over series.
	Palette []string

	Width  vg.Length
	Height vg.Length
}

// DefaultStyle matches the lab's poster figures: large fonts on a 16x10 in
// canvas.
func DefaultStyle() Style {
	return Style{
		YLabel:     config.FreezingAxisName,
		TitleSize:  vg.Points(config.TitleFontSize),
		LabelSize:  vg.Points(config.LabelFontSize),
		TickSize:   vg.Points(config.TickLabelSize),
		LegendSize: vg.Points(config.LegendFontSize),
		LabelPad:   vg.Points(config.LabelPad),
		Palette:    append([]string(nil), config.DefaultPalette...),
		Width:      16 * vg.Inch,
		Height:     10 * vg.Inch,
	}
}

// StyleFrom builds a style from the plot section of the app config.
func StyleFrom(cfg config.PlotConfig) (Style, error) {
	s := DefaultStyle()
	if len(cfg.Palette) > 0 {
		for _, hex := range cfg.Palette {
			if _, err := ParseColor(hex); err != nil {
				return Style{}, err
			}
		}
		s.Palette = append([]string(nil), cfg.Palette...)
	}
	if cfg.WidthIn > 0 {
		s.Width = vg.Length(cfg.WidthIn) * vg.Inch
	}
	if cfg.HeightIn > 0 {
		s.Height = vg.Length(cfg.HeightIn) * vg.Inch
	}
	return s, nil
}

// withDefaults fills zero fields from DefaultStyle.
func (s Style) withDefaults() Style {
	d := DefaultStyle()
	if s.YLabel == "" {
		s.YLabel = d.YLabel
	}
	if s.TitleSize == 0 {
		s.TitleSize = d.TitleSize
	}
	if s.LabelSize == 0 {
		s.LabelSize = d.LabelSize
	}
	if s.TickSize == 0 {
		s.TickSize = d.TickSize
	}
	if s.LegendSize == 0 {
		s.LegendSize = d.LegendSize
	}
	if s.LabelPad == 0 {
		s.LabelPad = d.LabelPad
	}
	if len(s.Palette) == 0 {
		s.Palette = d.Palette
	}
	if s.Width == 0 {
		s.Width = d.Width
	}
	if s.Height == 0 {
		s.Height = d.Height
	}
	return s
}

// Color returns the palette colour of series i.
func (s Style) Color(i int) color.Color {
	c, err := ParseColor(s.Palette[i%len(s.Palette)])
	if err != nil {
		return color.Black
	}
	return c
}

// apply sets titles and font sizes on p.
func (s Style) apply(p *plot.Plot) {
	p.Title.Text = s.Title
	p.Title.TextStyle.Font.Size = s.TitleSize
	p.X.Label.Text = s.XLabel
	p.Y.Label.Text = s.YLabel
	for _, ax := range []*plot.Axis{&p.X, &p.Y} {
		ax.Label.TextStyle.Font.Size = s.LabelSize
		ax.Label.Padding = s.LabelPad
		ax.Tick.Label.Font.Size = s.TickSize
	}
	p.Legend.TextStyle.Font.Size = s.LegendSize
	p.Legend.Top = true
}

// ParseColor parses #rgb or #rrggbb.
func ParseColor(hex string) (color.RGBA, error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.RGBA{}, apperrors.NewConfigError(fmt.Sprintf("invalid colour %q", hex), nil)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, apperrors.NewConfigError(fmt.Sprintf("invalid colour %q", hex), err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
