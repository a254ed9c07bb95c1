// Package chart renders the report comparison charts as PNG files.
package chart

import (
	"fmt"
	"os"
	"path/filepath"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/UWorldJK/stocks-etl/internal/feature/report/usecase"
)

// Renderer draws one line per ticker using go-chart.
type Renderer struct{}

var _ usecase.ChartRenderer = (*Renderer)(nil)

// NewRenderer creates a Renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// palette matches the dashboard colors of the report.
var palette = []drawing.Color{
	{R: 0x2e, G: 0x86, B: 0xab, A: 255},
	{R: 0xa2, G: 0x3b, B: 0x72, A: 255},
	{R: 0xf1, G: 0x8f, B: 0x01, A: 255},
	{R: 0xc7, G: 0x3e, B: 0x1d, A: 255},
	{R: 0x6a, G: 0x99, B: 0x4e, A: 255},
	{R: 0x57, G: 0x75, B: 0x90, A: 255},
}

// RenderLines draws one time series per ticker and writes a PNG to path.
func (r *Renderer) RenderLines(title, path string, series []usecase.Series) error {
	return r.render(title, path, series, nil)
}

// RenderRSI draws RSI series on a fixed 0-100 axis with 30/70 guide lines.
func (r *Renderer) RenderRSI(title, path string, series []usecase.Series) error {
	yaxis := &gochart.YAxis{
		Range: &gochart.ContinuousRange{Min: 0, Max: 100},
		GridLines: []gochart.GridLine{
			{Value: 30},
			{Value: 70},
		},
		GridMajorStyle: gochart.Style{
			StrokeColor:     drawing.Color{R: 0x6b, G: 0x72, B: 0x80, A: 160},
			StrokeWidth:     1.0,
			StrokeDashArray: []float64{4.0, 4.0},
		},
	}
	return r.render(title, path, series, yaxis)
}

func (r *Renderer) render(title, path string, series []usecase.Series, yaxis *gochart.YAxis) error {
	if len(series) == 0 {
		return fmt.Errorf("no series to render for %q", title)
	}

	graph := gochart.Chart{
		Title:  title,
		Width:  1200,
		Height: 600,
		XAxis: gochart.XAxis{
			ValueFormatter: gochart.TimeDateValueFormatter,
		},
	}
	if yaxis != nil {
		graph.YAxis = *yaxis
	}

	for i, s := range series {
		graph.Series = append(graph.Series, gochart.TimeSeries{
			Name:    s.Ticker,
			XValues: s.Dates,
			YValues: s.Values,
			Style: gochart.Style{
				StrokeColor: palette[i%len(palette)],
				StrokeWidth: 2.0,
			},
		})
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := graph.Render(gochart.PNG, f); err != nil {
		return fmt.Errorf("render %q: %w", title, err)
	}
	return nil
}
