package render

import (
	"bytes"
	"fmt"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/harukimoto/devkpi/internal/models"
)

const (
	chartWidth  = 800
	chartHeight = 600
)

// ChartRenderer turns an analytics payload into a chart image.
type ChartRenderer interface {
	RenderChart(data models.AnalyticsData) ([]byte, error)
}

// PNGChartRenderer renders a single-dataset PNG chart on a fixed canvas:
// a bar chart for up to three labels, a line chart beyond that.
type PNGChartRenderer struct{}

func NewChartRenderer() ChartRenderer {
	return PNGChartRenderer{}
}

func (PNGChartRenderer) RenderChart(data models.AnalyticsData) ([]byte, error) {
	if len(data.Labels) == 0 || len(data.Labels) != len(data.Values) {
		return nil, fmt.Errorf("chart data has %d labels and %d values", len(data.Labels), len(data.Values))
	}

	var buf bytes.Buffer
	var err error
	if len(data.Labels) <= 3 {
		err = renderBarChart(data, &buf)
	} else {
		err = renderLineChart(data, &buf)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	return buf.Bytes(), nil
}

// valueAxis pins the Y range to [0, max+1] so flat or single-point data
// never produces a zero-delta range, which go-chart rejects.
func valueAxis(values []float64) chart.YAxis {
	maxValue := 0.0
	for _, v := range values {
		if v > maxValue {
			maxValue = v
		}
	}
	return chart.YAxis{
		Range: &chart.ContinuousRange{Min: 0, Max: maxValue + 1},
	}
}

func renderBarChart(data models.AnalyticsData, buf *bytes.Buffer) error {
	bars := make([]chart.Value, 0, len(data.Labels))
	for i, label := range data.Labels {
		bars = append(bars, chart.Value{Label: label, Value: data.Values[i]})
	}

	graph := chart.BarChart{
		Title:    "Task Performance Analytics",
		Width:    chartWidth,
		Height:   chartHeight,
		BarWidth: 60,
		Bars:     bars,
		YAxis:    valueAxis(data.Values),
	}
	return graph.Render(chart.PNG, buf)
}

func renderLineChart(data models.AnalyticsData, buf *bytes.Buffer) error {
	xs := make([]float64, len(data.Values))
	ticks := make([]chart.Tick, len(data.Labels))
	for i, label := range data.Labels {
		xs[i] = float64(i)
		ticks[i] = chart.Tick{Value: float64(i), Label: label}
	}

	graph := chart.Chart{
		Title:  "Task Performance Analytics",
		Width:  chartWidth,
		Height: chartHeight,
		XAxis:  chart.XAxis{Ticks: ticks},
		YAxis:  valueAxis(data.Values),
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Task Analytics",
				XValues: xs,
				YValues: data.Values,
			},
		},
	}
	return graph.Render(chart.PNG, buf)
}
