package forecaster

import (
	"io"
	"math"
	"time"

	"github.com/aouyang1/go-traffic-forecaster/forecast"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// gap is rendered by echarts as a break in the line
const gap = "-"

func monthLabels(t []time.Time) []string {
	labels := make([]string, len(t))
	for i, tPnt := range t {
		labels[i] = tPnt.Format("2006-01")
	}
	return labels
}

func lineData(y []float64) []opts.LineData {
	data := make([]opts.LineData, len(y))
	for i, v := range y {
		if math.IsNaN(v) {
			data[i] = opts.LineData{Value: gap}
			continue
		}
		data[i] = opts.LineData{Value: v}
	}
	return data
}

// LineTSeries generates an echart multi-line chart for some arbitrary month/value combination.
// Every series in y must have the same length as t and NaN values are left as gaps.
func LineTSeries(title string, seriesName []string, t []time.Time, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
	)

	line = line.SetXAxis(monthLabels(t))
	for i, series := range seriesName {
		line = line.AddSeries(series, lineData(y[i]))
	}
	return line
}

// LineForecast generates an echart line chart of the history along with the fit, projection
// and interval bounds. Anomalous months are plotted as their own series.
func (r *Report) LineForecast() *charts.Line {
	nHist := r.History.Len()
	points := make([]forecast.Point, 0, len(r.Result.Fitted)+len(r.Result.Projected))
	points = append(points, r.Result.Fitted...)
	points = append(points, r.Result.Projected...)

	t := make([]time.Time, len(points))
	actual := make([]float64, len(points))
	fit := make([]float64, len(points))
	projected := make([]float64, len(points))
	upper := make([]float64, len(points))
	lower := make([]float64, len(points))
	anomalous := make([]float64, len(points))

	flagged := make(map[time.Time]struct{}, len(r.Anomalies))
	for _, a := range r.Anomalies {
		flagged[a.T] = struct{}{}
	}

	for i, p := range points {
		t[i] = p.T
		upper[i] = p.Upper
		lower[i] = p.Lower
		actual[i], fit[i], projected[i], anomalous[i] = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		if i < nHist {
			actual[i] = r.History.Y[i]
			fit[i] = p.Forecast
			if _, exists := flagged[p.T]; exists {
				anomalous[i] = r.History.Y[i]
			}
			continue
		}
		projected[i] = p.Forecast
	}
	// connect the projection to the end of the fit
	if nHist > 0 && nHist < len(points) {
		projected[nHist-1] = fit[nHist-1]
	}

	return LineTSeries(
		"Traffic Forecast",
		[]string{"Actual", "Fit", "Forecast", "Upper", "Lower", "Anomaly"},
		t,
		[][]float64{actual, fit, projected, upper, lower, anomalous},
	)
}

// PlotHTML uses the Apache Echarts library to render an html page showing the history, fit,
// forecast, model components and fit residual
func (r *Report) PlotHTML(w io.Writer) error {
	m := r.Result.Model
	t := r.History.T
	page := components.NewPage()
	page.AddCharts(
		r.LineForecast(),
		LineTSeries(
			"Forecast Components",
			[]string{"Trend", "Seasonality"},
			t,
			[][]float64{
				padNaN(m.TrendComponent(), len(t)),
				padNaN(m.SeasonalityComponent(), len(t)),
			},
		),
		LineTSeries(
			"Forecast Residual",
			[]string{"Residual"},
			t,
			[][]float64{padNaN(m.Residuals(), len(t))},
		),
	)
	return page.Render(w)
}

// padNaN returns y extended with NaN or truncated to length n
func padNaN(y []float64, n int) []float64 {
	res := make([]float64, n)
	for i := range res {
		if i < len(y) {
			res[i] = y[i]
			continue
		}
		res[i] = math.NaN()
	}
	return res
}
