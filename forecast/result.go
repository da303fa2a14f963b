package forecast

import (
	"math"
	"time"
)

// Point is the estimate of a single month along with its prediction interval
type Point struct {
	T        time.Time `json:"date"`
	Forecast float64   `json:"point_estimate"`
	Lower    float64   `json:"lower_bound"`
	Upper    float64   `json:"upper_bound"`
}

// Round returns a copy of the point with every value rounded to precision decimal places
func (p Point) Round(precision int) Point {
	return Point{
		T:        p.T,
		Forecast: round(p.Forecast, precision),
		Lower:    round(p.Lower, precision),
		Upper:    round(p.Upper, precision),
	}
}

// Width is the distance between the upper and lower bound
func (p Point) Width() float64 {
	return p.Upper - p.Lower
}

func round(v float64, precision int) float64 {
	if precision < 0 {
		precision = 0
	}
	scale := math.Pow(10, float64(precision))
	return math.Round(v*scale) / scale
}

// Values returns the point estimates of points
func Values(points []Point) []float64 {
	res := make([]float64, len(points))
	for i, p := range points {
		res[i] = p.Forecast
	}
	return res
}

// Components holds the contribution of each part of the model to the estimate
type Components struct {
	Trend       []float64 `json:"trend"`
	Seasonality []float64 `json:"seasonality"`
	Calendar    []float64 `json:"calendar"`
}

// Result is the outcome of fitting a series and projecting it forward. Fitted covers every
// history month and Projected the months after it.
type Result struct {
	Fitted    []Point `json:"fitted"`
	Projected []Point `json:"projected"`
	Model     *Model  `json:"-"`
}
