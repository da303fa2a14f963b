// Package anomaly flags historical months whose value deviates from the series mean by more
// than a number of standard deviations
package anomaly

import (
	"math"
	"time"

	"github.com/aouyang1/go-traffic-forecaster/timedataset"
	"gonum.org/v1/gonum/stat"
)

// DefaultThreshold is the two-sigma rule
const DefaultThreshold = 2.0

// Record is a flagged month. Score is the signed number of standard deviations the value
// lies from the mean.
type Record struct {
	T     time.Time `json:"date"`
	Value float64   `json:"value"`
	Score float64   `json:"deviation_score"`
}

// Moments are the statistics the deviation scores are measured against
type Moments struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	N      int     `json:"n"`
}

// Describe returns the mean and sample standard deviation of the series values
func Describe(td *timedataset.TimeDataset) Moments {
	if td.Len() == 0 {
		return Moments{}
	}
	if td.Len() == 1 {
		return Moments{Mean: td.Y[0], N: 1}
	}
	mean, std := stat.MeanStdDev(td.Y, nil)
	return Moments{Mean: mean, StdDev: std, N: td.Len()}
}

// Detect returns the months where |value - mean| / stddev exceeds threshold in chronological
// order. A non-positive threshold uses DefaultThreshold. A constant series or one with fewer
// than two points has no anomalies.
func Detect(td *timedataset.TimeDataset, threshold float64) []Record {
	if threshold <= 0 || math.IsNaN(threshold) {
		threshold = DefaultThreshold
	}

	m := Describe(td)
	if m.N < 2 || m.StdDev == 0 || math.IsNaN(m.StdDev) {
		return nil
	}

	var res []Record
	for i, v := range td.Y {
		score := (v - m.Mean) / m.StdDev
		if math.Abs(score) > threshold {
			res = append(res, Record{T: td.T[i], Value: v, Score: score})
		}
	}
	return res
}
