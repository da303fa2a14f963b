// Package stats holds robust statistics used to screen model residuals
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Fences returns the Tukey fences of the finite values in y. The inner range is measured
// between the lowerPerc and upperPerc empirical quantiles and extended on both sides by
// tukeyFactor times its width. ok is false when y has no finite values.
func Fences(y []float64, lowerPerc, upperPerc, tukeyFactor float64) (lower, upper float64, ok bool) {
	lowerPerc = math.Max(lowerPerc, 0.0)
	upperPerc = math.Min(upperPerc, 1.0)
	if lowerPerc > upperPerc {
		lowerPerc, upperPerc = upperPerc, lowerPerc
	}
	tukeyFactor = math.Max(tukeyFactor, 0.0)

	sorted := make([]float64, 0, len(y))
	for _, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sorted = append(sorted, v)
	}
	if len(sorted) == 0 {
		return 0, 0, false
	}
	sort.Float64s(sorted)

	lower = stat.Quantile(lowerPerc, stat.Empirical, sorted, nil)
	upper = stat.Quantile(upperPerc, stat.Empirical, sorted, nil)
	innerRange := upper - lower
	return lower - innerRange*tukeyFactor, upper + innerRange*tukeyFactor, true
}

// DetectOutliers returns the indices of y lying strictly outside the Tukey fences. NaN
// values are never reported.
func DetectOutliers(y []float64, lowerPerc, upperPerc, tukeyFactor float64) []int {
	lower, upper, ok := Fences(y, lowerPerc, upperPerc, tukeyFactor)
	if !ok {
		return nil
	}

	var outlierIdx []int
	for i := 0; i < len(y); i++ {
		if math.IsNaN(y[i]) {
			continue
		}
		if y[i] > upper || y[i] < lower {
			outlierIdx = append(outlierIdx, i)
		}
	}
	return outlierIdx
}
