package forecast

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// quantile returns the two sided critical value for the confidence level. The Student's t
// distribution is used when the residuals have degrees of freedom, otherwise the standard
// normal.
func quantile(confidence float64, df int) float64 {
	p := (1 + confidence) / 2
	if df < 1 {
		return distuv.UnitNormal.Quantile(p)
	}
	q := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}.Quantile(p)
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return distuv.UnitNormal.Quantile(p)
	}
	return q
}
