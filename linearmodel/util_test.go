package linearmodel

import (
	"math"
	"testing"
	"time"

	"github.com/aouyang1/go-traffic-forecaster/timedataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func denseFromRows(t testing.TB, rows [][]float64) *mat.Dense {
	require.NotEmpty(t, rows)
	n := len(rows[0])
	data := make([]float64, 0, len(rows)*n)
	for _, row := range rows {
		require.Len(t, row, n)
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), n, data)
}

func testModel(t *testing.T, model Model, x, y mat.Matrix, intercept float64, coef []float64, tol float64) {
	err := model.Fit(x, y)
	require.Nil(t, err)

	assert.InDelta(t, intercept, model.Intercept(), tol, "intercept")

	c := model.Coef()
	assert.InDeltaSlice(t, coef, c, tol, "coefficients")

	r2, err := model.Score(x, y)
	require.Nil(t, err)
	assert.InDelta(t, 1.0, r2, tol, "score")
}

// generateBenchData builds a trend plus yearly Fourier design over the given number of months
func generateBenchData(months, orders int) (mat.Matrix, mat.Matrix) {
	t := timedataset.GenerateMonths(time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), months)
	out := make(timedataset.Series, months)
	out.Add(timedataset.GenerateConstY(months, 1000)).
		Add(timedataset.GenerateLinearY(months, 3.5)).
		Add(timedataset.GenerateWaveY(t, 120, 1, 0)).
		Add(timedataset.GenerateWaveY(t, 40, 2, 1.5)).
		Add(timedataset.GenerateNoise(months, 15, 1))

	n := 2 + 2*orders
	x := mat.NewDense(months, n, nil)
	for i, tPnt := range t {
		moy := float64(tPnt.Month() - 1)
		x.Set(i, 0, 1.0)
		x.Set(i, 1, float64(i)/float64(months-1))
		for order := 1; order <= orders; order++ {
			rad := 2.0 * math.Pi * float64(order) * moy / 12.0
			x.Set(i, 2*order, math.Sin(rad))
			x.Set(i, 2*order+1, math.Cos(rad))
		}
	}
	return x, mat.NewDense(months, 1, out)
}
