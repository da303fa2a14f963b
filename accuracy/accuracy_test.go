package accuracy

import (
	"math"
	"testing"
	"time"

	"github.com/aouyang1/go-traffic-forecaster/forecast"
	"github.com/aouyang1/go-traffic-forecaster/timedataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute(t *testing.T) {
	testData := map[string]struct {
		actual    []float64
		predicted []float64
		expected  Metrics
		err       error
	}{
		"perfect": {
			actual:    []float64{10, 20, 30},
			predicted: []float64{10, 20, 30},
			expected:  Metrics{R2: 1, N: 3, MAPECount: 3},
		},
		"simple errors": {
			actual:    []float64{100, 200},
			predicted: []float64{110, 180},
			expected: Metrics{
				MAPE:      10,
				RMSE:      math.Sqrt(250),
				MAE:       15,
				MSE:       250,
				R2:        0.9,
				N:         2,
				MAPECount: 2,
			},
		},
		"zero actual excluded from mape": {
			actual:    []float64{0, 100},
			predicted: []float64{5, 90},
			expected: Metrics{
				MAPE:      10,
				RMSE:      math.Sqrt(62.5),
				MAE:       7.5,
				MSE:       62.5,
				R2:        1 - 125.0/5000.0,
				N:         2,
				MAPECount: 1,
			},
		},
		"all zero actuals": {
			actual:    []float64{0, 0},
			predicted: []float64{0, 0},
			expected:  Metrics{R2: 1, N: 2},
		},
		"length mismatch": {
			actual:    []float64{1, 2, 3},
			predicted: []float64{1, 2},
			err:       ErrLengthMismatch,
		},
		"empty": {
			err: ErrNoObservations,
		},
		"non finite": {
			actual:    []float64{1, math.Inf(1)},
			predicted: []float64{1, 2},
			err:       ErrNonFinite,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			m, err := Compute(td.actual, td.predicted)
			if td.err != nil {
				require.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.InDelta(t, td.expected.MAPE, m.MAPE, 1e-9)
			assert.InDelta(t, td.expected.RMSE, m.RMSE, 1e-9)
			assert.InDelta(t, td.expected.MAE, m.MAE, 1e-9)
			assert.InDelta(t, td.expected.MSE, m.MSE, 1e-9)
			assert.InDelta(t, td.expected.R2, m.R2, 1e-9)
			assert.Equal(t, td.expected.N, m.N)
			assert.Equal(t, td.expected.MAPECount, m.MAPECount)
		})
	}
}

func month(year int, m time.Month) time.Time {
	return time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
}

func points(t []time.Time, y []float64) []forecast.Point {
	res := make([]forecast.Point, len(t))
	for i := range t {
		res[i] = forecast.Point{T: t[i], Forecast: y[i], Lower: y[i] - 1, Upper: y[i] + 1}
	}
	return res
}

func TestEvaluate(t *testing.T) {
	tSeries := timedataset.GenerateMonths(month(2023, time.January), 4)
	y := []float64{100, 110, 120, 130}
	actual, err := timedataset.NewUnivariateDataset(tSeries, y)
	require.Nil(t, err)

	testData := map[string]struct {
		fitted []forecast.Point
		mape   float64
		err    error
	}{
		"self": {
			fitted: points(tSeries, y),
			mape:   0,
		},
		"offset": {
			fitted: points(tSeries, []float64{110, 121, 132, 143}),
			mape:   10,
		},
		"short": {
			fitted: points(tSeries[:3], y[:3]),
			err:    ErrLengthMismatch,
		},
		"shifted months": {
			fitted: points(timedataset.GenerateMonths(month(2023, time.February), 4), y),
			err:    ErrMisaligned,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			m, err := Evaluate(actual, td.fitted)
			if td.err != nil {
				require.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.InDelta(t, td.mape, m.MAPE, 1e-9)
			assert.Equal(t, 4, m.N)
		})
	}

	_, err = Evaluate(nil, nil)
	assert.ErrorIs(t, err, ErrNoObservations)
}
