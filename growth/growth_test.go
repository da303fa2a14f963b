package growth

import (
	"testing"
	"time"

	"github.com/aouyang1/go-traffic-forecaster/forecast"
	"github.com/aouyang1/go-traffic-forecaster/timedataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func month(year int, m time.Month) time.Time {
	return time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
}

func ptr(v float64) *float64 {
	return &v
}

func assertPcts(t *testing.T, expected []*float64, records []Record) {
	t.Helper()
	require.Len(t, records, len(expected))
	for i, e := range expected {
		if e == nil {
			assert.Nil(t, records[i].Pct, "index %d", i)
			continue
		}
		require.NotNil(t, records[i].Pct, "index %d", i)
		assert.InDelta(t, *e, *records[i].Pct, 1e-9, "index %d", i)
	}
}

func TestComputeHistoryOnly(t *testing.T) {
	testData := map[string]struct {
		y        []float64
		lag      int
		expected []*float64
	}{
		"short series undefined": {
			y:        []float64{100, 110, 120},
			lag:      DefaultLag,
			expected: []*float64{nil, nil, nil},
		},
		"lag one": {
			y:        []float64{100, 110, 99},
			lag:      1,
			expected: []*float64{nil, ptr(10), ptr(-10)},
		},
		"flat series is zero growth": {
			y:        []float64{50, 50, 50},
			lag:      1,
			expected: []*float64{nil, ptr(0), ptr(0)},
		},
		"zero prior is undefined": {
			y:        []float64{0, 50, 60},
			lag:      1,
			expected: []*float64{nil, nil, ptr(20)},
		},
		"default lag": {
			y:        []float64{100, 200, 300},
			lag:      0,
			expected: []*float64{nil, nil, nil},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			history, err := timedataset.NewUnivariateDataset(
				timedataset.GenerateMonths(month(2023, time.January), len(td.y)), td.y,
			)
			require.Nil(t, err)

			res := Compute(history, nil, td.lag)
			assertPcts(t, td.expected, res)
			for _, r := range res {
				assert.Equal(t, SegmentHistory, r.Segment)
			}
		})
	}
}

func TestComputeYearOverYear(t *testing.T) {
	y := make([]float64, 13)
	for i := range y {
		y[i] = 100
	}
	y[12] = 150
	history, err := timedataset.NewUnivariateDataset(
		timedataset.GenerateMonths(month(2022, time.January), len(y)), y,
	)
	require.Nil(t, err)

	res := Compute(history, nil, DefaultLag)
	require.Len(t, res, 13)
	for i := 0; i < 12; i++ {
		assert.False(t, res[i].Defined())
	}
	require.True(t, res[12].Defined())
	assert.InDelta(t, 50.0, *res[12].Pct, 1e-9)
	assert.Equal(t, month(2023, time.January), res[12].T)
}

func TestComputeCrossSegment(t *testing.T) {
	y := make([]float64, 12)
	for i := range y {
		y[i] = 200
	}
	history, err := timedataset.NewUnivariateDataset(
		timedataset.GenerateMonths(month(2023, time.January), len(y)), y,
	)
	require.Nil(t, err)

	projected := []forecast.Point{
		{T: month(2024, time.January), Forecast: 220, Lower: 210, Upper: 230},
		{T: month(2024, time.February), Forecast: 180, Lower: 170, Upper: 190},
	}

	res := Compute(history, projected, DefaultLag)
	require.Len(t, res, 14)

	assert.Equal(t, SegmentForecast, res[12].Segment)
	assert.Equal(t, 220.0, res[12].Value)
	require.True(t, res[12].Defined())
	assert.InDelta(t, 10.0, *res[12].Pct, 1e-9)
	require.True(t, res[13].Defined())
	assert.InDelta(t, -10.0, *res[13].Pct, 1e-9)
}

func TestComputeQuarterlyCadence(t *testing.T) {
	tSeries := []time.Time{
		month(2023, time.January), month(2023, time.April), month(2023, time.July),
	}
	history, err := timedataset.NewUnivariateDataset(tSeries, []float64{100, 120, 90})
	require.Nil(t, err)

	res := Compute(history, nil, 1)
	assertPcts(t, []*float64{nil, ptr(20), ptr(-25)}, res)
}

func TestComputeGapIsUndefined(t *testing.T) {
	tSeries := []time.Time{
		month(2023, time.January), month(2023, time.February), month(2023, time.April), month(2023, time.May),
	}
	history, err := timedataset.NewUnivariateDataset(tSeries, []float64{100, 110, 120, 132})
	require.Nil(t, err)

	res := Compute(history, nil, 1)
	assertPcts(t, []*float64{nil, ptr(10), nil, ptr(10)}, res)
}

func TestComputeEmpty(t *testing.T) {
	assert.Nil(t, Compute(nil, nil, DefaultLag))
	assert.Len(t, Pcts(nil), 0)
}
