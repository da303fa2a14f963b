package timedataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateMonths(t *testing.T) {
	numPnts := 14
	res := GenerateMonths(time.Date(2023, 11, 17, 0, 0, 0, 0, time.UTC), numPnts)
	assert.Len(t, res, numPnts)

	assert.Equal(t, time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC), res[0])
	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), res[numPnts-1])
}

func TestSeries(t *testing.T) {
	numPnts := 6
	s := GenerateConstY(numPnts, 1)

	res := s.Add(GenerateConstY(numPnts, 2))
	require.Equal(t, Series{3, 3, 3, 3, 3, 3}, res)

	s.Add(GenerateLinearY(numPnts, 10))
	assert.Equal(t, Series{3, 13, 23, 33, 43, 53}, s)

	tSeries := GenerateMonths(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), numPnts)
	s.SetConst(tSeries, 0.0, tSeries[2], tSeries[4])
	assert.Equal(t, Series{3, 13, 0, 0, 43, 53}, s)
}

func TestGenerateWaveY(t *testing.T) {
	tSeries := GenerateMonths(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 24)
	y := GenerateWaveY(tSeries, 5.0, 1.0, 0.0)
	for i := 0; i < 12; i++ {
		assert.InDelta(t, y[i], y[i+12], 1e-9, "yearly period")
	}
	assert.InDelta(t, 5.0, y[3], 1e-9)
}

func TestGenerateNoise(t *testing.T) {
	a := GenerateNoise(10, 2.0, 42)
	b := GenerateNoise(10, 2.0, 42)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, GenerateNoise(10, 2.0, 7))
}

func TestGenerateChange(t *testing.T) {
	tSeries := GenerateMonths(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 5)
	y := GenerateChange(tSeries, tSeries[2], 10.0, 1.0)
	assert.Equal(t, Series{0, 0, 10, 11, 12}, y)
}
