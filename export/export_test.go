package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/aouyang1/go-traffic-forecaster/accuracy"
	"github.com/aouyang1/go-traffic-forecaster/anomaly"
	"github.com/aouyang1/go-traffic-forecaster/forecast"
	"github.com/aouyang1/go-traffic-forecaster/growth"
	"github.com/aouyang1/go-traffic-forecaster/ingest"
	"github.com/aouyang1/go-traffic-forecaster/timedataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func month(year int, m time.Month) time.Time {
	return time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
}

func TestWriteSeries(t *testing.T) {
	td, err := timedataset.NewUnivariateDataset(
		timedataset.GenerateMonths(month(2023, time.January), 2), []float64{1200, 1350.5},
	)
	require.Nil(t, err)

	var buf bytes.Buffer
	require.Nil(t, WriteSeries(&buf, td, 2))
	assert.Equal(t, "date,value\n2023-01-01,1200.00\n2023-02-01,1350.50\n", buf.String())
}

func TestWriteForecast(t *testing.T) {
	points := []forecast.Point{
		{T: month(2024, time.January), Forecast: 220.4, Lower: 210.1, Upper: 230.7},
	}

	testData := map[string]struct {
		precision int
		expected  string
	}{
		"whole": {
			precision: 0,
			expected:  "date,point_estimate,lower_bound,upper_bound\n2024-01-01,220,210,231\n",
		},
		"shortest": {
			precision: -1,
			expected:  "date,point_estimate,lower_bound,upper_bound\n2024-01-01,220.4,210.1,230.7\n",
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.Nil(t, WriteForecast(&buf, points, td.precision))
			assert.Equal(t, td.expected, buf.String())
		})
	}
}

func TestWriteAnomalies(t *testing.T) {
	records := []anomaly.Record{
		{T: month(2023, time.October), Value: 400, Score: 3.17543},
	}
	var buf bytes.Buffer
	require.Nil(t, WriteAnomalies(&buf, records, 0))
	assert.Equal(t, "date,value,deviation_score\n2023-10-01,400,3.1754\n", buf.String())

	buf.Reset()
	require.Nil(t, WriteAnomalies(&buf, nil, 0))
	assert.Equal(t, "date,value,deviation_score\n", buf.String())
}

func TestWriteAccuracy(t *testing.T) {
	var buf bytes.Buffer
	require.Nil(t, WriteAccuracy(&buf, accuracy.Metrics{MAPE: 10, RMSE: 15.811388, MAE: 15}))
	assert.Equal(t, "mape,rmse,mae\n10.0000,15.8114,15.0000\n", buf.String())
}

func TestWriteGrowth(t *testing.T) {
	pct := 12.346
	zero := 0.0
	records := []growth.Record{
		{T: month(2023, time.January), Value: 100, Segment: growth.SegmentHistory},
		{T: month(2024, time.January), Value: 112.346, Segment: growth.SegmentForecast, Pct: &pct},
		{T: month(2024, time.February), Value: 100, Segment: growth.SegmentForecast, Pct: &zero},
	}

	var buf bytes.Buffer
	require.Nil(t, WriteGrowth(&buf, records))
	expected := "date,segment,growth_pct\n" +
		"2023-01-01,history,n/a\n" +
		"2024-01-01,forecast,12.35\n" +
		"2024-02-01,forecast,0.00\n"
	assert.Equal(t, expected, buf.String())
}

func TestForecastRoundTrip(t *testing.T) {
	points := []forecast.Point{
		{T: month(2024, time.January), Forecast: 220.123456789, Lower: 200.5, Upper: 239.75},
		{T: month(2024, time.February), Forecast: 230, Lower: 209.25, Upper: 250.875},
	}

	var buf bytes.Buffer
	require.Nil(t, WriteForecast(&buf, points, -1))

	res, err := ReadForecast(&buf)
	require.Nil(t, err)
	assert.Equal(t, points, res)
}

func TestReadForecastErrors(t *testing.T) {
	testData := map[string]struct {
		input string
		err   error
	}{
		"empty": {
			input: "",
			err:   ErrEmptyTable,
		},
		"wrong header": {
			input: "ds,yhat,yhat_lower,yhat_upper\n",
			err:   ErrUnexpectedHeader,
		},
		"bad date": {
			input: "date,point_estimate,lower_bound,upper_bound\nJan-24,1,0,2\n",
			err:   ErrInvalidRow,
		},
		"bad value": {
			input: "date,point_estimate,lower_bound,upper_bound\n2024-01-01,abc,0,2\n",
			err:   ErrInvalidRow,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := ReadForecast(strings.NewReader(td.input))
			assert.ErrorIs(t, err, td.err)
		})
	}
}

func TestReadForecastBOM(t *testing.T) {
	input := "\ufeffdate,point_estimate,lower_bound,upper_bound\n2024-01-01,1,0,2\n"
	res, err := ReadForecast(strings.NewReader(input))
	require.Nil(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, month(2024, time.January), res[0].T)
}

func TestReadRecords(t *testing.T) {
	testData := map[string]struct {
		input    string
		expected []ingest.Record
		err      error
	}{
		"two columns": {
			input: "Month,Sessions\nJan-23,\"1,200\"\nFeb-23,1350\n",
			expected: []ingest.Record{
				{Label: "Jan-23", Value: "1,200"},
				{Label: "Feb-23", Value: "1350"},
			},
		},
		"extra columns ignored": {
			input: "date,visits,notes\n2023-01,100,launch\n2023-02,110,\n",
			expected: []ingest.Record{
				{Label: "2023-01", Value: "100"},
				{Label: "2023-02", Value: "110"},
			},
		},
		"missing value column": {
			input: "date,visits\n2023-01,100\n2023-02\n",
			expected: []ingest.Record{
				{Label: "2023-01", Value: "100"},
				{Label: "2023-02", Value: ""},
			},
		},
		"header only": {
			input:    "date,visits\n",
			expected: nil,
		},
		"empty": {
			input: "",
			err:   ErrEmptyTable,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := ReadRecords(strings.NewReader(td.input))
			if td.err != nil {
				require.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, res)
		})
	}
}

func TestParseTable(t *testing.T) {
	for _, table := range Tables {
		res, ok := ParseTable(string(table))
		assert.True(t, ok)
		assert.Equal(t, table, res)
	}
	_, ok := ParseTable("model")
	assert.False(t, ok)
}
