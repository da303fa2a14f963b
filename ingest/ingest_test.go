package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func month(year int, m time.Month) time.Time {
	return time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
}

func TestValidate(t *testing.T) {
	testData := map[string]struct {
		records    []Record
		opt        *Options
		expectedT  []time.Time
		expectedY  []float64
		dropped    []string
		duplicates int
		gaps       []time.Time
		err        error
	}{
		"empty input": {
			err: ErrNoValidData,
		},
		"all rows invalid": {
			records: []Record{{"hello", 1}, {"world", "x"}},
			dropped: []string{"invalid_date", "invalid_date"},
			err:     ErrNoValidData,
		},
		"single valid point": {
			records: []Record{{"Jan-23", 100}},
			err:     ErrInsufficientData,
		},
		"single valid point after drops": {
			records: []Record{{"Jan-23", 100}, {"Feb-23", "abc"}},
			err:     ErrInsufficientData,
		},
		"non numeric value dropped": {
			records: []Record{
				{"Jan-23", 100},
				{"Feb-23", "abc"},
				{"Mar-23", "120"},
				{"Apr-23", 130.0},
			},
			expectedT: []time.Time{month(2023, 1), month(2023, 3), month(2023, 4)},
			expectedY: []float64{100, 120, 130},
			dropped:   []string{"invalid_value"},
			gaps:      []time.Time{month(2023, 2)},
		},
		"zero and blank are missing": {
			records: []Record{
				{"Jan-23", 100},
				{"Feb-23", 0},
				{"Mar-23", ""},
				{"Apr-23", nil},
				{"", ""},
				{"May-23", " 1,250 "},
			},
			expectedT: []time.Time{month(2023, 1), month(2023, 5)},
			expectedY: []float64{100, 1250},
			dropped:   []string{"missing_value", "missing_value", "missing_value", "missing_value"},
		},
		"keep zeros": {
			records: []Record{
				{"Jan-23", 100},
				{"Feb-23", "0"},
			},
			opt:       &Options{KeepZeros: true},
			expectedT: []time.Time{month(2023, 1), month(2023, 2)},
			expectedY: []float64{100, 0},
		},
		"unsorted with duplicates keeps last": {
			records: []Record{
				{"2023-03", 3},
				{"2023-01", 1},
				{"2023-02-15", 2},
				{"Jan 2023", 10},
			},
			expectedT:  []time.Time{month(2023, 1), month(2023, 2), month(2023, 3)},
			expectedY:  []float64{10, 2, 3},
			duplicates: 1,
		},
		"nan and inf rejected": {
			records: []Record{
				{"Jan-23", "NaN"},
				{"Feb-23", "+Inf"},
				{"Mar-23", 1},
				{"Apr-23", 2},
			},
			expectedT: []time.Time{month(2023, 3), month(2023, 4)},
			expectedY: []float64{1, 2},
			dropped:   []string{"invalid_value", "invalid_value"},
		},
		"custom layout": {
			records: []Record{
				{"23.01", 1},
				{"23.02", 2},
			},
			opt:       &Options{Layouts: []string{"06.01"}},
			expectedT: []time.Time{month(2023, 1), month(2023, 2)},
			expectedY: []float64{1, 2},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := Validate(td.records, td.opt)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				assert.Nil(t, res)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expectedT, res.Dataset.T)
			assert.Equal(t, td.expectedY, res.Dataset.Y)
			assert.Equal(t, td.duplicates, res.Duplicates)
			assert.Equal(t, td.gaps, res.Gaps)

			reasons := make([]string, 0, len(res.Dropped))
			for _, d := range res.Dropped {
				reasons = append(reasons, d.Reason())
			}
			if len(td.dropped) == 0 {
				assert.Empty(t, reasons)
			} else {
				assert.Equal(t, td.dropped, reasons)
			}
		})
	}
}

func TestValidateDoesNotMutateInput(t *testing.T) {
	records := []Record{{"Feb-23", 2}, {"Jan-23", 1}}
	_, err := Validate(records, nil)
	require.Nil(t, err)
	assert.Equal(t, []Record{{"Feb-23", 2}, {"Jan-23", 1}}, records)
}

func TestResultPrecision(t *testing.T) {
	res, err := Validate([]Record{{"Jan-23", 1}, {"Feb-23", 2}}, nil)
	require.Nil(t, err)
	assert.Equal(t, 0, res.Precision())
	assert.Equal(t, 1, res.Cadence)

	res, err = Validate([]Record{{"Jan-23", 1.5}, {"Feb-23", 2}}, nil)
	require.Nil(t, err)
	assert.Equal(t, 2, res.Precision())
}
