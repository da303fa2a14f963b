// Package ingest turns raw month label and value pairs into a validated monthly series.
// Rows that cannot be interpreted are dropped and reported rather than failing the batch.
package ingest

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aouyang1/go-traffic-forecaster/timedataset"
)

var (
	ErrInvalidDate      = errors.New("label does not match a recognized month format")
	ErrInvalidValue     = errors.New("value is not a finite number")
	ErrMissingValue     = errors.New("value is blank or a zero missing-data sentinel")
	ErrNoValidData      = errors.New("no valid rows")
	ErrInsufficientData = errors.New("at least 2 valid points are required")
)

// MinPoints is the fewest surviving points needed to establish a trend
const MinPoints = 2

// Record is one raw row as handed over by a caller. Value may be any Go numeric type,
// a numeric string, nil or an empty string.
type Record struct {
	Label string
	Value any
}

// DroppedRow describes a row that was removed during validation
type DroppedRow struct {
	Index int    `json:"index"`
	Label string `json:"label"`
	Err   error  `json:"-"`
}

// Reason returns a short stable name for the drop cause
func (d DroppedRow) Reason() string {
	switch {
	case errors.Is(d.Err, ErrInvalidDate):
		return "invalid_date"
	case errors.Is(d.Err, ErrInvalidValue):
		return "invalid_value"
	case errors.Is(d.Err, ErrMissingValue):
		return "missing_value"
	}
	return "unknown"
}

// Options configures validation
type Options struct {
	// KeepZeros treats a value of exactly zero as a genuine observation instead of the
	// missing-data sentinel.
	KeepZeros bool `json:"keep_zeros"`

	// Layouts are additional time layouts tried before the built in ones
	Layouts []string `json:"layouts"`
}

// NewDefaultOptions drops zero valued months and uses only the built in layouts
func NewDefaultOptions() *Options {
	return &Options{}
}

// Result is the validated series along with a report of what was removed
type Result struct {
	Dataset    *timedataset.TimeDataset `json:"-"`
	Dropped    []DroppedRow             `json:"dropped"`
	Duplicates int                      `json:"duplicates"`
	Gaps       []time.Time              `json:"gaps"`
	Cadence    int                      `json:"cadence_months"`
}

// Precision is the number of decimals the validated values are expressed in
func (r *Result) Precision() int {
	if r == nil {
		return 0
	}
	return r.Dataset.Precision()
}

type row struct {
	t time.Time
	y float64
}

// Validate parses, filters, de-duplicates and sorts the records. Duplicate months keep
// the last occurrence in load order.
func Validate(records []Record, opt *Options) (*Result, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}

	res := &Result{}
	rows := make([]row, 0, len(records))
	monthIdx := make(map[time.Time]int)

	for i, rec := range records {
		if isBlank(rec.Label) && isBlankValue(rec.Value) {
			res.Dropped = append(res.Dropped, DroppedRow{i, rec.Label, ErrMissingValue})
			continue
		}

		t, err := ParseMonth(rec.Label, opt.Layouts...)
		if err != nil {
			res.Dropped = append(res.Dropped, DroppedRow{i, rec.Label, err})
			continue
		}

		y, err := ParseValue(rec.Value)
		if err != nil {
			res.Dropped = append(res.Dropped, DroppedRow{i, rec.Label, err})
			continue
		}
		if y == 0 && !opt.KeepZeros {
			res.Dropped = append(res.Dropped, DroppedRow{
				i, rec.Label, fmt.Errorf("zero value, %w", ErrMissingValue),
			})
			continue
		}

		if idx, exists := monthIdx[t]; exists {
			rows[idx].y = y
			res.Duplicates++
			continue
		}
		monthIdx[t] = len(rows)
		rows = append(rows, row{t, y})
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("all %d rows dropped, %w", len(records), ErrNoValidData)
	}
	if len(rows) < MinPoints {
		return nil, fmt.Errorf("%d valid point(s) of %d rows, %w", len(rows), len(records), ErrInsufficientData)
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].t.Before(rows[j].t)
	})

	t := make([]time.Time, len(rows))
	y := make([]float64, len(rows))
	for i, r := range rows {
		t[i] = r.t
		y[i] = r.y
	}

	td, err := timedataset.NewUnivariateDataset(t, y)
	if err != nil {
		return nil, fmt.Errorf("unable to create validated dataset, %w", err)
	}
	res.Dataset = td

	cadence, err := timedataset.TimeSlice(td.T).EstimateMonths()
	if err != nil {
		return nil, fmt.Errorf("unable to estimate cadence, %w", err)
	}
	res.Cadence = cadence
	res.Gaps = timedataset.TimeSlice(td.T).Gaps(cadence)

	return res, nil
}
