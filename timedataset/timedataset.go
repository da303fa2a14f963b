package timedataset

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrNoTrainingData     = errors.New("no training data")
	ErrNonMontonic        = errors.New("time feature is not monotonic")
	ErrDatasetLenMismatch = errors.New("time feature has a different length than observations")
	ErrCannotInferFreq    = errors.New("cannot infer month cadence from fewer than 2 points")
	ErrOutOfRange         = errors.New("slice bounds out of range")
)

// TimeDataset represents a monthly series storing a slice of months and values.
// Both must be of the same length. Every month is stored as the first instant of the
// month in UTC.
type TimeDataset struct {
	T []time.Time
	Y []float64
}

// NewUnivariateDataset returns an instance of a TimeDataset given a time and value slice.
// Times are normalized to the start of their month and must be strictly increasing
// after normalization.
func NewUnivariateDataset(t []time.Time, y []float64) (*TimeDataset, error) {
	if len(y) == 0 {
		return nil, ErrNoTrainingData
	}
	if len(t) != len(y) {
		return nil, fmt.Errorf(
			"time feature has length of %d, but values has a length of %d, %w",
			len(t), len(y), ErrDatasetLenMismatch,
		)
	}

	tSeries := make([]time.Time, len(t))
	ySeries := make([]float64, len(t))
	for i := 0; i < len(t); i++ {
		tSeries[i] = MonthStart(t[i])
		if i > 0 && !tSeries[i].After(tSeries[i-1]) {
			return nil, fmt.Errorf("non-monotonic at %d, %w", i, ErrNonMontonic)
		}
	}
	copy(ySeries, y)

	return &TimeDataset{
		T: tSeries,
		Y: ySeries,
	}, nil
}

// Copy returns a deep copy of the dataset
func (td *TimeDataset) Copy() *TimeDataset {
	tSeries := make([]time.Time, len(td.T))
	ySeries := make([]float64, len(td.T))
	copy(tSeries, td.T)
	copy(ySeries, td.Y)
	return &TimeDataset{
		T: tSeries,
		Y: ySeries,
	}
}

// Len returns the number of observations
func (td *TimeDataset) Len() int {
	if td == nil {
		return 0
	}
	return len(td.T)
}

// Slice returns a copy of the observations in the half open range [start, end)
func (td *TimeDataset) Slice(start, end int) (*TimeDataset, error) {
	if start < 0 || end > td.Len() || start >= end {
		return nil, fmt.Errorf("range [%d, %d) of %d points, %w", start, end, td.Len(), ErrOutOfRange)
	}
	tSeries := make([]time.Time, end-start)
	ySeries := make([]float64, end-start)
	copy(tSeries, td.T[start:end])
	copy(ySeries, td.Y[start:end])
	return &TimeDataset{T: tSeries, Y: ySeries}, nil
}

// Precision returns the number of decimal places the values are naturally expressed in.
// Series of whole counts report 0, anything else reports 2.
func (td *TimeDataset) Precision() int {
	if td == nil {
		return 0
	}
	for _, v := range td.Y {
		if v != math.Trunc(v) {
			return 2
		}
	}
	return 0
}

// MonthStart truncates t to the first instant of its month in UTC
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthIndex returns a monotonically increasing integer for each calendar month
func MonthIndex(t time.Time) int {
	t = t.UTC()
	return t.Year()*12 + int(t.Month()) - 1
}

// FromMonthIndex is the inverse of MonthIndex
func FromMonthIndex(idx int) time.Time {
	year := idx / 12
	month := idx % 12
	if month < 0 {
		month += 12
		year--
	}
	return time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths shifts t by n calendar months keeping it at the start of the month
func AddMonths(t time.Time, n int) time.Time {
	return FromMonthIndex(MonthIndex(t) + n)
}
