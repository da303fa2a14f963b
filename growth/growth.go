// Package growth computes period over period percent change across a history and its
// projection
package growth

import (
	"time"

	"github.com/aouyang1/go-traffic-forecaster/forecast"
	"github.com/aouyang1/go-traffic-forecaster/timedataset"
)

// DefaultLag compares each month against the same month one year earlier at a monthly cadence
const DefaultLag = 12

// Segment names which part of the combined series a record belongs to
type Segment string

const (
	SegmentHistory  Segment = "history"
	SegmentForecast Segment = "forecast"
)

// Record is the growth of one month. A nil Pct means growth could not be computed because
// no prior value exists or the prior value is zero.
type Record struct {
	T       time.Time `json:"date"`
	Value   float64   `json:"value"`
	Segment Segment   `json:"segment"`
	Pct     *float64  `json:"growth_pct"`
}

// Defined reports whether growth could be computed for the month
func (r Record) Defined() bool {
	return r.Pct != nil
}

// Compute returns one record per history month followed by one per projected month. Each
// month is compared against the value lag steps earlier, where a step is the cadence of the
// history, looking across both segments. A non-positive lag uses DefaultLag.
func Compute(history *timedataset.TimeDataset, projected []forecast.Point, lag int) []Record {
	if lag <= 0 {
		lag = DefaultLag
	}

	n := history.Len() + len(projected)
	if n == 0 {
		return nil
	}

	records := make([]Record, 0, n)
	if history != nil {
		for i, t := range history.T {
			records = append(records, Record{T: t, Value: history.Y[i], Segment: SegmentHistory})
		}
	}
	for _, p := range projected {
		records = append(records, Record{T: p.T, Value: p.Forecast, Segment: SegmentForecast})
	}

	byMonth := make(map[int]float64, n)
	tSeries := make([]time.Time, 0, n)
	for _, r := range records {
		byMonth[timedataset.MonthIndex(r.T)] = r.Value
		tSeries = append(tSeries, r.T)
	}

	shift := lag * cadence(history, tSeries)
	for i, r := range records {
		prev, exists := byMonth[timedataset.MonthIndex(r.T)-shift]
		if !exists || prev == 0 {
			continue
		}
		pct := (r.Value - prev) / prev * 100.0
		records[i].Pct = &pct
	}
	return records
}

// cadence prefers the history's own step and falls back to the combined series
func cadence(history *timedataset.TimeDataset, combined []time.Time) int {
	if history.Len() >= 2 {
		if c, err := timedataset.TimeSlice(history.T).EstimateMonths(); err == nil {
			return c
		}
	}
	if c, err := timedataset.TimeSlice(combined).EstimateMonths(); err == nil {
		return c
	}
	return 1
}

// Pcts returns the growth values with undefined months as nil
func Pcts(records []Record) []*float64 {
	res := make([]*float64, len(records))
	for i, r := range records {
		res[i] = r.Pct
	}
	return res
}
