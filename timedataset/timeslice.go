package timedataset

import (
	"fmt"
	"math"
	"time"
)

type TimeSlice []time.Time

func (t TimeSlice) StartTime() time.Time {
	var startTime time.Time
	if len(t) < 1 {
		return startTime
	}
	return t[0]
}

func (t TimeSlice) EndTime() time.Time {
	var lastTime time.Time
	if len(t) < 1 {
		return lastTime
	}

	lastTime = t[len(t)-1]
	return lastTime
}

// EstimateMonths returns the most common number of months between consecutive
// points. Ties resolve to the smaller step.
func (t TimeSlice) EstimateMonths() (int, error) {
	if len(t) < 2 {
		return 0, ErrCannotInferFreq
	}

	frequencies := make(map[int]int)
	for i := 1; i < len(t); i++ {
		delta := MonthIndex(t[i]) - MonthIndex(t[i-1])
		if delta <= 0 {
			continue
		}
		frequencies[delta] += 1
	}
	if len(frequencies) == 0 {
		return 0, fmt.Errorf("no increasing months, %w", ErrCannotInferFreq)
	}

	var maxCnt int
	maxDelta := math.MaxInt

	for delta, cnt := range frequencies {
		if cnt > maxCnt || (cnt == maxCnt && delta < maxDelta) {
			maxCnt = cnt
			maxDelta = delta
		}
	}
	return maxDelta, nil
}

// Next returns n months following the last time at the given cadence in months
func (t TimeSlice) Next(n, cadence int) []time.Time {
	if len(t) == 0 || n <= 0 || cadence <= 0 {
		return nil
	}
	end := t.EndTime()
	res := make([]time.Time, 0, n)
	for i := 1; i <= n; i++ {
		res = append(res, AddMonths(end, i*cadence))
	}
	return res
}

// Gaps returns the months missing between consecutive points at the given cadence
func (t TimeSlice) Gaps(cadence int) []time.Time {
	if cadence <= 0 {
		return nil
	}
	var gaps []time.Time
	for i := 1; i < len(t); i++ {
		prev := MonthIndex(t[i-1])
		curr := MonthIndex(t[i])
		for m := prev + cadence; m < curr; m += cadence {
			gaps = append(gaps, FromMonthIndex(m))
		}
	}
	return gaps
}
