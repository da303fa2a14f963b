package feature

import (
	"fmt"
	"strings"
	"time"

	"github.com/aouyang1/go-traffic-forecaster/timedataset"
)

const (
	TimeMonthIndex  = "month_index"
	TimeMonthOfYear = "month_of_year"
)

// Time is a numeric encoding of the timestamps that other features are derived from
type Time struct {
	Name string `json:"name"`
}

func NewTime(name string) *Time {
	return &Time{name}
}

func (t Time) String() string {
	return fmt.Sprintf("tfeat_%s", t.Name)
}

func (t Time) Get(label string) (string, bool) {
	switch strings.ToLower(label) {
	case "name":
		return t.Name, true
	}
	return "", false
}

func (t Time) Type() FeatureType {
	return FeatureTypeTime
}

func (t Time) Decode() map[string]string {
	res := make(map[string]string)
	res["name"] = t.Name
	return res
}

// Generate encodes each timestamp as either its absolute month index or its zero based
// month of year. Returns nil for an unknown encoding.
func (t Time) Generate(tSeries []time.Time) []float64 {
	res := make([]float64, len(tSeries))
	for i, tPnt := range tSeries {
		switch t.Name {
		case TimeMonthIndex:
			res[i] = float64(timedataset.MonthIndex(tPnt))
		case TimeMonthOfYear:
			res[i] = float64(tPnt.UTC().Month() - 1)
		default:
			return nil
		}
	}
	return res
}
