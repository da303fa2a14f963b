// Package feature describes the regressors of the additive traffic model and builds the
// design matrix they form.
package feature

type FeatureType int

const (
	FeatureTypeChangepoint FeatureType = iota
	FeatureTypeSeasonality
	FeatureTypeTime
	FeatureTypeGrowth
	FeatureTypeCalendar
)

func (f FeatureType) String() string {
	switch f {
	case FeatureTypeChangepoint:
		return "changepoint"
	case FeatureTypeSeasonality:
		return "seasonality"
	case FeatureTypeTime:
		return "time"
	case FeatureTypeGrowth:
		return "growth"
	case FeatureTypeCalendar:
		return "calendar"
	}
	return "unknown"
}

// IsTrend reports whether features of this type belong to the trend component
func (f FeatureType) IsTrend() bool {
	return f == FeatureTypeGrowth || f == FeatureTypeChangepoint
}

type Feature interface {
	String() string
	Get(string) (string, bool)
	Type() FeatureType
	Decode() map[string]string
}
