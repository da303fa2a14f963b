package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeatureString(t *testing.T) {
	testData := map[string]struct {
		feat     Feature
		expected string
		fType    FeatureType
	}{
		"growth":      {Linear(), "growth_linear", FeatureTypeGrowth},
		"changepoint": {NewChangepoint("auto_00", ChangepointCompSlope), "chpnt_auto_00_slope", FeatureTypeChangepoint},
		"seasonality": {NewSeasonality("yearly", FourierCompCos, 2), "seas_yearly_02_cos", FeatureTypeSeasonality},
		"time":        {NewTime(TimeMonthIndex), "tfeat_month_index", FeatureTypeTime},
		"calendar":    {TradingDays(), "cal_trading_days", FeatureTypeCalendar},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.expected, td.feat.String())
			assert.Equal(t, td.fType, td.feat.Type())
			assert.Equal(t, name, td.feat.Type().String())
		})
	}
}

func TestFeatureGet(t *testing.T) {
	testData := map[string]struct {
		feat      Feature
		label     string
		expVal    string
		expExists bool
	}{
		"unknown": {
			feat:  Linear(),
			label: "unknown",
		},
		"capitalized": {
			feat:      Linear(),
			label:     "NAME",
			expVal:    "linear",
			expExists: true,
		},
		"changepoint component": {
			feat:      NewChangepoint("a", ChangepointCompSlope),
			label:     "changepoint_component",
			expVal:    "slope",
			expExists: true,
		},
		"fourier component": {
			feat:      NewSeasonality("yearly", FourierCompSin, 3),
			label:     "fourier_component",
			expVal:    "sin",
			expExists: true,
		},
		"order": {
			feat:      NewSeasonality("yearly", FourierCompSin, 3),
			label:     "order",
			expVal:    "3",
			expExists: true,
		},
		"calendar name": {
			feat:      TradingDays(),
			label:     "name",
			expVal:    "trading_days",
			expExists: true,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			val, exists := td.feat.Get(td.label)
			assert.Equal(t, td.expExists, exists, "exists")
			assert.Equal(t, td.expVal, val, "value")
		})
	}
}

func TestFeatureDecode(t *testing.T) {
	assert.Equal(t,
		map[string]string{"name": "yearly", "fourier_component": "cos", "order": "2"},
		NewSeasonality("yearly", FourierCompCos, 2).Decode(),
	)
	assert.Equal(t,
		map[string]string{"name": "auto_01", "changepoint_component": "slope"},
		NewChangepoint("auto_01", ChangepointCompSlope).Decode(),
	)
	assert.Equal(t, map[string]string{"name": "quadratic"}, Quadratic().Decode())
}

func TestFeatureTypeIsTrend(t *testing.T) {
	assert.True(t, FeatureTypeGrowth.IsTrend())
	assert.True(t, FeatureTypeChangepoint.IsTrend())
	assert.False(t, FeatureTypeSeasonality.IsTrend())
	assert.False(t, FeatureTypeCalendar.IsTrend())
}
