// Package options contains all forecast options for a linear fit of a monthly traffic series
package options

import (
	"errors"
	"fmt"
	"time"

	"github.com/aouyang1/go-traffic-forecaster/feature"
	"github.com/aouyang1/go-traffic-forecaster/linearmodel"
)

const (
	LabelSeasYearly = "yearly"

	// YearlyPeriod is the length of the yearly cycle in months
	YearlyPeriod = 12
)

var (
	ErrNegativeRegularization = errors.New("negative regularization")
	ErrNegativeIterations     = errors.New("negative iterations")
	ErrNegativeTolerance      = errors.New("negative tolerance")
	ErrUnknownGrowthType      = errors.New("unknown growth type")
	ErrNegativeOrders         = errors.New("negative seasonality orders")
	ErrNegativeMinCycles      = errors.New("negative minimum seasonal cycles")
	ErrInvalidChangepointSpan = errors.New("changepoint range must be within (0, 1]")
	ErrNegativeChangepoints   = errors.New("negative number of changepoints")
	ErrInvalidNoiseFraction   = errors.New("minimum noise fraction must be within [0, 1)")
	ErrInvalidOutlierOptions  = errors.New("invalid outlier options")
	ErrUnknownTimeFeature     = errors.New("unknown time feature")
)

// Options configures a forecast by specifying the trend shape, changepoints, seasonality
// orders and an optional regularization parameter where higher values removes more features
// that contribute the least to the fit. A regularization of 0 fits with ordinary least squares.
type Options struct {
	ChangepointOptions ChangepointOptions `json:"changepoint_options"`

	// Lasso related options
	Regularization float64 `json:"regularization"`
	Iterations     int     `json:"iterations"`
	Tolerance      float64 `json:"tolerance"`

	SeasonalityOptions SeasonalityOptions `json:"seasonality_options"`

	// TradingDays adds the number of US business days in each month as a regressor
	TradingDays bool `json:"trading_days"`

	GrowthType      string          `json:"growth_type"`
	OutlierOptions  OutlierOptions  `json:"outlier_options"`
	IntervalOptions IntervalOptions `json:"interval_options"`
}

// NewDefaultOptions returns a set of default forecast options
func NewDefaultOptions() *Options {
	return &Options{
		ChangepointOptions: NewDefaultChangepointOptions(),
		SeasonalityOptions: NewDefaultSeasonalityOptions(),
		GrowthType:         feature.GrowthLinear,
		OutlierOptions:     NewDefaultOutlierOptions(),
		IntervalOptions:    NewDefaultIntervalOptions(),
	}
}

// Validate checks the options for values the engine cannot fit with
func (o *Options) Validate() error {
	if o == nil {
		return nil
	}
	if o.Regularization < 0 {
		return ErrNegativeRegularization
	}
	if o.Iterations < 0 {
		return ErrNegativeIterations
	}
	if o.Tolerance < 0 {
		return ErrNegativeTolerance
	}
	switch o.GrowthType {
	case "", feature.GrowthLinear, feature.GrowthQuadratic:
	default:
		return fmt.Errorf("%q, %w", o.GrowthType, ErrUnknownGrowthType)
	}
	if err := o.SeasonalityOptions.Validate(); err != nil {
		return err
	}
	if err := o.ChangepointOptions.Validate(); err != nil {
		return err
	}
	if err := o.OutlierOptions.Validate(); err != nil {
		return err
	}
	return o.IntervalOptions.Validate()
}

// UseLasso reports whether the fit is regularized
func (o *Options) UseLasso() bool {
	return o != nil && o.Regularization > 0
}

// NewLassoOptions converts the forecast options into lasso options. The intercept is
// always modelled as an explicit growth feature.
func (o *Options) NewLassoOptions() *linearmodel.LassoOptions {
	lassoOpt := linearmodel.NewDefaultLassoOptions()
	lassoOpt.Lambda = o.Regularization

	lassoOpt.Iterations = o.Iterations
	if o.Iterations == 0 {
		lassoOpt.Iterations = linearmodel.DefaultIterations
	}

	lassoOpt.Tolerance = o.Tolerance
	if o.Tolerance == 0 {
		lassoOpt.Tolerance = linearmodel.DefaultTolerance
	}
	return lassoOpt
}

// NewOLSOptions converts the forecast options into ordinary least squares options
func (o *Options) NewOLSOptions() *linearmodel.OLSOptions {
	return &linearmodel.OLSOptions{FitIntercept: false}
}

// GenerateTimeFeatures encodes the months as month indices and month of year, and adds the
// growth features normalized to the training window
func (o *Options) GenerateTimeFeatures(t []time.Time, trainStart, trainEnd float64) *feature.Set {
	if o == nil {
		o = NewDefaultOptions()
	}

	tFeat := feature.NewSet()

	idxFeat := feature.NewTime(feature.TimeMonthIndex)
	monthIdx := idxFeat.Generate(t)
	tFeat.Set(idxFeat, monthIdx)

	moyFeat := feature.NewTime(feature.TimeMonthOfYear)
	tFeat.Set(moyFeat, moyFeat.Generate(t))

	tFeat.Update(o.GenerateGrowthFeatures(monthIdx, trainStart, trainEnd))
	return tFeat
}

// GenerateGrowthFeatures returns the intercept and the configured growth curve
func (o *Options) GenerateGrowthFeatures(monthIdx []float64, trainStart, trainEnd float64) *feature.Set {
	gFeat := feature.NewSet()

	interceptFeat := feature.Intercept()
	gFeat.Set(interceptFeat, interceptFeat.Generate(monthIdx, trainStart, trainEnd))

	if trainEnd <= trainStart {
		return gFeat
	}

	switch o.GrowthType {
	case "", feature.GrowthLinear:
		linearFeat := feature.Linear()
		gFeat.Set(linearFeat, linearFeat.Generate(monthIdx, trainStart, trainEnd))

	case feature.GrowthQuadratic:
		linearFeat := feature.Linear()
		gFeat.Set(linearFeat, linearFeat.Generate(monthIdx, trainStart, trainEnd))
		quadraticFeat := feature.Quadratic()
		gFeat.Set(quadraticFeat, quadraticFeat.Generate(monthIdx, trainStart, trainEnd))
	}
	return gFeat
}

// GenerateFourierFeatures returns the yearly sine and cosine features of the given orders
// evaluated on the month of year time feature
func GenerateFourierFeatures(tFeat *feature.Set, orders []int) (*feature.Set, error) {
	moy, exists := tFeat.Get(feature.NewTime(feature.TimeMonthOfYear))
	if !exists {
		return nil, fmt.Errorf("%q not present in time features, %w", feature.TimeMonthOfYear, ErrUnknownTimeFeature)
	}

	x := feature.NewSet()
	for _, order := range orders {
		sinFeat := feature.NewSeasonality(LabelSeasYearly, feature.FourierCompSin, order)
		cosFeat := feature.NewSeasonality(LabelSeasYearly, feature.FourierCompCos, order)
		x.Set(sinFeat, sinFeat.Generate(moy, YearlyPeriod))
		x.Set(cosFeat, cosFeat.Generate(moy, YearlyPeriod))
	}
	return x, nil
}

// GenerateCalendarFeatures returns the trading day regressor centered on center
func GenerateCalendarFeatures(t []time.Time, center float64) *feature.Set {
	cFeat := feature.NewSet()
	td := feature.TradingDays()
	cFeat.Set(td, td.Generate(t, center))
	return cFeat
}
