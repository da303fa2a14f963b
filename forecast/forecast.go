// Package forecast fits an additive trend and yearly seasonality model to a monthly series
// and projects it forward with prediction intervals
package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aouyang1/go-traffic-forecaster/feature"
	"github.com/aouyang1/go-traffic-forecaster/forecast/options"
	"github.com/aouyang1/go-traffic-forecaster/linearmodel"
	"github.com/aouyang1/go-traffic-forecaster/stats"
	"github.com/aouyang1/go-traffic-forecaster/timedataset"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrUninitializedForecast    = errors.New("uninitialized forecast")
	ErrInsufficientTrainingData = errors.New("insufficient training data after removing NaNs")
	ErrUntrainedForecast        = errors.New("forecast has not been trained yet")
	ErrModelFitFailure          = errors.New("unable to fit model")
	ErrInvalidConfidence        = errors.New("confidence level must be within (0, 1)")
	ErrInvalidHorizon           = errors.New("horizon must be at least one period")
	ErrNoModelCoefficients      = errors.New("no model coefficients from fit")
)

// MinTrainingPoints is the fewest observations a model can be fit on
const MinTrainingPoints = 2

// columns whose training values never exceed this are unobservable and not fit
const zeroColumnTolerance = 1e-9

// Forecast represents a single forecast model of a monthly series. This is a linear model
// fit with ordinary least squares or lasso coordinate descent. The series is decomposed
// into a trend (intercept, growth and changepoint slopes), yearly Fourier seasonality and
// an optional trading day regressor.
type Forecast struct {
	opt *options.Options
	log zerolog.Logger

	// training window as month indices
	trainStart float64
	trainEnd   float64
	lastT      time.Time
	cadence    int
	nObs       int

	// resolved feature plan
	growthType        string
	orders            []int
	changepoints      []options.Changepoint
	tradingDays       bool
	tradingDaysCenter float64
	degraded          string

	labels   []feature.Feature
	coef     []float64
	levModel *linearmodel.OLSRegression
	sigma    float64
	df       int

	trainT          []time.Time
	trainY          []float64
	residual        []float64
	outliers        []time.Time
	trainComponents Components
	scores          *Scores

	trained bool
}

// New creates a new forecast instance with the given options. If none are provided, a default
// is used
func New(opt *options.Options) (*Forecast, error) {
	if opt == nil {
		opt = options.NewDefaultOptions()
	}
	if err := opt.Validate(); err != nil {
		return nil, fmt.Errorf("unable to validate forecast options, %w", err)
	}

	return &Forecast{opt: opt, log: zerolog.Nop()}, nil
}

// SetLogger replaces the logger used to report fit adjustments
func (f *Forecast) SetLogger(log zerolog.Logger) {
	if f == nil {
		return
	}
	f.log = log.With().Str("module", "forecast").Logger()
}

// Fit takes the input training data and fits a forecast model for the trend, seasonal
// components and calendar effects. NaN values are excluded from the fit.
func (f *Forecast) Fit(t []time.Time, y []float64) error {
	if f == nil {
		return ErrUninitializedForecast
	}

	trainingData, err := timedataset.NewUnivariateDataset(t, y)
	if err != nil {
		return fmt.Errorf("unable to build training data, %w", err)
	}
	f.trained = false
	f.outliers = nil

	trainY := make([]float64, len(trainingData.Y))
	copy(trainY, trainingData.Y)

	// iterate to remove outliers
	outlierOpt := f.opt.OutlierOptions
	for i := 0; i <= outlierOpt.NumPasses; i++ {
		if err := f.fit(trainingData.T, trainY); err != nil {
			return err
		}
		if i == outlierOpt.NumPasses {
			break
		}

		outlierIdxs := stats.DetectOutliers(
			f.residual,
			outlierOpt.LowerPercentile,
			outlierOpt.UpperPercentile,
			outlierOpt.TukeyFactor,
		)

		// residuals within the noise floor are never outliers
		floor := f.noiseFloor(trainY)
		flagged := outlierIdxs[:0]
		for _, idx := range outlierIdxs {
			if math.Abs(f.residual[idx]) > floor {
				flagged = append(flagged, idx)
			}
		}

		// no more outliers detected with outlier options so break early
		if len(flagged) == 0 {
			break
		}
		if countFinite(trainY)-len(flagged) < MinTrainingPoints {
			f.log.Warn().Int("outliers", len(flagged)).Msg("too few points remain after outlier removal, keeping outliers")
			break
		}
		for _, idx := range flagged {
			trainY[idx] = math.NaN()
			f.outliers = append(f.outliers, trainingData.T[idx])
		}
		f.log.Debug().Int("pass", i).Int("outliers", len(flagged)).Msg("removed residual outliers")
	}

	// in-sample fit over every training month including excluded outliers
	predicted, comp, _, err := f.inference(trainingData.T)
	if err != nil {
		return err
	}
	f.trainComponents = comp
	f.trainT = trainingData.T
	f.trainY = trainingData.Y
	f.lastT = trainingData.T[len(trainingData.T)-1]

	scores, err := NewScores(predicted, trainingData.Y)
	if err != nil {
		return err
	}
	f.scores = scores

	residual := make([]float64, len(trainingData.T))
	floats.SubTo(residual, trainingData.Y, predicted)
	f.residual = residual

	return nil
}

// fit runs a single fit on the non NaN observations, reducing the seasonality orders when
// the design matrix turns out rank deficient
func (f *Forecast) fit(t []time.Time, y []float64) error {
	trainingT := make([]time.Time, 0, len(t))
	trainingY := make([]float64, 0, len(y))

	// drop out nans
	for i := 0; i < len(t); i++ {
		if math.IsNaN(y[i]) {
			continue
		}
		trainingT = append(trainingT, t[i])
		trainingY = append(trainingY, y[i])
	}

	if len(trainingT) < MinTrainingPoints {
		return fmt.Errorf("%d points available, %w", len(trainingT), ErrInsufficientTrainingData)
	}

	cadence, err := timedataset.TimeSlice(trainingT).EstimateMonths()
	if err != nil {
		return fmt.Errorf("unable to estimate cadence, %w", ErrInsufficientTrainingData)
	}
	f.cadence = cadence
	f.trainStart = float64(timedataset.MonthIndex(trainingT[0]))
	f.trainEnd = float64(timedataset.MonthIndex(trainingT[len(trainingT)-1]))
	f.nObs = len(trainingT)
	f.lastT = t[len(t)-1]

	f.planFeatures(trainingT)

	for {
		err := f.fitPlan(trainingT, trainingY)
		if err == nil {
			break
		}
		if !errors.Is(err, linearmodel.ErrSingularMatrix) || len(f.orders) == 0 {
			return err
		}
		f.orders = f.orders[:len(f.orders)-1]
		if len(f.orders) == 0 {
			f.degraded = "yearly seasonality is not identifiable from the observed months"
		}
		f.log.Warn().Int("orders", len(f.orders)).Msg("design matrix rank deficient, reducing seasonality orders")
	}

	f.trained = true
	residual, err := f.residuals(t, y)
	if err != nil {
		return err
	}
	f.residual = residual
	return nil
}

// planFeatures decides which features the training window supports
func (f *Forecast) planFeatures(t []time.Time) {
	n := len(t)
	f.degraded = ""

	f.growthType = f.opt.GrowthType
	if f.growthType == "" {
		f.growthType = feature.GrowthLinear
	}
	numGrowth := 2
	if f.growthType == feature.GrowthQuadratic {
		numGrowth = 3
	}
	if numGrowth > n {
		f.log.Warn().Int("points", n).Msg("too few points for quadratic growth, using linear growth")
		f.growthType = feature.GrowthLinear
		numGrowth = 2
	}
	p := numGrowth

	seasOpt := f.opt.SeasonalityOptions
	f.orders = nil
	if seasOpt.Orders > 0 {
		months := int(f.trainEnd-f.trainStart) + 1
		orders := seasOpt.FourierOrders(f.cadence)
		switch {
		case months < seasOpt.MinHistory():
			f.degraded = fmt.Sprintf("%d months of history, %d required for yearly seasonality", months, seasOpt.MinHistory())
			orders = nil
		case len(orders) == 0:
			f.degraded = fmt.Sprintf("cadence of %d months cannot resolve yearly seasonality", f.cadence)
			orders = nil
		default:
			for len(orders) > 0 && p+2*len(orders) >= n {
				orders = orders[:len(orders)-1]
			}
			if len(orders) == 0 {
				f.degraded = fmt.Sprintf("%d observations are too few for yearly seasonality", n)
			} else if len(orders) < seasOpt.Orders {
				f.log.Warn().Int("orders", len(orders)).Int("requested", seasOpt.Orders).Msg("reduced yearly seasonality orders")
			}
		}
		f.orders = orders
	}
	p += 2 * len(f.orders)

	f.tradingDays = false
	if f.opt.TradingDays {
		if p+1 < n {
			f.tradingDays = true
			p++

			days := feature.TradingDays().Generate(t, 0)
			f.tradingDaysCenter = floats.Sum(days) / float64(len(days))
		} else {
			f.log.Warn().Int("points", n).Msg("too few points for the trading day regressor")
		}
	}

	chpts := f.opt.ChangepointOptions.Resolve(t)
	if room := n - 1 - p; len(chpts) > room {
		room = max(room, 0)
		f.log.Warn().Int("changepoints", len(chpts)).Int("kept", room).Msg("too few points for all changepoints")
		chpts = chpts[:room]
	}
	f.changepoints = chpts
}

func (f *Forecast) fitPlan(t []time.Time, y []float64) error {
	x, err := f.generateFeatures(t)
	if err != nil {
		return err
	}
	x = pruneZeroColumns(x)
	f.labels = x.Labels()
	n := len(y)
	p := len(f.labels)

	scale := 0.0
	for _, v := range y {
		scale = math.Max(scale, math.Abs(v))
	}
	if scale == 0 {
		scale = 1.0
	}
	yScaled := make([]float64, n)
	floats.ScaleTo(yScaled, 1.0/scale, y)

	features := x.Matrix()
	observations := mat.NewDense(n, 1, yScaled)

	var model linearmodel.Model
	if f.opt.UseLasso() {
		model, err = linearmodel.NewLassoRegression(f.opt.NewLassoOptions())
	} else {
		model, err = linearmodel.NewOLSRegression(f.opt.NewOLSOptions())
	}
	if err != nil {
		return fmt.Errorf("%w, %w", ErrModelFitFailure, err)
	}
	if err := model.Fit(features, observations); err != nil {
		return fmt.Errorf("%w on %d features and %d points, %w", ErrModelFitFailure, p, n, err)
	}

	coef := model.Coef()
	floats.Scale(scale, coef)
	f.coef = coef

	f.levModel = nil
	if ols, ok := model.(*linearmodel.OLSRegression); ok {
		f.levModel = ols
	} else {
		// the lasso fit has no factorization so leverage comes from the same design solved
		// by least squares
		ols, err := linearmodel.NewOLSRegression(f.opt.NewOLSOptions())
		if err == nil {
			err = ols.Fit(features, observations)
		}
		if err != nil {
			f.log.Warn().Err(err).Msg("unable to compute leverage, intervals will ignore parameter uncertainty")
		} else {
			f.levModel = ols
		}
	}

	predicted := f.runInference(x)
	var ssr float64
	for i, v := range y {
		ssr += (v - predicted[i]) * (v - predicted[i])
	}
	f.df = n - p
	f.sigma = 0
	if f.df > 0 {
		f.sigma = math.Sqrt(ssr / float64(f.df))
	}
	f.sigma = math.Max(f.sigma, f.noiseFloor(y))
	return nil
}

// noiseFloor is the smallest residual standard error reported for the series
func (f *Forecast) noiseFloor(y []float64) float64 {
	var sum float64
	var cnt int
	for _, v := range y {
		if math.IsNaN(v) {
			continue
		}
		sum += math.Abs(v)
		cnt++
	}
	if cnt == 0 {
		return 0
	}
	return f.opt.IntervalOptions.MinNoiseFraction * sum / float64(cnt)
}

func (f *Forecast) generateFeatures(t []time.Time) (*feature.Set, error) {
	if f == nil {
		return nil, ErrUninitializedForecast
	}

	tFeat := f.growthOptions().GenerateTimeFeatures(t, f.trainStart, f.trainEnd)
	monthIdx, _ := tFeat.Get(feature.NewTime(feature.TimeMonthIndex))

	x := tFeat.Filter(func(feat feature.Feature) bool {
		return feat.Type() != feature.FeatureTypeTime
	})

	x.Update(options.GenerateChangepointFeatures(f.changepoints, monthIdx, f.trainStart, f.trainEnd))

	if len(f.orders) > 0 {
		seasFeat, err := options.GenerateFourierFeatures(tFeat, f.orders)
		if err != nil {
			return nil, fmt.Errorf("unable to generate seasonality features, %w", err)
		}
		x.Update(seasFeat)
	}

	if f.tradingDays {
		x.Update(options.GenerateCalendarFeatures(t, f.tradingDaysCenter))
	}
	return x, nil
}

// growthOptions returns the options with the growth type resolved by the feature plan
func (f *Forecast) growthOptions() *options.Options {
	opt := *f.opt
	opt.GrowthType = f.growthType
	return &opt
}

// pruneZeroColumns drops regressors that are zero for every observation since their
// coefficient cannot be estimated
func pruneZeroColumns(x *feature.Set) *feature.Set {
	return x.Filter(func(feat feature.Feature) bool {
		if feat.String() == feature.Intercept().String() {
			return true
		}
		data, _ := x.Get(feat)
		for _, v := range data {
			if math.Abs(v) > zeroColumnTolerance {
				return true
			}
		}
		return false
	})
}

// selectFeatures orders the features of x by labels, zero filling any missing ones
func selectFeatures(x *feature.Set, labels []feature.Feature) *feature.Set {
	res := feature.NewSet()
	for _, label := range labels {
		data, exists := x.Get(label)
		if !exists {
			data = make([]float64, x.Rows())
		}
		res.Set(label, data)
	}
	return res
}

func (f *Forecast) residuals(t []time.Time, y []float64) ([]float64, error) {
	predicted, _, _, err := f.inference(t)
	if err != nil {
		return nil, err
	}
	residual := make([]float64, len(y))
	floats.SubTo(residual, y, predicted)
	return residual, nil
}

// inference returns the point estimates, components and design matrix for t
func (f *Forecast) inference(t []time.Time) ([]float64, Components, *mat.Dense, error) {
	if f == nil {
		return nil, Components{}, nil, ErrUninitializedForecast
	}
	if !f.trained {
		return nil, Components{}, nil, ErrUntrainedForecast
	}
	if len(t) == 0 {
		return nil, Components{}, nil, nil
	}

	x, err := f.generateFeatures(t)
	if err != nil {
		return nil, Components{}, nil, err
	}
	x = selectFeatures(x, f.labels)

	trendFeatureSet := x.Filter(func(feat feature.Feature) bool {
		return feat.Type().IsTrend()
	})
	seasonalityFeatureSet := x.Filter(func(feat feature.Feature) bool {
		return feat.Type() == feature.FeatureTypeSeasonality
	})
	calendarFeatureSet := x.Filter(func(feat feature.Feature) bool {
		return feat.Type() == feature.FeatureTypeCalendar
	})

	comp := Components{
		Trend:       f.runInference(trendFeatureSet),
		Seasonality: f.runInference(seasonalityFeatureSet),
		Calendar:    f.runInference(calendarFeatureSet),
	}

	return f.runInference(x), comp, x.Matrix(), nil
}

// runInference computes the weighted sum of the features in x. Components absent from the
// model are all zero.
func (f *Forecast) runInference(x *feature.Set) []float64 {
	if f == nil {
		return nil
	}
	res := make([]float64, x.Rows())
	if x.Len() == 0 {
		return res
	}

	idx := make(map[string]int, len(f.labels))
	for i, label := range f.labels {
		idx[label.String()] = i
	}

	xLabels := x.Labels()
	xWeights := make([]float64, 0, len(xLabels))
	for _, xFeat := range xLabels {
		var w float64
		if wIdx, exists := idx[xFeat.String()]; exists {
			w = f.coef[wIdx]
		}
		xWeights = append(xWeights, w)
	}

	wMx := mat.NewVecDense(len(xWeights), xWeights)
	var resMx mat.VecDense
	resMx.MulVec(x.Matrix(), wMx)

	for i := range res {
		res[i] = resMx.AtVec(i)
	}
	return res
}

// Predict takes a slice of months and produces the point estimate and prediction interval
// at the given confidence for each month given a pre-trained model.
func (f *Forecast) Predict(t []time.Time, confidence float64) ([]Point, Components, error) {
	if f == nil {
		return nil, Components{}, ErrUninitializedForecast
	}
	if confidence <= 0 || confidence >= 1 || math.IsNaN(confidence) {
		return nil, Components{}, fmt.Errorf("got %v, %w", confidence, ErrInvalidConfidence)
	}

	yhat, comp, x, err := f.inference(t)
	if err != nil {
		return nil, Components{}, err
	}
	if len(yhat) == 0 {
		return nil, comp, nil
	}

	lev := make([]float64, len(yhat))
	if f.levModel != nil {
		l, err := f.levModel.Leverage(x)
		if err != nil {
			f.log.Warn().Err(err).Msg("unable to compute leverage, intervals will ignore parameter uncertainty")
		} else {
			lev = l
		}
	}

	q := quantile(confidence, f.df)
	points := make([]Point, len(yhat))
	for i, tPnt := range t {
		half := q * f.sigma * math.Sqrt(1+math.Max(lev[i], 0))
		points[i] = Point{
			T:        timedataset.MonthStart(tPnt),
			Forecast: yhat[i],
			Lower:    yhat[i] - half,
			Upper:    yhat[i] + half,
		}
	}
	return points, comp, nil
}

// FutureMonths returns the horizon months following the training data at its cadence
func (f *Forecast) FutureMonths(horizon int) ([]time.Time, error) {
	if f == nil {
		return nil, ErrUninitializedForecast
	}
	if !f.trained {
		return nil, ErrUntrainedForecast
	}
	if horizon < 1 {
		return nil, fmt.Errorf("got %d, %w", horizon, ErrInvalidHorizon)
	}
	return timedataset.TimeSlice{f.lastT}.Next(horizon, f.cadence), nil
}

// FitAndForecast fits the series and returns the in-sample fit along with horizon projected
// months at the given confidence
func (f *Forecast) FitAndForecast(td *timedataset.TimeDataset, horizon int, confidence float64) (*Result, error) {
	if f == nil {
		return nil, ErrUninitializedForecast
	}
	if horizon < 1 {
		return nil, fmt.Errorf("got %d, %w", horizon, ErrInvalidHorizon)
	}
	if confidence <= 0 || confidence >= 1 || math.IsNaN(confidence) {
		return nil, fmt.Errorf("got %v, %w", confidence, ErrInvalidConfidence)
	}
	if td.Len() < MinTrainingPoints {
		return nil, fmt.Errorf("%d points available, %w", td.Len(), ErrInsufficientTrainingData)
	}

	if err := f.Fit(td.T, td.Y); err != nil {
		return nil, fmt.Errorf("unable to fit series, %w", err)
	}

	fitted, _, err := f.Predict(td.T, confidence)
	if err != nil {
		return nil, fmt.Errorf("unable to predict training months, %w", err)
	}

	future, err := f.FutureMonths(horizon)
	if err != nil {
		return nil, err
	}
	projected, _, err := f.Predict(future, confidence)
	if err != nil {
		return nil, fmt.Errorf("unable to project forecast, %w", err)
	}

	model, err := f.Model()
	if err != nil {
		return nil, err
	}
	return &Result{
		Fitted:    fitted,
		Projected: projected,
		Model:     model,
	}, nil
}

// FitAndForecast fits a new forecast with the given options on the series and projects it
// horizon months ahead
func FitAndForecast(td *timedataset.TimeDataset, horizon int, confidence float64, opt *options.Options) (*Result, error) {
	f, err := New(opt)
	if err != nil {
		return nil, err
	}
	return f.FitAndForecast(td, horizon, confidence)
}

func countFinite(y []float64) int {
	var cnt int
	for _, v := range y {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			cnt++
		}
	}
	return cnt
}
