package forecast

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/aouyang1/go-traffic-forecaster/feature"
	"github.com/aouyang1/go-traffic-forecaster/forecast/options"
	"github.com/aouyang1/go-traffic-forecaster/forecast/util"
	"github.com/goccy/go-json"
)

// Model is a read-only snapshot of a trained forecast. It can only be obtained from a fit.
type Model struct {
	opt          options.Options
	trainStart   time.Time
	trainEnd     time.Time
	cadence      int
	orders       []int
	changepoints []options.Changepoint
	tradingDays  bool
	degraded     string

	labels []feature.Feature
	coef   []float64
	scores Scores
	sigma  float64
	df     int

	trend       []float64
	seasonality []float64
	residual    []float64
	outliers    []time.Time
}

// Model returns a snapshot of the trained forecast
func (f *Forecast) Model() (*Model, error) {
	if f == nil {
		return nil, ErrUninitializedForecast
	}
	if !f.trained {
		return nil, ErrUntrainedForecast
	}

	m := &Model{
		opt:          *f.opt,
		trainStart:   f.trainT[0],
		trainEnd:     f.trainT[len(f.trainT)-1],
		cadence:      f.cadence,
		orders:       append([]int(nil), f.orders...),
		changepoints: append([]options.Changepoint(nil), f.changepoints...),
		tradingDays:  f.tradingDays,
		degraded:     f.degraded,
		labels:       append([]feature.Feature(nil), f.labels...),
		coef:         append([]float64(nil), f.coef...),
		sigma:        f.sigma,
		df:           f.df,
		trend:        append([]float64(nil), f.trainComponents.Trend...),
		seasonality:  append([]float64(nil), f.trainComponents.Seasonality...),
		residual:     append([]float64(nil), f.residual...),
		outliers:     append([]time.Time(nil), f.outliers...),
	}
	if f.scores != nil {
		m.scores = *f.scores
	}
	return m, nil
}

// FeatureLabels returns the slice of feature labels in the order of the coefficients
func (m *Model) FeatureLabels() []feature.Feature {
	if m == nil {
		return nil
	}
	return append([]feature.Feature(nil), m.labels...)
}

// Coefficients returns a map of coefficients keyed by the string representation of each
// feature label. The intercept is included as the growth_intercept feature.
func (m *Model) Coefficients() (map[string]float64, error) {
	if m == nil || len(m.labels) == 0 || len(m.coef) == 0 {
		return nil, ErrNoModelCoefficients
	}
	coef := make(map[string]float64)
	for i := 0; i < len(m.coef); i++ {
		coef[m.labels[i].String()] = m.coef[i]
	}
	return coef, nil
}

// Intercept returns the level of the trend at the first training month
func (m *Model) Intercept() float64 {
	if m == nil {
		return 0
	}
	intercept := feature.Intercept().String()
	for i, label := range m.labels {
		if label.String() == intercept {
			return m.coef[i]
		}
	}
	return 0
}

// ModelEq returns a string representation of the model linear equation in the format of
// y ~ b + m1x1 + m2x2 + ...
func (m *Model) ModelEq() (string, error) {
	coef, err := m.Coefficients()
	if err != nil {
		return "", err
	}

	eq := "y ~ "
	eq += fmt.Sprintf("%.2f", m.Intercept())
	intercept := feature.Intercept().String()
	for _, label := range m.labels {
		if label.String() == intercept {
			continue
		}
		w := coef[label.String()]
		if w == 0 {
			continue
		}
		eq += fmt.Sprintf("+%.2f*%s", w, label)
	}
	return eq, nil
}

// Scores returns the fit scores for evaluating how well the resulting model
// fit the training data
func (m *Model) Scores() Scores {
	if m == nil {
		return Scores{}
	}
	return m.scores
}

// Residuals returns a slice of values representing the difference between the
// training data and the fit data
func (m *Model) Residuals() []float64 {
	if m == nil {
		return nil
	}
	return append([]float64(nil), m.residual...)
}

// TrendComponent represents the overall trend component of the model over the training
// months which is determined by the growth and changepoints.
func (m *Model) TrendComponent() []float64 {
	if m == nil {
		return nil
	}
	return append([]float64(nil), m.trend...)
}

// SeasonalityComponent represents the overall seasonal component of the model over the
// training months
func (m *Model) SeasonalityComponent() []float64 {
	if m == nil {
		return nil
	}
	return append([]float64(nil), m.seasonality...)
}

// SigmaResidual is the residual standard error used to size prediction intervals
func (m *Model) SigmaResidual() float64 {
	if m == nil {
		return 0
	}
	return m.sigma
}

// DegreesOfFreedom is the number of fit observations minus the number of features
func (m *Model) DegreesOfFreedom() int {
	if m == nil {
		return 0
	}
	return m.df
}

// Degraded reports whether the configured seasonality could not be fit and why
func (m *Model) Degraded() (bool, string) {
	if m == nil {
		return false, ""
	}
	return m.degraded != "", m.degraded
}

// Cadence is the number of months between consecutive training points
func (m *Model) Cadence() int {
	if m == nil {
		return 0
	}
	return m.cadence
}

// TrainEndTime is the last training month
func (m *Model) TrainEndTime() time.Time {
	if m == nil {
		return time.Time{}
	}
	return m.trainEnd
}

// Changepoints returns the changepoints the trend was fit with
func (m *Model) Changepoints() []options.Changepoint {
	if m == nil {
		return nil
	}
	return append([]options.Changepoint(nil), m.changepoints...)
}

// Outliers returns the months excluded from the fit by the outlier passes
func (m *Model) Outliers() []time.Time {
	if m == nil {
		return nil
	}
	return append([]time.Time(nil), m.outliers...)
}

// Summary is the serializable description of a model
type Summary struct {
	TrainStartTime   time.Time             `json:"train_start_time"`
	TrainEndTime     time.Time             `json:"train_end_time"`
	Cadence          int                   `json:"cadence_months"`
	Equation         string                `json:"equation"`
	Weights          []FeatureWeight       `json:"weights"`
	Scores           Scores                `json:"scores"`
	SigmaResidual    float64               `json:"sigma_residual"`
	DegreesOfFreedom int                   `json:"degrees_of_freedom"`
	SeasonalOrders   int                   `json:"seasonal_orders"`
	TradingDays      bool                  `json:"trading_days"`
	Changepoints     []options.Changepoint `json:"changepoints,omitempty"`
	Outliers         []time.Time           `json:"outliers,omitempty"`
	Degraded         string                `json:"degraded,omitempty"`
}

// Summary describes the model for reports
func (m *Model) Summary() Summary {
	if m == nil {
		return Summary{}
	}
	eq, _ := m.ModelEq()
	return Summary{
		TrainStartTime:   m.trainStart,
		TrainEndTime:     m.trainEnd,
		Cadence:          m.cadence,
		Equation:         eq,
		Weights:          m.weights(),
		Scores:           m.scores,
		SigmaResidual:    m.sigma,
		DegreesOfFreedom: m.df,
		SeasonalOrders:   len(m.orders),
		TradingDays:      m.tradingDays,
		Changepoints:     m.Changepoints(),
		Outliers:         m.Outliers(),
		Degraded:         m.degraded,
	}
}

func (m *Model) weights() []FeatureWeight {
	fws := make([]FeatureWeight, 0, len(m.coef))
	for i, c := range m.coef {
		fws = append(fws, NewFeatureWeight(m.labels[i], c))
	}
	return fws
}

func (m *Model) TablePrint(w io.Writer, prefix, indent string) error {
	if m == nil {
		return ErrUntrainedForecast
	}
	if _, err := fmt.Fprintf(w, "%s%sForecast:\n", prefix, util.IndentExpand(indent, 0)); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "%s%sTraining Window: %s to %s every %d month(s)\n",
		prefix, util.IndentExpand(indent, 1),
		m.trainStart.Format("2006-01"), m.trainEnd.Format("2006-01"), m.cadence); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "%s%sRegularization: %.3f\n", prefix, util.IndentExpand(indent, 1), m.opt.Regularization); err != nil {
		return err
	}

	seasOpt := m.opt.SeasonalityOptions
	seasOpt.Orders = len(m.orders)
	if err := seasOpt.TablePrint(w, prefix, indent, 1); err != nil {
		return err
	}

	if err := options.TablePrintChangepoints(w, prefix, indent, 1, m.changepoints); err != nil {
		return err
	}

	tradingDays := "None"
	if m.tradingDays {
		tradingDays = "US business days"
	}
	if _, err := fmt.Fprintf(w, "%s%sTrading Days: %s\n", prefix, util.IndentExpand(indent, 1), tradingDays); err != nil {
		return err
	}

	if m.degraded != "" {
		if _, err := fmt.Fprintf(w, "%s%sDegraded: %s\n", prefix, util.IndentExpand(indent, 1), m.degraded); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "%s%sScores:\n", prefix, util.IndentExpand(indent, 0)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sMAPE: %.3f    MSE: %.3f    R2: %.3f    Sigma: %.3f\n",
		prefix, util.IndentExpand(indent, 1),
		m.scores.MAPE,
		m.scores.MSE,
		m.scores.R2,
		m.sigma,
	); err != nil {
		return err
	}

	return tablePrintWeights(w, prefix, indent, 0, m.weights())
}

func tablePrintWeights(wr io.Writer, prefix, indent string, indentGrowth int, fws []FeatureWeight) error {
	if _, err := fmt.Fprintf(wr, "%s%sWeights:\n", prefix, util.IndentExpand(indent, indentGrowth)); err != nil {
		return err
	}
	tbl := tabwriter.NewWriter(wr, 0, 0, 1, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintf(tbl, "%s%sType\tLabels\tValue\t\n", prefix, util.IndentExpand(indent, indentGrowth+1)); err != nil {
		return err
	}
	for _, fw := range fws {
		labelOut, err := json.Marshal(fw.Labels)
		if err != nil {
			return err
		}
		val := fmt.Sprintf("%.3f", fw.Value)
		if fw.Value == 0 {
			val = "..."
		}
		if _, err := fmt.Fprintf(tbl, "%s%s%s\t%s\t%s\t\n",
			prefix, util.IndentExpand(indent, indentGrowth+1),
			fw.Type, string(labelOut), val); err != nil {
			return err
		}
	}
	return tbl.Flush()
}

// FeatureWeight represents a feature described with a type e.g. changepoint, labels and the value
type FeatureWeight struct {
	Labels map[string]string `json:"labels"`
	Type   string            `json:"type"`
	Value  float64           `json:"value"`
}

func NewFeatureWeight(f feature.Feature, val float64) FeatureWeight {
	return FeatureWeight{
		Labels: f.Decode(),
		Type:   f.Type().String(),
		Value:  val,
	}
}
