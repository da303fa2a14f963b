// Package accuracy measures how closely a fitted series tracks the observed one
package accuracy

import (
	"errors"
	"fmt"
	"math"

	"github.com/aouyang1/go-traffic-forecaster/forecast"
	"github.com/aouyang1/go-traffic-forecaster/timedataset"
)

var (
	ErrLengthMismatch = errors.New("actual and predicted have different lengths")
	ErrNoObservations = errors.New("no observations to evaluate")
	ErrMisaligned     = errors.New("actual and predicted months are not aligned")
	ErrNonFinite      = errors.New("values must be finite")
)

// Metrics are the error measures between actual and predicted values. MAPE is a percent
// computed over the MAPECount pairs with a non-zero actual.
type Metrics struct {
	MAPE      float64 `json:"mape"`
	RMSE      float64 `json:"rmse"`
	MAE       float64 `json:"mae"`
	MSE       float64 `json:"mse"`
	R2        float64 `json:"r_squared"`
	N         int     `json:"n"`
	MAPECount int     `json:"mape_count"`
}

// Evaluate compares the observed series against the fitted points position by position.
// The months of each pair must match.
func Evaluate(actual *timedataset.TimeDataset, fitted []forecast.Point) (Metrics, error) {
	if actual.Len() != len(fitted) {
		return Metrics{}, fmt.Errorf("expected %d fitted points, but got %d, %w", actual.Len(), len(fitted), ErrLengthMismatch)
	}
	for i, p := range fitted {
		if !p.T.Equal(actual.T[i]) {
			return Metrics{}, fmt.Errorf(
				"position %d has actual %s and fitted %s, %w",
				i, actual.T[i].Format("2006-01"), p.T.Format("2006-01"), ErrMisaligned,
			)
		}
	}
	var y []float64
	if actual != nil {
		y = actual.Y
	}
	return Compute(y, forecast.Values(fitted))
}

// Compute returns the error metrics between the actual and predicted slices
func Compute(actual, predicted []float64) (Metrics, error) {
	if len(actual) != len(predicted) {
		return Metrics{}, fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrLengthMismatch)
	}
	if len(actual) == 0 {
		return Metrics{}, ErrNoObservations
	}

	if !finite(actual...) || !finite(predicted...) {
		return Metrics{}, ErrNonFinite
	}

	var sqErr, absErr, pctErr float64
	var pctCnt int
	for i := 0; i < len(actual); i++ {
		diff := actual[i] - predicted[i]
		sqErr += diff * diff
		absErr += math.Abs(diff)
		if actual[i] == 0 {
			continue
		}
		pctErr += math.Abs(diff / actual[i])
		pctCnt++
	}

	n := float64(len(actual))
	m := Metrics{
		RMSE:      math.Sqrt(sqErr / n),
		MAE:       absErr / n,
		MSE:       sqErr / n,
		N:         len(actual),
		MAPECount: pctCnt,
	}
	if pctCnt > 0 {
		m.MAPE = pctErr / float64(pctCnt) * 100.0
	}

	r2, err := forecast.RSquared(predicted, actual)
	if err != nil {
		return Metrics{}, fmt.Errorf("unable to compute r-squared, %w", err)
	}
	m.R2 = r2
	return m, nil
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
