// Package linearmodel is a collection of linear regression fitting implementations used by
// the forecast engine
package linearmodel

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrNoOptions          = errors.New("no initialized model options")
	ErrTargetLenMismatch  = errors.New("target length does not match target rows")
	ErrNoTrainingMatrix   = errors.New("no training matrix")
	ErrNoTargetMatrix     = errors.New("no target matrix")
	ErrNoDesignMatrix     = errors.New("no design matrix for inference")
	ErrFeatureLenMismatch = errors.New("number of features does not match number of model coefficients")
	ErrSingularMatrix     = errors.New("design matrix is rank deficient")
	ErrUnderdetermined    = errors.New("fewer observations than features")
	ErrNotConverged       = errors.New("coordinate descent did not converge")
	ErrNonFinite          = errors.New("non-finite coefficient")
)

type Model interface {
	Fit(x, y mat.Matrix) error
	Predict(x mat.Matrix) ([]float64, error)
	Score(x, y mat.Matrix) (float64, error)
	Intercept() float64
	Coef() []float64
}

// withOnes prepends a constant 1.0 column to x
func withOnes(x mat.Matrix) mat.Matrix {
	m, _ := x.Dims()
	ones := make([]float64, m)
	floats.AddConst(1.0, ones)
	onesMx := mat.NewDense(1, m, ones)

	var xWithOnes mat.Dense
	xWithOnes.Stack(onesMx, x.T())
	return xWithOnes.T()
}

func predict(x mat.Matrix, intercept float64, coef []float64, fitIntercept bool) ([]float64, error) {
	if x == nil {
		return nil, ErrNoDesignMatrix
	}
	c := coef
	if fitIntercept {
		c = append([]float64{intercept}, coef...)
		x = withOnes(x)
	}
	n := len(c)

	_, xn := x.Dims()
	if xn != n {
		return nil, errFeatureLen(xn, n)
	}

	coefMx := mat.NewDense(1, n, c)
	var res mat.Dense
	res.Mul(coefMx, x.T())
	return res.RawRowView(0), nil
}

// rSquared is the coefficient of determination treating a perfect fit of constant targets as 1
func rSquared(predicted, y []float64) float64 {
	score := stat.RSquaredFrom(predicted, y, nil)
	if math.IsNaN(score) {
		return 1.0
	}
	return score
}

func allFinite(c []float64) bool {
	for _, v := range c {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
