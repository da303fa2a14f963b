package linearmodel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// RankTolerance is the smallest ratio of a diagonal element of R to the largest one before
// the design matrix is considered rank deficient
const RankTolerance = 1e-9

// OLSOptions represents input options to run the OLS Regression
type OLSOptions struct {
	// FitIntercept adds a constant 1.0 feature as the first column if set to true
	FitIntercept bool
}

// Validate runs basic validation on OLS options
func (o *OLSOptions) Validate() (*OLSOptions, error) {
	if o == nil {
		o = NewDefaultOLSOptions()
	}

	return o, nil
}

// NewDefaultOLSOptions returns a default set of OLS Regression options
func NewDefaultOLSOptions() *OLSOptions {
	return &OLSOptions{
		FitIntercept: true,
	}
}

// OLSRegression computes ordinary least squares using QR factorization
type OLSRegression struct {
	opt       *OLSOptions
	coef      []float64
	intercept float64

	// upper triangular factor of the design matrix, kept for leverage computations
	r *mat.Dense
}

// NewOLSRegression initializes an ordinary least squares model ready for fitting
func NewOLSRegression(opt *OLSOptions) (*OLSRegression, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &OLSRegression{
		opt: opt,
	}, nil
}

// Fit the model according to the given training data. Fails with ErrSingularMatrix when
// the features are linearly dependent.
func (o *OLSRegression) Fit(x, y mat.Matrix) error {
	if o.opt == nil {
		return ErrNoOptions
	}
	if x == nil {
		return ErrNoTrainingMatrix
	}
	if y == nil {
		return ErrNoTargetMatrix
	}
	m, _ := x.Dims()

	ym, _ := y.Dims()
	if ym != m {
		return errTargetLen(m, ym)
	}

	if o.opt.FitIntercept {
		x = withOnes(x)
	}
	_, n := x.Dims()
	if m < n {
		return fmt.Errorf("%d observations for %d features, %w", m, n, ErrUnderdetermined)
	}

	qr := new(mat.QR)
	qr.Factorize(x)

	q := new(mat.Dense)
	r := new(mat.Dense)

	qr.QTo(q)
	qr.RTo(r)

	var maxDiag float64
	for i := 0; i < n; i++ {
		maxDiag = math.Max(maxDiag, math.Abs(r.At(i, i)))
	}
	for i := 0; i < n; i++ {
		if maxDiag == 0 || math.Abs(r.At(i, i)) <= RankTolerance*maxDiag {
			return fmt.Errorf("feature column %d, %w", i, ErrSingularMatrix)
		}
	}

	yq := new(mat.Dense)
	yq.Mul(y.T(), q)

	c := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		c[i] = yq.At(0, i)
		for j := i + 1; j < n; j++ {
			c[i] -= c[j] * r.At(i, j)
		}
		c[i] /= r.At(i, i)
	}
	if !allFinite(c) {
		return ErrNonFinite
	}

	o.r = mat.DenseCopyOf(r.Slice(0, n, 0, n))
	if o.opt.FitIntercept {
		o.intercept = c[0]
		o.coef = c[1:]
	} else {
		o.coef = c
	}

	return nil
}

// Predict using the OLS model
func (o *OLSRegression) Predict(x mat.Matrix) ([]float64, error) {
	if o.opt == nil {
		return nil, ErrNoOptions
	}
	return predict(x, o.intercept, o.coef, o.opt.FitIntercept)
}

// Score computes the coefficient of determination of the prediction
func (o *OLSRegression) Score(x, y mat.Matrix) (float64, error) {
	if o.opt == nil {
		return 0.0, ErrNoOptions
	}
	if x == nil {
		return 0.0, ErrNoDesignMatrix
	}
	if y == nil {
		return 0.0, ErrNoTargetMatrix
	}

	m, _ := x.Dims()

	ym, _ := y.Dims()
	if m != ym {
		return 0.0, errTargetLen(m, ym)
	}

	res, err := o.Predict(x)
	if err != nil {
		return 0.0, err
	}

	return rSquared(res, mat.Col(nil, 0, y)), nil
}

// Leverage returns x0'(X'X)^-1 x0 for every row x0 of x, where X is the training design
// matrix. This scales the variance of a prediction at x0 relative to the noise variance.
func (o *OLSRegression) Leverage(x mat.Matrix) ([]float64, error) {
	if o.r == nil {
		return nil, ErrNoTrainingMatrix
	}
	if x == nil {
		return nil, ErrNoDesignMatrix
	}
	if o.opt.FitIntercept {
		x = withOnes(x)
	}
	m, n := x.Dims()
	rn, _ := o.r.Dims()
	if n != rn {
		return nil, errFeatureLen(n, rn)
	}

	// (X'X)^-1 = R^-1 R^-T so the quadratic form is |z|^2 where R'z = x0
	res := make([]float64, m)
	z := make([]float64, n)
	for row := 0; row < m; row++ {
		var sq float64
		for i := 0; i < n; i++ {
			v := x.At(row, i)
			for j := 0; j < i; j++ {
				v -= o.r.At(j, i) * z[j]
			}
			z[i] = v / o.r.At(i, i)
			sq += z[i] * z[i]
		}
		res[row] = sq
	}
	return res, nil
}

// Intercept returns the computed intercept if FitIntercept is set to true. Defaults to 0.0 if not set.
func (o *OLSRegression) Intercept() float64 {
	return o.intercept
}

// Coef returns a slice of the trained coefficients in the same order of the training feature Matrix by column.
func (o *OLSRegression) Coef() []float64 {
	c := make([]float64, len(o.coef))
	copy(c, o.coef)
	return c
}
