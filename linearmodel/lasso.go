package linearmodel

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	DefaultLambda     = 1.0
	DefaultIterations = 1000
	DefaultTolerance  = 1e-4
)

var (
	ErrNegativeLambda     = errors.New("negative lambda")
	ErrNegativeIterations = errors.New("negative iterations")
	ErrNegativeTolerance  = errors.New("negative tolerance")
)

// LassoOptions configures the L1 penalized fit. The design matrix carries its own level
// column so no separate intercept is estimated.
type LassoOptions struct {
	// Lambda is the L1 multiplier and must be non-negative. 0 converges to ordinary least
	// squares.
	Lambda float64

	// Iterations caps the number of full coordinate descent passes
	Iterations int

	// Tolerance stops the descent once the largest coefficient update is within this
	// fraction of the largest coefficient
	Tolerance float64
}

// Validate runs basic validation on Lasso options
func (l *LassoOptions) Validate() (*LassoOptions, error) {
	if l == nil {
		l = NewDefaultLassoOptions()
	}

	if l.Lambda < 0 {
		return nil, ErrNegativeLambda
	}
	if l.Iterations < 0 {
		return nil, ErrNegativeIterations
	}
	if l.Tolerance < 0 {
		return nil, ErrNegativeTolerance
	}
	return l, nil
}

// NewDefaultLassoOptions returns a default set of Lasso Regression options
func NewDefaultLassoOptions() *LassoOptions {
	return &LassoOptions{
		Lambda:     DefaultLambda,
		Iterations: DefaultIterations,
		Tolerance:  DefaultTolerance,
	}
}

// LassoRegression fits an L1 penalized linear model by cyclic coordinate descent
type LassoRegression struct {
	opt *LassoOptions

	coef       []float64
	iterations int
}

// NewLassoRegression initializes a Lasso model ready for fitting
func NewLassoRegression(opt *LassoOptions) (*LassoRegression, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &LassoRegression{
		opt: opt,
	}, nil
}

// Fit the model on the design matrix x and the single column target y. Returns
// ErrNotConverged if the coefficients are still moving after all iterations.
func (l *LassoRegression) Fit(x, y mat.Matrix) error {
	if err := l.fitValidate(x, y); err != nil {
		return err
	}
	m, n := x.Dims()

	cols := make([][]float64, n)
	sq := make([]float64, n)
	for j := 0; j < n; j++ {
		cols[j] = mat.Col(nil, j, x)
		sq[j] = floats.Dot(cols[j], cols[j])
		if sq[j] == 0 {
			return fmt.Errorf("feature column %d is all zeros, %w", j, ErrSingularMatrix)
		}
	}

	// residual is kept equal to y - x*beta across coordinate updates
	beta := make([]float64, n)
	residual := make([]float64, m)
	mat.Col(residual, 0, y)

	converged := false
	l.iterations = 0
	for l.iterations < l.opt.Iterations {
		l.iterations++
		var maxCoef, maxUpdate float64

		for j := 0; j < n; j++ {
			prev := beta[j]
			if l.iterations > 1 && prev == 0 {
				continue
			}

			rho := floats.Dot(cols[j], residual)/sq[j] + prev
			next := SoftThreshold(rho, l.opt.Lambda/sq[j])
			if delta := next - prev; delta != 0 {
				floats.AddScaled(residual, -delta, cols[j])
				maxUpdate = math.Max(maxUpdate, math.Abs(delta))
			}
			maxCoef = math.Max(maxCoef, math.Abs(next))
			beta[j] = next
		}

		if maxUpdate <= l.opt.Tolerance*maxCoef {
			converged = true
			break
		}
	}

	if !allFinite(beta) {
		return ErrNonFinite
	}
	if !converged {
		return fmt.Errorf("after %d iterations, %w", l.opt.Iterations, ErrNotConverged)
	}
	l.coef = beta
	return nil
}

func (l *LassoRegression) fitValidate(x, y mat.Matrix) error {
	if l.opt == nil {
		return ErrNoOptions
	}
	if x == nil {
		return ErrNoTrainingMatrix
	}
	if y == nil {
		return ErrNoTargetMatrix
	}

	m, _ := x.Dims()
	if ym, _ := y.Dims(); ym != m {
		return errTargetLen(m, ym)
	}
	return nil
}

// Predict using the Lasso model
func (l *LassoRegression) Predict(x mat.Matrix) ([]float64, error) {
	if l.opt == nil {
		return nil, ErrNoOptions
	}
	return predict(x, 0, l.coef, false)
}

// Score computes the coefficient of determination of the prediction
func (l *LassoRegression) Score(x, y mat.Matrix) (float64, error) {
	if x == nil {
		return 0.0, ErrNoDesignMatrix
	}
	if y == nil {
		return 0.0, ErrNoTargetMatrix
	}
	m, _ := x.Dims()
	if ym, _ := y.Dims(); m != ym {
		return 0.0, errTargetLen(m, ym)
	}

	res, err := l.Predict(x)
	if err != nil {
		return 0.0, err
	}
	return rSquared(res, mat.Col(nil, 0, y)), nil
}

// Intercept is always 0, the level is a coefficient of the constant design column
func (l *LassoRegression) Intercept() float64 {
	return 0
}

// Coef returns the trained coefficients in design matrix column order
func (l *LassoRegression) Coef() []float64 {
	return append([]float64(nil), l.coef...)
}

// Iterations returns the number of coordinate descent passes of the last fit
func (l *LassoRegression) Iterations() int {
	return l.iterations
}

// SoftThreshold shrinks x towards zero by gamma, returning 0 when |x| <= gamma
func SoftThreshold(x, gamma float64) float64 {
	res := math.Max(0, math.Abs(x)-gamma)
	if math.Signbit(x) {
		return -res
	}
	return res
}
