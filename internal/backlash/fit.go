package backlash

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// DefaultFitEpochs is the iteration count used when Fit is called with a
// non-positive epoch count.
const DefaultFitEpochs = 20

// Singular values below rcond relative to the largest are treated as zero
// when ranking the feature matrix.
const rcond = 1e-12

// stepFn is the indicator h(s): 1 for s <= 0, 0 otherwise.
func stepFn(s float64) float64 {
	if s > 0 {
		return 0
	}
	return 1
}

// f1 reports whether a sample lies on or past the lower boundary under the
// current parameter estimate for channel d.
func (m *Model) f1(u, xPrev float64, d int) float64 {
	return stepFn((m.mLo[d]*u + m.mLo[d]*m.cLo[d] - xPrev) / m.mLo[d])
}

// f2 reports whether a sample lies on or past the upper boundary.
func (m *Model) f2(u, xPrev float64, d int) float64 {
	return stepFn((xPrev - m.mUp[d]*u + m.mUp[d]*m.cUp[d]) / m.mUp[d])
}

// Fit estimates the four boundary parameters from observed triples by
// iterative least squares. u holds the inputs, x the observed outputs, and
// xPrev the output observed one time step earlier; all three must have the
// same number of rows and channels. Channels are fitted independently, one
// four-parameter solve per channel per epoch.
//
// Fit reseeds the parameters and reinitializes the state from xPrev[0]
// before iterating, so previous values do not survive a fit. The epoch count
// is fixed; there is no convergence check.
func (m *Model) Fit(u, x, xPrev []Vec, epochs int) error {
	if epochs <= 0 {
		epochs = DefaultFitEpochs
	}

	if len(u) == 0 || len(u) != len(x) || len(u) != len(xPrev) {
		return fmt.Errorf("%w: got %d, %d, and %d rows for u, x, and x_prev",
			ErrShapeMismatch, len(u), len(x), len(xPrev))
	}
	dim := len(u[0])
	for i := range u {
		if len(u[i]) != dim || len(x[i]) != dim || len(xPrev[i]) != dim {
			return fmt.Errorf("%w: row %d has %d/%d/%d channels, want %d",
				ErrShapeMismatch, i, len(u[i]), len(x[i]), len(xPrev[i]), dim)
		}
	}

	ones := make(Vec, dim)
	offs := make(Vec, dim)
	for d := range ones {
		ones[d] = 1
		offs[d] = 1e-2
	}
	err := m.Reset(
		WithLowerSlope(ones),
		WithUpperSlope(ones.Clone()),
		WithLowerOffset(offs),
		WithUpperOffset(offs.Clone()),
		WithInit(xPrev[0]),
	)
	if err != nil {
		return err
	}

	n := len(u)
	phi := mat.NewDense(n, 4, nil)
	rhs := mat.NewVecDense(n, nil)

	for d := 0; d < dim; d++ {
		for epoch := 0; epoch < epochs; epoch++ {
			for i := 0; i < n; i++ {
				f1 := m.f1(u[i][d], xPrev[i][d], d)
				f2 := m.f2(u[i][d], xPrev[i][d], d)
				phi.Set(i, 0, u[i][d]*f1)
				phi.Set(i, 1, f1)
				phi.Set(i, 2, u[i][d]*f2)
				phi.Set(i, 3, -f2)
				rhs.SetVec(i, x[i][d]-xPrev[i][d]*(1-f1)*(1-f2))
			}

			theta, err := solveMinNorm(phi, rhs)
			if err != nil {
				return err
			}

			m.mLo[d], m.cLo[d] = theta[0], theta[1]/theta[0]
			m.mUp[d], m.cUp[d] = theta[2], theta[3]/theta[2]
		}
	}
	return nil
}

// solveMinNorm returns the minimum-norm least-squares solution of a*x = b
// via SVD, tolerating rank-deficient feature matrices (constant-input
// stretches produce repeated columns).
func solveMinNorm(a *mat.Dense, b *mat.VecDense) ([]float64, error) {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, ErrSolveFailed
	}

	_, cols := a.Dims()
	rank := svd.Rank(rcond)
	if rank == 0 {
		return make([]float64, cols), nil
	}

	var sol mat.VecDense
	svd.SolveVecTo(&sol, b, rank)

	theta := make([]float64, cols)
	for i := range theta {
		theta[i] = sol.AtVec(i)
	}
	return theta, nil
}
