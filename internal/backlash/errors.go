package backlash

import "errors"

// Domain errors for model operations.
var (
	// ErrInvalidParam indicates a zero slope, negative offset, or NaN/Inf
	// in the parameter set a Reset would commit.
	ErrInvalidParam = errors.New("backlash: invalid parameter")

	// ErrShapeMismatch indicates fit data arrays whose shapes differ.
	ErrShapeMismatch = errors.New("backlash: shape mismatch")

	// ErrSolveFailed indicates the least-squares factorization did not
	// converge.
	ErrSolveFailed = errors.New("backlash: least-squares solve failed")
)
