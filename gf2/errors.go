package gf2

import "errors"

var (
	// ErrDimensionMismatch indicates operands whose lengths or
	// shapes do not fit together.
	ErrDimensionMismatch = errors.New("gf2: dimension mismatch")

	// ErrSingularMatrix indicates a matrix with no inverse (or no
	// generalized inverse) under row reduction.
	ErrSingularMatrix = errors.New("gf2: singular matrix")

	// ErrNonSquareMatrix indicates an operation that needs a square
	// matrix was given a rectangular one.
	ErrNonSquareMatrix = errors.New("gf2: non-square matrix")
)
