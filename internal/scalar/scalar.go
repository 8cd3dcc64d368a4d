// Package scalar selects the floating point precision of a simulation.
//
// Every numeric type in the pipeline is parameterised over [Float]; the
// choice between float32 and float64 is made once, when a world is built,
// by picking the space implementation (see package space).
package scalar

import (
	"math"

	"github.com/chewxy/math32"
	"golang.org/x/exp/constraints"
)

// Float is the set of supported scalar types.
type Float interface {
	constraints.Float
}

// Sqrt returns the square root of x in the precision of S.
func Sqrt[S Float](x S) S {
	switch v := any(x).(type) {
	case float32:
		return S(math32.Sqrt(v))
	default:
		return S(math.Sqrt(float64(x)))
	}
}

// Atan2 returns the arc tangent of y/x in the precision of S.
func Atan2[S Float](y, x S) S {
	switch v := any(y).(type) {
	case float32:
		return S(math32.Atan2(v, float32(x)))
	default:
		return S(math.Atan2(float64(y), float64(x)))
	}
}

// Sincos returns sin(x) and cos(x).
func Sincos[S Float](x S) (S, S) {
	switch v := any(x).(type) {
	case float32:
		s, c := math32.Sincos(v)
		return S(s), S(c)
	default:
		s, c := math.Sincos(float64(x))
		return S(s), S(c)
	}
}

func Abs[S Float](x S) S {
	if x < 0 {
		return -x
	}
	return x
}

func Min[S Float](a, b S) S {
	if a < b {
		return a
	}
	return b
}

func Max[S Float](a, b S) S {
	if a > b {
		return a
	}
	return b
}

// Clamp limits x to [lo, hi].
func Clamp[S Float](x, lo, hi S) S {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// IsFinite reports whether x is neither NaN nor infinite.
func IsFinite[S Float](x S) bool {
	f := float64(x)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Inf returns positive infinity.
func Inf[S Float]() S {
	return S(math.Inf(1))
}

// Epsilon is the tolerance below which lengths and effective masses are
// treated as zero. It is coarser for float32.
func Epsilon[S Float]() S {
	var zero S
	if _, ok := any(zero).(float32); ok {
		return S(1e-6)
	}
	return S(1e-12)
}
