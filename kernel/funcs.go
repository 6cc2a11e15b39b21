// Copyright (c) 2026 WJQserver, Kamihama Railway Group. All rights reserved.
// Licensed under the GNU Affero General Public License, version 3.0 (the "AGPL").

package kernel

import "math"

// Func identifies a unary pointwise function.
type Func int

const (
	Abs Func = iota
	Acos
	Acosh
	Asin
	Asinh
	Atan
	Atanh
	Cbrt
	Ceil
	Cos
	Cosh
	Cospi
	Erf
	Erfc
	Exp
	Exp10
	Exp2
	Expm1
	Fac
	Floor
	Lgamma
	Log
	Log10
	Log1p
	Log2
	Rint
	Round
	Sign
	Sin
	Sinh
	Sinpi
	Sqrt
	Square
	Tan
	Tanh
	Tgamma
	Trunc

	numFuncs
)

// Func2 identifies a binary pointwise function.
type Func2 int

const (
	Atan2 Func2 = iota
	Copysign
	Fdim
	Fmax
	Fmin
	Fmod
	Hypot
	Ldexp
	Logaddexp
	Ncr
	Nextafter
	Npr
	Pow
	Remainder

	numFunc2s
)

var scalarTable = [numFuncs]func(float64) float64{
	Abs:    math.Abs,
	Acos:   math.Acos,
	Acosh:  math.Acosh,
	Asin:   math.Asin,
	Asinh:  math.Asinh,
	Atan:   math.Atan,
	Atanh:  math.Atanh,
	Cbrt:   math.Cbrt,
	Ceil:   math.Ceil,
	Cos:    math.Cos,
	Cosh:   math.Cosh,
	Cospi:  func(x float64) float64 { return math.Cos(math.Pi * x) },
	Erf:    math.Erf,
	Erfc:   math.Erfc,
	Exp:    math.Exp,
	Exp10:  func(x float64) float64 { return math.Pow(10, x) },
	Exp2:   math.Exp2,
	Expm1:  math.Expm1,
	Fac:    factorial,
	Floor:  math.Floor,
	Lgamma: func(x float64) float64 { v, _ := math.Lgamma(x); return v },
	Log:    math.Log,
	Log10:  math.Log10,
	Log1p:  math.Log1p,
	Log2:   math.Log2,
	Rint:   math.RoundToEven,
	Round:  math.Round,
	Sign:   sign,
	Sin:    math.Sin,
	Sinh:   math.Sinh,
	Sinpi:  func(x float64) float64 { return math.Sin(math.Pi * x) },
	Sqrt:   math.Sqrt,
	Square: func(x float64) float64 { return x * x },
	Tan:    math.Tan,
	Tanh:   math.Tanh,
	Tgamma: math.Gamma,
	Trunc:  math.Trunc,
}

var scalar2Table = [numFunc2s]func(a, b float64) float64{
	Atan2:     math.Atan2,
	Copysign:  math.Copysign,
	Fdim:      fdim,
	Fmax:      fmax,
	Fmin:      fmin,
	Fmod:      math.Mod,
	Hypot:     math.Hypot,
	Ldexp:     func(a, b float64) float64 { return math.Ldexp(a, int(b)) },
	Logaddexp: logaddexp,
	Ncr:       ncr,
	Nextafter: math.Nextafter,
	Npr:       npr,
	Pow:       math.Pow,
	Remainder: math.Remainder,
}

// Scalar64 returns the scalar fallback for f.
func Scalar64(f Func) func(float64) float64 { return scalarTable[f] }

// Scalar2 returns the scalar fallback for the binary function f.
func Scalar2(f Func2) func(a, b float64) float64 { return scalar2Table[f] }

func sign(x float64) float64 {
	switch {
	case math.IsNaN(x):
		return math.NaN()
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

func fdim(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	if a > b {
		return a - b
	}
	return 0
}

// fmax and fmin follow C fmax/fmin: a NaN operand is ignored in favor
// of the other.
func fmax(a, b float64) float64 {
	switch {
	case math.IsNaN(a):
		return b
	case math.IsNaN(b):
		return a
	case a > b:
		return a
	}
	return b
}

func fmin(a, b float64) float64 {
	switch {
	case math.IsNaN(a):
		return b
	case math.IsNaN(b):
		return a
	case a < b:
		return a
	}
	return b
}

func logaddexp(a, b float64) float64 {
	if a == b {
		return a + math.Ln2
	}
	d := a - b
	if d > 0 {
		return a + math.Log1p(math.Exp(-d))
	}
	return b + math.Log1p(math.Exp(d))
}

func factorial(x float64) float64 {
	if x < 0 {
		return math.NaN()
	}
	if x > math.MaxUint32 {
		return math.Inf(1)
	}
	n := uint64(x)
	result := 1.0
	for i := uint64(2); i <= n; i++ {
		result *= float64(i)
		if math.IsInf(result, 1) {
			return result
		}
	}
	return result
}

func ncr(n, r float64) float64 {
	if n < 0 || r < 0 || n < r || math.IsNaN(n) || math.IsNaN(r) {
		return math.NaN()
	}
	if n > math.MaxUint32 || r > math.MaxUint32 {
		return math.Inf(1)
	}
	un, ur := uint64(n), uint64(r)
	if ur > un/2 {
		ur = un - ur
	}
	result := 1.0
	for i := uint64(1); i <= ur; i++ {
		result *= float64(un - ur + i)
		result /= float64(i)
		if math.IsInf(result, 1) {
			return result
		}
	}
	return result
}

func npr(n, r float64) float64 {
	return ncr(n, r) * factorial(r)
}
