// Copyright (c) 2026 WJQserver, Kamihama Railway Group. All rights reserved.
// Licensed under the GNU Affero General Public License, version 3.0 (the "AGPL").

package arrex

import "math"

// builtinOps maps a function name in the expression language to its Op.
// Aliases (NumPy spellings, ln) map to the same Op as their canonical
// name.
var builtinOps = map[string]Op{
	"abs":        OpAbs,
	"acos":       OpAcos,
	"acosh":      OpAcosh,
	"all":        OpAll,
	"any":        OpAny,
	"arccos":     OpAcos,
	"arccosh":    OpAcosh,
	"arcsin":     OpAsin,
	"arcsinh":    OpAsinh,
	"arctan":     OpAtan,
	"arctan2":    OpAtan2,
	"arctanh":    OpAtanh,
	"asin":       OpAsin,
	"asinh":      OpAsinh,
	"atan":       OpAtan,
	"atan2":      OpAtan2,
	"atanh":      OpAtanh,
	"cbrt":       OpCbrt,
	"ceil":       OpCeil,
	"conj":       OpConj,
	"contains":   OpContains,
	"copysign":   OpCopysign,
	"cos":        OpCos,
	"cosh":       OpCosh,
	"cospi":      OpCospi,
	"endswith":   OpEndsWith,
	"erf":        OpErf,
	"erfc":       OpErfc,
	"exp":        OpExp,
	"exp10":      OpExp10,
	"exp2":       OpExp2,
	"expm1":      OpExpm1,
	"fac":        OpFac,
	"fdim":       OpFdim,
	"floor":      OpFloor,
	"fma":        OpFma,
	"fmax":       OpFmax,
	"fmin":       OpFmin,
	"fmod":       OpFmod,
	"hypot":      OpHypot,
	"imag":       OpImag,
	"ldexp":      OpLdexp,
	"lgamma":     OpLgamma,
	"ln":         OpLog,
	"log":        OpLog,
	"log10":      OpLog10,
	"log1p":      OpLog1p,
	"log2":       OpLog2,
	"logaddexp":  OpLogaddexp,
	"max":        OpMax,
	"mean":       OpMean,
	"min":        OpMin,
	"ncr":        OpNcr,
	"nextafter":  OpNextafter,
	"npr":        OpNpr,
	"pow":        OpPow,
	"prod":       OpProd,
	"real":       OpReal,
	"remainder":  OpRemainder,
	"rint":       OpRint,
	"round":      OpRound,
	"sign":       OpSign,
	"sin":        OpSin,
	"sinh":       OpSinh,
	"sinpi":      OpSinpi,
	"sqrt":       OpSqrt,
	"square":     OpSquare,
	"startswith": OpStartsWith,
	"sum":        OpSum,
	"tan":        OpTan,
	"tanh":       OpTanh,
	"tgamma":     OpTgamma,
	"trunc":      OpTrunc,
	"where":      OpWhere,
}

// builtinConsts are the nullary builtins. They parse directly into
// float64 constant nodes; an optional empty argument list is accepted.
var builtinConsts = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

// IsBuiltinName reports whether name is reserved by the expression
// language and therefore unavailable as a variable name.
func IsBuiltinName(name string) bool {
	if _, ok := builtinOps[name]; ok {
		return true
	}
	if _, ok := builtinConsts[name]; ok {
		return true
	}
	switch name {
	case "and", "or", "not":
		return true
	}
	return false
}
