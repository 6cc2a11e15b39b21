// Copyright (c) 2026 WJQserver, Kamihama Railway Group. All rights reserved.
// Licensed under the GNU Affero General Public License, version 3.0 (the "AGPL").

package arrex

import (
	"math"
	"math/cmplx"

	"github.com/kamihama-railway/arrex/kernel"
)

// unaryKernel maps pointwise unary operators onto the kernel provider.
// conj, real and imag are absent on purpose, they only make sense on
// complex operands and are handled by the complex evaluator.
var unaryKernel = map[Op]kernel.Func{
	OpAbs:    kernel.Abs,
	OpAcos:   kernel.Acos,
	OpAcosh:  kernel.Acosh,
	OpAsin:   kernel.Asin,
	OpAsinh:  kernel.Asinh,
	OpAtan:   kernel.Atan,
	OpAtanh:  kernel.Atanh,
	OpCbrt:   kernel.Cbrt,
	OpCeil:   kernel.Ceil,
	OpCos:    kernel.Cos,
	OpCosh:   kernel.Cosh,
	OpCospi:  kernel.Cospi,
	OpErf:    kernel.Erf,
	OpErfc:   kernel.Erfc,
	OpExp:    kernel.Exp,
	OpExp10:  kernel.Exp10,
	OpExp2:   kernel.Exp2,
	OpExpm1:  kernel.Expm1,
	OpFac:    kernel.Fac,
	OpFloor:  kernel.Floor,
	OpLgamma: kernel.Lgamma,
	OpLog:    kernel.Log,
	OpLog10:  kernel.Log10,
	OpLog1p:  kernel.Log1p,
	OpLog2:   kernel.Log2,
	OpRint:   kernel.Rint,
	OpRound:  kernel.Round,
	OpSign:   kernel.Sign,
	OpSin:    kernel.Sin,
	OpSinh:   kernel.Sinh,
	OpSinpi:  kernel.Sinpi,
	OpSqrt:   kernel.Sqrt,
	OpSquare: kernel.Square,
	OpTan:    kernel.Tan,
	OpTanh:   kernel.Tanh,
	OpTgamma: kernel.Tgamma,
	OpTrunc:  kernel.Trunc,
}

var binaryKernel = map[Op]kernel.Func2{
	OpAtan2:     kernel.Atan2,
	OpCopysign:  kernel.Copysign,
	OpFdim:      kernel.Fdim,
	OpFmax:      kernel.Fmax,
	OpFmin:      kernel.Fmin,
	OpFmod:      kernel.Fmod,
	OpHypot:     kernel.Hypot,
	OpLdexp:     kernel.Ldexp,
	OpLogaddexp: kernel.Logaddexp,
	OpNcr:       kernel.Ncr,
	OpNextafter: kernel.Nextafter,
	OpNpr:       kernel.Npr,
	OpRemainder: kernel.Remainder,
}

// evalScalarNode evaluates a tree whose leaves are all constants.
// Arithmetic runs in complex128 but degrades to the real float64 path
// whenever both operands have zero imaginary parts, so integer and
// float expressions fold exactly the way the array evaluator would
// compute them.
func evalScalarNode(n *Node) complex128 {
	nan := complex(math.NaN(), 0)
	switch n.kind {
	case nodeConst:
		return n.value
	case nodeCall:
	default:
		return nan
	}
	var a [3]complex128
	for i, arg := range n.args {
		a[i] = evalScalarNode(arg)
	}
	bothReal := len(n.args) < 2 || (imag(a[0]) == 0 && imag(a[1]) == 0)
	switch n.op {
	case OpAdd:
		return a[0] + a[1]
	case OpSub:
		return a[0] - a[1]
	case OpMul:
		return a[0] * a[1]
	case OpDiv:
		if bothReal {
			return complex(real(a[0])/real(a[1]), 0)
		}
		return a[0] / a[1]
	case OpMod:
		return complex(math.Mod(real(a[0]), real(a[1])), 0)
	case OpPow:
		if bothReal {
			return complex(math.Pow(real(a[0]), real(a[1])), 0)
		}
		return cmplx.Pow(a[0], a[1])
	case OpNeg:
		return -a[0]
	case OpBitAnd:
		return complex(float64(int64(real(a[0]))&int64(real(a[1]))), 0)
	case OpBitOr:
		return complex(float64(int64(real(a[0]))|int64(real(a[1]))), 0)
	case OpBitXor:
		return complex(float64(int64(real(a[0]))^int64(real(a[1]))), 0)
	case OpBitNot:
		return complex(float64(^int64(real(a[0]))), 0)
	case OpShl:
		return complex(float64(int64(real(a[0]))<<uint64(real(a[1]))), 0)
	case OpShr:
		return complex(float64(int64(real(a[0]))>>uint64(real(a[1]))), 0)
	case OpLogAnd:
		return scalarBool(a[0] != 0 && a[1] != 0)
	case OpLogOr:
		return scalarBool(a[0] != 0 || a[1] != 0)
	case OpLogXor:
		return scalarBool((a[0] != 0) != (a[1] != 0))
	case OpLogNot:
		return scalarBool(a[0] == 0)
	case OpLt:
		return scalarBool(real(a[0]) < real(a[1]))
	case OpLe:
		return scalarBool(real(a[0]) <= real(a[1]))
	case OpGt:
		return scalarBool(real(a[0]) > real(a[1]))
	case OpGe:
		return scalarBool(real(a[0]) >= real(a[1]))
	case OpEq:
		return scalarBool(a[0] == a[1])
	case OpNe:
		return scalarBool(a[0] != a[1])
	case OpConvert:
		return convertScalar(convertScalar(a[0], n.inputDType), n.dtype)
	case OpComma:
		return a[1]
	case OpAbs:
		if imag(a[0]) != 0 {
			return complex(cmplx.Abs(a[0]), 0)
		}
		return complex(math.Abs(real(a[0])), 0)
	case OpSqrt:
		if imag(a[0]) != 0 || n.dtype.isComplex() {
			return cmplx.Sqrt(a[0])
		}
		return complex(math.Sqrt(real(a[0])), 0)
	case OpConj:
		return complex(real(a[0]), -imag(a[0]))
	case OpReal:
		return complex(real(a[0]), 0)
	case OpImag:
		return complex(imag(a[0]), 0)
	case OpFma:
		return complex(math.FMA(real(a[0]), real(a[1]), real(a[2])), 0)
	case OpWhere:
		if a[0] != 0 {
			return a[1]
		}
		return a[2]
	}
	if f, ok := unaryKernel[n.op]; ok {
		return complex(kernel.Scalar64(f)(real(a[0])), 0)
	}
	if f, ok := binaryKernel[n.op]; ok {
		return complex(kernel.Scalar2(f)(real(a[0]), real(a[1])), 0)
	}
	return nan
}

func scalarBool(b bool) complex128 {
	if b {
		return 1
	}
	return 0
}
