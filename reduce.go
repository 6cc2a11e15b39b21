// Copyright (c) 2026 WJQserver, Kamihama Railway Group. All rights reserved.
// Licensed under the GNU Affero General Public License, version 3.0 (the "AGPL").

package arrex

import (
	"math"

	"golang.org/x/exp/constraints"
)

// evalReduction collapses the argument to one scalar and broadcasts it
// across the output block. Accumulation follows the argument dtype
// family: signed and unsigned integers keep 64-bit integer
// accumulators so large sums stay exact, floats accumulate in float64
// whatever their width.
func (e *evalContext) evalReduction(n *Node) error {
	arg := n.args[0]
	m := e.nitems

	var buf []byte
	switch arg.kind {
	case nodeConst:
		buf = allocBuf(arg.dtype, m)
		broadcastScalar(buf, arg.dtype, arg.value, m)
	case nodeVar:
		buf = e.inputs[arg.slot]
	case nodeCall:
		if err := e.evalChild(arg); err != nil {
			return err
		}
		buf = arg.out
	default:
		return evalErrf(EvalInvalidArg, "cannot reduce string data")
	}

	op, ad := n.op, arg.dtype

	if op == OpAny || op == OpAll {
		tv := e.boolView(buf, ad)
		broadcastScalar(n.out, n.dtype, scalarBool(reduceTruth(tv.vals, op)), m)
		return nil
	}

	if ad.isComplex() {
		var v complex128
		if ad == Complex64 {
			v = reduceComplexVals(viewOf[complex64](buf, m), op)
		} else {
			v = reduceComplexVals(viewOf[complex128](buf, m), op)
		}
		broadcastScalar(n.out, n.dtype, v, m)
		return nil
	}

	if op == OpMean {
		broadcastScalar(n.out, n.dtype, complex(meanVals(buf, ad, m), 0), m)
		return nil
	}

	switch ad {
	case Bool:
		broadcastInt(n.out, n.dtype, reduceIntVals(viewOf[uint8](buf, m), op), m)
	case Int8:
		broadcastInt(n.out, n.dtype, reduceIntVals(viewOf[int8](buf, m), op), m)
	case Int16:
		broadcastInt(n.out, n.dtype, reduceIntVals(viewOf[int16](buf, m), op), m)
	case Int32:
		broadcastInt(n.out, n.dtype, reduceIntVals(viewOf[int32](buf, m), op), m)
	case Int64:
		broadcastInt(n.out, n.dtype, reduceIntVals(viewOf[int64](buf, m), op), m)
	case Uint8:
		broadcastUint(n.out, n.dtype, reduceUintVals(viewOf[uint8](buf, m), op), m)
	case Uint16:
		broadcastUint(n.out, n.dtype, reduceUintVals(viewOf[uint16](buf, m), op), m)
	case Uint32:
		broadcastUint(n.out, n.dtype, reduceUintVals(viewOf[uint32](buf, m), op), m)
	case Uint64:
		broadcastUint(n.out, n.dtype, reduceUintVals(viewOf[uint64](buf, m), op), m)
	case Float32:
		broadcastScalar(n.out, n.dtype, complex(reduceFloatVals(viewOf[float32](buf, m), op), 0), m)
	case Float64:
		broadcastScalar(n.out, n.dtype, complex(reduceFloatVals(viewOf[float64](buf, m), op), 0), m)
	default:
		return evalErrf(EvalInvalidArg, "cannot reduce dtype %s", ad)
	}
	return nil
}

func reduceTruth(vals []uint8, op Op) bool {
	if op == OpAny {
		for _, v := range vals {
			if v != 0 {
				return true
			}
		}
		return false
	}
	for _, v := range vals {
		if v == 0 {
			return false
		}
	}
	return true
}

func reduceIntVals[T constraints.Integer](vals []T, op Op) int64 {
	switch op {
	case OpSum:
		var acc int64
		for _, v := range vals {
			acc += int64(v)
		}
		return acc
	case OpProd:
		acc := int64(1)
		for _, v := range vals {
			acc *= int64(v)
		}
		return acc
	case OpMin:
		m := intMaxVal[T]()
		for _, v := range vals {
			if v < m {
				m = v
			}
		}
		return int64(m)
	case OpMax:
		m := intMinVal[T]()
		for _, v := range vals {
			if v > m {
				m = v
			}
		}
		return int64(m)
	}
	return 0
}

func reduceUintVals[T constraints.Unsigned](vals []T, op Op) uint64 {
	switch op {
	case OpSum:
		var acc uint64
		for _, v := range vals {
			acc += uint64(v)
		}
		return acc
	case OpProd:
		acc := uint64(1)
		for _, v := range vals {
			acc *= uint64(v)
		}
		return acc
	case OpMin:
		m := intMaxVal[T]()
		for _, v := range vals {
			if v < m {
				m = v
			}
		}
		return uint64(m)
	case OpMax:
		var m T
		for _, v := range vals {
			if v > m {
				m = v
			}
		}
		return uint64(m)
	}
	return 0
}

// reduceFloatVals accumulates in float64. A NaN operand decides the
// result immediately, including for min and max.
func reduceFloatVals[T constraints.Float](vals []T, op Op) float64 {
	nan := math.NaN()
	switch op {
	case OpSum:
		var acc float64
		for _, v := range vals {
			if v != v {
				return nan
			}
			acc += float64(v)
		}
		return acc
	case OpProd:
		acc := 1.0
		for _, v := range vals {
			if v != v {
				return nan
			}
			acc *= float64(v)
		}
		return acc
	case OpMin:
		m := math.Inf(1)
		for _, v := range vals {
			if v != v {
				return nan
			}
			if float64(v) < m {
				m = float64(v)
			}
		}
		return m
	case OpMax:
		m := math.Inf(-1)
		for _, v := range vals {
			if v != v {
				return nan
			}
			if float64(v) > m {
				m = float64(v)
			}
		}
		return m
	}
	return nan
}

func reduceComplexVals[T complex64 | complex128](vals []T, op Op) complex128 {
	switch op {
	case OpSum:
		var acc complex128
		for _, v := range vals {
			acc += complex128(v)
		}
		return acc
	case OpProd:
		acc := complex128(1)
		for _, v := range vals {
			acc *= complex128(v)
		}
		return acc
	case OpMean:
		if len(vals) == 0 {
			return complex(math.NaN(), math.NaN())
		}
		var acc complex128
		for _, v := range vals {
			acc += complex128(v)
		}
		return acc / complex(float64(len(vals)), 0)
	}
	return complex(math.NaN(), 0)
}

func meanVals(buf []byte, ad DType, m int) float64 {
	if m == 0 {
		return math.NaN()
	}
	var sum float64
	switch {
	case ad == Float32:
		for _, v := range viewOf[float32](buf, m) {
			if v != v {
				return math.NaN()
			}
			sum += float64(v)
		}
	case ad == Float64:
		for _, v := range viewOf[float64](buf, m) {
			if v != v {
				return math.NaN()
			}
			sum += v
		}
	default:
		tmp := allocBuf(Float64, m)
		convertBuf(tmp, Float64, buf, ad, m)
		for _, v := range viewOf[float64](tmp, m) {
			sum += v
		}
	}
	return sum / float64(m)
}

// intMaxVal and intMinVal compute the extreme values of any integer
// type from its width, the empty-input identities for min and max.
func intMaxVal[T constraints.Integer]() T {
	var z T
	bits := bitWidth(z)
	if ^z < 0 {
		return T(1)<<(bits-1) - 1
	}
	return ^z
}

func intMinVal[T constraints.Integer]() T {
	var z T
	if ^z < 0 {
		bits := bitWidth(z)
		return ^(T(1)<<(bits-1) - 1)
	}
	return 0
}

func broadcastInt(dst []byte, dtype DType, v int64, n int) {
	switch dtype {
	case Int64:
		fillLoop(viewOf[int64](dst, n), v)
	case Uint64:
		fillLoop(viewOf[uint64](dst, n), uint64(v))
	default:
		broadcastScalar(dst, dtype, complex(float64(v), 0), n)
	}
}

func broadcastUint(dst []byte, dtype DType, v uint64, n int) {
	switch dtype {
	case Uint64:
		fillLoop(viewOf[uint64](dst, n), v)
	case Int64:
		fillLoop(viewOf[int64](dst, n), int64(v))
	default:
		broadcastScalar(dst, dtype, complex(float64(v), 0), n)
	}
}
