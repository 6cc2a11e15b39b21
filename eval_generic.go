// Copyright (c) 2026 WJQserver, Kamihama Railway Group. All rights reserved.
// Licensed under the GNU Affero General Public License, version 3.0 (the "AGPL").

package arrex

import (
	"math"
	"math/cmplx"

	"github.com/kamihama-railway/arrex/kernel"
)

// evalContext holds the per-block evaluation state. inputs are the
// caller's variable buffers re-sliced to the current block; nitems is
// the block length.
type evalContext struct {
	inputs    [][]byte
	itemSizes []int
	nitems    int
	kc        *kernel.Context
}

// evalChild ensures a call node has a large enough scratch buffer and
// evaluates it. The first block is the largest one, so the allocation
// happens once and later blocks reuse it.
func (e *evalContext) evalChild(n *Node) error {
	if n.kind != nodeCall {
		return nil
	}
	if need := e.nitems * n.dtype.Size(); len(n.out) < need {
		n.out = allocBuf(n.dtype, e.nitems)
	}
	n.nitems = e.nitems
	return e.evalNode(n)
}

// evalNode evaluates a call node into n.out, dispatching on the node's
// dtype. Reductions and user calls are handled before the dtype
// switch: the argument dtypes, not the node's own, drive how they
// compute.
func (e *evalContext) evalNode(n *Node) error {
	if n.op.isReduction() {
		return e.evalReduction(n)
	}
	if n.op == OpUserCall {
		return e.evalUserCall(n)
	}
	switch n.dtype {
	case Bool:
		return e.evalBool(n, n.out)
	case Int8:
		return evalTyped[int8](e, n)
	case Int16:
		return evalTyped[int16](e, n)
	case Int32:
		return evalTyped[int32](e, n)
	case Int64:
		return evalTyped[int64](e, n)
	case Uint8:
		return evalTyped[uint8](e, n)
	case Uint16:
		return evalTyped[uint16](e, n)
	case Uint32:
		return evalTyped[uint32](e, n)
	case Uint64:
		return evalTyped[uint64](e, n)
	case Float32:
		return evalTyped[float32](e, n)
	case Float64:
		return evalTyped[float64](e, n)
	case Complex64:
		return evalComplex[complex64](e, n)
	case Complex128:
		return evalComplex[complex128](e, n)
	}
	return evalErrf(EvalInvalidArg, "cannot evaluate node of dtype %s", n.dtype)
}

// operand is one input of a pointwise kernel: either a full vector or
// a broadcast scalar.
type operand[T any] struct {
	vals   []T
	scalar T
}

// operandTyped materializes arg as dt-typed values. Variables and
// child results with a matching dtype are aliased in place; anything
// else converts into a scratch buffer.
func operandTyped[T realScalar](e *evalContext, arg *Node, dt DType) (operand[T], error) {
	switch arg.kind {
	case nodeConst:
		return operand[T]{scalar: T(real(arg.value))}, nil
	case nodeVar:
		return convertedView[T](e, e.inputs[arg.slot], arg.dtype, dt), nil
	case nodeCall:
		if err := e.evalChild(arg); err != nil {
			return operand[T]{}, err
		}
		return convertedView[T](e, arg.out, arg.dtype, dt), nil
	}
	return operand[T]{}, evalErrf(EvalInvalidArg, "string operand in numeric context")
}

func convertedView[T realScalar](e *evalContext, buf []byte, from, to DType) operand[T] {
	if from == to {
		return operand[T]{vals: viewOf[T](buf, e.nitems)}
	}
	tmp := allocBuf(to, e.nitems)
	convertBuf(tmp, to, buf, from, e.nitems)
	return operand[T]{vals: viewOf[T](tmp, e.nitems)}
}

// binaryEach runs f over the three broadcast shapes: vector-vector,
// vector-scalar and scalar-vector.
func binaryEach[T any](dst []T, a, b operand[T], f func(T, T) T) {
	switch {
	case a.vals != nil && b.vals != nil:
		for i := range dst {
			dst[i] = f(a.vals[i], b.vals[i])
		}
	case a.vals != nil:
		for i := range dst {
			dst[i] = f(a.vals[i], b.scalar)
		}
	case b.vals != nil:
		for i := range dst {
			dst[i] = f(a.scalar, b.vals[i])
		}
	default:
		v := f(a.scalar, b.scalar)
		for i := range dst {
			dst[i] = v
		}
	}
}

func unaryEach[T any](dst []T, a operand[T], f func(T) T) {
	if a.vals != nil {
		for i := range dst {
			dst[i] = f(a.vals[i])
		}
		return
	}
	v := f(a.scalar)
	for i := range dst {
		dst[i] = v
	}
}

func tnum[T realScalar](b bool) T {
	if b {
		return 1
	}
	return 0
}

// evalTyped evaluates a call node whose dtype is a real numeric type.
// Division, modulo and the transcendental functions compute through
// float64 regardless of T, matching how the array protocol they feed
// defines those operations on integer dtypes.
func evalTyped[T realScalar](e *evalContext, n *Node) error {
	dt := n.dtype
	dst := viewOf[T](n.out, e.nitems)

	switch n.op {
	case OpConvert:
		return e.evalConvert(n)

	case OpAdd, OpSub, OpMul:
		a, err := operandTyped[T](e, n.args[0], dt)
		if err != nil {
			return err
		}
		b, err := operandTyped[T](e, n.args[1], dt)
		if err != nil {
			return err
		}
		switch n.op {
		case OpAdd:
			binaryEach(dst, a, b, func(x, y T) T { return x + y })
		case OpSub:
			binaryEach(dst, a, b, func(x, y T) T { return x - y })
		case OpMul:
			binaryEach(dst, a, b, func(x, y T) T { return x * y })
		}
		return nil

	case OpDiv:
		a, err := operandTyped[T](e, n.args[0], dt)
		if err != nil {
			return err
		}
		b, err := operandTyped[T](e, n.args[1], dt)
		if err != nil {
			return err
		}
		if dt.isFloat() {
			binaryEach(dst, a, b, func(x, y T) T { return x / y })
		} else {
			binaryEach(dst, a, b, func(x, y T) T { return T(float64(x) / float64(y)) })
		}
		return nil

	case OpMod:
		return binaryMath[T](e, n, dst, kernel.Fmod)
	case OpPow:
		return binaryMath[T](e, n, dst, kernel.Pow)

	case OpNeg:
		a, err := operandTyped[T](e, n.args[0], dt)
		if err != nil {
			return err
		}
		unaryEach(dst, a, func(x T) T { return 0 - x })
		return nil

	case OpBitAnd, OpBitOr, OpBitXor, OpShl, OpShr:
		a, err := operandTyped[T](e, n.args[0], dt)
		if err != nil {
			return err
		}
		b, err := operandTyped[T](e, n.args[1], dt)
		if err != nil {
			return err
		}
		// Computed on the int64 images of the operands; float dtypes
		// truncate in and cast back out.
		switch n.op {
		case OpBitAnd:
			binaryEach(dst, a, b, func(x, y T) T { return T(int64(x) & int64(y)) })
		case OpBitOr:
			binaryEach(dst, a, b, func(x, y T) T { return T(int64(x) | int64(y)) })
		case OpBitXor:
			binaryEach(dst, a, b, func(x, y T) T { return T(int64(x) ^ int64(y)) })
		case OpShl:
			binaryEach(dst, a, b, func(x, y T) T { return T(int64(x) << uint64(int64(y))) })
		case OpShr:
			binaryEach(dst, a, b, func(x, y T) T { return T(int64(x) >> uint64(int64(y))) })
		}
		return nil

	case OpBitNot:
		a, err := operandTyped[T](e, n.args[0], dt)
		if err != nil {
			return err
		}
		unaryEach(dst, a, func(x T) T { return T(^int64(x)) })
		return nil

	case OpLogAnd, OpLogOr, OpLogXor:
		a, err := operandTyped[T](e, n.args[0], dt)
		if err != nil {
			return err
		}
		b, err := operandTyped[T](e, n.args[1], dt)
		if err != nil {
			return err
		}
		switch n.op {
		case OpLogAnd:
			binaryEach(dst, a, b, func(x, y T) T { return tnum[T](x != 0 && y != 0) })
		case OpLogOr:
			binaryEach(dst, a, b, func(x, y T) T { return tnum[T](x != 0 || y != 0) })
		case OpLogXor:
			binaryEach(dst, a, b, func(x, y T) T { return tnum[T]((x != 0) != (y != 0)) })
		}
		return nil

	case OpLogNot:
		a, err := operandTyped[T](e, n.args[0], dt)
		if err != nil {
			return err
		}
		unaryEach(dst, a, func(x T) T { return tnum[T](x == 0) })
		return nil

	case OpLt, OpLe, OpGt, OpGe, OpEq, OpNe:
		// A comparison lands here only when an explicit output dtype
		// forced its result away from bool. Compute the boolean form
		// first, then widen.
		tmp := allocBuf(Bool, e.nitems)
		if err := e.compareInto(n, tmp); err != nil {
			return err
		}
		convertBuf(n.out, dt, tmp, Bool, e.nitems)
		return nil

	case OpAbs:
		if n.args[0].dtype.isComplex() {
			return complexToReal[T](e, n, dst)
		}
		if !dt.isFloat() {
			a, err := operandTyped[T](e, n.args[0], dt)
			if err != nil {
				return err
			}
			unaryEach(dst, a, func(x T) T {
				if x < 0 {
					return 0 - x
				}
				return x
			})
			return nil
		}
		return unaryMath[T](e, n, dst, kernel.Abs)

	case OpReal, OpImag, OpConj:
		if n.args[0].dtype.isComplex() {
			return complexToReal[T](e, n, dst)
		}
		// Real arguments: real and conj are identities, imag is zero.
		a, err := operandTyped[T](e, n.args[0], dt)
		if err != nil {
			return err
		}
		if n.op == OpImag {
			unaryEach(dst, a, func(T) T { return 0 })
		} else {
			unaryEach(dst, a, func(x T) T { return x })
		}
		return nil

	case OpSquare:
		if !dt.isFloat() {
			a, err := operandTyped[T](e, n.args[0], dt)
			if err != nil {
				return err
			}
			unaryEach(dst, a, func(x T) T { return x * x })
			return nil
		}
		return unaryMath[T](e, n, dst, kernel.Square)

	case OpFma:
		a, err := operandTyped[T](e, n.args[0], dt)
		if err != nil {
			return err
		}
		b, err := operandTyped[T](e, n.args[1], dt)
		if err != nil {
			return err
		}
		c, err := operandTyped[T](e, n.args[2], dt)
		if err != nil {
			return err
		}
		for i := range dst {
			dst[i] = T(math.FMA(float64(at(a, i)), float64(at(b, i)), float64(at(c, i))))
		}
		return nil

	case OpWhere:
		cond, err := e.operandBool(n.args[0])
		if err != nil {
			return err
		}
		x, err := operandTyped[T](e, n.args[1], dt)
		if err != nil {
			return err
		}
		y, err := operandTyped[T](e, n.args[2], dt)
		if err != nil {
			return err
		}
		for i := range dst {
			if at(cond, i) != 0 {
				dst[i] = at(x, i)
			} else {
				dst[i] = at(y, i)
			}
		}
		return nil

	case OpComma:
		if err := e.evalChild(n.args[0]); err != nil {
			return err
		}
		b, err := operandTyped[T](e, n.args[1], dt)
		if err != nil {
			return err
		}
		unaryEach(dst, b, func(x T) T { return x })
		return nil
	}

	if f, ok := unaryKernel[n.op]; ok {
		return unaryMath[T](e, n, dst, f)
	}
	if f, ok := binaryKernel[n.op]; ok {
		return binaryMath[T](e, n, dst, f)
	}
	return evalErrf(EvalInvalidArg, "operator %s on dtype %s", n.op, n.dtype)
}

func at[T any](o operand[T], i int) T {
	if o.vals != nil {
		return o.vals[i]
	}
	return o.scalar
}

// unaryMath routes a pointwise function through the kernel provider.
// float64 and float32 vectors hit the vectorized paths (and the joint
// sin/cos cache); every other dtype round-trips through float64.
func unaryMath[T realScalar](e *evalContext, n *Node, dst []T, f kernel.Func) error {
	dt := n.dtype
	a, err := operandTyped[T](e, n.args[0], dt)
	if err != nil {
		return err
	}
	switch {
	case dt == Float64 && a.vals != nil:
		e.kc.Map64(f, any(dst).([]float64), any(a.vals).([]float64))
	case dt == Float32 && a.vals != nil:
		e.kc.Map32(f, any(dst).([]float32), any(a.vals).([]float32))
	default:
		fn := kernel.Scalar64(f)
		unaryEach(dst, a, func(x T) T { return T(fn(float64(x))) })
	}
	return nil
}

func binaryMath[T realScalar](e *evalContext, n *Node, dst []T, f kernel.Func2) error {
	dt := n.dtype
	a, err := operandTyped[T](e, n.args[0], dt)
	if err != nil {
		return err
	}
	b, err := operandTyped[T](e, n.args[1], dt)
	if err != nil {
		return err
	}
	if dt == Float64 && a.vals != nil && b.vals != nil {
		e.kc.Zip64(f, any(dst).([]float64), any(a.vals).([]float64), any(b.vals).([]float64))
		return nil
	}
	fn := kernel.Scalar2(f)
	binaryEach(dst, a, b, func(x, y T) T { return T(fn(float64(x), float64(y))) })
	return nil
}

// evalConvert writes the single argument into n.out under the node's
// dtype.
func (e *evalContext) evalConvert(n *Node) error {
	arg := n.args[0]
	switch arg.kind {
	case nodeConst:
		broadcastScalar(n.out, n.dtype, convertScalar(arg.value, n.inputDType), e.nitems)
		return nil
	case nodeVar:
		convertBuf(n.out, n.dtype, e.inputs[arg.slot], arg.dtype, e.nitems)
		return nil
	case nodeCall:
		if err := e.evalChild(arg); err != nil {
			return err
		}
		convertBuf(n.out, n.dtype, arg.out, arg.dtype, e.nitems)
		return nil
	}
	return evalErrf(EvalInvalidArg, "cannot convert string data to %s", n.dtype)
}

// complexToReal handles abs, real and imag over a complex argument.
// The node dtype is already the narrowed float type.
func complexToReal[T realScalar](e *evalContext, n *Node, dst []T) error {
	arg := n.args[0]
	if arg.dtype == Complex64 {
		a, err := operandComplex[complex64](e, arg)
		if err != nil {
			return err
		}
		for i := range dst {
			dst[i] = T(complexPart(complex128(at(a, i)), n.op))
		}
		return nil
	}
	a, err := operandComplex[complex128](e, arg)
	if err != nil {
		return err
	}
	for i := range dst {
		dst[i] = T(complexPart(at(a, i), n.op))
	}
	return nil
}

func complexPart(v complex128, op Op) float64 {
	switch op {
	case OpReal:
		return real(v)
	case OpImag:
		return imag(v)
	}
	return cmplx.Abs(v)
}

func operandComplex[T complex64 | complex128](e *evalContext, arg *Node) (operand[T], error) {
	var zero T
	dt := Complex64
	if _, ok := any(zero).(complex128); ok {
		dt = Complex128
	}
	switch arg.kind {
	case nodeConst:
		return operand[T]{scalar: T(arg.value)}, nil
	case nodeVar:
		return complexView[T](e, e.inputs[arg.slot], arg.dtype, dt), nil
	case nodeCall:
		if err := e.evalChild(arg); err != nil {
			return operand[T]{}, err
		}
		return complexView[T](e, arg.out, arg.dtype, dt), nil
	}
	return operand[T]{}, evalErrf(EvalInvalidArg, "string operand in numeric context")
}

func complexView[T complex64 | complex128](e *evalContext, buf []byte, from, to DType) operand[T] {
	if from == to {
		return operand[T]{vals: viewOf[T](buf, e.nitems)}
	}
	tmp := allocBuf(to, e.nitems)
	convertBuf(tmp, to, buf, from, e.nitems)
	return operand[T]{vals: viewOf[T](tmp, e.nitems)}
}

// evalComplex covers the complex-capable operator subset. pow and sqrt
// always compute in complex128 and narrow at the end for complex64.
func evalComplex[T complex64 | complex128](e *evalContext, n *Node) error {
	dst := viewOf[T](n.out, e.nitems)

	switch n.op {
	case OpConvert:
		return e.evalConvert(n)

	case OpAdd, OpSub, OpMul, OpDiv:
		a, err := operandComplex[T](e, n.args[0])
		if err != nil {
			return err
		}
		b, err := operandComplex[T](e, n.args[1])
		if err != nil {
			return err
		}
		switch n.op {
		case OpAdd:
			binaryEach(dst, a, b, func(x, y T) T { return x + y })
		case OpSub:
			binaryEach(dst, a, b, func(x, y T) T { return x - y })
		case OpMul:
			binaryEach(dst, a, b, func(x, y T) T { return x * y })
		case OpDiv:
			binaryEach(dst, a, b, func(x, y T) T { return x / y })
		}
		return nil

	case OpPow:
		a, err := operandComplex[T](e, n.args[0])
		if err != nil {
			return err
		}
		b, err := operandComplex[T](e, n.args[1])
		if err != nil {
			return err
		}
		binaryEach(dst, a, b, func(x, y T) T {
			return T(cmplx.Pow(complex128(x), complex128(y)))
		})
		return nil

	case OpNeg:
		a, err := operandComplex[T](e, n.args[0])
		if err != nil {
			return err
		}
		unaryEach(dst, a, func(x T) T { return -x })
		return nil

	case OpSqrt:
		a, err := operandComplex[T](e, n.args[0])
		if err != nil {
			return err
		}
		unaryEach(dst, a, func(x T) T { return T(cmplx.Sqrt(complex128(x))) })
		return nil

	case OpConj:
		a, err := operandComplex[T](e, n.args[0])
		if err != nil {
			return err
		}
		unaryEach(dst, a, func(x T) T {
			v := complex128(x)
			return T(complex(real(v), -imag(v)))
		})
		return nil

	case OpWhere:
		cond, err := e.operandBool(n.args[0])
		if err != nil {
			return err
		}
		x, err := operandComplex[T](e, n.args[1])
		if err != nil {
			return err
		}
		y, err := operandComplex[T](e, n.args[2])
		if err != nil {
			return err
		}
		for i := range dst {
			if at(cond, i) != 0 {
				dst[i] = at(x, i)
			} else {
				dst[i] = at(y, i)
			}
		}
		return nil

	case OpComma:
		if err := e.evalChild(n.args[0]); err != nil {
			return err
		}
		b, err := operandComplex[T](e, n.args[1])
		if err != nil {
			return err
		}
		unaryEach(dst, b, func(x T) T { return x })
		return nil
	}
	return evalErrf(EvalInvalidArg, "operator %s on dtype %s", n.op, n.dtype)
}
