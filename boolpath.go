// Copyright (c) 2026 WJQserver, Kamihama Railway Group. All rights reserved.
// Licensed under the GNU Affero General Public License, version 3.0 (the "AGPL").

package arrex

// evalBool evaluates a call node whose dtype is bool: comparisons,
// logical operators and the string predicates. Arithmetic nodes can
// also land here when an explicit bool output dtype forces the root;
// those compute in their natural promoted dtype first and collapse to
// a zero test.
func (e *evalContext) evalBool(n *Node, out []byte) error {
	dst := viewOf[uint8](out, e.nitems)

	switch {
	case n.op.isComparison():
		return e.compareInto(n, out)
	case n.op.isStringPred():
		return e.evalStringPred(n, dst)
	}

	switch n.op {
	case OpConvert:
		save := n.out
		n.out = out
		err := e.evalConvert(n)
		n.out = save
		return err

	case OpLogAnd, OpLogOr, OpLogXor:
		a, err := e.operandBool(n.args[0])
		if err != nil {
			return err
		}
		b, err := e.operandBool(n.args[1])
		if err != nil {
			return err
		}
		switch n.op {
		case OpLogAnd:
			binaryEach(dst, a, b, func(x, y uint8) uint8 { return b2u(x != 0 && y != 0) })
		case OpLogOr:
			binaryEach(dst, a, b, func(x, y uint8) uint8 { return b2u(x != 0 || y != 0) })
		case OpLogXor:
			binaryEach(dst, a, b, func(x, y uint8) uint8 { return b2u((x != 0) != (y != 0)) })
		}
		return nil

	case OpLogNot:
		a, err := e.operandBool(n.args[0])
		if err != nil {
			return err
		}
		unaryEach(dst, a, func(x uint8) uint8 { return b2u(x == 0) })
		return nil

	case OpWhere:
		cond, err := e.operandBool(n.args[0])
		if err != nil {
			return err
		}
		x, err := e.operandBool(n.args[1])
		if err != nil {
			return err
		}
		y, err := e.operandBool(n.args[2])
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
		b, err := e.operandBool(n.args[1])
		if err != nil {
			return err
		}
		unaryEach(dst, b, func(x uint8) uint8 { return x })
		return nil
	}

	// Forced-bool arithmetic: evaluate in the operands' promoted dtype
	// and reduce to truthiness.
	cd := Bool
	for _, arg := range n.args {
		cd = promote(cd, arg.dtype)
	}
	if cd == Bool {
		cd = Uint8
	}
	shadow := *n
	shadow.dtype = cd
	shadow.out = allocBuf(cd, e.nitems)
	if err := e.evalNode(&shadow); err != nil {
		return err
	}
	convertBuf(out, Bool, shadow.out, cd, e.nitems)
	return nil
}

// operandBool materializes arg as a 0/1 vector or scalar, converting
// from its natural dtype when needed.
func (e *evalContext) operandBool(arg *Node) (operand[uint8], error) {
	switch arg.kind {
	case nodeConst:
		return operand[uint8]{scalar: b2u(arg.value != 0)}, nil
	case nodeVar:
		return e.boolView(e.inputs[arg.slot], arg.dtype), nil
	case nodeCall:
		if err := e.evalChild(arg); err != nil {
			return operand[uint8]{}, err
		}
		return e.boolView(arg.out, arg.dtype), nil
	}
	return operand[uint8]{}, evalErrf(EvalInvalidArg, "string operand in boolean context")
}

func (e *evalContext) boolView(buf []byte, from DType) operand[uint8] {
	if from == Bool {
		return operand[uint8]{vals: viewOf[uint8](buf, e.nitems)}
	}
	tmp := allocBuf(Bool, e.nitems)
	convertBuf(tmp, Bool, buf, from, e.nitems)
	return operand[uint8]{vals: viewOf[uint8](tmp, e.nitems)}
}

// compareInto evaluates a comparison node into a bool buffer. Numeric
// comparisons run in the promoted dtype of the two operands; string
// equality compares code points item by item.
func (e *evalContext) compareInto(n *Node, out []byte) error {
	l, r := n.args[0], n.args[1]
	if isStringNode(l) || isStringNode(r) {
		return e.compareStrings(n, viewOf[uint8](out, e.nitems))
	}
	cd := promote(l.dtype, r.dtype)
	switch cd {
	case Bool:
		return compareTyped[uint8](e, n, out, Bool)
	case Int8:
		return compareTyped[int8](e, n, out, cd)
	case Int16:
		return compareTyped[int16](e, n, out, cd)
	case Int32:
		return compareTyped[int32](e, n, out, cd)
	case Int64:
		return compareTyped[int64](e, n, out, cd)
	case Uint8:
		return compareTyped[uint8](e, n, out, cd)
	case Uint16:
		return compareTyped[uint16](e, n, out, cd)
	case Uint32:
		return compareTyped[uint32](e, n, out, cd)
	case Uint64:
		return compareTyped[uint64](e, n, out, cd)
	case Float32:
		return compareTyped[float32](e, n, out, cd)
	case Float64:
		return compareTyped[float64](e, n, out, cd)
	}
	return evalErrf(EvalInvalidArg, "comparison on dtype %s", cd)
}

func compareTyped[T realScalar](e *evalContext, n *Node, out []byte, cd DType) error {
	a, err := operandTyped[T](e, n.args[0], cd)
	if err != nil {
		return err
	}
	b, err := operandTyped[T](e, n.args[1], cd)
	if err != nil {
		return err
	}
	dst := viewOf[uint8](out, e.nitems)
	var f func(T, T) uint8
	switch n.op {
	case OpLt:
		f = func(x, y T) uint8 { return b2u(x < y) }
	case OpLe:
		f = func(x, y T) uint8 { return b2u(x <= y) }
	case OpGt:
		f = func(x, y T) uint8 { return b2u(x > y) }
	case OpGe:
		f = func(x, y T) uint8 { return b2u(x >= y) }
	case OpEq:
		f = func(x, y T) uint8 { return b2u(x == y) }
	case OpNe:
		f = func(x, y T) uint8 { return b2u(x != y) }
	}
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
	return nil
}
