// Copyright (c) 2026 WJQserver, Kamihama Railway Group. All rights reserved.
// Licensed under the GNU Affero General Public License, version 3.0 (the "AGPL").

package arrex

import (
	"fmt"
	"strings"
)

// Op is the closed set of operators and builtin functions a compiled
// tree can reference. Identifying operations by enum rather than by
// function value keeps cloning and equality checks trivial.
type Op uint8

const (
	OpNone Op = iota

	// Arithmetic and bitwise operators.
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpNeg
	OpBitAnd
	OpBitOr
	OpBitXor
	OpBitNot
	OpShl
	OpShr

	// Logical operators. The bitwise forms specialize to these when
	// both operands are bool.
	OpLogAnd
	OpLogOr
	OpLogXor
	OpLogNot

	// Comparisons. Output dtype is always bool.
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpNe

	// OpConvert casts its single child from inputDType to dtype.
	OpConvert

	// OpComma evaluates both operands and yields the right one.
	OpComma

	// Unary math builtins.
	OpAbs
	OpAcos
	OpAcosh
	OpAsin
	OpAsinh
	OpAtan
	OpAtanh
	OpCbrt
	OpCeil
	OpConj
	OpCos
	OpCosh
	OpCospi
	OpErf
	OpErfc
	OpExp
	OpExp10
	OpExp2
	OpExpm1
	OpFac
	OpFloor
	OpImag
	OpLgamma
	OpLog
	OpLog10
	OpLog1p
	OpLog2
	OpReal
	OpRint
	OpRound
	OpSign
	OpSin
	OpSinh
	OpSinpi
	OpSqrt
	OpSquare
	OpTan
	OpTanh
	OpTgamma
	OpTrunc

	// Binary math builtins.
	OpAtan2
	OpCopysign
	OpFdim
	OpFmax
	OpFmin
	OpFmod
	OpHypot
	OpLdexp
	OpLogaddexp
	OpNcr
	OpNextafter
	OpNpr
	OpRemainder

	// Ternary builtins.
	OpFma
	OpWhere

	// String predicates.
	OpContains
	OpStartsWith
	OpEndsWith

	// OpUserCall invokes a caller-supplied function bound through a
	// Variable. Not in opTable beyond its name: the arity lives in the
	// node and no flag applies, so it never folds and complex operands
	// are rejected.
	OpUserCall

	// Reductions. Impure: the optimizer never folds them and the
	// evaluator never block-chunks a tree that contains one.
	OpSum
	OpProd
	OpMean
	OpMin
	OpMax
	OpAny
	OpAll

	opCount
)

type opFlags uint8

const (
	opPure opFlags = 1 << iota
	opReduction
	opComparison
	opFloatMath  // output promotes via promoteFloatMathResult
	opComplexOK  // permitted when operands are complex
	opStringPred // string predicate, bool output
)

type opInfo struct {
	name  string
	arity int
	flags opFlags
}

var opTable = [opCount]opInfo{
	OpAdd:    {"+", 2, opPure | opComplexOK},
	OpSub:    {"-", 2, opPure | opComplexOK},
	OpMul:    {"*", 2, opPure | opComplexOK},
	OpDiv:    {"/", 2, opPure | opComplexOK},
	OpMod:    {"%", 2, opPure},
	OpPow:    {"**", 2, opPure | opComplexOK},
	OpNeg:    {"neg", 1, opPure | opComplexOK},
	OpBitAnd: {"&", 2, opPure},
	OpBitOr:  {"|", 2, opPure},
	OpBitXor: {"^", 2, opPure},
	OpBitNot: {"~", 1, opPure},
	OpShl:    {"<<", 2, opPure},
	OpShr:    {">>", 2, opPure},

	OpLogAnd: {"&&", 2, opPure},
	OpLogOr:  {"||", 2, opPure},
	OpLogXor: {"^^", 2, opPure},
	OpLogNot: {"!", 1, opPure},

	OpLt: {"<", 2, opPure | opComparison},
	OpLe: {"<=", 2, opPure | opComparison},
	OpGt: {">", 2, opPure | opComparison},
	OpGe: {">=", 2, opPure | opComparison},
	OpEq: {"==", 2, opPure | opComparison},
	OpNe: {"!=", 2, opPure | opComparison},

	OpConvert: {"convert", 1, opPure | opComplexOK},
	OpComma:   {",", 2, opPure | opComplexOK},

	OpAbs:    {"abs", 1, opPure | opComplexOK},
	OpAcos:   {"acos", 1, opPure | opFloatMath},
	OpAcosh:  {"acosh", 1, opPure | opFloatMath},
	OpAsin:   {"asin", 1, opPure | opFloatMath},
	OpAsinh:  {"asinh", 1, opPure | opFloatMath},
	OpAtan:   {"atan", 1, opPure | opFloatMath},
	OpAtanh:  {"atanh", 1, opPure | opFloatMath},
	OpCbrt:   {"cbrt", 1, opPure | opFloatMath},
	OpCeil:   {"ceil", 1, opPure},
	OpConj:   {"conj", 1, opPure | opComplexOK},
	OpCos:    {"cos", 1, opPure | opFloatMath},
	OpCosh:   {"cosh", 1, opPure | opFloatMath},
	OpCospi:  {"cospi", 1, opPure | opFloatMath},
	OpErf:    {"erf", 1, opPure | opFloatMath},
	OpErfc:   {"erfc", 1, opPure | opFloatMath},
	OpExp:    {"exp", 1, opPure | opFloatMath},
	OpExp10:  {"exp10", 1, opPure | opFloatMath},
	OpExp2:   {"exp2", 1, opPure | opFloatMath},
	OpExpm1:  {"expm1", 1, opPure | opFloatMath},
	OpFac:    {"fac", 1, opPure},
	OpFloor:  {"floor", 1, opPure},
	OpImag:   {"imag", 1, opPure | opComplexOK},
	OpLgamma: {"lgamma", 1, opPure | opFloatMath},
	OpLog:    {"log", 1, opPure | opFloatMath},
	OpLog10:  {"log10", 1, opPure | opFloatMath},
	OpLog1p:  {"log1p", 1, opPure | opFloatMath},
	OpLog2:   {"log2", 1, opPure | opFloatMath},
	OpReal:   {"real", 1, opPure | opComplexOK},
	OpRint:   {"rint", 1, opPure},
	OpRound:  {"round", 1, opPure},
	OpSign:   {"sign", 1, opPure},
	OpSin:    {"sin", 1, opPure | opFloatMath},
	OpSinh:   {"sinh", 1, opPure | opFloatMath},
	OpSinpi:  {"sinpi", 1, opPure | opFloatMath},
	OpSqrt:   {"sqrt", 1, opPure | opFloatMath | opComplexOK},
	OpSquare: {"square", 1, opPure},
	OpTan:    {"tan", 1, opPure | opFloatMath},
	OpTanh:   {"tanh", 1, opPure | opFloatMath},
	OpTgamma: {"tgamma", 1, opPure | opFloatMath},
	OpTrunc:  {"trunc", 1, opPure},

	OpAtan2:     {"atan2", 2, opPure},
	OpCopysign:  {"copysign", 2, opPure},
	OpFdim:      {"fdim", 2, opPure},
	OpFmax:      {"fmax", 2, opPure},
	OpFmin:      {"fmin", 2, opPure},
	OpFmod:      {"fmod", 2, opPure},
	OpHypot:     {"hypot", 2, opPure},
	OpLdexp:     {"ldexp", 2, opPure},
	OpLogaddexp: {"logaddexp", 2, opPure},
	OpNcr:       {"ncr", 2, opPure},
	OpNextafter: {"nextafter", 2, opPure},
	OpNpr:       {"npr", 2, opPure},
	OpRemainder: {"remainder", 2, opPure},

	OpFma:   {"fma", 3, opPure},
	OpWhere: {"where", 3, opPure},

	OpContains:   {"contains", 2, opPure | opStringPred},
	OpStartsWith: {"startswith", 2, opPure | opStringPred},
	OpEndsWith:   {"endswith", 2, opPure | opStringPred},

	OpUserCall: {"usercall", 0, 0},

	OpSum:  {"sum", 1, opReduction},
	OpProd: {"prod", 1, opReduction},
	OpMean: {"mean", 1, opReduction},
	OpMin:  {"min", 1, opReduction},
	OpMax:  {"max", 1, opReduction},
	OpAny:  {"any", 1, opReduction},
	OpAll:  {"all", 1, opReduction},
}

func (op Op) String() string {
	if op < opCount && opTable[op].name != "" {
		return opTable[op].name
	}
	return fmt.Sprintf("op(%d)", uint8(op))
}

func (op Op) arity() int         { return opTable[op].arity }
func (op Op) is(f opFlags) bool  { return opTable[op].flags&f != 0 }
func (op Op) isPure() bool       { return op.is(opPure) }
func (op Op) isReduction() bool  { return op.is(opReduction) }
func (op Op) isComparison() bool { return op.is(opComparison) }
func (op Op) isStringPred() bool { return op.is(opStringPred) }

type nodeKind uint8

const (
	nodeConst nodeKind = iota
	nodeString
	nodeVar
	nodeCall
)

type nodeFlags uint8

const (
	// flagStringChecked marks the string containment memo as valid; the
	// answer itself lives in flagHasString.
	flagStringChecked nodeFlags = 1 << iota
	flagHasString
)

// Node is a typed expression tree node. Constants store their value as
// complex128 regardless of dtype; the dtype decides how much of it the
// evaluator reads back out.
type Node struct {
	kind       nodeKind
	op         Op
	dtype      DType
	inputDType DType // conversion source, set only when op == OpConvert
	flags      nodeFlags

	value complex128
	str   []rune // UCS-4 code points of a string literal
	slot  int    // input buffer ordinal

	// Caller-supplied function, set only when op == OpUserCall. fn is
	// the adapted uniform form; fname keeps the bound name for dumps.
	fn    func([]float64) float64
	fname string

	args []*Node

	// Transient per-evaluation state. Only clones carry live buffers.
	out    []byte
	nitems int
}

func newConst(v float64) *Node {
	return &Node{kind: nodeConst, dtype: Float64, value: complex(v, 0)}
}

func newConstTyped(v complex128, dtype DType) *Node {
	return &Node{kind: nodeConst, dtype: dtype, value: v}
}

func newVarNode(slot int, dtype DType) *Node {
	return &Node{kind: nodeVar, slot: slot, dtype: dtype}
}

func newCall(op Op, args ...*Node) *Node {
	return &Node{kind: nodeCall, op: op, args: args}
}

// newUserCall builds a call to a caller-supplied function. User
// functions compute on float64 whatever the argument dtypes, so the
// node dtype is always float64.
func newUserCall(name string, fn func([]float64) float64, args []*Node) *Node {
	return &Node{
		kind:  nodeCall,
		op:    OpUserCall,
		dtype: Float64,
		fn:    fn,
		fname: name,
		args:  args,
	}
}

// newConvert wraps child so its values are widened (or narrowed) from
// the child's dtype into to before the parent consumes them.
func newConvert(child *Node, to DType) *Node {
	return &Node{
		kind:       nodeCall,
		op:         OpConvert,
		dtype:      to,
		inputDType: child.dtype,
		args:       []*Node{child},
	}
}

func (n *Node) fval() float64 { return real(n.value) }

func (n *Node) isConstScalar() bool { return n.kind == nodeConst }

// containsReduction reports whether any node in the subtree is a
// reduction. The answer decides both folding and block-chunking.
func (n *Node) containsReduction() bool {
	if n == nil {
		return false
	}
	if n.kind == nodeCall && n.op.isReduction() {
		return true
	}
	for _, a := range n.args {
		if a.containsReduction() {
			return true
		}
	}
	return false
}

// containsString reports whether the subtree references string data.
// Memoized in the node flags since the evaluator asks on every call.
func (n *Node) containsString() bool {
	if n == nil {
		return false
	}
	if n.flags&flagStringChecked != 0 {
		return n.flags&flagHasString != 0
	}
	has := n.kind == nodeString || n.dtype == StringT
	if !has {
		for _, a := range n.args {
			if a.containsString() {
				has = true
				break
			}
		}
	}
	n.flags |= flagStringChecked
	if has {
		n.flags |= flagHasString
	}
	return has
}

// describe writes an indented tree dump, one node per line.
func (n *Node) describe(sb *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		sb.WriteString("  ")
	}
	switch n.kind {
	case nodeConst:
		if n.dtype.isComplex() {
			fmt.Fprintf(sb, "const %v %s\n", n.value, n.dtype)
		} else {
			fmt.Fprintf(sb, "const %v %s\n", real(n.value), n.dtype)
		}
	case nodeString:
		fmt.Fprintf(sb, "string %q\n", string(n.str))
	case nodeVar:
		fmt.Fprintf(sb, "var #%d %s\n", n.slot, n.dtype)
	case nodeCall:
		if n.op == OpConvert {
			fmt.Fprintf(sb, "convert %s -> %s\n", n.inputDType, n.dtype)
		} else if n.op == OpUserCall {
			fmt.Fprintf(sb, "call %s/%d %s\n", n.fname, len(n.args), n.dtype)
		} else {
			fmt.Fprintf(sb, "call %s %s\n", n.op, n.dtype)
		}
	}
	for _, a := range n.args {
		a.describe(sb, depth+1)
	}
}
