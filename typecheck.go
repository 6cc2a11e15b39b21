// Copyright (c) 2026 WJQserver, Kamihama Railway Group. All rights reserved.
// Licensed under the GNU Affero General Public License, version 3.0 (the "AGPL").

package arrex

// applyBinaryPromotion stores the promoted computation dtype on a
// binary operator node and wraps nested subexpression children whose
// dtype differs. Variable and constant children are left alone; the
// evaluator widens those on the fly.
func applyBinaryPromotion(n *Node) {
	if len(n.args) < 2 {
		return
	}
	left, right := n.args[0], n.args[1]
	promoted := promote(left.dtype, right.dtype)
	n.dtype = promoted

	if left.dtype != promoted && left.kind == nodeCall {
		n.args[0] = newConvert(left, promoted)
	}
	if right.dtype != promoted && right.kind == nodeCall {
		n.args[1] = newConvert(right, promoted)
	}
}

// promoteLogicalBool rewrites a bitwise operator into its logical
// counterpart when the operands promoted to bool. On bool data & | ^ ~
// mean and/or/xor/not.
func promoteLogicalBool(n *Node) {
	if n == nil || n.dtype != Bool {
		return
	}
	switch n.op {
	case OpBitAnd:
		n.op = OpLogAnd
	case OpBitOr:
		n.op = OpLogOr
	case OpBitXor:
		n.op = OpLogXor
	case OpBitNot:
		n.op = OpLogNot
	}
}

// inferCallDType derives the output dtype of a builtin call from its
// argument dtypes.
func inferCallDType(n *Node) DType {
	op := n.op
	switch {
	case op.isReduction():
		return reductionOutputDType(op, n.args[0].dtype)

	case op == OpReal || op == OpImag || op == OpAbs:
		// Complex magnitude and component extraction narrow to the
		// real dtype of the same width.
		switch d := n.args[0].dtype; d {
		case Complex64:
			return Float32
		case Complex128:
			return Float64
		default:
			return d
		}

	case op == OpWhere:
		return promote(n.args[1].dtype, n.args[2].dtype)

	case op.is(opFloatMath) && op.arity() == 1:
		return promoteFloatMathResult(n.args[0].dtype)

	case op.isStringPred():
		return Bool
	}

	d := Bool
	for _, a := range n.args {
		d = promote(d, a.dtype)
	}
	return d
}

func isStringNode(n *Node) bool {
	return n != nil && (n.kind == nodeString || n.dtype == StringT)
}

// validateReductions checks that no reduction is nested inside another
// reduction's argument and that min/max are not applied to complex
// data (complex values have no total order).
func validateReductions(n *Node) bool {
	if n == nil {
		return true
	}
	if n.kind == nodeCall && n.op.isReduction() {
		arg := n.args[0]
		if arg.containsReduction() {
			return false
		}
		if (n.op == OpMin || n.op == OpMax) && arg.dtype.isComplex() {
			return false
		}
		return true
	}
	for _, a := range n.args {
		if !validateReductions(a) {
			return false
		}
	}
	return true
}

// validateStringUsage enforces where string operands may appear:
// as both arguments of a string predicate, or on both sides of == and
// !=. Everything else, including a string-typed final result, is
// rejected.
func validateStringUsage(root *Node) bool {
	if !stringUsageValid(root) {
		return false
	}
	return root.dtype != StringT
}

func stringUsageValid(n *Node) bool {
	if n == nil {
		return true
	}
	if isStringNode(n) {
		return true
	}
	if n.kind != nodeCall {
		return true
	}

	if n.op.isReduction() && n.args[0].containsString() {
		return false
	}

	if n.op.isStringPred() {
		return len(n.args) == 2 && isStringNode(n.args[0]) && isStringNode(n.args[1])
	}

	if n.op.isComparison() {
		ls, rs := isStringNode(n.args[0]), isStringNode(n.args[1])
		if ls || rs {
			if !ls || !rs {
				return false
			}
			return n.op == OpEq || n.op == OpNe
		}
	}

	for _, a := range n.args {
		if isStringNode(a) {
			return false
		}
		if !stringUsageValid(a) {
			return false
		}
	}
	return true
}

func hasComplexInput(n *Node) bool {
	if n == nil {
		return false
	}
	if n.dtype.isComplex() {
		return true
	}
	if n.op == OpConvert && n.inputDType.isComplex() {
		return true
	}
	for _, a := range n.args {
		if hasComplexInput(a) {
			return true
		}
	}
	return false
}

// validateComplexUsage rejects operations that are meaningless or
// unimplemented on complex operands. Only the arithmetic operators,
// sqrt, conj, real, imag, abs, negation and the reductions are defined
// for complex data.
func validateComplexUsage(n *Node) bool {
	if n == nil {
		return true
	}
	if n.kind == nodeCall && !complexSupported(n) {
		return false
	}
	for _, a := range n.args {
		if !validateComplexUsage(a) {
			return false
		}
	}
	return true
}

func complexSupported(n *Node) bool {
	if n.op.isReduction() {
		return true
	}
	if n.op.isComparison() {
		return false
	}
	return n.op.is(opComplexOK)
}
