// Copyright (c) 2026 WJQserver, Kamihama Railway Group. All rights reserved.
// Licensed under the GNU Affero General Public License, version 3.0 (the "AGPL").

package arrex

// Fold rewrites the tree in place: constant subtrees made of pure
// operators collapse into single constant nodes, and small integer
// powers become multiplication chains. Reductions are never folded,
// their result depends on the number of items evaluated.
func Fold(n *Node) {
	if n == nil || n.kind != nodeCall {
		return
	}
	for _, arg := range n.args {
		Fold(arg)
	}

	// x**2 and x**3 cost far less as multiplications. The rewrite
	// happens after child folding so literal exponents produced by
	// folding still qualify.
	if n.op == OpPow && n.args[1].isConstScalar() && !n.dtype.isComplex() {
		switch n.args[1].fval() {
		case 2:
			n.op = OpMul
			n.args = []*Node{n.args[0], n.args[0].clone()}
			return
		case 3:
			inner := newCall(OpMul, n.args[0], n.args[0].clone())
			inner.dtype = n.dtype
			n.op = OpMul
			n.args = []*Node{inner, n.args[0].clone()}
			return
		}
	}

	if !n.op.isPure() {
		return
	}
	for _, arg := range n.args {
		if !arg.isConstScalar() {
			return
		}
	}
	v := evalScalarNode(n)
	n.kind = nodeConst
	n.value = v
	n.op = OpNone
	n.args = nil
}
