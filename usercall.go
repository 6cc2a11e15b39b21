// Copyright (c) 2026 WJQserver, Kamihama Railway Group. All rights reserved.
// Licensed under the GNU Affero General Public License, version 3.0 (the "AGPL").

package arrex

// adaptUserFn normalizes a caller-supplied function into the uniform
// slice-calling form the evaluator uses. Plain functions and closures
// bind the same way; a closure carries its state in its captured
// environment. Accepted shapes take zero through seven float64
// parameters and return one float64.
func adaptUserFn(fn any) (func([]float64) float64, int, bool) {
	switch f := fn.(type) {
	case func() float64:
		return func([]float64) float64 { return f() }, 0, true
	case func(float64) float64:
		return func(a []float64) float64 { return f(a[0]) }, 1, true
	case func(float64, float64) float64:
		return func(a []float64) float64 { return f(a[0], a[1]) }, 2, true
	case func(float64, float64, float64) float64:
		return func(a []float64) float64 { return f(a[0], a[1], a[2]) }, 3, true
	case func(float64, float64, float64, float64) float64:
		return func(a []float64) float64 { return f(a[0], a[1], a[2], a[3]) }, 4, true
	case func(float64, float64, float64, float64, float64) float64:
		return func(a []float64) float64 { return f(a[0], a[1], a[2], a[3], a[4]) }, 5, true
	case func(float64, float64, float64, float64, float64, float64) float64:
		return func(a []float64) float64 { return f(a[0], a[1], a[2], a[3], a[4], a[5]) }, 6, true
	case func(float64, float64, float64, float64, float64, float64, float64) float64:
		return func(a []float64) float64 { return f(a[0], a[1], a[2], a[3], a[4], a[5], a[6]) }, 7, true
	}
	return nil, 0, false
}

// evalUserCall applies a caller-supplied function item by item. The
// arguments widen to float64 first; a root whose dtype was forced away
// from float64 computes into scratch and converts out.
func (e *evalContext) evalUserCall(n *Node) error {
	ops := make([]operand[float64], len(n.args))
	for i, arg := range n.args {
		op, err := operandTyped[float64](e, arg, Float64)
		if err != nil {
			return err
		}
		ops[i] = op
	}

	out := n.out
	if n.dtype != Float64 {
		out = allocBuf(Float64, e.nitems)
	}
	dst := viewOf[float64](out, e.nitems)
	argv := make([]float64, len(ops))
	for i := range dst {
		for j := range ops {
			argv[j] = at(ops[j], i)
		}
		dst[i] = n.fn(argv)
	}
	if n.dtype != Float64 {
		convertBuf(n.out, n.dtype, out, Float64, e.nitems)
	}
	return nil
}
