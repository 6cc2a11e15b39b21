package arrex

// EvalFloat64 compiles and evaluates an expression over float64 slices
// in one call. All inputs must share the same length; the result is a
// freshly allocated slice of that length. Convenient for small jobs
// and tests; compile once and reuse the Expr for hot paths.
func EvalFloat64(expression string, vars map[string][]float64) ([]float64, error) {
	decls := make([]Variable, 0, len(vars))
	nitems := -1
	for name, vals := range vars {
		decls = append(decls, Variable{Name: name, DType: Float64})
		if nitems >= 0 && len(vals) != nitems {
			return nil, evalErrf(EvalInvalidArg, "input %q has %d items, want %d", name, len(vals), nitems)
		}
		nitems = len(vals)
	}
	if nitems < 0 {
		nitems = 0
	}

	ex, err := Compile(expression, decls, Float64)
	if err != nil {
		return nil, err
	}

	inputs := make([][]byte, len(decls))
	for i, d := range decls {
		inputs[i] = bytesOf(vars[d.Name], nitems)
	}
	out := make([]float64, nitems)
	if err := ex.Eval(inputs, bytesOf(out, nitems), nitems, nil); err != nil {
		return nil, err
	}
	return out, nil
}
