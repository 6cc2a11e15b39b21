// Copyright (c) 2026 WJQserver, Kamihama Railway Group. All rights reserved.
// Licensed under the GNU Affero General Public License, version 3.0 (the "AGPL").

package arrex

// Bindings maps variable names to their input buffers, for callers
// that prefer name-based binding over declaration order.
type Bindings map[string][]byte

// Bind resolves the bindings into the positional input slice Eval
// expects. Every array variable must be present; function bindings
// take no buffer and extra names are rejected so typos do not silently
// evaluate garbage.
func (ex *Expr) Bind(b Bindings) ([][]byte, error) {
	if len(b) != len(ex.dataVars) {
		return nil, evalErrf(EvalVarMismatch, "%d bindings for %d variables", len(b), len(ex.dataVars))
	}
	inputs := make([][]byte, len(ex.dataVars))
	for i, v := range ex.dataVars {
		buf, ok := b[v.Name]
		if !ok {
			return nil, evalErrf(EvalVarMismatch, "no binding for variable %q", v.Name)
		}
		inputs[i] = buf
	}
	return inputs, nil
}
