// Copyright (c) 2026 WJQserver, Kamihama Railway Group. All rights reserved.
// Licensed under the GNU Affero General Public License, version 3.0 (the "AGPL").

package arrex

import (
	"github.com/kamihama-railway/arrex/kernel"
)

const (
	// MaxVars bounds the number of inputs one expression may bind.
	MaxVars = 128

	// blockItems is the chunk length of the blocked evaluation loop.
	// Intermediate buffers stay this size so deep expressions remain
	// cache-resident regardless of the total item count.
	blockItems = 4096
)

// EvalOptions tunes one evaluation. The zero value selects the
// detected kernel tier and default precision.
type EvalOptions struct {
	// DisableSIMD pins the kernel provider to the scalar tier.
	DisableSIMD bool

	// Precision selects the accuracy contract for the float32
	// transcendental kernels.
	Precision kernel.Precision
}

// Program is an alternative execution backend for a compiled
// expression, for callers that lower the tree to their own
// representation.
type Program interface {
	Run(inputs [][]byte, output []byte, nitems int) error
}

// Eval runs the expression over nitems items. inputs holds one buffer
// per array variable, in declaration order, skipping function
// bindings; output receives the
// result in the expression's dtype. The expression itself is not
// mutated, concurrent Eval calls on one Expr are safe.
//
// Evaluation proceeds in blocks of 4096 items unless the expression
// contains a reduction, which needs the full span at once.
func (ex *Expr) Eval(inputs [][]byte, output []byte, nitems int, opts *EvalOptions) error {
	if ex == nil || ex.root == nil {
		return evalErrf(EvalNilExpr, "nil expression")
	}
	if ex.dtype == StringT {
		return evalErrf(EvalInvalidArg, "expression result dtype is string")
	}
	if len(ex.vars) > MaxVars {
		return evalErrf(EvalTooManyVars, "%d variables, limit is %d", len(ex.vars), MaxVars)
	}
	if len(inputs) != len(ex.dataVars) {
		return evalErrf(EvalVarMismatch, "%d input buffers for %d variables", len(inputs), len(ex.dataVars))
	}
	if nitems < 0 {
		return evalErrf(EvalInvalidArg, "negative item count %d", nitems)
	}
	sizes := make([]int, len(ex.dataVars))
	for i, v := range ex.dataVars {
		if v.DType == StringT {
			sizes[i] = v.ItemSize
		} else {
			sizes[i] = v.DType.Size()
		}
		if len(inputs[i]) < nitems*sizes[i] {
			return evalErrf(EvalInvalidArg,
				"input %q: %d bytes, need %d", v.Name, len(inputs[i]), nitems*sizes[i])
		}
	}
	if len(output) < nitems*ex.dtype.Size() {
		return evalErrf(EvalInvalidArg,
			"output buffer: %d bytes, need %d", len(output), nitems*ex.dtype.Size())
	}
	if nitems == 0 {
		return nil
	}

	if ex.program != nil {
		return ex.program.Run(inputs, output, nitems)
	}

	tier := kernel.Detect()
	prec := kernel.PrecisionDefault
	if opts != nil {
		if opts.DisableSIMD {
			tier = kernel.TierScalar
		}
		prec = opts.Precision
	}

	// The clone carries the per-evaluation scratch buffers, so the
	// shared tree stays read-only.
	root := ex.root.clone()
	e := &evalContext{
		inputs:    make([][]byte, len(inputs)),
		itemSizes: sizes,
		kc:        kernel.NewContext(tier, prec),
	}

	block := blockItems
	if ex.hasReduction || nitems < block {
		block = nitems
	}
	outSize := ex.dtype.Size()
	for off := 0; off < nitems; off += block {
		m := block
		if rest := nitems - off; rest < m {
			m = rest
		}
		e.nitems = m
		for i, in := range inputs {
			e.inputs[i] = in[off*sizes[i]:]
		}
		e.kc.BeginBlock()
		if err := e.evalRoot(root, output[off*outSize:]); err != nil {
			return err
		}
	}
	return nil
}

// evalRoot writes one block of the root node into out. Constant and
// variable roots broadcast or convert directly; only call nodes need
// the recursive evaluator.
func (e *evalContext) evalRoot(n *Node, out []byte) error {
	switch n.kind {
	case nodeCall:
		n.out = out[:e.nitems*n.dtype.Size()]
		n.nitems = e.nitems
		return e.evalNode(n)
	case nodeConst:
		broadcastScalar(out, n.dtype, n.value, e.nitems)
		return nil
	case nodeVar:
		convertBuf(out, n.dtype, e.inputs[n.slot], n.dtype, e.nitems)
		return nil
	}
	return evalErrf(EvalInvalidArg, "cannot evaluate a bare string expression")
}
