// Copyright (c) 2026 WJQserver, Kamihama Railway Group. All rights reserved.
// Licensed under the GNU Affero General Public License, version 3.0 (the "AGPL").

package arrex

import (
	"strings"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Variable declares one input of an expression. ItemSize is only read
// for string variables, where it gives the fixed byte width of one
// item (a multiple of 4, UCS-4 code points padded with NULs).
//
// A non-nil Fn binds the name to a caller-supplied function instead of
// an array: the expression calls it item by item and the declaration
// consumes no input buffer in Eval. Accepted shapes take zero through
// seven float64 parameters and return one float64; a closure carries
// its state in its captured environment. DType and ItemSize are
// ignored for function bindings.
type Variable struct {
	Name     string
	DType    DType
	ItemSize int
	Fn       any
}

// Expr is a compiled expression, immutable and safe for concurrent
// Eval calls.
type Expr struct {
	root         *Node
	vars         []Variable
	dataVars     []Variable // vars minus the function bindings
	dtype        DType
	hasReduction bool
	program      Program
}

// Compile parses, validates, promotes and folds an expression over the
// declared variables.
//
// dtype selects the typing mode. With DTypeAuto the output type is
// inferred and every variable must carry an explicit dtype. With an
// explicit dtype the variables must either all carry explicit dtypes
// (the result is cast at the root) or all be DTypeAuto (they adopt the
// output dtype).
func Compile(expression string, vars []Variable, dtype DType) (*Expr, error) {
	if dtype != DTypeAuto && (!dtype.valid() || dtype == StringT) {
		return nil, compileErrf(CompileInvalidArgType, "invalid output dtype %d", int(dtype))
	}
	if err := checkVariables(vars); err != nil {
		return nil, err
	}

	// The typing modes only look at the array variables; function
	// bindings carry no dtype.
	varsEff := append([]Variable(nil), vars...)
	nauto, ndata := 0, 0
	for _, v := range varsEff {
		if v.Fn != nil {
			continue
		}
		ndata++
		if v.DType == DTypeAuto {
			nauto++
		}
	}
	if dtype == DTypeAuto {
		if nauto > 0 {
			return nil, compileErrf(CompileVarUnspecified,
				"output dtype is auto, every variable needs an explicit dtype")
		}
	} else if nauto > 0 {
		if nauto != ndata {
			return nil, compileErrf(CompileVarMixed,
				"variables must be all auto or all explicitly typed")
		}
		for i := range varsEff {
			if varsEff[i].Fn == nil {
				varsEff[i].DType = dtype
			}
		}
	}

	// Literal typing target: the requested output dtype, or the first
	// array variable's dtype when the output is inferred.
	target := dtype
	if target == DTypeAuto {
		for _, v := range varsEff {
			if v.Fn == nil {
				target = v.DType
				break
			}
		}
	}
	if target == StringT {
		target = DTypeAuto
	}

	l := NewLexer(expression)
	p := NewParser(l, varsEff, target)
	root := p.ParseProgram()
	pos, msg, parsed := p.Err()
	ReleaseParser(p)
	ReleaseLexer(l)

	if !validateReductions(root) {
		return nil, compileErrf(CompileReductionInvalid,
			"reductions cannot nest and min/max are undefined on complex data")
	}
	if hasComplexInput(root) && !validateComplexUsage(root) {
		return nil, compileErrf(CompileComplexUnsupported,
			"operator not defined for complex operands")
	}
	if !validateStringUsage(root) {
		return nil, compileErrf(CompileInvalidArgType,
			"string operands are only valid in string predicates and equality")
	}
	if !parsed {
		return nil, &CompileError{Kind: CompileParse, Pos: pos, Detail: msg}
	}

	Fold(root)

	out := root.dtype
	if dtype != DTypeAuto {
		out = dtype
		if root.dtype != dtype {
			if root.kind == nodeCall {
				root.dtype = dtype
			} else {
				root = newConvert(root, dtype)
			}
		}
	}

	dataVars := varsEff
	if ndata != len(varsEff) {
		dataVars = make([]Variable, 0, ndata)
		for _, v := range varsEff {
			if v.Fn == nil {
				dataVars = append(dataVars, v)
			}
		}
	}

	return &Expr{
		root:         root,
		vars:         varsEff,
		dataVars:     dataVars,
		dtype:        out,
		hasReduction: root.containsReduction(),
	}, nil
}

// checkVariables collects every declaration problem in one pass so the
// caller sees all of them at once.
func checkVariables(vars []Variable) error {
	var errs error
	for _, v := range vars {
		if v.Name == "" {
			errs = multierr.Append(errs, compileErrf(CompileInvalidArg, "variable with empty name"))
			continue
		}
		if v.Fn != nil {
			if _, _, ok := adaptUserFn(v.Fn); !ok {
				errs = multierr.Append(errs, compileErrf(CompileInvalidArg,
					"function %q: unsupported signature %T", v.Name, v.Fn))
			}
			continue
		}
		switch {
		case v.DType == DTypeAuto:
		case v.DType == StringT:
			if v.ItemSize <= 0 || v.ItemSize%4 != 0 {
				errs = multierr.Append(errs, compileErrf(CompileInvalidArg,
					"string variable %q: item size %d is not a positive multiple of 4", v.Name, v.ItemSize))
			}
		case !v.DType.valid():
			errs = multierr.Append(errs, compileErrf(CompileInvalidArgType,
				"variable %q: invalid dtype %d", v.Name, int(v.DType)))
		}
	}
	if errs != nil {
		return pkgerrors.Wrap(errs, "invalid variable declarations")
	}
	return nil
}

// DType reports the output dtype of the compiled expression.
func (ex *Expr) DType() DType { return ex.dtype }

// NumVars reports how many input buffers Eval expects. Function
// bindings do not count, they consume no buffer.
func (ex *Expr) NumVars() int { return len(ex.dataVars) }

// Describe renders the compiled tree as an indented dump, one node per
// line. Intended for debugging and tests.
func (ex *Expr) Describe() string {
	var sb strings.Builder
	ex.root.describe(&sb, 0)
	return sb.String()
}

// AttachProgram installs an alternative execution backend. When set,
// Eval delegates to it after validating the inputs.
func (ex *Expr) AttachProgram(p Program) { ex.program = p }

// Version reports the library version.
func Version() string { return "0.1.0" }
