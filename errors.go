// Copyright (c) 2026 WJQserver, Kamihama Railway Group. All rights reserved.
// Licensed under the GNU Affero General Public License, version 3.0 (the "AGPL").

package arrex

import "fmt"

// CompileKind classifies a compilation failure.
type CompileKind int

const (
	CompileParse CompileKind = iota + 1
	CompileInvalidArg
	CompileInvalidArgType
	CompileComplexUnsupported
	CompileReductionInvalid
	CompileVarMixed
	CompileVarUnspecified
)

var compileKindNames = map[CompileKind]string{
	CompileParse:              "parse error",
	CompileInvalidArg:         "invalid argument",
	CompileInvalidArgType:     "invalid argument type",
	CompileComplexUnsupported: "function not supported for complex operands",
	CompileReductionInvalid:   "invalid reduction usage",
	CompileVarMixed:           "mixed auto and explicit variable dtypes",
	CompileVarUnspecified:     "variable dtype unspecified",
}

// CompileError reports why an expression failed to compile. Pos is the
// byte offset into the source where the parser stopped, or -1 when the
// failure is not positional.
type CompileError struct {
	Kind   CompileKind
	Pos    int
	Detail string
}

func (e *CompileError) Error() string {
	name := compileKindNames[e.Kind]
	if name == "" {
		name = "compile error"
	}
	switch {
	case e.Pos >= 0 && e.Detail != "":
		return fmt.Sprintf("%s near position %d: %s", name, e.Pos, e.Detail)
	case e.Pos >= 0:
		return fmt.Sprintf("%s near position %d", name, e.Pos)
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", name, e.Detail)
	}
	return name
}

func compileErrf(kind CompileKind, format string, args ...any) *CompileError {
	return &CompileError{Kind: kind, Pos: -1, Detail: fmt.Sprintf(format, args...)}
}

// EvalKind classifies an evaluation failure.
type EvalKind int

const (
	EvalNilExpr EvalKind = iota + 1
	EvalTooManyVars
	EvalVarMismatch
	EvalInvalidArg
)

var evalKindNames = map[EvalKind]string{
	EvalNilExpr:     "nil expression",
	EvalTooManyVars: "too many variables",
	EvalVarMismatch: "variable mismatch",
	EvalInvalidArg:  "invalid argument",
}

// EvalError reports why an evaluation call was rejected.
type EvalError struct {
	Kind   EvalKind
	Detail string
}

func (e *EvalError) Error() string {
	name := evalKindNames[e.Kind]
	if name == "" {
		name = "eval error"
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", name, e.Detail)
	}
	return name
}

func evalErrf(kind EvalKind, format string, args ...any) *EvalError {
	return &EvalError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
