// Copyright (c) 2026 WJQserver, Kamihama Railway Group. All rights reserved.
// Licensed under the GNU Affero General Public License, version 3.0 (the "AGPL").

package arrex

import (
	"math"
	"strings"
	"testing"
)

func TestConstantFolding(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"1 + 2", 3},
		{"10 - 5", 5},
		{"2 * 3", 6},
		{"10.0 / 4", 2.5},
		{"2 ** 10", 1024},
		{"(1 + 2) * 3", 9},
		{"2 * exp(1)", 2 * math.E},
		{"sqrt(2) * sqrt(8)", 4},
		{"-pi / 2", -math.Pi / 2},
	}

	for _, tt := range tests {
		ex, err := Compile(tt.input, nil, DTypeAuto)
		if err != nil {
			t.Fatalf("Compile(%q): %v", tt.input, err)
		}
		if ex.root.kind != nodeConst {
			t.Fatalf("input %q: expected constant root, got\n%s", tt.input, ex.Describe())
		}
		if got := ex.root.fval(); math.Abs(got-tt.expected) > 1e-12 {
			t.Fatalf("input %q: expected %v, got %v", tt.input, tt.expected, got)
		}
	}
}

func TestFoldComparison(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"3 < 5", 1},
		{"3 >= 5", 0},
		{"2 == 2 and 1 != 0", 1},
	}
	for _, tt := range tests {
		ex, err := Compile(tt.input, nil, DTypeAuto)
		if err != nil {
			t.Fatalf("Compile(%q): %v", tt.input, err)
		}
		if ex.root.kind != nodeConst || ex.root.dtype != Bool {
			t.Fatalf("input %q: expected bool constant, got\n%s", tt.input, ex.Describe())
		}
		if got := ex.root.fval(); got != tt.expected {
			t.Fatalf("input %q: expected %v, got %v", tt.input, tt.expected, got)
		}
	}
}

func TestFoldPowerRewrite(t *testing.T) {
	ex, err := Compile("x ** 2", []Variable{{Name: "x", DType: Float64}}, DTypeAuto)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if ex.root.op != OpMul {
		t.Fatalf("expected ** 2 rewritten to *, got op %s", ex.root.op)
	}
	desc := ex.Describe()
	if !strings.Contains(desc, "call *") || strings.Contains(desc, "**") {
		t.Fatalf("unexpected tree dump:\n%s", desc)
	}
	for i, arg := range ex.root.args {
		if arg.kind != nodeVar || arg.slot != 0 {
			t.Fatalf("arg %d: expected var #0, got\n%s", i, desc)
		}
	}
}

func TestFoldCubeRewrite(t *testing.T) {
	// The int32 exponent literal promotes float32 ** int32 to float64,
	// and the rewritten multiplication chain keeps that dtype.
	ex, err := Compile("x ** 3", []Variable{{Name: "x", DType: Float32}}, DTypeAuto)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	root := ex.root
	if root.op != OpMul || len(root.args) != 2 {
		t.Fatalf("expected multiplication chain, got\n%s", ex.Describe())
	}
	inner := root.args[0]
	if inner.op != OpMul || inner.dtype != Float64 {
		t.Fatalf("expected inner * with dtype float64, got op %s dtype %s", inner.op, inner.dtype)
	}
}

func TestFoldSkipsComplexPower(t *testing.T) {
	ex, err := Compile("z ** 2", []Variable{{Name: "z", DType: Complex128}}, DTypeAuto)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if ex.root.op != OpPow {
		t.Fatalf("complex power must stay **, got op %s", ex.root.op)
	}
}

func TestFoldSkipsReductions(t *testing.T) {
	ex, err := Compile("sum(2 + 3)", []Variable{{Name: "x", DType: Float64}}, DTypeAuto)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	root := ex.root
	if root.kind != nodeCall || root.op != OpSum {
		t.Fatalf("reduction must not fold, got\n%s", ex.Describe())
	}
	// The argument itself still folds.
	if arg := root.args[0]; arg.kind != nodeConst || arg.fval() != 5 {
		t.Fatalf("expected folded argument 5, got\n%s", ex.Describe())
	}
}

func TestFoldPartialSubtree(t *testing.T) {
	ex, err := Compile("x + 4 * 0.5", []Variable{{Name: "x", DType: Float64}}, DTypeAuto)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	root := ex.root
	if root.op != OpAdd {
		t.Fatalf("expected + at the root, got op %s", root.op)
	}
	if right := root.args[1]; right.kind != nodeConst || right.fval() != 2 {
		t.Fatalf("expected right side folded to 2, got\n%s", ex.Describe())
	}
}
