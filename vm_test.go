// Copyright (c) 2026 WJQserver, Kamihama Railway Group. All rights reserved.
// Licensed under the GNU Affero General Public License, version 3.0 (the "AGPL").

package arrex

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBytecodeMatchesTreeEval(t *testing.T) {
	tests := []string{
		"(x + y) * 2 - y / x",
		"sin(x) + cos(y)",
		"cos(sin(x))",
		"sin(x) * cos(x)",
		"where(x > y, x, y)",
		"x % 3 + x ** 2",
		"fma(x, y, 1)",
		"sqrt(abs(x - y))",
		"x >= 1 and y < 3",
	}
	vars := []Variable{{Name: "x", DType: Float64}, {Name: "y", DType: Float64}}
	x := []float64{1, 2, 3, 4.5}
	y := []float64{0.5, 2, -1, 8}
	inputs := [][]byte{bytesOf(x, 4), bytesOf(y, 4)}

	for _, expr := range tests {
		ex, err := Compile(expr, vars, Float64)
		if err != nil {
			t.Fatalf("Compile(%q): %v", expr, err)
		}
		tree := make([]float64, 4)
		if err := ex.Eval(inputs, bytesOf(tree, 4), 4, nil); err != nil {
			t.Fatalf("Eval(%q): %v", expr, err)
		}

		bc, err := ex.CompileBytecode()
		if err != nil {
			t.Fatalf("CompileBytecode(%q): %v", expr, err)
		}
		vm := make([]float64, 4)
		if err := bc.Run(inputs, bytesOf(vm, 4), 4); err != nil {
			t.Fatalf("Run(%q): %v", expr, err)
		}

		if diff := cmp.Diff(tree, vm); diff != "" {
			t.Fatalf("%q: backends disagree (-tree +vm):\n%s", expr, diff)
		}
	}
}

// Chained sin and cos rewrite the same stack slot within one block, so
// the joint sin/cos cache must not serve cos(sin(x)) stale operands.
func TestBytecodeChainedSinCos(t *testing.T) {
	ex, err := Compile("cos(sin(x))", []Variable{{Name: "x", DType: Float64}}, DTypeAuto)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	bc, err := ex.CompileBytecode()
	if err != nil {
		t.Fatalf("CompileBytecode: %v", err)
	}
	in := []float64{0.3, -1.2, 2.7}
	out := make([]float64, 3)
	if err := bc.Run([][]byte{bytesOf(in, 3)}, bytesOf(out, 3), 3); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, x := range in {
		if want := math.Cos(math.Sin(x)); out[i] != want {
			t.Fatalf("item %d: expected %v, got %v", i, want, out[i])
		}
	}
}

func TestBytecodeIntOutput(t *testing.T) {
	ex, err := Compile("x * 2 + 1", []Variable{{Name: "x", DType: Int32}}, DTypeAuto)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	bc, err := ex.CompileBytecode()
	if err != nil {
		t.Fatalf("CompileBytecode: %v", err)
	}
	in := []int32{0, 5, -7}
	out := make([]int32, 3)
	if err := bc.Run([][]byte{bytesOf(in, 3)}, bytesOf(out, 3), 3); err != nil {
		t.Fatalf("Run: %v", err)
	}
	expected := []int32{1, 11, -13}
	if diff := cmp.Diff(expected, out); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

type sentinelProgram struct{ fill float64 }

func (p *sentinelProgram) Run(inputs [][]byte, output []byte, nitems int) error {
	for i, s := 0, viewOf[float64](output, nitems); i < nitems; i++ {
		s[i] = p.fill
	}
	return nil
}

func TestAttachProgramDelegates(t *testing.T) {
	ex, err := Compile("x + 1", []Variable{{Name: "x", DType: Float64}}, DTypeAuto)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	ex.AttachProgram(&sentinelProgram{fill: 7})
	in := []float64{1, 2, 3}
	out := make([]float64, 3)
	if err := ex.Eval([][]byte{bytesOf(in, 3)}, bytesOf(out, 3), 3, nil); err != nil {
		t.Fatalf("Eval: %v", err)
	}
	expected := []float64{7, 7, 7}
	if diff := cmp.Diff(expected, out); diff != "" {
		t.Fatalf("delegation did not happen (-want +got):\n%s", diff)
	}
}

func TestAttachBytecodeProgram(t *testing.T) {
	ex, err := Compile("exp(x) / (1 + exp(x))", []Variable{{Name: "x", DType: Float64}}, DTypeAuto)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	in := []float64{-2, 0, 2}
	direct := make([]float64, 3)
	if err := ex.Eval([][]byte{bytesOf(in, 3)}, bytesOf(direct, 3), 3, nil); err != nil {
		t.Fatalf("Eval: %v", err)
	}

	bc, err := ex.CompileBytecode()
	if err != nil {
		t.Fatalf("CompileBytecode: %v", err)
	}
	ex.AttachProgram(bc)
	attached := make([]float64, 3)
	if err := ex.Eval([][]byte{bytesOf(in, 3)}, bytesOf(attached, 3), 3, nil); err != nil {
		t.Fatalf("Eval via program: %v", err)
	}
	if diff := cmp.Diff(direct, attached); diff != "" {
		t.Fatalf("mismatch (-direct +attached):\n%s", diff)
	}
}

func TestBytecodeUnsupported(t *testing.T) {
	tests := []struct {
		name  string
		input string
		vars  []Variable
	}{
		{"reduction", "sum(x)", []Variable{{Name: "x", DType: Float64}}},
		{"complex variable", "real(z)", []Variable{{Name: "z", DType: Complex128}}},
		{"string variable", `contains(s, "a")`, []Variable{{Name: "s", DType: StringT, ItemSize: 8}}},
	}
	for _, tt := range tests {
		ex, err := Compile(tt.input, tt.vars, DTypeAuto)
		if err != nil {
			t.Fatalf("%s: Compile: %v", tt.name, err)
		}
		if _, err := ex.CompileBytecode(); err == nil {
			t.Fatalf("%s: expected lowering error", tt.name)
		}
	}
}

func TestBytecodeDisassemble(t *testing.T) {
	ex, err := Compile("x + 1", []Variable{{Name: "x", DType: Float64}}, DTypeAuto)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	bc, err := ex.CompileBytecode()
	if err != nil {
		t.Fatalf("CompileBytecode: %v", err)
	}
	asm := bc.Disassemble()
	for _, want := range []string{"LOADV #0", "LOADC 1", "ADD"} {
		if !strings.Contains(asm, want) {
			t.Fatalf("disassembly missing %q:\n%s", want, asm)
		}
	}
}

func TestBytecodeConstDedup(t *testing.T) {
	ex, err := Compile("x * 2 + 2", []Variable{{Name: "x", DType: Float64}}, DTypeAuto)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	bc, err := ex.CompileBytecode()
	if err != nil {
		t.Fatalf("CompileBytecode: %v", err)
	}
	if len(bc.consts) != 1 {
		t.Fatalf("constant pool: expected 1 entry, got %v", bc.consts)
	}
	if bc.depth != 2 {
		t.Fatalf("stack depth: expected 2, got %d", bc.depth)
	}
}
