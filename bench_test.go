// Copyright (c) 2026 WJQserver, Kamihama Railway Group. All rights reserved.
// Licensed under the GNU Affero General Public License, version 3.0 (the "AGPL").

package arrex

import (
	"testing"
)

const benchItems = 100_000

func benchInputs() ([]float64, []float64) {
	x := make([]float64, benchItems)
	y := make([]float64, benchItems)
	for i := range x {
		x[i] = float64(i%1000)*0.01 + 0.5
		y[i] = float64(i%777)*0.02 + 0.25
	}
	return x, y
}

func BenchmarkEvalArithmetic(b *testing.B) {
	x, y := benchInputs()
	vars := []Variable{{Name: "x", DType: Float64}, {Name: "y", DType: Float64}}
	ex, err := Compile("(x + y) * (x - y) / (x * y + 1)", vars, DTypeAuto)
	if err != nil {
		b.Fatal(err)
	}
	inputs := [][]byte{bytesOf(x, benchItems), bytesOf(y, benchItems)}
	out := make([]float64, benchItems)
	outB := bytesOf(out, benchItems)
	b.SetBytes(benchItems * 8)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ex.Eval(inputs, outB, benchItems, nil)
	}
}

func BenchmarkEvalTranscendental(b *testing.B) {
	x, _ := benchInputs()
	ex, err := Compile("sin(x) ** 2 + cos(x) ** 2", []Variable{{Name: "x", DType: Float64}}, DTypeAuto)
	if err != nil {
		b.Fatal(err)
	}
	inputs := [][]byte{bytesOf(x, benchItems)}
	out := make([]float64, benchItems)
	outB := bytesOf(out, benchItems)
	b.SetBytes(benchItems * 8)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ex.Eval(inputs, outB, benchItems, nil)
	}
}

func BenchmarkEvalReduction(b *testing.B) {
	x, y := benchInputs()
	vars := []Variable{{Name: "x", DType: Float64}, {Name: "y", DType: Float64}}
	ex, err := Compile("sum(x * y)", vars, DTypeAuto)
	if err != nil {
		b.Fatal(err)
	}
	inputs := [][]byte{bytesOf(x, benchItems), bytesOf(y, benchItems)}
	out := make([]float64, benchItems)
	outB := bytesOf(out, benchItems)
	b.SetBytes(benchItems * 8)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ex.Eval(inputs, outB, benchItems, nil)
	}
}

func BenchmarkBytecodeVM(b *testing.B) {
	x, y := benchInputs()
	vars := []Variable{{Name: "x", DType: Float64}, {Name: "y", DType: Float64}}
	ex, err := Compile("(x + y) * (x - y) / (x * y + 1)", vars, DTypeAuto)
	if err != nil {
		b.Fatal(err)
	}
	bc, err := ex.CompileBytecode()
	if err != nil {
		b.Fatal(err)
	}
	inputs := [][]byte{bytesOf(x, benchItems), bytesOf(y, benchItems)}
	out := make([]float64, benchItems)
	outB := bytesOf(out, benchItems)
	b.SetBytes(benchItems * 8)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bc.Run(inputs, outB, benchItems)
	}
}

func BenchmarkCompile(b *testing.B) {
	vars := []Variable{{Name: "x", DType: Float64}, {Name: "y", DType: Float64}}
	for i := 0; i < b.N; i++ {
		Compile("(x + y) * (x - y) / (x * y + 1)", vars, DTypeAuto)
	}
}

func BenchmarkEvalInt32(b *testing.B) {
	x := make([]int32, benchItems)
	for i := range x {
		x[i] = int32(i % 1000)
	}
	ex, err := Compile("x * 3 + 7", []Variable{{Name: "x", DType: Int32}}, DTypeAuto)
	if err != nil {
		b.Fatal(err)
	}
	inputs := [][]byte{bytesOf(x, benchItems)}
	out := make([]int32, benchItems)
	outB := bytesOf(out, benchItems)
	b.SetBytes(benchItems * 4)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ex.Eval(inputs, outB, benchItems, nil)
	}
}
