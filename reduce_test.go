// Copyright (c) 2026 WJQserver, Kamihama Railway Group. All rights reserved.
// Licensed under the GNU Affero General Public License, version 3.0 (the "AGPL").

package arrex

import (
	"math"
	"testing"
)

// reduce1 compiles a reduction over one input and returns the first
// output item. Reductions broadcast their scalar result across the
// whole output; TestReduceBroadcast checks the uniformity once.
func reduce1[In, Out any](t *testing.T, expr string, dtype DType, in []In) Out {
	t.Helper()
	ex, err := Compile(expr, []Variable{{Name: "x", DType: dtype}}, DTypeAuto)
	if err != nil {
		t.Fatalf("Compile(%q): %v", expr, err)
	}
	n := len(in)
	out := make([]Out, n)
	if err := ex.Eval([][]byte{bytesOf(in, n)}, bytesOf(out, n), n, nil); err != nil {
		t.Fatalf("Eval(%q): %v", expr, err)
	}
	return out[0]
}

func TestReduceSumWidening(t *testing.T) {
	ex, err := Compile("sum(x)", []Variable{{Name: "x", DType: Int8}}, DTypeAuto)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if ex.DType() != Int64 {
		t.Fatalf("sum over int8 output dtype: expected int64, got %s", ex.DType())
	}
	// 1000 * 100 overflows every type narrower than int32; the
	// accumulator must not.
	in := make([]int8, 1000)
	for i := range in {
		in[i] = 100
	}
	if got := reduce1[int8, int64](t, "sum(x)", Int8, in); got != 100000 {
		t.Fatalf("sum: expected 100000, got %d", got)
	}
}

func TestReduceSumUnsigned(t *testing.T) {
	in := []uint32{4000000000, 4000000000, 7}
	if got := reduce1[uint32, uint64](t, "sum(x)", Uint32, in); got != 8000000007 {
		t.Fatalf("sum: expected 8000000007, got %d", got)
	}
}

func TestReduceProd(t *testing.T) {
	if got := reduce1[float64, float64](t, "prod(x)", Float64, []float64{1, 2, 3, 4}); got != 24 {
		t.Fatalf("prod: expected 24, got %v", got)
	}
	if got := reduce1[int32, int64](t, "prod(x)", Int32, []int32{-2, 3, 5}); got != -30 {
		t.Fatalf("prod: expected -30, got %d", got)
	}
}

func TestReduceMean(t *testing.T) {
	ex, err := Compile("mean(x)", []Variable{{Name: "x", DType: Int32}}, DTypeAuto)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if ex.DType() != Float64 {
		t.Fatalf("mean over int32 output dtype: expected float64, got %s", ex.DType())
	}
	if got := reduce1[int32, float64](t, "mean(x)", Int32, []int32{1, 2, 3, 4}); got != 2.5 {
		t.Fatalf("mean: expected 2.5, got %v", got)
	}
	got := reduce1[float64, float64](t, "mean(x)", Float64, []float64{1, math.NaN(), 3})
	if !math.IsNaN(got) {
		t.Fatalf("mean over NaN: expected NaN, got %v", got)
	}
}

func TestReduceMinMax(t *testing.T) {
	if got := reduce1[int16, int16](t, "min(x)", Int16, []int16{7, -3, 12}); got != -3 {
		t.Fatalf("min: expected -3, got %d", got)
	}
	if got := reduce1[int16, int16](t, "max(x)", Int16, []int16{7, -3, 12}); got != 12 {
		t.Fatalf("max: expected 12, got %d", got)
	}
	if got := reduce1[float32, float32](t, "min(x)", Float32, []float32{2.5, -1.5, 0}); got != -1.5 {
		t.Fatalf("min: expected -1.5, got %v", got)
	}
}

func TestReduceSumNaN(t *testing.T) {
	in := []float64{1, 2, math.NaN(), 4}
	if got := reduce1[float64, float64](t, "sum(x)", Float64, in); !math.IsNaN(got) {
		t.Fatalf("sum over NaN: expected NaN, got %v", got)
	}
}

func TestReduceMinMaxNaN(t *testing.T) {
	// A NaN operand decides min and max, matching NumPy.
	in := []float64{1, math.NaN(), 3}
	if got := reduce1[float64, float64](t, "min(x)", Float64, in); !math.IsNaN(got) {
		t.Fatalf("min over NaN: expected NaN, got %v", got)
	}
	if got := reduce1[float64, float64](t, "max(x)", Float64, in); !math.IsNaN(got) {
		t.Fatalf("max over NaN: expected NaN, got %v", got)
	}
}

func TestReduceAnyAll(t *testing.T) {
	tests := []struct {
		expr     string
		in       []float64
		expected uint8
	}{
		{"any(x > 2)", []float64{0, 1, 2}, 0},
		{"any(x > 2)", []float64{0, 3, 2}, 1},
		{"all(x > 2)", []float64{3, 4, 5}, 1},
		{"all(x > 2)", []float64{3, 1, 5}, 0},
	}
	for _, tt := range tests {
		if got := reduce1[float64, uint8](t, tt.expr, Float64, tt.in); got != tt.expected {
			t.Fatalf("%q over %v: expected %d, got %d", tt.expr, tt.in, tt.expected, got)
		}
	}
}

func TestReduceExpressionArgument(t *testing.T) {
	ex, err := Compile("sum(x * y)", []Variable{
		{Name: "x", DType: Float64}, {Name: "y", DType: Float64},
	}, DTypeAuto)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	x := []float64{1, 2, 3}
	y := []float64{4, 5, 6}
	out := make([]float64, 3)
	err = ex.Eval([][]byte{bytesOf(x, 3), bytesOf(y, 3)}, bytesOf(out, 3), 3, nil)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if out[0] != 32 {
		t.Fatalf("sum(x*y): expected 32, got %v", out[0])
	}
}

func TestReduceBroadcast(t *testing.T) {
	ex, err := Compile("sum(x)", []Variable{{Name: "x", DType: Float64}}, DTypeAuto)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	in := []float64{1, 2, 3, 4}
	out := make([]float64, 4)
	if err := ex.Eval([][]byte{bytesOf(in, 4)}, bytesOf(out, 4), 4, nil); err != nil {
		t.Fatalf("Eval: %v", err)
	}
	for i, v := range out {
		if v != 10 {
			t.Fatalf("item %d: expected 10, got %v", i, v)
		}
	}
}

func TestReduceComplexSum(t *testing.T) {
	in := []complex128{1 + 1i, 2 - 3i}
	got := reduce1[complex128, complex128](t, "sum(x)", Complex128, in)
	if got != 3-2i {
		t.Fatalf("sum: expected (3-2i), got %v", got)
	}
}

func TestReduceEmptyIdentities(t *testing.T) {
	if got := reduceFloatVals[float64](nil, OpSum); got != 0 {
		t.Fatalf("empty sum: expected 0, got %v", got)
	}
	if got := reduceFloatVals[float64](nil, OpProd); got != 1 {
		t.Fatalf("empty prod: expected 1, got %v", got)
	}
	if got := reduceFloatVals[float64](nil, OpMin); !math.IsInf(got, 1) {
		t.Fatalf("empty min: expected +Inf, got %v", got)
	}
	if got := reduceFloatVals[float64](nil, OpMax); !math.IsInf(got, -1) {
		t.Fatalf("empty max: expected -Inf, got %v", got)
	}
	if got := reduceIntVals[int32](nil, OpMin); got != math.MaxInt32 {
		t.Fatalf("empty int32 min: expected %d, got %d", math.MaxInt32, got)
	}
	if got := reduceIntVals[int32](nil, OpMax); got != math.MinInt32 {
		t.Fatalf("empty int32 max: expected %d, got %d", math.MinInt32, got)
	}
	if got := reduceUintVals[uint16](nil, OpMin); got != math.MaxUint16 {
		t.Fatalf("empty uint16 min: expected %d, got %d", math.MaxUint16, got)
	}
	if got := reduceUintVals[uint16](nil, OpMax); got != 0 {
		t.Fatalf("empty uint16 max: expected 0, got %d", got)
	}
	if got := meanVals(nil, Float64, 0); !math.IsNaN(got) {
		t.Fatalf("empty mean: expected NaN, got %v", got)
	}
}
