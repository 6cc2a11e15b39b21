package arrex

import (
	"testing"
)

func TestDTypeSizes(t *testing.T) {
	tests := []struct {
		d    DType
		size int
	}{
		{Bool, 1},
		{Int8, 1},
		{Int16, 2},
		{Int32, 4},
		{Int64, 8},
		{Uint8, 1},
		{Uint16, 2},
		{Uint32, 4},
		{Uint64, 8},
		{Float32, 4},
		{Float64, 8},
		{Complex64, 8},
		{Complex128, 16},
	}
	for _, tt := range tests {
		if got := tt.d.Size(); got != tt.size {
			t.Fatalf("%s: size expected=%d, got=%d", tt.d, tt.size, got)
		}
	}
}

func TestPromoteSymmetry(t *testing.T) {
	for a := Bool; a <= Complex128; a++ {
		for b := Bool; b <= Complex128; b++ {
			if promote(a, b) != promote(b, a) {
				t.Fatalf("promotion not symmetric for %s and %s", a, b)
			}
		}
	}
}

func TestPromoteIdentity(t *testing.T) {
	for d := Bool; d <= Complex128; d++ {
		if promote(d, d) != d {
			t.Fatalf("%s does not promote to itself", d)
		}
		// Bool is the promotion identity.
		if promote(d, Bool) != d {
			t.Fatalf("promote(%s, bool) expected=%s, got=%s", d, d, promote(d, Bool))
		}
	}
}

func TestPromotePairs(t *testing.T) {
	tests := []struct {
		a, b, want DType
	}{
		{Int8, Uint8, Int16},
		{Int8, Uint64, Float64},
		{Int32, Uint8, Int64},
		{Int32, Uint32, Int64},
		{Int64, Uint64, Float64},
		{Float32, Int32, Float64},
		{Float32, Int16, Float32},
		{Float32, Float64, Float64},
		{Float32, Complex64, Complex64},
		{Float64, Complex64, Complex128},
		{Uint64, Int8, Float64},
		{Uint16, Int16, Int32},
	}
	for _, tt := range tests {
		if got := promote(tt.a, tt.b); got != tt.want {
			t.Fatalf("promote(%s, %s) expected=%s, got=%s", tt.a, tt.b, tt.want, got)
		}
	}
}

func TestPromoteAuto(t *testing.T) {
	if got := promote(DTypeAuto, Int16); got != Int16 {
		t.Fatalf("promote(auto, int16) expected=int16, got=%s", got)
	}
	if got := promote(Float32, DTypeAuto); got != Float32 {
		t.Fatalf("promote(float32, auto) expected=float32, got=%s", got)
	}
}

func TestReductionOutputDType(t *testing.T) {
	tests := []struct {
		op   Op
		in   DType
		want DType
	}{
		{OpSum, Bool, Int64},
		{OpSum, Int16, Int64},
		{OpSum, Uint8, Uint64},
		{OpSum, Float32, Float32},
		{OpProd, Uint32, Uint64},
		{OpMean, Int64, Float64},
		{OpMean, Float32, Float64},
		{OpMean, Complex64, Complex128},
		{OpMin, Int8, Int8},
		{OpMax, Float32, Float32},
		{OpAny, Float64, Bool},
		{OpAll, Int32, Bool},
	}
	for _, tt := range tests {
		if got := reductionOutputDType(tt.op, tt.in); got != tt.want {
			t.Fatalf("%s over %s: expected=%s, got=%s", tt.op, tt.in, tt.want, got)
		}
	}
}

func TestFloatMathPromotion(t *testing.T) {
	tests := []struct {
		in, want DType
	}{
		{Bool, Float64},
		{Int32, Float64},
		{Uint64, Float64},
		{Float32, Float32},
		{Float64, Float64},
		{Complex64, Complex64},
	}
	for _, tt := range tests {
		if got := promoteFloatMathResult(tt.in); got != tt.want {
			t.Fatalf("float math over %s: expected=%s, got=%s", tt.in, tt.want, got)
		}
	}
}
