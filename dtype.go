// Copyright (c) 2026 WJQserver, Kamihama Railway Group. All rights reserved.
// Licensed under the GNU Affero General Public License, version 3.0 (the "AGPL").

package arrex

import "fmt"

// DType identifies the element type of an array or expression result.
type DType int8

const (
	// DTypeAuto lets the compiler infer the output dtype from the
	// variable dtypes and the promotion rules.
	DTypeAuto DType = iota - 1
	Bool
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Complex64
	Complex128
	// StringT marks fixed-width string items. Strings may only appear
	// under the predicate builtins and comparison operators.
	StringT

	numNumericDTypes = int(Complex128) + 1
)

var dtypeNames = [...]string{
	"bool", "int8", "int16", "int32", "int64",
	"uint8", "uint16", "uint32", "uint64",
	"float32", "float64", "complex64", "complex128", "string",
}

func (d DType) String() string {
	if d == DTypeAuto {
		return "auto"
	}
	if d >= Bool && d <= StringT {
		return dtypeNames[d]
	}
	return fmt.Sprintf("dtype(%d)", int8(d))
}

var dtypeSizes = [...]int{1, 1, 2, 4, 8, 1, 2, 4, 8, 4, 8, 8, 16}

// Size returns the element width in bytes. String items have a
// per-variable width and report 0 here.
func (d DType) Size() int {
	if d >= Bool && d <= Complex128 {
		return dtypeSizes[d]
	}
	return 0
}

func (d DType) valid() bool      { return d >= DTypeAuto && d <= Complex128 }
func (d DType) isComplex() bool  { return d == Complex64 || d == Complex128 }
func (d DType) isFloat() bool    { return d == Float32 || d == Float64 }
func (d DType) isSigned() bool   { return d >= Int8 && d <= Int64 }
func (d DType) isUnsigned() bool { return d >= Uint8 && d <= Uint64 }
func (d DType) isIntegral() bool { return d == Bool || (d >= Int8 && d <= Uint64) }
func (d DType) isNumeric() bool  { return d >= Bool && d <= Complex128 }

// promotionTable encodes the NumPy value-preserving promotion lattice.
// Rows are the left operand, columns the right operand.
var promotionTable = [numNumericDTypes][numNumericDTypes]DType{
	// bool
	{Bool, Int8, Int16, Int32, Int64, Uint8, Uint16, Uint32, Uint64, Float32, Float64, Complex64, Complex128},
	// int8
	{Int8, Int8, Int16, Int32, Int64, Int16, Int32, Int64, Float64, Float32, Float64, Complex64, Complex128},
	// int16
	{Int16, Int16, Int16, Int32, Int64, Int32, Int32, Int64, Float64, Float32, Float64, Complex64, Complex128},
	// int32
	{Int32, Int32, Int32, Int32, Int64, Int64, Int64, Int64, Float64, Float64, Float64, Complex128, Complex128},
	// int64
	{Int64, Int64, Int64, Int64, Int64, Float64, Float64, Float64, Float64, Float64, Float64, Complex128, Complex128},
	// uint8
	{Uint8, Int16, Int32, Int64, Float64, Uint8, Uint16, Uint32, Uint64, Float32, Float64, Complex64, Complex128},
	// uint16
	{Uint16, Int32, Int32, Int64, Float64, Uint16, Uint16, Uint32, Uint64, Float32, Float64, Complex64, Complex128},
	// uint32
	{Uint32, Int64, Int64, Int64, Float64, Uint32, Uint32, Uint32, Uint64, Float64, Float64, Complex128, Complex128},
	// uint64
	{Uint64, Float64, Float64, Float64, Float64, Uint64, Uint64, Uint64, Uint64, Float64, Float64, Complex128, Complex128},
	// float32
	{Float32, Float32, Float32, Float64, Float64, Float32, Float32, Float64, Float64, Float32, Float64, Complex64, Complex128},
	// float64
	{Float64, Float64, Float64, Float64, Float64, Float64, Float64, Float64, Float64, Float64, Float64, Complex128, Complex128},
	// complex64
	{Complex64, Complex64, Complex64, Complex128, Complex128, Complex64, Complex64, Complex128, Complex128, Complex64, Complex128, Complex64, Complex128},
	// complex128
	{Complex128, Complex128, Complex128, Complex128, Complex128, Complex128, Complex128, Complex128, Complex128, Complex128, Complex128, Complex128, Complex128},
}

// promote combines two operand dtypes into the common computation dtype.
// Auto must be resolved before promotion is consulted; falling through
// with an unresolved operand yields float64.
func promote(a, b DType) DType {
	if a == DTypeAuto {
		return b
	}
	if b == DTypeAuto {
		return a
	}
	if a.isNumeric() && b.isNumeric() {
		return promotionTable[a][b]
	}
	return Float64
}

// promoteFloatMathResult gives the output dtype of the transcendental
// builtins. Integral inputs compute in float64, floats and complexes
// keep their width.
func promoteFloatMathResult(d DType) DType {
	switch {
	case d.isComplex(), d.isFloat():
		return d
	case d.isIntegral():
		return Float64
	}
	return d
}

// reductionOutputDType widens accumulator-style reductions so that
// short integer sums do not overflow at the first opportunity.
func reductionOutputDType(op Op, in DType) DType {
	switch op {
	case OpAny, OpAll:
		return Bool
	case OpMean:
		if in.isComplex() {
			return Complex128
		}
		return Float64
	case OpSum, OpProd:
		switch {
		case in == Bool:
			return Int64
		case in.isUnsigned():
			return Uint64
		case in.isSigned():
			return Int64
		}
	}
	return in
}
