// Copyright (c) 2026 WJQserver, Kamihama Railway Group. All rights reserved.
// Licensed under the GNU Affero General Public License, version 3.0 (the "AGPL").

package arrex

import (
	"golang.org/x/exp/constraints"
)

// realScalar is the element constraint for the generic real-dtype
// kernels. Bool buffers travel as uint8 holding 0 or 1.
type realScalar interface {
	constraints.Integer | constraints.Float
}

// convertBuf rewrites n elements of src (dtype from) into dst (dtype
// to). The cast semantics are the C ones: float to integer truncates,
// complex to real keeps the real part, anything to bool is a zero
// test.
func convertBuf(dst []byte, to DType, src []byte, from DType, n int) {
	if to == from {
		copy(dst[:n*to.Size()], src[:n*from.Size()])
		return
	}
	switch to {
	case Bool:
		convertToBool(dst, src, from, n)
	case Int8:
		convertToReal[int8](dst, src, from, n)
	case Int16:
		convertToReal[int16](dst, src, from, n)
	case Int32:
		convertToReal[int32](dst, src, from, n)
	case Int64:
		convertToReal[int64](dst, src, from, n)
	case Uint8:
		convertToReal[uint8](dst, src, from, n)
	case Uint16:
		convertToReal[uint16](dst, src, from, n)
	case Uint32:
		convertToReal[uint32](dst, src, from, n)
	case Uint64:
		convertToReal[uint64](dst, src, from, n)
	case Float32:
		convertToReal[float32](dst, src, from, n)
	case Float64:
		convertToReal[float64](dst, src, from, n)
	case Complex64:
		convertToComplex[complex64](dst, src, from, n)
	case Complex128:
		convertToComplex[complex128](dst, src, from, n)
	}
}

func convertToReal[D realScalar](dst []byte, src []byte, from DType, n int) {
	d := viewOf[D](dst, n)
	switch from {
	case Bool, Uint8:
		convertLoop(d, viewOf[uint8](src, n))
	case Int8:
		convertLoop(d, viewOf[int8](src, n))
	case Int16:
		convertLoop(d, viewOf[int16](src, n))
	case Int32:
		convertLoop(d, viewOf[int32](src, n))
	case Int64:
		convertLoop(d, viewOf[int64](src, n))
	case Uint16:
		convertLoop(d, viewOf[uint16](src, n))
	case Uint32:
		convertLoop(d, viewOf[uint32](src, n))
	case Uint64:
		convertLoop(d, viewOf[uint64](src, n))
	case Float32:
		convertLoop(d, viewOf[float32](src, n))
	case Float64:
		convertLoop(d, viewOf[float64](src, n))
	case Complex64:
		s := viewOf[complex64](src, n)
		for i := range d {
			d[i] = D(real(s[i]))
		}
	case Complex128:
		s := viewOf[complex128](src, n)
		for i := range d {
			d[i] = D(real(s[i]))
		}
	}
}

func convertLoop[D, S realScalar](dst []D, src []S) {
	for i := range dst {
		dst[i] = D(src[i])
	}
}

func convertToBool(dst []byte, src []byte, from DType, n int) {
	d := viewOf[uint8](dst, n)
	switch from {
	case Int8:
		boolLoop(d, viewOf[int8](src, n))
	case Int16:
		boolLoop(d, viewOf[int16](src, n))
	case Int32:
		boolLoop(d, viewOf[int32](src, n))
	case Int64:
		boolLoop(d, viewOf[int64](src, n))
	case Uint8, Bool:
		boolLoop(d, viewOf[uint8](src, n))
	case Uint16:
		boolLoop(d, viewOf[uint16](src, n))
	case Uint32:
		boolLoop(d, viewOf[uint32](src, n))
	case Uint64:
		boolLoop(d, viewOf[uint64](src, n))
	case Float32:
		boolLoop(d, viewOf[float32](src, n))
	case Float64:
		boolLoop(d, viewOf[float64](src, n))
	case Complex64:
		s := viewOf[complex64](src, n)
		for i := range d {
			d[i] = b2u(s[i] != 0)
		}
	case Complex128:
		s := viewOf[complex128](src, n)
		for i := range d {
			d[i] = b2u(s[i] != 0)
		}
	}
}

func boolLoop[S realScalar](dst []uint8, src []S) {
	for i := range dst {
		dst[i] = b2u(src[i] != 0)
	}
}

func b2u(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func convertToComplex[D complex64 | complex128](dst []byte, src []byte, from DType, n int) {
	d := viewOf[D](dst, n)
	switch from {
	case Complex64:
		s := viewOf[complex64](src, n)
		for i := range d {
			d[i] = D(complex128(s[i]))
		}
	case Complex128:
		s := viewOf[complex128](src, n)
		for i := range d {
			d[i] = D(s[i])
		}
	case Bool, Uint8:
		complexFromReal(d, viewOf[uint8](src, n))
	case Int8:
		complexFromReal(d, viewOf[int8](src, n))
	case Int16:
		complexFromReal(d, viewOf[int16](src, n))
	case Int32:
		complexFromReal(d, viewOf[int32](src, n))
	case Int64:
		complexFromReal(d, viewOf[int64](src, n))
	case Uint16:
		complexFromReal(d, viewOf[uint16](src, n))
	case Uint32:
		complexFromReal(d, viewOf[uint32](src, n))
	case Uint64:
		complexFromReal(d, viewOf[uint64](src, n))
	case Float32:
		complexFromReal(d, viewOf[float32](src, n))
	case Float64:
		complexFromReal(d, viewOf[float64](src, n))
	}
}

func complexFromReal[D complex64 | complex128, S realScalar](dst []D, src []S) {
	for i := range dst {
		dst[i] = D(complex(float64(src[i]), 0))
	}
}

// convertScalar quantizes a constant to dtype, mirroring what storing
// it into an array of that dtype would produce.
func convertScalar(v complex128, to DType) complex128 {
	switch to {
	case Bool:
		if v != 0 {
			return 1
		}
		return 0
	case Int8:
		return complex(float64(int8(real(v))), 0)
	case Int16:
		return complex(float64(int16(real(v))), 0)
	case Int32:
		return complex(float64(int32(real(v))), 0)
	case Int64:
		return complex(float64(int64(real(v))), 0)
	case Uint8:
		return complex(float64(uint8(real(v))), 0)
	case Uint16:
		return complex(float64(uint16(real(v))), 0)
	case Uint32:
		return complex(float64(uint32(real(v))), 0)
	case Uint64:
		return complex(float64(uint64(real(v))), 0)
	case Float32:
		return complex(float64(float32(real(v))), 0)
	case Float64:
		return complex(real(v), 0)
	case Complex64:
		return complex128(complex64(v))
	}
	return v
}

// broadcastScalar fills n elements of dst with the constant quantized
// to dtype.
func broadcastScalar(dst []byte, dtype DType, v complex128, n int) {
	switch dtype {
	case Bool:
		fillLoop(viewOf[uint8](dst, n), b2u(v != 0))
	case Int8:
		fillLoop(viewOf[int8](dst, n), int8(real(v)))
	case Int16:
		fillLoop(viewOf[int16](dst, n), int16(real(v)))
	case Int32:
		fillLoop(viewOf[int32](dst, n), int32(real(v)))
	case Int64:
		fillLoop(viewOf[int64](dst, n), int64(real(v)))
	case Uint8:
		fillLoop(viewOf[uint8](dst, n), uint8(real(v)))
	case Uint16:
		fillLoop(viewOf[uint16](dst, n), uint16(real(v)))
	case Uint32:
		fillLoop(viewOf[uint32](dst, n), uint32(real(v)))
	case Uint64:
		fillLoop(viewOf[uint64](dst, n), uint64(real(v)))
	case Float32:
		fillLoop(viewOf[float32](dst, n), float32(real(v)))
	case Float64:
		fillLoop(viewOf[float64](dst, n), real(v))
	case Complex64:
		fillLoop(viewOf[complex64](dst, n), complex64(v))
	case Complex128:
		fillLoop(viewOf[complex128](dst, n), v)
	}
}

func fillLoop[T any](dst []T, v T) {
	for i := range dst {
		dst[i] = v
	}
}
