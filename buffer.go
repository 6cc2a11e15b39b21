// Copyright (c) 2026 WJQserver, Kamihama Railway Group. All rights reserved.
// Licensed under the GNU Affero General Public License, version 3.0 (the "AGPL").

package arrex

import "unsafe"

// viewOf reinterprets a byte buffer as n elements of T. Callers own the
// aliasing: the view shares storage with b.
func viewOf[T any](b []byte, n int) []T {
	if n == 0 || len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), n)
}

// bufAddr keys caches by buffer identity.
func bufAddr(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}

// bytesOf is the inverse of viewOf: it exposes n elements of a typed
// slice as raw bytes.
func bytesOf[T any](s []T, n int) []byte {
	if n == 0 {
		return nil
	}
	var z T
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), n*int(unsafe.Sizeof(z)))
}

// bitWidth reports the width of an integer type in bits.
func bitWidth[T any](z T) int {
	return int(unsafe.Sizeof(z)) * 8
}

func allocBuf(dtype DType, nitems int) []byte {
	return make([]byte, nitems*dtype.Size())
}

// stringItems exposes a packed string column as per-item code point
// slices. Items are fixed-width, NUL-padded UCS-4.
type stringItems struct {
	data     []byte
	itemSize int
}

func (s stringItems) width() int { return s.itemSize / 4 }

// item returns the i-th string clipped at its terminating NUL.
func (s stringItems) item(i int) []rune {
	cps := viewOf[rune](s.data[i*s.itemSize:], s.width())
	for j, cp := range cps {
		if cp == 0 {
			return cps[:j]
		}
	}
	return cps
}
