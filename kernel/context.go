// Copyright (c) 2026 WJQserver, Kamihama Railway Group. All rights reserved.
// Licensed under the GNU Affero General Public License, version 3.0 (the "AGPL").

package kernel

import (
	"math"
	"unsafe"
)

// Context carries the per-evaluation kernel state: the selected tier
// and precision plus the joint sin/cos cache. One Context serves one
// evaluation call; it is not safe for concurrent use.
type Context struct {
	tier Tier
	prec Precision
	gen  uint64

	c64 sincosCache64
	c32 sincosCache32
}

func NewContext(tier Tier, prec Precision) *Context {
	return &Context{tier: tier, prec: prec}
}

func (c *Context) Tier() Tier           { return c.tier }
func (c *Context) Precision() Precision { return c.prec }

// BeginBlock invalidates the joint sin/cos cache. It must be called
// before each block evaluation: intermediate buffers are reused across
// blocks, so a matching buffer address alone does not prove the cached
// values are current. A Context is scoped to a single evaluation call
// whose cached callers give each operand its own buffer within a
// block, so the per-block generation bump is the only invalidation
// needed; callers that rewrite a buffer mid-block use Map64NoCache.
func (c *Context) BeginBlock() {
	c.gen++
}

type sincosCache64 struct {
	key   uintptr
	n     int
	gen   uint64
	valid bool
	sin   []float64
	cos   []float64
}

type sincosCache32 struct {
	key   uintptr
	n     int
	gen   uint64
	valid bool
	sin   []float32
	cos   []float32
}

func addr64(s []float64) uintptr {
	if len(s) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(s)))
}

func addr32(s []float32) uintptr {
	if len(s) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(s)))
}

// Map64 applies a pointwise function over src into dst. Sin and cos
// route through the joint cache: evaluating both over the same operand
// within one block costs a single sincos pass.
func (c *Context) Map64(f Func, dst, src []float64) {
	switch f {
	case Sin:
		c.sincos64(dst, nil, src)
		return
	case Cos:
		c.sincos64(nil, dst, src)
		return
	}
	apply64(scalarTable[f], dst, src, c.tier)
}

// Map64NoCache applies a pointwise function without consulting the
// joint sin/cos cache. Callers that rewrite a buffer in place must use
// this entry point: the cache keys on buffer address, and an address
// whose contents change within a block would satisfy the key check
// while holding stale operands.
func (c *Context) Map64NoCache(f Func, dst, src []float64) {
	apply64(scalarTable[f], dst, src, c.tier)
}

func (c *Context) Map32(f Func, dst, src []float32) {
	switch f {
	case Sin:
		c.sincos32(dst, nil, src)
		return
	case Cos:
		c.sincos32(nil, dst, src)
		return
	case Tan:
		if c.prec == PrecisionULP35 {
			apply32f(fastTan32, dst, src, c.tier)
			return
		}
	}
	fn := scalarTable[f]
	apply32(fn, dst, src, c.tier)
}

func (c *Context) sincos64(sdst, cdst, src []float64) {
	key, n := addr64(src), len(src)
	cc := &c.c64
	if !(cc.valid && cc.key == key && cc.n == n && cc.gen == c.gen) {
		if cap(cc.sin) < n {
			cc.sin = make([]float64, n)
			cc.cos = make([]float64, n)
		}
		sin, cos := cc.sin[:n], cc.cos[:n]
		for i, x := range src {
			sin[i], cos[i] = math.Sincos(x)
		}
		cc.key, cc.n, cc.gen, cc.valid = key, n, c.gen, true
	}
	if sdst != nil {
		copy(sdst, cc.sin[:n])
	}
	if cdst != nil {
		copy(cdst, cc.cos[:n])
	}
}

func (c *Context) sincos32(sdst, cdst, src []float32) {
	key, n := addr32(src), len(src)
	cc := &c.c32
	if !(cc.valid && cc.key == key && cc.n == n && cc.gen == c.gen) {
		if cap(cc.sin) < n {
			cc.sin = make([]float32, n)
			cc.cos = make([]float32, n)
		}
		sin, cos := cc.sin[:n], cc.cos[:n]
		if c.prec == PrecisionULP35 {
			for i, x := range src {
				sin[i], cos[i] = fastSincos32(x)
			}
		} else {
			for i, x := range src {
				s, cv := math.Sincos(float64(x))
				sin[i], cos[i] = float32(s), float32(cv)
			}
		}
		cc.key, cc.n, cc.gen, cc.valid = key, n, c.gen, true
	}
	if sdst != nil {
		copy(sdst, cc.sin[:n])
	}
	if cdst != nil {
		copy(cdst, cc.cos[:n])
	}
}

// Zip64 applies a binary pointwise function elementwise.
func (c *Context) Zip64(f Func2, dst, a, b []float64) {
	fn := scalar2Table[f]
	if c.tier == TierWide {
		n := len(dst) &^ 3
		for i := 0; i < n; i += 4 {
			dst[i] = fn(a[i], b[i])
			dst[i+1] = fn(a[i+1], b[i+1])
			dst[i+2] = fn(a[i+2], b[i+2])
			dst[i+3] = fn(a[i+3], b[i+3])
		}
		for i := n; i < len(dst); i++ {
			dst[i] = fn(a[i], b[i])
		}
		return
	}
	for i := range dst {
		dst[i] = fn(a[i], b[i])
	}
}

func apply64(fn func(float64) float64, dst, src []float64, tier Tier) {
	if tier == TierWide {
		n := len(src) &^ 3
		for i := 0; i < n; i += 4 {
			dst[i] = fn(src[i])
			dst[i+1] = fn(src[i+1])
			dst[i+2] = fn(src[i+2])
			dst[i+3] = fn(src[i+3])
		}
		for i := n; i < len(src); i++ {
			dst[i] = fn(src[i])
		}
		return
	}
	for i, x := range src {
		dst[i] = fn(x)
	}
}

func apply32(fn func(float64) float64, dst, src []float32, tier Tier) {
	if tier == TierWide {
		n := len(src) &^ 3
		for i := 0; i < n; i += 4 {
			dst[i] = float32(fn(float64(src[i])))
			dst[i+1] = float32(fn(float64(src[i+1])))
			dst[i+2] = float32(fn(float64(src[i+2])))
			dst[i+3] = float32(fn(float64(src[i+3])))
		}
		for i := n; i < len(src); i++ {
			dst[i] = float32(fn(float64(src[i])))
		}
		return
	}
	for i, x := range src {
		dst[i] = float32(fn(float64(x)))
	}
}

func apply32f(fn func(float32) float32, dst, src []float32, tier Tier) {
	if tier == TierWide {
		n := len(src) &^ 3
		for i := 0; i < n; i += 4 {
			dst[i] = fn(src[i])
			dst[i+1] = fn(src[i+1])
			dst[i+2] = fn(src[i+2])
			dst[i+3] = fn(src[i+3])
		}
		for i := n; i < len(src); i++ {
			dst[i] = fn(src[i])
		}
		return
	}
	for i, x := range src {
		dst[i] = fn(x)
	}
}
