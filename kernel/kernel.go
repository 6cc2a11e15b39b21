// Copyright (c) 2026 WJQserver, Kamihama Railway Group. All rights reserved.
// Licensed under the GNU Affero General Public License, version 3.0 (the "AGPL").

// Package kernel is the capability provider for vectorized math. The
// evaluator asks it which tier of kernels the host CPU supports and
// runs pointwise math through it; everything else about SIMD stays
// behind this boundary.
package kernel

import (
	"sync"

	"golang.org/x/sys/cpu"
)

// Tier is the kernel family selected for this process.
type Tier int

const (
	// TierScalar runs one element per step.
	TierScalar Tier = iota
	// TierWide runs the four-lane unrolled kernels.
	TierWide
)

// Precision selects the accuracy/speed trade-off of the float32
// transcendental kernels.
type Precision int

const (
	// PrecisionDefault uses the platform libm-equivalent path.
	PrecisionDefault Precision = iota
	// PrecisionULP1 forces the 1.0 ULP path.
	PrecisionULP1
	// PrecisionULP35 allows the faster 3.5 ULP float32 path.
	PrecisionULP35
)

var detectOnce = sync.OnceValue(func() Tier {
	if cpu.X86.HasAVX2 || cpu.ARM64.HasASIMD {
		return TierWide
	}
	return TierScalar
})

// Detect reports the kernel tier for the host CPU. The probe runs once;
// concurrent first calls are safe.
func Detect() Tier {
	return detectOnce()
}

// Backend names the active kernel backend.
func Backend() string {
	switch {
	case cpu.X86.HasAVX2:
		return "wide4-avx2"
	case cpu.ARM64.HasASIMD:
		return "wide4-asimd"
	}
	return "scalar"
}
