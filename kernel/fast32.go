// Copyright (c) 2026 WJQserver, Kamihama Railway Group. All rights reserved.
// Licensed under the GNU Affero General Public License, version 3.0 (the "AGPL").

package kernel

import "math"

// Reduced-precision float32 trig for the 3.5 ULP mode. The argument is
// reduced to [-pi/4, pi/4] by quadrant and the result comes from a
// short polynomial; the quadrant fold runs in float64 so the reduction
// itself adds no error of its own.

const (
	twoOverPi = 2 / math.Pi
	piOver2   = math.Pi / 2
)

func sinPoly(r float64) float64 {
	r2 := r * r
	return r * (1 + r2*(-1.0/6+r2*(1.0/120+r2*(-1.0/5040+r2*(1.0/362880)))))
}

func cosPoly(r float64) float64 {
	r2 := r * r
	return 1 + r2*(-0.5+r2*(1.0/24+r2*(-1.0/720+r2*(1.0/40320))))
}

func fastSincos32(x float32) (float32, float32) {
	xf := float64(x)
	if math.IsNaN(xf) || math.IsInf(xf, 0) {
		nan := float32(math.NaN())
		return nan, nan
	}
	if math.Abs(xf) > 1e9 {
		// Quadrant folding would overflow; take the exact path.
		s, c := math.Sincos(xf)
		return float32(s), float32(c)
	}
	q := math.Round(xf * twoOverPi)
	r := xf - q*piOver2
	s, c := sinPoly(r), cosPoly(r)
	switch int64(q) & 3 {
	case 1:
		s, c = c, -s
	case 2:
		s, c = -s, -c
	case 3:
		s, c = -c, s
	}
	return float32(s), float32(c)
}

func fastTan32(x float32) float32 {
	s, c := fastSincos32(x)
	return s / c
}
