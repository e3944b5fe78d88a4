// Copyright 2025 TensorNet ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package rbf

import "math"

// CosineCutoff is a smooth envelope over distances that falls to zero at
// the upper cutoff and, when a lower cutoff is set, also vanishes at and
// below it. Interactions weighted by the envelope switch off smoothly
// instead of being truncated.
type CosineCutoff struct {
	lower float64
	upper float64
}

// NewCosineCutoff creates a cosine cutoff over [lower, upper].
func NewCosineCutoff(lower, upper float64) CosineCutoff {
	return CosineCutoff{lower: lower, upper: upper}
}

// Value evaluates the envelope at distance d.
func (c CosineCutoff) Value(d float64) float64 {
	if c.lower > 0 {
		if d <= c.lower || d >= c.upper {
			return 0
		}
		return 0.5 * (math.Cos(math.Pi*(2*(d-c.lower)/(c.upper-c.lower)+1)) + 1)
	}
	if d >= c.upper {
		return 0
	}
	return 0.5 * (math.Cos(d*math.Pi/c.upper) + 1)
}

// Apply evaluates the envelope at every distance.
func (c CosineCutoff) Apply(distances []float64) []float64 {
	out := make([]float64, len(distances))
	for i, d := range distances {
		out[i] = c.Value(d)
	}
	return out
}
