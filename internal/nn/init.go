// Copyright 2025 TensorNet ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Xavier fills m in place with Xavier/Glorot uniform values:
// U(−sqrt(6/(fanIn+fanOut)), sqrt(6/(fanIn+fanOut))).
//
// This initialization keeps activation variance roughly constant across
// layers.
func Xavier(fanIn, fanOut int, m *mat.Dense) {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	data := m.RawMatrix().Data
	for i := range data {
		//nolint:gosec // math/rand is appropriate for weight initialization
		data[i] = (rand.Float64()*2 - 1) * bound
	}
}

// Randn fills m in place with values from the standard normal distribution.
func Randn(m *mat.Dense) {
	data := m.RawMatrix().Data
	for i := range data {
		//nolint:gosec // math/rand is appropriate for weight initialization
		data[i] = rand.NormFloat64()
	}
}

// Zeros fills m in place with zeros.
func Zeros(m *mat.Dense) {
	data := m.RawMatrix().Data
	for i := range data {
		data[i] = 0
	}
}

// Ones fills m in place with ones.
func Ones(m *mat.Dense) {
	data := m.RawMatrix().Data
	for i := range data {
		data[i] = 1
	}
}
