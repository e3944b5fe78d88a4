// Copyright 2025 TensorNet ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LayerNorm applies layer normalization along the feature (last) axis.
//
// Formula: y = gamma * (x − mean(x)) / sqrt(var(x) + eps) + beta
//
// where mean and variance are computed per row and gamma/beta are learnable
// per-feature scale and shift.
type LayerNorm struct {
	dim     int
	epsilon float64
	gamma   *Parameter // [1, dim]
	beta    *Parameter // [1, dim]
}

// NewLayerNorm creates a LayerNorm over the given feature dimension.
// Gamma is initialized to ones, beta to zeros. epsilon is typically 1e-5.
func NewLayerNorm(dim int, epsilon float64) *LayerNorm {
	if dim <= 0 {
		panic(fmt.Sprintf("nn: LayerNorm dim must be positive, got %d", dim))
	}
	l := &LayerNorm{
		dim:     dim,
		epsilon: epsilon,
		gamma:   NewParameter("gamma", mat.NewDense(1, dim, nil)),
		beta:    NewParameter("beta", mat.NewDense(1, dim, nil)),
	}
	l.ResetParameters()
	return l
}

// Forward normalizes every row of x.
func (l *LayerNorm) Forward(x *mat.Dense) *mat.Dense {
	rows, cols := x.Dims()
	if cols != l.dim {
		panic(fmt.Sprintf("nn: LayerNorm expected %d features, got %d", l.dim, cols))
	}
	out := mat.NewDense(rows, cols, nil)
	g := l.gamma.value.RawMatrix().Data
	b := l.beta.value.RawMatrix().Data
	for i := 0; i < rows; i++ {
		row := x.RawRowView(i)
		mean := floats.Sum(row) / float64(cols)

		var variance float64
		for _, v := range row {
			d := v - mean
			variance += d * d
		}
		variance /= float64(cols)

		inv := 1 / math.Sqrt(variance+l.epsilon)
		dst := out.RawRowView(i)
		for j, v := range row {
			dst[j] = g[j]*(v-mean)*inv + b[j]
		}
	}
	return out
}

// Parameters returns the learnable scale and shift.
func (l *LayerNorm) Parameters() []*Parameter {
	return []*Parameter{l.gamma, l.beta}
}

// ResetParameters sets gamma to ones and beta to zeros.
func (l *LayerNorm) ResetParameters() {
	Ones(l.gamma.value)
	Zeros(l.beta.value)
}
