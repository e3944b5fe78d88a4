// Copyright 2025 TensorNet ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math"

	"github.com/pkg/errors"

	"gonum.org/v1/gonum/mat"
)

// Activation kind names accepted by ResolveActivation.
const (
	ActivationSiLU    = "silu"
	ActivationSSP     = "ssp"
	ActivationTanh    = "tanh"
	ActivationSigmoid = "sigmoid"
)

// ActivationFunc is an elementwise activation resolved from a kind name at
// construction time.
type ActivationFunc func(float64) float64

// ResolveActivation maps an activation kind name to its concrete function.
// Unknown kinds fail with an error listing the allowed values.
func ResolveActivation(kind string) (ActivationFunc, error) {
	switch kind {
	case ActivationSiLU:
		return silu, nil
	case ActivationSSP:
		return shiftedSoftplus, nil
	case ActivationTanh:
		return math.Tanh, nil
	case ActivationSigmoid:
		return sigmoid, nil
	default:
		return nil, errors.Errorf("nn: unknown activation %q, expected one of %q, %q, %q, %q",
			kind, ActivationSiLU, ActivationSSP, ActivationTanh, ActivationSigmoid)
	}
}

// Apply returns f applied elementwise to x as a new matrix.
func (f ActivationFunc) Apply(x *mat.Dense) *mat.Dense {
	rows, cols := x.Dims()
	out := mat.NewDense(rows, cols, nil)
	src := x.RawMatrix().Data
	dst := out.RawMatrix().Data
	for i, v := range src {
		dst[i] = f(v)
	}
	return out
}

// silu is x·σ(x), also known as swish.
func silu(x float64) float64 {
	return x * sigmoid(x)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// shiftedSoftplus is softplus(x) − ln 2, so that f(0) = 0.
func shiftedSoftplus(x float64) float64 {
	return math.Log1p(math.Exp(-math.Abs(x))) + math.Max(x, 0) - math.Ln2
}
