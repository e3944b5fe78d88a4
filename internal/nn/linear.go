// Copyright 2025 TensorNet ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Linear implements a fully connected layer.
//
// Performs the transformation y = x @ Wᵗ + b where
//   - x is the input with shape [batch, in_features]
//   - W is the weight matrix with shape [out_features, in_features]
//   - b is the bias vector with shape [out_features], optional
//
// Weights are initialized with Xavier/Glorot uniform values, biases with
// zeros.
type Linear struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter // [out_features, in_features]
	bias        *Parameter // [1, out_features], nil when disabled
}

// NewLinear creates a new Linear layer with a bias term.
func NewLinear(inFeatures, outFeatures int) *Linear {
	return newLinear(inFeatures, outFeatures, true)
}

// NewLinearNoBias creates a new Linear layer without a bias term.
// The equivariant channel-mixing maps use this form: a bias would add a
// constant to every spatial entry and break the tensor transformation law.
func NewLinearNoBias(inFeatures, outFeatures int) *Linear {
	return newLinear(inFeatures, outFeatures, false)
}

func newLinear(inFeatures, outFeatures int, useBias bool) *Linear {
	if inFeatures <= 0 || outFeatures <= 0 {
		panic(fmt.Sprintf("nn: Linear features must be positive, got %d×%d", inFeatures, outFeatures))
	}
	l := &Linear{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter("weight", mat.NewDense(outFeatures, inFeatures, nil)),
	}
	if useBias {
		l.bias = NewParameter("bias", mat.NewDense(1, outFeatures, nil))
	}
	l.ResetParameters()
	return l
}

// Forward computes y = x @ Wᵗ + b.
//
// Input shape: [batch, in_features]. Output shape: [batch, out_features].
func (l *Linear) Forward(x *mat.Dense) *mat.Dense {
	rows, cols := x.Dims()
	if cols != l.inFeatures {
		panic(fmt.Sprintf("nn: Linear expected input with %d features, got %d", l.inFeatures, cols))
	}
	out := mat.NewDense(rows, l.outFeatures, nil)
	out.Mul(x, l.weight.value.T())
	if l.bias != nil {
		b := l.bias.value.RawMatrix().Data
		raw := out.RawMatrix().Data
		for i := 0; i < rows; i++ {
			row := raw[i*l.outFeatures : (i+1)*l.outFeatures]
			for j := range row {
				row[j] += b[j]
			}
		}
	}
	return out
}

// Weight returns the weight parameter.
func (l *Linear) Weight() *Parameter { return l.weight }

// InFeatures returns the number of input features.
func (l *Linear) InFeatures() int { return l.inFeatures }

// OutFeatures returns the number of output features.
func (l *Linear) OutFeatures() int { return l.outFeatures }

// Parameters returns [weight, bias] if the bias is present, else [weight].
func (l *Linear) Parameters() []*Parameter {
	if l.bias != nil {
		return []*Parameter{l.weight, l.bias}
	}
	return []*Parameter{l.weight}
}

// ResetParameters reinitializes the weight with Xavier uniform values and
// zeroes the bias.
func (l *Linear) ResetParameters() {
	Xavier(l.inFeatures, l.outFeatures, l.weight.value)
	if l.bias != nil {
		Zeros(l.bias.value)
	}
}
