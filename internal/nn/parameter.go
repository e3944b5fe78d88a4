// Copyright 2025 TensorNet ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import "gonum.org/v1/gonum/mat"

// Parameter represents a trainable parameter of a layer.
//
// Parameters are named gonum matrices; vectors are stored as 1×n matrices.
// They represent weights, biases and normalization scales.
type Parameter struct {
	name  string
	value *mat.Dense
}

// NewParameter creates a new trainable parameter.
//
// The value should be initialized before creating the Parameter; layers
// reinitialize it again in ResetParameters.
func NewParameter(name string, value *mat.Dense) *Parameter {
	return &Parameter{name: name, value: value}
}

// Name returns the parameter name.
func (p *Parameter) Name() string { return p.name }

// Value returns the parameter matrix. Mutations are visible to the layer.
func (p *Parameter) Value() *mat.Dense { return p.value }
