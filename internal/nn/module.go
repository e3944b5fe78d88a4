// Copyright 2025 TensorNet ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn implements the feed-forward sublayers used by the TensorNet
// model: Linear, LayerNorm, Embedding, and the activation functions.
//
// All layers operate on gonum float64 matrices with rows as the batch axis.
// Parameter ownership is explicit: every layer holds its own weights and
// exposes ResetParameters, and parents compose resets instead of relying
// on recursive registration.
package nn

// Module is the base interface for components that own trainable
// parameters.
type Module interface {
	// Parameters returns all trainable parameters of this module,
	// including nested module parameters. Modules without trainable
	// parameters return an empty slice.
	Parameters() []*Parameter

	// ResetParameters reinitializes all trainable parameters.
	ResetParameters()
}

var (
	_ Module = (*Linear)(nil)
	_ Module = (*LayerNorm)(nil)
	_ Module = (*Embedding)(nil)
)
