// Copyright 2025 TensorNet ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensornet implements an equivariant molecular-potential model
// based on Cartesian-tensor message passing (TensorNet).
//
// For each atom the model builds rank-2 Cartesian tensor features,
// decomposed into scalar, antisymmetric and symmetric-traceless parts,
// propagates them across a neighbor graph through interaction layers, and
// reduces them to a per-atom scalar feature vector usable as an energy
// contribution.
//
// # Basic Usage
//
//	model, err := tensornet.New(tensornet.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, err := model.Forward(z, pos, batch, nil, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// out.X holds one feature row per atom.
//
// Rotating (and, for the O(3) group, reflecting) all input positions by an
// orthogonal transform leaves out.X unchanged: the internal tensor features
// transform by conjugation while the readout consumes only their invariant
// norms.
//
// Reference: TensorNet: Cartesian Tensor Representations for Efficient
// Learning of Molecular Potentials; G. Simeon and G. de Fabritiis.
package tensornet
