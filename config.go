// Copyright 2025 TensorNet ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensornet

import (
	"github.com/pkg/errors"
)

// Equivariance groups under whose action on input positions internal
// tensor features are equivariant and scalar outputs invariant.
const (
	// GroupO3 covers rotations and reflections.
	GroupO3 = "O(3)"
	// GroupSO3 covers rotations only.
	GroupSO3 = "SO(3)"
)

// Config configures a TensorNet model. Use DefaultConfig for the reference
// hyperparameters and override fields as needed; New validates the whole
// configuration and fails fast on any value outside the allowed sets.
type Config struct {
	// HiddenChannels is the per-atom feature width. Must be positive.
	HiddenChannels int
	// NumLayers is the number of interaction layers. May be zero, in
	// which case the readout consumes the embedding output directly.
	NumLayers int
	// NumRBF is the number of radial basis functions. Must be positive.
	NumRBF int
	// RBFKind selects the radial basis: "expnorm" or "gauss".
	RBFKind string
	// TrainableRBF exposes the radial basis parameters as trainable.
	TrainableRBF bool
	// Activation selects the activation function: "silu", "ssp", "tanh"
	// or "sigmoid".
	Activation string
	// CutoffLower and CutoffUpper bound interatomic interactions.
	// 0 <= CutoffLower < CutoffUpper.
	CutoffLower float64
	CutoffUpper float64
	// MaxZ is the number of atomic species the embedding table holds.
	// Atomic numbers must lie in [0, MaxZ).
	MaxZ int
	// MaxNeighbors sizes the fixed-capacity neighbor buffers, per atom.
	MaxNeighbors int
	// Group is the equivariance group, GroupO3 or GroupSO3.
	Group string
}

// DefaultConfig returns the reference TensorNet hyperparameters.
func DefaultConfig() Config {
	return Config{
		HiddenChannels: 128,
		NumLayers:      2,
		NumRBF:         32,
		RBFKind:        "expnorm",
		TrainableRBF:   false,
		Activation:     "silu",
		CutoffLower:    0,
		CutoffUpper:    4.5,
		MaxZ:           128,
		MaxNeighbors:   64,
		Group:          GroupO3,
	}
}

func (c Config) validate() error {
	if c.HiddenChannels <= 0 {
		return errors.Errorf("tensornet: HiddenChannels must be positive, got %d", c.HiddenChannels)
	}
	if c.NumLayers < 0 {
		return errors.Errorf("tensornet: NumLayers must be non-negative, got %d", c.NumLayers)
	}
	if c.NumRBF <= 0 {
		return errors.Errorf("tensornet: NumRBF must be positive, got %d", c.NumRBF)
	}
	if c.CutoffLower < 0 || c.CutoffUpper <= c.CutoffLower {
		return errors.Errorf("tensornet: cutoffs must satisfy 0 <= CutoffLower < CutoffUpper, got [%v, %v]",
			c.CutoffLower, c.CutoffUpper)
	}
	if c.MaxZ <= 0 {
		return errors.Errorf("tensornet: MaxZ must be positive, got %d", c.MaxZ)
	}
	if c.MaxNeighbors <= 0 {
		return errors.Errorf("tensornet: MaxNeighbors must be positive, got %d", c.MaxNeighbors)
	}
	if c.Group != GroupO3 && c.Group != GroupSO3 {
		return errors.Errorf("tensornet: unknown Group %q, expected %q or %q", c.Group, GroupO3, GroupSO3)
	}
	return nil
}
