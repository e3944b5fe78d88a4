// Copyright 2025 TensorNet ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package graph provides the neighbor-graph contract consumed by the
// TensorNet layers, together with a brute-force reference provider.
//
// A provider turns atomic positions into a directed edge list with one
// scalar distance and one displacement vector per edge. Providers may
// return fixed-capacity buffers padded with sentinel edges so that callers
// can run with static shapes; sentinel edges carry Source = -1 and are
// ignored by every aggregation downstream.
package graph

import "gonum.org/v1/gonum/spatial/r3"

// Sentinel marks the source and target indices of padding edges.
const Sentinel = -1

// EdgeList is a directed neighbor list.
//
// For every valid edge e, Vector[e] points from atom Target[e] to atom
// Source[e] and its norm equals Distance[e], except for self-loops where
// the distance is zero and the vector is the zero vector.
type EdgeList struct {
	Source   []int
	Target   []int
	Distance []float64
	Vector   []r3.Vec
}

// Len returns the number of edge slots, including sentinel padding.
func (e *EdgeList) Len() int { return len(e.Source) }

// Valid reports whether slot i holds a real edge rather than padding.
func (e *EdgeList) Valid(i int) bool { return e.Source[i] >= 0 }

// Provider builds the neighbor graph for a batch of molecules.
//
// batch assigns every atom to a molecule; atoms from different molecules
// never share an edge. A nil batch means a single molecule.
type Provider interface {
	Neighbors(pos []r3.Vec, batch []int) (*EdgeList, error)
}
