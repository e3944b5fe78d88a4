// Copyright 2025 TensorNet ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package graph

import (
	"github.com/pkg/errors"

	"gonum.org/v1/gonum/spatial/r3"
)

// BruteForce is a reference Provider that examines every intra-molecule
// atom pair. It is quadratic in the number of atoms and intended for small
// systems and tests; cell-list providers can replace it behind the same
// interface.
//
// For each unordered pair within [CutoffLower, CutoffUpper) both directed
// edges are emitted, and every atom gets one self-loop with zero distance
// and zero displacement. With FixedCapacity set, the edge list is padded
// with sentinel slots up to MaxNeighbors × nAtoms so that repeated calls
// return buffers of identical shape.
type BruteForce struct {
	CutoffLower   float64
	CutoffUpper   float64
	MaxNeighbors  int
	FixedCapacity bool
}

// Neighbors builds the directed neighbor list for pos.
//
// batch assigns atoms to molecules; nil means one molecule. The total
// number of edges, self-loops included, must not exceed
// MaxNeighbors × nAtoms.
func (b *BruteForce) Neighbors(pos []r3.Vec, batch []int) (*EdgeList, error) {
	n := len(pos)
	if batch != nil && len(batch) != n {
		return nil, errors.Errorf("graph: batch length %d does not match %d atoms", len(batch), n)
	}
	capacity := b.MaxNeighbors * n
	edges := &EdgeList{}

	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			if batch != nil && batch[i] != batch[j] {
				continue
			}
			delta := r3.Sub(pos[i], pos[j])
			d := r3.Norm(delta)
			if d < b.CutoffLower || d >= b.CutoffUpper {
				continue
			}
			edges.append(i, j, d, delta)
			edges.append(j, i, d, r3.Scale(-1, delta))
		}
	}
	for i := 0; i < n; i++ {
		edges.append(i, i, 0, r3.Vec{})
	}

	if edges.Len() > capacity {
		return nil, errors.Errorf("graph: found %d neighbor pairs, exceeding capacity %d (MaxNeighbors=%d)",
			edges.Len(), capacity, b.MaxNeighbors)
	}
	if b.FixedCapacity {
		for edges.Len() < capacity {
			edges.append(Sentinel, Sentinel, 0, r3.Vec{})
		}
	}
	return edges, nil
}

func (e *EdgeList) append(src, dst int, d float64, v r3.Vec) {
	e.Source = append(e.Source, src)
	e.Target = append(e.Target, dst)
	e.Distance = append(e.Distance, d)
	e.Vector = append(e.Vector, v)
}
