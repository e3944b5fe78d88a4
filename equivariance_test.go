// Copyright 2025 TensorNet ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensornet

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/tensornet-ml/tensornet/internal/graph"
	"github.com/tensornet-ml/tensornet/internal/tensor3"
)

// rotationMatrix returns the 3x3 matrix of a rotation by alpha around axis.
func rotationMatrix(alpha float64, axis r3.Vec) *mat.Dense {
	rot := r3.NewRotation(alpha, axis)
	m := mat.NewDense(3, 3, nil)
	basis := []r3.Vec{{X: 1}, {Y: 1}, {Z: 1}}
	for j, e := range basis {
		v := rot.Rotate(e)
		m.Set(0, j, v.X)
		m.Set(1, j, v.Y)
		m.Set(2, j, v.Z)
	}
	return m
}

func applyMatrix(m *mat.Dense, pos []r3.Vec) []r3.Vec {
	out := make([]r3.Vec, len(pos))
	for i, p := range pos {
		out[i] = r3.Vec{
			X: m.At(0, 0)*p.X + m.At(0, 1)*p.Y + m.At(0, 2)*p.Z,
			Y: m.At(1, 0)*p.X + m.At(1, 1)*p.Y + m.At(1, 2)*p.Z,
			Z: m.At(2, 0)*p.X + m.At(2, 1)*p.Y + m.At(2, 2)*p.Z,
		}
	}
	return out
}

// channelMatrix views channel c of atom i as a 3x3 matrix.
func channelMatrix(b *tensor3.Batch, i, c int) *mat.Dense {
	off := (i*b.Channels() + c) * 9
	return mat.NewDense(3, 3, b.Data()[off:off+9])
}

// TestRotationInvariance checks scalar outputs are unchanged by a rigid
// rotation of the input positions, for both equivariance groups.
func TestRotationInvariance(t *testing.T) {
	for _, group := range []string{GroupO3, GroupSO3} {
		t.Run(group, func(t *testing.T) {
			cfg := testConfig()
			cfg.Group = group
			model, err := New(cfg)
			require.NoError(t, err)

			z, pos := bentMolecule()
			rot := rotationMatrix(math.Pi/2, r3.Vec{Z: 1})

			base, err := model.Forward(z, pos, nil, nil, nil)
			require.NoError(t, err)
			rotated, err := model.Forward(z, applyMatrix(rot, pos), nil, nil, nil)
			require.NoError(t, err)

			assert.True(t, mat.EqualApprox(base.X, rotated.X, 1e-9))
		})
	}
}

// TestRotationInvariance_GeneralAxis repeats the check with a rotation that
// mixes all three coordinate axes.
func TestRotationInvariance_GeneralAxis(t *testing.T) {
	model, err := New(testConfig())
	require.NoError(t, err)

	z, pos := bentMolecule()
	rot := rotationMatrix(1.1, r3.Vec{X: 1, Y: -2, Z: 0.5})

	base, err := model.Forward(z, pos, nil, nil, nil)
	require.NoError(t, err)
	rotated, err := model.Forward(z, applyMatrix(rot, pos), nil, nil, nil)
	require.NoError(t, err)

	assert.True(t, mat.EqualApprox(base.X, rotated.X, 1e-9))
}

// TestReflectionInvariance checks the O(3) model is invariant under an
// improper transformation of the positions.
func TestReflectionInvariance(t *testing.T) {
	cfg := testConfig()
	cfg.Group = GroupO3
	model, err := New(cfg)
	require.NoError(t, err)

	// Reflection through the xy plane composed with a rotation, so the
	// transformation is improper and not equivalent to any rotation of the
	// planar test geometry.
	refl := rotationMatrix(0.7, r3.Vec{X: 1, Y: 1, Z: 1})
	for j := 0; j < 3; j++ {
		refl.Set(2, j, -refl.At(2, j))
	}

	z, pos := bentMolecule()
	pos = append(pos, r3.Vec{X: 0.3, Y: 0.4, Z: 0.8}) // off-plane atom
	z = append(z, 8)

	base, err := model.Forward(z, pos, nil, nil, nil)
	require.NoError(t, err)
	mirrored, err := model.Forward(z, applyMatrix(refl, pos), nil, nil, nil)
	require.NoError(t, err)

	assert.True(t, mat.EqualApprox(base.X, mirrored.X, 1e-9))
}

// TestTranslationInvariance checks a rigid shift of all positions leaves the
// output unchanged.
func TestTranslationInvariance(t *testing.T) {
	model, err := New(testConfig())
	require.NoError(t, err)

	z, pos := bentMolecule()
	shifted := make([]r3.Vec, len(pos))
	for i, p := range pos {
		shifted[i] = r3.Add(p, r3.Vec{X: 10, Y: -3, Z: 0.5})
	}

	base, err := model.Forward(z, pos, nil, nil, nil)
	require.NoError(t, err)
	moved, err := model.Forward(z, shifted, nil, nil, nil)
	require.NoError(t, err)

	assert.True(t, mat.EqualApprox(base.X, moved.X, 1e-9))
}

// TestEmbeddingEquivariance checks the node tensors produced by the
// embedding conjugate with the rotation: X' = R X Rt per atom and channel.
func TestEmbeddingEquivariance(t *testing.T) {
	cfg := testConfig()
	model, err := New(cfg)
	require.NoError(t, err)

	z, pos := bentMolecule()
	rot := rotationMatrix(0.9, r3.Vec{X: 0.2, Y: 1, Z: -0.7})
	posR := applyMatrix(rot, pos)

	run := func(p []r3.Vec) *tensor3.Batch {
		provider := &graph.BruteForce{CutoffUpper: cfg.CutoffUpper, MaxNeighbors: cfg.MaxNeighbors}
		edges, err := provider.Neighbors(p, nil)
		require.NoError(t, err)
		vecs := make([]r3.Vec, edges.Len())
		for e := range vecs {
			if edges.Source[e] != edges.Target[e] && edges.Distance[e] > 0 {
				vecs[e] = r3.Scale(1/edges.Distance[e], edges.Vector[e])
			}
		}
		return model.embedding.forward(z, edges, vecs, model.expansion.Expand(edges.Distance))
	}

	x := run(pos)
	xr := run(posR)

	var want, tmp mat.Dense
	for i := 0; i < x.N(); i++ {
		for c := 0; c < x.Channels(); c++ {
			tmp.Mul(rot, channelMatrix(x, i, c))
			want.Mul(&tmp, rot.T())
			assert.True(t, mat.EqualApprox(&want, channelMatrix(xr, i, c), 1e-9),
				"atom %d channel %d", i, c)
		}
	}
}

// TestInteractionEquivariance checks a full interaction layer preserves the
// conjugation property of its input tensors.
func TestInteractionEquivariance(t *testing.T) {
	for _, group := range []string{GroupO3, GroupSO3} {
		t.Run(group, func(t *testing.T) {
			cfg := testConfig()
			cfg.Group = group
			model, err := New(cfg)
			require.NoError(t, err)

			z, pos := bentMolecule()
			rot := rotationMatrix(2.2, r3.Vec{X: -1, Y: 0.3, Z: 0.4})
			posR := applyMatrix(rot, pos)

			run := func(p []r3.Vec) *tensor3.Batch {
				provider := &graph.BruteForce{CutoffUpper: cfg.CutoffUpper, MaxNeighbors: cfg.MaxNeighbors}
				edges, err := provider.Neighbors(p, nil)
				require.NoError(t, err)
				vecs := make([]r3.Vec, edges.Len())
				for e := range vecs {
					if edges.Source[e] != edges.Target[e] && edges.Distance[e] > 0 {
						vecs[e] = r3.Scale(1/edges.Distance[e], edges.Vector[e])
					}
				}
				attr := model.expansion.Expand(edges.Distance)
				x := model.embedding.forward(z, edges, vecs, attr)
				return model.layers[0].forward(x, edges, attr)
			}

			x := run(pos)
			xr := run(posR)

			var want, tmp mat.Dense
			for i := 0; i < x.N(); i++ {
				for c := 0; c < x.Channels(); c++ {
					tmp.Mul(rot, channelMatrix(x, i, c))
					want.Mul(&tmp, rot.T())
					assert.True(t, mat.EqualApprox(&want, channelMatrix(xr, i, c), 1e-9),
						"atom %d channel %d", i, c)
				}
			}
		})
	}
}
