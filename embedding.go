// Copyright 2025 TensorNet ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensornet

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/tensornet-ml/tensornet/internal/graph"
	"github.com/tensornet-ml/tensornet/internal/nn"
	"github.com/tensornet-ml/tensornet/internal/rbf"
	"github.com/tensornet-ml/tensornet/internal/tensor3"
)

// tensorEmbedding lifts per-edge radial features and atomic-number
// embeddings into one rank-2 tensor per atom, the initial node state.
//
// Per edge it builds the three irreducible base tensors: the identity, the
// skew-symmetric matrix of the normalized displacement, and its symmetric
// traceless outer product. Each is scaled by a cutoff-weighted radial
// projection and by a species-pair factor, then scatter-added onto the
// target atom. A gating network on the invariant norm and a channel-mixing
// map produce the final per-atom tensor.
type tensorEmbedding struct {
	hidden int

	emb           *nn.Embedding
	emb2          *nn.Linear // 2C -> C species-pair projection
	distanceProj1 *nn.Linear
	distanceProj2 *nn.Linear
	distanceProj3 *nn.Linear
	linearsTensor [3]*nn.Linear // C -> C, no bias
	linearsScalar [2]*nn.Linear // C -> 2C -> 3C
	initNorm      *nn.LayerNorm
	cutoff        rbf.CosineCutoff
	act           nn.ActivationFunc
}

func newTensorEmbedding(cfg Config, act nn.ActivationFunc) *tensorEmbedding {
	c := cfg.HiddenChannels
	te := &tensorEmbedding{
		hidden:        c,
		emb:           nn.NewEmbedding(cfg.MaxZ, c),
		emb2:          nn.NewLinear(2*c, c),
		distanceProj1: nn.NewLinear(cfg.NumRBF, c),
		distanceProj2: nn.NewLinear(cfg.NumRBF, c),
		distanceProj3: nn.NewLinear(cfg.NumRBF, c),
		initNorm:      nn.NewLayerNorm(c, 1e-5),
		cutoff:        rbf.NewCosineCutoff(cfg.CutoffLower, cfg.CutoffUpper),
		act:           act,
	}
	for i := range te.linearsTensor {
		te.linearsTensor[i] = nn.NewLinearNoBias(c, c)
	}
	te.linearsScalar[0] = nn.NewLinear(c, 2*c)
	te.linearsScalar[1] = nn.NewLinear(2*c, 3*c)
	return te
}

// forward computes the initial node tensors.
//
// vecs are the normalized displacement vectors; self-loops and sentinel
// slots carry the zero vector, so their skew and symmetric-traceless base
// tensors vanish and self-interaction enters only through the identity.
func (te *tensorEmbedding) forward(z []int, edges *graph.EdgeList, vecs []r3.Vec, edgeAttr *mat.Dense) *tensor3.Batch {
	nAtoms := len(z)
	zEmb := te.emb.Forward(z) // [n, C]

	env := te.cutoff.Apply(edges.Distance)
	w1 := scaleRows(te.distanceProj1.Forward(edgeAttr), env)
	w2 := scaleRows(te.distanceProj2.Forward(edgeAttr), env)
	w3 := scaleRows(te.distanceProj3.Forward(edgeAttr), env)

	iEdge := tensor3.IdentityBatch(edges.Len()).Scale(w1)
	aEdge := tensor3.SkewBatch(vecs).Scale(w2)
	sEdge := tensor3.SymTracelessBatch(vecs).Scale(w3)

	// Species-pair factor: concat(target, source) embeddings projected to
	// one scalar per channel per edge. Sentinel slots read zeros; their
	// messages are dropped by the aggregator regardless.
	pair := mat.NewDense(edges.Len(), 2*te.hidden, nil)
	for e := 0; e < edges.Len(); e++ {
		if !edges.Valid(e) {
			continue
		}
		row := pair.RawRowView(e)
		copy(row[:te.hidden], zEmb.RawRowView(edges.Target[e]))
		copy(row[te.hidden:], zEmb.RawRowView(edges.Source[e]))
	}
	zij := te.emb2.Forward(pair) // [E, C]

	iEdge = iEdge.Scale(zij)
	aEdge = aEdge.Scale(zij)
	sEdge = sEdge.Scale(zij)

	ii := tensor3.NewBatch(nAtoms, te.hidden)
	aa := tensor3.NewBatch(nAtoms, te.hidden)
	ss := tensor3.NewBatch(nAtoms, te.hidden)
	tensor3.ScatterAdd(ii, iEdge, edges.Target)
	tensor3.ScatterAdd(aa, aEdge, edges.Target)
	tensor3.ScatterAdd(ss, sEdge, edges.Target)

	// Gate the mixed tensors by a network on the invariant norm.
	norm := ii.Add(aa).Add(ss).NormSquared()
	gates := te.initNorm.Forward(norm)
	for _, lin := range te.linearsScalar {
		gates = te.act.Apply(lin.Forward(gates))
	}
	fI, fA, fS := splitGates(gates, te.hidden)

	ii = ii.MixChannels(te.linearsTensor[0].Weight().Value())
	aa = aa.MixChannels(te.linearsTensor[1].Weight().Value())
	ss = ss.MixChannels(te.linearsTensor[2].Weight().Value())

	return ii.Scale(fI).Add(aa.Scale(fA)).Add(ss.Scale(fS))
}

// Parameters returns the trainable parameters of the embedding.
func (te *tensorEmbedding) Parameters() []*nn.Parameter {
	params := te.emb.Parameters()
	params = append(params, te.emb2.Parameters()...)
	params = append(params, te.distanceProj1.Parameters()...)
	params = append(params, te.distanceProj2.Parameters()...)
	params = append(params, te.distanceProj3.Parameters()...)
	for _, lin := range te.linearsTensor {
		params = append(params, lin.Parameters()...)
	}
	for _, lin := range te.linearsScalar {
		params = append(params, lin.Parameters()...)
	}
	return append(params, te.initNorm.Parameters()...)
}

// ResetParameters reinitializes the trainable parameters of the embedding.
func (te *tensorEmbedding) ResetParameters() {
	te.emb.ResetParameters()
	te.emb2.ResetParameters()
	te.distanceProj1.ResetParameters()
	te.distanceProj2.ResetParameters()
	te.distanceProj3.ResetParameters()
	for _, lin := range te.linearsTensor {
		lin.ResetParameters()
	}
	for _, lin := range te.linearsScalar {
		lin.ResetParameters()
	}
	te.initNorm.ResetParameters()
}
