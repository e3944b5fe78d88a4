// Copyright 2025 TensorNet ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensornet

import (
	"gonum.org/v1/gonum/mat"

	"github.com/tensornet-ml/tensornet/internal/graph"
	"github.com/tensornet-ml/tensornet/internal/nn"
	"github.com/tensornet-ml/tensornet/internal/rbf"
	"github.com/tensornet-ml/tensornet/internal/tensor3"
)

// interaction is one round of equivariant message passing.
//
// Node tensors are norm-bounded, decomposed, channel-mixed and sent along
// edges gated by a radial network. The aggregated message and the node
// state are combined through matrix products chosen by the equivariance
// group, and the result feeds a residual update. Every operation on the
// 3×3 axes is a bilinear form in quantities that conjugate under rotation,
// so the update preserves equivariance.
type interaction struct {
	hidden int
	group  string

	linearsScalar [3]*nn.Linear // K -> C -> 2C -> 3C
	linearsTensor [6]*nn.Linear // C -> C, no bias
	cutoff        rbf.CosineCutoff
	act           nn.ActivationFunc
}

func newInteraction(cfg Config, act nn.ActivationFunc) *interaction {
	c := cfg.HiddenChannels
	l := &interaction{
		hidden: c,
		group:  cfg.Group,
		cutoff: rbf.NewCosineCutoff(cfg.CutoffLower, cfg.CutoffUpper),
		act:    act,
	}
	l.linearsScalar[0] = nn.NewLinear(cfg.NumRBF, c)
	l.linearsScalar[1] = nn.NewLinear(c, 2*c)
	l.linearsScalar[2] = nn.NewLinear(2*c, 3*c)
	for i := range l.linearsTensor {
		l.linearsTensor[i] = nn.NewLinearNoBias(c, c)
	}
	return l
}

// forward updates the node tensors x given the edge list and the radial
// features of every edge.
func (l *interaction) forward(x *tensor3.Batch, edges *graph.EdgeList, edgeAttr *mat.Dense) *tensor3.Batch {
	// Per-edge, per-channel gates for the three irreducible parts.
	attr := edgeAttr
	for _, lin := range l.linearsScalar {
		attr = l.act.Apply(lin.Forward(attr))
	}
	attr = scaleRows(attr, l.cutoff.Apply(edges.Distance))
	gI, gA, gS := splitGates(attr, l.hidden)

	// Bound the node state; the +1 keeps zero-norm tensors finite.
	xn := x.Scale(reciprocalNormPlusOne(x.NormSquared()))

	ii, aa, ss := xn.Decompose()
	ii = ii.MixChannels(l.linearsTensor[0].Weight().Value())
	aa = aa.MixChannels(l.linearsTensor[1].Weight().Value())
	ss = ss.MixChannels(l.linearsTensor[2].Weight().Value())
	y := ii.Add(aa).Add(ss)

	// Propagate: each edge carries the source atom's parts, rescaled by
	// the edge gates, onto the target atom.
	msg := tensor3.NewBatch(xn.N(), l.hidden)
	tensor3.ScatterAdd(msg, ii.Gather(edges.Source).Scale(gI), edges.Target)
	tensor3.ScatterAdd(msg, aa.Gather(edges.Source).Scale(gA), edges.Target)
	tensor3.ScatterAdd(msg, ss.Gather(edges.Source).Scale(gS), edges.Target)

	var mixed *tensor3.Batch
	switch l.group {
	case GroupO3:
		mixed = msg.MatMul(y).Add(y.MatMul(msg))
	default: // GroupSO3
		prod := y.MatMul(msg)
		mixed = prod.Add(prod)
	}
	ii, aa, ss = mixed.Decompose()

	scale := reciprocalNormPlusOne(ii.Add(aa).Add(ss).NormSquared())
	dx := ii.Scale(scale).MixChannels(l.linearsTensor[3].Weight().Value())
	dx.AddInPlace(aa.Scale(scale).MixChannels(l.linearsTensor[4].Weight().Value()))
	dx.AddInPlace(ss.Scale(scale).MixChannels(l.linearsTensor[5].Weight().Value()))

	// Residual update with a true matrix square; dx·dx conjugates like dx
	// under rotation.
	out := dx.MatMul(dx)
	out.AddInPlace(dx)
	out.AddInPlace(xn)
	return out
}

// Parameters returns the trainable parameters of the layer.
func (l *interaction) Parameters() []*nn.Parameter {
	var params []*nn.Parameter
	for _, lin := range l.linearsScalar {
		params = append(params, lin.Parameters()...)
	}
	for _, lin := range l.linearsTensor {
		params = append(params, lin.Parameters()...)
	}
	return params
}

// ResetParameters reinitializes the trainable parameters of the layer.
func (l *interaction) ResetParameters() {
	for _, lin := range l.linearsScalar {
		lin.ResetParameters()
	}
	for _, lin := range l.linearsTensor {
		lin.ResetParameters()
	}
}
