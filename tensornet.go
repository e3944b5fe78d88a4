// Copyright 2025 TensorNet ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensornet

import (
	"github.com/pkg/errors"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/tensornet-ml/tensornet/internal/graph"
	"github.com/tensornet-ml/tensornet/internal/nn"
	"github.com/tensornet-ml/tensornet/internal/rbf"
)

// TensorNet is the Cartesian-tensor message-passing model.
//
// A forward pass builds the neighbor graph, lifts radial and species
// information into per-atom rank-2 tensors, runs the interaction layers and
// reduces the final tensors to per-atom scalar features. All state except
// the learned weights is per-call; a model is safe to reuse across calls.
type TensorNet struct {
	cfg      Config
	provider graph.Provider

	expansion *rbf.Expansion
	embedding *tensorEmbedding
	layers    []*interaction
	outNorm   *nn.LayerNorm
	linear    *nn.Linear
	act       nn.ActivationFunc
}

var (
	_ nn.Module = (*TensorNet)(nil)
	_ nn.Module = (*tensorEmbedding)(nil)
	_ nn.Module = (*interaction)(nil)
)

// Output carries the per-atom features together with the inputs they were
// computed from, for downstream consumers such as energy reductions.
type Output struct {
	// X holds one feature row of width HiddenChannels per atom.
	X *mat.Dense
	// Inputs, passed through unchanged.
	Z     []int
	Pos   []r3.Vec
	Batch []int
}

// New creates a TensorNet with a brute-force neighbor provider.
//
// The configuration is validated in full before any component is built;
// New never returns a partially constructed model.
func New(cfg Config) (*TensorNet, error) {
	return NewWithProvider(cfg, &graph.BruteForce{
		CutoffLower:  cfg.CutoffLower,
		CutoffUpper:  cfg.CutoffUpper,
		MaxNeighbors: cfg.MaxNeighbors,
	})
}

// NewWithProvider creates a TensorNet using a custom neighbor provider,
// for example a cell-list implementation or a fixed-capacity provider for
// static-shape execution.
func NewWithProvider(cfg Config, provider graph.Provider) (*TensorNet, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	act, err := nn.ResolveActivation(cfg.Activation)
	if err != nil {
		return nil, errors.Wrap(err, "tensornet: Activation")
	}
	expansion, err := rbf.New(cfg.RBFKind, cfg.CutoffLower, cfg.CutoffUpper, cfg.NumRBF, cfg.TrainableRBF)
	if err != nil {
		return nil, errors.Wrap(err, "tensornet: RBFKind")
	}

	t := &TensorNet{
		cfg:       cfg,
		provider:  provider,
		expansion: expansion,
		embedding: newTensorEmbedding(cfg, act),
		outNorm:   nn.NewLayerNorm(3*cfg.HiddenChannels, 1e-5),
		linear:    nn.NewLinear(3*cfg.HiddenChannels, cfg.HiddenChannels),
		act:       act,
	}
	for i := 0; i < cfg.NumLayers; i++ {
		t.layers = append(t.layers, newInteraction(cfg, act))
	}
	return t, nil
}

// Config returns the configuration the model was built with.
func (t *TensorNet) Config() Config { return t.cfg }

// Forward runs one pass over a batch of molecules.
//
// z holds atomic numbers in [0, MaxZ); pos the Cartesian positions; batch
// assigns atoms to molecules (nil means one molecule). q and s are
// auxiliary per-atom scalars (total charge, spin); they are accepted for
// interface compatibility and ignored.
func (t *TensorNet) Forward(z []int, pos []r3.Vec, batch []int, q, s []float64) (*Output, error) {
	_ = q
	_ = s
	if len(pos) != len(z) {
		return nil, errors.Errorf("tensornet: %d atomic numbers but %d positions", len(z), len(pos))
	}
	if batch == nil {
		batch = make([]int, len(z))
	}

	edges, err := t.provider.Neighbors(pos, batch)
	if err != nil {
		return nil, err
	}
	x, err := t.ForwardEdges(z, edges)
	if err != nil {
		return nil, err
	}
	return &Output{X: x, Z: z, Pos: pos, Batch: batch}, nil
}

// ForwardEdges runs the embedding, interaction and readout stages on a
// prebuilt neighbor graph. This is the stable fixed-shape entry point:
// providers may pad the edge list with sentinel slots and the result is
// identical to running on the unpadded list.
func (t *TensorNet) ForwardEdges(z []int, edges *graph.EdgeList) (*mat.Dense, error) {
	for i, zi := range z {
		if zi < 0 || zi >= t.cfg.MaxZ {
			return nil, errors.Errorf("tensornet: atomic number %d at atom %d outside [0, %d)", zi, i, t.cfg.MaxZ)
		}
	}
	if edges.Vector == nil {
		return nil, errors.New("tensornet: neighbor provider did not return directional information")
	}

	// Normalize displacement vectors. Self-loops and sentinel slots have
	// zero distance and keep the zero vector.
	vecs := make([]r3.Vec, edges.Len())
	for e := range vecs {
		if edges.Valid(e) && edges.Source[e] != edges.Target[e] && edges.Distance[e] > 0 {
			vecs[e] = r3.Scale(1/edges.Distance[e], edges.Vector[e])
		}
	}
	edgeAttr := t.expansion.Expand(edges.Distance)

	x := t.embedding.forward(z, edges, vecs, edgeAttr)
	for _, layer := range t.layers {
		x = layer.forward(x, edges, edgeAttr)
	}

	// Readout: the three decomposition norms are the invariant features.
	ii, aa, ss := x.Decompose()
	n := len(z)
	c := t.cfg.HiddenChannels
	feats := mat.NewDense(n, 3*c, nil)
	feats.Slice(0, n, 0, c).(*mat.Dense).Copy(ii.NormSquared())
	feats.Slice(0, n, c, 2*c).(*mat.Dense).Copy(aa.NormSquared())
	feats.Slice(0, n, 2*c, 3*c).(*mat.Dense).Copy(ss.NormSquared())

	out := t.outNorm.Forward(feats)
	out = t.act.Apply(t.linear.Forward(out))
	return out, nil
}

// Parameters returns all trainable parameters of the model.
func (t *TensorNet) Parameters() []*nn.Parameter {
	params := t.expansion.Parameters()
	params = append(params, t.embedding.Parameters()...)
	for _, layer := range t.layers {
		params = append(params, layer.Parameters()...)
	}
	params = append(params, t.outNorm.Parameters()...)
	params = append(params, t.linear.Parameters()...)
	return params
}

// ResetParameters reinitializes every component's parameters.
func (t *TensorNet) ResetParameters() {
	t.expansion.ResetParameters()
	t.embedding.ResetParameters()
	for _, layer := range t.layers {
		layer.ResetParameters()
	}
	t.outNorm.ResetParameters()
	t.linear.ResetParameters()
}

// scaleRows multiplies row i of m by s[i], in a new matrix.
func scaleRows(m *mat.Dense, s []float64) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		src := m.RawRowView(i)
		dst := out.RawRowView(i)
		for j, v := range src {
			dst[j] = v * s[i]
		}
	}
	return out
}

// splitGates views an [n, 3·channels] matrix as [n, channels, 3] and
// returns the three per-channel gate matrices.
func splitGates(m *mat.Dense, channels int) (fI, fA, fS *mat.Dense) {
	rows, cols := m.Dims()
	if cols != 3*channels {
		panic(errors.Errorf("tensornet: expected %d gate columns, got %d", 3*channels, cols))
	}
	fI = mat.NewDense(rows, channels, nil)
	fA = mat.NewDense(rows, channels, nil)
	fS = mat.NewDense(rows, channels, nil)
	for i := 0; i < rows; i++ {
		row := m.RawRowView(i)
		for c := 0; c < channels; c++ {
			fI.Set(i, c, row[3*c])
			fA.Set(i, c, row[3*c+1])
			fS.Set(i, c, row[3*c+2])
		}
	}
	return fI, fA, fS
}

// reciprocalNormPlusOne maps every squared norm x to 1/(x+1). The +1 keeps
// the rescaling finite for zero-norm tensors.
func reciprocalNormPlusOne(norms *mat.Dense) *mat.Dense {
	rows, cols := norms.Dims()
	out := mat.NewDense(rows, cols, nil)
	src := norms.RawMatrix().Data
	dst := out.RawMatrix().Data
	for i, v := range src {
		dst[i] = 1 / (v + 1)
	}
	return out
}
