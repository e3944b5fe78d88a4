// Copyright 2025 TensorNet ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Embedding is a lookup table mapping discrete indices to dense vectors.
//
// The model uses it for atomic numbers: index z maps to a learnable vector
// of EmbedDim features. One extra row beyond numEmbeddings is reserved as
// the padding embedding: sentinel-marked edges index it instead of reading
// out of bounds, and their contribution is later discarded by the
// aggregator.
type Embedding struct {
	NumEmbed int        // number of real embeddings, excluding the padding row
	EmbedDim int        // embedding vector size
	weight   *Parameter // [NumEmbed+1, EmbedDim]
}

// PadIndex is the index value that selects the reserved padding row.
const PadIndex = -1

// NewEmbedding creates an Embedding with numEmbeddings real rows plus the
// reserved padding row, initialized from N(0, 1).
func NewEmbedding(numEmbeddings, embeddingDim int) *Embedding {
	if numEmbeddings <= 0 || embeddingDim <= 0 {
		panic(fmt.Sprintf("nn: Embedding size must be positive, got %d×%d", numEmbeddings, embeddingDim))
	}
	e := &Embedding{
		NumEmbed: numEmbeddings,
		EmbedDim: embeddingDim,
		weight:   NewParameter("embedding.weight", mat.NewDense(numEmbeddings+1, embeddingDim, nil)),
	}
	e.ResetParameters()
	return e
}

// Forward performs the embedding lookup, one row per index.
//
// Indices must lie in [0, NumEmbed) or be PadIndex, which selects the
// padding row. Out-of-range indices panic.
func (e *Embedding) Forward(indices []int) *mat.Dense {
	out := mat.NewDense(len(indices), e.EmbedDim, nil)
	for i, idx := range indices {
		if idx == PadIndex {
			idx = e.NumEmbed
		}
		if idx < 0 || idx > e.NumEmbed {
			panic(fmt.Sprintf("nn: Embedding index %d out of range [0, %d)", idx, e.NumEmbed))
		}
		copy(out.RawRowView(i), e.weight.value.RawRowView(idx))
	}
	return out
}

// Parameters returns the embedding weight.
func (e *Embedding) Parameters() []*Parameter {
	return []*Parameter{e.weight}
}

// ResetParameters reinitializes the table from N(0, 1) and zeroes the
// padding row.
func (e *Embedding) ResetParameters() {
	Randn(e.weight.value)
	pad := e.weight.value.RawRowView(e.NumEmbed)
	for i := range pad {
		pad[i] = 0
	}
}
