// Copyright 2025 TensorNet ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEmbedding_Lookup checks rows are copied from the table.
func TestEmbedding_Lookup(t *testing.T) {
	e := NewEmbedding(4, 3)
	out := e.Forward([]int{2, 0, 2})

	rows, cols := out.Dims()
	require.Equal(t, 3, rows)
	require.Equal(t, 3, cols)
	assert.Equal(t, e.weight.Value().RawRowView(2), out.RawRowView(0))
	assert.Equal(t, e.weight.Value().RawRowView(0), out.RawRowView(1))
	assert.Equal(t, out.RawRowView(0), out.RawRowView(2))
}

// TestEmbedding_PadIndex checks the reserved padding row is zero and
// reachable through PadIndex.
func TestEmbedding_PadIndex(t *testing.T) {
	e := NewEmbedding(4, 3)
	out := e.Forward([]int{PadIndex})
	for j := 0; j < 3; j++ {
		assert.Zero(t, out.At(0, j))
	}
}

func TestEmbedding_OutOfRangePanics(t *testing.T) {
	e := NewEmbedding(4, 3)
	require.Panics(t, func() { e.Forward([]int{5}) })
	require.Panics(t, func() { e.Forward([]int{-2}) })
}

// TestEmbedding_ResetParameters checks the padding row stays zero after a
// reset.
func TestEmbedding_ResetParameters(t *testing.T) {
	e := NewEmbedding(4, 3)
	e.ResetParameters()
	for j := 0; j < 3; j++ {
		assert.Zero(t, e.weight.Value().At(4, j))
	}
}
