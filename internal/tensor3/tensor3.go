// Copyright 2025 TensorNet ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor3 implements the rank-2 Cartesian tensor algebra used by
// the TensorNet message-passing layers.
//
// A Batch holds one 3×3 matrix per (node, channel) pair in a flat float64
// buffer. Every matrix decomposes uniquely into a trace part I (scalar ×
// identity), an antisymmetric part A and a symmetric traceless part S; the
// three parts are orthogonal under the Frobenius inner product and each
// transforms independently under rotation, which is what makes the
// decomposition the natural basis for equivariant features.
package tensor3

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Batch is a dense batch of 3×3 matrices, one per (node, channel) pair.
//
// The data layout is row-major [n][channels][3][3], so the nine spatial
// entries of one matrix are contiguous, and all channels of one node form a
// contiguous [channels, 9] block. Channel-mixing linear maps exploit this
// by viewing each node block as a gonum matrix.
type Batch struct {
	n        int
	channels int
	data     []float64
}

// NewBatch creates a zero-filled batch of n×channels 3×3 matrices.
func NewBatch(n, channels int) *Batch {
	if n < 0 || channels <= 0 {
		panic(fmt.Sprintf("tensor3: invalid batch size %d×%d", n, channels))
	}
	return &Batch{n: n, channels: channels, data: make([]float64, n*channels*9)}
}

// N returns the number of nodes in the batch.
func (b *Batch) N() int { return b.n }

// Channels returns the number of channels per node.
func (b *Batch) Channels() int { return b.channels }

// Data returns the underlying flat buffer. It is shared, not copied.
func (b *Batch) Data() []float64 { return b.data }

// mat returns the nine entries of matrix (i, c) as a sub-slice.
func (b *Batch) mat(i, c int) []float64 {
	off := (i*b.channels + c) * 9
	return b.data[off : off+9]
}

// Clone returns a deep copy of the batch.
func (b *Batch) Clone() *Batch {
	out := &Batch{n: b.n, channels: b.channels, data: make([]float64, len(b.data))}
	copy(out.data, b.data)
	return out
}

// Add returns the elementwise sum b + o as a new batch.
func (b *Batch) Add(o *Batch) *Batch {
	b.mustMatch(o)
	out := b.Clone()
	for i, v := range o.data {
		out.data[i] += v
	}
	return out
}

// AddInPlace accumulates o into b.
func (b *Batch) AddInPlace(o *Batch) {
	b.mustMatch(o)
	for i, v := range o.data {
		b.data[i] += v
	}
}

// Decompose splits every matrix T into its irreducible parts:
//
//	I = mean(diag(T)) · Identity
//	A = (T − Tᵗ) / 2
//	S = (T + Tᵗ) / 2 − I
//
// so that I + A + S reconstructs T exactly up to rounding, A is exactly
// antisymmetric and S is exactly symmetric with zero trace.
func (b *Batch) Decompose() (ii, aa, ss *Batch) {
	ii = NewBatch(b.n, b.channels)
	aa = NewBatch(b.n, b.channels)
	ss = NewBatch(b.n, b.channels)
	for off := 0; off < len(b.data); off += 9 {
		t := b.data[off : off+9]
		di := ii.data[off : off+9]
		da := aa.data[off : off+9]
		ds := ss.data[off : off+9]

		trace := (t[0] + t[4] + t[8]) / 3
		di[0], di[4], di[8] = trace, trace, trace

		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				v, vt := t[r*3+c], t[c*3+r]
				da[r*3+c] = (v - vt) / 2
				ds[r*3+c] = (v + vt) / 2
			}
		}
		ds[0] -= trace
		ds[4] -= trace
		ds[8] -= trace
	}
	return ii, aa, ss
}

// NormSquared returns the squared Frobenius norm of every matrix as an
// [n, channels] gonum matrix. It is non-negative and zero exactly for the
// zero matrix.
func (b *Batch) NormSquared() *mat.Dense {
	out := mat.NewDense(b.n, b.channels, nil)
	raw := out.RawMatrix().Data
	for m := 0; m < b.n*b.channels; m++ {
		var sum float64
		for _, v := range b.data[m*9 : m*9+9] {
			sum += v * v
		}
		raw[m] = sum
	}
	return out
}

// Scale multiplies every matrix (i, c) by the scalar f(i, c) and returns
// the result as a new batch.
//
// When the batch has a single channel and f has several columns, the
// matrices are broadcast across the columns of f, producing a batch with
// f's channel count. This is the compose operation that lifts a per-edge
// base tensor into per-channel tensors.
func (b *Batch) Scale(f *mat.Dense) *Batch {
	rows, cols := f.Dims()
	if rows != b.n {
		panic(fmt.Sprintf("tensor3: Scale rows %d, batch nodes %d", rows, b.n))
	}
	switch {
	case cols == b.channels:
		out := b.Clone()
		for i := 0; i < b.n; i++ {
			for c := 0; c < b.channels; c++ {
				s := f.At(i, c)
				m := out.mat(i, c)
				for k := range m {
					m[k] *= s
				}
			}
		}
		return out
	case b.channels == 1:
		out := NewBatch(b.n, cols)
		for i := 0; i < b.n; i++ {
			src := b.mat(i, 0)
			for c := 0; c < cols; c++ {
				s := f.At(i, c)
				dst := out.mat(i, c)
				for k := range dst {
					dst[k] = s * src[k]
				}
			}
		}
		return out
	default:
		panic(fmt.Sprintf("tensor3: Scale channels %d, batch channels %d", cols, b.channels))
	}
}

// MatMul returns the batched matrix product b·o over the 3×3 axes.
func (b *Batch) MatMul(o *Batch) *Batch {
	b.mustMatch(o)
	out := NewBatch(b.n, b.channels)
	for m := 0; m < b.n*b.channels; m++ {
		x := b.data[m*9 : m*9+9]
		y := o.data[m*9 : m*9+9]
		z := out.data[m*9 : m*9+9]
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				z[r*3+c] = x[r*3]*y[c] + x[r*3+1]*y[3+c] + x[r*3+2]*y[6+c]
			}
		}
	}
	return out
}

// MixChannels applies a channel-mixing linear map independently to each of
// the nine spatial entries: out(i, c') = Σ_c w(c', c) · in(i, c).
//
// The weight never touches the 3×3 spatial axes, so the map commutes with
// rotations and preserves equivariance. Each node block is a contiguous
// [channels, 9] matrix, so the mix is a single gonum multiply per node.
func (b *Batch) MixChannels(w *mat.Dense) *Batch {
	rows, cols := w.Dims()
	if cols != b.channels {
		panic(fmt.Sprintf("tensor3: MixChannels weight %d×%d, batch channels %d", rows, cols, b.channels))
	}
	out := NewBatch(b.n, rows)
	for i := 0; i < b.n; i++ {
		src := mat.NewDense(b.channels, 9, b.data[i*b.channels*9:(i+1)*b.channels*9])
		dst := mat.NewDense(rows, 9, out.data[i*rows*9:(i+1)*rows*9])
		dst.Mul(w, src)
	}
	return out
}

// Gather selects rows of b by index, producing a batch with len(index)
// nodes. Negative indices mark padding entries and yield zero matrices.
func (b *Batch) Gather(index []int) *Batch {
	out := NewBatch(len(index), b.channels)
	for e, i := range index {
		if i < 0 {
			continue
		}
		copy(out.data[e*b.channels*9:(e+1)*b.channels*9], b.data[i*b.channels*9:(i+1)*b.channels*9])
	}
	return out
}

func (b *Batch) mustMatch(o *Batch) {
	if b.n != o.n || b.channels != o.channels {
		panic(fmt.Sprintf("tensor3: batch shape mismatch %d×%d vs %d×%d", b.n, o.n, b.channels, o.channels))
	}
}

// IdentityBatch returns an n×1 batch where every matrix is the identity.
func IdentityBatch(n int) *Batch {
	b := NewBatch(n, 1)
	for i := 0; i < n; i++ {
		m := b.mat(i, 0)
		m[0], m[4], m[8] = 1, 1, 1
	}
	return b
}

// SkewBatch builds an n×1 batch of skew-symmetric matrices, one per vector.
// Skew(v) is the cross-product operator: Skew(v)·w = v × w for all w. The
// zero vector yields the zero matrix, which keeps self-loop edges inert.
func SkewBatch(vecs []r3.Vec) *Batch {
	b := NewBatch(len(vecs), 1)
	for i, v := range vecs {
		m := b.mat(i, 0)
		m[1], m[2] = -v.Z, v.Y
		m[3], m[5] = v.Z, -v.X
		m[6], m[7] = -v.Y, v.X
	}
	return b
}

// SymTracelessBatch builds an n×1 batch of symmetric traceless matrices
// from the outer product of each vector with itself:
//
//	S(v) = v⊗v − (‖v‖²/3) · Identity
//
// The zero vector yields the zero matrix.
func SymTracelessBatch(vecs []r3.Vec) *Batch {
	b := NewBatch(len(vecs), 1)
	for i, v := range vecs {
		m := b.mat(i, 0)
		trace := (v.X*v.X + v.Y*v.Y + v.Z*v.Z) / 3
		m[0], m[1], m[2] = v.X*v.X-trace, v.X*v.Y, v.X*v.Z
		m[3], m[4], m[5] = v.Y*v.X, v.Y*v.Y-trace, v.Y*v.Z
		m[6], m[7], m[8] = v.Z*v.X, v.Z*v.Y, v.Z*v.Z-trace
	}
	return b
}
