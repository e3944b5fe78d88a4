// Copyright 2025 TensorNet ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor3

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

func randBatch(n, channels int) *Batch {
	b := NewBatch(n, channels)
	for i := range b.data {
		b.data[i] = rand.NormFloat64()
	}
	return b
}

// TestDecompose_Reconstruction checks that I+A+S rebuilds the input and
// that the parts have their defining symmetries.
func TestDecompose_Reconstruction(t *testing.T) {
	b := randBatch(7, 4)
	ii, aa, ss := b.Decompose()

	sum := ii.Add(aa).Add(ss)
	for i, v := range b.data {
		assert.InDelta(t, v, sum.data[i], 1e-12)
	}

	for m := 0; m < b.n*b.channels; m++ {
		a := aa.data[m*9 : m*9+9]
		s := ss.data[m*9 : m*9+9]
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				assert.InDelta(t, -a[c*3+r], a[r*3+c], 1e-12, "A must be antisymmetric")
				assert.InDelta(t, s[c*3+r], s[r*3+c], 1e-12, "S must be symmetric")
			}
		}
		assert.InDelta(t, 0, s[0]+s[4]+s[8], 1e-12, "S must be traceless")
	}
}

// TestDecompose_Orthogonal checks the parts are orthogonal under the
// Frobenius inner product.
func TestDecompose_Orthogonal(t *testing.T) {
	b := randBatch(3, 2)
	ii, aa, ss := b.Decompose()

	dot := func(x, y []float64) float64 {
		var sum float64
		for i := range x {
			sum += x[i] * y[i]
		}
		return sum
	}
	for m := 0; m < b.n*b.channels; m++ {
		i9 := ii.data[m*9 : m*9+9]
		a9 := aa.data[m*9 : m*9+9]
		s9 := ss.data[m*9 : m*9+9]
		assert.InDelta(t, 0, dot(i9, a9), 1e-12)
		assert.InDelta(t, 0, dot(i9, s9), 1e-12)
		assert.InDelta(t, 0, dot(a9, s9), 1e-12)
	}
}

// TestSkewBatch_CrossProduct checks Skew(v)·w = v × w.
func TestSkewBatch_CrossProduct(t *testing.T) {
	v := r3.Vec{X: 0.3, Y: -1.2, Z: 2.1}
	w := r3.Vec{X: -0.7, Y: 0.4, Z: 1.5}
	b := SkewBatch([]r3.Vec{v})

	m := b.mat(0, 0)
	got := r3.Vec{
		X: m[0]*w.X + m[1]*w.Y + m[2]*w.Z,
		Y: m[3]*w.X + m[4]*w.Y + m[5]*w.Z,
		Z: m[6]*w.X + m[7]*w.Y + m[8]*w.Z,
	}
	want := r3.Cross(v, w)
	assert.InDelta(t, want.X, got.X, 1e-12)
	assert.InDelta(t, want.Y, got.Y, 1e-12)
	assert.InDelta(t, want.Z, got.Z, 1e-12)
}

// TestSkewBatch_ZeroVector checks the self-loop rule: a zero vector gives
// the zero matrix.
func TestSkewBatch_ZeroVector(t *testing.T) {
	b := SkewBatch([]r3.Vec{{}})
	for _, v := range b.data {
		assert.Zero(t, v)
	}
	s := SymTracelessBatch([]r3.Vec{{}})
	for _, v := range s.data {
		assert.Zero(t, v)
	}
}

// TestSymTracelessBatch checks S(v) = v⊗v − (‖v‖²/3)·Identity.
func TestSymTracelessBatch(t *testing.T) {
	v := r3.Vec{X: 1.5, Y: -0.5, Z: 0.25}
	b := SymTracelessBatch([]r3.Vec{v})
	m := b.mat(0, 0)

	normSq := r3.Dot(v, v)
	coords := []float64{v.X, v.Y, v.Z}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			want := coords[r] * coords[c]
			if r == c {
				want -= normSq / 3
			}
			assert.InDelta(t, want, m[r*3+c], 1e-12)
		}
	}
	assert.InDelta(t, 0, m[0]+m[4]+m[8], 1e-12)
}

// TestMatMul compares the batched product against gonum.
func TestMatMul(t *testing.T) {
	x := randBatch(4, 3)
	y := randBatch(4, 3)
	z := x.MatMul(y)

	for m := 0; m < 4*3; m++ {
		gx := mat.NewDense(3, 3, x.data[m*9:m*9+9])
		gy := mat.NewDense(3, 3, y.data[m*9:m*9+9])
		var want mat.Dense
		want.Mul(gx, gy)
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				assert.InDelta(t, want.At(r, c), z.data[m*9+r*3+c], 1e-12)
			}
		}
	}
}

// TestMixChannels checks the channel map acts on each spatial entry
// independently.
func TestMixChannels(t *testing.T) {
	const n, cIn, cOut = 2, 3, 5
	b := randBatch(n, cIn)
	w := mat.NewDense(cOut, cIn, nil)
	for i := 0; i < cOut; i++ {
		for j := 0; j < cIn; j++ {
			w.Set(i, j, rand.NormFloat64())
		}
	}

	out := b.MixChannels(w)
	require.Equal(t, cOut, out.Channels())
	for i := 0; i < n; i++ {
		for co := 0; co < cOut; co++ {
			for k := 0; k < 9; k++ {
				var want float64
				for ci := 0; ci < cIn; ci++ {
					want += w.At(co, ci) * b.mat(i, ci)[k]
				}
				assert.InDelta(t, want, out.mat(i, co)[k], 1e-12)
			}
		}
	}
}

// TestScale_Broadcast checks a single-channel batch broadcasts across the
// columns of the scale matrix.
func TestScale_Broadcast(t *testing.T) {
	b := IdentityBatch(2)
	f := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	out := b.Scale(f)

	require.Equal(t, 3, out.Channels())
	for i := 0; i < 2; i++ {
		for c := 0; c < 3; c++ {
			m := out.mat(i, c)
			assert.Equal(t, f.At(i, c), m[0])
			assert.Equal(t, f.At(i, c), m[4])
			assert.Equal(t, f.At(i, c), m[8])
			assert.Zero(t, m[1])
		}
	}
}

// TestNormSquared checks non-negativity and the zero case.
func TestNormSquared(t *testing.T) {
	b := NewBatch(2, 2)
	b.mat(1, 0)[3] = 2
	b.mat(1, 0)[7] = -1

	norms := b.NormSquared()
	assert.Zero(t, norms.At(0, 0))
	assert.Zero(t, norms.At(0, 1))
	assert.InDelta(t, 5, norms.At(1, 0), 1e-12)
	assert.Zero(t, norms.At(1, 1))
}

// TestGather checks row selection and the padding rule.
func TestGather(t *testing.T) {
	b := randBatch(3, 2)
	out := b.Gather([]int{2, -1, 0})

	require.Equal(t, 3, out.N())
	for c := 0; c < 2; c++ {
		assert.Equal(t, b.mat(2, c), out.mat(0, c))
		assert.Equal(t, b.mat(0, c), out.mat(2, c))
		for _, v := range out.mat(1, c) {
			assert.Zero(t, v)
		}
	}
}

// TestAddInPlace checks in-place accumulation matches Add and leaves the
// operand untouched.
func TestAddInPlace(t *testing.T) {
	a := randBatch(3, 2)
	b := randBatch(3, 2)
	want := a.Add(b)
	bBefore := b.Clone()

	a.AddInPlace(b)
	assert.Equal(t, want.data, a.data)
	assert.Equal(t, bBefore.data, b.data)
}

// TestBatch_ShapeMismatchPanics verifies misuse panics rather than
// corrupting data.
func TestBatch_ShapeMismatchPanics(t *testing.T) {
	a := NewBatch(2, 2)
	b := NewBatch(3, 2)
	require.Panics(t, func() { a.Add(b) })
	require.Panics(t, func() { a.AddInPlace(b) })
	require.Panics(t, func() { a.MatMul(b) })
	require.Panics(t, func() { a.Scale(mat.NewDense(2, 3, nil)) })
}

func TestNormSquared_Random(t *testing.T) {
	b := randBatch(5, 3)
	norms := b.NormSquared()
	for i := 0; i < 5; i++ {
		for c := 0; c < 3; c++ {
			var want float64
			for _, v := range b.mat(i, c) {
				want += v * v
			}
			if math.Abs(want-norms.At(i, c)) > 1e-12 {
				t.Errorf("norm(%d,%d): got %v, want %v", i, c, norms.At(i, c), want)
			}
		}
	}
}
