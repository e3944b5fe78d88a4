// Copyright 2025 TensorNet ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor3

import "fmt"

// ScatterAdd accumulates per-edge matrices into per-node sums, grouped by
// target index: dst(index[e], c) += src(e, c).
//
// Negative indices mark sentinel (padding) edges and contribute nothing.
// Nodes with no incoming edges keep their zero value. Addition is
// commutative and associative, so the result does not depend on edge
// ordering.
func ScatterAdd(dst, src *Batch, index []int) {
	if len(index) != src.n {
		panic(fmt.Sprintf("tensor3: ScatterAdd index length %d, source nodes %d", len(index), src.n))
	}
	if dst.channels != src.channels {
		panic(fmt.Sprintf("tensor3: ScatterAdd channels %d vs %d", dst.channels, src.channels))
	}
	stride := src.channels * 9
	for e, i := range index {
		if i < 0 {
			continue
		}
		if i >= dst.n {
			panic(fmt.Sprintf("tensor3: ScatterAdd index %d out of range [0, %d)", i, dst.n))
		}
		row := src.data[e*stride : (e+1)*stride]
		acc := dst.data[i*stride : (i+1)*stride]
		for k, v := range row {
			acc[k] += v
		}
	}
}
