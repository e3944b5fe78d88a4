// Copyright 2025 TensorNet ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package rbf implements radial basis expansions of interatomic distances
// and the smooth cosine cutoff envelope.
//
// An Expansion maps each scalar distance to a vector of basis-function
// evaluations. The kinds form a closed set resolved at construction;
// unknown kinds fail with a descriptive error.
package rbf

import (
	"math"

	"github.com/pkg/errors"

	"gonum.org/v1/gonum/mat"

	"github.com/tensornet-ml/tensornet/internal/nn"
)

// Expansion kind names accepted by New.
const (
	KindExpNormal = "expnorm"
	KindGaussian  = "gauss"
)

// Expansion evaluates a radial basis at given distances.
//
// The exp-normal kind places exponentially warped Gaussians that resolve
// short distances more finely, weighted by a cosine cutoff envelope. The
// Gaussian kind places evenly spaced Gaussians between the cutoffs.
type Expansion struct {
	kind      string
	lower     float64
	upper     float64
	num       int
	trainable bool

	// expnorm
	alpha  float64
	means  *nn.Parameter // [1, num]
	betas  *nn.Parameter // [1, num]
	cutoff CosineCutoff

	// gauss
	offsets *nn.Parameter // [1, num]
	coeff   float64
}

var _ nn.Module = (*Expansion)(nil)

// New creates a radial basis expansion of the given kind.
//
// num is the number of basis functions; lower and upper are the cutoff
// distances. When trainable is true the basis parameters are exposed as
// trainable parameters, otherwise they stay fixed at their analytic values.
func New(kind string, lower, upper float64, num int, trainable bool) (*Expansion, error) {
	if num <= 0 {
		return nil, errors.Errorf("rbf: number of basis functions must be positive, got %d", num)
	}
	if lower < 0 || upper <= lower {
		return nil, errors.Errorf("rbf: cutoffs must satisfy 0 <= lower < upper, got [%v, %v]", lower, upper)
	}
	e := &Expansion{kind: kind, lower: lower, upper: upper, num: num, trainable: trainable}
	switch kind {
	case KindExpNormal:
		e.alpha = 5.0 / (upper - lower)
		e.means = nn.NewParameter("rbf.means", mat.NewDense(1, num, nil))
		e.betas = nn.NewParameter("rbf.betas", mat.NewDense(1, num, nil))
		// The envelope inside the smearing always starts at zero distance.
		e.cutoff = NewCosineCutoff(0, upper)
	case KindGaussian:
		e.offsets = nn.NewParameter("rbf.offsets", mat.NewDense(1, num, nil))
	default:
		return nil, errors.Errorf("rbf: unknown kind %q, expected %q or %q", kind, KindExpNormal, KindGaussian)
	}
	e.ResetParameters()
	return e, nil
}

// Num returns the number of basis functions.
func (e *Expansion) Num() int { return e.num }

// Expand evaluates the basis at every distance, returning a
// [len(distances), num] matrix.
func (e *Expansion) Expand(distances []float64) *mat.Dense {
	out := mat.NewDense(len(distances), e.num, nil)
	switch e.kind {
	case KindExpNormal:
		means := e.means.Value().RawMatrix().Data
		betas := e.betas.Value().RawMatrix().Data
		for i, d := range distances {
			c := e.cutoff.Value(d)
			row := out.RawRowView(i)
			warped := math.Exp(e.alpha * (e.lower - d))
			for k := range row {
				diff := warped - means[k]
				row[k] = c * math.Exp(-betas[k]*diff*diff)
			}
		}
	case KindGaussian:
		offsets := e.offsets.Value().RawMatrix().Data
		for i, d := range distances {
			row := out.RawRowView(i)
			for k := range row {
				diff := d - offsets[k]
				row[k] = math.Exp(e.coeff * diff * diff)
			}
		}
	}
	return out
}

// Parameters returns the basis parameters when the expansion is trainable,
// and nothing otherwise.
func (e *Expansion) Parameters() []*nn.Parameter {
	if !e.trainable {
		return nil
	}
	switch e.kind {
	case KindExpNormal:
		return []*nn.Parameter{e.means, e.betas}
	default:
		return []*nn.Parameter{e.offsets}
	}
}

// ResetParameters restores the analytic initial values of the basis.
func (e *Expansion) ResetParameters() {
	switch e.kind {
	case KindExpNormal:
		start := math.Exp(e.lower - e.upper)
		means := e.means.Value().RawMatrix().Data
		betas := e.betas.Value().RawMatrix().Data
		beta := math.Pow(2/float64(e.num)*(1-start), -2)
		for k := range means {
			means[k] = start + float64(k)*(1-start)/float64(e.num-1)
			betas[k] = beta
		}
		if e.num == 1 {
			means[0] = start
		}
	case KindGaussian:
		offsets := e.offsets.Value().RawMatrix().Data
		width := (e.upper - e.lower) / float64(e.num-1)
		for k := range offsets {
			offsets[k] = e.lower + float64(k)*width
		}
		if e.num == 1 {
			offsets[0] = e.lower
			width = e.upper - e.lower
		}
		e.coeff = -0.5 / (width * width)
	}
}
