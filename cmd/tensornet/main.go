// Copyright 2025 TensorNet ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Command tensornet runs a forward pass of the TensorNet molecular
// potential over an XYZ file, or over a built-in bent H-C-H example when
// no input is given, and prints the per-atom feature norms. Results can
// optionally be persisted to a SQLite database.
package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/tensornet-ml/tensornet"
	"github.com/tensornet-ml/tensornet/internal/runstore"
)

var (
	input    = flag.String("i", "", "input XYZ file; built-in H-C-H example when empty")
	channels = flag.Int("channels", 128, "hidden channel width")
	layers   = flag.Int("layers", 2, "number of interaction layers")
	numRBF   = flag.Int("rbf", 32, "number of radial basis functions")
	rbfKind  = flag.String("rbf-kind", "expnorm", "radial basis kind (expnorm, gauss)")
	actKind  = flag.String("activation", "silu", "activation kind (silu, ssp, tanh, sigmoid)")
	lower    = flag.Float64("cutoff-lower", 0, "lower cutoff distance")
	upper    = flag.Float64("cutoff-upper", 4.5, "upper cutoff distance")
	group    = flag.String("group", tensornet.GroupO3, `equivariance group ("O(3)" or "SO(3)")`)
	dbPath   = flag.String("db", "", "optional SQLite database to persist results")
)

// symbols maps the element symbols of the first three periods.
var symbols = map[string]int{
	"H": 1, "He": 2, "Li": 3, "Be": 4, "B": 5, "C": 6, "N": 7, "O": 8,
	"F": 9, "Ne": 10, "Na": 11, "Mg": 12, "Al": 13, "Si": 14, "P": 15,
	"S": 16, "Cl": 17, "Ar": 18,
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func run() error {
	cfg := tensornet.DefaultConfig()
	cfg.HiddenChannels = *channels
	cfg.NumLayers = *layers
	cfg.NumRBF = *numRBF
	cfg.RBFKind = *rbfKind
	cfg.Activation = *actKind
	cfg.CutoffLower = *lower
	cfg.CutoffUpper = *upper
	cfg.Group = *group

	model, err := tensornet.New(cfg)
	if err != nil {
		return err
	}

	name := "bent-hch"
	var z []int
	var pos []r3.Vec
	if *input != "" {
		name = filepath.Base(*input)
		z, pos, err = readXYZ(*input)
		if err != nil {
			return err
		}
	} else {
		z, pos = bentHCH()
	}

	start := time.Now()
	out, err := model.Forward(z, pos, nil, nil, nil)
	if err != nil {
		return err
	}
	log.Printf("%s: %d atoms, forward pass in %v", name, len(z), time.Since(start))

	for i := range z {
		norm := floats.Norm(out.X.RawRowView(i), 2)
		log.Printf("atom %d (z=%d): |x| = %f", i, z[i], norm)
	}

	if *dbPath != "" {
		return persist(name, cfg, z, out)
	}
	return nil
}

func persist(name string, cfg tensornet.Config, z []int, out *tensornet.Output) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := runstore.Open(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	run := runstore.Run{
		Name:           name,
		Group:          cfg.Group,
		HiddenChannels: cfg.HiddenChannels,
		NumLayers:      cfg.NumLayers,
	}
	for i := range z {
		run.Atoms = append(run.Atoms, runstore.AtomResult{
			Index:    i,
			Z:        z[i],
			Features: out.X.RawRowView(i),
		})
	}
	id, err := store.SaveRun(ctx, run)
	if err != nil {
		return err
	}
	log.Printf("saved run %d to %s", id, *dbPath)
	return nil
}

// bentHCH is a three-atom H-C-H system with unit bond lengths and a bent
// 104° angle.
func bentHCH() ([]int, []r3.Vec) {
	angle := 104.0 / 180.0 * math.Pi
	z := []int{1, 6, 1}
	pos := []r3.Vec{
		{X: 1, Y: 0, Z: 0},
		{},
		{X: math.Cos(angle), Y: math.Sin(angle), Z: 0},
	}
	return z, pos
}

// readXYZ parses a minimal XYZ file: atom count, comment line, then one
// "symbol x y z" line per atom. Numeric atomic numbers are accepted in
// place of symbols.
func readXYZ(path string) ([]int, []r3.Vec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "")
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return nil, nil, errors.Errorf("%s: missing atom count", path)
	}
	count, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "%s: atom count", path)
	}
	if !sc.Scan() {
		return nil, nil, errors.Errorf("%s: missing comment line", path)
	}

	z := make([]int, 0, count)
	pos := make([]r3.Vec, 0, count)
	for i := 0; i < count; i++ {
		if !sc.Scan() {
			return nil, nil, errors.Errorf("%s: expected %d atoms, got %d", path, count, i)
		}
		fields := strings.Fields(sc.Text())
		if len(fields) != 4 {
			return nil, nil, errors.Errorf("%s: atom line %d: expected 4 fields, got %d", path, i+1, len(fields))
		}
		zi, ok := symbols[fields[0]]
		if !ok {
			zi, err = strconv.Atoi(fields[0])
			if err != nil {
				return nil, nil, errors.Errorf("%s: unknown element %q", path, fields[0])
			}
		}
		var v r3.Vec
		if v.X, err = strconv.ParseFloat(fields[1], 64); err != nil {
			return nil, nil, errors.Wrapf(err, "%s: atom line %d", path, i+1)
		}
		if v.Y, err = strconv.ParseFloat(fields[2], 64); err != nil {
			return nil, nil, errors.Wrapf(err, "%s: atom line %d", path, i+1)
		}
		if v.Z, err = strconv.ParseFloat(fields[3], 64); err != nil {
			return nil, nil, errors.Wrapf(err, "%s: atom line %d", path, i+1)
		}
		z = append(z, zi)
		pos = append(pos, v)
	}
	if err := sc.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "")
	}
	return z, pos, nil
}
