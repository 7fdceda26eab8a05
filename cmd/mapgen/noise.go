package main

import (
	"math"
	"math/rand"
)

// lattice is value noise over a grid of random values that repeats every
// px by py lattice cells, so a map sampled across one full period has no
// seam when it wraps.
type lattice struct {
	px, py int
	values []float64
}

func newLattice(rng *rand.Rand, px, py int) *lattice {
	l := &lattice{px: px, py: py, values: make([]float64, px*py)}
	for i := range l.values {
		l.values[i] = rng.Float64()
	}
	return l
}

func (l *lattice) at(ix, iy int) float64 {
	ix = ((ix % l.px) + l.px) % l.px
	iy = ((iy % l.py) + l.py) % l.py
	return l.values[iy*l.px+ix]
}

func smooth(t float64) float64 { return t * t * (3 - 2*t) }

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

// sample interpolates the lattice at (u, v) in lattice units.
func (l *lattice) sample(u, v float64) float64 {
	fu, fv := math.Floor(u), math.Floor(v)
	ix, iy := int(fu), int(fv)
	tx, ty := smooth(u-fu), smooth(v-fv)
	top := lerp(l.at(ix, iy), l.at(ix+1, iy), tx)
	bottom := lerp(l.at(ix, iy+1), l.at(ix+1, iy+1), tx)
	return lerp(top, bottom, ty)
}

// Fractal sums octaves of tileable value noise over a w by h map. Each
// octave doubles the lattice resolution and halves the amplitude.
type Fractal struct {
	w, h   int
	layers []*lattice
}

// NewFractal creates noise whose coarsest features are about cell tiles
// across.
func NewFractal(seed int64, w, h, cell, octaves int) *Fractal {
	rng := rand.New(rand.NewSource(seed))
	f := &Fractal{w: w, h: h}
	for i := range octaves {
		px := max(1, (w<<i)/cell)
		py := max(1, (h<<i)/cell)
		f.layers = append(f.layers, newLattice(rng, px, py))
	}
	return f
}

// At returns the noise value for tile (x, y) in [0, 1). Coordinates
// outside the map repeat with period w and h.
func (f *Fractal) At(x, y int) float64 {
	var total, norm float64
	amp := 1.0
	for _, l := range f.layers {
		u := float64(x) * float64(l.px) / float64(f.w)
		v := float64(y) * float64(l.py) / float64(f.h)
		total += amp * l.sample(u, v)
		norm += amp
		amp *= 0.5
	}
	return total / norm
}
