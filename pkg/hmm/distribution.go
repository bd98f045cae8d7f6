package hmm

import (
	"math"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/rand"
)

var ErrIllegalWeight = errors.New("illegal weight")

// Distribution. emission distribution over pair symbols, weights are linear probabilities.
type Distribution interface {
	Weight(p Pair) float64
}

// Sampler. distribution that can draw a symbol, needed by Generate.
type Sampler interface {
	Sample(r *rand.Rand) (Pair, bool)
}

// SimpleDistribution. explicit weight table. pairs without a weight have probability 0.
type SimpleDistribution struct {
	weights map[Pair]float64
	order   []Pair // insertion order, keeps Sample deterministic for a seeded rng
}

func NewDistribution() *SimpleDistribution {
	return &SimpleDistribution{
		weights: make(map[Pair]float64),
	}
}

func (d *SimpleDistribution) SetWeight(p Pair, w float64) error {
	if math.IsNaN(w) || w < 0 || w > 1 {
		return errors.Wrapf(ErrIllegalWeight, "weight %v for %v", w, p)
	}
	if _, ok := d.weights[p]; !ok {
		d.order = append(d.order, p)
	}
	d.weights[p] = w
	return nil
}

func (d *SimpleDistribution) Weight(p Pair) float64 {
	return d.weights[p]
}

// Total. sum of all weights, 1 for a normalized distribution.
func (d *SimpleDistribution) Total() float64 {
	total := 0.0
	for _, p := range d.order {
		total += d.weights[p]
	}
	return total
}

func (d *SimpleDistribution) Sample(r *rand.Rand) (Pair, bool) {
	total := d.Total()
	if total <= 0 {
		return Pair{Gap, Gap}, false
	}
	x := r.Float64() * total
	var last Pair
	for _, p := range d.order {
		w := d.weights[p]
		if w == 0 {
			continue
		}
		last = p
		if x < w {
			return p, true
		}
		x -= w
	}
	return last, true
}
