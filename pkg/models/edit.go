package models

import (
	"github.com/cockroachdb/errors"
	"github.com/lintang-b-s/pairhmm/pkg/hmm"
)

var DNA = hmm.MustAlphabet("dna", "A", "C", "G", "T")

// Edit. pairwise edit model: match consumes a symbol of both sequences, delete only of the
// first and insert only of the second. Begin and End are nil unless built with silent ends.
type Edit struct {
	Model  *hmm.MarkovModel
	Match  *hmm.State
	Insert *hmm.State
	Delete *hmm.State
	Begin  *hmm.State
	End    *hmm.State
}

// EditConfig. PMatch is the match probability of identical symbols, the rest is spread over mismatches.
type EditConfig struct {
	Alphabet   *hmm.Alphabet
	PMatch     float64
	SilentEnds bool
}

func DefaultEditConfig() EditConfig {
	return EditConfig{Alphabet: DNA, PMatch: 0.9}
}

// NewEdit. magical -> {M, I, D} uniformly, each of M, I, D -> {M, I, D, magical} uniformly.
// with SilentEnds the magical state reaches M, I, D through a silent begin state and is reached
// through a silent end state.
func NewEdit(cfg EditConfig) (*Edit, error) {
	alpha := cfg.Alphabet
	if alpha == nil {
		return nil, errors.Wrap(hmm.ErrIllegalAlphabet, "edit model needs an alphabet")
	}
	if cfg.PMatch <= 0 || cfg.PMatch > 1 {
		return nil, errors.Newf("edit model: match probability %v out of (0, 1]", cfg.PMatch)
	}
	m, err := hmm.NewMarkovModel(2, alpha, alpha)
	if err != nil {
		return nil, err
	}

	k := float64(alpha.Size())
	matchDist := hmm.NewDistribution()
	insDist := hmm.NewDistribution()
	delDist := hmm.NewDistribution()
	for _, a := range alpha.Symbols() {
		for _, b := range alpha.Symbols() {
			w := cfg.PMatch / k
			if a != b {
				w = (1 - cfg.PMatch) / (k*k - k)
			}
			if err := matchDist.SetWeight(hmm.Pair{a, b}, w); err != nil {
				return nil, err
			}
		}
		if err := insDist.SetWeight(hmm.Pair{hmm.Gap, a}, 1/k); err != nil {
			return nil, err
		}
		if err := delDist.SetWeight(hmm.Pair{a, hmm.Gap}, 1/k); err != nil {
			return nil, err
		}
	}

	e := &Edit{Model: m}
	if e.Match, err = hmm.NewEmissionState("match", []int{1, 1}, matchDist); err != nil {
		return nil, err
	}
	if e.Insert, err = hmm.NewEmissionState("insert", []int{0, 1}, insDist); err != nil {
		return nil, err
	}
	if e.Delete, err = hmm.NewEmissionState("delete", []int{1, 0}, delDist); err != nil {
		return nil, err
	}

	b := newBuilder(m)
	b.addState(e.Match)
	b.addState(e.Insert)
	b.addState(e.Delete)

	entry, exit := m.MagicalState(), m.MagicalState()
	if cfg.SilentEnds {
		e.Begin = hmm.NewDotState("begin")
		e.End = hmm.NewDotState("end")
		b.addState(e.Begin)
		b.addState(e.End)
		b.transition(m.MagicalState(), e.Begin, 1)
		b.transition(e.End, m.MagicalState(), 1)
		entry, exit = e.Begin, e.End
	}

	emitting := []*hmm.State{e.Match, e.Insert, e.Delete}
	for _, s := range emitting {
		b.transition(entry, s, 1.0/3)
	}
	for _, from := range emitting {
		for _, to := range emitting {
			b.transition(from, to, 0.25)
		}
		b.transition(from, exit, 0.25)
	}
	if b.err != nil {
		return nil, b.err
	}
	return e, nil
}
