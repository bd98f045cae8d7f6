package models

import (
	"math"

	"github.com/lintang-b-s/pairhmm/pkg/hmm"
)

var Dice = hmm.MustAlphabet("dice", "1", "2", "3", "4", "5", "6")

// Casino. occasionally dishonest casino: a fair die and a loaded die that rolls 6 half of the time.
type Casino struct {
	Model  *hmm.MarkovModel
	Fair   *hmm.State
	Loaded *hmm.State
}

func NewCasino() (*Casino, error) {
	m, err := hmm.NewMarkovModel(1, Dice)
	if err != nil {
		return nil, err
	}

	fairDist := hmm.NewDistribution()
	loadedDist := hmm.NewDistribution()
	for _, s := range Dice.Symbols() {
		if err := fairDist.SetWeight(hmm.Single(s), 1.0/6); err != nil {
			return nil, err
		}
		w := 0.1
		if Dice.Token(s) == "6" {
			w = 0.5
		}
		if err := loadedDist.SetWeight(hmm.Single(s), w); err != nil {
			return nil, err
		}
	}

	fair, err := hmm.NewEmissionState("fair", []int{1}, fairDist)
	if err != nil {
		return nil, err
	}
	loaded, err := hmm.NewEmissionState("loaded", []int{1}, loadedDist)
	if err != nil {
		return nil, err
	}

	b := newBuilder(m)
	b.addState(fair)
	b.addState(loaded)

	mag := m.MagicalState()
	b.transition(mag, fair, 0.8)
	b.transition(mag, loaded, 0.2)
	b.transition(fair, loaded, 0.04)
	b.transition(fair, fair, 0.95)
	b.transition(fair, mag, 0.01)
	b.transition(loaded, fair, 0.09)
	b.transition(loaded, loaded, 0.90)
	b.transition(loaded, mag, 0.01)
	if b.err != nil {
		return nil, b.err
	}
	return &Casino{Model: m, Fair: fair, Loaded: loaded}, nil
}

// builder. collects the first error of a sequence of model edits.
type builder struct {
	m   *hmm.MarkovModel
	err error
}

func newBuilder(m *hmm.MarkovModel) *builder {
	return &builder{m: m}
}

func (b *builder) addState(s *hmm.State) {
	if b.err != nil {
		return
	}
	b.err = b.m.AddState(s)
}

// transition. p is a linear probability.
func (b *builder) transition(from, to *hmm.State, p float64) {
	if b.err != nil {
		return
	}
	b.err = b.m.CreateTransition(from, to, math.Log(p))
}
