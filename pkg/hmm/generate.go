package hmm

import (
	"math"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/rand"
)

// Sample. sequences emitted by one walk through the model, one list per head,
// and the visited states in order (magical state excluded).
type Sample struct {
	Seqs   []*SimpleSymbolList
	States []*State
}

// Generate. walk the model from the magical state until it returns there, sampling a transition
// at every step and an emission at every emitting state. fails if more than maxSteps states are visited.
func (m *MarkovModel) Generate(r *rand.Rand, maxSteps int) (*Sample, error) {
	snap, release := m.Acquire()
	defer release()

	out := make(map[*State][]Transition, len(snap.States))
	for _, t := range snap.Transitions {
		out[t.From] = append(out[t.From], t)
	}

	syms := make([][]Symbol, snap.Heads)
	var visited []*State
	cur := snap.Magical
	for step := 0; ; step++ {
		next, err := sampleTransition(r, cur, out[cur])
		if err != nil {
			return nil, err
		}
		if next.IsMagical() {
			break
		}
		if step >= maxSteps {
			return nil, errors.Newf("generate: no return to the magical state after %d steps", maxSteps)
		}
		visited = append(visited, next)

		if next.kind == Emitting {
			sampler, ok := next.dist.(Sampler)
			if !ok {
				return nil, errors.Newf("generate: distribution of state %q can not be sampled", next.Name())
			}
			p, ok := sampler.Sample(r)
			if !ok {
				return nil, errors.Newf("generate: distribution of state %q is empty", next.Name())
			}
			for h := 0; h < snap.Heads; h++ {
				if next.advance[h] == 1 {
					syms[h] = append(syms[h], p[h])
				}
			}
		}
		cur = next
	}

	sample := &Sample{States: visited}
	for h := 0; h < snap.Heads; h++ {
		l, err := NewSymbolList(snap.Alphabets[h], syms[h])
		if err != nil {
			return nil, errors.Wrapf(err, "generate: head %d", h)
		}
		sample.Seqs = append(sample.Seqs, l)
	}
	return sample, nil
}

func sampleTransition(r *rand.Rand, from *State, ts []Transition) (*State, error) {
	total := 0.0
	for _, t := range ts {
		total += math.Exp(t.LogProb)
	}
	if len(ts) == 0 || total <= 0 {
		return nil, errors.Wrapf(ErrIllegalTransition, "generate: state %q has no outgoing transition", from.Name())
	}
	x := r.Float64() * total
	for _, t := range ts {
		p := math.Exp(t.LogProb)
		if x < p {
			return t.To, nil
		}
		x -= p
	}
	return ts[len(ts)-1].To, nil
}
