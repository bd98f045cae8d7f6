package dp

import (
	"github.com/cockroachdb/errors"
	"github.com/lintang-b-s/pairhmm/pkg/hmm"
)

// modelView. dense, read-only layout of a model snapshot.
// states [0, dotStatesIndex) emit (magical at 0), states [dotStatesIndex, n) are silent and
// topologically sorted, so a silent state only has silent sources with a smaller index.
type modelView struct {
	version        uint64
	heads          int
	alphabets      [2]*hmm.Alphabet
	states         []*hmm.State
	index          map[*hmm.State]int
	advance        [][2]int
	dotStatesIndex int
	magical        int

	// forward[l] are the sources of l, backward[l] the destinations of l. both ascending by index.
	forward        [][]int
	forwardScores  [][]float64
	backward       [][]int
	backwardScores [][]float64
}

func newModelView(snap *hmm.Snapshot) (*modelView, error) {
	v := &modelView{
		version:   snap.Version,
		heads:     snap.Heads,
		alphabets: snap.Alphabets,
		index:     make(map[*hmm.State]int, len(snap.States)),
	}

	var emitting, silent []*hmm.State
	for _, s := range snap.States {
		if s.IsSilent() {
			silent = append(silent, s)
		} else {
			emitting = append(emitting, s)
		}
	}
	if len(emitting) == 0 || emitting[0] != snap.Magical {
		return nil, errors.Wrap(ErrModel, "magical state must be the first state of the model")
	}

	sorted, err := sortSilent(silent, snap.Transitions)
	if err != nil {
		return nil, err
	}

	v.states = append(emitting, sorted...)
	v.dotStatesIndex = len(emitting)
	v.magical = 0
	v.advance = make([][2]int, len(v.states))
	for i, s := range v.states {
		v.index[s] = i
		v.advance[i] = s.Advance()
	}

	n := len(v.states)
	v.forward = make([][]int, n)
	v.forwardScores = make([][]float64, n)
	v.backward = make([][]int, n)
	v.backwardScores = make([][]float64, n)

	// sources are bucketed in state order so every list comes out ascending
	bySource := make([][]hmm.Transition, n)
	for _, t := range snap.Transitions {
		from, ok := v.index[t.From]
		if !ok {
			return nil, errors.Wrapf(ErrModel, "transition %s -> %s: unknown source", t.From, t.To)
		}
		if _, ok := v.index[t.To]; !ok {
			return nil, errors.Wrapf(ErrModel, "transition %s -> %s: unknown destination", t.From, t.To)
		}
		bySource[from] = append(bySource[from], t)
	}
	for from := 0; from < n; from++ {
		for _, t := range bySource[from] {
			to := v.index[t.To]
			v.forward[to] = append(v.forward[to], from)
			v.forwardScores[to] = append(v.forwardScores[to], t.LogProb)
		}
	}
	for to := 0; to < n; to++ {
		for k, from := range v.forward[to] {
			v.backward[from] = append(v.backward[from], to)
			v.backwardScores[from] = append(v.backwardScores[from], v.forwardScores[to][k])
		}
	}
	return v, nil
}

// sortSilent. kahn's algorithm over silent -> silent edges, ties resolved by model order.
func sortSilent(silent []*hmm.State, trans []hmm.Transition) ([]*hmm.State, error) {
	if len(silent) == 0 {
		return nil, nil
	}
	pos := make(map[*hmm.State]int, len(silent))
	for i, s := range silent {
		pos[s] = i
	}
	indeg := make([]int, len(silent))
	succ := make([][]int, len(silent))
	for _, t := range trans {
		from, ok1 := pos[t.From]
		to, ok2 := pos[t.To]
		if !ok1 || !ok2 {
			continue
		}
		if from == to {
			return nil, errors.Wrapf(ErrModel, "silent state %s loops on itself", t.From)
		}
		succ[from] = append(succ[from], to)
		indeg[to]++
	}

	done := make([]bool, len(silent))
	sorted := make([]*hmm.State, 0, len(silent))
	for len(sorted) < len(silent) {
		next := -1
		for i := range silent {
			if !done[i] && indeg[i] == 0 {
				next = i
				break
			}
		}
		if next == -1 {
			return nil, errors.Wrap(ErrModel, "silent states form a cycle")
		}
		done[next] = true
		sorted = append(sorted, silent[next])
		for _, to := range succ[next] {
			indeg[to]--
		}
	}
	return sorted, nil
}

func (v *modelView) isEmitting(l int) bool {
	return l < v.dotStatesIndex
}

// checkSequences. arity and alphabet checks, done before any lattice work.
// heads the model does not have must be filled with empty lists.
func (v *modelView) checkSequences(seqs [2]hmm.SymbolList) error {
	for h := 0; h < 2; h++ {
		seq := seqs[h]
		if seq == nil {
			return errors.Wrapf(ErrWrongArity, "sequence %d is missing", h)
		}
		if h >= v.heads {
			if seq.Len() != 0 {
				return errors.Wrapf(ErrWrongArity, "model has %d heads, sequence %d must be empty", v.heads, h)
			}
			continue
		}
		if seq.Alphabet() != v.alphabets[h] {
			return errors.Wrapf(ErrIllegalAlphabet, "sequence %d uses alphabet %s, model head expects %s",
				h, seq.Alphabet(), v.alphabets[h])
		}
		for i := 1; i <= seq.Len(); i++ {
			if s := seq.SymbolAt(i); !v.alphabets[h].Contains(s) {
				return errors.Wrapf(ErrIllegalSymbol, "sequence %d position %d: symbol %d", h, i, s)
			}
		}
	}
	return nil
}
