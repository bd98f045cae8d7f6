package dp

import (
	"github.com/cockroachdb/errors"
	"github.com/lintang-b-s/pairhmm/pkg/hmm"
)

// emptyList. stands in for the missing second head of a 1-head model.
type emptyList struct{}

func (emptyList) Alphabet() *hmm.Alphabet { return nil }
func (emptyList) Len() int                { return 0 }
func (emptyList) SymbolAt(i int) hmm.Symbol {
	panic(errors.AssertionFailedf("symbol %d of an empty list", i))
}

// SingleDP. forward, backward and viterbi for a 1-head model, run on the pairwise lattice
// with an empty second head: every cell has j in {0, 1} and the run ends at (len+1, 1).
type SingleDP struct {
	e *engine
}

func NewSingleDP(m *hmm.MarkovModel, opts ...Option) (*SingleDP, error) {
	if m == nil {
		return nil, errors.Wrap(ErrModel, "nil model")
	}
	if m.Heads() != 1 {
		return nil, errors.Wrapf(ErrIllegalAlphabet, "single dp needs a 1-head model, got %d heads", m.Heads())
	}
	return &SingleDP{e: newEngine(m, opts)}, nil
}

func (d *SingleDP) Model() *hmm.MarkovModel {
	return d.e.model
}

func singleOf(seqs []hmm.SymbolList) ([2]hmm.SymbolList, error) {
	if len(seqs) != 1 {
		return [2]hmm.SymbolList{}, errors.Wrapf(ErrWrongArity, "single dp runs on 1 sequence, got %d", len(seqs))
	}
	return [2]hmm.SymbolList{seqs[0], emptyList{}}, nil
}

func (d *SingleDP) Forward(seqs []hmm.SymbolList) (float64, error) {
	pair, err := singleOf(seqs)
	if err != nil {
		return 0, err
	}
	return d.e.forward(pair)
}

// ForwardMatrix. the lattice has two columns, scores of real positions live at j = 0.
func (d *SingleDP) ForwardMatrix(seqs []hmm.SymbolList) (*Matrix, error) {
	pair, err := singleOf(seqs)
	if err != nil {
		return nil, err
	}
	return d.e.forwardMatrix(pair, nil)
}

func (d *SingleDP) ForwardMatrixInto(seqs []hmm.SymbolList, mat *Matrix) (*Matrix, error) {
	pair, err := singleOf(seqs)
	if err != nil {
		return nil, err
	}
	return d.e.forwardMatrix(pair, mat)
}

func (d *SingleDP) Backward(seqs []hmm.SymbolList) (float64, error) {
	mat, err := d.BackwardMatrix(seqs)
	if err != nil {
		return 0, err
	}
	return mat.Score(), nil
}

func (d *SingleDP) BackwardMatrix(seqs []hmm.SymbolList) (*Matrix, error) {
	pair, err := singleOf(seqs)
	if err != nil {
		return nil, err
	}
	return d.e.backwardMatrix(pair, nil)
}

func (d *SingleDP) BackwardMatrixInto(seqs []hmm.SymbolList, mat *Matrix) (*Matrix, error) {
	pair, err := singleOf(seqs)
	if err != nil {
		return nil, err
	}
	return d.e.backwardMatrix(pair, mat)
}

func (d *SingleDP) Viterbi(seqs []hmm.SymbolList) (*StatePath, error) {
	pair, err := singleOf(seqs)
	if err != nil {
		return nil, err
	}
	return d.e.viterbi(pair)
}
