package dp

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lintang-b-s/pairhmm/pkg/hmm"
)

type Option func(*engine)

// WithObserver. report every run to o.
func WithObserver(o RunObserver) Option {
	return func(e *engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// engine. state shared by the runs of one dp object. view and emissions are only touched
// while the model lock is held.
type engine struct {
	model     *hmm.MarkovModel
	observer  RunObserver
	view      *modelView
	emissions *emissionCache
}

func newEngine(m *hmm.MarkovModel, opts []Option) *engine {
	e := &engine{
		model:     m,
		observer:  nopObserver{},
		emissions: newEmissionCache(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// refresh. rebuild the view and drop cached emissions when the model changed since the last run.
func (e *engine) refresh(snap *hmm.Snapshot) (*modelView, error) {
	if e.view == nil || e.view.version != snap.Version {
		v, err := newModelView(snap)
		if err != nil {
			return nil, err
		}
		e.view = v
	}
	e.emissions.reset(snap.Version)
	return e.view, nil
}

// execute. lock the model, validate the sequences and run fn. the model is released on every exit path.
func (e *engine) execute(algo Algorithm, seqs [2]hmm.SymbolList, fn func(r *run) error) error {
	start := time.Now()
	var stats RunStats

	err := func() error {
		snap, release := e.model.Acquire()
		defer release()

		v, err := e.refresh(snap)
		if err != nil {
			return err
		}
		if err := v.checkSequences(seqs); err != nil {
			return err
		}

		hits, misses := e.emissions.hits, e.emissions.misses
		r := newRun(algo, v, e.emissions)
		err = r.guard(func() error { return fn(r) })

		stats.Cells = r.cells
		stats.EmissionHits = e.emissions.hits - hits
		stats.EmissionMisses = e.emissions.misses - misses
		return err
	}()

	stats.Algorithm = algo
	stats.Duration = time.Since(start)
	stats.Failed = err != nil
	e.observer.ObserveRun(stats)
	return err
}

func (e *engine) forward(seqs [2]hmm.SymbolList) (float64, error) {
	var score float64
	err := e.execute(AlgoForward, seqs, func(r *run) error {
		r.cur = newLightCursor(seqs, len(r.view.states), false)
		var err error
		score, err = r.forward()
		return err
	})
	return score, err
}

func (e *engine) forwardMatrix(seqs [2]hmm.SymbolList, reuse *Matrix) (*Matrix, error) {
	var mat *Matrix
	err := e.execute(AlgoForward, seqs, func(r *run) error {
		var err error
		if mat, err = matrixFor(r.view, seqs, reuse); err != nil {
			return err
		}
		r.cur = newMatrixCursor(mat)
		mat.score, err = r.forward()
		return err
	})
	if err != nil {
		return nil, err
	}
	return mat, nil
}

func (e *engine) backwardMatrix(seqs [2]hmm.SymbolList, reuse *Matrix) (*Matrix, error) {
	var mat *Matrix
	err := e.execute(AlgoBackward, seqs, func(r *run) error {
		var err error
		if mat, err = matrixFor(r.view, seqs, reuse); err != nil {
			return err
		}
		r.cur = newBackMatrixCursor(mat, r.view.dotStatesIndex)
		mat.score, err = r.backward()
		return err
	})
	if err != nil {
		return nil, err
	}
	return mat, nil
}

func (e *engine) viterbi(seqs [2]hmm.SymbolList) (*StatePath, error) {
	var path *StatePath
	err := e.execute(AlgoViterbi, seqs, func(r *run) error {
		r.cur = newLightCursor(seqs, len(r.view.states), true)
		var err error
		path, err = r.viterbi()
		return err
	})
	if err != nil {
		return nil, err
	}
	return path, nil
}

// PairwiseDP. forward, backward and viterbi over a 2-head model.
// safe for concurrent use, runs on the same model are serialized by the model lock.
type PairwiseDP struct {
	e *engine
}

func NewPairwiseDP(m *hmm.MarkovModel, opts ...Option) (*PairwiseDP, error) {
	if m == nil {
		return nil, errors.Wrap(ErrModel, "nil model")
	}
	if m.Heads() != 2 {
		return nil, errors.Wrapf(ErrIllegalAlphabet, "pairwise dp needs a 2-head model, got %d heads", m.Heads())
	}
	return &PairwiseDP{e: newEngine(m, opts)}, nil
}

func (d *PairwiseDP) Model() *hmm.MarkovModel {
	return d.e.model
}

func pairOf(seqs []hmm.SymbolList) ([2]hmm.SymbolList, error) {
	if len(seqs) != 2 {
		return [2]hmm.SymbolList{}, errors.Wrapf(ErrWrongArity, "pairwise dp runs on 2 sequences, got %d", len(seqs))
	}
	return [2]hmm.SymbolList{seqs[0], seqs[1]}, nil
}

// Forward. total log probability of the pair over all alignments.
func (d *PairwiseDP) Forward(seqs []hmm.SymbolList) (float64, error) {
	pair, err := pairOf(seqs)
	if err != nil {
		return 0, err
	}
	return d.e.forward(pair)
}

func (d *PairwiseDP) ForwardMatrix(seqs []hmm.SymbolList) (*Matrix, error) {
	pair, err := pairOf(seqs)
	if err != nil {
		return nil, err
	}
	return d.e.forwardMatrix(pair, nil)
}

// ForwardMatrixInto. ForwardMatrix writing into mat, which must come from a run of this model
// on sequences of the same lengths. every cell is overwritten.
func (d *PairwiseDP) ForwardMatrixInto(seqs []hmm.SymbolList, mat *Matrix) (*Matrix, error) {
	pair, err := pairOf(seqs)
	if err != nil {
		return nil, err
	}
	return d.e.forwardMatrix(pair, mat)
}

func (d *PairwiseDP) Backward(seqs []hmm.SymbolList) (float64, error) {
	mat, err := d.BackwardMatrix(seqs)
	if err != nil {
		return 0, err
	}
	return mat.Score(), nil
}

func (d *PairwiseDP) BackwardMatrix(seqs []hmm.SymbolList) (*Matrix, error) {
	pair, err := pairOf(seqs)
	if err != nil {
		return nil, err
	}
	return d.e.backwardMatrix(pair, nil)
}

func (d *PairwiseDP) BackwardMatrixInto(seqs []hmm.SymbolList, mat *Matrix) (*Matrix, error) {
	pair, err := pairOf(seqs)
	if err != nil {
		return nil, err
	}
	return d.e.backwardMatrix(pair, mat)
}

// Viterbi. most likely alignment. a pair with probability zero gives a path with score -inf and no steps.
func (d *PairwiseDP) Viterbi(seqs []hmm.SymbolList) (*StatePath, error) {
	pair, err := pairOf(seqs)
	if err != nil {
		return nil, err
	}
	return d.e.viterbi(pair)
}
