package dp

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/lintang-b-s/pairhmm/pkg/hmm"
)

// Matrix. full lattice of a forward or backward run: one score per state for every cell
// (i, j), i in [0, len0+1], j in [0, len1+1]. all cells share one backing slice.
type Matrix struct {
	states   []*hmm.State
	index    map[*hmm.State]int
	seqs     [2]hmm.SymbolList
	dims     [2]int
	cells    [][]float64 // cells[i*dims[1]+j]
	fullData []float64
	score    float64
}

func newMatrix(v *modelView, seqs [2]hmm.SymbolList) *Matrix {
	m := &Matrix{
		states: v.states,
		index:  v.index,
		seqs:   seqs,
		dims:   [2]int{seqs[0].Len() + 2, seqs[1].Len() + 2},
		score:  math.Inf(-1),
	}
	n := len(v.states)
	m.fullData = make([]float64, m.dims[0]*m.dims[1]*n)
	m.cells = make([][]float64, m.dims[0]*m.dims[1])
	tmp := m.fullData
	for c := range m.cells {
		m.cells[c] = tmp[:n:n]
		tmp = tmp[n:]
	}
	return m
}

// matrixFor. a fresh matrix, or reuse reset for seqs when its lattice and state order fit the view.
func matrixFor(v *modelView, seqs [2]hmm.SymbolList, reuse *Matrix) (*Matrix, error) {
	if reuse == nil {
		return newMatrix(v, seqs), nil
	}
	dims := [2]int{seqs[0].Len() + 2, seqs[1].Len() + 2}
	if reuse.dims != dims {
		return nil, errors.Wrapf(ErrMatrixShape, "lattice %v, sequences need %v", reuse.dims, dims)
	}
	if len(reuse.states) != len(v.states) {
		return nil, errors.Wrapf(ErrMatrixShape, "%d states, model has %d", len(reuse.states), len(v.states))
	}
	for l, s := range v.states {
		if reuse.states[l] != s {
			return nil, errors.Wrapf(ErrMatrixShape, "state %d is %s, model has %s", l, reuse.states[l], s)
		}
	}
	clear(reuse.fullData)
	reuse.seqs = seqs
	reuse.index = v.index
	reuse.score = math.Inf(-1)
	return reuse, nil
}

func (m *Matrix) inside(i, j int) bool {
	return i >= 0 && j >= 0 && i < m.dims[0] && j < m.dims[1]
}

func (m *Matrix) cell(i, j int) []float64 {
	return m.cells[i*m.dims[1]+j]
}

// Score. total log probability of the run that filled the matrix.
func (m *Matrix) Score() float64 {
	return m.score
}

// States. state order of the score vectors.
func (m *Matrix) States() []*hmm.State {
	return m.states
}

// Dims. number of cells per head, including both boundary positions.
func (m *Matrix) Dims() (int, int) {
	return m.dims[0], m.dims[1]
}

func (m *Matrix) Sequences() [2]hmm.SymbolList {
	return m.seqs
}

// Column. score vector of cell (i, j), nil outside the lattice. the slice is owned by the matrix.
func (m *Matrix) Column(i, j int) []float64 {
	if !m.inside(i, j) {
		return nil
	}
	return m.cell(i, j)
}

// At. score of state s at cell (i, j), -inf for unknown states or cells outside the lattice.
func (m *Matrix) At(i, j int, s *hmm.State) float64 {
	l, ok := m.index[s]
	if !ok || !m.inside(i, j) {
		return math.Inf(-1)
	}
	return m.cell(i, j)[l]
}

func (m *Matrix) StateIndex(s *hmm.State) (int, bool) {
	l, ok := m.index[s]
	return l, ok
}
