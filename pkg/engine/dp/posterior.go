package dp

import (
	"math"

	"github.com/cockroachdb/errors"
)

// Posterior. log probability of being in each state at each cell given the sequences,
// forward + backward - total. both matrices must come from the same model version and sequences.
func Posterior(fwd, bwd *Matrix) (*Matrix, error) {
	if fwd == nil || bwd == nil {
		return nil, errors.New("posterior needs a forward and a backward matrix")
	}
	if fwd.dims != bwd.dims || len(fwd.states) != len(bwd.states) {
		return nil, errors.Newf("posterior: forward lattice %v x %d states, backward lattice %v x %d states",
			fwd.dims, len(fwd.states), bwd.dims, len(bwd.states))
	}
	for l := range fwd.states {
		if fwd.states[l] != bwd.states[l] {
			return nil, errors.Newf("posterior: state %d is %s in forward and %s in backward",
				l, fwd.states[l], bwd.states[l])
		}
	}
	total := fwd.score
	if math.IsInf(total, -1) {
		return nil, errors.Wrap(ErrImpossible, "posterior")
	}

	post := &Matrix{
		states: fwd.states,
		index:  fwd.index,
		seqs:   fwd.seqs,
		dims:   fwd.dims,
		score:  total,
	}
	n := len(fwd.states)
	post.fullData = make([]float64, len(fwd.fullData))
	post.cells = make([][]float64, len(fwd.cells))
	tmp := post.fullData
	for c := range post.cells {
		post.cells[c] = tmp[:n:n]
		tmp = tmp[n:]

		f, b := fwd.cells[c], bwd.cells[c]
		for l := 0; l < n; l++ {
			if math.IsInf(f[l], -1) || math.IsInf(b[l], -1) {
				post.cells[c][l] = math.Inf(-1)
				continue
			}
			post.cells[c][l] = f[l] + b[l] - total
		}
	}
	return post, nil
}
