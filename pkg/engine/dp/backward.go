package dp

import "math"

// backward. same total as forward, computed from the sequence ends down to (0,0).
// needs a back matrix cursor: the emission of a successor cell is read when leaving a cell.
func (r *run) backward() (float64, error) {
	if err := r.begin(); err != nil {
		return math.Inf(-1), err
	}
	v := r.view
	c := r.cur

	i0, j0 := c.position(0), c.position(1)
	r.enter(i0, j0)
	seed, err := c.column(i0, j0)
	if err != nil {
		return math.Inf(-1), r.cellError(err)
	}
	for l := range seed {
		seed[l] = math.Inf(-1)
	}
	seed[v.magical] = 0

	seedE, err := c.emission(i0, j0)
	if err != nil {
		return math.Inf(-1), r.cellError(err)
	}
	copy(seedE, r.emissions.lookup(v, c.symbolAt(0, i0), c.symbolAt(1, j0)).weights)

	r.phase = phaseSweeping
	if err := r.sweepDown(r.backwardCell); err != nil {
		return math.Inf(-1), err
	}

	r.phase = phaseTerminated
	first, err := c.column(0, 0)
	if err != nil {
		return math.Inf(-1), err
	}
	return first[v.magical], nil
}

func (r *run) backwardCell(i, j int) error {
	r.enter(i, j)
	v := r.view
	c := r.cur

	col := r.emissions.lookup(v, c.symbolAt(0, i), c.symbolAt(1, j))
	if err := r.loadNext(i, j); err != nil {
		return r.cellError(err)
	}
	copy(r.emats[0][0], col.weights)

	cur := r.mats[0][0]
	for l := len(v.states) - 1; l >= 0; l-- {
		r.state = l

		tr := v.backward[l]
		sources := r.sources[:len(tr)]
		for ci, k := range tr {
			if !v.isEmitting(k) {
				sources[ci] = cur[k]
				continue
			}
			adv := v.advance[k]
			sources[ci] = r.mats[adv[0]][adv[1]][k] + r.emats[adv[0]][adv[1]][k]
		}
		cur[l] = logSumExp(v.backwardScores[l], sources)
	}
	return nil
}
