package dp

import "math"

// forward. total log probability of the sequences, summed over every path.
func (r *run) forward() (float64, error) {
	if err := r.begin(); err != nil {
		return math.Inf(-1), err
	}
	v := r.view
	c := r.cur

	origin, err := c.column(0, 0)
	if err != nil {
		return math.Inf(-1), err
	}
	for l := range origin {
		origin[l] = math.Inf(-1)
	}
	origin[v.magical] = 0

	r.initializing = true
	if err := r.forwardCell(0, 0); err != nil {
		return math.Inf(-1), err
	}
	r.initializing = false

	r.phase = phaseSweeping
	if err := r.sweepUp(r.forwardCell); err != nil {
		return math.Inf(-1), err
	}

	r.phase = phaseTerminated
	last, err := c.column(c.position(0), c.position(1))
	if err != nil {
		return math.Inf(-1), err
	}
	return last[v.magical], nil
}

func (r *run) forwardCell(i, j int) error {
	r.enter(i, j)
	v := r.view
	c := r.cur

	col := r.emissions.lookup(v, c.symbolAt(0, i), c.symbolAt(1, j))
	if err := r.loadPrev(i, j); err != nil {
		return r.cellError(err)
	}

	cur := r.mats[0][0]
	for l := range v.states {
		if r.initializing && l == v.magical {
			continue
		}
		r.state = l

		weight := 0.0
		adv := [2]int{}
		if v.isEmitting(l) {
			weight = col.weights[l]
			adv = v.advance[l]
		}
		if math.IsInf(weight, -1) {
			cur[l] = math.Inf(-1)
			continue
		}

		tr := v.forward[l]
		src := r.mats[adv[0]][adv[1]]
		sources := r.sources[:len(tr)]
		for ci, k := range tr {
			sources[ci] = src[k]
		}
		cur[l] = weight + logSumExp(v.forwardScores[l], sources)
	}
	return nil
}
