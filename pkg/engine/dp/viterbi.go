package dp

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/lintang-b-s/pairhmm/pkg/hmm"
	"github.com/lintang-b-s/pairhmm/pkg/util"
)

// viterbi. best single path, needs a light cursor storing back pointers.
func (r *run) viterbi() (*StatePath, error) {
	if err := r.begin(); err != nil {
		return nil, err
	}
	v := r.view
	c := r.cur

	origin, err := c.column(0, 0)
	if err != nil {
		return nil, err
	}
	for l := range origin {
		origin[l] = math.Inf(-1)
	}
	origin[v.magical] = 0

	r.initializing = true
	if err := r.viterbiCell(0, 0); err != nil {
		return nil, err
	}
	r.initializing = false

	r.phase = phaseSweeping
	if err := r.sweepUp(r.viterbiCell); err != nil {
		return nil, err
	}

	r.phase = phaseTerminated
	i, j := c.position(0), c.position(1)
	last, err := c.column(i, j)
	if err != nil {
		return nil, err
	}
	lastBP, err := c.backPointers(i, j)
	if err != nil {
		return nil, err
	}
	return r.traceback(last[v.magical], lastBP[v.magical])
}

// traceback. walk the chain from the terminal magical step, which is itself left out.
func (r *run) traceback(score float64, h int32) (*StatePath, error) {
	v := r.view
	path := &StatePath{
		Score:     score,
		heads:     v.heads,
		alphabets: v.alphabets,
	}
	if math.IsInf(score, -1) {
		return path, nil
	}
	if h == noBackPointer {
		return nil, errors.AssertionFailedf("viterbi: finite score %v without a back pointer", score)
	}

	var (
		states []*hmm.State
		syms   []hmm.Pair
		scores []float64
	)
	for h = r.arena.get(h).back; h != noBackPointer; {
		bp := r.arena.get(h)
		states = append(states, v.states[bp.state])
		syms = append(syms, bp.sym)
		scores = append(scores, bp.score)
		h = bp.back
	}

	path.States = util.ReverseG(states)
	path.Symbols = util.ReverseG(syms)
	path.Scores = util.ReverseG(scores)
	return path, nil
}

func (r *run) viterbiCell(i, j int) error {
	r.enter(i, j)
	v := r.view
	c := r.cur

	col := r.emissions.lookup(v, c.symbolAt(0, i), c.symbolAt(1, j))
	if err := r.loadPrev(i, j); err != nil {
		return r.cellError(err)
	}

	cur := r.mats[0][0]
	curBP := r.bps[0][0]
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
			curBP[l] = noBackPointer
			continue
		}

		// predecessors sit at the cell this state was entered from
		tr := v.forward[l]
		trs := v.forwardScores[l]
		src := r.mats[adv[0]][adv[1]]
		srcBP := r.bps[adv[0]][adv[1]]

		score := math.Inf(-1)
		best := -1
		for kc, k := range tr {
			if math.IsInf(src[k], -1) {
				continue
			}
			if s := trs[kc] + src[k]; s > score {
				score = s
				best = kc
			}
		}

		cur[l] = weight + score
		if best < 0 {
			curBP[l] = noBackPointer
			continue
		}
		curBP[l] = r.arena.add(l, srcBP[tr[best]], cur[l], col.sym[adv[0]][adv[1]])
	}
	return nil
}
