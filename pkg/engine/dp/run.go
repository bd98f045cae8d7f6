package dp

import (
	"math"

	"github.com/cockroachdb/errors"
)

type phase uint8

const (
	phaseUninitialized phase = iota
	phaseInitializing
	phaseSweeping
	phaseTerminated
)

// run. state of one forward, backward or viterbi pass. single use.
type run struct {
	algo      Algorithm
	view      *modelView
	cur       *cursor
	emissions *emissionCache
	arena     bpArena

	phase        phase
	initializing bool // cell (0,0) is prepared without touching the magical seed

	// cell under evaluation, reported by CellError
	i, j, state int
	cells       int

	// mats[a0][a1] is the score column at the cell offset by advance (a0, a1), same for bps and emats
	mats    [2][2][]float64
	bps     [2][2][]int32
	emats   [2][2][]float64
	sources []float64
}

func newRun(algo Algorithm, v *modelView, emissions *emissionCache) *run {
	maxDeg := 0
	for l := range v.states {
		if d := len(v.forward[l]); d > maxDeg {
			maxDeg = d
		}
		if d := len(v.backward[l]); d > maxDeg {
			maxDeg = d
		}
	}
	return &run{
		algo:      algo,
		view:      v,
		emissions: emissions,
		state:     -1,
		sources:   make([]float64, maxDeg),
	}
}

func (r *run) begin() error {
	if r.phase != phaseUninitialized {
		return errors.AssertionFailedf("%s run reused in phase %d", r.algo, r.phase)
	}
	if r.cur == nil {
		return errors.AssertionFailedf("%s run has no cursor", r.algo)
	}
	r.phase = phaseInitializing
	return nil
}

func (r *run) enter(i, j int) {
	r.i, r.j, r.state = i, j, -1
	r.cells++
}

func (r *run) cellError(err error) error {
	name := ""
	if r.state >= 0 && r.state < len(r.view.states) {
		name = r.view.states[r.state].Name()
	}
	return &CellError{I: r.i, J: r.j, State: name, Err: err}
}

// guard. run fn, panics raised by user distributions become a CellError of the current cell.
func (r *run) guard(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			cause, ok := rec.(error)
			if !ok {
				cause = errors.Newf("%v", rec)
			}
			err = r.cellError(errors.Wrap(cause, "panic"))
		}
	}()
	return fn()
}

// sweepUp. visit every cell once in increasing order, alternating a new row and a new column.
// cell (0,0) must be prepared by the caller.
func (r *run) sweepUp(prepare func(i, j int) error) error {
	c := r.cur
	for c.canAdvance(0) || c.canAdvance(1) {
		if c.canAdvance(0) {
			c.advance(0)
			for j := 0; j <= c.position(1); j++ {
				if err := prepare(c.position(0), j); err != nil {
					return err
				}
			}
		}
		if c.canAdvance(1) {
			c.advance(1)
			for i := 0; i <= c.position(0); i++ {
				if err := prepare(i, c.position(1)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// sweepDown. mirror of sweepUp from (len0+1, len1+1) to (0,0), each line walked from its far end.
func (r *run) sweepDown(prepare func(i, j int) error) error {
	c := r.cur
	for c.canAdvance(0) || c.canAdvance(1) {
		if c.canAdvance(0) {
			c.advance(0)
			for j := c.lens[1] + 1; j >= c.position(1); j-- {
				if err := prepare(c.position(0), j); err != nil {
					return err
				}
			}
		}
		if c.canAdvance(1) {
			c.advance(1)
			for i := c.lens[0] + 1; i >= c.position(0); i-- {
				if err := prepare(i, c.position(1)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// loadPrev. score columns of (i,j) and its three predecessors (i-1,j), (i-1,j-1), (i,j-1).
func (r *run) loadPrev(i, j int) error {
	var err error
	c := r.cur
	if r.mats[0][0], err = c.column(i, j); err != nil {
		return err
	}
	if r.mats[1][0], err = c.column(i-1, j); err != nil {
		return err
	}
	if r.mats[1][1], err = c.column(i-1, j-1); err != nil {
		return err
	}
	if r.mats[0][1], err = c.column(i, j-1); err != nil {
		return err
	}
	if !c.storeBPs {
		return nil
	}

	if r.bps[0][0], err = c.backPointers(i, j); err != nil {
		return err
	}
	if r.bps[1][0], err = c.backPointers(i-1, j); err != nil {
		return err
	}
	if r.bps[1][1], err = c.backPointers(i-1, j-1); err != nil {
		return err
	}
	r.bps[0][1], err = c.backPointers(i, j-1)
	return err
}

// loadNext. score and emission columns of (i,j) and its successors (i+1,j), (i+1,j+1), (i,j+1).
func (r *run) loadNext(i, j int) error {
	var err error
	c := r.cur
	offsets := [4][2]int{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	for _, o := range offsets {
		if r.mats[o[0]][o[1]], err = c.column(i+o[0], j+o[1]); err != nil {
			return err
		}
		if r.emats[o[0]][o[1]], err = c.emission(i+o[0], j+o[1]); err != nil {
			return err
		}
	}
	return nil
}

// firstFinite. reference constant of the log-sum-exp: the first source that is not -inf, else 0.
func firstFinite(src []float64) float64 {
	for _, s := range src {
		if !math.IsInf(s, -1) {
			return s
		}
	}
	return 0
}

// logSumExp. log(sum exp(trs[k] + src[k])) over the sources that are not -inf.
func logSumExp(trs, src []float64) float64 {
	constant := firstFinite(src)
	score := 0.0
	for k, s := range src {
		if math.IsInf(s, -1) {
			continue
		}
		score += math.Exp(trs[k] + s - constant)
	}
	return math.Log(score) + constant
}
