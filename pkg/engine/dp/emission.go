package dp

import (
	"math"

	"github.com/lintang-b-s/pairhmm/pkg/hmm"
)

// emissionCol. emission log weights of every emitting state for one (symbol, symbol) cell.
// sym[a0][a1] is the pair consumed by a state with advance (a0, a1).
type emissionCol struct {
	sym     [2][2]hmm.Pair
	weights []float64
}

// emissionCache. memoized emissionCol per symbol pair of a cell.
// only touched while the model lock is held, a new model version drops every entry.
type emissionCache struct {
	version uint64
	cols    map[hmm.Pair]*emissionCol
	hits    int
	misses  int
}

func newEmissionCache() *emissionCache {
	return &emissionCache{cols: make(map[hmm.Pair]*emissionCol)}
}

func (c *emissionCache) reset(version uint64) {
	if c.version == version && c.cols != nil {
		return
	}
	c.version = version
	c.cols = make(map[hmm.Pair]*emissionCol)
}

func (c *emissionCache) lookup(v *modelView, s0, s1 hmm.Symbol) *emissionCol {
	key := hmm.Pair{s0, s1}
	if col, ok := c.cols[key]; ok {
		c.hits++
		return col
	}
	c.misses++

	col := &emissionCol{weights: make([]float64, v.dotStatesIndex)}
	col.sym[0][0] = hmm.Pair{hmm.Gap, hmm.Gap}
	col.sym[1][0] = hmm.Pair{s0, hmm.Gap}
	col.sym[0][1] = hmm.Pair{hmm.Gap, s1}
	col.sym[1][1] = hmm.Pair{s0, s1}

	for l := 0; l < v.dotStatesIndex; l++ {
		adv := v.advance[l]
		col.weights[l] = emissionWeight(v.states[l], adv, col.sym[adv[0]][adv[1]])
	}
	c.cols[key] = col
	return col
}

// emissionWeight. the magical state only emits the all-gap boundary symbol. any other state
// that would consume a boundary position is impossible, its distribution is not consulted.
func emissionWeight(s *hmm.State, adv [2]int, p hmm.Pair) float64 {
	consumesGap := false
	consumesSymbol := false
	for h := 0; h < 2; h++ {
		if adv[h] == 0 {
			continue
		}
		if p[h] == hmm.Gap {
			consumesGap = true
		} else {
			consumesSymbol = true
		}
	}

	if s.IsMagical() {
		if consumesSymbol {
			return math.Inf(-1)
		}
		return 0
	}
	if consumesGap {
		return math.Inf(-1)
	}
	return logWeight(s.Distribution().Weight(p))
}

func logWeight(w float64) float64 {
	if math.IsNaN(w) || w <= 0 {
		return math.Inf(-1)
	}
	return math.Log(w)
}
