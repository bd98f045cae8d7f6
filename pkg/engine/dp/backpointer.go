package dp

import "github.com/lintang-b-s/pairhmm/pkg/hmm"

const noBackPointer int32 = -1

// backPointer. one step of a viterbi path, back is the handle of the previous step.
type backPointer struct {
	state int32
	back  int32
	score float64
	sym   hmm.Pair
}

// bpArena. append-only store of back pointers, chains only point to older handles.
type bpArena struct {
	nodes []backPointer
}

func (a *bpArena) add(state int, back int32, score float64, sym hmm.Pair) int32 {
	a.nodes = append(a.nodes, backPointer{
		state: int32(state),
		back:  back,
		score: score,
		sym:   sym,
	})
	return int32(len(a.nodes) - 1)
}

func (a *bpArena) get(h int32) backPointer {
	return a.nodes[h]
}

func newBPColumn(n int) []int32 {
	col := make([]int32, n)
	for i := range col {
		col[i] = noBackPointer
	}
	return col
}
