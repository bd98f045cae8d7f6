package service

import (
	"context"

	"github.com/lintang-b-s/pairhmm/pkg/engine/dp"
	"github.com/lintang-b-s/pairhmm/pkg/hmm"
	"github.com/lintang-b-s/pairhmm/pkg/kv"
)

type KVDB interface {
	GetViterbi(model string, version uint64, seqA, seqB string) (kv.ViterbiRecord, error)
	PutViterbi(rec kv.ViterbiRecord) error
	PutViterbiBatch(ctx context.Context, recs []kv.ViterbiRecord) error
}

// DP. what the service needs from dp.PairwiseDP and dp.SingleDP.
type DP interface {
	Model() *hmm.MarkovModel
	Forward(seqs []hmm.SymbolList) (float64, error)
	Backward(seqs []hmm.SymbolList) (float64, error)
	Viterbi(seqs []hmm.SymbolList) (*dp.StatePath, error)
}
