package kv

import (
	"github.com/cockroachdb/errors"
	"github.com/kelindar/binary"
)

// ViterbiRecord. cached Viterbi result for one (model, version, pair) key.
// Rows holds the gapped alignment, one row per head.
type ViterbiRecord struct {
	Model   string
	Version uint64
	SeqA    string
	SeqB    string
	Score   float64
	Rows    []string
	States  []string
	Scores  []float64
}

func (r *ViterbiRecord) matches(model string, version uint64, seqA, seqB string) bool {
	return r.Model == model && r.Version == version && r.SeqA == seqA && r.SeqB == seqB
}

func encodeRecord(rec ViterbiRecord) ([]byte, error) {
	bb, err := binary.Marshal(rec)
	if err != nil {
		return nil, errors.Wrap(err, "encode viterbi record")
	}
	return compress(bb)
}

func loadRecord(bbCompressed []byte) (ViterbiRecord, error) {
	var rec ViterbiRecord
	bb, err := decompress(bbCompressed)
	if err != nil {
		return rec, err
	}
	if err := binary.Unmarshal(bb, &rec); err != nil {
		return rec, errors.Wrap(err, "decode viterbi record")
	}
	return rec, nil
}
