package kv

import (
	"strconv"

	"github.com/DataDog/zstd"
	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
)

const keyPrefix = "viterbi:"

// CacheKey. key of a Viterbi result. the model version is part of the key so edits to the model
// never serve stale paths. the hash may collide, records carry their inputs and are checked on read.
func CacheKey(model string, version uint64, seqA, seqB string) []byte {
	d := xxhash.New()
	d.WriteString(model)
	d.WriteString("\x00")
	d.WriteString(strconv.FormatUint(version, 10))
	d.WriteString("\x00")
	d.WriteString(seqA)
	d.WriteString("\x00")
	d.WriteString(seqB)

	key := make([]byte, 0, len(keyPrefix)+16)
	key = append(key, keyPrefix...)
	return strconv.AppendUint(key, d.Sum64(), 16)
}

func compress(bb []byte) ([]byte, error) {
	var bbCompressed []byte
	bbCompressed, err := zstd.Compress(bbCompressed, bb)
	if err != nil {
		return []byte{}, errors.Wrap(err, "zstd compress")
	}
	return bbCompressed, nil
}

func decompress(bbCompressed []byte) ([]byte, error) {
	var bb []byte
	bb, err := zstd.Decompress(bb, bbCompressed)
	if err != nil {
		return []byte{}, errors.Wrap(err, "zstd decompress")
	}

	return bb, nil
}
