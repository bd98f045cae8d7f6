package kv

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() ViterbiRecord {
	return ViterbiRecord{
		Model:   "edit-dna",
		Version: 7,
		SeqA:    "ACGT",
		SeqB:    "AGT",
		Score:   -9.5,
		Rows:    []string{"ACGT", "A-GT"},
		States:  []string{"match", "delete", "match", "match"},
		Scores:  []float64{-2.5, -4, -7, -9.5},
	}
}

func TestRecordEncoding(t *testing.T) {
	rec := sampleRecord()
	rec.Score = math.Inf(-1)
	rec.Rows = nil

	bb, err := encodeRecord(rec)
	require.NoError(t, err)
	got, err := loadRecord(bb)
	require.NoError(t, err)

	assert.True(t, math.IsInf(got.Score, -1))
	assert.Equal(t, rec.States, got.States)
	assert.Equal(t, rec.Scores, got.Scores)

	_, err = loadRecord([]byte("not zstd"))
	assert.Error(t, err)
}

func TestCacheKey(t *testing.T) {
	k := CacheKey("edit-dna", 1, "AC", "G")
	assert.Equal(t, k, CacheKey("edit-dna", 1, "AC", "G"))
	assert.NotEqual(t, k, CacheKey("edit-dna", 2, "AC", "G"))
	// the separator keeps ("AC","G") apart from ("A","CG")
	assert.NotEqual(t, k, CacheKey("edit-dna", 1, "A", "CG"))
	assert.Contains(t, string(k), keyPrefix)
}

func TestKVDB(t *testing.T) {
	for _, backend := range []string{BackendBadger, BackendPebble} {
		t.Run(backend, func(t *testing.T) {
			db, err := OpenInMemory(backend)
			require.NoError(t, err)
			defer db.Close()

			rec := sampleRecord()
			_, err = db.GetViterbi(rec.Model, rec.Version, rec.SeqA, rec.SeqB)
			assert.True(t, errors.Is(err, ErrRecordNotFound))

			require.NoError(t, db.PutViterbi(rec))
			got, err := db.GetViterbi(rec.Model, rec.Version, rec.SeqA, rec.SeqB)
			require.NoError(t, err)
			assert.Equal(t, rec, got)

			_, err = db.GetViterbi(rec.Model, rec.Version+1, rec.SeqA, rec.SeqB)
			assert.True(t, errors.Is(err, ErrRecordNotFound))

			recs := make([]ViterbiRecord, 0, 1500)
			for i := 0; i < 1500; i++ {
				r := sampleRecord()
				r.SeqA = fmt.Sprintf("A%d", i)
				r.Score = float64(-i)
				recs = append(recs, r)
			}
			require.NoError(t, db.PutViterbiBatch(context.Background(), recs))
			got, err = db.GetViterbi(rec.Model, rec.Version, "A1234", rec.SeqB)
			require.NoError(t, err)
			assert.Equal(t, -1234.0, got.Score)
		})
	}
}

func TestPutViterbiBatchCancelled(t *testing.T) {
	db, err := OpenInMemory(BackendBadger)
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = db.PutViterbiBatch(ctx, []ViterbiRecord{sampleRecord()})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := OpenInMemory("bolt")
	assert.True(t, errors.Is(err, ErrUnknownBackend))
}
