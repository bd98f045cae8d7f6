package service

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/lintang-b-s/pairhmm/pkg/engine/dp"
	"github.com/lintang-b-s/pairhmm/pkg/kv"
	"github.com/lintang-b-s/pairhmm/pkg/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingObserver struct {
	mu    sync.Mutex
	stats []dp.RunStats
}

func (o *countingObserver) ObserveRun(s dp.RunStats) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stats = append(o.stats, s)
}

func (o *countingObserver) count(algo dp.Algorithm) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, s := range o.stats {
		if s.Algorithm == algo {
			n++
		}
	}
	return n
}

func newTestService(t *testing.T) (*AlignmentService, *countingObserver) {
	db, err := kv.OpenInMemory(kv.BackendBadger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	obs := &countingObserver{}
	cfg := DefaultConfig()
	cfg.Workers = 3
	cfg.Observer = obs
	svc, err := NewAlignmentService(cfg, db)
	require.NoError(t, err)
	return svc, obs
}

func errorCode(t *testing.T, err error) server.ErrorCode {
	var se *server.Error
	require.True(t, errors.As(err, &se), "not a server error: %v", err)
	return se.Code()
}

func TestModels(t *testing.T) {
	svc, _ := newTestService(t)
	infos := svc.Models(context.Background())
	require.Len(t, infos, 3)
	assert.Equal(t, "casino", infos[0].Name)
	assert.Equal(t, 1, infos[0].Heads)
	assert.Equal(t, "edit-dna", infos[1].Name)
	assert.Equal(t, 2, infos[1].Heads)
	assert.Contains(t, infos[2].States, "begin")
}

func TestForwardBackward(t *testing.T) {
	svc, obs := newTestService(t)
	ctx := context.Background()

	fwd, err := svc.Forward(ctx, "edit-dna", "ACGT", "AGT")
	require.NoError(t, err)
	bwd, err := svc.Backward(ctx, "edit-dna", "ACGT", "AGT")
	require.NoError(t, err)
	assert.InDelta(t, fwd, bwd, 1e-9)

	casino, err := svc.Forward(ctx, "casino", "666", "")
	require.NoError(t, err)
	assert.Less(t, casino, 0.0)

	assert.Equal(t, 2, obs.count(dp.AlgoForward))
	assert.Equal(t, 1, obs.count(dp.AlgoBackward))
}

func TestViterbiCached(t *testing.T) {
	svc, obs := newTestService(t)
	ctx := context.Background()

	rec, cached, err := svc.Viterbi(ctx, "edit-dna", "ACGT", "AGT")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, []string{"ACGT", "A-GT"}, rec.Rows)
	assert.Equal(t, []string{"match", "delete", "match", "match"}, rec.States)

	again, cached, err := svc.Viterbi(ctx, "edit-dna", "ACGT", "AGT")
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, rec, again)
	assert.Equal(t, 1, obs.count(dp.AlgoViterbi))
}

func TestViterbiImpossible(t *testing.T) {
	svc, _ := newTestService(t)
	rec, _, err := svc.Viterbi(context.Background(), "edit-dna", "", "")
	require.NoError(t, err)
	assert.True(t, math.IsInf(rec.Score, -1))
	assert.Empty(t, rec.States)
}

func TestPrepareErrors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Forward(ctx, "profile", "A", "A")
	assert.Equal(t, server.ErrNotFound, errorCode(t, err))

	_, err = svc.Forward(ctx, "edit-dna", "AXG", "A")
	assert.Equal(t, server.ErrBadParamInput, errorCode(t, err))

	_, err = svc.Forward(ctx, "edit-dna", "A", "AXG")
	assert.Equal(t, server.ErrBadParamInput, errorCode(t, err))

	_, _, err = svc.Viterbi(ctx, "casino", "123", "456")
	assert.Equal(t, server.ErrBadParamInput, errorCode(t, err))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = svc.Backward(cancelled, "edit-dna", "A", "A")
	assert.Equal(t, server.ErrInternalServerError, errorCode(t, err))
}

func TestBatchViterbi(t *testing.T) {
	svc, obs := newTestService(t)
	ctx := context.Background()
	pairs := [][2]string{{"ACGT", "AGT"}, {"ACZ", "A"}, {"GG", "GG"}, {"T", ""}}

	res, err := svc.BatchViterbi(ctx, "edit-dna", pairs)
	require.NoError(t, err)
	require.Len(t, res, len(pairs))
	for i, r := range res {
		assert.Equal(t, i, r.ID)
	}
	assert.Equal(t, server.ErrBadParamInput, errorCode(t, res[1].Err))
	assert.Equal(t, []string{"ACGT", "A-GT"}, res[0].Record.Rows)
	assert.Equal(t, []string{"GG", "GG"}, res[2].Record.Rows)
	assert.Equal(t, []string{"T", "-"}, res[3].Record.Rows)
	assert.Equal(t, 3, obs.count(dp.AlgoViterbi))

	res, err = svc.BatchViterbi(ctx, "edit-dna", pairs)
	require.NoError(t, err)
	assert.True(t, res[0].Cached)
	assert.True(t, res[3].Cached)
	assert.Equal(t, 3, obs.count(dp.AlgoViterbi))

	_, err = svc.BatchViterbi(ctx, "profile", pairs)
	assert.Equal(t, server.ErrNotFound, errorCode(t, err))
}
