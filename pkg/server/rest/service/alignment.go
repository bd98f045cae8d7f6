package service

import (
	"context"
	"log"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/lintang-b-s/pairhmm/pkg/concurrent"
	"github.com/lintang-b-s/pairhmm/pkg/engine/dp"
	"github.com/lintang-b-s/pairhmm/pkg/hmm"
	"github.com/lintang-b-s/pairhmm/pkg/kv"
	"github.com/lintang-b-s/pairhmm/pkg/models"
	"github.com/lintang-b-s/pairhmm/pkg/server"
)

type Config struct {
	Models   []string
	Workers  int
	Observer dp.RunObserver
}

func DefaultConfig() Config {
	return Config{
		Models:  models.Names(),
		Workers: 8,
	}
}

// ModelInfo. summary of a registered model.
type ModelInfo struct {
	Name   string
	Heads  int
	States []string
}

// BatchResult. Viterbi result of one pair of a batch, Err is set instead of Record when the pair failed.
type BatchResult struct {
	ID     int
	Record kv.ViterbiRecord
	Cached bool
	Err    error
}

type AlignmentService struct {
	dps     map[string]DP
	kv      KVDB
	workers int
}

func NewAlignmentService(cfg Config, kvdb KVDB) (*AlignmentService, error) {
	opts := []dp.Option{}
	if cfg.Observer != nil {
		opts = append(opts, dp.WithObserver(cfg.Observer))
	}

	dps := make(map[string]DP, len(cfg.Models))
	for _, name := range cfg.Models {
		m, err := models.Build(name)
		if err != nil {
			return nil, err
		}
		d, err := newDP(m, opts)
		if err != nil {
			return nil, errors.Wrapf(err, "model %s", name)
		}
		dps[name] = d
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &AlignmentService{dps: dps, kv: kvdb, workers: workers}, nil
}

func newDP(m *hmm.MarkovModel, opts []dp.Option) (DP, error) {
	if m.Heads() == 1 {
		return dp.NewSingleDP(m, opts...)
	}
	return dp.NewPairwiseDP(m, opts...)
}

func (uc *AlignmentService) Models(ctx context.Context) []ModelInfo {
	infos := make([]ModelInfo, 0, len(uc.dps))
	for name, d := range uc.dps {
		m := d.Model()
		states := []string{}
		for _, s := range m.States() {
			states = append(states, s.Name())
		}
		infos = append(infos, ModelInfo{Name: name, Heads: m.Heads(), States: states})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
	return infos
}

func (uc *AlignmentService) Forward(ctx context.Context, model, seqA, seqB string) (float64, error) {
	d, seqs, err := uc.prepare(ctx, model, seqA, seqB)
	if err != nil {
		return 0, err
	}
	score, err := d.Forward(seqs)
	if err != nil {
		return 0, wrapDPError(err)
	}
	return score, nil
}

func (uc *AlignmentService) Backward(ctx context.Context, model, seqA, seqB string) (float64, error) {
	d, seqs, err := uc.prepare(ctx, model, seqA, seqB)
	if err != nil {
		return 0, err
	}
	score, err := d.Backward(seqs)
	if err != nil {
		return 0, wrapDPError(err)
	}
	return score, nil
}

// Viterbi. most likely alignment, served from the kv cache when the same model version already aligned the pair.
func (uc *AlignmentService) Viterbi(ctx context.Context, model, seqA, seqB string) (kv.ViterbiRecord, bool, error) {
	rec, cached, err := uc.viterbi(ctx, model, seqA, seqB)
	if err != nil || cached {
		return rec, cached, err
	}
	if err := uc.kv.PutViterbi(rec); err != nil {
		log.Printf("caching viterbi result of %s: %v", model, err)
	}
	return rec, false, nil
}

func (uc *AlignmentService) viterbi(ctx context.Context, model, seqA, seqB string) (kv.ViterbiRecord, bool, error) {
	d, seqs, err := uc.prepare(ctx, model, seqA, seqB)
	if err != nil {
		return kv.ViterbiRecord{}, false, err
	}

	version := d.Model().Version()
	rec, err := uc.kv.GetViterbi(model, version, seqA, seqB)
	if err == nil {
		return rec, true, nil
	}
	if !errors.Is(err, kv.ErrRecordNotFound) {
		log.Printf("reading viterbi cache of %s: %v", model, err)
	}

	path, err := d.Viterbi(seqs)
	if err != nil {
		return kv.ViterbiRecord{}, false, wrapDPError(err)
	}
	return kv.ViterbiRecord{
		Model:   model,
		Version: version,
		SeqA:    seqA,
		SeqB:    seqB,
		Score:   path.Score,
		Rows:    path.Alignment(),
		States:  path.Labels(),
		Scores:  path.Scores,
	}, false, nil
}

// BatchViterbi. align every pair on the worker pool. results are in input order,
// a failing pair does not fail the batch.
func (uc *AlignmentService) BatchViterbi(ctx context.Context, model string, pairs [][2]string) ([]BatchResult, error) {
	if _, ok := uc.dps[model]; !ok {
		return nil, server.WrapErrorf(models.ErrUnknownModel, server.ErrNotFound, "model %q is not registered", model)
	}

	workers := concurrent.NewWorkerPool[concurrent.AlignJob, BatchResult](uc.workers, len(pairs))
	for i, p := range pairs {
		workers.AddJob(concurrent.NewAlignJob(i, model, p[0], p[1]))
	}
	workers.Close()
	workers.Start(func(job concurrent.AlignJob) BatchResult {
		rec, cached, err := uc.viterbi(ctx, job.Model, job.SeqA, job.SeqB)
		return BatchResult{ID: job.ID, Record: rec, Cached: cached, Err: err}
	})
	workers.Wait()

	results := make([]BatchResult, len(pairs))
	fresh := []kv.ViterbiRecord{}
	for res := range workers.CollectResults() {
		results[res.ID] = res
		if res.Err == nil && !res.Cached {
			fresh = append(fresh, res.Record)
		}
	}

	if err := uc.kv.PutViterbiBatch(ctx, fresh); err != nil {
		log.Printf("caching %d viterbi results of %s: %v", len(fresh), model, err)
	}
	return results, nil
}

func (uc *AlignmentService) prepare(ctx context.Context, model, seqA, seqB string) (DP, []hmm.SymbolList, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, server.WrapErrorf(err, server.ErrInternalServerError, "request cancelled")
	}
	d, ok := uc.dps[model]
	if !ok {
		return nil, nil, server.WrapErrorf(models.ErrUnknownModel, server.ErrNotFound, "model %q is not registered", model)
	}

	m := d.Model()
	a, err := hmm.ParseSymbolList(m.Alphabet(0), seqA)
	if err != nil {
		return nil, nil, server.WrapErrorf(err, server.ErrBadParamInput, "seq_a is not a %s sequence", m.Alphabet(0).Name())
	}
	if m.Heads() == 1 {
		if seqB != "" {
			return nil, nil, server.NewErrorf(server.ErrBadParamInput, "model %q aligns a single sequence, seq_b must be empty", model)
		}
		return d, []hmm.SymbolList{a}, nil
	}

	b, err := hmm.ParseSymbolList(m.Alphabet(1), seqB)
	if err != nil {
		return nil, nil, server.WrapErrorf(err, server.ErrBadParamInput, "seq_b is not a %s sequence", m.Alphabet(1).Name())
	}
	return d, []hmm.SymbolList{a, b}, nil
}

func wrapDPError(err error) error {
	switch {
	case errors.Is(err, dp.ErrWrongArity), errors.Is(err, dp.ErrIllegalSymbol), errors.Is(err, dp.ErrIllegalAlphabet):
		return server.WrapErrorf(err, server.ErrBadParamInput, "sequences do not fit the model")
	}
	return server.WrapErrorf(err, server.ErrInternalServerError, "internal server error")
}
