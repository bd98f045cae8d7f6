package dp_test

import (
	"math"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/lintang-b-s/pairhmm/pkg/engine/dp"
	"github.com/lintang-b-s/pairhmm/pkg/hmm"
	"github.com/lintang-b-s/pairhmm/pkg/models"
	"github.com/lintang-b-s/pairhmm/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
)

func dnaPair(t *testing.T, a, b string) []hmm.SymbolList {
	sa, err := hmm.ParseSymbolList(models.DNA, a)
	require.NoError(t, err)
	sb, err := hmm.ParseSymbolList(models.DNA, b)
	require.NoError(t, err)
	return []hmm.SymbolList{sa, sb}
}

func rolls(t *testing.T, s string) []hmm.SymbolList {
	l, err := hmm.ParseSymbolList(models.Dice, s)
	require.NoError(t, err)
	return []hmm.SymbolList{l}
}

func editDP(t *testing.T, silent bool) (*models.Edit, *dp.PairwiseDP) {
	cfg := models.DefaultEditConfig()
	cfg.SilentEnds = silent
	e, err := models.NewEdit(cfg)
	require.NoError(t, err)
	d, err := dp.NewPairwiseDP(e.Model)
	require.NoError(t, err)
	return e, d
}

func casinoDP(t *testing.T) (*models.Casino, *dp.SingleDP) {
	c, err := models.NewCasino()
	require.NoError(t, err)
	d, err := dp.NewSingleDP(c.Model)
	require.NoError(t, err)
	return c, d
}

// rescore. transitions and emissions along the path, read straight from the model.
func rescore(t *testing.T, m *hmm.MarkovModel, path *dp.StatePath) float64 {
	total := 0.0
	prev := m.MagicalState()
	for k, s := range path.States {
		tr, err := m.TransitionScore(prev, s)
		require.NoError(t, err)
		total += tr
		if !s.IsSilent() {
			total += math.Log(s.Distribution().Weight(path.Symbols[k]))
		}
		prev = s
	}
	tr, err := m.TransitionScore(prev, m.MagicalState())
	require.NoError(t, err)
	return total + tr
}

func TestForwardBackwardAgreement(t *testing.T) {
	r := rand.New(rand.NewSource(2024))

	t.Run("edit model", func(t *testing.T) {
		for _, silent := range []bool{false, true} {
			_, d := editDP(t, silent)
			for n := 0; n < 12; n++ {
				seqs := dnaPair(t, util.RandomString(r, "ACGT", 1+r.Intn(15)), util.RandomString(r, "ACGT", r.Intn(15)))

				fwd, err := d.Forward(seqs)
				require.NoError(t, err)
				bwd, err := d.Backward(seqs)
				require.NoError(t, err)

				require.False(t, math.IsInf(fwd, -1))
				assert.InEpsilon(t, fwd, bwd, 1e-9)
			}
		}
	})

	t.Run("casino", func(t *testing.T) {
		_, d := casinoDP(t)
		for n := 0; n < 10; n++ {
			seqs := rolls(t, util.RandomString(r, "123456", 1+r.Intn(60)))

			fwd, err := d.Forward(seqs)
			require.NoError(t, err)
			bwd, err := d.Backward(seqs)
			require.NoError(t, err)
			assert.InEpsilon(t, fwd, bwd, 1e-9)
		}
	})

	t.Run("light and matrix cursors agree", func(t *testing.T) {
		_, d := editDP(t, true)
		seqs := dnaPair(t, "GATTACA", "GCATGCT")

		light, err := d.Forward(seqs)
		require.NoError(t, err)
		mat, err := d.ForwardMatrix(seqs)
		require.NoError(t, err)
		assert.Equal(t, light, mat.Score())

		rows, cols := mat.Dims()
		assert.Equal(t, 9, rows)
		assert.Equal(t, 9, cols)
	})
}

func TestViterbiBelowForward(t *testing.T) {
	r := rand.New(rand.NewSource(99))
	_, d := editDP(t, false)
	for n := 0; n < 10; n++ {
		seqs := dnaPair(t, util.RandomString(r, "ACGT", 1+r.Intn(12)), util.RandomString(r, "ACGT", 1+r.Intn(12)))

		fwd, err := d.Forward(seqs)
		require.NoError(t, err)
		path, err := d.Viterbi(seqs)
		require.NoError(t, err)
		assert.LessOrEqual(t, path.Score, fwd)
	}
}

func TestDeterminism(t *testing.T) {
	_, d := editDP(t, true)
	seqs := dnaPair(t, "ACGTTGCAAC", "ACTTGCAGC")

	fwd1, err := d.Forward(seqs)
	require.NoError(t, err)
	path1, err := d.Viterbi(seqs)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		fwd2, err := d.Forward(seqs)
		require.NoError(t, err)
		path2, err := d.Viterbi(seqs)
		require.NoError(t, err)

		assert.Equal(t, fwd1, fwd2)
		assert.Equal(t, path1.Score, path2.Score)
		assert.Equal(t, path1.Labels(), path2.Labels())
		assert.Equal(t, path1.Scores, path2.Scores)
	}
}

func TestTracebackRescore(t *testing.T) {
	r := rand.New(rand.NewSource(5))

	t.Run("edit model", func(t *testing.T) {
		for _, silent := range []bool{false, true} {
			e, d := editDP(t, silent)
			for n := 0; n < 8; n++ {
				seqs := dnaPair(t, util.RandomString(r, "ACGT", 1+r.Intn(10)), util.RandomString(r, "ACGT", 1+r.Intn(10)))
				path, err := d.Viterbi(seqs)
				require.NoError(t, err)
				require.NotZero(t, path.Len())

				assert.InDelta(t, path.Score, rescore(t, e.Model, path), 1e-9)
				assert.Equal(t, path.Len(), len(path.Symbols))
				assert.Equal(t, path.Len(), len(path.Scores))
			}
		}
	})

	t.Run("casino", func(t *testing.T) {
		c, d := casinoDP(t)
		path, err := d.Viterbi(rolls(t, "6616126663"))
		require.NoError(t, err)
		assert.InDelta(t, path.Score, rescore(t, c.Model, path), 1e-9)
	})
}

func TestCasinoViterbi(t *testing.T) {
	c, d := casinoDP(t)
	roll := "123456"

	path, err := d.Viterbi(rolls(t, roll))
	require.NoError(t, err)
	require.Equal(t, 6, path.Len())

	emit := func(loaded bool, face byte) float64 {
		if !loaded {
			return math.Log(1.0 / 6)
		}
		if face == '6' {
			return math.Log(0.5)
		}
		return math.Log(0.1)
	}
	trans := func(from, to bool) float64 {
		switch {
		case !from && !to:
			return math.Log(0.95)
		case !from && to:
			return math.Log(0.04)
		case from && !to:
			return math.Log(0.09)
		}
		return math.Log(0.90)
	}

	best := math.Inf(-1)
	var bestLabels []string
	for mask := 0; mask < 1<<len(roll); mask++ {
		labels := make([]string, len(roll))
		score := 0.0
		prev := false
		for i := 0; i < len(roll); i++ {
			loaded := mask&(1<<i) != 0
			labels[i] = "fair"
			if loaded {
				labels[i] = "loaded"
			}
			if i == 0 {
				if loaded {
					score += math.Log(0.2)
				} else {
					score += math.Log(0.8)
				}
			} else {
				score += trans(prev, loaded)
			}
			score += emit(loaded, roll[i])
			prev = loaded
		}
		score += math.Log(0.01)
		if score > best {
			best = score
			bestLabels = labels
		}
	}

	assert.InDelta(t, best, path.Score, 1e-9)
	assert.Equal(t, bestLabels, path.Labels())
	assert.Equal(t, []string{roll}, path.Alignment())
	assert.Equal(t, c.Fair, path.States[0])
	assert.InDelta(t, path.Score, path.Scores[5]+math.Log(0.01), 1e-9)
}

func TestEditViterbi(t *testing.T) {
	expected := math.Log(1.0/3) + 4*math.Log(0.25) + 3*math.Log(0.225) + math.Log(0.25)

	t.Run("single deletion", func(t *testing.T) {
		_, d := editDP(t, false)
		path, err := d.Viterbi(dnaPair(t, "ACGT", "AGT"))
		require.NoError(t, err)

		assert.Equal(t, []string{"ACGT", "A-GT"}, path.Alignment())
		assert.Equal(t, []string{"match", "delete", "match", "match"}, path.Labels())
		assert.InDelta(t, expected, path.Score, 1e-9)
	})

	t.Run("silent begin and end", func(t *testing.T) {
		_, d := editDP(t, true)
		path, err := d.Viterbi(dnaPair(t, "ACGT", "AGT"))
		require.NoError(t, err)

		assert.Equal(t, []string{"ACGT", "A-GT"}, path.Alignment())
		assert.Equal(t, []string{"begin", "match", "delete", "match", "match", "end"}, path.Labels())
		assert.Equal(t, hmm.Pair{hmm.Gap, hmm.Gap}, path.Symbols[0])
		assert.InDelta(t, expected, path.Score, 1e-9)
	})
}

func TestEmptySequence(t *testing.T) {
	t.Run("one side empty is a pure deletion", func(t *testing.T) {
		_, d := editDP(t, false)
		seqs := dnaPair(t, "AC", "")
		expected := math.Log(1.0/3) + 2*math.Log(0.25) + math.Log(0.25) + math.Log(0.25)

		fwd, err := d.Forward(seqs)
		require.NoError(t, err)
		assert.InDelta(t, expected, fwd, 1e-9)

		bwd, err := d.Backward(seqs)
		require.NoError(t, err)
		assert.InDelta(t, expected, bwd, 1e-9)

		path, err := d.Viterbi(seqs)
		require.NoError(t, err)
		assert.InDelta(t, expected, path.Score, 1e-9)
		assert.Equal(t, []string{"AC", "--"}, path.Alignment())
	})

	t.Run("other side empty is a pure insertion", func(t *testing.T) {
		_, d := editDP(t, true)
		path, err := d.Viterbi(dnaPair(t, "", "GGT"))
		require.NoError(t, err)
		assert.Equal(t, []string{"---", "GGT"}, path.Alignment())
		expected := math.Log(1.0/3) + 3*math.Log(0.25) + 2*math.Log(0.25) + math.Log(0.25)
		assert.InDelta(t, expected, path.Score, 1e-9)
	})

	t.Run("both empty is impossible", func(t *testing.T) {
		_, d := editDP(t, false)
		seqs := dnaPair(t, "", "")

		fwd, err := d.Forward(seqs)
		require.NoError(t, err)
		assert.True(t, math.IsInf(fwd, -1))

		path, err := d.Viterbi(seqs)
		require.NoError(t, err)
		assert.True(t, math.IsInf(path.Score, -1))
		assert.Zero(t, path.Len())
	})
}

func TestPosterior(t *testing.T) {
	c, d := casinoDP(t)
	seqs := rolls(t, "3156666666666626")

	fwd, err := d.ForwardMatrix(seqs)
	require.NoError(t, err)
	bwd, err := d.BackwardMatrix(seqs)
	require.NoError(t, err)
	assert.InEpsilon(t, fwd.Score(), bwd.Score(), 1e-9)

	post, err := dp.Posterior(fwd, bwd)
	require.NoError(t, err)

	fair, ok := post.StateIndex(c.Fair)
	require.True(t, ok)
	loaded, ok := post.StateIndex(c.Loaded)
	require.True(t, ok)

	n := seqs[0].Len()
	for i := 1; i <= n; i++ {
		col := post.Column(i, 0)
		total := floats.LogSumExp([]float64{col[fair], col[loaded]})
		assert.InDelta(t, 0, total, 1e-9)
	}

	// a run of sixes is most likely rolled with the loaded die
	assert.Greater(t, post.At(9, 0, c.Loaded), post.At(9, 0, c.Fair))
	assert.InDelta(t, 0, post.At(0, 0, c.Model.MagicalState()), 1e-9)

	_, err = dp.Posterior(fwd, nil)
	assert.Error(t, err)
}

func TestPosteriorPairwise(t *testing.T) {
	e, d := editDP(t, false)
	seqs := dnaPair(t, "ACGT", "AGT")

	fwd, err := d.ForwardMatrix(seqs)
	require.NoError(t, err)
	bwd, err := d.BackwardMatrix(seqs)
	require.NoError(t, err)
	post, err := dp.Posterior(fwd, bwd)
	require.NoError(t, err)

	// every alignment ends with a step that consumes the last symbol of both sequences or of one
	last := []float64{
		post.At(4, 3, e.Match),
		post.At(4, 3, e.Insert),
		post.At(4, 3, e.Delete),
	}
	assert.InDelta(t, 0, floats.LogSumExp(last), 1e-9)
}

func TestMatrixRuns(t *testing.T) {
	c, d := casinoDP(t)
	seqs := rolls(t, "1266666345")

	light, err := d.Forward(seqs)
	require.NoError(t, err)
	fwd, err := d.ForwardMatrix(seqs)
	require.NoError(t, err)
	bwd, err := d.BackwardMatrix(seqs)
	require.NoError(t, err)

	assert.InEpsilon(t, light, fwd.Score(), 1e-12)
	assert.InEpsilon(t, light, bwd.Score(), 1e-9)
	assert.Equal(t, 0.0, fwd.At(0, 0, c.Model.MagicalState()))
	assert.Equal(t, bwd.Score(), bwd.At(0, 0, c.Model.MagicalState()))

	rows, cols := fwd.Dims()
	assert.Equal(t, 12, rows)
	assert.Equal(t, 2, cols)
	for i := 1; i <= seqs[0].Len(); i++ {
		assert.False(t, math.IsInf(fwd.At(i, 0, c.Fair), -1))
		assert.False(t, math.IsInf(bwd.At(i, 0, c.Loaded), -1))
	}
	assert.Nil(t, fwd.Column(rows, 0))
}

func assertSameCells(t *testing.T, want, got *dp.Matrix) {
	rows, cols := want.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			assert.Equal(t, want.Column(i, j), got.Column(i, j), "cell (%d, %d)", i, j)
		}
	}
}

func TestMatrixReuse(t *testing.T) {
	t.Run("pairwise", func(t *testing.T) {
		_, d := editDP(t, true)
		first := dnaPair(t, "GATTACA", "GCATG")
		second := dnaPair(t, "CCTAGGA", "TTACG")

		fwd, err := d.ForwardMatrix(first)
		require.NoError(t, err)
		bwd, err := d.BackwardMatrix(first)
		require.NoError(t, err)

		freshFwd, err := d.ForwardMatrix(second)
		require.NoError(t, err)
		freshBwd, err := d.BackwardMatrix(second)
		require.NoError(t, err)

		reusedFwd, err := d.ForwardMatrixInto(second, fwd)
		require.NoError(t, err)
		assert.Same(t, fwd, reusedFwd)
		assert.Equal(t, freshFwd.Score(), reusedFwd.Score())
		assertSameCells(t, freshFwd, reusedFwd)

		reusedBwd, err := d.BackwardMatrixInto(second, bwd)
		require.NoError(t, err)
		assert.Same(t, bwd, reusedBwd)
		assert.Equal(t, freshBwd.Score(), reusedBwd.Score())
		assertSameCells(t, freshBwd, reusedBwd)
		assert.Equal(t, second[0], reusedBwd.Sequences()[0])

		// a forward matrix can be refilled by a backward run of the same shape
		_, err = d.BackwardMatrixInto(second, freshFwd)
		require.NoError(t, err)
		assertSameCells(t, freshBwd, freshFwd)
	})

	t.Run("single", func(t *testing.T) {
		_, d := casinoDP(t)
		fwd, err := d.ForwardMatrix(rolls(t, "123456"))
		require.NoError(t, err)

		fresh, err := d.ForwardMatrix(rolls(t, "666666"))
		require.NoError(t, err)
		reused, err := d.ForwardMatrixInto(rolls(t, "666666"), fwd)
		require.NoError(t, err)
		assert.Equal(t, fresh.Score(), reused.Score())
		assertSameCells(t, fresh, reused)
	})

	t.Run("shape mismatch", func(t *testing.T) {
		_, d := editDP(t, true)
		mat, err := d.ForwardMatrix(dnaPair(t, "GATTACA", "GCATG"))
		require.NoError(t, err)
		score := mat.Score()

		_, err = d.ForwardMatrixInto(dnaPair(t, "GATTACA", "GCAT"), mat)
		assert.True(t, errors.Is(err, dp.ErrMatrixShape))
		_, err = d.BackwardMatrixInto(dnaPair(t, "GATTAC", "GCATG"), mat)
		assert.True(t, errors.Is(err, dp.ErrMatrixShape))

		// same lattice, different model
		_, other := editDP(t, false)
		_, err = other.ForwardMatrixInto(dnaPair(t, "GATTACA", "GCATG"), mat)
		assert.True(t, errors.Is(err, dp.ErrMatrixShape))

		assert.Equal(t, score, mat.Score())
	})
}

type badList struct{}

func (badList) Alphabet() *hmm.Alphabet { return models.DNA }
func (badList) Len() int                { return 1 }
func (badList) SymbolAt(int) hmm.Symbol { return 9 }

func TestPreconditionErrors(t *testing.T) {
	_, d := editDP(t, false)

	t.Run("wrong arity", func(t *testing.T) {
		seqs := dnaPair(t, "A", "C")
		_, err := d.Forward(seqs[:1])
		assert.True(t, errors.Is(err, dp.ErrWrongArity))
		_, err = d.Viterbi(append(seqs, seqs[0]))
		assert.True(t, errors.Is(err, dp.ErrWrongArity))
		_, err = d.Backward([]hmm.SymbolList{seqs[0], nil})
		assert.True(t, errors.Is(err, dp.ErrWrongArity))
	})

	t.Run("foreign alphabet", func(t *testing.T) {
		r := rolls(t, "123")
		seqs := dnaPair(t, "A", "C")
		_, err := d.Forward([]hmm.SymbolList{seqs[0], r[0]})
		assert.True(t, errors.Is(err, dp.ErrIllegalAlphabet))
	})

	t.Run("illegal symbol", func(t *testing.T) {
		seqs := dnaPair(t, "A", "C")
		_, err := d.Viterbi([]hmm.SymbolList{seqs[0], badList{}})
		assert.True(t, errors.Is(err, dp.ErrIllegalSymbol))
	})

	t.Run("model head count", func(t *testing.T) {
		c, err := models.NewCasino()
		require.NoError(t, err)
		_, err = dp.NewPairwiseDP(c.Model)
		assert.Error(t, err)

		e, _ := editDP(t, false)
		_, err = dp.NewSingleDP(e.Model)
		assert.Error(t, err)
	})
}

type panicDist struct{}

func (panicDist) Weight(hmm.Pair) float64 {
	panic("weight table corrupted")
}

func TestCellErrorFromDistribution(t *testing.T) {
	m, err := hmm.NewMarkovModel(1, models.Dice)
	require.NoError(t, err)
	s, err := hmm.NewEmissionState("broken", []int{1}, panicDist{})
	require.NoError(t, err)
	require.NoError(t, m.AddState(s))
	require.NoError(t, m.CreateTransition(m.MagicalState(), s, 0))
	require.NoError(t, m.CreateTransition(s, m.MagicalState(), 0))

	d, err := dp.NewSingleDP(m)
	require.NoError(t, err)

	_, err = d.Forward(rolls(t, "12"))
	var cellErr *dp.CellError
	require.True(t, errors.As(err, &cellErr))
	assert.Equal(t, 1, cellErr.I)
	assert.Equal(t, 0, cellErr.J)
	assert.Contains(t, err.Error(), "weight table corrupted")

	// the model lock was released on the failing path
	done := make(chan struct{})
	go func() {
		_ = m.SetTransitionScore(s, m.MagicalState(), math.Log(0.5))
		close(done)
	}()
	<-done
}

func TestSilentCycle(t *testing.T) {
	m, err := hmm.NewMarkovModel(1, models.Dice)
	require.NoError(t, err)
	a := hmm.NewDotState("a")
	b := hmm.NewDotState("b")
	require.NoError(t, m.AddState(a))
	require.NoError(t, m.AddState(b))
	require.NoError(t, m.CreateTransition(m.MagicalState(), a, 0))
	require.NoError(t, m.CreateTransition(a, b, math.Log(0.5)))
	require.NoError(t, m.CreateTransition(b, a, 0))
	require.NoError(t, m.CreateTransition(a, m.MagicalState(), math.Log(0.5)))

	d, err := dp.NewSingleDP(m)
	require.NoError(t, err)
	_, err = d.Forward(rolls(t, "1"))
	assert.True(t, errors.Is(err, dp.ErrModel))
}

type countingObserver struct {
	mu    sync.Mutex
	stats []dp.RunStats
}

func (o *countingObserver) ObserveRun(s dp.RunStats) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stats = append(o.stats, s)
}

func TestObserverAndEmissionCache(t *testing.T) {
	c, err := models.NewCasino()
	require.NoError(t, err)
	obs := &countingObserver{}
	d, err := dp.NewSingleDP(c.Model, dp.WithObserver(obs))
	require.NoError(t, err)

	seqs := rolls(t, "666666")
	before, err := d.Forward(seqs)
	require.NoError(t, err)
	_, err = d.Viterbi(seqs)
	require.NoError(t, err)
	_, err = d.Forward([]hmm.SymbolList{nil})
	require.Error(t, err)

	require.Len(t, obs.stats, 3)
	assert.Equal(t, dp.AlgoForward, obs.stats[0].Algorithm)
	assert.Equal(t, dp.AlgoViterbi, obs.stats[1].Algorithm)
	assert.Equal(t, 16, obs.stats[0].Cells)
	assert.NotZero(t, obs.stats[0].EmissionHits)
	assert.Zero(t, obs.stats[1].EmissionMisses)
	assert.True(t, obs.stats[2].Failed)

	// a model edit drops the cached view and emissions
	require.NoError(t, c.Model.SetTransitionScore(c.Fair, c.Loaded, math.Log(0.5)))
	require.NoError(t, c.Model.SetTransitionScore(c.Fair, c.Fair, math.Log(0.49)))
	after, err := d.Forward(seqs)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)

	fresh, err := dp.NewSingleDP(c.Model)
	require.NoError(t, err)
	expected, err := fresh.Forward(seqs)
	require.NoError(t, err)
	assert.Equal(t, expected, after)
	assert.NotZero(t, obs.stats[3].EmissionMisses)
}

func TestConcurrentRuns(t *testing.T) {
	_, d := editDP(t, false)
	seqs := dnaPair(t, "ACGTACGTAA", "ACGTCGTA")
	expected, err := d.Forward(seqs)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]float64, 8)
	for g := 0; g < len(results); g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			results[g], _ = d.Forward(seqs)
		}(g)
	}
	wg.Wait()
	for _, res := range results {
		assert.Equal(t, expected, res)
	}
}
