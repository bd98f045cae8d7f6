package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/lintang-b-s/pairhmm/pkg/engine/dp"
	"github.com/lintang-b-s/pairhmm/pkg/hmm"
	"github.com/lintang-b-s/pairhmm/pkg/models"
	"github.com/lintang-b-s/pairhmm/pkg/util"
	"golang.org/x/exp/rand"
)

var (
	modelName  = flag.String("model", "edit-dna", "model: "+strings.Join(models.Names(), " | "))
	seqA       = flag.String("a", "", "first sequence")
	seqB       = flag.String("b", "", "second sequence, empty for single head models")
	algo       = flag.String("algo", "all", "all | forward | backward | viterbi | posterior")
	generate   = flag.Int("generate", 0, "sample the sequences from the model, at most this many states")
	random     = flag.Int("random", 0, "use uniform random sequences of this length instead of -a and -b")
	seed       = flag.Uint64("seed", 1, "seed for -generate and -random")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
)

// aligner. what both dp.PairwiseDP and dp.SingleDP offer.
type aligner interface {
	Forward(seqs []hmm.SymbolList) (float64, error)
	ForwardMatrix(seqs []hmm.SymbolList) (*dp.Matrix, error)
	Backward(seqs []hmm.SymbolList) (float64, error)
	BackwardMatrix(seqs []hmm.SymbolList) (*dp.Matrix, error)
	Viterbi(seqs []hmm.SymbolList) (*dp.StatePath, error)
}

func main() {
	flag.Parse()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	m, err := models.Build(*modelName)
	if err != nil {
		log.Fatal(err)
	}
	seqs, err := sequences(m)
	if err != nil {
		log.Fatal(err)
	}
	d, err := newAligner(m)
	if err != nil {
		log.Fatal(err)
	}

	for h, s := range seqs {
		fmt.Printf("seq %d: %s\n", h, hmm.ListString(s))
	}

	if err := run(d, seqs, *algo); err != nil {
		log.Fatal(err)
	}
}

func newAligner(m *hmm.MarkovModel) (aligner, error) {
	if m.Heads() == 1 {
		return dp.NewSingleDP(m)
	}
	return dp.NewPairwiseDP(m)
}

func sequences(m *hmm.MarkovModel) ([]hmm.SymbolList, error) {
	r := rand.New(rand.NewSource(*seed))
	seqs := make([]hmm.SymbolList, 0, m.Heads())

	switch {
	case *generate > 0:
		sample, err := m.Generate(r, *generate)
		if err != nil {
			return nil, err
		}
		labels := make([]string, len(sample.States))
		for k, s := range sample.States {
			labels[k] = s.Name()
		}
		fmt.Printf("sampled states: %s\n", strings.Join(labels, " "))
		for _, s := range sample.Seqs {
			seqs = append(seqs, s)
		}
		return seqs, nil

	case *random > 0:
		for h := 0; h < m.Heads(); h++ {
			alpha := m.Alphabet(h)
			letters := ""
			for _, s := range alpha.Symbols() {
				letters += alpha.Token(s)
			}
			s, err := hmm.ParseSymbolList(alpha, util.RandomString(r, letters, *random))
			if err != nil {
				return nil, err
			}
			seqs = append(seqs, s)
		}
		return seqs, nil
	}

	texts := []string{*seqA, *seqB}
	for h := 0; h < m.Heads(); h++ {
		s, err := hmm.ParseSymbolList(m.Alphabet(h), texts[h])
		if err != nil {
			return nil, err
		}
		seqs = append(seqs, s)
	}
	if m.Heads() == 1 && *seqB != "" {
		log.Printf("model %s has a single head, ignoring -b", *modelName)
	}
	return seqs, nil
}

func run(d aligner, seqs []hmm.SymbolList, algo string) error {
	all := algo == "all"
	known := false

	if all || algo == "forward" {
		known = true
		score, err := d.Forward(seqs)
		if err != nil {
			return err
		}
		fmt.Printf("forward:  %v\n", util.RoundFloat(score, 6))
	}
	if all || algo == "backward" {
		known = true
		score, err := d.Backward(seqs)
		if err != nil {
			return err
		}
		fmt.Printf("backward: %v\n", util.RoundFloat(score, 6))
	}
	if all || algo == "viterbi" {
		known = true
		path, err := d.Viterbi(seqs)
		if err != nil {
			return err
		}
		printPath(path)
	}
	if all || algo == "posterior" {
		known = true
		if err := printPosterior(d, seqs); err != nil {
			return err
		}
	}
	if !known {
		return errors.Newf("unknown -algo %q", algo)
	}
	return nil
}

func printPath(path *dp.StatePath) {
	fmt.Printf("viterbi:  %v\n", util.RoundFloat(path.Score, 6))
	if path.Len() == 0 {
		fmt.Println("no path")
		return
	}
	for _, row := range path.Alignment() {
		fmt.Printf("  %s\n", row)
	}
	fmt.Printf("  states: %s\n", strings.Join(path.Labels(), " "))
}

// printPosterior. posterior probability of every emitting state of the viterbi path at the cell it emits.
func printPosterior(d aligner, seqs []hmm.SymbolList) error {
	fwd, err := d.ForwardMatrix(seqs)
	if err != nil {
		return err
	}
	bwd, err := d.BackwardMatrix(seqs)
	if err != nil {
		return err
	}
	post, err := dp.Posterior(fwd, bwd)
	if err != nil {
		return err
	}
	path, err := d.Viterbi(seqs)
	if err != nil {
		return err
	}

	fmt.Println("posterior along the viterbi path:")
	i, j := 0, 0
	for k, s := range path.States {
		adv := s.Advance()
		i, j = i+adv[0], j+adv[1]
		if s.IsSilent() {
			continue
		}
		fmt.Printf("  %3d (%d,%d) %-8s %.4f\n", k, i, j, s.Name(), math.Exp(post.At(i, j, s)))
	}
	return nil
}
