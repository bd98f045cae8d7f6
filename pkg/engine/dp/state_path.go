package dp

import (
	"strings"

	"github.com/lintang-b-s/pairhmm/pkg/hmm"
)

// StatePath. most likely path through the lattice. Symbols, States and Scores are parallel,
// Scores[k] is the cumulative log probability after step k. the magical start and end are not part of it.
type StatePath struct {
	Score   float64
	Symbols []hmm.Pair
	States  []*hmm.State
	Scores  []float64

	heads     int
	alphabets [2]*hmm.Alphabet
}

func (p *StatePath) Len() int {
	return len(p.States)
}

func (p *StatePath) Labels() []string {
	labels := make([]string, len(p.States))
	for k, s := range p.States {
		labels[k] = s.Name()
	}
	return labels
}

// Alignment. one gapped row per head, silent steps are skipped.
func (p *StatePath) Alignment() []string {
	rows := make([]strings.Builder, p.heads)
	for k, s := range p.States {
		if s.IsSilent() {
			continue
		}
		for h := 0; h < p.heads; h++ {
			rows[h].WriteString(p.alphabets[h].Token(p.Symbols[k][h]))
		}
	}
	res := make([]string, p.heads)
	for h := range rows {
		res[h] = rows[h].String()
	}
	return res
}
