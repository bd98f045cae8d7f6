package hmm

import (
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	ErrIllegalSymbol   = errors.New("illegal symbol")
	ErrIllegalAlphabet = errors.New("illegal alphabet")
)

// Symbol. index of a token inside its Alphabet. Gap is the only symbol that belongs to no alphabet.
type Symbol int32

// Gap. gap symbol, also returned for the virtual boundary positions 0 and len+1 of a sequence.
const Gap Symbol = -1

const gapToken = "-"

// Pair. cross-product symbol, one slot per head. heads that are not advanced hold Gap.
type Pair [2]Symbol

// Single. pair emitted by a 1-head model.
func Single(s Symbol) Pair {
	return Pair{s, Gap}
}

func (p Pair) IsGap() bool {
	return p[0] == Gap && p[1] == Gap
}

type Alphabet struct {
	name   string
	tokens []string
	index  map[string]Symbol
}

// NewAlphabet. build alphabet, symbols are numbered in token order.
func NewAlphabet(name string, tokens ...string) (*Alphabet, error) {
	if len(tokens) == 0 {
		return nil, errors.Wrapf(ErrIllegalAlphabet, "alphabet %q has no tokens", name)
	}
	a := &Alphabet{
		name:   name,
		tokens: make([]string, 0, len(tokens)),
		index:  make(map[string]Symbol, len(tokens)),
	}
	for _, tok := range tokens {
		if tok == "" || tok == gapToken {
			return nil, errors.Wrapf(ErrIllegalAlphabet, "alphabet %q: token %q is reserved", name, tok)
		}
		if _, ok := a.index[tok]; ok {
			return nil, errors.Wrapf(ErrIllegalAlphabet, "alphabet %q: duplicate token %q", name, tok)
		}
		a.index[tok] = Symbol(len(a.tokens))
		a.tokens = append(a.tokens, tok)
	}
	return a, nil
}

// MustAlphabet. like NewAlphabet but panics, for package level alphabets.
func MustAlphabet(name string, tokens ...string) *Alphabet {
	a, err := NewAlphabet(name, tokens...)
	if err != nil {
		panic(err)
	}
	return a
}

func (a *Alphabet) Name() string {
	return a.name
}

func (a *Alphabet) Size() int {
	return len(a.tokens)
}

func (a *Alphabet) Contains(s Symbol) bool {
	return s >= 0 && int(s) < len(a.tokens)
}

func (a *Alphabet) Symbols() []Symbol {
	syms := make([]Symbol, len(a.tokens))
	for i := range a.tokens {
		syms[i] = Symbol(i)
	}
	return syms
}

// Symbol. lookup symbol by token.
func (a *Alphabet) Symbol(token string) (Symbol, error) {
	s, ok := a.index[token]
	if !ok {
		return Gap, errors.Wrapf(ErrIllegalSymbol, "token %q is not in alphabet %q", token, a.name)
	}
	return s, nil
}

// Token. gap and foreign symbols render as "-".
func (a *Alphabet) Token(s Symbol) string {
	if a == nil || !a.Contains(s) {
		return gapToken
	}
	return a.tokens[s]
}

// Parse. tokenize one rune per symbol.
func (a *Alphabet) Parse(text string) ([]Symbol, error) {
	syms := make([]Symbol, 0, len(text))
	for pos, r := range text {
		s, err := a.Symbol(string(r))
		if err != nil {
			return nil, errors.Wrapf(err, "position %d", pos+1)
		}
		syms = append(syms, s)
	}
	return syms, nil
}

func (a *Alphabet) String() string {
	return a.name + "{" + strings.Join(a.tokens, ",") + "}"
}
