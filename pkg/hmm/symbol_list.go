package hmm

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// SymbolList. indexable sequence of symbols, positions are 1-based.
type SymbolList interface {
	Alphabet() *Alphabet
	Len() int
	SymbolAt(i int) Symbol
}

type SimpleSymbolList struct {
	alpha *Alphabet
	syms  []Symbol
}

func NewSymbolList(alpha *Alphabet, syms []Symbol) (*SimpleSymbolList, error) {
	if alpha == nil {
		return nil, errors.Wrap(ErrIllegalAlphabet, "nil alphabet")
	}
	for i, s := range syms {
		if !alpha.Contains(s) {
			return nil, errors.Wrapf(ErrIllegalSymbol, "symbol %d at position %d is not in alphabet %q", s, i+1, alpha.Name())
		}
	}
	cp := make([]Symbol, len(syms))
	copy(cp, syms)
	return &SimpleSymbolList{alpha: alpha, syms: cp}, nil
}

// ParseSymbolList. one rune per symbol, e.g. "ACGT" over the DNA alphabet.
func ParseSymbolList(alpha *Alphabet, text string) (*SimpleSymbolList, error) {
	if alpha == nil {
		return nil, errors.Wrap(ErrIllegalAlphabet, "nil alphabet")
	}
	syms, err := alpha.Parse(text)
	if err != nil {
		return nil, err
	}
	return &SimpleSymbolList{alpha: alpha, syms: syms}, nil
}

func (l *SimpleSymbolList) Alphabet() *Alphabet {
	return l.alpha
}

func (l *SimpleSymbolList) Len() int {
	return len(l.syms)
}

func (l *SimpleSymbolList) SymbolAt(i int) Symbol {
	return l.syms[i-1]
}

func (l *SimpleSymbolList) String() string {
	return ListString(l)
}

// ListString. render any SymbolList with its alphabet tokens.
func ListString(l SymbolList) string {
	var sb strings.Builder
	for i := 1; i <= l.Len(); i++ {
		sb.WriteString(l.Alphabet().Token(l.SymbolAt(i)))
	}
	return sb.String()
}
