package dp

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/lintang-b-s/pairhmm/pkg/hmm"
)

var (
	ErrWrongArity  = errors.New("wrong number of sequences")
	ErrModel       = errors.New("inconsistent model")
	ErrImpossible  = errors.New("sequences have probability zero under the model")
	ErrMatrixShape = errors.New("matrix does not fit the run")

	ErrIllegalSymbol   = hmm.ErrIllegalSymbol
	ErrIllegalAlphabet = hmm.ErrIllegalAlphabet
)

// CellError. failure while computing one lattice cell, the run is abandoned.
type CellError struct {
	I, J  int
	State string
	Err   error
}

func (e *CellError) Error() string {
	if e.State == "" {
		return fmt.Sprintf("dp cell (%d,%d): %v", e.I, e.J, e.Err)
	}
	return fmt.Sprintf("dp cell (%d,%d) state %q: %v", e.I, e.J, e.State, e.Err)
}

func (e *CellError) Unwrap() error {
	return e.Err
}
