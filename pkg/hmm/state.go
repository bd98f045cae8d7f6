package hmm

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var ErrIllegalState = errors.New("illegal state")

type StateKind uint8

const (
	// Silent. dot state, consumes no symbol.
	Silent StateKind = iota
	// Emitting. consumes one symbol on every head with advance 1.
	Emitting
	// Magical. start & end state of the model. consumes only the virtual boundary
	// positions 0 and len+1, never a real symbol.
	Magical
)

func (k StateKind) String() string {
	switch k {
	case Silent:
		return "silent"
	case Emitting:
		return "emitting"
	case Magical:
		return "magical"
	}
	return fmt.Sprintf("StateKind(%d)", uint8(k))
}

type State struct {
	name    string
	kind    StateKind
	advance [2]int
	dist    Distribution
}

// NewEmissionState. advance has one entry per head (0 or 1), at least one of them 1.
func NewEmissionState(name string, advance []int, dist Distribution) (*State, error) {
	if dist == nil {
		return nil, errors.Wrapf(ErrIllegalState, "state %q has no distribution", name)
	}
	if len(advance) < 1 || len(advance) > 2 {
		return nil, errors.Wrapf(ErrIllegalState, "state %q: advance %v must have 1 or 2 heads", name, advance)
	}
	s := &State{name: name, kind: Emitting, dist: dist}
	moves := 0
	for h, a := range advance {
		if a != 0 && a != 1 {
			return nil, errors.Wrapf(ErrIllegalState, "state %q: advance %v must be 0 or 1 per head", name, advance)
		}
		s.advance[h] = a
		moves += a
	}
	if moves == 0 {
		return nil, errors.Wrapf(ErrIllegalState, "state %q: emitting state must advance a head, use NewDotState", name)
	}
	return s, nil
}

func NewDotState(name string) *State {
	return &State{name: name, kind: Silent}
}

func newMagicalState() *State {
	return &State{name: "!-magical", kind: Magical, advance: [2]int{1, 1}}
}

func (s *State) Name() string {
	return s.name
}

func (s *State) Kind() StateKind {
	return s.kind
}

// Advance. symbols consumed per head. silent states return {0, 0}.
func (s *State) Advance() [2]int {
	return s.advance
}

func (s *State) Distribution() Distribution {
	return s.dist
}

func (s *State) IsSilent() bool {
	return s.kind == Silent
}

func (s *State) IsMagical() bool {
	return s.kind == Magical
}

func (s *State) String() string {
	return s.name
}
