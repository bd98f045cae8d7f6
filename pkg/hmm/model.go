package hmm

import (
	"math"
	"sync"

	"github.com/cockroachdb/errors"
)

var ErrIllegalTransition = errors.New("illegal transition")

type Transition struct {
	From    *State
	To      *State
	LogProb float64
}

// MarkovModel. hidden markov model with an explicit magical start/end state.
// All transition scores are natural log probabilities.
//
// mu is held for the whole lifetime of a dp run (see Acquire), every mutator takes it too,
// so a structural edit waits until in-flight runs are done.
type MarkovModel struct {
	mu sync.Mutex

	heads     int
	alphabets [2]*Alphabet
	magical   *State
	states    []*State
	index     map[*State]int
	trans     map[*State][]Transition // by source, creation order
	version   uint64
}

// NewMarkovModel. heads is the number of sequences consumed at once (1 or 2), one alphabet per head.
func NewMarkovModel(heads int, alphabets ...*Alphabet) (*MarkovModel, error) {
	if heads < 1 || heads > 2 {
		return nil, errors.Newf("markov model must have 1 or 2 heads, got %d", heads)
	}
	if len(alphabets) != heads {
		return nil, errors.Wrapf(ErrIllegalAlphabet, "%d heads need %d alphabets, got %d", heads, heads, len(alphabets))
	}
	m := &MarkovModel{
		heads:   heads,
		magical: newMagicalState(),
		index:   make(map[*State]int),
		trans:   make(map[*State][]Transition),
	}
	for h, a := range alphabets {
		if a == nil {
			return nil, errors.Wrapf(ErrIllegalAlphabet, "nil alphabet for head %d", h)
		}
		m.alphabets[h] = a
	}
	m.index[m.magical] = 0
	m.states = append(m.states, m.magical)
	return m, nil
}

func (m *MarkovModel) Heads() int {
	return m.heads
}

// Alphabet. alphabet of head h, nil if the model has no such head.
func (m *MarkovModel) Alphabet(h int) *Alphabet {
	if h < 0 || h >= m.heads {
		return nil
	}
	return m.alphabets[h]
}

func (m *MarkovModel) MagicalState() *State {
	return m.magical
}

func (m *MarkovModel) Version() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.version
}

// States. copy of the state list, magical state first.
func (m *MarkovModel) States() []*State {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]*State, len(m.states))
	copy(cp, m.states)
	return cp
}

func (m *MarkovModel) AddState(s *State) error {
	if s == nil {
		return errors.Wrap(ErrIllegalState, "nil state")
	}
	if s.IsMagical() {
		return errors.Wrapf(ErrIllegalState, "state %q: a model owns exactly one magical state", s.Name())
	}
	if s.kind == Emitting && m.heads == 1 && s.advance[1] != 0 {
		return errors.Wrapf(ErrIllegalState, "state %q advances head 2 of a 1-head model", s.Name())
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.index[s]; ok {
		return errors.Wrapf(ErrIllegalState, "state %q already in model", s.Name())
	}
	m.index[s] = len(m.states)
	m.states = append(m.states, s)
	m.version++
	return nil
}

func (m *MarkovModel) contains(s *State) bool {
	_, ok := m.index[s]
	return ok
}

// CreateTransition. add edge from -> to with the given log probability.
func (m *MarkovModel) CreateTransition(from, to *State, logProb float64) error {
	if math.IsNaN(logProb) || logProb > 0 {
		return errors.Wrapf(ErrIllegalTransition, "log probability %v for %s -> %s", logProb, from, to)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.contains(from) || !m.contains(to) {
		return errors.Wrapf(ErrIllegalState, "transition %s -> %s uses a state outside the model", from, to)
	}
	for _, t := range m.trans[from] {
		if t.To == to {
			return errors.Wrapf(ErrIllegalTransition, "transition %s -> %s already exists", from, to)
		}
	}
	m.trans[from] = append(m.trans[from], Transition{From: from, To: to, LogProb: logProb})
	m.version++
	return nil
}

func (m *MarkovModel) SetTransitionScore(from, to *State, logProb float64) error {
	if math.IsNaN(logProb) || logProb > 0 {
		return errors.Wrapf(ErrIllegalTransition, "log probability %v for %s -> %s", logProb, from, to)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	ts := m.trans[from]
	for i := range ts {
		if ts[i].To == to {
			ts[i].LogProb = logProb
			m.version++
			return nil
		}
	}
	return errors.Wrapf(ErrIllegalTransition, "no transition %s -> %s", from, to)
}

func (m *MarkovModel) DestroyTransition(from, to *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ts := m.trans[from]
	for i := range ts {
		if ts[i].To == to {
			m.trans[from] = append(ts[:i:i], ts[i+1:]...)
			m.version++
			return nil
		}
	}
	return errors.Wrapf(ErrIllegalTransition, "no transition %s -> %s", from, to)
}

func (m *MarkovModel) TransitionScore(from, to *State) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.trans[from] {
		if t.To == to {
			return t.LogProb, nil
		}
	}
	return math.Inf(-1), errors.Wrapf(ErrIllegalTransition, "no transition %s -> %s", from, to)
}

func (m *MarkovModel) TransitionsFrom(from *State) []Transition {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]Transition, len(m.trans[from]))
	copy(cp, m.trans[from])
	return cp
}

// TransitionsTo. incoming edges of to, ordered by source state then creation.
func (m *MarkovModel) TransitionsTo(to *State) []Transition {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []Transition
	for _, s := range m.states {
		for _, t := range m.trans[s] {
			if t.To == to {
				res = append(res, t)
			}
		}
	}
	return res
}

// Snapshot. immutable copy of the model architecture taken under the model lock.
type Snapshot struct {
	Heads       int
	Alphabets   [2]*Alphabet
	Magical     *State
	States      []*State
	Transitions []Transition // grouped by source in state order
	Version     uint64
}

// Acquire. lock the model for a dp run. the returned release func must be called exactly once,
// structural edits block until then.
func (m *MarkovModel) Acquire() (*Snapshot, func()) {
	m.mu.Lock()
	snap := &Snapshot{
		Heads:     m.heads,
		Alphabets: m.alphabets,
		Magical:   m.magical,
		States:    make([]*State, len(m.states)),
		Version:   m.version,
	}
	copy(snap.States, m.states)
	for _, s := range m.states {
		snap.Transitions = append(snap.Transitions, m.trans[s]...)
	}

	var once sync.Once
	return snap, func() {
		once.Do(m.mu.Unlock)
	}
}
