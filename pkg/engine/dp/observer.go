package dp

import "time"

type Algorithm uint8

const (
	AlgoForward Algorithm = iota
	AlgoBackward
	AlgoViterbi
)

func (a Algorithm) String() string {
	switch a {
	case AlgoForward:
		return "forward"
	case AlgoBackward:
		return "backward"
	case AlgoViterbi:
		return "viterbi"
	}
	return "unknown"
}

// RunStats. summary of one finished run, failed runs included.
type RunStats struct {
	Algorithm      Algorithm
	Cells          int
	Duration       time.Duration
	EmissionHits   int
	EmissionMisses int
	Failed         bool
}

// RunObserver. receives RunStats after every run, called with the model already released.
type RunObserver interface {
	ObserveRun(stats RunStats)
}

type nopObserver struct{}

func (nopObserver) ObserveRun(RunStats) {}
