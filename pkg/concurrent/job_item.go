package concurrent

// AlignJob. one pair of sequences for batch alignment. ID is the position of the pair in the batch.
type AlignJob struct {
	ID    int
	Model string
	SeqA  string
	SeqB  string
}

func NewAlignJob(id int, model, seqA, seqB string) AlignJob {
	return AlignJob{
		ID:    id,
		Model: model,
		SeqA:  seqA,
		SeqB:  seqB,
	}
}

// ScoreJob. one forward or backward evaluation.
type ScoreJob struct {
	ID        int
	Model     string
	SeqA      string
	SeqB      string
	Algorithm string
}

type JobI interface {
	AlignJob | ScoreJob
}

type Job[T JobI] struct {
	ID      int
	JobItem T
}
type JobFunc[T JobI, G any] func(job T) G
