package models

// Task is one discovered image/mask pair.
type Task struct {
	ImageID   string
	ImagePath string
	MaskPath  string
}

// MatchResult is produced once per successfully processed image and never mutated afterwards.
type MatchResult struct {
	ImageID     string
	BestCluster int
	Score       float64
	OutputPath  string
	Success     bool
}

type SkipReason string

const (
	SkipMissingMask       SkipReason = "missing_mask"
	SkipUnreadableImage   SkipReason = "unreadable_image"
	SkipUnreadableMask    SkipReason = "unreadable_mask"
	SkipDimensionMismatch SkipReason = "dimension_mismatch"
	SkipNoMatch           SkipReason = "no_match"
	SkipProcessingFailed  SkipReason = "processing_failed"
	SkipOutputFailed      SkipReason = "output_failed"
	SkipPanic             SkipReason = "panic"
	SkipCancelled         SkipReason = "cancelled"
)

type OutcomeKind int

const (
	OutcomeMatched OutcomeKind = iota
	OutcomeSkipped
)

// Outcome is what a worker hands back to the coordinator: either a MatchResult or a skip reason.
type Outcome struct {
	Task   Task
	Kind   OutcomeKind
	Result *MatchResult
	Reason SkipReason
	Err    error
}

func Matched(task Task, result MatchResult) Outcome {
	return Outcome{Task: task, Kind: OutcomeMatched, Result: &result}
}

func Skipped(task Task, reason SkipReason, err error) Outcome {
	return Outcome{Task: task, Kind: OutcomeSkipped, Reason: reason, Err: err}
}

func (o Outcome) OK() bool { return o.Kind == OutcomeMatched && o.Result != nil }

// BatchSummary is derived once after every worker has returned.
type BatchSummary struct {
	TotalFound          int                `yaml:"total_found"`
	TotalProcessed      int                `yaml:"total_processed"`
	AverageScore        float64            `yaml:"average_score"`
	PercentageProcessed float64            `yaml:"percentage_processed"`
	Skipped             map[SkipReason]int `yaml:"skipped,omitempty"`
}
