package pipeline

import (
	"context"

	"cluster-matcher/internal/models"
)

// Processor turns one task into an outcome. Implementations must not panic through and must
// report every per-image failure as a skipped outcome rather than an error.
type Processor interface {
	Process(ctx context.Context, task models.Task) models.Outcome
}

type ProcessorFunc func(ctx context.Context, task models.Task) models.Outcome

func (f ProcessorFunc) Process(ctx context.Context, task models.Task) models.Outcome {
	return f(ctx, task)
}
