package pipeline

import (
	"context"
	"fmt"

	"cluster-matcher/internal/logger"
	"cluster-matcher/internal/models"

	"golang.org/x/sync/errgroup"
)

// BatchReport is everything a run produces: matched rows in completion order and the summary.
type BatchReport struct {
	Results []models.MatchResult
	Summary models.BatchSummary
}

// Coordinator fans tasks out to a bounded pool of goroutines and aggregates their outcomes.
type Coordinator struct {
	processor Processor
	workers   int
	logger    logger.Logger
}

func NewCoordinator(processor Processor, workers int, log logger.Logger) *Coordinator {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Coordinator{processor: processor, workers: workers, logger: log}
}

// Run blocks until every task has produced an outcome. Once ctx is cancelled no new task is
// dispatched; tasks already running finish and their results are still aggregated.
func (c *Coordinator) Run(ctx context.Context, tasks []models.Task) *BatchReport {
	c.logger.Info("Coordinator", "starting batch", map[string]interface{}{
		"tasks":   len(tasks),
		"workers": c.workers,
	})

	outcomes := make(chan models.Outcome, c.workers)
	go c.dispatch(ctx, tasks, outcomes)

	agg := NewAggregator(len(tasks))
	for outcome := range outcomes {
		agg.Add(outcome)
		c.logger.Debug("Coordinator", "progress", map[string]interface{}{
			"completed": agg.Completed(),
			"total":     len(tasks),
			"image":     outcome.Task.ImageID,
		})
	}

	report := &BatchReport{Results: agg.Results(), Summary: agg.Summary()}
	c.logSummary(report.Summary)
	return report
}

func (c *Coordinator) dispatch(ctx context.Context, tasks []models.Task, outcomes chan<- models.Outcome) {
	defer close(outcomes)

	var g errgroup.Group
	g.SetLimit(c.workers)
	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			outcomes <- models.Skipped(task, models.SkipCancelled, err)
			continue
		}
		g.Go(func() error {
			outcomes <- c.process(ctx, task)
			return nil
		})
	}
	_ = g.Wait() // failures travel as skipped outcomes
}

// process keeps a misbehaving Processor from taking the batch down with it.
func (c *Coordinator) process(ctx context.Context, task models.Task) (outcome models.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = models.Skipped(task, models.SkipPanic, fmt.Errorf("panic: %v", r))
		}
	}()
	return c.processor.Process(ctx, task)
}

func (c *Coordinator) logSummary(s models.BatchSummary) {
	fields := map[string]interface{}{
		"found":                s.TotalFound,
		"processed":            s.TotalProcessed,
		"average_iou":          fmt.Sprintf("%.4f", s.AverageScore),
		"percentage_processed": fmt.Sprintf("%.2f%%", s.PercentageProcessed),
	}
	for reason, n := range s.Skipped {
		fields["skipped_"+string(reason)] = n
	}
	c.logger.Info("Coordinator", "batch completed", fields)
}
