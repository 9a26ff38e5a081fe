package pipeline

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cluster-matcher/internal/models"

	"github.com/google/go-cmp/cmp"
)

func tasks(ids ...string) []models.Task {
	out := make([]models.Task, len(ids))
	for i, id := range ids {
		out[i] = models.Task{ImageID: id, ImagePath: id + ".jpg", MaskPath: id + ".png"}
	}
	return out
}

func TestCoordinatorScenario(t *testing.T) {
	scores := map[string]float64{"a": 0.8, "b": 0.6}
	proc := ProcessorFunc(func(_ context.Context, task models.Task) models.Outcome {
		s, ok := scores[task.ImageID]
		if !ok {
			return models.Skipped(task, models.SkipMissingMask, nil)
		}
		return models.Matched(task, models.MatchResult{ImageID: task.ImageID, BestCluster: 2, Score: s, Success: true})
	})

	report := NewCoordinator(proc, 2, nil).Run(context.Background(), tasks("a", "b", "c"))

	s := report.Summary
	if s.TotalFound != 3 || s.TotalProcessed != 2 {
		t.Errorf("found/processed = %d/%d, want 3/2", s.TotalFound, s.TotalProcessed)
	}
	if math.Abs(s.AverageScore-0.70) > 1e-9 {
		t.Errorf("AverageScore = %v, want 0.70", s.AverageScore)
	}
	if math.Abs(s.PercentageProcessed-66.67) > 0.005 {
		t.Errorf("PercentageProcessed = %v, want 66.67", s.PercentageProcessed)
	}
	if diff := cmp.Diff(map[models.SkipReason]int{models.SkipMissingMask: 1}, s.Skipped); diff != "" {
		t.Errorf("Skipped mismatch:\n%s", diff)
	}
	if len(report.Results) != 2 {
		t.Errorf("results = %d, want 2", len(report.Results))
	}
}

func TestCoordinatorProcessesEveryTaskOnceWithBoundedPool(t *testing.T) {
	const n, pool = 40, 3
	var ids []string
	for i := 0; i < n; i++ {
		ids = append(ids, fmt.Sprintf("img%02d", i))
	}

	var mu sync.Mutex
	seen := make(map[string]int)
	var active, peak int32
	proc := ProcessorFunc(func(_ context.Context, task models.Task) models.Outcome {
		cur := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if cur <= p || atomic.CompareAndSwapInt32(&peak, p, cur) {
				break
			}
		}
		// Later tasks finish sooner, so completion order differs from dispatch order.
		idx := int(task.ImageID[3]-'0')*10 + int(task.ImageID[4]-'0')
		time.Sleep(time.Duration(n-idx) * 20 * time.Microsecond)
		atomic.AddInt32(&active, -1)

		mu.Lock()
		seen[task.ImageID]++
		mu.Unlock()
		return models.Matched(task, models.MatchResult{ImageID: task.ImageID, Score: 0.5, Success: true})
	})

	report := NewCoordinator(proc, pool, nil).Run(context.Background(), tasks(ids...))

	if len(seen) != n {
		t.Fatalf("processed %d distinct tasks, want %d", len(seen), n)
	}
	for id, c := range seen {
		if c != 1 {
			t.Errorf("task %s processed %d times", id, c)
		}
	}
	if peak > pool {
		t.Errorf("peak concurrency %d exceeds pool size %d", peak, pool)
	}
	if report.Summary.TotalProcessed != n || report.Summary.AverageScore != 0.5 {
		t.Errorf("summary = %+v", report.Summary)
	}
}

func TestAggregatorIsOrderIndependent(t *testing.T) {
	outcomes := []models.Outcome{
		models.Matched(models.Task{ImageID: "a"}, models.MatchResult{ImageID: "a", Score: 0.25}),
		models.Skipped(models.Task{ImageID: "b"}, models.SkipUnreadableImage, nil),
		models.Matched(models.Task{ImageID: "c"}, models.MatchResult{ImageID: "c", Score: 0.5}),
		models.Matched(models.Task{ImageID: "d"}, models.MatchResult{ImageID: "d", Score: 1}),
	}

	forward := NewAggregator(len(outcomes))
	backward := NewAggregator(len(outcomes))
	for i := range outcomes {
		forward.Add(outcomes[i])
		backward.Add(outcomes[len(outcomes)-1-i])
	}

	if diff := cmp.Diff(forward.Summary(), backward.Summary()); diff != "" {
		t.Errorf("summary depends on order:\n%s", diff)
	}
	if got := forward.Results()[0].ImageID; got != "a" {
		t.Errorf("first result = %s, want arrival order", got)
	}
	if got := backward.Results()[0].ImageID; got != "d" {
		t.Errorf("first result = %s, want arrival order", got)
	}
	if forward.Completed() != 4 {
		t.Errorf("Completed = %d, want 4", forward.Completed())
	}
}

func TestAggregatorEmptyBatch(t *testing.T) {
	s := NewAggregator(0).Summary()
	want := models.BatchSummary{}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("empty summary mismatch:\n%s", diff)
	}
}

func TestCoordinatorIsolatesPanics(t *testing.T) {
	proc := ProcessorFunc(func(_ context.Context, task models.Task) models.Outcome {
		if task.ImageID == "boom" {
			panic("worker crashed")
		}
		return models.Matched(task, models.MatchResult{ImageID: task.ImageID, Score: 1, Success: true})
	})

	report := NewCoordinator(proc, 2, nil).Run(context.Background(), tasks("ok1", "boom", "ok2"))
	if report.Summary.TotalProcessed != 2 {
		t.Errorf("processed = %d, want 2", report.Summary.TotalProcessed)
	}
	if report.Summary.Skipped[models.SkipPanic] != 1 {
		t.Errorf("skipped = %v, want one panic", report.Summary.Skipped)
	}
}

func TestCoordinatorCancellationKeepsPartialResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls int32
	proc := ProcessorFunc(func(_ context.Context, task models.Task) models.Outcome {
		if atomic.AddInt32(&calls, 1) == 1 {
			cancel()
		}
		return models.Matched(task, models.MatchResult{ImageID: task.ImageID, Score: 0.4, Success: true})
	})

	report := NewCoordinator(proc, 1, nil).Run(ctx, tasks("a", "b", "c", "d"))

	s := report.Summary
	if s.TotalFound != 4 {
		t.Errorf("TotalFound = %d, want 4", s.TotalFound)
	}
	if s.TotalProcessed < 1 {
		t.Fatalf("expected the in-flight task to be reported, got %+v", s)
	}
	if s.TotalProcessed+s.Skipped[models.SkipCancelled] != 4 {
		t.Errorf("processed + cancelled = %d, want 4 (%+v)", s.TotalProcessed+s.Skipped[models.SkipCancelled], s)
	}
	if s.AverageScore != 0.4 {
		t.Errorf("AverageScore = %v, want 0.4", s.AverageScore)
	}
}
