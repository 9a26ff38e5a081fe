package pipeline

import (
	"cluster-matcher/internal/models"

	"gonum.org/v1/gonum/floats"
)

// Aggregator accumulates outcomes in arrival order. Sum and count are order independent,
// so the summary does not depend on scheduling.
type Aggregator struct {
	discovered int
	results    []models.MatchResult
	scores     []float64
	skipped    map[models.SkipReason]int
}

func NewAggregator(discovered int) *Aggregator {
	return &Aggregator{
		discovered: discovered,
		skipped:    make(map[models.SkipReason]int),
	}
}

func (a *Aggregator) Add(outcome models.Outcome) {
	if !outcome.OK() {
		a.skipped[outcome.Reason]++
		return
	}
	a.results = append(a.results, *outcome.Result)
	a.scores = append(a.scores, outcome.Result.Score)
}

// Completed counts every outcome received so far, matched or skipped.
func (a *Aggregator) Completed() int {
	n := len(a.results)
	for _, c := range a.skipped {
		n += c
	}
	return n
}

// Results returns the matched records in completion order.
func (a *Aggregator) Results() []models.MatchResult {
	out := make([]models.MatchResult, len(a.results))
	copy(out, a.results)
	return out
}

func (a *Aggregator) Summary() models.BatchSummary {
	s := models.BatchSummary{
		TotalFound:     a.discovered,
		TotalProcessed: len(a.results),
	}
	if len(a.scores) > 0 {
		s.AverageScore = floats.Sum(a.scores) / float64(len(a.scores))
	}
	if a.discovered > 0 {
		s.PercentageProcessed = float64(len(a.results)) / float64(a.discovered) * 100
	}
	if len(a.skipped) > 0 {
		s.Skipped = make(map[models.SkipReason]int, len(a.skipped))
		for reason, n := range a.skipped {
			s.Skipped[reason] = n
		}
	}
	return s
}
