// Package timing accumulates per-stage durations across concurrent workers.
package timing

import (
	"context"
	"sort"
	"sync"
	"time"
)

type timingKey struct{}

type timingInfo struct {
	Operation string
	StartTime time.Time
}

// Stage is the aggregate for one named operation.
type Stage struct {
	Operation string
	Count     int
	Total     time.Duration
	Max       time.Duration
}

func (s Stage) Average() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// Tracker is safe for concurrent use. A nil *Tracker records nothing.
type Tracker struct {
	mu     sync.Mutex
	stages map[string]*Stage
	now    func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		stages: make(map[string]*Stage),
		now:    time.Now,
	}
}

// StartTiming returns a child of ctx carrying the operation start; pass it to EndTiming.
func (tt *Tracker) StartTiming(ctx context.Context, operation string) context.Context {
	if tt == nil {
		return ctx
	}
	return context.WithValue(ctx, timingKey{}, timingInfo{
		Operation: operation,
		StartTime: tt.now(),
	})
}

func (tt *Tracker) EndTiming(ctx context.Context) {
	if tt == nil {
		return
	}
	info, ok := ctx.Value(timingKey{}).(timingInfo)
	if !ok {
		return
	}
	tt.Record(info.Operation, tt.now().Sub(info.StartTime))
}

func (tt *Tracker) Record(operation string, d time.Duration) {
	if tt == nil {
		return
	}
	tt.mu.Lock()
	defer tt.mu.Unlock()

	s, ok := tt.stages[operation]
	if !ok {
		s = &Stage{Operation: operation}
		tt.stages[operation] = s
	}
	s.Count++
	s.Total += d
	if d > s.Max {
		s.Max = d
	}
}

// Stages returns a snapshot sorted by operation name.
func (tt *Tracker) Stages() []Stage {
	if tt == nil {
		return nil
	}
	tt.mu.Lock()
	defer tt.mu.Unlock()

	out := make([]Stage, 0, len(tt.stages))
	for _, s := range tt.stages {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Operation < out[j].Operation })
	return out
}

// Fields renders average stage times in milliseconds for structured logging.
func (tt *Tracker) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	for _, s := range tt.Stages() {
		fields[s.Operation+"_avg_ms"] = float64(s.Average().Microseconds()) / 1000
	}
	return fields
}
