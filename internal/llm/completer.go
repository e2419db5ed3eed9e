// Package llm issues single-turn completions against a hosted model.
package llm

import (
	"context"
	"time"
)

// Completer turns one prompt into one completion. Implementations make
// exactly one request per call and never retry.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Timed wraps a Completer and records the latency of every call.
type Timed struct {
	Completer
	stats *Stats
}

func WithStats(c Completer, s *Stats) *Timed {
	return &Timed{Completer: c, stats: s}
}

func (t *Timed) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	out, err := t.Completer.Complete(ctx, prompt)
	t.stats.Record(time.Since(start).Milliseconds(), err != nil)
	return out, err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
