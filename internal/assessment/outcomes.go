package assessment

import (
	"context"

	"github.com/mbd888/scamcheck/internal/circuitbreaker"
	"github.com/mbd888/scamcheck/internal/risk"
)

// guardedRecorder stops writing outcomes while the recorder keeps failing.
type guardedRecorder struct {
	inner   OutcomeRecorder
	breaker *circuitbreaker.Breaker
}

// GuardOutcomes wraps r so that a failing recorder is skipped for the
// breaker's cooldown instead of being retried on every completed check.
// While open, Record returns circuitbreaker.ErrOpen.
func GuardOutcomes(r OutcomeRecorder, b *circuitbreaker.Breaker) OutcomeRecorder {
	return &guardedRecorder{inner: r, breaker: b}
}

func (g *guardedRecorder) Record(ctx context.Context, outcome *risk.Outcome) error {
	return g.breaker.Do(func() error {
		return g.inner.Record(ctx, outcome)
	})
}
