package assessment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbd888/scamcheck/internal/circuitbreaker"
	"github.com/mbd888/scamcheck/internal/risk"
)

type failingRecorder struct {
	calls int
	err   error
}

func (f *failingRecorder) Record(ctx context.Context, outcome *risk.Outcome) error {
	f.calls++
	return f.err
}

func TestGuardOutcomesShedsAfterFailures(t *testing.T) {
	inner := &failingRecorder{err: errors.New("connection refused")}
	rec := GuardOutcomes(inner, circuitbreaker.New("outcomes", 2, time.Hour))
	ctx := context.Background()
	outcome := &risk.Outcome{ID: "out_1", Category: "marketplace", RiskLevel: risk.LowRisk}

	require.ErrorIs(t, rec.Record(ctx, outcome), inner.err)
	require.ErrorIs(t, rec.Record(ctx, outcome), inner.err)
	require.ErrorIs(t, rec.Record(ctx, outcome), circuitbreaker.ErrOpen)
	assert.Equal(t, 2, inner.calls)
}

func TestGuardOutcomesPassesThrough(t *testing.T) {
	store := risk.NewMemoryStore()
	rec := GuardOutcomes(store, circuitbreaker.New("outcomes", 1, time.Hour))
	ctx := context.Background()

	require.NoError(t, rec.Record(ctx, &risk.Outcome{ID: "out_1", Category: "marketplace", RiskLevel: risk.HighRisk, CompletedAt: time.Now()}))
	got, err := store.ListRecent(ctx, "", 10, nil)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
