package assessment

import (
	"context"
	"sync"
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbd888/scamcheck/internal/flows"
	"github.com/mbd888/scamcheck/internal/metrics"
	"github.com/mbd888/scamcheck/internal/risk"
)

type recordingPublisher struct {
	mu       sync.Mutex
	outcomes []*risk.Outcome
}

func (p *recordingPublisher) PublishOutcome(o *risk.Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outcomes = append(p.outcomes, o)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.outcomes)
}

type testService struct {
	*Service
	outcomes  *risk.MemoryStore
	publisher *recordingPublisher
	clock     time.Time
}

func newTestService(t *testing.T) *testService {
	t.Helper()
	ts := &testService{
		outcomes:  risk.NewMemoryStore(),
		publisher: &recordingPublisher{},
		clock:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	ts.Service = NewService(flows.NewDefaultMemoryStore(), risk.NewClassifier(nil), NewMemoryStore(), nil).
		WithOutcomes(ts.outcomes).
		WithPublisher(ts.publisher).
		WithTTL(10 * time.Minute)
	ts.now = func() time.Time { return ts.clock }
	return ts
}

func TestService_StartAndAnswer(t *testing.T) {
	ts := newTestService(t)
	ctx := context.Background()

	view, err := ts.Start(ctx, flows.CategoryMarketplace)
	require.NoError(t, err)
	assert.Contains(t, view.ID, "chk_")
	assert.Equal(t, StateInCategory, view.State)
	assert.Equal(t, 4, view.Total)
	assert.Equal(t, "mp-outside-platform", view.Question.ID)
	assert.False(t, view.CanGoBack)
	assert.Equal(t, ts.clock.Add(10*time.Minute), view.ExpiresAt)

	for _, v := range []string{"no", "no", "no"} {
		view, err = ts.Answer(ctx, view.ID, v)
		require.NoError(t, err)
	}
	assert.True(t, view.CanGoBack)
	assert.Len(t, view.Answers, 3)

	before := promtestutil.ToFloat64(metrics.ChecksCompletedTotal.WithLabelValues(flows.CategoryMarketplace, string(risk.LowRisk)))
	view, err = ts.Answer(ctx, view.ID, "no")
	require.NoError(t, err)
	assert.Equal(t, StateComplete, view.State)
	assert.Nil(t, view.Question)
	require.NotNil(t, view.Report)
	assert.Equal(t, risk.LowRisk, view.Report.RiskLevel)
	assert.Equal(t, before+1, promtestutil.ToFloat64(metrics.ChecksCompletedTotal.WithLabelValues(flows.CategoryMarketplace, string(risk.LowRisk))))

	recent, err := ts.outcomes.ListRecent(ctx, "", 10, nil)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, risk.ChannelSession, recent[0].Channel)
	assert.Equal(t, 1, ts.publisher.count())
}

func TestService_StartWithoutCategory(t *testing.T) {
	ts := newTestService(t)
	ctx := context.Background()

	view, err := ts.Start(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, StateNotStarted, view.State)
	assert.Empty(t, view.Answers)

	_, err = ts.Answer(ctx, view.ID, "yes")
	assert.ErrorIs(t, err, ErrNotInCategory)

	view, err = ts.SelectCategory(ctx, view.ID, flows.CategoryGiftCard)
	require.NoError(t, err)
	assert.Equal(t, flows.CategoryGiftCard, view.Category)
}

func TestService_StartUnavailable(t *testing.T) {
	ts := newTestService(t)
	_, err := ts.Start(context.Background(), "lottery")
	assert.ErrorIs(t, err, ErrUnavailableCategory)

	n, err := ts.store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestService_Redirect(t *testing.T) {
	ts := newTestService(t)
	ctx := context.Background()

	view, err := ts.Start(ctx, flows.CategoryOther)
	require.NoError(t, err)

	view, err = ts.Answer(ctx, view.ID, "job-or-income")
	require.NoError(t, err)
	assert.Equal(t, flows.CategoryJobOffer, view.Category)
	assert.Equal(t, flows.CategoryOther, view.RedirectedFrom)
	assert.Equal(t, 0, view.Index)
	assert.Empty(t, view.Answers)
	assert.True(t, view.CanGoBack)

	for _, v := range []string{"unsolicited", "yes", "visa-admin", "yes", "no"} {
		view, err = ts.Answer(ctx, view.ID, v)
		require.NoError(t, err)
	}
	require.Equal(t, StateComplete, view.State)
	assert.Equal(t, risk.HighRisk, view.Report.RiskLevel)

	recent, err := ts.outcomes.ListRecent(ctx, flows.CategoryJobOffer, 10, nil)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, flows.CategoryOther, recent[0].RedirectedFrom)
}

func TestService_BackAndReset(t *testing.T) {
	ts := newTestService(t)
	ctx := context.Background()

	view, err := ts.Start(ctx, flows.CategoryInvestment)
	require.NoError(t, err)

	unchanged, err := ts.Back(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, unchanged.Index)
	assert.False(t, unchanged.CanGoBack)
	assert.Equal(t, view.Question, unchanged.Question)

	first := view.Question.Options[0].Value
	_, err = ts.Answer(ctx, view.ID, first)
	require.NoError(t, err)

	view, err = ts.Back(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, view.Index)
	assert.Empty(t, view.Answers)

	view, err = ts.Reset(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, StateNotStarted, view.State)
	assert.Empty(t, view.Category)
}

func TestService_Discard(t *testing.T) {
	ts := newTestService(t)
	ctx := context.Background()

	view, err := ts.Start(ctx, flows.CategoryMarketplace)
	require.NoError(t, err)

	require.NoError(t, ts.Discard(ctx, view.ID))
	_, err = ts.Get(ctx, view.ID)
	assert.ErrorIs(t, err, ErrCheckNotFound)
	assert.ErrorIs(t, ts.Discard(ctx, view.ID), ErrCheckNotFound)
}

func TestService_MalformedID(t *testing.T) {
	ts := newTestService(t)
	ctx := context.Background()

	for _, id := range []string{"", "chk_", "chk_short", "out_0123456789abcdef01234567", "../etc/passwd"} {
		_, err := ts.Get(ctx, id)
		assert.ErrorIs(t, err, ErrCheckNotFound, id)
		_, err = ts.Answer(ctx, id, "yes")
		assert.ErrorIs(t, err, ErrCheckNotFound, id)
		assert.ErrorIs(t, ts.Discard(ctx, id), ErrCheckNotFound, id)
	}
}

func TestService_ExpireIdle(t *testing.T) {
	ts := newTestService(t)
	ctx := context.Background()

	stale, err := ts.Start(ctx, flows.CategoryMarketplace)
	require.NoError(t, err)

	ts.clock = ts.clock.Add(8 * time.Minute)
	fresh, err := ts.Start(ctx, flows.CategoryMarketplace)
	require.NoError(t, err)

	ts.clock = ts.clock.Add(5 * time.Minute)
	n, err := ts.ExpireIdle(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = ts.Get(ctx, stale.ID)
	assert.ErrorIs(t, err, ErrCheckNotFound)
	_, err = ts.Get(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestService_ActivityExtendsExpiry(t *testing.T) {
	ts := newTestService(t)
	ctx := context.Background()

	view, err := ts.Start(ctx, flows.CategoryMarketplace)
	require.NoError(t, err)

	ts.clock = ts.clock.Add(9 * time.Minute)
	view, err = ts.Answer(ctx, view.ID, "no")
	require.NoError(t, err)
	assert.Equal(t, ts.clock.Add(10*time.Minute), view.ExpiresAt)

	ts.clock = ts.clock.Add(9 * time.Minute)
	n, err := ts.ExpireIdle(ctx, 100)
	require.NoError(t, err)
	assert.Zero(t, n)
}

// answeredAfterListStore runs afterList between ListIdle and the sweep's
// per-check lock, the window in which a user can still answer.
type answeredAfterListStore struct {
	*MemoryStore
	afterList func(ids []string)
}

func (s *answeredAfterListStore) ListIdle(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	ids, err := s.MemoryStore.ListIdle(ctx, cutoff, limit)
	if err == nil && s.afterList != nil {
		s.afterList(ids)
	}
	return ids, err
}

func TestService_ExpireIdleKeepsCheckAnsweredAfterListing(t *testing.T) {
	ts := newTestService(t)
	ctx := context.Background()
	store := &answeredAfterListStore{MemoryStore: NewMemoryStore()}
	ts.store = store

	view, err := ts.Start(ctx, flows.CategoryMarketplace)
	require.NoError(t, err)
	ts.clock = ts.clock.Add(time.Hour)

	store.afterList = func(ids []string) {
		require.Equal(t, []string{view.ID}, ids)
		_, err := ts.Answer(ctx, view.ID, "no")
		require.NoError(t, err)
	}

	n, err := ts.ExpireIdle(ctx, 100)
	require.NoError(t, err)
	assert.Zero(t, n)

	store.afterList = nil
	got, err := ts.Get(ctx, view.ID)
	require.NoError(t, err)
	require.Len(t, got.Answers, 1)
	assert.Equal(t, "no", got.Answers[0].Value)
}

func TestService_StrictPolicy(t *testing.T) {
	ts := newTestService(t)
	ts.WithPolicy(PolicyStrict)
	ctx := context.Background()

	view, err := ts.Start(ctx, flows.CategoryMarketplace)
	require.NoError(t, err)
	_, err = ts.Answer(ctx, view.ID, "maybe")
	assert.ErrorIs(t, err, ErrUnknownOption)

	view, err = ts.Get(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, view.Index)
}

func TestService_ConcurrentAnswers(t *testing.T) {
	ts := newTestService(t)
	ctx := context.Background()

	view, err := ts.Start(ctx, flows.CategoryOnlineRelationship)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = ts.Answer(ctx, view.ID, "yes")
		}()
	}
	wg.Wait()

	view, err = ts.Get(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, StateComplete, view.State)
	assert.Len(t, view.Answers, 4)
	assert.Equal(t, 1, ts.publisher.count())
}

func TestService_Assess(t *testing.T) {
	ts := newTestService(t)
	ctx := context.Background()

	r, err := ts.Assess(ctx, flows.CategoryCryptoPayment, []string{"friend-family", "no", "no", "yes", "no"})
	require.NoError(t, err)
	assert.Equal(t, risk.HighRisk, r.RiskLevel)

	recent, err := ts.outcomes.ListRecent(ctx, "", 10, nil)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, risk.ChannelStateless, recent[0].Channel)
}

func TestService_AssessRedirect(t *testing.T) {
	ts := newTestService(t)
	r, err := ts.Assess(context.Background(), flows.CategoryOther, []string{"purchase-or-item", "no", "no", "no", "no"})
	require.NoError(t, err)
	assert.Equal(t, flows.CategoryMarketplace, r.Category)
	assert.Equal(t, risk.LowRisk, r.RiskLevel)
}

func TestService_AssessErrors(t *testing.T) {
	ts := newTestService(t)
	ctx := context.Background()

	_, err := ts.Assess(ctx, flows.CategoryMarketplace, []string{"no"})
	assert.ErrorIs(t, err, ErrIncomplete)

	_, err = ts.Assess(ctx, "lottery", nil)
	assert.ErrorIs(t, err, ErrUnavailableCategory)

	_, err = ts.Assess(ctx, flows.CategoryMarketplace, make([]string, 65))
	assert.ErrorIs(t, err, ErrTooManyAnswers)

	ts.WithPolicy(PolicyStrict)
	_, err = ts.Assess(ctx, flows.CategoryMarketplace, []string{"no", "perhaps", "no", "no"})
	assert.ErrorIs(t, err, ErrUnknownOption)
}

func TestService_AssessIgnoresExtraAnswers(t *testing.T) {
	ts := newTestService(t)
	r, err := ts.Assess(context.Background(), flows.CategoryMarketplace, []string{"no", "no", "no", "no", "yes", "yes"})
	require.NoError(t, err)
	assert.Equal(t, risk.LowRisk, r.RiskLevel)
}

func TestTimer_Sweeps(t *testing.T) {
	ts := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	view, err := ts.Start(ctx, flows.CategoryMarketplace)
	require.NoError(t, err)
	ts.clock = ts.clock.Add(time.Hour)

	timer := NewTimer(ts.Service, ts.logger).WithInterval(5 * time.Millisecond)
	go timer.Start(ctx)

	assert.Eventually(t, func() bool {
		_, err := ts.store.Get(ctx, view.ID)
		return err != nil
	}, time.Second, 5*time.Millisecond)

	timer.Stop()
	assert.Eventually(t, func() bool { return !timer.Running() }, time.Second, 5*time.Millisecond)
}

func TestTimer_StopBeforeStartAndTwice(t *testing.T) {
	ts := newTestService(t)
	timer := NewTimer(ts.Service, ts.logger).WithInterval(time.Hour)

	timer.Stop()
	timer.Stop()

	done := make(chan struct{})
	go func() {
		timer.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after an earlier Stop")
	}
	assert.False(t, timer.Running())
}
