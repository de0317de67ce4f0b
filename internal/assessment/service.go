package assessment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mbd888/scamcheck/internal/flows"
	"github.com/mbd888/scamcheck/internal/idgen"
	"github.com/mbd888/scamcheck/internal/logging"
	"github.com/mbd888/scamcheck/internal/metrics"
	"github.com/mbd888/scamcheck/internal/risk"
	"github.com/mbd888/scamcheck/internal/syncutil"
	"github.com/mbd888/scamcheck/internal/traces"
	"github.com/mbd888/scamcheck/internal/validation"
)

var (
	ErrCheckNotFound  = errors.New("assessment: check not found")
	ErrIncomplete     = errors.New("assessment: answers do not complete the flow")
	ErrTooManyAnswers = errors.New("assessment: too many answers")
)

// DefaultSessionTTL is how long an untouched check is kept.
const DefaultSessionTTL = 30 * time.Minute

// OutcomeRecorder persists the anonymous result of a completed check.
type OutcomeRecorder interface {
	Record(ctx context.Context, outcome *risk.Outcome) error
}

// OutcomePublisher fans completed outcomes out to live subscribers.
type OutcomePublisher interface {
	PublishOutcome(outcome *risk.Outcome)
}

// View is the client-facing snapshot of a check.
type View struct {
	ID             string          `json:"id"`
	State          State           `json:"state"`
	Category       string          `json:"category,omitempty"`
	RedirectedFrom string          `json:"redirectedFrom,omitempty"`
	Index          int             `json:"index"`
	Total          int             `json:"total"`
	Question       *flows.Question `json:"question,omitempty"`
	Answers        []Answer        `json:"answers"`
	CanGoBack      bool            `json:"canGoBack"`
	Report         *risk.Report    `json:"report,omitempty"`
	ExpiresAt      time.Time       `json:"expiresAt"`
}

// Service owns server-side checks. Each check is driven under its own lock,
// so concurrent requests for one id are serialized while different ids
// proceed in parallel.
type Service struct {
	source     flows.Source
	classifier *risk.Classifier
	store      SessionStore
	locks      *syncutil.KeyedMutex
	outcomes   OutcomeRecorder
	publisher  OutcomePublisher
	policy     Policy
	ttl        time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a check service over the given flow source.
func NewService(source flows.Source, classifier *risk.Classifier, store SessionStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		source:     source,
		classifier: classifier,
		store:      store,
		locks:      syncutil.NewKeyedMutex(0),
		policy:     PolicyLenient,
		ttl:        DefaultSessionTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// WithOutcomes adds an outcome recorder.
func (s *Service) WithOutcomes(r OutcomeRecorder) *Service {
	s.outcomes = r
	return s
}

// WithPublisher adds a live outcome publisher.
func (s *Service) WithPublisher(p OutcomePublisher) *Service {
	s.publisher = p
	return s
}

// WithPolicy sets the unknown-answer policy for new checks.
func (s *Service) WithPolicy(p Policy) *Service {
	s.policy = p
	return s
}

// WithTTL sets the idle timeout.
func (s *Service) WithTTL(ttl time.Duration) *Service {
	if ttl > 0 {
		s.ttl = ttl
	}
	return s
}

// TTL returns the idle timeout.
func (s *Service) TTL() time.Duration { return s.ttl }

func (s *Service) newSession() *Session {
	return NewSession(s.source, s.classifier, WithPolicy(s.policy), WithLogger(s.logger))
}

// Start creates a check. An empty category leaves it NotStarted.
func (s *Service) Start(ctx context.Context, category string) (*View, error) {
	ctx, span := traces.StartSpan(ctx, "assessment.Start", traces.Category(category))
	defer span.End()

	sess := s.newSession()
	if category != "" {
		if _, err := sess.SelectCategory(ctx, category); err != nil {
			traces.Fail(span, err)
			return nil, err
		}
		metrics.ChecksStartedTotal.WithLabelValues(category).Inc()
	}

	now := s.now()
	check := &Check{
		ID:         idgen.Check(),
		Session:    sess,
		CreatedAt:  now,
		LastActive: now,
	}
	if err := s.store.Put(ctx, check); err != nil {
		return nil, fmt.Errorf("failed to store check: %w", err)
	}
	metrics.ActiveSessions.Inc()
	span.SetAttributes(traces.CheckID(check.ID))

	logging.L(ctx).Info("check started", "check_id", check.ID, "category", category)
	return s.view(check, now), nil
}

// Get returns the current view of a check.
func (s *Service) Get(ctx context.Context, id string) (*View, error) {
	return s.with(ctx, id, func(ctx context.Context, c *Check) error { return nil })
}

// SelectCategory starts (or restarts) a check on category.
func (s *Service) SelectCategory(ctx context.Context, id, category string) (*View, error) {
	ctx, span := traces.StartSpan(ctx, "assessment.SelectCategory", traces.CheckID(id), traces.Category(category))
	defer span.End()

	return s.with(ctx, id, func(ctx context.Context, c *Check) error {
		if _, err := c.Session.SelectCategory(ctx, category); err != nil {
			traces.Fail(span, err)
			return err
		}
		metrics.ChecksStartedTotal.WithLabelValues(category).Inc()
		return nil
	})
}

// Answer submits value for the current question of a check.
func (s *Service) Answer(ctx context.Context, id, value string) (*View, error) {
	ctx, span := traces.StartSpan(ctx, "assessment.Answer", traces.CheckID(id))
	defer span.End()

	return s.with(ctx, id, func(ctx context.Context, c *Check) error {
		sess := c.Session
		q := sess.CurrentQuestion()
		from := sess.Category()

		if _, err := sess.SubmitAnswer(ctx, value); err != nil {
			traces.Fail(span, err)
			return err
		}
		countAnswer(q, value)

		if to := sess.Category(); to != from {
			metrics.RedirectsTotal.WithLabelValues(to).Inc()
			logging.L(ctx).Info("check redirected", "check_id", c.ID, "from", from, "to", to)
		}
		if sess.IsComplete() {
			span.SetAttributes(traces.Category(sess.Category()), traces.RiskLevel(string(sess.Report().RiskLevel)))
			s.complete(ctx, sess.Report(), risk.ChannelSession, sess.RedirectedFrom())
		}
		return nil
	})
}

// Back undoes the last answer of a check. With nothing to undo the check is
// returned unchanged.
func (s *Service) Back(ctx context.Context, id string) (*View, error) {
	return s.with(ctx, id, func(ctx context.Context, c *Check) error {
		c.Session.GoBack()
		return nil
	})
}

// Reset returns a check to NotStarted.
func (s *Service) Reset(ctx context.Context, id string) (*View, error) {
	return s.with(ctx, id, func(ctx context.Context, c *Check) error {
		c.Session.Reset()
		return nil
	})
}

// Discard deletes a check.
func (s *Service) Discard(ctx context.Context, id string) error {
	if !idgen.Valid(idgen.CheckPrefix, id) {
		return ErrCheckNotFound
	}
	unlock, err := s.locks.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	metrics.ActiveSessions.Dec()
	return nil
}

// Assess classifies a complete answer sequence without keeping a check.
// The sequence is replayed through a Session, so jumps, the catch-all
// redirect and the answer policy apply exactly as they do interactively.
func (s *Service) Assess(ctx context.Context, category string, answers []string) (*risk.Report, error) {
	ctx, span := traces.StartSpan(ctx, "assessment.Assess", traces.Category(category), traces.AnswerCount(len(answers)))
	defer span.End()

	if len(answers) > validation.MaxAnswers {
		return nil, ErrTooManyAnswers
	}

	sess := s.newSession()
	if _, err := sess.SelectCategory(ctx, category); err != nil {
		traces.Fail(span, err)
		return nil, err
	}
	for i, a := range answers {
		if sess.IsComplete() {
			logging.L(ctx).Warn("ignoring answers past the end of the flow",
				"category", sess.Category(), "extra", len(answers)-i)
			break
		}
		if _, err := sess.SubmitAnswer(ctx, a); err != nil {
			traces.Fail(span, err)
			return nil, fmt.Errorf("answer %d: %w", i, err)
		}
	}
	if !sess.IsComplete() {
		return nil, fmt.Errorf("%w: %d answered, question %d of %s pending",
			ErrIncomplete, len(answers), sess.Index(), sess.Category())
	}

	r := sess.Report()
	span.SetAttributes(traces.RiskLevel(string(r.RiskLevel)))
	s.complete(ctx, r, risk.ChannelStateless, sess.RedirectedFrom())
	return r, nil
}

// ExpireIdle removes checks idle longer than the TTL and returns how many
// were removed.
func (s *Service) ExpireIdle(ctx context.Context, limit int) (int, error) {
	cutoff := s.now().Add(-s.ttl)
	ids, err := s.store.ListIdle(ctx, cutoff, limit)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, id := range ids {
		ok, err := s.discardIfIdle(ctx, id, cutoff)
		if err != nil {
			if !errors.Is(err, ErrCheckNotFound) {
				s.logger.Warn("failed to expire check", "check_id", id, "error", err)
			}
			continue
		}
		if ok {
			metrics.SessionsExpiredTotal.Inc()
			removed++
		}
	}
	return removed, nil
}

// discardIfIdle deletes check id only if it is still idle once locked. A
// check answered between the listing and the lock is kept.
func (s *Service) discardIfIdle(ctx context.Context, id string, cutoff time.Time) (bool, error) {
	unlock, err := s.locks.Lock(ctx, id)
	if err != nil {
		return false, err
	}
	defer unlock()

	c, err := s.store.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if !c.LastActive.Before(cutoff) {
		return false, nil
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return false, err
	}
	metrics.ActiveSessions.Dec()
	return true, nil
}

// with runs fn on check id under its lock and returns the resulting view.
func (s *Service) with(ctx context.Context, id string, fn func(context.Context, *Check) error) (*View, error) {
	if !idgen.Valid(idgen.CheckPrefix, id) {
		return nil, ErrCheckNotFound
	}
	unlock, err := s.locks.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(ctx, c); err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.store.Touch(ctx, id, now); err != nil {
		return nil, err
	}
	return s.view(c, now), nil
}

func (s *Service) complete(ctx context.Context, r *risk.Report, channel, redirectedFrom string) {
	metrics.ChecksCompletedTotal.WithLabelValues(r.Category, string(r.RiskLevel)).Inc()

	outcome := risk.NewOutcome(idgen.Outcome(), r, channel, redirectedFrom, s.now())
	if s.outcomes != nil {
		if err := s.outcomes.Record(ctx, outcome); err != nil {
			logging.L(ctx).Warn("failed to record outcome", "outcome_id", outcome.ID, "error", err)
		}
	}
	if s.publisher != nil {
		s.publisher.PublishOutcome(outcome)
	}
	logging.L(ctx).Info("check completed",
		"category", r.Category,
		"risk_level", r.RiskLevel,
		"channel", channel,
	)
}

func (s *Service) view(c *Check, touched time.Time) *View {
	sess := c.Session
	v := &View{
		ID:             c.ID,
		State:          sess.State(),
		Category:       sess.Category(),
		RedirectedFrom: sess.RedirectedFrom(),
		Index:          sess.Index(),
		Total:          sess.Flow().Len(),
		Question:       sess.CurrentQuestion(),
		Answers:        sess.Transcript(),
		CanGoBack:      sess.CanGoBack(),
		Report:         sess.Report(),
		ExpiresAt:      touched.Add(s.ttl),
	}
	return v
}

func countAnswer(q *flows.Question, value string) {
	result := "known"
	if q != nil && q.Option(value) == nil {
		result = "unknown"
	}
	metrics.AnswersTotal.WithLabelValues(result).Inc()
}
