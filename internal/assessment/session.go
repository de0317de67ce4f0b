// Package assessment drives a user through a Scam Checker flow.
//
// A Session is the state machine for one check: NotStarted, then InCategory
// at some question index, then Complete. It is owned by a single caller and
// is not safe for concurrent use; Service adds server-side ownership and
// locking on top.
package assessment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mbd888/scamcheck/internal/flows"
	"github.com/mbd888/scamcheck/internal/logging"
	"github.com/mbd888/scamcheck/internal/redirect"
	"github.com/mbd888/scamcheck/internal/risk"
)

// Errors
var (
	ErrUnavailableCategory = errors.New("assessment: category unavailable")
	ErrNotInCategory       = errors.New("assessment: no question awaiting an answer")
	ErrUnknownOption       = errors.New("assessment: answer is not an option of the current question")
)

// State is the position of a session in its lifecycle.
type State string

const (
	StateNotStarted State = "not_started"
	StateInCategory State = "in_category"
	StateComplete   State = "complete"
)

// Policy decides what happens to an answer that matches no option.
type Policy string

const (
	// PolicyLenient records the answer as an unknown response and moves on.
	PolicyLenient Policy = "lenient"
	// PolicyStrict rejects the answer with ErrUnknownOption.
	PolicyStrict Policy = "strict"
)

// ParsePolicy maps a config value to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyLenient, PolicyStrict:
		return Policy(s), nil
	case "":
		return PolicyLenient, nil
	}
	return "", fmt.Errorf("unknown answer policy %q", s)
}

// Answer is one recorded response with the question it answered.
type Answer struct {
	QuestionID string `json:"questionId"`
	Question   string `json:"question"`
	Value      string `json:"value"`
	Label      string `json:"label"`
}

// snapshot is the state before a submitAnswer, for undo.
type snapshot struct {
	flow           *flows.Flow
	index          int
	answers        []string
	redirectedFrom string
}

// Session is one in-progress check.
type Session struct {
	source     flows.Source
	classifier *risk.Classifier
	policy     Policy
	logger     *slog.Logger

	state          State
	flow           *flows.Flow
	index          int
	answers        []string
	history        []snapshot
	redirectedFrom string
	report         *risk.Report
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithPolicy sets the unknown-answer policy.
func WithPolicy(p Policy) SessionOption {
	return func(s *Session) { s.policy = p }
}

// WithLogger sets the logger for redirect warnings.
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// NewSession creates a session in the NotStarted state.
func NewSession(source flows.Source, classifier *risk.Classifier, opts ...SessionOption) *Session {
	s := &Session{
		source:     source,
		classifier: classifier,
		policy:     PolicyLenient,
		logger:     logging.Discard(),
		state:      StateNotStarted,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SelectCategory starts the flow for category and returns its first question.
// On failure the session is left untouched.
func (s *Session) SelectCategory(ctx context.Context, category string) (*flows.Question, error) {
	f, err := s.load(ctx, category)
	if err != nil {
		return nil, err
	}
	s.Reset()
	s.flow = f
	s.state = StateInCategory
	return s.CurrentQuestion(), nil
}

func (s *Session) load(ctx context.Context, category string) (*flows.Flow, error) {
	f, err := s.source.GetFlow(ctx, category)
	if err != nil {
		if !errors.Is(err, flows.ErrFlowNotFound) {
			s.logger.Warn("failed to load flow", "category", category, "error", err)
		}
		return nil, fmt.Errorf("%w: %s", ErrUnavailableCategory, category)
	}
	if f.Len() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnavailableCategory, category)
	}
	return f, nil
}

// SubmitAnswer records value for the current question and advances. It
// returns the next question, or nil once the flow is complete.
func (s *Session) SubmitAnswer(ctx context.Context, value string) (*flows.Question, error) {
	if s.state != StateInCategory {
		return nil, ErrNotInCategory
	}
	q := s.flow.Question(s.index)
	if q == nil {
		return nil, ErrNotInCategory
	}
	if q.Option(value) == nil && s.policy == PolicyStrict {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOption, value)
	}

	prev := snapshot{
		flow:           s.flow,
		index:          s.index,
		answers:        append([]string(nil), s.answers...),
		redirectedFrom: s.redirectedFrom,
	}

	if q.Kind == flows.KindRouting && s.flow.Category == redirect.SourceCategory {
		if target := redirect.Resolve(value); !target.Stay {
			f, err := s.load(ctx, target.Category)
			if err == nil {
				s.history = append(s.history, prev)
				s.redirectedFrom = s.flow.Category
				s.flow = f
				s.index = 0
				s.answers = nil
				return s.CurrentQuestion(), nil
			}
			s.logger.Warn("redirect target unavailable, staying in category",
				"category", s.flow.Category, "target", target.Category, "error", err)
		}
	}

	s.history = append(s.history, prev)
	s.answers = append(s.answers, value)
	next := q.Next(s.index, value)
	if next < 0 || next >= s.flow.Len() {
		s.index = s.flow.Len()
		s.state = StateComplete
		s.report = s.classifier.Classify(s.answers, s.flow)
		return nil, nil
	}
	s.index = next
	return s.CurrentQuestion(), nil
}

// GoBack undoes the most recent SubmitAnswer, restoring the question that
// was current before it. It reports false, and does nothing, when there is
// nothing to undo.
func (s *Session) GoBack() bool {
	if len(s.history) == 0 {
		return false
	}
	prev := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]

	s.flow = prev.flow
	s.index = prev.index
	s.answers = prev.answers
	s.redirectedFrom = prev.redirectedFrom
	s.state = StateInCategory
	s.report = nil
	return true
}

// CanGoBack reports whether GoBack has anything to undo.
func (s *Session) CanGoBack() bool { return len(s.history) > 0 }

// Reset returns the session to NotStarted.
func (s *Session) Reset() {
	s.state = StateNotStarted
	s.flow = nil
	s.index = 0
	s.answers = nil
	s.history = nil
	s.redirectedFrom = ""
	s.report = nil
}

// State returns the lifecycle state.
func (s *Session) State() State { return s.state }

// IsComplete reports whether the flow has been fully answered.
func (s *Session) IsComplete() bool { return s.state == StateComplete }

// Category returns the active category, or "" before one is selected.
func (s *Session) Category() string {
	if s.flow == nil {
		return ""
	}
	return s.flow.Category
}

// Flow returns the active flow definition.
func (s *Session) Flow() *flows.Flow { return s.flow }

// Index returns the current question index; it equals the flow length once complete.
func (s *Session) Index() int { return s.index }

// RedirectedFrom names the category the session was routed out of, if any.
func (s *Session) RedirectedFrom() string { return s.redirectedFrom }

// CurrentQuestion returns the question awaiting an answer, or nil.
func (s *Session) CurrentQuestion() *flows.Question {
	if s.state != StateInCategory {
		return nil
	}
	return s.flow.Question(s.index)
}

// Answers returns a copy of the recorded answer values in order.
func (s *Session) Answers() []string {
	return append([]string(nil), s.answers...)
}

// Transcript pairs each recorded answer with the question it answered.
func (s *Session) Transcript() []Answer {
	out := make([]Answer, 0, len(s.answers))
	index := 0
	for _, value := range s.answers {
		q := s.flow.Question(index)
		if q == nil {
			break
		}
		label := risk.UnknownResponse
		if opt := q.Option(value); opt != nil {
			label = opt.Label
		}
		out = append(out, Answer{QuestionID: q.ID, Question: q.Text, Value: value, Label: label})
		index = q.Next(index, value)
	}
	return out
}

// Report returns the classification once complete, or nil.
func (s *Session) Report() *risk.Report { return s.report }
