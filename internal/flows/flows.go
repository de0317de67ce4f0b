// Package flows holds the branching questionnaires behind the Scam Checker.
//
// A Flow is the ordered question list for one scam category. Each question
// offers a fixed set of options; every option carries static risk metadata
// (red flag, best practice, or neither) plus the description the classifier
// reports back to the user. Conditional branching is a sparse per-answer jump
// table on the question.
package flows

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Errors
var (
	ErrFlowNotFound = errors.New("flows: not found")
	ErrInvalidFlow  = errors.New("flows: invalid definition")
	ErrReadOnly     = errors.New("flows: store is read-only")
)

// Kind identifies how a question is answered.
type Kind string

const (
	// KindSingleSelect is a single choice from a fixed option set.
	KindSingleSelect Kind = "single_select"
	// KindRouting is a single choice consumed by the category router and never scored.
	KindRouting Kind = "routing"
)

// Option is one selectable answer.
type Option struct {
	Label          string   `json:"label" yaml:"label"`
	Value          string   `json:"value" yaml:"value"`
	RiskWeight     int      `json:"riskWeight" yaml:"riskWeight"`
	IsRedFlag      bool     `json:"isRedFlag" yaml:"isRedFlag"`
	IsBestPractice bool     `json:"isBestPractice" yaml:"isBestPractice"`
	Description    string   `json:"description,omitempty" yaml:"description,omitempty"`
	Suggests       []string `json:"suggests,omitempty" yaml:"suggests,omitempty"`
}

// Question is a single prompt at a fixed position in its flow.
type Question struct {
	ID           string         `json:"id" yaml:"id"`
	Text         string         `json:"text" yaml:"text"`
	Kind         Kind           `json:"kind" yaml:"kind"`
	Options      []Option       `json:"options" yaml:"options"`
	NextByAnswer map[string]int `json:"nextByAnswer,omitempty" yaml:"nextByAnswer,omitempty"`
}

// Reassurance replaces the report summary when the answers match exactly.
// It never changes the computed risk level or flag lists.
type Reassurance struct {
	Answers []string `json:"answers" yaml:"answers"`
	Summary string   `json:"summary" yaml:"summary"`
}

// Flow is the questionnaire for one category.
type Flow struct {
	Category     string        `json:"category" yaml:"category"`
	Title        string        `json:"title" yaml:"title"`
	Questions    []Question    `json:"questions" yaml:"questions"`
	Reassurances []Reassurance `json:"reassurances,omitempty" yaml:"reassurances,omitempty"`
	Version      int           `json:"version" yaml:"version"`
	UpdatedAt    time.Time     `json:"updatedAt" yaml:"-"`
}

// Source supplies flow definitions to the engine.
type Source interface {
	GetFlow(ctx context.Context, category string) (*Flow, error)
}

// Store is a Source the editor can write to.
type Store interface {
	Source
	ListFlows(ctx context.Context) ([]*Flow, error)
	SaveFlow(ctx context.Context, flow *Flow) error
	DeleteFlow(ctx context.Context, category string) error
}

// Option returns the option with the given value, or nil.
func (q *Question) Option(value string) *Option {
	for i := range q.Options {
		if q.Options[i].Value == value {
			return &q.Options[i]
		}
	}
	return nil
}

// Next returns the index of the question that follows answering value at index.
// A jump table entry wins; otherwise progression is linear.
func (q *Question) Next(index int, value string) int {
	if q.NextByAnswer != nil {
		if next, ok := q.NextByAnswer[value]; ok {
			return next
		}
	}
	return index + 1
}

// Len returns the number of questions.
func (f *Flow) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Questions)
}

// Question returns the question at index, or nil when out of range.
func (f *Flow) Question(index int) *Question {
	if f == nil || index < 0 || index >= len(f.Questions) {
		return nil
	}
	return &f.Questions[index]
}

// Clone returns a deep copy.
func (f *Flow) Clone() *Flow {
	if f == nil {
		return nil
	}
	cp := *f
	cp.Questions = make([]Question, len(f.Questions))
	for i, q := range f.Questions {
		qc := q
		qc.Options = make([]Option, len(q.Options))
		for j, o := range q.Options {
			oc := o
			if o.Suggests != nil {
				oc.Suggests = append([]string(nil), o.Suggests...)
			}
			qc.Options[j] = oc
		}
		if q.NextByAnswer != nil {
			qc.NextByAnswer = make(map[string]int, len(q.NextByAnswer))
			for k, v := range q.NextByAnswer {
				qc.NextByAnswer[k] = v
			}
		}
		cp.Questions[i] = qc
	}
	if f.Reassurances != nil {
		cp.Reassurances = make([]Reassurance, len(f.Reassurances))
		for i, r := range f.Reassurances {
			cp.Reassurances[i] = Reassurance{
				Answers: append([]string(nil), r.Answers...),
				Summary: r.Summary,
			}
		}
	}
	return &cp
}

// Validate checks the invariants an editor must guarantee before publishing.
// The engine itself never calls this.
func Validate(f *Flow) error {
	if f == nil {
		return fmt.Errorf("%w: flow is nil", ErrInvalidFlow)
	}
	if f.Category == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidFlow)
	}
	if len(f.Questions) == 0 {
		return fmt.Errorf("%w: %s has no questions", ErrInvalidFlow, f.Category)
	}

	ids := make(map[string]bool, len(f.Questions))
	for i, q := range f.Questions {
		if q.ID == "" {
			return fmt.Errorf("%w: question[%d]: id is required", ErrInvalidFlow, i)
		}
		if ids[q.ID] {
			return fmt.Errorf("%w: question[%d]: duplicate id %q", ErrInvalidFlow, i, q.ID)
		}
		ids[q.ID] = true

		if q.Text == "" {
			return fmt.Errorf("%w: question[%d] %s: text is required", ErrInvalidFlow, i, q.ID)
		}
		switch q.Kind {
		case KindSingleSelect, KindRouting:
		default:
			return fmt.Errorf("%w: question[%d] %s: unknown kind %q", ErrInvalidFlow, i, q.ID, q.Kind)
		}
		if len(q.Options) == 0 {
			return fmt.Errorf("%w: question[%d] %s: options must not be empty", ErrInvalidFlow, i, q.ID)
		}

		values := make(map[string]bool, len(q.Options))
		for j, o := range q.Options {
			if o.Value == "" {
				return fmt.Errorf("%w: question[%d] %s option[%d]: value is required", ErrInvalidFlow, i, q.ID, j)
			}
			if values[o.Value] {
				return fmt.Errorf("%w: question[%d] %s: duplicate option value %q", ErrInvalidFlow, i, q.ID, o.Value)
			}
			values[o.Value] = true
			if o.IsRedFlag && o.IsBestPractice {
				return fmt.Errorf("%w: question[%d] %s option %q: cannot be both red flag and best practice", ErrInvalidFlow, i, q.ID, o.Value)
			}
			if o.RiskWeight < 0 {
				return fmt.Errorf("%w: question[%d] %s option %q: riskWeight must not be negative", ErrInvalidFlow, i, q.ID, o.Value)
			}
		}

		for value, target := range q.NextByAnswer {
			if !values[value] {
				return fmt.Errorf("%w: question[%d] %s: jump for unknown option %q", ErrInvalidFlow, i, q.ID, value)
			}
			// Jumps only move forward; len(Questions) ends the flow.
			if target <= i || target > len(f.Questions) {
				return fmt.Errorf("%w: question[%d] %s: jump target %d out of range", ErrInvalidFlow, i, q.ID, target)
			}
		}
	}

	for i, r := range f.Reassurances {
		if len(r.Answers) == 0 || r.Summary == "" {
			return fmt.Errorf("%w: reassurance[%d]: answers and summary are required", ErrInvalidFlow, i)
		}
	}
	return nil
}
