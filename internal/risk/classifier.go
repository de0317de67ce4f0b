package risk

import (
	"log/slog"
	"slices"

	"github.com/mbd888/scamcheck/internal/flows"
	"github.com/mbd888/scamcheck/internal/logging"
)

// Classifier turns an answer sequence into a Report.
type Classifier struct {
	logger *slog.Logger
}

// NewClassifier creates a classifier. A nil logger discards warnings.
func NewClassifier(logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Classifier{logger: logger}
}

// Classify scores answers against flow. Answers are paired with questions by
// replaying the flow's jump tables, so a branching flow scores exactly the
// questions that were shown. Routing questions are never scored. Answers past
// the end of the flow have no question to match and are skipped with a
// warning. The result depends only on the arguments.
func (c *Classifier) Classify(answers []string, flow *flows.Flow) *Report {
	r := &Report{
		RedFlags:            []string{},
		MissedBestPractices: []string{},
		BestPractices:       []string{},
	}
	if flow != nil {
		r.Category = flow.Category
	}

	index := 0
	for i, answer := range answers {
		q := flow.Question(index)
		if q == nil {
			c.logger.Warn("answer has no matching question, skipping",
				"category", r.Category,
				"answer_index", i,
				"question_index", index,
			)
			continue
		}
		next := q.Next(index, answer)

		if q.Kind == flows.KindRouting {
			index = next
			continue
		}

		opt := q.Option(answer)
		switch {
		case opt == nil:
			r.UnknownResponses++
		case opt.IsRedFlag:
			r.RedFlags = append(r.RedFlags, describe(q, opt))
		case opt.IsBestPractice:
			r.BestPractices = append(r.BestPractices, describe(q, opt))
		default:
			r.MissedBestPractices = append(r.MissedBestPractices, describe(q, opt))
		}
		if opt != nil {
			for _, s := range opt.Suggests {
				if s != r.Category && !slices.Contains(r.PatternSuggestions, s) {
					r.PatternSuggestions = append(r.PatternSuggestions, s)
				}
			}
		}
		index = next
	}

	switch {
	case len(r.RedFlags) > 0:
		r.RiskLevel, r.Summary, r.Advice = HighRisk, SummaryHigh, AdviceHigh
	case len(r.MissedBestPractices) > 0:
		r.RiskLevel, r.Summary, r.Advice = NeutralRisk, SummaryNeutral, AdviceNeutral
	default:
		r.RiskLevel, r.Summary, r.Advice = LowRisk, SummaryLow, AdviceLow
	}

	// Reassurances only swap the summary text.
	if flow != nil {
		for _, ra := range flow.Reassurances {
			if slices.Equal(ra.Answers, answers) {
				r.Summary = ra.Summary
				break
			}
		}
	}

	return r
}

func describe(q *flows.Question, opt *flows.Option) string {
	if opt.Description != "" {
		return opt.Description
	}
	return q.Text + " " + opt.Label
}
