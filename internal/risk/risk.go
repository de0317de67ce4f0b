// Package risk classifies a completed Scam Checker questionnaire.
//
// Each answer is matched to the option it selected. An option is a red flag,
// a best practice, or neither (a missed best practice). Any red flag makes the
// verdict high risk; otherwise a missed best practice makes it neutral;
// otherwise it is low risk. Classification is a pure function of the answers
// and the flow definition.
package risk

import (
	"context"
	"errors"
	"time"

	"github.com/mbd888/scamcheck/internal/pagination"
)

// Level is the overall verdict of a check.
type Level string

const (
	HighRisk    Level = "high"
	NeutralRisk Level = "neutral"
	LowRisk     Level = "low"
)

// Valid reports whether l is one of the three verdicts.
func (l Level) Valid() bool {
	switch l {
	case HighRisk, NeutralRisk, LowRisk:
		return true
	}
	return false
}

// Verdict texts shown with each level.
const (
	SummaryHigh    = "This situation shows signs of potential fraud."
	SummaryNeutral = "We found no red flags, but some best practices were missed."
	SummaryLow     = "This situation appears safe."

	AdviceHigh    = "Stop immediately. Do not send any money or share any details, and report this to your bank and the authorities."
	AdviceNeutral = "Proceed with caution and complete the missing checks before you pay."
	AdviceLow     = "You can proceed, but stay vigilant and stop if anything changes."
)

// UnknownResponse is the label recorded for an answer that matches no option.
const UnknownResponse = "Unknown Response"

// Report is the immutable result of classifying one check.
type Report struct {
	Category            string   `json:"category"`
	RiskLevel           Level    `json:"riskLevel"`
	Summary             string   `json:"summary"`
	Advice              string   `json:"advice"`
	RedFlags            []string `json:"redFlags"`
	MissedBestPractices []string `json:"missedBestPractices"`
	BestPractices       []string `json:"bestPractices"`
	PatternSuggestions  []string `json:"patternSuggestions,omitempty"`
	UnknownResponses    int      `json:"unknownResponses,omitempty"`
}

// Outcome is the anonymous audit record of a completed check. It never
// carries the answers themselves.
type Outcome struct {
	ID                  string    `json:"id"`
	Category            string    `json:"category"`
	RiskLevel           Level     `json:"riskLevel"`
	RedFlags            int       `json:"redFlags"`
	MissedBestPractices int       `json:"missedBestPractices"`
	BestPractices       int       `json:"bestPractices"`
	UnknownResponses    int       `json:"unknownResponses"`
	RedirectedFrom      string    `json:"redirectedFrom,omitempty"`
	Channel             string    `json:"channel"`
	CompletedAt         time.Time `json:"completedAt"`
}

// Channels an outcome can arrive through.
const (
	ChannelSession   = "session"
	ChannelStateless = "stateless"
)

// NewOutcome summarizes a report for the audit trail.
func NewOutcome(id string, r *Report, channel, redirectedFrom string, at time.Time) *Outcome {
	return &Outcome{
		ID:                  id,
		Category:            r.Category,
		RiskLevel:           r.RiskLevel,
		RedFlags:            len(r.RedFlags),
		MissedBestPractices: len(r.MissedBestPractices),
		BestPractices:       len(r.BestPractices),
		UnknownResponses:    r.UnknownResponses,
		RedirectedFrom:      redirectedFrom,
		Channel:             channel,
		CompletedAt:         at,
	}
}

// Stats aggregates outcomes by verdict and category.
type Stats struct {
	Total      int                      `json:"total"`
	ByLevel    map[Level]int            `json:"byLevel"`
	ByCategory map[string]map[Level]int `json:"byCategory"`
}

var ErrInvalidOutcome = errors.New("risk: invalid outcome")

// Store persists outcomes.
type Store interface {
	Record(ctx context.Context, outcome *Outcome) error
	// ListRecent returns outcomes newest first, strictly after the cursor.
	ListRecent(ctx context.Context, category string, limit int, after *pagination.Cursor) ([]*Outcome, error)
	Stats(ctx context.Context, since time.Time) (*Stats, error)
}

func newStats() *Stats {
	return &Stats{
		ByLevel:    map[Level]int{HighRisk: 0, NeutralRisk: 0, LowRisk: 0},
		ByCategory: make(map[string]map[Level]int),
	}
}

func (s *Stats) add(category string, level Level, n int) {
	s.Total += n
	s.ByLevel[level] += n
	byLevel, ok := s.ByCategory[category]
	if !ok {
		byLevel = make(map[Level]int)
		s.ByCategory[category] = byLevel
	}
	byLevel[level] += n
}
