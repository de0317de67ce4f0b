package mcpserver

import (
	"context"

	"github.com/mbd888/scamcheck/internal/assessment"
	"github.com/mbd888/scamcheck/internal/flows"
	"github.com/mbd888/scamcheck/internal/risk"
)

// Backend answers the questions the MCP tools ask. It is either the engine
// itself (Local) or a running scamcheck server (Client).
type Backend interface {
	Categories(ctx context.Context) ([]flows.CategoryEntry, error)
	Flow(ctx context.Context, category string) (*flows.Flow, error)
	Assess(ctx context.Context, category string, answers []string) (*risk.Report, error)
}

// Local runs checks in-process against a flow source.
type Local struct {
	source  flows.Source
	service *assessment.Service
}

var _ Backend = (*Local)(nil)

// NewLocal creates an in-process backend. Results are not recorded.
func NewLocal(source flows.Source, service *assessment.Service) *Local {
	return &Local{source: source, service: service}
}

func (l *Local) Categories(ctx context.Context) ([]flows.CategoryEntry, error) {
	return flows.Menu(ctx, l.source), nil
}

func (l *Local) Flow(ctx context.Context, category string) (*flows.Flow, error) {
	return l.source.GetFlow(ctx, category)
}

func (l *Local) Assess(ctx context.Context, category string, answers []string) (*risk.Report, error) {
	return l.service.Assess(ctx, category, answers)
}
