package mcpserver

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mbd888/scamcheck/internal/flows"
	"github.com/mbd888/scamcheck/internal/risk"
	"github.com/mbd888/scamcheck/internal/validation"
)

// Handlers holds the handler functions for each MCP tool.
type Handlers struct {
	backend Backend
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(backend Backend) *Handlers {
	return &Handlers{backend: backend}
}

// HandleListCategories lists the menu.
func (h *Handlers) HandleListCategories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := h.backend.Categories(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list categories: %v", err)), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("No categories are available."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d categories:\n\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(&sb, "- %s: %s (%d questions)\n", e.Category, e.Title, e.QuestionCount)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// HandleGetFlow describes one questionnaire.
func (h *Handlers) HandleGetFlow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := req.GetString("category", "")
	if category == "" {
		return mcp.NewToolResultError("category is required"), nil
	}
	if !validation.IsValidSlug(category) {
		return mcp.NewToolResultError("category must be a lowercase identifier such as 'crypto-payment'"), nil
	}

	f, err := h.backend.Flow(ctx, category)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load flow %s: %v", category, err)), nil
	}
	return mcp.NewToolResultText(formatFlow(f)), nil
}

// HandleAssess classifies an answer sequence.
func (h *Handlers) HandleAssess(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := req.GetString("category", "")
	if category == "" {
		return mcp.NewToolResultError("category is required"), nil
	}
	answers := req.GetStringSlice("answers", nil)
	if len(answers) == 0 {
		return mcp.NewToolResultError("answers must list at least one option value"), nil
	}
	if len(answers) > validation.MaxAnswers {
		return mcp.NewToolResultError(fmt.Sprintf("at most %d answers are accepted", validation.MaxAnswers)), nil
	}
	for i := range answers {
		answers[i] = strings.TrimSpace(answers[i])
	}

	report, err := h.backend.Assess(ctx, category, answers)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Assessment failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatReport(report)), nil
}

// --- Formatters ---

func formatFlow(f *flows.Flow) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s), %d questions\n", f.Title, f.Category, f.Len())
	for i, q := range f.Questions {
		fmt.Fprintf(&sb, "\n%d. %s\n", i+1, q.Text)
		if q.Kind == flows.KindRouting {
			sb.WriteString("   (routes to another category)\n")
		}
		for _, o := range q.Options {
			fmt.Fprintf(&sb, "   - %s: %s\n", o.Value, o.Label)
		}
		if len(q.NextByAnswer) > 0 {
			values := make([]string, 0, len(q.NextByAnswer))
			for v := range q.NextByAnswer {
				values = append(values, v)
			}
			sort.Strings(values)
			for _, v := range values {
				fmt.Fprintf(&sb, "   answering %s skips to question %d\n", v, q.NextByAnswer[v]+1)
			}
		}
	}
	return sb.String()
}

func formatReport(r *risk.Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Category: %s\n", r.Category)
	fmt.Fprintf(&sb, "Risk level: %s\n", strings.ToUpper(string(r.RiskLevel)))
	fmt.Fprintf(&sb, "Summary: %s\n", r.Summary)
	fmt.Fprintf(&sb, "Advice: %s\n", r.Advice)

	writeList(&sb, "Red flags", r.RedFlags)
	writeList(&sb, "Missed best practices", r.MissedBestPractices)
	writeList(&sb, "Best practices followed", r.BestPractices)
	writeList(&sb, "Possible scam patterns", r.PatternSuggestions)
	if r.UnknownResponses > 0 {
		fmt.Fprintf(&sb, "\nUnrecognized answers: %d\n", r.UnknownResponses)
	}
	return sb.String()
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(sb, "- %s\n", item)
	}
}
