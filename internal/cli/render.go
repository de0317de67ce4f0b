package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/mbd888/scamcheck/internal/flows"
	"github.com/mbd888/scamcheck/internal/risk"
)

func levelColor(l risk.Level) *color.Color {
	switch l {
	case risk.HighRisk:
		return color.New(color.FgRed, color.Bold)
	case risk.NeutralRisk:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgGreen, color.Bold)
	}
}

func printMenu(w io.Writer, entries []flows.CategoryEntry) {
	bold := color.New(color.Bold)
	yellow := color.New(color.FgYellow)

	bold.Fprintln(w, "\nWhat is this about?")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for i, e := range entries {
		fmt.Fprintf(w, "  %s %s\n", yellow.Sprintf("[%d]", i+1), e.Title)
	}
	fmt.Fprintln(w, strings.Repeat("-", 60))
}

func printQuestion(w io.Writer, q *flows.Question, index, total int) {
	bold := color.New(color.Bold)
	yellow := color.New(color.FgYellow)

	bold.Fprintf(w, "\nQuestion %d of %d\n", index+1, total)
	fmt.Fprintln(w, q.Text)
	for i, o := range q.Options {
		fmt.Fprintf(w, "  %s %s\n", yellow.Sprintf("[%d]", i+1), o.Label)
	}
}

func printReport(w io.Writer, r *risk.Report) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 60))
	levelColor(r.RiskLevel).Fprintf(w, "%s RISK\n", strings.ToUpper(string(r.RiskLevel)))
	fmt.Fprintln(w, r.Summary)
	fmt.Fprintln(w, r.Advice)
	fmt.Fprintln(w, strings.Repeat("=", 60))

	section := func(title string, c *color.Color, marker string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(w, "\n%s\n", title)
		for _, item := range items {
			fmt.Fprintf(w, "  %s %s\n", c.Sprint(marker), item)
		}
	}
	section("Red flags:", red, "✗", r.RedFlags)
	section("Missed best practices:", yellow, "!", r.MissedBestPractices)
	section("Best practices followed:", green, "✓", r.BestPractices)
	section("This resembles:", yellow, "•", r.PatternSuggestions)
	if r.UnknownResponses > 0 {
		fmt.Fprintf(w, "\n%d answer(s) were not recognized.\n", r.UnknownResponses)
	}
}
