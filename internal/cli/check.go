package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mbd888/scamcheck/internal/assessment"
	"github.com/mbd888/scamcheck/internal/flows"
)

// errQuit ends the wizard without a report.
var errQuit = errors.New("check cancelled")

func newCheckCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check [category]",
		Short: "Answer the questionnaire interactively",
		Long: `Walks through the questionnaire one question at a time.

Answer with the option number or its value. At any question type
"b" to go back, "r" to start over or "q" to quit. Going back from the
first question returns to the category menu.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.engine()
			if err != nil {
				return err
			}
			category := ""
			if len(args) == 1 {
				category = args[0]
			}
			w := &wizard{
				engine: e,
				in:     bufio.NewReader(cmd.InOrStdin()),
				out:    cmd.OutOrStdout(),
			}
			err = w.run(cmd.Context(), category)
			if errors.Is(err, errQuit) {
				fmt.Fprintln(w.out, "Cancelled.")
				return nil
			}
			return err
		},
	}
}

// wizard is the interactive check loop.
type wizard struct {
	engine *engine
	in     *bufio.Reader
	out    io.Writer
}

func (w *wizard) run(ctx context.Context, category string) error {
	sess := w.engine.session()
	if category != "" {
		if _, err := sess.SelectCategory(ctx, category); err != nil {
			return err
		}
	}

	for !sess.IsComplete() {
		if sess.State() == assessment.StateNotStarted {
			if err := w.pickCategory(ctx, sess); err != nil {
				return err
			}
			continue
		}

		q := sess.CurrentQuestion()
		printQuestion(w.out, q, sess.Index(), sess.Flow().Len())
		input, err := w.prompt("Your answer (b=back, r=restart, q=quit): ")
		if err != nil {
			return err
		}

		switch input {
		case "q":
			return errQuit
		case "r":
			sess.Reset()
			continue
		case "b":
			// Backing out of the first question returns to the menu.
			if !sess.GoBack() {
				sess.Reset()
			}
			continue
		}

		value, ok := optionValue(q, input)
		if !ok {
			color.New(color.FgRed).Fprintln(w.out, "Invalid selection. Please try again.")
			continue
		}
		from := sess.Category()
		if _, err := sess.SubmitAnswer(ctx, value); err != nil {
			return err
		}
		if to := sess.Category(); to != from {
			color.New(color.FgCyan).Fprintf(w.out, "\nThat sounds like: %s\n", sess.Flow().Title)
		}
	}

	printReport(w.out, sess.Report())
	return nil
}

func (w *wizard) pickCategory(ctx context.Context, sess *assessment.Session) error {
	entries := flows.Menu(ctx, w.engine.source)
	if len(entries) == 0 {
		return errors.New("no categories are available")
	}
	for {
		printMenu(w.out, entries)
		input, err := w.prompt(fmt.Sprintf("Select (1-%d) or 'q' to quit: ", len(entries)))
		if err != nil {
			return err
		}
		if input == "q" {
			return errQuit
		}
		n, err := strconv.Atoi(input)
		if err != nil || n < 1 || n > len(entries) {
			color.New(color.FgRed).Fprintln(w.out, "Invalid selection. Please try again.")
			continue
		}
		_, err = sess.SelectCategory(ctx, entries[n-1].Category)
		return err
	}
}

func (w *wizard) prompt(text string) (string, error) {
	color.New(color.FgCyan).Fprint(w.out, text)
	line, err := w.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		if err == io.EOF {
			return "", errQuit
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.ToLower(strings.TrimSpace(line)), nil
}

// optionValue resolves a 1-based option number or an option value.
func optionValue(q *flows.Question, input string) (string, bool) {
	if n, err := strconv.Atoi(input); err == nil {
		if n >= 1 && n <= len(q.Options) {
			return q.Options[n-1].Value, true
		}
		return "", false
	}
	if q.Option(input) != nil {
		return input, true
	}
	return "", false
}
