package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mbd888/scamcheck/internal/assessment"
	"github.com/mbd888/scamcheck/internal/validation"
)

func newAssessCommand(opts *options) *cobra.Command {
	var (
		category string
		answers  []string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "assess --category <category> --answers a,b,c",
		Short: "Classify a complete set of answers",
		Long: `Replays the answers through the questionnaire and prints the verdict.

Answers are option values in the order the questions are asked, following
any jumps. For the "other" category the first answer picks the situation.`,
		Example: `  scamcheck assess --category marketplace --answers no,yes,no,no
  scamcheck assess --category other --answers purchase-or-item,yes,yes,yes,yes --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(answers) > validation.MaxAnswers {
				return assessment.ErrTooManyAnswers
			}
			e, err := opts.engine()
			if err != nil {
				return err
			}

			sess := e.session()
			if _, err := sess.SelectCategory(cmd.Context(), category); err != nil {
				return err
			}
			for i, a := range answers {
				if sess.IsComplete() {
					return fmt.Errorf("%d answer(s) past the end of the %s questionnaire", len(answers)-i, sess.Category())
				}
				if _, err := sess.SubmitAnswer(cmd.Context(), a); err != nil {
					return fmt.Errorf("answer %d: %w", i+1, err)
				}
			}
			if !sess.IsComplete() {
				q := sess.CurrentQuestion()
				return fmt.Errorf("%w: next question is %q", assessment.ErrIncomplete, q.Text)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(sess.Report())
			}
			printReport(out, sess.Report())
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "category to assess (see 'scamcheck categories')")
	cmd.Flags().StringSliceVarP(&answers, "answers", "a", nil, "comma-separated option values in answer order")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}
