package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mbd888/scamcheck/internal/flows"
)

func newCategoriesCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the situations that can be checked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.engine()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			green := color.New(color.FgGreen)
			for _, entry := range flows.Menu(cmd.Context(), e.source) {
				fmt.Fprintf(out, "%-22s %s %s\n", entry.Category, entry.Title,
					green.Sprintf("(%d questions)", entry.QuestionCount))
			}
			return nil
		},
	}
}
