package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mbd888/scamcheck/internal/flows"
)

func newFlowsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flows",
		Short: "Inspect and manage flow definitions",
	}
	cmd.AddCommand(newFlowsValidateCommand())
	cmd.AddCommand(newFlowsExportCommand())
	return cmd
}

func newFlowsValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>...",
		Short: "Validate flow YAML files",
		Long: `Parses and validates each file, checking question ids, option values,
jump targets and reassurance patterns.

Exit code: 0 if every file is valid, 1 otherwise`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			green := color.New(color.FgGreen)
			red := color.New(color.FgRed)

			failed := 0
			for _, path := range args {
				f, err := flows.LoadFile(path)
				if err != nil {
					failed++
					red.Fprintf(out, "✗ %s\n", path)
					fmt.Fprintf(out, "  %v\n", err)
					continue
				}
				green.Fprintf(out, "✓ %s", path)
				fmt.Fprintf(out, " (%s, %d questions)\n", f.Category, f.Len())
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d flow files invalid", failed, len(args))
			}
			return nil
		},
	}
}

func newFlowsExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export <dir>",
		Short: "Write the built-in flows as YAML",
		Long: `Writes one <category>.yaml per built-in flow. The files are a starting
point for overrides loaded with --flows-dir or FLOW_OVERRIDE_DIR.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", dir, err)
			}

			defaults := flows.Defaults()
			categories := make([]string, 0, len(defaults))
			for c := range defaults {
				categories = append(categories, c)
			}
			sort.Strings(categories)

			for _, c := range categories {
				path := filepath.Join(dir, c+".yaml")
				if err := flows.WriteFile(path, defaults[c]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}
}
