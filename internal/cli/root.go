// Package cli implements the scamcheck command-line tool.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mbd888/scamcheck/internal/assessment"
	"github.com/mbd888/scamcheck/internal/flows"
	"github.com/mbd888/scamcheck/internal/logging"
	"github.com/mbd888/scamcheck/internal/risk"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// options are the persistent flags shared by every subcommand.
type options struct {
	flowsDir string
	policy   string
	logLevel string
}

// engine is the in-process check engine the subcommands run against.
type engine struct {
	source     flows.Store
	classifier *risk.Classifier
	policy     assessment.Policy
	logger     *slog.Logger
}

func (o *options) engine() (*engine, error) {
	policy, err := assessment.ParsePolicy(o.policy)
	if err != nil {
		return nil, err
	}

	var overrides []flows.Source
	if o.flowsDir != "" {
		fs, err := flows.LoadDir(o.flowsDir)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, fs)
	}

	logger := logging.NewWithWriter(os.Stderr, o.logLevel, "text")
	return &engine{
		source:     flows.NewLayeredStore(flows.NewDefaultMemoryStore(), overrides...),
		classifier: risk.NewClassifier(logger),
		policy:     policy,
		logger:     logger,
	}, nil
}

func (e *engine) session() *assessment.Session {
	return assessment.NewSession(e.source, e.classifier, assessment.WithPolicy(e.policy), assessment.WithLogger(e.logger))
}

// NewRootCommand creates and returns the root cobra command for scamcheck
func NewRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "scamcheck",
		Short: "Check whether a payment situation looks like a scam",
		Long: `scamcheck walks you through a short questionnaire about a payment or
request you have received and tells you how risky it looks.

Run "scamcheck check" for the interactive questionnaire, or
"scamcheck assess" to classify answers you already have.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
		// main prints the returned error
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.flowsDir, "flows-dir", "", "directory of <category>.yaml flow overrides")
	cmd.PersistentFlags().StringVar(&opts.policy, "policy", string(assessment.PolicyLenient), "unknown-answer policy: lenient or strict")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "error", "log level: debug, info, warn or error")

	cmd.AddCommand(newCategoriesCommand(opts))
	cmd.AddCommand(newCheckCommand(opts))
	cmd.AddCommand(newAssessCommand(opts))
	cmd.AddCommand(newFlowsCommand())

	return cmd
}
