// scamcheck MCP server - exposes the risk assessment as MCP tools for LLMs.
//
// With SCAMCHECK_API_URL set the tools call a running scamcheck server;
// otherwise checks run in-process on the built-in flows plus any
// FLOW_OVERRIDE_DIR overrides.
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mbd888/scamcheck/internal/assessment"
	"github.com/mbd888/scamcheck/internal/config"
	"github.com/mbd888/scamcheck/internal/flows"
	"github.com/mbd888/scamcheck/internal/logging"
	"github.com/mbd888/scamcheck/internal/mcpserver"
	"github.com/mbd888/scamcheck/internal/risk"
)

// Version is set by ldflags.
var Version = "dev"

func main() {
	backend, err := newBackend()
	if err != nil {
		fmt.Fprintf(os.Stderr, "MCP server setup failed: %v\n", err)
		os.Exit(1)
	}

	s := mcpserver.NewMCPServer(backend, Version)
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		os.Exit(1)
	}
}

func newBackend() (mcpserver.Backend, error) {
	if apiURL := os.Getenv("SCAMCHECK_API_URL"); apiURL != "" {
		return mcpserver.NewClient(mcpserver.Config{
			APIURL: apiURL,
			APIKey: os.Getenv("SCAMCHECK_API_KEY"),
		}), nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	// stdout carries the protocol; logs go to stderr.
	logger := logging.NewWithWriter(os.Stderr, cfg.LogLevel, "text")

	policy, err := assessment.ParsePolicy(cfg.AnswerPolicy)
	if err != nil {
		return nil, err
	}

	var overrides []flows.Source
	if cfg.FlowOverrideDir != "" {
		fs, err := flows.LoadDir(cfg.FlowOverrideDir)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, fs)
	}
	source := flows.NewLayeredStore(flows.NewDefaultMemoryStore(), overrides...)

	svc := assessment.NewService(source, risk.NewClassifier(logger), assessment.NewMemoryStore(), logger).
		WithPolicy(policy)
	return mcpserver.NewLocal(source, svc), nil
}
